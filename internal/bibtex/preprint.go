package bibtex

import (
	"regexp"
	"strings"
)

// preprintFields are fields that only make sense for the preprint version of a paper.
var preprintFields = []string{
	"eprint", "archiveprefix", "eprinttype", "eprintclass", "primaryclass", "arxivid", "arxiv",
}

var (
	// arxivIDPattern matches new-style (1703.10593) and old-style (hep-th/9901001) ids.
	arxivIDPattern = regexp.MustCompile(`^(\d{4}\.\d{4,5}|[a-z-]+(?:\.[A-Z]{2})?/\d{7})(v\d+)?$`)

	// arxivJournalPattern matches journal values naming arXiv itself,
	// e.g. "arXiv preprint arXiv:1703.10593" or "ArXiv".
	arxivJournalPattern = regexp.MustCompile(`(?i)^\s*arxiv(?:\s+preprint)?(?:\s*,?\s*(?:arxiv:|abs/)\s*(\S+))?\s*$`)

	// arxivURLPattern extracts an id from an arXiv URL field.
	arxivURLPattern = regexp.MustCompile(`arxiv\.org/(?:abs|pdf)/([^\s?#}]+?)(?:\.pdf)?(?:[?#].*)?$`)

	versionPattern = regexp.MustCompile(`v\d+$`)
)

// IsPreprint reports whether the entry cites a preprint. The check looks at
// identifier fields and at a journal that names the preprint server itself,
// never at arbitrary text.
func IsPreprint(e Entry) bool {
	if ArXivID(e) != "" {
		return true
	}
	if journal := e.Get("journal"); journal != "" {
		if arxivJournalPattern.MatchString(journal) || isCoRR(e) {
			return true
		}
	}
	return strings.EqualFold(strings.TrimSpace(e.Get("archiveprefix")), "arxiv") ||
		strings.EqualFold(strings.TrimSpace(e.Get("eprinttype")), "arxiv")
}

// ArXivID returns the unversioned arXiv id the entry refers to, or "".
func ArXivID(e Entry) string {
	for _, name := range []string{"arxivid", "arxiv"} {
		if id := cleanArXivID(e.Get(name)); id != "" {
			return id
		}
	}

	if eprint := e.Get("eprint"); eprint != "" {
		archive := strings.ToLower(strings.TrimSpace(e.Get("archiveprefix") + e.Get("eprinttype")))
		if archive == "" || archive == "arxiv" {
			if id := cleanArXivID(eprint); id != "" {
				return id
			}
		}
	}

	if m := arxivJournalPattern.FindStringSubmatch(e.Get("journal")); m != nil {
		if id := cleanArXivID(m[1]); id != "" {
			return id
		}
	}
	if isCoRR(e) {
		if id := cleanArXivID(strings.TrimPrefix(e.Get("volume"), "abs/")); id != "" {
			return id
		}
	}

	if m := arxivURLPattern.FindStringSubmatch(e.Get("url")); m != nil {
		return cleanArXivID(m[1])
	}
	return ""
}

// isCoRR matches DBLP's rendering of arXiv papers: journal = {CoRR}, volume = {abs/...}.
func isCoRR(e Entry) bool {
	return strings.EqualFold(strings.TrimSpace(e.Get("journal")), "corr") &&
		strings.HasPrefix(strings.TrimSpace(e.Get("volume")), "abs/")
}

func cleanArXivID(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "arXiv:")
	s = strings.TrimPrefix(s, "arxiv:")
	s = strings.TrimSpace(s)
	if !arxivIDPattern.MatchString(s) {
		return ""
	}
	return versionPattern.ReplaceAllString(s, "")
}

// StripPreprint returns a copy of the entry without preprint identifier
// fields and without any field whose value mentions arXiv.
func StripPreprint(e Entry) Entry {
	out := e.Clone()
	for _, name := range preprintFields {
		out.Delete(name)
	}
	if isCoRR(e) {
		out.Delete("journal")
		out.Delete("volume")
	}
	for name, value := range out.Fields {
		if strings.Contains(strings.ToLower(value), "arxiv") {
			delete(out.Fields, name)
		}
	}
	return out
}

// WithVenue returns the entry rewritten as a publication in venue: preprint
// fields are stripped, and the venue is stored as booktitle for proceedings
// or journal otherwise.
func WithVenue(e Entry, venue string) Entry {
	out := StripPreprint(e)
	out.EntryType = EntryTypeForVenue(venue)
	if out.EntryType == "inproceedings" {
		out.Delete("journal")
		out.Set("booktitle", venue)
	} else {
		out.Delete("booktitle")
		out.Set("journal", venue)
	}
	return out
}

// EntryTypeForVenue returns the BibTeX entry type for a venue name.
func EntryTypeForVenue(venue string) string {
	v := strings.ToLower(venue)

	// Conference proceedings
	for _, marker := range []string{"proceedings", "conference", "workshop", "symposium", "meeting", "neurips", "iclr", "icml", "cvpr", "iccv", "eccv", "acl", "emnlp"} {
		if strings.Contains(v, marker) {
			return "inproceedings"
		}
	}

	// Default to article
	return "article"
}

// Venue returns the entry's journal or booktitle.
func Venue(e Entry) string {
	if j := e.Get("journal"); j != "" {
		return j
	}
	return e.Get("booktitle")
}
