package bibtex

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/matsen/papermem/internal/paper"
)

// FromRecord returns the citation entry of a stored paper. A record's own
// BibTeX wins; otherwise an @misc entry is built from its metadata.
func FromRecord(r paper.Record) Entry {
	if r.BibTeX != "" {
		if entries, err := Parse(r.BibTeX); err == nil && len(entries) > 0 {
			return entries[0]
		}
	}

	e := Entry{EntryType: "misc", CitationKey: CiteKey(r.Author, r.Year, r.Title)}
	if r.Author != "" {
		e.Set("author", r.Author)
	}
	e.Set("title", escapeLatex(r.Title))
	if r.Year != "" {
		e.Set("year", r.Year)
	}
	if r.LandingURL != "" {
		e.Set("url", r.LandingURL)
	}
	return e
}

// CiteKey generates a citation key: LastName + Year + "-" + two title letters
// (e.g. "Zhu2017-ui").
func CiteKey(author, year, title string) string {
	lastName := "Unknown"
	if first := strings.TrimSpace(strings.Split(author, " and ")[0]); first != "" {
		lastName = sanitizeForCiteKey(lastWord(first))
	}
	if year == "" {
		year = "9999"
	}
	return fmt.Sprintf("%s%s-%s", lastName, year, titleSuffix(title))
}

// lastWord handles both "Last, First" and "First Last".
func lastWord(name string) string {
	if last, _, ok := strings.Cut(name, ","); ok {
		return last
	}
	fields := strings.Fields(name)
	return fields[len(fields)-1]
}

// sanitizeForCiteKey removes non-alphanumeric characters.
func sanitizeForCiteKey(s string) string {
	var result strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// titleSuffix creates a 2-letter suffix from the title.
func titleSuffix(title string) string {
	words := strings.Fields(paper.NormalizeTitle(title))
	stopWords := map[string]bool{"a": true, "an": true, "the": true, "of": true, "and": true, "in": true, "on": true, "for": true, "to": true, "with": true}

	var suffix strings.Builder
	n := 0
	for _, word := range words {
		if !stopWords[word] {
			r, _ := utf8.DecodeRuneInString(word)
			suffix.WriteRune(r)
			if n++; n >= 2 {
				break
			}
		}
	}

	// Pad if needed
	for ; n < 2; n++ {
		suffix.WriteByte('x')
	}

	return suffix.String()
}

// escapeLatex escapes special LaTeX characters.
func escapeLatex(s string) string {
	// Order matters: & must be first (before other escapes that might produce &)
	replacer := strings.NewReplacer(
		"&", `\&`,
		"%", `\%`,
		"$", `\$`,
		"#", `\#`,
		"_", `\_`,
		"~", `\textasciitilde{}`,
		"^", `\textasciicircum{}`,
	)
	return replacer.Replace(s)
}
