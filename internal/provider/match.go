package provider

import (
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/matsen/papermem/internal/bibtex"
	"github.com/matsen/papermem/internal/paper"
)

// titleTolerance is the largest edit distance between normalized titles
// still counted as the same work.
const titleTolerance = 4

// titleMatches reports whether a provider's title names the queried work.
func titleMatches(want, got string) bool {
	a, b := paper.NormalizeTitle(want), paper.NormalizeTitle(got)
	if a == "" || b == "" {
		return false
	}
	if a == b {
		return true
	}
	return levenshtein.ComputeDistance(a, b) <= titleTolerance
}

// queryTitle returns the entry's title, or ErrNoMatch when there is nothing to search for.
func queryTitle(e bibtex.Entry) (string, error) {
	title := e.Title()
	if title == "" {
		return "", fmt.Errorf("%w: entry %q has no title", ErrNoMatch, e.CitationKey)
	}
	return title, nil
}

// isPreprintVenue matches venue names that are themselves preprint servers.
func isPreprintVenue(venue string) bool {
	v := strings.ToLower(strings.TrimSpace(venue))
	if v == "" || v == "corr" {
		return true
	}
	for _, server := range []string{"arxiv", "biorxiv", "medrxiv", "ssrn", "research square", "preprints"} {
		if strings.Contains(v, server) {
			return true
		}
	}
	return false
}

// uniqueVenue returns the single venue among candidates, ErrNoMatch when
// there are none, and ErrAmbiguous when they disagree.
func uniqueVenue(venues []string) (string, error) {
	var found string
	for _, v := range venues {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if found == "" {
			found = v
			continue
		}
		if !strings.EqualFold(found, v) {
			return "", fmt.Errorf("%w: %q and %q", ErrAmbiguous, found, v)
		}
	}
	if found == "" {
		return "", ErrNoMatch
	}
	return found, nil
}

// publishedBibTeX parses a provider's BibTeX and rejects entries that still
// describe the preprint.
func publishedBibTeX(name, text string) (string, bibtex.Entry, error) {
	entries, err := bibtex.Parse(text)
	if err != nil {
		return "", bibtex.Entry{}, fmt.Errorf("%w: %s bibtex: %v", ErrInvalidResponse, name, err)
	}
	if len(entries) == 0 {
		return "", bibtex.Entry{}, fmt.Errorf("%w: %s returned no bibtex entry", ErrInvalidResponse, name)
	}
	if bibtex.IsPreprint(entries[0]) {
		return "", bibtex.Entry{}, fmt.Errorf("%w: %s only knows the preprint", ErrNoMatch, name)
	}
	return text, entries[0], nil
}
