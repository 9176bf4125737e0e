// Package paper defines the core domain types for tracked papers.
package paper

import (
	"sort"
	"strings"
	"time"
)

// ID is the canonical, version-independent identifier of a paper: {prefix}-{localId}.
type ID string

// NewID joins a source prefix and a source-local id.
func NewID(prefix, localID string) ID {
	return ID(prefix + "-" + localID)
}

// Split returns the source prefix and local id of the identifier.
// ok is false if the identifier has no prefix separator.
func (id ID) Split() (prefix, localID string, ok bool) {
	prefix, localID, ok = strings.Cut(string(id), "-")
	if !ok || prefix == "" || localID == "" {
		return "", "", false
	}
	return prefix, localID, true
}

// Record represents one tracked paper.
type Record struct {
	// Identity
	ID     ID     `json:"id"`
	Source string `json:"source"` // Name of the source that first classified the paper

	// Metadata
	Title  string `json:"title"`
	Author string `json:"author"`
	Year   string `json:"year"`

	// Locations
	DocumentURL string   `json:"document_url"`
	LandingURL  string   `json:"landing_url"`
	Aliases     []string `json:"aliases,omitempty"` // URLs of observations merged into this record

	// User data
	BibTeX   string   `json:"bibtex,omitempty"`
	Tags     []string `json:"tags,omitempty"` // Sorted, unique
	Note     string   `json:"note,omitempty"`
	CodeLink string   `json:"code_link,omitempty"`

	// Activity
	AddDate      time.Time  `json:"add_date"`
	LastOpenDate time.Time  `json:"last_open_date"`
	FavoriteDate *time.Time `json:"favorite_date,omitempty"`
	VisitCount   int        `json:"visit_count"`
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	out := r
	if r.Aliases != nil {
		out.Aliases = append([]string(nil), r.Aliases...)
	}
	if r.Tags != nil {
		out.Tags = append([]string(nil), r.Tags...)
	}
	if r.FavoriteDate != nil {
		t := *r.FavoriteDate
		out.FavoriteDate = &t
	}
	return out
}

// IsFavorite reports whether the paper has been marked as a favorite.
func (r Record) IsFavorite() bool {
	return r.FavoriteDate != nil
}

// Hints is the metadata an observation may carry besides its URL.
type Hints struct {
	Title    string   `json:"title,omitempty"`
	Author   string   `json:"author,omitempty"`
	Year     string   `json:"year,omitempty"`
	BibTeX   string   `json:"bibtex,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	Note     string   `json:"note,omitempty"`
	CodeLink string   `json:"code_link,omitempty"`
	Favorite bool     `json:"favorite,omitempty"`
}

// Draft is a candidate record produced from one observation.
type Draft struct {
	ID          ID
	Source      string
	DocumentURL string
	LandingURL  string
	Hints
}

// UnionTags returns the sorted set union of two tag lists.
// Blank tags are dropped.
func UnionTags(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var out []string
	for _, list := range [][]string{a, b} {
		for _, tag := range list {
			tag = strings.TrimSpace(tag)
			if tag == "" || seen[tag] {
				continue
			}
			seen[tag] = true
			out = append(out, tag)
		}
	}
	sort.Strings(out)
	return out
}
