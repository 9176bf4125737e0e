package identity

import (
	"strings"
	"time"

	"github.com/matsen/papermem/internal/paper"
	"github.com/matsen/papermem/internal/source"
)

// newRecord builds the first record of a paper from its draft.
func newRecord(d paper.Draft, now time.Time) *paper.Record {
	rec := &paper.Record{
		ID:           d.ID,
		Source:       d.Source,
		Title:        strings.TrimSpace(d.Title),
		Author:       strings.TrimSpace(d.Author),
		Year:         strings.TrimSpace(d.Year),
		DocumentURL:  d.DocumentURL,
		LandingURL:   d.LandingURL,
		BibTeX:       d.BibTeX,
		Tags:         paper.UnionTags(nil, d.Tags),
		Note:         d.Note,
		CodeLink:     d.CodeLink,
		AddDate:      now,
		LastOpenDate: now,
		VisitCount:   1,
	}
	if d.Favorite {
		fav := now
		rec.FavoriteDate = &fav
	}
	return rec
}

// observe applies one more observation to an existing record: the visit is
// counted, empty fields are filled, and the draft's URLs become aliases if
// the record does not already know them.
func observe(rec *paper.Record, d paper.Draft, now time.Time) {
	rec.VisitCount++
	if now.After(rec.LastOpenDate) {
		rec.LastOpenDate = now
	}

	fill(&rec.Source, d.Source)
	fill(&rec.Title, strings.TrimSpace(d.Title))
	fill(&rec.Author, strings.TrimSpace(d.Author))
	fill(&rec.Year, strings.TrimSpace(d.Year))
	fillURL(&rec.DocumentURL, d.DocumentURL)
	fillURL(&rec.LandingURL, d.LandingURL)
	fill(&rec.BibTeX, d.BibTeX)
	fill(&rec.CodeLink, d.CodeLink)
	rec.Note = unionNote(rec.Note, d.Note)
	rec.Tags = paper.UnionTags(rec.Tags, d.Tags)

	if d.Favorite && rec.FavoriteDate == nil {
		fav := now
		rec.FavoriteDate = &fav
	}

	addAliases(rec, d.DocumentURL, d.LandingURL)
}

// mergeRecords folds drop into keep. keep's non-empty values win.
func mergeRecords(keep, drop *paper.Record) {
	fill(&keep.Source, drop.Source)
	fill(&keep.Title, drop.Title)
	fill(&keep.Author, drop.Author)
	fill(&keep.Year, drop.Year)
	fillURL(&keep.DocumentURL, drop.DocumentURL)
	fillURL(&keep.LandingURL, drop.LandingURL)
	fill(&keep.BibTeX, drop.BibTeX)
	fill(&keep.CodeLink, drop.CodeLink)
	keep.Note = unionNote(keep.Note, drop.Note)
	keep.Tags = paper.UnionTags(keep.Tags, drop.Tags)

	keep.VisitCount += drop.VisitCount
	if !drop.AddDate.IsZero() && (keep.AddDate.IsZero() || drop.AddDate.Before(keep.AddDate)) {
		keep.AddDate = drop.AddDate
	}
	if drop.LastOpenDate.After(keep.LastOpenDate) {
		keep.LastOpenDate = drop.LastOpenDate
	}
	if drop.FavoriteDate != nil && (keep.FavoriteDate == nil || drop.FavoriteDate.Before(*keep.FavoriteDate)) {
		fav := *drop.FavoriteDate
		keep.FavoriteDate = &fav
	}

	addAliases(keep, append([]string{drop.DocumentURL, drop.LandingURL}, drop.Aliases...)...)
}

// fill sets *dst to v when *dst is empty. First writer wins.
func fill(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}

// fillURL is fill, treating the placeholder URL as empty.
func fillURL(dst *string, v string) {
	if v == "" || v == source.PlaceholderURL {
		return
	}
	if *dst == "" || *dst == source.PlaceholderURL {
		*dst = v
	}
}

// unionNote keeps both notes when they differ.
func unionNote(a, b string) string {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	switch {
	case a == "":
		return b
	case b == "" || strings.Contains(a, b):
		return a
	case strings.Contains(b, a):
		return b
	default:
		return a + "\n" + b
	}
}

// addAliases records URLs that identify the record but are neither its
// document nor its landing URL.
func addAliases(rec *paper.Record, urls ...string) {
	known := make(map[string]bool)
	for _, u := range recordURLs(rec) {
		if fp := urlFingerprint(u); fp != "" {
			known[fp] = true
		}
	}
	for _, u := range urls {
		fp := urlFingerprint(u)
		if fp == "" || known[fp] {
			continue
		}
		known[fp] = true
		rec.Aliases = append(rec.Aliases, source.Normalize(u))
	}
}
