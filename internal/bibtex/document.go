package bibtex

import "strings"

// Document is a parsed .bib file together with its source text. Comments,
// @preamble and @string blocks, and the formatting of every entry survive a
// Rewrite unless the entry itself is replaced.
type Document struct {
	Text    string
	Entries []Entry

	spans []span // Byte range of each entry in Text
}

type span struct {
	start, end int
}

// Rewrite returns the source text with Entries[i] replaced by
// replacements[i]. Indices outside Entries are ignored.
func (d *Document) Rewrite(replacements map[int]Entry) string {
	if len(replacements) == 0 {
		return d.Text
	}

	var b strings.Builder
	pos := 0
	for i, sp := range d.spans {
		e, ok := replacements[i]
		if !ok {
			continue
		}
		b.WriteString(d.Text[pos:sp.start])
		b.WriteString(strings.TrimSuffix(ToString(e), "\n"))
		pos = sp.end
	}
	b.WriteString(d.Text[pos:])
	return b.String()
}
