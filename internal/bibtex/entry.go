// Package bibtex parses and serializes BibTeX citation entries.
package bibtex

import (
	"fmt"
	"sort"
	"strings"
)

// Entry is one citation record.
type Entry struct {
	EntryType   string            `json:"entry_type"`
	CitationKey string            `json:"citation_key"`
	Fields      map[string]string `json:"fields"` // Keys are lowercase
}

// fieldOrder lists the fields written first, in this order. Other fields
// follow alphabetically.
var fieldOrder = []string{
	"author", "title", "journal", "booktitle", "year", "month",
	"volume", "number", "pages", "publisher", "doi", "url",
}

// Get returns a field value, or "" if the field is absent.
func (e Entry) Get(name string) string {
	return e.Fields[strings.ToLower(name)]
}

// Set assigns a field value.
func (e *Entry) Set(name, value string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[strings.ToLower(name)] = value
}

// Delete removes a field.
func (e *Entry) Delete(name string) {
	delete(e.Fields, strings.ToLower(name))
}

// Title returns the entry title without BibTeX braces.
func (e Entry) Title() string {
	return strings.Join(strings.Fields(strings.NewReplacer("{", "", "}", "").Replace(e.Get("title"))), " ")
}

// Clone returns a deep copy of the entry.
func (e Entry) Clone() Entry {
	out := Entry{EntryType: e.EntryType, CitationKey: e.CitationKey}
	if e.Fields != nil {
		out.Fields = make(map[string]string, len(e.Fields))
		for k, v := range e.Fields {
			out.Fields[k] = v
		}
	}
	return out
}

// String renders the entry as BibTeX.
func (e Entry) String() string {
	return ToString(e)
}

// ToString converts an entry to BibTeX text. Values are written verbatim
// inside braces so Parse(ToString(e)) reproduces e's fields.
func ToString(e Entry) string {
	var b strings.Builder

	entryType := strings.ToLower(e.EntryType)
	if entryType == "" {
		entryType = "misc"
	}
	b.WriteString(fmt.Sprintf("@%s{%s,\n", entryType, e.CitationKey))

	for _, name := range orderedFields(e.Fields) {
		b.WriteString(fmt.Sprintf("  %s = {%s},\n", name, e.Fields[name]))
	}

	b.WriteString("}\n")
	return b.String()
}

// ToStringList converts multiple entries to BibTeX, separated by blank lines.
func ToStringList(entries []Entry) string {
	var parts []string
	for _, e := range entries {
		parts = append(parts, ToString(e))
	}
	return strings.Join(parts, "\n")
}

func orderedFields(fields map[string]string) []string {
	rank := make(map[string]int, len(fieldOrder))
	for i, name := range fieldOrder {
		rank[name] = i + 1
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		ri, rj := rank[names[i]], rank[names[j]]
		switch {
		case ri > 0 && rj > 0:
			return ri < rj
		case ri > 0:
			return true
		case rj > 0:
			return false
		default:
			return names[i] < names[j]
		}
	})
	return names
}
