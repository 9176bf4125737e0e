package bibtex

import (
	"fmt"
	"os"
	"strings"
	"unicode"
)

// ParseError describes malformed BibTeX input.
type ParseError struct {
	Line    int
	Message string
}

func (e ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// Parse reads every entry in text. @comment and @preamble blocks are
// skipped; @string macros are expanded in later values.
func Parse(text string) ([]Entry, error) {
	doc, err := ParseDocument(text)
	if err != nil {
		return nil, err
	}
	return doc.Entries, nil
}

// ParseDocument is Parse keeping the source text, so entries can later be
// replaced without disturbing anything around them.
func ParseDocument(text string) (*Document, error) {
	p := &parser{src: text, macros: make(map[string]string)}
	doc := &Document{Text: text}

	for {
		at := strings.IndexByte(p.src[p.pos:], '@')
		if at < 0 {
			return doc, nil
		}
		entryStart := p.pos + at
		p.pos += at + 1

		entryType := strings.ToLower(p.ident())
		p.skipSpace()
		if entryType == "" || p.eof() || (p.peek() != '{' && p.peek() != '(') {
			continue // Stray @ in free text
		}
		closer := byte('}')
		if p.peek() == '(' {
			closer = ')'
		}
		start := p.pos
		p.pos++

		switch entryType {
		case "comment", "preamble":
			p.pos = start
			if err := p.skipBalanced(); err != nil {
				return nil, err
			}
			continue
		case "string":
			if err := p.parseMacro(closer); err != nil {
				return nil, err
			}
			continue
		}

		entry, err := p.parseEntry(entryType, closer)
		if err != nil {
			return nil, err
		}
		doc.Entries = append(doc.Entries, entry)
		doc.spans = append(doc.spans, span{start: entryStart, end: p.pos})
	}
}

// ParseFile reads and parses a .bib file.
func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading bib file: %w", err)
	}
	return ParseDocument(string(data))
}

type parser struct {
	src    string
	pos    int
	macros map[string]string
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) peek() byte { return p.src[p.pos] }

func (p *parser) line() int {
	return strings.Count(p.src[:min(p.pos, len(p.src))], "\n") + 1
}

func (p *parser) errorf(format string, args ...any) error {
	return ParseError{Line: p.line(), Message: fmt.Sprintf(format, args...)}
}

func (p *parser) skipSpace() {
	for !p.eof() && unicode.IsSpace(rune(p.peek())) {
		p.pos++
	}
}

// ident reads a field name, entry type, or macro name.
func (p *parser) ident() string {
	start := p.pos
	for !p.eof() {
		c := p.peek()
		if c == '{' || c == '}' || c == '(' || c == ')' || c == ',' || c == '=' || c == '#' || c == '"' || unicode.IsSpace(rune(c)) {
			break
		}
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *parser) parseEntry(entryType string, closer byte) (Entry, error) {
	entry := Entry{EntryType: entryType, Fields: make(map[string]string)}

	p.skipSpace()
	keyStart := p.pos
	for !p.eof() && p.peek() != ',' && p.peek() != closer {
		p.pos++
	}
	if p.eof() {
		return Entry{}, p.errorf("unterminated @%s entry", entryType)
	}
	entry.CitationKey = strings.TrimSpace(p.src[keyStart:p.pos])

	for {
		p.skipSpace()
		for !p.eof() && p.peek() == ',' {
			p.pos++
			p.skipSpace()
		}
		if p.eof() {
			return Entry{}, p.errorf("unterminated entry %q", entry.CitationKey)
		}
		if p.peek() == closer {
			p.pos++
			return entry, nil
		}

		name := strings.ToLower(p.ident())
		if name == "" {
			return Entry{}, p.errorf("expected field name in entry %q", entry.CitationKey)
		}
		p.skipSpace()
		if p.eof() || p.peek() != '=' {
			return Entry{}, p.errorf("expected '=' after field %q in entry %q", name, entry.CitationKey)
		}
		p.pos++

		value, err := p.value(closer)
		if err != nil {
			return Entry{}, err
		}
		entry.Fields[name] = value
	}
}

func (p *parser) parseMacro(closer byte) error {
	p.skipSpace()
	name := strings.ToLower(p.ident())
	p.skipSpace()
	if name == "" || p.eof() || p.peek() != '=' {
		return p.errorf("malformed @string")
	}
	p.pos++
	value, err := p.value(closer)
	if err != nil {
		return err
	}
	p.macros[name] = value
	p.skipSpace()
	if !p.eof() && p.peek() == closer {
		p.pos++
	}
	return nil
}

// value reads a field value: braced, quoted, or bare parts joined by '#'.
func (p *parser) value(closer byte) (string, error) {
	var b strings.Builder
	for {
		p.skipSpace()
		if p.eof() {
			return "", p.errorf("unexpected end of input in value")
		}

		switch c := p.peek(); c {
		case '{':
			start := p.pos
			if err := p.skipBalanced(); err != nil {
				return "", err
			}
			b.WriteString(p.src[start+1 : p.pos-1])
		case '"':
			s, err := p.quoted()
			if err != nil {
				return "", err
			}
			b.WriteString(s)
		default:
			token := p.ident()
			if token == "" {
				return "", p.errorf("expected value, got %q", string(c))
			}
			if v, ok := p.macros[strings.ToLower(token)]; ok {
				token = v
			}
			b.WriteString(token)
		}

		p.skipSpace()
		if !p.eof() && p.peek() == '#' {
			p.pos++
			continue
		}
		if !p.eof() && p.peek() != ',' && p.peek() != closer {
			return "", p.errorf("unexpected %q after value", string(p.peek()))
		}
		return b.String(), nil
	}
}

// skipBalanced advances past a brace- or paren-delimited group starting at p.pos.
func (p *parser) skipBalanced() error {
	open := p.peek()
	closer := byte('}')
	if open == '(' {
		closer = ')'
	}
	start := p.line()
	depth := 0
	for !p.eof() {
		c := p.peek()
		p.pos++
		switch c {
		case open:
			depth++
		case closer:
			depth--
			if depth == 0 {
				return nil
			}
		}
	}
	return ParseError{Line: start, Message: "unbalanced braces"}
}

// quoted reads a "..." value; braces inside may protect quotes.
func (p *parser) quoted() (string, error) {
	start := p.line()
	p.pos++ // opening quote
	valueStart := p.pos
	depth := 0
	for !p.eof() {
		c := p.peek()
		switch {
		case c == '{':
			depth++
		case c == '}':
			depth--
		case c == '"' && depth == 0:
			s := p.src[valueStart:p.pos]
			p.pos++
			return s, nil
		}
		p.pos++
	}
	return "", ParseError{Line: start, Message: "unterminated quoted value"}
}
