// Package source classifies URLs into known publication sources and converts
// between the landing-page and document forms of a paper's URL.
package source

import (
	"net/url"
	"regexp"
	"strings"
)

// PlaceholderURL is returned when a source has no known URL for the requested form.
const PlaceholderURL = "https://papermem.invalid/unavailable"

// Rule decides whether a normalized URL belongs to a source.
// A rule is either a literal substring or a predicate.
type Rule struct {
	substring string
	predicate func(string) bool
}

// Substring returns a rule matching URLs that contain s.
func Substring(s string) Rule {
	return Rule{substring: s}
}

// Predicate returns a rule matching URLs for which f returns true.
func Predicate(f func(string) bool) Rule {
	return Rule{predicate: f}
}

// Matches reports whether the rule accepts the normalized URL.
func (r Rule) Matches(u string) bool {
	if r.predicate != nil {
		return r.predicate(u)
	}
	return r.substring != "" && strings.Contains(u, r.substring)
}

// Source describes one publication source and its URL conventions.
type Source struct {
	// Name is the source name, also used as the paper id prefix.
	Name  string
	Rules []Rule

	// Pattern extracts the raw local id from a normalized URL. When it has
	// several capture groups, the groups are joined with "-".
	Pattern *regexp.Regexp

	// Versioned sources carry a trailing vN suffix that is stripped from ids.
	Versioned bool

	// Landing and Document render a local id as a URL. A nil func, or one
	// returning "", means the form is unknown for this source.
	Landing  func(localID string) string
	Document func(localID string) string
}

var versionSuffix = regexp.MustCompile(`v\d+$`)

// matches reports whether any of the source's rules accept u.
func (s *Source) matches(u string) bool {
	for _, rule := range s.Rules {
		if rule.Matches(u) {
			return true
		}
	}
	return false
}

// localID extracts the canonical local id from a normalized URL.
// Returns "" if the URL does not carry an id in a form this source knows.
func (s *Source) localID(u string) string {
	m := s.Pattern.FindStringSubmatch(u)
	if m == nil {
		return ""
	}

	var parts []string
	for _, g := range m[1:] {
		if g != "" {
			parts = append(parts, g)
		}
	}
	if len(parts) == 0 {
		return ""
	}

	id := strings.Join(parts, "-")
	id = strings.TrimSuffix(id, ".pdf")
	if s.Versioned {
		id = versionSuffix.ReplaceAllString(id, "")
	}
	return id
}

func (s *Source) landingURL(localID string) string {
	return render(s.Landing, localID)
}

func (s *Source) documentURL(localID string) string {
	return render(s.Document, localID)
}

func render(f func(string) string, localID string) string {
	if f == nil || localID == "" {
		return PlaceholderURL
	}
	u := f(localID)
	if u == "" {
		return PlaceholderURL
	}
	return secure(u)
}

// secure forces the https scheme.
func secure(u string) string {
	if strings.HasPrefix(u, "http://") {
		return "https://" + strings.TrimPrefix(u, "http://")
	}
	return u
}

// Normalize canonicalizes a URL for matching: trims whitespace, upgrades http
// to https, lowercases the scheme and host, and drops the fragment and any
// trailing slash.
func Normalize(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return strings.TrimRight(secure(raw), "/")
	}

	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme == "http" {
		u.Scheme = "https"
	}
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""
	if u.RawQuery == "" {
		u.ForceQuery = false
	}

	out := u.String()
	if u.RawQuery == "" {
		out = strings.TrimRight(out, "/")
	} else if path, query, ok := strings.Cut(out, "?"); ok {
		out = strings.TrimRight(path, "/") + "?" + query
	}
	return out
}

// hostOf returns the lowercase host of a normalized URL.
func hostOf(u string) string {
	parsed, err := url.Parse(u)
	if err != nil {
		return ""
	}
	return parsed.Hostname()
}

// looksLikeDocument reports whether a normalized URL points at a document
// (PDF or printable form) rather than a landing page.
func looksLikeDocument(u string) bool {
	path := u
	if p, _, ok := strings.Cut(u, "?"); ok {
		path = p
	}
	switch {
	case strings.HasSuffix(path, ".pdf"),
		strings.Contains(path, "/pdf/"),
		strings.HasSuffix(path, "/pdf"),
		strings.HasSuffix(path, "/document"),
		strings.Contains(path, "/stamp/"),
		strings.Contains(path, "/file/"),
		strings.Contains(u, "type=printable"):
		return true
	}
	return false
}
