package source

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"sync"

	"github.com/matsen/papermem/internal/paper"
)

// Registry errors.
var (
	// ErrDuplicateSource indicates a source name was registered twice.
	ErrDuplicateSource = errors.New("duplicate source")

	// ErrInvalidSource indicates a source definition cannot be used.
	ErrInvalidSource = errors.New("invalid source")
)

// Classification is the result of classifying a URL.
type Classification struct {
	Source  string `json:"source"`
	LocalID string `json:"local_id"`
}

// NotAPaper is the classification of a URL that matches no known source.
var NotAPaper = Classification{}

// IsPaper reports whether the classification names a source.
func (c Classification) IsPaper() bool {
	return c.Source != "" && c.LocalID != ""
}

// ID returns the canonical paper id, or "" for NotAPaper.
func (c Classification) ID() paper.ID {
	if !c.IsPaper() {
		return ""
	}
	return paper.NewID(c.Source, c.LocalID)
}

// Canonical holds the canonical forms derived from one observed URL.
type Canonical struct {
	Classification
	LandingURL  string `json:"landing_url"`
	DocumentURL string `json:"document_url"`

	// ObservedDocument is the normalized observed URL when it was a document
	// URL of the source, version suffix included. Empty otherwise.
	ObservedDocument string `json:"observed_document,omitempty"`
}

// Registry holds sources in registration order plus the local file table.
// It is safe for concurrent use. Registered sources are never modified.
type Registry struct {
	mu      sync.RWMutex
	sources []*Source
	byName  map[string]*Source
	local   map[string]paper.ID
}

// NewRegistry creates a registry with the given sources, in order.
func NewRegistry(sources ...Source) (*Registry, error) {
	r := &Registry{
		byName: make(map[string]*Source),
		local:  make(map[string]paper.ID),
	}
	for _, s := range sources {
		if err := r.Register(s); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// DefaultRegistry returns a registry with the built-in sources.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(Builtin()...)
	if err != nil {
		panic(fmt.Sprintf("built-in sources: %v", err))
	}
	return r
}

// Register appends a source. Sources registered earlier take precedence.
func (r *Registry) Register(s Source) error {
	if s.Name == "" || strings.Contains(s.Name, "-") {
		return fmt.Errorf("%w: name %q", ErrInvalidSource, s.Name)
	}
	if s.Pattern == nil || s.Pattern.NumSubexp() == 0 {
		return fmt.Errorf("%w: %s has no id pattern", ErrInvalidSource, s.Name)
	}
	if len(s.Rules) == 0 {
		return fmt.Errorf("%w: %s has no match rules", ErrInvalidSource, s.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[s.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateSource, s.Name)
	}

	src := s
	r.sources = append(r.sources, &src)
	r.byName[s.Name] = &src
	return nil
}

// Names returns the registered source names in registration order.
func (r *Registry) Names() []string {
	sources := r.registered()
	names := make([]string, len(sources))
	for i, s := range sources {
		names[i] = s.Name
	}
	return names
}

// Has reports whether a source with the given name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.lookup(name)
	return ok
}

// registered returns the sources in registration order.
func (r *Registry) registered() []*Source {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sources[:len(r.sources):len(r.sources)]
}

func (r *Registry) lookup(name string) (*Source, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byName[name]
	return s, ok
}

// Classify determines the source and local id of a URL. URLs that match no
// source, and are not in the local file table, classify as NotAPaper.
func (r *Registry) Classify(rawURL string) Classification {
	u := Normalize(rawURL)
	if u == "" {
		return NotAPaper
	}

	for _, s := range r.registered() {
		if !s.matches(u) {
			continue
		}
		// A rule can match a page of the source that is not a paper
		// (listings, search); keep looking in that case.
		if id := s.localID(u); id != "" {
			return Classification{Source: s.Name, LocalID: id}
		}
	}

	if id, ok := r.LookupLocalFile(rawURL); ok {
		if prefix, local, ok := id.Split(); ok {
			return Classification{Source: prefix, LocalID: local}
		}
	}

	return NotAPaper
}

// Canonicalize classifies a URL and derives its canonical landing and
// document URLs. ok is false for NotAPaper.
func (r *Registry) Canonicalize(rawURL string) (Canonical, bool) {
	c := r.Classify(rawURL)
	if !c.IsPaper() {
		return Canonical{}, false
	}

	out := Canonical{Classification: c, LandingURL: PlaceholderURL, DocumentURL: PlaceholderURL}
	s, ok := r.lookup(c.Source)
	if !ok {
		return out, true
	}
	out.LandingURL = s.landingURL(c.LocalID)
	out.DocumentURL = s.documentURL(c.LocalID)

	u := Normalize(rawURL)
	if s.matches(u) && looksLikeDocument(u) {
		out.ObservedDocument = u
	}
	return out, true
}

// ToLandingPage converts any URL form of a paper from the named source into
// its canonical landing-page URL. It never fails: unknown sources, URLs the
// source cannot parse, and sources without a landing form yield PlaceholderURL.
func (r *Registry) ToLandingPage(sourceName, documentURL string) string {
	s, id := r.parse(sourceName, documentURL)
	if s == nil {
		return PlaceholderURL
	}
	return s.landingURL(id)
}

// ToDocument converts any URL form of a paper from the named source into its
// canonical, unversioned document URL, with the same fallbacks as ToLandingPage.
func (r *Registry) ToDocument(sourceName, landingURL string) string {
	s, id := r.parse(sourceName, landingURL)
	if s == nil {
		return PlaceholderURL
	}
	return s.documentURL(id)
}

// URLs renders the canonical landing and document URLs of a paper id.
func (r *Registry) URLs(id paper.ID) (landing, document string, ok bool) {
	prefix, local, ok := id.Split()
	if !ok {
		return "", "", false
	}
	s, exists := r.lookup(prefix)
	if !exists {
		return "", "", false
	}
	return s.landingURL(local), s.documentURL(local), true
}

func (r *Registry) parse(sourceName, rawURL string) (*Source, string) {
	s, ok := r.lookup(sourceName)
	if !ok {
		return nil, ""
	}
	return s, s.localID(Normalize(rawURL))
}

// RecordLocalFile maps a local file (path or file:// URL) to a paper id.
func (r *Registry) RecordLocalFile(path string, id paper.ID) {
	key := localFileKey(path)
	if key == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.local[key] = id
}

// LookupLocalFile returns the paper id recorded for a local file.
func (r *Registry) LookupLocalFile(path string) (paper.ID, bool) {
	key := localFileKey(path)
	if key == "" {
		return "", false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.local[key]
	return id, ok
}

// ForgetPaperFiles removes every local file entry pointing at id.
func (r *Registry) ForgetPaperFiles(id paper.ID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, v := range r.local {
		if v == id {
			delete(r.local, k)
		}
	}
}

// LocalFiles returns a copy of the local file table.
func (r *Registry) LocalFiles() map[string]paper.ID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]paper.ID, len(r.local))
	for k, v := range r.local {
		out[k] = v
	}
	return out
}

// IsLocalFile reports whether s names a local file rather than a web URL.
func IsLocalFile(s string) bool {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "file://") {
		return true
	}
	return s != "" && !strings.Contains(s, "://")
}

// FileURL renders a local path as a file:// URL.
func FileURL(path string) string {
	key := localFileKey(path)
	if key == "" {
		return ""
	}
	return (&url.URL{Scheme: "file", Path: key}).String()
}

// localFileKey returns the cleaned absolute path of a local file reference,
// or "" if s is a web URL.
func localFileKey(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if strings.HasPrefix(s, "file://") {
		u, err := url.Parse(s)
		if err != nil {
			return ""
		}
		s = u.Path
	} else if strings.Contains(s, "://") {
		return ""
	}
	if abs, err := filepath.Abs(s); err == nil {
		s = abs
	}
	return filepath.Clean(s)
}
