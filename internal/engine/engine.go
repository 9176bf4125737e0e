// Package engine is the library facade: it classifies and remembers paper
// observations, persists them, and resolves preprint citations.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/matsen/papermem/internal/bibtex"
	"github.com/matsen/papermem/internal/config"
	"github.com/matsen/papermem/internal/identity"
	"github.com/matsen/papermem/internal/paper"
	"github.com/matsen/papermem/internal/resolver"
	"github.com/matsen/papermem/internal/source"
	"github.com/matsen/papermem/internal/storage"
)

// Engine errors.
var (
	// ErrNotAPaper indicates an observed URL or file matches no known source.
	ErrNotAPaper = errors.New("not a paper")

	// ErrNotFound indicates the paper id is not in the library.
	ErrNotFound = identity.ErrNotFound
)

// Observation is the outcome of recording one observation.
type Observation struct {
	ID     paper.ID        `json:"id"`
	Action identity.Action `json:"action"`
	Record paper.Record    `json:"record"`
}

// Engine owns one library. All methods are safe for concurrent use.
type Engine struct {
	root     string
	registry *source.Registry
	store    *identity.Store
	resolver *resolver.Resolver
	logger   zerolog.Logger

	saveMu sync.Mutex
}

// Option configures an Engine.
type Option func(*engineOptions)

type engineOptions struct {
	registry  *source.Registry
	storeOpts []identity.Option
	resolver  *resolver.Resolver
	logger    zerolog.Logger
}

// WithRegistry replaces the default source registry.
func WithRegistry(r *source.Registry) Option {
	return func(o *engineOptions) {
		o.registry = r
	}
}

// WithStoreOptions passes options to the identity store.
func WithStoreOptions(opts ...identity.Option) Option {
	return func(o *engineOptions) {
		o.storeOpts = append(o.storeOpts, opts...)
	}
}

// WithResolver sets the citation resolver.
func WithResolver(r *resolver.Resolver) Option {
	return func(o *engineOptions) {
		o.resolver = r
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(o *engineOptions) {
		o.logger = l
	}
}

// New creates an in-memory engine with no persisted library.
func New(opts ...Option) *Engine {
	return build("", nil, nil, opts)
}

// Open loads the library rooted at root.
func Open(root string, opts ...Option) (*Engine, error) {
	records, err := storage.LoadPapers(config.PapersPath(root))
	if err != nil {
		return nil, err
	}
	files, err := storage.LoadLocalFiles(config.FilesPath(root))
	if err != nil {
		return nil, err
	}
	return build(root, records, files, opts), nil
}

func build(root string, records map[paper.ID]paper.Record, files map[string]paper.ID, opts []Option) *Engine {
	o := engineOptions{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.registry == nil {
		o.registry = source.DefaultRegistry()
	}
	if o.resolver == nil {
		o.resolver = resolver.New(nil, resolver.WithLogger(o.logger))
	}

	for path, id := range files {
		o.registry.RecordLocalFile(path, id)
	}

	return &Engine{
		root:     root,
		registry: o.registry,
		store:    identity.New(records, o.storeOpts...),
		resolver: o.resolver,
		logger:   o.logger,
	}
}

// Root returns the library root, or "" for an in-memory engine.
func (e *Engine) Root() string {
	return e.root
}

// Registry returns the source registry.
func (e *Engine) Registry() *source.Registry {
	return e.registry
}

// Classify determines the source and local id of a URL.
func (e *Engine) Classify(url string) source.Classification {
	return e.registry.Classify(url)
}

// UpsertObservation records that the user looked at url and returns the id of
// the record that represents the paper.
func (e *Engine) UpsertObservation(url string, hints paper.Hints) (paper.ID, error) {
	obs, err := e.Observe(url, hints)
	if err != nil {
		return "", err
	}
	return obs.ID, nil
}

// Observe is UpsertObservation reporting what the store did.
func (e *Engine) Observe(url string, hints paper.Hints) (Observation, error) {
	c, ok := e.registry.Canonicalize(url)
	if !ok {
		return Observation{}, fmt.Errorf("%w: %s", ErrNotAPaper, url)
	}

	document := c.DocumentURL
	if c.ObservedDocument != "" {
		document = c.ObservedDocument
	}

	out, err := e.store.Observe(paper.Draft{
		ID:          c.ID(),
		Source:      c.Source,
		DocumentURL: document,
		LandingURL:  c.LandingURL,
		Hints:       hints,
	})
	if err != nil {
		return Observation{}, err
	}
	for _, absorbed := range out.Absorbed {
		e.relinkFiles(absorbed, out.ID)
		e.logger.Info().
			Str("id", string(out.ID)).
			Str("absorbed", string(absorbed)).
			Msg("collapsed records with matching titles")
	}

	rec, _ := e.store.Get(out.ID)
	e.logger.Debug().
		Str("url", url).
		Str("id", string(out.ID)).
		Str("action", string(out.Action)).
		Msg("observed")
	return Observation{ID: out.ID, Action: out.Action, Record: rec}, nil
}

// Get returns the record with the given id.
func (e *Engine) Get(id paper.ID) (paper.Record, error) {
	rec, ok := e.store.Get(id)
	if !ok {
		return paper.Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return rec, nil
}

// List returns every record, most recently opened first.
func (e *Engine) List() []paper.Record {
	return e.store.List()
}

// Len returns the number of records.
func (e *Engine) Len() int {
	return e.store.Len()
}

// Remove deletes a record and its local file links.
func (e *Engine) Remove(id paper.ID) error {
	if _, ok := e.store.Get(id); !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	e.store.Remove(id)
	e.registry.ForgetPaperFiles(id)
	return nil
}

// Merge folds the record dropID into keepID. Local files linked to dropID
// are re-linked to keepID.
func (e *Engine) Merge(keepID, dropID paper.ID) (paper.Record, error) {
	rec, err := e.store.Merge(keepID, dropID)
	if err != nil {
		return paper.Record{}, err
	}
	e.relinkFiles(dropID, keepID)
	return rec, nil
}

// relinkFiles points every local file linked to from at to.
func (e *Engine) relinkFiles(from, to paper.ID) {
	for path, id := range e.registry.LocalFiles() {
		if id == from {
			e.registry.RecordLocalFile(path, to)
		}
	}
}

// URLs returns the landing and document URLs of a record. Stored URLs win
// over the canonical forms rendered from the id.
func (e *Engine) URLs(id paper.ID) (landing, document string, err error) {
	rec, err := e.Get(id)
	if err != nil {
		return "", "", err
	}
	landing, document = rec.LandingURL, rec.DocumentURL
	if canonLanding, canonDocument, ok := e.registry.URLs(id); ok {
		if landing == "" || landing == source.PlaceholderURL {
			landing = canonLanding
		}
		if document == "" || document == source.PlaceholderURL {
			document = canonDocument
		}
	}
	return landing, document, nil
}

// Export returns the citation entries of the given records, or of every
// record when ids is empty.
func (e *Engine) Export(ids ...paper.ID) ([]bibtex.Entry, error) {
	var records []paper.Record
	if len(ids) == 0 {
		records = e.store.List()
	} else {
		for _, id := range ids {
			rec, err := e.Get(id)
			if err != nil {
				return nil, err
			}
			records = append(records, rec)
		}
	}

	entries := make([]bibtex.Entry, len(records))
	for i, rec := range records {
		entries[i] = bibtex.FromRecord(rec)
	}
	return entries, nil
}

// ResolveCitations looks up the published version of each preprint entry.
// The result slice is parallel to entries; nil means no match.
func (e *Engine) ResolveCitations(ctx context.Context, entries []bibtex.Entry, opts resolver.Options) []*resolver.Result {
	return e.resolver.Resolve(ctx, entries, opts)
}

// Providers returns the resolver's provider names in query order.
func (e *Engine) Providers() []string {
	return e.resolver.Providers()
}

// Save writes the records and the local file table to the library.
func (e *Engine) Save() error {
	if e.root == "" {
		return fmt.Errorf("engine has no library root")
	}

	e.saveMu.Lock()
	defer e.saveMu.Unlock()

	if err := storage.SavePapers(config.PapersPath(e.root), e.store.Snapshot()); err != nil {
		return err
	}
	return storage.SaveLocalFiles(config.FilesPath(e.root), e.registry.LocalFiles())
}

// RebuildIndex replaces the contents of the search cache with the library.
func (e *Engine) RebuildIndex(db *storage.DB) (int, error) {
	return db.Rebuild(e.store.Snapshot())
}
