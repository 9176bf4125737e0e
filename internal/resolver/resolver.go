// Package resolver walks a chain of citation providers to find the published
// version of preprint citations.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/matsen/papermem/internal/bibtex"
	"github.com/matsen/papermem/internal/provider"
)

// QueryFunc asks one provider about one entry. A nil match with a nil error
// means no match.
type QueryFunc func(ctx context.Context, e bibtex.Entry) (*provider.Match, error)

// Provider is one link of the fallback chain.
type Provider struct {
	Name  string
	Query QueryFunc
}

// FromQuerier adapts a provider client to a chain link.
func FromQuerier(q provider.Querier) Provider {
	return Provider{Name: q.Name(), Query: q.Query}
}

// Result is the published version found for one entry.
type Result struct {
	MatchedBibTeX  string `json:"matched_bibtex"`
	SourceProvider string `json:"source_provider"`
	Venue          string `json:"venue,omitempty"`
}

// Progress is reported after each entry completes, matched or not.
type Progress struct {
	CompletedCount      int    `json:"completed_count"`
	TotalCount          int    `json:"total_count"`
	CurrentEntryTitle   string `json:"current_entry_title"`
	CurrentProviderName string `json:"current_provider_name"`
}

// Options are per-batch settings. Batches running concurrently must not
// share a CancelToken or progress callback.
type Options struct {
	OnProgress func(Progress)
	Cancel     *CancelToken
}

// Resolver runs batches against a fixed provider chain.
type Resolver struct {
	providers []Provider
	pacing    time.Duration
	logger    zerolog.Logger
	metrics   *Metrics
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithPacing sets the minimum delay between consecutive provider calls.
func WithPacing(d time.Duration) Option {
	return func(r *Resolver) {
		r.pacing = d
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Resolver) {
		r.logger = l
	}
}

// WithMetrics enables metrics collection.
func WithMetrics(m *Metrics) Option {
	return func(r *Resolver) {
		r.metrics = m
	}
}

// New creates a resolver that queries providers in the given order.
func New(providers []Provider, opts ...Option) *Resolver {
	r := &Resolver{
		providers: providers,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Providers returns the chain's provider names in query order.
func (r *Resolver) Providers() []string {
	names := make([]string, len(r.providers))
	for i, p := range r.providers {
		names[i] = p.Name
	}
	return names
}

// Resolve processes entries strictly in order and returns one result per
// entry; nil means no match. When the cancel token is set or ctx is done,
// the entries not yet started are left nil.
func (r *Resolver) Resolve(ctx context.Context, entries []bibtex.Entry, opts Options) []*Result {
	results := make([]*Result, len(entries))

	token := opts.Cancel
	if token == nil {
		token = &CancelToken{}
	}
	defer token.reset()

	log := r.logger.With().Str("batch", uuid.NewString()).Logger()
	log.Info().Int("entries", len(entries)).Strs("providers", r.Providers()).Msg("resolve batch started")

	pacer := newPacer(r.pacing)
	matched := 0
	for i, e := range entries {
		if token.Cancelled() || ctx.Err() != nil {
			r.metrics.recordEntries(ResultCancelled, len(entries)-i)
			log.Info().Int("completed", i).Int("remaining", len(entries)-i).Msg("resolve batch cancelled")
			return results
		}

		res, last := r.resolveEntry(ctx, log, pacer, e)
		results[i] = res
		if res != nil {
			matched++
		}

		if opts.OnProgress != nil {
			opts.OnProgress(Progress{
				CompletedCount:      i + 1,
				TotalCount:          len(entries),
				CurrentEntryTitle:   e.Title(),
				CurrentProviderName: last,
			})
		}
	}

	log.Info().Int("entries", len(entries)).Int("matched", matched).Msg("resolve batch finished")
	return results
}

// resolveEntry walks the chain for one entry and returns the result with the
// name of the last provider asked.
func (r *Resolver) resolveEntry(ctx context.Context, log zerolog.Logger, pacer *rate.Limiter, e bibtex.Entry) (*Result, string) {
	log = log.With().Str("entry", e.CitationKey).Logger()

	if !bibtex.IsPreprint(e) {
		log.Debug().Msg("not a preprint citation, skipping")
		r.metrics.recordEntries(ResultSkipped, 1)
		return nil, ""
	}

	var last string
	for _, p := range r.providers {
		if err := pacer.Wait(ctx); err != nil {
			log.Debug().Err(err).Msg("pacing interrupted")
			break
		}
		last = p.Name

		start := time.Now()
		m, err := safeQuery(ctx, p, e)
		elapsed := time.Since(start)

		if err == nil && m == nil {
			err = provider.ErrNoMatch
		}
		var res *Result
		if err == nil {
			res, err = buildResult(e, p.Name, m)
		}

		if err != nil {
			outcome := OutcomeError
			ev := log.Warn()
			if provider.IsNoMatch(err) {
				outcome = OutcomeNoMatch
				ev = log.Debug()
			}
			r.metrics.recordQuery(p.Name, outcome, elapsed)
			if hint := errorHint(p.Name, err); hint != "" {
				ev = ev.Str("hint", hint)
			}
			ev.Err(err).Str("provider", p.Name).Dur("elapsed", elapsed).Msg("no match from provider")
			continue
		}

		r.metrics.recordQuery(p.Name, OutcomeMatch, elapsed)
		r.metrics.recordEntries(ResultMatched, 1)
		log.Info().Str("provider", p.Name).Str("venue", res.Venue).Msg("published version found")
		return res, last
	}

	r.metrics.recordEntries(ResultUnmatched, 1)
	log.Info().Msg("no provider found a published version")
	return nil, last
}

// errorHint suggests what the user can do about a provider failure.
func errorHint(name string, err error) string {
	switch {
	case provider.IsAuthError(err) && name == provider.SemanticScholarName:
		return "check the Semantic Scholar API key (s2_api_key or PMEM_S2_API_KEY)"
	case provider.IsAuthError(err):
		return "the provider rejected the request; check its credentials"
	case provider.IsRateLimited(err) && name == provider.ScholarName:
		return "Google Scholar is rate limiting or showing a captcha; wait or drop scholar from the provider order"
	case provider.IsRateLimited(err) && name == provider.SemanticScholarName:
		return "rate limited; a Semantic Scholar API key (PMEM_S2_API_KEY) raises the limit"
	case provider.IsRateLimited(err):
		return "rate limited; try again later or raise the pacing"
	}
	return ""
}

// safeQuery runs one provider call, turning a panic into an error.
func safeQuery(ctx context.Context, p Provider, e bibtex.Entry) (m *provider.Match, err error) {
	defer func() {
		if v := recover(); v != nil {
			m, err = nil, fmt.Errorf("provider %s panicked: %v", p.Name, v)
		}
	}()
	return p.Query(ctx, e)
}

// buildResult turns a provider match into a citation for e. Citations keep
// e's key; venue-only matches are synthesized from e's own fields.
func buildResult(e bibtex.Entry, name string, m *provider.Match) (*Result, error) {
	if m.BibTeX != "" {
		entries, err := bibtex.Parse(m.BibTeX)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", provider.ErrInvalidResponse, err)
		}
		if len(entries) == 0 {
			return nil, fmt.Errorf("%w: empty bibtex", provider.ErrInvalidResponse)
		}
		matched := entries[0]
		matched.CitationKey = e.CitationKey
		venue := m.Venue
		if venue == "" {
			venue = bibtex.Venue(matched)
		}
		return &Result{MatchedBibTeX: bibtex.ToString(matched), SourceProvider: name, Venue: venue}, nil
	}

	if m.Venue == "" {
		return nil, errors.New("provider returned an empty match")
	}
	return &Result{
		MatchedBibTeX:  bibtex.ToString(bibtex.WithVenue(e, m.Venue)),
		SourceProvider: name,
		Venue:          m.Venue,
	}, nil
}

// newPacer spaces provider calls at least d apart; the first call is immediate.
func newPacer(d time.Duration) *rate.Limiter {
	if d <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(d), 1)
}

// Apply returns entries with each matched entry replaced by its published
// version, and the number of replacements.
func Apply(entries []bibtex.Entry, results []*Result) ([]bibtex.Entry, int) {
	replacements := Replacements(entries, results)
	out := make([]bibtex.Entry, len(entries))
	for i, e := range entries {
		if r, ok := replacements[i]; ok {
			e = r
		}
		out[i] = e
	}
	return out, len(replacements)
}

// Replacements maps the index of each matched entry to its published
// version. Results whose BibTeX does not parse are left out.
func Replacements(entries []bibtex.Entry, results []*Result) map[int]bibtex.Entry {
	out := make(map[int]bibtex.Entry)
	for i := range entries {
		if i >= len(results) || results[i] == nil {
			continue
		}
		parsed, err := bibtex.Parse(results[i].MatchedBibTeX)
		if err != nil || len(parsed) == 0 {
			continue
		}
		out[i] = parsed[0]
	}
	return out
}
