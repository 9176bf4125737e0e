package resolver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matsen/papermem/internal/bibtex"
	"github.com/matsen/papermem/internal/provider"
)

func TestMetrics_CountsQueriesAndEntries(t *testing.T) {
	m := NewMetrics()
	r := New([]Provider{
		{Name: provider.DBLPName, Query: fail(provider.ErrNoMatch)},
		{Name: provider.SemanticScholarName, Query: fail(&provider.APIError{Provider: "Semantic Scholar", StatusCode: 500})},
		{Name: provider.CrossRefName, Query: matchVenue("Nature")},
	}, WithMetrics(m))

	notPreprint := bibtex.Entry{EntryType: "article", CitationKey: "n", Fields: map[string]string{"journal": "Science"}}
	r.Resolve(context.Background(), []bibtex.Entry{preprint("a"), notPreprint}, Options{})

	assert.Equal(t, float64(1), testutil.ToFloat64(m.ProviderQueries.WithLabelValues(provider.DBLPName, OutcomeNoMatch)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ProviderQueries.WithLabelValues(provider.SemanticScholarName, OutcomeError)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ProviderQueries.WithLabelValues(provider.CrossRefName, OutcomeMatch)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Entries.WithLabelValues(ResultMatched)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Entries.WithLabelValues(ResultSkipped)))
}

func TestMetrics_CancelledEntries(t *testing.T) {
	m := NewMetrics()
	r := New([]Provider{{Name: provider.DBLPName, Query: fail(provider.ErrNoMatch)}}, WithMetrics(m))

	token := &CancelToken{}
	r.Resolve(context.Background(), []bibtex.Entry{preprint("a"), preprint("b"), preprint("c")}, Options{
		Cancel:     token,
		OnProgress: func(Progress) { token.Cancel() },
	})

	assert.Equal(t, float64(1), testutil.ToFloat64(m.Entries.WithLabelValues(ResultUnmatched)))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.Entries.WithLabelValues(ResultCancelled)))
}

func TestMetrics_WriteToTextfile(t *testing.T) {
	m := NewMetrics()
	m.recordQuery(provider.DBLPName, OutcomeMatch, 0)

	path := filepath.Join(t.TempDir(), "pmem.prom")
	require.NoError(t, m.WriteToTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `pmem_provider_queries_total{outcome="match",provider="DBLP"} 1`)
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.recordQuery("x", OutcomeMatch, 0)
		m.recordEntries(ResultMatched, 1)
	})
}
