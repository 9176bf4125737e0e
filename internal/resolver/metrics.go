package resolver

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Provider query outcomes.
const (
	OutcomeMatch   = "match"
	OutcomeNoMatch = "no_match"
	OutcomeError   = "error"
)

// Entry results.
const (
	ResultMatched   = "matched"
	ResultUnmatched = "unmatched"
	ResultSkipped   = "skipped"
	ResultCancelled = "cancelled"
)

// Metrics holds resolver counters on a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	// ProviderQueries counts provider calls, labeled by provider and outcome.
	ProviderQueries *prometheus.CounterVec

	// ProviderDuration observes provider call latency in seconds.
	ProviderDuration *prometheus.HistogramVec

	// Entries counts batch entries by result.
	Entries *prometheus.CounterVec
}

// NewMetrics creates resolver metrics registered on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		ProviderQueries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pmem_provider_queries_total",
			Help: "Citation provider queries by provider and outcome.",
		}, []string{"provider", "outcome"}),
		ProviderDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pmem_provider_query_duration_seconds",
			Help:    "Citation provider query latency.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"provider"}),
		Entries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pmem_entries_total",
			Help: "Resolved citation entries by result.",
		}, []string{"result"}),
	}
}

// WriteToTextfile writes the metrics in the node exporter textfile format.
func (m *Metrics) WriteToTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}

func (m *Metrics) recordQuery(provider, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.ProviderQueries.WithLabelValues(provider, outcome).Inc()
	m.ProviderDuration.WithLabelValues(provider).Observe(d.Seconds())
}

func (m *Metrics) recordEntries(result string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.Entries.WithLabelValues(result).Add(float64(n))
}
