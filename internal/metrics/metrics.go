// Package metrics registers the Prometheus collectors of the engine. A nil
// *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "vademecum"

// Outcome and path label values.
const (
	OutcomeOK     = "ok"
	OutcomeError  = "error"
	OutcomeFailed = "failed"
	OutcomeEmpty  = "empty"

	PathExact    = "exact"
	PathSemantic = "semantic"
	PathMiss     = "miss"
)

type Metrics struct {
	// documentsTotal counts ingested documents by outcome: ok or empty (no text layer).
	documentsTotal *prometheus.CounterVec
	// sectionsTotal counts candidate sections by outcome: ok or failed.
	sectionsTotal *prometheus.CounterVec
	// embeddingSeconds records provider latency by outcome: ok or error.
	embeddingSeconds *prometheus.HistogramVec
	// lookupsTotal counts medication lookups by resolution path.
	lookupsTotal *prometheus.CounterVec
	// searchResults records how many results survive the similarity floor.
	searchResults prometheus.Histogram
}

// New registers all collectors against reg. Tests pass a fresh registry.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		documentsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "documents_total",
			Help:      "Ingested documents, partitioned by outcome.",
		}, []string{"outcome"}),

		sectionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "sections_total",
			Help:      "Candidate medication sections handled during ingestion, partitioned by outcome.",
		}, []string{"outcome"}),

		embeddingSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "embedding",
			Name:      "duration_seconds",
			Help:      "Latency of embedding provider calls.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"outcome"}),

		lookupsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "retrieval",
			Name:      "lookups_total",
			Help:      "Medication lookups, partitioned by resolution path.",
		}, []string{"path"}),

		searchResults: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "retrieval",
			Name:      "search_results",
			Help:      "Number of search results returned above the similarity floor.",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
		}),
	}
}

func (m *Metrics) ObserveDocument(outcome string) {
	if m == nil {
		return
	}
	m.documentsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveSection(outcome string) {
	if m == nil {
		return
	}
	m.sectionsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveEmbedding(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.embeddingSeconds.WithLabelValues(outcome).Observe(d.Seconds())
}

func (m *Metrics) ObserveLookup(path string) {
	if m == nil {
		return
	}
	m.lookupsTotal.WithLabelValues(path).Inc()
}

func (m *Metrics) ObserveSearch(results int) {
	if m == nil {
		return
	}
	m.searchResults.Observe(float64(results))
}
