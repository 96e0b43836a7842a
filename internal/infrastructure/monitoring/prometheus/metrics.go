// Package prometheus exposes the pipeline's operational metrics.
package prometheus

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/turtacn/patentflow/internal/config"
	"github.com/turtacn/patentflow/internal/infrastructure/monitoring/logging"
)

// Upsert outcome label values.
const (
	OutcomeCreated  = "created"
	OutcomeUpdated  = "updated"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// Metrics holds all pipeline metrics.
type Metrics struct {
	registry *prometheus.Registry

	// Transform layer
	PatentsTransformed prometheus.Counter
	TransformFailures  prometheus.Counter

	// Upsert engine
	Upserts            *prometheus.CounterVec
	ValidationFailures prometheus.Counter
	BatchCommitFailures prometheus.Counter

	// Indexing orchestrator
	IndexingPages     prometheus.Counter
	IndexingDocuments prometheus.Counter
	IndexingRuns      *prometheus.CounterVec
	PageDuration      prometheus.Histogram

	// Search service
	SearchRequests prometheus.Counter
	SearchFailures prometheus.Counter
}

// NewMetrics creates and registers all pipeline metrics on a fresh
// registry, alongside the standard Go and process collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		PatentsTransformed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "patentflow",
			Name:      "patents_transformed_total",
			Help:      "Raw source records transformed into the unified model.",
		}),
		TransformFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "patentflow",
			Name:      "transform_failures_total",
			Help:      "Raw source records that could not be transformed.",
		}),

		Upserts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "patentflow",
			Name:      "upserts_total",
			Help:      "Upsert attempts by outcome.",
		}, []string{"outcome"}),
		ValidationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "patentflow",
			Name:      "validation_failures_total",
			Help:      "Patents rejected by error-severity validation failures.",
		}),
		BatchCommitFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "patentflow",
			Name:      "batch_commit_failures_total",
			Help:      "Batch chunks whose atomic commit failed.",
		}),

		IndexingPages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "patentflow",
			Name:      "indexing_pages_total",
			Help:      "Source pages fetched during indexing runs.",
		}),
		IndexingDocuments: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "patentflow",
			Name:      "indexing_documents_total",
			Help:      "Documents processed during indexing runs.",
		}),
		IndexingRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "patentflow",
			Name:      "indexing_runs_total",
			Help:      "Indexing runs by final status.",
		}, []string{"status"}),
		PageDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "patentflow",
			Name:      "indexing_page_duration_seconds",
			Help:      "Wall time to fetch, transform and store one source page.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		}),

		SearchRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "patentflow",
			Name:      "search_requests_total",
			Help:      "Search requests served.",
		}),
		SearchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "patentflow",
			Name:      "search_failures_total",
			Help:      "Search requests that returned an error.",
		}),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.PatentsTransformed,
		m.TransformFailures,
		m.Upserts,
		m.ValidationFailures,
		m.BatchCommitFailures,
		m.IndexingPages,
		m.IndexingDocuments,
		m.IndexingRuns,
		m.PageDuration,
		m.SearchRequests,
		m.SearchFailures,
	)
	return m
}

// Registry returns the underlying registry, for exposition and tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler returns the exposition handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve runs the exposition endpoint until the server fails.  Callers run
// it in its own goroutine; when metrics are disabled it returns
// immediately.
func (m *Metrics) Serve(cfg config.MetricsConfig, logger logging.Logger) error {
	if !cfg.Enabled {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle(cfg.Path, m.Handler())

	logger.Info("serving metrics",
		logging.String("addr", cfg.Addr),
		logging.String("path", cfg.Path))
	return http.ListenAndServe(cfg.Addr, mux)
}
