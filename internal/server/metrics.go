package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "carrierfit"

	// labelHandler partitions HTTP metrics by route pattern rather than raw
	// URL path.
	labelHandler = "handler"
)

// serverMetrics holds all Prometheus metrics owned by the HTTP server.
// One instance is created per Server so tests can use an isolated registry.
type serverMetrics struct {
	// recommendRequestsTotal counts /api/recommend requests by outcome:
	// ok, empty, bad_request, rate_limited, timeout, error.
	recommendRequestsTotal *prometheus.CounterVec

	recommendDurationSeconds *prometheus.HistogramVec

	// analysisTotal counts returned recommendations by the parse tier that
	// produced them ("model", "extracted", "heuristic").
	analysisTotal *prometheus.CounterVec

	ingestRunsTotal            *prometheus.CounterVec
	ingestedVectorsTotal       prometheus.Counter
	ingestFailedDocumentsTotal prometheus.Counter

	httpRequestsTotal   *prometheus.CounterVec
	httpDurationSeconds *prometheus.HistogramVec

	// dependencyUp is 1 when the last readiness probe of a dependency
	// succeeded and 0 otherwise.
	dependencyUp *prometheus.GaugeVec
}

// newServerMetrics registers all server metrics against reg.
func newServerMetrics(reg prometheus.Registerer) *serverMetrics {
	factory := promauto.With(reg)

	return &serverMetrics{
		recommendRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "recommend",
			Name:      "requests_total",
			Help:      "Total number of /api/recommend requests, partitioned by outcome.",
		}, []string{"outcome"}),

		recommendDurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "recommend",
			Name:      "duration_seconds",
			Help:      "Wall-clock duration of /api/recommend requests.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"outcome"}),

		analysisTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "recommend",
			Name:      "analysis_total",
			Help:      "Returned recommendations by the parse tier that produced them.",
		}, []string{"source"}),

		ingestRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "runs_total",
			Help:      "Total number of /api/ingest runs, partitioned by outcome.",
		}, []string{"outcome"}),

		ingestedVectorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "vectors_total",
			Help:      "Vectors upserted by /api/ingest runs.",
		}),

		ingestFailedDocumentsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "failed_documents_total",
			Help:      "Documents for which /api/ingest upserted nothing.",
		}),

		httpRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled by the server, partitioned by method, handler, and status code.",
		}, []string{"method", labelHandler, "code"}),

		httpDurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "duration_seconds",
			Help:      "Latency of HTTP requests handled by the server.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", labelHandler}),

		dependencyUp: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dependency_up",
			Help:      "Result of the last readiness probe per dependency (1 up, 0 down).",
		}, []string{"dependency"}),
	}
}
