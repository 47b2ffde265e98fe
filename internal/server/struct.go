package server

import (
	"context"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/54b3r/carrierfit/internal/ingestion"
	"github.com/54b3r/carrierfit/internal/recommend"
)

// Config holds the HTTP server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1).
	Host string
	// Port is the TCP port to listen on (default: 8080).
	Port int
	// ReadTimeout is the maximum duration for reading the request.
	ReadTimeout time.Duration
	// WriteTimeout is the maximum duration for writing the response.
	WriteTimeout time.Duration
	// ShutdownTimeout is the maximum duration for a graceful shutdown.
	ShutdownTimeout time.Duration
	// RecommendTimeout bounds one POST /api/recommend request.
	RecommendTimeout time.Duration
	// IngestTimeout bounds one POST /api/ingest request.
	IngestTimeout time.Duration
	// MaxBodyBytes caps request bodies (default: 1 MiB).
	MaxBodyBytes int64
	// Logger is the structured logger used by the server and its handlers.
	// If nil, slog.Default is used.
	Logger *slog.Logger
	// Pingers is the ordered list of dependency probes run by GET /api/ready.
	// If empty, /api/ready returns 200 with no checks (liveness-only mode).
	Pingers []Pinger
	// RateLimit is the sustained request rate allowed per IP on
	// POST /api/recommend (requests/second). Defaults to 10 if zero.
	RateLimit float64
	// RateBurst is the maximum instantaneous burst per IP. Defaults to 20 if zero.
	RateBurst int
	// APIKey is the Bearer token required on POST /api/ingest.
	// If empty, authentication is disabled (development mode).
	APIKey string
	// MetricsRegistry receives the server metrics. Defaults to
	// prometheus.DefaultRegisterer.
	MetricsRegistry prometheus.Registerer
	// MetricsGatherer backs GET /metrics. Defaults to
	// prometheus.DefaultGatherer.
	MetricsGatherer prometheus.Gatherer
}

// recommender is the interface handleRecommend calls.
// *recommend.Recommender satisfies it; tests inject a fake.
type recommender interface {
	Recommend(ctx context.Context, profile recommend.ClientProfile) (*recommend.Response, error)
}

// ingester is the interface handleIngest calls.
// *ingestion.Pipeline satisfies it; tests inject a fake.
type ingester interface {
	Ingest(ctx context.Context, opts ingestion.Options) (*ingestion.Result, error)
	Cursor(ctx context.Context) (int, error)
}

// Server is the HTTP surface of the recommendation engine.
type Server struct {
	// recommender scores client profiles.
	recommender recommender
	// ingester populates the vector index. Nil disables POST /api/ingest.
	ingester ingester
	// ingesting is set while an ingestion run is in flight.
	ingesting atomic.Bool
	// cfg holds the resolved server configuration.
	cfg *Config
	// httpServer is the underlying net/http server.
	httpServer *http.Server
	// log is the structured logger for this server instance.
	log *slog.Logger
	// pingers is the ordered list of dependency probes for GET /api/ready.
	pingers []Pinger
	// metrics holds the Prometheus collectors of this server.
	metrics *serverMetrics
	// stopRL stops the rate limiter's background eviction goroutine on shutdown.
	stopRL func()
}

// ingestRequest is the optional JSON body for POST /api/ingest.
type ingestRequest struct {
	// Offset is the first recognised document to process. When omitted the
	// ledger cursor is used.
	Offset *int `json:"offset,omitempty"`
	// Limit is the page size; zero selects the configured default.
	Limit int `json:"limit,omitempty"`
}

// errorResponse is the JSON body of every non-2xx API response.
type errorResponse struct {
	Error string `json:"error"`
}
