// Package server exposes the carrier recommendation engine over HTTP:
// POST /api/recommend scores a client profile, POST /api/ingest (admin,
// bearer token) indexes guideline documents, and /api/health, /api/ready
// and /metrics serve operators. It is started by `carrierfit serve`.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Defaults for Config fields left at zero.
const (
	defaultRecommendTimeout = 2 * time.Minute
	defaultIngestTimeout    = 15 * time.Minute
	defaultMaxBodyBytes     = 1 << 20
)

// New constructs a Server. ing may be nil, in which case POST /api/ingest
// responds 503.
func New(rec recommender, ing ingester, cfg *Config) (*Server, error) {
	if rec == nil {
		return nil, fmt.Errorf("server: recommender must not be nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	applyDefaults(cfg)

	s := &Server{
		recommender: rec,
		ingester:    ing,
		cfg:         cfg,
		log:         cfg.Logger,
		pingers:     cfg.Pingers,
		metrics:     newServerMetrics(cfg.MetricsRegistry),
	}

	rl, stop := newRateLimiter(cfg.RateLimit, cfg.RateBurst, s.log)
	rl.rejected = s.metrics.recommendRequestsTotal.WithLabelValues("rate_limited")
	s.stopRL = stop

	if cfg.APIKey == "" {
		s.log.Warn("server: CARRIERFIT_API_KEY is not set, POST /api/ingest is unauthenticated")
	}

	mux := http.NewServeMux()
	mux.Handle("POST /api/recommend", rl.middleware(http.HandlerFunc(s.handleRecommend)))
	mux.Handle("POST /api/ingest", authMiddleware(cfg.APIKey, http.HandlerFunc(s.handleIngest)))
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/ready", s.handleReady)
	mux.Handle("GET /metrics", promhttp.HandlerFor(cfg.MetricsGatherer, promhttp.HandlerOpts{}))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      requestLogger(s.log, s.metrics, mux),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.RecommendTimeout == 0 {
		cfg.RecommendTimeout = defaultRecommendTimeout
	}
	if cfg.IngestTimeout == 0 {
		cfg.IngestTimeout = defaultIngestTimeout
	}
	if cfg.WriteTimeout == 0 {
		// Ingestion responds only after the whole page has been processed.
		cfg.WriteTimeout = cfg.IngestTimeout + 30*time.Second
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = defaultRateLimit
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = defaultRateBurst
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.MetricsRegistry == nil {
		cfg.MetricsRegistry = prometheus.DefaultRegisterer
	}
	if cfg.MetricsGatherer == nil {
		cfg.MetricsGatherer = prometheus.DefaultGatherer
	}
}

// Handler returns the root handler, including middleware.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

// Addr returns the configured listen address.
func (s *Server) Addr() string { return s.httpServer.Addr }

// Start begins listening and serving HTTP requests. It blocks until the
// context is cancelled, then performs a graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	defer s.stopRL()
	errCh := make(chan error, 1)

	go func() {
		s.log.Info("server: listening", slog.String("addr", "http://"+s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: listen error: %w", err)
	case <-ctx.Done():
		s.log.Info("server: shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: graceful shutdown failed: %w", err)
		}
		return nil
	}
}
