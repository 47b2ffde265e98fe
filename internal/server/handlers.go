package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/54b3r/carrierfit/internal/ingestion"
	"github.com/54b3r/carrierfit/internal/logging"
	"github.com/54b3r/carrierfit/internal/recommend"
)

// handleRecommend handles POST /api/recommend. Only a malformed body is a
// client error; every retrieval or synthesis failure degrades inside the
// recommender and still yields 200.
func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())
	start := time.Now()

	var profile recommend.ClientProfile
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)).Decode(&profile); err != nil {
		s.metrics.recommendRequestsTotal.WithLabelValues("bad_request").Inc()
		writeError(w, http.StatusBadRequest, "invalid client profile: "+err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RecommendTimeout)
	defer cancel()

	resp, err := s.recommender.Recommend(ctx, profile)
	if err != nil {
		outcome := "error"
		if errors.Is(err, context.DeadlineExceeded) {
			outcome = "timeout"
		}
		s.observeRecommend(outcome, start)
		log.Error("recommend: request failed", slog.String("outcome", outcome), slog.Any("error", err))
		writeError(w, http.StatusServiceUnavailable, "recommendation unavailable, retry later")
		return
	}

	outcome := "ok"
	if len(resp.Recommendations) == 0 {
		outcome = "empty"
	}
	for _, rec := range resp.Recommendations {
		s.metrics.analysisTotal.WithLabelValues(string(rec.AnalysisSource)).Inc()
	}
	s.observeRecommend(outcome, start)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) observeRecommend(outcome string, start time.Time) {
	s.metrics.recommendRequestsTotal.WithLabelValues(outcome).Inc()
	s.metrics.recommendDurationSeconds.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
}

// handleIngest handles POST /api/ingest. The body is optional; without an
// offset the run resumes from the ledger cursor. Only one run may be in
// flight at a time.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	if s.ingester == nil {
		writeError(w, http.StatusServiceUnavailable, "ingestion is not configured")
		return
	}

	var req ingestRequest
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)).Decode(&req)
	if err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid ingest request: "+err.Error())
		return
	}
	if (req.Offset != nil && *req.Offset < 0) || req.Limit < 0 {
		writeError(w, http.StatusBadRequest, "offset and limit must not be negative")
		return
	}

	if !s.ingesting.CompareAndSwap(false, true) {
		writeError(w, http.StatusConflict, "an ingestion run is already in progress")
		return
	}
	defer s.ingesting.Store(false)

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.IngestTimeout)
	defer cancel()

	opts := ingestion.Options{Limit: req.Limit}
	if req.Offset != nil {
		opts.Offset = *req.Offset
	} else {
		cursor, err := s.ingester.Cursor(ctx)
		if err != nil {
			log.Warn("ingest: ledger cursor unavailable, starting from 0", slog.Any("error", err))
		}
		opts.Offset = cursor
	}

	res, err := s.ingester.Ingest(ctx, opts)
	if err != nil {
		s.metrics.ingestRunsTotal.WithLabelValues("error").Inc()
		log.Error("ingest: run failed", slog.Int("offset", opts.Offset), slog.Any("error", err))
		writeError(w, http.StatusBadGateway, "ingestion failed: "+err.Error())
		return
	}

	s.metrics.ingestRunsTotal.WithLabelValues("ok").Inc()
	s.metrics.ingestedVectorsTotal.Add(float64(res.Inserted))
	s.metrics.ingestFailedDocumentsTotal.Add(float64(res.Failed))
	writeJSON(w, http.StatusOK, res)
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("server: encode response", slog.Any("error", err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
