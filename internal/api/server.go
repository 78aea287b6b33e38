// ABOUTME: HTTP server wiring routes, auth middleware, and lifecycle
// ABOUTME: Maps engine error kinds onto HTTP statuses for all handlers

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/offscreen/offscreen/internal/auth"
	"github.com/offscreen/offscreen/internal/engine"
	"github.com/offscreen/offscreen/internal/metrics"
	"github.com/offscreen/offscreen/internal/store"
)

// Options configures the HTTP server.
type Options struct {
	Addr        string
	MetricsPath string // empty disables the metrics endpoint
}

// Server serves the HTTP API for the engine.
type Server struct {
	service    *engine.Service
	audit      store.AuditStore
	verifier   auth.TokenVerifier
	opts       Options
	logger     *slog.Logger
	httpServer *http.Server
}

// NewServer creates a Server. The audit store may be nil; the audit
// endpoint then returns empty results.
func NewServer(service *engine.Service, audit store.AuditStore, verifier auth.TokenVerifier, opts Options) *Server {
	s := &Server{
		service:  service,
		audit:    audit,
		verifier: verifier,
		opts:     opts,
		logger:   slog.Default().With("component", "api"),
	}
	s.httpServer = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler builds the full route table. Health and metrics are unauthenticated;
// everything under /v1 goes through the JWT middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	if s.opts.MetricsPath != "" {
		mux.Handle("GET "+s.opts.MetricsPath, metrics.Handler())
	}

	api := http.NewServeMux()
	s.route(api, "POST /v1/devices", s.handleRegisterDevice)
	s.route(api, "GET /v1/devices", s.handleListDevices)
	s.route(api, "POST /v1/sessions", s.handleSubmitSession)
	s.route(api, "GET /v1/usage/daily", s.handleDailyUsage)
	s.route(api, "POST /v1/challenges", s.handleCreateChallenge)
	s.route(api, "GET /v1/challenges", s.handleListChallenges)
	s.route(api, "POST /v1/challenges/{id}/start", s.handleStartChallenge)
	s.route(api, "POST /v1/challenges/{id}/complete", s.handleCompleteChallenge)
	s.route(api, "POST /v1/challenges/{id}/fail", s.handleFailChallenge)
	s.route(api, "GET /v1/summary", s.handleSummary)
	s.route(api, "GET /v1/notifications", s.handleNotifications)
	s.route(api, "GET /v1/ranking", s.handleRanking)
	s.route(api, "POST /v1/questionnaires", s.handleSubmitQuestionnaire)
	s.route(api, "GET /v1/audit", s.handleAuditTrail)

	mux.Handle("/v1/", auth.HTTPAuthMiddleware(s.verifier)(api))

	return mux
}

// route registers a handler wrapped with request metrics for its pattern.
func (s *Server) route(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.Handle(pattern, s.instrument(pattern, h))
}

// Start begins serving requests. Blocks until the server stops.
func (s *Server) Start() error {
	s.logger.Info("http server listening", "addr", s.opts.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// statusRecorder captures the response status for request metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// instrument records request duration labeled by route pattern, method, and
// status.
func (s *Server) instrument(pattern string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		metrics.RequestDuration.
			WithLabelValues(pattern, r.Method, fmt.Sprintf("%d", rec.status)).
			Observe(time.Since(start).Seconds())
	})
}

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// sendJSON writes a JSON response with the given status.
func (s *Server) sendJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

// sendJSONError writes a JSON error response.
func (s *Server) sendJSONError(w http.ResponseWriter, status int, message string) {
	s.sendJSON(w, status, map[string]string{"error": message})
}

// sendEngineError maps an engine error onto an HTTP status and writes it.
func (s *Server) sendEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrValidation):
		s.sendJSONError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		s.sendJSONError(w, http.StatusNotFound, "not found")
	case errors.Is(err, engine.ErrStateInconsistency):
		s.sendJSONError(w, http.StatusConflict, err.Error())
	case errors.Is(err, engine.ErrStoreUnavailable):
		s.logger.Error("storage unavailable", "error", err)
		s.sendJSONError(w, http.StatusServiceUnavailable, "storage unavailable")
	default:
		s.logger.Error("unhandled error", "error", err)
		s.sendJSONError(w, http.StatusInternalServerError, "internal server error")
	}
}
