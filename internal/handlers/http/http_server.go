package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rahulNinjatech/fever/internal/domain/model"
	"github.com/rahulNinjatech/fever/internal/domain/useCases"
	"github.com/rahulNinjatech/fever/internal/metrics"
)

// Server represents an HTTP server with all routes configured
type Server struct {
	querier useCases.EventQuerier
	log     *slog.Logger
	mux     *http.ServeMux
	server  *http.Server
}

// NewServer creates a new HTTP server with configured routes
func NewServer(addr string, querier useCases.EventQuerier, log *slog.Logger) *Server {
	mux := http.NewServeMux()

	server := &Server{
		querier: querier,
		log:     log,
		mux:     mux,
		server: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}

	// Register routes
	server.registerRoutes()

	return server
}

// registerRoutes configures all HTTP routes
func (s *Server) registerRoutes() {
	// Range query endpoint
	s.mux.HandleFunc("/api/v1/events", s.instrument("events", s.handleEvents))

	// Health check endpoint
	s.mux.HandleFunc("/health", s.instrument("health", s.handleHealth))

	// Prometheus endpoint
	s.mux.Handle("/metrics", promhttp.Handler())
}

// statusRecorder captures the status code written by a handler so the
// instrumentation middleware can label its metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// instrument wraps a handler with request metrics and request-scoped logging.
func (s *Server) instrument(name string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		requestID := uuid.New().String()

		next(rec, r)

		metrics.HTTPRequestsTotal.WithLabelValues(name, r.Method, strconv.Itoa(rec.status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(name, r.Method).Observe(time.Since(start).Seconds())
		s.log.Debug("handled request",
			"request_id", requestID,
			"handler", name,
			"method", r.Method,
			"status", rec.status,
			"duration", time.Since(start),
		)
	}
}

// handleEvents serves the range query. Success and failure both travel inside
// the response envelope; the transport status stays 200 either way.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeEnvelope(w, model.NewErrorResponse("405", "method not allowed"))
		return
	}

	startsAt, err := model.ParseTimestamp(r.URL.Query().Get("starts_at"))
	if err != nil {
		s.writeEnvelope(w, model.NewErrorResponse("400", "starts_at must be a valid ISO-8601 timestamp"))
		return
	}
	endsAt, err := model.ParseTimestamp(r.URL.Query().Get("ends_at"))
	if err != nil {
		s.writeEnvelope(w, model.NewErrorResponse("400", "ends_at must be a valid ISO-8601 timestamp"))
		return
	}

	s.writeEnvelope(w, s.querier.Query(r.Context(), startsAt, endsAt))
}

func (s *Server) writeEnvelope(w http.ResponseWriter, resp *model.StandardResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.log.Error("failed to encode response envelope", "error", err)
	}
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// Handler exposes the configured routes, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start begins listening for HTTP requests
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
