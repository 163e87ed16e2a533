// Package httpserver provides the HTTP REST API server for the
// literature acquisition service.
package httpserver

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/openlit/literature-acquisition-service/internal/pdf"
	"github.com/openlit/literature-acquisition-service/internal/providers"
)

// Server is the HTTP API server.
type Server struct {
	router      chi.Router
	httpServer  *http.Server
	registry    *providers.Registry
	pool        *pdf.Pool
	metrics     http.Handler
	metricsPath string
	logger      zerolog.Logger

	defaultLimit int
	maxResults   int
}

// Config holds HTTP server configuration.
type Config struct {
	Address         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// DefaultLimit is the per-source result cap applied when a search
	// request does not name one.
	DefaultLimit int
	// MaxResults is the hard per-source cap a request cannot exceed.
	MaxResults int
	// MetricsPath is where the metrics handler is mounted (default /metrics).
	MetricsPath string
}

// NewServer creates a new HTTP server with all dependencies.
// metricsHandler serves GET /metrics; pass nil to disable the endpoint.
func NewServer(
	cfg Config,
	registry *providers.Registry,
	pool *pdf.Pool,
	metricsHandler http.Handler,
	logger zerolog.Logger,
) *Server {
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 20
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 100
	}
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "/metrics"
	}

	s := &Server{
		registry:     registry,
		pool:         pool,
		metrics:      metricsHandler,
		metricsPath:  cfg.MetricsPath,
		logger:       logger.With().Str("component", "http-server").Logger(),
		defaultLimit: cfg.DefaultLimit,
		maxResults:   cfg.MaxResults,
	}

	s.router = s.buildRouter()

	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// buildRouter creates the chi router with all middleware and routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(s.requestLogMiddleware)

	r.Get("/healthz", s.healthHandler)
	if s.metrics != nil {
		r.Method(http.MethodGet, s.metricsPath, s.metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(jsonContentTypeMiddleware)

		r.Post("/search", s.searchHandler)
		r.Post("/acquire", s.acquireHandler)
		r.Get("/sources", s.sourcesHandler)
	})

	return r
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info().Str("address", s.httpServer.Addr).Msg("HTTP server starting")
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on HTTP address: %w", err)
	}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// healthHandler returns basic liveness status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
