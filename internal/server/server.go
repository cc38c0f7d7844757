// Package server provides the HTTP API for carelens.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hyperjump/carelens/internal/analyzer"
	"github.com/hyperjump/carelens/internal/config"
	"github.com/hyperjump/carelens/internal/models"
	"github.com/hyperjump/carelens/internal/retrieval"
)

const defaultRequestTimeout = 3 * time.Minute

// GuidelineIndex is the retriever surface the API exposes.
type GuidelineIndex interface {
	Retrieve(ctx context.Context, query string, k int) ([]models.RetrievedChunk, error)
	Status() retrieval.Status
}

// Server is the HTTP server for the carelens API.
type Server struct {
	analyzer       *analyzer.Analyzer
	guidelines     GuidelineIndex
	llmProvider    string
	metrics        http.Handler
	requestTimeout time.Duration
	config         *config.ServerConfig
	logger         *zap.Logger
	server         *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithLLMProvider reports the configured generative model provider in status
// responses. Empty means not configured.
func WithLLMProvider(provider string) Option {
	return func(s *Server) { s.llmProvider = provider }
}

// WithMetricsHandler overrides the /metrics handler.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithRequestTimeout bounds each request.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.requestTimeout = d
		}
	}
}

// NewServer creates a server with the given dependencies.
func NewServer(a *analyzer.Analyzer, guidelines GuidelineIndex, cfg *config.ServerConfig, logger *zap.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		analyzer:       a,
		guidelines:     guidelines,
		metrics:        promhttp.Handler(),
		requestTimeout: defaultRequestTimeout,
		config:         cfg,
		logger:         logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes returns the API router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.requestTimeout))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/analyze", s.handleAnalyze)
	r.Post("/api/v1/retrieve", s.handleRetrieve)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", s.metrics)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
