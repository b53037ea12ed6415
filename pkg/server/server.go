// Package server exposes the routing pipeline over HTTP.
//
// Every request builds its own routing session, so handlers share nothing but
// the runner's cache. Endpoints:
//
//	GET  /healthz              liveness probe
//	GET  /v1/version           build information
//	GET  /v1/example           example board as JSON
//	POST /v1/route             route a board, JSON report plus artifacts
//	POST /v1/route/{format}    route a board, one raw artifact
package server

import (
	"context"
	"io"
	"net/http"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/autoroute/pkg/cache"
	"github.com/matzehuels/autoroute/pkg/pipeline"
)

// Defaults for Config fields left at zero.
const (
	DefaultAddr           = ":8080"
	DefaultRequestTimeout = 60 * time.Second
	DefaultMaxBodyBytes   = 1 << 20
	DefaultKeyPrefix      = "api:v1:"
	DefaultMaxCells       = 1 << 20

	shutdownTimeout = 5 * time.Second
)

// Config configures a Server.
type Config struct {
	Addr   string
	Logger *log.Logger

	// Cache backs the route and artifact caches. Nil disables caching.
	Cache cache.Cache

	// RequestTimeout bounds the routing time of one request.
	RequestTimeout time.Duration

	// MaxBodyBytes limits the request body size.
	MaxBodyBytes int64

	// Parallelism overrides the boards' candidate parallelism when > 0.
	Parallelism int

	// MaxCells rejects boards with a larger grid area.
	MaxCells int

	// MaxParallelism rejects boards asking for more candidate workers.
	// Defaults to the number of CPUs.
	MaxParallelism int
}

func (c *Config) setDefaults() {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.Logger == nil {
		c.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	if c.MaxBodyBytes == 0 {
		c.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if c.MaxCells == 0 {
		c.MaxCells = DefaultMaxCells
	}
	if c.MaxParallelism == 0 {
		c.MaxParallelism = runtime.NumCPU()
	}
}

// Server is the HTTP front end of the routing pipeline.
type Server struct {
	cfg    Config
	runner *pipeline.Runner
	logger *log.Logger
	server *http.Server
}

// New creates a server. Cache keys are scoped with DefaultKeyPrefix so the
// API can share a backend with other consumers.
func New(cfg Config) *Server {
	cfg.setDefaults()
	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), DefaultKeyPrefix)

	s := &Server{
		cfg:    cfg,
		runner: pipeline.NewRunner(cfg.Cache, keyer, cfg.Logger),
		logger: cfg.Logger,
	}
	s.server = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/version", s.handleVersion)
		r.Get("/example", s.handleExample)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(s.cfg.RequestTimeout))
			r.Post("/route", s.handleRoute)
			r.Post("/route/{format}", s.handleRouteArtifact)
		})
	})
	return r
}

// Start serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Addr)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if cerr := s.runner.Close(); cerr != nil {
			s.logger.Warn("close cache", "err", cerr)
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("graceful shutdown failed", "err", err)
		_ = s.server.Close()
	}
	return s.runner.Close()
}
