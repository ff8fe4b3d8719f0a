package web

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/joestump/docshell/internal/config"
	"github.com/joestump/docshell/internal/docs"
)

//go:embed static/*
var staticFS embed.FS

// ServerOption configures optional Server features.
type ServerOption func(*Server)

// WithRegistry sets the Prometheus registry metrics are registered on and
// exposed from. Each Server gets a fresh registry by default.
func WithRegistry(reg *prometheus.Registry) ServerOption {
	return func(s *Server) { s.registry = reg }
}

// WithStaticFS replaces the embedded static assets.
func WithStaticFS(fsys fs.FS) ServerOption {
	return func(s *Server) { s.static = fsys }
}

// Server is the HTTP server hosting the documentation page.
type Server struct {
	cfg      *config.Config
	renderer *docs.Renderer
	mux      *http.ServeMux
	handler  http.Handler
	registry *prometheus.Registry
	metrics  *metrics
	static   fs.FS
	server   *http.Server
}

// New creates a new web server around renderer.
func New(cfg *config.Config, renderer *docs.Renderer, opts ...ServerOption) *Server {
	s := &Server{
		cfg:      cfg,
		renderer: renderer,
		mux:      http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
	}
	if s.static == nil {
		if cfg.StaticDir != "" {
			s.static = os.DirFS(cfg.StaticDir)
		} else {
			s.static, _ = fs.Sub(staticFS, "static")
		}
	}

	s.metrics = newMetrics(s.registry)
	s.registerRoutes()
	s.handler = s.instrument(s.mux)

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return s
}

// Handler returns the fully wrapped handler, middleware included.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start begins serving HTTP requests. It blocks until the server is shut down.
func (s *Server) Start() error {
	log.Info().Str("addr", s.server.Addr).Str("docs", s.cfg.DocsPath).Msg("docs server listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(s.static))))

	s.mux.HandleFunc("GET "+exactPattern(s.cfg.DocsPath), s.handleDocs)
	if s.cfg.DocsPath != "/" {
		s.mux.HandleFunc("GET /{$}", s.handleRoot)
	}

	if s.cfg.SpecFile != "" {
		if p := s.cfg.SpecPath(); p != "" {
			s.mux.HandleFunc("GET "+exactPattern(p), s.handleSpec)
		} else {
			log.Warn().Str("spec_url", s.cfg.SpecURL).Msg("spec file set but spec url is not a local path; not serving it")
		}
	}

	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	if s.cfg.Metrics {
		s.mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{Registry: s.registry}))
	}
}

// exactPattern keeps a trailing-slash path from matching its whole subtree.
func exactPattern(path string) string {
	if strings.HasSuffix(path, "/") {
		return path + "{$}"
	}
	return path
}
