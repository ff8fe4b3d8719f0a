package web

import (
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"os"

	"github.com/rs/zerolog"

	"github.com/joestump/docshell/internal/openapi"
)

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("writeJSON: encode error")
	}
}

// handleDocs renders the documentation page for the configured spec URL.
func (s *Server) handleDocs(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")

	if err := s.renderer.Render(w, s.cfg.SpecURL); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("render docs page")
		s.metrics.renders.WithLabelValues("error").Inc()
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}

	result := "ok"
	if s.cfg.SpecURL == "" {
		result = "empty_url"
	}
	s.metrics.renders.WithLabelValues(result).Inc()
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, s.cfg.DocsPath, http.StatusFound)
}

// handleSpec serves the local OpenAPI document. It is read on every request
// so edits show up without a restart.
func (s *Server) handleSpec(w http.ResponseWriter, r *http.Request) {
	logger := zerolog.Ctx(r.Context())

	f, err := os.Open(s.cfg.SpecFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warn().Str("spec_file", s.cfg.SpecFile).Msg("spec file missing")
			http.NotFound(w, r)
			return
		}
		logger.Error().Err(err).Str("spec_file", s.cfg.SpecFile).Msg("open spec file")
		http.Error(w, "spec unavailable", http.StatusInternalServerError)
		return
	}
	defer f.Close() //nolint:errcheck

	info, err := f.Stat()
	if err != nil {
		logger.Error().Err(err).Str("spec_file", s.cfg.SpecFile).Msg("stat spec file")
		http.Error(w, "spec unavailable", http.StatusInternalServerError)
		return
	}
	if info.IsDir() {
		logger.Error().Str("spec_file", s.cfg.SpecFile).Msg("spec file is a directory")
		http.Error(w, "spec unavailable", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", openapi.ContentType(s.cfg.SpecFile))
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}
