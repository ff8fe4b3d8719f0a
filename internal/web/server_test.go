package web

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.uber.org/goleak"

	"github.com/joestump/docshell/internal/config"
	"github.com/joestump/docshell/internal/docs"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type testEnv struct {
	cfg *config.Config
	srv *Server
}

func newTestEnv(t *testing.T, mutate func(*config.Config), opts ...ServerOption) *testEnv {
	t.Helper()
	cfg := &config.Config{
		Port:         0,
		DocsPath:     "/docs",
		SpecURL:      "/openapi.json",
		Title:        "API Symplibackup",
		APIVersion:   "1.1",
		Layout:       string(docs.LayoutBase),
		Presets:      "apis,standalone",
		DocExpansion: string(docs.ExpandNone),
		DeepLinking:  true,
		Metrics:      true,
	}
	if mutate != nil {
		mutate(cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("invalid test config: %v", err)
	}

	renderer, err := docs.NewRenderer(cfg.Branding(), docs.Assets{BaseURL: cfg.AssetBaseURL}, cfg.Viewer())
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	return &testEnv{cfg: cfg, srv: New(cfg, renderer, opts...)}
}

func (e *testEnv) get(t *testing.T, path string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(w, req)
	return w
}

func TestDocsReturns200(t *testing.T) {
	e := newTestEnv(t, nil)
	w := e.get(t, "/docs")

	if w.Code != http.StatusOK {
		t.Fatalf("GET /docs: expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/html") {
		t.Fatalf("GET /docs: expected text/html content type, got %q", ct)
	}

	doc, err := goquery.NewDocumentFromReader(w.Body)
	if err != nil {
		t.Fatalf("parse page: %v", err)
	}
	var viewer docs.ViewerConfig
	if err := json.Unmarshal([]byte(doc.Find("#viewer-config").Text()), &viewer); err != nil {
		t.Fatalf("decode viewer config: %v", err)
	}
	if viewer.URL != "/openapi.json" {
		t.Fatalf("expected url /openapi.json, got %q", viewer.URL)
	}
	if got := strings.TrimSpace(doc.Find(".brand-title").Text()); got != "API Symplibackup" {
		t.Errorf("expected title in header, got %q", got)
	}
}

func TestDocsEmptySpecURL(t *testing.T) {
	e := newTestEnv(t, func(c *config.Config) { c.SpecURL = "" })
	w := e.get(t, "/docs")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "No API specification URL has been configured.") {
		t.Error("expected fallback notice in page")
	}
	if !strings.Contains(body, `<footer class="site-footer">`) {
		t.Error("expected footer in page")
	}

	m := e.get(t, "/metrics").Body.String()
	if !strings.Contains(m, `docshell_page_renders_total{result="empty_url"} 1`) {
		t.Errorf("expected empty_url render to be counted, got:\n%s", m)
	}
}

func TestRootRedirectsToDocs(t *testing.T) {
	e := newTestEnv(t, nil)
	w := e.get(t, "/")

	if w.Code != http.StatusFound {
		t.Fatalf("GET /: expected 302, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/docs" {
		t.Fatalf("expected redirect to /docs, got %q", loc)
	}
}

func TestDocsAtRoot(t *testing.T) {
	e := newTestEnv(t, func(c *config.Config) { c.DocsPath = "/" })

	if w := e.get(t, "/"); w.Code != http.StatusOK {
		t.Fatalf("GET /: expected 200, got %d", w.Code)
	}
	if w := e.get(t, "/other"); w.Code != http.StatusNotFound {
		t.Fatalf("GET /other: expected 404, got %d", w.Code)
	}
}

func TestDocsTrailingSlashIsExact(t *testing.T) {
	e := newTestEnv(t, func(c *config.Config) { c.DocsPath = "/api/docs/" })

	if w := e.get(t, "/api/docs/"); w.Code != http.StatusOK {
		t.Fatalf("GET /api/docs/: expected 200, got %d", w.Code)
	}
	if w := e.get(t, "/api/docs/extra"); w.Code != http.StatusNotFound {
		t.Fatalf("GET /api/docs/extra: expected 404, got %d", w.Code)
	}
}

func TestEmbeddedLogo(t *testing.T) {
	e := newTestEnv(t, nil)
	w := e.get(t, "/static/logo.png")

	if w.Code != http.StatusOK {
		t.Fatalf("GET /static/logo.png: expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Fatalf("expected image/png, got %q", ct)
	}
	if !strings.HasPrefix(w.Body.String(), "\x89PNG") {
		t.Fatal("expected PNG signature")
	}
}

func TestStaticDirOverride(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "brand.css"), []byte("body{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	e := newTestEnv(t, func(c *config.Config) { c.StaticDir = dir })

	if w := e.get(t, "/static/brand.css"); w.Code != http.StatusOK || w.Body.String() != "body{}" {
		t.Fatalf("GET /static/brand.css: got %d %q", w.Code, w.Body.String())
	}
	if w := e.get(t, "/static/logo.png"); w.Code != http.StatusNotFound {
		t.Fatalf("embedded logo should not be served from a custom dir, got %d", w.Code)
	}
}

func TestWithStaticFS(t *testing.T) {
	fsys := fstest.MapFS{"logo.png": {Data: []byte("custom")}}
	e := newTestEnv(t, nil, WithStaticFS(fsys))

	if w := e.get(t, "/static/logo.png"); w.Body.String() != "custom" {
		t.Fatalf("expected custom logo, got %q", w.Body.String())
	}
}

func TestSpecFileServed(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		body    string
		wantCT  string
		specURL string
	}{
		{"json", "openapi.json", `{"openapi":"3.1.0"}`, "application/json", "/openapi.json"},
		{"yaml", "openapi.yaml", "openapi: 3.1.0\n", "application/yaml", "/api/openapi.yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			if err := os.WriteFile(path, []byte(tt.body), 0o644); err != nil {
				t.Fatal(err)
			}
			e := newTestEnv(t, func(c *config.Config) {
				c.SpecFile = path
				c.SpecURL = tt.specURL
			})

			w := e.get(t, tt.specURL)
			if w.Code != http.StatusOK {
				t.Fatalf("GET %s: expected 200, got %d", tt.specURL, w.Code)
			}
			if ct := w.Header().Get("Content-Type"); ct != tt.wantCT {
				t.Errorf("expected %s, got %q", tt.wantCT, ct)
			}
			if w.Body.String() != tt.body {
				t.Errorf("unexpected body %q", w.Body.String())
			}
		})
	}
}

func TestSpecFileMissing(t *testing.T) {
	e := newTestEnv(t, func(c *config.Config) {
		c.SpecFile = filepath.Join(t.TempDir(), "gone.json")
	})
	if w := e.get(t, "/openapi.json"); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestSpecFileIsDirectory(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })

	dir := t.TempDir()
	e := newTestEnv(t, func(c *config.Config) { c.SpecFile = dir })
	if w := e.get(t, "/openapi.json"); w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}

	var entry map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("decode log line %q: %v", line, err)
		}
		if m["spec_file"] == dir {
			entry = m
		}
	}
	if entry == nil {
		t.Fatalf("no log line for the spec file, got:\n%s", buf.String())
	}
	if entry["message"] != "spec file is a directory" {
		t.Errorf("expected directory message, got %q", entry["message"])
	}
	if _, ok := entry["error"]; ok {
		t.Errorf("expected no error field, got %v", entry["error"])
	}
}

func TestSpecNotServedWithoutFile(t *testing.T) {
	e := newTestEnv(t, nil)
	if w := e.get(t, "/openapi.json"); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestHealth(t *testing.T) {
	e := newTestEnv(t, nil)
	w := e.get(t, "/healthz")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp map[string]string
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["status"] != "ok" {
		t.Fatalf("expected status 'ok', got %q", resp["status"])
	}
}

func TestMetricsCountRequests(t *testing.T) {
	e := newTestEnv(t, nil)
	e.get(t, "/docs")
	e.get(t, "/docs")
	e.get(t, "/nope")

	w := e.get(t, "/metrics")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /metrics: expected 200, got %d", w.Code)
	}
	body, _ := io.ReadAll(w.Body)
	for _, want := range []string{
		`docshell_page_renders_total{result="ok"} 2`,
		`docshell_http_requests_total{code="200",method="GET",route="GET /docs"} 2`,
		`docshell_http_requests_total{code="404",method="GET",route="unmatched"} 1`,
		`docshell_build_info{goversion=`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestMetricsDisabled(t *testing.T) {
	e := newTestEnv(t, func(c *config.Config) { c.Metrics = false })
	if w := e.get(t, "/metrics"); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestRequestID(t *testing.T) {
	e := newTestEnv(t, nil)

	w := e.get(t, "/healthz")
	if id := w.Header().Get("X-Request-Id"); len(id) != 36 {
		t.Fatalf("expected generated uuid request id, got %q", id)
	}

	w = e.get(t, "/healthz", "X-Request-Id", "abc-123")
	if id := w.Header().Get("X-Request-Id"); id != "abc-123" {
		t.Fatalf("expected incoming request id to be reused, got %q", id)
	}
}

func TestUnknownMethod(t *testing.T) {
	e := newTestEnv(t, nil)
	req := httptest.NewRequest("POST", "/docs", nil)
	w := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST /docs: expected 405, got %d", w.Code)
	}
}
