// Package docs renders the API documentation page: a static branded shell
// around a Swagger UI viewer whose only per-render input is the URL of the
// OpenAPI document.
package docs

import (
	"bytes"
	"embed"
	"html/template"
	"io"
	"strings"
	"unicode"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

//go:embed templates/swagger.html
var templateFS embed.FS

const (
	DefaultTitle        = "API Documentation"
	DefaultLogoPath     = "/static/logo.png"
	DefaultAssetBaseURL = "https://cdn.jsdelivr.net/npm/swagger-ui-dist@5"
	DefaultAttribution  = "Interactive documentation powered by Swagger UI"
)

// Branding holds the static strings of the page header and footer.
type Branding struct {
	Title       string
	Version     string
	Description string // Markdown
	Attribution string
	LogoPath    string
}

// Badge is the header label for the version: numeric versions get a "v"
// prefix, anything else ("beta", "very-beta") is shown as is.
func (b Branding) Badge() string {
	if b.Version == "" || !startsWithDigit(b.Version) {
		return b.Version
	}
	return "v" + b.Version
}

// Assets locates the viewer's scripts and stylesheet.
type Assets struct {
	BaseURL string
}

func (a Assets) BundleScript() string { return a.BaseURL + "/swagger-ui-bundle.js" }
func (a Assets) PresetScript() string { return a.BaseURL + "/swagger-ui-standalone-preset.js" }
func (a Assets) Stylesheet() string   { return a.BaseURL + "/swagger-ui.css" }

// Page is the template input. Everything but Viewer.URL is identical
// across renders of the same Renderer.
type Page struct {
	Branding    Branding
	Description template.HTML
	Assets      Assets
	Viewer      ViewerConfig
}

// Renderer renders the documentation page. It is safe for concurrent use:
// all fields are read-only after NewRenderer.
type Renderer struct {
	tmpl        *template.Template
	branding    Branding
	description template.HTML
	assets      Assets
	viewer      ViewerConfig
}

// NewRenderer parses the embedded template and prepares the static parts of
// the page. The URL carried by viewer is ignored; it is supplied per render.
func NewRenderer(branding Branding, assets Assets, viewer ViewerConfig) (*Renderer, error) {
	if err := viewer.Validate(); err != nil {
		return nil, errors.Wrap(err, "viewer config")
	}

	branding = normalizeBranding(branding)
	if assets.BaseURL == "" {
		assets.BaseURL = DefaultAssetBaseURL
	}
	assets.BaseURL = strings.TrimRight(assets.BaseURL, "/")

	description, err := renderMarkdown(branding.Description)
	if err != nil {
		return nil, errors.Wrap(err, "render description")
	}

	tmpl, err := template.ParseFS(templateFS, "templates/swagger.html")
	if err != nil {
		return nil, errors.Wrap(err, "parse page template")
	}

	return &Renderer{
		tmpl:        tmpl,
		branding:    branding,
		description: description,
		assets:      assets,
		viewer:      viewer.WithURL(""),
	}, nil
}

// Page builds the template input for specURL.
func (r *Renderer) Page(specURL string) Page {
	return Page{
		Branding:    r.branding,
		Description: r.description,
		Assets:      r.assets,
		Viewer:      r.viewer.WithURL(specURL),
	}
}

// Render writes the page for specURL to w. Nothing is written if template
// execution fails.
func (r *Renderer) Render(w io.Writer, specURL string) error {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, "swagger.html", r.Page(specURL)); err != nil {
		return errors.Wrap(err, "execute page template")
	}
	_, err := buf.WriteTo(w)
	return err
}

func normalizeBranding(b Branding) Branding {
	b.Title = strings.TrimSpace(b.Title)
	if b.Title == "" {
		b.Title = DefaultTitle
	}
	b.Version = trimVersionPrefix(strings.TrimSpace(b.Version))
	if b.LogoPath == "" {
		b.LogoPath = DefaultLogoPath
	}
	if b.Attribution == "" {
		b.Attribution = DefaultAttribution
	}
	return b
}

// trimVersionPrefix drops the "v" of "v1.2" but keeps words that happen to
// start with one.
func trimVersionPrefix(v string) string {
	if len(v) > 1 && (v[0] == 'v' || v[0] == 'V') && startsWithDigit(v[1:]) {
		return v[1:]
	}
	return v
}

func startsWithDigit(s string) bool {
	for _, r := range s {
		return unicode.IsDigit(r)
	}
	return false
}

// renderMarkdown converts the header description. Raw HTML in the source is
// dropped by goldmark's default renderer.
func renderMarkdown(md string) (template.HTML, error) {
	if strings.TrimSpace(md) == "" {
		return "", nil
	}
	gm := goldmark.New(goldmark.WithExtensions(extension.GFM))
	var buf bytes.Buffer
	if err := gm.Convert([]byte(md), &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}
