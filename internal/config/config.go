package config

import (
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/joestump/docshell/internal/docs"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// Config holds all runtime configuration for docshell.
type Config struct {
	Port     int
	DocsPath string

	// SpecURL is the one value substituted into the page per render.
	SpecURL string
	// SpecFile, when set, is served at SpecURL and supplies branding
	// defaults from its info block.
	SpecFile  string
	StaticDir string

	Title        string
	APIVersion   string
	Description  string
	Attribution  string
	LogoPath     string
	AssetBaseURL string

	Layout       string
	Presets      string
	DocExpansion string
	DeepLinking  bool

	LogLevel   string
	LogConsole bool
	Metrics    bool
}

// SetDefaults registers default values on v. Flag defaults registered by the
// cobra command take precedence once bound.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("port", 8080)
	v.SetDefault("docs_path", "/docs")
	v.SetDefault("spec_url", "/openapi.json")
	v.SetDefault("logo_path", docs.DefaultLogoPath)
	v.SetDefault("attribution", docs.DefaultAttribution)
	v.SetDefault("asset_base_url", docs.DefaultAssetBaseURL)
	v.SetDefault("layout", string(docs.LayoutBase))
	v.SetDefault("presets", "apis,standalone")
	v.SetDefault("doc_expansion", string(docs.ExpandNone))
	v.SetDefault("deep_linking", true)
	v.SetDefault("log_level", "info")
	v.SetDefault("metrics", true)
}

// Load reads configuration from v, which merges flag values, env vars,
// the optional config file and defaults.
func Load(v *viper.Viper) Config {
	return Config{
		Port:         v.GetInt("port"),
		DocsPath:     v.GetString("docs_path"),
		SpecURL:      strings.TrimSpace(v.GetString("spec_url")),
		SpecFile:     v.GetString("spec_file"),
		StaticDir:    v.GetString("static_dir"),
		Title:        v.GetString("title"),
		APIVersion:   v.GetString("api_version"),
		Description:  v.GetString("description"),
		Attribution:  v.GetString("attribution"),
		LogoPath:     v.GetString("logo_path"),
		AssetBaseURL: v.GetString("asset_base_url"),
		Layout:       v.GetString("layout"),
		Presets:      v.GetString("presets"),
		DocExpansion: v.GetString("doc_expansion"),
		DeepLinking:  v.GetBool("deep_linking"),
		LogLevel:     v.GetString("log_level"),
		LogConsole:   v.GetBool("log_console"),
		Metrics:      v.GetBool("metrics"),
	}
}

// Validate checks everything that would otherwise fail at request time.
// An empty SpecURL is accepted; the page then shows a fallback notice.
func (c Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return errors.Errorf("port %d out of range", c.Port)
	}
	if err := checkRoute("docs path", c.DocsPath); err != nil {
		return err
	}
	if c.SpecFile != "" {
		specPath := c.SpecPath()
		if specPath == "" {
			return errors.Errorf("spec file is set but spec url %q is not a local path", c.SpecURL)
		}
		if err := checkRoute("spec url", specPath); err != nil {
			return err
		}
		if specPath == c.DocsPath || specPath == "/" {
			return errors.Errorf("spec url path %q collides with the docs page", specPath)
		}
	}
	if c.AssetBaseURL != "" {
		u, err := url.Parse(c.AssetBaseURL)
		if err != nil {
			return errors.Wrap(err, "asset base url")
		}
		if u.Scheme == "" && !strings.HasPrefix(c.AssetBaseURL, "/") {
			return errors.Errorf("asset base url %q must be absolute or start with /", c.AssetBaseURL)
		}
	}
	if err := c.Viewer().Validate(); err != nil {
		return errors.Wrap(err, "viewer")
	}
	return nil
}

// reservedRoutes are registered by the web server regardless of config.
var reservedRoutes = []string{"/healthz", "/metrics"}

func checkRoute(name, path string) error {
	if !strings.HasPrefix(path, "/") {
		return errors.Errorf("%s %q must start with /", name, path)
	}
	if strings.ContainsAny(path, "{} \t") {
		return errors.Errorf("%s %q contains characters not allowed in a route", name, path)
	}
	if strings.HasPrefix(path, "/static/") {
		return errors.Errorf("%s %q collides with /static/", name, path)
	}
	for _, r := range reservedRoutes {
		if path == r {
			return errors.Errorf("%s %q is reserved", name, path)
		}
	}
	return nil
}

// Viewer returns the bootstrap configuration without a URL.
func (c Config) Viewer() docs.ViewerConfig {
	v := docs.DefaultViewerConfig("")
	v.Layout = docs.Layout(c.Layout)
	v.Presets = docs.ParsePresets(c.Presets)
	v.DocExpansion = docs.DocExpansion(c.DocExpansion)
	v.DeepLinking = c.DeepLinking
	return v
}

// Branding returns the static header and footer strings.
func (c Config) Branding() docs.Branding {
	return docs.Branding{
		Title:       c.Title,
		Version:     c.APIVersion,
		Description: c.Description,
		Attribution: c.Attribution,
		LogoPath:    c.LogoPath,
	}
}

// SpecPath returns the request path SpecURL resolves to on this server, or
// "" when SpecURL points elsewhere.
func (c Config) SpecPath() string {
	u, err := url.Parse(c.SpecURL)
	if err != nil || u.Scheme != "" || u.Host != "" || !strings.HasPrefix(u.Path, "/") {
		return ""
	}
	return u.Path
}
