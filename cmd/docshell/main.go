package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/joestump/docshell/internal/config"
	"github.com/joestump/docshell/internal/docs"
	"github.com/joestump/docshell/internal/logging"
	"github.com/joestump/docshell/internal/openapi"
	"github.com/joestump/docshell/internal/web"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	config.SetDefaults(v)

	rootCmd := &cobra.Command{
		Use:          "docshell",
		Short:        "Serve a branded Swagger UI page for an OpenAPI document",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if path := v.GetString("config"); path != "" {
				v.SetConfigFile(path)
				if err := v.ReadInConfig(); err != nil {
					return fmt.Errorf("read config %s: %w", path, err)
				}
			}
			return logging.Configure(v.GetString("log_level"), v.GetBool("log_console"))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(v)
		},
	}

	f := rootCmd.PersistentFlags()
	f.String("config", "", "path to a YAML, JSON or TOML config file")
	f.Int("port", 8080, "HTTP port for the docs server")
	f.String("docs-path", "/docs", "request path of the documentation page")
	f.String("spec-url", "/openapi.json", "URL the viewer fetches the OpenAPI document from")
	f.String("spec-file", "", "local OpenAPI document to serve at --spec-url")
	f.String("static-dir", "", "directory served under /static/ instead of the embedded assets")
	f.String("title", "", "product name shown in the header")
	f.String("api-version", "", "version string shown in the header")
	f.String("description", "", "Markdown shown under the title")
	f.String("attribution", docs.DefaultAttribution, "footer text")
	f.String("logo-path", docs.DefaultLogoPath, "header logo URL")
	f.String("asset-base-url", docs.DefaultAssetBaseURL, "base URL of the swagger-ui-dist assets")
	f.String("layout", string(docs.LayoutBase), "viewer layout (BaseLayout or StandaloneLayout)")
	f.String("presets", "apis,standalone", "comma-separated viewer presets")
	f.String("doc-expansion", string(docs.ExpandNone), "initial expansion (list, full or none)")
	f.Bool("deep-linking", true, "sync expanded operations with the URL fragment")
	f.String("log-level", "info", "log level (trace, debug, info, warn, error)")
	f.Bool("log-console", false, "human-readable console logs instead of JSON")
	f.Bool("metrics", true, "expose Prometheus metrics at /metrics")

	// Viper keys use underscores (spec_url) so they match the env var
	// suffix after stripping the DOCSHELL_ prefix.
	f.VisitAll(func(fl *pflag.Flag) {
		_ = v.BindPFlag(strings.ReplaceAll(fl.Name, "-", "_"), fl)
	})

	// DOCSHELL_SPEC_URL -> "spec_url", DOCSHELL_DOC_EXPANSION -> "doc_expansion", etc.
	v.SetEnvPrefix("DOCSHELL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	rootCmd.AddCommand(newServeCmd(v), newRenderCmd(v), newVersionCmd())
	return rootCmd
}

func newServeCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the docs server (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(v)
		},
	}
}

func newRenderCmd(v *viper.Viper) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Write the documentation page to stdout or a file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, renderer, err := setup(v)
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				return renderer.Render(cmd.OutOrStdout(), cfg.SpecURL)
			}

			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("create %s: %w", output, err)
			}
			if err := renderer.Render(f, cfg.SpecURL); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("close %s: %w", output, err)
			}
			log.Info().Str("output", output).Str("spec_url", cfg.SpecURL).Msg("page written")
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "docshell %s\n", config.Version)
			return err
		},
	}
}

// setup loads and validates the configuration and builds the renderer.
// Branding left empty is filled from the local spec file's info block.
func setup(v *viper.Viper) (config.Config, *docs.Renderer, error) {
	cfg := config.Load(v)
	if err := cfg.Validate(); err != nil {
		return cfg, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.SpecURL == "" {
		log.Warn().Msg("no spec url configured; the page will show a notice instead of the viewer")
	}

	if cfg.SpecFile != "" && (cfg.Title == "" || cfg.APIVersion == "" || cfg.Description == "") {
		info, err := openapi.ReadInfo(cfg.SpecFile)
		if err != nil {
			log.Warn().Err(err).Str("spec_file", cfg.SpecFile).Msg("could not read branding from spec file")
		} else {
			if cfg.Title == "" {
				cfg.Title = info.Title
			}
			if cfg.APIVersion == "" {
				cfg.APIVersion = info.Version
			}
			if cfg.Description == "" {
				cfg.Description = info.Description
			}
		}
	}

	renderer, err := docs.NewRenderer(cfg.Branding(), docs.Assets{BaseURL: cfg.AssetBaseURL}, cfg.Viewer())
	if err != nil {
		return cfg, nil, fmt.Errorf("build renderer: %w", err)
	}
	return cfg, renderer, nil
}

func serve(v *viper.Viper) error {
	cfg, renderer, err := setup(v)
	if err != nil {
		return err
	}

	log.Info().
		Str("version", config.Version).
		Int("port", cfg.Port).
		Str("docs_path", cfg.DocsPath).
		Str("spec_url", cfg.SpecURL).
		Str("spec_file", cfg.SpecFile).
		Msg("docshell starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	webServer := web.New(&cfg, renderer)
	errCh := make(chan error, 1)
	go func() {
		errCh <- webServer.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("web server: %w", err)
		}
		return nil
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := webServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("web server shutdown: %w", err)
	}
	return <-errCh
}
