// Package cli implements the heatmap command-line interface.
//
// # Commands
//
//   - render: Render points from JSON, CSV or SQLite to PNG, TIFF, KML and a legend
//   - legend: Render a stand-alone legend strip
//   - schemes: List colour schemes
//   - serve: Run the HTTP API
//   - cache: Manage the render cache
//
// # Configuration
//
// Every command reads the profile named by --config (default
// ~/.config/heatmap/config.toml). Profile render settings fill in whatever
// flags leave unset, and profile schemes are registered before the command
// runs.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. The logger is
// passed through context.Context.
package cli

import (
	"context"
	"io"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/heatmap/internal/config"
	"github.com/matzehuels/heatmap/pkg/buildinfo"
	"github.com/matzehuels/heatmap/pkg/httputil"
	"github.com/matzehuels/heatmap/pkg/pipeline"
)

const (
	appName = "heatmap"

	// downloadTTL is how long remote inputs are reused before refetching.
	downloadTTL = 24 * time.Hour
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	cfg        *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Heatmap renders point sets as density images",
		Long:         `Heatmap turns weighted or unweighted 2D points into colourised density images, with KML overlays and legends for map use.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := c.loadConfig(); err != nil {
				return err
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "profile path (default ~/.config/heatmap/config.toml)")

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.legendCommand())
	root.AddCommand(c.schemesCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads the profile and registers its colour schemes.
func (c *CLI) loadConfig() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if err := cfg.RegisterSchemes(); err != nil {
		return err
	}
	c.cfg = cfg
	c.Logger.Debug("loaded profile", "path", c.configPath, "cache", cfg.Cache.Backend)
	return nil
}

// profile returns the loaded profile, or the defaults when no command has
// loaded one yet.
func (c *CLI) profile() *config.Config {
	if c.cfg == nil {
		return config.Default()
	}
	return c.cfg
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner backed by the profile's cache.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cc := c.profile().Cache
	if noCache {
		cc.Backend = config.BackendNone
	}
	store, keyer, err := config.OpenCache(ctx, cc)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(store, keyer, c.Logger), nil
}

// newFetcher returns a downloader for remote inputs. Downloads are cached
// next to rendered artifacts unless caching is off.
func (c *CLI) newFetcher(noCache bool) *httputil.Fetcher {
	if noCache || c.profile().Cache.Backend == config.BackendNone {
		return httputil.NewFetcher(nil)
	}
	dir, err := c.cacheDir()
	if err != nil {
		return httputil.NewFetcher(nil)
	}
	store, err := httputil.NewCache(filepath.Join(dir, "http"), downloadTTL)
	if err != nil {
		c.Logger.Debug("download cache unavailable", "error", err)
		return httputil.NewFetcher(nil)
	}
	return httputil.NewFetcher(store)
}

// cacheDir returns the file cache directory of the loaded profile.
func (c *CLI) cacheDir() (string, error) {
	if dir := c.profile().Cache.Dir; dir != "" {
		return dir, nil
	}
	return config.DefaultCacheDir()
}
