// Package cli implements the singleline command-line interface.
//
// Surveys are JSON snapshot files. Editing commands read the file, apply
// one editor operation and write the new snapshot back in place:
//
//	singleline new depot.json --voltage 277/480 --amps 800
//	singleline panel add depot.json --parent MDP --name "EV Panel"
//	singleline panel transformer depot.json "EV Panel" --kva 75 --secondary 120/208
//	singleline breaker add depot.json "EV Panel" --ev --profile ac50
//	singleline check depot.json
//	singleline render depot.json -f svg,report
//
// # Logging
//
// Commands log through one charmbracelet/log logger on stderr. --verbose
// switches it to debug level and reports pipeline and cache events.
//
// # Configuration
//
// Cache, store and profile settings come from internal/config; --config
// names an explicit file.
package cli

import (
	"context"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/evsingleline/singleline/internal/config"
	"github.com/evsingleline/singleline/pkg/buildinfo"
	"github.com/evsingleline/singleline/pkg/cache"
	"github.com/evsingleline/singleline/pkg/observability"
	"github.com/evsingleline/singleline/pkg/pipeline"
	"github.com/evsingleline/singleline/pkg/profile"
	"github.com/evsingleline/singleline/pkg/survey"
)

// =============================================================================
// Constants
// =============================================================================

const appName = "singleline"

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

	// ids generates element ids for new services, panels and breakers.
	ids survey.IDGenerator
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		ids:    survey.UUIDGenerator{},
	}
}

// SetLogLevel updates the logger's level. At debug level pipeline and
// cache events are logged too.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
	if level <= log.DebugLevel {
		observability.NewLogHooks(c.Logger).Register()
	}
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Singleline checks EV charger site surveys and draws one-line diagrams",
		Long:         `Singleline edits electrical site surveys for EV charger installations, checks them against NEC sizing rules and renders one-line diagrams and survey reports.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default ~/.config/singleline/config.toml)")

	root.AddCommand(c.newCommand())
	root.AddCommand(c.checkCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.panelCommand())
	root.AddCommand(c.breakerCommand())
	root.AddCommand(c.profilesCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Configuration
// =============================================================================

// loadConfig loads the configuration once per process.
func (c *CLI) loadConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	if cfg.Path != "" {
		c.Logger.Debug("loaded config", "path", cfg.Path)
	}
	c.cfg = cfg
	return cfg, nil
}

// catalog returns the configured charger-profile catalog.
func (c *CLI) catalog() (*profile.Catalog, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	return cfg.Catalog()
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use. Keys are scoped by
// version so an upgrade never serves artifacts drawn by an older renderer.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	var backend cache.Cache = cache.NewNullCache()
	if !noCache {
		backend, err = cfg.OpenCache(ctx)
		if err != nil {
			return nil, err
		}
	}
	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), buildinfo.Version+":")
	r := pipeline.NewRunner(backend, keyer, c.Logger)
	r.TTL = cfg.Cache.TTL
	return r, nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
