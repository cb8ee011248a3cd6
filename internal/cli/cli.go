// Package cli implements the retrobio command-line interface.
//
// This package provides commands for rendering retro terminal profile cards,
// exporting animated captures, extracting profiles from free-form text, and
// serving the renderer over HTTP. The CLI is built using cobra and supports
// verbose logging via the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - render: Generate SVG, PNG, or GIF cards from a profile
//   - extract: Turn free-form text into a profile via the extraction API
//   - serve: Run the HTTP rendering service
//   - config: Inspect and initialize the on-disk configuration
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context to allow structured progress tracking.
package cli

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/watanaberin/retro-bio/pkg/buildinfo"
	"github.com/watanaberin/retro-bio/pkg/cache"
	"github.com/watanaberin/retro-bio/pkg/errors"
	"github.com/watanaberin/retro-bio/pkg/pipeline"
	"github.com/watanaberin/retro-bio/pkg/profile"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "retrobio"

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
		Short:        "Retrobio renders profile cards as a retro CRT terminal",
		Long:         `Retrobio turns a profile (username, attributes, bio, optional image) into a green-phosphor CRT terminal card: vector SVG, raster PNG stills, or animated GIF captures with screen curvature, scanlines, and flicker.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	// Register all subcommands
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.extractCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(noCache bool) (*pipeline.Runner, error) {
	store, err := newCache(noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(store, c.Logger), nil
}

func newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/retrobio/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Input Helpers
// =============================================================================

// loadProfile reads a profile from path, from stdin when path is "-", or the
// built-in default profile when path is empty.
func loadProfile(path string) (profile.Profile, error) {
	switch path {
	case "":
		return profile.Default(), nil
	case "-":
		return profile.Read(os.Stdin)
	}

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return profile.Profile{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "open profile %s", path)
	}
	if err != nil {
		return profile.Profile{}, errors.Wrap(errors.ErrCodeInvalidProfile, err, "open profile %s", path)
	}
	defer f.Close()
	return profile.Read(f)
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	return strings.Split(s, ",")
}
