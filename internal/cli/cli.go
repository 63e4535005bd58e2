// Package cli implements the pystudio command-line interface.
//
// This package provides commands for auditing a project's imports against
// its virtual environment, installing missing distributions, pre-checking
// scripts, managing environments, and running scripts under supervision.
// The CLI is built using cobra and supports verbose logging via the
// charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - audit: Scan imports and report missing distributions
//   - install: Install missing or named distributions
//   - check: Structurally pre-check a script
//   - run: Execute a script under the project environment
//   - env: Create and inspect virtual environments
//   - serve: Expose the engine over HTTP
//   - cache: Manage the package-snapshot cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context to allow structured progress tracking.
//
// # Example
//
//	import "github.com/pystudio/pystudio/internal/cli"
//
//	func main() {
//	    c := cli.New(os.Stderr, cli.LogInfo)
//	    if err := c.RootCommand().Execute(); err != nil {
//	        os.Exit(1)
//	    }
//	}
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/pystudio/pystudio/pkg/buildinfo"
	"github.com/pystudio/pystudio/pkg/cache"
	"github.com/pystudio/pystudio/pkg/engine"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "pystudio"

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
		Use:          "pystudio",
		Short:        "Pystudio keeps Python sandboxes runnable",
		Long:         `Pystudio audits a project's imports against its virtual environment, installs what is missing, and runs scripts under supervision, so a script that imports it can also run it.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	// Register all subcommands
	root.AddCommand(c.auditCommand())
	root.AddCommand(c.installCommand())
	root.AddCommand(c.checkCommand())
	root.AddCommand(c.runCommand())
	root.AddCommand(c.envCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Engine Factory
// =============================================================================

// newEngine creates an engine for CLI use.
func (c *CLI) newEngine(noCache bool) *engine.Engine {
	return engine.New(engine.Options{
		Cache:  newSnapshotCache(noCache),
		Logger: c.Logger,
	})
}

func newSnapshotCache(noCache bool) cache.Cache {
	if noCache {
		return cache.NewNullCache()
	}
	if addr := os.Getenv("PYSTUDIO_REDIS_ADDR"); addr != "" {
		if rc, err := cache.NewRedisCache(context.Background(), cache.RedisConfig{Addr: addr}); err == nil {
			return rc
		}
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache()
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return cache.NewNullCache()
	}
	return fc
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/pystudio/).
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
