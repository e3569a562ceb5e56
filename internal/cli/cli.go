// Package cli implements the cratedeps command-line interface.
//
// # Commands
//
//   - resolve: build the dependency graph of a published crate
//   - manifest: build the dependency graph of a local Cargo.toml
//   - versions: list the published versions of a crate
//   - import: load a fixture registry into a SQLite database
//   - serve: run the HTTP API
//   - cache: manage the response cache
//   - config: show the effective configuration
//
// Settings come from the TOML config file (see package config) and are
// overridden by flags. Logs and status lines go to stderr; graphs go to
// stdout or the file given with -o.
package cli

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/cratedeps/pkg/buildinfo"
	"github.com/matzehuels/cratedeps/pkg/config"
)

const appName = "cratedeps"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
}

// New creates a new CLI instance logging to w.
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
		Short:        "cratedeps resolves crate dependency graphs",
		Long:         `cratedeps walks the dependency requirements of a Rust crate against crates.io (or an offline copy of it) and writes the resulting graph as JSON, Graphviz DOT or SVG.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/cratedeps/config.toml)")

	root.AddCommand(c.resolveCommand())
	root.AddCommand(c.manifestCommand())
	root.AddCommand(c.versionsCommand())
	root.AddCommand(c.importCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads the config file named by --config, or the default one.
func (c *CLI) loadConfig() (config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return cfg, err
	}
	if cfg.Cache.Dir == "" {
		if dir, err := config.DefaultCacheDir(); err == nil {
			cfg.Cache.Dir = dir
		}
	}
	return cfg, nil
}

// writeOutput writes data to path, or to w when path is empty.
func writeOutput(w io.Writer, path string, data []byte) error {
	if path == "" {
		_, err := w.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
