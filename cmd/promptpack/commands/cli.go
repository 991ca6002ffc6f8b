// Package commands implements the promptpack subcommands.
package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/promptpack/internal/config"
)

// DefaultConfigFile is loaded when --config is not given and it exists in
// the working directory.
const DefaultConfigFile = "promptpack.yaml"

// Global carries the output streams shared by subcommands.
type Global struct {
	Stdout io.Writer
	Stderr io.Writer
}

func (g *Global) stdout() io.Writer {
	if g == nil || g.Stdout == nil {
		return os.Stdout
	}
	return g.Stdout
}

func (g *Global) stderr() io.Writer {
	if g == nil || g.Stderr == nil {
		return os.Stderr
	}
	return g.Stderr
}

// CLI definition & global flags.
type CLI struct {
	Config    string           `short:"c" help:"Configuration file path (defaults to ./promptpack.yaml when present)" type:"path"`
	Verbose   bool             `short:"v" help:"Enable verbose logging"`
	LogFormat string           `name:"log-format" help:"Log format: text or json (overrides config)"`
	Version   kong.VersionFlag `name:"version" help:"Show version and exit"`

	Render RenderCmd `cmd:"" default:"withargs" help:"Render files into one prompt pack (default command)"`
	Scan   ScanCmd   `cmd:"" help:"List discovered files without rendering"`
	Apply  ApplyCmd  `cmd:"" help:"Abbreviate files in place (destructive)"`
	Init   InitCmd   `cmd:"" help:"Write an example configuration file"`
}

// AfterApply runs after flag parsing; the config file may refine logging later.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	c.configureLogging(config.LoggingConfig{Level: config.LogLevelInfo})
	return nil
}

func (c *CLI) configureLogging(l config.LoggingConfig) {
	if c.LogFormat != "" {
		l.Format = config.NormalizeLogFormat(c.LogFormat)
	}
	slog.SetDefault(l.NewLogger(os.Stderr, c.Verbose))
}

// configPath resolves the file to load, or "" for built-in defaults.
func (c *CLI) configPath() string {
	if c.Config != "" {
		return c.Config
	}
	if _, err := os.Stat(DefaultConfigFile); err == nil {
		return DefaultConfigFile
	}
	return ""
}

// loadConfig loads the configuration and applies its logging settings.
func (c *CLI) loadConfig(fallbackDefault string) (*config.Config, error) {
	path := c.configPath()
	cfg, err := config.Load(path, fallbackDefault)
	if err != nil {
		return nil, err
	}
	c.configureLogging(cfg.Logging)
	if path != "" {
		slog.Debug("Loaded configuration", "path", path, "rules", len(cfg.Rules), "default", cfg.Default)
	}
	return cfg, nil
}
