// Package config loads the promptpack YAML configuration.
package config

import (
	"bytes"
	stderrors "errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/promptpack/internal/foundation/errors"
	"git.home.luguber.info/inful/promptpack/internal/policy"
)

// Config is the on-disk configuration.
type Config struct {
	// Default is the mode applied when no rule matches.
	Default string `yaml:"default"`
	// Rules are tried in order; the first match wins.
	Rules            []policy.Rule `yaml:"rules"`
	Includes         []string      `yaml:"includes"`
	Excludes         []string      `yaml:"excludes"`
	RespectGitignore bool          `yaml:"respect_gitignore"`
	Output           OutputConfig  `yaml:"output"`
	Logging          LoggingConfig `yaml:"logging"`
}

// OutputConfig selects where the pack goes.
type OutputConfig struct {
	Path     string `yaml:"path"`     // Empty writes to stdout
	Manifest string `yaml:"manifest"` // Optional YAML manifest of packed documents
}

// DefaultExcludes skips virtualenvs, caches, build output and type stubs.
var DefaultExcludes = []string{
	".venv/**",
	"**/__pycache__/**",
	"dist/**",
	"build/**",
	"site-packages/**",
	"**/*.pyi",
}

// Default returns the configuration used when no file is given.
func Default(defaultMode string) *Config {
	if defaultMode == "" {
		defaultMode = string(policy.KindFull)
	}
	return &Config{
		Default:          defaultMode,
		Includes:         []string{"**/*"},
		Excludes:         append([]string(nil), DefaultExcludes...),
		RespectGitignore: true,
		Logging:          LoggingConfig{Level: LogLevelInfo, Format: LogFormatText},
	}
}

// Load reads the configuration at path. Values missing from the file keep
// their defaults, with fallbackDefault as the default mode. An empty path
// returns the defaults.
func Load(path, fallbackDefault string) (*Config, error) {
	if err := loadEnvFiles(); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to load environment file").Build()
	}

	cfg := Default(fallbackDefault)
	if path == "" {
		return cfg, cfg.Validate()
	}

	data, err := os.ReadFile(path)
	if stderrors.Is(err, fs.ErrNotExist) {
		return nil, errors.ConfigError("configuration file not found").WithContext("path", path).Build()
	}
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to read config file").
			WithContext("path", path).
			Build()
	}

	dec := yaml.NewDecoder(bytes.NewReader([]byte(os.ExpandEnv(string(data)))))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !stderrors.Is(err, io.EOF) {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to parse config file").
			WithContext("path", path).
			Build()
	}
	if cfg.Default == "" {
		cfg.Default = Default(fallbackDefault).Default
	}

	if err := cfg.Validate(); err != nil {
		if ce, ok := errors.AsClassified(err); ok {
			return nil, ce.WithContext("path", path)
		}
		return nil, err
	}
	return cfg, nil
}

// Validate checks modes, globs and logging settings.
func (c *Config) Validate() error {
	if _, err := c.Decider(); err != nil {
		return err
	}

	for _, group := range []struct {
		name     string
		patterns []string
	}{{"includes", c.Includes}, {"excludes", c.Excludes}} {
		for _, p := range group.patterns {
			if !doublestar.ValidatePattern(p) {
				return errors.ValidationError("invalid glob pattern").
					WithContext("field", group.name).
					WithContext("pattern", p).
					Build()
			}
		}
	}

	if c.Logging.Level != "" {
		level, err := logLevelNormalizer.NormalizeWithError(string(c.Logging.Level))
		if err != nil {
			return errors.WrapError(err, errors.CategoryValidation, "invalid logging level").Build()
		}
		c.Logging.Level = level
	}
	if c.Logging.Format != "" {
		format, err := logFormatNormalizer.NormalizeWithError(string(c.Logging.Format))
		if err != nil {
			return errors.WrapError(err, errors.CategoryValidation, "invalid logging format").Build()
		}
		c.Logging.Format = format
	}
	return nil
}

// Decider compiles the rules and default mode.
func (c *Config) Decider() (*policy.Decider, error) {
	return policy.NewDecider(c.Rules, c.Default)
}

const exampleConfig = `# promptpack configuration
# Mode used when no rule matches: full | hide | sig | sig+doc | body:levels=k | file:no-imports
default: full

# First match wins. Patterns containing ':' match qualified names
# (python "pkg.mod:Class.method", go "pkg/dir:Type.Method", markdown "docs/x.md:slug");
# other patterns match file paths.
rules:
  - match: "**/tests/**"
    mode: hide
  - match: "*:_*"
    mode: hide
  - match: "**/*.py"
    mode: sig+doc

includes: ["**/*"]
excludes:
  - ".venv/**"
  - "**/__pycache__/**"
  - "dist/**"
  - "build/**"
  - "site-packages/**"
  - "**/*.pyi"
respect_gitignore: true

output:
  path: ""
  manifest: ""

logging:
  level: info
  format: text
`

// Init writes an example configuration file.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return errors.ConfigError("configuration file already exists (use --force to overwrite)").
			WithContext("path", path).
			Build()
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "failed to create config directory").Build()
		}
	}
	if err := os.WriteFile(path, []byte(exampleConfig), 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write config file").
			WithContext("path", path).
			Build()
	}
	return nil
}
