package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/promptpack/internal/foundation/errors"
	"git.home.luguber.info/inful/promptpack/internal/policy"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "promptpack.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_NoPathUsesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("", "sig")
	require.NoError(t, err)
	assert.Equal(t, "sig", cfg.Default)
	assert.Equal(t, DefaultExcludes, cfg.Excludes)
	assert.Equal(t, []string{"**/*"}, cfg.Includes)
	assert.True(t, cfg.RespectGitignore)
	assert.Empty(t, cfg.Rules)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	path := writeConfig(t, `
rules:
  - match: "pkg.mod:Class.*"
    mode: sig
  - match: "internal/**/*.go"
    mode: file:no-imports
excludes: ["vendor/**"]
respect_gitignore: false
logging:
  level: DEBUG
  format: json
`)

	cfg, err := Load(path, "hide")
	require.NoError(t, err)
	assert.Equal(t, "hide", cfg.Default)
	assert.Equal(t, []string{"vendor/**"}, cfg.Excludes)
	assert.False(t, cfg.RespectGitignore)
	assert.Equal(t, LogLevelDebug, cfg.Logging.Level)
	assert.Equal(t, LogFormatJSON, cfg.Logging.Format)
	require.Len(t, cfg.Rules, 2)
	assert.True(t, cfg.Rules[0].IsQual())

	d, err := cfg.Decider()
	require.NoError(t, err)
	assert.Equal(t, policy.KindSig, d.Decide("pkg.mod:Class.run", "pkg/mod.py").Kind)
	assert.Equal(t, policy.KindNoImports, d.Decide("internal/x:F", "internal/x/y.go").Kind)
	assert.Equal(t, policy.KindHide, d.Decide("other:F", "other.go").Kind)
}

func TestLoad_DefaultFromFileWins(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load(writeConfig(t, "default: sig+doc\n"), "full")
	require.NoError(t, err)
	assert.Equal(t, "sig+doc", cfg.Default)
}

func TestLoad_EmptyFile(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load(writeConfig(t, ""), "full")
	require.NoError(t, err)
	assert.Equal(t, "full", cfg.Default)
}

func TestLoad_ExpandsEnvAndDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("PROMPTPACK_TEST_MODE", "")
	require.NoError(t, os.Unsetenv("PROMPTPACK_TEST_MODE"))
	t.Setenv("PROMPTPACK_TEST_FORMAT", "json")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PROMPTPACK_TEST_MODE=body:levels=2\nPROMPTPACK_TEST_FORMAT=text\n"), 0o644))

	cfg, err := Load(writeConfig(t, "default: ${PROMPTPACK_TEST_MODE}\nlogging:\n  format: ${PROMPTPACK_TEST_FORMAT}\n"), "full")
	require.NoError(t, err)
	assert.Equal(t, "body:levels=2", cfg.Default)
	assert.Equal(t, LogFormatJSON, cfg.Logging.Format, "process environment is not overridden")
}

func TestLoad_Errors(t *testing.T) {
	t.Chdir(t.TempDir())

	tests := []struct {
		name     string
		content  string
		category errors.ErrorCategory
	}{
		{"unknown mode", "default: squash\n", errors.CategoryValidation},
		{"bad rule mode", "rules:\n  - match: \"*.py\"\n    mode: nope\n", errors.CategoryValidation},
		{"bad glob", "excludes: [\"[oops\"]\n", errors.CategoryValidation},
		{"bad level", "logging:\n  level: loud\n", errors.CategoryValidation},
		{"unknown key", "defaults: full\n", errors.CategoryConfig},
		{"bad yaml", "rules: [\n", errors.CategoryConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content), "full")
			require.Error(t, err)
			ce, ok := errors.AsClassified(err)
			require.True(t, ok, "expected classified error, got %v", err)
			assert.Equal(t, tt.category, ce.Category())
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), "full")
	ce, ok := errors.AsClassified(err)
	require.True(t, ok)
	assert.Equal(t, errors.CategoryConfig, ce.Category())
}

func TestInit(t *testing.T) {
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "promptpack.yaml")

	require.NoError(t, Init(path, false))
	require.Error(t, Init(path, false))
	require.NoError(t, Init(path, true))

	cfg, err := Load(path, "full")
	require.NoError(t, err)
	assert.Equal(t, "full", cfg.Default)
	assert.Len(t, cfg.Rules, 3)
	assert.Equal(t, DefaultExcludes, cfg.Excludes)
}

func TestLoggingConfig(t *testing.T) {
	assert.Equal(t, LogLevelWarn, NormalizeLogLevel(" Warning "))
	assert.Equal(t, LogLevelInfo, NormalizeLogLevel("bogus"))
	assert.Equal(t, LogFormatText, NormalizeLogFormat(""))

	var buf bytes.Buffer
	logger := LoggingConfig{Level: LogLevelError, Format: LogFormatJSON}.NewLogger(&buf, false)
	logger.Info("hidden")
	logger.Error("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	buf.Reset()
	LoggingConfig{Level: LogLevelError}.NewLogger(&buf, true).Debug("verbose")
	assert.Contains(t, buf.String(), "msg=verbose")
}
