package commands

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"git.home.luguber.info/inful/promptpack/internal/config"
	"git.home.luguber.info/inful/promptpack/internal/engine/builtin"
	"git.home.luguber.info/inful/promptpack/internal/foundation/errors"
	"git.home.luguber.info/inful/promptpack/internal/pack"
	"git.home.luguber.info/inful/promptpack/internal/storage"
)

// NewPipeline wires the built-in engines and the filesystem store.
func NewPipeline(cfg *config.Config) (*pack.Pipeline, error) {
	return pack.New(cfg, builtin.Registry(), storage.NewFSStore(""))
}

// signalContext is canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// writeFile writes data to path, creating parent directories.
func writeFile(path, data string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to create output directory").
			WithContext("path", path).
			Build()
	}
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write output").
			WithContext("path", path).
			Build()
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
