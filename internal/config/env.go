package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"git.home.luguber.info/inful/promptpack/internal/logfields"
)

var envFiles = []string{".env", ".env.local"}

// loadEnvFiles loads .env and .env.local from the working directory.
// Variables already present in the process environment are kept.
func loadEnvFiles() error {
	for _, path := range envFiles {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return err
		}
		slog.Debug("Loaded environment file", logfields.Path(path))
	}
	return nil
}
