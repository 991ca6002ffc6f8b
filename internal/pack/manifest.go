package pack

import (
	"os"
	"path/filepath"
	"time"

	"github.com/inful/mdfp"
	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/promptpack/internal/foundation/errors"
	"git.home.luguber.info/inful/promptpack/internal/frontmatter"
)

// Manifest lists the documents of a pack with their content fingerprints.
type Manifest struct {
	RunID     string           `yaml:"run_id"`
	Generated time.Time        `yaml:"generated"`
	Edits     Stats            `yaml:"edits"`
	Documents []DocumentReport `yaml:"documents"`
}

// Manifest describes the result.
func (r *Result) Manifest() Manifest {
	return Manifest{
		RunID:     r.RunID,
		Generated: time.Now().UTC().Truncate(time.Second),
		Edits:     r.Edits,
		Documents: r.Documents,
	}
}

// WriteManifest writes m as YAML to path, creating parent directories.
func WriteManifest(path string, m Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryInternal, "failed to encode manifest").Build()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to create manifest directory").
			WithContext("path", path).
			Build()
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to write manifest").
			WithContext("path", path).
			Build()
	}
	return nil
}

// ReadManifest loads a manifest written by WriteManifest.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to read manifest").
			WithContext("path", path).
			Build()
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryParse, "failed to decode manifest").
			WithContext("path", path).
			Build()
	}
	return &m, nil
}

// fingerprint hashes rendered text. Markdown frontmatter is canonicalized
// first; text whose frontmatter does not parse is hashed as a plain body.
func fingerprint(text string) string {
	fp, err := frontmatter.Fingerprint(text)
	if err != nil {
		return mdfp.CalculateFingerprintFromParts("", text)
	}
	return fp
}
