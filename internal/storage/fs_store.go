package storage

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"

	"git.home.luguber.info/inful/promptpack/internal/edits"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// FSStore stores documents as files. A DocID is a path, resolved against
// basePath when relative.
//
// Files are decoded as UTF-8. A leading byte order mark is stripped on Read
// and restored on Write of the same document.
type FSStore struct {
	basePath string

	mu   sync.RWMutex
	boms map[edits.DocID]bool
}

// NewFSStore creates a filesystem store rooted at basePath. An empty basePath
// resolves relative documents against the working directory.
func NewFSStore(basePath string) *FSStore {
	return &FSStore{basePath: basePath, boms: make(map[edits.DocID]bool)}
}

// Read returns the file content as text.
func (s *FSStore) Read(ctx context.Context, doc edits.DocID) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	// #nosec G304 - document paths come from discovery under user-provided roots
	raw, err := os.ReadFile(s.path(doc))
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotFound{Doc: doc}
		}
		return "", fmt.Errorf("read %s: %w", doc, err)
	}

	hasBOM := bytes.HasPrefix(raw, utf8BOM)
	if !utf8.Valid(raw) {
		return "", ErrBinary{Doc: doc}
	}

	text, err := unicode.UTF8BOM.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", doc, err)
	}

	s.mu.Lock()
	s.boms[doc] = hasBOM
	s.mu.Unlock()

	return string(text), nil
}

// Write atomically replaces the file: the text goes to a temporary file in the
// same directory which is then renamed over the target. An existing file keeps
// its permission bits.
func (s *FSStore) Write(ctx context.Context, doc edits.DocID, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	hasBOM := s.boms[doc]
	s.mu.RUnlock()

	data := []byte(text)
	if hasBOM {
		encoded, err := unicode.UTF8BOM.NewEncoder().Bytes(data)
		if err != nil {
			return fmt.Errorf("encode %s: %w", doc, err)
		}
		data = encoded
	}

	target := s.path(doc)
	mode := fs.FileMode(0o644)
	if info, err := os.Stat(target); err == nil {
		mode = info.Mode().Perm()
	}

	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(target)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", doc, err)
	}
	tmpPath := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpPath) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write %s: %w", doc, err)
	}
	if err := tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("chmod %s: %w", doc, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp file for %s: %w", doc, err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		cleanup()
		return fmt.Errorf("replace %s: %w", doc, err)
	}
	return nil
}

// HadBOM reports whether the last Read of doc found a byte order mark.
func (s *FSStore) HadBOM(doc edits.DocID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.boms[doc]
}

func (s *FSStore) path(doc edits.DocID) string {
	p := filepath.FromSlash(doc.String())
	if s.basePath == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(s.basePath, p)
}
