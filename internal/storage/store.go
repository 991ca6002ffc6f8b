// Package storage provides document stores that the edits patcher reads from
// and writes back to.
package storage

import (
	"context"
	"errors"

	"git.home.luguber.info/inful/promptpack/internal/edits"
)

// DocumentStore reads and writes whole documents by identity.
type DocumentStore interface {
	// Read returns the decoded text of the document.
	// Returns ErrNotFound if the document doesn't exist.
	Read(ctx context.Context, doc edits.DocID) (string, error)

	// Write replaces the document, re-encoding it the way it was read.
	Write(ctx context.Context, doc edits.DocID, text string) error
}

var (
	_ DocumentStore = (*FSStore)(nil)
	_ DocumentStore = (*MemoryStore)(nil)
	_ edits.Store   = DocumentStore(nil)
)

// ErrNotFound is returned when a document doesn't exist.
type ErrNotFound struct {
	Doc edits.DocID
}

func (e ErrNotFound) Error() string {
	return "document not found: " + e.Doc.String()
}

// IsNotFound returns true if the error chain contains ErrNotFound.
func IsNotFound(err error) bool {
	var nf ErrNotFound
	return errors.As(err, &nf)
}

// ErrBinary is returned for documents whose bytes are not valid UTF-8.
type ErrBinary struct {
	Doc edits.DocID
}

func (e ErrBinary) Error() string {
	return "binary content not supported: " + e.Doc.String()
}
