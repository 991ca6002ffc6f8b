package storage

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"git.home.luguber.info/inful/promptpack/internal/edits"
)

// MemoryStore is an in-memory DocumentStore used for tests and dry runs.
type MemoryStore struct {
	mu         sync.RWMutex
	docs       map[edits.DocID]string
	calls      MemoryCalls
	readFails  map[edits.DocID]error
	writeFails map[edits.DocID]error
}

// MemoryCalls tracks method invocations for test verification.
type MemoryCalls struct {
	Read  int
	Write int
}

// NewMemoryStore creates a store pre-populated with docs.
func NewMemoryStore(docs map[edits.DocID]string) *MemoryStore {
	m := &MemoryStore{
		docs:       make(map[edits.DocID]string, len(docs)),
		readFails:  make(map[edits.DocID]error),
		writeFails: make(map[edits.DocID]error),
	}
	maps.Copy(m.docs, docs)
	return m
}

// Read returns the stored text.
func (m *MemoryStore) Read(ctx context.Context, doc edits.DocID) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.Read++

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := m.readFails[doc]; err != nil {
		return "", err
	}
	text, ok := m.docs[doc]
	if !ok {
		return "", ErrNotFound{Doc: doc}
	}
	return text, nil
}

// Write replaces the stored text.
func (m *MemoryStore) Write(ctx context.Context, doc edits.DocID, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.Write++

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := m.writeFails[doc]; err != nil {
		return err
	}
	m.docs[doc] = text
	return nil
}

// FailRead makes subsequent reads of doc return err.
func (m *MemoryStore) FailRead(doc edits.DocID, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readFails[doc] = err
}

// FailWrite makes subsequent writes of doc return err.
func (m *MemoryStore) FailWrite(doc edits.DocID, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeFails[doc] = err
}

// Get returns the stored text without counting a call.
func (m *MemoryStore) Get(doc edits.DocID) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	text, ok := m.docs[doc]
	return text, ok
}

// Docs returns the stored document IDs in canonical order.
func (m *MemoryStore) Docs() []edits.DocID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Sorted(maps.Keys(m.docs))
}

// GetCalls returns the number of times each method was called.
func (m *MemoryStore) GetCalls() MemoryCalls {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls
}

// Reset clears call counts and injected failures.
func (m *MemoryStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = MemoryCalls{}
	m.readFails = make(map[edits.DocID]error)
	m.writeFails = make(map[edits.DocID]error)
}

// String returns a string representation for debugging.
func (m *MemoryStore) String() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return fmt.Sprintf("MemoryStore{docs: %d, calls: %+v}", len(m.docs), m.calls)
}
