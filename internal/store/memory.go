package store

import (
	"context"
	"sync"

	"github.com/papapumpkin/relmenu/internal/menu"
)

// Memory is a Store held entirely in process memory.
type Memory struct {
	mu     sync.RWMutex
	docs   map[string]menu.Document
	closed bool
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{docs: make(map[string]menu.Document)}
}

// Ready reports whether the store is open.
func (m *Memory) Ready() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return !m.closed
}

// GetDocuments returns the document stored under id, or all documents when id
// is empty.
func (m *Memory) GetDocuments(_ context.Context, id string) (map[string]menu.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	out := make(map[string]menu.Document)
	if id != "" {
		if d, ok := m.docs[id]; ok {
			out[id] = d
		}
		return out, nil
	}
	for k, d := range m.docs {
		out[k] = d
	}
	return out, nil
}

// SaveDocuments stores docs keyed by title.
func (m *Memory) SaveDocuments(_ context.Context, docs ...menu.Document) ([]string, error) {
	ids, err := validate(docs)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	for _, d := range docs {
		m.docs[d.Title] = d
	}
	return ids, nil
}

// Clear removes every document.
func (m *Memory) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	clear(m.docs)
	return nil
}

// Close marks the store closed. Later calls are no-ops.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
