// Package store persists shared menu documents.
//
// A document is identified by its title: saving a document whose title is
// already stored replaces it. Every backend satisfies the same Store contract
// and is safe for concurrent use.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/papapumpkin/relmenu/internal/menu"
)

var (
	// ErrEmptyTitle is returned when a document without a title is saved.
	ErrEmptyTitle = errors.New("store: document title is empty")

	// ErrClosed is returned by operations on a store after Close.
	ErrClosed = errors.New("store: closed")

	// ErrUnknownBackend is returned by Open for an unrecognised backend name.
	ErrUnknownBackend = errors.New("store: unknown backend")

	// ErrNoPath is returned by Open when a disk backend has no path.
	ErrNoPath = errors.New("store: path is required")
)

// Backend names a Store implementation.
type Backend string

// Supported backends.
const (
	BackendMemory Backend = "memory"
	BackendFile   Backend = "file"
	BackendSQLite Backend = "sqlite"
	BackendBadger Backend = "badger"
)

// Backends returns every supported backend name.
func Backends() []Backend {
	return []Backend{BackendMemory, BackendFile, BackendSQLite, BackendBadger}
}

// ParseBackend validates a backend name.
func ParseBackend(s string) (Backend, error) {
	b := Backend(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Backends() {
		if b == known {
			return b, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownBackend, s)
}

// Store is the document persistence contract.
type Store interface {
	// Ready reports whether the store can serve requests.
	Ready() bool

	// GetDocuments returns the document stored under id, keyed by id. An empty
	// id returns every document. An unknown id yields an empty map.
	GetDocuments(ctx context.Context, id string) (map[string]menu.Document, error)

	// SaveDocuments stores docs and returns their ids in argument order.
	SaveDocuments(ctx context.Context, docs ...menu.Document) ([]string, error)

	// Clear removes every document.
	Clear(ctx context.Context) error

	// Close releases the store's resources.
	Close() error
}

// Options selects and configures a backend for Open.
type Options struct {
	Backend Backend
	// Path is the TOML file, SQLite database or Badger directory. Badger
	// runs in memory when Path is empty.
	Path   string
	Logger *slog.Logger
}

// Open constructs the backend named by opts.
func Open(ctx context.Context, opts Options) (Store, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	backend := opts.Backend
	if backend == "" {
		backend = BackendMemory
	}

	var (
		s   Store
		err error
	)
	switch backend {
	case BackendMemory:
		s = NewMemory()
	case BackendFile:
		if opts.Path == "" {
			return nil, fmt.Errorf("%w for %s backend", ErrNoPath, backend)
		}
		s, err = NewFile(opts.Path)
	case BackendSQLite:
		if opts.Path == "" {
			return nil, fmt.Errorf("%w for %s backend", ErrNoPath, backend)
		}
		s, err = NewSQLite(ctx, opts.Path)
	case BackendBadger:
		s, err = NewBadger(BadgerConfig{Path: opts.Path, InMemory: opts.Path == "", Logger: logger})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
	if err != nil {
		return nil, err
	}
	logger.Debug("document store opened", "backend", string(backend), "path", opts.Path)
	return s, nil
}

// validate checks every document before a backend writes any of them.
func validate(docs []menu.Document) ([]string, error) {
	ids := make([]string, len(docs))
	for i, d := range docs {
		if d.Title == "" {
			return nil, fmt.Errorf("%w (document %d)", ErrEmptyTitle, i)
		}
		ids[i] = d.Title
	}
	return ids, nil
}
