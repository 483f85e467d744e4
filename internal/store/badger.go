package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/dgraph-io/badger/v4"

	"github.com/papapumpkin/relmenu/internal/menu"
)

// badgerPrefix namespaces document keys.
const badgerPrefix = "menu:"

// BadgerConfig configures a Badger store.
type BadgerConfig struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path string
	// InMemory keeps everything in RAM. Useful for tests.
	InMemory bool
	// SyncWrites fsyncs every commit.
	SyncWrites bool
	// Logger receives Badger's internal log output. Nil disables it.
	Logger *slog.Logger
}

// Badger is a Store backed by an embedded BadgerDB key-value store. Keys are
// "menu:<title>" and values are the encoded menu token.
type Badger struct {
	db     *badger.DB
	closed atomic.Bool
}

// badgerLogger adapts slog.Logger to badger.Logger.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...any) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...any) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// NewBadger opens a Badger store.
func NewBadger(cfg BadgerConfig) (*Badger, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, fmt.Errorf("%w for %s backend", ErrNoPath, BackendBadger)
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("store: create database directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("store: open badger database: %w", err)
	}
	return &Badger{db: db}, nil
}

// Ready reports whether the database is open.
func (b *Badger) Ready() bool {
	return !b.closed.Load() && !b.db.IsClosed()
}

// GetDocuments returns the document stored under id, or all documents when id
// is empty.
func (b *Badger) GetDocuments(_ context.Context, id string) (map[string]menu.Document, error) {
	if b.closed.Load() {
		return nil, ErrClosed
	}
	out := make(map[string]menu.Document)
	err := b.db.View(func(txn *badger.Txn) error {
		if id != "" {
			item, err := txn.Get([]byte(badgerPrefix + id))
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			val, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			out[id] = menu.Document{Title: id, Encoded: string(val)}
			return nil
		}

		prefix := []byte(badgerPrefix)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			title := string(item.Key()[len(prefix):])
			val, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			out[title] = menu.Document{Title: title, Encoded: string(val)}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("store: read documents: %w", err)
	}
	return out, nil
}

// SaveDocuments writes docs in a single transaction.
func (b *Badger) SaveDocuments(_ context.Context, docs ...menu.Document) ([]string, error) {
	ids, err := validate(docs)
	if err != nil {
		return nil, err
	}
	if b.closed.Load() {
		return nil, ErrClosed
	}
	err = b.db.Update(func(txn *badger.Txn) error {
		for _, d := range docs {
			if err := txn.Set([]byte(badgerPrefix+d.Title), []byte(d.Encoded)); err != nil {
				return fmt.Errorf("save document %q: %w", d.Title, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	return ids, nil
}

// Clear drops every document key.
func (b *Badger) Clear(context.Context) error {
	if b.closed.Load() {
		return ErrClosed
	}
	if err := b.db.DropPrefix([]byte(badgerPrefix)); err != nil {
		return fmt.Errorf("store: clear documents: %w", err)
	}
	return nil
}

// Close closes the database.
func (b *Badger) Close() error {
	if b.closed.Swap(true) {
		return nil
	}
	return b.db.Close()
}
