package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.

	"github.com/papapumpkin/relmenu/internal/menu"
)

// schema is executed on every open; IF NOT EXISTS keeps it idempotent.
const schema = `
CREATE TABLE IF NOT EXISTS documents (
    title      TEXT PRIMARY KEY,
    encoded    TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// SQLite is a Store backed by a local SQLite database in WAL mode.
type SQLite struct {
	db     *sql.DB
	closed atomic.Bool
}

// NewSQLite opens (or creates) the database at dbPath, enables WAL mode and a
// busy timeout, and creates the documents table.
func NewSQLite(ctx context.Context, dbPath string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}

	// SQLite has a single writer; one pooled connection avoids SQLITE_BUSY
	// between connections that each need their own PRAGMA setup.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: enable WAL mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: set busy timeout: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: create schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Ready pings the database.
func (s *SQLite) Ready() bool {
	if s.closed.Load() {
		return false
	}
	return s.db.Ping() == nil
}

// GetDocuments returns the document stored under id, or all documents when id
// is empty.
func (s *SQLite) GetDocuments(ctx context.Context, id string) (map[string]menu.Document, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	q := `SELECT title, encoded FROM documents ORDER BY title`
	var args []any
	if id != "" {
		q = `SELECT title, encoded FROM documents WHERE title = ?`
		args = append(args, id)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("store: query documents: %w", err)
	}
	defer rows.Close()

	out := make(map[string]menu.Document)
	for rows.Next() {
		var d menu.Document
		if err := rows.Scan(&d.Title, &d.Encoded); err != nil {
			return nil, fmt.Errorf("store: scan document: %w", err)
		}
		out[d.Title] = d
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate documents: %w", err)
	}
	return out, nil
}

// SaveDocuments upserts docs in a single transaction.
func (s *SQLite) SaveDocuments(ctx context.Context, docs ...menu.Document) ([]string, error) {
	ids, err := validate(docs)
	if err != nil {
		return nil, err
	}
	if s.closed.Load() {
		return nil, ErrClosed
	}
	if len(docs) == 0 {
		return ids, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	const q = `
		INSERT INTO documents (title, encoded, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(title) DO UPDATE SET encoded = excluded.encoded, updated_at = CURRENT_TIMESTAMP`
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("store: prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, d := range docs {
		if _, err := stmt.ExecContext(ctx, d.Title, d.Encoded); err != nil {
			return nil, fmt.Errorf("store: save document %q: %w", d.Title, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("store: commit documents: %w", err)
	}
	return ids, nil
}

// Clear deletes every document.
func (s *SQLite) Clear(ctx context.Context) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM documents`); err != nil {
		return fmt.Errorf("store: clear documents: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}
