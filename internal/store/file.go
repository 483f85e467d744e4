package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/papapumpkin/relmenu/internal/menu"
)

type fileDocument struct {
	Title   string `toml:"title"`
	Encoded string `toml:"encoded"`
}

type documentsFile struct {
	Documents []fileDocument `toml:"document"`
}

// File is a Store backed by a single TOML file. Every write rewrites the file
// through a temporary sibling and a rename so readers never see a partial file.
type File struct {
	mu     sync.Mutex
	path   string
	closed bool
}

// NewFile returns a store persisting to path. The file is created on the
// first write; an existing file must parse.
func NewFile(path string) (*File, error) {
	f := &File{path: path}
	if _, err := f.load(); err != nil {
		return nil, err
	}
	return f, nil
}

// Path returns the backing file path.
func (f *File) Path() string { return f.path }

// Ready reports whether the store is open.
func (f *File) Ready() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.closed
}

// GetDocuments returns the document stored under id, or all documents when id
// is empty.
func (f *File) GetDocuments(_ context.Context, id string) (map[string]menu.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil, ErrClosed
	}
	docs, err := f.load()
	if err != nil {
		return nil, err
	}
	if id == "" {
		return docs, nil
	}
	out := make(map[string]menu.Document)
	if d, ok := docs[id]; ok {
		out[id] = d
	}
	return out, nil
}

// SaveDocuments merges docs into the file.
func (f *File) SaveDocuments(_ context.Context, docs ...menu.Document) ([]string, error) {
	ids, err := validate(docs)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil, ErrClosed
	}
	current, err := f.load()
	if err != nil {
		return nil, err
	}
	for _, d := range docs {
		current[d.Title] = d
	}
	if err := f.write(current); err != nil {
		return nil, err
	}
	return ids, nil
}

// Clear truncates the store to zero documents.
func (f *File) Clear(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	return f.write(nil)
}

// Close marks the store closed.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *File) load() (map[string]menu.Document, error) {
	docs := make(map[string]menu.Document)
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return docs, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: read %s: %w", f.path, err)
	}
	var df documentsFile
	if err := toml.Unmarshal(data, &df); err != nil {
		return nil, fmt.Errorf("store: parse %s: %w", f.path, err)
	}
	for _, d := range df.Documents {
		docs[d.Title] = menu.Document{Title: d.Title, Encoded: d.Encoded}
	}
	return docs, nil
}

func (f *File) write(docs map[string]menu.Document) error {
	df := documentsFile{Documents: make([]fileDocument, 0, len(docs))}
	for _, d := range docs {
		df.Documents = append(df.Documents, fileDocument{Title: d.Title, Encoded: d.Encoded})
	}
	sort.Slice(df.Documents, func(i, j int) bool { return df.Documents[i].Title < df.Documents[j].Title })

	data, err := toml.Marshal(df)
	if err != nil {
		return fmt.Errorf("store: encode documents: %w", err)
	}
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("store: create directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("store: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("store: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("store: close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("store: replace %s: %w", f.path, err)
	}
	return nil
}
