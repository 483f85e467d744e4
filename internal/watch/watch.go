// Package watch follows a TOML menu file and reports a freshly encoded slug
// every time it is saved.
package watch

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/papapumpkin/relmenu/internal/codec"
	"github.com/papapumpkin/relmenu/internal/menu"
)

// debounce is how long a file must stay quiet before it is re-read.
const debounce = 100 * time.Millisecond

// Update is one observed state of the watched file. Err is set when the file
// could not be read, parsed or encoded; the other fields are then empty.
type Update struct {
	Path  string
	Title string
	Menu  *menu.Menu
	Slug  string
	Err   error
}

// Watcher monitors a single menu file. The parent directory is watched so
// editors that save by replacing the file are still followed.
type Watcher struct {
	Path    string
	Updates <-chan Update // Read-only external channel

	updates  chan Update
	stop     chan struct{}
	done     chan struct{}
	started  bool
	stopOnce sync.Once
	codec    *codec.Codec
	logger   *slog.Logger
	watcher  *fsnotify.Watcher
}

// NewWatcher creates a watcher for the menu file at path. A nil codec means
// codec.Default; a nil logger discards output.
func NewWatcher(path string, c *codec.Codec, logger *slog.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve %s: %w", path, err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	if c == nil {
		c = codec.Default()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	ch := make(chan Update, 16)
	return &Watcher{
		Path:    abs,
		Updates: ch,
		updates: ch,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
		codec:   c,
		logger:  logger.With("path", abs),
		watcher: fw,
	}, nil
}

// Start begins watching. When emitInitial is set the current contents are
// reported before any change. A watcher can be started once.
func (w *Watcher) Start(emitInitial bool) error {
	if w.started {
		return fmt.Errorf("watch: %s already started", w.Path)
	}
	if err := w.watcher.Add(filepath.Dir(w.Path)); err != nil {
		return fmt.Errorf("watch: add %s: %w", filepath.Dir(w.Path), err)
	}
	w.started = true
	go w.loop(emitInitial)
	return nil
}

// Stop closes the watcher and the Updates channel. It is safe to call more
// than once and on a watcher that never started.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stop)
		w.watcher.Close()
		if w.started {
			<-w.done
		}
		close(w.updates)
	})
}

func (w *Watcher) loop(emitInitial bool) {
	defer close(w.done)

	if emitInitial {
		w.emit()
	}

	var pending time.Time
	ticker := time.NewTicker(debounce)
	defer ticker.Stop()

	for {
		select {
		case <-w.stop:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.Path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
				pending = time.Now()
			}

		case <-ticker.C:
			if !pending.IsZero() && time.Since(pending) >= debounce {
				pending = time.Time{}
				w.emit()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

func (w *Watcher) emit() {
	u := w.read()
	if u.Err != nil {
		w.logger.Debug("menu file unreadable", "error", u.Err)
	}
	select {
	case w.updates <- u:
	case <-w.stop:
	}
}

func (w *Watcher) read() Update {
	title, m, err := menu.LoadFile(w.Path)
	if err != nil {
		return Update{Path: w.Path, Err: err}
	}
	slug, err := w.codec.EncodeSlug(title, m)
	if err != nil {
		return Update{Path: w.Path, Err: err}
	}
	return Update{Path: w.Path, Title: title, Menu: m, Slug: slug}
}
