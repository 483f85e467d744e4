// Package session holds one menu being edited. Every successful change is
// persisted to the document store and recorded in the journal.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/papapumpkin/relmenu/internal/codec"
	"github.com/papapumpkin/relmenu/internal/menu"
	"github.com/papapumpkin/relmenu/internal/share"
	"github.com/papapumpkin/relmenu/internal/store"
	"github.com/papapumpkin/relmenu/internal/telemetry"
)

// ErrUnknownChange is returned by Apply for a Change with an invalid Kind or
// an empty group change.
var ErrUnknownChange = errors.New("session: unknown change")

// Kind selects what a Change edits.
type Kind int

const (
	KindGroup Kind = iota + 1 // add, rename or remove a group
	KindItem                  // update, append or remove an item
)

// String returns the journal label of k.
func (k Kind) String() string {
	switch k {
	case KindGroup:
		return "group"
	case KindItem:
		return "item"
	default:
		return "unknown"
	}
}

// Change is a single edit.
//
// Group changes: OldGroup empty adds NewGroup, NewGroup empty removes
// OldGroup, both set renames. Item changes: Remove deletes Group's item at
// Index, otherwise Patch is merged into that item (Index equal to the item
// count appends).
type Change struct {
	Kind     Kind
	OldGroup string
	NewGroup string
	Group    string
	Index    int
	Patch    menu.ItemPatch
	Remove   bool
}

// Options carries a session's collaborators. Every field is optional: a nil
// Store disables persistence, a nil Codec means codec.Default.
type Options struct {
	Store   store.Store
	Codec   *codec.Codec
	Logger  *slog.Logger
	Journal *telemetry.Emitter
}

// Session is an editing context for one titled menu. It is safe for
// concurrent use.
type Session struct {
	id      string
	store   store.Store
	codec   *codec.Codec
	logger  *slog.Logger
	journal *telemetry.Emitter

	mu    sync.Mutex
	title string
	menu  *menu.Menu
}

// New returns a session holding an empty, untitled menu.
func New(opts Options) *Session {
	s := &Session{
		id:      uuid.NewString(),
		store:   opts.Store,
		codec:   opts.Codec,
		logger:  opts.Logger,
		journal: opts.Journal,
		menu:    menu.New(),
	}
	if s.codec == nil {
		s.codec = codec.Default()
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	s.logger = s.logger.With("session", s.id)
	return s
}

// Open starts a session from a slug or stored document id. An empty raw opens
// an empty menu. A token that does not decode also opens an empty menu, keeping
// the title when it was readable; other failures are returned.
func Open(ctx context.Context, opts Options, raw string) (*Session, error) {
	s := New(opts)
	if raw != "" {
		r := &share.Resolver{Store: s.store, Codec: s.codec, Logger: s.logger}
		title, m, err := r.Resolve(ctx, raw)
		switch {
		case err == nil:
			s.title, s.menu = title, m
		case codec.IsDecodeError(err):
			s.logger.Warn("menu did not decode, starting empty", "error", err)
			s.title = s.readableTitle(raw)
		default:
			return nil, fmt.Errorf("session: open: %w", err)
		}
	}
	s.emit(telemetry.KindSessionOpen, map[string]any{"groups": s.menu.Len()})
	return s, nil
}

func (s *Session) readableTitle(raw string) string {
	titleTok, _, ok := codec.SplitSlug(raw)
	if !ok {
		return ""
	}
	var title string
	if err := s.codec.Decode(titleTok, &title); err != nil {
		return ""
	}
	return title
}

// ID returns the session's unique id.
func (s *Session) ID() string { return s.id }

// Snapshot returns the title and a copy of the menu.
func (s *Session) Snapshot() (string, *menu.Menu) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.title, s.menu.Clone()
}

// Apply performs ch and persists the result. The menu is left unchanged when
// the edit fails; a persistence failure is returned after the edit has been
// applied.
func (s *Session) Apply(ctx context.Context, ch Change) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		err  error
		kind string
		data map[string]any
	)
	switch ch.Kind {
	case KindGroup:
		kind = telemetry.KindGroupChange
		data = map[string]any{"old": ch.OldGroup, "new": ch.NewGroup}
		switch {
		case ch.OldGroup == "" && ch.NewGroup == "":
			err = fmt.Errorf("%w: group change names no group", ErrUnknownChange)
		case ch.OldGroup == "":
			err = s.menu.AddGroup(ch.NewGroup)
		case ch.NewGroup == "":
			err = s.menu.RemoveGroup(ch.OldGroup)
		default:
			err = s.menu.RenameGroup(ch.OldGroup, ch.NewGroup)
		}
	case KindItem:
		kind = telemetry.KindItemChange
		data = map[string]any{"group": ch.Group, "index": ch.Index, "remove": ch.Remove}
		if ch.Patch.Value != nil {
			data["value"] = *ch.Patch.Value
		}
		if ch.Remove {
			err = s.menu.RemoveItem(ch.Group, ch.Index)
		} else {
			err = s.menu.UpdateItem(ch.Group, ch.Index, ch.Patch)
		}
	default:
		err = fmt.Errorf("%w: kind %d", ErrUnknownChange, ch.Kind)
	}
	if err != nil {
		return fmt.Errorf("session: apply %s change: %w", ch.Kind, err)
	}

	s.emit(kind, data)
	return s.persist(ctx)
}

// SetTitle renames the menu and persists it under the new title.
func (s *Session) SetTitle(ctx context.Context, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.title = title
	return s.persist(ctx)
}

// Document returns the current menu as a shareable document.
func (s *Session) Document() (menu.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return share.NewDocument(s.codec, s.title, s.menu)
}

// Links returns the menu and template links under baseURL.
func (s *Session) Links(baseURL string) (share.LinkSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return share.Links(s.codec, baseURL, s.title, s.menu)
}

// persist saves the menu when there is somewhere to save it and something
// worth saving. Callers hold s.mu.
func (s *Session) persist(ctx context.Context) error {
	if s.store == nil || s.title == "" || s.menu.Len() == 0 {
		return nil
	}
	doc, err := share.NewDocument(s.codec, s.title, s.menu)
	if err != nil {
		return fmt.Errorf("session: %w", err)
	}
	if _, err := s.store.SaveDocuments(ctx, doc); err != nil {
		return fmt.Errorf("session: save %q: %w", s.title, err)
	}
	s.logger.Debug("menu saved", "title", s.title, "groups", s.menu.Len())
	s.emit(telemetry.KindDocumentSaved, map[string]any{"bytes": len(doc.Encoded)})
	return nil
}

func (s *Session) emit(kind string, data map[string]any) {
	if err := s.journal.Emit(telemetry.Event{Kind: kind, Session: s.id, Title: s.title, Data: data}); err != nil {
		s.logger.Warn("journal write failed", "kind", kind, "error", err)
	}
}
