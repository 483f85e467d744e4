package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/papapumpkin/relmenu/internal/codec"
	"github.com/papapumpkin/relmenu/internal/menu"
	"github.com/papapumpkin/relmenu/internal/share"
	"github.com/papapumpkin/relmenu/internal/store"
	"github.com/papapumpkin/relmenu/internal/telemetry"
)

func ptr[T any](v T) *T { return &v }

// fixture wires a session to a memory store and an in-memory journal.
type fixture struct {
	store   *store.Memory
	journal *bytes.Buffer
	opts    Options
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{store: store.NewMemory(), journal: &bytes.Buffer{}}
	t.Cleanup(func() { f.store.Close() })
	f.opts = Options{Store: f.store, Journal: telemetry.NewWriterEmitter(f.journal)}
	return f
}

func (f *fixture) kinds(t *testing.T) []string {
	t.Helper()
	var kinds []string
	for _, line := range strings.Split(strings.TrimSpace(f.journal.String()), "\n") {
		if line == "" {
			continue
		}
		var evt telemetry.Event
		if err := json.Unmarshal([]byte(line), &evt); err != nil {
			t.Fatalf("journal line %q: %v", line, err)
		}
		kinds = append(kinds, evt.Kind)
	}
	return kinds
}

func TestApplyEditsAndPersists(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	s, err := Open(ctx, f.opts, "")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.SetTitle(ctx, "Alex"); err != nil {
		t.Fatalf("SetTitle: %v", err)
	}
	if docs, _ := f.store.GetDocuments(ctx, ""); len(docs) != 0 {
		t.Fatalf("empty menu was saved: %v", docs)
	}

	changes := []Change{
		{Kind: KindGroup, NewGroup: "Physical"},
		{Kind: KindGroup, NewGroup: "Talk"},
		{Kind: KindItem, Group: "Physical", Index: 0, Patch: menu.ItemPatch{Text: ptr("Hugs")}},
		{Kind: KindItem, Group: "Physical", Index: 0, Patch: menu.ItemPatch{Value: ptr(menu.MustHave)}},
		{Kind: KindItem, Group: "Physical", Index: 1, Patch: menu.ItemPatch{Text: ptr("Kissing"), Value: ptr(menu.Maybe)}},
		{Kind: KindItem, Group: "Physical", Index: 1, Remove: true},
		{Kind: KindGroup, OldGroup: "Talk", NewGroup: "Communication"},
	}
	for i, ch := range changes {
		if err := s.Apply(ctx, ch); err != nil {
			t.Fatalf("Apply #%d: %v", i, err)
		}
	}

	title, m := s.Snapshot()
	want := menu.New(
		menu.Group{Name: "Physical", Items: []menu.Item{{Text: "Hugs", Value: menu.MustHave}}},
		menu.Group{Name: "Communication", Items: []menu.Item{}},
	)
	if title != "Alex" || !m.Equal(want) {
		t.Errorf("Snapshot = %q, %v", title, m.Groups())
	}

	docs, err := f.store.GetDocuments(ctx, "Alex")
	if err != nil {
		t.Fatalf("GetDocuments: %v", err)
	}
	var saved menu.Menu
	if err := codec.Decode(docs["Alex"].Encoded, &saved); err != nil {
		t.Fatalf("decode saved document: %v", err)
	}
	if !saved.Equal(want) {
		t.Errorf("saved menu = %v, want %v", saved.Groups(), want.Groups())
	}

	kinds := f.kinds(t)
	if kinds[0] != telemetry.KindSessionOpen {
		t.Errorf("first journal event = %q, want %q", kinds[0], telemetry.KindSessionOpen)
	}
	counts := map[string]int{}
	for _, k := range kinds {
		counts[k]++
	}
	wantCounts := map[string]int{
		telemetry.KindSessionOpen:   1,
		telemetry.KindGroupChange:   3,
		telemetry.KindItemChange:    4,
		telemetry.KindDocumentSaved: 7,
	}
	if diff := cmp.Diff(wantCounts, counts); diff != "" {
		t.Errorf("journal counts mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyRejectsBadChanges(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	s := New(f.opts)
	if err := s.Apply(ctx, Change{Kind: KindGroup, NewGroup: "G"}); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	tests := []struct {
		name string
		ch   Change
		want error
	}{
		{"no kind", Change{}, ErrUnknownChange},
		{"empty group change", Change{Kind: KindGroup}, ErrUnknownChange},
		{"duplicate group", Change{Kind: KindGroup, NewGroup: "G"}, menu.ErrGroupExists},
		{"rename missing", Change{Kind: KindGroup, OldGroup: "X", NewGroup: "Y"}, menu.ErrNoGroup},
		{"item in missing group", Change{Kind: KindItem, Group: "X", Patch: menu.ItemPatch{Text: ptr("a")}}, menu.ErrNoGroup},
		{"item index gap", Change{Kind: KindItem, Group: "G", Index: 3, Patch: menu.ItemPatch{Text: ptr("a")}}, menu.ErrItemIndex},
		{"remove missing item", Change{Kind: KindItem, Group: "G", Index: 0, Remove: true}, menu.ErrItemIndex},
		{"bad preference", Change{Kind: KindItem, Group: "G", Patch: menu.ItemPatch{Value: ptr(menu.Preference("sometimes"))}}, menu.ErrUnknownPreference},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before, _ := s.Snapshot()
			_, m := s.Snapshot()
			err := s.Apply(ctx, tt.ch)
			if !errors.Is(err, tt.want) {
				t.Errorf("Apply error = %v, want %v", err, tt.want)
			}
			after, m2 := s.Snapshot()
			if before != after || !m.Equal(m2) {
				t.Error("failed change mutated the session")
			}
		})
	}
}

func TestOpen(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	c := codec.Default()

	m := menu.New(menu.Group{Name: "G", Items: []menu.Item{{Text: "A", Value: menu.Maybe}}})
	doc, err := share.NewDocument(c, "Sam", m)
	if err != nil {
		t.Fatalf("NewDocument: %v", err)
	}
	if _, err := f.store.SaveDocuments(ctx, doc); err != nil {
		t.Fatalf("SaveDocuments: %v", err)
	}
	slug, err := share.Slug(c, doc)
	if err != nil {
		t.Fatalf("Slug: %v", err)
	}
	titleTok, err := c.Encode("Broken")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	tests := []struct {
		name      string
		raw       string
		wantTitle string
		wantMenu  *menu.Menu
	}{
		{"slug", slug, "Sam", m},
		{"document id", "Sam", "Sam", m},
		{"undecodable menu keeps title", titleTok + ":not-a-token", "Broken", menu.New()},
		{"undecodable slug", "???:???", "", menu.New()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s, err := Open(ctx, f.opts, tt.raw)
			if err != nil {
				t.Fatalf("Open(%q): %v", tt.raw, err)
			}
			title, got := s.Snapshot()
			if title != tt.wantTitle || !got.Equal(tt.wantMenu) {
				t.Errorf("Open(%q) = %q, %v; want %q, %v", tt.raw, title, got.Groups(), tt.wantTitle, tt.wantMenu.Groups())
			}
		})
	}

	if _, err := Open(ctx, f.opts, "nobody"); !errors.Is(err, share.ErrNotFound) {
		t.Errorf("Open(unknown id) error = %v, want share.ErrNotFound", err)
	}
}

func TestSessionWithoutStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := New(Options{})
	if s.ID() == "" {
		t.Error("session has no id")
	}
	if err := s.SetTitle(ctx, "Solo"); err != nil {
		t.Fatalf("SetTitle: %v", err)
	}
	if err := s.Apply(ctx, Change{Kind: KindGroup, NewGroup: "G"}); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	doc, err := s.Document()
	if err != nil {
		t.Fatalf("Document: %v", err)
	}
	if doc.Title != "Solo" || doc.Encoded == "" {
		t.Errorf("Document = %+v", doc)
	}

	links, err := s.Links("http://localhost:8080")
	if err != nil {
		t.Fatalf("Links: %v", err)
	}
	var back menu.Menu
	title, err := codec.Default().DecodeSlug(links.Slug, &back)
	if err != nil {
		t.Fatalf("DecodeSlug: %v", err)
	}
	if title != "Solo" || back.Len() != 1 {
		t.Errorf("link decodes to %q, %v", title, back.Groups())
	}

	if New(Options{}).ID() == s.ID() {
		t.Error("sessions share an id")
	}
}

func TestKindString(t *testing.T) {
	t.Parallel()
	for k, want := range map[Kind]string{KindGroup: "group", KindItem: "item", Kind(0): "unknown"} {
		if got := k.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", k, got, want)
		}
	}
}
