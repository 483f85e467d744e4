package share

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/papapumpkin/relmenu/internal/codec"
	"github.com/papapumpkin/relmenu/internal/menu"
	"github.com/papapumpkin/relmenu/internal/store"
)

func sampleMenu() *menu.Menu {
	return menu.New(
		menu.Group{Name: "Communication", Items: []menu.Item{
			{Text: "Daily check-ins", Value: menu.MustHave},
			{Text: "Texting: all day", Value: menu.Maybe},
		}},
		menu.Group{Name: "Physical", Items: []menu.Item{{Text: "Hugs", Value: menu.LikeToHave}}},
	)
}

// testResolver returns a resolver over a memory store seeded with docs.
func testResolver(t *testing.T, docs ...menu.Document) *Resolver {
	t.Helper()
	s := store.NewMemory()
	t.Cleanup(func() { s.Close() })
	if len(docs) > 0 {
		if _, err := s.SaveDocuments(context.Background(), docs...); err != nil {
			t.Fatalf("SaveDocuments: %v", err)
		}
	}
	return &Resolver{Store: s, Codec: codec.Default()}
}

func TestSlugMatchesEncodeSlug(t *testing.T) {
	t.Parallel()

	c := codec.Default()
	doc, err := NewDocument(c, "Alex", sampleMenu())
	if err != nil {
		t.Fatalf("NewDocument: %v", err)
	}
	got, err := Slug(c, doc)
	if err != nil {
		t.Fatalf("Slug: %v", err)
	}
	want, err := c.EncodeSlug("Alex", sampleMenu())
	if err != nil {
		t.Fatalf("EncodeSlug: %v", err)
	}
	if got != want {
		t.Errorf("Slug = %q, want %q", got, want)
	}
}

func TestLinks(t *testing.T) {
	t.Parallel()

	c := codec.Default()
	links, err := Links(c, "https://menu.example/", "Alex", sampleMenu())
	if err != nil {
		t.Fatalf("Links: %v", err)
	}

	u, err := url.Parse(links.URL)
	if err != nil {
		t.Fatalf("parse URL: %v", err)
	}
	if u.Path != "/menu" {
		t.Errorf("path = %q, want /menu", u.Path)
	}
	if got := u.Query().Get(QueryParam); got != links.Slug {
		t.Errorf("URL carries %q, want slug %q", got, links.Slug)
	}
	if strings.Contains(u.RawQuery, "+") || strings.Contains(u.RawQuery, "/") {
		t.Errorf("query not percent-encoded: %s", u.RawQuery)
	}

	var tmpl menu.Menu
	title, err := c.DecodeSlug(links.TemplateSlug, &tmpl)
	if err != nil {
		t.Fatalf("DecodeSlug(template): %v", err)
	}
	if title != "Alex" {
		t.Errorf("template title = %q", title)
	}
	if !tmpl.Equal(sampleMenu().Template()) {
		t.Errorf("template link does not carry the stripped menu: %v", tmpl.Groups())
	}

	empty, err := Links(c, "http://x", "", nil)
	if err != nil {
		t.Fatalf("Links(nil menu): %v", err)
	}
	if empty.Slug == "" || empty.TemplateSlug != empty.Slug {
		t.Errorf("empty menu links = %+v", empty)
	}
}

func TestCompareURL(t *testing.T) {
	t.Parallel()

	got := CompareURL("http://localhost:8080", "a:b", "", "Alex")
	want := "http://localhost:8080/compare?encoded=a%3Ab&encoded=Alex"
	if got != want {
		t.Errorf("CompareURL = %q, want %q", got, want)
	}
	if got := CompareURL("http://x/"); got != "http://x/compare" {
		t.Errorf("CompareURL without params = %q", got)
	}
}

func TestResolve(t *testing.T) {
	t.Parallel()

	c := codec.Default()
	doc, err := NewDocument(c, "Sam", sampleMenu())
	if err != nil {
		t.Fatalf("NewDocument: %v", err)
	}
	r := testResolver(t, doc, menu.Document{Title: "broken", Encoded: "%%%"})
	slug, err := c.EncodeSlug("Alex", sampleMenu())
	if err != nil {
		t.Fatalf("EncodeSlug: %v", err)
	}
	ctx := context.Background()

	t.Run("slug", func(t *testing.T) {
		t.Parallel()
		title, m, err := r.Resolve(ctx, slug)
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if title != "Alex" || !m.Equal(sampleMenu()) {
			t.Errorf("Resolve(slug) = %q, %v", title, m.Groups())
		}
	})

	t.Run("document id", func(t *testing.T) {
		t.Parallel()
		title, m, err := r.Resolve(ctx, "Sam")
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if title != "Sam" || !m.Equal(sampleMenu()) {
			t.Errorf("Resolve(id) = %q, %v", title, m.Groups())
		}
	})

	tests := []struct {
		name   string
		raw    string
		check  func(error) bool
		expect string
	}{
		{"unknown id", "nobody", func(err error) bool { return errors.Is(err, ErrNotFound) }, "ErrNotFound"},
		{"empty", "", func(err error) bool { return errors.Is(err, ErrEmptyParam) }, "ErrEmptyParam"},
		{"garbage slug", "!!:??", codec.IsDecodeError, "DecodeError"},
		{"corrupt document", "broken", codec.IsDecodeError, "DecodeError"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, m, err := r.Resolve(ctx, tt.raw)
			if !tt.check(err) {
				t.Errorf("Resolve(%q) error = %v, want %s", tt.raw, err, tt.expect)
			}
			if m != nil {
				t.Errorf("Resolve(%q) returned a menu alongside an error", tt.raw)
			}
		})
	}

	t.Run("no store", func(t *testing.T) {
		t.Parallel()
		var bare Resolver
		if _, _, err := bare.Resolve(ctx, "Sam"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Resolve without store error = %v, want ErrNotFound", err)
		}
		if _, _, err := bare.Resolve(ctx, slug); err != nil {
			t.Errorf("Resolve slug without store: %v", err)
		}
	})
}

func TestResolveAllKeepsAlignment(t *testing.T) {
	t.Parallel()

	c := codec.Default()
	sam, err := NewDocument(c, "Sam", menu.New(menu.Group{Name: "G", Items: []menu.Item{{Text: "A", Value: menu.OffLimits}}}))
	if err != nil {
		t.Fatalf("NewDocument: %v", err)
	}
	r := testResolver(t, sam)
	alex, err := c.EncodeSlug("", menu.New(menu.Group{Name: "G", Items: []menu.Item{{Text: "A", Value: menu.MustHave}}}))
	if err != nil {
		t.Fatalf("EncodeSlug: %v", err)
	}

	cols, err := r.ResolveAll(context.Background(), []string{alex, "", "missing", "Sam"})
	if err != nil {
		t.Fatalf("ResolveAll: %v", err)
	}
	if len(cols) != 3 {
		t.Fatalf("got %d columns, want 3 (empty params dropped)", len(cols))
	}
	params := []string{cols[0].Param, cols[1].Param, cols[2].Param}
	if diff := cmp.Diff([]string{alex, "missing", "Sam"}, params); diff != "" {
		t.Errorf("column order mismatch (-want +got):\n%s", diff)
	}
	if cols[1].Menu != nil || !errors.Is(cols[1].Err, ErrNotFound) {
		t.Errorf("missing column = %+v", cols[1])
	}

	cmpRes, err := r.Compare(context.Background(), []string{alex, "missing", "Sam"})
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	rows, ok := cmpRes.Table.Rows("G")
	if !ok {
		t.Fatal("group G missing")
	}
	want := []menu.Preference{menu.MustHave, menu.NoPreference, menu.OffLimits}
	if diff := cmp.Diff(want, rows[0].Values); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Menu 1", "Menu 2", "Sam"}, cmpRes.Titles()); diff != "" {
		t.Errorf("titles mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{0, 2}, cmpRes.Resolved()); diff != "" {
		t.Errorf("resolved mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveAllCanceled(t *testing.T) {
	t.Parallel()

	r := testResolver(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.ResolveAll(ctx, []string{"a", "b"}); !errors.Is(err, context.Canceled) {
		t.Errorf("ResolveAll on canceled context error = %v, want context.Canceled", err)
	}
}

func TestCompareNothingResolves(t *testing.T) {
	t.Parallel()

	r := testResolver(t)
	res, err := r.Compare(context.Background(), []string{"x", "y"})
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if res.Table.Len() != 0 || len(res.Resolved()) != 0 {
		t.Errorf("Compare of unresolvable ids = %d groups, %v resolved", res.Table.Len(), res.Resolved())
	}
	if res.Table.Columns() != 2 {
		t.Errorf("Columns = %d, want 2", res.Table.Columns())
	}
}
