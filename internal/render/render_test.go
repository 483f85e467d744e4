package render

import (
	"strings"
	"testing"

	"github.com/papapumpkin/relmenu/internal/compare"
	"github.com/papapumpkin/relmenu/internal/menu"
)

func TestLabel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   menu.Preference
		want string
	}{
		{menu.MustHave, "must have"},
		{menu.LikeToHave, "like to have"},
		{menu.Maybe, "maybe"},
		{menu.OffLimits, "off limits"},
		{menu.NoPreference, unsetMark},
	}
	for _, tt := range tests {
		if got := Label(tt.in); got != tt.want {
			t.Errorf("Label(%q) = %q, want %q", tt.in, got, tt.want)
		}
		if !strings.Contains(Badge(tt.in), tt.want) {
			t.Errorf("Badge(%q) = %q, missing label", tt.in, Badge(tt.in))
		}
	}
}

func TestLegendListsEveryLevel(t *testing.T) {
	t.Parallel()

	legend := Legend()
	for _, p := range menu.Preferences() {
		if !strings.Contains(legend, Label(p)) {
			t.Errorf("legend %q missing %q", legend, Label(p))
		}
	}
}

func TestMenu(t *testing.T) {
	t.Parallel()

	m := menu.New(
		menu.Group{Name: "Physical", Items: []menu.Item{{Text: "Hugs", Value: menu.MustHave}, {Text: "Kissing"}}},
		menu.Group{Name: "Communication", Items: []menu.Item{{Text: "Texting", Value: menu.OffLimits}}},
	)
	out := Menu("Alex", m)
	for _, want := range []string{"Alex", "Physical", "Hugs", "must have", "Kissing", "Communication", "off limits"} {
		if !strings.Contains(out, want) {
			t.Errorf("Menu output missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "Physical") > strings.Index(out, "Communication") {
		t.Errorf("groups out of order:\n%s", out)
	}

	empty := Menu("", nil)
	if !strings.Contains(empty, "Untitled menu") || !strings.Contains(empty, "empty menu") {
		t.Errorf("empty menu output = %q", empty)
	}
}

func TestComparison(t *testing.T) {
	t.Parallel()

	tbl := compare.Compare([]*menu.Menu{
		menu.New(menu.Group{Name: "G", Items: []menu.Item{{Text: "A", Value: menu.MustHave}, {Text: "B", Value: menu.Maybe}}}),
		nil,
		menu.New(menu.Group{Name: "G", Items: []menu.Item{{Text: "A", Value: menu.OffLimits}}}),
	})
	out := Comparison([]string{"Alex", "Ghost", ""}, tbl, []int{0, 2})

	for _, want := range []string{"Alex", "Menu 3", "A" + conflictMark, "must have", "off limits", "maybe", "2 items"} {
		if !strings.Contains(out, want) {
			t.Errorf("Comparison output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Ghost") {
		t.Errorf("unresolved column rendered:\n%s", out)
	}

	none := Comparison(nil, compare.Compare(nil), nil)
	if !strings.Contains(none, "nothing to compare") {
		t.Errorf("empty comparison output = %q", none)
	}
}
