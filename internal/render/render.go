// Package render draws menus and comparison tables for the terminal.
//
// Output is plain text when stdout is not a terminal; lipgloss picks the
// colour profile.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/papapumpkin/relmenu/internal/compare"
	"github.com/papapumpkin/relmenu/internal/menu"
)

// Label returns the display text of p.
func Label(p menu.Preference) string {
	switch p {
	case menu.MustHave:
		return "must have"
	case menu.LikeToHave:
		return "like to have"
	case menu.Maybe:
		return "maybe"
	case menu.OffLimits:
		return "off limits"
	default:
		return unsetMark
	}
}

func preferenceStyle(p menu.Preference) lipgloss.Style {
	s := styleCell
	switch p {
	case menu.MustHave:
		return s.Foreground(colorMustHave).Bold(true)
	case menu.LikeToHave:
		return s.Foreground(colorLikeToHave)
	case menu.Maybe:
		return s.Foreground(colorMaybe)
	case menu.OffLimits:
		return s.Foreground(colorOffLimits).Bold(true)
	default:
		return s.Foreground(colorMuted)
	}
}

// Badge returns p's label in its colour.
func Badge(p menu.Preference) string {
	return preferenceStyle(p).Render(Label(p))
}

// Legend lists every preference level as a badge.
func Legend() string {
	prefs := menu.Preferences()
	badges := make([]string, 0, len(prefs)+1)
	for _, p := range prefs {
		badges = append(badges, Badge(p))
	}
	badges = append(badges, preferenceStyle(menu.NoPreference).Render(unsetMark+" no answer"))
	return strings.Join(badges, " ")
}

// newTable returns a table with the shared border style. cells holds the
// preference of every body cell; column 0 is the label column.
func newTable(headers []string, cells [][]menu.Preference) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styleBorder).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader
			}
			if col == 0 || row < 0 || row >= len(cells) || col-1 >= len(cells[row]) {
				return styleCell
			}
			return preferenceStyle(cells[row][col-1])
		})
}

// Menu renders one menu: a title line followed by one table per group.
func Menu(title string, m *menu.Menu) string {
	var b strings.Builder
	if title == "" {
		title = "Untitled menu"
	}
	b.WriteString(styleTitle.Render(title))
	b.WriteByte('\n')
	if m.Len() == 0 {
		b.WriteString(styleSummary.Render("(empty menu)"))
		b.WriteByte('\n')
		return b.String()
	}
	m.Each(func(name string, items []menu.Item) {
		cells := make([][]menu.Preference, len(items))
		t := newTable([]string{name, "preference"}, cells)
		for i, it := range items {
			cells[i] = []menu.Preference{it.Value}
			t.Row(it.Text, Label(it.Value))
		}
		b.WriteString(t.String())
		b.WriteByte('\n')
	})
	return b.String()
}

// Comparison renders a comparison table, one table per group. titles names
// every table column; columns selects which of them to show, in order, so
// unresolved menus can be left out without disturbing alignment.
func Comparison(titles []string, t *compare.Table, columns []int) string {
	var b strings.Builder
	if t.Len() == 0 || len(columns) == 0 {
		b.WriteString(styleSummary.Render("(nothing to compare)"))
		b.WriteByte('\n')
		return b.String()
	}

	for _, g := range t.Groups() {
		headers := make([]string, 0, len(columns)+1)
		headers = append(headers, g.Name)
		for _, c := range columns {
			headers = append(headers, columnTitle(titles, c))
		}

		cells := make([][]menu.Preference, len(g.Rows))
		tbl := newTable(headers, cells)
		for i, r := range g.Rows {
			label := r.Item
			if r.HasConflict() {
				label += conflictMark
			}
			row := []string{label}
			cells[i] = make([]menu.Preference, len(columns))
			for j, c := range columns {
				var v menu.Preference
				if c >= 0 && c < len(r.Values) {
					v = r.Values[c]
				}
				cells[i][j] = v
				row = append(row, Label(v))
			}
			tbl.Row(row...)
		}
		b.WriteString(tbl.String())
		b.WriteByte('\n')
	}

	s := t.Summarize()
	b.WriteString(styleSummary.Render(fmt.Sprintf("%d items: %d agree, %d differ, %d conflicts", s.Rows, s.Matches, s.Mixed, s.Conflicts)))
	b.WriteByte('\n')
	return b.String()
}

func columnTitle(titles []string, c int) string {
	if c >= 0 && c < len(titles) && titles[c] != "" {
		return titles[c]
	}
	return fmt.Sprintf("Menu %d", c+1)
}
