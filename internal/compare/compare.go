// Package compare lines up several menus into a positional comparison table.
//
// Rows are matched by position within a group, not by item text: row i of
// group G collects item i of G from every menu. A row's label is the text of
// the first menu that has an item at that position; later menus contribute
// only their preference.
package compare

import (
	"bytes"
	"encoding/json"

	"github.com/papapumpkin/relmenu/internal/menu"
)

// Row is one aligned position within a group. Values has one slot per input
// menu, indexed by the menu's position in the input.
type Row struct {
	Item   string            `json:"item" yaml:"item"`
	Values []menu.Preference `json:"values" yaml:"values"`
}

// Group is a named list of rows.
type Group struct {
	Name string `json:"name" yaml:"name"`
	Rows []Row  `json:"rows" yaml:"rows"`
}

// Table is the result of Compare. Groups appear in the order they were first
// seen while scanning the input menus.
type Table struct {
	columns int
	groups  []Group
	index   map[string]int
}

// Compare builds a table from menus. A nil entry stands for a menu that could
// not be resolved: it contributes nothing but still owns its column, so column
// i always refers to menus[i]. Compare never modifies its input.
func Compare(menus []*menu.Menu) *Table {
	t := &Table{columns: len(menus), index: make(map[string]int)}
	for col, m := range menus {
		if m == nil {
			continue
		}
		m.Each(func(name string, items []menu.Item) {
			gi := t.ensureGroup(name)
			for pos, it := range items {
				rows := t.groups[gi].Rows
				if pos >= len(rows) {
					// Positions are visited in order, so pos == len(rows) here.
					rows = append(rows, Row{Item: it.Text, Values: make([]menu.Preference, t.columns)})
					t.groups[gi].Rows = rows
				}
				rows[pos].Values[col] = it.Value
			}
		})
	}
	return t
}

func (t *Table) ensureGroup(name string) int {
	if gi, ok := t.index[name]; ok {
		return gi
	}
	t.groups = append(t.groups, Group{Name: name, Rows: []Row{}})
	t.index[name] = len(t.groups) - 1
	return len(t.groups) - 1
}

// Columns returns the number of input menus, resolved or not.
func (t *Table) Columns() int { return t.columns }

// Len returns the number of groups.
func (t *Table) Len() int { return len(t.groups) }

// Names returns group names in table order.
func (t *Table) Names() []string {
	names := make([]string, len(t.groups))
	for i, g := range t.groups {
		names[i] = g.Name
	}
	return names
}

// Rows returns the rows of the named group.
func (t *Table) Rows(name string) ([]Row, bool) {
	gi, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.groups[gi].Rows, true
}

// Groups returns the table's groups in order.
func (t *Table) Groups() []Group {
	return t.groups
}

// MarshalJSON encodes the table as {"group": [{"item": ..., "values": [...]}]}
// with keys in table order. Unset preferences encode as null.
func (t *Table) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, g := range t.groups {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(g.Name)
		if err != nil {
			return nil, err
		}
		rows, err := json.Marshal(g.Rows)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(rows)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalYAML renders the table as its ordered group list.
func (t *Table) MarshalYAML() (any, error) {
	if t.groups == nil {
		return []Group{}, nil
	}
	return t.groups, nil
}
