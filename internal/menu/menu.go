package menu

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Sentinel errors for menu edit operations.
var (
	// ErrEmptyGroupName indicates a group was added or renamed to "".
	ErrEmptyGroupName = errors.New("group name is empty")
	// ErrGroupExists indicates a group with the requested name already exists.
	ErrGroupExists = errors.New("group already exists")
	// ErrNoGroup indicates the named group does not exist.
	ErrNoGroup = errors.New("no such group")
	// ErrItemIndex indicates an item position outside the group.
	ErrItemIndex = errors.New("item index out of range")
)

// Item is a single discussion topic. Text is display text and need not be
// unique; Value is omitted from JSON when no preference is recorded.
type Item struct {
	Text  string     `json:"item" yaml:"item"`
	Value Preference `json:"value,omitempty" yaml:"value,omitempty"`
}

// ItemPatch is a partial update for an Item. Nil fields are left unchanged.
type ItemPatch struct {
	Text  *string
	Value *Preference
}

// apply returns it with the patch's non-nil fields applied.
func (p ItemPatch) apply(it Item) Item {
	if p.Text != nil {
		it.Text = *p.Text
	}
	if p.Value != nil {
		it.Value = *p.Value
	}
	return it
}

// Group is a named, ordered list of items. An item's index within its group is
// its positional identity when menus are compared.
type Group struct {
	Name  string `json:"name" yaml:"name"`
	Items []Item `json:"items" yaml:"items"`
}

// Menu maps group names to item lists while remembering the order groups were
// added. The zero value is an empty menu ready for use.
type Menu struct {
	groups []Group
}

// New builds a menu from groups in the given order. A later group with a name
// already seen replaces the earlier group's items in place.
func New(groups ...Group) *Menu {
	m := &Menu{}
	for _, g := range groups {
		m.put(g.Name, cloneItems(g.Items))
	}
	return m
}

// Len returns the number of groups.
func (m *Menu) Len() int {
	if m == nil {
		return 0
	}
	return len(m.groups)
}

// Names returns the group names in display order.
func (m *Menu) Names() []string {
	if m == nil {
		return nil
	}
	names := make([]string, len(m.groups))
	for i, g := range m.groups {
		names[i] = g.Name
	}
	return names
}

// Groups returns a deep copy of the groups in display order.
func (m *Menu) Groups() []Group {
	if m == nil {
		return nil
	}
	out := make([]Group, len(m.groups))
	for i, g := range m.groups {
		out[i] = Group{Name: g.Name, Items: cloneItems(g.Items)}
	}
	return out
}

// Items returns a copy of the named group's items.
func (m *Menu) Items(name string) ([]Item, bool) {
	i := m.index(name)
	if i < 0 {
		return nil, false
	}
	return cloneItems(m.groups[i].Items), true
}

// Each calls fn for every group in display order. fn must not modify items.
func (m *Menu) Each(fn func(name string, items []Item)) {
	if m == nil {
		return
	}
	for _, g := range m.groups {
		fn(g.Name, g.Items)
	}
}

// Clone returns a deep copy of m.
func (m *Menu) Clone() *Menu {
	if m == nil {
		return &Menu{}
	}
	return &Menu{groups: m.Groups()}
}

// Template returns a deep copy of m with every preference stripped, leaving
// only group names and item text.
func (m *Menu) Template() *Menu {
	t := m.Clone()
	for gi := range t.groups {
		for ii := range t.groups[gi].Items {
			t.groups[gi].Items[ii].Value = NoPreference
		}
	}
	return t
}

// Equal reports whether m and other hold the same groups, in the same order,
// with the same items.
func (m *Menu) Equal(other *Menu) bool {
	if m.Len() != other.Len() {
		return false
	}
	for i := 0; i < m.Len(); i++ {
		a, b := m.groups[i], other.groups[i]
		if a.Name != b.Name || len(a.Items) != len(b.Items) {
			return false
		}
		for j := range a.Items {
			if a.Items[j] != b.Items[j] {
				return false
			}
		}
	}
	return true
}

// AddGroup appends an empty group.
func (m *Menu) AddGroup(name string) error {
	if name == "" {
		return ErrEmptyGroupName
	}
	if m.index(name) >= 0 {
		return fmt.Errorf("%w: %q", ErrGroupExists, name)
	}
	m.groups = append(m.groups, Group{Name: name, Items: []Item{}})
	return nil
}

// RenameGroup changes a group's name without moving it.
func (m *Menu) RenameGroup(oldName, newName string) error {
	if newName == "" {
		return ErrEmptyGroupName
	}
	i := m.index(oldName)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrNoGroup, oldName)
	}
	if oldName == newName {
		return nil
	}
	if m.index(newName) >= 0 {
		return fmt.Errorf("%w: %q", ErrGroupExists, newName)
	}
	m.groups[i].Name = newName
	return nil
}

// RemoveGroup deletes a group and its items.
func (m *Menu) RemoveGroup(name string) error {
	i := m.index(name)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrNoGroup, name)
	}
	m.groups = append(m.groups[:i], m.groups[i+1:]...)
	return nil
}

// UpdateItem applies patch to the item at index. An index equal to the
// group's length appends a new item built from the patch.
func (m *Menu) UpdateItem(group string, index int, patch ItemPatch) error {
	gi := m.index(group)
	if gi < 0 {
		return fmt.Errorf("%w: %q", ErrNoGroup, group)
	}
	if patch.Value != nil && !patch.Value.Valid() && *patch.Value != NoPreference {
		return fmt.Errorf("%w: %q", ErrUnknownPreference, string(*patch.Value))
	}
	items := m.groups[gi].Items
	switch {
	case index == len(items):
		m.groups[gi].Items = append(items, patch.apply(Item{}))
	case index >= 0 && index < len(items):
		items[index] = patch.apply(items[index])
	default:
		return fmt.Errorf("%w: %s[%d] (len %d)", ErrItemIndex, group, index, len(items))
	}
	return nil
}

// RemoveItem deletes the item at index, shifting later items up.
func (m *Menu) RemoveItem(group string, index int) error {
	gi := m.index(group)
	if gi < 0 {
		return fmt.Errorf("%w: %q", ErrNoGroup, group)
	}
	items := m.groups[gi].Items
	if index < 0 || index >= len(items) {
		return fmt.Errorf("%w: %s[%d] (len %d)", ErrItemIndex, group, index, len(items))
	}
	m.groups[gi].Items = append(items[:index], items[index+1:]...)
	return nil
}

// MarshalJSON encodes the menu as a JSON object whose keys follow the menu's
// group order. HTML characters are not escaped.
func (m *Menu) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, g := range m.groupsOrNil() {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSON(&buf, g.Name); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		items := g.Items
		if items == nil {
			items = []Item{}
		}
		if err := writeJSON(&buf, items); err != nil {
			return nil, fmt.Errorf("group %q: %w", g.Name, err)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// writeJSON appends v to buf without HTML escaping or a trailing newline.
func writeJSON(buf *bytes.Buffer, v any) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	buf.Truncate(buf.Len() - 1)
	return nil
}

// UnmarshalJSON decodes a JSON object of group name to item list, keeping key
// order. null decodes to an empty menu. A repeated key keeps its first
// position and takes the last value.
func (m *Menu) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("menu: %w", err)
	}
	if tok == nil {
		m.groups = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("menu: expected object, got %v", tok)
	}

	var groups Menu
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("menu: %w", err)
		}
		name, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("menu: unexpected key %v", keyTok)
		}
		var items []Item
		if err := dec.Decode(&items); err != nil {
			return fmt.Errorf("menu: group %q: %w", name, err)
		}
		if items == nil {
			items = []Item{}
		}
		groups.put(name, items)
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("menu: %w", err)
	}
	m.groups = groups.groups
	return nil
}

// MarshalYAML renders the menu as an ordered list of groups.
func (m *Menu) MarshalYAML() (any, error) {
	groups := m.Groups()
	if groups == nil {
		groups = []Group{}
	}
	return groups, nil
}

func (m *Menu) groupsOrNil() []Group {
	if m == nil {
		return nil
	}
	return m.groups
}

func (m *Menu) index(name string) int {
	if m == nil {
		return -1
	}
	for i, g := range m.groups {
		if g.Name == name {
			return i
		}
	}
	return -1
}

func (m *Menu) put(name string, items []Item) {
	if i := m.index(name); i >= 0 {
		m.groups[i].Items = items
		return
	}
	m.groups = append(m.groups, Group{Name: name, Items: items})
}

func cloneItems(items []Item) []Item {
	out := make([]Item, len(items))
	copy(out, items)
	return out
}

// Document is the persisted and shared unit: a title plus a codec token of a
// Menu.
type Document struct {
	Title   string `json:"title" yaml:"title" toml:"title"`
	Encoded string `json:"encoded" yaml:"encoded" toml:"encoded"`
}
