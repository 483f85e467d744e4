package menu

import (
	"fmt"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// fileItem and fileGroup mirror the TOML authoring layout:
//
//	title = "Alex"
//
//	[[group]]
//	name = "Communication"
//
//	[[group.item]]
//	item = "Daily check-ins"
//	value = "must-have"
type fileItem struct {
	Item  string `toml:"item"`
	Value string `toml:"value,omitempty"`
}

type fileGroup struct {
	Name  string     `toml:"name"`
	Items []fileItem `toml:"item"`
}

type menuFile struct {
	Title  string      `toml:"title"`
	Groups []fileGroup `toml:"group"`
}

// ParseFile decodes a TOML menu source. Group order in the file is the menu's
// display order.
func ParseFile(data []byte) (string, *Menu, error) {
	var f menuFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return "", nil, fmt.Errorf("parsing menu file: %w", err)
	}

	m := &Menu{}
	for gi, g := range f.Groups {
		if g.Name == "" {
			return "", nil, fmt.Errorf("group #%d: %w", gi+1, ErrEmptyGroupName)
		}
		if err := m.AddGroup(g.Name); err != nil {
			return "", nil, err
		}
		for ii, it := range g.Items {
			pref, err := ParsePreference(it.Value)
			if err != nil {
				return "", nil, fmt.Errorf("group %q item #%d: %w", g.Name, ii+1, err)
			}
			text := it.Item
			if err := m.UpdateItem(g.Name, ii, ItemPatch{Text: &text, Value: &pref}); err != nil {
				return "", nil, err
			}
		}
	}
	return f.Title, m, nil
}

// LoadFile reads and parses the TOML menu file at path.
func LoadFile(path string) (string, *Menu, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("reading menu file: %w", err)
	}
	title, m, err := ParseFile(data)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", path, err)
	}
	return title, m, nil
}

// FormatFile renders title and m in the TOML authoring layout.
func FormatFile(title string, m *Menu) ([]byte, error) {
	f := menuFile{Title: title}
	m.Each(func(name string, items []Item) {
		g := fileGroup{Name: name, Items: make([]fileItem, len(items))}
		for i, it := range items {
			g.Items[i] = fileItem{Item: it.Text, Value: string(it.Value)}
		}
		f.Groups = append(f.Groups, g)
	})
	data, err := toml.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("marshaling menu file: %w", err)
	}
	return data, nil
}

// SaveFile writes title and m to path, creating parent directories as needed.
func SaveFile(path, title string, m *Menu) error {
	data, err := FormatFile(title, m)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing menu file: %w", err)
	}
	return nil
}
