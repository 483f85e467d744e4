package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/relmenu/internal/menu"
	"github.com/papapumpkin/relmenu/internal/render"
	"github.com/papapumpkin/relmenu/internal/session"
)

var editCmd = &cobra.Command{
	Use:   "edit [slug|id]",
	Short: "Edit a menu and print its new share link",
	Long: `Opens a menu from a slug or stored document id (or an empty menu when no
argument is given), applies the requested edits in order and prints the
result. Titled menus are saved to the document store after every edit.

Edits are applied in this order: --title, --add-group, --rename-group,
--remove-group, --set-item, --remove-item.

--set-item takes GROUP:INDEX:VALUE[:TEXT]. VALUE is a preference level,
"none" to clear it, or "-" to leave it unchanged. INDEX equal to the number
of items in the group appends a new item.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEdit,
}

func init() {
	f := editCmd.Flags()
	f.String("title", "", "set the menu title")
	f.StringSlice("add-group", nil, "add a group (repeatable)")
	f.StringSlice("rename-group", nil, "rename a group, OLD=NEW (repeatable)")
	f.StringSlice("remove-group", nil, "remove a group (repeatable)")
	f.StringArray("set-item", nil, "set an item, GROUP:INDEX:VALUE[:TEXT] (repeatable)")
	f.StringArray("remove-item", nil, "remove an item, GROUP:INDEX (repeatable)")
	rootCmd.AddCommand(editCmd)
}

func runEdit(cmd *cobra.Command, args []string) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	changes, err := editChanges(cmd)
	if err != nil {
		return err
	}
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	ctx := cmd.Context()
	st, err := e.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore(e, st)

	var raw string
	if len(args) == 1 {
		raw = args[0]
	}
	s, err := session.Open(ctx, session.Options{Store: st, Codec: e.codec, Logger: e.logger, Journal: e.journal}, raw)
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("title") {
		title, _ := cmd.Flags().GetString("title")
		if err := s.SetTitle(ctx, title); err != nil {
			return err
		}
	}
	for _, ch := range changes {
		if err := s.Apply(ctx, ch); err != nil {
			return err
		}
	}

	title, m := s.Snapshot()
	links, err := s.Links(e.cfg.Share.BaseURL)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	if format != formatTable {
		return writeStructured(w, format, menuOutput{Title: title, Menu: m, Links: links})
	}
	fmt.Fprint(w, render.Menu(title, m))
	fmt.Fprintln(w, links.Slug)
	fmt.Fprintf(w, "menu:     %s\ntemplate: %s\n", links.URL, links.TemplateURL)
	return nil
}

// editChanges turns the edit flags into session changes in application order.
func editChanges(cmd *cobra.Command) ([]session.Change, error) {
	f := cmd.Flags()
	adds, _ := f.GetStringSlice("add-group")
	renames, _ := f.GetStringSlice("rename-group")
	removes, _ := f.GetStringSlice("remove-group")
	sets, _ := f.GetStringArray("set-item")
	itemRemoves, _ := f.GetStringArray("remove-item")

	var changes []session.Change
	for _, g := range adds {
		changes = append(changes, session.Change{Kind: session.KindGroup, NewGroup: g})
	}
	for _, r := range renames {
		oldName, newName, ok := strings.Cut(r, "=")
		if !ok || oldName == "" || newName == "" {
			return nil, fmt.Errorf("--rename-group %q: want OLD=NEW", r)
		}
		changes = append(changes, session.Change{Kind: session.KindGroup, OldGroup: oldName, NewGroup: newName})
	}
	for _, g := range removes {
		changes = append(changes, session.Change{Kind: session.KindGroup, OldGroup: g})
	}
	for _, s := range sets {
		ch, err := parseSetItem(s)
		if err != nil {
			return nil, err
		}
		changes = append(changes, ch)
	}
	for _, r := range itemRemoves {
		group, idx, ok := strings.Cut(r, ":")
		if !ok {
			return nil, fmt.Errorf("--remove-item %q: want GROUP:INDEX", r)
		}
		n, err := strconv.Atoi(idx)
		if err != nil {
			return nil, fmt.Errorf("--remove-item %q: bad index: %w", r, err)
		}
		changes = append(changes, session.Change{Kind: session.KindItem, Group: group, Index: n, Remove: true})
	}
	return changes, nil
}

// parseSetItem parses GROUP:INDEX:VALUE[:TEXT]. TEXT is everything after the
// third separator, so it may itself contain ":".
func parseSetItem(s string) (session.Change, error) {
	parts := strings.SplitN(s, ":", 4)
	if len(parts) < 3 {
		return session.Change{}, fmt.Errorf("--set-item %q: want GROUP:INDEX:VALUE[:TEXT]", s)
	}
	idx, err := strconv.Atoi(parts[1])
	if err != nil {
		return session.Change{}, fmt.Errorf("--set-item %q: bad index: %w", s, err)
	}

	var patch menu.ItemPatch
	switch v := parts[2]; v {
	case "-":
	case "none":
		p := menu.NoPreference
		patch.Value = &p
	default:
		p, err := menu.ParsePreference(v)
		if err != nil {
			return session.Change{}, fmt.Errorf("--set-item %q: %w", s, err)
		}
		patch.Value = &p
	}
	if len(parts) == 4 {
		text := parts[3]
		patch.Text = &text
	}
	return session.Change{Kind: session.KindItem, Group: parts[0], Index: idx, Patch: patch}, nil
}
