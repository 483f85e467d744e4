package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/relmenu/internal/codec"
	"github.com/papapumpkin/relmenu/internal/compare"
	"github.com/papapumpkin/relmenu/internal/menu"
	"github.com/papapumpkin/relmenu/internal/render"
	"github.com/papapumpkin/relmenu/internal/share"
	"github.com/papapumpkin/relmenu/internal/store"
)

var showCmd = &cobra.Command{
	Use:   "show <slug|id>",
	Short: "Show a menu from a slug or a stored document",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

var templateCmd = &cobra.Command{
	Use:   "template <slug|id>",
	Short: "Print the blank template of a menu",
	Long: `Strips every preference from a menu, keeping its groups and items, and
prints the template's share link so someone else can fill it in.`,
	Args: cobra.ExactArgs(1),
	RunE: runTemplate,
}

var compareCmd = &cobra.Command{
	Use:   "compare <slug|id>...",
	Short: "Compare menus side by side",
	Long: `Lines up menus by group and item position. Each argument is a slug or a
stored document id. Arguments that do not resolve are reported and left out
of the table.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCompare,
}

func init() {
	rootCmd.AddCommand(showCmd, templateCmd, compareCmd)
}

// menuOutput is the structured output of show and template.
type menuOutput struct {
	Title string        `json:"title" yaml:"title"`
	Menu  *menu.Menu    `json:"menu" yaml:"menu"`
	Links share.LinkSet `json:"links" yaml:"links"`
}

// compareOutput is the structured output of compare.
type compareOutput struct {
	Titles   []string        `json:"titles" yaml:"titles"`
	Resolved []int           `json:"resolved" yaml:"resolved"`
	URL      string          `json:"url" yaml:"url"`
	Table    *compare.Table  `json:"table" yaml:"table"`
	Summary  compare.Summary `json:"summary" yaml:"summary"`
}

// newResolver returns a resolver, opening the document store only when some
// argument is a document id rather than a slug. The returned func releases
// the store.
func newResolver(ctx context.Context, e *env, raws []string) (*share.Resolver, func(), error) {
	r := &share.Resolver{Codec: e.codec, Logger: e.logger, Journal: e.journal}
	needStore := false
	for _, raw := range raws {
		if raw != "" && !codec.IsSlug(raw) {
			needStore = true
			break
		}
	}
	if !needStore {
		return r, func() {}, nil
	}
	st, err := e.openStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	r.Store = st
	return r, func() { closeStore(e, st) }, nil
}

func closeStore(e *env, st store.Store) {
	if err := st.Close(); err != nil {
		e.logger.Warn("store close failed", "error", err)
	}
}

func runShow(cmd *cobra.Command, args []string) error {
	return showMenu(cmd, args[0], false)
}

func runTemplate(cmd *cobra.Command, args []string) error {
	return showMenu(cmd, args[0], true)
}

func showMenu(cmd *cobra.Command, raw string, template bool) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	ctx := cmd.Context()
	r, release, err := newResolver(ctx, e, []string{raw})
	if err != nil {
		return err
	}
	defer release()

	title, m, err := r.Resolve(ctx, raw)
	if err != nil {
		return err
	}
	if template {
		m = m.Template()
	}
	links, err := share.Links(e.codec, e.cfg.Share.BaseURL, title, m)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if format != formatTable {
		return writeStructured(w, format, menuOutput{Title: title, Menu: m, Links: links})
	}
	fmt.Fprint(w, render.Menu(title, m))
	if template {
		fmt.Fprintf(w, "template: %s\n", links.TemplateURL)
	} else {
		fmt.Fprintf(w, "menu:     %s\ntemplate: %s\n", links.URL, links.TemplateURL)
	}
	return nil
}

func runCompare(cmd *cobra.Command, args []string) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	ctx := cmd.Context()
	r, release, err := newResolver(ctx, e, args)
	if err != nil {
		return err
	}
	defer release()

	res, err := r.Compare(ctx, args)
	if err != nil {
		return err
	}
	titles := res.Titles()
	resolved := res.Resolved()

	w := cmd.OutOrStdout()
	if format != formatTable {
		return writeStructured(w, format, compareOutput{
			Titles:   titles,
			Resolved: resolved,
			URL:      share.CompareURL(e.cfg.Share.BaseURL, args...),
			Table:    res.Table,
			Summary:  res.Table.Summarize(),
		})
	}

	for i, col := range res.Columns {
		if col.Err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "✗ %s: %v\n", titles[i], col.Err)
		}
	}
	fmt.Fprint(w, render.Comparison(titles, res.Table, resolved))
	fmt.Fprintln(w, render.Legend())
	return nil
}
