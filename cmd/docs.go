package cmd

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/relmenu/internal/menu"
	"github.com/papapumpkin/relmenu/internal/share"
)

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Manage saved menu documents",
}

var docsListCmd = &cobra.Command{
	Use:   "list [id]",
	Short: "List saved documents, or show one by id",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDocsList,
}

var docsSaveCmd = &cobra.Command{
	Use:   "save [slug...]",
	Short: "Save menus from slugs or TOML files",
	Long: `Saves each slug argument and each --file menu to the document store under
its title. Saving an existing title overwrites it.`,
	RunE: runDocsSave,
}

var docsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every saved document",
	RunE:  runDocsClear,
}

func init() {
	docsSaveCmd.Flags().StringArrayP("file", "f", nil, "TOML menu file (repeatable)")
	docsClearCmd.Flags().Bool("yes", false, "confirm deleting every document")

	docsCmd.AddCommand(docsListCmd, docsSaveCmd, docsClearCmd)
	rootCmd.AddCommand(docsCmd)
}

// docEntry is one row of docs list output.
type docEntry struct {
	Title   string `json:"title" yaml:"title"`
	Slug    string `json:"slug" yaml:"slug"`
	Encoded string `json:"encoded" yaml:"encoded"`
}

func runDocsList(cmd *cobra.Command, args []string) error {
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
	st, err := e.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore(e, st)

	var id string
	if len(args) == 1 {
		id = args[0]
	}
	docs, err := st.GetDocuments(ctx, id)
	if err != nil {
		return err
	}

	entries := make([]docEntry, 0, len(docs))
	for _, d := range docs {
		slug, err := share.Slug(e.codec, d)
		if err != nil {
			return err
		}
		entries = append(entries, docEntry{Title: d.Title, Slug: slug, Encoded: d.Encoded})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Title < entries[j].Title })

	w := cmd.OutOrStdout()
	if format != formatTable {
		return writeStructured(w, format, entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), "no documents")
		return nil
	}
	for _, en := range entries {
		fmt.Fprintf(w, "%s\t%s\n", en.Title, share.MenuURL(e.cfg.Share.BaseURL, en.Title))
	}
	return nil
}

func runDocsSave(cmd *cobra.Command, args []string) error {
	files, _ := cmd.Flags().GetStringArray("file")
	if len(args) == 0 && len(files) == 0 {
		return errors.New("nothing to save: pass slugs or --file")
	}
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	docs := make([]menu.Document, 0, len(args)+len(files))
	for _, path := range files {
		title, m, err := menu.LoadFile(path)
		if err != nil {
			return err
		}
		doc, err := share.NewDocument(e.codec, title, m)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
	}
	for _, slug := range args {
		var m menu.Menu
		title, err := e.codec.DecodeSlug(slug, &m)
		if err != nil {
			return fmt.Errorf("decode %q: %w", slug, err)
		}
		doc, err := share.NewDocument(e.codec, title, &m)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
	}

	ctx := cmd.Context()
	st, err := e.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore(e, st)

	ids, err := st.SaveDocuments(ctx, docs...)
	if err != nil {
		return err
	}
	for _, id := range ids {
		fmt.Fprintln(cmd.OutOrStdout(), id)
	}
	return nil
}

func runDocsClear(cmd *cobra.Command, _ []string) error {
	if yes, _ := cmd.Flags().GetBool("yes"); !yes {
		return errors.New("refusing to delete every document without --yes")
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

	if err := st.Clear(ctx); err != nil {
		return err
	}
	fmt.Fprintln(cmd.ErrOrStderr(), "✓ documents cleared")
	return nil
}
