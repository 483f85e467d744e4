package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/relmenu/internal/share"
	"github.com/papapumpkin/relmenu/internal/store"
	"github.com/papapumpkin/relmenu/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch <menu.toml>",
	Short: "Print a fresh share link every time a menu file is saved",
	Args:  cobra.ExactArgs(1),
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().Bool("save", false, "also save each version to the document store")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	save, _ := cmd.Flags().GetBool("save")
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	ctx, cancel := setupSignalContext(cmd.Context(), e.logger)
	defer cancel()

	w, err := watch.NewWatcher(args[0], e.codec, e.logger)
	if err != nil {
		return err
	}
	if err := w.Start(true); err != nil {
		return err
	}
	defer w.Stop()

	var st store.Store
	if save {
		st, err = e.openStore(ctx)
		if err != nil {
			return err
		}
		defer closeStore(e, st)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(cmd.ErrOrStderr(), "watching %s (Ctrl+C to stop)\n", w.Path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case u, ok := <-w.Updates:
			if !ok {
				return nil
			}
			if u.Err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "✗ %v\n", u.Err)
				continue
			}
			fmt.Fprintln(out, share.MenuURL(e.cfg.Share.BaseURL, u.Slug))
			if st == nil {
				continue
			}
			if u.Title == "" {
				e.logger.Warn("untitled menu not saved", "path", u.Path)
				continue
			}
			doc, err := share.NewDocument(e.codec, u.Title, u.Menu)
			if err == nil {
				_, err = st.SaveDocuments(ctx, doc)
			}
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "✗ save %q: %v\n", u.Title, err)
			}
		}
	}
}
