package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration and that the document store opens",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.ErrOrStderr()
		e, err := loadEnv(cmd)
		if err != nil {
			fmt.Fprintf(out, "✗ config: %v\n", err)
			return errors.New("validation failed")
		}
		defer e.close()
		fmt.Fprintf(out, "✓ config loaded (codec alphabet %s, level %d)\n", e.codec.Alphabet(), e.cfg.Codec.Level)

		st, err := e.openStore(cmd.Context())
		if err != nil {
			fmt.Fprintf(out, "✗ store: %v\n", err)
			return errors.New("validation failed")
		}
		defer closeStore(e, st)
		if !st.Ready() {
			fmt.Fprintf(out, "✗ store: %s backend is not ready\n", e.cfg.Store.Backend)
			return errors.New("validation failed")
		}
		fmt.Fprintf(out, "✓ store ready (%s %s)\n", e.cfg.Store.Backend, e.cfg.Store.Path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
