package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papapumpkin/relmenu/internal/codec"
	"github.com/papapumpkin/relmenu/internal/config"
	"github.com/papapumpkin/relmenu/internal/logging"
	"github.com/papapumpkin/relmenu/internal/store"
	"github.com/papapumpkin/relmenu/internal/telemetry"
)

var rootCmd = &cobra.Command{
	Use:   "relmenu",
	Short: "Encode, share and compare relationship menus",
	Long: `relmenu turns relationship menus into compact shareable tokens and lines
several menus up side by side so agreements and conflicts are easy to spot.

Menus are shared as slugs (title token, ":", payload token) or saved to a
document store and referenced by title.`,
	SilenceUsage: true,
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default .relmenu.yaml)")
	pf.BoolP("verbose", "v", false, "verbose output")
	pf.StringP("format", "o", formatTable, "output format: table, json or yaml")
	pf.String("store", "", "document store backend: memory, file, sqlite or badger")
	pf.String("store-path", "", "document store location")

	_ = viper.BindPFlag("verbose", pf.Lookup("verbose"))
	_ = viper.BindPFlag("store.backend", pf.Lookup("store"))
	_ = viper.BindPFlag("store.path", pf.Lookup("store-path"))
}

func initConfig() {
	if cfgFile, _ := rootCmd.PersistentFlags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(".relmenu")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
	}

	viper.SetEnvPrefix("RELMENU")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// It's fine if no config file is found; we use defaults.
	_ = viper.ReadInConfig()
}

// env bundles what most commands need: configuration, a logger, a codec and
// an optional journal.
type env struct {
	cfg     config.Config
	logger  *slog.Logger
	codec   *codec.Codec
	journal *telemetry.Emitter
}

// loadEnv loads configuration and builds the shared collaborators. Logs go
// to stderr so stdout stays clean for tokens and structured output.
func loadEnv(cmd *cobra.Command) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := logging.New(cmd.ErrOrStderr(), cfg.LoggingOptions())
	if err != nil {
		return nil, err
	}
	c, err := cfg.NewCodec()
	if err != nil {
		return nil, err
	}
	e := &env{cfg: cfg, logger: logger, codec: c}
	if cfg.Telemetry.Path != "" {
		j, err := telemetry.NewEmitter(cfg.Telemetry.Path)
		if err != nil {
			logger.Warn("journal disabled", "path", cfg.Telemetry.Path, "error", err)
		} else {
			e.journal = j
		}
	}
	return e, nil
}

// openStore opens the configured document store.
func (e *env) openStore(ctx context.Context) (store.Store, error) {
	return store.Open(ctx, e.cfg.StoreOptions(e.logger))
}

// close releases the journal.
func (e *env) close() {
	if err := e.journal.Close(); err != nil {
		e.logger.Warn("journal close failed", "error", err)
	}
}
