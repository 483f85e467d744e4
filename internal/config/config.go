// Package config loads relmenu's runtime configuration through viper.
package config

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/viper"

	"github.com/papapumpkin/relmenu/internal/codec"
	"github.com/papapumpkin/relmenu/internal/logging"
	"github.com/papapumpkin/relmenu/internal/store"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("config: invalid")

// StoreConfig selects the document store.
type StoreConfig struct {
	Backend string `mapstructure:"backend"`
	Path    string `mapstructure:"path"`
}

// CodecConfig tunes token encoding.
type CodecConfig struct {
	Alphabet        string `mapstructure:"alphabet"`
	Level           int    `mapstructure:"level"`
	MaxDecodedBytes int64  `mapstructure:"max_decoded_bytes"`
}

// ShareConfig controls generated links.
type ShareConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// LogConfig configures logging output.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TelemetryConfig configures the event journal. An empty Path disables it.
type TelemetryConfig struct {
	Path string `mapstructure:"path"`
}

// Config holds all runtime configuration. Values are populated from
// .relmenu.yaml, RELMENU_* env vars and CLI flags.
type Config struct {
	Store     StoreConfig     `mapstructure:"store"`
	Codec     CodecConfig     `mapstructure:"codec"`
	Share     ShareConfig     `mapstructure:"share"`
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Verbose   bool            `mapstructure:"verbose"`
}

// SetDefaults registers built-in defaults with viper.
func SetDefaults() {
	viper.SetDefault("store.backend", string(store.BackendFile))
	viper.SetDefault("store.path", ".relmenu/documents.toml")
	viper.SetDefault("codec.alphabet", string(codec.AlphabetStandard))
	viper.SetDefault("codec.level", codec.DefaultLevel)
	viper.SetDefault("codec.max_decoded_bytes", codec.DefaultMaxDecodedSize)
	viper.SetDefault("share.base_url", "http://localhost:8080")
	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", logging.FormatText)
	viper.SetDefault("telemetry.path", "")
	viper.SetDefault("verbose", false)
}

// Load reads configuration from viper, applying built-in defaults for any
// values not set by config file, environment, or flags, and validates it.
func Load() (Config, error) {
	SetDefaults()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects unknown backends, alphabets, log levels and formats.
func (c Config) Validate() error {
	var errs []error
	if _, err := store.ParseBackend(c.Store.Backend); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.NewCodec(); err != nil {
		errs = append(errs, err)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if c.Log.Format != logging.FormatText && c.Log.Format != logging.FormatJSON {
		errs = append(errs, fmt.Errorf("%w: %q", logging.ErrUnknownFormat, c.Log.Format))
	}
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is empty"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// NewCodec builds the codec described by c.
func (c Config) NewCodec() (*codec.Codec, error) {
	alpha, err := codec.ParseAlphabet(c.Codec.Alphabet)
	if err != nil {
		return nil, err
	}
	return codec.New(
		codec.WithAlphabet(alpha),
		codec.WithLevel(c.Codec.Level),
		codec.WithMaxDecodedSize(c.Codec.MaxDecodedBytes),
	)
}

// StoreOptions returns the store.Open options described by c.
func (c Config) StoreOptions(logger *slog.Logger) store.Options {
	backend, _ := store.ParseBackend(c.Store.Backend)
	return store.Options{Backend: backend, Path: c.Store.Path, Logger: logger}
}

// LoggingOptions returns the logging options described by c.
func (c Config) LoggingOptions() logging.Options {
	return logging.Options{Level: c.Log.Level, Format: c.Log.Format, Verbose: c.Verbose}
}
