// Package config loads draftmark configuration from a TOML file with
// environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// EnvPrefix is the prefix for environment overrides.
const EnvPrefix = "DRAFTMARK_"

// Duration is a time.Duration that unmarshals from TOML strings like
// "500ms" or "5s".
type Duration time.Duration

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText renders the duration in Go notation.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the full application configuration.
type Config struct {
	Log      LogConfig      `toml:"log"`
	Editor   EditorConfig   `toml:"editor"`
	Autosave AutosaveConfig `toml:"autosave"`
	Store    StoreConfig    `toml:"store"`
	Server   ServerConfig   `toml:"server"`
	Paths    PathsConfig    `toml:"paths"`
}

// LogConfig controls logging output.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `toml:"level" validate:"oneof=debug info warn error"`
}

// EditorConfig holds engine tunables.
type EditorConfig struct {
	// TypingWindow is the coalescing window for typing bursts.
	TypingWindow Duration `toml:"typing_window" validate:"gt=0"`

	// MaxUndoEntries caps the undo history depth.
	MaxUndoEntries int `toml:"max_undo_entries" validate:"gt=0"`
}

// AutosaveConfig holds the save scheduler tunables.
type AutosaveConfig struct {
	// Delay is the quiet period between the last edit and a save.
	Delay Duration `toml:"delay" validate:"gt=0"`

	// RetryInitial is the first retry delay after a transient failure.
	RetryInitial Duration `toml:"retry_initial" validate:"gt=0"`

	// RetryMax caps the retry delay.
	RetryMax Duration `toml:"retry_max" validate:"gtefield=RetryInitial"`
}

// StoreConfig points at the draft-store collaborator.
type StoreConfig struct {
	// URL is the store's base URL.
	URL string `toml:"url" validate:"url"`

	// APIKey authenticates store calls. Empty disables auth.
	APIKey string `toml:"api_key"`
}

// ServerConfig holds the dev server tunables.
type ServerConfig struct {
	// Addr is the listen address.
	Addr string `toml:"addr" validate:"required"`

	// DBPath is the sqlite database file.
	DBPath string `toml:"db_path" validate:"required"`

	// WriteRate is the per-draft write limit in requests per second.
	WriteRate float64 `toml:"write_rate" validate:"gt=0"`

	// WriteBurst is the per-draft write burst size.
	WriteBurst int `toml:"write_burst" validate:"gt=0"`

	// MaxBodyBytes caps PUT request bodies.
	MaxBodyBytes int64 `toml:"max_body_bytes" validate:"gt=0"`
}

// PathsConfig holds local filesystem locations.
type PathsConfig struct {
	// DataDir holds the crash-recovery journal.
	DataDir string `toml:"data_dir" validate:"required"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Log: LogConfig{Level: "info"},
		Editor: EditorConfig{
			TypingWindow:   Duration(500 * time.Millisecond),
			MaxUndoEntries: 1000,
		},
		Autosave: AutosaveConfig{
			Delay:        Duration(5 * time.Second),
			RetryInitial: Duration(time.Second),
			RetryMax:     Duration(30 * time.Second),
		},
		Store: StoreConfig{URL: "http://localhost:8470"},
		Server: ServerConfig{
			Addr:         ":8470",
			DBPath:       "drafts.db",
			WriteRate:    5,
			WriteBurst:   10,
			MaxBodyBytes: 1 << 20,
		},
		Paths: PathsConfig{DataDir: defaultDataDir()},
	}
}

// Load reads the config file at path, applies environment overrides,
// and validates the result. A missing file is not an error: defaults
// plus the environment apply.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Defaults apply.
		case err != nil:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration's struct tags.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

var validate = validator.New()

// applyEnv overlays DRAFTMARK_-prefixed environment variables onto cfg.
// Lookup is injected so tests run without touching the process env.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}
	str("LOG_LEVEL", &cfg.Log.Level)
	str("STORE_URL", &cfg.Store.URL)
	str("STORE_API_KEY", &cfg.Store.APIKey)
	str("SERVER_ADDR", &cfg.Server.Addr)
	str("SERVER_DB_PATH", &cfg.Server.DBPath)
	str("DATA_DIR", &cfg.Paths.DataDir)

	durations := map[string]*Duration{
		"TYPING_WINDOW":  &cfg.Editor.TypingWindow,
		"AUTOSAVE_DELAY": &cfg.Autosave.Delay,
		"RETRY_INITIAL":  &cfg.Autosave.RetryInitial,
		"RETRY_MAX":      &cfg.Autosave.RetryMax,
	}
	for key, dst := range durations {
		v, ok := lookup(EnvPrefix + key)
		if !ok {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse %s%s: %w", EnvPrefix, key, err)
		}
		*dst = Duration(d)
	}

	if v, ok := lookup(EnvPrefix + "MAX_UNDO_ENTRIES"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse %sMAX_UNDO_ENTRIES: %w", EnvPrefix, err)
		}
		cfg.Editor.MaxUndoEntries = n
	}
	return nil
}

func defaultDataDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "draftmark")
	}
	return ".draftmark"
}
