package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dbviewer/internal/logging"
	"dbviewer/internal/store"

	"github.com/BurntSushi/toml"
)

// DefaultPath is where Load looks when no config file is given.
const DefaultPath = "~/.dbviewer/config.toml"

// Output formats accepted by View.Format.
var formats = []string{"text", "json", "pretty"}

type Config struct {
	Store   StoreConfig   `toml:"store"`
	View    ViewConfig    `toml:"view"`
	Logging LoggingConfig `toml:"logging"`
}

type StoreConfig struct {
	Path        string `toml:"path"`
	Engine      string `toml:"engine"`
	OpenTimeout string `toml:"open_timeout"`
}

type ViewConfig struct {
	RowLimit int    `toml:"row_limit"`
	Format   string `toml:"format"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	File   string `toml:"file"` // browse mode only; empty discards
}

// Defaults returns a Config with sane defaults.
func Defaults() *Config {
	return &Config{
		Store: StoreConfig{
			Engine:      string(store.EngineAuto),
			OpenTimeout: "1s",
		},
		View: ViewConfig{
			RowLimit: 10_000,
			Format:   "text",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a TOML config file and returns the parsed Config.
// If path is empty, DefaultPath is tried and defaults are returned when it
// does not exist.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path == "" {
		path = expandHome(DefaultPath)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Validate checks field values. It reports every problem found, joined.
func (c *Config) Validate() error {
	var errs []error
	if _, err := store.ParseEngine(c.Store.Engine); err != nil {
		errs = append(errs, fmt.Errorf("store.engine: %w", err))
	}
	if _, err := c.Store.Timeout(); err != nil {
		errs = append(errs, fmt.Errorf("store.open_timeout: %w", err))
	}
	if c.View.RowLimit < 0 {
		errs = append(errs, fmt.Errorf("view.row_limit: must not be negative, got %d", c.View.RowLimit))
	}
	if !validFormat(c.View.Format) {
		errs = append(errs, fmt.Errorf("view.format: unknown format %q (want %s)", c.View.Format, strings.Join(formats, ", ")))
	}
	if !logging.ValidLevel(c.Logging.Level) {
		errs = append(errs, fmt.Errorf("logging.level: unknown level %q", c.Logging.Level))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format: unknown format %q (want text or json)", c.Logging.Format))
	}
	return errors.Join(errs...)
}

// Timeout parses OpenTimeout. An empty value means no timeout.
func (s StoreConfig) Timeout() (time.Duration, error) {
	if s.OpenTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s.OpenTimeout)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %s", d)
	}
	return d, nil
}

func validFormat(f string) bool {
	for _, known := range formats {
		if f == known {
			return true
		}
	}
	return false
}

// ExpandHome resolves a leading ~/ to the user's home directory.
func ExpandHome(path string) string {
	return expandHome(path)
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
