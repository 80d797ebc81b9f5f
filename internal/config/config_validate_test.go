package config

import (
	"strings"
	"testing"
)

const errExpectedValErr = "expected validation error"

func TestConfigValidate_Valid(t *testing.T) {
	cfg := Defaults()
	cfg.Store.Engine = "bolt"
	cfg.Store.OpenTimeout = "5s"
	cfg.View.Format = "pretty"
	cfg.Logging.Level = "debug"

	if err := cfg.Validate(); err != nil {
		t.Errorf("valid config should pass validation: %v", err)
	}
}

func TestConfigValidate_EmptyOptionalFields(t *testing.T) {
	// Empty engine, timeout, log level and log format should all be valid
	cfg := Defaults()
	cfg.Store.Engine = ""
	cfg.Store.OpenTimeout = ""
	cfg.Logging.Level = ""
	cfg.Logging.Format = ""

	if err := cfg.Validate(); err != nil {
		t.Errorf("config with empty optional fields should be valid: %v", err)
	}
}

func TestConfigValidate_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"engine", func(c *Config) { c.Store.Engine = "lmdb" }, "store.engine"},
		{"timeout syntax", func(c *Config) { c.Store.OpenTimeout = "soon" }, "store.open_timeout"},
		{"negative timeout", func(c *Config) { c.Store.OpenTimeout = "-1s" }, "store.open_timeout"},
		{"row limit", func(c *Config) { c.View.RowLimit = -1 }, "view.row_limit"},
		{"view format", func(c *Config) { c.View.Format = "csv" }, "view.format"},
		{"log level", func(c *Config) { c.Logging.Level = "verbose" }, "logging.level"},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal(errExpectedValErr)
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("error should mention %q: %v", tt.field, err)
			}
		})
	}
}

func TestConfigValidate_ReportsAll(t *testing.T) {
	cfg := Defaults()
	cfg.Store.Engine = "lmdb"
	cfg.View.RowLimit = -3

	err := cfg.Validate()
	if err == nil {
		t.Fatal(errExpectedValErr)
	}
	for _, field := range []string{"store.engine", "view.row_limit"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("error should mention %q: %v", field, err)
		}
	}
}

func TestConfigValidate_ZeroRowLimit(t *testing.T) {
	// Zero means no cap.
	cfg := Defaults()
	cfg.View.RowLimit = 0
	if err := cfg.Validate(); err != nil {
		t.Errorf("row_limit 0 should be valid: %v", err)
	}
}
