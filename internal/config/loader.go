package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if LEADGATE_CONFIG is set
//  3. env (prefix LEADGATE_)
func Load(ctx context.Context) (*Config, error) {
	// Start with defaults
	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("LEADGATE_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
		}
	}

	// Environment variables: LEADGATE_ADDR, LEADGATE_QUEUE_SIZE, ...
	// A double underscore descends into a section, preserving underscores
	// inside key names: LEADGATE_SHEET__SPREADSHEET_ID -> sheet.spreadsheet_id.
	envProvider := env.Provider("LEADGATE_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "leadgate_")
		return strings.ReplaceAll(s, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate performs basic structural checks on a loaded Config.
func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.QueueSize < 1:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.WorkerCount < 1:
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	case c.Sheet.TotalColumns < 1:
		return fmt.Errorf("%w: sheet.total_columns must be positive", ErrInvalidConfig)
	}
	if c.Sheet.SpreadsheetID != "" && c.Sheet.SheetName == "" {
		return fmt.Errorf("%w: sheet.sheet_name required when sheet.spreadsheet_id is set", ErrInvalidConfig)
	}
	if c.Sheet.Timezone != "" {
		// Fail fast on an unknown timezone rather than at first append.
		if _, err := time.LoadLocation(c.Sheet.Timezone); err != nil {
			return fmt.Errorf("%w: unknown sheet.timezone %q", ErrInvalidConfig, c.Sheet.Timezone)
		}
	}
	return nil
}
