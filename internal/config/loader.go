package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if UNHYPE_CONFIG is set
//  3. env (prefix UNHYPE_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("UNHYPE_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: UNHYPE_SERVICE_URL, UNHYPE_HISTORY_PATH, ...
	// Map env keys like UNHYPE_SERVICE_URL -> service_url (flat keys).
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("UNHYPE_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "unhype_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.ServiceURL == "":
		return fmt.Errorf("%w: service_url must not be empty", ErrInvalidConfig)
	case c.ReadBufferSize <= 0:
		return fmt.Errorf("%w: read_buffer_size must be positive", ErrInvalidConfig)
	case c.HistoryLimit < 0:
		return fmt.Errorf("%w: history_limit must not be negative", ErrInvalidConfig)
	}
	switch c.Strength {
	case "light", "medium", "aggressive":
	default:
		return fmt.Errorf("%w: unknown strength %q", ErrInvalidConfig, c.Strength)
	}
	return nil
}
