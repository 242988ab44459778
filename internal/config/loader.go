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
//  1. defaults (New(ctx))
//  2. file (YAML) if CSCORE_CONFIG is set
//  3. env (prefix CSCORE_)
func Load(ctx context.Context) (*Config, error) {
	// Start with defaults
	base := New(ctx)

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("CSCORE_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
		}
	}

	// Environment variables: CSCORE_ADDR, CSCORE_POOL_TOTAL, ...
	// Map env keys like CSCORE_POOL_TOTAL -> pool_total (flat keys)
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("CSCORE_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "cscore_")
		return s
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

func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.PoolTotal < 0:
		return fmt.Errorf("%w: pool_total must not be negative", ErrInvalidConfig)
	case c.BoostMultiplier < 0:
		return fmt.Errorf("%w: boost_multiplier must not be negative", ErrInvalidConfig)
	case c.WindowSize < 1:
		return fmt.Errorf("%w: window_size must be positive", ErrInvalidConfig)
	case c.RefreshIntervalSec < 1:
		return fmt.Errorf("%w: refresh_interval_sec must be positive", ErrInvalidConfig)
	case c.TalentBaseURL == "":
		return fmt.Errorf("%w: talent_base_url must not be empty", ErrInvalidConfig)
	}
	return nil
}
