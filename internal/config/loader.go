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
//  2. file (YAML) if FAIRFEED_CONFIG is set
//  3. env (prefix FAIRFEED_)
func Load(ctx context.Context) (*Config, error) {
	// Start with defaults
	base := New(ctx)

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("FAIRFEED_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: FAIRFEED_LOG_LEVEL, FAIRFEED_QUEUE_SIZE, ...
	// Map env keys like FAIRFEED_QUEUE_SIZE -> queue_size (flat keys)
	// Preserve underscores to match koanf tags on the struct. Nested
	// keys use double underscores: FAIRFEED_RANKING__CADENCE.
	envProvider := env.Provider("FAIRFEED_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "fairfeed_")
		s = strings.ReplaceAll(s, "__", ".")
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

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate rejects configurations the pipeline cannot run with.
func validate(cfg *Config) error {
	if cfg.ImpressionQueueSize < 1 {
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	}
	if cfg.VisibilityStep <= 0 {
		return fmt.Errorf("%w: visibility_step must be positive", ErrInvalidConfig)
	}
	if cfg.Ranking.Cadence < 2 {
		return fmt.Errorf("%w: ranking cadence must be at least 2", ErrInvalidConfig)
	}
	if cfg.Ranking.Slot < 0 || cfg.Ranking.Slot >= cfg.Ranking.Cadence {
		return fmt.Errorf("%w: ranking slot must be within the cadence cycle", ErrInvalidConfig)
	}
	if cfg.Ranking.UnderexposedBelow <= 0 {
		return fmt.Errorf("%w: underexposed_below must be positive", ErrInvalidConfig)
	}
	if cfg.Ranking.DiversityWindow < 1 {
		return fmt.Errorf("%w: diversity_window must be positive", ErrInvalidConfig)
	}
	if err := cfg.Ranking.Weights.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
