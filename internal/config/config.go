// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) initializer to build a Config with defaults.
// - All future functions must accept context.Context as the first parameter.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"context"
	"runtime"

	"github.com/okian/fairfeed/internal/domain/scoring"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// ImpressionQueueSize bounds the in-memory impression queue.
	ImpressionQueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of impression workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// VisibilityStep is the visibility credit an author earns per
	// recorded impression.
	VisibilityStep float64 `koanf:"visibility_step"`

	// Ranking holds the score calibration knobs.
	Ranking RankingConfig `koanf:"ranking"`
}

// RankingConfig calibrates the feed ranking engine.
type RankingConfig struct {
	// Weights override the default factor weights; zero fields keep
	// their defaults.
	Weights scoring.Weights `koanf:"weights"`

	// Cadence is the interleave stride; every Cadence-th slot starting
	// at Slot is reserved for an underexposed author.
	Cadence int `koanf:"cadence"`

	// Slot is the reserved offset within each cadence cycle.
	Slot int `koanf:"slot"`

	// UnderexposedBelow is the visibility score under which an author
	// qualifies for reserved slots.
	UnderexposedBelow float64 `koanf:"underexposed_below"`

	// DiversityWindow is the number of trailing posts consulted by the
	// content-type diversity factor.
	DiversityWindow int `koanf:"diversity_window"`
}

// New creates a Config using defaults. Context is accepted first to
// satisfy the project-wide convention; it is reserved for future use
// (e.g., loading from env/files) and is currently unused.
func New(_ context.Context) *Config {
	c := &Config{
		LogLevel:            "info",
		ImpressionQueueSize: 100_000,
		WorkerCount:         runtime.NumCPU() * 2,
		DedupeSize:          50_000,
		VisibilityStep:      0.001,
		Ranking: RankingConfig{
			Weights:           scoring.DefaultWeights(),
			Cadence:           4,
			Slot:              2,
			UnderexposedBelow: 30.0,
			DiversityWindow:   scoring.DiversityWindowSize,
		},
	}
	return c
}
