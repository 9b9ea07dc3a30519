// Package repository defines the author statistics store interface and
// errors. The ranking engine consumes this store as a read-only lookup;
// the impression pipeline writes to it.
package repository

import (
	"context"

	"github.com/okian/fairfeed/internal/domain/model"
)

// AuthorStore provides access to per-author exposure statistics.
type AuthorStore interface {
	// Get returns a snapshot of the author, or false if unknown.
	Get(ctx context.Context, id string) (model.Author, bool)

	// Put inserts or replaces an author record.
	Put(ctx context.Context, author model.Author) error

	// AddImpressions folds n delivered impressions into the author's
	// statistics: the recent-impression count grows by n and the
	// visibility score is nudged upward, clamped to [0,100].
	// Returns ErrNotFound for unknown authors.
	AddImpressions(ctx context.Context, id string, n int64) error

	// DecayImpressions rolls the recent-impression window: every
	// author's count is scaled by factor (in [0,1]). Used by periodic
	// window maintenance.
	DecayImpressions(ctx context.Context, factor float64) error

	// Count returns the number of authors tracked.
	Count(ctx context.Context) int
}
