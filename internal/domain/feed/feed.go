// Package feed orders scored posts into the final feed sequence, with a
// fairness interleave that guarantees underexposed authors a slot at a
// fixed cadence instead of relying on score alone.
package feed

import (
	"context"
	"sort"
	"time"

	"github.com/okian/fairfeed/internal/domain/model"
	"github.com/okian/fairfeed/internal/domain/scoring"
	"github.com/okian/fairfeed/pkg/metrics"
)

// Default interleave parameters.
const (
	// defaultCadence is the interleave group size: one underexposed slot
	// per group of this many positions.
	defaultCadence = 4

	// defaultSlot is the 0-indexed position within each group reserved
	// for underexposed authors.
	defaultSlot = 2

	// defaultUnderexposedBelow is the visibility-score threshold under
	// which an author counts as underexposed.
	defaultUnderexposedBelow = 30.0
)

// Ranker produces the final feed ordering: score, stable-sort
// descending, then fairness-interleave. It is safe for concurrent use;
// all mutable state lives inside a single call.
type Ranker struct {
	engine  *scoring.Engine
	authors scoring.AuthorLookup

	cadence           int
	slot              int
	underexposedBelow float64
}

// NewRanker creates a feed ranker on top of a scoring engine. The author
// lookup is the same capability the engine scores against.
func NewRanker(engine *scoring.Engine, authors scoring.AuthorLookup, opts ...Option) *Ranker {
	r := &Ranker{
		engine:            engine,
		authors:           authors,
		cadence:           defaultCadence,
		slot:              defaultSlot,
		underexposedBelow: defaultUnderexposedBelow,
	}

	for _, opt := range opts {
		opt(r)
	}

	// Validate the slot against the final cadence, not the cadence at
	// option-application time. A slot past the end of the group clamps
	// to the last position.
	if r.slot >= r.cadence {
		r.slot = r.cadence - 1
	}

	return r
}

// RankPosts returns the input posts in final feed order. The output is a
// permutation of the input: every post appears exactly once, including
// posts whose author could not be resolved.
func (r *Ranker) RankPosts(ctx context.Context, posts []model.Post, now time.Time) []model.Post {
	ranked := r.RankedPosts(ctx, posts, now)
	out := make([]model.Post, len(ranked))
	for i, rp := range ranked {
		out[i] = rp.Post
	}
	return out
}

// RankedPosts is RankPosts with the computed scores and author snapshots
// still attached. The scores are an internal detail of the ordering but
// exposing them is harmless and useful for debugging and calibration.
func (r *Ranker) RankedPosts(ctx context.Context, posts []model.Post, now time.Time) []model.RankedPost {
	start := time.Now()
	defer func() {
		metrics.RecordRankingLatency(float64(time.Since(start).Milliseconds()))
	}()

	ranked := r.engine.ScoreAll(ctx, posts, now)

	// Stable: equal scores keep their relative input order, so a rerun
	// over the same input reproduces the same feed.
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	out := r.interleave(ranked)
	metrics.RecordFeedRanked(len(out))
	return out
}

// underexposed reports whether a scored post belongs to the underexposed
// pool. Unresolved authors never qualify: the check needs a resolved
// visibility score.
func (r *Ranker) underexposed(rp model.RankedPost) bool {
	return rp.Resolved && rp.Author.VisibilityScore < r.underexposedBelow
}
