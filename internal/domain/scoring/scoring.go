// Package scoring computes fairness-aware ranking scores for feed posts.
package scoring

import (
	"context"
	"math"
	"time"

	"github.com/okian/fairfeed/internal/domain/model"
	"github.com/okian/fairfeed/pkg/metrics"
)

// Factor constants. These are part of the scoring contract; changing them
// changes every score the engine produces.
const (
	// followerCeiling caps the follower-balance penalty. Accounts at or
	// above the ceiling take the full penalty.
	followerCeiling = 250_000

	// impressionCeiling is the recent-impression count at which the
	// impression-decay factor bottoms out.
	impressionCeiling = 100_000

	// impressionPenalty is the maximum fraction shaved off by impression
	// decay. An author at the ceiling keeps a 0.2 floor and is never
	// fully zeroed out.
	impressionPenalty = 0.8

	// recencyTimeConstant is the exponential decay constant in hours; a
	// 48 hour old post scores e^-1.
	recencyTimeConstant = 48.0

	// engagementCeiling caps engagement-per-follower before normalizing
	// to [0,1].
	engagementCeiling = 10.0

	// visibilityCeiling is the upper bound of the visibility score scale.
	visibilityCeiling = 100.0
)

// Weights combines the factor outputs into a single ranking score.
//
// The primary five weights sum to 1.0; ImpressionBonus is an additive
// bonus layered on top, so the total is deliberately 1.10. Calibration
// must preserve that shape for score compatibility.
type Weights struct {
	Underexposure   float64 `koanf:"underexposure"`
	FollowerBalance float64 `koanf:"follower_balance"`
	Recency         float64 `koanf:"recency"`
	Engagement      float64 `koanf:"engagement"`
	Diversity       float64 `koanf:"diversity"`
	ImpressionBonus float64 `koanf:"impression_bonus"`
}

// DefaultWeights returns the stock calibration.
func DefaultWeights() Weights {
	return Weights{
		Underexposure:   0.35,
		FollowerBalance: 0.25,
		Recency:         0.20,
		Engagement:      0.15,
		Diversity:       0.05,
		ImpressionBonus: 0.10,
	}
}

// Merge overlays non-zero fields of override onto w and returns the
// result. Zero fields in the override keep the base value, so partial
// calibrations degrade gracefully.
func (w Weights) Merge(override Weights) Weights {
	out := w
	if override.Underexposure != 0 {
		out.Underexposure = override.Underexposure
	}
	if override.FollowerBalance != 0 {
		out.FollowerBalance = override.FollowerBalance
	}
	if override.Recency != 0 {
		out.Recency = override.Recency
	}
	if override.Engagement != 0 {
		out.Engagement = override.Engagement
	}
	if override.Diversity != 0 {
		out.Diversity = override.Diversity
	}
	if override.ImpressionBonus != 0 {
		out.ImpressionBonus = override.ImpressionBonus
	}
	return out
}

// Validate rejects calibrations the aggregator cannot use.
func (w Weights) Validate() error {
	for _, v := range []float64{
		w.Underexposure, w.FollowerBalance, w.Recency,
		w.Engagement, w.Diversity, w.ImpressionBonus,
	} {
		if v < 0 || math.IsNaN(v) {
			return ErrInvalidWeights
		}
	}
	return nil
}

// AuthorLookup resolves an author snapshot by id. The engine calls it
// once per post during scoring and treats the result as immutable.
type AuthorLookup interface {
	Get(ctx context.Context, id string) (model.Author, bool)
}

// Engine scores candidate posts. It holds no per-call state: every
// ScoreAll invocation builds its own diversity window, so concurrent
// ranking calls never share anything mutable.
type Engine struct {
	authors    AuthorLookup
	weights    Weights
	windowSize int
}

// NewEngine creates a scoring engine backed by the given author lookup.
func NewEngine(authors AuthorLookup, opts ...Option) *Engine {
	e := &Engine{
		authors:    authors,
		weights:    DefaultWeights(),
		windowSize: DiversityWindowSize,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Weights returns the calibration in effect.
func (e *Engine) Weights() Weights {
	return e.weights
}

// ScoreAll computes a ranking score for every post, in input order.
// Posts whose author cannot be resolved receive score 0 and are kept;
// a data-join miss never drops content. The result is deterministic for
// identical inputs and an identical now.
func (e *Engine) ScoreAll(ctx context.Context, posts []model.Post, now time.Time) []model.RankedPost {
	start := time.Now()
	defer func() {
		metrics.RecordScoringLatency(float64(time.Since(start).Milliseconds()))
	}()

	win := NewTypeWindow(e.windowSize)
	ranked := make([]model.RankedPost, 0, len(posts))

	for _, p := range posts {
		author, ok := e.authors.Get(ctx, p.AuthorID)
		rp := model.RankedPost{Post: p, Author: author, Resolved: ok}
		if !ok {
			// Degraded-score policy: score stays 0, post stays in.
			metrics.RecordUnresolvedAuthor()
			ranked = append(ranked, rp)
			continue
		}

		rp.Score = e.weights.Underexposure*UnderexposureBoost(author.VisibilityScore) +
			e.weights.FollowerBalance*FollowerBalance(author.Followers) +
			e.weights.Recency*RecencyScore(p.CreatedAt, now) +
			e.weights.Engagement*EngagementQuality(p.EngagementSum(), author.Followers) +
			e.weights.Diversity*win.Diversity(p.ContentType) +
			e.weights.ImpressionBonus*ImpressionDecay(author.RecentImpressions)

		win.Observe(p.ContentType)
		metrics.RecordPostScored()
		ranked = append(ranked, rp)
	}

	return ranked
}

// UnderexposureBoost maps an author's visibility score to [0,1]. Authors
// with low historical exposure approach 1.0.
func UnderexposureBoost(visibility float64) float64 {
	return clamp01((visibilityCeiling - visibility) / visibilityCeiling)
}

// FollowerBalance penalizes large accounts: 1 at zero followers, 0 at
// the follower ceiling and beyond.
func FollowerBalance(followers int64) float64 {
	if followers < 0 {
		followers = 0
	}
	ratio := float64(followers) / followerCeiling
	if ratio > 1 {
		ratio = 1
	}
	return 1 - ratio
}

// ImpressionDecay down-weights authors who already received many recent
// impressions. Bounded to [0.2, 1.0].
func ImpressionDecay(recentImpressions int64) float64 {
	if recentImpressions < 0 {
		recentImpressions = 0
	}
	ratio := float64(recentImpressions) / impressionCeiling
	if ratio > 1 {
		ratio = 1
	}
	return 1 - impressionPenalty*ratio
}

// RecencyScore applies exponential decay with a 48 hour time constant.
// Future timestamps are treated as "now".
func RecencyScore(createdAt, now time.Time) float64 {
	age := now.Sub(createdAt).Hours()
	if age < 0 {
		age = 0
	}
	return math.Exp(-age / recencyTimeConstant)
}

// EngagementQuality normalizes engagement volume by audience size,
// capturing engagement rate rather than raw popularity. When the author
// has no followers the raw sum is used directly to avoid dividing by
// zero. Result is clamped to [0,1].
func EngagementQuality(engagement float64, followers int64) float64 {
	if engagement < 0 {
		engagement = 0
	}
	rate := engagement
	if followers > 0 {
		rate = engagement / float64(followers)
	}
	if rate > engagementCeiling {
		rate = engagementCeiling
	}
	return rate / engagementCeiling
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
