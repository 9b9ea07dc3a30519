package feed

import (
	"context"
	"sort"

	"github.com/okian/fairfeed/internal/domain/model"
	"github.com/okian/fairfeed/pkg/metrics"
)

// Story ranking constants.
const (
	// storyImpressionCeiling normalizes recent impressions; it matches
	// the impression-decay ceiling used by the post scorer.
	storyImpressionCeiling = 100_000

	// storyImpressionWeight scales the impression term relative to the
	// underexposure term.
	storyImpressionWeight = 50.0

	storyVisibilityCeiling = 100.0
)

// StoryScore ranks an author for the story rail: underexposure plus a
// scaled freshness-of-exposure term. Unlike post scoring this uses
// author signals only.
func StoryScore(a model.Author) float64 {
	impressions := a.RecentImpressions
	if impressions < 0 {
		impressions = 0
	}
	ratio := float64(impressions) / storyImpressionCeiling
	return (storyVisibilityCeiling - a.VisibilityScore) + (1-ratio)*storyImpressionWeight
}

// RankStoryAuthors orders story author ids by StoryScore descending and
// returns a permutation of the input. Ids that fail to resolve are not
// moved: comparisons involving an unresolved side report equal, and the
// stable sort leaves their relative order alone.
func (r *Ranker) RankStoryAuthors(ctx context.Context, authorIDs []string) []string {
	type entry struct {
		id       string
		score    float64
		resolved bool
	}

	entries := make([]entry, len(authorIDs))
	for i, id := range authorIDs {
		author, ok := r.authors.Get(ctx, id)
		entries[i] = entry{id: id, resolved: ok}
		if ok {
			entries[i].score = StoryScore(author)
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].resolved || !entries[j].resolved {
			return false
		}
		return entries[i].score > entries[j].score
	})

	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.id
	}

	metrics.RecordStoryRanking()
	return out
}
