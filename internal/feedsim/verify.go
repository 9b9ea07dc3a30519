package feedsim

import (
	"context"
	"fmt"
	"log"
	"time"

	service "github.com/okian/fairfeed/internal/app"
	"github.com/okian/fairfeed/internal/domain/model"
	"github.com/okian/fairfeed/pkg/format"
)

// rankingParams carries the interleave settings the service was built
// with, so the checks agree with the loaded configuration.
type rankingParams struct {
	cadence           int
	slot              int
	underexposedBelow float64
}

// verifyFeed runs the ordering invariant checks against a ranked feed.
func verifyFeed(ctx context.Context, svc *service.Service, params rankingParams, posts []model.Post, ranked []model.RankedPost, now time.Time, stats *Stats) error {
	log.Println("🔍 Verifying feed invariants...")

	check(stats, "permutation", checkPermutation(posts, ranked))
	check(stats, "unresolved scored zero", checkUnresolvedScores(ranked))
	check(stats, "reserved slots", checkReservedSlots(params, ranked))
	check(stats, "idempotence", checkIdempotence(ctx, svc, posts, ranked, now))

	log.Println("✅ Feed verification completed")
	return nil
}

// check records one named invariant result.
func check(stats *Stats, name string, err error) {
	if err != nil {
		stats.ChecksFailed++
		log.Printf("❌ %s: %v", name, err)
		return
	}
	stats.ChecksPassed++
	log.Printf("✅ %s", name)
}

// checkPermutation confirms every input post appears in the output
// exactly once.
func checkPermutation(posts []model.Post, ranked []model.RankedPost) error {
	if len(ranked) != len(posts) {
		return fmt.Errorf("feed has %d posts, expected %d", len(ranked), len(posts))
	}

	counts := make(map[string]int, len(posts))
	for _, p := range posts {
		counts[p.ID]++
	}
	for _, rp := range ranked {
		counts[rp.Post.ID]--
		if counts[rp.Post.ID] < 0 {
			return fmt.Errorf("post %s appears more often than in the input", rp.Post.ID)
		}
	}
	for id, c := range counts {
		if c != 0 {
			return fmt.Errorf("post %s missing from the feed", id)
		}
	}
	return nil
}

// checkUnresolvedScores confirms posts with unknown authors were kept
// and scored zero.
func checkUnresolvedScores(ranked []model.RankedPost) error {
	for _, rp := range ranked {
		if !rp.Resolved && rp.Score != 0 {
			return fmt.Errorf("unresolved post %s has score %f", rp.Post.ID, rp.Score)
		}
	}
	return nil
}

// checkReservedSlots confirms the interleave contract: once a reserved
// slot holds a regular post the underexposed pool was empty, so no
// underexposed post may appear anywhere after it.
func checkReservedSlots(params rankingParams, ranked []model.RankedPost) error {
	poolExhaustedAt := -1
	for i, rp := range ranked {
		if i%params.cadence == params.slot && !underexposed(params, rp) {
			poolExhaustedAt = i
			break
		}
	}
	if poolExhaustedAt < 0 {
		return nil
	}
	for i := poolExhaustedAt; i < len(ranked); i++ {
		if underexposed(params, ranked[i]) {
			return fmt.Errorf("underexposed post at position %d after pool exhaustion at %d", i, poolExhaustedAt)
		}
	}
	return nil
}

func underexposed(params rankingParams, rp model.RankedPost) bool {
	return rp.Resolved && rp.Author.VisibilityScore < params.underexposedBelow
}

// checkIdempotence re-ranks the same candidates at the same instant and
// expects an identical ordering.
func checkIdempotence(ctx context.Context, svc *service.Service, posts []model.Post, ranked []model.RankedPost, now time.Time) error {
	again := svc.RankFeed(ctx, posts, now)
	if len(again) != len(ranked) {
		return fmt.Errorf("rerun produced %d posts, expected %d", len(again), len(ranked))
	}
	for i := range again {
		if again[i].ID != ranked[i].Post.ID {
			return fmt.Errorf("rerun diverges at position %d: %s vs %s", i, again[i].ID, ranked[i].Post.ID)
		}
	}
	return nil
}

// verifyStories confirms the story rail is a permutation of its input.
func verifyStories(ctx context.Context, ids, rankedIDs []string, stats *Stats) error {
	err := func() error {
		if len(rankedIDs) != len(ids) {
			return fmt.Errorf("story rail has %d ids, expected %d", len(rankedIDs), len(ids))
		}
		counts := make(map[string]int, len(ids))
		for _, id := range ids {
			counts[id]++
		}
		for _, id := range rankedIDs {
			counts[id]--
			if counts[id] < 0 {
				return fmt.Errorf("story id %s appears more often than in the input", id)
			}
		}
		return nil
	}()

	check(stats, "story permutation", err)
	return nil
}

// displayFeedSample prints the top of the ranked feed using the display
// helpers.
func displayFeedSample(ranked []model.RankedPost, now time.Time, sim *Config, params rankingParams) {
	topN := sim.SampleSize
	if topN <= 0 || topN > len(ranked) {
		topN = len(ranked)
	}

	log.Printf("🏆 Top %d feed positions:", topN)
	for i := 0; i < topN; i++ {
		rp := ranked[i]
		marker := " "
		if i%params.cadence == params.slot {
			marker = "*"
		}
		log.Printf("  %s%2d. %s [%s] score=%.4f followers=%s posted %s",
			marker, i+1, rp.Post.ID, rp.Post.ContentType,
			rp.Score,
			format.Count(rp.Author.Followers),
			format.TimeAgo(rp.Post.CreatedAt, now))
	}

	if sim.Verbose && len(ranked) > 0 {
		sum, maxScore, minScore := 0.0, ranked[0].Score, ranked[0].Score
		for _, rp := range ranked {
			sum += rp.Score
			if rp.Score > maxScore {
				maxScore = rp.Score
			}
			if rp.Score < minScore {
				minScore = rp.Score
			}
		}
		log.Printf(`📊 Score statistics:
   Average: %.4f
   Maximum: %.4f
   Minimum: %.4f
`, sum/float64(len(ranked)), maxScore, minScore)
	}
}
