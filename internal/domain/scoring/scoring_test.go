package scoring_test

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/okian/fairfeed/internal/domain/model"
	scoring "github.com/okian/fairfeed/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

// mapLookup is a test AuthorLookup backed by a plain map.
type mapLookup map[string]model.Author

func (m mapLookup) Get(_ context.Context, id string) (model.Author, bool) {
	a, ok := m[id]
	return a, ok
}

func TestUnderexposureBoost(t *testing.T) {
	Convey("Given the underexposure boost factor", t, func() {
		Convey("When the author has zero visibility", func() {
			So(scoring.UnderexposureBoost(0), ShouldEqual, 1.0)
		})

		Convey("When the author is fully saturated", func() {
			So(scoring.UnderexposureBoost(100), ShouldEqual, 0.0)
		})

		Convey("When the author is underexposed", func() {
			So(scoring.UnderexposureBoost(10), ShouldAlmostEqual, 0.9)
		})

		Convey("When visibility is out of range it clamps", func() {
			So(scoring.UnderexposureBoost(150), ShouldEqual, 0.0)
			So(scoring.UnderexposureBoost(-10), ShouldEqual, 1.0)
		})

		Convey("Then lower visibility always boosts more", func() {
			So(scoring.UnderexposureBoost(10), ShouldBeGreaterThan, scoring.UnderexposureBoost(90))
			So(scoring.UnderexposureBoost(30), ShouldBeGreaterThan, scoring.UnderexposureBoost(31))
		})
	})
}

func TestFollowerBalance(t *testing.T) {
	Convey("Given the follower balance factor", t, func() {
		Convey("When the author has no followers", func() {
			So(scoring.FollowerBalance(0), ShouldEqual, 1.0)
		})

		Convey("When the author sits at the ceiling", func() {
			So(scoring.FollowerBalance(250_000), ShouldEqual, 0.0)
		})

		Convey("When the author exceeds the ceiling", func() {
			So(scoring.FollowerBalance(5_000_000), ShouldEqual, 0.0)
		})

		Convey("When the count is small", func() {
			So(scoring.FollowerBalance(50), ShouldAlmostEqual, 0.9998)
		})

		Convey("When the count is negative it is treated as zero", func() {
			So(scoring.FollowerBalance(-7), ShouldEqual, 1.0)
		})
	})
}

func TestImpressionDecay(t *testing.T) {
	Convey("Given the impression decay factor", t, func() {
		Convey("When the author has no recent impressions", func() {
			So(scoring.ImpressionDecay(0), ShouldEqual, 1.0)
		})

		Convey("When the author sits at the ceiling the floor holds", func() {
			So(scoring.ImpressionDecay(100_000), ShouldAlmostEqual, 0.2)
			So(scoring.ImpressionDecay(1_000_000), ShouldAlmostEqual, 0.2)
		})

		Convey("When the author is halfway to the ceiling", func() {
			So(scoring.ImpressionDecay(50_000), ShouldAlmostEqual, 0.6)
		})

		Convey("When the count is negative it is treated as zero", func() {
			So(scoring.ImpressionDecay(-1), ShouldEqual, 1.0)
		})
	})
}

func TestRecencyScore(t *testing.T) {
	Convey("Given the recency factor", t, func() {
		now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

		Convey("When the post was created right now", func() {
			So(scoring.RecencyScore(now, now), ShouldEqual, 1.0)
		})

		Convey("When the post is 48 hours old", func() {
			got := scoring.RecencyScore(now.Add(-48*time.Hour), now)
			So(got, ShouldAlmostEqual, math.Exp(-1), 1e-9)
			So(got, ShouldAlmostEqual, 0.368, 0.001)
		})

		Convey("When the timestamp is in the future", func() {
			So(scoring.RecencyScore(now.Add(2*time.Hour), now), ShouldEqual, 1.0)
		})

		Convey("Then older posts always score lower", func() {
			fresh := scoring.RecencyScore(now.Add(-1*time.Hour), now)
			stale := scoring.RecencyScore(now.Add(-10*time.Hour), now)
			ancient := scoring.RecencyScore(now.Add(-200*time.Hour), now)
			So(fresh, ShouldBeGreaterThan, stale)
			So(stale, ShouldBeGreaterThan, ancient)
			So(ancient, ShouldBeGreaterThan, 0)
		})
	})
}

func TestEngagementQuality(t *testing.T) {
	Convey("Given the engagement quality factor", t, func() {
		Convey("When the author has followers it measures rate", func() {
			// 5 engagement over 50 followers: rate 0.1 of a 10.0 ceiling.
			So(scoring.EngagementQuality(5, 50), ShouldAlmostEqual, 0.01)
		})

		Convey("When the author has no followers the raw sum is used", func() {
			So(scoring.EngagementQuality(5, 0), ShouldAlmostEqual, 0.5)
		})

		Convey("When the rate exceeds the ceiling it clamps to one", func() {
			So(scoring.EngagementQuality(100, 5), ShouldEqual, 1.0)
			So(scoring.EngagementQuality(50, 0), ShouldEqual, 1.0)
		})

		Convey("When engagement is negative it is treated as zero", func() {
			So(scoring.EngagementQuality(-3, 100), ShouldEqual, 0.0)
		})
	})
}

func TestWeights(t *testing.T) {
	Convey("Given the default weight calibration", t, func() {
		w := scoring.DefaultWeights()

		Convey("Then the primary weights sum to one", func() {
			primary := w.Underexposure + w.FollowerBalance + w.Recency + w.Engagement + w.Diversity
			So(primary, ShouldAlmostEqual, 1.0)
		})

		Convey("And the impression bonus sits on top", func() {
			So(w.ImpressionBonus, ShouldAlmostEqual, 0.10)
			total := w.Underexposure + w.FollowerBalance + w.Recency + w.Engagement + w.Diversity + w.ImpressionBonus
			So(total, ShouldAlmostEqual, 1.10)
		})

		Convey("When merging a partial override", func() {
			merged := w.Merge(scoring.Weights{Recency: 0.30})

			Convey("Then only the overridden field changes", func() {
				So(merged.Recency, ShouldAlmostEqual, 0.30)
				So(merged.Underexposure, ShouldAlmostEqual, 0.35)
				So(merged.Engagement, ShouldAlmostEqual, 0.15)
			})
		})

		Convey("When validating", func() {
			So(w.Validate(), ShouldBeNil)
			So(scoring.Weights{Underexposure: -0.1}.Validate(), ShouldEqual, scoring.ErrInvalidWeights)
			So(scoring.Weights{Recency: math.NaN()}.Validate(), ShouldEqual, scoring.ErrInvalidWeights)
		})
	})
}

func TestEngineScoreAll(t *testing.T) {
	Convey("Given an engine over a small author population", t, func() {
		now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		authors := mapLookup{
			"small": {ID: "small", VisibilityScore: 10, Followers: 50},
			"big":   {ID: "big", VisibilityScore: 90, Followers: 200_000},
		}
		engine := scoring.NewEngine(authors)

		posts := []model.Post{
			{ID: "p1", AuthorID: "small", CreatedAt: now, ContentType: model.ContentImage, Likes: 5},
			{ID: "p2", AuthorID: "big", CreatedAt: now.Add(-time.Hour), ContentType: model.ContentVideo, Likes: 5000},
			{ID: "p3", AuthorID: "missing", CreatedAt: now, ContentType: model.ContentText, Likes: 999},
		}

		Convey("When scoring the candidates", func() {
			ranked := engine.ScoreAll(context.Background(), posts, now)

			Convey("Then every post is kept in input order", func() {
				So(ranked, ShouldHaveLength, 3)
				So(ranked[0].Post.ID, ShouldEqual, "p1")
				So(ranked[1].Post.ID, ShouldEqual, "p2")
				So(ranked[2].Post.ID, ShouldEqual, "p3")
			})

			Convey("Then the underexposed small author outscores the saturated big one", func() {
				So(ranked[0].Score, ShouldBeGreaterThan, ranked[1].Score)
			})

			Convey("Then the unresolved post scores zero but stays", func() {
				So(ranked[2].Resolved, ShouldBeFalse)
				So(ranked[2].Score, ShouldEqual, 0.0)
			})

			Convey("Then resolved scores stay within the weight envelope", func() {
				So(ranked[0].Score, ShouldBeGreaterThan, 0)
				So(ranked[0].Score, ShouldBeLessThanOrEqualTo, 1.10)
				So(ranked[1].Score, ShouldBeLessThanOrEqualTo, 1.10)
			})
		})

		Convey("When scoring the same input twice at the same instant", func() {
			first := engine.ScoreAll(context.Background(), posts, now)
			second := engine.ScoreAll(context.Background(), posts, now)

			Convey("Then the scores are identical", func() {
				So(second, ShouldHaveLength, len(first))
				for i := range first {
					So(second[i].Score, ShouldEqual, first[i].Score)
				}
			})
		})

		Convey("When a content type repeats back to back", func() {
			same := []model.Post{
				{ID: "a", AuthorID: "small", CreatedAt: now, ContentType: model.ContentImage},
				{ID: "b", AuthorID: "small", CreatedAt: now, ContentType: model.ContentImage},
			}
			ranked := engine.ScoreAll(context.Background(), same, now)

			Convey("Then the repeat loses its diversity share", func() {
				w := engine.Weights()
				So(ranked[0].Score-ranked[1].Score, ShouldAlmostEqual, w.Diversity)
			})
		})

		Convey("When an unresolved post sits between resolved ones", func() {
			mixed := []model.Post{
				{ID: "a", AuthorID: "small", CreatedAt: now, ContentType: model.ContentImage},
				{ID: "ghost", AuthorID: "missing", CreatedAt: now, ContentType: model.ContentVideo},
				{ID: "b", AuthorID: "small", CreatedAt: now, ContentType: model.ContentImage},
			}
			control := []model.Post{
				{ID: "a", AuthorID: "small", CreatedAt: now, ContentType: model.ContentImage},
				{ID: "b", AuthorID: "small", CreatedAt: now, ContentType: model.ContentImage},
			}

			withGhost := engine.ScoreAll(context.Background(), mixed, now)
			without := engine.ScoreAll(context.Background(), control, now)

			Convey("Then the ghost leaves the diversity window untouched", func() {
				So(withGhost[2].Score, ShouldEqual, without[1].Score)
			})
		})

		Convey("When the engine is built with a custom calibration", func() {
			custom := scoring.DefaultWeights().Merge(scoring.Weights{Underexposure: 0.50})
			tuned := scoring.NewEngine(authors, scoring.WithWeights(custom))

			Convey("Then the calibration takes effect", func() {
				So(tuned.Weights().Underexposure, ShouldAlmostEqual, 0.50)
			})
		})

		Convey("When an invalid calibration is supplied", func() {
			bad := scoring.NewEngine(authors, scoring.WithWeights(scoring.Weights{Underexposure: -1}))

			Convey("Then the defaults are kept", func() {
				So(bad.Weights(), ShouldResemble, scoring.DefaultWeights())
			})
		})
	})
}
