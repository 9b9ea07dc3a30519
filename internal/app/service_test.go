package service_test

import (
	"context"
	"testing"
	"time"

	service "github.com/okian/fairfeed/internal/app"
	"github.com/okian/fairfeed/internal/domain/model"
	"github.com/okian/fairfeed/internal/domain/scoring"
	"github.com/okian/fairfeed/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it should have sensible defaults", func() {
			So(svc, ShouldNotBeNil)
			So(svc.Size(), ShouldEqual, 0)
		})
	})

	Convey("Given a new service with custom options", t, func() {
		svc := service.New(
			service.WithWorkerCount(8),
			service.WithQueueSize(50_000),
			service.WithDedupeSize(25_000),
			service.WithVisibilityStep(0.01),
			service.WithWeights(scoring.DefaultWeights().Merge(scoring.Weights{Underexposure: 0.40})),
			service.WithInterleave(5, 1),
			service.WithUnderexposedThreshold(25.0),
		)

		Convey("Then it should be created successfully", func() {
			So(svc, ShouldNotBeNil)
		})
	})
}

func TestService_StartStop(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New(service.WithWorkerCount(2))
		defer svc.Stop()

		Convey("When starting the service", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			err := svc.Start(ctx)

			Convey("Then it should start successfully", func() {
				So(err, ShouldBeNil)
			})

			Convey("And it should be marked as started", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldBeTrue)
				So(stats["workerCount"], ShouldEqual, 2)
			})

			Convey("And starting again should be a no-op", func() {
				So(svc.Start(ctx), ShouldBeNil)
			})

			Convey("And stopping twice should be safe", func() {
				svc.Stop()
				So(func() { svc.Stop() }, ShouldNotPanic)
			})
		})
	})
}

func TestService_RecordImpression(t *testing.T) {
	Convey("Given a started service with a seeded author", t, func() {
		svc := service.New(service.WithWorkerCount(2))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		So(svc.UpsertAuthor(ctx, model.Author{ID: "author-1", VisibilityScore: 10}), ShouldBeNil)

		Convey("When the same event id is recorded twice", func() {
			imp := model.Impression{EventID: "evt-1", AuthorID: "author-1", PostID: "p1", TS: time.Now()}

			first := svc.RecordImpression(ctx, imp)
			second := svc.RecordImpression(ctx, imp)

			Convey("Then both calls report handled", func() {
				So(first, ShouldBeTrue)
				So(second, ShouldBeTrue)
			})

			Convey("And the deduper tracks the id once", func() {
				So(svc.Size(), ShouldEqual, 1)
			})
		})

		Convey("When distinct events are recorded", func() {
			for _, id := range []string{"evt-1", "evt-2", "evt-3"} {
				So(svc.RecordImpression(ctx, model.Impression{EventID: id, AuthorID: "author-1"}), ShouldBeTrue)
			}

			Convey("Then each id counts", func() {
				So(svc.Size(), ShouldEqual, 3)
			})
		})
	})
}

func TestService_Ranking(t *testing.T) {
	Convey("Given a started service with a mixed author population", t, func() {
		svc := service.New(service.WithWorkerCount(2))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		now := time.Now().UTC()
		So(svc.UpsertAuthor(ctx, model.Author{ID: "buried", VisibilityScore: 5, Followers: 100}), ShouldBeNil)
		So(svc.UpsertAuthor(ctx, model.Author{ID: "famous", VisibilityScore: 90, Followers: 240_000, RecentImpressions: 80_000}), ShouldBeNil)

		Convey("When ranking a candidate feed", func() {
			posts := []model.Post{
				{ID: "p1", AuthorID: "famous", CreatedAt: now.Add(-time.Hour), ContentType: model.ContentVideo, Likes: 9000},
				{ID: "p2", AuthorID: "buried", CreatedAt: now.Add(-2 * time.Hour), ContentType: model.ContentImage, Likes: 3},
				{ID: "p3", AuthorID: "ghost", CreatedAt: now, ContentType: model.ContentText},
			}
			out := svc.RankFeed(ctx, posts, now)

			Convey("Then the output is a permutation of the input", func() {
				So(out, ShouldHaveLength, 3)
				seen := map[string]bool{}
				for _, p := range out {
					seen[p.ID] = true
				}
				So(seen["p1"], ShouldBeTrue)
				So(seen["p2"], ShouldBeTrue)
				So(seen["p3"], ShouldBeTrue)
			})

			Convey("And the detailed variant exposes scores", func() {
				detailed := svc.RankFeedDetailed(ctx, posts, now)
				So(detailed, ShouldHaveLength, 3)
				for _, rp := range detailed {
					if rp.Post.ID == "p3" {
						So(rp.Resolved, ShouldBeFalse)
						So(rp.Score, ShouldEqual, 0.0)
					}
				}
			})
		})

		Convey("When ranking the story rail", func() {
			out := svc.RankStories(ctx, []string{"famous", "buried"})

			Convey("Then the underexposed author leads", func() {
				So(out, ShouldResemble, []string{"buried", "famous"})
			})
		})

		Convey("When requesting stats", func() {
			stats := svc.GetStats()

			Convey("Then the author population is reported", func() {
				So(stats["totalAuthors"], ShouldEqual, 2)
			})
		})
	})
}
