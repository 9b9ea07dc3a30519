package model_test

import (
	"testing"
	"time"

	model "github.com/okian/fairfeed/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestPost(t *testing.T) {
	convey.Convey("Given a Post struct", t, func() {
		convey.Convey("When creating a new post", func() {
			created := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
			post := model.Post{
				ID:          "post-123",
				AuthorID:    "author-456",
				CreatedAt:   created,
				ContentType: model.ContentImage,
				Likes:       10,
				Comments:    3,
				Shares:      1,
			}

			convey.Convey("Then it should have the correct values", func() {
				convey.So(post.ID, convey.ShouldEqual, "post-123")
				convey.So(post.AuthorID, convey.ShouldEqual, "author-456")
				convey.So(post.CreatedAt, convey.ShouldEqual, created)
				convey.So(post.ContentType, convey.ShouldEqual, model.ContentImage)
			})

			convey.Convey("Then the engagement sum weights comments and shares", func() {
				// 10 + 2*3 + 3*1 = 19
				convey.So(post.EngagementSum(), convey.ShouldEqual, 19.0)
			})
		})

		convey.Convey("When a post carries negative counters", func() {
			post := model.Post{
				ID:       "post-neg",
				Likes:    -5,
				Comments: 2,
				Shares:   -1,
			}

			convey.Convey("Then negatives are clamped to zero in the sum", func() {
				convey.So(post.EngagementSum(), convey.ShouldEqual, 4.0)
			})
		})

		convey.Convey("When creating a post with zero values", func() {
			post := model.Post{}

			convey.Convey("Then it should have default values", func() {
				convey.So(post.ID, convey.ShouldEqual, "")
				convey.So(post.EngagementSum(), convey.ShouldEqual, 0.0)
				convey.So(post.CreatedAt, convey.ShouldEqual, time.Time{})
			})
		})
	})
}

func TestAuthor(t *testing.T) {
	convey.Convey("Given an Author struct", t, func() {
		convey.Convey("When creating a new author snapshot", func() {
			author := model.Author{
				ID:                "author-1",
				Followers:         1200,
				VisibilityScore:   42.5,
				RecentImpressions: 300,
			}

			convey.Convey("Then it should have the correct values", func() {
				convey.So(author.ID, convey.ShouldEqual, "author-1")
				convey.So(author.Followers, convey.ShouldEqual, 1200)
				convey.So(author.VisibilityScore, convey.ShouldEqual, 42.5)
				convey.So(author.RecentImpressions, convey.ShouldEqual, 300)
			})
		})
	})
}

func TestRankedPost(t *testing.T) {
	convey.Convey("Given a RankedPost", t, func() {
		convey.Convey("When the author did not resolve", func() {
			rp := model.RankedPost{
				Post:     model.Post{ID: "post-x", AuthorID: "ghost"},
				Score:    0,
				Resolved: false,
			}

			convey.Convey("Then it still carries the post with score zero", func() {
				convey.So(rp.Post.ID, convey.ShouldEqual, "post-x")
				convey.So(rp.Score, convey.ShouldEqual, 0.0)
				convey.So(rp.Resolved, convey.ShouldBeFalse)
			})
		})
	})
}
