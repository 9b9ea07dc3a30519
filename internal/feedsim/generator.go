package feedsim

import (
	"context"
	"crypto/rand"
	"math/big"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/okian/fairfeed/internal/domain/model"
	"github.com/okian/fairfeed/pkg/logger"
)

// Constants for random number generation.
const (
	randomFloatDivisor  = 1000000
	visibilityTierCount = 5
	followerTierCount   = 5
	contentTypeCount    = 3
	engagementTierCount = 4
	maxPostAgeHours     = 96
)

// Constants for visibility tier cases.
const (
	caseInvisibleAuthor = 0
	caseLowVisibility   = 1
	caseMidVisibility   = 2
	caseHighVisibility  = 3
	caseTopVisibility   = 4
)

// Constants for follower tier cases.
const (
	caseNanoAuthor  = 0
	caseMicroAuthor = 1
	caseMidAuthor   = 2
	caseMacroAuthor = 3
	caseMegaAuthor  = 4
)

// Constants for visibility tier ranges.
const (
	invisibleMax     = 10.0
	lowVisibilityMin = 10.0
	lowVisRange      = 20.0
	midVisibilityMin = 30.0
	midVisRange      = 30.0
	highVisMin       = 60.0
	highVisRange     = 30.0
	topVisMin        = 90.0
	topVisRange      = 10.0
)

// Constants for follower tier ranges.
const (
	nanoFollowerMax   = 1_000
	microFollowerMax  = 10_000
	midFollowerMax    = 100_000
	macroFollowerMax  = 1_000_000
	megaFollowerMax   = 5_000_000
	maxRecentExposure = 80_000
)

// Constants for engagement tiers.
const (
	quietPostMax  = 20
	activePostMax = 500
	viralPostMax  = 50_000
	commentDiv    = 5
	shareDiv      = 10
)

// getRandomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

// getRandomInt returns a random int64 in [0, max).
func getRandomInt(max int64) int64 {
	if max <= 0 {
		return 0
	}
	n, _ := rand.Int(rand.Reader, big.NewInt(max))
	return n.Int64()
}

// generateAuthors creates authors across varied visibility and follower
// tiers so the fairness interleave has real underexposed candidates to
// work with.
func generateAuthors(ctx context.Context, config *Config, stats *Stats) []model.Author {
	logger.Get().Info(ctx, "generating authors", logger.Int("numAuthors", config.NumAuthors))

	authors := make([]model.Author, config.NumAuthors)
	for i := range authors {
		authors[i] = model.Author{
			ID:                uuid.New().String(),
			Followers:         generateFollowerCount(),
			VisibilityScore:   generateVisibility(),
			RecentImpressions: getRandomInt(maxRecentExposure),
		}
	}

	stats.AuthorsSeeded = len(authors)
	return authors
}

// generateVisibility draws a visibility score from tiered ranges.
func generateVisibility() float64 {
	switch getRandomInt(visibilityTierCount) {
	case caseInvisibleAuthor:
		// Brand new or buried authors (0 - 10)
		return getRandomFloat() * invisibleMax
	case caseLowVisibility:
		// Underexposed (10 - 30)
		return lowVisibilityMin + getRandomFloat()*lowVisRange
	case caseMidVisibility:
		// Average exposure (30 - 60)
		return midVisibilityMin + getRandomFloat()*midVisRange
	case caseHighVisibility:
		// Well exposed (60 - 90)
		return highVisMin + getRandomFloat()*highVisRange
	case caseTopVisibility:
		// Saturated (90 - 100)
		return topVisMin + getRandomFloat()*topVisRange
	default:
		return midVisibilityMin + getRandomFloat()*midVisRange
	}
}

// generateFollowerCount draws a follower count from tiered ranges.
func generateFollowerCount() int64 {
	switch getRandomInt(followerTierCount) {
	case caseNanoAuthor:
		return getRandomInt(nanoFollowerMax)
	case caseMicroAuthor:
		return nanoFollowerMax + getRandomInt(microFollowerMax-nanoFollowerMax)
	case caseMidAuthor:
		return microFollowerMax + getRandomInt(midFollowerMax-microFollowerMax)
	case caseMacroAuthor:
		return midFollowerMax + getRandomInt(macroFollowerMax-midFollowerMax)
	case caseMegaAuthor:
		return macroFollowerMax + getRandomInt(megaFollowerMax-macroFollowerMax)
	default:
		return getRandomInt(microFollowerMax)
	}
}

// generatePosts creates candidate posts attributed to the seeded
// authors, with a configurable fraction pointing at unknown authors.
func generatePosts(ctx context.Context, config *Config, authors []model.Author, now time.Time, stats *Stats) []model.Post {
	logger.Get().Info(ctx, "generating candidate posts",
		logger.Int("numPosts", config.NumPosts),
		logger.Float64("unresolvedRatio", config.UnresolvedRatio),
	)

	posts := make([]model.Post, config.NumPosts)
	for i := range posts {
		authorID := authors[getRandomInt(int64(len(authors)))].ID
		if getRandomFloat() < config.UnresolvedRatio {
			// Author the store has never heard of.
			authorID = "ghost-" + uuid.New().String()
		}

		likes := generateEngagementCount()
		posts[i] = model.Post{
			ID:          "post_" + strconv.Itoa(i) + "_" + uuid.New().String(),
			AuthorID:    authorID,
			CreatedAt:   now.Add(-time.Duration(getRandomInt(maxPostAgeHours)) * time.Hour),
			ContentType: generateContentType(),
			Likes:       likes,
			Comments:    likes / commentDiv,
			Shares:      likes / shareDiv,
		}
	}

	stats.PostsGenerated = len(posts)
	return posts
}

// generateContentType picks one of the three content types.
func generateContentType() model.ContentType {
	switch getRandomInt(contentTypeCount) {
	case 0:
		return model.ContentImage
	case 1:
		return model.ContentVideo
	default:
		return model.ContentText
	}
}

// generateEngagementCount draws likes from quiet/active/viral tiers.
func generateEngagementCount() int64 {
	switch getRandomInt(engagementTierCount) {
	case 0, 1:
		// Quiet posts are most common.
		return getRandomInt(quietPostMax)
	case 2:
		return getRandomInt(activePostMax)
	default:
		return getRandomInt(viralPostMax)
	}
}

// generateImpressions creates impression events against the seeded
// authors, re-sending a configurable fraction with an already-used
// event id to exercise deduplication.
func generateImpressions(ctx context.Context, config *Config, authors []model.Author) []model.Impression {
	logger.Get().Info(ctx, "generating impressions",
		logger.Int("numImpressions", config.NumImpressions),
		logger.Float64("duplicateRatio", config.DuplicateRatio),
	)

	impressions := make([]model.Impression, 0, config.NumImpressions)
	for i := 0; i < config.NumImpressions; i++ {
		imp := model.Impression{
			EventID:  "imp_" + strconv.Itoa(i) + "_" + uuid.New().String(),
			AuthorID: authors[getRandomInt(int64(len(authors)))].ID,
			PostID:   "post_" + uuid.New().String(),
			TS:       time.Now().UTC(),
		}
		if len(impressions) > 0 && getRandomFloat() < config.DuplicateRatio {
			// Redeliver an earlier event verbatim.
			imp = impressions[getRandomInt(int64(len(impressions)))]
		}
		impressions = append(impressions, imp)
	}

	return impressions
}
