package feedsim

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	service "github.com/okian/fairfeed/internal/app"
	"github.com/okian/fairfeed/internal/config"
	"github.com/okian/fairfeed/internal/domain/model"
	"github.com/okian/fairfeed/pkg/logger"
)

// Run executes the complete feed ranking simulation: seed authors, pump
// impressions through the pipeline, rank a candidate feed, and verify
// the ordering invariants hold. Service tuning comes from the layered
// configuration (defaults, FAIRFEED_CONFIG file, FAIRFEED_ env vars);
// the simulation flags control the generated population.
func Run(ctx context.Context, sim *Config) error {
	stats := &Stats{}
	start := time.Now()

	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	logger.Get().Info(ctx, "starting fairfeed simulation",
		logger.Int("authors", sim.NumAuthors),
		logger.Int("posts", sim.NumPosts),
		logger.Int("impressions", sim.NumImpressions),
		logger.Int("stories", sim.NumStories),
		logger.Int("queueSize", cfg.ImpressionQueueSize),
		logger.Int("dedupeSize", cfg.DedupeSize),
		logger.Any("verbose", sim.Verbose))

	params := rankingParams{
		cadence:           cfg.Ranking.Cadence,
		slot:              cfg.Ranking.Slot,
		underexposedBelow: cfg.Ranking.UnderexposedBelow,
	}

	svc := service.New(serviceOptions(cfg, sim.Workers)...)
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("service start failed: %w", err)
	}
	defer svc.Stop()

	// Step 1: Seed authors
	authors := generateAuthors(ctx, sim, stats)
	for _, a := range authors {
		if err := svc.UpsertAuthor(ctx, a); err != nil {
			return fmt.Errorf("author seed failed: %w", err)
		}
	}

	// Step 2: Pump impressions through the pipeline
	impressions := generateImpressions(ctx, sim, authors)
	if err := submitImpressions(ctx, svc, impressions, stats); err != nil {
		return fmt.Errorf("impression submission failed: %w", err)
	}

	// Step 3: Wait for the queue to drain
	if err := waitForDrain(ctx, svc); err != nil {
		return fmt.Errorf("queue drain failed: %w", err)
	}

	// Step 4: Rank a candidate feed
	now := time.Now().UTC()
	posts := generatePosts(ctx, sim, authors, now, stats)
	ranked := svc.RankFeedDetailed(ctx, posts, now)
	stats.FeedLength = len(ranked)

	// Step 5: Verify ordering invariants
	if err := verifyFeed(ctx, svc, params, posts, ranked, now, stats); err != nil {
		return fmt.Errorf("feed verification failed: %w", err)
	}

	// Step 6: Rank the story rail
	if err := runStories(ctx, svc, sim, authors, stats); err != nil {
		return fmt.Errorf("story ranking failed: %w", err)
	}

	// Step 7: Display a feed sample
	displayFeedSample(ranked, now, sim, params)

	displayFinalStats(stats, time.Since(start))

	if stats.ChecksFailed > 0 {
		return fmt.Errorf("%d of %d checks failed", stats.ChecksFailed, stats.ChecksPassed+stats.ChecksFailed)
	}

	logger.Get().Info(ctx, "simulation completed successfully")
	return nil
}

// serviceOptions maps the loaded configuration onto service options. A
// positive worker override (the -workers flag) wins over the configured
// count.
func serviceOptions(cfg *config.Config, workerOverride int) []service.Option {
	workers := cfg.WorkerCount
	if workerOverride > 0 {
		workers = workerOverride
	}
	return []service.Option{
		service.WithWorkerCount(workers),
		service.WithQueueSize(cfg.ImpressionQueueSize),
		service.WithDedupeSize(cfg.DedupeSize),
		service.WithVisibilityStep(cfg.VisibilityStep),
		service.WithWeights(cfg.Ranking.Weights),
		service.WithDiversityWindow(cfg.Ranking.DiversityWindow),
		service.WithInterleave(cfg.Ranking.Cadence, cfg.Ranking.Slot),
		service.WithUnderexposedThreshold(cfg.Ranking.UnderexposedBelow),
	}
}

// submitImpressions records every impression, counting duplicates from
// the generator's redeliveries.
func submitImpressions(ctx context.Context, svc *service.Service, impressions []model.Impression, stats *Stats) error {
	seen := make(map[string]struct{}, len(impressions))
	for _, imp := range impressions {
		stats.ImpressionsSubmitted++

		_, dup := seen[imp.EventID]
		if dup {
			stats.ImpressionsDuplicate++
		}
		seen[imp.EventID] = struct{}{}

		if !svc.RecordImpression(ctx, imp) {
			return fmt.Errorf("queue rejected impression %s", imp.EventID)
		}
		if !dup {
			stats.ImpressionsAccepted++
		}
	}

	logger.Get().Info(ctx, "impressions submitted",
		logger.Int("submitted", stats.ImpressionsSubmitted),
		logger.Int("accepted", stats.ImpressionsAccepted),
		logger.Int("duplicate", stats.ImpressionsDuplicate))
	return nil
}

// waitForDrain polls the queue until every impression has been folded
// into the author store.
func waitForDrain(ctx context.Context, svc *service.Service) error {
	deadline := time.Now().Add(drainTimeout)
	for svc.QueueDepth(ctx) > 0 {
		if time.Now().After(deadline) {
			return fmt.Errorf("queue still has %d impressions after %s", svc.QueueDepth(ctx), drainTimeout)
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled during drain: %w", ctx.Err())
		case <-time.After(drainPollInterval):
		}
	}
	return nil
}

// runStories ranks a story rail mixing known authors with unknown ids.
func runStories(ctx context.Context, svc *service.Service, sim *Config, authors []model.Author, stats *Stats) error {
	n := sim.NumStories
	if n > len(authors) {
		n = len(authors)
	}

	ids := make([]string, 0, n+1)
	for i := 0; i < n; i++ {
		ids = append(ids, authors[i].ID)
	}
	if n > 0 {
		// One unknown id to exercise the unresolved path.
		ids = append(ids, "ghost-"+uuid.New().String())
	}

	rankedIDs := svc.RankStories(ctx, ids)
	stats.StoriesRanked = len(rankedIDs)

	return verifyStories(ctx, ids, rankedIDs, stats)
}

// displayFinalStats prints the final simulation statistics.
func displayFinalStats(stats *Stats, duration time.Duration) {
	var duplicateRate float64
	if stats.ImpressionsSubmitted > 0 {
		duplicateRate = float64(stats.ImpressionsDuplicate) / float64(stats.ImpressionsSubmitted) * PercentMultiplier
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("authorsSeeded", stats.AuthorsSeeded),
		logger.Int("postsGenerated", stats.PostsGenerated),
		logger.Int("impressionsSubmitted", stats.ImpressionsSubmitted),
		logger.Int("impressionsAccepted", stats.ImpressionsAccepted),
		logger.Int("impressionsDuplicate", stats.ImpressionsDuplicate),
		logger.Float64("duplicateRate", duplicateRate),
		logger.Int("feedLength", stats.FeedLength),
		logger.Int("storiesRanked", stats.StoriesRanked),
		logger.Int("checksPassed", stats.ChecksPassed),
		logger.Int("checksFailed", stats.ChecksFailed),
		logger.String("duration", duration.String()))
}
