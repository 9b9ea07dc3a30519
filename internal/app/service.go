// Package service wires the ranking engine, the author store, and the
// impression pipeline into one process-level facade.
package service

import (
	"context"
	"runtime"
	"sync"
	"time"

	impqueue "github.com/okian/fairfeed/internal/adapters/mq/queue"
	workerpool "github.com/okian/fairfeed/internal/adapters/mq/worker"
	repository "github.com/okian/fairfeed/internal/adapters/repository"
	"github.com/okian/fairfeed/internal/domain/dedupe"
	"github.com/okian/fairfeed/internal/domain/feed"
	"github.com/okian/fairfeed/internal/domain/model"
	"github.com/okian/fairfeed/internal/domain/scoring"
	"github.com/okian/fairfeed/pkg/logger"
	"github.com/okian/fairfeed/pkg/metrics"
)

// Service owns the components of the feed ranking system: the author
// statistics store fed by the impression pipeline, and the ranking
// engine that reads from it.
type Service struct {
	mu sync.RWMutex

	// Core components
	store      *repository.MemStore
	deduper    dedupe.Deduper
	queue      impqueue.Queue
	engine     *scoring.Engine
	ranker     *feed.Ranker
	workerPool *workerpool.Pool

	// Configuration
	workerCount       int
	queueSize         int
	dedupeSize        int
	visibilityStep    float64
	weights           scoring.Weights
	diversityWindow   int
	cadence           int
	slot              int
	underexposedBelow float64

	// State
	started bool
	stopCh  chan struct{}

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of impression workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the impression queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithVisibilityStep sets the visibility credit per recorded impression.
func WithVisibilityStep(step float64) Option {
	return func(s *Service) {
		if step > 0 {
			s.visibilityStep = step
		}
	}
}

// WithWeights overrides the default scoring weights.
func WithWeights(w scoring.Weights) Option {
	return func(s *Service) {
		if w.Validate() == nil {
			s.weights = w
		}
	}
}

// WithDiversityWindow sets the trailing window consulted by the
// content-type diversity factor.
func WithDiversityWindow(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.diversityWindow = size
		}
	}
}

// WithInterleave sets the fairness interleave cadence and reserved slot.
func WithInterleave(cadence, slot int) Option {
	return func(s *Service) {
		if cadence >= 2 && slot >= 0 && slot < cadence {
			s.cadence = cadence
			s.slot = slot
		}
	}
}

// WithUnderexposedThreshold sets the visibility score under which an
// author qualifies for reserved feed slots.
func WithUnderexposedThreshold(threshold float64) Option {
	return func(s *Service) {
		if threshold > 0 {
			s.underexposedBelow = threshold
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:       runtime.NumCPU() * 2,
		queueSize:         100_000,
		dedupeSize:        50_000,
		visibilityStep:    0.001,
		weights:           scoring.DefaultWeights(),
		diversityWindow:   scoring.DiversityWindowSize,
		cadence:           4,
		slot:              2,
		underexposedBelow: 30.0,
		stopCh:            make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting feed ranking service...")

	s.store = repository.NewMemStore(
		repository.WithVisibilityStep(s.visibilityStep),
	)
	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.queue = impqueue.NewInMemoryQueue(
		impqueue.WithCapacity(s.queueSize),
	)
	s.engine = scoring.NewEngine(
		s.store,
		scoring.WithWeights(s.weights),
		scoring.WithWindowSize(s.diversityWindow),
	)
	s.ranker = feed.NewRanker(
		s.engine,
		s.store,
		feed.WithCadence(s.cadence),
		feed.WithSlot(s.slot),
		feed.WithUnderexposedThreshold(s.underexposedBelow),
	)

	s.workerPool = workerpool.NewPool(s.workerCount, s.queue, s.store)
	s.workerPool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "feed ranking service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping feed ranking service...")

	// Shutdown closes the queue and waits for the workers to fold the
	// remaining impressions into the store before they exit.
	if s.workerPool != nil {
		if err := s.workerPool.Shutdown(ctx); err != nil {
			s.logger.Warn(ctx, "worker pool drain incomplete", logger.Error(err))
		}
	} else if s.queue != nil && !s.queue.IsClosed() {
		_ = s.queue.Close()
	}

	select {
	case <-s.stopCh:
		// Channel already closed
	default:
		close(s.stopCh)
	}

	s.started = false
	s.logger.Info(ctx, "feed ranking service stopped")
}

// UpsertAuthor inserts or replaces an author record in the store.
func (s *Service) UpsertAuthor(ctx context.Context, author model.Author) error {
	return s.store.Put(ctx, author)
}

// Author returns a snapshot of an author, or false if unknown.
func (s *Service) Author(ctx context.Context, id string) (model.Author, bool) {
	return s.store.Get(ctx, id)
}

// RecordImpression submits one impression event for asynchronous
// folding into the author statistics. Duplicate event ids are dropped;
// the call reports true for them so delivery retries stay idempotent.
// A false return means the queue rejected the event and the caller may
// retry it later.
func (s *Service) RecordImpression(ctx context.Context, imp model.Impression) bool {
	if s.deduper.SeenAndRecord(ctx, imp.EventID) {
		metrics.RecordImpressionDuplicate()
		s.logger.Debug(ctx, "duplicate impression dropped",
			logger.String("eventID", imp.EventID),
			logger.String("authorID", imp.AuthorID),
		)
		return true
	}

	if !s.queue.Enqueue(ctx, imp) {
		// Let a redelivery of the same event id through next time.
		s.deduper.Unrecord(ctx, imp.EventID)
		s.logger.Warn(ctx, "impression rejected by queue",
			logger.String("eventID", imp.EventID),
		)
		return false
	}

	return true
}

// DecayImpressions rolls the recent-impression window forward by
// scaling every author's count by factor.
func (s *Service) DecayImpressions(ctx context.Context, factor float64) error {
	return s.store.DecayImpressions(ctx, factor)
}

// RankFeed returns the candidate posts in final feed order.
func (s *Service) RankFeed(ctx context.Context, posts []model.Post, now time.Time) []model.Post {
	return s.ranker.RankPosts(ctx, posts, now)
}

// RankFeedDetailed is RankFeed with scores and author snapshots
// attached, for calibration and debugging.
func (s *Service) RankFeedDetailed(ctx context.Context, posts []model.Post, now time.Time) []model.RankedPost {
	return s.ranker.RankedPosts(ctx, posts, now)
}

// RankStories orders story author ids for the story rail.
func (s *Service) RankStories(ctx context.Context, authorIDs []string) []string {
	return s.ranker.RankStoryAuthors(ctx, authorIDs)
}

// QueueDepth returns the number of impressions waiting in the queue.
func (s *Service) QueueDepth(ctx context.Context) int {
	return s.queue.Len(ctx)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
	}

	if s.started {
		queueLen := s.queue.Len(ctx)
		totalAuthors := s.store.Count(ctx)

		stats["queueLength"] = queueLen
		stats["totalAuthors"] = totalAuthors

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateTotalAuthors(totalAuthors)
		metrics.UpdateWorkerCount(s.workerCount)

		var mem runtime.MemStats
		runtime.ReadMemStats(&mem)
		metrics.UpdateSystemMemoryUsage(mem.Alloc)
		metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
	}

	return stats
}

// Size returns the current number of entries in the deduper.
func (s *Service) Size() int64 {
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}
