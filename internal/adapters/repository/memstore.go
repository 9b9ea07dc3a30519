package repository

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/okian/fairfeed/internal/domain/model"
	"github.com/okian/fairfeed/pkg/metrics"
)

// In-memory AuthorStore implementation.
//
// A mutex-guarded map is enough here: lookups are point reads keyed by
// id, impression updates touch a single record, and the ranking engine
// only ever reads snapshots. There is no ordered index to maintain
// because ordering happens per ranking call over the caller's candidate
// set, not in the store.

// Default store configuration constants.
const (
	defaultVisibilityStep = 0.001 // visibility gained per impression
	visibilityMax         = 100.0
	visibilityMin         = 0.0
)

// MemStore implements AuthorStore with an in-memory map.
type MemStore struct {
	mu      sync.RWMutex
	authors map[string]model.Author

	// visibilityStep is how much visibility score one impression adds.
	visibilityStep float64
}

// NewMemStore creates an empty in-memory author store.
func NewMemStore(opts ...StoreOption) *MemStore {
	s := &MemStore{
		authors:        make(map[string]model.Author),
		visibilityStep: defaultVisibilityStep,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Get returns a snapshot of the author, or false if unknown.
func (s *MemStore) Get(ctx context.Context, id string) (model.Author, bool) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	author, ok := s.authors[id]
	return author, ok
}

// Put inserts or replaces an author record. Out-of-range statistics are
// clamped on the way in so the store never hands the engine an invalid
// snapshot.
func (s *MemStore) Put(ctx context.Context, author model.Author) error {
	author.VisibilityScore = clampVisibility(author.VisibilityScore)
	if author.Followers < 0 {
		author.Followers = 0
	}
	if author.RecentImpressions < 0 {
		author.RecentImpressions = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.authors[author.ID] = author
	metrics.UpdateTotalAuthors(len(s.authors))
	return nil
}

// AddImpressions folds n delivered impressions into the author record.
func (s *MemStore) AddImpressions(ctx context.Context, id string, n int64) error {
	if n <= 0 {
		return nil
	}

	start := time.Now()
	defer func() {
		metrics.RecordStoreUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	author, ok := s.authors[id]
	if !ok {
		return ErrNotFound
	}

	author.RecentImpressions += n
	author.VisibilityScore = clampVisibility(author.VisibilityScore + float64(n)*s.visibilityStep)
	s.authors[id] = author
	return nil
}

// DecayImpressions scales every author's recent-impression count by
// factor, rolling the window forward.
func (s *MemStore) DecayImpressions(ctx context.Context, factor float64) error {
	if factor < 0 || factor > 1 || math.IsNaN(factor) {
		return ErrInvalidFactor
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, author := range s.authors {
		author.RecentImpressions = int64(float64(author.RecentImpressions) * factor)
		s.authors[id] = author
	}
	return nil
}

// Count returns the number of authors tracked.
func (s *MemStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.authors)
}

func clampVisibility(v float64) float64 {
	if v < visibilityMin {
		return visibilityMin
	}
	if v > visibilityMax {
		return visibilityMax
	}
	return v
}
