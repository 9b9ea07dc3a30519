// Package dedupe provides idempotency tracking for impression events.
// Counting the same delivery twice would inflate an author's exposure
// statistics and skew every downstream ranking signal.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

// Deduper records seen impression event IDs for at-most-once folding.
type Deduper interface {
	// SeenAndRecord atomically checks whether id was seen and records it
	// if not. Returns true if id was already seen.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord removes an ID from the seen set so the event can be
	// retried, e.g. after queue backpressure rejected it.
	Unrecord(ctx context.Context, id string)

	// Size returns the number of IDs currently tracked.
	Size() int64
}

// inMemoryDeduper implements Deduper with a map plus a ring buffer that
// evicts the oldest recorded ID once the bound is reached. With a
// non-positive bound the ring is disabled and the set grows without
// limit.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	ring    []string
	next    int
	maxSize int
	size    atomic.Int64
}

// NewInMemoryDeduper creates a new in-memory deduper.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: 50_000,
	}

	for _, opt := range opts {
		opt(d)
	}

	d.seen = make(map[string]struct{})
	if d.maxSize > 0 {
		d.ring = make([]string, d.maxSize)
	}

	return d
}

func (d *inMemoryDeduper) SeenAndRecord(ctx context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		return true
	}

	if d.ring != nil {
		// Bounded: the slot about to be reused holds the oldest ID.
		if evicted := d.ring[d.next]; evicted != "" {
			delete(d.seen, evicted)
			d.size.Add(-1)
		}
		d.ring[d.next] = id
		d.next = (d.next + 1) % len(d.ring)
	}

	d.seen[id] = struct{}{}
	d.size.Add(1)
	return false
}

func (d *inMemoryDeduper) Unrecord(ctx context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; !ok {
		return
	}
	delete(d.seen, id)
	d.size.Add(-1)

	// Leave the ring slot in place; eviction of a stale slot is a no-op
	// because the map delete above already removed the entry.
	for i := range d.ring {
		if d.ring[i] == id {
			d.ring[i] = ""
			break
		}
	}
}

func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
