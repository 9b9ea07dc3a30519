// Package queue defines the contract for enqueuing and consuming
// impression events on their way into the author statistics store.
package queue

import (
	"context"
	"sync"

	"github.com/okian/fairfeed/internal/domain/model"
	"github.com/okian/fairfeed/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultCapacity = 100_000
)

// Impression is the payload type flowing through the queue.
type Impression = model.Impression

// Queue provides non-blocking enqueue and channel-based dequeue
// semantics for impression events.
type Queue interface {
	// Enqueue adds an impression to the queue. Returns false if the
	// queue is full or closed and the event was not enqueued.
	Enqueue(ctx context.Context, imp Impression) bool

	// Dequeue returns a channel that receives impressions as they
	// become available. The channel closes when the queue closes.
	Dequeue(ctx context.Context) <-chan Impression

	// Len returns the current number of queued impressions.
	Len(ctx context.Context) int

	// Close shuts the queue down; no new events can be enqueued and the
	// dequeue channel drains then closes.
	Close() error

	// IsClosed reports whether the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	impressions chan Impression
	capacity    int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory impression queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultCapacity,
	}

	for _, opt := range opts {
		opt(q)
	}

	q.impressions = make(chan Impression, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)

	return q
}

// Enqueue adds an impression to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, imp Impression) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return false
	}

	select {
	case q.impressions <- imp:
		metrics.RecordQueueEnqueue()
		q.updateSizeMetrics()
		return true
	case <-ctx.Done():
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return false
	default:
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return false
	}
}

// Dequeue returns a channel that receives impressions as they become
// available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Impression {
	out := make(chan Impression)
	go func() {
		defer close(out)
		for imp := range q.impressions {
			select {
			case out <- imp:
				metrics.RecordQueueDequeue()
				q.updateSizeMetrics()
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of queued impressions.
func (q *InMemoryQueue) Len(ctx context.Context) int {
	size := len(q.impressions)
	metrics.UpdateQueueSize(size)
	return size
}

// Close shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}

	close(q.impressions)
	q.closed = true
	return nil
}

// IsClosed reports whether the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

func (q *InMemoryQueue) updateSizeMetrics() {
	size := len(q.impressions)
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
}
