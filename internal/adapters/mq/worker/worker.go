// Package worker folds queued impression events into the author
// statistics store.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/fairfeed/internal/domain/model"
	"github.com/okian/fairfeed/pkg/logger"
	"github.com/okian/fairfeed/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 2 // multiplier for runtime.NumCPU()
	workerShutdownTimeout   = 5 * time.Second
	poolShutdownTimeout     = 30 * time.Second
)

// Impression abstracts what workers read off the queue.
type Impression = model.Impression

// Updater applies an impression to an author's statistics.
type Updater interface {
	AddImpressions(ctx context.Context, authorID string, n int64) error
}

// Queue defines how workers receive impressions.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Impression
}

// Worker consumes impressions until stopped.
type Worker struct {
	queue   Queue
	updater Updater
	name    string

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewWorker creates a single impression worker.
func NewWorker(queue Queue, updater Updater, opts ...Option) *Worker {
	w := &Worker{
		queue:    queue,
		updater:  updater,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop until ctx is canceled or the queue closes.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)

	impressions := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case imp, ok := <-impressions:
			if !ok {
				return
			}
			if err := w.apply(ctx, imp); err != nil {
				w.logger.Error(ctx, "error applying impression", logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *Worker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// apply folds a single impression into the author store.
func (w *Worker) apply(ctx context.Context, imp Impression) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	if err := w.updater.AddImpressions(ctx, imp.AuthorID, 1); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "store_update")
		w.logger.Error(ctx, "author update failed for impression",
			logger.String("eventID", imp.EventID),
			logger.String("authorID", imp.AuthorID),
			logger.Error(err),
		)
		return fmt.Errorf("failed to apply impression %s: %w", imp.EventID, err)
	}

	metrics.RecordImpressionProcessed()
	return nil
}

// Pool manages a set of impression workers.
type Pool struct {
	workers []*Worker
	queue   Queue
	updater Updater

	logger logger.Logger
}

// NewPool creates a worker pool of the given size; a size below 1 falls
// back to a CPU-derived default.
func NewPool(workerCount int, queue Queue, updater Updater) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	p := &Pool{
		workers: make([]*Worker, workerCount),
		queue:   queue,
		updater: updater,
		logger:  logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		p.workers[i] = NewWorker(
			queue,
			updater,
			WithName("worker-"+strconv.Itoa(i)),
		)
	}

	metrics.UpdateWorkerCount(workerCount)

	return p
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Stop halts all workers without waiting for the queue to drain.
// Queued impressions stay in the queue. Safe to call more than once.
func (p *Pool) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), workerShutdownTimeout)
	defer cancel()

	for _, w := range p.workers {
		if err := w.Shutdown(ctx); err != nil {
			p.logger.Warn(ctx, "worker stop timed out", logger.Error(err))
		}
	}
}

// Shutdown closes the queue and waits for every worker to drain the
// remaining impressions. Returns an error if a worker is still running
// when the timeout passes. Safe to call more than once.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			return fmt.Errorf("worker %d shutdown timed out: %w", i, shutdownCtx.Err())
		}
	}

	return nil
}
