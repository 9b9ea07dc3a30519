package worker_test

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	queue "github.com/okian/fairfeed/internal/adapters/mq/queue"
	worker "github.com/okian/fairfeed/internal/adapters/mq/worker"
	"github.com/okian/fairfeed/internal/domain/model"
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

// countingUpdater records AddImpressions calls per author.
type countingUpdater struct {
	mu     sync.Mutex
	counts map[string]int64
	err    error
}

func newCountingUpdater() *countingUpdater {
	return &countingUpdater{counts: make(map[string]int64)}
}

func (u *countingUpdater) AddImpressions(_ context.Context, authorID string, n int64) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.err != nil {
		return u.err
	}
	u.counts[authorID] += n
	return nil
}

func (u *countingUpdater) total() int64 {
	u.mu.Lock()
	defer u.mu.Unlock()
	var sum int64
	for _, n := range u.counts {
		sum += n
	}
	return sum
}

func (u *countingUpdater) count(authorID string) int64 {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.counts[authorID]
}

// waitFor polls cond until it holds or the timeout passes.
func waitFor(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestWorkerProcessesImpressions(t *testing.T) {
	Convey("Given a worker attached to a queue", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(100))
		updater := newCountingUpdater()
		w := worker.NewWorker(q, updater, worker.WithName("worker-test"))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		Convey("When impressions are enqueued", func() {
			for i := 0; i < 10; i++ {
				ok := q.Enqueue(ctx, model.Impression{
					EventID:  "e" + strconv.Itoa(i),
					AuthorID: "author-1",
				})
				So(ok, ShouldBeTrue)
			}

			Convey("Then each one is folded into the store", func() {
				So(waitFor(2*time.Second, func() bool {
					return updater.count("author-1") == 10
				}), ShouldBeTrue)
			})
		})

		Convey("When the worker is shut down", func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second)
			defer shutdownCancel()

			Convey("Then it stops cleanly", func() {
				So(w.Shutdown(shutdownCtx), ShouldBeNil)
			})

			Convey("And shutting down twice is safe", func() {
				So(w.Shutdown(shutdownCtx), ShouldBeNil)
				So(w.Shutdown(shutdownCtx), ShouldBeNil)
			})
		})
	})
}

func TestWorkerUpdaterFailure(t *testing.T) {
	Convey("Given a worker whose store rejects updates", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(10))
		updater := newCountingUpdater()
		updater.err = errors.New("store unavailable")
		w := worker.NewWorker(q, updater)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		Convey("When impressions flow through", func() {
			for i := 0; i < 3; i++ {
				So(q.Enqueue(ctx, model.Impression{EventID: "e" + strconv.Itoa(i), AuthorID: "a"}), ShouldBeTrue)
			}

			Convey("Then the worker keeps draining instead of wedging", func() {
				So(waitFor(2*time.Second, func() bool {
					return q.Len(ctx) == 0
				}), ShouldBeTrue)
				So(updater.total(), ShouldEqual, 0)
			})
		})
	})
}

func TestPoolLifecycle(t *testing.T) {
	Convey("Given a pool of workers", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(1000))
		updater := newCountingUpdater()
		pool := worker.NewPool(4, q, updater)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		pool.Start(ctx)

		Convey("When a burst of impressions arrives", func() {
			const n = 200
			for i := 0; i < n; i++ {
				So(q.Enqueue(ctx, model.Impression{
					EventID:  "e" + strconv.Itoa(i),
					AuthorID: "author-" + strconv.Itoa(i%7),
				}), ShouldBeTrue)
			}

			Convey("Then every impression is processed exactly once", func() {
				So(waitFor(5*time.Second, func() bool {
					return updater.total() == n
				}), ShouldBeTrue)
			})
		})

		Convey("When the pool is stopped", func() {
			pool.Stop()

			Convey("Then stopping again is safe", func() {
				So(func() { pool.Stop() }, ShouldNotPanic)
			})
		})
	})
}

func TestPoolShutdownDrains(t *testing.T) {
	Convey("Given a pool with a backlog of queued impressions", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(100))
		updater := newCountingUpdater()
		pool := worker.NewPool(4, q, updater)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		const n = 50
		for i := 0; i < n; i++ {
			So(q.Enqueue(ctx, model.Impression{
				EventID:  "e" + strconv.Itoa(i),
				AuthorID: "author-" + strconv.Itoa(i%3),
			}), ShouldBeTrue)
		}
		pool.Start(ctx)

		Convey("When the pool is shut down", func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()
			So(pool.Shutdown(shutdownCtx), ShouldBeNil)

			Convey("Then the backlog was folded into the store before the workers exited", func() {
				So(updater.total(), ShouldEqual, n)
			})

			Convey("And the queue is closed", func() {
				So(q.IsClosed(), ShouldBeTrue)
			})

			Convey("And shutting down again is safe", func() {
				So(pool.Shutdown(shutdownCtx), ShouldBeNil)
			})
		})
	})
}

func TestPoolSizeFallback(t *testing.T) {
	Convey("Given a pool requested with a non-positive size", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(10))
		pool := worker.NewPool(0, q, newCountingUpdater())

		Convey("Then it falls back to a CPU-derived default", func() {
			So(pool, ShouldNotBeNil)
		})
	})
}
