package census

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Result is one finished counting job, delivered on the pool's result
// channel.
type Result struct {
	Path  string
	Count int64
}

// Pool runs counting jobs in the background. Concurrency is bounded by a
// weighted semaphore sized at construction; excess submissions queue on the
// semaphore, so Submit is fire-and-forget and always succeeds. There is no
// cancellation: a submitted job runs to completion and writes its count into
// the cache even if nobody is interested anymore. Delivery on the result
// channel is best effort and abandoned once the pool is closed.
type Pool struct {
	cache   *Cache
	sem     *semaphore.Weighted
	results chan Result
	done    chan struct{}
	log     *slog.Logger

	submitted atomic.Int64
	completed atomic.Int64
}

// NewPool creates a pool executing at most workers jobs at once. Finished
// counts land in cache and on the Results channel.
func NewPool(workers int, cache *Cache, log *slog.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Pool{
		cache:   cache,
		sem:     semaphore.NewWeighted(int64(workers)),
		results: make(chan Result, 128),
		done:    make(chan struct{}),
		log:     log,
	}
}

// Submit enqueues a counting job for path. The job counts the subtree,
// stores the result in the cache and sends it on the result channel.
func (p *Pool) Submit(path string) {
	p.submitted.Add(1)
	go func() {
		if err := p.sem.Acquire(context.Background(), 1); err != nil {
			return
		}
		defer p.sem.Release(1)

		count := CountFiles(path)
		p.cache.Put(path, count)
		p.completed.Add(1)
		p.log.Debug("census complete", "path", path, "files", count)

		select {
		case p.results <- Result{Path: path, Count: count}:
		case <-p.done:
			// Consumer is gone. The cache already has the count, so a
			// later visit still hits.
		}
	}()
}

// Results is the channel counting jobs report on. Single consumer; drain it
// without blocking.
func (p *Pool) Results() <-chan Result {
	return p.results
}

// Close releases workers blocked on result delivery. In-flight jobs still
// run to completion and update the cache.
func (p *Pool) Close() {
	close(p.done)
}

// Submitted reports how many jobs have been accepted since construction.
func (p *Pool) Submitted() int64 { return p.submitted.Load() }

// Completed reports how many jobs have finished counting.
func (p *Pool) Completed() int64 { return p.completed.Load() }
