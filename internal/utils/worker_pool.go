package utils

import (
	"context"
	"sync"
)

// WorkerPool distributes work items across a fixed number of goroutines.
// It is used by the scanner to probe files in parallel while keeping the
// number of concurrent ffprobe processes bounded.
type WorkerPool struct {
	workers int
	queue   chan func()
	wg      sync.WaitGroup
	once    sync.Once
}

// NewWorkerPool creates a pool with the given worker count. Counts below
// one are clamped to one.
func NewWorkerPool(workers int) *WorkerPool {
	if workers < 1 {
		workers = 1
	}
	return &WorkerPool{
		workers: workers,
		queue:   make(chan func(), workers*2),
	}
}

// Start launches the worker goroutines. Workers exit when the context is
// cancelled or the queue is closed.
func (wp *WorkerPool) Start(ctx context.Context) {
	wp.once.Do(func() {
		for i := 0; i < wp.workers; i++ {
			wp.wg.Add(1)
			go func() {
				defer wp.wg.Done()
				for {
					select {
					case work, ok := <-wp.queue:
						if !ok {
							return
						}
						work()
					case <-ctx.Done():
						return
					}
				}
			}()
		}
	})
}

// Submit queues a work item, blocking until a worker accepts it or the
// context is cancelled. Returns false if the work was not queued.
func (wp *WorkerPool) Submit(ctx context.Context, work func()) bool {
	select {
	case wp.queue <- work:
		return true
	case <-ctx.Done():
		return false
	}
}

// Wait closes the queue and blocks until all queued work has finished.
func (wp *WorkerPool) Wait() {
	close(wp.queue)
	wp.wg.Wait()
}
