// Package parallel runs independent searches concurrently. This package
// contains internal utilities for bounding the number of goroutines and
// propagating cancellation between them.
package parallel

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Task is one unit of work. It must honour ctx.
type Task func(ctx context.Context) error

// WorkerPool runs tasks with controlled concurrency. The first task error
// cancels the context seen by every other task.
type WorkerPool struct {
	maxWorkers int
	mu         sync.Mutex
	shutdown   bool
}

// NewWorkerPool creates a new worker pool with the specified number of workers.
// If maxWorkers is 0 or negative, it defaults to the number of CPU cores.
func NewWorkerPool(maxWorkers int) *WorkerPool {
	if maxWorkers <= 0 {
		maxWorkers = runtime.NumCPU()
	}
	return &WorkerPool{maxWorkers: maxWorkers}
}

// MaxWorkers returns the concurrency limit.
func (wp *WorkerPool) MaxWorkers() int { return wp.maxWorkers }

// Run executes the tasks, at most MaxWorkers at a time, and waits for all
// of them. Tasks not yet started when ctx is done are skipped.
func (wp *WorkerPool) Run(ctx context.Context, tasks ...Task) error {
	wp.mu.Lock()
	closed := wp.shutdown
	wp.mu.Unlock()
	if closed {
		return ErrPoolShutdown
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(wp.maxWorkers)
	for i, task := range tasks {
		if task == nil {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := task(gctx); err != nil {
				return fmt.Errorf("task %d: %w", i, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// Shutdown makes every later Run fail with ErrPoolShutdown. Runs already in
// progress complete normally.
func (wp *WorkerPool) Shutdown() {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	wp.shutdown = true
}

// ErrPoolShutdown is returned when trying to run tasks on a shutdown pool.
var ErrPoolShutdown = fmt.Errorf("worker pool has been shutdown")
