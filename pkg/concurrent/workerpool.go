// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package concurrent

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Task is a unit of work run by the pool. It receives the pool's context.
type Task func(ctx context.Context) error

// WorkerPool represents a pool of workers that can process jobs concurrently
type WorkerPool struct {
	workerCount int
}

// NewWorkerPool creates a new worker pool with the specified number of workers
func NewWorkerPool(workerCount int) *WorkerPool {
	if workerCount <= 0 {
		workerCount = 1
	}
	return &WorkerPool{
		workerCount: workerCount,
	}
}

// Size returns the number of concurrent workers.
func (wp *WorkerPool) Size() int {
	return wp.workerCount
}

// Run executes all tasks using errgroup with goroutine limiting.
// Returns the first error encountered, and cancels remaining work
func (wp *WorkerPool) Run(ctx context.Context, tasks ...Task) error {
	if len(tasks) == 0 {
		return nil
	}

	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(wp.workerCount)

	for _, task := range tasks {
		g.Go(func() error {
			// Check if context was cancelled before starting
			select {
			case <-groupCtx.Done():
				return groupCtx.Err()
			default:
			}

			return task(groupCtx)
		})
	}

	return g.Wait()
}

// RunAll executes all tasks without cancellation on error.
// The result has one entry per task, in task order; nil means success.
func (wp *WorkerPool) RunAll(ctx context.Context, tasks ...Task) []error {
	if len(tasks) == 0 {
		return nil
	}

	// each goroutine writes only its own slot
	errs := make([]error, len(tasks))

	g := new(errgroup.Group)
	g.SetLimit(wp.workerCount)

	for i, task := range tasks {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				errs[i] = ctx.Err()
				return nil
			default:
			}

			errs[i] = task(ctx)
			return nil // never cancel siblings
		})
	}

	_ = g.Wait()
	return errs
}

// Errors returns the non-nil entries of a RunAll result.
func Errors(results []error) []error {
	var errs []error
	for _, err := range results {
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}
