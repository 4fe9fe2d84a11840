// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package concurrent

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Background runs fire-and-forget tasks detached from the request that
// started them, and lets the server wait for them on shutdown.
type Background struct {
	wg      sync.WaitGroup
	timeout time.Duration
}

// NewBackground creates a runner whose tasks are cancelled after timeout.
// A zero timeout means no deadline.
func NewBackground(timeout time.Duration) *Background {
	return &Background{timeout: timeout}
}

// Go starts task in its own goroutine. The task keeps the values of ctx
// (log attributes, principal) but not its cancellation.
func (b *Background) Go(ctx context.Context, name string, task Task) {
	taskCtx := context.WithoutCancel(ctx)
	var cancel context.CancelFunc = func() {}
	if b.timeout > 0 {
		taskCtx, cancel = context.WithTimeout(taskCtx, b.timeout)
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer cancel()
		if err := task(taskCtx); err != nil {
			slog.WarnContext(taskCtx, "background task failed", "task", name, "error", err)
		}
	}()
}

// Wait blocks until every started task returns or ctx is done.
func (b *Background) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
