// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/logging"
	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/service"
)

// startRecordingSyncJob runs SyncAll every interval until ctx is done.
// A zero interval disables the job.
func startRecordingSyncJob(ctx context.Context, syncService *service.RecordingSyncService, cfg syncConfig, gracefulCloseWG *sync.WaitGroup) {
	if cfg.Interval <= 0 {
		slog.InfoContext(ctx, "periodic recording sync disabled")
		return
	}

	ctx = logging.AppendCtx(ctx, slog.String("job", "recording_sync"))
	slog.InfoContext(ctx, "periodic recording sync enabled", "interval", cfg.Interval.String(), "limit", cfg.Limit)

	gracefulCloseWG.Add(1)
	go func() {
		defer gracefulCloseWG.Done()

		ticker := time.NewTicker(cfg.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				slog.InfoContext(ctx, "periodic recording sync stopped")
				return
			case <-ticker.C:
				if _, err := syncService.SyncAll(ctx, cfg.Limit); err != nil {
					slog.ErrorContext(ctx, "periodic recording sync failed", logging.ErrKey, err)
				}
			}
		}
	}()
}
