// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package main is the meet middleware API: it creates Google Meet meetings
// through Google Calendar, tracks their lifecycle and syncs their recordings.
package main

import (
	"context"
	"errors"
	_ "expvar"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/nats-io/nats.go"

	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/handlers"
	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/infrastructure/messaging"
	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/infrastructure/store"
	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/logging"
	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/service"
	"github.com/linuxfoundation/lfx-v2-meet-middleware/pkg/utils"
)

const gracefulShutdownSeconds = 25

func main() {
	loadDotEnv()
	env := parseEnv()
	flags := parseFlags(env.Port)

	otelConfig := utils.OTelConfigFromEnv()
	logging.InitStructureLogConfig(logging.Options{ExportOTelLogs: otelConfig.LogsEnabled()})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	otelShutdown, err := utils.SetupOTelSDKWithConfig(ctx, otelConfig)
	if err != nil {
		slog.With(logging.ErrKey, err).Error("error setting up OpenTelemetry")
		os.Exit(1)
	}

	// Set up JWT validator used by the authorization middleware.
	jwtAuth, err := setupJWTAuth(env)
	if err != nil {
		slog.With(logging.ErrKey, err).Error("error setting up JWT authentication")
		os.Exit(1)
	}

	location, err := time.LoadLocation(env.Google.TimeZone)
	if err != nil {
		slog.With(logging.ErrKey, err, "time_zone", env.Google.TimeZone).Error("invalid GOOGLE_TIMEZONE")
		os.Exit(1)
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	gracefulCloseWG := sync.WaitGroup{}

	repos, err := setupDatabase(ctx, env)
	if err != nil {
		slog.With(logging.ErrKey, err).Error("error setting up the database")
		os.Exit(1)
	}

	provider, err := setupProvider(ctx, env)
	if err != nil {
		slog.With(logging.ErrKey, err).Error("error setting up the calendar provider")
		os.Exit(1)
	}

	natsConn, err := setupNATS(ctx, env)
	if err != nil {
		slog.With(logging.ErrKey, err).Error("error setting up NATS")
		os.Exit(1)
	}

	// a nil *nats.Conn must not become a non-nil interface
	var natsPublisher messaging.INatsConn
	if natsConn != nil {
		natsPublisher = natsConn
	}
	messageBuilder := messaging.NewMessageBuilder(natsPublisher)

	serviceConfig := service.ServiceConfig{
		Location:           location,
		SkipEtagValidation: env.SkipEtagValidation,
		SyncWorkers:        env.Sync.Workers,
		SyncMaxTries:       env.Sync.MaxTries,
		SyncBackoff:        env.Sync.Backoff,
	}
	authService := service.NewAuthService(jwtAuth)
	meetingService := service.NewMeetingService(
		repos.Meeting,
		repos.Recording,
		repos.Directory,
		provider,
		messageBuilder,
		serviceConfig,
	)
	recordingSyncService := service.NewRecordingSyncService(
		repos.Meeting,
		repos.Recording,
		provider,
		messageBuilder,
		serviceConfig,
	)

	recordingHandler := handlers.NewRecordingHandler(recordingSyncService)

	svc := NewMeetingsAPI(
		meetingService,
		recordingSyncService,
		func(ctx context.Context) error { return store.Ping(ctx, repos.db) },
		natsReadiness(natsConn),
	)

	httpServer := setupHTTPServer(flags, svc, authService, &gracefulCloseWG)

	if err := createNatsSubscriptions(ctx, recordingHandler, natsConn); err != nil {
		slog.With(logging.ErrKey, err).Error("error creating NATS subscriptions")
		os.Exit(1)
	}

	startRecordingSyncJob(ctx, recordingSyncService, env.Sync, &gracefulCloseWG)

	// This next line blocks until SIGINT or SIGTERM is received.
	<-done

	gracefulShutdown(httpServer, natsConn, repos, recordingSyncService, otelShutdown, &gracefulCloseWG, cancel)
}

// gracefulShutdown stops the HTTP server, waits for background syncs and
// releases NATS, the database and the telemetry exporters.
func gracefulShutdown(
	httpServer *http.Server,
	natsConn *nats.Conn,
	repos *repositories,
	recordingSyncService *service.RecordingSyncService,
	otelShutdown func(context.Context) error,
	gracefulCloseWG *sync.WaitGroup,
	cancel context.CancelFunc,
) {
	slog.Info("graceful shutdown started")

	ctx, shutdownCancel := context.WithTimeout(context.Background(), gracefulShutdownSeconds*time.Second)
	defer shutdownCancel()

	go func() {
		defer gracefulCloseWG.Done()
		if err := httpServer.Shutdown(ctx); err != nil {
			slog.With(logging.ErrKey, err).Error("http shutdown error")
		}
	}()

	// stop the periodic job and in-flight NATS handlers
	cancel()

	if natsConn != nil && !natsConn.IsClosed() {
		if err := natsConn.Drain(); err != nil {
			slog.With(logging.ErrKey, err).Error("error draining NATS connection")
		}
	}

	if err := recordingSyncService.Wait(ctx); err != nil {
		slog.With(logging.ErrKey, err).Warn("background recording syncs did not finish in time")
	}

	gracefulCloseWG.Wait()

	if err := store.Close(repos.db); err != nil {
		slog.With(logging.ErrKey, err).Error("error closing the database")
	}
	if err := otelShutdown(ctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		slog.With(logging.ErrKey, err).Error("error shutting down OpenTelemetry")
	}

	slog.Info("graceful shutdown complete")
}
