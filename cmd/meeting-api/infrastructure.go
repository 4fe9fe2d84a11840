// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/nats-io/nats.go"
	"gorm.io/gorm"

	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/infrastructure/auth"
	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/infrastructure/google"
	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/infrastructure/google/api"
	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/infrastructure/messaging"
	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/infrastructure/store"
	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/logging"
)

// setupJWTAuth configures JWT authentication for the API
func setupJWTAuth(env environment) (*auth.JWTAuth, error) {
	if env.JWT.MockLocalPrincipal != "" {
		slog.Warn("JWT validation disabled, every request is authenticated as the mock principal",
			"principal", env.JWT.MockLocalPrincipal,
			logging.PriorityCritical(),
		)
	}
	return auth.NewJWTAuth(env.JWT)
}

// repositories groups the GORM-backed stores.
type repositories struct {
	db        *gorm.DB
	Meeting   *store.GormMeetingRepository
	Recording *store.GormRecordingRepository
	Directory *store.GormUserDirectory
}

// setupDatabase opens and migrates the database.
func setupDatabase(ctx context.Context, env environment) (*repositories, error) {
	db, err := store.Open(ctx, store.Config{
		DSN:           env.DatabaseURL,
		LogLevel:      env.DBLogLevel,
		SlowThreshold: 500 * time.Millisecond,
	})
	if err != nil {
		return nil, err
	}

	dialect := "sqlite"
	if store.IsPostgres(env.DatabaseURL) {
		dialect = "postgres"
	}
	slog.InfoContext(ctx, "database ready", "dialect", dialect)

	return &repositories{
		db:        db,
		Meeting:   store.NewGormMeetingRepository(db),
		Recording: store.NewGormRecordingRepository(db),
		Directory: store.NewGormUserDirectory(db),
	}, nil
}

// setupProvider returns the Google provider, or the mock provider when no
// credentials are configured.
func setupProvider(ctx context.Context, env environment) (domain.CalendarProvider, error) {
	if !env.providerConfigured() {
		slog.WarnContext(ctx, "Google credentials not configured, using the mock provider")
		return google.NewMockProvider(), nil
	}

	credentials, err := os.ReadFile(env.Google.ServiceAccountFile)
	if err != nil {
		return nil, fmt.Errorf("reading Google service account file: %w", err)
	}

	client, err := api.NewClient(ctx, api.Config{
		CredentialsJSON: credentials,
		Subject:         env.Google.AdminEmail,
		CalendarID:      env.Google.CalendarID,
		TimeZone:        env.Google.TimeZone,
		Timeout:         env.Google.Timeout,
		MaxRetries:      env.Google.clientMaxRetries(),
	})
	if err != nil {
		return nil, fmt.Errorf("creating Google client: %w", err)
	}

	slog.InfoContext(ctx, "Google provider configured",
		"calendar_id", env.Google.CalendarID,
		"time_zone", env.Google.TimeZone,
	)
	return google.NewProvider(client), nil
}

// setupNATS connects to NATS when NATS_URL is set. A nil connection means
// events are not published and no subjects are handled.
func setupNATS(ctx context.Context, env environment) (*nats.Conn, error) {
	if env.NATS.URL == "" {
		slog.WarnContext(ctx, "NATS_URL not set, event publishing and NATS triggers are disabled")
		return nil, nil
	}

	conn, err := messaging.Connect(env.NATS)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "NATS connection established", "url", conn.ConnectedUrlRedacted())
	return conn, nil
}
