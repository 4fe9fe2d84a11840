// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"errors"
	"flag"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/infrastructure/auth"
	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/infrastructure/messaging"
	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/logging"
	"github.com/linuxfoundation/lfx-v2-meet-middleware/pkg/constants"
	"github.com/linuxfoundation/lfx-v2-meet-middleware/pkg/utils"
)

// flags are the command line flags for the middleware.
type flags struct {
	Debug bool
	Port  string
	Bind  string
}

// environment is the configuration read from the environment.
type environment struct {
	Port               string
	DatabaseURL        string
	DBLogLevel         string
	SkipEtagValidation bool
	NATS               messaging.ConnConfig
	Google             googleConfig
	Sync               syncConfig
	JWT                auth.JWTAuthConfig
}

// googleConfig holds the provider settings.
type googleConfig struct {
	ServiceAccountFile string
	AdminEmail         string
	CalendarID         string
	TimeZone           string
	Timeout            time.Duration
	MaxRetries         int
}

// syncConfig holds the recording sync settings.
type syncConfig struct {
	// Interval of the periodic sync-all run; 0 disables it.
	Interval time.Duration
	Limit    int
	Workers  int
	MaxTries uint
	Backoff  time.Duration
}

// parseFlags parses command line flags for the middleware
func parseFlags(defaultPort string) flags {
	var debug = flag.Bool("d", false, "enable debug logging")
	var port = flag.String("p", defaultPort, "listen port")
	var bind = flag.String("bind", "*", "interface to bind on")

	flag.Usage = func() {
		flag.PrintDefaults()
		os.Exit(2)
	}
	flag.Parse()

	// LOG_LEVEL is read by logging.InitStructureLogConfig
	if *debug {
		if err := os.Setenv("LOG_LEVEL", "debug"); err != nil {
			slog.With(logging.ErrKey, err).Error("error setting log level")
			os.Exit(1)
		}
	}

	return flags{
		Debug: *debug,
		Port:  *port,
		Bind:  *bind,
	}
}

// loadDotEnv loads a .env file from the working directory when there is one.
// Variables already set in the environment win.
func loadDotEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.With(logging.ErrKey, err).Warn("error loading .env file")
	}
}

// parseEnv parses environment variables for the middleware
func parseEnv() environment {
	return environment{
		Port:               utils.Coalesce(os.Getenv("PORT"), "8080"),
		DatabaseURL:        utils.Coalesce(os.Getenv("DATABASE_URL"), "file:meet.db"),
		DBLogLevel:         utils.Coalesce(os.Getenv("DB_LOG_LEVEL"), "warn"),
		SkipEtagValidation: envBool("SKIP_ETAG_VALIDATION"),
		NATS: messaging.ConnConfig{
			URL:           os.Getenv("NATS_URL"),
			Timeout:       envDuration("NATS_TIMEOUT", 10*time.Second),
			MaxReconnect:  envInt("NATS_MAX_RECONNECT", 3),
			ReconnectWait: envDuration("NATS_RECONNECT_WAIT", 2*time.Second),
		},
		Google: googleConfig{
			ServiceAccountFile: os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"),
			AdminEmail:         os.Getenv("GOOGLE_WORKSPACE_ADMIN_EMAIL"),
			CalendarID:         utils.Coalesce(os.Getenv("GOOGLE_CALENDAR_ID"), "primary"),
			TimeZone:           utils.Coalesce(os.Getenv("GOOGLE_TIMEZONE"), "America/Bogota"),
			Timeout:            envDuration("PROVIDER_TIMEOUT", 30*time.Second),
			MaxRetries:         envInt("PROVIDER_MAX_RETRIES", 3),
		},
		Sync: syncConfig{
			Interval: envDuration("RECORDING_SYNC_INTERVAL", 0),
			Limit:    envInt("RECORDING_SYNC_LIMIT", 0),
			Workers:  envInt("RECORDING_SYNC_WORKERS", constants.DefaultSyncWorkers),
			MaxTries: uint(max(envInt("RECORDING_SYNC_MAX_TRIES", constants.DefaultSyncMaxTries), 1)),
			Backoff:  envDuration("RECORDING_SYNC_BACKOFF", constants.DefaultSyncBackoff),
		},
		JWT: auth.JWTAuthConfig{
			JWKSURL:            os.Getenv("JWKS_URL"),
			Audience:           os.Getenv("JWT_AUDIENCE"),
			Issuer:             os.Getenv("JWT_ISSUER"),
			MockLocalPrincipal: os.Getenv("JWT_AUTH_DISABLED_MOCK_LOCAL_PRINCIPAL"),
		},
	}
}

// providerConfigured reports whether real Google credentials are present.
func (e environment) providerConfigured() bool {
	return e.Google.ServiceAccountFile != "" && e.Google.AdminEmail != ""
}

// clientMaxRetries maps PROVIDER_MAX_RETRIES onto the client setting, where
// zero means the default and a negative value disables retries.
func (g googleConfig) clientMaxRetries() int {
	if g.MaxRetries == 0 {
		return -1
	}
	return g.MaxRetries
}

func envBool(key string) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && value
}

func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		slog.Warn("invalid integer environment variable, using default", "key", key, "value", raw, "default", fallback)
		return fallback
	}
	return value
}

// envDuration accepts Go durations ("90s") and plain seconds ("90").
func envDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	if seconds, err := strconv.Atoi(raw); err == nil && seconds >= 0 {
		return time.Duration(seconds) * time.Second
	}
	value, err := time.ParseDuration(raw)
	if err != nil || value < 0 {
		slog.Warn("invalid duration environment variable, using default", "key", key, "value", raw, "default", fallback)
		return fallback
	}
	return value
}
