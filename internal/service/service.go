// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/linuxfoundation/lfx-v2-meet-middleware/pkg/constants"
)

const instrumentationName = "github.com/linuxfoundation/lfx-v2-meet-middleware/internal/service"

type Service interface {
	ServiceReady() bool
}

// ServiceConfig is the configuration for the Services.
type ServiceConfig struct {
	// Location is the time zone used to render generated meeting titles.
	Location *time.Location
	// SkipEtagValidation ignores If-Match revisions - only meant for local development.
	SkipEtagValidation bool
	// SyncWorkers bounds the concurrent syncs of a sync-all run.
	SyncWorkers int
	// SyncMaxTries is the number of provider lookups per recording sync.
	SyncMaxTries uint
	// SyncBackoff is the first retry interval of a recording sync.
	SyncBackoff time.Duration
	// BackgroundTimeout bounds API-triggered background syncs.
	BackgroundTimeout time.Duration
}

func (c ServiceConfig) location() *time.Location {
	if c.Location == nil {
		return time.UTC
	}
	return c.Location
}

func (c ServiceConfig) withDefaults() ServiceConfig {
	if c.SyncWorkers <= 0 {
		c.SyncWorkers = constants.DefaultSyncWorkers
	}
	if c.SyncMaxTries == 0 {
		c.SyncMaxTries = constants.DefaultSyncMaxTries
	}
	if c.SyncBackoff <= 0 {
		c.SyncBackoff = constants.DefaultSyncBackoff
	}
	if c.BackgroundTimeout <= 0 {
		c.BackgroundTimeout = constants.DefaultBackgroundTimeout
	}
	return c
}

// serviceMetrics holds the counters exported by the services. Instruments
// come from the global meter provider and are no-ops until one is set.
type serviceMetrics struct {
	meetingsCreated  metric.Int64Counter
	providerErrors   metric.Int64Counter
	recordingsSynced metric.Int64Counter
}

func newServiceMetrics() *serviceMetrics {
	meter := otel.Meter(instrumentationName)

	// instrument creation only fails on invalid names
	meetingsCreated, _ := meter.Int64Counter("meetings_created_total",
		metric.WithDescription("Meetings persisted after a successful provider event creation"))
	providerErrors, _ := meter.Int64Counter("provider_errors_total",
		metric.WithDescription("Failed calls to the calendar provider"))
	recordingsSynced, _ := meter.Int64Counter("recordings_synced_total",
		metric.WithDescription("Recording rows created or updated by the sync"))

	return &serviceMetrics{
		meetingsCreated:  meetingsCreated,
		providerErrors:   providerErrors,
		recordingsSynced: recordingsSynced,
	}
}

func (m *serviceMetrics) providerError(ctx context.Context, operation string) {
	m.providerErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", operation)))
}

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(instrumentationName).Start(ctx, name, trace.WithAttributes(attrs...))
}

// endSpan records err on the span, if any, and ends it.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
