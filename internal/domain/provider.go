// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package domain

import (
	"context"

	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/domain/models"
)

// CalendarProvider is the narrow interface to the external calendar and
// conferencing provider. Implementations only return errors built with
// NewProviderError; provider-specific error shapes never cross it.
type CalendarProvider interface {
	// CreateEvent creates a calendar event with an auto-generated
	// conferencing link.
	CreateEvent(ctx context.Context, req models.EventRequest) (*models.EventResult, error)

	// UpdateEvent patches an existing event.
	UpdateEvent(ctx context.Context, providerEventID string, patch models.EventPatch) (*models.EventSnapshot, error)

	// CancelEvent cancels an event. Cancelling an already cancelled or
	// removed event is not an error.
	CancelEvent(ctx context.Context, providerEventID string) error

	// GetEvent fetches the provider's current view of an event.
	GetEvent(ctx context.Context, providerEventID string) (*models.EventSnapshot, error)

	// FindRecording looks up the recording of a meeting. It returns
	// (nil, nil) when the provider has no recording yet.
	FindRecording(ctx context.Context, query models.RecordingQuery) (*models.RecordingSnapshot, error)

	// IsMock reports whether the provider runs without credentials.
	IsMock() bool
}
