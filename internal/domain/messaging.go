// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package domain

import (
	"context"

	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/domain/models"
)

// Message represents a domain message interface
type Message interface {
	Subject() string
	Data() []byte
	Respond(data []byte) error
	HasReply() bool
}

// MessageHandler defines how the service handles incoming messages
type MessageHandler interface {
	HandleMessage(ctx context.Context, msg Message)
	HandlerReady() bool
}

// MeetingEventSender publishes meeting lifecycle events.
type MeetingEventSender interface {
	SendMeetingEvent(ctx context.Context, action models.MessageAction, meeting *models.Meeting) error
	SendOrphanedEvent(ctx context.Context, event models.OrphanedEvent) error
}

// RecordingEventSender publishes recording events.
type RecordingEventSender interface {
	SendRecordingSynced(ctx context.Context, recording *models.Recording) error
}

// MessageBuilder is the full set of messages the service publishes.
type MessageBuilder interface {
	MeetingEventSender
	RecordingEventSender
}
