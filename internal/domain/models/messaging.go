// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

// NATS subjects that the middleware sends messages about.
const (
	// MeetingCreatedSubject is published after a meeting is persisted.
	// The subject is of the form: lfx.meet.meeting.created
	MeetingCreatedSubject = "lfx.meet.meeting.created"

	// MeetingUpdatedSubject is published after a meeting is changed.
	// The subject is of the form: lfx.meet.meeting.updated
	MeetingUpdatedSubject = "lfx.meet.meeting.updated"

	// MeetingCancelledSubject is published after a meeting moves to CANCELLED.
	// The subject is of the form: lfx.meet.meeting.cancelled
	MeetingCancelledSubject = "lfx.meet.meeting.cancelled"

	// RecordingSyncedSubject is published when a recording row is created or changed.
	// The subject is of the form: lfx.meet.recording.synced
	RecordingSyncedSubject = "lfx.meet.recording.synced"

	// OrphanedEventSubject is published when a provider event exists without
	// a local meeting, so a reconciler can cancel it.
	// The subject is of the form: lfx.meet.meeting.orphaned_event
	OrphanedEventSubject = "lfx.meet.meeting.orphaned_event"
)

// NATS subjects that the middleware handles messages about.
const (
	// MeetMiddlewareQueue is the queue group shared by all instances.
	MeetMiddlewareQueue = "lfx.meet-middleware.queue"

	// RecordingSyncSubject triggers a recording sync for one meeting id.
	RecordingSyncSubject = "lfx.meet.recording.sync"

	// RecordingSyncAllSubject triggers a sync of every candidate meeting.
	RecordingSyncAllSubject = "lfx.meet.recording.sync_all"
)

// MessageAction is a type for the action of an event message.
type MessageAction string

// MessageAction constants for the action of an event message.
const (
	ActionCreated   MessageAction = "created"
	ActionUpdated   MessageAction = "updated"
	ActionCancelled MessageAction = "cancelled"
	ActionSynced    MessageAction = "synced"
	ActionOrphaned  MessageAction = "orphaned"
)

// EventMessage is the envelope of every published message.
type EventMessage struct {
	Action    MessageAction     `json:"action"`
	Headers   map[string]string `json:"headers,omitempty"`
	Data      any               `json:"data"`
	Timestamp string            `json:"timestamp"`
}

// OrphanedEvent describes a provider event left without a local meeting.
type OrphanedEvent struct {
	ProviderEventID string `json:"provider_event_id"`
	JoinLink        string `json:"join_link,omitempty"`
	OrganizerEmail  string `json:"organizer_email"`
	Reason          string `json:"reason"`
}

// SyncAllRequest is the optional payload of RecordingSyncAllSubject.
type SyncAllRequest struct {
	Limit int `json:"limit,omitempty"`
}
