// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import "time"

// EventRequest is what the orchestration service asks the provider to create.
type EventRequest struct {
	OrganizerEmail string
	InvitedEmails  []string
	Start          *time.Time
	End            *time.Time
	Title          string
	Description    string
}

// EventResult is the provider's answer to a created event.
type EventResult struct {
	ProviderEventID   string
	JoinLink          string
	ProviderRawStatus string
	HTMLLink          string
}

// EventPatch carries the fields to change on a provider event. Nil fields
// are left untouched.
type EventPatch struct {
	Start  *time.Time
	End    *time.Time
	Status *string
}

// EventSnapshot is the provider's current view of an event.
type EventSnapshot struct {
	ProviderEventID string
	Title           string
	Status          string
	JoinLink        string
	Start           *time.Time
	End             *time.Time
	Updated         *time.Time
}

// RecordingQuery describes the meeting whose recording is looked up.
type RecordingQuery struct {
	MeetingID          uint64
	ProviderEventID    string
	JoinLink           string
	ConferenceRecordID string
	ScheduledStart     *time.Time
	ScheduledEnd       *time.Time
	CreatedAt          time.Time
}
