// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import "time"

// MeetingFilter narrows ListMeetings. Zero values mean "no filter".
type MeetingFilter struct {
	OrganizerID        *uint64
	OrganizerEmail     string
	Status             MeetingStatus
	ScheduledStartFrom *time.Time
	ScheduledStartTo   *time.Time
}

// SyncCandidateFilter selects meetings the recording sync should visit.
type SyncCandidateFilter struct {
	// Limit caps the number of meetings; 0 means no limit.
	Limit int
}

// SyncStats summarizes a sync-all run.
type SyncStats struct {
	Processed int `json:"processed"`
	Found     int `json:"found"`
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Errors    int `json:"errors"`
}
