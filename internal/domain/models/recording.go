// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// RecordingState mirrors the provider's recording lifecycle.
type RecordingState string

// Recording states reported by the provider.
const (
	RecordingStateStarted       RecordingState = "STARTED"
	RecordingStateEnded         RecordingState = "ENDED"
	RecordingStateFileGenerated RecordingState = "FILE_GENERATED"
)

// Recording is the single recording of a meeting, discovered by the sync job.
type Recording struct {
	ID              uint64         `json:"id"`
	MeetingID       uint64         `json:"meeting_id"`
	ProviderFileID  *string        `json:"provider_file_id,omitempty"`
	ProviderFileURL *string        `json:"provider_file_url,omitempty"`
	DurationSeconds *int64         `json:"duration_seconds,omitempty"`
	AvailableAt     *time.Time     `json:"available_at,omitempty"`
	State           RecordingState `json:"state,omitempty"`
	StartTime       *time.Time     `json:"start_time,omitempty"`
	EndTime         *time.Time     `json:"end_time,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// DurationFormatted renders the duration as HH:MM:SS, or an empty string
// when the duration is unknown.
func (r *Recording) DurationFormatted() string {
	if r.DurationSeconds == nil {
		return ""
	}
	d := *r.DurationSeconds
	return fmt.Sprintf("%02d:%02d:%02d", d/3600, (d%3600)/60, d%60)
}

// MarshalJSON adds the derived duration_formatted field.
func (r Recording) MarshalJSON() ([]byte, error) {
	type recording Recording
	return json.Marshal(struct {
		recording
		DurationFormatted string `json:"duration_formatted,omitempty"`
	}{
		recording:         recording(r),
		DurationFormatted: r.DurationFormatted(),
	})
}

// RecordingSnapshot is what the provider reports about a meeting's recording.
type RecordingSnapshot struct {
	FileID             string
	FileURL            string
	DurationSeconds    *int64
	AvailableAt        *time.Time
	State              RecordingState
	StartTime          *time.Time
	EndTime            *time.Time
	ConferenceRecordID string
	// Source names the lookup strategy that found the recording.
	Source string
}

// ApplySnapshot copies the snapshot's mutable fields into r and reports
// whether anything changed.
func (r *Recording) ApplySnapshot(s RecordingSnapshot) bool {
	changed := false

	if s.FileID != "" && !stringPtrEqual(r.ProviderFileID, &s.FileID) {
		r.ProviderFileID = stringPtr(s.FileID)
		changed = true
	}
	if s.FileURL != "" && !stringPtrEqual(r.ProviderFileURL, &s.FileURL) {
		r.ProviderFileURL = stringPtr(s.FileURL)
		changed = true
	}
	if s.DurationSeconds != nil && (r.DurationSeconds == nil || *r.DurationSeconds != *s.DurationSeconds) {
		v := *s.DurationSeconds
		r.DurationSeconds = &v
		changed = true
	}
	if s.AvailableAt != nil {
		if v := storedTime(*s.AvailableAt); !timePtrEqual(r.AvailableAt, &v) {
			r.AvailableAt = &v
			changed = true
		}
	}
	if s.State != "" && r.State != s.State {
		r.State = s.State
		changed = true
	}
	if s.StartTime != nil {
		if v := storedTime(*s.StartTime); !timePtrEqual(r.StartTime, &v) {
			r.StartTime = &v
			changed = true
		}
	}
	if s.EndTime != nil {
		if v := storedTime(*s.EndTime); !timePtrEqual(r.EndTime, &v) {
			r.EndTime = &v
			changed = true
		}
	}

	return changed
}

func stringPtr(s string) *string {
	return &s
}

func stringPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// storedTime drops precision below a microsecond, the finest PostgreSQL
// keeps, so a re-read row compares equal to the snapshot it came from.
func storedTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

func timePtrEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
