// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// MeetingStatus is the lifecycle state of a meeting.
type MeetingStatus string

// Meeting statuses. FINISHED and CANCELLED are terminal.
const (
	MeetingStatusCreated   MeetingStatus = "CREATED"
	MeetingStatusScheduled MeetingStatus = "SCHEDULED"
	MeetingStatusFinished  MeetingStatus = "FINISHED"
	MeetingStatusCancelled MeetingStatus = "CANCELLED"
)

// legalTransitions lists, for each non-terminal status, where it may go next.
var legalTransitions = map[MeetingStatus][]MeetingStatus{
	MeetingStatusCreated:   {MeetingStatusScheduled, MeetingStatusFinished, MeetingStatusCancelled},
	MeetingStatusScheduled: {MeetingStatusFinished, MeetingStatusCancelled},
}

// ParseMeetingStatus parses a status name, accepting any letter case.
func ParseMeetingStatus(value string) (MeetingStatus, error) {
	status := MeetingStatus(strings.ToUpper(strings.TrimSpace(value)))
	if !status.IsValid() {
		return "", fmt.Errorf("unknown meeting status %q", value)
	}
	return status, nil
}

// IsValid reports whether s is one of the known statuses.
func (s MeetingStatus) IsValid() bool {
	switch s {
	case MeetingStatusCreated, MeetingStatusScheduled, MeetingStatusFinished, MeetingStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed from s.
func (s MeetingStatus) IsTerminal() bool {
	return s == MeetingStatusFinished || s == MeetingStatusCancelled
}

// CanTransitionTo reports whether s may move to next. Staying in the same
// status is always allowed.
func (s MeetingStatus) CanTransitionTo(next MeetingStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range legalTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Meeting is a video-conference meeting backed by one provider event.
type Meeting struct {
	ID                 uint64        `json:"id"`
	ProviderEventID    string        `json:"provider_event_id"`
	JoinLink           string        `json:"join_link"`
	Title              string        `json:"title,omitempty"`
	OrganizerID        uint64        `json:"organizer_id"`
	OrganizerEmail     string        `json:"organizer_email,omitempty"`
	OrganizerUsername  string        `json:"organizer_username,omitempty"`
	InvitedEmails      []string      `json:"invited_emails"`
	ScheduledStart     *time.Time    `json:"scheduled_start,omitempty"`
	ScheduledEnd       *time.Time    `json:"scheduled_end,omitempty"`
	Status             MeetingStatus `json:"status"`
	ExternalReference  string        `json:"external_reference,omitempty"`
	ConferenceRecordID string        `json:"conference_record_id,omitempty"`
	Revision           uint64        `json:"revision"`
	Participants       []Participant `json:"participants,omitempty"`
	Recording          *Recording    `json:"recording,omitempty"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

// ParticipantsCount returns the number of loaded participants.
func (m *Meeting) ParticipantsCount() int {
	return len(m.Participants)
}

// HasRecording reports whether a recording is attached.
func (m *Meeting) HasRecording() bool {
	return m.Recording != nil
}

// MarshalJSON adds the derived participants_count and has_recording fields.
func (m Meeting) MarshalJSON() ([]byte, error) {
	type meeting Meeting
	return json.Marshal(struct {
		meeting
		ParticipantsCount int  `json:"participants_count"`
		HasRecording      bool `json:"has_recording"`
	}{
		meeting:           meeting(m),
		ParticipantsCount: m.ParticipantsCount(),
		HasRecording:      m.HasRecording(),
	})
}

// MeetingCode extracts the code path segment of a Google Meet join link,
// e.g. "abc-defg-hij" from "https://meet.google.com/abc-defg-hij?pli=1".
func (m *Meeting) MeetingCode() string {
	return MeetingCodeFromLink(m.JoinLink)
}

// MeetingCodeFromLink returns the first path segment of a join link or an
// empty string if the link has none.
func MeetingCodeFromLink(link string) string {
	if link == "" {
		return ""
	}
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	code, _, _ := strings.Cut(strings.Trim(u.Path, "/"), "/")
	return code
}

// ValidateSchedule checks that end is after start when both are present.
func ValidateSchedule(start, end *time.Time) error {
	if start != nil && end != nil && !end.After(*start) {
		return fmt.Errorf("scheduled_end (%s) must be after scheduled_start (%s)",
			end.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	return nil
}
