// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMeetingStatus(t *testing.T) {
	tests := []struct {
		input    string
		expected MeetingStatus
		wantErr  bool
	}{
		{input: "CREATED", expected: MeetingStatusCreated},
		{input: "scheduled", expected: MeetingStatusScheduled},
		{input: " Finished ", expected: MeetingStatusFinished},
		{input: "cancelled", expected: MeetingStatusCancelled},
		{input: "DELETED", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			status, err := ParseMeetingStatus(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, status)
		})
	}
}

func TestMeetingStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from     MeetingStatus
		to       MeetingStatus
		expected bool
	}{
		{MeetingStatusCreated, MeetingStatusScheduled, true},
		{MeetingStatusCreated, MeetingStatusFinished, true},
		{MeetingStatusCreated, MeetingStatusCancelled, true},
		{MeetingStatusScheduled, MeetingStatusFinished, true},
		{MeetingStatusScheduled, MeetingStatusCancelled, true},
		{MeetingStatusScheduled, MeetingStatusCreated, false},
		{MeetingStatusFinished, MeetingStatusCancelled, false},
		{MeetingStatusFinished, MeetingStatusCreated, false},
		{MeetingStatusCancelled, MeetingStatusScheduled, false},
		{MeetingStatusCancelled, MeetingStatusFinished, false},
		{MeetingStatusCancelled, MeetingStatusCancelled, true},
		{MeetingStatusFinished, MeetingStatusFinished, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestMeetingStatus_IsTerminal(t *testing.T) {
	assert.False(t, MeetingStatusCreated.IsTerminal())
	assert.False(t, MeetingStatusScheduled.IsTerminal())
	assert.True(t, MeetingStatusFinished.IsTerminal())
	assert.True(t, MeetingStatusCancelled.IsTerminal())
}

func TestMeetingCodeFromLink(t *testing.T) {
	tests := []struct {
		name     string
		link     string
		expected string
	}{
		{name: "plain link", link: "https://meet.google.com/abc-defg-hij", expected: "abc-defg-hij"},
		{name: "query string", link: "https://meet.google.com/abc-defg-hij?authuser=0", expected: "abc-defg-hij"},
		{name: "trailing path", link: "https://meet.google.com/abc-defg-hij/extra", expected: "abc-defg-hij"},
		{name: "empty", link: "", expected: ""},
		{name: "no path", link: "https://meet.google.com", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MeetingCodeFromLink(tt.link))
		})
	}
}

func TestValidateSchedule(t *testing.T) {
	start := time.Date(2025, 12, 1, 15, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	tests := []struct {
		name    string
		start   *time.Time
		end     *time.Time
		wantErr bool
	}{
		{name: "both nil", start: nil, end: nil},
		{name: "only start", start: &start},
		{name: "only end", end: &end},
		{name: "end after start", start: &start, end: &end},
		{name: "end equals start", start: &start, end: &start, wantErr: true},
		{name: "end before start", start: &end, end: &start, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSchedule(tt.start, tt.end)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMeeting_ParticipantsCount(t *testing.T) {
	m := &Meeting{Participants: BuildParticipants("doctor@clinica.com", []string{"paciente@correo.com"})}
	assert.Equal(t, 2, m.ParticipantsCount())
	assert.False(t, m.HasRecording())
}

func TestMeeting_MarshalJSONDerivedFields(t *testing.T) {
	duration := int64(5400)
	tests := []struct {
		name          string
		meeting       Meeting
		expectedCount float64
		hasRecording  bool
	}{
		{
			name:          "bare meeting",
			meeting:       Meeting{ID: 1, Status: MeetingStatusCreated},
			expectedCount: 0,
			hasRecording:  false,
		},
		{
			name: "participants and recording",
			meeting: Meeting{
				ID:     2,
				Status: MeetingStatusFinished,
				Participants: []Participant{
					{Email: "doctor@clinica.com", Role: ParticipantRoleOrganizer},
					{Email: "paciente@correo.com", Role: ParticipantRoleGuest},
				},
				Recording: &Recording{ID: 9, MeetingID: 2, DurationSeconds: &duration},
			},
			expectedCount: 2,
			hasRecording:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(&tt.meeting)
			require.NoError(t, err)

			var body map[string]any
			require.NoError(t, json.Unmarshal(data, &body))
			assert.Equal(t, tt.expectedCount, body["participants_count"])
			assert.Equal(t, tt.hasRecording, body["has_recording"])
			assert.Equal(t, float64(tt.meeting.ID), body["id"])
			assert.Equal(t, string(tt.meeting.Status), body["status"])

			if tt.hasRecording {
				recording, ok := body["recording"].(map[string]any)
				require.True(t, ok)
				assert.Equal(t, "01:30:00", recording["duration_formatted"])
			}

			var decoded Meeting
			require.NoError(t, json.Unmarshal(data, &decoded))
			assert.Equal(t, tt.meeting.ID, decoded.ID)
			assert.Len(t, decoded.Participants, int(tt.expectedCount))
		})
	}
}
