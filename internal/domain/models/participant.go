// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import (
	"strings"
	"time"
)

// ParticipantRole is the role a participant plays in a meeting.
type ParticipantRole string

// Participant roles.
const (
	ParticipantRoleOrganizer ParticipantRole = "ORGANIZER"
	ParticipantRoleGuest     ParticipantRole = "GUEST"
)

// Participant is an invited person of a meeting. The pair (MeetingID, Email)
// is unique.
type Participant struct {
	ID        uint64          `json:"id"`
	MeetingID uint64          `json:"meeting_id"`
	Email     string          `json:"email"`
	Role      ParticipantRole `json:"role"`
	CreatedAt time.Time       `json:"created_at"`
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// BuildParticipants returns the participant set for a new meeting: the
// organizer once with role ORGANIZER, then every invited email not equal
// to the organizer as GUEST. Order follows the invited list.
func BuildParticipants(organizerEmail string, invitedEmails []string) []Participant {
	organizer := NormalizeEmail(organizerEmail)
	participants := make([]Participant, 0, len(invitedEmails)+1)
	participants = append(participants, Participant{
		Email: organizer,
		Role:  ParticipantRoleOrganizer,
	})

	seen := map[string]struct{}{organizer: {}}
	for _, email := range invitedEmails {
		normalized := NormalizeEmail(email)
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		participants = append(participants, Participant{
			Email: normalized,
			Role:  ParticipantRoleGuest,
		})
	}

	return participants
}
