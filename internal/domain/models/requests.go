// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import "time"

// CreateMeetingRequest is the input of a meeting creation.
type CreateMeetingRequest struct {
	OrganizerEmail    string     `json:"organizer_email" validate:"required,email,max=254"`
	InvitedEmails     []string   `json:"invited_emails" validate:"required,min=1,unique,dive,required,email,max=254"`
	ScheduledStart    *time.Time `json:"scheduled_start,omitempty"`
	ScheduledEnd      *time.Time `json:"scheduled_end,omitempty"`
	ExternalReference string     `json:"external_reference,omitempty" validate:"max=255"`
}

// Normalize returns a copy with trimmed, lowercased emails and UTC times.
func (r CreateMeetingRequest) Normalize() CreateMeetingRequest {
	out := r
	out.OrganizerEmail = NormalizeEmail(r.OrganizerEmail)
	if r.InvitedEmails != nil {
		out.InvitedEmails = make([]string, len(r.InvitedEmails))
		for i, email := range r.InvitedEmails {
			out.InvitedEmails[i] = NormalizeEmail(email)
		}
	}
	out.ScheduledStart = utcTime(r.ScheduledStart)
	out.ScheduledEnd = utcTime(r.ScheduledEnd)
	return out
}

// UpdateMeetingRequest is a partial update. Nil fields are left unchanged.
type UpdateMeetingRequest struct {
	Status         *MeetingStatus `json:"status,omitempty"`
	ScheduledStart *time.Time     `json:"scheduled_start,omitempty"`
	ScheduledEnd   *time.Time     `json:"scheduled_end,omitempty"`
	// Revision must match the stored revision when non-zero.
	Revision uint64 `json:"-"`
}

// IsEmpty reports whether the request changes nothing.
func (r UpdateMeetingRequest) IsEmpty() bool {
	return r.Status == nil && r.ScheduledStart == nil && r.ScheduledEnd == nil
}

func utcTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
