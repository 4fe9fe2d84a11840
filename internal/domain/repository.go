// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package domain

import (
	"context"

	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/domain/models"
)

// MeetingRepository defines the interface for meeting and participant storage.
// Uniqueness violations come back as ConflictError and unknown ids as
// NotFoundError.
type MeetingRepository interface {
	// CreateMeeting stores the meeting and its Participants in a single
	// transaction and fills in ids, timestamps and the initial revision.
	CreateMeeting(ctx context.Context, meeting *models.Meeting) error
	MeetingExists(ctx context.Context, meetingID uint64) (bool, error)
	// ProviderEventExists reports whether a stored meeting owns the event.
	ProviderEventExists(ctx context.Context, providerEventID string) (bool, error)

	// GetMeeting returns the meeting with its participants and recording.
	GetMeeting(ctx context.Context, meetingID uint64) (*models.Meeting, error)

	// UpdateMeeting writes status and schedule. The conference record id
	// is owned by SetConferenceRecordID. A non-zero revision must match the
	// stored one.
	UpdateMeeting(ctx context.Context, meeting *models.Meeting, revision uint64) error

	// ListMeetings returns matching meetings, most recently created first.
	ListMeetings(ctx context.Context, filter models.MeetingFilter) ([]*models.Meeting, error)

	GetParticipant(ctx context.Context, participantID uint64) (*models.Participant, error)

	// ListParticipants returns participants of one meeting, or of every
	// meeting when meetingID is nil.
	ListParticipants(ctx context.Context, meetingID *uint64) ([]*models.Participant, error)

	// ListSyncCandidates returns meetings with a join link and no recording.
	ListSyncCandidates(ctx context.Context, filter models.SyncCandidateFilter) ([]*models.Meeting, error)

	// SetConferenceRecordID stores the provider conference record of a meeting.
	SetConferenceRecordID(ctx context.Context, meetingID uint64, conferenceRecordID string) error
}

// RecordingRepository defines the interface for recording storage.
type RecordingRepository interface {
	GetRecording(ctx context.Context, recordingID uint64) (*models.Recording, error)
	GetRecordingByMeeting(ctx context.Context, meetingID uint64) (*models.Recording, error)
	// CreateRecording fails with ConflictError when the meeting already
	// has a recording.
	CreateRecording(ctx context.Context, recording *models.Recording) error
	UpdateRecording(ctx context.Context, recording *models.Recording) error
	ListRecordings(ctx context.Context, meetingID *uint64) ([]*models.Recording, error)
}

// UserDirectory resolves meeting emails to directory users.
type UserDirectory interface {
	// ResolveOrCreateUser returns the id of the user with the given email,
	// creating an EXTERNAL user when none exists.
	ResolveOrCreateUser(ctx context.Context, email string) (uint64, error)
	GetUser(ctx context.Context, userID uint64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}
