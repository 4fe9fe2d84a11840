// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package store

import (
	"time"

	"gorm.io/datatypes"

	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-meet-middleware/pkg/utils"
)

// Table names.
const (
	TableUsers        = "users"
	TableMeetings     = "meetings"
	TableParticipants = "participants"
	TableRecordings   = "recordings"
)

type userRecord struct {
	ID        uint64 `gorm:"primaryKey"`
	Email     string `gorm:"size:254;not null;uniqueIndex"`
	Username  string `gorm:"size:150;not null;uniqueIndex"`
	Role      string `gorm:"size:16;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (userRecord) TableName() string { return TableUsers }

type meetingRecord struct {
	ID                 uint64     `gorm:"primaryKey"`
	ProviderEventID    string     `gorm:"size:255;not null;uniqueIndex"`
	JoinLink           string     `gorm:"size:500;not null;default:''"`
	Title              string     `gorm:"size:255;not null;default:''"`
	OrganizerID        uint64     `gorm:"not null;index"`
	Organizer          userRecord `gorm:"foreignKey:OrganizerID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	InvitedEmails      datatypes.JSONSlice[string]
	ScheduledStart     *time.Time `gorm:"index"`
	ScheduledEnd       *time.Time
	Status             string              `gorm:"size:16;not null;index"`
	ExternalReference  string              `gorm:"size:255;not null;default:''"`
	ConferenceRecordID string              `gorm:"size:255;not null;default:''"`
	Revision           uint64              `gorm:"not null;default:1"`
	Participants       []participantRecord `gorm:"foreignKey:MeetingID;constraint:OnDelete:CASCADE"`
	Recording          *recordingRecord    `gorm:"foreignKey:MeetingID;constraint:OnDelete:CASCADE"`
	CreatedAt          time.Time           `gorm:"index"`
	UpdatedAt          time.Time
}

func (meetingRecord) TableName() string { return TableMeetings }

type participantRecord struct {
	ID        uint64 `gorm:"primaryKey"`
	MeetingID uint64 `gorm:"not null;uniqueIndex:idx_participants_meeting_email"`
	Email     string `gorm:"size:254;not null;uniqueIndex:idx_participants_meeting_email"`
	Role      string `gorm:"size:16;not null"`
	CreatedAt time.Time
}

func (participantRecord) TableName() string { return TableParticipants }

type recordingRecord struct {
	ID              uint64 `gorm:"primaryKey"`
	MeetingID       uint64 `gorm:"not null;uniqueIndex"`
	ProviderFileID  *string
	ProviderFileURL *string `gorm:"size:1000"`
	DurationSeconds *int64
	AvailableAt     *time.Time
	State           string `gorm:"size:32;not null;default:''"`
	StartTime       *time.Time
	EndTime         *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (recordingRecord) TableName() string { return TableRecordings }

// allRecords lists the schema in dependency order.
func allRecords() []any {
	return []any{&userRecord{}, &meetingRecord{}, &participantRecord{}, &recordingRecord{}}
}

func (r *userRecord) toModel() *models.User {
	return &models.User{
		ID:        r.ID,
		Email:     r.Email,
		Username:  r.Username,
		Role:      models.UserRole(r.Role),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func newMeetingRecord(m *models.Meeting) *meetingRecord {
	invited := make([]string, 0, len(m.InvitedEmails))
	invited = append(invited, m.InvitedEmails...)
	return &meetingRecord{
		ID:                 m.ID,
		ProviderEventID:    m.ProviderEventID,
		JoinLink:           m.JoinLink,
		Title:              m.Title,
		OrganizerID:        m.OrganizerID,
		InvitedEmails:      datatypes.JSONSlice[string](invited),
		ScheduledStart:     utcPtr(m.ScheduledStart),
		ScheduledEnd:       utcPtr(m.ScheduledEnd),
		Status:             string(m.Status),
		ExternalReference:  m.ExternalReference,
		ConferenceRecordID: m.ConferenceRecordID,
		Revision:           m.Revision,
	}
}

func (r *meetingRecord) toModel() *models.Meeting {
	m := &models.Meeting{
		ID:                 r.ID,
		ProviderEventID:    r.ProviderEventID,
		JoinLink:           r.JoinLink,
		Title:              r.Title,
		OrganizerID:        r.OrganizerID,
		OrganizerEmail:     r.Organizer.Email,
		OrganizerUsername:  r.Organizer.Username,
		InvitedEmails:      []string(r.InvitedEmails),
		ScheduledStart:     r.ScheduledStart,
		ScheduledEnd:       r.ScheduledEnd,
		Status:             models.MeetingStatus(r.Status),
		ExternalReference:  r.ExternalReference,
		ConferenceRecordID: r.ConferenceRecordID,
		Revision:           r.Revision,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
	if m.InvitedEmails == nil {
		m.InvitedEmails = []string{}
	}
	for i := range r.Participants {
		m.Participants = append(m.Participants, *r.Participants[i].toModel())
	}
	if r.Recording != nil {
		m.Recording = r.Recording.toModel()
	}
	return m
}

func (r *participantRecord) toModel() *models.Participant {
	return &models.Participant{
		ID:        r.ID,
		MeetingID: r.MeetingID,
		Email:     r.Email,
		Role:      models.ParticipantRole(r.Role),
		CreatedAt: r.CreatedAt,
	}
}

func newRecordingRecord(rec *models.Recording) *recordingRecord {
	return &recordingRecord{
		ID:              rec.ID,
		MeetingID:       rec.MeetingID,
		ProviderFileID:  rec.ProviderFileID,
		ProviderFileURL: rec.ProviderFileURL,
		DurationSeconds: rec.DurationSeconds,
		AvailableAt:     utcPtr(rec.AvailableAt),
		State:           string(rec.State),
		StartTime:       utcPtr(rec.StartTime),
		EndTime:         utcPtr(rec.EndTime),
	}
}

func (r *recordingRecord) toModel() *models.Recording {
	return &models.Recording{
		ID:              r.ID,
		MeetingID:       r.MeetingID,
		ProviderFileID:  r.ProviderFileID,
		ProviderFileURL: r.ProviderFileURL,
		DurationSeconds: r.DurationSeconds,
		AvailableAt:     r.AvailableAt,
		State:           models.RecordingState(r.State),
		StartTime:       r.StartTime,
		EndTime:         r.EndTime,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	return utils.Ptr(t.UTC())
}
