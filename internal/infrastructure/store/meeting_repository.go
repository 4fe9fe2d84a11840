// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/logging"
)

// GormMeetingRepository stores meetings and participants.
type GormMeetingRepository struct {
	db *gorm.DB
}

// Ensure GormMeetingRepository implements MeetingRepository
var _ domain.MeetingRepository = (*GormMeetingRepository)(nil)

// NewGormMeetingRepository creates a meeting repository on db.
func NewGormMeetingRepository(db *gorm.DB) *GormMeetingRepository {
	return &GormMeetingRepository{db: db}
}

func (r *GormMeetingRepository) CreateMeeting(ctx context.Context, meeting *models.Meeting) error {
	rec := newMeetingRecord(meeting)
	rec.ID = 0
	rec.Revision = 1

	var participants []participantRecord
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(rec).Error; err != nil {
			return err
		}
		if len(meeting.Participants) == 0 {
			return nil
		}
		participants = make([]participantRecord, 0, len(meeting.Participants))
		for _, p := range meeting.Participants {
			participants = append(participants, participantRecord{
				MeetingID: rec.ID,
				Email:     models.NormalizeEmail(p.Email),
				Role:      string(p.Role),
			})
		}
		return tx.Create(&participants).Error
	})
	if err != nil {
		slog.ErrorContext(ctx, "error creating meeting", logging.ErrKey, err,
			"provider_event_id", meeting.ProviderEventID)
		return translateError(err, "meeting", domain.ErrMeetingNotFound)
	}

	meeting.ID = rec.ID
	meeting.Revision = rec.Revision
	meeting.CreatedAt = rec.CreatedAt
	meeting.UpdatedAt = rec.UpdatedAt
	for i := range participants {
		meeting.Participants[i] = *participants[i].toModel()
	}

	slog.DebugContext(ctx, "created meeting", "meeting_id", meeting.ID, "participants", len(participants))
	return nil
}

func (r *GormMeetingRepository) MeetingExists(ctx context.Context, meetingID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&meetingRecord{}).Where("id = ?", meetingID).Count(&count).Error
	if err != nil {
		return false, translateError(err, "meeting", domain.ErrMeetingNotFound)
	}
	return count > 0, nil
}

func (r *GormMeetingRepository) ProviderEventExists(ctx context.Context, providerEventID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&meetingRecord{}).
		Where("provider_event_id = ?", providerEventID).
		Count(&count).Error
	if err != nil {
		return false, translateError(err, "meeting", domain.ErrMeetingNotFound)
	}
	return count > 0, nil
}

func (r *GormMeetingRepository) GetMeeting(ctx context.Context, meetingID uint64) (*models.Meeting, error) {
	var rec meetingRecord
	err := r.db.WithContext(ctx).
		Preload("Organizer").
		Preload("Participants", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Recording").
		First(&rec, meetingID).Error
	if err != nil {
		return nil, translateError(err, "meeting", domain.ErrMeetingNotFound)
	}
	return rec.toModel(), nil
}

func (r *GormMeetingRepository) UpdateMeeting(ctx context.Context, meeting *models.Meeting, revision uint64) error {
	now := time.Now().UTC()
	updates := map[string]any{
		"status":          string(meeting.Status),
		"scheduled_start": utcPtr(meeting.ScheduledStart),
		"scheduled_end":   utcPtr(meeting.ScheduledEnd),
		"revision":        gorm.Expr("revision + 1"),
		"updated_at":      now,
	}

	q := r.db.WithContext(ctx).Model(&meetingRecord{}).Where("id = ?", meeting.ID)
	if revision != 0 {
		q = q.Where("revision = ?", revision)
	}
	res := q.Updates(updates)
	if res.Error != nil {
		slog.ErrorContext(ctx, "error updating meeting", logging.ErrKey, res.Error, "meeting_id", meeting.ID)
		return translateError(res.Error, "meeting", domain.ErrMeetingNotFound)
	}

	if res.RowsAffected == 0 {
		exists, err := r.MeetingExists(ctx, meeting.ID)
		if err != nil {
			return err
		}
		if !exists {
			return domain.NewNotFoundError("meeting not found", domain.ErrMeetingNotFound)
		}
		slog.WarnContext(ctx, "meeting revision mismatch", "meeting_id", meeting.ID, "expected_revision", revision)
		return domain.NewConflictError("meeting was modified concurrently", domain.ErrRevisionMismatch)
	}

	var stored meetingRecord
	if err := r.db.WithContext(ctx).Select("revision", "updated_at").First(&stored, meeting.ID).Error; err != nil {
		return translateError(err, "meeting", domain.ErrMeetingNotFound)
	}
	meeting.Revision = stored.Revision
	meeting.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *GormMeetingRepository) ListMeetings(ctx context.Context, filter models.MeetingFilter) ([]*models.Meeting, error) {
	q := r.db.WithContext(ctx).
		Preload("Organizer").
		Preload("Participants", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Recording")

	if filter.OrganizerID != nil {
		q = q.Where("organizer_id = ?", *filter.OrganizerID)
	}
	if filter.OrganizerEmail != "" {
		q = q.Where("organizer_id IN (?)",
			r.db.Model(&userRecord{}).Select("id").Where("email = ?", models.NormalizeEmail(filter.OrganizerEmail)))
	}
	if filter.Status != "" {
		q = q.Where("status = ?", string(filter.Status))
	}
	if filter.ScheduledStartFrom != nil {
		q = q.Where("scheduled_start >= ?", filter.ScheduledStartFrom.UTC())
	}
	if filter.ScheduledStartTo != nil {
		q = q.Where("scheduled_start <= ?", filter.ScheduledStartTo.UTC())
	}

	var recs []meetingRecord
	if err := q.Order("created_at DESC").Order("id DESC").Find(&recs).Error; err != nil {
		slog.ErrorContext(ctx, "error listing meetings", logging.ErrKey, err)
		return nil, translateError(err, "meeting", domain.ErrMeetingNotFound)
	}

	meetings := make([]*models.Meeting, 0, len(recs))
	for i := range recs {
		meetings = append(meetings, recs[i].toModel())
	}
	return meetings, nil
}

func (r *GormMeetingRepository) GetParticipant(ctx context.Context, participantID uint64) (*models.Participant, error) {
	var rec participantRecord
	if err := r.db.WithContext(ctx).First(&rec, participantID).Error; err != nil {
		return nil, translateError(err, "participant", domain.ErrParticipantNotFound)
	}
	return rec.toModel(), nil
}

func (r *GormMeetingRepository) ListParticipants(ctx context.Context, meetingID *uint64) ([]*models.Participant, error) {
	q := r.db.WithContext(ctx).Model(&participantRecord{})
	if meetingID != nil {
		q = q.Where("meeting_id = ?", *meetingID)
	}

	var recs []participantRecord
	if err := q.Order("meeting_id ASC").Order("id ASC").Find(&recs).Error; err != nil {
		return nil, translateError(err, "participant", domain.ErrMeetingNotFound)
	}

	participants := make([]*models.Participant, 0, len(recs))
	for i := range recs {
		participants = append(participants, recs[i].toModel())
	}
	return participants, nil
}

func (r *GormMeetingRepository) ListSyncCandidates(ctx context.Context, filter models.SyncCandidateFilter) ([]*models.Meeting, error) {
	q := r.db.WithContext(ctx).
		Preload("Organizer").
		Where("join_link <> ''").
		Where("NOT EXISTS (SELECT 1 FROM " + TableRecordings + " WHERE " + TableRecordings + ".meeting_id = " + TableMeetings + ".id)").
		Order("CASE WHEN conference_record_id <> '' THEN 0 ELSE 1 END").
		Order("scheduled_start IS NULL").
		Order("scheduled_start DESC").
		Order("created_at DESC")
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	var recs []meetingRecord
	if err := q.Find(&recs).Error; err != nil {
		slog.ErrorContext(ctx, "error listing sync candidates", logging.ErrKey, err)
		return nil, translateError(err, "meeting", domain.ErrMeetingNotFound)
	}

	meetings := make([]*models.Meeting, 0, len(recs))
	for i := range recs {
		meetings = append(meetings, recs[i].toModel())
	}
	return meetings, nil
}

func (r *GormMeetingRepository) SetConferenceRecordID(ctx context.Context, meetingID uint64, conferenceRecordID string) error {
	res := r.db.WithContext(ctx).Model(&meetingRecord{}).
		Where("id = ?", meetingID).
		Update("conference_record_id", conferenceRecordID)
	if res.Error != nil {
		return translateError(res.Error, "meeting", domain.ErrMeetingNotFound)
	}
	if res.RowsAffected == 0 {
		return domain.NewNotFoundError("meeting not found", domain.ErrMeetingNotFound)
	}
	return nil
}
