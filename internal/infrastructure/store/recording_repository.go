// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/logging"
)

// GormRecordingRepository stores meeting recordings.
type GormRecordingRepository struct {
	db *gorm.DB
}

// Ensure GormRecordingRepository implements RecordingRepository
var _ domain.RecordingRepository = (*GormRecordingRepository)(nil)

// NewGormRecordingRepository creates a recording repository on db.
func NewGormRecordingRepository(db *gorm.DB) *GormRecordingRepository {
	return &GormRecordingRepository{db: db}
}

func (r *GormRecordingRepository) GetRecording(ctx context.Context, recordingID uint64) (*models.Recording, error) {
	var rec recordingRecord
	if err := r.db.WithContext(ctx).First(&rec, recordingID).Error; err != nil {
		return nil, translateError(err, "recording", domain.ErrRecordingNotFound)
	}
	return rec.toModel(), nil
}

func (r *GormRecordingRepository) GetRecordingByMeeting(ctx context.Context, meetingID uint64) (*models.Recording, error) {
	var rec recordingRecord
	err := r.db.WithContext(ctx).Where("meeting_id = ?", meetingID).First(&rec).Error
	if err != nil {
		return nil, translateError(err, "recording", domain.ErrRecordingNotFound)
	}
	return rec.toModel(), nil
}

func (r *GormRecordingRepository) CreateRecording(ctx context.Context, recording *models.Recording) error {
	rec := newRecordingRecord(recording)
	rec.ID = 0
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		if !isDuplicateKey(err) {
			slog.ErrorContext(ctx, "error creating recording", logging.ErrKey, err, "meeting_id", recording.MeetingID)
		}
		return translateError(err, "recording", domain.ErrRecordingNotFound)
	}

	recording.ID = rec.ID
	recording.CreatedAt = rec.CreatedAt
	recording.UpdatedAt = rec.UpdatedAt
	return nil
}

func (r *GormRecordingRepository) UpdateRecording(ctx context.Context, recording *models.Recording) error {
	now := time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&recordingRecord{}).
		Where("id = ?", recording.ID).
		Updates(map[string]any{
			"provider_file_id":  recording.ProviderFileID,
			"provider_file_url": recording.ProviderFileURL,
			"duration_seconds":  recording.DurationSeconds,
			"available_at":      utcPtr(recording.AvailableAt),
			"state":             string(recording.State),
			"start_time":        utcPtr(recording.StartTime),
			"end_time":          utcPtr(recording.EndTime),
			"updated_at":        now,
		})
	if res.Error != nil {
		slog.ErrorContext(ctx, "error updating recording", logging.ErrKey, res.Error, "recording_id", recording.ID)
		return translateError(res.Error, "recording", domain.ErrRecordingNotFound)
	}
	if res.RowsAffected == 0 {
		return domain.NewNotFoundError("recording not found", domain.ErrRecordingNotFound)
	}

	recording.UpdatedAt = now
	return nil
}

func (r *GormRecordingRepository) ListRecordings(ctx context.Context, meetingID *uint64) ([]*models.Recording, error) {
	q := r.db.WithContext(ctx).Model(&recordingRecord{})
	if meetingID != nil {
		q = q.Where("meeting_id = ?", *meetingID)
	}

	var recs []recordingRecord
	if err := q.Order("created_at DESC").Order("id DESC").Find(&recs).Error; err != nil {
		return nil, translateError(err, "recording", domain.ErrRecordingNotFound)
	}

	recordings := make([]*models.Recording, 0, len(recs))
	for i := range recs {
		recordings = append(recordings, recs[i].toModel())
	}
	return recordings, nil
}
