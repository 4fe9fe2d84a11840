// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/domain/models"
)

func TestGormRecordingRepository(t *testing.T) {
	s := newTestStores(t)
	ctx := context.Background()
	meeting := s.createMeeting(t, "doctor@clinica.com", "evt-1", nil)

	_, err := s.recordings.GetRecordingByMeeting(ctx, meeting.ID)
	assert.ErrorIs(t, err, domain.ErrRecordingNotFound)

	fileID := "file-1"
	duration := int64(1800)
	available := time.Date(2025, 1, 12, 16, 0, 0, 0, time.FixedZone("COT", -5*3600))
	rec := &models.Recording{
		MeetingID:       meeting.ID,
		ProviderFileID:  &fileID,
		DurationSeconds: &duration,
		AvailableAt:     &available,
		State:           models.RecordingStateFileGenerated,
	}
	require.NoError(t, s.recordings.CreateRecording(ctx, rec))
	assert.NotZero(t, rec.ID)

	t.Run("one recording per meeting", func(t *testing.T) {
		err := s.recordings.CreateRecording(ctx, &models.Recording{MeetingID: meeting.ID})
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("recording of unknown meeting", func(t *testing.T) {
		err := s.recordings.CreateRecording(ctx, &models.Recording{MeetingID: 5555})
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("stored values", func(t *testing.T) {
		got, err := s.recordings.GetRecordingByMeeting(ctx, meeting.ID)
		require.NoError(t, err)
		assert.Equal(t, rec.ID, got.ID)
		require.NotNil(t, got.ProviderFileID)
		assert.Equal(t, "file-1", *got.ProviderFileID)
		assert.Nil(t, got.ProviderFileURL)
		require.NotNil(t, got.AvailableAt)
		assert.True(t, got.AvailableAt.Equal(available))
		assert.Equal(t, "00:30:00", got.DurationFormatted())

		withRecording, err := s.meetings.GetMeeting(ctx, meeting.ID)
		require.NoError(t, err)
		require.True(t, withRecording.HasRecording())
		assert.Equal(t, rec.ID, withRecording.Recording.ID)
	})

	t.Run("by id", func(t *testing.T) {
		got, err := s.recordings.GetRecording(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, meeting.ID, got.MeetingID)

		_, err = s.recordings.GetRecording(ctx, 9999)
		assert.ErrorIs(t, err, domain.ErrRecordingNotFound)
		assert.Equal(t, domain.ErrorTypeNotFound, domain.GetErrorType(err))
	})

	t.Run("update", func(t *testing.T) {
		url := "https://drive.google.com/file/d/file-1/view"
		rec.ProviderFileURL = &url
		before := rec.UpdatedAt
		require.NoError(t, s.recordings.UpdateRecording(ctx, rec))
		assert.False(t, rec.UpdatedAt.Before(before))

		got, err := s.recordings.GetRecordingByMeeting(ctx, meeting.ID)
		require.NoError(t, err)
		require.NotNil(t, got.ProviderFileURL)
		assert.Equal(t, url, *got.ProviderFileURL)

		err = s.recordings.UpdateRecording(ctx, &models.Recording{ID: 9999})
		assert.ErrorIs(t, err, domain.ErrRecordingNotFound)
	})

	t.Run("list", func(t *testing.T) {
		other := s.createMeeting(t, "doctor@clinica.com", "evt-2", nil)
		require.NoError(t, s.recordings.CreateRecording(ctx, &models.Recording{MeetingID: other.ID}))

		all, err := s.recordings.ListRecordings(ctx, nil)
		require.NoError(t, err)
		assert.Len(t, all, 2)

		filtered, err := s.recordings.ListRecordings(ctx, &other.ID)
		require.NoError(t, err)
		require.Len(t, filtered, 1)
		assert.Equal(t, other.ID, filtered[0].MeetingID)
	})
}
