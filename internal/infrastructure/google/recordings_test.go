// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package google

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/infrastructure/google/api"
	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/infrastructure/google/api/mocks"
)

const testJoinLink = "https://meet.google.com/abc-defg-hij"

func TestFindRecording_ConferenceRecord(t *testing.T) {
	client := mocks.NewMockClient()
	client.ListConferenceRecordsFunc = func(ctx context.Context, filter string) ([]api.ConferenceRecord, error) {
		assert.Equal(t, `space.meeting_code = "abc-defg-hij"`, filter)
		return []api.ConferenceRecord{{Name: "conferenceRecords/empty"}, {Name: "conferenceRecords/rec-1"}}, nil
	}
	client.ListConferenceRecordingsFunc = func(ctx context.Context, name string) ([]api.ConferenceRecording, error) {
		if name == "conferenceRecords/empty" {
			return []api.ConferenceRecording{{Name: "r0", State: api.RecordingStateStarted}}, nil
		}
		return []api.ConferenceRecording{
			{Name: "r1", State: api.RecordingStateEnded},
			{
				Name:             "r2",
				State:            api.RecordingStateFileGenerated,
				StartTime:        "2025-01-12T15:00:00Z",
				EndTime:          "2025-01-12T15:45:30Z",
				DriveDestination: &api.DriveDestination{File: "file-2", ExportURI: "https://drive.google.com/file/d/file-2/view"},
			},
		}, nil
	}
	client.ListDriveFilesFunc = func(ctx context.Context, query string, pageSize int) ([]api.DriveFile, error) {
		t.Fatal("drive must not be searched when a conference recording exists")
		return nil, nil
	}

	snapshot, err := newTestProvider(client).FindRecording(context.Background(), models.RecordingQuery{MeetingID: 1, JoinLink: testJoinLink})
	require.NoError(t, err)
	require.NotNil(t, snapshot)
	assert.Equal(t, "file-2", snapshot.FileID)
	assert.Equal(t, "https://drive.google.com/file/d/file-2/view", snapshot.FileURL)
	assert.Equal(t, "rec-1", snapshot.ConferenceRecordID)
	assert.Equal(t, models.RecordingStateFileGenerated, snapshot.State)
	assert.Equal(t, SourceConferenceRecord, snapshot.Source)
	require.NotNil(t, snapshot.DurationSeconds)
	assert.Equal(t, int64(2730), *snapshot.DurationSeconds)
}

func TestFindRecording_KnownConferenceRecordID(t *testing.T) {
	client := mocks.NewMockClient()
	client.ListConferenceRecordsFunc = func(ctx context.Context, filter string) ([]api.ConferenceRecord, error) {
		t.Fatal("records must not be listed when the id is known")
		return nil, nil
	}
	client.ListConferenceRecordingsFunc = func(ctx context.Context, name string) ([]api.ConferenceRecording, error) {
		assert.Equal(t, "rec-9", name)
		return []api.ConferenceRecording{{
			Name:             "r",
			State:            api.RecordingStateFileGenerated,
			DriveDestination: &api.DriveDestination{File: "f9"},
		}}, nil
	}

	snapshot, err := newTestProvider(client).FindRecording(context.Background(), models.RecordingQuery{
		JoinLink:           testJoinLink,
		ConferenceRecordID: "rec-9",
	})
	require.NoError(t, err)
	require.NotNil(t, snapshot)
	assert.Equal(t, "f9", snapshot.FileID)
	assert.Nil(t, snapshot.DurationSeconds)
}

func TestFindRecording_DriveFallbacks(t *testing.T) {
	past := fixedNow.Add(-3 * time.Hour)
	pastEnd := past.Add(time.Hour)
	future := fixedNow.Add(24 * time.Hour)
	created := fixedNow.Add(-30 * time.Minute)

	tests := []struct {
		name       string
		query      models.RecordingQuery
		drive      func(t *testing.T, query string) []api.DriveFile
		eventTitle string
		wantFileID string
		wantSource string
		wantNil    bool
	}{
		{
			name:  "by meeting code",
			query: models.RecordingQuery{JoinLink: testJoinLink, ProviderEventID: "evt1"},
			drive: func(t *testing.T, query string) []api.DriveFile {
				assert.Contains(t, query, "mimeType='video/mp4' and trashed=false")
				if strings.Contains(query, "name contains 'abc-defg-hij'") {
					return []api.DriveFile{{ID: "by-code", Name: "abc-defg-hij (2025-01-12 10:00 GMT-5)", CreatedTime: "2025-01-12T16:00:00Z",
						VideoMediaMetadata: &api.VideoMediaMetadata{DurationMillis: "600000"}}}
				}
				return nil
			},
			wantFileID: "by-code",
			wantSource: SourceDriveMeetingCode,
		},
		{
			name:  "by event id",
			query: models.RecordingQuery{JoinLink: testJoinLink, ProviderEventID: "evt1"},
			drive: func(t *testing.T, query string) []api.DriveFile {
				if strings.Contains(query, "name contains 'evt1'") {
					return []api.DriveFile{{ID: "by-event"}}
				}
				return nil
			},
			wantFileID: "by-event",
			wantSource: SourceDriveEventID,
		},
		{
			name:  "time window around past schedule prefers meeting code",
			query: models.RecordingQuery{JoinLink: testJoinLink, ProviderEventID: "evt1", ScheduledStart: &past, ScheduledEnd: &pastEnd},
			drive: func(t *testing.T, query string) []api.DriveFile {
				if !strings.Contains(query, "createdTime") {
					return nil
				}
				assert.Contains(t, query, "createdTime >= '2025-01-12T11:55:00Z' and createdTime <= '2025-01-12T13:15:00Z'")
				return []api.DriveFile{{ID: "newest", Name: "other"}, {ID: "coded", Name: "abc-defg-hij recording"}}
			},
			wantFileID: "coded",
			wantSource: SourceDriveTimeWindow,
		},
		{
			name:  "time window falls back to title overlap",
			query: models.RecordingQuery{ProviderEventID: "evt1", ScheduledStart: &past},
			drive: func(t *testing.T, query string) []api.DriveFile {
				if !strings.Contains(query, "createdTime") {
					return nil
				}
				assert.Contains(t, query, "createdTime <= '2025-01-12T14:00:00Z'")
				return []api.DriveFile{{ID: "newest", Name: "standup notes"}, {ID: "titled", Name: "Cardiology follow up"}}
			},
			eventTitle: "Cardiology Follow Up with patient",
			wantFileID: "titled",
			wantSource: SourceDriveTimeWindow,
		},
		{
			name:  "time window picks newest without a match",
			query: models.RecordingQuery{ProviderEventID: "evt1", CreatedAt: created},
			drive: func(t *testing.T, query string) []api.DriveFile {
				if !strings.Contains(query, "createdTime") {
					return nil
				}
				assert.Contains(t, query, "createdTime >= '2025-01-12T13:30:00Z' and createdTime <= '2025-01-12T16:30:00Z'")
				return []api.DriveFile{{ID: "newest", Name: "a"}, {ID: "older", Name: "b"}}
			},
			eventTitle: "unrelated",
			wantFileID: "newest",
			wantSource: SourceDriveTimeWindow,
		},
		{
			name:  "future schedule uses created window",
			query: models.RecordingQuery{ScheduledStart: &future, CreatedAt: created},
			drive: func(t *testing.T, query string) []api.DriveFile {
				assert.Contains(t, query, "createdTime >= '2025-01-12T13:30:00Z'")
				return nil
			},
			wantNil: true,
		},
		{
			name:    "nothing to search with",
			query:   models.RecordingQuery{},
			drive:   func(t *testing.T, query string) []api.DriveFile { return nil },
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := mocks.NewMockClient()
			client.ListDriveFilesFunc = func(ctx context.Context, query string, pageSize int) ([]api.DriveFile, error) {
				return tt.drive(t, query), nil
			}
			client.GetEventFunc = func(ctx context.Context, eventID string) (*api.Event, error) {
				return &api.Event{ID: eventID, Summary: tt.eventTitle}, nil
			}

			snapshot, err := newTestProvider(client).FindRecording(context.Background(), tt.query)
			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, snapshot)
				return
			}
			require.NotNil(t, snapshot)
			assert.Equal(t, tt.wantFileID, snapshot.FileID)
			assert.Equal(t, tt.wantSource, snapshot.Source)
		})
	}
}

func TestFindRecording_DriveMetadata(t *testing.T) {
	client := mocks.NewMockClient()
	client.ListDriveFilesFunc = func(ctx context.Context, query string, pageSize int) ([]api.DriveFile, error) {
		return []api.DriveFile{{
			ID:                 "f1",
			WebViewLink:        "https://drive.google.com/file/d/f1/view",
			CreatedTime:        "2025-01-12T16:00:00.000Z",
			VideoMediaMetadata: &api.VideoMediaMetadata{DurationMillis: "3723000"},
		}}, nil
	}

	snapshot, err := newTestProvider(client).FindRecording(context.Background(), models.RecordingQuery{JoinLink: testJoinLink})
	require.NoError(t, err)
	require.NotNil(t, snapshot)
	assert.Equal(t, "https://drive.google.com/file/d/f1/view", snapshot.FileURL)
	require.NotNil(t, snapshot.AvailableAt)
	assert.True(t, snapshot.AvailableAt.Equal(time.Date(2025, 1, 12, 16, 0, 0, 0, time.UTC)))
	require.NotNil(t, snapshot.DurationSeconds)
	assert.Equal(t, int64(3723), *snapshot.DurationSeconds)
}

func TestFindRecording_Errors(t *testing.T) {
	t.Run("conference record failure falls through to drive", func(t *testing.T) {
		client := mocks.NewMockClient()
		client.ListConferenceRecordsFunc = func(ctx context.Context, filter string) ([]api.ConferenceRecord, error) {
			return nil, &api.APIError{StatusCode: http.StatusForbidden, Message: "Meet API disabled"}
		}
		client.ListDriveFilesFunc = func(ctx context.Context, query string, pageSize int) ([]api.DriveFile, error) {
			return []api.DriveFile{{ID: "f1"}}, nil
		}

		snapshot, err := newTestProvider(client).FindRecording(context.Background(), models.RecordingQuery{JoinLink: testJoinLink})
		require.NoError(t, err)
		require.NotNil(t, snapshot)
		assert.Equal(t, "f1", snapshot.FileID)
	})

	t.Run("drive failure is returned", func(t *testing.T) {
		client := mocks.NewMockClient()
		client.ListDriveFilesFunc = func(ctx context.Context, query string, pageSize int) ([]api.DriveFile, error) {
			return nil, &api.APIError{StatusCode: http.StatusInternalServerError}
		}

		snapshot, err := newTestProvider(client).FindRecording(context.Background(), models.RecordingQuery{JoinLink: testJoinLink})
		assert.Nil(t, snapshot)
		assert.ErrorIs(t, err, domain.ErrProviderRequest)
		assert.True(t, domain.IsTransientProviderError(err))
	})
}

func TestBestTitleMatch(t *testing.T) {
	files := []api.DriveFile{{Name: "weekly sync"}, {Name: "Board Review Q1"}, {Name: "review review review"}}

	assert.Equal(t, 1, bestTitleMatch(files, "board review"))
	assert.Equal(t, 0, bestTitleMatch(files, "Weekly"))
	assert.Equal(t, -1, bestTitleMatch(files, "nothing shared"))
	assert.Equal(t, -1, bestTitleMatch(files, ""))
}
