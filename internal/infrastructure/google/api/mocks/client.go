// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package mocks

import (
	"context"

	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/infrastructure/google/api"
)

// MockClient is a mock implementation of the Google API client for testing.
// Unset funcs fall back to a harmless default answer.
type MockClient struct {
	InsertEventFunc              func(ctx context.Context, event *api.Event) (*api.Event, error)
	PatchEventFunc               func(ctx context.Context, eventID string, patch *api.EventPatch) (*api.Event, error)
	GetEventFunc                 func(ctx context.Context, eventID string) (*api.Event, error)
	ListDriveFilesFunc           func(ctx context.Context, query string, pageSize int) ([]api.DriveFile, error)
	ListConferenceRecordsFunc    func(ctx context.Context, filter string) ([]api.ConferenceRecord, error)
	ListConferenceRecordingsFunc func(ctx context.Context, conferenceRecord string) ([]api.ConferenceRecording, error)

	Calendar string
	Zone     string
}

// NewMockClient creates a new mock client with default implementations
func NewMockClient() *MockClient {
	return &MockClient{
		Calendar: api.DefaultCalendarID,
		Zone:     "UTC",
	}
}

// Ensure MockClient implements ClientAPI interface
var _ api.ClientAPI = (*MockClient)(nil)

// InsertEvent mocks the events.insert call
func (m *MockClient) InsertEvent(ctx context.Context, event *api.Event) (*api.Event, error) {
	if m.InsertEventFunc != nil {
		return m.InsertEventFunc(ctx, event)
	}
	created := *event
	created.ID = "evt_default"
	created.Status = api.EventStatusConfirmed
	created.HangoutLink = "https://meet.google.com/abc-defg-hij"
	return &created, nil
}

// PatchEvent mocks the events.patch call
func (m *MockClient) PatchEvent(ctx context.Context, eventID string, patch *api.EventPatch) (*api.Event, error) {
	if m.PatchEventFunc != nil {
		return m.PatchEventFunc(ctx, eventID, patch)
	}
	return &api.Event{ID: eventID, Status: patch.Status, Start: patch.Start, End: patch.End}, nil
}

// GetEvent mocks the events.get call
func (m *MockClient) GetEvent(ctx context.Context, eventID string) (*api.Event, error) {
	if m.GetEventFunc != nil {
		return m.GetEventFunc(ctx, eventID)
	}
	return &api.Event{ID: eventID, Status: api.EventStatusConfirmed}, nil
}

// ListDriveFiles mocks the files.list call
func (m *MockClient) ListDriveFiles(ctx context.Context, query string, pageSize int) ([]api.DriveFile, error) {
	if m.ListDriveFilesFunc != nil {
		return m.ListDriveFilesFunc(ctx, query, pageSize)
	}
	return nil, nil
}

// ListConferenceRecords mocks the conferenceRecords.list call
func (m *MockClient) ListConferenceRecords(ctx context.Context, filter string) ([]api.ConferenceRecord, error) {
	if m.ListConferenceRecordsFunc != nil {
		return m.ListConferenceRecordsFunc(ctx, filter)
	}
	return nil, nil
}

// ListConferenceRecordings mocks the conferenceRecords.recordings.list call
func (m *MockClient) ListConferenceRecordings(ctx context.Context, conferenceRecord string) ([]api.ConferenceRecording, error) {
	if m.ListConferenceRecordingsFunc != nil {
		return m.ListConferenceRecordingsFunc(ctx, conferenceRecord)
	}
	return nil, nil
}

// CalendarID returns the configured calendar id
func (m *MockClient) CalendarID() string {
	return m.Calendar
}

// TimeZone returns the configured time zone
func (m *MockClient) TimeZone() string {
	return m.Zone
}
