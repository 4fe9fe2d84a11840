// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/infrastructure/google"
	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/infrastructure/messaging"
	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/infrastructure/store"
	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/service"
)

const testToken = "test-token"

type tokenParser struct{}

func (tokenParser) ParsePrincipal(_ context.Context, token string, _ *slog.Logger) (string, error) {
	if token != testToken {
		return "", errors.New("invalid token")
	}
	return "api-client", nil
}

type testAPI struct {
	t          *testing.T
	handler    http.Handler
	sync       *service.RecordingSyncService
	recordings *store.GormRecordingRepository
}

// newTestAPI wires the API to an in-memory database and the mock provider.
func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	ctx := context.Background()

	db, err := store.Open(ctx, store.Config{DSN: ":memory:", LogLevel: "silent"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(db) })

	meetings := store.NewGormMeetingRepository(db)
	recordings := store.NewGormRecordingRepository(db)
	directory := store.NewGormUserDirectory(db)
	provider := google.NewMockProvider()
	messages := messaging.NewMessageBuilder(nil)

	config := service.ServiceConfig{Location: time.UTC, SyncMaxTries: 1, SyncBackoff: time.Millisecond}
	meetingService := service.NewMeetingService(meetings, recordings, directory, provider, messages, config)
	syncService := service.NewRecordingSyncService(meetings, recordings, provider, messages, config)

	api := NewMeetingsAPI(meetingService, syncService, func(ctx context.Context) error {
		return store.Ping(ctx, db)
	})

	return &testAPI{t: t, handler: newHTTPHandler(api, tokenParser{}), sync: syncService, recordings: recordings}
}

func (a *testAPI) do(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	a.t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("Authorization", "Bearer "+testToken)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) createMeeting(body string) *models.Meeting {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/meetings", body, nil)
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())

	var meeting models.Meeting
	require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &meeting))
	return &meeting
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

const scheduledMeetingBody = `{
	"organizer_email": "Organizer@Example.org",
	"invited_emails": ["guest-one@example.org", "guest-two@example.org"],
	"scheduled_start": "2025-12-01T15:00:00Z",
	"scheduled_end": "2025-12-01T16:00:00Z"
}`

func TestHealthEndpoints(t *testing.T) {
	api := newTestAPI(t)

	for _, path := range []string{"/livez", "/readyz"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		api.handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, "OK\n", rec.Body.String())
	}
}

func TestReadyz_FailingCheck(t *testing.T) {
	svc := NewMeetingsAPI(
		service.NewMeetingService(nil, nil, nil, nil, nil, service.ServiceConfig{}),
		service.NewRecordingSyncService(nil, nil, nil, nil, service.ServiceConfig{}),
	)
	rec := httptest.NewRecorder()
	newHTTPHandler(svc, tokenParser{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "503", decodeError(t, rec).Code)
}

func TestUnauthenticatedRequest(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodGet, "/meetings", "", map[string]string{"Authorization": "Bearer nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-REQUEST-ID"))
}

func TestMeetingLifecycle(t *testing.T) {
	api := newTestAPI(t)

	meeting := api.createMeeting(scheduledMeetingBody)
	assert.NotZero(t, meeting.ID)
	assert.Equal(t, models.MeetingStatusCreated, meeting.Status)
	assert.Equal(t, "organizer@example.org", meeting.OrganizerEmail)
	assert.Equal(t, "Meeting - 01/12/2025 15:00", meeting.Title)
	assert.Regexp(t, `^https://meet\.google\.com/[a-z]{3}-[a-z]{4}-[a-z]{3}$`, meeting.JoinLink)

	path := fmt.Sprintf("/meetings/%d", meeting.ID)

	rec := api.do(http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	etag := rec.Header().Get("ETag")
	assert.Equal(t, fmt.Sprintf("%q", fmt.Sprint(meeting.Revision)), etag)

	var detail models.Meeting
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	assert.Len(t, detail.Participants, 3)

	rec = api.do(http.MethodGet, path+"/participants", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var participants []models.Participant
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &participants))
	assert.Len(t, participants, 3)

	t.Run("stale revision is a conflict", func(t *testing.T) {
		rec := api.do(http.MethodPatch, path, `{"status":"SCHEDULED"}`,
			map[string]string{"If-Match": fmt.Sprintf("%q", fmt.Sprint(meeting.Revision+5))})
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "409", decodeError(t, rec).Code)
	})

	t.Run("schedule with the current revision", func(t *testing.T) {
		rec := api.do(http.MethodPatch, path, `{"status":"scheduled"}`, map[string]string{"If-Match": etag})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var updated models.Meeting
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
		assert.Equal(t, models.MeetingStatusScheduled, updated.Status)
		assert.NotEqual(t, etag, rec.Header().Get("ETag"))
	})

	t.Run("window ending before it starts is rejected", func(t *testing.T) {
		rec := api.do(http.MethodPatch, path, `{"scheduled_end":"2025-12-01T14:00:00Z"}`, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("cancel", func(t *testing.T) {
		rec := api.do(http.MethodDelete, path, "", nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.JSONEq(t,
			fmt.Sprintf(`{"message":"meeting cancelled","meeting_id":%d,"status":"CANCELLED"}`, meeting.ID),
			rec.Body.String())
	})

	t.Run("cancelled is terminal", func(t *testing.T) {
		rec := api.do(http.MethodPatch, path, `{"status":"SCHEDULED"}`, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("list by status", func(t *testing.T) {
		rec := api.do(http.MethodGet, "/meetings?status=CANCELLED", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var meetings []models.Meeting
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &meetings))
		require.Len(t, meetings, 1)
		assert.Equal(t, meeting.ID, meetings[0].ID)

		rec = api.do(http.MethodGet, "/meetings?status=FINISHED", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, rec.Body.String())
	})
}

func TestCreateMeeting_Errors(t *testing.T) {
	api := newTestAPI(t)

	tests := []struct {
		name         string
		body         string
		expectStatus int
	}{
		{
			name:         "malformed json",
			body:         `{"organizer_email":`,
			expectStatus: http.StatusBadRequest,
		},
		{
			name:         "missing invitees",
			body:         `{"organizer_email":"organizer@example.org","invited_emails":[]}`,
			expectStatus: http.StatusBadRequest,
		},
		{
			name:         "invalid organizer email",
			body:         `{"organizer_email":"not-an-email","invited_emails":["guest@example.org"]}`,
			expectStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := api.do(http.MethodPost, "/meetings", tt.body, nil)
			assert.Equal(t, tt.expectStatus, rec.Code)
			assert.Equal(t, fmt.Sprint(tt.expectStatus), decodeError(t, rec).Code)
		})
	}
}

func TestMeetingLookups(t *testing.T) {
	api := newTestAPI(t)

	tests := []struct {
		name         string
		path         string
		expectStatus int
	}{
		{"invalid id", "/meetings/abc", http.StatusBadRequest},
		{"unknown meeting", "/meetings/999", http.StatusNotFound},
		{"participants of unknown meeting", "/meetings/999/participants", http.StatusNotFound},
		{"recording of unknown meeting", "/meetings/999/recording", http.StatusNotFound},
		{"invalid status filter", "/meetings?status=DONE", http.StatusBadRequest},
		{"invalid date filter", "/meetings?scheduled_start_gte=yesterday", http.StatusBadRequest},
		{"invalid participants filter", "/participants?meeting=x", http.StatusBadRequest},
		{"all participants", "/participants", http.StatusOK},
		{"all recordings", "/recordings", http.StatusOK},
		{"unknown participant", "/participants/999", http.StatusNotFound},
		{"invalid participant id", "/participants/x", http.StatusBadRequest},
		{"unknown recording", "/recordings/999", http.StatusNotFound},
		{"invalid recording id", "/recordings/0", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := api.do(http.MethodGet, tt.path, "", nil)
			assert.Equal(t, tt.expectStatus, rec.Code, rec.Body.String())
		})
	}
}

func TestRecordingEndpoints(t *testing.T) {
	api := newTestAPI(t)

	scheduled := api.createMeeting(scheduledMeetingBody)
	unscheduled := api.createMeeting(`{"organizer_email":"organizer@example.org","invited_emails":["guest@example.org"]}`)
	assert.Equal(t, "Video meeting", unscheduled.Title)

	t.Run("no recording yet", func(t *testing.T) {
		rec := api.do(http.MethodGet, fmt.Sprintf("/meetings/%d/recording", scheduled.ID), "", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("sync request is accepted", func(t *testing.T) {
		rec := api.do(http.MethodPost, fmt.Sprintf("/meetings/%d/sync-recording", scheduled.ID), "", nil)
		assert.Equal(t, http.StatusAccepted, rec.Code)

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		require.NoError(t, api.sync.Wait(ctx))
	})

	t.Run("sync request without a scheduled start", func(t *testing.T) {
		rec := api.do(http.MethodPost, fmt.Sprintf("/meetings/%d/sync-recording", unscheduled.ID), "", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("sync all", func(t *testing.T) {
		rec := api.do(http.MethodPost, "/recordings/sync-all", `{"limit":10}`, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var stats models.SyncStats
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
		assert.Equal(t, 2, stats.Processed)
		assert.Zero(t, stats.Found)
		assert.Zero(t, stats.Errors)
	})

	t.Run("sync all with a negative limit", func(t *testing.T) {
		rec := api.do(http.MethodPost, "/recordings/sync-all", `{"limit":-1}`, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func (a *testAPI) getJSON(path string, out any) {
	a.t.Helper()
	rec := a.do(http.MethodGet, path, "", nil)
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), out))
}

func TestResponses_DerivedFields(t *testing.T) {
	api := newTestAPI(t)

	meeting := api.createMeeting(`{
		"organizer_email": "organizer@example.org",
		"invited_emails": ["organizer@example.org", "guest@example.org"],
		"scheduled_start": "2025-12-01T15:00:00Z",
		"scheduled_end": "2025-12-01T16:00:00Z"
	}`)
	path := fmt.Sprintf("/meetings/%d", meeting.ID)

	t.Run("detail before a recording exists", func(t *testing.T) {
		var body map[string]any
		api.getJSON(path, &body)
		assert.Equal(t, float64(2), body["participants_count"])
		assert.Equal(t, false, body["has_recording"])
		assert.Equal(t, "organizer", body["organizer_username"])
	})

	duration := int64(3725)
	recording := &models.Recording{
		MeetingID:       meeting.ID,
		DurationSeconds: &duration,
		State:           models.RecordingStateFileGenerated,
	}
	require.NoError(t, api.recordings.CreateRecording(context.Background(), recording))

	t.Run("detail with a recording", func(t *testing.T) {
		var body map[string]any
		api.getJSON(path, &body)
		assert.Equal(t, true, body["has_recording"])
		nested, ok := body["recording"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "01:02:05", nested["duration_formatted"])
	})

	t.Run("list", func(t *testing.T) {
		var body []map[string]any
		api.getJSON("/meetings", &body)
		require.Len(t, body, 1)
		assert.Equal(t, float64(2), body[0]["participants_count"])
		assert.Equal(t, true, body[0]["has_recording"])
	})

	t.Run("meeting recording", func(t *testing.T) {
		var body map[string]any
		api.getJSON(path+"/recording", &body)
		assert.Equal(t, "01:02:05", body["duration_formatted"])
		assert.Equal(t, float64(3725), body["duration_seconds"])
	})

	t.Run("recording by id", func(t *testing.T) {
		var body map[string]any
		api.getJSON(fmt.Sprintf("/recordings/%d", recording.ID), &body)
		assert.Equal(t, float64(meeting.ID), body["meeting_id"])
		assert.Equal(t, "01:02:05", body["duration_formatted"])
	})

	t.Run("participant by id", func(t *testing.T) {
		var participants []models.Participant
		api.getJSON(path+"/participants", &participants)
		require.Len(t, participants, 2)

		var participant models.Participant
		api.getJSON(fmt.Sprintf("/participants/%d", participants[1].ID), &participant)
		assert.Equal(t, "guest@example.org", participant.Email)
		assert.Equal(t, models.ParticipantRoleGuest, participant.Role)
	})
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err    error
		expect int
	}{
		{domain.NewValidationError("bad"), http.StatusBadRequest},
		{domain.NewInvalidTransitionError("terminal"), http.StatusBadRequest},
		{domain.NewNotFoundError("missing", domain.ErrMeetingNotFound), http.StatusNotFound},
		{domain.NewConflictError("stale", domain.ErrRevisionMismatch), http.StatusConflict},
		{domain.NewProviderError(domain.ErrProviderQuota, "quota"), http.StatusServiceUnavailable},
		{domain.NewInternalError("db", domain.ErrInternal), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expect, statusFor(tt.err), tt.err.Error())
	}
}

func TestHandleError_HidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	handleError(context.Background(), rec, domain.NewInternalError("query failed", errors.New("password=secret")))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "500", body.Code)
	assert.Equal(t, "internal error", body.Message)
}

func TestIfMatchRevision(t *testing.T) {
	tests := []struct {
		header  string
		expect  uint64
		wantErr bool
	}{
		{"", 0, false},
		{"*", 0, false},
		{`"3"`, 3, false},
		{`W/"4"`, 4, false},
		{"5", 5, false},
		{`"abc"`, 0, true},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodPatch, "/meetings/1", nil)
		if tt.header != "" {
			req.Header.Set("If-Match", tt.header)
		}
		revision, err := ifMatchRevision(req)
		if tt.wantErr {
			assert.ErrorIs(t, err, domain.ErrValidationFailed, tt.header)
			continue
		}
		assert.NoError(t, err, tt.header)
		assert.Equal(t, tt.expect, revision, tt.header)
	}
}
