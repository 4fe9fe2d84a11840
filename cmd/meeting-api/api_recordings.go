// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"net/http"

	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/domain/models"
)

// syncRequestedResponse is the body of an accepted sync request.
type syncRequestedResponse struct {
	Message   string `json:"message"`
	MeetingID uint64 `json:"meeting_id"`
}

// GetMeetingRecording handles GET /meetings/{id}/recording.
func (s *MeetingsAPI) GetMeetingRecording(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	meetingID, err := s.meetingID(r)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	recording, err := s.meetingService.GetRecording(ctx, meetingID)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, recording)
}

// SyncMeetingRecording handles POST /meetings/{id}/sync-recording. The sync
// runs in the background.
func (s *MeetingsAPI) SyncMeetingRecording(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	meetingID, err := s.meetingID(r)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	if err := s.recordingSyncService.RequestSync(ctx, meetingID); err != nil {
		handleError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusAccepted, syncRequestedResponse{
		Message:   "recording sync started",
		MeetingID: meetingID,
	})
}

// ListRecordings handles GET /recordings, optionally filtered by meeting.
func (s *MeetingsAPI) ListRecordings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	meetingID, err := optionalUintQuery(r, "meeting")
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	recordings, err := s.meetingService.ListRecordings(ctx, meetingID)
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	if recordings == nil {
		recordings = []*models.Recording{}
	}

	writeJSON(ctx, w, http.StatusOK, recordings)
}

// GetRecording handles GET /recordings/{id}.
func (s *MeetingsAPI) GetRecording(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	recordingID, err := s.pathID(r, "recording")
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	recording, err := s.meetingService.GetRecordingByID(ctx, recordingID)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, recording)
}

// SyncAllRecordings handles POST /recordings/sync-all and waits for the run.
func (s *MeetingsAPI) SyncAllRecordings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.SyncAllRequest
	if err := decodeBody(r, &req); err != nil {
		handleError(ctx, w, err)
		return
	}

	stats, err := s.recordingSyncService.SyncAll(ctx, req.Limit)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, stats)
}
