// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-meet-middleware/pkg/constants"
)

// cancelMeetingResponse is the body of DELETE /meetings/{id}.
type cancelMeetingResponse struct {
	Message   string               `json:"message"`
	MeetingID uint64               `json:"meeting_id"`
	Status    models.MeetingStatus `json:"status"`
}

// CreateMeeting handles POST /meetings.
func (s *MeetingsAPI) CreateMeeting(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.CreateMeetingRequest
	if err := decodeBody(r, &req); err != nil {
		handleError(ctx, w, err)
		return
	}

	meeting, err := s.meetingService.CreateMeeting(ctx, req)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	setETag(w, meeting.Revision)
	writeJSON(ctx, w, http.StatusCreated, meeting)
}

// ListMeetings handles GET /meetings.
func (s *MeetingsAPI) ListMeetings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter, err := meetingFilterFromQuery(r)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	meetings, err := s.meetingService.ListMeetings(ctx, filter)
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	if meetings == nil {
		meetings = []*models.Meeting{}
	}

	writeJSON(ctx, w, http.StatusOK, meetings)
}

// GetMeeting handles GET /meetings/{id}.
func (s *MeetingsAPI) GetMeeting(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	meetingID, err := s.meetingID(r)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	meeting, err := s.meetingService.GetMeeting(ctx, meetingID)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	setETag(w, meeting.Revision)
	writeJSON(ctx, w, http.StatusOK, meeting)
}

// UpdateMeeting handles PATCH /meetings/{id}. An If-Match header must carry
// the current revision.
func (s *MeetingsAPI) UpdateMeeting(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	meetingID, err := s.meetingID(r)
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	revision, err := ifMatchRevision(r)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	var req models.UpdateMeetingRequest
	if err := decodeBody(r, &req); err != nil {
		handleError(ctx, w, err)
		return
	}
	req.Revision = revision
	if req.Status != nil {
		// status names are accepted in any letter case
		if status, err := models.ParseMeetingStatus(string(*req.Status)); err == nil {
			req.Status = &status
		}
	}

	meeting, err := s.meetingService.UpdateMeeting(ctx, meetingID, req)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	setETag(w, meeting.Revision)
	writeJSON(ctx, w, http.StatusOK, meeting)
}

// CancelMeeting handles DELETE /meetings/{id}. The meeting is kept and
// moved to CANCELLED.
func (s *MeetingsAPI) CancelMeeting(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	meetingID, err := s.meetingID(r)
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	revision, err := ifMatchRevision(r)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	meeting, err := s.meetingService.CancelMeeting(ctx, meetingID, revision)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	setETag(w, meeting.Revision)
	writeJSON(ctx, w, http.StatusOK, cancelMeetingResponse{
		Message:   "meeting cancelled",
		MeetingID: meeting.ID,
		Status:    meeting.Status,
	})
}

// ListMeetingParticipants handles GET /meetings/{id}/participants.
func (s *MeetingsAPI) ListMeetingParticipants(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	meetingID, err := s.meetingID(r)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	participants, err := s.meetingService.ListParticipants(ctx, meetingID)
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	if participants == nil {
		participants = []*models.Participant{}
	}

	writeJSON(ctx, w, http.StatusOK, participants)
}

// ListParticipants handles GET /participants, optionally filtered by meeting.
func (s *MeetingsAPI) ListParticipants(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	meetingID, err := optionalUintQuery(r, "meeting")
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	participants, err := s.meetingService.ListAllParticipants(ctx, meetingID)
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	if participants == nil {
		participants = []*models.Participant{}
	}

	writeJSON(ctx, w, http.StatusOK, participants)
}

// GetParticipant handles GET /participants/{id}.
func (s *MeetingsAPI) GetParticipant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	participantID, err := s.pathID(r, "participant")
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	participant, err := s.meetingService.GetParticipant(ctx, participantID)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, participant)
}

func (s *MeetingsAPI) meetingID(r *http.Request) (uint64, error) {
	return s.pathID(r, "meeting")
}

// pathID parses the {id} path segment; what names the entity in errors.
func (s *MeetingsAPI) pathID(r *http.Request, what string) (uint64, error) {
	raw := s.vars(r)["id"]
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, domain.NewValidationError(fmt.Sprintf("invalid %s id %q", what, raw))
	}
	return id, nil
}

func setETag(w http.ResponseWriter, revision uint64) {
	w.Header().Set(constants.EtagHeader, strconv.Quote(strconv.FormatUint(revision, 10)))
}

// ifMatchRevision parses the If-Match header. A missing header or "*" is
// revision 0, which skips the check.
func ifMatchRevision(r *http.Request) (uint64, error) {
	raw := strings.TrimSpace(r.Header.Get(constants.IfMatchHeader))
	if raw == "" || raw == "*" {
		return 0, nil
	}
	value := strings.Trim(strings.TrimPrefix(raw, "W/"), `"`)
	revision, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, domain.NewValidationError(fmt.Sprintf("invalid If-Match header %q", raw))
	}
	return revision, nil
}

func meetingFilterFromQuery(r *http.Request) (models.MeetingFilter, error) {
	query := r.URL.Query()
	filter := models.MeetingFilter{
		OrganizerEmail: models.NormalizeEmail(query.Get("organizer_email")),
	}

	organizerID, err := optionalUintQuery(r, "organizer")
	if err != nil {
		return filter, err
	}
	filter.OrganizerID = organizerID

	if raw := query.Get("status"); raw != "" {
		status, err := models.ParseMeetingStatus(raw)
		if err != nil {
			return filter, domain.NewValidationError(err.Error())
		}
		filter.Status = status
	}

	if filter.ScheduledStartFrom, err = optionalTimeQuery(r, "scheduled_start_gte"); err != nil {
		return filter, err
	}
	if filter.ScheduledStartTo, err = optionalTimeQuery(r, "scheduled_start_lte"); err != nil {
		return filter, err
	}

	return filter, nil
}

func optionalUintQuery(r *http.Request, key string) (*uint64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, domain.NewValidationError(fmt.Sprintf("invalid %s %q", key, raw))
	}
	return &value, nil
}

func optionalTimeQuery(r *http.Request, key string) (*time.Time, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, nil
	}
	value, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, domain.NewValidationError(fmt.Sprintf("invalid %s %q, expected RFC 3339", key, raw))
	}
	value = value.UTC()
	return &value, nil
}
