// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"

	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/logging"
	"github.com/linuxfoundation/lfx-v2-meet-middleware/pkg/constants"
)

// MeetingService is the only component that mutates a meeting and its
// participants as a unit.
type MeetingService struct {
	MeetingRepository   domain.MeetingRepository
	RecordingRepository domain.RecordingRepository
	UserDirectory       domain.UserDirectory
	Provider            domain.CalendarProvider
	MessageBuilder      domain.MessageBuilder
	Config              ServiceConfig

	validate *validator.Validate
	metrics  *serviceMetrics
}

// NewMeetingService creates a new MeetingService.
func NewMeetingService(
	meetingRepository domain.MeetingRepository,
	recordingRepository domain.RecordingRepository,
	userDirectory domain.UserDirectory,
	provider domain.CalendarProvider,
	messageBuilder domain.MessageBuilder,
	config ServiceConfig,
) *MeetingService {
	return &MeetingService{
		MeetingRepository:   meetingRepository,
		RecordingRepository: recordingRepository,
		UserDirectory:       userDirectory,
		Provider:            provider,
		MessageBuilder:      messageBuilder,
		Config:              config.withDefaults(),
		validate:            newValidator(),
		metrics:             newServiceMetrics(),
	}
}

// ServiceReady checks if the service is ready for use.
func (s *MeetingService) ServiceReady() bool {
	return s.MeetingRepository != nil &&
		s.RecordingRepository != nil &&
		s.UserDirectory != nil &&
		s.Provider != nil &&
		s.MessageBuilder != nil
}

func (s *MeetingService) notReady(ctx context.Context) error {
	slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
	return domain.NewUnavailableError("meeting service not initialized", domain.ErrServiceUnavailable)
}

// meetingTitle renders the title sent to the provider.
func (s *MeetingService) meetingTitle(start *time.Time) string {
	if start == nil {
		return constants.DefaultMeetingTitle
	}
	return constants.MeetingTitlePrefix + start.In(s.Config.location()).Format(constants.MeetingTitleLayout)
}

// CreateMeeting validates the request, resolves every email to a user,
// creates the provider event and persists the meeting with its
// participants.
func (s *MeetingService) CreateMeeting(ctx context.Context, req models.CreateMeetingRequest) (_ *models.Meeting, err error) {
	if !s.ServiceReady() {
		return nil, s.notReady(ctx)
	}

	ctx, span := startSpan(ctx, "MeetingService.CreateMeeting")
	defer func() { endSpan(span, err) }()

	req = req.Normalize()
	if err := validateCreateMeeting(s.validate, req); err != nil {
		slog.WarnContext(ctx, "invalid create meeting request", logging.ErrKey, err)
		return nil, err
	}

	ctx = logging.AppendCtx(ctx, slog.String("organizer_email", req.OrganizerEmail))

	organizerID, err := s.resolveUsers(ctx, req)
	if err != nil {
		return nil, err
	}

	event, err := s.Provider.CreateEvent(ctx, models.EventRequest{
		OrganizerEmail: req.OrganizerEmail,
		InvitedEmails:  req.InvitedEmails,
		Start:          req.ScheduledStart,
		End:            req.ScheduledEnd,
		Title:          s.meetingTitle(req.ScheduledStart),
	})
	if err != nil {
		s.metrics.providerError(ctx, "create_event")
		slog.ErrorContext(ctx, "failed to create provider event", logging.ErrKey, err)
		return nil, err
	}

	ctx = logging.AppendCtx(ctx, slog.String("provider_event_id", event.ProviderEventID))
	span.SetAttributes(attribute.String("provider_event_id", event.ProviderEventID))

	meeting := &models.Meeting{
		ProviderEventID:   event.ProviderEventID,
		JoinLink:          event.JoinLink,
		Title:             s.meetingTitle(req.ScheduledStart),
		OrganizerID:       organizerID,
		OrganizerEmail:    req.OrganizerEmail,
		InvitedEmails:     req.InvitedEmails,
		ScheduledStart:    req.ScheduledStart,
		ScheduledEnd:      req.ScheduledEnd,
		Status:            models.MeetingStatusCreated,
		ExternalReference: req.ExternalReference,
		Participants:      models.BuildParticipants(req.OrganizerEmail, req.InvitedEmails),
	}

	if err := s.MeetingRepository.CreateMeeting(ctx, meeting); err != nil {
		if !s.eventOwnedByStoredMeeting(ctx, event.ProviderEventID, err) {
			s.reportOrphanedEvent(ctx, event, req.OrganizerEmail, err)
		}
		return nil, err
	}

	s.metrics.meetingsCreated.Add(ctx, 1)
	slog.InfoContext(ctx, "created meeting",
		"meeting_id", meeting.ID,
		"participants", meeting.ParticipantsCount(),
		"mock_provider", s.Provider.IsMock(),
	)

	s.publishMeetingEvent(ctx, models.ActionCreated, meeting)

	return meeting, nil
}

// resolveUsers resolves or creates a user for the organizer and every
// invitee. Users created here stay even if a later step fails.
func (s *MeetingService) resolveUsers(ctx context.Context, req models.CreateMeetingRequest) (uint64, error) {
	organizerID, err := s.UserDirectory.ResolveOrCreateUser(ctx, req.OrganizerEmail)
	if err != nil {
		slog.ErrorContext(ctx, "error resolving organizer", logging.ErrKey, err)
		return 0, err
	}

	for _, email := range req.InvitedEmails {
		if email == req.OrganizerEmail {
			continue
		}
		if _, err := s.UserDirectory.ResolveOrCreateUser(ctx, email); err != nil {
			slog.ErrorContext(ctx, "error resolving invited user", logging.ErrKey, err, "email", email)
			return 0, err
		}
	}

	return organizerID, nil
}

// eventOwnedByStoredMeeting reports whether a conflicting create hit an
// event that already belongs to a stored meeting. Such an event is live and
// must not be reported as orphaned.
func (s *MeetingService) eventOwnedByStoredMeeting(ctx context.Context, providerEventID string, cause error) bool {
	if !errors.Is(cause, domain.ErrConflict) {
		return false
	}
	exists, err := s.MeetingRepository.ProviderEventExists(ctx, providerEventID)
	if err != nil {
		slog.ErrorContext(ctx, "error checking provider event ownership", logging.ErrKey, err)
		return false
	}
	if exists {
		slog.WarnContext(ctx, "provider event already belongs to a stored meeting", logging.ErrKey, cause)
	}
	return exists
}

// reportOrphanedEvent records a provider event that has no local meeting so
// it can be reconciled later.
func (s *MeetingService) reportOrphanedEvent(ctx context.Context, event *models.EventResult, organizerEmail string, cause error) {
	slog.ErrorContext(ctx, "meeting not persisted after provider event creation, provider event is orphaned",
		logging.ErrKey, cause,
		"join_link", event.JoinLink,
		logging.PriorityCritical(),
	)

	err := s.MessageBuilder.SendOrphanedEvent(ctx, models.OrphanedEvent{
		ProviderEventID: event.ProviderEventID,
		JoinLink:        event.JoinLink,
		OrganizerEmail:  organizerEmail,
		Reason:          cause.Error(),
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to publish orphaned provider event", logging.ErrKey, err, logging.PriorityCritical())
	}
}

func (s *MeetingService) publishMeetingEvent(ctx context.Context, action models.MessageAction, meeting *models.Meeting) {
	if err := s.MessageBuilder.SendMeetingEvent(ctx, action, meeting); err != nil {
		slog.ErrorContext(ctx, "failed to publish meeting event", logging.ErrKey, err, "action", action)
	}
}

// UpdateMeeting applies a partial status/schedule update. The local write
// always happens first; provider calls that follow are best-effort.
func (s *MeetingService) UpdateMeeting(ctx context.Context, meetingID uint64, req models.UpdateMeetingRequest) (_ *models.Meeting, err error) {
	if !s.ServiceReady() {
		return nil, s.notReady(ctx)
	}

	ctx, span := startSpan(ctx, "MeetingService.UpdateMeeting", attribute.Int64("meeting_id", int64(meetingID)))
	defer func() { endSpan(span, err) }()

	ctx = logging.AppendCtx(ctx, slog.Uint64("meeting_id", meetingID))

	meeting, err := s.MeetingRepository.GetMeeting(ctx, meetingID)
	if err != nil {
		return nil, err
	}

	revision := req.Revision
	if s.Config.SkipEtagValidation {
		revision = 0
	}
	if revision != 0 && revision != meeting.Revision {
		slog.WarnContext(ctx, "If-Match revision is stale", "expected", revision, "current", meeting.Revision)
		return nil, domain.NewConflictError("meeting was modified by another request", domain.ErrRevisionMismatch)
	}

	if req.IsEmpty() {
		return meeting, nil
	}

	previous := meeting.Status
	next, err := planUpdate(meeting, req)
	if err != nil {
		slog.WarnContext(ctx, "rejected meeting update", logging.ErrKey, err)
		return nil, err
	}
	if !next.changed() {
		slog.DebugContext(ctx, "meeting update is a no-op")
		return meeting, nil
	}

	meeting.Status = next.status
	meeting.ScheduledStart = next.start
	meeting.ScheduledEnd = next.end
	if err := s.MeetingRepository.UpdateMeeting(ctx, meeting, revision); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "updated meeting",
		"previous_status", previous,
		"status", meeting.Status,
		"revision", meeting.Revision,
	)

	action := models.ActionUpdated
	switch {
	case next.statusChanged && next.status == models.MeetingStatusCancelled:
		action = models.ActionCancelled
		s.cancelProviderEvent(ctx, meeting)
	case next.datesChanged:
		s.rescheduleProviderEvent(ctx, meeting, next)
	}

	s.publishMeetingEvent(ctx, action, meeting)

	return meeting, nil
}

// CancelMeeting moves a meeting to CANCELLED. Cancelling a cancelled
// meeting returns it unchanged.
func (s *MeetingService) CancelMeeting(ctx context.Context, meetingID uint64, revision uint64) (*models.Meeting, error) {
	status := models.MeetingStatusCancelled
	return s.UpdateMeeting(ctx, meetingID, models.UpdateMeetingRequest{
		Status:   &status,
		Revision: revision,
	})
}

func (s *MeetingService) cancelProviderEvent(ctx context.Context, meeting *models.Meeting) {
	if err := s.Provider.CancelEvent(ctx, meeting.ProviderEventID); err != nil {
		s.metrics.providerError(ctx, "cancel_event")
		slog.WarnContext(ctx, "provider cancellation failed, meeting stays cancelled locally",
			logging.ErrKey, err,
			"provider_event_id", meeting.ProviderEventID,
		)
	}
}

func (s *MeetingService) rescheduleProviderEvent(ctx context.Context, meeting *models.Meeting, plan updatePlan) {
	patch := models.EventPatch{}
	if plan.startChanged {
		patch.Start = meeting.ScheduledStart
	}
	if plan.endChanged {
		patch.End = meeting.ScheduledEnd
	}
	if _, err := s.Provider.UpdateEvent(ctx, meeting.ProviderEventID, patch); err != nil {
		s.metrics.providerError(ctx, "update_event")
		slog.WarnContext(ctx, "provider reschedule failed, local schedule kept",
			logging.ErrKey, err,
			"provider_event_id", meeting.ProviderEventID,
		)
	}
}

// ListMeetings returns matching meetings, most recently created first.
func (s *MeetingService) ListMeetings(ctx context.Context, filter models.MeetingFilter) ([]*models.Meeting, error) {
	if !s.ServiceReady() {
		return nil, s.notReady(ctx)
	}

	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, domain.NewValidationError("unknown meeting status " + string(filter.Status))
	}
	if filter.ScheduledStartFrom != nil && filter.ScheduledStartTo != nil && filter.ScheduledStartTo.Before(*filter.ScheduledStartFrom) {
		return nil, domain.NewValidationError("scheduled_start_lte must not be before scheduled_start_gte")
	}
	filter.OrganizerEmail = models.NormalizeEmail(filter.OrganizerEmail)

	meetings, err := s.MeetingRepository.ListMeetings(ctx, filter)
	if err != nil {
		return nil, err
	}

	slog.DebugContext(ctx, "returning meetings", "count", len(meetings))
	return meetings, nil
}

// GetMeeting returns a meeting with its participants and recording.
func (s *MeetingService) GetMeeting(ctx context.Context, meetingID uint64) (*models.Meeting, error) {
	if !s.ServiceReady() {
		return nil, s.notReady(ctx)
	}

	meeting, err := s.MeetingRepository.GetMeeting(ctx, meetingID)
	if err != nil {
		if errors.Is(err, domain.ErrMeetingNotFound) {
			slog.WarnContext(ctx, "meeting not found", "meeting_id", meetingID)
		}
		return nil, err
	}
	return meeting, nil
}

// ListParticipants returns the participants of an existing meeting.
func (s *MeetingService) ListParticipants(ctx context.Context, meetingID uint64) ([]*models.Participant, error) {
	if !s.ServiceReady() {
		return nil, s.notReady(ctx)
	}

	if err := s.requireMeeting(ctx, meetingID); err != nil {
		return nil, err
	}
	return s.MeetingRepository.ListParticipants(ctx, &meetingID)
}

// GetParticipant returns one participant by id.
func (s *MeetingService) GetParticipant(ctx context.Context, participantID uint64) (*models.Participant, error) {
	if !s.ServiceReady() {
		return nil, s.notReady(ctx)
	}
	return s.MeetingRepository.GetParticipant(ctx, participantID)
}

// ListAllParticipants returns every participant, optionally of one meeting.
// An unknown meeting yields an empty list.
func (s *MeetingService) ListAllParticipants(ctx context.Context, meetingID *uint64) ([]*models.Participant, error) {
	if !s.ServiceReady() {
		return nil, s.notReady(ctx)
	}
	return s.MeetingRepository.ListParticipants(ctx, meetingID)
}

// GetRecording returns the recording of an existing meeting.
func (s *MeetingService) GetRecording(ctx context.Context, meetingID uint64) (*models.Recording, error) {
	if !s.ServiceReady() {
		return nil, s.notReady(ctx)
	}

	if err := s.requireMeeting(ctx, meetingID); err != nil {
		return nil, err
	}
	return s.RecordingRepository.GetRecordingByMeeting(ctx, meetingID)
}

// GetRecordingByID returns one recording by id.
func (s *MeetingService) GetRecordingByID(ctx context.Context, recordingID uint64) (*models.Recording, error) {
	if !s.ServiceReady() {
		return nil, s.notReady(ctx)
	}
	return s.RecordingRepository.GetRecording(ctx, recordingID)
}

// ListRecordings returns every recording, optionally of one meeting.
func (s *MeetingService) ListRecordings(ctx context.Context, meetingID *uint64) ([]*models.Recording, error) {
	if !s.ServiceReady() {
		return nil, s.notReady(ctx)
	}
	return s.RecordingRepository.ListRecordings(ctx, meetingID)
}

func (s *MeetingService) requireMeeting(ctx context.Context, meetingID uint64) error {
	exists, err := s.MeetingRepository.MeetingExists(ctx, meetingID)
	if err != nil {
		return err
	}
	if !exists {
		return domain.NewNotFoundError("meeting not found", domain.ErrMeetingNotFound)
	}
	return nil
}
