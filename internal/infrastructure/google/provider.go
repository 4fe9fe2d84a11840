// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package google adapts the Google Calendar, Meet and Drive APIs to the
// domain.CalendarProvider interface.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/akamensky/base58"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/infrastructure/google/api"
	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/logging"
)

const (
	reminderEmailMinutes = 24 * 60
	reminderPopupMinutes = 30

	defaultLeadTime = time.Hour
	defaultDuration = time.Hour
)

// Provider is the Google implementation of domain.CalendarProvider.
type Provider struct {
	client   api.ClientAPI
	location *time.Location
	now      func() time.Time
}

// Ensure Provider implements CalendarProvider
var _ domain.CalendarProvider = (*Provider)(nil)

// NewProvider creates a provider on top of a Google API client. Event times
// are rendered in the client's configured zone, falling back to UTC when
// the zone is unknown.
func NewProvider(client api.ClientAPI) *Provider {
	loc, err := time.LoadLocation(client.TimeZone())
	if err != nil {
		slog.Warn("unknown google time zone, using UTC", "time_zone", client.TimeZone(), logging.ErrKey, err)
		loc = time.UTC
	}
	return &Provider{
		client:   client,
		location: loc,
		now:      time.Now,
	}
}

// IsMock reports false: this provider talks to Google.
func (p *Provider) IsMock() bool {
	return false
}

// CreateEvent inserts a calendar event with a new Meet conference.
func (p *Provider) CreateEvent(ctx context.Context, req models.EventRequest) (*models.EventResult, error) {
	ctx = logging.AppendCtx(ctx, slog.String("google_operation", "create_event"))

	event := p.buildEvent(req)
	created, err := p.client.InsertEvent(ctx, event)
	if err != nil {
		slog.ErrorContext(ctx, "failed to create Google Calendar event", logging.ErrKey, err)
		return nil, mapError("create calendar event", err)
	}
	if created.ID == "" {
		return nil, domain.NewProviderError(domain.ErrProviderRequest, "calendar returned an event without id")
	}

	joinLink := created.JoinLink()
	if joinLink == "" {
		slog.WarnContext(ctx, "calendar event has no conference link yet", "provider_event_id", created.ID)
	}

	slog.InfoContext(ctx, "successfully created Google Calendar event",
		"provider_event_id", created.ID,
		"join_link", joinLink,
		"status", created.Status)

	return &models.EventResult{
		ProviderEventID:   created.ID,
		JoinLink:          joinLink,
		ProviderRawStatus: created.Status,
		HTMLLink:          created.HTMLLink,
	}, nil
}

func (p *Provider) buildEvent(req models.EventRequest) *api.Event {
	start := p.now().Add(defaultLeadTime)
	if req.Start != nil {
		start = *req.Start
	}
	end := start.Add(defaultDuration)
	if req.End != nil {
		end = *req.End
	}

	attendees := make([]api.EventAttendee, 0, len(req.InvitedEmails))
	for _, email := range req.InvitedEmails {
		attendees = append(attendees, api.EventAttendee{Email: email})
	}

	description := req.Description
	if description == "" {
		description = defaultDescription(req.OrganizerEmail, req.InvitedEmails)
	}

	no, yes := false, true
	return &api.Event{
		Summary:     req.Title,
		Description: description,
		Start:       p.eventTime(start),
		End:         p.eventTime(end),
		Attendees:   attendees,
		ConferenceData: &api.ConferenceData{
			CreateRequest: &api.ConferenceCreateRequest{
				RequestID:             NewConferenceRequestID(),
				ConferenceSolutionKey: &api.ConferenceSolutionKey{Type: api.ConferenceSolutionHangoutsMeet},
			},
		},
		Reminders: &api.EventReminders{
			UseDefault: false,
			Overrides: []api.EventReminder{
				{Method: "email", Minutes: reminderEmailMinutes},
				{Method: "popup", Minutes: reminderPopupMinutes},
			},
		},
		GuestsCanModify:         &no,
		GuestsCanInviteOthers:   &no,
		GuestsCanSeeOtherGuests: &yes,
	}
}

func defaultDescription(organizer string, invited []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Meeting organized by %s\n\nParticipants:", organizer)
	for _, email := range invited {
		b.WriteString("\n- ")
		b.WriteString(email)
	}
	return b.String()
}

func (p *Provider) eventTime(t time.Time) *api.EventDateTime {
	return &api.EventDateTime{
		DateTime: t.In(p.location).Format(time.RFC3339),
		TimeZone: p.location.String(),
	}
}

// NewConferenceRequestID returns a unique conference create request id.
func NewConferenceRequestID() string {
	id := uuid.New()
	return "meet-" + base58.Encode(id[:])
}

// UpdateEvent patches the start, end or status of an event.
func (p *Provider) UpdateEvent(ctx context.Context, providerEventID string, patch models.EventPatch) (*models.EventSnapshot, error) {
	ctx = logging.AppendCtx(ctx, slog.String("google_operation", "update_event"))
	ctx = logging.AppendCtx(ctx, slog.String("provider_event_id", providerEventID))

	body := &api.EventPatch{}
	if patch.Start != nil {
		body.Start = p.eventTime(*patch.Start)
	}
	if patch.End != nil {
		body.End = p.eventTime(*patch.End)
	}
	if patch.Status != nil {
		body.Status = *patch.Status
	}

	updated, err := p.client.PatchEvent(ctx, providerEventID, body)
	if err != nil {
		slog.ErrorContext(ctx, "failed to update Google Calendar event", logging.ErrKey, err)
		return nil, mapError("update calendar event", err)
	}

	slog.InfoContext(ctx, "successfully updated Google Calendar event")
	return toSnapshot(updated), nil
}

// CancelEvent marks the event as cancelled. An event that is already gone
// counts as cancelled.
func (p *Provider) CancelEvent(ctx context.Context, providerEventID string) error {
	ctx = logging.AppendCtx(ctx, slog.String("google_operation", "cancel_event"))
	ctx = logging.AppendCtx(ctx, slog.String("provider_event_id", providerEventID))

	_, err := p.client.PatchEvent(ctx, providerEventID, &api.EventPatch{Status: api.EventStatusCancelled})
	if err != nil {
		var apiErr *api.APIError
		if errors.As(err, &apiErr) && apiErr.IsNotFound() {
			slog.InfoContext(ctx, "Google Calendar event already removed")
			return nil
		}
		slog.ErrorContext(ctx, "failed to cancel Google Calendar event", logging.ErrKey, err)
		return mapError("cancel calendar event", err)
	}

	slog.InfoContext(ctx, "successfully cancelled Google Calendar event")
	return nil
}

// GetEvent fetches an event.
func (p *Provider) GetEvent(ctx context.Context, providerEventID string) (*models.EventSnapshot, error) {
	event, err := p.client.GetEvent(ctx, providerEventID)
	if err != nil {
		return nil, mapError("get calendar event", err)
	}
	return toSnapshot(event), nil
}

func toSnapshot(event *api.Event) *models.EventSnapshot {
	s := &models.EventSnapshot{
		ProviderEventID: event.ID,
		Title:           event.Summary,
		Status:          event.Status,
		JoinLink:        event.JoinLink(),
		Updated:         parseTime(event.Updated),
	}
	if event.Start != nil {
		s.Start = parseTime(event.Start.DateTime)
	}
	if event.End != nil {
		s.End = parseTime(event.End.DateTime)
	}
	return s
}

// parseTime parses an RFC 3339 timestamp, returning nil for empty or
// malformed values.
func parseTime(value string) *time.Time {
	if value == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}

// mapError translates client errors into the provider error taxonomy.
func mapError(op string, err error) error {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusUnauthorized:
			return domain.NewProviderError(domain.ErrProviderAuth, op+": credentials rejected", err)
		case apiErr.IsQuotaExceeded():
			return domain.NewProviderError(domain.ErrProviderQuota, op+": quota exhausted", err)
		case apiErr.StatusCode == http.StatusForbidden:
			return domain.NewProviderError(domain.ErrProviderAuth, op+": permission denied", err)
		case apiErr.IsNotFound():
			return domain.NewProviderError(domain.ErrProviderNotFound, op+": not found", err)
		default:
			return domain.NewProviderError(domain.ErrProviderRequest, op+": request failed", err)
		}
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return domain.NewProviderError(domain.ErrProviderAuth, op+": token exchange failed", err)
	}

	return domain.NewProviderError(domain.ErrProviderRequest, op+": request failed", err)
}
