// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// Event is the subset of a Calendar v3 event the middleware uses.
type Event struct {
	ID             string          `json:"id,omitempty"`
	Status         string          `json:"status,omitempty"`
	HTMLLink       string          `json:"htmlLink,omitempty"`
	Summary        string          `json:"summary,omitempty"`
	Description    string          `json:"description,omitempty"`
	Start          *EventDateTime  `json:"start,omitempty"`
	End            *EventDateTime  `json:"end,omitempty"`
	Attendees      []EventAttendee `json:"attendees,omitempty"`
	HangoutLink    string          `json:"hangoutLink,omitempty"`
	ConferenceData *ConferenceData `json:"conferenceData,omitempty"`
	Reminders      *EventReminders `json:"reminders,omitempty"`
	Updated        string          `json:"updated,omitempty"`

	GuestsCanModify         *bool `json:"guestsCanModify,omitempty"`
	GuestsCanInviteOthers   *bool `json:"guestsCanInviteOthers,omitempty"`
	GuestsCanSeeOtherGuests *bool `json:"guestsCanSeeOtherGuests,omitempty"`
}

// EventDateTime is a Calendar date-time with its zone.
type EventDateTime struct {
	DateTime string `json:"dateTime,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}

// EventAttendee is an invited email.
type EventAttendee struct {
	Email          string `json:"email"`
	Organizer      bool   `json:"organizer,omitempty"`
	ResponseStatus string `json:"responseStatus,omitempty"`
}

// ConferenceData asks for, or describes, the conferencing attached to an event.
type ConferenceData struct {
	CreateRequest *ConferenceCreateRequest `json:"createRequest,omitempty"`
	EntryPoints   []ConferenceEntryPoint   `json:"entryPoints,omitempty"`
	ConferenceID  string                   `json:"conferenceId,omitempty"`
}

// ConferenceCreateRequest requests a new conference for the event.
type ConferenceCreateRequest struct {
	RequestID             string                 `json:"requestId"`
	ConferenceSolutionKey *ConferenceSolutionKey `json:"conferenceSolutionKey,omitempty"`
	Status                *ConferenceStatus      `json:"status,omitempty"`
}

// ConferenceSolutionKey selects the conferencing product.
type ConferenceSolutionKey struct {
	Type string `json:"type"`
}

// ConferenceStatus is the state of a create request.
type ConferenceStatus struct {
	StatusCode string `json:"statusCode"`
}

// ConferenceEntryPoint is one way of joining the conference.
type ConferenceEntryPoint struct {
	EntryPointType string `json:"entryPointType"`
	URI            string `json:"uri"`
}

// EventReminders overrides the calendar's default reminders.
type EventReminders struct {
	UseDefault bool            `json:"useDefault"`
	Overrides  []EventReminder `json:"overrides,omitempty"`
}

// EventReminder is a single reminder.
type EventReminder struct {
	Method  string `json:"method"`
	Minutes int    `json:"minutes"`
}

// EventPatch is the body of an events.patch call.
type EventPatch struct {
	Status string         `json:"status,omitempty"`
	Start  *EventDateTime `json:"start,omitempty"`
	End    *EventDateTime `json:"end,omitempty"`
}

// Conference and event constants.
const (
	ConferenceSolutionHangoutsMeet = "hangoutsMeet"
	EntryPointVideo                = "video"
	EventStatusCancelled           = "cancelled"
	EventStatusConfirmed           = "confirmed"
)

// JoinLink returns the Meet link of the event, if any.
func (e *Event) JoinLink() string {
	if e.HangoutLink != "" {
		return e.HangoutLink
	}
	if e.ConferenceData != nil {
		for _, ep := range e.ConferenceData.EntryPoints {
			if ep.EntryPointType == EntryPointVideo {
				return ep.URI
			}
		}
	}
	return ""
}

func (c *Client) eventsURL(eventID string, query url.Values) string {
	u := fmt.Sprintf("%s/calendars/%s/events", c.config.CalendarBaseURL, url.PathEscape(c.config.CalendarID))
	if eventID != "" {
		u += "/" + url.PathEscape(eventID)
	}
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// InsertEvent creates an event with a Meet conference and notifies attendees.
func (c *Client) InsertEvent(ctx context.Context, event *Event) (*Event, error) {
	query := url.Values{
		"conferenceDataVersion": []string{"1"},
		"sendUpdates":           []string{"all"},
	}

	resp, err := c.doRequest(ctx, http.MethodPost, c.eventsURL("", query), event, false)
	if err != nil {
		return nil, err
	}

	var created Event
	if err := decodeResponse(resp, &created, http.StatusOK, http.StatusCreated); err != nil {
		return nil, err
	}
	return &created, nil
}

// PatchEvent applies a partial update to an event and notifies attendees.
func (c *Client) PatchEvent(ctx context.Context, eventID string, patch *EventPatch) (*Event, error) {
	query := url.Values{"sendUpdates": []string{"all"}}

	resp, err := c.doRequest(ctx, http.MethodPatch, c.eventsURL(eventID, query), patch, true)
	if err != nil {
		return nil, err
	}

	var updated Event
	if err := decodeResponse(resp, &updated, http.StatusOK); err != nil {
		return nil, err
	}
	return &updated, nil
}

// GetEvent fetches a single event.
func (c *Client) GetEvent(ctx context.Context, eventID string) (*Event, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, c.eventsURL(eventID, nil), nil, true)
	if err != nil {
		return nil, err
	}

	var event Event
	if err := decodeResponse(resp, &event, http.StatusOK); err != nil {
		return nil, err
	}
	return &event, nil
}
