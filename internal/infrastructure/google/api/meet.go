// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package api

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

// ConferenceRecord is one call held in a Meet space.
type ConferenceRecord struct {
	Name      string `json:"name"`
	StartTime string `json:"startTime,omitempty"`
	EndTime   string `json:"endTime,omitempty"`
	Space     string `json:"space,omitempty"`
}

// ConferenceRecording is a recording attached to a conference record.
type ConferenceRecording struct {
	Name             string            `json:"name"`
	State            string            `json:"state,omitempty"`
	StartTime        string            `json:"startTime,omitempty"`
	EndTime          string            `json:"endTime,omitempty"`
	DriveDestination *DriveDestination `json:"driveDestination,omitempty"`
}

// DriveDestination locates the recording file in Drive.
type DriveDestination struct {
	File      string `json:"file,omitempty"`
	ExportURI string `json:"exportUri,omitempty"`
}

// Recording states reported by the Meet API.
const (
	RecordingStateStarted       = "STARTED"
	RecordingStateEnded         = "ENDED"
	RecordingStateFileGenerated = "FILE_GENERATED"
)

// MeetingCodeFilter builds a conference record filter for a meeting code.
func MeetingCodeFilter(meetingCode string) string {
	return `space.meeting_code = "` + strings.ReplaceAll(meetingCode, `"`, ``) + `"`
}

// ListConferenceRecords lists conference records matching filter.
func (c *Client) ListConferenceRecords(ctx context.Context, filter string) ([]ConferenceRecord, error) {
	u := c.config.MeetBaseURL + "/conferenceRecords"
	if filter != "" {
		u += "?" + url.Values{"filter": []string{filter}}.Encode()
	}

	resp, err := c.doRequest(ctx, http.MethodGet, u, nil, true)
	if err != nil {
		return nil, err
	}

	var list struct {
		ConferenceRecords []ConferenceRecord `json:"conferenceRecords"`
	}
	if err := decodeResponse(resp, &list, http.StatusOK); err != nil {
		return nil, err
	}
	return list.ConferenceRecords, nil
}

// ListConferenceRecordings lists the recordings of a conference record,
// given its resource name ("conferenceRecords/abc").
func (c *Client) ListConferenceRecordings(ctx context.Context, conferenceRecord string) ([]ConferenceRecording, error) {
	if !strings.HasPrefix(conferenceRecord, "conferenceRecords/") {
		conferenceRecord = "conferenceRecords/" + conferenceRecord
	}

	resp, err := c.doRequest(ctx, http.MethodGet, c.config.MeetBaseURL+"/"+conferenceRecord+"/recordings", nil, true)
	if err != nil {
		return nil, err
	}

	var list struct {
		Recordings []ConferenceRecording `json:"recordings"`
	}
	if err := decodeResponse(resp, &list, http.StatusOK); err != nil {
		return nil, err
	}
	return list.Recordings, nil
}
