// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// DriveFile is the subset of Drive v3 file metadata used for recordings.
type DriveFile struct {
	ID                 string              `json:"id"`
	Name               string              `json:"name"`
	MimeType           string              `json:"mimeType"`
	CreatedTime        string              `json:"createdTime,omitempty"`
	WebViewLink        string              `json:"webViewLink,omitempty"`
	VideoMediaMetadata *VideoMediaMetadata `json:"videoMediaMetadata,omitempty"`
}

// VideoMediaMetadata holds video information. Drive encodes durationMillis
// as a string.
type VideoMediaMetadata struct {
	DurationMillis string `json:"durationMillis,omitempty"`
}

// DurationSeconds returns the video duration, or false if Drive has none.
func (f *DriveFile) DurationSeconds() (int64, bool) {
	if f.VideoMediaMetadata == nil || f.VideoMediaMetadata.DurationMillis == "" {
		return 0, false
	}
	ms, err := strconv.ParseInt(f.VideoMediaMetadata.DurationMillis, 10, 64)
	if err != nil || ms < 0 {
		return 0, false
	}
	return ms / 1000, true
}

const driveFileFields = "files(id,name,mimeType,createdTime,webViewLink,videoMediaMetadata)"

// EscapeQueryValue escapes a value for use inside a quoted Drive query term.
func EscapeQueryValue(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	return strings.ReplaceAll(v, `'`, `\'`)
}

// ListDriveFiles runs a Drive files.list query, newest first.
func (c *Client) ListDriveFiles(ctx context.Context, query string, pageSize int) ([]DriveFile, error) {
	if pageSize <= 0 {
		pageSize = 10
	}
	params := url.Values{
		"q":        []string{query},
		"pageSize": []string{strconv.Itoa(pageSize)},
		"fields":   []string{driveFileFields},
		"orderBy":  []string{"createdTime desc"},
	}

	resp, err := c.doRequest(ctx, http.MethodGet, c.config.DriveBaseURL+"/files?"+params.Encode(), nil, true)
	if err != nil {
		return nil, err
	}

	var list struct {
		Files []DriveFile `json:"files"`
	}
	if err := decodeResponse(resp, &list, http.StatusOK); err != nil {
		return nil, err
	}
	return list.Files, nil
}
