// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package google

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"strings"
	"time"

	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/infrastructure/google/api"
)

// MockProvider stands in for Google when no credentials are configured.
// It never makes a network call.
type MockProvider struct{}

// Ensure MockProvider implements CalendarProvider
var _ domain.CalendarProvider = (*MockProvider)(nil)

// NewMockProvider creates a mock provider.
func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

// IsMock reports true.
func (m *MockProvider) IsMock() bool {
	return true
}

// CreateEvent returns a synthetic event id and join link.
func (m *MockProvider) CreateEvent(ctx context.Context, req models.EventRequest) (*models.EventResult, error) {
	suffix := randomHex(6)
	result := &models.EventResult{
		ProviderEventID:   "mock_event_" + suffix,
		JoinLink:          "https://meet.google.com/" + mockMeetingCode(suffix),
		ProviderRawStatus: api.EventStatusConfirmed,
	}
	slog.InfoContext(ctx, "created mock calendar event",
		"provider_event_id", result.ProviderEventID,
		"join_link", result.JoinLink)
	return result, nil
}

// UpdateEvent succeeds without side effects.
func (m *MockProvider) UpdateEvent(_ context.Context, providerEventID string, patch models.EventPatch) (*models.EventSnapshot, error) {
	status := api.EventStatusConfirmed
	if patch.Status != nil {
		status = *patch.Status
	}
	return &models.EventSnapshot{
		ProviderEventID: providerEventID,
		Status:          status,
		Start:           patch.Start,
		End:             patch.End,
	}, nil
}

// CancelEvent succeeds without side effects.
func (m *MockProvider) CancelEvent(context.Context, string) error {
	return nil
}

// GetEvent returns a synthetic confirmed event.
func (m *MockProvider) GetEvent(_ context.Context, providerEventID string) (*models.EventSnapshot, error) {
	now := time.Now().UTC()
	return &models.EventSnapshot{
		ProviderEventID: providerEventID,
		Status:          api.EventStatusConfirmed,
		Updated:         &now,
	}, nil
}

// FindRecording never finds anything.
func (m *MockProvider) FindRecording(context.Context, models.RecordingQuery) (*models.RecordingSnapshot, error) {
	return nil, nil
}

func randomHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// mockMeetingCode turns a hex string into a xxx-xxxx-xxx code of
// lowercase letters.
func mockMeetingCode(hexID string) string {
	letters := make([]byte, 0, 10)
	for i := 0; len(letters) < 10; i++ {
		c := hexID[i%len(hexID)]
		var v byte
		if c >= '0' && c <= '9' {
			v = c - '0'
		} else {
			v = c - 'a' + 10
		}
		letters = append(letters, 'a'+(v+byte(i))%26)
	}
	var b strings.Builder
	b.Write(letters[:3])
	b.WriteByte('-')
	b.Write(letters[3:7])
	b.WriteByte('-')
	b.Write(letters[7:])
	return b.String()
}
