// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/domain/models"
)

// MockCalendarProvider implements domain.CalendarProvider for testing
type MockCalendarProvider struct {
	mock.Mock
}

var _ domain.CalendarProvider = (*MockCalendarProvider)(nil)

func (m *MockCalendarProvider) CreateEvent(ctx context.Context, req models.EventRequest) (*models.EventResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EventResult), args.Error(1)
}

func (m *MockCalendarProvider) UpdateEvent(ctx context.Context, providerEventID string, patch models.EventPatch) (*models.EventSnapshot, error) {
	args := m.Called(ctx, providerEventID, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EventSnapshot), args.Error(1)
}

func (m *MockCalendarProvider) CancelEvent(ctx context.Context, providerEventID string) error {
	args := m.Called(ctx, providerEventID)
	return args.Error(0)
}

func (m *MockCalendarProvider) GetEvent(ctx context.Context, providerEventID string) (*models.EventSnapshot, error) {
	args := m.Called(ctx, providerEventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EventSnapshot), args.Error(1)
}

func (m *MockCalendarProvider) FindRecording(ctx context.Context, query models.RecordingQuery) (*models.RecordingSnapshot, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RecordingSnapshot), args.Error(1)
}

func (m *MockCalendarProvider) IsMock() bool {
	args := m.Called()
	return args.Bool(0)
}
