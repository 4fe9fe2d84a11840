// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/domain/models"
)

// MockMessageBuilder implements domain.MessageBuilder for testing
type MockMessageBuilder struct {
	mock.Mock
}

var _ domain.MessageBuilder = (*MockMessageBuilder)(nil)

func (m *MockMessageBuilder) SendMeetingEvent(ctx context.Context, action models.MessageAction, meeting *models.Meeting) error {
	args := m.Called(ctx, action, meeting)
	return args.Error(0)
}

func (m *MockMessageBuilder) SendOrphanedEvent(ctx context.Context, event models.OrphanedEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockMessageBuilder) SendRecordingSynced(ctx context.Context, recording *models.Recording) error {
	args := m.Called(ctx, recording)
	return args.Error(0)
}
