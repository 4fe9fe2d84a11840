// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/domain/models"
)

// MockUserDirectory implements domain.UserDirectory for testing
type MockUserDirectory struct {
	mock.Mock
}

var _ domain.UserDirectory = (*MockUserDirectory)(nil)

func (m *MockUserDirectory) ResolveOrCreateUser(ctx context.Context, email string) (uint64, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *MockUserDirectory) GetUser(ctx context.Context, userID uint64) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserDirectory) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
