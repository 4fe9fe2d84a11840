// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/gorm"

	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/logging"
)

const (
	maxUsernameLength   = 150
	maxResolveAttempts  = 3
	maxUsernameSuffixes = 1000
)

// GormUserDirectory resolves meeting emails to users, creating EXTERNAL
// users on first sight.
type GormUserDirectory struct {
	db *gorm.DB
}

// Ensure GormUserDirectory implements UserDirectory
var _ domain.UserDirectory = (*GormUserDirectory)(nil)

// NewGormUserDirectory creates a user directory on db.
func NewGormUserDirectory(db *gorm.DB) *GormUserDirectory {
	return &GormUserDirectory{db: db}
}

// ResolveOrCreateUser returns the id of the user owning email. A concurrent
// creation of the same user is resolved by reading the winner's row.
func (d *GormUserDirectory) ResolveOrCreateUser(ctx context.Context, email string) (uint64, error) {
	email = models.NormalizeEmail(email)
	if email == "" {
		return 0, domain.NewValidationError("email is required")
	}

	for attempt := 0; attempt < maxResolveAttempts; attempt++ {
		var existing userRecord
		err := d.db.WithContext(ctx).Where("email = ?", email).First(&existing).Error
		if err == nil {
			return existing.ID, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, translateError(err, "user", domain.ErrUserNotFound)
		}

		username, err := d.availableUsername(ctx, usernameBase(email))
		if err != nil {
			return 0, err
		}

		rec := userRecord{Email: email, Username: username, Role: string(models.UserRoleExternal)}
		err = d.db.WithContext(ctx).Create(&rec).Error
		if err == nil {
			slog.InfoContext(ctx, "created external user", "user_id", rec.ID, "username", username)
			return rec.ID, nil
		}
		if !isDuplicateKey(err) {
			slog.ErrorContext(ctx, "error creating user", logging.ErrKey, err)
			return 0, translateError(err, "user", domain.ErrUserNotFound)
		}
		slog.DebugContext(ctx, "user created concurrently, retrying lookup", "attempt", attempt+1)
	}

	return 0, domain.NewConflictError("could not resolve user for email " + email)
}

func (d *GormUserDirectory) GetUser(ctx context.Context, userID uint64) (*models.User, error) {
	var rec userRecord
	if err := d.db.WithContext(ctx).First(&rec, userID).Error; err != nil {
		return nil, translateError(err, "user", domain.ErrUserNotFound)
	}
	return rec.toModel(), nil
}

func (d *GormUserDirectory) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var rec userRecord
	err := d.db.WithContext(ctx).Where("email = ?", models.NormalizeEmail(email)).First(&rec).Error
	if err != nil {
		return nil, translateError(err, "user", domain.ErrUserNotFound)
	}
	return rec.toModel(), nil
}

// DeleteUser removes a user. Users still organizing meetings cannot be
// removed.
func (d *GormUserDirectory) DeleteUser(ctx context.Context, userID uint64) error {
	res := d.db.WithContext(ctx).Delete(&userRecord{}, userID)
	if res.Error != nil {
		return translateError(res.Error, "user", domain.ErrUserNotFound)
	}
	if res.RowsAffected == 0 {
		return domain.NewNotFoundError("user not found", domain.ErrUserNotFound)
	}
	return nil
}

// availableUsername returns base, or base-N for the smallest N not taken.
func (d *GormUserDirectory) availableUsername(ctx context.Context, base string) (string, error) {
	candidate := base
	for n := 1; n <= maxUsernameSuffixes; n++ {
		var count int64
		if err := d.db.WithContext(ctx).Model(&userRecord{}).Where("username = ?", candidate).Count(&count).Error; err != nil {
			return "", translateError(err, "user", domain.ErrUserNotFound)
		}
		if count == 0 {
			return candidate, nil
		}
		suffix := fmt.Sprintf("-%d", n)
		candidate = truncate(base, maxUsernameLength-len(suffix)) + suffix
	}
	return "", domain.NewConflictError("no free username for " + base)
}

// usernameBase is the local part of email, trimmed to the column size.
func usernameBase(email string) string {
	local, _, _ := strings.Cut(email, "@")
	if local == "" {
		local = "user"
	}
	return truncate(local, maxUsernameLength)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
