// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package store

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/domain"
)

// translateError maps database errors onto the domain taxonomy. what names
// the entity for messages and notFound is the sentinel for missing rows.
func translateError(err error, what string, notFound error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.NewNotFoundError(what+" not found", notFound)
	case isDuplicateKey(err):
		return domain.NewConflictError(what+" already exists", err)
	case isForeignKeyViolation(err):
		return domain.NewConflictError(what+" references a missing or in-use record", err)
	default:
		return domain.NewInternalError("database error on "+what, err)
	}
}

// isDuplicateKey also matches driver messages for dialects that do not
// translate errors.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}

func isForeignKeyViolation(err error) bool {
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "FOREIGN KEY constraint failed") ||
		strings.Contains(msg, "violates foreign key constraint")
}
