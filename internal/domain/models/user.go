// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import "time"

// UserRole classifies directory users.
type UserRole string

// User roles. Users created on the fly for meeting emails are EXTERNAL.
const (
	UserRoleAdmin    UserRole = "ADMIN"
	UserRoleService  UserRole = "SERVICE"
	UserRoleExternal UserRole = "EXTERNAL"
)

// User is a directory entry referenced by meetings.
type User struct {
	ID        uint64    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	Role      UserRole  `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
