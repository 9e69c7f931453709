// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DeskHive Contributors

package auth

import (
	"context"
	"time"
)

// User is a helpdesk account as seen by the credential core. The record is
// owned by the host application; this package reads it and mutates only the
// password-hash field.
type User struct {
	ID             int64
	Email          string
	Name           string
	PasswordHash   *string // nil means no password set yet
	RecoveryEmail  *string
	SystemAdmin    bool
	EmailConfirmed bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// HasPassword reports whether the account has completed password setup.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// UserDirectory is the consumed contract for user lookup and password-hash
// mutation.
type UserDirectory interface {
	// FindByEmail retrieves a user by email (case-insensitive).
	FindByEmail(ctx context.Context, email string) (*User, error)

	// FindByID retrieves a user by ID.
	FindByID(ctx context.Context, id int64) (*User, error)

	// Update updates an existing user record.
	Update(ctx context.Context, user *User) error

	// UpdatePasswordHash updates only the password hash for a user.
	UpdatePasswordHash(ctx context.Context, id int64, passwordHash string) error
}
