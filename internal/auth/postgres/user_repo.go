// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DeskHive Contributors

// Package postgres implements the auth store contracts using PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/deskhive/deskhive/internal/auth"
)

// UserDirectory implements auth.UserDirectory using PostgreSQL.
type UserDirectory struct {
	pool poolIface
}

// NewUserDirectory creates a new UserDirectory.
func NewUserDirectory(pool poolIface) *UserDirectory {
	return &UserDirectory{pool: pool}
}

const userColumns = `id, email, name, password_hash, recovery_email, system_admin, email_confirmed, created_at, updated_at`

// FindByEmail retrieves a user by email, case-insensitively.
func (r *UserDirectory) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE lower(email) = lower($1)
	`, email)

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_BY_EMAIL_FAILED").
			With("operation", "get user by email").
			Wrap(err)
	}
	return user, nil
}

// FindByID retrieves a user by ID.
func (r *UserDirectory) FindByID(ctx context.Context, id int64) (*auth.User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1
	`, id)

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").
			With("user_id", id).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_BY_ID_FAILED").
			With("operation", "get user by id").
			With("user_id", id).
			Wrap(err)
	}
	return user, nil
}

// Update updates an existing user record.
func (r *UserDirectory) Update(ctx context.Context, user *auth.User) error {
	user.UpdatedAt = time.Now()

	result, err := r.pool.Exec(ctx, `
		UPDATE users
		SET email = $2, name = $3, password_hash = $4, recovery_email = $5,
		    system_admin = $6, email_confirmed = $7, updated_at = $8
		WHERE id = $1
	`,
		user.ID,
		user.Email,
		user.Name,
		user.PasswordHash,
		user.RecoveryEmail,
		user.SystemAdmin,
		user.EmailConfirmed,
		user.UpdatedAt,
	)
	if err != nil {
		return oops.Code("USER_UPDATE_FAILED").
			With("operation", "update user").
			With("user_id", user.ID).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").
			With("user_id", user.ID).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// UpdatePasswordHash updates only the password hash for a user. The write
// is a single-row, single-field update and therefore atomic at the store.
func (r *UserDirectory) UpdatePasswordHash(ctx context.Context, id int64, passwordHash string) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE users SET password_hash = $2, updated_at = now()
		WHERE id = $1
	`, id, passwordHash)
	if err != nil {
		return oops.Code("USER_UPDATE_PASSWORD_FAILED").
			With("operation", "update password hash").
			With("user_id", id).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").
			With("user_id", id).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// scanUser scans a single row into a User. Errors pass through raw,
// including pgx.ErrNoRows; callers wrap with their operation code.
func scanUser(row pgx.Row) (*auth.User, error) {
	var u auth.User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Name,
		&u.PasswordHash,
		&u.RecoveryEmail,
		&u.SystemAdmin,
		&u.EmailConfirmed,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err //nolint:wrapcheck // callers wrap with operation context
	}
	return &u, nil
}

// Compile-time interface check.
var _ auth.UserDirectory = (*UserDirectory)(nil)
