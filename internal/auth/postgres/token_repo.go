// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DeskHive Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/deskhive/deskhive/internal/auth"
)

// TokenStore implements auth.TokenStore using PostgreSQL. Validity is
// evaluated in SQL against the injected clock's notion of now, so queries
// and the services agree on the same window rule.
type TokenStore struct {
	pool   poolIface
	source auth.TokenSource
	clock  auth.Clock
	maxAge time.Duration
}

// NewTokenStore creates a new TokenStore. maxAge is the validity window
// stamped on every created token (the configured session timeout).
func NewTokenStore(pool poolIface, source auth.TokenSource, clock auth.Clock, maxAge time.Duration) *TokenStore {
	if maxAge <= 0 {
		maxAge = auth.DefaultSessionTimeout
	}
	return &TokenStore{pool: pool, source: source, clock: clock, maxAge: maxAge}
}

// CreateForUser generates, persists and returns a new token.
func (r *TokenStore) CreateForUser(ctx context.Context, userID int64) (*auth.Token, error) {
	value, err := r.source.TokenValue()
	if err != nil {
		return nil, oops.Code("TOKEN_CREATE_FAILED").
			With("operation", "generate token value").
			With("user_id", userID).
			Wrap(err)
	}

	token, err := auth.NewToken(userID, value, r.clock.Now(), r.maxAge)
	if err != nil {
		return nil, oops.Code("TOKEN_CREATE_FAILED").
			With("operation", "build token").
			With("user_id", userID).
			Wrap(err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO tokens (id, user_id, value, created_at, max_age_seconds)
		VALUES ($1, $2, $3, $4, $5)
	`,
		token.ID.String(),
		token.UserID,
		token.Value,
		token.CreatedAt,
		int64(token.MaxAge/time.Second),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			// 32 bytes of entropy colliding means a broken random source,
			// not a retryable condition.
			return nil, oops.Code("TOKEN_VALUE_COLLISION").
				With("user_id", userID).
				Wrap(err)
		}
		return nil, oops.Code("TOKEN_CREATE_FAILED").
			With("operation", "insert token").
			With("user_id", userID).
			Wrap(err)
	}
	return token, nil
}

const tokenColumns = `id, user_id, value, created_at, max_age_seconds`

// FindByValue retrieves a token by exact, case-sensitive value match. No
// expiry filtering is applied; the caller checks the validity window.
func (r *TokenStore) FindByValue(ctx context.Context, value string) (*auth.Token, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+tokenColumns+`
		FROM tokens
		WHERE value = $1
	`, value)

	token, err := scanToken(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("TOKEN_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("TOKEN_GET_BY_VALUE_FAILED").
			With("operation", "get token by value").
			Wrap(err)
	}
	return token, nil
}

// FindNewestValidForUser returns the most recently created token for the
// user that is still inside its validity window.
func (r *TokenStore) FindNewestValidForUser(ctx context.Context, userID int64) (*auth.Token, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+tokenColumns+`
		FROM tokens
		WHERE user_id = $1
		  AND $2 < created_at + make_interval(secs => max_age_seconds)
		ORDER BY created_at DESC
		LIMIT 1
	`, userID, r.clock.Now())

	token, err := scanToken(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("TOKEN_NOT_FOUND").
			With("user_id", userID).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("TOKEN_GET_NEWEST_FAILED").
			With("operation", "get newest valid token").
			With("user_id", userID).
			Wrap(err)
	}
	return token, nil
}

// Delete removes a token by ID.
func (r *TokenStore) Delete(ctx context.Context, id ulid.ULID) error {
	result, err := r.pool.Exec(ctx, `
		DELETE FROM tokens WHERE id = $1
	`, id.String())
	if err != nil {
		return oops.Code("TOKEN_DELETE_FAILED").
			With("operation", "delete token").
			With("id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("TOKEN_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// DeleteExpired removes all tokens past their validity window and returns
// the count of deleted records.
func (r *TokenStore) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.pool.Exec(ctx, `
		DELETE FROM tokens
		WHERE created_at + make_interval(secs => max_age_seconds) <= $1
	`, r.clock.Now())
	if err != nil {
		return 0, oops.Code("TOKEN_DELETE_EXPIRED_FAILED").
			With("operation", "delete expired tokens").
			Wrap(err)
	}
	return result.RowsAffected(), nil
}

// scanToken scans a single row into a Token. Scan errors pass through raw,
// including pgx.ErrNoRows; callers wrap with their operation code. A token
// id that does not parse as a ULID is store corruption, reported here.
func scanToken(row pgx.Row) (*auth.Token, error) {
	var (
		idStr         string
		userID        int64
		value         string
		createdAt     time.Time
		maxAgeSeconds int64
	)

	err := row.Scan(&idStr, &userID, &value, &createdAt, &maxAgeSeconds)
	if err != nil {
		return nil, err //nolint:wrapcheck // callers wrap with operation context
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("TOKEN_INVALID_ID").
			With("operation", "parse token id").
			With("id", idStr).
			Wrap(err)
	}

	return &auth.Token{
		ID:        id,
		UserID:    userID,
		Value:     value,
		CreatedAt: createdAt,
		MaxAge:    time.Duration(maxAgeSeconds) * time.Second,
	}, nil
}

// Compile-time interface check.
var _ auth.TokenStore = (*TokenStore)(nil)
