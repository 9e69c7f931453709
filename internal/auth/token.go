// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DeskHive Contributors

package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Token value configuration.
const (
	// TokenValueBytes is the entropy of a token value. 32 bytes = 64 hex chars.
	TokenValueBytes = 32

	// DefaultSessionTimeout is the validity window applied to new tokens
	// when no session timeout is configured.
	DefaultSessionTimeout = 30 * time.Minute
)

// Token is one issued session credential. The same entity backs login
// sessions and password-reset links. Tokens are never mutated after
// creation; they age out of their validity window or are deleted by the
// consume-on-use policy and the cleanup sweep.
type Token struct {
	ID        ulid.ULID
	UserID    int64
	Value     string
	CreatedAt time.Time
	MaxAge    time.Duration
}

// ExpiresAt returns the end of the token's validity window.
func (t *Token) ExpiresAt() time.Time {
	return t.CreatedAt.Add(t.MaxAge)
}

// ValidAt reports whether the token is inside its validity window at the
// given instant. The window is [CreatedAt, CreatedAt+MaxAge).
func (t *Token) ValidAt(now time.Time) bool {
	return now.Before(t.ExpiresAt())
}

// NewToken creates a validated Token instance.
func NewToken(userID int64, value string, createdAt time.Time, maxAge time.Duration) (*Token, error) {
	if userID <= 0 {
		return nil, oops.Code("TOKEN_INVALID_USER").Errorf("user ID must be positive")
	}
	if value == "" {
		return nil, oops.Code("TOKEN_INVALID_VALUE").Errorf("token value cannot be empty")
	}
	if createdAt.IsZero() {
		return nil, oops.Code("TOKEN_INVALID_CREATED").Errorf("creation time cannot be zero")
	}
	if maxAge <= 0 {
		return nil, oops.Code("TOKEN_INVALID_MAX_AGE").Errorf("max age must be positive")
	}

	return &Token{
		ID:        ulid.Make(),
		UserID:    userID,
		Value:     value,
		CreatedAt: createdAt,
		MaxAge:    maxAge,
	}, nil
}

// TokenSource produces opaque token values. It is an injected capability so
// tests can seed it without touching process-wide randomness state.
type TokenSource interface {
	// TokenValue returns a fresh unguessable token value.
	TokenValue() (string, error)
}

// CryptoTokenSource is the production TokenSource backed by crypto/rand.
type CryptoTokenSource struct{}

// TokenValue returns TokenValueBytes of entropy, hex-encoded.
func (CryptoTokenSource) TokenValue() (string, error) {
	b := make([]byte, TokenValueBytes)
	if _, err := rand.Read(b); err != nil {
		return "", oops.Code("TOKEN_GENERATE_FAILED").
			With("operation", "crypto/rand.Read").
			With("requested_bytes", TokenValueBytes).
			Wrap(err)
	}
	return hex.EncodeToString(b), nil
}

// TokenStore persists issued tokens keyed by user.
type TokenStore interface {
	// CreateForUser generates a token value, stamps the creation time and
	// the configured validity window, persists and returns the token.
	CreateForUser(ctx context.Context, userID int64) (*Token, error)

	// FindByValue retrieves a token by exact, case-sensitive value match.
	// It applies no expiry filtering; the caller checks the window.
	FindByValue(ctx context.Context, value string) (*Token, error)

	// FindNewestValidForUser returns the most recently created token for
	// the user whose validity window has not elapsed, or ErrNotFound.
	// Older tokens stay individually valid but are never returned here.
	FindNewestValidForUser(ctx context.Context, userID int64) (*Token, error)

	// Delete removes a token by ID.
	Delete(ctx context.Context, id ulid.ULID) error

	// DeleteExpired removes all tokens past their validity window and
	// returns the count of deleted records.
	DeleteExpired(ctx context.Context) (int64, error)
}

// Compile-time interface check.
var _ TokenSource = (*CryptoTokenSource)(nil)
