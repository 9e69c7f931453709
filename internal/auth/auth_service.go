// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DeskHive Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/oops"
)

// AuthResult is the outcome of an authentication attempt. Failed attempts
// carry only the generic credential message; infrastructure failures are
// returned as errors instead.
type AuthResult struct {
	Success      bool
	UserID       int64
	Token        string
	ErrorMessage string
}

// Service provides login and token issuance.
type Service struct {
	users  UserDirectory
	tokens TokenStore
	hasher PasswordHasher
	logger *slog.Logger
}

// NewAuthService creates a new Service.
func NewAuthService(users UserDirectory, tokens TokenStore, hasher PasswordHasher) (*Service, error) {
	return NewAuthServiceWithLogger(users, tokens, hasher, slog.Default())
}

// NewAuthServiceWithLogger creates a new Service with an explicit logger.
func NewAuthServiceWithLogger(users UserDirectory, tokens TokenStore, hasher PasswordHasher, logger *slog.Logger) (*Service, error) {
	if users == nil {
		return nil, oops.Code("AUTH_NIL_DEPENDENCY").Errorf("user directory is required")
	}
	if tokens == nil {
		return nil, oops.Code("AUTH_NIL_DEPENDENCY").Errorf("token store is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_NIL_DEPENDENCY").Errorf("password hasher is required")
	}
	if logger == nil {
		return nil, oops.Code("AUTH_NIL_DEPENDENCY").Errorf("logger is required")
	}
	return &Service{
		users:  users,
		tokens: tokens,
		hasher: hasher,
		logger: logger,
	}, nil
}

// dummyPasswordHash is verified against when the account cannot be used, so
// unknown-email, no-password and wrong-password responses take comparable
// time. This is NOT a real credential; it never matches any password.
//
//nolint:gosec // G101: intentionally fake digest for timing defence, not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// Authenticate verifies an email/password pair and issues a session token
// on success. Unknown email, an account with no password set, and a wrong
// password all produce the identical generic failure message; no side
// effects occur on any failure path.
func (s *Service) Authenticate(ctx context.Context, email, password string) (AuthResult, error) {
	user, lookupErr := s.users.FindByEmail(ctx, email)

	// Pick the digest to verify against. Accounts that cannot log in get
	// the dummy digest so verification still runs.
	targetHash := dummyPasswordHash
	usable := false

	switch {
	case lookupErr != nil:
		if !errors.Is(lookupErr, ErrNotFound) {
			return AuthResult{}, oops.Code("AUTH_LOGIN_FAILED").
				With("operation", "find user by email").
				Wrap(lookupErr)
		}
	case user.HasPassword():
		targetHash = *user.PasswordHash
		usable = true
	}

	valid := s.hasher.Verify(CredentialSecret(email, password), targetHash)

	if !usable || !valid {
		s.logger.Debug("authentication rejected", "reason", "invalid credentials")
		loginsTotal.WithLabelValues(StatusRejected).Inc()
		return AuthResult{ErrorMessage: MsgInvalidCredentials}, nil
	}

	token, err := s.tokens.CreateForUser(ctx, user.ID)
	if err != nil {
		return AuthResult{}, oops.Code("AUTH_TOKEN_ISSUE_FAILED").
			With("operation", "create token for user").
			With("user_id", user.ID).
			Wrap(err)
	}

	s.logger.Info("authentication succeeded", "user_id", user.ID)
	loginsTotal.WithLabelValues(StatusSuccess).Inc()

	return AuthResult{
		Success: true,
		UserID:  user.ID,
		Token:   token.Value,
	}, nil
}
