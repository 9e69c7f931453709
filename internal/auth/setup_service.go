// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DeskHive Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/samber/oops"
)

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 8

// ConsumptionPolicy controls what happens to a reset token after it has
// been used successfully. Failed attempts never consume a token.
type ConsumptionPolicy int

const (
	// ConsumeOnUse deletes the token once a password commit succeeds,
	// closing the replay window.
	ConsumeOnUse ConsumptionPolicy = iota

	// ReplayUntilExpiry leaves the token in place until it ages out,
	// tolerating double-submits of the same reset link.
	ReplayUntilExpiry
)

// TokenValidation is the outcome of validating a reset token or an
// initial-setup user.
type TokenValidation struct {
	Valid        bool
	ErrorMessage string
	UserID       int64
	UserEmail    string
}

// SetPasswordResult is the outcome of a password commit. LoginToken and
// WorkspaceSlug are populated only by the initial-setup flow.
type SetPasswordResult struct {
	Success       bool
	ErrorMessage  string
	LoginToken    string
	WorkspaceSlug string
	UserID        int64
	UserEmail     string
}

// SetupService orchestrates account bootstrapping and password reset.
type SetupService struct {
	users      UserDirectory
	tokens     TokenStore
	workspaces WorkspaceDirectory
	hasher     PasswordHasher
	clock      Clock
	policy     ConsumptionPolicy
	logger     *slog.Logger
}

// SetupOption configures a SetupService.
type SetupOption func(*SetupService)

// WithConsumptionPolicy overrides the default ConsumeOnUse policy.
func WithConsumptionPolicy(p ConsumptionPolicy) SetupOption {
	return func(s *SetupService) { s.policy = p }
}

// WithSetupLogger overrides the default logger.
func WithSetupLogger(logger *slog.Logger) SetupOption {
	return func(s *SetupService) { s.logger = logger }
}

// NewSetupService creates a new SetupService.
func NewSetupService(users UserDirectory, tokens TokenStore, workspaces WorkspaceDirectory, hasher PasswordHasher, clock Clock, opts ...SetupOption) (*SetupService, error) {
	if users == nil {
		return nil, oops.Code("SETUP_NIL_DEPENDENCY").Errorf("user directory is required")
	}
	if tokens == nil {
		return nil, oops.Code("SETUP_NIL_DEPENDENCY").Errorf("token store is required")
	}
	if workspaces == nil {
		return nil, oops.Code("SETUP_NIL_DEPENDENCY").Errorf("workspace directory is required")
	}
	if hasher == nil {
		return nil, oops.Code("SETUP_NIL_DEPENDENCY").Errorf("password hasher is required")
	}
	if clock == nil {
		return nil, oops.Code("SETUP_NIL_DEPENDENCY").Errorf("clock is required")
	}

	s := &SetupService{
		users:      users,
		tokens:     tokens,
		workspaces: workspaces,
		hasher:     hasher,
		clock:      clock,
		policy:     ConsumeOnUse,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		return nil, oops.Code("SETUP_NIL_DEPENDENCY").Errorf("logger is required")
	}
	return s, nil
}

// RequestPasswordReset issues a reset token for the account with the given
// email and returns its value for the host's mailer. Unknown emails return
// an empty value with no error to prevent address enumeration; delivery is
// not this service's job.
func (s *SetupService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", nil
		}
		return "", oops.Code("SETUP_RESET_REQUEST_FAILED").
			With("operation", "find user by email").
			Wrap(err)
	}

	token, err := s.tokens.CreateForUser(ctx, user.ID)
	if err != nil {
		return "", oops.Code("SETUP_RESET_REQUEST_FAILED").
			With("operation", "create token for user").
			With("user_id", user.ID).
			Wrap(err)
	}

	s.logger.Info("password reset requested", "user_id", user.ID)
	return token.Value, nil
}

// ValidateResetToken resolves a reset token to its owning user. A reset
// token is valid whether or not a password already exists on the account.
func (s *SetupService) ValidateResetToken(ctx context.Context, tokenValue string) (TokenValidation, error) {
	if strings.TrimSpace(tokenValue) == "" {
		return TokenValidation{ErrorMessage: MsgMissingToken}, nil
	}

	token, err := s.tokens.FindByValue(ctx, tokenValue)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return TokenValidation{ErrorMessage: MsgInvalidOrExpiredToken}, nil
		}
		return TokenValidation{}, oops.Code("SETUP_VALIDATE_FAILED").
			With("operation", "find token by value").
			Wrap(err)
	}

	if !token.ValidAt(s.clock.Now()) {
		return TokenValidation{ErrorMessage: MsgInvalidOrExpiredToken}, nil
	}

	user, err := s.users.FindByID(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return TokenValidation{ErrorMessage: MsgUserNotFound}, nil
		}
		return TokenValidation{}, oops.Code("SETUP_VALIDATE_FAILED").
			With("operation", "find token owner").
			With("user_id", token.UserID).
			Wrap(err)
	}

	return TokenValidation{Valid: true, UserID: user.ID, UserEmail: user.Email}, nil
}

// ValidateInitialUser confirms that the user targeted by first-time setup
// exists. It performs no token or ownership check of its own: callers MUST
// have established the user's right to set an initial password upstream,
// e.g. through a signed invitation URL. Exposing this operation to an
// unauthenticated caller without that check is an authorization hole.
func (s *SetupService) ValidateInitialUser(ctx context.Context, userID int64) (TokenValidation, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return TokenValidation{ErrorMessage: MsgUserNotFound}, nil
		}
		return TokenValidation{}, oops.Code("SETUP_VALIDATE_FAILED").
			With("operation", "find user by id").
			With("user_id", userID).
			Wrap(err)
	}

	return TokenValidation{Valid: true, UserID: user.ID, UserEmail: user.Email}, nil
}

// SetPasswordWithToken commits a new password for the owner of a reset
// token. The token is re-validated with the same outcomes as
// ValidateResetToken, the length policy is enforced before any hashing,
// and the configured consumption policy is applied after a successful
// commit. Unlike initial setup, this flow mints no login token and
// resolves no workspace slug.
func (s *SetupService) SetPasswordWithToken(ctx context.Context, tokenValue, newPassword string) (SetPasswordResult, error) {
	validation, err := s.ValidateResetToken(ctx, tokenValue)
	if err != nil {
		return SetPasswordResult{}, err
	}
	if !validation.Valid {
		return SetPasswordResult{ErrorMessage: validation.ErrorMessage}, nil
	}

	if len(newPassword) < MinPasswordLength {
		return SetPasswordResult{ErrorMessage: MsgPasswordTooShort}, nil
	}

	digest, err := s.hasher.Hash(CredentialSecret(validation.UserEmail, newPassword))
	if err != nil {
		return SetPasswordResult{}, oops.Code("SETUP_HASH_FAILED").
			With("operation", "hash password").
			With("user_id", validation.UserID).
			Wrap(err)
	}

	if err := s.users.UpdatePasswordHash(ctx, validation.UserID, digest); err != nil {
		return SetPasswordResult{}, oops.Code("SETUP_PERSIST_FAILED").
			With("operation", "update password hash").
			With("user_id", validation.UserID).
			Wrap(err)
	}

	if s.policy == ConsumeOnUse {
		// Cleanup only; the password is already committed. A failed delete
		// leaves the token to age out of its window.
		if token, findErr := s.tokens.FindByValue(ctx, tokenValue); findErr == nil {
			_ = s.tokens.Delete(ctx, token.ID) //nolint:errcheck // best effort
		}
	}

	s.logger.Info("password reset committed", "user_id", validation.UserID)
	passwordCommitsTotal.WithLabelValues("reset").Inc()

	return SetPasswordResult{
		Success:   true,
		UserID:    validation.UserID,
		UserEmail: validation.UserEmail,
	}, nil
}

// SetInitialPassword commits the first password for a freshly-invited user,
// then signs them in: it mints a session token and resolves the slug of
// their accepted workspace so the caller can redirect straight into it.
// Re-running it against an account that already has a password fails
// without touching the store's update path. The upstream signed-invitation
// precondition of ValidateInitialUser applies here as well.
func (s *SetupService) SetInitialPassword(ctx context.Context, userID int64, newPassword string) (SetPasswordResult, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return SetPasswordResult{ErrorMessage: MsgUserNotFound}, nil
		}
		return SetPasswordResult{}, oops.Code("SETUP_INITIAL_FAILED").
			With("operation", "find user by id").
			With("user_id", userID).
			Wrap(err)
	}

	if user.HasPassword() {
		return SetPasswordResult{ErrorMessage: MsgPasswordAlreadySet}, nil
	}

	if len(newPassword) < MinPasswordLength {
		return SetPasswordResult{ErrorMessage: MsgPasswordTooShort}, nil
	}

	digest, err := s.hasher.Hash(CredentialSecret(user.Email, newPassword))
	if err != nil {
		return SetPasswordResult{}, oops.Code("SETUP_HASH_FAILED").
			With("operation", "hash password").
			With("user_id", user.ID).
			Wrap(err)
	}

	if err := s.users.UpdatePasswordHash(ctx, user.ID, digest); err != nil {
		return SetPasswordResult{}, oops.Code("SETUP_PERSIST_FAILED").
			With("operation", "update password hash").
			With("user_id", user.ID).
			Wrap(err)
	}

	token, err := s.tokens.CreateForUser(ctx, user.ID)
	if err != nil {
		return SetPasswordResult{}, oops.Code("SETUP_TOKEN_ISSUE_FAILED").
			With("operation", "create login token").
			With("user_id", user.ID).
			Wrap(err)
	}

	slug, err := s.workspaceSlugFor(ctx, user.ID)
	if err != nil {
		return SetPasswordResult{}, err
	}

	s.logger.Info("initial password committed", "user_id", user.ID, "workspace_slug", slug)
	passwordCommitsTotal.WithLabelValues("initial").Inc()

	return SetPasswordResult{
		Success:       true,
		LoginToken:    token.Value,
		WorkspaceSlug: slug,
		UserID:        user.ID,
		UserEmail:     user.Email,
	}, nil
}

// workspaceSlugFor resolves the slug of the user's accepted workspace.
// A user with no accepted membership yet gets an empty slug; the caller
// falls back to a neutral landing page.
func (s *SetupService) workspaceSlugFor(ctx context.Context, userID int64) (string, error) {
	membership, err := s.workspaces.FindAcceptedMembershipForUser(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", nil
		}
		return "", oops.Code("SETUP_WORKSPACE_LOOKUP_FAILED").
			With("operation", "find accepted membership").
			With("user_id", userID).
			Wrap(err)
	}

	workspace, err := s.workspaces.FindWorkspaceByID(ctx, membership.WorkspaceID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", nil
		}
		return "", oops.Code("SETUP_WORKSPACE_LOOKUP_FAILED").
			With("operation", "find workspace by id").
			With("workspace_id", membership.WorkspaceID).
			Wrap(err)
	}

	return workspace.Slug, nil
}
