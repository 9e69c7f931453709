// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DeskHive Contributors

package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/deskhive/deskhive/internal/auth"
	"github.com/deskhive/deskhive/internal/auth/mocks"
	"github.com/deskhive/deskhive/pkg/errutil"
)

func strPtr(s string) *string { return &s }

func TestNewAuthService_NilDependencies(t *testing.T) {
	tests := []struct {
		name        string
		users       auth.UserDirectory
		tokens      auth.TokenStore
		hasher      auth.PasswordHasher
		expectError string
	}{
		{
			name:        "nil user directory",
			users:       nil,
			tokens:      mocks.NewMockTokenStore(t),
			hasher:      mocks.NewMockPasswordHasher(t),
			expectError: "user directory is required",
		},
		{
			name:        "nil token store",
			users:       mocks.NewMockUserDirectory(t),
			tokens:      nil,
			hasher:      mocks.NewMockPasswordHasher(t),
			expectError: "token store is required",
		},
		{
			name:        "nil password hasher",
			users:       mocks.NewMockUserDirectory(t),
			tokens:      mocks.NewMockTokenStore(t),
			hasher:      nil,
			expectError: "password hasher is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := auth.NewAuthService(tt.users, tt.tokens, tt.hasher)
			require.Error(t, err)
			assert.Nil(t, svc)
			errutil.AssertErrorCode(t, err, "AUTH_NIL_DEPENDENCY")
			assert.Contains(t, err.Error(), tt.expectError)
		})
	}
}

func TestNewAuthServiceWithLogger_NilLogger(t *testing.T) {
	svc, err := auth.NewAuthServiceWithLogger(
		mocks.NewMockUserDirectory(t),
		mocks.NewMockTokenStore(t),
		mocks.NewMockPasswordHasher(t),
		nil,
	)
	require.Error(t, err)
	assert.Nil(t, svc)
	assert.Contains(t, err.Error(), "logger")
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()

	newService := func(t *testing.T, users *mocks.MockUserDirectory, tokens *mocks.MockTokenStore, hasher *mocks.MockPasswordHasher) *auth.Service {
		t.Helper()
		svc, err := auth.NewAuthService(users, tokens, hasher)
		require.NoError(t, err)
		return svc
	}

	t.Run("successful login issues token", func(t *testing.T) {
		users := mocks.NewMockUserDirectory(t)
		tokens := mocks.NewMockTokenStore(t)
		hasher := mocks.NewMockPasswordHasher(t)

		user := &auth.User{ID: 7, Email: "agent@example.com", PasswordHash: strPtr("$argon2id$digest")}
		users.On("FindByEmail", ctx, "agent@example.com").Return(user, nil)
		hasher.On("Verify", auth.CredentialSecret("agent@example.com", "hunter22"), "$argon2id$digest").Return(true)

		issued, err := auth.NewToken(7, "tokenvalue", time.Now(), 30*time.Minute)
		require.NoError(t, err)
		tokens.On("CreateForUser", ctx, int64(7)).Return(issued, nil)

		result, err := newService(t, users, tokens, hasher).Authenticate(ctx, "agent@example.com", "hunter22")
		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, int64(7), result.UserID)
		assert.Equal(t, "tokenvalue", result.Token)
		assert.Empty(t, result.ErrorMessage)
	})

	t.Run("unknown email gets generic message", func(t *testing.T) {
		users := mocks.NewMockUserDirectory(t)
		tokens := mocks.NewMockTokenStore(t)
		hasher := mocks.NewMockPasswordHasher(t)

		users.On("FindByEmail", ctx, "ghost@example.com").Return(nil, auth.ErrNotFound)
		hasher.On("Verify", mock.Anything, mock.Anything).Return(false)

		result, err := newService(t, users, tokens, hasher).Authenticate(ctx, "ghost@example.com", "whatever1")
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, "Invalid username or password, please try again", result.ErrorMessage)
		tokens.AssertNotCalled(t, "CreateForUser", mock.Anything, mock.Anything)
	})

	t.Run("account without password gets generic message", func(t *testing.T) {
		users := mocks.NewMockUserDirectory(t)
		tokens := mocks.NewMockTokenStore(t)
		hasher := mocks.NewMockPasswordHasher(t)

		user := &auth.User{ID: 8, Email: "invited@example.com", PasswordHash: nil}
		users.On("FindByEmail", ctx, "invited@example.com").Return(user, nil)
		hasher.On("Verify", mock.Anything, mock.Anything).Return(false)

		result, err := newService(t, users, tokens, hasher).Authenticate(ctx, "invited@example.com", "whatever1")
		require.NoError(t, err)
		assert.Equal(t, "Invalid username or password, please try again", result.ErrorMessage)
		tokens.AssertNotCalled(t, "CreateForUser", mock.Anything, mock.Anything)
	})

	t.Run("wrong password gets generic message", func(t *testing.T) {
		users := mocks.NewMockUserDirectory(t)
		tokens := mocks.NewMockTokenStore(t)
		hasher := mocks.NewMockPasswordHasher(t)

		user := &auth.User{ID: 9, Email: "agent@example.com", PasswordHash: strPtr("$argon2id$digest")}
		users.On("FindByEmail", ctx, "agent@example.com").Return(user, nil)
		hasher.On("Verify", auth.CredentialSecret("agent@example.com", "wrongpass"), "$argon2id$digest").Return(false)

		result, err := newService(t, users, tokens, hasher).Authenticate(ctx, "agent@example.com", "wrongpass")
		require.NoError(t, err)
		assert.Equal(t, "Invalid username or password, please try again", result.ErrorMessage)
		tokens.AssertNotCalled(t, "CreateForUser", mock.Anything, mock.Anything)
	})

	t.Run("failure messages are byte-identical across causes", func(t *testing.T) {
		unknownUsers := mocks.NewMockUserDirectory(t)
		unknownHasher := mocks.NewMockPasswordHasher(t)
		unknownUsers.On("FindByEmail", ctx, "ghost@example.com").Return(nil, auth.ErrNotFound)
		unknownHasher.On("Verify", mock.Anything, mock.Anything).Return(false)
		unknown, err := newService(t, unknownUsers, mocks.NewMockTokenStore(t), unknownHasher).
			Authenticate(ctx, "ghost@example.com", "whatever1")
		require.NoError(t, err)

		wrongUsers := mocks.NewMockUserDirectory(t)
		wrongHasher := mocks.NewMockPasswordHasher(t)
		user := &auth.User{ID: 3, Email: "real@example.com", PasswordHash: strPtr("$argon2id$digest")}
		wrongUsers.On("FindByEmail", ctx, "real@example.com").Return(user, nil)
		wrongHasher.On("Verify", mock.Anything, mock.Anything).Return(false)
		wrong, err := newService(t, wrongUsers, mocks.NewMockTokenStore(t), wrongHasher).
			Authenticate(ctx, "real@example.com", "wrongpass")
		require.NoError(t, err)

		assert.Equal(t, unknown.ErrorMessage, wrong.ErrorMessage)
	})

	t.Run("lookup infrastructure failure propagates", func(t *testing.T) {
		users := mocks.NewMockUserDirectory(t)
		tokens := mocks.NewMockTokenStore(t)
		hasher := mocks.NewMockPasswordHasher(t)

		users.On("FindByEmail", ctx, "agent@example.com").Return(nil, errors.New("connection refused"))

		result, err := newService(t, users, tokens, hasher).Authenticate(ctx, "agent@example.com", "hunter22")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "AUTH_LOGIN_FAILED")
		assert.False(t, result.Success)
	})

	t.Run("token issuance failure propagates", func(t *testing.T) {
		users := mocks.NewMockUserDirectory(t)
		tokens := mocks.NewMockTokenStore(t)
		hasher := mocks.NewMockPasswordHasher(t)

		user := &auth.User{ID: 7, Email: "agent@example.com", PasswordHash: strPtr("$argon2id$digest")}
		users.On("FindByEmail", ctx, "agent@example.com").Return(user, nil)
		hasher.On("Verify", mock.Anything, mock.Anything).Return(true)
		tokens.On("CreateForUser", ctx, int64(7)).Return(nil, errors.New("insert failed"))

		_, err := newService(t, users, tokens, hasher).Authenticate(ctx, "agent@example.com", "hunter22")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "AUTH_TOKEN_ISSUE_FAILED")
	})
}
