// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DeskHive Contributors

// Package mocks provides testify mocks for the auth package contracts.
package mocks

import (
	"context"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/mock"

	"github.com/deskhive/deskhive/internal/auth"
)

// MockTokenStore is a mock implementation of auth.TokenStore.
type MockTokenStore struct {
	mock.Mock
}

// NewMockTokenStore creates a MockTokenStore bound to the test lifecycle.
func NewMockTokenStore(t *testing.T) *MockTokenStore {
	t.Helper()
	m := &MockTokenStore{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockTokenStore) CreateForUser(ctx context.Context, userID int64) (*auth.Token, error) {
	args := m.Called(ctx, userID)
	if token, ok := args.Get(0).(*auth.Token); ok {
		return token, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTokenStore) FindByValue(ctx context.Context, value string) (*auth.Token, error) {
	args := m.Called(ctx, value)
	if token, ok := args.Get(0).(*auth.Token); ok {
		return token, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTokenStore) FindNewestValidForUser(ctx context.Context, userID int64) (*auth.Token, error) {
	args := m.Called(ctx, userID)
	if token, ok := args.Get(0).(*auth.Token); ok {
		return token, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTokenStore) Delete(ctx context.Context, id ulid.ULID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTokenStore) DeleteExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockUserDirectory is a mock implementation of auth.UserDirectory.
type MockUserDirectory struct {
	mock.Mock
}

// NewMockUserDirectory creates a MockUserDirectory bound to the test lifecycle.
func NewMockUserDirectory(t *testing.T) *MockUserDirectory {
	t.Helper()
	m := &MockUserDirectory{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockUserDirectory) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	args := m.Called(ctx, email)
	if user, ok := args.Get(0).(*auth.User); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserDirectory) FindByID(ctx context.Context, id int64) (*auth.User, error) {
	args := m.Called(ctx, id)
	if user, ok := args.Get(0).(*auth.User); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserDirectory) Update(ctx context.Context, user *auth.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserDirectory) UpdatePasswordHash(ctx context.Context, id int64, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

// MockWorkspaceDirectory is a mock implementation of auth.WorkspaceDirectory.
type MockWorkspaceDirectory struct {
	mock.Mock
}

// NewMockWorkspaceDirectory creates a MockWorkspaceDirectory bound to the test lifecycle.
func NewMockWorkspaceDirectory(t *testing.T) *MockWorkspaceDirectory {
	t.Helper()
	m := &MockWorkspaceDirectory{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockWorkspaceDirectory) FindAcceptedMembershipForUser(ctx context.Context, userID int64) (*auth.Membership, error) {
	args := m.Called(ctx, userID)
	if membership, ok := args.Get(0).(*auth.Membership); ok {
		return membership, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockWorkspaceDirectory) FindWorkspaceByID(ctx context.Context, id int64) (*auth.Workspace, error) {
	args := m.Called(ctx, id)
	if workspace, ok := args.Get(0).(*auth.Workspace); ok {
		return workspace, args.Error(1)
	}
	return nil, args.Error(1)
}

// MockPasswordHasher is a mock implementation of auth.PasswordHasher.
type MockPasswordHasher struct {
	mock.Mock
}

// NewMockPasswordHasher creates a MockPasswordHasher bound to the test lifecycle.
func NewMockPasswordHasher(t *testing.T) *MockPasswordHasher {
	t.Helper()
	m := &MockPasswordHasher{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockPasswordHasher) Hash(secret string) (string, error) {
	args := m.Called(secret)
	return args.String(0), args.Error(1)
}

func (m *MockPasswordHasher) Verify(secret, digest string) bool {
	args := m.Called(secret, digest)
	return args.Bool(0)
}

// MockTokenSource is a mock implementation of auth.TokenSource.
type MockTokenSource struct {
	mock.Mock
}

// NewMockTokenSource creates a MockTokenSource bound to the test lifecycle.
func NewMockTokenSource(t *testing.T) *MockTokenSource {
	t.Helper()
	m := &MockTokenSource{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockTokenSource) TokenValue() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

// Compile-time interface checks.
var (
	_ auth.TokenStore         = (*MockTokenStore)(nil)
	_ auth.UserDirectory      = (*MockUserDirectory)(nil)
	_ auth.WorkspaceDirectory = (*MockWorkspaceDirectory)(nil)
	_ auth.PasswordHasher     = (*MockPasswordHasher)(nil)
	_ auth.TokenSource        = (*MockTokenSource)(nil)
)
