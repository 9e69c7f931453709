// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DeskHive Contributors

package auth

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// MemoryTokenStore is an in-memory TokenStore for tests and self-checks.
// The postgres adapter is the production implementation.
type MemoryTokenStore struct {
	mu     sync.RWMutex
	tokens map[ulid.ULID]Token
	source TokenSource
	clock  Clock
	maxAge time.Duration
}

// NewMemoryTokenStore creates an empty MemoryTokenStore. maxAge is the
// validity window stamped on every created token.
func NewMemoryTokenStore(source TokenSource, clock Clock, maxAge time.Duration) *MemoryTokenStore {
	if maxAge <= 0 {
		maxAge = DefaultSessionTimeout
	}
	return &MemoryTokenStore{
		tokens: make(map[ulid.ULID]Token),
		source: source,
		clock:  clock,
		maxAge: maxAge,
	}
}

// CreateForUser generates, persists and returns a new token.
func (s *MemoryTokenStore) CreateForUser(_ context.Context, userID int64) (*Token, error) {
	value, err := s.source.TokenValue()
	if err != nil {
		return nil, err
	}

	token, err := NewToken(userID, value, s.clock.Now(), s.maxAge)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token.ID] = *token

	out := *token
	return &out, nil
}

// FindByValue retrieves a token by exact value match, without expiry
// filtering.
func (s *MemoryTokenStore) FindByValue(_ context.Context, value string) (*Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.tokens {
		if t.Value == value {
			out := t
			return &out, nil
		}
	}
	return nil, oops.Code("TOKEN_NOT_FOUND").Wrap(ErrNotFound)
}

// FindNewestValidForUser returns the latest-created token for the user that
// is still inside its validity window.
func (s *MemoryTokenStore) FindNewestValidForUser(_ context.Context, userID int64) (*Token, error) {
	now := s.clock.Now()

	s.mu.RLock()
	defer s.mu.RUnlock()

	var newest *Token
	for _, t := range s.tokens {
		if t.UserID != userID || !t.ValidAt(now) {
			continue
		}
		if newest == nil || t.CreatedAt.After(newest.CreatedAt) {
			candidate := t
			newest = &candidate
		}
	}
	if newest == nil {
		return nil, oops.Code("TOKEN_NOT_FOUND").With("user_id", userID).Wrap(ErrNotFound)
	}
	return newest, nil
}

// Delete removes a token by ID.
func (s *MemoryTokenStore) Delete(_ context.Context, id ulid.ULID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tokens[id]; !ok {
		return oops.Code("TOKEN_NOT_FOUND").With("id", id.String()).Wrap(ErrNotFound)
	}
	delete(s.tokens, id)
	return nil
}

// DeleteExpired removes all tokens past their validity window.
func (s *MemoryTokenStore) DeleteExpired(_ context.Context) (int64, error) {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, t := range s.tokens {
		if !t.ValidAt(now) {
			delete(s.tokens, id)
			deleted++
		}
	}
	return deleted, nil
}

// Put inserts a pre-built token, for seeding expiry scenarios in tests.
func (s *MemoryTokenStore) Put(token *Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token.ID] = *token
}

// MemoryUserDirectory is an in-memory UserDirectory for tests and
// self-checks.
type MemoryUserDirectory struct {
	mu    sync.RWMutex
	users map[int64]User
	clock Clock
}

// NewMemoryUserDirectory creates an empty MemoryUserDirectory. The clock
// stamps UpdatedAt on writes.
func NewMemoryUserDirectory(clock Clock) *MemoryUserDirectory {
	if clock == nil {
		clock = SystemClock{}
	}
	return &MemoryUserDirectory{users: make(map[int64]User), clock: clock}
}

// Put inserts or replaces a user record.
func (d *MemoryUserDirectory) Put(user *User) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[user.ID] = *user
}

// FindByEmail retrieves a user by email, case-insensitively.
func (d *MemoryUserDirectory) FindByEmail(_ context.Context, email string) (*User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	needle := strings.ToLower(email)
	for _, u := range d.users {
		if strings.ToLower(u.Email) == needle {
			out := u
			return &out, nil
		}
	}
	return nil, oops.Code("USER_NOT_FOUND").Wrap(ErrNotFound)
}

// FindByID retrieves a user by ID.
func (d *MemoryUserDirectory) FindByID(_ context.Context, id int64) (*User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	u, ok := d.users[id]
	if !ok {
		return nil, oops.Code("USER_NOT_FOUND").With("user_id", id).Wrap(ErrNotFound)
	}
	out := u
	return &out, nil
}

// Update replaces an existing user record.
func (d *MemoryUserDirectory) Update(_ context.Context, user *User) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.users[user.ID]; !ok {
		return oops.Code("USER_NOT_FOUND").With("user_id", user.ID).Wrap(ErrNotFound)
	}
	d.users[user.ID] = *user
	return nil
}

// UpdatePasswordHash updates only the password hash for a user.
func (d *MemoryUserDirectory) UpdatePasswordHash(_ context.Context, id int64, passwordHash string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	u, ok := d.users[id]
	if !ok {
		return oops.Code("USER_NOT_FOUND").With("user_id", id).Wrap(ErrNotFound)
	}
	u.PasswordHash = &passwordHash
	u.UpdatedAt = d.clock.Now()
	d.users[id] = u
	return nil
}

// MemoryWorkspaceDirectory is an in-memory WorkspaceDirectory for tests and
// self-checks.
type MemoryWorkspaceDirectory struct {
	mu          sync.RWMutex
	workspaces  map[int64]Workspace
	memberships []Membership
}

// NewMemoryWorkspaceDirectory creates an empty MemoryWorkspaceDirectory.
func NewMemoryWorkspaceDirectory() *MemoryWorkspaceDirectory {
	return &MemoryWorkspaceDirectory{workspaces: make(map[int64]Workspace)}
}

// PutWorkspace inserts or replaces a workspace.
func (d *MemoryWorkspaceDirectory) PutWorkspace(w Workspace) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.workspaces[w.ID] = w
}

// PutMembership appends a membership record.
func (d *MemoryWorkspaceDirectory) PutMembership(m Membership) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.memberships = append(d.memberships, m)
}

// FindAcceptedMembershipForUser returns the user's accepted membership.
func (d *MemoryWorkspaceDirectory) FindAcceptedMembershipForUser(_ context.Context, userID int64) (*Membership, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, m := range d.memberships {
		if m.UserID == userID && m.Accepted {
			out := m
			return &out, nil
		}
	}
	return nil, oops.Code("MEMBERSHIP_NOT_FOUND").With("user_id", userID).Wrap(ErrNotFound)
}

// FindWorkspaceByID retrieves a workspace by ID.
func (d *MemoryWorkspaceDirectory) FindWorkspaceByID(_ context.Context, id int64) (*Workspace, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	w, ok := d.workspaces[id]
	if !ok {
		return nil, oops.Code("WORKSPACE_NOT_FOUND").With("workspace_id", id).Wrap(ErrNotFound)
	}
	out := w
	return &out, nil
}

// Compile-time interface checks.
var (
	_ TokenStore         = (*MemoryTokenStore)(nil)
	_ UserDirectory      = (*MemoryUserDirectory)(nil)
	_ WorkspaceDirectory = (*MemoryWorkspaceDirectory)(nil)
)
