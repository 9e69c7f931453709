// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DeskHive Contributors

package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskhive/deskhive/internal/auth"
)

func TestMemoryTokenStore(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := auth.FixedClock{T: now}

	newStore := func() *auth.MemoryTokenStore {
		return auth.NewMemoryTokenStore(auth.CryptoTokenSource{}, clock, 30*time.Minute)
	}

	t.Run("create and find by value", func(t *testing.T) {
		store := newStore()
		created, err := store.CreateForUser(ctx, 7)
		require.NoError(t, err)
		assert.Len(t, created.Value, auth.TokenValueBytes*2)

		found, err := store.FindByValue(ctx, created.Value)
		require.NoError(t, err)
		assert.Equal(t, created.ID, found.ID)
		assert.Equal(t, int64(7), found.UserID)
	})

	t.Run("find by value is exact", func(t *testing.T) {
		store := newStore()
		created, err := store.CreateForUser(ctx, 7)
		require.NoError(t, err)

		_, err = store.FindByValue(ctx, created.Value+"x")
		assert.ErrorIs(t, err, auth.ErrNotFound)
	})

	t.Run("find by value ignores expiry", func(t *testing.T) {
		store := newStore()
		expired, err := auth.NewToken(7, "expiredvalue", now.Add(-2*time.Hour), 30*time.Minute)
		require.NoError(t, err)
		store.Put(expired)

		found, err := store.FindByValue(ctx, "expiredvalue")
		require.NoError(t, err)
		assert.False(t, found.ValidAt(now))
	})

	t.Run("newest valid wins over older valid", func(t *testing.T) {
		store := newStore()
		older, err := auth.NewToken(7, "oldervalue", now.Add(-10*time.Minute), 30*time.Minute)
		require.NoError(t, err)
		newer, err := auth.NewToken(7, "newervalue", now.Add(-2*time.Minute), 30*time.Minute)
		require.NoError(t, err)
		store.Put(older)
		store.Put(newer)

		found, err := store.FindNewestValidForUser(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, "newervalue", found.Value)
	})

	t.Run("newest valid skips expired tokens", func(t *testing.T) {
		store := newStore()
		expired, err := auth.NewToken(7, "expiredvalue", now.Add(-2*time.Hour), 30*time.Minute)
		require.NoError(t, err)
		valid, err := auth.NewToken(7, "validvalue", now.Add(-10*time.Minute), 30*time.Minute)
		require.NoError(t, err)
		store.Put(expired)
		store.Put(valid)

		found, err := store.FindNewestValidForUser(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, "validvalue", found.Value)
	})

	t.Run("newest valid with no live tokens", func(t *testing.T) {
		store := newStore()
		expired, err := auth.NewToken(7, "expiredvalue", now.Add(-2*time.Hour), 30*time.Minute)
		require.NoError(t, err)
		store.Put(expired)

		_, err = store.FindNewestValidForUser(ctx, 7)
		assert.ErrorIs(t, err, auth.ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		store := newStore()
		created, err := store.CreateForUser(ctx, 7)
		require.NoError(t, err)

		require.NoError(t, store.Delete(ctx, created.ID))
		_, err = store.FindByValue(ctx, created.Value)
		assert.ErrorIs(t, err, auth.ErrNotFound)

		err = store.Delete(ctx, created.ID)
		assert.ErrorIs(t, err, auth.ErrNotFound)
	})

	t.Run("delete expired sweeps only aged-out tokens", func(t *testing.T) {
		store := newStore()
		expired, err := auth.NewToken(7, "expiredvalue", now.Add(-2*time.Hour), 30*time.Minute)
		require.NoError(t, err)
		valid, err := auth.NewToken(7, "validvalue", now.Add(-10*time.Minute), 30*time.Minute)
		require.NoError(t, err)
		store.Put(expired)
		store.Put(valid)

		deleted, err := store.DeleteExpired(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), deleted)

		_, err = store.FindByValue(ctx, "expiredvalue")
		assert.ErrorIs(t, err, auth.ErrNotFound)
		_, err = store.FindByValue(ctx, "validvalue")
		assert.NoError(t, err)
	})
}

func TestMemoryUserDirectory(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := auth.FixedClock{T: now}

	t.Run("find by email is case-insensitive", func(t *testing.T) {
		dir := auth.NewMemoryUserDirectory(clock)
		dir.Put(&auth.User{ID: 4, Email: "User@Example.com"})

		found, err := dir.FindByEmail(ctx, "user@example.COM")
		require.NoError(t, err)
		assert.Equal(t, int64(4), found.ID)
	})

	t.Run("find by id", func(t *testing.T) {
		dir := auth.NewMemoryUserDirectory(clock)
		dir.Put(&auth.User{ID: 4, Email: "u@example.com"})

		found, err := dir.FindByID(ctx, 4)
		require.NoError(t, err)
		assert.Equal(t, "u@example.com", found.Email)

		_, err = dir.FindByID(ctx, 99)
		assert.ErrorIs(t, err, auth.ErrNotFound)
	})

	t.Run("update password hash", func(t *testing.T) {
		dir := auth.NewMemoryUserDirectory(clock)
		dir.Put(&auth.User{ID: 4, Email: "u@example.com"})

		require.NoError(t, dir.UpdatePasswordHash(ctx, 4, "$argon2id$new"))
		found, err := dir.FindByID(ctx, 4)
		require.NoError(t, err)
		require.NotNil(t, found.PasswordHash)
		assert.Equal(t, "$argon2id$new", *found.PasswordHash)
		assert.Equal(t, now, found.UpdatedAt)

		err = dir.UpdatePasswordHash(ctx, 99, "$argon2id$new")
		assert.ErrorIs(t, err, auth.ErrNotFound)
	})

	t.Run("returned record is a copy", func(t *testing.T) {
		dir := auth.NewMemoryUserDirectory(clock)
		dir.Put(&auth.User{ID: 4, Email: "u@example.com"})

		first, err := dir.FindByID(ctx, 4)
		require.NoError(t, err)
		first.Email = "mutated@example.com"

		second, err := dir.FindByID(ctx, 4)
		require.NoError(t, err)
		assert.Equal(t, "u@example.com", second.Email)
	})
}

func TestMemoryWorkspaceDirectory(t *testing.T) {
	ctx := context.Background()

	t.Run("accepted membership and workspace lookup", func(t *testing.T) {
		dir := auth.NewMemoryWorkspaceDirectory()
		dir.PutWorkspace(auth.Workspace{ID: 10, Slug: "ws-slug"})
		dir.PutMembership(auth.Membership{UserID: 4, WorkspaceID: 10, Accepted: true})

		membership, err := dir.FindAcceptedMembershipForUser(ctx, 4)
		require.NoError(t, err)
		assert.Equal(t, int64(10), membership.WorkspaceID)

		workspace, err := dir.FindWorkspaceByID(ctx, membership.WorkspaceID)
		require.NoError(t, err)
		assert.Equal(t, "ws-slug", workspace.Slug)
	})

	t.Run("pending membership is not returned", func(t *testing.T) {
		dir := auth.NewMemoryWorkspaceDirectory()
		dir.PutMembership(auth.Membership{UserID: 4, WorkspaceID: 10, Accepted: false})

		_, err := dir.FindAcceptedMembershipForUser(ctx, 4)
		assert.ErrorIs(t, err, auth.ErrNotFound)
	})

	t.Run("missing workspace", func(t *testing.T) {
		dir := auth.NewMemoryWorkspaceDirectory()
		_, err := dir.FindWorkspaceByID(ctx, 99)
		assert.ErrorIs(t, err, auth.ErrNotFound)
	})
}
