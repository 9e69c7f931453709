// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DeskHive Contributors

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskhive/deskhive/internal/auth"
	"github.com/deskhive/deskhive/internal/auth/mocks"
	"github.com/deskhive/deskhive/pkg/errutil"
)

var repoNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err, "failed to create mock")
	t.Cleanup(mock.Close)
	return mock
}

func tokenRows(id ulid.ULID, userID int64, value string, createdAt time.Time, maxAgeSeconds int64) *pgxmock.Rows {
	return pgxmock.NewRows([]string{"id", "user_id", "value", "created_at", "max_age_seconds"}).
		AddRow(id.String(), userID, value, createdAt, maxAgeSeconds)
}

func TestTokenStore_CreateForUser(t *testing.T) {
	ctx := context.Background()

	t.Run("inserts and returns token", func(t *testing.T) {
		mock := newMockPool(t)
		source := mocks.NewMockTokenSource(t)
		source.On("TokenValue").Return("generatedvalue", nil)

		mock.ExpectExec(`INSERT INTO tokens`).
			WithArgs(pgxmock.AnyArg(), int64(7), "generatedvalue", repoNow, int64(1800)).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		repo := NewTokenStore(mock, source, auth.FixedClock{T: repoNow}, 30*time.Minute)
		token, err := repo.CreateForUser(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, int64(7), token.UserID)
		assert.Equal(t, "generatedvalue", token.Value)
		assert.Equal(t, repoNow, token.CreatedAt)
		assert.Equal(t, 30*time.Minute, token.MaxAge)

		assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
	})

	t.Run("value collision gets its own code", func(t *testing.T) {
		mock := newMockPool(t)
		source := mocks.NewMockTokenSource(t)
		source.On("TokenValue").Return("collidingvalue", nil)

		mock.ExpectExec(`INSERT INTO tokens`).
			WithArgs(pgxmock.AnyArg(), int64(7), "collidingvalue", repoNow, int64(1800)).
			WillReturnError(&pgconn.PgError{Code: "23505"})

		repo := NewTokenStore(mock, source, auth.FixedClock{T: repoNow}, 30*time.Minute)
		_, err := repo.CreateForUser(ctx, 7)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "TOKEN_VALUE_COLLISION")
	})

	t.Run("source failure propagates", func(t *testing.T) {
		mock := newMockPool(t)
		source := mocks.NewMockTokenSource(t)
		source.On("TokenValue").Return("", errors.New("entropy exhausted"))

		repo := NewTokenStore(mock, source, auth.FixedClock{T: repoNow}, 30*time.Minute)
		_, err := repo.CreateForUser(ctx, 7)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "TOKEN_CREATE_FAILED")
	})
}

func TestTokenStore_FindByValue(t *testing.T) {
	ctx := context.Background()

	t.Run("returns stored token without expiry filtering", func(t *testing.T) {
		mock := newMockPool(t)
		id := ulid.Make()
		createdAt := repoNow.Add(-2 * time.Hour)

		mock.ExpectQuery(`FROM tokens`).
			WithArgs("somevalue").
			WillReturnRows(tokenRows(id, 7, "somevalue", createdAt, 1800))

		repo := NewTokenStore(mock, auth.CryptoTokenSource{}, auth.FixedClock{T: repoNow}, 30*time.Minute)
		token, err := repo.FindByValue(ctx, "somevalue")
		require.NoError(t, err)
		assert.Equal(t, id, token.ID)
		assert.Equal(t, 1800*time.Second, token.MaxAge)
		assert.False(t, token.ValidAt(repoNow))
	})

	t.Run("missing token maps to not found", func(t *testing.T) {
		mock := newMockPool(t)
		mock.ExpectQuery(`FROM tokens`).
			WithArgs("nope").
			WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "value", "created_at", "max_age_seconds"}))

		repo := NewTokenStore(mock, auth.CryptoTokenSource{}, auth.FixedClock{T: repoNow}, 30*time.Minute)
		_, err := repo.FindByValue(ctx, "nope")
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrNotFound)
	})

	t.Run("corrupt id is rejected", func(t *testing.T) {
		mock := newMockPool(t)
		rows := pgxmock.NewRows([]string{"id", "user_id", "value", "created_at", "max_age_seconds"}).
			AddRow("not-a-ulid", int64(7), "somevalue", repoNow, int64(1800))
		mock.ExpectQuery(`FROM tokens`).
			WithArgs("somevalue").
			WillReturnRows(rows)

		repo := NewTokenStore(mock, auth.CryptoTokenSource{}, auth.FixedClock{T: repoNow}, 30*time.Minute)
		_, err := repo.FindByValue(ctx, "somevalue")
		require.Error(t, err)
	})
}

func TestTokenStore_FindNewestValidForUser(t *testing.T) {
	ctx := context.Background()

	t.Run("passes the injected clock to the query", func(t *testing.T) {
		mock := newMockPool(t)
		id := ulid.Make()

		mock.ExpectQuery(`ORDER BY created_at DESC`).
			WithArgs(int64(7), repoNow).
			WillReturnRows(tokenRows(id, 7, "newest", repoNow.Add(-time.Minute), 1800))

		repo := NewTokenStore(mock, auth.CryptoTokenSource{}, auth.FixedClock{T: repoNow}, 30*time.Minute)
		token, err := repo.FindNewestValidForUser(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, "newest", token.Value)
	})

	t.Run("no live token maps to not found", func(t *testing.T) {
		mock := newMockPool(t)
		mock.ExpectQuery(`ORDER BY created_at DESC`).
			WithArgs(int64(7), repoNow).
			WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "value", "created_at", "max_age_seconds"}))

		repo := NewTokenStore(mock, auth.CryptoTokenSource{}, auth.FixedClock{T: repoNow}, 30*time.Minute)
		_, err := repo.FindNewestValidForUser(ctx, 7)
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrNotFound)
	})
}

func TestTokenStore_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes by id", func(t *testing.T) {
		mock := newMockPool(t)
		id := ulid.Make()
		mock.ExpectExec(`DELETE FROM tokens WHERE id`).
			WithArgs(id.String()).
			WillReturnResult(pgxmock.NewResult("DELETE", 1))

		repo := NewTokenStore(mock, auth.CryptoTokenSource{}, auth.FixedClock{T: repoNow}, 30*time.Minute)
		require.NoError(t, repo.Delete(ctx, id))
	})

	t.Run("zero rows maps to not found", func(t *testing.T) {
		mock := newMockPool(t)
		id := ulid.Make()
		mock.ExpectExec(`DELETE FROM tokens WHERE id`).
			WithArgs(id.String()).
			WillReturnResult(pgxmock.NewResult("DELETE", 0))

		repo := NewTokenStore(mock, auth.CryptoTokenSource{}, auth.FixedClock{T: repoNow}, 30*time.Minute)
		err := repo.Delete(ctx, id)
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrNotFound)
	})
}

func TestTokenStore_DeleteExpired(t *testing.T) {
	ctx := context.Background()

	t.Run("reports swept count", func(t *testing.T) {
		mock := newMockPool(t)
		mock.ExpectExec(`DELETE FROM tokens`).
			WithArgs(repoNow).
			WillReturnResult(pgxmock.NewResult("DELETE", 3))

		repo := NewTokenStore(mock, auth.CryptoTokenSource{}, auth.FixedClock{T: repoNow}, 30*time.Minute)
		deleted, err := repo.DeleteExpired(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3), deleted)
	})

	t.Run("error propagates", func(t *testing.T) {
		mock := newMockPool(t)
		mock.ExpectExec(`DELETE FROM tokens`).
			WithArgs(repoNow).
			WillReturnError(errors.New("connection refused"))

		repo := NewTokenStore(mock, auth.CryptoTokenSource{}, auth.FixedClock{T: repoNow}, 30*time.Minute)
		_, err := repo.DeleteExpired(ctx)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "TOKEN_DELETE_EXPIRED_FAILED")
	})
}
