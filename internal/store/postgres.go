// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DeskHive Contributors

// Package store provides PostgreSQL connectivity and schema management.
package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

const (
	// pingBackoffBase is the first wait between connection ping attempts.
	pingBackoffBase = 250 * time.Millisecond

	// connectTimeout bounds the whole connect-and-ping sequence.
	connectTimeout = 15 * time.Second
)

// Connect opens a pgx connection pool and waits until the database answers
// a ping, retrying with fibonacci backoff. The database is often still
// starting when the service comes up, so a failed first ping is expected.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, oops.Code("STORE_CONNECT_FAILED").
			With("operation", "create connection pool").
			Wrap(err)
	}

	backoff := retry.WithMaxDuration(connectTimeout, retry.NewFibonacci(pingBackoffBase))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if pingErr := pool.Ping(ctx); pingErr != nil {
			return retry.RetryableError(pingErr)
		}
		return nil
	})
	if err != nil {
		pool.Close()
		return nil, oops.Code("STORE_CONNECT_FAILED").
			With("operation", "ping database").
			Wrap(err)
	}

	return pool, nil
}
