// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DeskHive Contributors

package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/oops"
)

// Sweeper periodically removes expired tokens from a TokenStore. Expired
// tokens are already invisible to verification, so the sweep is pure
// housekeeping and a failed pass is retried on the next tick.
type Sweeper struct {
	tokens   TokenStore
	interval time.Duration
	logger   *slog.Logger
}

// NewSweeper creates a Sweeper that runs every interval.
func NewSweeper(tokens TokenStore, interval time.Duration, logger *slog.Logger) (*Sweeper, error) {
	if tokens == nil {
		return nil, oops.Code("SWEEPER_NIL_DEPENDENCY").Errorf("token store is required")
	}
	if interval <= 0 {
		return nil, oops.Code("SWEEPER_INVALID_INTERVAL").Errorf("sweep interval must be positive, got %s", interval)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{tokens: tokens, interval: interval, logger: logger}, nil
}

// Run sweeps until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	deleted, err := s.tokens.DeleteExpired(ctx)
	if err != nil {
		s.logger.Error("token sweep failed", "error", err)
		return
	}
	if deleted > 0 {
		tokensSweptTotal.Add(float64(deleted))
		s.logger.Debug("swept expired tokens", "deleted", deleted)
	}
}
