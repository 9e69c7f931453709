// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DeskHive Contributors

package auth

import "time"

// Clock supplies the current time. Every expiry comparison in this package
// goes through a Clock so token validity is deterministic under test.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall-clock Clock used in production.
type SystemClock struct{}

// Now returns the current wall-clock time.
func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock is a Clock pinned to a single instant, for tests.
type FixedClock struct {
	T time.Time
}

// Now returns the pinned instant.
func (c FixedClock) Now() time.Time { return c.T }
