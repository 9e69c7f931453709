// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DeskHive Contributors

package errutil

import (
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// requireOops fails the test unless err carries oops metadata.
func requireOops(t testing.TB, err error) oops.OopsError {
	t.Helper()
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "expected oops error, got %T: %v", err, err)
	return oopsErr
}

// AssertErrorCode asserts that err is an oops error with the given code.
// Store and service operations stamp their code on the outermost wrap, so
// this is how tests pin down which operation failed.
func AssertErrorCode(t testing.TB, err error, code string) {
	t.Helper()
	assert.Equal(t, code, requireOops(t, err).Code())
}

// AssertErrorContext asserts that err is an oops error carrying the given
// context key/value.
func AssertErrorContext(t testing.TB, err error, key string, value any) {
	t.Helper()
	ctx := requireOops(t, err).Context()
	assert.Contains(t, ctx, key)
	assert.Equal(t, value, ctx[key])
}
