// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DeskHive Contributors

package auth

import "errors"

// ErrNotFound is returned by store contracts when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrNoCredential is returned by the request-time verifier when a request
// carries neither a bearer header nor a session cookie. It is distinct from
// a rejected credential so callers can redirect to login instead of
// answering 401.
var ErrNoCredential = errors.New("no credential supplied")

// User-facing failure messages. These are stable strings surfaced through
// result values; they deliberately leak nothing about account existence.
const (
	MsgInvalidCredentials    = "Invalid username or password, please try again"
	MsgMissingToken          = "Missing token."
	MsgInvalidOrExpiredToken = "Invalid or expired token."
	MsgUserNotFound          = "User not found."
	MsgPasswordTooShort      = "Password must be at least 8 characters long."
	MsgPasswordAlreadySet    = "Password already set."
)
