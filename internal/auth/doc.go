// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DeskHive Contributors

// Package auth implements the credential and session-token lifecycle for
// DeskHive: password hashing, token issuance and validation, and the
// password setup/reset workflows that gate account access.
//
// # Domain Types
//
// Token carries an opaque session credential with a validity window of
// [CreatedAt, CreatedAt+MaxAge). User and Workspace are read through the
// UserDirectory and WorkspaceDirectory contracts owned by the host
// application; this package only mutates the password-hash field.
//
// # Services
//
// Service types coordinate domain operations:
//   - Service - login and token issuance
//   - SetupService - initial password setup and password reset
//   - Verifier - per-request bearer/cookie token verification
//
// Services are created with New*Service constructors that validate
// dependencies. Recoverable failures (bad credentials, expired tokens,
// policy violations) are returned as result values with stable
// user-facing messages; only infrastructure failures surface as errors.
package auth
