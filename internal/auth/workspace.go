// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DeskHive Contributors

package auth

import "context"

// Workspace is the slice of a helpdesk workspace this core reads: enough to
// route a freshly-authenticated user to their workspace after setup.
type Workspace struct {
	ID   int64
	Slug string
}

// Membership links a user to a workspace. Only accepted memberships are
// considered for post-setup routing.
type Membership struct {
	UserID      int64
	WorkspaceID int64
	Accepted    bool
}

// WorkspaceDirectory is the read-only contract for membership and workspace
// lookup.
type WorkspaceDirectory interface {
	// FindAcceptedMembershipForUser returns the user's accepted workspace
	// membership, or ErrNotFound.
	FindAcceptedMembershipForUser(ctx context.Context, userID int64) (*Membership, error)

	// FindWorkspaceByID retrieves a workspace by ID.
	FindWorkspaceByID(ctx context.Context, id int64) (*Workspace, error)
}
