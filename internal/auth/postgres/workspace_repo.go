// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DeskHive Contributors

package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/deskhive/deskhive/internal/auth"
)

// WorkspaceDirectory implements auth.WorkspaceDirectory using PostgreSQL.
type WorkspaceDirectory struct {
	pool poolIface
}

// NewWorkspaceDirectory creates a new WorkspaceDirectory.
func NewWorkspaceDirectory(pool poolIface) *WorkspaceDirectory {
	return &WorkspaceDirectory{pool: pool}
}

// FindAcceptedMembershipForUser returns the user's accepted workspace
// membership. When a user belongs to several workspaces the oldest
// membership wins, matching the post-setup redirect of the web app.
func (r *WorkspaceDirectory) FindAcceptedMembershipForUser(ctx context.Context, userID int64) (*auth.Membership, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT user_id, workspace_id, accepted
		FROM workspace_members
		WHERE user_id = $1 AND accepted
		ORDER BY workspace_id
		LIMIT 1
	`, userID)

	var m auth.Membership
	err := row.Scan(&m.UserID, &m.WorkspaceID, &m.Accepted)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("MEMBERSHIP_NOT_FOUND").
			With("user_id", userID).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("MEMBERSHIP_GET_FAILED").
			With("operation", "get accepted membership").
			With("user_id", userID).
			Wrap(err)
	}
	return &m, nil
}

// FindWorkspaceByID retrieves a workspace by ID.
func (r *WorkspaceDirectory) FindWorkspaceByID(ctx context.Context, id int64) (*auth.Workspace, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, slug
		FROM workspaces
		WHERE id = $1
	`, id)

	var w auth.Workspace
	err := row.Scan(&w.ID, &w.Slug)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("WORKSPACE_NOT_FOUND").
			With("workspace_id", id).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("WORKSPACE_GET_FAILED").
			With("operation", "get workspace by id").
			With("workspace_id", id).
			Wrap(err)
	}
	return &w, nil
}

// Compile-time interface check.
var _ auth.WorkspaceDirectory = (*WorkspaceDirectory)(nil)
