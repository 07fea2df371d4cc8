// Package sessions declares the repository contract for the per-user bearer
// token list.
package sessions

import "context"

// Repository defines operations for issuing, checking, and revoking session
// tokens.
type Repository interface {
	// Create stores a new token for userID.
	Create(ctx context.Context, userID string, token string) error

	// Exists reports whether the exact token is still active for userID.
	Exists(ctx context.Context, userID string, token string) (bool, error)

	// Delete revokes exactly one token. Deleting a non-existent token is not
	// an error.
	Delete(ctx context.Context, userID string, token string) error

	// DeleteAllForUser revokes every token userID holds.
	DeleteAllForUser(ctx context.Context, userID string) error
}
