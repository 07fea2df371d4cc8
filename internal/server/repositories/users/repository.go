// Package users declares the repository contract for account persistence.
package users

import (
	"context"

	"taskkeeper/internal/server/models"
)

// Repository defines the storage operations on user accounts. Implementations
// return common.ErrNotFound for absent rows and common.ErrAlreadyExists when
// the email uniqueness constraint is violated.
type Repository interface {
	// Create inserts a new user and returns it with the generated id and
	// timestamps filled in.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// GetByID returns the user with the given id.
	GetByID(ctx context.Context, id string) (*models.User, error)

	// GetByEmail returns the user with the given (normalized) email.
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// Update persists name, email, age and password hash and refreshes the
	// updated_at timestamp.
	Update(ctx context.Context, user *models.User) (*models.User, error)

	// Delete removes the user row.
	Delete(ctx context.Context, id string) error
}
