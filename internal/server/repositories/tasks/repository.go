// Package tasks declares the repository contract for task persistence.
// Every operation is scoped to an owner id; a task owned by someone else is
// reported the same way as an absent one.
package tasks

import (
	"context"

	"taskkeeper/internal/server/models"
)

// ListFilter describes the optional narrowing of a task listing.
// SortBy must be one of the task columns; repositories fall back to
// created_at for anything else.
type ListFilter struct {
	Completed *bool
	Limit     int
	Skip      int
	SortBy    string
	SortDesc  bool
}

// Repository defines owner-scoped storage operations on tasks.
type Repository interface {
	// Create inserts a new task and returns it with the generated id and
	// timestamps filled in.
	Create(ctx context.Context, task *models.Task) (*models.Task, error)

	// GetByID returns the task only if it belongs to ownerID; otherwise
	// common.ErrNotFound.
	GetByID(ctx context.Context, ownerID, id string) (*models.Task, error)

	// List returns ownerID's tasks narrowed by filter.
	List(ctx context.Context, ownerID string, filter ListFilter) ([]*models.Task, error)

	// Update persists description and completed for an owned task.
	Update(ctx context.Context, task *models.Task) (*models.Task, error)

	// Delete removes an owned task, common.ErrNotFound otherwise.
	Delete(ctx context.Context, ownerID, id string) error

	// DeleteAllForOwner removes every task ownerID has.
	DeleteAllForOwner(ctx context.Context, ownerID string) error
}
