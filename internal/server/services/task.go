package services

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"taskkeeper/internal/common"
	"taskkeeper/internal/logging"
	"taskkeeper/internal/server/models"
	"taskkeeper/internal/server/repositories/repomanager"
	"taskkeeper/internal/server/repositories/tasks"
)

// TaskCreate is the payload accepted when creating a task. The owner is
// never taken from the payload; it is forced to the authenticated user.
type TaskCreate struct {
	Description string
	Completed   bool
}

// TaskUpdate is the allow-listed partial update of a task.
type TaskUpdate struct {
	Description *string
	Completed   *bool
}

// TaskService owns the to-do items of authenticated users. Every operation
// is scoped by owner id.
type TaskService struct {
	db     *sql.DB
	repos  repomanager.RepositoryManager
	logger logging.Logger
}

// NewTaskService wires the service from its collaborators.
func NewTaskService(db *sql.DB, repos repomanager.RepositoryManager, logger logging.Logger) *TaskService {
	return &TaskService{
		db:     db,
		repos:  repos,
		logger: logger.With("module", "task_service"),
	}
}

// validID maps malformed ids to not-found before they reach the database,
// so a garbage path segment reads the same as a missing task.
func validID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return common.ErrNotFound
	}
	return nil
}

// Create stores a new task for ownerID.
func (s *TaskService) Create(ctx context.Context, ownerID string, in TaskCreate) (*models.Task, error) {
	task := &models.Task{
		OwnerID:     ownerID,
		Description: in.Description,
		Completed:   in.Completed,
	}
	if err := task.Validate(); err != nil {
		return nil, err
	}
	return s.repos.Tasks(s.db).Create(ctx, task)
}

// List returns the owner's tasks narrowed by filter.
func (s *TaskService) List(ctx context.Context, ownerID string, filter tasks.ListFilter) ([]*models.Task, error) {
	return s.repos.Tasks(s.db).List(ctx, ownerID, filter)
}

// Get fetches one owned task.
func (s *TaskService) Get(ctx context.Context, ownerID, id string) (*models.Task, error) {
	if err := validID(id); err != nil {
		return nil, err
	}
	return s.repos.Tasks(s.db).GetByID(ctx, ownerID, id)
}

// Update applies the allow-listed fields to an owned task.
func (s *TaskService) Update(ctx context.Context, ownerID, id string, upd TaskUpdate) (*models.Task, error) {
	if err := validID(id); err != nil {
		return nil, err
	}

	task, err := s.repos.Tasks(s.db).GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if upd.Description != nil {
		task.Description = *upd.Description
	}
	if upd.Completed != nil {
		task.Completed = *upd.Completed
	}
	if err := task.Validate(); err != nil {
		return nil, err
	}

	return s.repos.Tasks(s.db).Update(ctx, task)
}

// Delete removes an owned task and returns the removed row.
func (s *TaskService) Delete(ctx context.Context, ownerID, id string) (*models.Task, error) {
	if err := validID(id); err != nil {
		return nil, err
	}

	task, err := s.repos.Tasks(s.db).GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if err := s.repos.Tasks(s.db).Delete(ctx, ownerID, id); err != nil {
		return nil, err
	}
	return task, nil
}
