package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"taskkeeper/internal/common"
	"taskkeeper/internal/dbx"
	"taskkeeper/internal/server/models"
)

// sortColumns maps accepted sortBy values to real columns. Anything outside
// this map sorts by created_at; interpolating an unchecked field name into
// ORDER BY is not an option with SQL.
var sortColumns = map[string]string{
	"createdAt":   "created_at",
	"updatedAt":   "updated_at",
	"description": "description",
	"completed":   "completed",
}

// PostgresRepository implements task storage over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new task for its owner.
func (r *PostgresRepository) Create(ctx context.Context, task *models.Task) (*models.Task, error) {
	query := `
		INSERT INTO tasks (owner_id, description, completed)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		task.OwnerID, task.Description, task.Completed).
		Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return task, nil
}

// GetByID returns an owned task or common.ErrNotFound.
func (r *PostgresRepository) GetByID(ctx context.Context, ownerID, id string) (*models.Task, error) {
	query := `
		SELECT id, owner_id, description, completed, created_at, updated_at
		FROM tasks
		WHERE id = $1 AND owner_id = $2
	`
	task := &models.Task{}
	err := r.db.QueryRowContext(ctx, query, id, ownerID).
		Scan(&task.ID, &task.OwnerID, &task.Description, &task.Completed,
			&task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return task, nil
}

// List returns the owner's tasks narrowed by filter.
func (r *PostgresRepository) List(ctx context.Context, ownerID string, filter ListFilter) ([]*models.Task, error) {
	var b strings.Builder
	b.WriteString(`
		SELECT id, owner_id, description, completed, created_at, updated_at
		FROM tasks
		WHERE owner_id = $1`)

	args := []any{ownerID}

	if filter.Completed != nil {
		args = append(args, *filter.Completed)
		fmt.Fprintf(&b, " AND completed = $%d", len(args))
	}

	column, ok := sortColumns[filter.SortBy]
	if !ok {
		column = "created_at"
	}
	direction := "ASC"
	if filter.SortDesc {
		direction = "DESC"
	}
	fmt.Fprintf(&b, " ORDER BY %s %s", column, direction)

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		fmt.Fprintf(&b, " LIMIT $%d", len(args))
	}
	if filter.Skip > 0 {
		args = append(args, filter.Skip)
		fmt.Fprintf(&b, " OFFSET $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Task
	for rows.Next() {
		task := &models.Task{}
		if err := rows.Scan(&task.ID, &task.OwnerID, &task.Description,
			&task.Completed, &task.CreatedAt, &task.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, task)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Update persists the mutable fields of an owned task.
func (r *PostgresRepository) Update(ctx context.Context, task *models.Task) (*models.Task, error) {
	query := `
		UPDATE tasks
		SET description = $1, completed = $2, updated_at = now()
		WHERE id = $3 AND owner_id = $4
		RETURNING updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		task.Description, task.Completed, task.ID, task.OwnerID).
		Scan(&task.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return task, nil
}

// Delete removes an owned task or reports common.ErrNotFound.
func (r *PostgresRepository) Delete(ctx context.Context, ownerID, id string) error {
	query := `
		DELETE FROM tasks
		WHERE id = $1 AND owner_id = $2
	`
	res, err := r.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

// DeleteAllForOwner removes every task the owner has.
func (r *PostgresRepository) DeleteAllForOwner(ctx context.Context, ownerID string) error {
	query := `
		DELETE FROM tasks
		WHERE owner_id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, ownerID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
