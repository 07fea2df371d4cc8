// Package sessions provides a PostgreSQL-backed repository for the bearer
// tokens a user currently holds. One row per issued token.
package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"taskkeeper/internal/dbx"
)

// PostgresRepository implements session storage over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new session token for userID.
func (r *PostgresRepository) Create(ctx context.Context, userID string, token string) error {
	query := `
		INSERT INTO sessions (user_id, token)
		VALUES ($1, $2)
	`
	if _, err := r.db.ExecContext(ctx, query, userID, token); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Exists reports whether the exact token string is active for userID.
func (r *PostgresRepository) Exists(ctx context.Context, userID string, token string) (bool, error) {
	query := `
		SELECT 1
		FROM sessions
		WHERE user_id = $1 AND token = $2
	`
	var one int
	err := r.db.QueryRowContext(ctx, query, userID, token).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("db error: %w", err)
	}
	return true, nil
}

// Delete revokes exactly one token.
func (r *PostgresRepository) Delete(ctx context.Context, userID string, token string) error {
	query := `
		DELETE FROM sessions
		WHERE user_id = $1 AND token = $2
	`
	if _, err := r.db.ExecContext(ctx, query, userID, token); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// DeleteAllForUser revokes every token userID holds.
func (r *PostgresRepository) DeleteAllForUser(ctx context.Context, userID string) error {
	query := `
		DELETE FROM sessions
		WHERE user_id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
