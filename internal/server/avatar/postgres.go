package avatar

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"taskkeeper/internal/common"
	"taskkeeper/internal/dbx"
)

// PostgresStore keeps avatar bytes in the users.avatar column.
type PostgresStore struct {
	db dbx.DBTX
}

// NewPostgresStore constructs a store bound to the given DBTX.
func NewPostgresStore(db dbx.DBTX) *PostgresStore {
	return &PostgresStore{db: db}
}

// Set stores the PNG on the user row.
func (s *PostgresStore) Set(ctx context.Context, userID string, png []byte) error {
	query := `
		UPDATE users
		SET avatar = $1, updated_at = now()
		WHERE id = $2
	`
	res, err := s.db.ExecContext(ctx, query, png, userID)
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

// Get returns the stored PNG; a user without an avatar reads as not found.
func (s *PostgresStore) Get(ctx context.Context, userID string) ([]byte, error) {
	query := `
		SELECT avatar
		FROM users
		WHERE id = $1
	`
	var png []byte
	if err := s.db.QueryRowContext(ctx, query, userID).Scan(&png); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if len(png) == 0 {
		return nil, common.ErrNotFound
	}
	return png, nil
}

// Delete clears the avatar column.
func (s *PostgresStore) Delete(ctx context.Context, userID string) error {
	query := `
		UPDATE users
		SET avatar = NULL, updated_at = now()
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query, userID)
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
