// Package repomanager wires concrete repositories to database handles and
// owns schema migrations.
package repomanager

import (
	"context"
	"database/sql"

	"taskkeeper/internal/dbx"
	"taskkeeper/internal/server/repositories/sessions"
	"taskkeeper/internal/server/repositories/tasks"
	"taskkeeper/internal/server/repositories/users"
)

// RepositoryManager hands out repositories bound to a DBTX, so the same
// repository code runs against a plain connection or inside a transaction.
type RepositoryManager interface {
	Users(db dbx.DBTX) users.Repository
	Sessions(db dbx.DBTX) sessions.Repository
	Tasks(db dbx.DBTX) tasks.Repository
	RunMigrations(ctx context.Context, db *sql.DB) error
}
