package repositories

import (
	"context"
	"database/sql"
)

// Queryer is satisfied by *sql.DB and *sql.Tx so repository methods can
// run standalone or inside the coordinator's transaction.
type Queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
