package repository

import (
	"context"
	"database/sql"
)

// Runner abstracts the subset of database/sql shared by *sql.DB and
// *sql.Tx. Methods suffixed Tx accept a Runner so the same query can run
// standalone or inside a transaction opened by the service layer.
type Runner interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
