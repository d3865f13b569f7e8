package es

import (
	"context"
	"database/sql"
)

// DBTX is a minimal interface for database operations.
// It is implemented by *sql.DB, *sql.Tx and *sql.Conn, allowing
// the library to run statements inside or outside a transaction.
//
// The dialect event stores hold a dedicated *sql.Conn: session-scoped
// write locks and caller-managed transactions both require that every
// statement runs on the same underlying connection.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Ensure standard library types implement DBTX
var (
	_ DBTX = (*sql.DB)(nil)
	_ DBTX = (*sql.Tx)(nil)
	_ DBTX = (*sql.Conn)(nil)
)

// DateTimeLayout is the canonical format for created_at and locked_until
// values: microsecond precision, UTC, no zone suffix.
const DateTimeLayout = "2006-01-02 15:04:05.000000"
