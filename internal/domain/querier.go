package domain

import (
	"context"
	"database/sql"
)

// Querier is satisfied by both *sql.DB and *sql.Tx so repositories can run
// inside or outside a transaction without knowing which.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// TxRunner executes fn inside a single unit of work. If fn returns an error
// the unit of work is rolled back and no partial effect is visible to
// readers; otherwise it is committed atomically.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(q Querier) error) error
}
