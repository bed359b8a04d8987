package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the statement surface the postgres store issues its SQL through.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Pool adds the lifecycle calls the server needs for health checks and
// shutdown. *pgxpool.Pool and pgxmock pools satisfy it.
type Pool interface {
	Querier
	Ping(ctx context.Context) error
	Close()
}
