package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/rpattn/memberql/pkg/querydsl"
)

// Querier is the part of *pgxpool.Pool and pgx.Tx the executor needs.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PgxExecutor runs plans through pgx.
type PgxExecutor struct {
	q Querier
}

func NewPgxExecutor(q Querier) *PgxExecutor {
	return &PgxExecutor{q: q}
}

func (e *PgxExecutor) QueryRows(ctx context.Context, plan querydsl.Plan, fn func(querydsl.Scanner) error) error {
	rows, err := e.q.Query(ctx, plan.SQL, plan.Args...)
	if err != nil {
		return fmt.Errorf("failed to run query: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		if err := fn(rows); err != nil {
			return fmt.Errorf("failed to scan row: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate rows: %w", err)
	}
	return nil
}

func (e *PgxExecutor) QueryCount(ctx context.Context, plan querydsl.Plan) (int64, error) {
	var total int64
	if err := e.q.QueryRow(ctx, plan.SQL, plan.Args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count rows: %w", err)
	}
	return total, nil
}

func (e *PgxExecutor) Exec(ctx context.Context, plan querydsl.Plan) (int64, error) {
	tag, err := e.q.Exec(ctx, plan.SQL, plan.Args...)
	if err != nil {
		return 0, fmt.Errorf("failed to execute statement: %w", err)
	}
	return tag.RowsAffected(), nil
}
