package db

import (
	"context"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/rpattn/memberql/internal/pkg/log"
	"github.com/rpattn/memberql/pkg/querydsl"
)

// SQLExecutor runs plans through database/sql, for any registered driver.
// Both *sqlx.DB and *sqlx.Tx satisfy sqlx.ExtContext.
type SQLExecutor struct {
	db sqlx.ExtContext
}

func NewSQLExecutor(db sqlx.ExtContext) *SQLExecutor {
	return &SQLExecutor{db: db}
}

func (e *SQLExecutor) QueryRows(ctx context.Context, plan querydsl.Plan, fn func(querydsl.Scanner) error) error {
	rows, err := e.db.QueryxContext(ctx, plan.SQL, plan.Args...)
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

func (e *SQLExecutor) QueryCount(ctx context.Context, plan querydsl.Plan) (int64, error) {
	var total int64
	if err := e.db.QueryRowxContext(ctx, plan.SQL, plan.Args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count rows: %w", err)
	}
	return total, nil
}

func (e *SQLExecutor) Exec(ctx context.Context, plan querydsl.Plan) (int64, error) {
	res, err := e.db.ExecContext(ctx, plan.SQL, plan.Args...)
	if err != nil {
		return 0, fmt.Errorf("failed to execute statement: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n, nil
}

// OpenSQL opens a database/sql handle for the configured driver: the pgx
// stdlib driver for Postgres or the embedded SQLite engine.
func OpenSQL(ctx context.Context, config Config) (*sqlx.DB, error) {
	if config.Driver == DriverSQLite {
		return OpenSQLite(ctx, config.SQLitePath)
	}
	db, err := sqlx.ConnectContext(ctx, "pgx", config.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if config.MaxConns > 0 {
		db.SetMaxOpenConns(int(config.MaxConns))
	}
	return db, nil
}

// OpenSQLite opens a SQLite database file, or a private in-memory database
// for ":memory:".
func OpenSQLite(ctx context.Context, path string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %s: %w", path, err)
	}
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)
	return db, nil
}

// WithSQLTx executes fn with an executor bound to a database/sql transaction.
func WithSQLTx(ctx context.Context, db *sqlx.DB, fn func(querydsl.Executor) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			if err := tx.Rollback(); err != nil {
				log.Error("Failed to rollback transaction: %v", err)
			}
			panic(p)
		}
	}()

	if err := fn(NewSQLExecutor(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction error: %v, rollback error: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
