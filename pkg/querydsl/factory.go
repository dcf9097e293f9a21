package querydsl

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"github.com/rpattn/memberql/internal/pkg/log"
)

// Dialect carries the database-specific rendering rules.
type Dialect struct {
	Name        string
	Placeholder sq.PlaceholderFormat
	// NoLimit is rendered as the LIMIT of a query that only has an OFFSET,
	// for databases that reject a bare OFFSET. Empty means OFFSET may stand
	// alone.
	NoLimit string
}

var (
	Postgres = Dialect{Name: "postgres", Placeholder: sq.Dollar}
	SQLite   = Dialect{Name: "sqlite", Placeholder: sq.Question, NoLimit: "-1"}
)

// Factory creates statements bound to one executor and dialect.
type Factory struct {
	exec       Executor
	dialect    Dialect
	logQueries bool
}

type FactoryOption func(*Factory)

func WithDialect(d Dialect) FactoryOption {
	return func(f *Factory) {
		f.dialect = d
	}
}

// WithQueryLogging logs every executed plan at debug level.
func WithQueryLogging(enabled bool) FactoryOption {
	return func(f *Factory) {
		f.logQueries = enabled
	}
}

func NewFactory(exec Executor, opts ...FactoryOption) *Factory {
	f := &Factory{exec: exec, dialect: Postgres}
	for _, opt := range opts {
		opt(f)
	}
	if f.dialect.Placeholder == nil {
		f.dialect.Placeholder = sq.Question
	}
	return f
}

// WithExecutor returns a copy of f that runs statements on exec, e.g. a
// transaction.
func (f *Factory) WithExecutor(exec Executor) *Factory {
	clone := *f
	clone.exec = exec
	return &clone
}

func (f *Factory) Executor() Executor {
	return f.exec
}

func (f *Factory) Dialect() Dialect {
	return f.dialect
}

func (f *Factory) render(b sq.Sqlizer) (Plan, error) {
	sql, args, err := b.ToSql()
	if err != nil {
		return Plan{}, err
	}
	sql, err = f.dialect.Placeholder.ReplacePlaceholders(sql)
	if err != nil {
		return Plan{}, err
	}
	return Plan{SQL: sql, Args: args}, nil
}

func (f *Factory) trace(ctx context.Context, op string, plan Plan) {
	if f.logQueries {
		log.DebugWithContext(ctx, "%s: %s", op, plan)
	}
}

func (f *Factory) queryRows(ctx context.Context, op string, plan Plan, fn func(Scanner) error) error {
	f.trace(ctx, op, plan)
	if f.exec == nil {
		return &ExecutionError{Op: op, SQL: plan.SQL, Err: ErrNoExecutor}
	}
	if err := f.exec.QueryRows(ctx, plan, fn); err != nil {
		return &ExecutionError{Op: op, SQL: plan.SQL, Err: err}
	}
	return nil
}

func (f *Factory) queryCount(ctx context.Context, op string, plan Plan) (int64, error) {
	f.trace(ctx, op, plan)
	if f.exec == nil {
		return 0, &ExecutionError{Op: op, SQL: plan.SQL, Err: ErrNoExecutor}
	}
	n, err := f.exec.QueryCount(ctx, plan)
	if err != nil {
		return 0, &ExecutionError{Op: op, SQL: plan.SQL, Err: err}
	}
	return n, nil
}

func (f *Factory) execute(ctx context.Context, op string, plan Plan) (int64, error) {
	f.trace(ctx, op, plan)
	if f.exec == nil {
		return 0, &ExecutionError{Op: op, SQL: plan.SQL, Err: ErrNoExecutor}
	}
	n, err := f.exec.Exec(ctx, plan)
	if err != nil {
		return 0, &ExecutionError{Op: op, SQL: plan.SQL, Err: err}
	}
	return n, nil
}

func scanInto[T any](p Projection[T], out *[]T, extra ...any) func(Scanner) error {
	return func(s Scanner) error {
		dest, build := p.Row()
		if err := s.Scan(append(dest, extra...)...); err != nil {
			return err
		}
		v, err := build()
		if err != nil {
			return err
		}
		*out = append(*out, v)
		return nil
	}
}

// Native runs hand-written SQL with ? placeholders and maps each row with p.
// The columns of sql must line up with p's expressions.
func Native[T any](ctx context.Context, f *Factory, p Projection[T], sql string, args ...any) ([]T, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	plan, err := f.render(sq.Expr(sql, args...))
	if err != nil {
		return nil, err
	}
	out := []T{}
	if err := f.queryRows(ctx, "fetch native", plan, scanInto(p, &out)); err != nil {
		return nil, err
	}
	return out, nil
}
