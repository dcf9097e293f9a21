package querydsl

import (
	"context"
	"fmt"
)

// Plan is a rendered statement ready to be executed.
type Plan struct {
	SQL  string
	Args []any
}

func (p Plan) String() string {
	if len(p.Args) == 0 {
		return p.SQL
	}
	return fmt.Sprintf("%s %v", p.SQL, p.Args)
}

// Scanner reads the current row into dest.
type Scanner interface {
	Scan(dest ...any) error
}

// Executor runs plans against a database. QueryRows calls fn once per row
// and must release the underlying rows before returning.
type Executor interface {
	QueryRows(ctx context.Context, plan Plan, fn func(Scanner) error) error
	QueryCount(ctx context.Context, plan Plan) (int64, error)
	Exec(ctx context.Context, plan Plan) (int64, error)
}
