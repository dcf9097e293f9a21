package querydsl

import (
	"errors"
	"fmt"
	"reflect"
	"slices"

	sq "github.com/Masterminds/squirrel"
)

// Expression is an untyped view of an Expr used by projections, grouping
// and anything else that does not care about the Go type of the value.
type Expression interface {
	sq.Sqlizer
	// Label is the name the value is selected under: the alias when one was
	// given, otherwise the column name. Computed expressions have no label
	// until aliased.
	Label() string
	// Type is the Go type a non-null value scans into.
	Type() reflect.Type

	selectSQL() (string, []any, error)
}

// Expr is a typed SQL expression: a column, an aggregate, a constant or any
// other value that can be selected, compared or ordered.
type Expr[T any] struct {
	sql    string
	args   []any
	column string
	alias  string
	err    error
}

// Column declares a column of t with values of type T.
func Column[T any](t Table, name string) Expr[T] {
	return Expr[T]{sql: t.qualifier() + "." + name, column: name}
}

func newExpr[T any](sql string, args ...any) Expr[T] {
	return Expr[T]{sql: sql, args: args}
}

func errExpr[T any](err error) Expr[T] {
	return Expr[T]{err: err}
}

// Nullable returns a view of e that scans into *T so NULL survives the
// round trip.
func Nullable[T any](e Expr[T]) Expr[*T] {
	return Expr[*T]{sql: e.sql, args: e.args, column: e.column, alias: e.alias, err: e.err}
}

// As selects the expression under alias.
func (e Expr[T]) As(alias string) Expr[T] {
	e.alias = alias
	return e
}

func (e Expr[T]) ToSql() (string, []any, error) {
	if e.err != nil {
		return "", nil, e.err
	}
	if e.sql == "" {
		return "", nil, errors.New("empty expression")
	}
	return e.sql, e.args, nil
}

func (e Expr[T]) Label() string {
	if e.alias != "" {
		return e.alias
	}
	return e.column
}

func (e Expr[T]) Type() reflect.Type {
	return reflect.TypeFor[T]()
}

func (e Expr[T]) selectSQL() (string, []any, error) {
	sql, args, err := e.ToSql()
	if err != nil {
		return "", nil, err
	}
	if e.alias != "" {
		sql += " AS " + e.alias
	}
	return sql, args, nil
}

func (e Expr[T]) String() string {
	return e.sql
}

func (e Expr[T]) compare(op string, v any) Fragment {
	if e.err != nil {
		return errFragment(e.err)
	}
	return Predicate(e.sql+" "+op+" ?", append(slices.Clone(e.args), v)...)
}

func (e Expr[T]) compareExpr(op string, other Expression) Fragment {
	if e.err != nil {
		return errFragment(e.err)
	}
	sql, args, err := other.ToSql()
	if err != nil {
		return errFragment(err)
	}
	return Predicate(e.sql+" "+op+" "+sql, append(slices.Clone(e.args), args...)...)
}

func (e Expr[T]) Eq(v T) Fragment  { return e.compare("=", v) }
func (e Expr[T]) Ne(v T) Fragment  { return e.compare("<>", v) }
func (e Expr[T]) Gt(v T) Fragment  { return e.compare(">", v) }
func (e Expr[T]) Goe(v T) Fragment { return e.compare(">=", v) }
func (e Expr[T]) Lt(v T) Fragment  { return e.compare("<", v) }
func (e Expr[T]) Loe(v T) Fragment { return e.compare("<=", v) }

func (e Expr[T]) EqExpr(o Expr[T]) Fragment  { return e.compareExpr("=", o) }
func (e Expr[T]) NeExpr(o Expr[T]) Fragment  { return e.compareExpr("<>", o) }
func (e Expr[T]) GtExpr(o Expr[T]) Fragment  { return e.compareExpr(">", o) }
func (e Expr[T]) GoeExpr(o Expr[T]) Fragment { return e.compareExpr(">=", o) }
func (e Expr[T]) LtExpr(o Expr[T]) Fragment  { return e.compareExpr("<", o) }
func (e Expr[T]) LoeExpr(o Expr[T]) Fragment { return e.compareExpr("<=", o) }

// Between matches lo <= e <= hi.
func (e Expr[T]) Between(lo, hi T) Fragment {
	if e.err != nil {
		return errFragment(e.err)
	}
	return Predicate(e.sql+" BETWEEN ? AND ?", append(slices.Clone(e.args), lo, hi)...)
}

// In matches any of values. An empty list matches nothing.
func (e Expr[T]) In(values ...T) Fragment {
	if e.err != nil {
		return errFragment(e.err)
	}
	if len(values) == 0 {
		return Predicate("(1=0)")
	}
	args := slices.Clone(e.args)
	for _, v := range values {
		args = append(args, v)
	}
	return Predicate(fmt.Sprintf("%s IN (%s)", e.sql, sq.Placeholders(len(values))), args...)
}

// InSub matches values produced by a subquery.
func (e Expr[T]) InSub(sub *SubQuery[T]) Fragment {
	return e.compareExpr("IN", sub.Expr())
}

func (e Expr[T]) IsNull() Fragment {
	if e.err != nil {
		return errFragment(e.err)
	}
	return Predicate(e.sql+" IS NULL", e.args...)
}

func (e Expr[T]) IsNotNull() Fragment {
	if e.err != nil {
		return errFragment(e.err)
	}
	return Predicate(e.sql+" IS NOT NULL", e.args...)
}

// Like matches a pattern. Only meaningful for string expressions.
func (e Expr[T]) Like(pattern string) Fragment {
	return e.compare("LIKE", pattern)
}

func (e Expr[T]) Asc() OrderSpecifier {
	return OrderSpecifier{expr: e.sql, args: e.args, err: e.err}
}

func (e Expr[T]) Desc() OrderSpecifier {
	return OrderSpecifier{expr: e.sql, args: e.args, desc: true, err: e.err}
}

// Set assigns v to the column in an insert or update.
func (e Expr[T]) Set(v T) Assignment {
	return Assignment{column: e.column, value: v, err: e.assignable()}
}

// SetExpr assigns the result of another expression, e.g. age = age + 1.
func (e Expr[T]) SetExpr(v Expr[T]) Assignment {
	err := e.assignable()
	if err == nil {
		err = v.err
	}
	return Assignment{column: e.column, value: sq.Expr(v.sql, v.args...), err: err}
}

// SetNull assigns NULL to the column.
func (e Expr[T]) SetNull() Assignment {
	return Assignment{column: e.column, value: nil, err: e.assignable()}
}

func (e Expr[T]) assignable() error {
	if e.column == "" {
		return fmt.Errorf("expression %q is not a column", e.sql)
	}
	return e.err
}

// literal renders numbers and booleans inline so databases that infer
// parameter types from context never see an untyped placeholder in a select
// list or CASE arm. Everything else is bound as a parameter.
func literal(v any) (string, []any) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return fmt.Sprintf("%d", rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return fmt.Sprintf("%d", rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return fmt.Sprintf("%g", rv.Float()), nil
	case reflect.Bool:
		if rv.Bool() {
			return "TRUE", nil
		}
		return "FALSE", nil
	}
	return "?", []any{v}
}
