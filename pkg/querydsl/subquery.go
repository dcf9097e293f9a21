package querydsl

import sq "github.com/Masterminds/squirrel"

// SubQuery selects a single expression for use inside another statement,
// either as a scalar value or as the right-hand side of IN.
type SubQuery[T any] struct {
	sel Expr[T]
	clauses
}

func Sub[T any](sel Expr[T]) *SubQuery[T] {
	return &SubQuery[T]{sel: sel}
}

func (s *SubQuery[T]) From(tables ...Table) *SubQuery[T] {
	s.from = append(s.from, tables...)
	return s
}

func (s *SubQuery[T]) Join(t Table, on Fragment) *SubQuery[T] {
	s.joins = append(s.joins, join{kind: innerJoin, table: t, on: on})
	return s
}

func (s *SubQuery[T]) LeftJoin(t Table, on Fragment) *SubQuery[T] {
	s.joins = append(s.joins, join{kind: leftJoin, table: t, on: on})
	return s
}

func (s *SubQuery[T]) Where(fragments ...Fragment) *SubQuery[T] {
	s.where = append(s.where, fragments...)
	return s
}

func (s *SubQuery[T]) GroupBy(exprs ...Expression) *SubQuery[T] {
	s.groupBy = append(s.groupBy, exprs...)
	return s
}

// ToSql renders the parenthesised subquery with ? placeholders; the
// enclosing statement converts them for the dialect.
func (s *SubQuery[T]) ToSql() (string, []any, error) {
	sel, args, err := s.sel.ToSql()
	if err != nil {
		return "", nil, err
	}
	sb, err := s.apply(sq.Select().Column(sq.Expr(sel, args...)))
	if err != nil {
		return "", nil, err
	}
	sql, all, err := sb.ToSql()
	if err != nil {
		return "", nil, err
	}
	return "(" + sql + ")", all, nil
}

// Expr exposes the subquery as a scalar expression.
func (s *SubQuery[T]) Expr() Expr[T] {
	sql, args, err := s.ToSql()
	if err != nil {
		return errExpr[T](err)
	}
	return newExpr[T](sql, args...)
}
