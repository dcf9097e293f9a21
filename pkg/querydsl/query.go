package querydsl

import (
	"context"
	"errors"
	"fmt"
	"slices"

	sq "github.com/Masterminds/squirrel"
)

const totalColumn = "total_count"

// Query is a SELECT statement whose rows are mapped through a Projection.
// Builder methods mutate the query and return it for chaining; use Clone
// to derive variants.
type Query[T any] struct {
	factory *Factory
	proj    Projection[T]
	clauses
	distinct bool
	orders   []OrderSpecifier
	offset   uint64
	limit    uint64
	err      error
}

func Select[T any](f *Factory, p Projection[T]) *Query[T] {
	return &Query[T]{factory: f, proj: p}
}

// SelectFrom is Select(f, p).From(t).
func SelectFrom[T any](f *Factory, p Projection[T], t Table) *Query[T] {
	return Select(f, p).From(t)
}

func (q *Query[T]) Clone() *Query[T] {
	c := *q
	c.clauses = q.clauses.clone()
	c.orders = slices.Clone(q.orders)
	return &c
}

// From adds sources. Several tables form a theta join constrained by Where.
func (q *Query[T]) From(tables ...Table) *Query[T] {
	q.from = append(q.from, tables...)
	return q
}

func (q *Query[T]) Join(t Table, on Fragment) *Query[T] {
	q.joins = append(q.joins, join{kind: innerJoin, table: t, on: on})
	return q
}

// LeftJoin keeps rows of the left side without a match. Conditions in on
// only restrict which right-hand rows are joined.
func (q *Query[T]) LeftJoin(t Table, on Fragment) *Query[T] {
	q.joins = append(q.joins, join{kind: leftJoin, table: t, on: on})
	return q
}

// Where adds filters. Absent fragments are ignored, so optional conditions
// can be passed as they are.
func (q *Query[T]) Where(fragments ...Fragment) *Query[T] {
	q.where = append(q.where, fragments...)
	return q
}

func (q *Query[T]) GroupBy(exprs ...Expression) *Query[T] {
	q.groupBy = append(q.groupBy, exprs...)
	return q
}

func (q *Query[T]) Having(fragments ...Fragment) *Query[T] {
	q.having = append(q.having, fragments...)
	return q
}

func (q *Query[T]) OrderBy(orders ...OrderSpecifier) *Query[T] {
	q.orders = append(q.orders, orders...)
	return q
}

func (q *Query[T]) Distinct() *Query[T] {
	q.distinct = true
	return q
}

func (q *Query[T]) Offset(n int) *Query[T] {
	if n < 0 {
		q.err = fmt.Errorf("%w: offset %d", ErrInvalidPageRequest, n)
		return q
	}
	q.offset = uint64(n)
	return q
}

// Limit caps the number of rows. Zero removes the cap.
func (q *Query[T]) Limit(n int) *Query[T] {
	if n < 0 {
		q.err = fmt.Errorf("%w: limit %d", ErrInvalidPageRequest, n)
		return q
	}
	q.limit = uint64(n)
	return q
}

// Restrict applies the offset and limit of req.
func (q *Query[T]) Restrict(req PageRequest) *Query[T] {
	return q.Offset(req.Offset).Limit(req.Limit)
}

// Filter is the composed WHERE predicate; absent when nothing constrains
// the rows.
func (q *Query[T]) Filter() Fragment {
	return q.filter()
}

func (q *Query[T]) selectList(withTotal bool) (sq.SelectBuilder, error) {
	sb := sq.Select()
	if q.err != nil {
		return sb, q.err
	}
	if q.proj == nil {
		return sb, invalidProjection(typeName[T](), "no projection")
	}
	if err := q.proj.Validate(); err != nil {
		return sb, err
	}
	if q.distinct {
		sb = sb.Distinct()
	}
	for _, e := range q.proj.Columns() {
		sql, args, err := e.selectSQL()
		if err != nil {
			return sb, err
		}
		sb = sb.Column(sq.Expr(sql, args...))
	}
	if withTotal {
		sb = sb.Column("COUNT(*) OVER() AS " + totalColumn)
	}
	return q.apply(sb)
}

func (q *Query[T]) ordered(sb sq.SelectBuilder) (sq.SelectBuilder, error) {
	for _, o := range q.orders {
		sql, args, err := o.ToSql()
		if err != nil {
			return sb, err
		}
		sb = sb.OrderByClause(sql, args...)
	}
	if q.limit > 0 {
		sb = sb.Limit(q.limit)
	}
	if q.offset > 0 {
		if q.limit == 0 && q.factory.dialect.NoLimit != "" {
			sb = sb.Suffix(fmt.Sprintf("LIMIT %s OFFSET %d", q.factory.dialect.NoLimit, q.offset))
		} else {
			sb = sb.Offset(q.offset)
		}
	}
	return sb, nil
}

func (q *Query[T]) build(withTotal bool) (Plan, error) {
	sb, err := q.selectList(withTotal)
	if err != nil {
		return Plan{}, err
	}
	if sb, err = q.ordered(sb); err != nil {
		return Plan{}, err
	}
	return q.factory.render(sb)
}

// Build renders the content query.
func (q *Query[T]) Build() (Plan, error) {
	return q.build(false)
}

// BuildCount renders a query counting the rows Build would return without
// offset and limit. It keeps every join and filter and drops ordering.
// Distinct and grouped queries are counted as a derived table.
func (q *Query[T]) BuildCount() (Plan, error) {
	if q.err != nil {
		return Plan{}, q.err
	}
	if q.distinct || len(q.groupBy) > 0 {
		inner, err := q.selectList(false)
		if err != nil {
			return Plan{}, err
		}
		return q.factory.render(sq.Select("COUNT(*)").FromSelect(inner, "counted"))
	}
	sb, err := q.apply(sq.Select("COUNT(*)"))
	if err != nil {
		return Plan{}, err
	}
	return q.factory.render(sb)
}

// Fetch returns all matching rows.
func (q *Query[T]) Fetch(ctx context.Context) ([]T, error) {
	plan, err := q.Build()
	if err != nil {
		return nil, err
	}
	out := []T{}
	if err := q.factory.queryRows(ctx, "fetch", plan, scanInto(q.proj, &out)); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchOne returns the only matching row.
func (q *Query[T]) FetchOne(ctx context.Context) (T, error) {
	var zero T
	rows, err := q.Clone().Limit(2).Fetch(ctx)
	if err != nil {
		return zero, err
	}
	switch len(rows) {
	case 0:
		return zero, ErrNoResult
	case 1:
		return rows[0], nil
	}
	return zero, ErrNonUniqueResult
}

// FetchFirst returns the first matching row.
func (q *Query[T]) FetchFirst(ctx context.Context) (T, error) {
	var zero T
	rows, err := q.Clone().Limit(1).Fetch(ctx)
	if err != nil {
		return zero, err
	}
	if len(rows) == 0 {
		return zero, ErrNoResult
	}
	return rows[0], nil
}

// FetchCount runs the count query.
func (q *Query[T]) FetchCount(ctx context.Context) (int64, error) {
	plan, err := q.BuildCount()
	if err != nil {
		return 0, err
	}
	return q.factory.queryCount(ctx, "count", plan)
}

// FetchResults returns the current window of rows together with the total
// number of matches. The total rides along the content query as a window
// count, so one round trip is enough unless the window is past the end of
// the result or the query is distinct or grouped.
func (q *Query[T]) FetchResults(ctx context.Context) (Page[T], error) {
	page := Page[T]{Offset: int(q.offset), Limit: int(q.limit)}
	if q.distinct || len(q.groupBy) > 0 {
		content, err := q.Fetch(ctx)
		if err != nil {
			return page, err
		}
		total, err := q.FetchCount(ctx)
		if err != nil {
			return page, err
		}
		page.Content, page.Total = content, total
		return page, nil
	}

	plan, err := q.build(true)
	if err != nil {
		return page, err
	}
	var total int64
	content := []T{}
	if err := q.factory.queryRows(ctx, "fetch results", plan, scanInto(q.proj, &content, &total)); err != nil {
		return page, err
	}
	if len(content) == 0 && q.offset > 0 {
		if total, err = q.FetchCount(ctx); err != nil {
			return page, err
		}
	}
	page.Content, page.Total = content, total
	return page, nil
}

// IsInvalidProjection reports whether err is an *InvalidProjectionError.
func IsInvalidProjection(err error) bool {
	var target *InvalidProjectionError
	return errors.As(err, &target)
}
