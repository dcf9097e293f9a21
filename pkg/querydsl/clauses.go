package querydsl

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

var errNoFrom = errors.New("query has no FROM clause")

type joinKind string

const (
	innerJoin joinKind = "JOIN"
	leftJoin  joinKind = "LEFT JOIN"
)

type join struct {
	kind  joinKind
	table Table
	on    Fragment
}

// clauses holds everything a select and a subquery share: sources,
// filters and grouping.
type clauses struct {
	from    []Table
	joins   []join
	where   []Fragment
	groupBy []Expression
	having  []Fragment
}

func (c clauses) clone() clauses {
	return clauses{
		from:    slices.Clone(c.from),
		joins:   slices.Clone(c.joins),
		where:   slices.Clone(c.where),
		groupBy: slices.Clone(c.groupBy),
		having:  slices.Clone(c.having),
	}
}

// filter is the composed WHERE predicate.
func (c clauses) filter() Fragment {
	return Compose(c.where...)
}

func (c clauses) apply(sb sq.SelectBuilder) (sq.SelectBuilder, error) {
	if len(c.from) == 0 {
		return sb, errNoFrom
	}
	sources := make([]string, 0, len(c.from))
	for _, t := range c.from {
		sources = append(sources, t.String())
	}
	sb = sb.From(strings.Join(sources, ", "))

	for _, j := range c.joins {
		clause := j.table.String()
		var args []any
		if j.on.Present() {
			sql, onArgs, err := j.on.ToSql()
			if err != nil {
				return sb, fmt.Errorf("failed to render join on %s: %w", j.table.Name(), err)
			}
			clause += " ON " + sql
			args = onArgs
		}
		switch j.kind {
		case leftJoin:
			sb = sb.LeftJoin(clause, args...)
		default:
			sb = sb.Join(clause, args...)
		}
	}

	filter := c.filter()
	if err := filter.Err(); err != nil {
		return sb, err
	}
	if filter.Present() {
		sb = sb.Where(filter.pred)
	}

	for _, e := range c.groupBy {
		sql, args, err := e.ToSql()
		if err != nil {
			return sb, err
		}
		if len(args) > 0 {
			return sb, fmt.Errorf("group by expression %q binds parameters", sql)
		}
		sb = sb.GroupBy(sql)
	}

	having := Compose(c.having...)
	if err := having.Err(); err != nil {
		return sb, err
	}
	if having.Present() {
		sb = sb.Having(having.pred)
	}
	return sb, nil
}
