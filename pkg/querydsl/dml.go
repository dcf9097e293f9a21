package querydsl

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
)

// Assignment is one column = value pair of an INSERT or UPDATE.
type Assignment struct {
	column string
	value  any
	err    error
}

// UpdateClause is a bulk UPDATE. It writes straight to the database; any
// rows cached by the caller are stale afterwards. Statements render the
// bare table name, so predicates must come from an unaliased Table.
type UpdateClause struct {
	factory *Factory
	table   Table
	sets    []Assignment
	where   []Fragment
}

func (f *Factory) Update(t Table) *UpdateClause {
	return &UpdateClause{factory: f, table: t}
}

func (u *UpdateClause) Set(assignments ...Assignment) *UpdateClause {
	u.sets = append(u.sets, assignments...)
	return u
}

func (u *UpdateClause) Where(fragments ...Fragment) *UpdateClause {
	u.where = append(u.where, fragments...)
	return u
}

func (u *UpdateClause) Build() (Plan, error) {
	if len(u.sets) == 0 {
		return Plan{}, errors.New("update has no assignments")
	}
	ub := sq.Update(u.table.Name())
	for _, a := range u.sets {
		if a.err != nil {
			return Plan{}, a.err
		}
		ub = ub.Set(a.column, a.value)
	}
	filter := Compose(u.where...)
	if err := filter.Err(); err != nil {
		return Plan{}, err
	}
	if filter.Present() {
		ub = ub.Where(filter.pred)
	}
	return u.factory.render(ub)
}

// Execute runs the update and returns the number of affected rows.
func (u *UpdateClause) Execute(ctx context.Context) (int64, error) {
	plan, err := u.Build()
	if err != nil {
		return 0, err
	}
	return u.factory.execute(ctx, "update "+u.table.Name(), plan)
}

// DeleteClause is a bulk DELETE.
type DeleteClause struct {
	factory *Factory
	table   Table
	where   []Fragment
}

func (f *Factory) Delete(t Table) *DeleteClause {
	return &DeleteClause{factory: f, table: t}
}

func (d *DeleteClause) Where(fragments ...Fragment) *DeleteClause {
	d.where = append(d.where, fragments...)
	return d
}

func (d *DeleteClause) Build() (Plan, error) {
	db := sq.Delete(d.table.Name())
	filter := Compose(d.where...)
	if err := filter.Err(); err != nil {
		return Plan{}, err
	}
	if filter.Present() {
		db = db.Where(filter.pred)
	}
	return d.factory.render(db)
}

func (d *DeleteClause) Execute(ctx context.Context) (int64, error) {
	plan, err := d.Build()
	if err != nil {
		return 0, err
	}
	return d.factory.execute(ctx, "delete from "+d.table.Name(), plan)
}

// InsertClause inserts a single row.
type InsertClause struct {
	factory *Factory
	table   Table
	sets    []Assignment
}

func (f *Factory) Insert(t Table) *InsertClause {
	return &InsertClause{factory: f, table: t}
}

func (i *InsertClause) Set(assignments ...Assignment) *InsertClause {
	i.sets = append(i.sets, assignments...)
	return i
}

func (i *InsertClause) builder() (sq.InsertBuilder, error) {
	ib := sq.Insert(i.table.Name())
	if len(i.sets) == 0 {
		return ib, errors.New("insert has no values")
	}
	columns := make([]string, 0, len(i.sets))
	values := make([]any, 0, len(i.sets))
	for _, a := range i.sets {
		if a.err != nil {
			return ib, a.err
		}
		columns = append(columns, a.column)
		values = append(values, a.value)
	}
	return ib.Columns(columns...).Values(values...), nil
}

func (i *InsertClause) Build() (Plan, error) {
	ib, err := i.builder()
	if err != nil {
		return Plan{}, err
	}
	return i.factory.render(ib)
}

func (i *InsertClause) Execute(ctx context.Context) (int64, error) {
	plan, err := i.Build()
	if err != nil {
		return 0, err
	}
	return i.factory.execute(ctx, "insert into "+i.table.Name(), plan)
}

// ExecuteReturning inserts the row and returns the generated key.
func (i *InsertClause) ExecuteReturning(ctx context.Context, key Expr[int64]) (int64, error) {
	if err := key.assignable(); err != nil {
		return 0, err
	}
	ib, err := i.builder()
	if err != nil {
		return 0, err
	}
	plan, err := i.factory.render(ib.Suffix("RETURNING " + key.column))
	if err != nil {
		return 0, err
	}
	var id int64
	found := false
	err = i.factory.queryRows(ctx, "insert into "+i.table.Name(), plan, func(s Scanner) error {
		found = true
		return s.Scan(&id)
	})
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, ErrNoResult
	}
	return id, nil
}
