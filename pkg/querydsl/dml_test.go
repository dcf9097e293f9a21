package querydsl

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	rows    = NewTable("person", "")
	rowName = Column[string](rows, "name")
	rowAge  = Column[int](rows, "age")
	rowID   = Column[int64](rows, "person_id")
)

func TestUpdatePlan(t *testing.T) {
	plan, err := NewFactory(nil).Update(rows).
		Set(rowName.Set("NONMEMBER")).
		Where(rowAge.Lt(28)).
		Build()
	require.NoError(t, err)
	assert.Equal(t, "UPDATE person SET name = $1 WHERE person.age < $2", plan.SQL)
	assert.Equal(t, []any{"NONMEMBER", 28}, plan.Args)

	plan, err = NewFactory(nil).Update(rows).
		Set(rowAge.SetExpr(Add(rowAge, 1)), rowName.SetNull()).
		Build()
	require.NoError(t, err)
	assert.Equal(t, "UPDATE person SET age = (person.age + 1), name = $1", plan.SQL)
	assert.Equal(t, []any{nil}, plan.Args)
}

func TestUpdateRejectsBadAssignments(t *testing.T) {
	_, err := NewFactory(nil).Update(rows).Build()
	assert.Error(t, err)

	_, err = NewFactory(nil).Update(rows).Set(Add(rowAge, 1).Set(3)).Build()
	assert.Error(t, err)
}

func TestDeletePlan(t *testing.T) {
	plan, err := NewFactory(nil, WithDialect(SQLite)).Delete(rows).
		Where(rowAge.Gt(18)).
		Build()
	require.NoError(t, err)
	assert.Equal(t, "DELETE FROM person WHERE person.age > ?", plan.SQL)
	assert.Equal(t, []any{18}, plan.Args)
}

func TestInsertPlan(t *testing.T) {
	plan, err := NewFactory(nil).Insert(rows).
		Set(rowName.Set("ann"), rowAge.Set(3)).
		Build()
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO person (name,age) VALUES ($1,$2)", plan.SQL)
	assert.Equal(t, []any{"ann", 3}, plan.Args)

	_, err = NewFactory(nil).Insert(rows).Build()
	assert.Error(t, err)
}

func TestDMLWithoutExecutor(t *testing.T) {
	ctx := context.Background()

	_, err := NewFactory(nil).Delete(rows).Execute(ctx)
	assert.ErrorIs(t, err, ErrNoExecutor)

	_, err = NewFactory(nil).Insert(rows).Set(rowName.Set("a")).ExecuteReturning(ctx, rowID)
	assert.ErrorIs(t, err, ErrNoExecutor)

	_, err = NewFactory(nil).Insert(rows).Set(rowName.Set("a")).ExecuteReturning(ctx, Add(rowID, 1))
	assert.Error(t, err)
}
