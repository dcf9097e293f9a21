package querydsl

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRow scans fixed values the way database/sql does for the types used
// here, leaving pointer destinations nil for NULL.
type fakeRow []any

func (r fakeRow) Scan(dest ...any) error {
	if len(dest) != len(r) {
		return fmt.Errorf("expected %d destinations, got %d", len(r), len(dest))
	}
	for i, d := range dest {
		target := reflect.ValueOf(d).Elem()
		if r[i] == nil {
			target.SetZero()
			continue
		}
		v := reflect.ValueOf(r[i])
		if target.Kind() == reflect.Pointer {
			p := reflect.New(target.Type().Elem())
			p.Elem().Set(v.Convert(target.Type().Elem()))
			target.Set(p)
			continue
		}
		target.Set(v.Convert(target.Type()))
	}
	return nil
}

func scanOne[T any](t *testing.T, p Projection[T], row fakeRow) T {
	t.Helper()
	require.NoError(t, p.Validate())
	dest, build := p.Row()
	require.NoError(t, row.Scan(dest...))
	v, err := build()
	require.NoError(t, err)
	return v
}

type dto struct {
	Username string `db:"name"`
	Age      int
}

func newDto(username string, age int) dto {
	return dto{Username: username, Age: age}
}

func (d *dto) SetName(v string) { d.Username = v }
func (d *dto) SetAge(v int)     { d.Age = v }

func TestProjectionStrategiesAgree(t *testing.T) {
	row := fakeRow{"ann", 31}
	want := dto{Username: "ann", Age: 31}

	assert.Equal(t, want, scanOne(t, Bean[dto](name, age), row))
	assert.Equal(t, want, scanOne(t, Fields[dto](name, age), row))
	assert.Equal(t, want, scanOne(t, Constructor[dto](newDto, name, age), row))
	assert.Equal(t, want, scanOne(t, Construct2(newDto, name, age), row))
}

func TestConstructorValidation(t *testing.T) {
	cases := map[string]Projection[dto]{
		"swapped":     Constructor[dto](newDto, age, name),
		"arity":       Constructor[dto](newDto, name),
		"not a func":  Constructor[dto]("newDto", name, age),
		"wrong type":  Constructor[dto](func(string, int) int { return 0 }, name, age),
		"variadic":    Constructor[dto](func(...string) dto { return dto{} }, name),
		"bean setter": Bean[dto](name, groupID),
		"bean label":  Bean[dto](Add(age, 1)),
		"field":       Fields[dto](name, groupID),
		"field type":  Fields[dto](name.As("age")),
	}
	for label, p := range cases {
		t.Run(label, func(t *testing.T) {
			err := p.Validate()
			require.Error(t, err)
			assert.True(t, IsInvalidProjection(err))

			_, err = SelectFrom(NewFactory(nil), p, people).Build()
			assert.True(t, IsInvalidProjection(err))
		})
	}
}

func TestNullableProjection(t *testing.T) {
	type row struct {
		Name *string `db:"name"`
		Age  int     `db:"age"`
	}
	got := scanOne(t, Fields[row](Nullable(name), age), fakeRow{nil, 7})
	assert.Nil(t, got.Name)
	assert.Equal(t, 7, got.Age)

	got = scanOne(t, Fields[row](name, age), fakeRow{"bo", 8})
	require.NotNil(t, got.Name)
	assert.Equal(t, "bo", *got.Name)
}

func TestTupleProjection(t *testing.T) {
	total := Sum(age)
	p := TupleOf(name, total, Nullable(groupID))

	tuple := scanOne(t, p, fakeRow{"x", 12, nil})
	assert.Equal(t, 3, tuple.Len())

	v, ok := ValueOf(tuple, name)
	assert.True(t, ok)
	assert.Equal(t, "x", v)

	sum, ok := ValueOf(tuple, total)
	assert.True(t, ok)
	assert.Equal(t, 12, sum)

	_, ok = ValueOf(tuple, Nullable(groupID))
	assert.False(t, ok)
	assert.Nil(t, tuple.Get(2))

	_, ok = ValueOf(tuple, age)
	assert.False(t, ok)

	assert.Error(t, TupleOf().Validate())
}

func TestSingleProjection(t *testing.T) {
	assert.Equal(t, int64(5), scanOne(t, Single(CountAll()), fakeRow{5}))
}

func TestCamel(t *testing.T) {
	assert.Equal(t, "TeamName", camel("team_name"))
	assert.Equal(t, "Username", camel("username"))
}
