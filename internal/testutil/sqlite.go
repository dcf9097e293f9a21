// Package testutil provides in-memory databases and instrumented executors
// for tests.
package testutil

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rpattn/memberql/internal/db"
	"github.com/rpattn/memberql/pkg/querydsl"
)

// CountingExecutor counts the calls made through it.
type CountingExecutor struct {
	next    querydsl.Executor
	queries atomic.Int64
	counts  atomic.Int64
	execs   atomic.Int64
}

func NewCountingExecutor(next querydsl.Executor) *CountingExecutor {
	return &CountingExecutor{next: next}
}

func (c *CountingExecutor) QueryRows(ctx context.Context, plan querydsl.Plan, fn func(querydsl.Scanner) error) error {
	c.queries.Add(1)
	return c.next.QueryRows(ctx, plan, fn)
}

func (c *CountingExecutor) QueryCount(ctx context.Context, plan querydsl.Plan) (int64, error) {
	c.counts.Add(1)
	return c.next.QueryCount(ctx, plan)
}

func (c *CountingExecutor) Exec(ctx context.Context, plan querydsl.Plan) (int64, error) {
	c.execs.Add(1)
	return c.next.Exec(ctx, plan)
}

// Queries is the number of row-returning statements run.
func (c *CountingExecutor) Queries() int64 { return c.queries.Load() }

// Counts is the number of count statements run.
func (c *CountingExecutor) Counts() int64 { return c.counts.Load() }

// Execs is the number of data-modifying statements run.
func (c *CountingExecutor) Execs() int64 { return c.execs.Load() }

// Reset zeroes every counter.
func (c *CountingExecutor) Reset() {
	c.queries.Store(0)
	c.counts.Store(0)
	c.execs.Store(0)
}

// NewSQLite returns a query factory over a fresh in-memory database with the
// schema applied, and the counting executor it runs on.
func NewSQLite(t testing.TB) (*querydsl.Factory, *CountingExecutor) {
	t.Helper()
	ctx := context.Background()
	conn, err := db.OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, db.ApplySQLiteSchema(ctx, conn))

	exec := NewCountingExecutor(db.NewSQLExecutor(conn))
	return querydsl.NewFactory(exec, querydsl.WithDialect(querydsl.SQLite)), exec
}

// Fixture holds the ids of the rows inserted by Seed.
type Fixture struct {
	TeamA, TeamB int64
	Members      []int64
}

// Seed inserts teamA and teamB with member1 (10) and member2 (20) in teamA
// and member3 (30) and member4 (40) in teamB.
func Seed(t testing.TB, f *querydsl.Factory) Fixture {
	t.Helper()
	var fx Fixture
	fx.TeamA = InsertTeam(t, f, "teamA")
	fx.TeamB = InsertTeam(t, f, "teamB")
	for _, seed := range []struct {
		name string
		age  int
		team int64
	}{
		{"member1", 10, fx.TeamA},
		{"member2", 20, fx.TeamA},
		{"member3", 30, fx.TeamB},
		{"member4", 40, fx.TeamB},
	} {
		name := seed.name
		team := seed.team
		fx.Members = append(fx.Members, InsertMember(t, f, &name, seed.age, &team))
	}
	return fx
}

// InsertTeam inserts a team and returns its id.
func InsertTeam(t testing.TB, f *querydsl.Factory, name string) int64 {
	t.Helper()
	teams := querydsl.NewTable("team", "")
	id, err := f.Insert(teams).
		Set(querydsl.Column[string](teams, "name").Set(name)).
		ExecuteReturning(context.Background(), querydsl.Column[int64](teams, "team_id"))
	require.NoError(t, err)
	return id
}

// InsertMember inserts a member; nil username or team are stored as NULL.
func InsertMember(t testing.TB, f *querydsl.Factory, username *string, age int, team *int64) int64 {
	t.Helper()
	members := querydsl.NewTable("member", "")
	usernameCol := querydsl.Column[string](members, "username")
	teamCol := querydsl.Column[int64](members, "team_id")

	name := usernameCol.SetNull()
	if username != nil {
		name = usernameCol.Set(*username)
	}
	teamID := teamCol.SetNull()
	if team != nil {
		teamID = teamCol.Set(*team)
	}
	id, err := f.Insert(members).
		Set(name, querydsl.Column[int](members, "age").Set(age), teamID).
		ExecuteReturning(context.Background(), querydsl.Column[int64](members, "member_id"))
	require.NoError(t, err)
	return id
}
