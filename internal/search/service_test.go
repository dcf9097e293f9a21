package search

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpattn/memberql/internal/domain"
	"github.com/rpattn/memberql/internal/pkg/log"
	"github.com/rpattn/memberql/internal/repository"
	"github.com/rpattn/memberql/internal/testutil"
	"github.com/rpattn/memberql/pkg/querydsl"
)

func newService(t *testing.T, opts ...Option) (*Service, *testutil.CountingExecutor) {
	t.Helper()
	factory, exec := testutil.NewSQLite(t)
	testutil.Seed(t, factory)
	exec.Reset()
	return NewService(repository.NewMemberRepository(factory), opts...), exec
}

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	noColor := color.NoColor
	color.NoColor = true
	log.SetOutput(buf)
	t.Cleanup(func() {
		color.NoColor = noColor
		log.SetOutput(os.Stdout)
	})
	return buf
}

func TestSearchEndToEnd(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	rows, err := svc.Search(ctx, domain.MemberSearchCondition{TeamName: "teamA"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "member1", *rows[0].Username)
	assert.Equal(t, "member2", *rows[1].Username)

	page, err := svc.SearchPage(ctx, domain.MemberSearchCondition{}, querydsl.PageRequest{Offset: 0, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page.Content, 2)
	assert.Equal(t, int64(4), page.Total)
}

func TestSearchWarnsOnEmptyCondition(t *testing.T) {
	buf := captureLog(t)
	svc, _ := newService(t)

	rows, err := svc.Search(context.Background(), domain.MemberSearchCondition{})
	require.NoError(t, err)
	assert.Len(t, rows, 4)
	assert.Contains(t, buf.String(), "[WARN]")
	assert.Contains(t, buf.String(), "empty search condition")

	buf.Reset()
	_, err = svc.Search(context.Background(), domain.MemberSearchCondition{Username: "member1"})
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "[WARN]")
}

func TestSearchRequireCondition(t *testing.T) {
	captureLog(t)
	svc, exec := newService(t, WithRequireCondition(true))
	ctx := context.Background()

	_, err := svc.Search(ctx, domain.MemberSearchCondition{TeamName: " "})
	assert.ErrorIs(t, err, ErrUnboundedSearch)
	assert.Zero(t, exec.Queries())

	page, err := svc.SearchPage(ctx, domain.MemberSearchCondition{}, querydsl.PageRequest{Limit: 3})
	require.NoError(t, err)
	assert.Len(t, page.Content, 3)
}

func TestSearchPageStrategies(t *testing.T) {
	cases := []struct {
		strategy   CountStrategy
		wantCounts int64
	}{
		{CountLazy, 0},
		{CountTwoQuery, 1},
		{CountCombined, 0},
	}
	for _, tc := range cases {
		t.Run(string(tc.strategy), func(t *testing.T) {
			svc, exec := newService(t, WithCountStrategy(tc.strategy))

			page, err := svc.SearchPage(context.Background(), domain.MemberSearchCondition{}, querydsl.PageRequest{Limit: 10})
			require.NoError(t, err)
			assert.Len(t, page.Content, 4)
			assert.Equal(t, int64(4), page.Total)
			assert.Equal(t, tc.wantCounts, exec.Counts())
			assert.Equal(t, int64(1), exec.Queries())
		})
	}
}

func TestPageRequestDefaults(t *testing.T) {
	svc := NewService(nil, WithDefaultPageSize(5), WithMaxPageSize(50))

	req, err := svc.PageRequest(0, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, req.Limit)

	req, err = svc.PageRequest(10, 500)
	require.NoError(t, err)
	assert.Equal(t, querydsl.PageRequest{Offset: 10, Limit: 50}, req)

	_, err = svc.PageRequest(-1, 10)
	assert.ErrorIs(t, err, querydsl.ErrInvalidPageRequest)
}

func TestParseCountStrategy(t *testing.T) {
	for in, want := range map[string]CountStrategy{"": CountLazy, "LAZY": CountLazy, "two-query": CountTwoQuery, " combined ": CountCombined} {
		got, err := ParseCountStrategy(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseCountStrategy("sometimes")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestBulkOperationsRunHooks(t *testing.T) {
	captureLog(t)
	hooks := 0
	svc, _ := newService(t, WithAfterBulk(func(context.Context) { hooks++ }))
	ctx := context.Background()

	n, err := svc.BulkRename(ctx, 28, "NONMEMBER")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, 1, hooks)

	renamed, err := svc.Search(ctx, domain.MemberSearchCondition{Username: "NONMEMBER"})
	require.NoError(t, err)
	assert.Len(t, renamed, 2)

	n, err = svc.BulkDelete(ctx, 100)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 1, hooks)

	n, err = svc.BulkIncrementAge(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	assert.Equal(t, 2, hooks)

	_, err = svc.BulkRename(ctx, 28, "  ")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestSearchWrapsStorageFailures(t *testing.T) {
	captureLog(t)
	svc := NewService(repository.NewMemberRepository(querydsl.NewFactory(nil)))

	_, err := svc.Search(context.Background(), domain.MemberSearchCondition{Username: "x"})
	var execErr *querydsl.ExecutionError
	assert.ErrorAs(t, err, &execErr)
}
