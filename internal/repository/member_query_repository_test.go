package repository

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpattn/memberql/internal/domain"
	"github.com/rpattn/memberql/internal/testutil"
	"github.com/rpattn/memberql/pkg/querydsl"
)

func setupMembers(t *testing.T) (*memberRepository, *testutil.CountingExecutor, testutil.Fixture) {
	t.Helper()
	factory, exec := testutil.NewSQLite(t)
	fx := testutil.Seed(t, factory)
	exec.Reset()
	return &memberRepository{factory: factory}, exec, fx
}

func usernames(rows []domain.MemberTeamDto) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		if r.Username == nil {
			out = append(out, "<nil>")
			continue
		}
		out = append(out, *r.Username)
	}
	return out
}

func TestSearchByTeamName(t *testing.T) {
	repo, _, fx := setupMembers(t)

	rows, err := repo.Search(context.Background(), domain.MemberSearchCondition{TeamName: "teamA"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"member1", "member2"}, usernames(rows))
	for _, r := range rows {
		require.NotNil(t, r.TeamID)
		assert.Equal(t, fx.TeamA, *r.TeamID)
		require.NotNil(t, r.TeamName)
		assert.Equal(t, "teamA", *r.TeamName)
	}
}

func TestSearchWithoutConditionMatchesAll(t *testing.T) {
	repo, _, _ := setupMembers(t)
	ctx := context.Background()

	rows, err := repo.Search(ctx, domain.MemberSearchCondition{Username: "  "})
	require.NoError(t, err)
	assert.Len(t, rows, 4)

	q, err := repo.searchQuery(domain.MemberSearchCondition{}, nil)
	require.NoError(t, err)
	plan, err := q.Build()
	require.NoError(t, err)
	assert.NotContains(t, plan.SQL, "WHERE")
	assert.Contains(t, plan.SQL, "LEFT JOIN team t ON m.team_id = t.team_id")
}

func TestSearchKeepsMembersWithoutTeam(t *testing.T) {
	repo, _, _ := setupMembers(t)
	name := "loner"
	testutil.InsertMember(t, repo.factory, &name, 50, nil)

	rows, err := repo.Search(context.Background(), domain.MemberSearchCondition{})
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, "loner", *rows[4].Username)
	assert.Nil(t, rows[4].TeamID)
	assert.Nil(t, rows[4].TeamName)
}

func TestSearchAgeRange(t *testing.T) {
	repo, _, _ := setupMembers(t)
	ctx := context.Background()

	for lo := 0; lo <= 45; lo += 5 {
		for hi := lo; hi <= 45; hi += 5 {
			rows, err := repo.Search(ctx, domain.MemberSearchCondition{AgeGoe: domain.Int(lo), AgeLoe: domain.Int(hi)})
			require.NoError(t, err)
			for _, r := range rows {
				assert.GreaterOrEqual(t, r.Age, lo)
				assert.LessOrEqual(t, r.Age, hi)
			}
		}
	}

	rows, err := repo.Search(ctx, domain.MemberSearchCondition{AgeGoe: domain.Int(35), AgeLoe: domain.Int(15)})
	require.NoError(t, err)
	assert.Empty(t, rows)

	rows, err = repo.Search(ctx, domain.MemberSearchCondition{TeamName: "teamB", AgeGoe: domain.Int(31), AgeLoe: domain.Int(40)})
	require.NoError(t, err)
	assert.Equal(t, []string{"member4"}, usernames(rows))
}

func randomCondition(r *rand.Rand) domain.MemberSearchCondition {
	usernames := []string{"", " ", "member1", "member2", "member3", "member4", "nobody"}
	teams := []string{"", "teamA", "teamB", "teamC"}
	age := func() *int {
		if r.Intn(3) == 0 {
			return nil
		}
		return domain.Int(r.Intn(50))
	}
	return domain.MemberSearchCondition{
		Username: usernames[r.Intn(len(usernames))],
		TeamName: teams[r.Intn(len(teams))],
		AgeGoe:   age(),
		AgeLoe:   age(),
	}
}

func TestBuilderAndWhereListAgree(t *testing.T) {
	repo, _, _ := setupMembers(t)
	ctx := context.Background()
	r := rand.New(rand.NewSource(42))

	for i := 0; i < 64; i++ {
		cond := randomCondition(r)

		byBuilder, err := repo.searchByBuilderQuery(cond).Build()
		require.NoError(t, err)
		byWhere, err := repo.searchByWhereQuery(cond).Build()
		require.NoError(t, err)
		assert.Equal(t, byWhere, byBuilder, "condition %+v", cond)

		builderRows, err := repo.SearchByBuilder(ctx, cond)
		require.NoError(t, err)
		whereRows, err := repo.SearchByWhere(ctx, cond)
		require.NoError(t, err)
		assert.Equal(t, whereRows, builderRows, "condition %+v", cond)
	}
}

func TestSearchSortsNullsLast(t *testing.T) {
	repo, _, _ := setupMembers(t)
	member5, member6 := "member5", "member6"
	testutil.InsertMember(t, repo.factory, nil, 100, nil)
	testutil.InsertMember(t, repo.factory, &member5, 100, nil)
	testutil.InsertMember(t, repo.factory, &member6, 100, nil)

	rows, err := repo.Search(context.Background(),
		domain.MemberSearchCondition{AgeGoe: domain.Int(100)},
		domain.MemberSort{Field: domain.MemberSortFieldAge, Direction: domain.SortDirectionDesc},
		domain.MemberSort{Field: domain.MemberSortFieldUsername, Direction: domain.SortDirectionAsc, Nulls: domain.NullOrderingLast},
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"member5", "member6", "<nil>"}, usernames(rows))

	rows, err = repo.Search(context.Background(),
		domain.MemberSearchCondition{AgeGoe: domain.Int(100)},
		domain.MemberSort{Field: domain.MemberSortFieldUsername, Nulls: domain.NullOrderingFirst},
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"<nil>", "member5", "member6"}, usernames(rows))
}

func TestSearchRejectsUnknownSort(t *testing.T) {
	repo, _, _ := setupMembers(t)

	_, err := repo.Search(context.Background(), domain.MemberSearchCondition{}, domain.MemberSort{Field: "salary"})
	assert.ErrorIs(t, err, ErrUnsupportedSort)
}

func TestSearchPageStrategies(t *testing.T) {
	repo, exec, _ := setupMembers(t)
	ctx := context.Background()
	req := querydsl.PageRequest{Offset: 1, Limit: 2}

	strategies := map[string]func(context.Context, domain.MemberSearchCondition, querydsl.PageRequest, ...domain.MemberSort) (querydsl.Page[domain.MemberTeamDto], error){
		"combined":  repo.SearchPageSimple,
		"two query": repo.SearchPageComplex,
		"lazy":      repo.SearchPageOptimized,
	}
	for name, search := range strategies {
		t.Run(name, func(t *testing.T) {
			exec.Reset()
			page, err := search(ctx, domain.MemberSearchCondition{}, req)
			require.NoError(t, err)
			assert.Len(t, page.Content, 2)
			assert.Equal(t, int64(4), page.Total)
			assert.Equal(t, []string{"member2", "member3"}, usernames(page.Content))
			assert.True(t, page.HasNext())
			assert.Equal(t, 2, page.TotalPages())
		})
	}
}

func TestSearchPageFirstPage(t *testing.T) {
	repo, _, _ := setupMembers(t)

	page, err := repo.SearchPageSimple(context.Background(), domain.MemberSearchCondition{}, querydsl.PageRequest{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page.Content, 2)
	assert.Equal(t, int64(4), page.Total)
}

func TestSearchPageCountsLazily(t *testing.T) {
	repo, exec, _ := setupMembers(t)
	ctx := context.Background()

	page, err := repo.SearchPageOptimized(ctx, domain.MemberSearchCondition{}, querydsl.PageRequest{Limit: 10})
	require.NoError(t, err)
	assert.Len(t, page.Content, 4)
	assert.Equal(t, int64(4), page.Total)
	assert.Equal(t, int64(1), exec.Queries())
	assert.Zero(t, exec.Counts())

	exec.Reset()
	page, err = repo.SearchPageOptimized(ctx, domain.MemberSearchCondition{}, querydsl.PageRequest{Offset: 3, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page.Content, 1)
	assert.Equal(t, int64(4), page.Total)
	assert.Zero(t, exec.Counts())

	exec.Reset()
	page, err = repo.SearchPageOptimized(ctx, domain.MemberSearchCondition{}, querydsl.PageRequest{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(4), page.Total)
	assert.Equal(t, int64(1), exec.Counts())

	exec.Reset()
	page, err = repo.SearchPageComplex(ctx, domain.MemberSearchCondition{}, querydsl.PageRequest{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(4), page.Total)
	assert.Equal(t, int64(1), exec.Counts())

	exec.Reset()
	page, err = repo.SearchPageSimple(ctx, domain.MemberSearchCondition{}, querydsl.PageRequest{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(4), page.Total)
	assert.Equal(t, int64(1), exec.Queries())
	assert.Zero(t, exec.Counts())
}

func TestSearchPagePastTheEnd(t *testing.T) {
	repo, _, _ := setupMembers(t)
	ctx := context.Background()

	page, err := repo.SearchPageSimple(ctx, domain.MemberSearchCondition{}, querydsl.PageRequest{Offset: 10, Limit: 2})
	require.NoError(t, err)
	assert.Empty(t, page.Content)
	assert.Equal(t, int64(4), page.Total)

	page, err = repo.SearchPageOptimized(ctx, domain.MemberSearchCondition{TeamName: "teamB"}, querydsl.PageRequest{Offset: 10, Limit: 2})
	require.NoError(t, err)
	assert.Empty(t, page.Content)
	assert.Equal(t, int64(2), page.Total)
}

func TestSearchPageRejectsInvalidRequest(t *testing.T) {
	repo, _, _ := setupMembers(t)

	_, err := repo.SearchPageSimple(context.Background(), domain.MemberSearchCondition{}, querydsl.PageRequest{Limit: 0})
	assert.ErrorIs(t, err, querydsl.ErrInvalidPageRequest)
}

func TestBulkRename(t *testing.T) {
	repo, _, _ := setupMembers(t)
	ctx := context.Background()

	n, err := repo.BulkRename(ctx, 28, "NONMEMBER")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	rows, err := repo.Search(ctx, domain.MemberSearchCondition{})
	require.NoError(t, err)
	assert.Equal(t, []string{"NONMEMBER", "NONMEMBER", "member3", "member4"}, usernames(rows))
}

func TestBulkIncrementAge(t *testing.T) {
	repo, _, _ := setupMembers(t)
	ctx := context.Background()

	n, err := repo.BulkIncrementAge(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	rows, err := repo.Search(ctx, domain.MemberSearchCondition{})
	require.NoError(t, err)
	ages := make([]int, 0, len(rows))
	for _, r := range rows {
		ages = append(ages, r.Age)
	}
	assert.Equal(t, []int{11, 21, 31, 41}, ages)
}

func TestBulkDelete(t *testing.T) {
	repo, _, _ := setupMembers(t)
	ctx := context.Background()

	n, err := repo.BulkDelete(ctx, 18)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	rows, err := repo.Search(ctx, domain.MemberSearchCondition{})
	require.NoError(t, err)
	assert.Equal(t, []string{"member1"}, usernames(rows))
}

func TestCountQueryJoinsTeamOnlyWhenFiltered(t *testing.T) {
	repo, _, _ := setupMembers(t)

	plan, err := repo.countQuery(domain.MemberSearchCondition{AgeGoe: domain.Int(20)}).Build()
	require.NoError(t, err)
	assert.NotContains(t, plan.SQL, "JOIN")

	plan, err = repo.countQuery(domain.MemberSearchCondition{TeamName: "teamA"}).Build()
	require.NoError(t, err)
	assert.Contains(t, plan.SQL, "LEFT JOIN team t")
}
