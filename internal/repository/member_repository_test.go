package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpattn/memberql/internal/domain"
	"github.com/rpattn/memberql/internal/testutil"
	"github.com/rpattn/memberql/pkg/querydsl"
)

func TestMemberSaveAndGet(t *testing.T) {
	factory, _ := testutil.NewSQLite(t)
	ctx := context.Background()
	teams := NewTeamRepository(factory)
	members := NewMemberRepository(factory)

	teamA, err := teams.Save(ctx, domain.Team{Name: "teamA"})
	require.NoError(t, err)
	require.NotZero(t, teamA.ID)

	saved, err := members.Save(ctx, domain.NewMember("member1", 10, &teamA))
	require.NoError(t, err)
	require.NotZero(t, saved.ID)

	got, err := members.GetByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "member1", got.Name())
	assert.Equal(t, 10, got.Age)
	require.NotNil(t, got.TeamID)
	assert.Equal(t, teamA.ID, *got.TeamID)
	assert.Nil(t, got.Team)

	got.Age = 11
	got.ChangeTeam(nil)
	_, err = members.Save(ctx, got)
	require.NoError(t, err)

	got, err = members.GetByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, 11, got.Age)
	assert.Nil(t, got.TeamID)
}

func TestMemberGetMissing(t *testing.T) {
	factory, _ := testutil.NewSQLite(t)
	members := NewMemberRepository(factory)

	_, err := members.GetByID(context.Background(), 42)
	assert.ErrorIs(t, err, querydsl.ErrNoResult)

	_, err = members.Save(context.Background(), domain.Member{ID: 42, Age: 1})
	assert.ErrorIs(t, err, querydsl.ErrNoResult)
}

func TestMemberListNativeMatchesDSL(t *testing.T) {
	factory, _ := testutil.NewSQLite(t)
	testutil.Seed(t, factory)
	ctx := context.Background()
	members := NewMemberRepository(factory)

	native, err := members.List(ctx)
	require.NoError(t, err)
	dsl, err := members.ListDSL(ctx)
	require.NoError(t, err)
	require.Len(t, native, 4)
	assert.Equal(t, native, dsl)

	native, err = members.ListByUsername(ctx, "member3")
	require.NoError(t, err)
	dsl, err = members.ListByUsernameDSL(ctx, "member3")
	require.NoError(t, err)
	require.Len(t, native, 1)
	assert.Equal(t, native, dsl)
	assert.Equal(t, 30, dsl[0].Age)
}

func TestMemberListWithTeam(t *testing.T) {
	factory, _ := testutil.NewSQLite(t)
	fx := testutil.Seed(t, factory)
	name := "loner"
	testutil.InsertMember(t, factory, &name, 60, nil)

	members, err := NewMemberRepository(factory).ListWithTeam(context.Background())
	require.NoError(t, err)
	require.Len(t, members, 5)

	require.NotNil(t, members[0].Team)
	assert.Equal(t, domain.Team{ID: fx.TeamA, Name: "teamA"}, *members[0].Team)
	require.NotNil(t, members[3].Team)
	assert.Equal(t, "teamB", members[3].Team.Name)
	assert.Nil(t, members[4].Team)
	assert.Nil(t, members[4].TeamID)
}

func TestTeamRepository(t *testing.T) {
	factory, _ := testutil.NewSQLite(t)
	fx := testutil.Seed(t, factory)
	ctx := context.Background()
	teams := NewTeamRepository(factory)

	got, err := teams.GetByID(ctx, fx.TeamB)
	require.NoError(t, err)
	assert.Equal(t, "teamB", got.Name)

	got.Name = "teamB2"
	_, err = teams.Save(ctx, got)
	require.NoError(t, err)

	all, err := teams.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.Team{{ID: fx.TeamA, Name: "teamA"}, {ID: fx.TeamB, Name: "teamB2"}}, all)

	some, err := teams.GetByIDs(ctx, []int64{fx.TeamB, 999})
	require.NoError(t, err)
	assert.Equal(t, []domain.Team{{ID: fx.TeamB, Name: "teamB2"}}, some)

	none, err := teams.GetByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}
