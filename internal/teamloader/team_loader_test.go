package teamloader

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/graph-gophers/dataloader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpattn/memberql/internal/domain"
	"github.com/rpattn/memberql/internal/repository"
)

type stubTeams struct {
	repository.TeamRepository

	mu    sync.Mutex
	teams map[int64]domain.Team
	calls [][]int64
	err   error
}

func (s *stubTeams) GetByIDs(_ context.Context, ids []int64) ([]domain.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, append([]int64(nil), ids...))
	if s.err != nil {
		return nil, s.err
	}
	out := []domain.Team{}
	for _, id := range ids {
		if t, ok := s.teams[id]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

func int64p(v int64) *int64 { return &v }

func TestAttachBatchesLookups(t *testing.T) {
	repo := &stubTeams{teams: map[int64]domain.Team{1: {ID: 1, Name: "teamA"}, 2: {ID: 2, Name: "teamB"}}}
	loader := NewTeamLoader(repo)

	members := []domain.Member{
		{ID: 1, TeamID: int64p(1)},
		{ID: 2, TeamID: int64p(2)},
		{ID: 3},
		{ID: 4, TeamID: int64p(1)},
		{ID: 5, TeamID: int64p(9)},
	}
	require.NoError(t, loader.Attach(context.Background(), members))

	require.Len(t, repo.calls, 1)
	assert.ElementsMatch(t, []int64{1, 2, 9}, repo.calls[0])
	assert.Equal(t, "teamA", members[0].Team.Name)
	assert.Equal(t, "teamB", members[1].Team.Name)
	assert.Nil(t, members[2].Team)
	assert.Equal(t, "teamA", members[3].Team.Name)
	assert.Nil(t, members[4].Team)
}

func TestLoadCachesUntilCleared(t *testing.T) {
	repo := &stubTeams{teams: map[int64]domain.Team{1: {ID: 1, Name: "teamA"}}}
	loader := NewTeamLoader(repo)
	ctx := context.Background()

	team, err := loader.Load(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "teamA", team.Name)

	_, err = loader.Load(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, repo.calls, 1)

	missing, err := loader.Load(ctx, 7)
	require.NoError(t, err)
	assert.Nil(t, missing)

	loader.ClearAll(ctx)
	_, err = loader.Load(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, repo.calls, 3)
}

func TestLoadReportsRepositoryErrors(t *testing.T) {
	boom := errors.New("boom")
	loader := NewTeamLoader(&stubTeams{err: boom})

	_, err := loader.Load(context.Background(), 1)
	assert.ErrorIs(t, err, boom)

	err = loader.Attach(context.Background(), []domain.Member{{TeamID: int64p(1)}})
	assert.ErrorIs(t, err, boom)
}

func TestBatchFailsEveryKeyOnBadID(t *testing.T) {
	repo := &stubTeams{}
	loader := NewTeamLoader(repo)

	keys := dataloader.Keys{dataloader.StringKey("1"), dataloader.StringKey("x"), dataloader.StringKey("2")}
	_, errs := loader.Loader.LoadMany(context.Background(), keys)()

	require.Len(t, errs, len(keys))
	for _, err := range errs {
		assert.ErrorContains(t, err, `invalid team id "x"`)
	}
	assert.Empty(t, repo.calls)
}

func TestContextLoader(t *testing.T) {
	repo := &stubTeams{teams: map[int64]domain.Team{1: {ID: 1, Name: "teamA"}}}
	assert.Nil(t, FromContext(context.Background()))

	ctx := WithNewLoader(context.Background(), repo)
	loader := FromContext(ctx)
	require.NotNil(t, loader)
	assert.Same(t, loader, FromContext(ctx))

	team, err := loader.Load(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "teamA", team.Name)
	assert.NotSame(t, loader, FromContext(WithNewLoader(ctx, repo)))
}
