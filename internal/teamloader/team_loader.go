package teamloader

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rpattn/memberql/internal/domain"
	"github.com/rpattn/memberql/internal/repository"

	"github.com/graph-gophers/dataloader"
)

// TeamLoader batches team lookups made while attaching teams to members.
// Results are cached; call ClearAll after bulk mutations.
type TeamLoader struct {
	Loader *dataloader.Loader
}

func failAll(n int, err error) []*dataloader.Result {
	results := make([]*dataloader.Result, n)
	for i := range results {
		results[i] = &dataloader.Result{Error: err}
	}
	return results
}

func NewTeamLoader(repo repository.TeamRepository) *TeamLoader {
	batchFn := func(ctx context.Context, keys dataloader.Keys) []*dataloader.Result {
		ids := make([]int64, len(keys))
		for i, k := range keys {
			id, err := strconv.ParseInt(k.String(), 10, 64)
			if err != nil {
				return failAll(len(keys), fmt.Errorf("invalid team id %q: %w", k.String(), err))
			}
			ids[i] = id
		}

		teams, err := repo.GetByIDs(ctx, ids)
		if err != nil {
			return failAll(len(keys), err)
		}

		teamMap := make(map[int64]domain.Team, len(teams))
		for _, t := range teams {
			teamMap[t.ID] = t
		}

		// Results must line up with keys
		results := make([]*dataloader.Result, len(keys))
		for i, id := range ids {
			if t, ok := teamMap[id]; ok {
				results[i] = &dataloader.Result{Data: t}
			} else {
				results[i] = &dataloader.Result{Data: nil}
			}
		}
		return results
	}

	loader := dataloader.NewBatchedLoader(batchFn, dataloader.WithWait(5*time.Millisecond))

	return &TeamLoader{Loader: loader}
}

func key(id int64) dataloader.Key {
	return dataloader.StringKey(strconv.FormatInt(id, 10))
}

// Load returns the team with id, or nil when it does not exist.
func (l *TeamLoader) Load(ctx context.Context, id int64) (*domain.Team, error) {
	data, err := l.Loader.Load(ctx, key(id))()
	if err != nil {
		return nil, err
	}
	t, ok := data.(domain.Team)
	if !ok {
		return nil, nil
	}
	return &t, nil
}

// Attach sets Team on every member with a team id in a single batch.
func (l *TeamLoader) Attach(ctx context.Context, members []domain.Member) error {
	keys := make(dataloader.Keys, 0, len(members))
	positions := make([]int, 0, len(members))
	for i, m := range members {
		if m.TeamID == nil {
			continue
		}
		keys = append(keys, key(*m.TeamID))
		positions = append(positions, i)
	}
	if len(keys) == 0 {
		return nil
	}

	data, errs := l.Loader.LoadMany(ctx, keys)()
	for i, pos := range positions {
		if i < len(errs) && errs[i] != nil {
			return fmt.Errorf("failed to load team %s: %w", keys[i].String(), errs[i])
		}
		if t, ok := data[i].(domain.Team); ok {
			members[pos].Team = &t
		}
	}
	return nil
}

// ClearAll drops every cached team.
func (l *TeamLoader) ClearAll(context.Context) {
	l.Loader.ClearAll()
}
