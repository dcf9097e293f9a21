package repository

import (
	"context"
	"fmt"

	"github.com/rpattn/memberql/internal/domain"
	"github.com/rpattn/memberql/pkg/querydsl"
)

type teamRepository struct {
	factory *querydsl.Factory
}

// NewTeamRepository creates a new team repository
func NewTeamRepository(factory *querydsl.Factory) TeamRepository {
	return &teamRepository{factory: factory}
}

func teamProjection() querydsl.Projection[domain.Team] {
	return querydsl.Fields[domain.Team](team.ID, team.Name)
}

// Save inserts a new team or renames an existing one
func (r *teamRepository) Save(ctx context.Context, t domain.Team) (domain.Team, error) {
	if t.ID != 0 {
		n, err := r.factory.Update(teamRows.Table).
			Set(teamRows.Name.Set(t.Name)).
			Where(teamRows.ID.Eq(t.ID)).
			Execute(ctx)
		if err != nil {
			return domain.Team{}, fmt.Errorf("failed to update team: %w", err)
		}
		if n == 0 {
			return domain.Team{}, fmt.Errorf("failed to update team %d: %w", t.ID, querydsl.ErrNoResult)
		}
		return t, nil
	}

	id, err := r.factory.Insert(teamRows.Table).
		Set(teamRows.Name.Set(t.Name)).
		ExecuteReturning(ctx, teamRows.ID)
	if err != nil {
		return domain.Team{}, fmt.Errorf("failed to create team: %w", err)
	}
	t.ID = id
	return t, nil
}

// GetByID retrieves a team by ID
func (r *teamRepository) GetByID(ctx context.Context, id int64) (domain.Team, error) {
	t, err := querydsl.SelectFrom(r.factory, teamProjection(), team.Table).
		Where(team.ID.Eq(id)).
		FetchOne(ctx)
	if err != nil {
		return domain.Team{}, fmt.Errorf("failed to get team %d: %w", id, err)
	}
	return t, nil
}

// GetByIDs retrieves the teams with the given IDs; unknown IDs are skipped
func (r *teamRepository) GetByIDs(ctx context.Context, ids []int64) ([]domain.Team, error) {
	if len(ids) == 0 {
		return []domain.Team{}, nil
	}
	teams, err := querydsl.SelectFrom(r.factory, teamProjection(), team.Table).
		Where(team.ID.In(ids...)).
		OrderBy(team.ID.Asc()).
		Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get teams: %w", err)
	}
	return teams, nil
}

// List retrieves all teams
func (r *teamRepository) List(ctx context.Context) ([]domain.Team, error) {
	teams, err := querydsl.SelectFrom(r.factory, teamProjection(), team.Table).
		OrderBy(team.ID.Asc()).
		Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	return teams, nil
}
