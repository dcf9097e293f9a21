package teamloader

import (
	"context"

	"github.com/rpattn/memberql/internal/repository"
)

type ctxKey string

const teamLoaderKey ctxKey = "teamLoader"

// WithNewLoader attaches a fresh loader to ctx, so lookups made while
// serving one request share a batch and a cache.
func WithNewLoader(ctx context.Context, repo repository.TeamRepository) context.Context {
	return context.WithValue(ctx, teamLoaderKey, NewTeamLoader(repo))
}

// FromContext retrieves the loader attached by WithNewLoader
func FromContext(ctx context.Context) *TeamLoader {
	if l, ok := ctx.Value(teamLoaderKey).(*TeamLoader); ok {
		return l
	}
	return nil
}
