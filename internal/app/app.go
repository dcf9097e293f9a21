// Package app wires configuration, storage and the member services into
// one handle for an embedding service.
package app

import (
	"context"
	"fmt"

	"github.com/rpattn/memberql/internal/config"
	"github.com/rpattn/memberql/internal/db"
	"github.com/rpattn/memberql/internal/domain"
	"github.com/rpattn/memberql/internal/export"
	"github.com/rpattn/memberql/internal/pkg/log"
	"github.com/rpattn/memberql/internal/repository"
	"github.com/rpattn/memberql/internal/search"
	"github.com/rpattn/memberql/internal/teamloader"
	"github.com/rpattn/memberql/pkg/querydsl"
)

type App struct {
	Factory *querydsl.Factory
	Teams   repository.TeamRepository
	Members repository.MemberRepository
	Reports repository.MemberReportRepository
	Loader  *teamloader.TeamLoader
	Search  *search.Service
	Export  *export.Service

	close func()
}

// Open connects to the configured database, brings its schema up to date
// and builds the services on top of it.
func Open(ctx context.Context, cfg config.Config) (*App, error) {
	log.SetDebug(cfg.Debug)

	var (
		exec    querydsl.Executor
		release func()
	)
	switch cfg.Database.Driver {
	case db.DriverSQLite:
		conn, err := db.OpenSQLite(ctx, cfg.Database.SQLitePath)
		if err != nil {
			return nil, err
		}
		if err := db.ApplySQLiteSchema(ctx, conn); err != nil {
			conn.Close()
			return nil, err
		}
		exec, release = db.NewSQLExecutor(conn), func() { conn.Close() }
	default:
		if err := db.RunMigrations(cfg.Database); err != nil {
			return nil, err
		}
		conn, err := db.NewConnection(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		exec, release = conn.Executor(), conn.Close
	}

	factory := querydsl.NewFactory(exec,
		querydsl.WithDialect(cfg.Database.Dialect()),
		querydsl.WithQueryLogging(cfg.Debug),
	)
	a := newApp(factory, cfg.Search)
	a.close = release
	log.Info("memberql ready on %s", cfg.Database.Driver)
	return a, nil
}

func newApp(factory *querydsl.Factory, cfg config.SearchConfig) *App {
	teams := repository.NewTeamRepository(factory)
	members := repository.NewMemberRepository(factory)
	loader := teamloader.NewTeamLoader(teams)

	opts := append(cfg.Options(), search.WithAfterBulk(loader.ClearAll))
	searchService := search.NewService(members, opts...)

	return &App{
		Factory: factory,
		Teams:   teams,
		Members: members,
		Reports: repository.NewMemberReportRepository(factory),
		Loader:  loader,
		Search:  searchService,
		Export:  export.NewService(searchService, export.WithPageSize(cfg.MaxPageSize)),
	}
}

// RequestScope gives ctx its own team loader; without one the shared loader
// is used.
func (a *App) RequestScope(ctx context.Context) context.Context {
	return teamloader.WithNewLoader(ctx, a.Teams)
}

// MembersWithTeams lists every member with Team populated through the
// batched team loader.
func (a *App) MembersWithTeams(ctx context.Context) ([]domain.Member, error) {
	members, err := a.Members.ListDSL(ctx)
	if err != nil {
		return nil, err
	}
	loader := teamloader.FromContext(ctx)
	if loader == nil {
		loader = a.Loader
	}
	if err := loader.Attach(ctx, members); err != nil {
		return nil, fmt.Errorf("failed to attach teams: %w", err)
	}
	return members, nil
}

// Close releases the database connection.
func (a *App) Close() {
	if a.close != nil {
		a.close()
	}
}
