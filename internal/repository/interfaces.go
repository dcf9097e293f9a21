package repository

import (
	"context"

	"github.com/rpattn/memberql/internal/domain"
	"github.com/rpattn/memberql/pkg/querydsl"
)

// TeamRepository defines the interface for team operations
type TeamRepository interface {
	Save(ctx context.Context, team domain.Team) (domain.Team, error)
	GetByID(ctx context.Context, id int64) (domain.Team, error)
	GetByIDs(ctx context.Context, ids []int64) ([]domain.Team, error)
	List(ctx context.Context) ([]domain.Team, error)
}

// MemberRepository defines the interface for member operations
type MemberRepository interface {
	MemberQueryRepository

	Save(ctx context.Context, member domain.Member) (domain.Member, error)
	GetByID(ctx context.Context, id int64) (domain.Member, error)
	// List and ListByUsername run hand-written SQL; the DSL variants build
	// the same statements with the query factory.
	List(ctx context.Context) ([]domain.Member, error)
	ListDSL(ctx context.Context) ([]domain.Member, error)
	ListByUsername(ctx context.Context, username string) ([]domain.Member, error)
	ListByUsernameDSL(ctx context.Context, username string) ([]domain.Member, error)
	// ListWithTeam loads every member together with its team in one query.
	ListWithTeam(ctx context.Context) ([]domain.Member, error)

	// SearchByBuilder and SearchByWhere return identical results; they
	// differ only in how the filter is assembled.
	SearchByBuilder(ctx context.Context, cond domain.MemberSearchCondition) ([]domain.MemberTeamDto, error)
	SearchByWhere(ctx context.Context, cond domain.MemberSearchCondition) ([]domain.MemberTeamDto, error)
}

// MemberQueryRepository defines member searches and bulk updates
type MemberQueryRepository interface {
	Search(ctx context.Context, cond domain.MemberSearchCondition, sorts ...domain.MemberSort) ([]domain.MemberTeamDto, error)
	// SearchPageSimple fetches content and total in one round trip.
	SearchPageSimple(ctx context.Context, cond domain.MemberSearchCondition, req querydsl.PageRequest, sorts ...domain.MemberSort) (querydsl.Page[domain.MemberTeamDto], error)
	// SearchPageComplex always runs a separate count query.
	SearchPageComplex(ctx context.Context, cond domain.MemberSearchCondition, req querydsl.PageRequest, sorts ...domain.MemberSort) (querydsl.Page[domain.MemberTeamDto], error)
	// SearchPageOptimized runs the count query only when the page cannot
	// tell the total.
	SearchPageOptimized(ctx context.Context, cond domain.MemberSearchCondition, req querydsl.PageRequest, sorts ...domain.MemberSort) (querydsl.Page[domain.MemberTeamDto], error)

	BulkRename(ctx context.Context, maxAge int, newName string) (int64, error)
	BulkIncrementAge(ctx context.Context, delta int) (int64, error)
	BulkDelete(ctx context.Context, minAge int) (int64, error)
}

// MemberReportRepository defines aggregate and analytical member queries
type MemberReportRepository interface {
	Stats(ctx context.Context) (domain.MemberStats, error)
	AverageAgeByTeam(ctx context.Context) ([]domain.TeamAverageAge, error)
	Oldest(ctx context.Context) ([]domain.Member, error)
	AtLeastAverageAge(ctx context.Context) ([]domain.Member, error)
	AgeInOlderThan(ctx context.Context, age int) ([]domain.Member, error)
	UsersWithMaxAge(ctx context.Context) ([]domain.UserDto, error)
	AgeBands(ctx context.Context) ([]domain.AgeBand, error)
	RankedByAge(ctx context.Context) ([]domain.RankedMember, error)
	UsernameAges(ctx context.Context) ([]string, error)
	ReplaceInUsernames(ctx context.Context, old, replacement string) ([]string, error)
	DistinctUsernames(ctx context.Context) ([]string, error)
	JoinOnTeamName(ctx context.Context, teamName string) ([]domain.MemberTeamDto, error)
	NamedAfterTeam(ctx context.Context) ([]domain.Member, error)
	MemberDtosBySetter(ctx context.Context) ([]domain.MemberDto, error)
	MemberDtosByField(ctx context.Context) ([]domain.MemberDto, error)
	MemberDtosByConstructor(ctx context.Context) ([]domain.MemberDto, error)
}
