package repository

import (
	"context"
	"fmt"

	"github.com/rpattn/memberql/internal/domain"
	"github.com/rpattn/memberql/pkg/querydsl"
)

type memberRepository struct {
	factory *querydsl.Factory
}

// NewMemberRepository creates a new member repository
func NewMemberRepository(factory *querydsl.Factory) MemberRepository {
	return &memberRepository{factory: factory}
}

// NewMemberReportRepository creates a repository for aggregate member queries
func NewMemberReportRepository(factory *querydsl.Factory) MemberReportRepository {
	return &memberRepository{factory: factory}
}

func memberProjection() querydsl.Projection[domain.Member] {
	return querydsl.Fields[domain.Member](member.ID, member.Username, member.Age, member.TeamID)
}

func memberWithTeam(id int64, username *string, age int, teamID *int64, teamName *string) domain.Member {
	m := domain.Member{ID: id, Username: username, Age: age}
	if teamID != nil {
		t := domain.Team{ID: *teamID}
		if teamName != nil {
			t.Name = *teamName
		}
		m.ChangeTeam(&t)
	}
	return m
}

const (
	listMembersSQL           = "SELECT m.member_id, m.username, m.age, m.team_id FROM member m ORDER BY m.member_id"
	listMembersByUsernameSQL = "SELECT m.member_id, m.username, m.age, m.team_id FROM member m WHERE m.username = ? ORDER BY m.member_id"
)

// Save inserts a new member or overwrites an existing one
func (r *memberRepository) Save(ctx context.Context, m domain.Member) (domain.Member, error) {
	username := memberRows.Username.SetNull()
	if m.Username != nil {
		username = memberRows.Username.Set(*m.Username)
	}
	teamID := memberRows.TeamID.SetNull()
	if m.TeamID != nil {
		teamID = memberRows.TeamID.Set(*m.TeamID)
	}

	if m.ID != 0 {
		n, err := r.factory.Update(memberRows.Table).
			Set(username, memberRows.Age.Set(m.Age), teamID).
			Where(memberRows.ID.Eq(m.ID)).
			Execute(ctx)
		if err != nil {
			return domain.Member{}, fmt.Errorf("failed to update member: %w", err)
		}
		if n == 0 {
			return domain.Member{}, fmt.Errorf("failed to update member %d: %w", m.ID, querydsl.ErrNoResult)
		}
		return m, nil
	}

	id, err := r.factory.Insert(memberRows.Table).
		Set(username, memberRows.Age.Set(m.Age), teamID).
		ExecuteReturning(ctx, memberRows.ID)
	if err != nil {
		return domain.Member{}, fmt.Errorf("failed to create member: %w", err)
	}
	m.ID = id
	return m, nil
}

// GetByID retrieves a member by ID
func (r *memberRepository) GetByID(ctx context.Context, id int64) (domain.Member, error) {
	m, err := querydsl.SelectFrom(r.factory, memberProjection(), member.Table).
		Where(member.ID.Eq(id)).
		FetchOne(ctx)
	if err != nil {
		return domain.Member{}, fmt.Errorf("failed to get member %d: %w", id, err)
	}
	return m, nil
}

// List retrieves all members with hand-written SQL
func (r *memberRepository) List(ctx context.Context) ([]domain.Member, error) {
	members, err := querydsl.Native(ctx, r.factory, memberProjection(), listMembersSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	return members, nil
}

// ListDSL retrieves all members through the query factory
func (r *memberRepository) ListDSL(ctx context.Context) ([]domain.Member, error) {
	members, err := querydsl.SelectFrom(r.factory, memberProjection(), member.Table).
		OrderBy(member.ID.Asc()).
		Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	return members, nil
}

// ListByUsername retrieves members by username with hand-written SQL
func (r *memberRepository) ListByUsername(ctx context.Context, username string) ([]domain.Member, error) {
	members, err := querydsl.Native(ctx, r.factory, memberProjection(), listMembersByUsernameSQL, username)
	if err != nil {
		return nil, fmt.Errorf("failed to list members by username: %w", err)
	}
	return members, nil
}

// ListByUsernameDSL retrieves members by username through the query factory
func (r *memberRepository) ListByUsernameDSL(ctx context.Context, username string) ([]domain.Member, error) {
	members, err := querydsl.SelectFrom(r.factory, memberProjection(), member.Table).
		Where(member.Username.Eq(username)).
		OrderBy(member.ID.Asc()).
		Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list members by username: %w", err)
	}
	return members, nil
}

// ListWithTeam retrieves all members with their teams populated
func (r *memberRepository) ListWithTeam(ctx context.Context) ([]domain.Member, error) {
	projection := querydsl.Construct5(memberWithTeam,
		member.ID, querydsl.Nullable(member.Username), member.Age,
		querydsl.Nullable(team.ID), querydsl.Nullable(team.Name))

	members, err := querydsl.SelectFrom(r.factory, projection, member.Table).
		LeftJoin(team.Table, member.TeamOn(team)).
		OrderBy(member.ID.Asc()).
		Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list members with teams: %w", err)
	}
	return members, nil
}

// SearchByBuilder searches with a filter accumulated in a BooleanBuilder
func (r *memberRepository) SearchByBuilder(ctx context.Context, cond domain.MemberSearchCondition) ([]domain.MemberTeamDto, error) {
	rows, err := r.searchByBuilderQuery(cond).Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to search members: %w", err)
	}
	return rows, nil
}

// SearchByWhere searches with the filters passed to Where as a list
func (r *memberRepository) SearchByWhere(ctx context.Context, cond domain.MemberSearchCondition) ([]domain.MemberTeamDto, error) {
	rows, err := r.searchByWhereQuery(cond).Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to search members: %w", err)
	}
	return rows, nil
}

func (r *memberRepository) memberTeamQuery() *querydsl.Query[domain.MemberTeamDto] {
	return querydsl.SelectFrom(r.factory, memberTeamProjection(), member.Table).
		LeftJoin(team.Table, member.TeamOn(team))
}

func (r *memberRepository) searchByBuilderQuery(cond domain.MemberSearchCondition) *querydsl.Query[domain.MemberTeamDto] {
	return r.memberTeamQuery().
		Where(memberSearchBuilder(cond).Value()).
		OrderBy(member.ID.Asc())
}

func (r *memberRepository) searchByWhereQuery(cond domain.MemberSearchCondition) *querydsl.Query[domain.MemberTeamDto] {
	return r.memberTeamQuery().
		Where(memberConditions(cond)...).
		OrderBy(member.ID.Asc())
}
