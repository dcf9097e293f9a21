package repository

import (
	"context"
	"fmt"

	"github.com/rpattn/memberql/internal/domain"
	"github.com/rpattn/memberql/pkg/querydsl"
)

// Stats aggregates the ages of all members
func (r *memberRepository) Stats(ctx context.Context) (domain.MemberStats, error) {
	count, sum, maxAge, minAge := querydsl.CountAll(), querydsl.Sum(member.Age), querydsl.Max(member.Age), querydsl.Min(member.Age)

	row, err := querydsl.SelectFrom(r.factory, querydsl.TupleOf(count, sum, maxAge, minAge), member.Table).FetchOne(ctx)
	if err != nil {
		return domain.MemberStats{}, fmt.Errorf("failed to aggregate members: %w", err)
	}

	var stats domain.MemberStats
	stats.Count, _ = querydsl.ValueOf(row, count)
	stats.SumAge, _ = querydsl.ValueOf(row, sum)
	stats.MaxAge, _ = querydsl.ValueOf(row, maxAge)
	stats.MinAge, _ = querydsl.ValueOf(row, minAge)
	return stats, nil
}

// AverageAgeByTeam returns the mean member age of every team with members
func (r *memberRepository) AverageAgeByTeam(ctx context.Context) ([]domain.TeamAverageAge, error) {
	projection := querydsl.Construct2(func(name string, avg float64) domain.TeamAverageAge {
		return domain.TeamAverageAge{TeamName: name, AverageAge: avg}
	}, team.Name, querydsl.Avg(member.Age))

	rows, err := querydsl.SelectFrom(r.factory, projection, member.Table).
		Join(team.Table, member.TeamOn(team)).
		GroupBy(team.Name).
		OrderBy(team.Name.Asc()).
		Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to average ages by team: %w", err)
	}
	return rows, nil
}

func (r *memberRepository) fetchMembers(ctx context.Context, what string, filters ...querydsl.Fragment) ([]domain.Member, error) {
	members, err := querydsl.SelectFrom(r.factory, memberProjection(), member.Table).
		Where(filters...).
		OrderBy(member.ID.Asc()).
		Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", what, err)
	}
	return members, nil
}

// Oldest returns the members whose age equals the maximum age
func (r *memberRepository) Oldest(ctx context.Context) ([]domain.Member, error) {
	sub := NewQMember("ms")
	maxAge := querydsl.Sub(querydsl.Max(sub.Age)).From(sub.Table)
	return r.fetchMembers(ctx, "oldest members", member.Age.EqExpr(maxAge.Expr()))
}

// AtLeastAverageAge returns the members at or above the average age
func (r *memberRepository) AtLeastAverageAge(ctx context.Context) ([]domain.Member, error) {
	sub := NewQMember("ms")
	avgAge := querydsl.Sub(querydsl.Avg(sub.Age)).From(sub.Table)
	return r.fetchMembers(ctx, "members at least average age", querydsl.ToFloat64(member.Age).GoeExpr(avgAge.Expr()))
}

// AgeInOlderThan returns the members whose age is one of the ages above age
func (r *memberRepository) AgeInOlderThan(ctx context.Context, age int) ([]domain.Member, error) {
	sub := NewQMember("ms")
	ages := querydsl.Sub(sub.Age).From(sub.Table).Where(sub.Age.Gt(age))
	return r.fetchMembers(ctx, "members by age subquery", member.Age.InSub(ages))
}

// UsersWithMaxAge pairs every username with the maximum member age
func (r *memberRepository) UsersWithMaxAge(ctx context.Context) ([]domain.UserDto, error) {
	sub := NewQMember("ms")
	maxAge := querydsl.Sub(querydsl.Max(sub.Age)).From(sub.Table).Expr()

	rows, err := querydsl.SelectFrom(r.factory, querydsl.Fields[domain.UserDto](member.Username.As("name"), maxAge.As("age")), member.Table).
		Where(member.Username.IsNotNull()).
		OrderBy(member.ID.Asc()).
		Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return rows, nil
}

// AgeBands labels every member with an age bracket
func (r *memberRepository) AgeBands(ctx context.Context) ([]domain.AgeBand, error) {
	band := querydsl.Case[string]().
		When(member.Age.Between(0, 20), "0~20").
		When(member.Age.Between(21, 30), "21~30").
		Otherwise("other")

	rows, err := querydsl.SelectFrom(r.factory, querydsl.Fields[domain.AgeBand](member.Username, band.As("band")), member.Table).
		OrderBy(member.ID.Asc()).
		Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to band member ages: %w", err)
	}
	return rows, nil
}

// RankedByAge orders members older than 30 first, then those up to 20,
// then those from 21 to 30
func (r *memberRepository) RankedByAge(ctx context.Context) ([]domain.RankedMember, error) {
	rank := querydsl.Case[int]().
		When(member.Age.Between(0, 20), 2).
		When(member.Age.Between(21, 30), 1).
		Otherwise(3)

	rows, err := querydsl.SelectFrom(r.factory, querydsl.Fields[domain.RankedMember](member.Username, member.Age, rank.As("rank")), member.Table).
		OrderBy(rank.Desc(), member.ID.Asc()).
		Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to rank members: %w", err)
	}
	return rows, nil
}

// UsernameAges renders every named member as username_age
func (r *memberRepository) UsernameAges(ctx context.Context) ([]string, error) {
	label := querydsl.Concat(member.Username, querydsl.Constant("_"), querydsl.StringValue(member.Age))

	rows, err := querydsl.SelectFrom(r.factory, querydsl.Single(label), member.Table).
		Where(member.Username.IsNotNull()).
		OrderBy(member.ID.Asc()).
		Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to render usernames: %w", err)
	}
	return rows, nil
}

// ReplaceInUsernames returns every username with old replaced
func (r *memberRepository) ReplaceInUsernames(ctx context.Context, old, replacement string) ([]string, error) {
	replaced := querydsl.Template[string]("replace({0}, {1}, {2})", member.Username, old, replacement)

	rows, err := querydsl.SelectFrom(r.factory, querydsl.Single(replaced), member.Table).
		Where(member.Username.IsNotNull()).
		OrderBy(member.ID.Asc()).
		Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to replace in usernames: %w", err)
	}
	return rows, nil
}

// DistinctUsernames lists every username once in alphabetical order
func (r *memberRepository) DistinctUsernames(ctx context.Context) ([]string, error) {
	rows, err := querydsl.SelectFrom(r.factory, querydsl.Single(member.Username), member.Table).
		Distinct().
		Where(member.Username.IsNotNull()).
		OrderBy(member.Username.Asc()).
		Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list usernames: %w", err)
	}
	return rows, nil
}

// JoinOnTeamName returns every member, with team columns only for members
// of the named team
func (r *memberRepository) JoinOnTeamName(ctx context.Context, teamName string) ([]domain.MemberTeamDto, error) {
	rows, err := querydsl.SelectFrom(r.factory, memberTeamProjection(), member.Table).
		LeftJoin(team.Table, member.TeamOn(team).And(team.Name.Eq(teamName))).
		OrderBy(member.ID.Asc()).
		Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to join members on team name: %w", err)
	}
	return rows, nil
}

// NamedAfterTeam returns the members whose username equals some team name
func (r *memberRepository) NamedAfterTeam(ctx context.Context) ([]domain.Member, error) {
	members, err := querydsl.Select(r.factory, memberProjection()).
		From(member.Table, team.Table).
		Where(member.Username.EqExpr(team.Name)).
		OrderBy(member.ID.Asc()).
		Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list members named after teams: %w", err)
	}
	return members, nil
}

func (r *memberRepository) memberDtos(ctx context.Context, projection querydsl.Projection[domain.MemberDto]) ([]domain.MemberDto, error) {
	rows, err := querydsl.SelectFrom(r.factory, projection, member.Table).
		Where(member.Username.IsNotNull()).
		OrderBy(member.ID.Asc()).
		Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list member dtos: %w", err)
	}
	return rows, nil
}

// MemberDtosBySetter fills MemberDto through its setters
func (r *memberRepository) MemberDtosBySetter(ctx context.Context) ([]domain.MemberDto, error) {
	return r.memberDtos(ctx, querydsl.Bean[domain.MemberDto](member.Username, member.Age))
}

// MemberDtosByField fills MemberDto fields directly
func (r *memberRepository) MemberDtosByField(ctx context.Context) ([]domain.MemberDto, error) {
	return r.memberDtos(ctx, querydsl.Fields[domain.MemberDto](member.Username, member.Age))
}

// MemberDtosByConstructor builds MemberDto with NewMemberDto
func (r *memberRepository) MemberDtosByConstructor(ctx context.Context) ([]domain.MemberDto, error) {
	return r.memberDtos(ctx, querydsl.Constructor[domain.MemberDto](domain.NewMemberDto, member.Username, member.Age))
}
