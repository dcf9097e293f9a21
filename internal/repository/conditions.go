package repository

import (
	"strings"

	"github.com/rpattn/memberql/internal/domain"
	"github.com/rpattn/memberql/pkg/querydsl"
)

func usernameEq(username string) querydsl.Fragment {
	return querydsl.EqIfText(member.Username, username)
}

func teamNameEq(teamName string) querydsl.Fragment {
	return querydsl.EqIfText(team.Name, teamName)
}

func ageGoe(age *int) querydsl.Fragment {
	return querydsl.GoeIfPresent(member.Age, age)
}

func ageLoe(age *int) querydsl.Fragment {
	return querydsl.LoeIfPresent(member.Age, age)
}

// memberConditions lists the search filters in a fixed order.
func memberConditions(cond domain.MemberSearchCondition) []querydsl.Fragment {
	return []querydsl.Fragment{
		usernameEq(cond.Username),
		teamNameEq(cond.TeamName),
		ageGoe(cond.AgeGoe),
		ageLoe(cond.AgeLoe),
	}
}

// MemberSearchFilter is the composed predicate of cond. It is absent when
// cond does not constrain anything.
func MemberSearchFilter(cond domain.MemberSearchCondition) querydsl.Fragment {
	return querydsl.Compose(memberConditions(cond)...)
}

// memberSearchBuilder accumulates the same filters one by one.
func memberSearchBuilder(cond domain.MemberSearchCondition) *querydsl.BooleanBuilder {
	builder := querydsl.NewBooleanBuilder()
	if strings.TrimSpace(cond.Username) != "" {
		builder.And(member.Username.Eq(cond.Username))
	}
	if strings.TrimSpace(cond.TeamName) != "" {
		builder.And(team.Name.Eq(cond.TeamName))
	}
	if cond.AgeGoe != nil {
		builder.And(member.Age.Goe(*cond.AgeGoe))
	}
	if cond.AgeLoe != nil {
		builder.And(member.Age.Loe(*cond.AgeLoe))
	}
	return builder
}

// needsTeam reports whether filtering cond has to look at the team table.
func needsTeam(cond domain.MemberSearchCondition) bool {
	return strings.TrimSpace(cond.TeamName) != ""
}
