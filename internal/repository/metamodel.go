package repository

import "github.com/rpattn/memberql/pkg/querydsl"

// QMember is the typed column set of the member table.
type QMember struct {
	querydsl.Table
	ID       querydsl.Expr[int64]
	Username querydsl.Expr[string]
	Age      querydsl.Expr[int]
	TeamID   querydsl.Expr[int64]
}

func NewQMember(alias string) QMember {
	t := querydsl.NewTable("member", alias)
	return QMember{
		Table:    t,
		ID:       querydsl.Column[int64](t, "member_id"),
		Username: querydsl.Column[string](t, "username"),
		Age:      querydsl.Column[int](t, "age"),
		TeamID:   querydsl.Column[int64](t, "team_id"),
	}
}

// TeamOn is the join condition from the member to its team.
func (m QMember) TeamOn(t QTeam) querydsl.Fragment {
	return m.TeamID.EqExpr(t.ID)
}

// QTeam is the typed column set of the team table.
type QTeam struct {
	querydsl.Table
	ID   querydsl.Expr[int64]
	Name querydsl.Expr[string]
}

func NewQTeam(alias string) QTeam {
	t := querydsl.NewTable("team", alias)
	return QTeam{
		Table: t,
		ID:    querydsl.Column[int64](t, "team_id"),
		Name:  querydsl.Column[string](t, "name"),
	}
}

var (
	member = NewQMember("m")
	team   = NewQTeam("t")

	// memberRows and teamRows qualify columns with the bare table name, as
	// INSERT, UPDATE and DELETE statements require.
	memberRows = NewQMember("")
	teamRows   = NewQTeam("")
)
