package domain

// MemberStats aggregates member ages.
type MemberStats struct {
	Count  int64
	SumAge int
	MaxAge int
	MinAge int
}

// TeamAverageAge is the mean member age of one team.
type TeamAverageAge struct {
	TeamName   string
	AverageAge float64
}

// AgeBand labels a member by age bracket.
type AgeBand struct {
	Username *string `db:"username"`
	Band     string  `db:"band"`
}

// RankedMember is a member with a sort rank derived from its age.
type RankedMember struct {
	Username *string `db:"username"`
	Age      int     `db:"age"`
	Rank     int     `db:"rank"`
}
