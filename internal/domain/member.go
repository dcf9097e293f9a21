package domain

// Team groups members.
type Team struct {
	ID   int64  `db:"team_id"`
	Name string `db:"name"`
}

// Member belongs to at most one team. Team is only populated when the
// member was loaded together with its team.
type Member struct {
	ID       int64   `db:"member_id"`
	Username *string `db:"username"`
	Age      int     `db:"age"`
	TeamID   *int64  `db:"team_id"`
	Team     *Team   `db:"-"`
}

// NewMember builds an unsaved member, optionally assigned to team.
func NewMember(username string, age int, team *Team) Member {
	m := Member{Username: &username, Age: age}
	m.ChangeTeam(team)
	return m
}

// ChangeTeam moves the member to team, or out of any team when team is nil.
func (m *Member) ChangeTeam(team *Team) {
	m.Team = team
	m.TeamID = nil
	if team != nil {
		id := team.ID
		m.TeamID = &id
	}
}

// Name returns the username, or "" when it is not set.
func (m Member) Name() string {
	if m.Username == nil {
		return ""
	}
	return *m.Username
}

// MemberTeamDto is one row of a member search: the member columns plus the
// columns of its team, which are nil when the member has no team.
type MemberTeamDto struct {
	MemberID int64   `db:"member_id"`
	Username *string `db:"username"`
	Age      int     `db:"age"`
	TeamID   *int64  `db:"team_id"`
	TeamName *string `db:"team_name"`
}

func NewMemberTeamDto(memberID int64, username *string, age int, teamID *int64, teamName *string) MemberTeamDto {
	return MemberTeamDto{MemberID: memberID, Username: username, Age: age, TeamID: teamID, TeamName: teamName}
}

// MemberDto carries a username and age. It can be filled through its
// setters, its fields or NewMemberDto.
type MemberDto struct {
	Username string `db:"username"`
	Age      int    `db:"age"`
}

func NewMemberDto(username string, age int) MemberDto {
	return MemberDto{Username: username, Age: age}
}

func (d *MemberDto) SetUsername(username string) {
	d.Username = username
}

func (d *MemberDto) SetAge(age int) {
	d.Age = age
}

// UserDto exposes a member under different names.
type UserDto struct {
	Name string
	Age  int
}

func NewUserDto(name string, age int) UserDto {
	return UserDto{Name: name, Age: age}
}
