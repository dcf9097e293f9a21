package domain

// MemberSearchCondition holds the optional filters of a member search.
// Blank strings and nil bounds do not constrain the result.
type MemberSearchCondition struct {
	Username string
	TeamName string
	AgeGoe   *int
	AgeLoe   *int
}

// Int returns a pointer to v, for optional bounds.
func Int(v int) *int {
	return &v
}
