package domain

// SortDirection represents ordering direction for sortable fields.
type SortDirection string

const (
	SortDirectionAsc  SortDirection = "asc"
	SortDirectionDesc SortDirection = "desc"
)

// NullOrdering places NULL values relative to the others.
type NullOrdering string

const (
	NullOrderingDefault NullOrdering = ""
	NullOrderingFirst   NullOrdering = "first"
	NullOrderingLast    NullOrdering = "last"
)

// MemberSortField enumerates fields that member searches can be sorted by.
type MemberSortField string

const (
	MemberSortFieldID       MemberSortField = "member_id"
	MemberSortFieldUsername MemberSortField = "username"
	MemberSortFieldAge      MemberSortField = "age"
	MemberSortFieldTeamName MemberSortField = "team_name"
)

// MemberSort captures ordering preferences for member searches.
type MemberSort struct {
	Field     MemberSortField
	Direction SortDirection
	Nulls     NullOrdering
}
