package querydsl

// Table names a relation and the alias its columns are qualified with.
// An empty alias qualifies columns with the table name itself, which is
// what UPDATE and DELETE statements need.
type Table struct {
	name  string
	alias string
}

func NewTable(name, alias string) Table {
	return Table{name: name, alias: alias}
}

func (t Table) Name() string {
	return t.name
}

func (t Table) Alias() string {
	return t.alias
}

func (t Table) qualifier() string {
	if t.alias != "" {
		return t.alias
	}
	return t.name
}

// String renders the table as it appears in a FROM clause.
func (t Table) String() string {
	if t.alias == "" || t.alias == t.name {
		return t.name
	}
	return t.name + " " + t.alias
}
