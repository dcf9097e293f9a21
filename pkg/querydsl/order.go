package querydsl

// NullHandling controls where NULL sorts relative to other values.
type NullHandling int

const (
	NullsDefault NullHandling = iota
	NullsFirst
	NullsLast
)

// OrderSpecifier is one key of an ORDER BY clause.
type OrderSpecifier struct {
	expr  string
	args  []any
	desc  bool
	nulls NullHandling
	err   error
}

func (o OrderSpecifier) NullsFirst() OrderSpecifier {
	o.nulls = NullsFirst
	return o
}

func (o OrderSpecifier) NullsLast() OrderSpecifier {
	o.nulls = NullsLast
	return o
}

func (o OrderSpecifier) Descending() bool {
	return o.desc
}

func (o OrderSpecifier) ToSql() (string, []any, error) {
	if o.err != nil {
		return "", nil, o.err
	}
	sql := o.expr + " ASC"
	if o.desc {
		sql = o.expr + " DESC"
	}
	switch o.nulls {
	case NullsFirst:
		sql += " NULLS FIRST"
	case NullsLast:
		sql += " NULLS LAST"
	}
	return sql, o.args, nil
}
