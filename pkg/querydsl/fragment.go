package querydsl

import (
	"strings"

	sq "github.com/Masterminds/squirrel"
)

// Fragment is a single boolean predicate, or absent. The zero value is
// absent: it contributes nothing when composed and a query whose filters
// are all absent has no WHERE clause at all.
type Fragment struct {
	pred sq.Sqlizer
	err  error
}

// Predicate builds a fragment from raw SQL using ? placeholders.
func Predicate(sql string, args ...any) Fragment {
	return Fragment{pred: sq.Expr(sql, args...)}
}

func errFragment(err error) Fragment {
	return Fragment{err: err}
}

// Present reports whether the fragment constrains anything.
func (f Fragment) Present() bool {
	return f.pred != nil || f.err != nil
}

// Err returns the error recorded while the fragment was built.
func (f Fragment) Err() error {
	return f.err
}

// ToSql renders the predicate. An absent fragment renders as an empty
// string.
func (f Fragment) ToSql() (string, []any, error) {
	if f.err != nil {
		return "", nil, f.err
	}
	if f.pred == nil {
		return "", nil, nil
	}
	return f.pred.ToSql()
}

// And conjoins f with others. Absent operands are skipped.
func (f Fragment) And(others ...Fragment) Fragment {
	return Compose(append([]Fragment{f}, others...)...)
}

// Or disjoins f with others. Absent operands are skipped, so an absent
// fragment or'ed with p yields p.
func (f Fragment) Or(others ...Fragment) Fragment {
	var parts sq.Or
	for _, frag := range append([]Fragment{f}, others...) {
		if frag.err != nil {
			return frag
		}
		if frag.pred == nil {
			continue
		}
		if nested, ok := frag.pred.(sq.Or); ok {
			parts = append(parts, nested...)
			continue
		}
		parts = append(parts, frag.pred)
	}
	switch len(parts) {
	case 0:
		return Fragment{}
	case 1:
		return Fragment{pred: parts[0]}
	}
	return Fragment{pred: parts}
}

// Not negates f. Negating an absent fragment leaves it absent.
func (f Fragment) Not() Fragment {
	if !f.Present() || f.err != nil {
		return f
	}
	sql, args, err := f.pred.ToSql()
	if err != nil {
		return errFragment(err)
	}
	return Predicate("NOT ("+sql+")", args...)
}

func (f Fragment) String() string {
	sql, _, err := f.ToSql()
	if err != nil {
		return "<error: " + err.Error() + ">"
	}
	if sql == "" {
		return "<absent>"
	}
	return sql
}

// Compose folds fragments left to right into one conjunction. Absent
// fragments are dropped and nested conjunctions are flattened, so the result
// only depends on the sequence of present predicates. When every fragment is
// absent the result is absent, which matches every row.
func Compose(fragments ...Fragment) Fragment {
	var parts sq.And
	for _, frag := range fragments {
		if frag.err != nil {
			return frag
		}
		if frag.pred == nil {
			continue
		}
		if nested, ok := frag.pred.(sq.And); ok {
			parts = append(parts, nested...)
			continue
		}
		parts = append(parts, frag.pred)
	}
	switch len(parts) {
	case 0:
		return Fragment{}
	case 1:
		return Fragment{pred: parts[0]}
	}
	return Fragment{pred: parts}
}

// BooleanBuilder accumulates predicates one call at a time. Its Value is
// exactly what Compose returns for the same sequence of And calls.
type BooleanBuilder struct {
	value Fragment
}

func NewBooleanBuilder(initial ...Fragment) *BooleanBuilder {
	return &BooleanBuilder{value: Compose(initial...)}
}

func (b *BooleanBuilder) And(f Fragment) *BooleanBuilder {
	b.value = b.value.And(f)
	return b
}

func (b *BooleanBuilder) AndNot(f Fragment) *BooleanBuilder {
	return b.And(f.Not())
}

func (b *BooleanBuilder) Or(f Fragment) *BooleanBuilder {
	b.value = b.value.Or(f)
	return b
}

func (b *BooleanBuilder) HasValue() bool {
	return b.value.Present()
}

func (b *BooleanBuilder) Value() Fragment {
	return b.value
}

// EqIfText is e = v, or absent when v is empty or only whitespace.
func EqIfText(e Expr[string], v string) Fragment {
	if strings.TrimSpace(v) == "" {
		return Fragment{}
	}
	return e.Eq(v)
}

// EqIfPresent is e = *v, or absent when v is nil.
func EqIfPresent[T any](e Expr[T], v *T) Fragment {
	if v == nil {
		return Fragment{}
	}
	return e.Eq(*v)
}

// GoeIfPresent is e >= *v, or absent when v is nil.
func GoeIfPresent[T any](e Expr[T], v *T) Fragment {
	if v == nil {
		return Fragment{}
	}
	return e.Goe(*v)
}

// LoeIfPresent is e <= *v, or absent when v is nil.
func LoeIfPresent[T any](e Expr[T], v *T) Fragment {
	if v == nil {
		return Fragment{}
	}
	return e.Loe(*v)
}
