package querydsl

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// Number constrains expressions that support arithmetic and SUM/AVG.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

func wrap[R, T any](format string, e Expr[T]) Expr[R] {
	if e.err != nil {
		return errExpr[R](e.err)
	}
	return newExpr[R](fmt.Sprintf(format, e.sql), e.args...)
}

func CountAll() Expr[int64] {
	return newExpr[int64]("COUNT(*)")
}

func Count[T any](e Expr[T]) Expr[int64] {
	return wrap[int64]("COUNT(%s)", e)
}

func CountDistinct[T any](e Expr[T]) Expr[int64] {
	return wrap[int64]("COUNT(DISTINCT %s)", e)
}

func Sum[T Number](e Expr[T]) Expr[T] {
	return wrap[T]("SUM(%s)", e)
}

func Avg[T Number](e Expr[T]) Expr[float64] {
	return wrap[float64]("AVG(%s)", e)
}

func Max[T any](e Expr[T]) Expr[T] {
	return wrap[T]("MAX(%s)", e)
}

func Min[T any](e Expr[T]) Expr[T] {
	return wrap[T]("MIN(%s)", e)
}

// ToFloat64 views a numeric expression as float64 so it can be compared
// with fractional values such as averages. No cast is rendered.
func ToFloat64[T Number](e Expr[T]) Expr[float64] {
	return Expr[float64]{sql: e.sql, args: e.args, err: e.err}
}

// Add is e + v.
func Add[T Number](e Expr[T], v T) Expr[T] {
	if e.err != nil {
		return errExpr[T](e.err)
	}
	lit, args := literal(v)
	return newExpr[T]("("+e.sql+" + "+lit+")", append(slices.Clone(e.args), args...)...)
}

// Concat joins string expressions with the SQL || operator.
func Concat(parts ...Expr[string]) Expr[string] {
	if len(parts) == 0 {
		return errExpr[string](fmt.Errorf("concat needs at least one operand"))
	}
	sqls := make([]string, 0, len(parts))
	var args []any
	for _, p := range parts {
		if p.err != nil {
			return errExpr[string](p.err)
		}
		sqls = append(sqls, p.sql)
		args = append(args, p.args...)
	}
	return newExpr[string]("("+strings.Join(sqls, " || ")+")", args...)
}

// StringValue casts e to a character type.
func StringValue[T any](e Expr[T]) Expr[string] {
	return wrap[string]("CAST(%s AS VARCHAR)", e)
}

func Lower(e Expr[string]) Expr[string] {
	return wrap[string]("LOWER(%s)", e)
}

func Upper(e Expr[string]) Expr[string] {
	return wrap[string]("UPPER(%s)", e)
}

// Constant selects a fixed value.
func Constant[T any](v T) Expr[T] {
	lit, args := literal(v)
	return newExpr[T](lit, args...)
}

var templateArg = regexp.MustCompile(`\{(\d+)\}`)

// Template renders a SQL function call from a pattern such as
// "replace({0}, {1}, {2})". Expression arguments are inlined, anything else
// is bound as a parameter.
func Template[T any](pattern string, args ...any) Expr[T] {
	var (
		bound []any
		err   error
	)
	sql := templateArg.ReplaceAllStringFunc(pattern, func(m string) string {
		i, _ := strconv.Atoi(m[1 : len(m)-1])
		if i >= len(args) {
			err = fmt.Errorf("template %q references missing argument %d", pattern, i)
			return m
		}
		if e, ok := args[i].(Expression); ok {
			s, a, exprErr := e.ToSql()
			if exprErr != nil {
				err = exprErr
			}
			bound = append(bound, a...)
			return s
		}
		bound = append(bound, args[i])
		return "?"
	})
	if err != nil {
		return errExpr[T](err)
	}
	return newExpr[T](sql, bound...)
}

// CaseBuilder assembles a searched CASE expression.
type CaseBuilder[R any] struct {
	arms []string
	args []any
	err  error
}

func Case[R any]() *CaseBuilder[R] {
	return &CaseBuilder[R]{}
}

func (c *CaseBuilder[R]) When(cond Fragment, then R) *CaseBuilder[R] {
	sql, args, err := cond.ToSql()
	if err == nil && sql == "" {
		err = fmt.Errorf("case arm has an absent condition")
	}
	if err != nil {
		c.err = err
		return c
	}
	lit, litArgs := literal(then)
	c.arms = append(c.arms, "WHEN "+sql+" THEN "+lit)
	c.args = append(append(c.args, args...), litArgs...)
	return c
}

func (c *CaseBuilder[R]) Otherwise(v R) Expr[R] {
	return finishCase[R]("CASE", c.arms, c.args, c.err, v)
}

// SwitchBuilder assembles a simple CASE expression over one subject.
type SwitchBuilder[V, R any] struct {
	subject Expr[V]
	arms    []string
	args    []any
}

func Switch[V, R any](subject Expr[V]) *SwitchBuilder[V, R] {
	return &SwitchBuilder[V, R]{subject: subject}
}

func (s *SwitchBuilder[V, R]) When(v V, then R) *SwitchBuilder[V, R] {
	whenLit, whenArgs := literal(v)
	thenLit, thenArgs := literal(then)
	s.arms = append(s.arms, "WHEN "+whenLit+" THEN "+thenLit)
	s.args = append(append(s.args, whenArgs...), thenArgs...)
	return s
}

func (s *SwitchBuilder[V, R]) Otherwise(v R) Expr[R] {
	return finishCase[R]("CASE "+s.subject.sql, s.arms, append(slices.Clone(s.subject.args), s.args...), s.subject.err, v)
}

func finishCase[R any](head string, arms []string, args []any, err error, otherwise R) Expr[R] {
	if err != nil {
		return errExpr[R](err)
	}
	if len(arms) == 0 {
		return errExpr[R](fmt.Errorf("case expression has no arms"))
	}
	lit, litArgs := literal(otherwise)
	sql := head + " " + strings.Join(arms, " ") + " ELSE " + lit + " END"
	return newExpr[R](sql, append(args, litArgs...)...)
}
