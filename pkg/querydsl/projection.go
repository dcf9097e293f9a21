package querydsl

import (
	"reflect"
	"strings"
	"unicode"

	"github.com/jmoiron/sqlx/reflectx"
)

// Projection maps the selected expressions of one row onto a T.
type Projection[T any] interface {
	Columns() []Expression
	// Validate reports an *InvalidProjectionError when the expressions cannot
	// be mapped onto T.
	Validate() error
	// Row allocates scan destinations for one row and returns a function
	// that assembles the value once they have been filled.
	Row() ([]any, func() (T, error))
}

// compatible reports whether a destination of type dst can receive a value
// of type src, either directly or through a pointer that keeps NULL.
func compatible(dst, src reflect.Type) bool {
	return dst == src || (dst.Kind() == reflect.Pointer && dst.Elem() == src)
}

func failRow[T any](err error) func() (T, error) {
	return func() (T, error) {
		var zero T
		return zero, err
	}
}

func typeName[T any]() string {
	return reflect.TypeFor[T]().String()
}

type single[T any] struct {
	expr Expr[T]
}

// Single projects one expression.
func Single[T any](e Expr[T]) Projection[T] {
	return single[T]{expr: e}
}

func (p single[T]) Columns() []Expression { return []Expression{p.expr} }

func (p single[T]) Validate() error { return p.expr.err }

func (p single[T]) Row() ([]any, func() (T, error)) {
	v := new(T)
	return []any{v}, func() (T, error) { return *v, nil }
}

// Tuple is an untyped row. Read values back with ValueOf.
type Tuple struct {
	keys   []string
	values []any
}

func (t Tuple) Len() int {
	return len(t.values)
}

// Get returns the i-th value, nil when it was NULL.
func (t Tuple) Get(i int) any {
	return t.values[i]
}

// ValueOf returns the value selected for e. The second result is false if e
// was not selected or the value was NULL.
func ValueOf[T any](t Tuple, e Expr[T]) (T, bool) {
	var zero T
	key, _, err := e.selectSQL()
	if err != nil {
		return zero, false
	}
	for i, k := range t.keys {
		if k != key {
			continue
		}
		v, ok := t.values[i].(T)
		return v, ok
	}
	return zero, false
}

type tuple struct {
	exprs []Expression
}

func TupleOf(exprs ...Expression) Projection[Tuple] {
	return tuple{exprs: exprs}
}

func (p tuple) Columns() []Expression { return p.exprs }

func (p tuple) Validate() error {
	if len(p.exprs) == 0 {
		return invalidProjection("Tuple", "no expressions selected")
	}
	for _, e := range p.exprs {
		if _, _, err := e.selectSQL(); err != nil {
			return err
		}
	}
	return nil
}

func (p tuple) Row() ([]any, func() (Tuple, error)) {
	dest := make([]any, len(p.exprs))
	holders := make([]reflect.Value, len(p.exprs))
	for i, e := range p.exprs {
		// Scan through a pointer so NULL is representable for any type.
		holder := e.Type()
		if holder.Kind() != reflect.Pointer {
			holder = reflect.PointerTo(holder)
		}
		holders[i] = reflect.New(holder)
		dest[i] = holders[i].Interface()
	}
	return dest, func() (Tuple, error) {
		t := Tuple{keys: make([]string, len(p.exprs)), values: make([]any, len(p.exprs))}
		for i, e := range p.exprs {
			t.keys[i], _, _ = e.selectSQL()
			ptr := holders[i].Elem()
			switch {
			case ptr.IsNil():
			case e.Type().Kind() == reflect.Pointer:
				t.values[i] = ptr.Interface()
			default:
				t.values[i] = ptr.Elem().Interface()
			}
		}
		return t, nil
	}
}

type bean[T any] struct {
	exprs []Expression
}

// Bean projects into a struct by calling Set<Label> methods on *T, one per
// selected expression. Snake-case labels map to camel-case setters.
func Bean[T any](exprs ...Expression) Projection[T] {
	return bean[T]{exprs: exprs}
}

func (p bean[T]) Columns() []Expression { return p.exprs }

func (p bean[T]) setters() ([]reflect.Method, error) {
	target := reflect.TypeFor[T]()
	if target.Kind() != reflect.Struct {
		return nil, invalidProjection(target.String(), "bean projection needs a struct type")
	}
	ptr := reflect.PointerTo(target)
	methods := make([]reflect.Method, len(p.exprs))
	for i, e := range p.exprs {
		label := e.Label()
		if label == "" {
			return nil, invalidProjection(target.String(), "expression %d has no label, use As", i)
		}
		name := "Set" + camel(label)
		m, ok := ptr.MethodByName(name)
		if !ok {
			return nil, invalidProjection(target.String(), "no setter %s for %q", name, label)
		}
		// In(0) is the receiver.
		if m.Type.NumIn() != 2 {
			return nil, invalidProjection(target.String(), "setter %s must take one argument", name)
		}
		if !compatible(m.Type.In(1), e.Type()) {
			return nil, invalidProjection(target.String(), "setter %s takes %s, %q selects %s", name, m.Type.In(1), label, e.Type())
		}
		methods[i] = m
	}
	return methods, nil
}

func (p bean[T]) Validate() error {
	_, err := p.setters()
	return err
}

func (p bean[T]) Row() ([]any, func() (T, error)) {
	methods, err := p.setters()
	if err != nil {
		return nil, failRow[T](err)
	}
	dest := make([]any, len(methods))
	holders := make([]reflect.Value, len(methods))
	for i, m := range methods {
		holders[i] = reflect.New(m.Type.In(1))
		dest[i] = holders[i].Interface()
	}
	return dest, func() (T, error) {
		v := reflect.New(reflect.TypeFor[T]())
		for i, m := range methods {
			m.Func.Call([]reflect.Value{v, holders[i].Elem()})
		}
		return v.Elem().Interface().(T), nil
	}
}

type fields[T any] struct {
	exprs  []Expression
	mapper *reflectx.Mapper
}

var fieldMapper = reflectx.NewMapperFunc("db", strings.ToLower)

// Fields projects into a struct by assigning fields directly. Labels are
// matched against `db` tags first and lower-cased field names second.
func Fields[T any](exprs ...Expression) Projection[T] {
	return fields[T]{exprs: exprs, mapper: fieldMapper}
}

func (p fields[T]) Columns() []Expression { return p.exprs }

func (p fields[T]) traversals() ([][]int, error) {
	target := reflect.TypeFor[T]()
	if target.Kind() != reflect.Struct {
		return nil, invalidProjection(target.String(), "field projection needs a struct type")
	}
	labels := make([]string, len(p.exprs))
	for i, e := range p.exprs {
		if labels[i] = e.Label(); labels[i] == "" {
			return nil, invalidProjection(target.String(), "expression %d has no label, use As", i)
		}
	}
	traversals := p.mapper.TraversalsByName(target, labels)
	for i, idx := range traversals {
		if len(idx) == 0 {
			return nil, invalidProjection(target.String(), "no field for %q", labels[i])
		}
		field := target.FieldByIndex(idx)
		if !compatible(field.Type, p.exprs[i].Type()) {
			return nil, invalidProjection(target.String(), "field %s is %s, %q selects %s", field.Name, field.Type, labels[i], p.exprs[i].Type())
		}
	}
	return traversals, nil
}

func (p fields[T]) Validate() error {
	_, err := p.traversals()
	return err
}

func (p fields[T]) Row() ([]any, func() (T, error)) {
	traversals, err := p.traversals()
	if err != nil {
		return nil, failRow[T](err)
	}
	v := reflect.New(reflect.TypeFor[T]()).Elem()
	dest := make([]any, len(traversals))
	for i, idx := range traversals {
		dest[i] = reflectx.FieldByIndexes(v, idx).Addr().Interface()
	}
	return dest, func() (T, error) { return v.Interface().(T), nil }
}

type constructor[T any] struct {
	fn    reflect.Value
	exprs []Expression
}

// Constructor projects by calling fn with the selected values in order.
// fn must be a func returning T; arity and argument types are checked when
// the query is built.
func Constructor[T any](fn any, exprs ...Expression) Projection[T] {
	return constructor[T]{fn: reflect.ValueOf(fn), exprs: exprs}
}

func (p constructor[T]) Columns() []Expression { return p.exprs }

func (p constructor[T]) Validate() error {
	target := typeName[T]()
	if !p.fn.IsValid() || p.fn.Kind() != reflect.Func {
		return invalidProjection(target, "constructor is not a function")
	}
	ft := p.fn.Type()
	if ft.IsVariadic() {
		return invalidProjection(target, "variadic constructors are not supported")
	}
	if ft.NumOut() != 1 || ft.Out(0) != reflect.TypeFor[T]() {
		return invalidProjection(target, "constructor must return exactly %s", target)
	}
	if ft.NumIn() != len(p.exprs) {
		return invalidProjection(target, "constructor takes %d arguments, %d selected", ft.NumIn(), len(p.exprs))
	}
	for i, e := range p.exprs {
		if !compatible(ft.In(i), e.Type()) {
			return invalidProjection(target, "argument %d is %s, selected %s", i, ft.In(i), e.Type())
		}
	}
	return nil
}

func (p constructor[T]) Row() ([]any, func() (T, error)) {
	if err := p.Validate(); err != nil {
		return nil, failRow[T](err)
	}
	ft := p.fn.Type()
	dest := make([]any, ft.NumIn())
	holders := make([]reflect.Value, ft.NumIn())
	for i := range holders {
		holders[i] = reflect.New(ft.In(i))
		dest[i] = holders[i].Interface()
	}
	return dest, func() (T, error) {
		in := make([]reflect.Value, len(holders))
		for i, h := range holders {
			in[i] = h.Elem()
		}
		return p.fn.Call(in)[0].Interface().(T), nil
	}
}

type typed[T any] struct {
	exprs []Expression
	row   func() ([]any, func() T)
}

func (p typed[T]) Columns() []Expression { return p.exprs }

func (p typed[T]) Validate() error {
	for _, e := range p.exprs {
		if _, _, err := e.selectSQL(); err != nil {
			return err
		}
	}
	return nil
}

func (p typed[T]) Row() ([]any, func() (T, error)) {
	dest, build := p.row()
	return dest, func() (T, error) { return build(), nil }
}

// Construct2 projects through a two-argument constructor checked at
// compile time.
func Construct2[A, B, T any](fn func(A, B) T, a Expr[A], b Expr[B]) Projection[T] {
	return typed[T]{
		exprs: []Expression{a, b},
		row: func() ([]any, func() T) {
			pa, pb := new(A), new(B)
			return []any{pa, pb}, func() T { return fn(*pa, *pb) }
		},
	}
}

func Construct3[A, B, C, T any](fn func(A, B, C) T, a Expr[A], b Expr[B], c Expr[C]) Projection[T] {
	return typed[T]{
		exprs: []Expression{a, b, c},
		row: func() ([]any, func() T) {
			pa, pb, pc := new(A), new(B), new(C)
			return []any{pa, pb, pc}, func() T { return fn(*pa, *pb, *pc) }
		},
	}
}

func Construct4[A, B, C, D, T any](fn func(A, B, C, D) T, a Expr[A], b Expr[B], c Expr[C], d Expr[D]) Projection[T] {
	return typed[T]{
		exprs: []Expression{a, b, c, d},
		row: func() ([]any, func() T) {
			pa, pb, pc, pd := new(A), new(B), new(C), new(D)
			return []any{pa, pb, pc, pd}, func() T { return fn(*pa, *pb, *pc, *pd) }
		},
	}
}

func Construct5[A, B, C, D, E, T any](fn func(A, B, C, D, E) T, a Expr[A], b Expr[B], c Expr[C], d Expr[D], e Expr[E]) Projection[T] {
	return typed[T]{
		exprs: []Expression{a, b, c, d, e},
		row: func() ([]any, func() T) {
			pa, pb, pc, pd, pe := new(A), new(B), new(C), new(D), new(E)
			return []any{pa, pb, pc, pd, pe}, func() T { return fn(*pa, *pb, *pc, *pd, *pe) }
		},
	}
}

// camel turns team_name into TeamName and username into Username.
func camel(label string) string {
	var b strings.Builder
	upper := true
	for _, r := range label {
		if r == '_' {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
