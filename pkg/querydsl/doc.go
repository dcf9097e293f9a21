// Package querydsl builds type-safe SQL queries from typed column
// expressions and composable predicate fragments.
//
// Statements are rendered with squirrel and executed through an Executor,
// so the same query runs against any backend that implements it. Query
// results are mapped into Go values by a Projection: a single column, a
// Tuple, a struct populated by setters or fields, or a constructor.
package querydsl
