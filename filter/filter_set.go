package filter

import (
	sq "github.com/Masterminds/squirrel"
)

// Predicate is one compiled condition over one or more columns
type Predicate struct {
	columns  []string
	operator Operator
	values   []interface{}
	expr     sq.Sqlizer
}

func (p Predicate) Columns() []string {
	return append([]string(nil), p.columns...)
}

func (p Predicate) Operator() Operator {
	return p.operator
}

// Values returns the coerced values bound by the predicate
func (p Predicate) Values() []interface{} {
	return append([]interface{}(nil), p.values...)
}

// ToSql renders the predicate with "?" placeholders
func (p Predicate) ToSql() (string, []interface{}, error) {
	return p.expr.ToSql()
}

// FilterSet is an immutable ordered list of predicates combined with AND
type FilterSet struct {
	predicates []Predicate
}

func NewFilterSet(predicates ...Predicate) *FilterSet {
	return &FilterSet{predicates: append([]Predicate(nil), predicates...)}
}

// List returns the predicates in insertion order
func (f *FilterSet) List() []Predicate {
	if f == nil {
		return nil
	}
	return append([]Predicate(nil), f.predicates...)
}

func (f *FilterSet) Len() int {
	if f == nil {
		return 0
	}
	return len(f.predicates)
}

func (f *FilterSet) Empty() bool {
	return f.Len() == 0
}

// With returns a new set holding the predicates of f followed by the ones of other
func (f *FilterSet) With(other *FilterSet) *FilterSet {
	return NewFilterSet(append(f.List(), other.List()...)...)
}

// Sqlizer returns the AND combination of the predicates
func (f *FilterSet) Sqlizer() sq.Sqlizer {
	and := make(sq.And, 0, f.Len())
	for _, p := range f.List() {
		and = append(and, p)
	}
	return and
}
