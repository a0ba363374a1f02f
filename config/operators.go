package config

import (
	"fmt"
	"strings"
)

// FilterOperators is the set of opt-in extension filter operators a deployment enables.
// Core operators (eq, from, to, term) are always available.
type FilterOperators int

const (
	OperatorNe FilterOperators = 1 << iota
	OperatorGt
	OperatorLt
	OperatorGe
	OperatorLe
	OperatorLike
	OperatorNotLike
	OperatorILike
	OperatorNotILike
	OperatorIn
	OperatorOr
	OperatorAnd
)

var filterOperatorNames = map[string]FilterOperators{
	"ne":     OperatorNe,
	"gt":     OperatorGt,
	"lt":     OperatorLt,
	"ge":     OperatorGe,
	"le":     OperatorLe,
	"like":   OperatorLike,
	"nlike":  OperatorNotLike,
	"ilike":  OperatorILike,
	"nilike": OperatorNotILike,
	"in":     OperatorIn,
	"or":     OperatorOr,
	"and":    OperatorAnd,
}

func Operators(ops ...string) (FilterOperators, error) {
	var o FilterOperators
	err := o.Add(ops...)
	return o, err
}

func (o *FilterOperators) Set(ops FilterOperators)             { *o |= ops }
func (o *FilterOperators) Clear(ops FilterOperators)           { *o &= ^ops }
func (o FilterOperators) IsSupported(ops FilterOperators) bool { return o&ops != 0 }

// Enabled reports whether the extension operator tag is part of the set
func (o FilterOperators) Enabled(name string) bool {
	op, ok := filterOperatorNames[strings.ToLower(name)]
	return ok && o.IsSupported(op)
}

func (o *FilterOperators) Add(ops ...string) error {
	for _, name := range ops {
		if strings.ToLower(name) == "all" {
			for _, op := range filterOperatorNames {
				o.Set(op)
			}
			continue
		}
		op, ok := filterOperatorNames[strings.ToLower(name)]
		if !ok {
			return fmt.Errorf("invalid filter operator: %s", name)
		}
		o.Set(op)
	}
	return nil
}
