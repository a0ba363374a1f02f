package filter

import (
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/letterbox/mailbox-data-api/types"
)

// Operator is the canonical tag of a compilation rule
type Operator string

const (
	OpEq   Operator = "eq"
	OpFrom Operator = "from"
	OpTo   Operator = "to"
	OpTerm Operator = "term"

	OpNe       Operator = "ne"
	OpGt       Operator = "gt"
	OpLt       Operator = "lt"
	OpGe       Operator = "ge"
	OpLe       Operator = "le"
	OpLike     Operator = "like"
	OpNotLike  Operator = "nlike"
	OpILike    Operator = "ilike"
	OpNotILike Operator = "nilike"
	OpIn       Operator = "in"
	OpOr       Operator = "or"
	OpAnd      Operator = "and"
)

var aliases = map[string]Operator{
	"=": OpEq,
	"t": OpTerm,
}

var (
	eqTypes      = []types.SemanticType{types.TypeString, types.TypeInteger, types.TypeBoolean, types.TypeTimestamp}
	likeTypes    = []types.SemanticType{types.TypeString}
	compareTypes = []types.SemanticType{types.TypeInteger, types.TypeTimestamp}
	inTypes      = []types.SemanticType{types.TypeString, types.TypeInteger, types.TypeTimestamp}
)

// buildFn turns quoted columns and coerced values into a predicate expression
type buildFn func(columns []string, values []interface{}) sq.Sqlizer

type rule struct {
	operator Operator
	allowed  []types.SemanticType
	// multiColumn rules apply the comparison to every target column
	multiColumn bool
	// multiValue rules take a list of values
	multiValue bool
	// pattern rules receive the raw value wrapped as a LIKE pattern
	pattern func(string) string
	build   buildFn
	core    bool
}

func (r *rule) allows(t types.SemanticType) bool {
	for _, allowed := range r.allowed {
		if allowed == t {
			return true
		}
	}
	return false
}

var rules = map[Operator]*rule{
	OpEq: {allowed: eqTypes, core: true, build: func(c []string, v []interface{}) sq.Sqlizer {
		return sq.Eq{c[0]: v[0]}
	}},
	OpFrom: {allowed: compareTypes, core: true, build: func(c []string, v []interface{}) sq.Sqlizer {
		return sq.GtOrEq{c[0]: v[0]}
	}},
	OpTo: {allowed: compareTypes, core: true, build: func(c []string, v []interface{}) sq.Sqlizer {
		return sq.LtOrEq{c[0]: v[0]}
	}},
	OpTerm: {allowed: likeTypes, core: true, multiColumn: true, pattern: containsPattern,
		build: func(c []string, v []interface{}) sq.Sqlizer {
			or := make(sq.Or, 0, len(c))
			for _, column := range c {
				or = append(or, sq.Expr(column+" LIKE ? ESCAPE '\\'", v[0]))
			}
			return or
		}},

	OpNe: {allowed: eqTypes, build: func(c []string, v []interface{}) sq.Sqlizer {
		return sq.NotEq{c[0]: v[0]}
	}},
	OpGt: {allowed: compareTypes, build: func(c []string, v []interface{}) sq.Sqlizer {
		return sq.Gt{c[0]: v[0]}
	}},
	OpLt: {allowed: compareTypes, build: func(c []string, v []interface{}) sq.Sqlizer {
		return sq.Lt{c[0]: v[0]}
	}},
	OpGe: {allowed: compareTypes, build: func(c []string, v []interface{}) sq.Sqlizer {
		return sq.GtOrEq{c[0]: v[0]}
	}},
	OpLe: {allowed: compareTypes, build: func(c []string, v []interface{}) sq.Sqlizer {
		return sq.LtOrEq{c[0]: v[0]}
	}},
	OpLike: {allowed: likeTypes, build: func(c []string, v []interface{}) sq.Sqlizer {
		return sq.Like{c[0]: v[0]}
	}},
	OpNotLike: {allowed: likeTypes, build: func(c []string, v []interface{}) sq.Sqlizer {
		return sq.NotLike{c[0]: v[0]}
	}},
	// LOWER keeps the case-insensitive variants portable, ILIKE is Postgres only
	OpILike: {allowed: likeTypes, build: func(c []string, v []interface{}) sq.Sqlizer {
		return sq.Expr("LOWER("+c[0]+") LIKE LOWER(?)", v[0])
	}},
	OpNotILike: {allowed: likeTypes, build: func(c []string, v []interface{}) sq.Sqlizer {
		return sq.Expr("LOWER("+c[0]+") NOT LIKE LOWER(?)", v[0])
	}},
	OpIn: {allowed: inTypes, multiValue: true, build: func(c []string, v []interface{}) sq.Sqlizer {
		return sq.Eq{c[0]: v}
	}},
	OpOr: {allowed: eqTypes, multiColumn: true, build: func(c []string, v []interface{}) sq.Sqlizer {
		or := make(sq.Or, 0, len(c))
		for _, column := range c {
			or = append(or, sq.Eq{column: v[0]})
		}
		return or
	}},
	OpAnd: {allowed: eqTypes, multiColumn: true, build: func(c []string, v []interface{}) sq.Sqlizer {
		and := make(sq.And, 0, len(c))
		for _, column := range c {
			and = append(and, sq.Eq{column: v[0]})
		}
		return and
	}},
}

func init() {
	for op, r := range rules {
		r.operator = op
	}
}

// resolve maps an operator tag, or one of its aliases, to its compilation rule
func resolve(tag string) (*rule, error) {
	name := strings.ToLower(tag)
	if op, ok := aliases[name]; ok {
		name = string(op)
	}
	if r, ok := rules[Operator(name)]; ok {
		return r, nil
	}
	return nil, types.NewOperatorDoesNotExistError(tag)
}

// IsExtension reports whether the operator tag is an opt-in extension rather than a core operator
func IsExtension(tag string) bool {
	r, err := resolve(tag)
	return err == nil && !r.core
}

// Operators returns every operator the compiler can resolve
func Operators() []Operator {
	return []Operator{OpEq, OpFrom, OpTo, OpTerm, OpNe, OpGt, OpLt, OpGe, OpLe,
		OpLike, OpNotLike, OpILike, OpNotILike, OpIn, OpOr, OpAnd}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func containsPattern(value string) string {
	return "%" + likeEscaper.Replace(value) + "%"
}

// QuoteIdentifier renders an identifier, several column names ("user", "to") are reserved words
func QuoteIdentifier(identifier string) string {
	return `"` + strings.ReplaceAll(identifier, `"`, `""`) + `"`
}
