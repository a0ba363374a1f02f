package filter

import (
	"fmt"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/atomic"

	"github.com/letterbox/mailbox-data-api/config"
	"github.com/letterbox/mailbox-data-api/log"
	"github.com/letterbox/mailbox-data-api/schema"
	"github.com/letterbox/mailbox-data-api/types"
)

const (
	offsetKey = "offset"
	limitKey  = "limit"
)

// Binding pairs a field spec with the raw client value it was requested with
type Binding struct {
	Spec  FieldSpec
	Value interface{}
}

type Pagination struct {
	Offset  uint64
	Limit   uint64
	OrderBy []schema.OrderTerm
}

// Compiled is the result of compiling one query, it is immutable and shared through the cache
type Compiled struct {
	Filters *FilterSet
	Page    Pagination
}

type Compiler struct {
	registries *Registries
	maxLimit   uint64
	cache      *lru.Cache[string, *Compiled]
	hits       *atomic.Int64
	misses     *atomic.Int64
	logger     log.Logger
}

func NewCompiler(registries *Registries, cfg config.Config) (*Compiler, error) {
	c := &Compiler{
		registries: registries,
		maxLimit:   cfg.MaxLimit(),
		hits:       atomic.NewInt64(0),
		misses:     atomic.NewInt64(0),
		logger:     cfg.Logger(),
	}
	if c.maxLimit == 0 {
		c.maxLimit = config.DefaultMaxLimit
	}

	if size := cfg.FilterCacheSize(); size > 0 {
		cache, err := lru.New[string, *Compiled](size)
		if err != nil {
			return nil, err
		}
		c.cache = cache
		c.logger.Debug("filter compile cache enabled", "size", size)
	}
	return c, nil
}

// Compile turns bindings into a filter set. The operator, the columns and the values of every binding
// are checked again here even though registries validate their specs at startup.
func (c *Compiler) Compile(entity *schema.Entity, bindings []Binding) (*FilterSet, error) {
	predicates := make([]Predicate, 0, len(bindings))
	for _, binding := range bindings {
		predicate, err := compilePredicate(entity, binding)
		if err != nil {
			return nil, err
		}
		predicates = append(predicates, predicate)
	}
	return NewFilterSet(predicates...), nil
}

func compilePredicate(entity *schema.Entity, binding Binding) (Predicate, error) {
	spec := binding.Spec
	rule, err := resolve(spec.Operator)
	if err != nil {
		return Predicate{}, err
	}

	names := spec.Columns
	if len(names) == 0 {
		names = []string{spec.Key}
	}
	if len(names) > 1 && !rule.multiColumn {
		return Predicate{}, types.NewFilterOperatorNotAllowedError(spec.Operator, strings.Join(names, ","), spec.Type)
	}

	var semanticType types.SemanticType
	quoted := make([]string, len(names))
	for i, name := range names {
		column, ok := entity.Column(name)
		if !ok {
			return Predicate{}, types.NewFieldDoesNotExistError(entity.Name(), name)
		}
		if !rule.allows(column.Type) || (i > 0 && column.Type != semanticType) {
			return Predicate{}, types.NewFilterOperatorNotAllowedError(spec.Operator, name, column.Type)
		}
		semanticType = column.Type
		quoted[i] = QuoteIdentifier(name)
	}

	raw, err := rawValues(binding.Value, rule.multiValue)
	if err != nil {
		return Predicate{}, err
	}

	values := make([]interface{}, len(raw))
	for i, value := range raw {
		coerced, err := types.Coerce(value, semanticType)
		if err != nil {
			return Predicate{}, err
		}
		if rule.pattern != nil {
			coerced = rule.pattern(coerced.(string))
		}
		values[i] = coerced
	}

	return Predicate{
		columns:  append([]string(nil), names...),
		operator: rule.operator,
		values:   values,
		expr:     rule.build(quoted, values),
	}, nil
}

// rawValues flattens a raw value. For operators taking several values every string is split as CSV,
// operators taking one value use the first element of a list.
func rawValues(value interface{}, multi bool) ([]interface{}, error) {
	var values []interface{}
	switch v := value.(type) {
	case []string:
		for _, s := range v {
			values = append(values, s)
		}
	case []interface{}:
		values = append(values, v...)
	default:
		values = []interface{}{v}
	}

	if multi {
		expanded := make([]interface{}, 0, len(values))
		for _, v := range values {
			s, ok := v.(string)
			if !ok {
				expanded = append(expanded, v)
				continue
			}
			parts, err := splitList(s)
			if err != nil {
				return nil, types.NewValueCoercionError(value, "a list", err)
			}
			for _, part := range parts {
				expanded = append(expanded, part)
			}
		}
		values = expanded
	}

	if len(values) == 0 {
		return nil, types.NewValueCoercionError(value, "a filter value", nil)
	}
	for _, v := range values {
		if v == nil {
			return nil, types.NewValueCoercionError(value, "a filter value", nil)
		}
	}
	if !multi {
		values = values[:1]
	}
	return values, nil
}

// CompileQuery resolves the registry of table, drops unknown keys, binds the registered ones in
// declaration order and resolves the pagination.
func (c *Compiler) CompileQuery(table string, query types.Query) (*Compiled, error) {
	registry, err := c.registries.For(table)
	if err != nil {
		return nil, err
	}

	key := cacheKey(table, query)
	if c.cache != nil {
		if compiled, ok := c.cache.Get(key); ok {
			c.hits.Inc()
			return compiled, nil
		}
		c.misses.Inc()
	}

	normalized := normalizeQuery(query)

	page, err := c.pagination(registry, normalized)
	if err != nil {
		return nil, err
	}

	bindings := make([]Binding, 0, len(normalized))
	for _, spec := range registry.specs {
		if value, ok := normalized[spec.Key]; ok {
			bindings = append(bindings, Binding{Spec: spec, Value: value})
		}
	}

	filters, err := c.Compile(registry.Entity(), bindings)
	if err != nil {
		return nil, err
	}

	compiled := &Compiled{Filters: filters, Page: page}
	if c.cache != nil {
		c.cache.Add(key, compiled)
	}
	return compiled, nil
}

func (c *Compiler) pagination(registry *Registry, query map[string]interface{}) (Pagination, error) {
	defaults := registry.Defaults()
	page := Pagination{Offset: defaults.Offset, Limit: defaults.Limit, OrderBy: defaults.OrderBy}

	if raw, ok := query[offsetKey]; ok {
		offset, err := toCount(raw)
		if err != nil {
			return Pagination{}, err
		}
		page.Offset = offset
	}
	if raw, ok := query[limitKey]; ok {
		limit, err := toCount(raw)
		if err != nil {
			return Pagination{}, err
		}
		if limit == 0 {
			return Pagination{}, types.NewValueCoercionError(raw, "a positive limit", nil)
		}
		page.Limit = limit
	}
	if page.Limit > c.maxLimit {
		page.Limit = c.maxLimit
	}

	page.OrderBy = withTieBreak(page.OrderBy, registry.Entity().PrimaryKey())
	return page, nil
}

func toCount(raw interface{}) (uint64, error) {
	values, err := rawValues(raw, false)
	if err != nil {
		return 0, err
	}
	value, err := types.ToInteger(values[0])
	if err != nil {
		return 0, err
	}
	if value.(int64) < 0 {
		return 0, types.NewValueCoercionError(raw, "a non negative integer", nil)
	}
	return uint64(value.(int64)), nil
}

// withTieBreak appends the primary key so that the ordering is total
func withTieBreak(order []schema.OrderTerm, primaryKey string) []schema.OrderTerm {
	for _, term := range order {
		if term.Column == primaryKey {
			return order
		}
	}
	return append(order, schema.OrderTerm{Column: primaryKey})
}

// normalizeQuery normalizes the keys of a query, when several raw keys collapse into the same key the
// first one in lexical order wins.
func normalizeQuery(query types.Query) map[string]interface{} {
	keys := make([]string, 0, len(query))
	for key := range query {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	normalized := make(map[string]interface{}, len(query))
	for _, key := range keys {
		nk := NormalizeKey(key)
		if _, ok := normalized[nk]; !ok {
			normalized[nk] = query[key]
		}
	}
	return normalized
}

func cacheKey(table string, query types.Query) string {
	keys := make([]string, 0, len(query))
	for key := range query {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(table)
	for _, key := range keys {
		fmt.Fprintf(&b, "\x00%s=%T:%#v", key, query[key], query[key])
	}
	return b.String()
}

// CacheStats returns the number of cache hits and misses since the compiler was created
func (c *Compiler) CacheStats() (hits int64, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
