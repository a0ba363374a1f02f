package filter

import (
	"fmt"
	"strings"

	"github.com/letterbox/mailbox-data-api/config"
	"github.com/letterbox/mailbox-data-api/schema"
	"github.com/letterbox/mailbox-data-api/types"
)

const (
	DefaultOffset = 0
	DefaultLimit  = 50
)

// FieldSpec maps a client facing filter key to the column(s) it filters on
type FieldSpec struct {
	Key string
	// Columns defaults to the key itself, several columns are only valid for multi column operators
	Columns  []string
	Type     types.SemanticType
	Operator string
}

// Defaults holds the pagination applied when the client omits it
type Defaults struct {
	Offset  uint64
	Limit   uint64
	OrderBy []schema.OrderTerm
}

type RegistryDefinition struct {
	Table    string
	Fields   []FieldSpec
	Defaults Defaults
}

// Registry is the immutable set of field specs of one entity
type Registry struct {
	entity   *schema.Entity
	specs    []FieldSpec
	index    map[string]int
	defaults Defaults
}

// NewRegistry validates a definition against the entity schema. Specs using an extension operator that is
// not enabled are left out of the registry so their keys are dropped like any unknown key.
func NewRegistry(entity *schema.Entity, def RegistryDefinition, enabled config.FilterOperators) (*Registry, error) {
	r := &Registry{
		entity: entity,
		index:  make(map[string]int, len(def.Fields)),
		defaults: Defaults{
			Offset:  def.Defaults.Offset,
			Limit:   def.Defaults.Limit,
			OrderBy: append([]schema.OrderTerm(nil), def.Defaults.OrderBy...),
		},
	}
	if r.defaults.Limit == 0 {
		r.defaults.Limit = DefaultLimit
	}
	if len(r.defaults.OrderBy) == 0 {
		r.defaults.OrderBy = entity.DefaultOrder()
	}
	for _, order := range r.defaults.OrderBy {
		if _, ok := entity.Column(order.Column); !ok {
			return nil, types.NewFieldDoesNotExistError(entity.Name(), order.Column)
		}
	}

	for _, field := range def.Fields {
		spec := FieldSpec{
			Key:      NormalizeKey(field.Key),
			Columns:  append([]string(nil), field.Columns...),
			Type:     field.Type,
			Operator: field.Operator,
		}
		if len(spec.Columns) == 0 {
			spec.Columns = []string{spec.Key}
		}
		if _, ok := r.index[spec.Key]; ok {
			return nil, fmt.Errorf("table '%s' declares filter key '%s' twice", entity.Name(), spec.Key)
		}
		if err := validateSpec(entity, spec); err != nil {
			return nil, fmt.Errorf("table '%s', filter key '%s': %w", entity.Name(), spec.Key, err)
		}
		if IsExtension(spec.Operator) && !enabled.Enabled(canonical(spec.Operator)) {
			continue
		}
		r.index[spec.Key] = len(r.specs)
		r.specs = append(r.specs, spec)
	}

	return r, nil
}

func validateSpec(entity *schema.Entity, spec FieldSpec) error {
	rule, err := resolve(spec.Operator)
	if err != nil {
		return err
	}
	if len(spec.Columns) > 1 && !rule.multiColumn {
		return fmt.Errorf("operator '%s' takes a single column", spec.Operator)
	}
	for _, name := range spec.Columns {
		column, ok := entity.Column(name)
		if !ok {
			return types.NewFieldDoesNotExistError(entity.Name(), name)
		}
		if column.Type != spec.Type {
			return fmt.Errorf("declared type %s does not match column '%s' of type %s", spec.Type, name, column.Type)
		}
		if !rule.allows(column.Type) {
			return types.NewFilterOperatorNotAllowedError(spec.Operator, name, column.Type)
		}
	}
	return nil
}

func canonical(tag string) string {
	rule, err := resolve(tag)
	if err != nil {
		return tag
	}
	return string(rule.operator)
}

// NormalizeKey lower cases a query key and replaces '.' by '_', "ts.from" and "TS_FROM" both become "ts_from"
func NormalizeKey(key string) string {
	return strings.ToLower(strings.ReplaceAll(key, ".", "_"))
}

func (r *Registry) Entity() *schema.Entity {
	return r.entity
}

// Lookup returns the spec registered for a client key
func (r *Registry) Lookup(key string) (FieldSpec, bool) {
	i, ok := r.index[NormalizeKey(key)]
	if !ok {
		return FieldSpec{}, false
	}
	return r.specs[i], true
}

// Specs returns the specs in declaration order
func (r *Registry) Specs() []FieldSpec {
	return append([]FieldSpec(nil), r.specs...)
}

func (r *Registry) Defaults() Defaults {
	d := r.defaults
	d.OrderBy = append([]schema.OrderTerm(nil), r.defaults.OrderBy...)
	return d
}

// Registries holds the registry of every entity
type Registries struct {
	registries map[string]*Registry
}

func NewRegistries(s *schema.Schema, enabled config.FilterOperators, defs ...RegistryDefinition) (*Registries, error) {
	rs := &Registries{registries: make(map[string]*Registry, len(defs))}
	for _, def := range defs {
		entity, err := s.Entity(def.Table)
		if err != nil {
			return nil, err
		}
		registry, err := NewRegistry(entity, def, enabled)
		if err != nil {
			return nil, err
		}
		rs.registries[def.Table] = registry
	}
	return rs, nil
}

// For returns the registry of a table or a TableDoesNotExist error
func (rs *Registries) For(table string) (*Registry, error) {
	registry, ok := rs.registries[table]
	if !ok {
		return nil, types.NewTableDoesNotExistError(table)
	}
	return registry, nil
}
