package schema

import (
	"fmt"

	"github.com/letterbox/mailbox-data-api/types"
)

// Column describes a single column of an entity
type Column struct {
	Name     string
	Type     types.SemanticType
	Nullable bool
	// Default is applied by the service when a create payload omits the column
	Default interface{}
}

// ForeignKey binds a column to the primary key of another entity
type ForeignKey struct {
	Column     string
	References string
}

type OrderTerm struct {
	Column     string
	Descending bool
}

func (o OrderTerm) String() string {
	if o.Descending {
		return o.Column + " desc"
	}
	return o.Column
}

// TableDefinition is the declarative form of an entity
type TableDefinition struct {
	Name         string
	Columns      []Column
	PrimaryKey   string
	Owner        string
	ForeignKeys  []ForeignKey
	DefaultOrder []OrderTerm
}

// Entity is the immutable description of one table
type Entity struct {
	name         string
	columns      []Column
	index        map[string]int
	primaryKey   string
	owner        string
	foreignKeys  []ForeignKey
	defaultOrder []OrderTerm
}

// NewEntity validates a definition and freezes it
func NewEntity(def TableDefinition) (*Entity, error) {
	if def.Name == "" {
		return nil, fmt.Errorf("table name is required")
	}

	entity := &Entity{
		name:         def.Name,
		columns:      make([]Column, len(def.Columns)),
		index:        make(map[string]int, len(def.Columns)),
		primaryKey:   def.PrimaryKey,
		owner:        def.Owner,
		foreignKeys:  append([]ForeignKey(nil), def.ForeignKeys...),
		defaultOrder: append([]OrderTerm(nil), def.DefaultOrder...),
	}

	for i, column := range def.Columns {
		if _, ok := entity.index[column.Name]; ok {
			return nil, fmt.Errorf("table '%s' declares column '%s' twice", def.Name, column.Name)
		}
		if _, ok := semanticTypes[column.Type]; !ok {
			return nil, fmt.Errorf("column '%s.%s' has an unknown type", def.Name, column.Name)
		}
		entity.columns[i] = column
		entity.index[column.Name] = i
	}

	check := func(column, role string) error {
		if _, ok := entity.index[column]; !ok {
			return fmt.Errorf("%s column '%s' is not a column of table '%s'", role, column, def.Name)
		}
		return nil
	}

	if err := check(def.PrimaryKey, "primary key"); err != nil {
		return nil, err
	}
	if def.Owner != "" {
		if err := check(def.Owner, "owner"); err != nil {
			return nil, err
		}
	}
	for _, fk := range def.ForeignKeys {
		if err := check(fk.Column, "foreign key"); err != nil {
			return nil, err
		}
	}
	for _, order := range def.DefaultOrder {
		if err := check(order.Column, "order"); err != nil {
			return nil, err
		}
	}

	return entity, nil
}

var semanticTypes = map[types.SemanticType]bool{
	types.TypeString:    true,
	types.TypeInteger:   true,
	types.TypeBoolean:   true,
	types.TypeTimestamp: true,
}

func (e *Entity) Name() string {
	return e.name
}

func (e *Entity) PrimaryKey() string {
	return e.primaryKey
}

// OwnerColumn returns the column stamped with the acting user on creation, empty when the entity has none
func (e *Entity) OwnerColumn() string {
	return e.owner
}

func (e *Entity) Column(name string) (Column, bool) {
	i, ok := e.index[name]
	if !ok {
		return Column{}, false
	}
	return e.columns[i], true
}

// Columns returns the columns in declaration order
func (e *Entity) Columns() []Column {
	return append([]Column(nil), e.columns...)
}

func (e *Entity) ColumnNames() []string {
	names := make([]string, len(e.columns))
	for i, column := range e.columns {
		names[i] = column.Name
	}
	return names
}

func (e *Entity) ForeignKeys() []ForeignKey {
	return append([]ForeignKey(nil), e.foreignKeys...)
}

// DefaultOrder returns the configured ordering, falling back to the primary key
func (e *Entity) DefaultOrder() []OrderTerm {
	if len(e.defaultOrder) == 0 {
		return []OrderTerm{{Column: e.primaryKey}}
	}
	return append([]OrderTerm(nil), e.defaultOrder...)
}
