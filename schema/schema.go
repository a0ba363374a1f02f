package schema

import (
	"fmt"
	"sort"

	"github.com/letterbox/mailbox-data-api/types"
)

// Schema is the immutable set of entities known to the process
type Schema struct {
	entities map[string]*Entity
}

func NewSchema(defs ...TableDefinition) (*Schema, error) {
	s := &Schema{entities: make(map[string]*Entity, len(defs))}
	for _, def := range defs {
		entity, err := NewEntity(def)
		if err != nil {
			return nil, err
		}
		if _, ok := s.entities[entity.Name()]; ok {
			return nil, fmt.Errorf("table '%s' is declared twice", entity.Name())
		}
		s.entities[entity.Name()] = entity
	}

	for _, entity := range s.entities {
		for _, fk := range entity.foreignKeys {
			if _, ok := s.entities[fk.References]; !ok {
				return nil, fmt.Errorf("foreign key '%s.%s' references unknown table '%s'",
					entity.Name(), fk.Column, fk.References)
			}
		}
	}

	return s, nil
}

// Entity returns the entity named by table or a TableDoesNotExist error
func (s *Schema) Entity(table string) (*Entity, error) {
	entity, ok := s.entities[table]
	if !ok {
		return nil, types.NewTableDoesNotExistError(table)
	}
	return entity, nil
}

// Tables returns the sorted table names
func (s *Schema) Tables() []string {
	names := make([]string, 0, len(s.entities))
	for name := range s.entities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
