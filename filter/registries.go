package filter

import (
	"github.com/letterbox/mailbox-data-api/config"
	"github.com/letterbox/mailbox-data-api/schema"
	"github.com/letterbox/mailbox-data-api/types"
)

// MailboxRegistries declares the filter keys clients may use for every mailbox entity
func MailboxRegistries() []RegistryDefinition {
	return []RegistryDefinition{
		{
			Table: schema.TableLetter,
			Fields: []FieldSpec{
				{Key: "id", Type: types.TypeInteger, Operator: "eq"},
				{Key: "ts_from", Columns: []string{"ts"}, Type: types.TypeTimestamp, Operator: "from"},
				{Key: "t", Columns: []string{"sender", "to", "subject"}, Type: types.TypeString, Operator: "T"},
				{Key: "sender", Type: types.TypeString, Operator: "="},
				{Key: "sender_in", Columns: []string{"sender"}, Type: types.TypeString, Operator: "in"},
				{Key: "user", Type: types.TypeInteger, Operator: "eq"},
				{Key: "ts_to", Columns: []string{"ts"}, Type: types.TypeTimestamp, Operator: "to"},
			},
			Defaults: Defaults{
				Offset:  DefaultOffset,
				Limit:   DefaultLimit,
				OrderBy: []schema.OrderTerm{{Column: "ts", Descending: true}, {Column: "id"}},
			},
		},
		{
			Table: schema.TableUser,
			Fields: []FieldSpec{
				{Key: "id", Type: types.TypeInteger, Operator: "eq"},
				{Key: "username", Type: types.TypeString, Operator: "eq"},
			},
		},
		{
			Table: schema.TableStar,
			Fields: []FieldSpec{
				{Key: "id", Type: types.TypeInteger, Operator: "eq"},
				{Key: "name", Type: types.TypeString, Operator: "eq"},
			},
		},
		{
			Table: schema.TableMailbox,
			Fields: []FieldSpec{
				{Key: "id", Type: types.TypeInteger, Operator: "eq"},
				{Key: "name", Type: types.TypeString, Operator: "eq"},
				{Key: "user", Type: types.TypeInteger, Operator: "eq"},
				{Key: "is_custom", Type: types.TypeBoolean, Operator: "eq"},
			},
		},
	}
}

func NewMailboxRegistries(s *schema.Schema, enabled config.FilterOperators) (*Registries, error) {
	return NewRegistries(s, enabled, MailboxRegistries()...)
}
