package schema

import "github.com/letterbox/mailbox-data-api/types"

const (
	TableUser    = "user"
	TableLetter  = "letter"
	TableStar    = "star"
	TableMailbox = "mailbox"
)

// MailboxTables returns the definitions of the persisted mailbox entities
func MailboxTables() []TableDefinition {
	return []TableDefinition{
		{
			Name: TableUser,
			Columns: []Column{
				{Name: "id", Type: types.TypeInteger},
				{Name: "username", Type: types.TypeString},
				{Name: "password_hash", Type: types.TypeString, Nullable: true},
			},
			PrimaryKey: "id",
		},
		{
			Name: TableLetter,
			Columns: []Column{
				{Name: "id", Type: types.TypeInteger},
				// id from the mail server
				{Name: "id_external", Type: types.TypeInteger, Nullable: true},
				{Name: "sender", Type: types.TypeString},
				{Name: "to", Type: types.TypeString, Default: " "},
				{Name: "subject", Type: types.TypeString, Nullable: true},
				{Name: "body", Type: types.TypeString, Default: " "},
				{Name: "user", Type: types.TypeInteger},
				{Name: "size", Type: types.TypeInteger},
				{Name: "star", Type: types.TypeInteger, Nullable: true},
				{Name: "ts", Type: types.TypeTimestamp},
				{Name: "mailbox", Type: types.TypeInteger},
				{Name: "is_important", Type: types.TypeBoolean, Nullable: true, Default: false},
				{Name: "is_read", Type: types.TypeBoolean},
			},
			PrimaryKey: "id",
			Owner:      "user",
			ForeignKeys: []ForeignKey{
				{Column: "user", References: TableUser},
				{Column: "star", References: TableStar},
				{Column: "mailbox", References: TableMailbox},
			},
			DefaultOrder: []OrderTerm{{Column: "ts", Descending: true}, {Column: "id"}},
		},
		{
			Name: TableStar,
			Columns: []Column{
				{Name: "id", Type: types.TypeInteger},
				{Name: "name", Type: types.TypeString},
			},
			PrimaryKey: "id",
		},
		{
			Name: TableMailbox,
			Columns: []Column{
				{Name: "id", Type: types.TypeInteger},
				{Name: "name", Type: types.TypeString},
				{Name: "is_custom", Type: types.TypeBoolean, Nullable: true, Default: true},
				{Name: "user", Type: types.TypeInteger, Nullable: true},
			},
			PrimaryKey:  "id",
			Owner:       "user",
			ForeignKeys: []ForeignKey{{Column: "user", References: TableUser}},
		},
	}
}

func NewMailboxSchema() (*Schema, error) {
	return NewSchema(MailboxTables()...)
}
