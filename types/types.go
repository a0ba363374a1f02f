// types package contains the public API types
// that are shared between the filter compiler, the repository and the REST layer
package types

import "net/http"

// SemanticType is the logical type of a column, independent of the storage encoding
type SemanticType int

const (
	TypeString SemanticType = iota + 1
	TypeInteger
	TypeBoolean
	TypeTimestamp
)

var semanticTypeNames = map[SemanticType]string{
	TypeString:    "string",
	TypeInteger:   "integer",
	TypeBoolean:   "boolean",
	TypeTimestamp: "timestamp",
}

func (t SemanticType) String() string {
	if name, ok := semanticTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// Record represents one persisted row as column name to typed value
type Record map[string]interface{}

// Query is the raw client supplied mapping of filter key to value. Values are strings, lists of strings
// or, when the query comes from a JSON body, JSON scalars.
type Query map[string]interface{}

type InsertResult struct {
	InsertedPK int64 `json:"inserted_pk"`
}

type UpdateResult struct {
	UpdatedRows int64 `json:"updated_rows"`
}

type DeleteResult struct {
	DeletedRows int64 `json:"deleted_rows"`
}

type QueryResult struct {
	Data []map[string]interface{} `json:"data"`
}

type SendResult struct {
	Sent bool `json:"sent"`
}

// Route represents a request route to be served
type Route struct {
	Method  string
	Pattern string
	Handler http.Handler
}
