package filter

import (
	"encoding/csv"
	"net/url"
	"strings"

	"github.com/letterbox/mailbox-data-api/types"
)

// FromValues converts URL query values into a raw query, every value of a repeated key is kept
func FromValues(values url.Values) types.Query {
	query := make(types.Query, len(values))
	for key, v := range values {
		query[key] = append([]string(nil), v...)
	}
	return query
}

// splitList reads a CSV encoded list, empty entries are skipped
func splitList(value string) ([]string, error) {
	record, err := csv.NewReader(strings.NewReader(value)).Read()
	if err != nil {
		return nil, err
	}
	result := make([]string, 0, len(record))
	for _, part := range record {
		if part != "" {
			result = append(result, part)
		}
	}
	return result, nil
}
