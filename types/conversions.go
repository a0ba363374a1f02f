package types

import (
	"encoding/json"
	"math"
	"net/mail"
	"strconv"
	"time"
)

// TimestampLayout is the RFC 822 style layout used to render timestamps back to clients.
// Stored timestamps carry no offset so the zone is always rendered as "-0000".
const TimestampLayout = "Mon, 02 Jan 2006 15:04:05 -0000"

type coerceFn func(value interface{}) (interface{}, error)

var coercers = map[SemanticType]coerceFn{
	TypeString:    ToString,
	TypeInteger:   ToInteger,
	TypeBoolean:   ToBoolean,
	TypeTimestamp: ToTimestamp,
}

// Coerce converts a raw client value into the Go representation of the semantic type.
// A nil value stays nil, any value that can not be represented exactly fails with a ValueCoercionError.
func Coerce(value interface{}, semanticType SemanticType) (interface{}, error) {
	if value == nil {
		return nil, nil
	}
	fn, ok := coercers[semanticType]
	if !ok {
		return nil, NewValueCoercionError(value, semanticType.String(), nil)
	}
	return fn(value)
}

func ToString(value interface{}) (interface{}, error) {
	switch value := value.(type) {
	case string:
		return value, nil
	case []byte:
		return string(value), nil
	}
	return nil, NewValueCoercionError(value, TypeString.String(), nil)
}

func ToInteger(value interface{}) (interface{}, error) {
	switch value := value.(type) {
	case string:
		i, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, NewValueCoercionError(value, TypeInteger.String(), err)
		}
		return i, nil
	case json.Number:
		i, err := value.Int64()
		if err != nil {
			return nil, NewValueCoercionError(value, TypeInteger.String(), err)
		}
		return i, nil
	case float64:
		// JSON numbers are decoded as float64
		if value != math.Trunc(value) || value >= math.MaxInt64 || value < math.MinInt64 {
			return nil, NewValueCoercionError(value, TypeInteger.String(), nil)
		}
		return int64(value), nil
	case int:
		return int64(value), nil
	case int32:
		return int64(value), nil
	case int64:
		return value, nil
	}
	return nil, NewValueCoercionError(value, TypeInteger.String(), nil)
}

func ToBoolean(value interface{}) (interface{}, error) {
	switch value := value.(type) {
	case bool:
		return value, nil
	case string:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, NewValueCoercionError(value, TypeBoolean.String(), err)
		}
		return b, nil
	}
	return nil, NewValueCoercionError(value, TypeBoolean.String(), nil)
}

func ToTimestamp(value interface{}) (interface{}, error) {
	switch value := value.(type) {
	case string:
		return ParseTimestamp(value)
	case time.Time:
		return naive(value), nil
	}
	return nil, NewValueCoercionError(value, TypeTimestamp.String(), nil)
}

// ParseTimestamp parses an RFC 822 / RFC 5322 date and keeps its wall clock, the offset is dropped
// without converting to UTC: "Tue, 18 Jan 2022 09:37:29 +0300" becomes 2022-01-18T09:37:29.
func ParseTimestamp(value string) (time.Time, error) {
	t, err := mail.ParseDate(value)
	if err != nil {
		return time.Time{}, NewValueCoercionError(value, TypeTimestamp.String(), err)
	}
	return naive(t), nil
}

func FormatTimestamp(t time.Time) string {
	return naive(t).Format(TimestampLayout)
}

func naive(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// ToTransportValue converts a stored value into its transport safe form
func ToTransportValue(value interface{}) interface{} {
	switch value := value.(type) {
	case nil:
		return ""
	case string:
		return value
	case []byte:
		return string(value)
	case time.Time:
		return FormatTimestamp(value)
	case *time.Time:
		if value == nil {
			return ""
		}
		return FormatTimestamp(*value)
	}
	return value
}

// ToTransportRecord serializes a record, absent or empty values are rendered as an empty string
func ToTransportRecord(record Record) map[string]interface{} {
	if record == nil {
		return nil
	}
	item := make(map[string]interface{}, len(record))
	for column, value := range record {
		item[column] = ToTransportValue(value)
	}
	return item
}

func ToTransportRecords(records []Record) []map[string]interface{} {
	result := make([]map[string]interface{}, 0, len(records))
	for _, record := range records {
		result = append(result, ToTransportRecord(record))
	}
	return result
}
