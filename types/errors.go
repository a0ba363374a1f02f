package types

import (
	"errors"
	"fmt"
)

// Kind identifies a class of failure shared by the compiler, the repository and the service layer
type Kind string

const (
	KindFieldDoesNotExist        Kind = "FieldDoesNotExist"
	KindFilterOperatorNotAllowed Kind = "FilterOperatorNotAllowed"
	KindOperatorDoesNotExist     Kind = "OperatorDoesNotExist"
	KindTableDoesNotExist        Kind = "TableDoesNotExist"
	KindValueCoercion            Kind = "ValueCoercionError"
	KindMalformedBody            Kind = "MalformedBody"
	KindNoSelectionCriteria      Kind = "NoSelectionCriteria"
	KindConstraintViolation      Kind = "ConstraintViolation"
	KindStorageUnavailable       Kind = "StorageUnavailable"
)

// ClientFault reports whether the kind is caused by the request rather than by the server or the storage
func (k Kind) ClientFault() bool {
	switch k {
	case KindFieldDoesNotExist, KindFilterOperatorNotAllowed, KindOperatorDoesNotExist,
		KindValueCoercion, KindMalformedBody, KindNoSelectionCriteria:
		return true
	}
	return false
}

// Error is the single error type surfaced by the core. Its message is safe to return to clients,
// the wrapped cause is only meant for logs.
type Error struct {
	Kind    Kind
	Message string
	Detail  string
	cause   error
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Cause returns the underlying error, if any
func (e *Error) Cause() error {
	return e.cause
}

func newError(kind Kind, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), cause: cause}
}

func NewFieldDoesNotExistError(table, field string) error {
	return newError(KindFieldDoesNotExist, nil, "field '%s' does not exist in table '%s'", field, table)
}

func NewFilterOperatorNotAllowedError(operator, column string, semanticType SemanticType) error {
	return newError(KindFilterOperatorNotAllowed, nil,
		"operator '%s' is not allowed for column '%s' of type %s", operator, column, semanticType)
}

func NewOperatorDoesNotExistError(operator string) error {
	return newError(KindOperatorDoesNotExist, nil, "operator '%s' does not exist", operator)
}

func NewTableDoesNotExistError(table string) error {
	return newError(KindTableDoesNotExist, nil, "table '%s' does not exist", table)
}

func NewValueCoercionError(value interface{}, target string, cause error) error {
	return newError(KindValueCoercion, cause, "value '%v' can not be converted to %s", value, target)
}

func NewMalformedBodyError(reason string) error {
	return newError(KindMalformedBody, nil, "malformed body: %s", reason)
}

func NewNoSelectionCriteriaError(operation string) error {
	return newError(KindNoSelectionCriteria, nil, "%s requires an identifier or a filter set", operation)
}

// NewConstraintViolationError wraps an engine failure, detail is the sanitized engine diagnostic
func NewConstraintViolationError(detail string, cause error) error {
	err := newError(KindConstraintViolation, cause, "statement rejected by storage")
	err.Detail = detail
	return err
}

func NewStorageUnavailableError(cause error) error {
	return newError(KindStorageUnavailable, cause, "storage unavailable")
}

// KindOf returns the kind of err or an empty Kind when err is not a taxonomy error
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func IsConstraintViolationError(err error) bool {
	return IsKind(err, KindConstraintViolation)
}

func IsStorageUnavailableError(err error) bool {
	return IsKind(err, KindStorageUnavailable)
}

func IsNoSelectionCriteriaError(err error) bool {
	return IsKind(err, KindNoSelectionCriteria)
}
