package db

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
	"testing"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"

	"github.com/letterbox/mailbox-data-api/schema"
	"github.com/letterbox/mailbox-data-api/types"
)

func TestNormalizeError(t *testing.T) {
	items := []struct {
		name    string
		err     error
		kind    types.Kind
		message string
	}{
		{"unique violation", &pq.Error{Code: "23505", Message: "duplicate key", Detail: "Key (name)=(gold) already exists."},
			types.KindConstraintViolation, "Key (name)=(gold) already exists."},
		{"not null violation", &pq.Error{Code: "23502", Message: `null value in column "sender" violates not-null constraint`},
			types.KindConstraintViolation, `null value in column "sender" violates not-null constraint`},
		{"undefined table", &pq.Error{Code: "42P01", Message: `relation "letter" does not exist`},
			types.KindTableDoesNotExist, "table 'letter' does not exist"},
		{"undefined column", &pq.Error{Code: "42703", Message: `column "label" does not exist`},
			types.KindFieldDoesNotExist, "field 'label' does not exist in table 'letter'"},
		{"connection failure", &pq.Error{Code: "08006", Message: "connection failure"},
			types.KindStorageUnavailable, "storage unavailable"},
		{"admin shutdown", &pq.Error{Code: "57P01", Message: "terminating connection"},
			types.KindStorageUnavailable, "storage unavailable"},
		{"other engine error", &pq.Error{Code: "22001", Message: "value too long"},
			types.KindConstraintViolation, "value too long"},
		{"sqlite constraint", sqlite3.Error{Code: sqlite3.ErrConstraint},
			types.KindConstraintViolation, ""},
		{"sqlite busy", sqlite3.Error{Code: sqlite3.ErrBusy},
			types.KindStorageUnavailable, "storage unavailable"},
		{"detail line", errors.New("ERROR: insert failed\nDETAIL:  Key (id)=(1) already exists.\n"),
			types.KindConstraintViolation, "Key (id)=(1) already exists."},
		{"plain message", errors.New("something broke"),
			types.KindConstraintViolation, RejectedMessage},
		{"connection reset", &net.OpError{Op: "read", Net: "tcp", Err: syscall.ECONNRESET},
			types.KindStorageUnavailable, "storage unavailable"},
		{"unexpected eof", io.ErrUnexpectedEOF,
			types.KindStorageUnavailable, "storage unavailable"},
		{"eof", fmt.Errorf("read: %w", io.EOF),
			types.KindStorageUnavailable, "storage unavailable"},
		{"closed pool", errors.New("sql: database is closed"),
			types.KindStorageUnavailable, "storage unavailable"},
		{"bad connection", driver.ErrBadConn,
			types.KindStorageUnavailable, "storage unavailable"},
		{"deadline", fmt.Errorf("query: %w", context.DeadlineExceeded),
			types.KindStorageUnavailable, "storage unavailable"},
		{"already normalized", types.NewNoSelectionCriteriaError("delete"),
			types.KindNoSelectionCriteria, "delete requires an identifier or a filter set"},
	}

	for _, item := range items {
		err := normalizeError("letter", item.err)
		assert.Equal(t, item.kind, types.KindOf(err), item.name)
		if item.message != "" {
			assert.Equal(t, item.message, err.Error(), item.name)
		}
	}

	assert.Nil(t, normalizeError("letter", nil))
}

func TestNormalizedErrorsHideTheCause(t *testing.T) {
	cause := &pq.Error{Code: "08006", Message: "could not connect to 10.0.0.3:5432"}
	err := normalizeError("letter", cause)

	assert.NotContains(t, err.Error(), "10.0.0.3")
	assert.True(t, errors.Is(err, cause))
}

func TestSelectConnectivityFailures(t *testing.T) {
	causes := []error{
		&net.OpError{Op: "read", Net: "tcp", Err: syscall.ECONNRESET},
		io.ErrUnexpectedEOF,
		errors.New("sql: database is closed"),
	}

	for _, cause := range causes {
		f := newFixture(t, DialectPostgres)
		compiled := f.compile(t, schema.TableStar, types.Query{})
		f.mock.ExpectBegin()
		f.mock.ExpectQuery("SELECT").WillReturnError(cause)
		f.mock.ExpectRollback()

		_, err := f.repository(t, schema.TableStar).Select(context.Background(), compiled.Filters, compiled.Page)
		assert.Equal(t, types.KindStorageUnavailable, types.KindOf(err), cause.Error())
		assert.Equal(t, "storage unavailable", err.Error())
	}
}

func TestDetail(t *testing.T) {
	assert.Equal(t, "Key (username)=(bob) already exists.",
		detail("duplicate key value\nDETAIL:  Key (username)=(bob) already exists."))
	assert.Empty(t, detail("no detail"))
}
