package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"net"
	"regexp"
	"strings"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"github.com/letterbox/mailbox-data-api/types"
)

// RejectedMessage is reported for engine failures that carry no client facing detail
const RejectedMessage = "statement rejected by storage"

// database/sql does not export the error of a closed pool
const closedPoolMessage = "sql: database is closed"

var (
	detailPattern     = regexp.MustCompile(`DETAIL:\s\s(.+)`)
	quotedNamePattern = regexp.MustCompile(`"([^"]+)"`)
)

// normalizeError converts a storage failure into the error taxonomy, engine errors never leave the
// repository as is
func normalizeError(table string, err error) error {
	if err == nil {
		return nil
	}

	var typed *types.Error
	if errors.As(err, &typed) {
		return err
	}

	if unavailable(err) {
		return types.NewStorageUnavailableError(err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return fromPostgres(table, pqErr)
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return fromSqlite(table, liteErr)
	}

	if message := detail(err.Error()); message != "" {
		return types.NewConstraintViolationError(message, err)
	}
	return types.NewConstraintViolationError(RejectedMessage, err)
}

// unavailable reports connectivity failures: broken connections, network errors and a closed pool
func unavailable(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, net.ErrClosed) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return strings.Contains(err.Error(), closedPoolMessage)
}

func fromPostgres(table string, err *pq.Error) error {
	switch {
	case err.Code.Class() == "23":
		if err.Detail != "" {
			return types.NewConstraintViolationError(err.Detail, err)
		}
		return types.NewConstraintViolationError(err.Message, err)
	case err.Code == "42P01":
		return types.NewTableDoesNotExistError(table)
	case err.Code == "42703":
		return types.NewFieldDoesNotExistError(table, quotedName(err.Message))
	case err.Code.Class() == "08", strings.HasPrefix(string(err.Code), "57P0"):
		return types.NewStorageUnavailableError(err)
	}

	if err.Detail != "" {
		return types.NewConstraintViolationError(err.Detail, err)
	}
	return types.NewConstraintViolationError(err.Message, err)
}

func fromSqlite(table string, err sqlite3.Error) error {
	message := err.Error()
	switch {
	case err.Code == sqlite3.ErrConstraint:
		return types.NewConstraintViolationError(message, err)
	case strings.HasPrefix(message, "no such table"):
		return types.NewTableDoesNotExistError(table)
	case strings.HasPrefix(message, "no such column"):
		return types.NewFieldDoesNotExistError(table, strings.TrimSpace(message[strings.Index(message, ":")+1:]))
	case err.Code == sqlite3.ErrBusy, err.Code == sqlite3.ErrLocked, err.Code == sqlite3.ErrCantOpen:
		return types.NewStorageUnavailableError(err)
	}
	return types.NewConstraintViolationError(message, err)
}

// detail extracts the DETAIL line of an engine message
func detail(message string) string {
	if match := detailPattern.FindStringSubmatch(message); match != nil {
		return strings.TrimSpace(match[1])
	}
	return ""
}

func quotedName(message string) string {
	if match := quotedNamePattern.FindStringSubmatch(message); match != nil {
		return match[1]
	}
	return message
}
