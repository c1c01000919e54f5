package db

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"
	"strings"

	"gorm.io/gorm"
)

// Kind is the closed classification the gateway hands to upper layers.
// Services branch on Kind, never on driver diagnostic text.
type Kind int

const (
	KindUnknown Kind = iota
	// KindDuplicate is a unique-index violation.
	KindDuplicate
	// KindUnavailable is a connectivity failure: the store is unreachable,
	// the dial timed out, or the connection died mid-flight.
	KindUnavailable
	// KindMissingObject is a missing table or column.
	KindMissingObject
	// KindPermission is a privilege failure on an object.
	KindPermission
)

// Classify maps a store error onto a Kind. Dialect message matching happens
// here and nowhere else.
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return KindDuplicate
	}
	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, context.DeadlineExceeded) {
		return KindUnavailable
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindUnavailable
	}

	msg := err.Error()
	switch {
	// postgres 23505 / mysql 1062 / sqlite 2067
	case strings.Contains(msg, "duplicate key value violates unique constraint"),
		strings.Contains(msg, "Error 1062"),
		strings.Contains(msg, "UNIQUE constraint failed"):
		return KindDuplicate
	case strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "connection reset"),
		strings.Contains(msg, "no such host"),
		strings.Contains(msg, "i/o timeout"),
		strings.Contains(msg, "invalid connection"),
		strings.Contains(msg, "database is closed"),
		strings.Contains(msg, "failed to connect"):
		return KindUnavailable
	// postgres 42P01/42703 / mysql 1146/1054 / sqlite "no such table"
	case strings.Contains(msg, "does not exist"),
		strings.Contains(msg, "Error 1146"),
		strings.Contains(msg, "Error 1054"),
		strings.Contains(msg, "no such table"),
		strings.Contains(msg, "no such column"):
		return KindMissingObject
	case strings.Contains(msg, "permission denied"),
		strings.Contains(msg, "Error 1142"),
		strings.Contains(msg, "insufficient privileges"):
		return KindPermission
	default:
		return KindUnknown
	}
}

func IsDuplicate(err error) bool {
	return Classify(err) == KindDuplicate
}

func IsUnavailable(err error) bool {
	return Classify(err) == KindUnavailable
}
