package database

import (
	"context"
	"database/sql/driver"
	"errors"
	"strings"

	"github.com/lib/pq"
)

// Kind groups store failures by how callers should react to them.
type Kind int

const (
	KindUnknown Kind = iota
	KindTransient
	KindIntegrity
	KindUnique
)

// Postgres SQLSTATE codes the core reacts to.
const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
	codeQueryCanceled        = "57014"
	codeForeignKeyViolation  = "23503"
	codeUniqueViolation      = "23505"
)

// Classify inspects err and reports which Kind of store failure it is.
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || errors.Is(err, driver.ErrBadConn) {
		return KindTransient
	}
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return KindUnknown
	}
	code := string(pqErr.Code)
	switch code {
	case codeSerializationFailure, codeDeadlockDetected, codeLockNotAvailable, codeQueryCanceled:
		return KindTransient
	case codeForeignKeyViolation:
		return KindIntegrity
	case codeUniqueViolation:
		return KindUnique
	}
	if strings.HasPrefix(code, "08") {
		return KindTransient
	}
	return KindUnknown
}

// IsTransient reports whether retrying the whole operation from scratch is safe and may succeed.
func IsTransient(err error) bool {
	return Classify(err) == KindTransient
}
