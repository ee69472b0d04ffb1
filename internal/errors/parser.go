package errors

import (
	"errors"
	"strings"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// ErrorInfo is a storage error translated to an API code and message.
type ErrorInfo struct {
	Code    string
	Message string
}

// ParseStorageError maps database errors to user-facing codes without
// leaking driver internals.
func ParseStorageError(err error, resource string) ErrorInfo {
	if err == nil {
		return ErrorInfo{Code: InternalServerError, Message: "Something went wrong"}
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{Code: ResourceNotFound, Message: resource + " not found"}
	}
	if IsUniqueViolation(err) {
		return ErrorInfo{Code: ResourceAlreadyExists, Message: resource + " already exists"}
	}
	return ErrorInfo{Code: InternalDatabaseError, Message: "A storage error occurred"}
}

// IsUniqueViolation reports whether err is a unique constraint violation.
// Postgres is detected by SQLSTATE 23505; the sqlite driver used in tests
// only exposes the constraint failure as text.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique failed")
}
