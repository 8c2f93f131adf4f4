package storage

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a lookup by id finds no row
	ErrNotFound = errors.New("not found")
	// ErrConstraint is returned when a hard delete is blocked by rows that
	// still reference the target
	ErrConstraint = errors.New("referential constraint violation")
	// ErrIndexDesync is returned by VerifyTermIndex when the posting count
	// diverges from the active term count
	ErrIndexDesync = errors.New("full-text index out of sync")
)

// ValidationError carries the human-readable messages for a rejected
// create or update. The write is never partially applied.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", strings.Join(e.Messages, ", "))
}

// IsValidation reports whether err is a ValidationError and returns it.
func IsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// isFKViolation recognizes foreign-key errors from either SQLite driver.
// modernc.org/sqlite and mattn/go-sqlite3 both surface the SQLite error
// message text, so string matching is the portable check.
func isFKViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "FOREIGN KEY constraint failed") ||
		strings.Contains(msg, "constraint failed: FOREIGN KEY")
}
