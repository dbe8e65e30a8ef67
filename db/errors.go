package db

import (
	"strings"

	"github.com/teranos/triage/errors"
)

// ErrDatabaseClosed is returned when operations are attempted on a closed
// database, typically during shutdown when the connection closes before a
// worker finishes its write.
var ErrDatabaseClosed = errors.New("database is closed")

// IsDatabaseClosed checks if an error indicates the database connection is
// closed. The string matching fallback handles raw sql/sqlite driver errors
// that cannot be wrapped at the source.
func IsDatabaseClosed(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrDatabaseClosed) {
		return true
	}

	errMsg := err.Error()
	return strings.Contains(errMsg, "database is closed") ||
		strings.Contains(errMsg, "sql: database is closed")
}
