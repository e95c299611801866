package sql

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Constraint violation codes of the supported drivers.
const (
	pgUniqueViolation    = "23505"
	mysqlDuplicateEntry  = 1062
	sqliteUniqueCode     = sqlite3.SQLITE_CONSTRAINT_UNIQUE
	sqlitePrimaryKeyCode = sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
)

// IsUniqueConstraintError reports if the error resulted from a DB
// uniqueness constraint violation, e.g. a duplicate primary key.
func IsUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == pgUniqueViolation {
		return true
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry {
		return true
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		if c := liteErr.Code(); c == sqliteUniqueCode || c == sqlitePrimaryKeyCode {
			return true
		}
	}
	// Drivers wrapped by proxies lose their concrete error types.
	return containsAny(err.Error(),
		"Error 1062",
		"violates unique constraint",
		"UNIQUE constraint failed",
	)
}

// containsAny returns true if s contains any of the substrings.
func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
