// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// services and handlers to distinguish between different failure
// scenarios without inspecting driver-specific errors.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrUsernameExists is returned when registering a username that is taken.
var ErrUsernameExists = errors.New("username already exists")

// ErrEmailExists is returned when registering an email that is taken.
var ErrEmailExists = errors.New("email already exists")

// mysqlDuplicateEntry is the MySQL error number for unique key violations.
const mysqlDuplicateEntry = 1062

// mysqlNoReferencedRow is the MySQL error number for a foreign key insert
// whose parent row does not exist.
const mysqlNoReferencedRow = 1452

// isForeignKeyViolation reports whether err is a foreign key failure.
// Other drivers are matched on their message text.
func isForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == mysqlNoReferencedRow
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "foreign key constraint")
}

// isDuplicateKey reports whether err is a unique or primary key violation.
// Other drivers are matched on their message text.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == mysqlDuplicateEntry
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate entry") || strings.Contains(msg, "unique constraint")
}

// duplicateKeyName extracts the violated key or column from a duplicate key
// error message, e.g. "users.email".
func duplicateKeyName(err error) string {
	msg := err.Error()
	for _, marker := range []string{" for key ", "UNIQUE constraint failed: "} {
		if i := strings.LastIndex(msg, marker); i >= 0 {
			return strings.Trim(msg[i+len(marker):], "' ")
		}
	}
	return ""
}
