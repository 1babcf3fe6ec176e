package db

import "strings"

// IsUniqueViolation reports whether the error is a unique constraint
// violation. Postgres reports "duplicate key value", sqlite (used by tests)
// reports "UNIQUE constraint failed"; the constraint name is an extra signal
// for drivers that only surface the constraint.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if strings.Contains(msg, "duplicate key value") || strings.Contains(msg, "UNIQUE constraint failed") {
		return true
	}
	return constraintName != "" && strings.Contains(msg, constraintName)
}
