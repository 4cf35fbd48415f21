package db

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

func IsDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	// PostgreSQL (error code 23505)
	if strings.Contains(err.Error(), "duplicate key value violates unique constraint") {
		return true
	}

	// MySQL (error code 1062)
	if strings.Contains(err.Error(), "Error 1062") {
		return true
	}

	// SQLite (error code 2067)
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return true
	}

	return false
}

// IsTransientErr reports whether an error is a transient transaction
// conflict worth a single retry.
func IsTransientErr(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())

	// PostgreSQL serialization failure (40001) / deadlock (40P01)
	if strings.Contains(msg, "could not serialize access") || strings.Contains(msg, "deadlock detected") {
		return true
	}

	// MySQL deadlock (1213) / lock wait timeout (1205)
	if strings.Contains(msg, "deadlock found") || strings.Contains(msg, "lock wait timeout") {
		return true
	}

	// SQLite busy writer
	if strings.Contains(msg, "database is locked") || strings.Contains(msg, "database table is locked") {
		return true
	}

	return false
}
