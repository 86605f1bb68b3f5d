package repository

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound is returned when a lookup by key matches no row
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when an insert or update hits a UNIQUE constraint
	ErrDuplicate = errors.New("duplicate record")
)

type rowScanner interface {
	Scan(dest ...any) error
}

// prefixed qualifies a comma-separated column list with a table alias
func prefixed(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, col := range parts {
		parts[i] = alias + "." + strings.TrimSpace(col)
	}
	return strings.Join(parts, ", ")
}
