package postgres

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// sqlState extracts the five character SQLSTATE from a driver error, or ""
// when the error did not come from the server.
func sqlState(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

func isUniqueViolation(err error) bool {
	return sqlState(err) == "23505"
}

func isUndefinedTable(err error) bool {
	return sqlState(err) == "42P01"
}

func isUndefinedColumn(err error) bool {
	return sqlState(err) == "42703"
}

func isInvalidRegex(err error) bool {
	return sqlState(err) == "2201B"
}

// runtimeError wraps a driver error, keeping the SQLSTATE visible for
// diagnostics.
func runtimeError(op string, err error) error {
	if state := sqlState(err); state != "" {
		return fmt.Errorf("failed to %s: SQLSTATE[%s]: %w", op, state, err)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
