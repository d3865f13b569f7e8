package mariadb

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

// errorNumber extracts the server error number from a driver error, or 0
// when the error did not come from the server. MariaDB speaks the MySQL wire
// protocol, so errors arrive as *mysql.MySQLError here too.
func errorNumber(err error) uint16 {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number
	}
	return 0
}

func isUniqueViolation(err error) bool {
	return errorNumber(err) == 1062 // ER_DUP_ENTRY
}

func isUndefinedTable(err error) bool {
	return errorNumber(err) == 1146 // ER_NO_SUCH_TABLE
}

func isUndefinedColumn(err error) bool {
	return errorNumber(err) == 1054 // ER_BAD_FIELD_ERROR
}

func isInvalidRegex(err error) bool {
	return errorNumber(err) == 1139 // ER_REGEXP_ERROR
}

// isLockDeadlock reports the user level lock error GET_LOCK raises when
// granting the lock would deadlock the waiting sessions.
func isLockDeadlock(err error) bool {
	return errorNumber(err) == 3058 // ER_USER_LOCK_DEADLOCK
}

// runtimeError wraps a driver error; the driver message already carries the
// server error number.
func runtimeError(op string, err error) error {
	return fmt.Errorf("failed to %s: %w", op, err)
}
