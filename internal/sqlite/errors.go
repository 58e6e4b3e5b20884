package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/ganot/taskdeck/internal/dataservice"
)

func isForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isCheckViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "CHECK constraint failed") || strings.Contains(msg, "NOT NULL constraint failed")
}

func isClosed(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, sql.ErrConnDone) || strings.Contains(err.Error(), "database is closed")
}

// mapError translates driver errors into dataservice sentinels, keeping the
// driver message for logs.
func mapError(op, table string, err error) error {
	switch {
	case err == nil:
		return nil
	case isForeignKeyViolation(err), isUniqueViolation(err), isCheckViolation(err):
		return fmt.Errorf("%s %s: %w: %v", op, table, dataservice.ErrConstraint, err)
	case isClosed(err):
		return fmt.Errorf("%s %s: %w: %v", op, table, dataservice.ErrUnavailable, err)
	default:
		return fmt.Errorf("%s %s: %w", op, table, err)
	}
}
