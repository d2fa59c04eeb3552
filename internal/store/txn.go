package store

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// runInTransaction wraps one unit of work in a transaction against the
// shared file. When the engine reports the file locked by a concurrent
// writer the whole unit is retried after retryDelay, up to maxRetries
// attempts; any other failure aborts immediately with the transaction
// rolled back. Exhausting the budget yields ErrLockTimeout so callers can
// distinguish contention from bad input.
func (s *Store) runInTransaction(fn func(tx *gorm.DB) error) error {
	var err error
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		err = s.db.Transaction(fn)
		if err == nil {
			return nil
		}
		if !isBusy(err) {
			return err
		}
		if attempt < s.maxRetries {
			s.log.WithFields(map[string]interface{}{
				"attempt": attempt,
				"max":     s.maxRetries,
			}).Warn("database locked, retrying")
			time.Sleep(s.retryDelay)
		}
	}
	return fmt.Errorf("%w after %d attempts: %v", ErrLockTimeout, s.maxRetries, err)
}

// isBusy recognizes SQLite's lock-contention signal. The driver surfaces it
// as SQLITE_BUSY / "database is locked"; everything else is a real failure.
func isBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY")
}

// isUniqueViolation recognizes a unique-constraint failure, used to treat
// racing creators of the same item as a benign no-op.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
