package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/getpup/streamstore/es"
)

// MetadataLockStrategy serializes writers to a stream through MySQL user
// level locks. GET_LOCK waits up to the configured timeout for a contended
// lock, forever by default. The lock is bound to the database session;
// construct the strategy over the same connection the event store writes
// on, or a dedicated one.
type MetadataLockStrategy struct {
	db      es.DBTX
	timeout int
}

// NewMetadataLockStrategy returns a write lock strategy backed by GET_LOCK
// on db, waiting indefinitely for contended locks.
func NewMetadataLockStrategy(db es.DBTX) *MetadataLockStrategy {
	return &MetadataLockStrategy{db: db, timeout: -1}
}

// NewMetadataLockStrategyWithTimeout returns the strategy with a lock wait
// timeout in seconds. A negative timeout waits forever, zero fails fast.
func NewMetadataLockStrategyWithTimeout(db es.DBTX, timeout int) *MetadataLockStrategy {
	return &MetadataLockStrategy{db: db, timeout: timeout}
}

// Acquire implements es.WriteLockStrategy. A deadlock between waiting
// sessions reports an unacquired lock instead of an error.
func (s *MetadataLockStrategy) Acquire(ctx context.Context, name string) (bool, error) {
	var acquired sql.NullInt64
	err := s.db.QueryRowContext(ctx, "SELECT GET_LOCK(?, ?)", name, s.timeout).Scan(&acquired)
	if err != nil {
		if isLockDeadlock(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to acquire lock %s: %w", name, err)
	}
	return acquired.Valid && acquired.Int64 == 1, nil
}

// Release implements es.WriteLockStrategy.
func (s *MetadataLockStrategy) Release(ctx context.Context, name string) (bool, error) {
	if _, err := s.db.ExecContext(ctx, "DO RELEASE_LOCK(?)", name); err != nil {
		return false, fmt.Errorf("failed to release lock %s: %w", name, err)
	}
	return true, nil
}

var _ es.WriteLockStrategy = (*MetadataLockStrategy)(nil)
