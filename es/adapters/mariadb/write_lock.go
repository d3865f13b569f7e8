package mariadb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/getpup/streamstore/es"
)

// DefaultLockTimeout is the GET_LOCK wait in seconds used by
// NewMetadataLockStrategy. MariaDB has no infinite wait, so the default is
// just a very long one.
const DefaultLockTimeout = 0xFFFFFF

// MetadataLockStrategy serializes writers to a stream through MariaDB user
// level locks. The lock is bound to the database session; construct the
// strategy over the same connection the event store writes on, or a
// dedicated one.
type MetadataLockStrategy struct {
	db      es.DBTX
	timeout int
}

// NewMetadataLockStrategy returns a write lock strategy backed by GET_LOCK
// on db, waiting DefaultLockTimeout seconds for contended locks.
func NewMetadataLockStrategy(db es.DBTX) *MetadataLockStrategy {
	return &MetadataLockStrategy{db: db, timeout: DefaultLockTimeout}
}

// NewMetadataLockStrategyWithTimeout returns the strategy with a lock wait
// timeout in seconds. Zero fails fast on contention. Unlike MySQL, MariaDB
// does not treat a negative timeout as an infinite wait, so negative values
// are rejected.
func NewMetadataLockStrategyWithTimeout(db es.DBTX, timeout int) (*MetadataLockStrategy, error) {
	if timeout < 0 {
		return nil, fmt.Errorf("%w: lock timeout must not be negative", es.ErrInvalidArgument)
	}
	return &MetadataLockStrategy{db: db, timeout: timeout}, nil
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

// Release implements es.WriteLockStrategy. The result row must be consumed;
// it reports whether this session actually held the lock.
func (s *MetadataLockStrategy) Release(ctx context.Context, name string) (bool, error) {
	var released sql.NullInt64
	err := s.db.QueryRowContext(ctx, "SELECT RELEASE_LOCK(?)", name).Scan(&released)
	if err != nil {
		return false, fmt.Errorf("failed to release lock %s: %w", name, err)
	}
	return released.Valid && released.Int64 == 1, nil
}

var _ es.WriteLockStrategy = (*MetadataLockStrategy)(nil)
