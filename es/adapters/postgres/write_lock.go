package postgres

import (
	"context"
	"fmt"

	"github.com/getpup/streamstore/es"
)

// AdvisoryLockStrategy serializes writers to a stream through session level
// advisory locks. pg_advisory_lock blocks until the lock is granted, so
// Acquire never reports false. Advisory locks are bound to the database
// session; construct the strategy over the same connection the event store
// writes on, or a dedicated one.
type AdvisoryLockStrategy struct {
	db es.DBTX
}

// NewAdvisoryLockStrategy returns a write lock strategy backed by
// PostgreSQL advisory locks on db.
func NewAdvisoryLockStrategy(db es.DBTX) *AdvisoryLockStrategy {
	return &AdvisoryLockStrategy{db: db}
}

// Acquire implements es.WriteLockStrategy. It blocks until the lock is
// granted.
func (s *AdvisoryLockStrategy) Acquire(ctx context.Context, name string) (bool, error) {
	if _, err := s.db.ExecContext(ctx, "SELECT pg_advisory_lock(hashtext($1))", name); err != nil {
		return false, fmt.Errorf("failed to acquire advisory lock %s: %w", name, err)
	}
	return true, nil
}

// Release implements es.WriteLockStrategy. It reports false when the session
// did not hold the lock.
func (s *AdvisoryLockStrategy) Release(ctx context.Context, name string) (bool, error) {
	var released bool
	if err := s.db.QueryRowContext(ctx, "SELECT pg_advisory_unlock(hashtext($1))", name).Scan(&released); err != nil {
		return false, fmt.Errorf("failed to release advisory lock %s: %w", name, err)
	}
	return released, nil
}

var _ es.WriteLockStrategy = (*AdvisoryLockStrategy)(nil)
