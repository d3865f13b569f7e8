package es

import "context"

// WriteLockStrategy serializes writers of a stream table through a named
// session lock. The event store acquires the lock around every append,
// using the table name with a "_write_lock" suffix as the lock name.
type WriteLockStrategy interface {
	// Acquire takes the named lock. It returns false when the lock is
	// held elsewhere and could not be obtained.
	Acquire(ctx context.Context, name string) (bool, error)

	// Release gives the named lock back.
	Release(ctx context.Context, name string) (bool, error)
}

// NoLockStrategy performs no locking and always reports success. It is the
// default: the database unique constraints still detect conflicting
// appends, writers just pay for the failed insert.
type NoLockStrategy struct{}

// Acquire implements WriteLockStrategy.
func (NoLockStrategy) Acquire(_ context.Context, _ string) (bool, error) { return true, nil }

// Release implements WriteLockStrategy.
func (NoLockStrategy) Release(_ context.Context, _ string) (bool, error) { return true, nil }
