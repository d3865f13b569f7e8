package projection

import (
	"fmt"
	"time"

	"github.com/getpup/streamstore/es"
)

// Default projector option values.
const (
	DefaultLockTimeout         = time.Second
	DefaultSleep               = 100 * time.Millisecond
	DefaultUpdateLockThreshold = time.Duration(0)
	DefaultPersistBlockSize    = 1000
	DefaultCacheSize           = 1000
)

// ProjectorOptions tune the runtime behavior of a Projector or
// ReadModelProjector. Start from DefaultProjectorOptions and override
// individual fields.
type ProjectorOptions struct {
	// GapDetection enables waiting out holes in stream numbering before
	// advancing past them. Nil disables gap handling entirely.
	GapDetection *GapDetection

	// LoadCount caps the number of events loaded per source stream per
	// cycle. Nil loads without a cap.
	LoadCount *int64

	// SignalHook, when set, is invoked before each event is handled. It
	// exists for hosts that need to interleave signal handling or other
	// bookkeeping with long-running projection loops.
	SignalHook func()

	// LockTimeout is the length of each lease window on the projection row.
	// A crashed processor blocks other processors for at most this long.
	LockTimeout time.Duration

	// Sleep is how long an idle cycle (no events consumed) pauses before
	// polling again.
	Sleep time.Duration

	// UpdateLockThreshold is the minimum interval between lease refreshes
	// during idle cycles. Zero refreshes the lease on every idle cycle.
	UpdateLockThreshold time.Duration

	// PersistBlockSize is the number of events handled between checkpoints.
	PersistBlockSize int

	// CacheSize is the capacity of the emitted-stream existence cache used
	// by Emit and LinkTo.
	CacheSize int
}

// DefaultProjectorOptions returns the option set projectors run with unless
// overridden.
func DefaultProjectorOptions() ProjectorOptions {
	return ProjectorOptions{
		LockTimeout:         DefaultLockTimeout,
		Sleep:               DefaultSleep,
		UpdateLockThreshold: DefaultUpdateLockThreshold,
		PersistBlockSize:    DefaultPersistBlockSize,
		CacheSize:           DefaultCacheSize,
	}
}

func (o ProjectorOptions) validate() error {
	if o.LockTimeout <= 0 {
		return fmt.Errorf("%w: lock timeout must be positive", es.ErrInvalidArgument)
	}
	if o.Sleep < 0 {
		return fmt.Errorf("%w: sleep must not be negative", es.ErrInvalidArgument)
	}
	if o.UpdateLockThreshold < 0 {
		return fmt.Errorf("%w: update lock threshold must not be negative", es.ErrInvalidArgument)
	}
	if o.PersistBlockSize < 1 {
		return fmt.Errorf("%w: persist block size must be at least 1", es.ErrInvalidArgument)
	}
	if o.CacheSize < 1 {
		return fmt.Errorf("%w: cache size must be at least 1", es.ErrInvalidArgument)
	}
	if o.LoadCount != nil && *o.LoadCount < 0 {
		return fmt.Errorf("%w: load count must not be negative", es.ErrInvalidArgument)
	}
	return nil
}

// QueryOptions tune the runtime behavior of a Query.
type QueryOptions struct {
	// SignalHook, when set, is invoked before each event is handled.
	SignalHook func()
}
