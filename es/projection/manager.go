package projection

import "context"

// Manager creates and administers projections for one event store. Each
// adapter ships an implementation bound to its dialect.
//
// The administration methods work on the bookkeeping row, not on a running
// process: StopProjection, ResetProjection and DeleteProjection flip the
// status so that the process owning the lease picks the command up at its
// next checkpoint. When no process is running the command takes effect the
// next time the projection is started.
type Manager interface {
	// CreateQuery returns a new query over the manager's event store.
	// Passing nil options uses the defaults.
	CreateQuery(options *QueryOptions) (*Query, error)

	// CreateProjection returns a new projector with the given name.
	// Passing nil options uses DefaultProjectorOptions.
	CreateProjection(name string, options *ProjectorOptions) (*Projector, error)

	// CreateReadModelProjection returns a new read model projector with the
	// given name. Passing nil options uses DefaultProjectorOptions.
	CreateReadModelProjection(name string, readModel ReadModel, options *ProjectorOptions) (*ReadModelProjector, error)

	// DeleteProjection instructs the projection to delete itself,
	// optionally including its emitted events.
	// Returns ErrProjectionNotFound when no such projection exists.
	DeleteProjection(ctx context.Context, name string, deleteEmittedEvents bool) error

	// ResetProjection instructs the projection to rewind to position zero.
	// Returns ErrProjectionNotFound when no such projection exists.
	ResetProjection(ctx context.Context, name string) error

	// StopProjection instructs the projection to stop gracefully.
	// Returns ErrProjectionNotFound when no such projection exists.
	StopProjection(ctx context.Context, name string) error

	// FetchProjectionNames lists projection names ordered alphabetically.
	// A non-empty filter matches names exactly.
	FetchProjectionNames(ctx context.Context, filter string, limit, offset int) ([]string, error)

	// FetchProjectionNamesRegex lists projection names matching the given
	// regular expression, ordered alphabetically. An empty or invalid
	// expression yields es.ErrInvalidArgument.
	FetchProjectionNamesRegex(ctx context.Context, filter string, limit, offset int) ([]string, error)

	// FetchProjectionStatus returns the projection's current status.
	// Returns ErrProjectionNotFound when no such projection exists.
	FetchProjectionStatus(ctx context.Context, name string) (Status, error)

	// FetchProjectionStreamPositions returns the last checkpointed stream
	// positions. Returns ErrProjectionNotFound when no such projection
	// exists.
	FetchProjectionStreamPositions(ctx context.Context, name string) (map[string]int64, error)

	// FetchProjectionState returns the last checkpointed state document.
	// Returns ErrProjectionNotFound when no such projection exists.
	FetchProjectionState(ctx context.Context, name string) (map[string]any, error)
}
