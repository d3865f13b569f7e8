// Package projection implements persistent projections over event streams.
//
// A projection folds events from one or more source streams into a state
// document (Projector), an external read model (ReadModelProjector), or an
// in-memory result (Query). Progress and state are checkpointed in a
// projections table so a projection can resume where it left off after a
// restart.
//
// Concurrency control is cooperative: before processing, a projector claims
// a lease row in the projections table (locked_until). A second process
// trying to run the same projection fails with ErrProjectionRunning until
// the lease expires. External control goes through the same row: a manager
// flips the status column to stopping, resetting or deleting, and the
// running projector honors the request at its next checkpoint.
//
// Projectors, read model projectors and queries are built fluently:
//
//	projector, err := manager.CreateProjection("user_report", nil)
//	if err != nil {
//		...
//	}
//	err = projector.
//		Init(func() map[string]any { return map[string]any{"count": 0} }).
//		FromCategory("user").
//		WhenAny(func(ctx context.Context, state map[string]any, event es.Message, scope *projection.ProjectorScope) (map[string]any, error) {
//			state["count"] = state["count"].(int) + 1
//			return state, nil
//		}).
//		Run(ctx, true)
//
// Runners are bound to a SQL dialect by the projection manager of the
// adapter package that created them (postgres, mysql or mariadb). They are
// not safe for concurrent use; run each projection on its own goroutine
// with its own database session.
package projection
