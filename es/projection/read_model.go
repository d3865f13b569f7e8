package projection

import "context"

// ReadModel is the target a ReadModelProjector writes into: a database
// table, a search index, a cache, anything that can be initialized, torn
// down and written to in batches.
//
// Handlers record writes with Stack; the projector calls Persist at each
// checkpoint, so the read model and the stored stream positions advance
// together. Embed BaseReadModel to inherit the stacking mechanics.
type ReadModel interface {
	// Init creates the backing structure (table, index, ...).
	Init(ctx context.Context) error

	// IsInitialized reports whether Init has run.
	IsInitialized(ctx context.Context) (bool, error)

	// Reset clears all data but keeps the backing structure.
	Reset(ctx context.Context) error

	// Delete removes the backing structure entirely.
	Delete(ctx context.Context) error

	// Stack queues a write operation until the next Persist.
	Stack(operation func(ctx context.Context) error)

	// Persist applies all queued operations in order and clears the queue.
	Persist(ctx context.Context) error
}

// BaseReadModel provides the Stack and Persist halves of ReadModel.
// Implementations embed it and add Init, IsInitialized, Reset and Delete.
type BaseReadModel struct {
	stack []func(ctx context.Context) error
}

// Stack queues a write operation until the next Persist.
func (m *BaseReadModel) Stack(operation func(ctx context.Context) error) {
	m.stack = append(m.stack, operation)
}

// Persist applies the queued operations in the order they were stacked. On
// the first failing operation it stops and returns the error; the remaining
// operations stay queued.
func (m *BaseReadModel) Persist(ctx context.Context) error {
	for len(m.stack) > 0 {
		operation := m.stack[0]
		if err := operation(ctx); err != nil {
			return err
		}
		m.stack = m.stack[1:]
	}
	return nil
}
