// Package runner provides optional tooling for running multiple projections
// concurrently. It is designed to be explicit and CLI-friendly without
// imposing framework behavior: each projection keeps its own lease, so
// several processes may run the same set of projections and coordination
// happens through the projections table.
package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrNoProjections indicates that no projections were provided to run.
	ErrNoProjections = errors.New("no projections provided")
)

// Projection is the common surface of *projection.Projector and
// *projection.ReadModelProjector: a named process that can run until its
// context ends or it is stopped through its status row.
type Projection interface {
	Name() string
	Run(ctx context.Context, keepRunning bool) error
}

// Runner orchestrates multiple projections concurrently.
//
// Example:
//
//	manager, _ := postgres.NewProjectionManager(postgres.ProjectionManagerConfig{EventStore: store})
//	users, _ := manager.CreateProjection("user_list", nil)
//	totals, _ := manager.CreateProjection("order_totals", nil)
//
//	err := runner.New().Run(ctx, []runner.Projection{
//	    users.FromCategory("user").WhenAny(handleUser),
//	    totals.FromCategory("order").WhenAny(handleOrder),
//	})
type Runner struct{}

// New creates a new projection runner.
func New() *Runner {
	return &Runner{}
}

// Run runs the given projections concurrently, each in keep-running mode,
// until the context is canceled, every projection stops through its status
// row, or one of them fails.
//
// If a projection returns an error, all other projections are canceled and
// the error is returned. This ensures fail-fast behavior.
func (r *Runner) Run(ctx context.Context, projections []Projection) error {
	if len(projections) == 0 {
		return ErrNoProjections
	}
	for i, p := range projections {
		if p == nil {
			return fmt.Errorf("projection at index %d is nil", i)
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	errChan := make(chan error, len(projections))

	for _, p := range projections {
		wg.Add(1)
		go func(p Projection) {
			defer wg.Done()

			err := p.Run(ctx, true)

			// Cancellation is the expected way to shut the runner down.
			if err != nil && !errors.Is(err, context.Canceled) {
				errChan <- fmt.Errorf("projection %q failed: %w", p.Name(), err)
			}
		}(p)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case err := <-errChan:
		cancel()
		<-done
		return err
	case <-done:
		select {
		case err := <-errChan:
			return err
		default:
			return ctx.Err()
		}
	}
}
