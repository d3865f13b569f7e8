package projection

import (
	"fmt"

	"github.com/getpup/streamstore/es"
)

// Status is the lifecycle state of a projection as persisted in the
// projections table. The running projector polls it between batches, so a
// manager can stop, reset or delete a projection from another process by
// updating the row.
type Status string

const (
	// StatusIdle marks a projection that is not being processed.
	StatusIdle Status = "idle"
	// StatusRunning marks a projection whose lease is held by a processor.
	StatusRunning Status = "running"
	// StatusStopping requests a cooperative stop.
	StatusStopping Status = "stopping"
	// StatusDeleting requests removal of the projection row.
	StatusDeleting Status = "deleting"
	// StatusDeletingInclEmittedEvents requests removal of the projection row
	// together with the stream it emitted to.
	StatusDeletingInclEmittedEvents Status = "deleting_incl_emitted_events"
	// StatusResetting requests a restart from position zero.
	StatusResetting Status = "resetting"
)

// ParseStatus converts a persisted status value back into a Status.
func ParseStatus(value string) (Status, error) {
	switch s := Status(value); s {
	case StatusIdle, StatusRunning, StatusStopping, StatusDeleting,
		StatusDeletingInclEmittedEvents, StatusResetting:
		return s, nil
	default:
		return "", fmt.Errorf("%w: unknown projection status %q", es.ErrInvalidArgument, value)
	}
}

func (s Status) String() string {
	return string(s)
}
