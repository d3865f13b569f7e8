package projection

import "errors"

var (
	// ErrProjectionNotFound is returned when an operation targets a
	// projection that has no row in the projections table.
	ErrProjectionNotFound = errors.New("projection not found")

	// ErrProjectionRunning is returned when a projection lease cannot be
	// acquired because another process holds an unexpired lock.
	ErrProjectionRunning = errors.New("another projection process is already running")

	// ErrNoHandlersConfigured is returned by Run when neither When nor
	// WhenAny was called.
	ErrNoHandlersConfigured = errors.New("no handlers configured")

	// ErrNoSourcesConfigured is returned by Run when no source streams were
	// configured via FromStream, FromStreams, FromCategory, FromCategories
	// or FromAll.
	ErrNoSourcesConfigured = errors.New("no source streams configured")
)
