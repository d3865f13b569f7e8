package es

import "errors"

var (
	// ErrStreamExistsAlready indicates Create was called for a stream name
	// that is already registered.
	ErrStreamExistsAlready = errors.New("stream already exists")

	// ErrStreamNotFound indicates an operation on a stream that is not
	// registered or whose table is gone.
	ErrStreamNotFound = errors.New("stream not found")

	// ErrConcurrency indicates a conflicting append: a unique violation on
	// event id or aggregate version, or a failed write lock acquisition.
	ErrConcurrency = errors.New("concurrency conflict")

	// ErrInvalidArgument indicates client-detected invalid input, such as a
	// malformed regex filter or a negative lock timeout.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnexpectedValue indicates an unknown field referenced in a
	// metadata matcher.
	ErrUnexpectedValue = errors.New("unexpected value")

	// ErrAggregateVersionMissing indicates an append through an aggregate
	// persistence strategy where an event lacks _aggregate_version metadata.
	ErrAggregateVersionMissing = errors.New("_aggregate_version is missing in metadata")
)
