package es

import "strings"

// StreamName is the logical name of a stream.
//
// Names containing a '-' belong to a category (the prefix before the first
// dash). On PostgreSQL a prefix before the first '.' selects a schema for
// the stream table.
type StreamName string

// String returns the stream name as a plain string.
func (n StreamName) String() string { return string(n) }

// Category returns the category of the stream, the part of the name before
// the first '-'. Names without a dash have no category and return "".
func (n StreamName) Category() string {
	if i := strings.Index(string(n), "-"); i > 0 {
		return string(n)[:i]
	}
	return ""
}

// Stream bundles a stream name, its metadata and an initial batch of events
// for EventStore.Create. The metadata is stored in the stream registry and
// can be read back with FetchStreamMetadata.
type Stream struct {
	// Metadata is arbitrary user-defined stream metadata
	Metadata map[string]any

	// Name is the logical stream name
	Name StreamName

	// Events is the initial event batch, may be empty
	Events []Message
}
