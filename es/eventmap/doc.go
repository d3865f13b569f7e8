// Package eventmap provides code generation for mapping between domain events
// and event store messages (es.Message).
//
// This package supports versioned events where directory structure determines
// event version (v1, v2, etc.), similar to protobuf package versioning. The
// event version travels in message metadata under the _event_version key, so
// readers can dispatch persisted events to the matching payload struct.
//
// The generated code is explicit, readable, and does not use runtime reflection.
package eventmap
