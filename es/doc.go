// Package es provides core event store infrastructure.
//
// # Overview
//
// This package defines the fundamental types and interfaces for a
// stream-oriented event store over SQL:
//   - Message: immutable domain events with payload and metadata
//   - Stream / StreamName: named append-only sequences of events
//   - EventStore: stream lifecycle, append and read interface
//   - StreamIterator: lazy paging iteration over stored events
//   - PersistenceStrategy: per-stream table layout and serialization
//   - WriteLockStrategy: named session locks guarding appends
//   - DBTX: database access abstraction
//
// # Design Philosophy
//
// Clean Architecture: Core interfaces are database-agnostic. Infrastructure
// concerns (like PostgreSQL) are isolated in adapter packages.
//
// Streams over tables: Every stream owns a dedicated table whose name is
// derived from the SHA-1 of the logical stream name. A central registry
// table maps logical names to physical tables and holds stream metadata.
//
// Immutability: Messages are value objects. Once appended they are never
// updated or deleted, except when their whole stream is deleted.
//
// # Quick Start
//
// 1. Generate database migrations for the central tables:
//
//	go run github.com/getpup/streamstore/cmd/migrate-gen -output migrations
//
// 2. Apply migrations to your database
//
// 3. Create an event store:
//
//	import (
//	    "github.com/getpup/streamstore/es"
//	    "github.com/getpup/streamstore/es/adapters/postgres"
//	)
//
//	cfg := postgres.DefaultConfig()
//	cfg.PersistenceStrategy = postgres.NewSingleStreamStrategy(nil)
//	store, err := postgres.NewEventStore(ctx, db, cfg)
//
// 4. Create a stream and append events:
//
//	event := es.NewGenericEvent("UserRegistered",
//	    map[string]any{"name": "Sasha"},
//	    map[string]any{"_aggregate_id": id, "_aggregate_type": "User", "_aggregate_version": 1},
//	)
//
//	err := store.Create(ctx, es.Stream{Name: "user-" + id, Events: []es.Message{event}})
//
// 5. Read events back:
//
//	iter, err := store.Load(ctx, "user-"+id, 1, nil, nil)
//	if err != nil {
//	    return err
//	}
//	defer iter.Close()
//	for iter.Next() {
//	    msg := iter.Message()
//	    // handle msg
//	}
//	if err := iter.Err(); err != nil {
//	    return err
//	}
//
// # Optimistic Concurrency
//
// Aggregate-aware persistence strategies enforce uniqueness of
// _aggregate_version (per stream or per aggregate) through database
// constraints. A conflicting append fails with ErrConcurrency and persists
// nothing from the batch. Appends are additionally serialized per stream
// table by a pluggable WriteLockStrategy.
//
// # Projections
//
// Projections fold streams into derived state with resumable positions,
// cooperative cross-process locking and gap detection. See the projection
// package and the per-dialect ProjectionManager implementations.
//
// # Database Schema
//
// Per-stream tables carry:
//   - no: BIGINT primary key, database-assigned, strictly increasing
//   - event_id: unique identifier (UUID)
//   - event_name: message name, at most 100 characters
//   - payload, metadata: JSON documents
//   - created_at: microsecond-precision UTC timestamp
//
// The central event_streams table registers streams; the projections table
// holds projection positions, state and lease information.
//
// # Design Decisions
//
// JSON payloads: payload and metadata are JSON documents encoded through a
// canonical codec (EncodeJSON/DecodeJSON) so that values round-trip
// bit-identically, including zero-fraction floats.
//
// Connection ownership: each event store instance owns one database
// session. Session-scoped write locks and caller-managed transactions both
// require statement affinity to a single connection.
//
// Pull-based projections: projections poll streams through lazy iterators
// and persist their own positions. This is simpler than push-based delivery
// and works well with lease-based coordination.
package es
