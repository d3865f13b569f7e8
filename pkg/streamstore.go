// Package streamstore provides event sourcing capabilities for Go applications.
//
// This package serves as the main entry point for the streamstore library.
// For the core event sourcing functionality, see the es package and its subpackages:
//
//	es            - Core types and interfaces
//	es/projection - Projections, queries and read models
//	es/adapters/postgres - PostgreSQL implementation
//	es/adapters/mysql    - MySQL implementation
//	es/adapters/mariadb  - MariaDB implementation
//	es/migrations - Migration generation
//
// Quick Start:
//
//  1. Generate migrations:
//     go run github.com/getpup/streamstore/cmd/migrate-gen -output migrations
//
//  2. Create a store and append events:
//     config := postgres.DefaultConfig()
//     config.PersistenceStrategy = postgres.NewSimpleStreamStrategy(nil)
//     store, err := postgres.NewEventStore(ctx, db, config)
//     err = store.Create(ctx, es.Stream{Name: "user-1", Events: events})
//
//  3. Project events:
//     manager, err := postgres.NewProjectionManager(postgres.ProjectionManagerConfig{EventStore: store})
//     projector, err := manager.CreateProjection("user_report", nil)
//     projector.Init(initState).FromStream("user-1", nil).WhenAny(handler)
//     err = projector.Run(ctx, false)
//
// See the examples directory for complete working examples.
package streamstore

// Version returns the current version of the library.
func Version() string {
	return "0.1.0-dev"
}
