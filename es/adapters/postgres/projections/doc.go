// Package projections provides built-in read models for the PostgreSQL
// adapter.
//
// These are pre-built, reusable read models that ship with streamstore and
// cover common event sourcing patterns like snapshotting.
package projections
