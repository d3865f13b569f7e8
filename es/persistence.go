package es

// PersistenceStrategy bundles the per-stream table decisions of a dialect:
// the DDL to create a stream table, the insert column order, the row
// serializer and the physical table name derivation.
type PersistenceStrategy interface {
	// CreateSchema returns the DDL statements that create the stream
	// table, in execution order.
	CreateSchema(tableName string) []string

	// ColumnNames returns the insert column list. Strategies that derive
	// the event number from aggregate metadata include "no"; the others
	// let the database assign it.
	ColumnNames() []string

	// PrepareData flattens the batch into one value group per event, in
	// ColumnNames order. Aggregate strategies fail with
	// ErrAggregateVersionMissing when an event lacks _aggregate_version.
	PrepareData(events []Message) ([]any, error)

	// GenerateTableName derives the physical table name from the logical
	// stream name.
	GenerateTableName(streamName StreamName) (string, error)
}

// QueryHinter is implemented by persistence strategies that advertise an
// index for stream loads. On MySQL and MariaDB the event store injects a
// USE INDEX hint with this name.
type QueryHinter interface {
	IndexName() string
}

// MetadataProjector is implemented by persistence strategies that project
// metadata fields into dedicated indexed columns. The event store rewrites
// metadata matcher predicates on these fields to target the column
// directly instead of JSON extraction.
type MetadataProjector interface {
	// IndexedMetadataFields maps metadata field names to column names.
	IndexedMetadataFields() map[string]string
}
