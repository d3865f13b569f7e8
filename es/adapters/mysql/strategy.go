package mysql

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/getpup/streamstore/es"
)

// generateTableName derives the physical table name: an underscore followed
// by the hex SHA-1 of the logical name. Stream tables always live in the
// connected database, so there is no schema prefix handling.
func generateTableName(streamName es.StreamName) (string, error) {
	name := streamName.String()
	if name == "" {
		return "", fmt.Errorf("%w: stream name must not be empty", es.ErrInvalidArgument)
	}
	sum := sha1.Sum([]byte(name))
	return "_" + hex.EncodeToString(sum[:]), nil
}

// quoteIdent quotes an identifier with backticks.
func quoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// prepareEventData serializes a batch in (event_id, event_name, payload,
// metadata, created_at) order, optionally prefixing each group with the
// aggregate version as the event number.
func prepareEventData(converter es.MessageConverter, events []es.Message, withEventNumber bool) ([]any, error) {
	columns := 5
	if withEventNumber {
		columns = 6
	}
	data := make([]any, 0, len(events)*columns)
	for _, event := range events {
		d := converter.ToData(event)
		if d.Payload == nil {
			d.Payload = map[string]any{}
		}
		if d.Metadata == nil {
			d.Metadata = map[string]any{}
		}

		if withEventNumber {
			version, err := aggregateVersion(d.Metadata)
			if err != nil {
				return nil, err
			}
			data = append(data, version)
		}

		payload, err := es.EncodeJSON(d.Payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode payload of event %s: %w", d.UUID, err)
		}
		metadata, err := es.EncodeJSON(d.Metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to encode metadata of event %s: %w", d.UUID, err)
		}

		data = append(data,
			d.UUID.String(),
			d.MessageName,
			payload,
			metadata,
			d.CreatedAt.UTC().Format(es.DateTimeLayout),
		)
	}
	return data, nil
}

func aggregateVersion(metadata map[string]any) (int64, error) {
	raw, ok := metadata["_aggregate_version"]
	if !ok {
		return 0, es.ErrAggregateVersionMissing
	}
	switch v := raw.(type) {
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	case json.Number:
		version, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("%w: _aggregate_version %v is not an integer", es.ErrInvalidArgument, v)
		}
		return version, nil
	default:
		return 0, fmt.Errorf("%w: _aggregate_version has unexpected type %T", es.ErrInvalidArgument, raw)
	}
}

// AggregateStreamStrategy persists one aggregate instance per stream. The
// event number is taken from the _aggregate_version metadata field, and a
// generated column mirrors it so a version collision surfaces as a unique
// violation.
type AggregateStreamStrategy struct {
	converter es.MessageConverter
}

// NewAggregateStreamStrategy returns the strategy. A nil converter uses
// es.GenericEventConverter.
func NewAggregateStreamStrategy(converter es.MessageConverter) *AggregateStreamStrategy {
	if converter == nil {
		converter = es.GenericEventConverter{}
	}
	return &AggregateStreamStrategy{converter: converter}
}

// CreateSchema implements es.PersistenceStrategy.
func (s *AggregateStreamStrategy) CreateSchema(tableName string) []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE %s (
    no BIGINT(20) NOT NULL,
    event_id CHAR(36) COLLATE utf8mb4_bin NOT NULL,
    event_name VARCHAR(100) COLLATE utf8mb4_bin NOT NULL,
    payload JSON NOT NULL,
    metadata JSON NOT NULL,
    created_at DATETIME(6) NOT NULL,
    aggregate_version BIGINT(20) GENERATED ALWAYS AS (JSON_EXTRACT(metadata, '$._aggregate_version')) STORED NOT NULL,
    PRIMARY KEY (no),
    UNIQUE KEY ix_event_id (event_id),
    UNIQUE KEY ix_aggregate_version (aggregate_version)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_bin;`, quoteIdent(tableName)),
	}
}

// ColumnNames implements es.PersistenceStrategy.
func (s *AggregateStreamStrategy) ColumnNames() []string {
	return []string{"no", "event_id", "event_name", "payload", "metadata", "created_at"}
}

// PrepareData implements es.PersistenceStrategy.
func (s *AggregateStreamStrategy) PrepareData(events []es.Message) ([]any, error) {
	return prepareEventData(s.converter, events, true)
}

// GenerateTableName implements es.PersistenceStrategy.
func (s *AggregateStreamStrategy) GenerateTableName(streamName es.StreamName) (string, error) {
	return generateTableName(streamName)
}

// SingleStreamStrategy persists all aggregates of one type in a single
// stream. The aggregate fields are projected into generated stored columns,
// giving composite uniqueness over (aggregate_type, aggregate_id,
// aggregate_version) and an index for per-aggregate loads the event store
// hints queries towards.
type SingleStreamStrategy struct {
	converter es.MessageConverter
}

// NewSingleStreamStrategy returns the strategy. A nil converter uses
// es.GenericEventConverter.
func NewSingleStreamStrategy(converter es.MessageConverter) *SingleStreamStrategy {
	if converter == nil {
		converter = es.GenericEventConverter{}
	}
	return &SingleStreamStrategy{converter: converter}
}

// CreateSchema implements es.PersistenceStrategy.
func (s *SingleStreamStrategy) CreateSchema(tableName string) []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE %s (
    no BIGINT(20) NOT NULL AUTO_INCREMENT,
    event_id CHAR(36) COLLATE utf8mb4_bin NOT NULL,
    event_name VARCHAR(100) COLLATE utf8mb4_bin NOT NULL,
    payload JSON NOT NULL,
    metadata JSON NOT NULL,
    created_at DATETIME(6) NOT NULL,
    aggregate_version BIGINT(20) GENERATED ALWAYS AS (JSON_EXTRACT(metadata, '$._aggregate_version')) STORED NOT NULL,
    aggregate_id VARCHAR(150) COLLATE utf8mb4_bin GENERATED ALWAYS AS (JSON_UNQUOTE(JSON_EXTRACT(metadata, '$._aggregate_id'))) STORED NOT NULL,
    aggregate_type VARCHAR(150) COLLATE utf8mb4_bin GENERATED ALWAYS AS (JSON_UNQUOTE(JSON_EXTRACT(metadata, '$._aggregate_type'))) STORED NOT NULL,
    PRIMARY KEY (no),
    UNIQUE KEY ix_event_id (event_id),
    UNIQUE KEY ix_unique_event (aggregate_type, aggregate_id, aggregate_version),
    KEY ix_query_aggregate (aggregate_type, aggregate_id, no)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_bin;`, quoteIdent(tableName)),
	}
}

// ColumnNames implements es.PersistenceStrategy.
func (s *SingleStreamStrategy) ColumnNames() []string {
	return []string{"event_id", "event_name", "payload", "metadata", "created_at"}
}

// PrepareData implements es.PersistenceStrategy.
func (s *SingleStreamStrategy) PrepareData(events []es.Message) ([]any, error) {
	return prepareEventData(s.converter, events, false)
}

// GenerateTableName implements es.PersistenceStrategy.
func (s *SingleStreamStrategy) GenerateTableName(streamName es.StreamName) (string, error) {
	return generateTableName(streamName)
}

// IndexName implements es.QueryHinter. Without the hint the optimizer tends
// to walk the primary key for the ORDER BY and scans past rows of other
// aggregates.
func (s *SingleStreamStrategy) IndexName() string { return "ix_query_aggregate" }

// IndexedMetadataFields implements es.MetadataProjector. Matcher predicates
// on the aggregate fields target the generated columns, where the table
// indexes apply.
func (s *SingleStreamStrategy) IndexedMetadataFields() map[string]string {
	return map[string]string{
		"_aggregate_id":      "aggregate_id",
		"_aggregate_type":    "aggregate_type",
		"_aggregate_version": "aggregate_version",
	}
}

// SimpleStreamStrategy persists events without aggregate constraints; only
// the event id is unique. Suited for streams written by emitting projectors
// or plain event logs.
type SimpleStreamStrategy struct {
	converter es.MessageConverter
}

// NewSimpleStreamStrategy returns the strategy. A nil converter uses
// es.GenericEventConverter.
func NewSimpleStreamStrategy(converter es.MessageConverter) *SimpleStreamStrategy {
	if converter == nil {
		converter = es.GenericEventConverter{}
	}
	return &SimpleStreamStrategy{converter: converter}
}

// CreateSchema implements es.PersistenceStrategy.
func (s *SimpleStreamStrategy) CreateSchema(tableName string) []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE %s (
    no BIGINT(20) NOT NULL AUTO_INCREMENT,
    event_id CHAR(36) COLLATE utf8mb4_bin NOT NULL,
    event_name VARCHAR(100) COLLATE utf8mb4_bin NOT NULL,
    payload JSON NOT NULL,
    metadata JSON NOT NULL,
    created_at DATETIME(6) NOT NULL,
    PRIMARY KEY (no),
    UNIQUE KEY ix_event_id (event_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_bin;`, quoteIdent(tableName)),
	}
}

// ColumnNames implements es.PersistenceStrategy.
func (s *SimpleStreamStrategy) ColumnNames() []string {
	return []string{"event_id", "event_name", "payload", "metadata", "created_at"}
}

// PrepareData implements es.PersistenceStrategy.
func (s *SimpleStreamStrategy) PrepareData(events []es.Message) ([]any, error) {
	return prepareEventData(s.converter, events, false)
}

// GenerateTableName implements es.PersistenceStrategy.
func (s *SimpleStreamStrategy) GenerateTableName(streamName es.StreamName) (string, error) {
	return generateTableName(streamName)
}

var (
	_ es.PersistenceStrategy = (*AggregateStreamStrategy)(nil)
	_ es.PersistenceStrategy = (*SingleStreamStrategy)(nil)
	_ es.PersistenceStrategy = (*SimpleStreamStrategy)(nil)
	_ es.QueryHinter         = (*SingleStreamStrategy)(nil)
	_ es.MetadataProjector   = (*SingleStreamStrategy)(nil)
)
