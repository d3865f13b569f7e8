package postgres

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/getpup/streamstore/es"
)

// generateTableName derives the physical table name: an underscore followed
// by the hex SHA-1 of the logical name. A logical name starting with
// "<schema>." keeps that prefix as the table's schema.
func generateTableName(streamName es.StreamName) (string, error) {
	name := streamName.String()
	if name == "" {
		return "", fmt.Errorf("%w: stream name must not be empty", es.ErrInvalidArgument)
	}
	sum := sha1.Sum([]byte(name))
	table := "_" + hex.EncodeToString(sum[:])
	if schema, ok := schemaPrefix(name); ok {
		return schema + "." + table, nil
	}
	return table, nil
}

// schemaPrefix extracts a leading "<schema>." prefix when the schema part is
// a plain identifier.
func schemaPrefix(name string) (string, bool) {
	i := strings.Index(name, ".")
	if i < 1 {
		return "", false
	}
	prefix := name[:i]
	for _, r := range prefix {
		switch {
		case r == '_', 'a' <= r && r <= 'z', 'A' <= r && r <= 'Z', '0' <= r && r <= '9':
		default:
			return "", false
		}
	}
	return prefix, true
}

// quoteIdent quotes an identifier, splitting an optional schema prefix.
func quoteIdent(name string) string {
	if i := strings.Index(name, "."); i > 0 {
		return quoteIdentPart(name[:i]) + "." + quoteIdentPart(name[i+1:])
	}
	return quoteIdentPart(name)
}

func quoteIdentPart(part string) string {
	return `"` + strings.ReplaceAll(part, `"`, `""`) + `"`
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
// event number is taken from the _aggregate_version metadata field, so the
// table reflects the aggregate's version sequence and a version collision
// surfaces as a unique violation.
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
	table := quoteIdent(tableName)
	return []string{
		fmt.Sprintf(`CREATE TABLE %s (
    no BIGSERIAL,
    event_id UUID NOT NULL,
    event_name VARCHAR(100) NOT NULL,
    payload JSON NOT NULL,
    metadata JSONB NOT NULL,
    created_at TIMESTAMP(6) NOT NULL,
    PRIMARY KEY (no),
    UNIQUE (event_id)
);`, table),
		fmt.Sprintf(`CREATE UNIQUE INDEX ON %s ((metadata->>'_aggregate_version'));`, table),
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
// stream. Composite uniqueness over (_aggregate_type, _aggregate_id,
// _aggregate_version) is enforced through functional indexes, and a
// supporting index speeds up per-aggregate loads.
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
	table := quoteIdent(tableName)
	return []string{
		fmt.Sprintf(`CREATE TABLE %s (
    no BIGSERIAL,
    event_id UUID NOT NULL,
    event_name VARCHAR(100) NOT NULL,
    payload JSON NOT NULL,
    metadata JSONB NOT NULL,
    created_at TIMESTAMP(6) NOT NULL,
    PRIMARY KEY (no),
    CONSTRAINT aggregate_version_not_null CHECK ((metadata->>'_aggregate_version') IS NOT NULL),
    CONSTRAINT aggregate_type_not_null CHECK ((metadata->>'_aggregate_type') IS NOT NULL),
    CONSTRAINT aggregate_id_not_null CHECK ((metadata->>'_aggregate_id') IS NOT NULL),
    UNIQUE (event_id)
);`, table),
		fmt.Sprintf(`CREATE UNIQUE INDEX ON %s ((metadata->>'_aggregate_type'), (metadata->>'_aggregate_id'), (metadata->>'_aggregate_version'));`, table),
		fmt.Sprintf(`CREATE INDEX ON %s ((metadata->>'_aggregate_type'), (metadata->>'_aggregate_id'), no);`, table),
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
    no BIGSERIAL,
    event_id UUID NOT NULL,
    event_name VARCHAR(100) NOT NULL,
    payload JSON NOT NULL,
    metadata JSONB NOT NULL,
    created_at TIMESTAMP(6) NOT NULL,
    PRIMARY KEY (no),
    UNIQUE (event_id)
);`, quoteIdent(tableName)),
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
)
