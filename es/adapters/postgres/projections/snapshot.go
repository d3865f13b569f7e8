package projections

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"

	"github.com/getpup/streamstore/es"
	"github.com/getpup/streamstore/es/projection"
)

// SnapshotReadModel maintains the latest known state of every aggregate in a
// snapshots table, keyed by aggregate type and id. Run it through a
// ReadModelProjector over an aggregate stream or category to keep rebuild
// times bounded: load the snapshot, then replay only the events behind it.
//
// Events must carry the _aggregate_type, _aggregate_id and
// _aggregate_version metadata fields the aggregate persistence strategies
// work with; events without them are skipped. Out of order replays are
// harmless because an upsert only wins when it carries a higher version.
type SnapshotReadModel struct {
	projection.BaseReadModel
	db    es.DBTX
	table string
}

// NewSnapshotReadModel returns a snapshot read model writing through the
// given database handle. An empty table name defaults to "snapshots".
func NewSnapshotReadModel(db es.DBTX, table string) *SnapshotReadModel {
	if table == "" {
		table = "snapshots"
	}
	return &SnapshotReadModel{db: db, table: table}
}

// Init creates the snapshots table.
func (m *SnapshotReadModel) Init(ctx context.Context) error {
	query := fmt.Sprintf(`CREATE TABLE %s (
    aggregate_type VARCHAR(150) NOT NULL,
    aggregate_id VARCHAR(150) NOT NULL,
    aggregate_version BIGINT NOT NULL,
    payload JSONB NOT NULL,
    metadata JSONB NOT NULL,
    created_at TIMESTAMP(6) NOT NULL,
    PRIMARY KEY (aggregate_type, aggregate_id)
)`, pq.QuoteIdentifier(m.table))
	_, err := m.db.ExecContext(ctx, query)
	return err
}

// IsInitialized reports whether the snapshots table exists.
func (m *SnapshotReadModel) IsInitialized(ctx context.Context) (bool, error) {
	var regclass *string
	if err := m.db.QueryRowContext(ctx, "SELECT to_regclass($1)", m.table).Scan(&regclass); err != nil {
		return false, err
	}
	return regclass != nil, nil
}

// Reset clears all snapshots but keeps the table.
func (m *SnapshotReadModel) Reset(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, "TRUNCATE "+pq.QuoteIdentifier(m.table))
	return err
}

// Delete removes the snapshots table entirely.
func (m *SnapshotReadModel) Delete(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+pq.QuoteIdentifier(m.table))
	return err
}

// Handler returns the projection handler that records every aggregate event
// into the snapshot table. Wire it up with WhenAny.
func (m *SnapshotReadModel) Handler() projection.ReadModelHandler {
	return func(ctx context.Context, state map[string]any, event es.Message, _ *projection.ReadModelScope) (map[string]any, error) {
		metadata := event.Metadata()
		aggregateType, _ := metadata["_aggregate_type"].(string)
		aggregateID, _ := metadata["_aggregate_id"].(string)
		version, ok := aggregateVersion(metadata["_aggregate_version"])
		if aggregateType == "" || aggregateID == "" || !ok {
			return state, nil
		}

		payload, err := es.EncodeJSON(event.Payload())
		if err != nil {
			return nil, fmt.Errorf("failed to encode snapshot payload: %w", err)
		}
		encodedMetadata, err := es.EncodeJSON(metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to encode snapshot metadata: %w", err)
		}
		createdAt := event.CreatedAt()

		m.Stack(func(ctx context.Context) error {
			if _, err := m.db.ExecContext(ctx, m.upsertSQL(), aggregateType, aggregateID, version, payload, encodedMetadata, createdAt); err != nil {
				return fmt.Errorf("failed to upsert snapshot: %w", err)
			}
			return nil
		})
		return state, nil
	}
}

// upsertSQL builds the insert that keeps only the newest version per
// aggregate. The version guard makes replays of older events no-ops.
func (m *SnapshotReadModel) upsertSQL() string {
	table := pq.QuoteIdentifier(m.table)
	return fmt.Sprintf(`INSERT INTO %s (
    aggregate_type, aggregate_id, aggregate_version,
    payload, metadata, created_at
) VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (aggregate_type, aggregate_id)
DO UPDATE SET
    aggregate_version = EXCLUDED.aggregate_version,
    payload = EXCLUDED.payload,
    metadata = EXCLUDED.metadata,
    created_at = EXCLUDED.created_at
WHERE %s.aggregate_version < EXCLUDED.aggregate_version`, table, table)
}

// aggregateVersion coerces the metadata value into an event version. Fresh
// events carry ints, events decoded from the database carry json.Number.
func aggregateVersion(value any) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		return int64(v), true
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

var _ projection.ReadModel = (*SnapshotReadModel)(nil)
