package migrations

import (
	"fmt"
	"time"
)

// SnapshotsConfig configures snapshot table migration generation. The
// snapshots table is optional infrastructure used by the snapshot read model
// in es/adapters/postgres/projections.
type SnapshotsConfig struct {
	// OutputFolder is the directory where the migration file will be written
	OutputFolder string

	// OutputFilename is the name of the migration file
	OutputFilename string

	// SnapshotsTable is the name of the snapshots table
	SnapshotsTable string
}

// DefaultSnapshotsConfig returns the default snapshots configuration.
func DefaultSnapshotsConfig() SnapshotsConfig {
	timestamp := time.Now().Format("20060102150405")
	return SnapshotsConfig{
		OutputFolder:   "migrations",
		OutputFilename: fmt.Sprintf("%s_add_snapshots.sql", timestamp),
		SnapshotsTable: "snapshots",
	}
}

// GenerateSnapshotsPostgres generates a PostgreSQL migration file for the
// snapshots table.
func GenerateSnapshotsPostgres(config *SnapshotsConfig) error {
	return writeMigration(config.OutputFolder, config.OutputFilename, SnapshotsPostgresSQL(config))
}

// SnapshotsPostgresSQL returns the PostgreSQL script that creates the
// snapshots table: one row per aggregate, holding its latest known state.
func SnapshotsPostgresSQL(config *SnapshotsConfig) string {
	return fmt.Sprintf(`-- Aggregate snapshots: latest known state per aggregate
CREATE TABLE IF NOT EXISTS %s (
    aggregate_type VARCHAR(150) NOT NULL,
    aggregate_id VARCHAR(150) NOT NULL,
    aggregate_version BIGINT NOT NULL,
    payload JSONB NOT NULL,
    metadata JSONB NOT NULL,
    created_at TIMESTAMP(6) NOT NULL,
    PRIMARY KEY (aggregate_type, aggregate_id)
);
`,
		config.SnapshotsTable,
	)
}
