// Package migrations provides SQL migration generation for the event store
// infrastructure tables.
package migrations

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config configures migration generation.
type Config struct {
	// OutputFolder is the directory where the migration file will be written
	OutputFolder string

	// OutputFilename is the name of the migration file
	OutputFilename string

	// EventStreamsTable is the name of the stream registry table
	EventStreamsTable string

	// ProjectionsTable is the name of the projection bookkeeping table
	ProjectionsTable string
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	timestamp := time.Now().Format("20060102150405")
	return Config{
		OutputFolder:      "migrations",
		OutputFilename:    fmt.Sprintf("%s_init_event_store.sql", timestamp),
		EventStreamsTable: "event_streams",
		ProjectionsTable:  "projections",
	}
}

// GeneratePostgres generates a PostgreSQL migration file.
func GeneratePostgres(config *Config) error {
	return writeMigration(config.OutputFolder, config.OutputFilename, PostgresSQL(config))
}

// GenerateMySQL generates a MySQL migration file.
func GenerateMySQL(config *Config) error {
	return writeMigration(config.OutputFolder, config.OutputFilename, MySQLSQL(config))
}

// GenerateMariaDB generates a MariaDB migration file.
func GenerateMariaDB(config *Config) error {
	return writeMigration(config.OutputFolder, config.OutputFilename, MariaDBSQL(config))
}

func writeMigration(folder, filename, script string) error {
	// Ensure output folder exists
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return fmt.Errorf("failed to create output folder: %w", err)
	}

	header := fmt.Sprintf("-- Event Store Infrastructure Migration\n-- Generated: %s\n\n", time.Now().Format(time.RFC3339))

	outputPath := filepath.Join(folder, filename)
	if err := os.WriteFile(outputPath, []byte(header+script), 0o600); err != nil {
		return fmt.Errorf("failed to write migration file: %w", err)
	}

	return nil
}

// PostgresSQL returns the PostgreSQL script that creates the stream registry
// and the projection bookkeeping table. The per-stream event tables are
// created at runtime by the persistence strategies, not by this migration.
func PostgresSQL(config *Config) string {
	return fmt.Sprintf(`-- Stream registry: one row per known event stream
CREATE TABLE IF NOT EXISTS %s (
    real_stream_name VARCHAR(150) NOT NULL,
    stream_name CHAR(41) NOT NULL,
    metadata JSONB,
    category VARCHAR(150),
    PRIMARY KEY (real_stream_name)
);

-- Index for category scans used by projections
CREATE INDEX IF NOT EXISTS idx_%s_category
    ON %s (category);

-- Projection bookkeeping: stream positions, state and lock lease per projection
CREATE TABLE IF NOT EXISTS %s (
    no BIGSERIAL,
    name VARCHAR(150) NOT NULL,
    position JSONB,
    state JSONB,
    status VARCHAR(28) NOT NULL,
    locked_until TIMESTAMP(6),
    PRIMARY KEY (no),
    UNIQUE (name)
);
`,
		config.EventStreamsTable,
		config.EventStreamsTable, config.EventStreamsTable,
		config.ProjectionsTable,
	)
}

// MySQLSQL returns the MySQL script that creates the stream registry and the
// projection bookkeeping table.
func MySQLSQL(config *Config) string {
	return fmt.Sprintf(`-- Stream registry: one row per known event stream
CREATE TABLE IF NOT EXISTS %s (
    real_stream_name VARCHAR(150) NOT NULL,
    stream_name CHAR(41) NOT NULL,
    metadata JSON,
    category VARCHAR(150),
    PRIMARY KEY (real_stream_name),
    KEY ix_category (category)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_bin;

-- Projection bookkeeping: stream positions, state and lock lease per projection
CREATE TABLE IF NOT EXISTS %s (
    no BIGINT(20) NOT NULL AUTO_INCREMENT,
    name VARCHAR(150) NOT NULL,
    position JSON,
    state JSON,
    status VARCHAR(28) NOT NULL,
    locked_until DATETIME(6),
    PRIMARY KEY (no),
    UNIQUE KEY ix_name (name)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_bin;
`,
		config.EventStreamsTable,
		config.ProjectionsTable,
	)
}

// MariaDBSQL returns the MariaDB script that creates the stream registry and
// the projection bookkeeping table. MariaDB stores JSON columns as LONGTEXT,
// so validity is enforced through CHECK constraints instead of a JSON type.
func MariaDBSQL(config *Config) string {
	return fmt.Sprintf(`-- Stream registry: one row per known event stream
CREATE TABLE IF NOT EXISTS %s (
    real_stream_name VARCHAR(150) NOT NULL,
    stream_name CHAR(41) NOT NULL,
    metadata LONGTEXT,
    category VARCHAR(150),
    CHECK (metadata IS NULL OR JSON_VALID(metadata)),
    PRIMARY KEY (real_stream_name),
    KEY ix_category (category)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_bin;

-- Projection bookkeeping: stream positions, state and lock lease per projection
CREATE TABLE IF NOT EXISTS %s (
    no BIGINT(20) NOT NULL AUTO_INCREMENT,
    name VARCHAR(150) NOT NULL,
    position LONGTEXT,
    state LONGTEXT,
    status VARCHAR(28) NOT NULL,
    locked_until DATETIME(6),
    CHECK (position IS NULL OR JSON_VALID(position)),
    CHECK (state IS NULL OR JSON_VALID(state)),
    PRIMARY KEY (no),
    UNIQUE KEY ix_name (name)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_bin;
`,
		config.EventStreamsTable,
		config.ProjectionsTable,
	)
}
