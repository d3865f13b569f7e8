package mariadb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/getpup/streamstore/es"
	"github.com/getpup/streamstore/es/projection"
)

// ProjectionManagerConfig contains configuration for the MariaDB projection
// manager.
type ProjectionManagerConfig struct {
	// EventStore is the store projections read from and emit to. It must be
	// a *EventStore, possibly wrapped in decorators; the decorated instance
	// is the one handed to projections. Required.
	EventStore es.EventStore

	// DB runs the bookkeeping statements. Defaults to the event store's
	// pinned connection.
	DB es.DBTX

	// Logger is optional. When nil, nothing is logged.
	Logger es.Logger

	// EventStreamsTable is the stream registry table name. Defaults to the
	// table the event store is configured with.
	EventStreamsTable string

	// ProjectionsTable is the bookkeeping table name.
	// Defaults to "projections".
	ProjectionsTable string
}

// ProjectionManager creates and administers projections on MariaDB.
type ProjectionManager struct {
	eventStore es.EventStore
	db         es.DBTX
	logger     es.Logger

	eventStreamsTable string
	projectionsTable  string
}

// NewProjectionManager validates that the given store runs on MariaDB,
// unwrapping decorators as needed, and returns a manager bound to it.
func NewProjectionManager(config ProjectionManagerConfig) (*ProjectionManager, error) {
	if config.EventStore == nil {
		return nil, fmt.Errorf("%w: event store must not be nil", es.ErrInvalidArgument)
	}

	inner := config.EventStore
	for {
		decorator, ok := inner.(es.EventStoreDecorator)
		if !ok {
			break
		}
		inner = decorator.InnerEventStore()
	}
	store, ok := inner.(*EventStore)
	if !ok {
		return nil, fmt.Errorf("%w: unknown event store instance %T given", es.ErrInvalidArgument, inner)
	}

	db := config.DB
	if db == nil {
		db = store.Conn()
	}
	eventStreamsTable := config.EventStreamsTable
	if eventStreamsTable == "" {
		eventStreamsTable = store.eventStreamsTable
	}
	projectionsTable := config.ProjectionsTable
	if projectionsTable == "" {
		projectionsTable = "projections"
	}

	return &ProjectionManager{
		eventStore:        config.EventStore,
		db:                db,
		logger:            config.Logger,
		eventStreamsTable: eventStreamsTable,
		projectionsTable:  projectionsTable,
	}, nil
}

// CreateQuery implements projection.Manager.
func (m *ProjectionManager) CreateQuery(options *projection.QueryOptions) (*projection.Query, error) {
	var opts projection.QueryOptions
	if options != nil {
		opts = *options
	}
	return projection.NewQuery(projection.QueryConfig{
		EventStore:        m.eventStore,
		DB:                m.db,
		Logger:            m.logger,
		EventStreamsTable: m.eventStreamsTable,
		Dialect:           projection.DialectMariaDB,
		Options:           opts,
	})
}

// CreateProjection implements projection.Manager.
func (m *ProjectionManager) CreateProjection(name string, options *projection.ProjectorOptions) (*projection.Projector, error) {
	opts := projection.DefaultProjectorOptions()
	if options != nil {
		opts = *options
	}
	return projection.NewProjector(projection.ProjectorConfig{
		EventStore:        m.eventStore,
		DB:                m.db,
		Logger:            m.logger,
		Name:              name,
		EventStreamsTable: m.eventStreamsTable,
		ProjectionsTable:  m.projectionsTable,
		Dialect:           projection.DialectMariaDB,
		Options:           opts,
	})
}

// CreateReadModelProjection implements projection.Manager.
func (m *ProjectionManager) CreateReadModelProjection(name string, readModel projection.ReadModel, options *projection.ProjectorOptions) (*projection.ReadModelProjector, error) {
	opts := projection.DefaultProjectorOptions()
	if options != nil {
		opts = *options
	}
	return projection.NewReadModelProjector(projection.ReadModelProjectorConfig{
		EventStore:        m.eventStore,
		DB:                m.db,
		ReadModel:         readModel,
		Logger:            m.logger,
		Name:              name,
		EventStreamsTable: m.eventStreamsTable,
		ProjectionsTable:  m.projectionsTable,
		Dialect:           projection.DialectMariaDB,
		Options:           opts,
	})
}

// DeleteProjection implements projection.Manager.
func (m *ProjectionManager) DeleteProjection(ctx context.Context, name string, deleteEmittedEvents bool) error {
	status := projection.StatusDeleting
	if deleteEmittedEvents {
		status = projection.StatusDeletingInclEmittedEvents
	}
	return m.updateProjectionStatus(ctx, name, status)
}

// ResetProjection implements projection.Manager.
func (m *ProjectionManager) ResetProjection(ctx context.Context, name string) error {
	return m.updateProjectionStatus(ctx, name, projection.StatusResetting)
}

// StopProjection implements projection.Manager.
func (m *ProjectionManager) StopProjection(ctx context.Context, name string) error {
	return m.updateProjectionStatus(ctx, name, projection.StatusStopping)
}

// updateProjectionStatus flips the bookkeeping status so the lease holder
// picks the command up. Zero affected rows can mean the status already
// matched or, on MariaDB, that the update changed nothing, so missing rows
// are confirmed before reporting not found.
func (m *ProjectionManager) updateProjectionStatus(ctx context.Context, name string, status projection.Status) error {
	query := fmt.Sprintf("UPDATE %s SET status = ? WHERE name = ?", quoteIdent(m.projectionsTable))
	result, err := m.db.ExecContext(ctx, query, string(status), name)
	if err != nil {
		return runtimeError("update projection status", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 1 {
		return nil
	}

	exists, err := m.projectionExists(ctx, name)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", projection.ErrProjectionNotFound, name)
	}
	return nil
}

func (m *ProjectionManager) projectionExists(ctx context.Context, name string) (bool, error) {
	query := fmt.Sprintf("SELECT 1 FROM %s WHERE name = ?", quoteIdent(m.projectionsTable))
	var one int
	err := m.db.QueryRowContext(ctx, query, name).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, runtimeError("check projection existence", err)
	}
	return true, nil
}

// FetchProjectionNames implements projection.Manager.
func (m *ProjectionManager) FetchProjectionNames(ctx context.Context, filter string, limit, offset int) ([]string, error) {
	var conditions []string
	var args []any
	if filter != "" {
		conditions = append(conditions, "name = ?")
		args = append(args, filter)
	}
	return m.queryProjectionNames(ctx, conditions, args, limit, offset)
}

// FetchProjectionNamesRegex implements projection.Manager. The pattern is
// validated client side; MySQL and MariaDB report regex syntax errors with
// different error numbers, so they are rejected before reaching the server.
func (m *ProjectionManager) FetchProjectionNamesRegex(ctx context.Context, filter string, limit, offset int) ([]string, error) {
	if err := validateRegex(filter); err != nil {
		return nil, err
	}
	return m.queryProjectionNames(ctx, []string{"name REGEXP ?"}, []any{filter}, limit, offset)
}

func (m *ProjectionManager) queryProjectionNames(ctx context.Context, conditions []string, args []any, limit, offset int) ([]string, error) {
	var sb strings.Builder
	sb.WriteString("SELECT name FROM ")
	sb.WriteString(quoteIdent(m.projectionsTable))
	if len(conditions) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(conditions, " AND "))
	}
	sb.WriteString(" ORDER BY name ASC LIMIT ? OFFSET ?")
	args = append(args, limit, offset)

	rows, err := m.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		if isInvalidRegex(err) {
			return nil, fmt.Errorf("%w: invalid regex pattern given", es.ErrInvalidArgument)
		}
		return nil, runtimeError("fetch projection names", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan projection name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, runtimeError("fetch projection names", err)
	}
	return names, nil
}

// FetchProjectionStatus implements projection.Manager.
func (m *ProjectionManager) FetchProjectionStatus(ctx context.Context, name string) (projection.Status, error) {
	query := fmt.Sprintf("SELECT status FROM %s WHERE name = ?", quoteIdent(m.projectionsTable))
	var raw string
	err := m.db.QueryRowContext(ctx, query, name).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", projection.ErrProjectionNotFound, name)
	}
	if err != nil {
		return "", runtimeError("fetch projection status", err)
	}
	return projection.ParseStatus(raw)
}

// FetchProjectionStreamPositions implements projection.Manager.
func (m *ProjectionManager) FetchProjectionStreamPositions(ctx context.Context, name string) (map[string]int64, error) {
	query := fmt.Sprintf("SELECT position FROM %s WHERE name = ?", quoteIdent(m.projectionsTable))
	var raw []byte
	err := m.db.QueryRowContext(ctx, query, name).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", projection.ErrProjectionNotFound, name)
	}
	if err != nil {
		return nil, runtimeError("fetch projection positions", err)
	}
	positions, err := projection.DecodeStreamPositions(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode positions of projection %s: %w", name, err)
	}
	return positions, nil
}

// FetchProjectionState implements projection.Manager.
func (m *ProjectionManager) FetchProjectionState(ctx context.Context, name string) (map[string]any, error) {
	query := fmt.Sprintf("SELECT state FROM %s WHERE name = ?", quoteIdent(m.projectionsTable))
	var raw []byte
	err := m.db.QueryRowContext(ctx, query, name).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", projection.ErrProjectionNotFound, name)
	}
	if err != nil {
		return nil, runtimeError("fetch projection state", err)
	}
	state, err := es.DecodeJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode state of projection %s: %w", name, err)
	}
	return state, nil
}

var _ projection.Manager = (*ProjectionManager)(nil)
