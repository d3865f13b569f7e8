// Package mariadb implements the event store on MariaDB using
// github.com/go-sql-driver/mysql, together with a GET_LOCK based write lock
// strategy and a projection manager.
//
// MariaDB stores JSON documents as LONGTEXT and differs from MySQL in its
// user lock timeout handling, otherwise the adapter mirrors the MySQL one.
package mariadb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/getpup/streamstore/es"
)

// Config contains configuration for the MariaDB event store.
// Configuration is immutable after construction.
type Config struct {
	// PersistenceStrategy decides table layout, event numbering and data
	// preparation. Required.
	PersistenceStrategy es.PersistenceStrategy

	// MessageFactory rebuilds messages from loaded rows
	MessageFactory es.MessageFactory

	// WriteLockStrategy serializes concurrent appends to one stream
	WriteLockStrategy es.WriteLockStrategy

	// EventStreamsTable is the name of the stream registry table
	EventStreamsTable string

	// LoadBatchSize is the page size of lazy load iterators
	LoadBatchSize int

	// DisableTransactionHandling leaves transaction control to the caller.
	// Begin a transaction through Conn() to group writes. Note that MariaDB
	// commits an open transaction implicitly when it executes DDL, so
	// Create is never atomic for the caller.
	DisableTransactionHandling bool
}

// DefaultConfig returns the default configuration. The persistence strategy
// must be set by the caller.
func DefaultConfig() Config {
	return Config{
		MessageFactory:    es.GenericEventFactory{},
		WriteLockStrategy: es.NoLockStrategy{},
		EventStreamsTable: "event_streams",
		LoadBatchSize:     10000,
	}
}

// EventStore is the MariaDB es.EventStore implementation.
//
// The store pins one connection for its lifetime so that session state,
// user level locks and caller managed transactions all apply to the
// statements it runs. It is not safe for concurrent use; open one store per
// goroutine or guard it externally.
type EventStore struct {
	conn     *sql.Conn
	tx       *sql.Tx
	strategy es.PersistenceStrategy
	factory  es.MessageFactory
	lock     es.WriteLockStrategy

	eventStreamsTable string
	batchSize         int
	disableTx         bool
	ownsConn          bool
}

// NewEventStore pins a dedicated connection from the pool and returns a
// store on top of it. Close releases the connection.
func NewEventStore(ctx context.Context, db *sql.DB, config Config) (*EventStore, error) {
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to obtain connection: %w", err)
	}
	store, err := NewEventStoreWithConn(conn, config)
	if err != nil {
		conn.Close()
		return nil, err
	}
	store.ownsConn = true
	return store, nil
}

// NewEventStoreWithConn returns a store on a caller provided connection.
// The caller keeps ownership: Close will not release it. Use this to share
// the session with a write lock strategy or an externally managed
// transaction.
func NewEventStoreWithConn(conn *sql.Conn, config Config) (*EventStore, error) {
	if conn == nil {
		return nil, fmt.Errorf("%w: connection must not be nil", es.ErrInvalidArgument)
	}
	if config.PersistenceStrategy == nil {
		return nil, fmt.Errorf("%w: persistence strategy must not be nil", es.ErrInvalidArgument)
	}
	if config.LoadBatchSize < 1 {
		return nil, fmt.Errorf("%w: load batch size must be at least 1", es.ErrInvalidArgument)
	}
	factory := config.MessageFactory
	if factory == nil {
		factory = es.GenericEventFactory{}
	}
	lock := config.WriteLockStrategy
	if lock == nil {
		lock = es.NoLockStrategy{}
	}
	table := config.EventStreamsTable
	if table == "" {
		table = "event_streams"
	}
	return &EventStore{
		conn:              conn,
		strategy:          config.PersistenceStrategy,
		factory:           factory,
		lock:              lock,
		eventStreamsTable: table,
		batchSize:         config.LoadBatchSize,
		disableTx:         config.DisableTransactionHandling,
	}, nil
}

// Conn exposes the pinned connection, for write lock strategies and caller
// managed transactions on the same session.
func (s *EventStore) Conn() *sql.Conn { return s.conn }

// Close releases the pinned connection when the store owns it.
func (s *EventStore) Close() error {
	if !s.ownsConn {
		return nil
	}
	return s.conn.Close()
}

// handle returns the statement target: the open store managed transaction,
// or the pinned connection. Statements on the connection join a transaction
// begun on the same session either way.
func (s *EventStore) handle() es.DBTX {
	if s.tx != nil {
		return s.tx
	}
	return s.conn
}

// beginTransaction opens a transaction unless handling is disabled or one
// is already open. It reports whether this call opened it.
func (s *EventStore) beginTransaction(ctx context.Context) (bool, error) {
	if s.disableTx || s.tx != nil {
		return false, nil
	}
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	s.tx = tx
	return true, nil
}

func (s *EventStore) commitTransaction(owned bool) error {
	if !owned || s.tx == nil {
		return nil
	}
	tx := s.tx
	s.tx = nil
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *EventStore) rollbackTransaction(owned bool) {
	if !owned || s.tx == nil {
		return
	}
	tx := s.tx
	s.tx = nil
	_ = tx.Rollback()
}

// Create implements es.EventStore. The registry row and the stream table
// are written first; when the initial append fails both are removed again
// before the error is returned.
func (s *EventStore) Create(ctx context.Context, stream es.Stream) error {
	tableName, err := s.strategy.GenerateTableName(stream.Name)
	if err != nil {
		return err
	}

	if err := s.addStreamToRegistry(ctx, stream, tableName); err != nil {
		return err
	}
	if err := s.createSchemaFor(ctx, tableName); err != nil {
		s.dropTable(ctx, tableName)
		s.removeStreamRow(ctx, stream.Name)
		return err
	}

	owned, err := s.beginTransaction(ctx)
	if err != nil {
		return err
	}
	if err := s.appendTo(ctx, stream.Name, tableName, stream.Events); err != nil {
		s.rollbackTransaction(owned)
		s.dropTable(ctx, tableName)
		s.removeStreamRow(ctx, stream.Name)
		return err
	}
	return s.commitTransaction(owned)
}

// AppendTo implements es.EventStore.
func (s *EventStore) AppendTo(ctx context.Context, streamName es.StreamName, events []es.Message) error {
	tableName, err := s.strategy.GenerateTableName(streamName)
	if err != nil {
		return err
	}
	return s.appendTo(ctx, streamName, tableName, events)
}

func (s *EventStore) appendTo(ctx context.Context, streamName es.StreamName, tableName string, events []es.Message) error {
	data, err := s.strategy.PrepareData(events)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}

	lockName := tableName + "_write_lock"
	acquired, err := s.lock.Acquire(ctx, lockName)
	if err != nil {
		return fmt.Errorf("failed to acquire write lock: %w", err)
	}
	if !acquired {
		return fmt.Errorf("%w: failed to acquire write lock for stream %s", es.ErrConcurrency, streamName)
	}
	defer func() {
		_, _ = s.lock.Release(context.WithoutCancel(ctx), lockName)
	}()

	owned, err := s.beginTransaction(ctx)
	if err != nil {
		return err
	}

	columns := s.strategy.ColumnNames()
	query := insertSQL(quoteIdent(tableName), columns, len(data)/len(columns))
	if _, err := s.handle().ExecContext(ctx, query, data...); err != nil {
		s.rollbackTransaction(owned)
		switch {
		case isUndefinedTable(err):
			return fmt.Errorf("%w: %s", es.ErrStreamNotFound, streamName)
		case isUniqueViolation(err):
			return fmt.Errorf("%w: at least one event with the same identity exists already", es.ErrConcurrency)
		default:
			return runtimeError("append to stream "+streamName.String(), err)
		}
	}
	return s.commitTransaction(owned)
}

// insertSQL builds a multi row insert statement.
func insertSQL(table string, columns []string, rows int) string {
	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(table)
	sb.WriteString(" (")
	sb.WriteString(strings.Join(columns, ", "))
	sb.WriteString(") VALUES ")
	group := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ") + ")"
	for r := 0; r < rows; r++ {
		if r > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(group)
	}
	return sb.String()
}

// Load implements es.EventStore.
func (s *EventStore) Load(ctx context.Context, streamName es.StreamName, fromNumber int64, count *int64, matcher *es.MetadataMatcher) (es.StreamIterator, error) {
	tableName, err := s.strategy.GenerateTableName(streamName)
	if err != nil {
		return nil, err
	}

	selectSQL, countSQL, args, err := s.buildLoadQueries(tableName, matcher, true)
	if err != nil {
		return nil, err
	}

	iter, err := es.NewSQLStreamIterator(ctx, es.SQLStreamIteratorConfig{
		Queryer:        s.conn,
		MessageFactory: s.factory,
		ClassifyError:  classifyIterationError(streamName),
		SelectSQL:      selectSQL,
		CountSQL:       countSQL,
		Args:           args,
		BatchSize:      s.batchSize,
		FromNumber:     fromNumber,
		Count:          count,
		Forward:        true,
	})
	if err != nil {
		return nil, classifyLoadError(streamName, err)
	}
	return iter, nil
}

// LoadReverse implements es.EventStore. A nil fromNumber starts from the
// highest event number. An empty result is detected up front so callers get
// an empty iterator instead of one failing on first use.
func (s *EventStore) LoadReverse(ctx context.Context, streamName es.StreamName, fromNumber *int64, count *int64, matcher *es.MetadataMatcher) (es.StreamIterator, error) {
	tableName, err := s.strategy.GenerateTableName(streamName)
	if err != nil {
		return nil, err
	}

	from := int64(math.MaxInt64)
	if fromNumber != nil {
		from = *fromNumber
	}

	selectSQL, countSQL, args, err := s.buildLoadQueries(tableName, matcher, false)
	if err != nil {
		return nil, err
	}

	var total int64
	countArgs := append(append([]any{}, args...), from)
	if err := s.conn.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, classifyLoadError(streamName, err)
	}
	if total == 0 {
		return es.NewSliceStreamIterator(), nil
	}

	iter, err := es.NewSQLStreamIterator(ctx, es.SQLStreamIteratorConfig{
		Queryer:        s.conn,
		MessageFactory: s.factory,
		ClassifyError:  classifyIterationError(streamName),
		SelectSQL:      selectSQL,
		CountSQL:       countSQL,
		Args:           args,
		BatchSize:      s.batchSize,
		FromNumber:     from,
		Count:          count,
		Forward:        false,
	})
	if err != nil {
		return nil, classifyLoadError(streamName, err)
	}
	return iter, nil
}

// buildLoadQueries assembles the paged select and the count query for one
// stream table. Matcher conditions come first, the event number bound and
// the page limit bind after them. A strategy advertising a query hint gets
// it injected into the select.
func (s *EventStore) buildLoadQueries(tableName string, matcher *es.MetadataMatcher, forward bool) (selectSQL, countSQL string, args []any, err error) {
	matches := s.rewriteMatches(matcher)
	conditions, args, err := buildWhereClause(matches)
	if err != nil {
		return "", "", nil, err
	}

	comparison := "no >= ?"
	direction := "ASC"
	if !forward {
		comparison = "no <= ?"
		direction = "DESC"
	}
	conditions = append(conditions, comparison)
	where := strings.Join(conditions, " AND ")
	table := quoteIdent(tableName)

	var hint string
	if hinter, ok := s.strategy.(es.QueryHinter); ok {
		hint = " USE INDEX (" + hinter.IndexName() + ")"
	}

	selectSQL = fmt.Sprintf(
		"SELECT no, event_id, event_name, payload, metadata, created_at FROM %s%s WHERE %s ORDER BY no %s LIMIT ?",
		table, hint, where, direction,
	)
	countSQL = fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", table, where)
	return selectSQL, countSQL, args, nil
}

// rewriteMatches upgrades metadata matches to message property matches for
// fields the persistence strategy projects into indexed columns.
func (s *EventStore) rewriteMatches(matcher *es.MetadataMatcher) []es.MetadataMatch {
	if matcher == nil {
		return nil
	}
	matches := matcher.Matches()
	projector, ok := s.strategy.(es.MetadataProjector)
	if !ok {
		return matches
	}
	fields := projector.IndexedMetadataFields()
	out := make([]es.MetadataMatch, len(matches))
	for i, match := range matches {
		if match.FieldType == es.FieldTypeMetadata {
			if column, ok := fields[match.Field]; ok {
				match.Field = column
				match.FieldType = es.FieldTypeMessageProperty
			}
		}
		out[i] = match
	}
	return out
}

// Delete implements es.EventStore. Registry removal and table drop run in
// one transaction for symmetry with the other adapters; MariaDB commits the
// transaction implicitly when it executes the drop, so the two steps are
// not atomic here.
func (s *EventStore) Delete(ctx context.Context, streamName es.StreamName) error {
	tableName, err := s.strategy.GenerateTableName(streamName)
	if err != nil {
		return err
	}

	owned, err := s.beginTransaction(ctx)
	if err != nil {
		return err
	}

	if err := s.removeStreamRow(ctx, streamName); err != nil {
		s.rollbackTransaction(owned)
		return err
	}
	if _, err := s.handle().ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdent(tableName)+";"); err != nil {
		s.rollbackTransaction(owned)
		return runtimeError("drop stream table", err)
	}
	return s.commitTransaction(owned)
}

// HasStream implements es.EventStore.
func (s *EventStore) HasStream(ctx context.Context, streamName es.StreamName) (bool, error) {
	query := fmt.Sprintf("SELECT 1 FROM %s WHERE real_stream_name = ?", quoteIdent(s.eventStreamsTable))
	var one int
	err := s.handle().QueryRowContext(ctx, query, streamName.String()).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, runtimeError("check stream existence", err)
	}
	return true, nil
}

// FetchStreamMetadata implements es.EventStore.
func (s *EventStore) FetchStreamMetadata(ctx context.Context, streamName es.StreamName) (map[string]any, error) {
	query := fmt.Sprintf("SELECT metadata FROM %s WHERE real_stream_name = ?", quoteIdent(s.eventStreamsTable))
	var raw []byte
	err := s.handle().QueryRowContext(ctx, query, streamName.String()).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", es.ErrStreamNotFound, streamName)
	}
	if err != nil {
		return nil, runtimeError("fetch stream metadata", err)
	}
	metadata, err := es.DecodeJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode stream metadata: %w", err)
	}
	return metadata, nil
}

// UpdateStreamMetadata implements es.EventStore. MariaDB reports zero
// affected rows for updates that leave the row unchanged, so zero is
// confirmed against the registry before reporting not found.
func (s *EventStore) UpdateStreamMetadata(ctx context.Context, streamName es.StreamName, newMetadata map[string]any) error {
	if newMetadata == nil {
		newMetadata = map[string]any{}
	}
	encoded, err := es.EncodeJSON(newMetadata)
	if err != nil {
		return fmt.Errorf("failed to encode stream metadata: %w", err)
	}

	query := fmt.Sprintf("UPDATE %s SET metadata = ? WHERE real_stream_name = ?", quoteIdent(s.eventStreamsTable))
	result, err := s.handle().ExecContext(ctx, query, encoded, streamName.String())
	if err != nil {
		return runtimeError("update stream metadata", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 1 {
		return nil
	}

	exists, err := s.HasStream(ctx, streamName)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", es.ErrStreamNotFound, streamName)
	}
	return nil
}

// FetchStreamNames implements es.EventStore. The matcher filters on the
// stream metadata document in the registry.
func (s *EventStore) FetchStreamNames(ctx context.Context, filter string, matcher *es.MetadataMatcher, limit, offset int) ([]es.StreamName, error) {
	var conditions []string
	var args []any
	if filter != "" {
		conditions = append(conditions, "real_stream_name = ?")
		args = append(args, filter)
	}
	conditions, args, err := appendMatcherConditions(conditions, args, matcher)
	if err != nil {
		return nil, err
	}
	return s.queryStreamNames(ctx, conditions, args, limit, offset)
}

// FetchStreamNamesRegex implements es.EventStore.
func (s *EventStore) FetchStreamNamesRegex(ctx context.Context, regex string, matcher *es.MetadataMatcher, limit, offset int) ([]es.StreamName, error) {
	if err := validateRegex(regex); err != nil {
		return nil, err
	}
	conditions := []string{"real_stream_name REGEXP ?"}
	args := []any{regex}
	conditions, args, err := appendMatcherConditions(conditions, args, matcher)
	if err != nil {
		return nil, err
	}
	return s.queryStreamNames(ctx, conditions, args, limit, offset)
}

func appendMatcherConditions(conditions []string, args []any, matcher *es.MetadataMatcher) ([]string, []any, error) {
	if matcher == nil {
		return conditions, args, nil
	}
	matcherConditions, matcherArgs, err := buildWhereClause(matcher.Matches())
	if err != nil {
		return nil, nil, err
	}
	return append(conditions, matcherConditions...), append(args, matcherArgs...), nil
}

func (s *EventStore) queryStreamNames(ctx context.Context, conditions []string, args []any, limit, offset int) ([]es.StreamName, error) {
	var sb strings.Builder
	sb.WriteString("SELECT real_stream_name FROM ")
	sb.WriteString(quoteIdent(s.eventStreamsTable))
	if len(conditions) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(conditions, " AND "))
	}
	sb.WriteString(" ORDER BY real_stream_name ASC LIMIT ? OFFSET ?")
	args = append(args, limit, offset)

	rows, err := s.handle().QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, classifyEnumerationError("fetch stream names", err)
	}
	defer rows.Close()

	var names []es.StreamName
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan stream name: %w", err)
		}
		names = append(names, es.StreamName(name))
	}
	if err := rows.Err(); err != nil {
		return nil, runtimeError("fetch stream names", err)
	}
	return names, nil
}

// FetchCategoryNames implements es.EventStore.
func (s *EventStore) FetchCategoryNames(ctx context.Context, filter string, limit, offset int) ([]string, error) {
	condition := "category IS NOT NULL"
	var args []any
	if filter != "" {
		condition = "category = ?"
		args = append(args, filter)
	}
	return s.queryCategoryNames(ctx, condition, args, limit, offset)
}

// FetchCategoryNamesRegex implements es.EventStore.
func (s *EventStore) FetchCategoryNamesRegex(ctx context.Context, regex string, limit, offset int) ([]string, error) {
	if err := validateRegex(regex); err != nil {
		return nil, err
	}
	return s.queryCategoryNames(ctx, "category REGEXP ?", []any{regex}, limit, offset)
}

func (s *EventStore) queryCategoryNames(ctx context.Context, condition string, args []any, limit, offset int) ([]string, error) {
	query := fmt.Sprintf(
		"SELECT category FROM %s WHERE %s GROUP BY category ORDER BY category ASC LIMIT ? OFFSET ?",
		quoteIdent(s.eventStreamsTable), condition,
	)
	args = append(args, limit, offset)

	rows, err := s.handle().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classifyEnumerationError("fetch category names", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan category name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, runtimeError("fetch category names", err)
	}
	return names, nil
}

func (s *EventStore) addStreamToRegistry(ctx context.Context, stream es.Stream, tableName string) error {
	metadata := stream.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	encoded, err := es.EncodeJSON(metadata)
	if err != nil {
		return fmt.Errorf("failed to encode stream metadata: %w", err)
	}

	var category any
	if c := stream.Name.Category(); c != "" {
		category = c
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (real_stream_name, stream_name, metadata, category) VALUES (?, ?, ?, ?)",
		quoteIdent(s.eventStreamsTable),
	)
	if _, err := s.handle().ExecContext(ctx, query, stream.Name.String(), tableName, encoded, category); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", es.ErrStreamExistsAlready, stream.Name)
		}
		return runtimeError("register stream", err)
	}
	return nil
}

func (s *EventStore) createSchemaFor(ctx context.Context, tableName string) error {
	for _, statement := range s.strategy.CreateSchema(tableName) {
		if _, err := s.handle().ExecContext(ctx, statement); err != nil {
			return runtimeError("create schema for stream table", err)
		}
	}
	return nil
}

// dropTable is the best effort teardown after a failed Create.
func (s *EventStore) dropTable(ctx context.Context, tableName string) {
	_, _ = s.handle().ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdent(tableName)+";")
}

func (s *EventStore) removeStreamRow(ctx context.Context, streamName es.StreamName) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE real_stream_name = ?", quoteIdent(s.eventStreamsTable))
	result, err := s.handle().ExecContext(ctx, query, streamName.String())
	if err != nil {
		return runtimeError("remove stream from registry", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", es.ErrStreamNotFound, streamName)
	}
	return nil
}

// classifyLoadError maps the initial select failure of a load. Unknown
// matcher fields surface as unexpected value errors, anything else from the
// server means the stream table is not usable.
func classifyLoadError(streamName es.StreamName, err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, es.ErrInvalidArgument):
		return err
	case isUndefinedColumn(err):
		return fmt.Errorf("%w: unknown field given in metadata matcher", es.ErrUnexpectedValue)
	default:
		return fmt.Errorf("%w: %s", es.ErrStreamNotFound, streamName)
	}
}

// classifyIterationError maps failures of subsequent iterator pages.
func classifyIterationError(streamName es.StreamName) func(error) error {
	return func(err error) error {
		switch {
		case err == nil:
			return nil
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return err
		case isUndefinedTable(err):
			return fmt.Errorf("%w: %s", es.ErrStreamNotFound, streamName)
		default:
			return runtimeError("load from stream "+streamName.String(), err)
		}
	}
}

func classifyEnumerationError(op string, err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case isInvalidRegex(err):
		return fmt.Errorf("%w: invalid regex pattern given", es.ErrInvalidArgument)
	case isUndefinedColumn(err):
		return fmt.Errorf("%w: unknown field given in metadata matcher", es.ErrUnexpectedValue)
	default:
		return runtimeError(op, err)
	}
}

func validateRegex(pattern string) error {
	if pattern == "" {
		return fmt.Errorf("%w: empty regex pattern given", es.ErrInvalidArgument)
	}
	if _, err := regexp.Compile(pattern); err != nil {
		return fmt.Errorf("%w: invalid regex pattern given: %v", es.ErrInvalidArgument, err)
	}
	return nil
}

var _ es.EventStore = (*EventStore)(nil)
