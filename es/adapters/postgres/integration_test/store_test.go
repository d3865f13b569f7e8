// Package integration_test contains integration tests for the Postgres adapter.
// These tests require a running PostgreSQL instance.
//
// Run with: go test -tags=integration ./es/adapters/postgres/integration_test/...
//
//go:build integration

package integration_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/getpup/streamstore/es"
	"github.com/getpup/streamstore/es/adapters/postgres"
	"github.com/getpup/streamstore/es/migrations"
	"github.com/lib/pq"
)

func getTestDB(t *testing.T) *sql.DB {
	t.Helper()

	// Default to localhost, but allow override via env var for CI
	host := os.Getenv("POSTGRES_HOST")
	if host == "" {
		host = "localhost"
	}

	port := os.Getenv("POSTGRES_PORT")
	if port == "" {
		port = "5432"
	}

	user := os.Getenv("POSTGRES_USER")
	if user == "" {
		user = "postgres"
	}

	password := os.Getenv("POSTGRES_PASSWORD")
	if password == "" {
		password = "postgres"
	}

	dbname := os.Getenv("POSTGRES_DB")
	if dbname == "" {
		dbname = "streamstore_test"
	}

	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		t.Fatalf("Failed to ping database: %v", err)
	}

	return db
}

func setupTestTables(t *testing.T, db *sql.DB) {
	t.Helper()

	// Drop stream tables left behind by earlier runs. Their names all start
	// with an underscore.
	rows, err := db.Query(`SELECT tablename FROM pg_tables WHERE schemaname = 'public' AND tablename LIKE '\_%'`)
	if err != nil {
		t.Fatalf("Failed to list stream tables: %v", err)
	}
	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("Failed to scan table name: %v", err)
		}
		tables = append(tables, name)
	}
	rows.Close()
	for _, name := range tables {
		if _, err := db.Exec("DROP TABLE IF EXISTS " + pq.QuoteIdentifier(name) + " CASCADE"); err != nil {
			t.Fatalf("Failed to drop stream table %s: %v", name, err)
		}
	}

	_, err = db.Exec(`
		DROP TABLE IF EXISTS projections CASCADE;
		DROP TABLE IF EXISTS event_streams CASCADE;
	`)
	if err != nil {
		t.Fatalf("Failed to drop tables: %v", err)
	}

	config := migrations.DefaultConfig()
	if _, err := db.Exec(migrations.PostgresSQL(&config)); err != nil {
		t.Fatalf("Failed to execute migration: %v", err)
	}
}

func newTestStore(t *testing.T, db *sql.DB) *postgres.EventStore {
	t.Helper()

	config := postgres.DefaultConfig()
	config.PersistenceStrategy = postgres.NewSimpleStreamStrategy(nil)

	store, err := postgres.NewEventStore(context.Background(), db, config)
	if err != nil {
		t.Fatalf("Failed to create event store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func drainIterator(t *testing.T, iter es.StreamIterator) []es.Message {
	t.Helper()

	var events []es.Message
	for iter.Next() {
		events = append(events, iter.Message())
	}
	if err := iter.Err(); err != nil {
		t.Fatalf("Iteration failed: %v", err)
	}
	if err := iter.Close(); err != nil {
		t.Fatalf("Failed to close iterator: %v", err)
	}
	return events
}

func TestCreateAndLoad(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()

	setupTestTables(t, db)

	ctx := context.Background()
	store := newTestStore(t, db)

	streamName := es.StreamName("user-1")
	events := []es.Message{
		es.NewGenericEvent("UserRegistered", map[string]any{"email": "jo@example.com"}, nil),
		es.NewGenericEvent("UserRenamed", map[string]any{"name": "Jo"}, map[string]any{"actor": "admin"}),
	}

	err := store.Create(ctx, es.Stream{
		Name:     streamName,
		Metadata: map[string]any{"owner": "crm"},
		Events:   events,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	has, err := store.HasStream(ctx, streamName)
	if err != nil {
		t.Fatalf("HasStream failed: %v", err)
	}
	if !has {
		t.Error("Expected stream to exist after Create")
	}

	iter, err := store.Load(ctx, streamName, 1, nil, nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	loaded := drainIterator(t, iter)

	if len(loaded) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(loaded))
	}
	if loaded[0].MessageName() != "UserRegistered" {
		t.Errorf("First event name = %q, want UserRegistered", loaded[0].MessageName())
	}
	if loaded[0].UUID() != events[0].UUID() {
		t.Errorf("First event UUID = %s, want %s", loaded[0].UUID(), events[0].UUID())
	}
	if email, ok := loaded[0].Payload()["email"].(string); !ok || email != "jo@example.com" {
		t.Errorf("First event payload = %v, want email jo@example.com", loaded[0].Payload())
	}
	if actor, ok := loaded[1].Metadata()["actor"].(string); !ok || actor != "admin" {
		t.Errorf("Second event metadata = %v, want actor admin", loaded[1].Metadata())
	}

	// Creation timestamps survive the round trip with microsecond precision.
	if !loaded[0].CreatedAt().Equal(events[0].CreatedAt()) {
		t.Errorf("First event created at %v, want %v", loaded[0].CreatedAt(), events[0].CreatedAt())
	}

	// Stream metadata and category land in the registry.
	metadata, err := store.FetchStreamMetadata(ctx, streamName)
	if err != nil {
		t.Fatalf("FetchStreamMetadata failed: %v", err)
	}
	if owner, ok := metadata["owner"].(string); !ok || owner != "crm" {
		t.Errorf("Stream metadata = %v, want owner crm", metadata)
	}

	categories, err := store.FetchCategoryNames(ctx, "", 10, 0)
	if err != nil {
		t.Fatalf("FetchCategoryNames failed: %v", err)
	}
	if len(categories) != 1 || categories[0] != "user" {
		t.Errorf("Categories = %v, want [user]", categories)
	}
}

func TestCreateDuplicateStream(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()

	setupTestTables(t, db)

	ctx := context.Background()
	store := newTestStore(t, db)

	stream := es.Stream{Name: "user-1"}
	if err := store.Create(ctx, stream); err != nil {
		t.Fatalf("First create failed: %v", err)
	}

	err := store.Create(ctx, stream)
	if !errors.Is(err, es.ErrStreamExistsAlready) {
		t.Errorf("Second create error = %v, want ErrStreamExistsAlready", err)
	}
}

func TestAppendToMissingStream(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()

	setupTestTables(t, db)

	ctx := context.Background()
	store := newTestStore(t, db)

	event := es.NewGenericEvent("Whatever", nil, nil)
	err := store.AppendTo(ctx, "missing-1", []es.Message{event})
	if !errors.Is(err, es.ErrStreamNotFound) {
		t.Errorf("AppendTo error = %v, want ErrStreamNotFound", err)
	}
}

func TestAppendEmptyBatch(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()

	setupTestTables(t, db)

	ctx := context.Background()
	store := newTestStore(t, db)

	if err := store.Create(ctx, es.Stream{Name: "user-1"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Appending nothing must not touch the database, not even the write lock.
	if err := store.AppendTo(ctx, "user-1", nil); err != nil {
		t.Errorf("Empty append error = %v, want nil", err)
	}
}

func TestAppendDuplicateEventID(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()

	setupTestTables(t, db)

	ctx := context.Background()
	store := newTestStore(t, db)

	event := es.NewGenericEvent("UserRegistered", nil, nil)
	if err := store.Create(ctx, es.Stream{Name: "user-1", Events: []es.Message{event}}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	err := store.AppendTo(ctx, "user-1", []es.Message{event})
	if !errors.Is(err, es.ErrConcurrency) {
		t.Errorf("Duplicate append error = %v, want ErrConcurrency", err)
	}
}

func TestLoadPaging(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()

	setupTestTables(t, db)

	ctx := context.Background()

	// A small batch size forces the iterator through multiple pages.
	config := postgres.DefaultConfig()
	config.PersistenceStrategy = postgres.NewSimpleStreamStrategy(nil)
	config.LoadBatchSize = 4

	store, err := postgres.NewEventStore(ctx, db, config)
	if err != nil {
		t.Fatalf("Failed to create event store: %v", err)
	}
	defer store.Close()

	var events []es.Message
	for i := 0; i < 25; i++ {
		events = append(events, es.NewGenericEvent("Counted", map[string]any{"n": i}, nil))
	}
	if err := store.Create(ctx, es.Stream{Name: "counter-1", Events: events}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	count := int64(10)
	iter, err := store.Load(ctx, "counter-1", 5, &count, nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	defer iter.Close()

	total, err := iter.Count()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if total != 10 {
		t.Errorf("Count = %d, want 10", total)
	}

	var positions []int64
	for iter.Next() {
		positions = append(positions, iter.Position())
	}
	if err := iter.Err(); err != nil {
		t.Fatalf("Iteration failed: %v", err)
	}

	if len(positions) != 10 {
		t.Fatalf("Expected 10 events, got %d", len(positions))
	}
	for i, pos := range positions {
		if want := int64(5 + i); pos != want {
			t.Errorf("Position %d = %d, want %d", i, pos, want)
		}
	}

	// Rewind restarts from the first page.
	if err := iter.Rewind(); err != nil {
		t.Fatalf("Rewind failed: %v", err)
	}
	if !iter.Next() {
		t.Fatalf("Next after Rewind = false: %v", iter.Err())
	}
	if iter.Position() != 5 {
		t.Errorf("Position after Rewind = %d, want 5", iter.Position())
	}
}

func TestLoadReverse(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()

	setupTestTables(t, db)

	ctx := context.Background()
	store := newTestStore(t, db)

	var events []es.Message
	for i := 0; i < 5; i++ {
		events = append(events, es.NewGenericEvent("Counted", map[string]any{"n": i}, nil))
	}
	if err := store.Create(ctx, es.Stream{Name: "counter-1", Events: events}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// A nil from number starts at the newest event.
	iter, err := store.LoadReverse(ctx, "counter-1", nil, nil, nil)
	if err != nil {
		t.Fatalf("LoadReverse failed: %v", err)
	}
	var positions []int64
	for iter.Next() {
		positions = append(positions, iter.Position())
	}
	if err := iter.Err(); err != nil {
		t.Fatalf("Iteration failed: %v", err)
	}
	iter.Close()

	want := []int64{5, 4, 3, 2, 1}
	if len(positions) != len(want) {
		t.Fatalf("Expected %d events, got %d", len(want), len(positions))
	}
	for i := range want {
		if positions[i] != want[i] {
			t.Errorf("Position %d = %d, want %d", i, positions[i], want[i])
		}
	}

	// An empty stream yields an empty iterator, not an error.
	if err := store.Create(ctx, es.Stream{Name: "counter-2"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	iter, err = store.LoadReverse(ctx, "counter-2", nil, nil, nil)
	if err != nil {
		t.Fatalf("LoadReverse on empty stream failed: %v", err)
	}
	defer iter.Close()
	if iter.Next() {
		t.Error("Expected no events from empty stream")
	}
	if err := iter.Err(); err != nil {
		t.Errorf("Iterator error = %v, want nil", err)
	}
}

func TestLoadWithMetadataMatcher(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()

	setupTestTables(t, db)

	ctx := context.Background()
	store := newTestStore(t, db)

	events := []es.Message{
		es.NewGenericEvent("OrderPlaced", nil, map[string]any{"actor": "alice", "attempt": 1}),
		es.NewGenericEvent("OrderPlaced", nil, map[string]any{"actor": "bob", "attempt": 2}),
		es.NewGenericEvent("OrderShipped", nil, map[string]any{"actor": "alice", "attempt": 3}),
	}
	if err := store.Create(ctx, es.Stream{Name: "order-1", Events: events}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	matcher, err := es.MetadataMatcher{}.WithMetadataMatch("actor", es.OperatorEquals, "alice")
	if err != nil {
		t.Fatalf("Failed to build matcher: %v", err)
	}
	matcher, err = matcher.WithPropertyMatch("event_name", es.OperatorEquals, "OrderPlaced")
	if err != nil {
		t.Fatalf("Failed to extend matcher: %v", err)
	}

	iter, err := store.Load(ctx, "order-1", 1, nil, &matcher)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	loaded := drainIterator(t, iter)

	if len(loaded) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(loaded))
	}
	if loaded[0].UUID() != events[0].UUID() {
		t.Errorf("Matched event UUID = %s, want %s", loaded[0].UUID(), events[0].UUID())
	}

	// Numeric comparison on metadata values.
	matcher, err = es.MetadataMatcher{}.WithMetadataMatch("attempt", es.OperatorGreaterThan, 1)
	if err != nil {
		t.Fatalf("Failed to build matcher: %v", err)
	}
	iter, err = store.Load(ctx, "order-1", 1, nil, &matcher)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	loaded = drainIterator(t, iter)
	if len(loaded) != 2 {
		t.Errorf("Expected 2 events with attempt > 1, got %d", len(loaded))
	}

	// Unknown message properties surface as unexpected value errors.
	matcher, err = es.MetadataMatcher{}.WithPropertyMatch("bogus_column", es.OperatorEquals, "x")
	if err != nil {
		t.Fatalf("Failed to build matcher: %v", err)
	}
	_, err = store.Load(ctx, "order-1", 1, nil, &matcher)
	if !errors.Is(err, es.ErrUnexpectedValue) {
		t.Errorf("Load with unknown property error = %v, want ErrUnexpectedValue", err)
	}
}

func TestLoadMissingStream(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()

	setupTestTables(t, db)

	ctx := context.Background()
	store := newTestStore(t, db)

	_, err := store.Load(ctx, "missing-1", 1, nil, nil)
	if !errors.Is(err, es.ErrStreamNotFound) {
		t.Errorf("Load error = %v, want ErrStreamNotFound", err)
	}
}

func TestDeleteStream(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()

	setupTestTables(t, db)

	ctx := context.Background()
	store := newTestStore(t, db)

	if err := store.Create(ctx, es.Stream{Name: "user-1", Events: []es.Message{
		es.NewGenericEvent("UserRegistered", nil, nil),
	}}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := store.Delete(ctx, "user-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	has, err := store.HasStream(ctx, "user-1")
	if err != nil {
		t.Fatalf("HasStream failed: %v", err)
	}
	if has {
		t.Error("Expected stream to be gone after Delete")
	}

	if _, err := store.Load(ctx, "user-1", 1, nil, nil); !errors.Is(err, es.ErrStreamNotFound) {
		t.Errorf("Load after delete error = %v, want ErrStreamNotFound", err)
	}

	if err := store.Delete(ctx, "user-1"); !errors.Is(err, es.ErrStreamNotFound) {
		t.Errorf("Second delete error = %v, want ErrStreamNotFound", err)
	}
}

func TestUpdateStreamMetadata(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()

	setupTestTables(t, db)

	ctx := context.Background()
	store := newTestStore(t, db)

	if err := store.Create(ctx, es.Stream{Name: "user-1"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := store.UpdateStreamMetadata(ctx, "user-1", map[string]any{"owner": "billing"}); err != nil {
		t.Fatalf("UpdateStreamMetadata failed: %v", err)
	}

	metadata, err := store.FetchStreamMetadata(ctx, "user-1")
	if err != nil {
		t.Fatalf("FetchStreamMetadata failed: %v", err)
	}
	if owner, ok := metadata["owner"].(string); !ok || owner != "billing" {
		t.Errorf("Stream metadata = %v, want owner billing", metadata)
	}

	if err := store.UpdateStreamMetadata(ctx, "missing-1", nil); !errors.Is(err, es.ErrStreamNotFound) {
		t.Errorf("Update on missing stream error = %v, want ErrStreamNotFound", err)
	}
	if _, err := store.FetchStreamMetadata(ctx, "missing-1"); !errors.Is(err, es.ErrStreamNotFound) {
		t.Errorf("Fetch on missing stream error = %v, want ErrStreamNotFound", err)
	}
}

func TestFetchStreamNames(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()

	setupTestTables(t, db)

	ctx := context.Background()
	store := newTestStore(t, db)

	for _, name := range []es.StreamName{"user-1", "user-2", "order-1"} {
		if err := store.Create(ctx, es.Stream{Name: name, Metadata: map[string]any{
			"category": name.Category(),
		}}); err != nil {
			t.Fatalf("Create %s failed: %v", name, err)
		}
	}

	names, err := store.FetchStreamNames(ctx, "", nil, 10, 0)
	if err != nil {
		t.Fatalf("FetchStreamNames failed: %v", err)
	}
	if len(names) != 3 {
		t.Fatalf("Expected 3 names, got %v", names)
	}
	// Ordered by name ascending.
	if names[0] != "order-1" || names[1] != "user-1" || names[2] != "user-2" {
		t.Errorf("Names = %v, want [order-1 user-1 user-2]", names)
	}

	// Exact filter.
	names, err = store.FetchStreamNames(ctx, "user-1", nil, 10, 0)
	if err != nil {
		t.Fatalf("FetchStreamNames with filter failed: %v", err)
	}
	if len(names) != 1 || names[0] != "user-1" {
		t.Errorf("Filtered names = %v, want [user-1]", names)
	}

	// Matcher on the stream metadata document.
	matcher, err := es.MetadataMatcher{}.WithMetadataMatch("category", es.OperatorEquals, "user")
	if err != nil {
		t.Fatalf("Failed to build matcher: %v", err)
	}
	names, err = store.FetchStreamNames(ctx, "", &matcher, 10, 0)
	if err != nil {
		t.Fatalf("FetchStreamNames with matcher failed: %v", err)
	}
	if len(names) != 2 {
		t.Errorf("Matcher names = %v, want two user streams", names)
	}

	// Regex variant with paging.
	names, err = store.FetchStreamNamesRegex(ctx, "^user-", nil, 1, 1)
	if err != nil {
		t.Fatalf("FetchStreamNamesRegex failed: %v", err)
	}
	if len(names) != 1 || names[0] != "user-2" {
		t.Errorf("Regex page = %v, want [user-2]", names)
	}

	if _, err := store.FetchStreamNamesRegex(ctx, "[", nil, 10, 0); !errors.Is(err, es.ErrInvalidArgument) {
		t.Errorf("Invalid regex error = %v, want ErrInvalidArgument", err)
	}

	categories, err := store.FetchCategoryNamesRegex(ctx, "^u", 10, 0)
	if err != nil {
		t.Fatalf("FetchCategoryNamesRegex failed: %v", err)
	}
	if len(categories) != 1 || categories[0] != "user" {
		t.Errorf("Categories = %v, want [user]", categories)
	}
}

func TestAggregateStreamVersionConflict(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()

	setupTestTables(t, db)

	ctx := context.Background()

	config := postgres.DefaultConfig()
	config.PersistenceStrategy = postgres.NewAggregateStreamStrategy(nil)

	store, err := postgres.NewEventStore(ctx, db, config)
	if err != nil {
		t.Fatalf("Failed to create event store: %v", err)
	}
	defer store.Close()

	first := es.NewGenericEvent("AccountOpened", nil, map[string]any{"_aggregate_version": 1})
	if err := store.Create(ctx, es.Stream{Name: "account-1", Events: []es.Message{first}}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Event numbers equal the aggregate version under this strategy.
	iter, err := store.Load(ctx, "account-1", 1, nil, nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !iter.Next() {
		t.Fatalf("Expected one event: %v", iter.Err())
	}
	if iter.Position() != 1 {
		t.Errorf("Position = %d, want 1", iter.Position())
	}
	iter.Close()

	// A second writer with the same version loses.
	conflicting := es.NewGenericEvent("AccountClosed", nil, map[string]any{"_aggregate_version": 1})
	if err := store.AppendTo(ctx, "account-1", []es.Message{conflicting}); !errors.Is(err, es.ErrConcurrency) {
		t.Errorf("Conflicting append error = %v, want ErrConcurrency", err)
	}

	// Events without a version are rejected before touching the database.
	unversioned := es.NewGenericEvent("AccountClosed", nil, nil)
	if err := store.AppendTo(ctx, "account-1", []es.Message{unversioned}); !errors.Is(err, es.ErrAggregateVersionMissing) {
		t.Errorf("Unversioned append error = %v, want ErrAggregateVersionMissing", err)
	}
}

func TestAdvisoryLockStrategy(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()

	setupTestTables(t, db)

	ctx := context.Background()

	conn, err := db.Conn(ctx)
	if err != nil {
		t.Fatalf("Failed to obtain connection: %v", err)
	}
	defer conn.Close()

	lock := postgres.NewAdvisoryLockStrategy(conn)

	acquired, err := lock.Acquire(ctx, "stream_write_lock")
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if !acquired {
		t.Fatal("Expected lock to be acquired")
	}

	released, err := lock.Release(ctx, "stream_write_lock")
	if err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if !released {
		t.Error("Expected lock to be released")
	}

	// Releasing a lock this session does not hold reports false.
	released, err = lock.Release(ctx, "stream_write_lock")
	if err != nil {
		t.Fatalf("Second release failed: %v", err)
	}
	if released {
		t.Error("Expected second release to report false")
	}
}

func TestEventStoreWithAdvisoryLock(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()

	setupTestTables(t, db)

	ctx := context.Background()

	// The lock strategy must run on the store's session, so both share the
	// pinned connection.
	conn, err := db.Conn(ctx)
	if err != nil {
		t.Fatalf("Failed to obtain connection: %v", err)
	}
	defer conn.Close()

	config := postgres.DefaultConfig()
	config.PersistenceStrategy = postgres.NewSimpleStreamStrategy(nil)
	config.WriteLockStrategy = postgres.NewAdvisoryLockStrategy(conn)

	store, err := postgres.NewEventStoreWithConn(conn, config)
	if err != nil {
		t.Fatalf("Failed to create event store: %v", err)
	}

	if err := store.Create(ctx, es.Stream{Name: "user-1", Events: []es.Message{
		es.NewGenericEvent("UserRegistered", nil, nil),
	}}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := store.AppendTo(ctx, "user-1", []es.Message{
		es.NewGenericEvent("UserRenamed", nil, nil),
	}); err != nil {
		t.Fatalf("AppendTo failed: %v", err)
	}

	// All advisory locks must be released again.
	var held int
	err = db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM pg_locks WHERE locktype = 'advisory' AND database = (SELECT oid FROM pg_database WHERE datname = current_database())",
	).Scan(&held)
	if err != nil {
		t.Fatalf("Failed to count advisory locks: %v", err)
	}
	if held != 0 {
		t.Errorf("Advisory locks still held: %d", held)
	}
}

func TestCallerManagedTransaction(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()

	setupTestTables(t, db)

	ctx := context.Background()

	config := postgres.DefaultConfig()
	config.PersistenceStrategy = postgres.NewSimpleStreamStrategy(nil)
	config.DisableTransactionHandling = true

	store, err := postgres.NewEventStore(ctx, db, config)
	if err != nil {
		t.Fatalf("Failed to create event store: %v", err)
	}
	defer store.Close()

	if err := store.Create(ctx, es.Stream{Name: "user-1", Events: []es.Message{
		es.NewGenericEvent("UserRegistered", nil, nil),
	}}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Statements the store runs while this transaction is open join it.
	tx, err := store.Conn().BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("Failed to begin transaction: %v", err)
	}
	if err := store.AppendTo(ctx, "user-1", []es.Message{
		es.NewGenericEvent("UserRenamed", nil, nil),
	}); err != nil {
		t.Fatalf("AppendTo failed: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("Rollback failed: %v", err)
	}

	iter, err := store.Load(ctx, "user-1", 1, nil, nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	loaded := drainIterator(t, iter)
	if len(loaded) != 1 {
		t.Errorf("Expected rolled back append to leave 1 event, got %d", len(loaded))
	}

	// The same append committed becomes visible.
	tx, err = store.Conn().BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("Failed to begin transaction: %v", err)
	}
	if err := store.AppendTo(ctx, "user-1", []es.Message{
		es.NewGenericEvent("UserRenamed", nil, nil),
	}); err != nil {
		t.Fatalf("AppendTo failed: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	iter, err = store.Load(ctx, "user-1", 1, nil, nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	loaded = drainIterator(t, iter)
	if len(loaded) != 2 {
		t.Errorf("Expected committed append to leave 2 events, got %d", len(loaded))
	}
}
