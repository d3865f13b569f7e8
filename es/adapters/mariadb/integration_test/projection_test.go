//go:build integration

package integration_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"

	"github.com/getpup/streamstore/es"
	"github.com/getpup/streamstore/es/adapters/mariadb"
	"github.com/getpup/streamstore/es/projection"
)

// numberToInt reads counters from projection state. Freshly initialized
// state carries ints, state reloaded from the database carries json.Number.
func numberToInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case json.Number:
		i, _ := n.Int64()
		return int(i)
	}
	return 0
}

func newTestManager(t *testing.T, db *sql.DB, store *mariadb.EventStore) *mariadb.ProjectionManager {
	t.Helper()

	manager, err := mariadb.NewProjectionManager(mariadb.ProjectionManagerConfig{
		EventStore: store,
		DB:         db,
	})
	if err != nil {
		t.Fatalf("Failed to create projection manager: %v", err)
	}
	return manager
}

func TestProjectorRun(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()

	setupTestTables(t, db)

	ctx := context.Background()
	store := newTestStore(t, db)
	manager := newTestManager(t, db, store)

	if err := store.Create(ctx, es.Stream{Name: "user-1", Events: []es.Message{
		es.NewGenericEvent("UserRegistered", map[string]any{"email": "jo@example.com"}, nil),
		es.NewGenericEvent("UserRegistered", map[string]any{"email": "sam@example.com"}, nil),
	}}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	counter := func(ctx context.Context, state map[string]any, event es.Message, scope *projection.ProjectorScope) (map[string]any, error) {
		state["registered"] = numberToInt(state["registered"]) + 1
		return state, nil
	}

	projector, err := manager.CreateProjection("user_counter", nil)
	if err != nil {
		t.Fatalf("CreateProjection failed: %v", err)
	}
	projector.
		Init(func() map[string]any { return map[string]any{"registered": 0} }).
		FromStream("user-1", nil).
		When(map[string]projection.ProjectorHandler{"UserRegistered": counter})

	if err := projector.Run(ctx, false); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if got := numberToInt(projector.State()["registered"]); got != 2 {
		t.Errorf("State registered = %d, want 2", got)
	}

	status, err := manager.FetchProjectionStatus(ctx, "user_counter")
	if err != nil {
		t.Fatalf("FetchProjectionStatus failed: %v", err)
	}
	if status != projection.StatusIdle {
		t.Errorf("Status = %s, want %s", status, projection.StatusIdle)
	}

	positions, err := manager.FetchProjectionStreamPositions(ctx, "user_counter")
	if err != nil {
		t.Fatalf("FetchProjectionStreamPositions failed: %v", err)
	}
	if positions["user-1"] != 2 {
		t.Errorf("Positions = %v, want user-1 at 2", positions)
	}

	// A later run resumes from the stored position and state.
	if err := store.AppendTo(ctx, "user-1", []es.Message{
		es.NewGenericEvent("UserRegistered", map[string]any{"email": "kim@example.com"}, nil),
	}); err != nil {
		t.Fatalf("AppendTo failed: %v", err)
	}

	resumed, err := manager.CreateProjection("user_counter", nil)
	if err != nil {
		t.Fatalf("CreateProjection failed: %v", err)
	}
	resumed.
		Init(func() map[string]any { return map[string]any{"registered": 0} }).
		FromStream("user-1", nil).
		When(map[string]projection.ProjectorHandler{"UserRegistered": counter})

	if err := resumed.Run(ctx, false); err != nil {
		t.Fatalf("Resumed run failed: %v", err)
	}
	if got := numberToInt(resumed.State()["registered"]); got != 3 {
		t.Errorf("Resumed state registered = %d, want 3", got)
	}
}
