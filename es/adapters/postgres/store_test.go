package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"

	"github.com/getpup/streamstore/es"
)

func TestInsertSQL(t *testing.T) {
	got := insertSQL(`"_abc"`, []string{"a", "b", "c"}, 2)
	want := `INSERT INTO "_abc" (a, b, c) VALUES ($1, $2, $3), ($4, $5, $6)`
	if got != want {
		t.Errorf("insertSQL() = %s, want %s", got, want)
	}
}

func TestValidateRegex(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		wantErr bool
	}{
		{"valid", "^user-", false},
		{"empty", "", true},
		{"invalid", "[", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateRegex(tt.pattern)
			if tt.wantErr && !errors.Is(err, es.ErrInvalidArgument) {
				t.Fatalf("validateRegex(%q) error = %v, want ErrInvalidArgument", tt.pattern, err)
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("validateRegex(%q) error = %v, want nil", tt.pattern, err)
			}
		})
	}
}

func TestSQLStateHelpers(t *testing.T) {
	unique := &pq.Error{Code: "23505"}
	if !isUniqueViolation(unique) {
		t.Error("isUniqueViolation(23505) = false, want true")
	}
	if !isUniqueViolation(fmt.Errorf("insert: %w", unique)) {
		t.Error("isUniqueViolation(wrapped 23505) = false, want true")
	}
	if !isUndefinedTable(&pq.Error{Code: "42P01"}) {
		t.Error("isUndefinedTable(42P01) = false, want true")
	}
	if !isUndefinedColumn(&pq.Error{Code: "42703"}) {
		t.Error("isUndefinedColumn(42703) = false, want true")
	}
	if !isInvalidRegex(&pq.Error{Code: "2201B"}) {
		t.Error("isInvalidRegex(2201B) = false, want true")
	}
	if sqlState(errors.New("plain")) != "" {
		t.Error("sqlState(plain error) != \"\"")
	}
	if isUniqueViolation(nil) {
		t.Error("isUniqueViolation(nil) = true, want false")
	}
}

func TestClassifyLoadError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"context cancellation passes through", context.Canceled, context.Canceled},
		{"invalid argument passes through", fmt.Errorf("%w: bad matcher", es.ErrInvalidArgument), es.ErrInvalidArgument},
		{"undefined column means unknown matcher field", &pq.Error{Code: "42703"}, es.ErrUnexpectedValue},
		{"anything else means missing stream", errors.New("boom"), es.ErrStreamNotFound},
		{"undefined table means missing stream", &pq.Error{Code: "42P01"}, es.ErrStreamNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyLoadError("user-123", tt.err)
			if !errors.Is(got, tt.want) {
				t.Errorf("classifyLoadError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassifyIterationError(t *testing.T) {
	classify := classifyIterationError("user-123")

	if got := classify(nil); got != nil {
		t.Errorf("classify(nil) = %v, want nil", got)
	}
	if got := classify(&pq.Error{Code: "42P01"}); !errors.Is(got, es.ErrStreamNotFound) {
		t.Errorf("classify(42P01) = %v, want ErrStreamNotFound", got)
	}
	if got := classify(context.Canceled); !errors.Is(got, context.Canceled) {
		t.Errorf("classify(context.Canceled) = %v, want context.Canceled", got)
	}
	if got := classify(errors.New("connection reset")); errors.Is(got, es.ErrStreamNotFound) {
		t.Errorf("classify(runtime error) = %v, want a plain runtime error", got)
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if _, ok := config.MessageFactory.(es.GenericEventFactory); !ok {
		t.Errorf("MessageFactory = %T, want es.GenericEventFactory", config.MessageFactory)
	}
	if _, ok := config.WriteLockStrategy.(es.NoLockStrategy); !ok {
		t.Errorf("WriteLockStrategy = %T, want es.NoLockStrategy", config.WriteLockStrategy)
	}
	if config.EventStreamsTable != "event_streams" {
		t.Errorf("EventStreamsTable = %q, want event_streams", config.EventStreamsTable)
	}
	if config.LoadBatchSize != 10000 {
		t.Errorf("LoadBatchSize = %d, want 10000", config.LoadBatchSize)
	}
	if config.PersistenceStrategy != nil {
		t.Errorf("PersistenceStrategy = %v, want nil", config.PersistenceStrategy)
	}
	if config.DisableTransactionHandling {
		t.Error("DisableTransactionHandling = true, want false")
	}
}

func TestNewEventStoreWithConnNilConn(t *testing.T) {
	config := DefaultConfig()
	config.PersistenceStrategy = NewSingleStreamStrategy(nil)

	if _, err := NewEventStoreWithConn(nil, config); !errors.Is(err, es.ErrInvalidArgument) {
		t.Fatalf("NewEventStoreWithConn(nil) error = %v, want ErrInvalidArgument", err)
	}
}

func TestRewriteMatchesWithoutProjector(t *testing.T) {
	store := &EventStore{strategy: NewSingleStreamStrategy(nil)}

	matcher, err := es.MetadataMatcher{}.WithMetadataMatch("_aggregate_id", es.OperatorEquals, "42")
	if err != nil {
		t.Fatalf("WithMetadataMatch() error = %v", err)
	}

	matches := store.rewriteMatches(&matcher)
	if len(matches) != 1 {
		t.Fatalf("rewriteMatches() returned %d matches, want 1", len(matches))
	}
	// no index projection on Postgres, the match stays on the metadata document
	if matches[0].FieldType != es.FieldTypeMetadata {
		t.Errorf("FieldType = %v, want FieldTypeMetadata", matches[0].FieldType)
	}
	if matches[0].Field != "_aggregate_id" {
		t.Errorf("Field = %q, want _aggregate_id", matches[0].Field)
	}
}
