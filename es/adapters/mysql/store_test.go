package mysql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/go-sql-driver/mysql"

	"github.com/getpup/streamstore/es"
)

func TestInsertSQL(t *testing.T) {
	got := insertSQL("`_abc`", []string{"a", "b", "c"}, 2)
	want := "INSERT INTO `_abc` (a, b, c) VALUES (?, ?, ?), (?, ?, ?)"
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

func TestErrorNumberHelpers(t *testing.T) {
	unique := &mysql.MySQLError{Number: 1062}
	if !isUniqueViolation(unique) {
		t.Error("isUniqueViolation(1062) = false, want true")
	}
	if !isUniqueViolation(fmt.Errorf("insert: %w", unique)) {
		t.Error("isUniqueViolation(wrapped 1062) = false, want true")
	}
	if !isUndefinedTable(&mysql.MySQLError{Number: 1146}) {
		t.Error("isUndefinedTable(1146) = false, want true")
	}
	if !isUndefinedColumn(&mysql.MySQLError{Number: 1054}) {
		t.Error("isUndefinedColumn(1054) = false, want true")
	}
	if !isInvalidRegex(&mysql.MySQLError{Number: 3692}) {
		t.Error("isInvalidRegex(3692) = false, want true")
	}
	if !isInvalidRegex(&mysql.MySQLError{Number: 1139}) {
		t.Error("isInvalidRegex(1139) = false, want true")
	}
	if !isLockDeadlock(&mysql.MySQLError{Number: 3058}) {
		t.Error("isLockDeadlock(3058) = false, want true")
	}
	if errorNumber(errors.New("plain")) != 0 {
		t.Error("errorNumber(plain error) != 0")
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
		{"unknown column means unknown matcher field", &mysql.MySQLError{Number: 1054}, es.ErrUnexpectedValue},
		{"anything else means missing stream", errors.New("boom"), es.ErrStreamNotFound},
		{"missing table means missing stream", &mysql.MySQLError{Number: 1146}, es.ErrStreamNotFound},
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
	if got := classify(&mysql.MySQLError{Number: 1146}); !errors.Is(got, es.ErrStreamNotFound) {
		t.Errorf("classify(1146) = %v, want ErrStreamNotFound", got)
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
}

func TestNewEventStoreWithConnNilConn(t *testing.T) {
	config := DefaultConfig()
	config.PersistenceStrategy = NewSingleStreamStrategy(nil)

	if _, err := NewEventStoreWithConn(nil, config); !errors.Is(err, es.ErrInvalidArgument) {
		t.Fatalf("NewEventStoreWithConn(nil) error = %v, want ErrInvalidArgument", err)
	}
}

func TestRewriteMatchesProjectsIndexedFields(t *testing.T) {
	store := &EventStore{strategy: NewSingleStreamStrategy(nil)}

	matcher, err := es.MetadataMatcher{}.WithMetadataMatch("_aggregate_id", es.OperatorEquals, "42")
	if err != nil {
		t.Fatalf("WithMetadataMatch() error = %v", err)
	}
	matcher, err = matcher.WithMetadataMatch("actor", es.OperatorEquals, "alice")
	if err != nil {
		t.Fatalf("WithMetadataMatch() error = %v", err)
	}

	matches := store.rewriteMatches(&matcher)
	if len(matches) != 2 {
		t.Fatalf("rewriteMatches() returned %d matches, want 2", len(matches))
	}
	if matches[0].FieldType != es.FieldTypeMessageProperty || matches[0].Field != "aggregate_id" {
		t.Errorf("indexed field = %q (%v), want aggregate_id property", matches[0].Field, matches[0].FieldType)
	}
	if matches[1].FieldType != es.FieldTypeMetadata || matches[1].Field != "actor" {
		t.Errorf("plain field = %q (%v), want untouched metadata match", matches[1].Field, matches[1].FieldType)
	}
}

func TestBuildLoadQueriesInjectsIndexHint(t *testing.T) {
	single := &EventStore{strategy: NewSingleStreamStrategy(nil), batchSize: 100}

	selectSQL, countSQL, args, err := single.buildLoadQueries("_abc", nil, true)
	if err != nil {
		t.Fatalf("buildLoadQueries() error = %v, want nil", err)
	}
	if !strings.Contains(selectSQL, "FROM `_abc` USE INDEX (ix_query_aggregate) WHERE") {
		t.Errorf("select misses the index hint: %s", selectSQL)
	}
	if strings.Contains(countSQL, "USE INDEX") {
		t.Errorf("count must not carry the index hint: %s", countSQL)
	}
	if !strings.Contains(selectSQL, "no >= ? ORDER BY no ASC LIMIT ?") {
		t.Errorf("unexpected select shape: %s", selectSQL)
	}
	if len(args) != 0 {
		t.Errorf("args = %v, want none without a matcher", args)
	}

	simple := &EventStore{strategy: NewSimpleStreamStrategy(nil), batchSize: 100}
	selectSQL, _, _, err = simple.buildLoadQueries("_abc", nil, false)
	if err != nil {
		t.Fatalf("buildLoadQueries() error = %v, want nil", err)
	}
	if strings.Contains(selectSQL, "USE INDEX") {
		t.Errorf("simple strategy must not hint: %s", selectSQL)
	}
	if !strings.Contains(selectSQL, "no <= ? ORDER BY no DESC LIMIT ?") {
		t.Errorf("unexpected reverse select shape: %s", selectSQL)
	}
}
