package mysql

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/getpup/streamstore/es"
)

func TestGenerateTableName(t *testing.T) {
	tests := []struct {
		name    string
		stream  es.StreamName
		want    string
		wantErr bool
	}{
		{
			name:   "plain stream name",
			stream: "user-123",
			want:   "_d5ecfb11836d0806d18f2fd4c815d970bdc54ddc",
		},
		{
			name:   "dotted name is hashed whole, there is no schema handling",
			stream: "public.user-123",
			want:   "_910f4ede097c519aa0dab261361f6c0a7230c50d",
		},
		{
			name:    "empty name",
			stream:  "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := generateTableName(tt.stream)
			if tt.wantErr {
				if !errors.Is(err, es.ErrInvalidArgument) {
					t.Fatalf("generateTableName(%q) error = %v, want ErrInvalidArgument", tt.stream, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("generateTableName(%q) error = %v, want nil", tt.stream, err)
			}
			if got != tt.want {
				t.Errorf("generateTableName(%q) = %q, want %q", tt.stream, got, tt.want)
			}
		})
	}
}

func TestQuoteIdent(t *testing.T) {
	tests := []struct {
		name  string
		ident string
		want  string
	}{
		{"plain", "event_streams", "`event_streams`"},
		{"embedded backtick is doubled", "tricky`name", "`tricky``name`"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := quoteIdent(tt.ident); got != tt.want {
				t.Errorf("quoteIdent(%q) = %s, want %s", tt.ident, got, tt.want)
			}
		})
	}
}

func TestAggregateVersion(t *testing.T) {
	tests := []struct {
		name     string
		metadata map[string]any
		want     int64
		wantErr  error
	}{
		{"int", map[string]any{"_aggregate_version": 7}, 7, nil},
		{"int64", map[string]any{"_aggregate_version": int64(9)}, 9, nil},
		{"float64 from decoded json", map[string]any{"_aggregate_version": float64(3)}, 3, nil},
		{"missing", map[string]any{}, 0, es.ErrAggregateVersionMissing},
		{"string", map[string]any{"_aggregate_version": "5"}, 0, es.ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := aggregateVersion(tt.metadata)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("aggregateVersion() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("aggregateVersion() error = %v, want nil", err)
			}
			if got != tt.want {
				t.Errorf("aggregateVersion() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAggregateStreamStrategyPrepareData(t *testing.T) {
	strategy := NewAggregateStreamStrategy(nil)

	id := uuid.New()
	createdAt := time.Date(2024, 3, 5, 12, 30, 45, 123456000, time.UTC)
	event := es.GenericEventFromData(es.MessageData{
		UUID:        id,
		MessageName: "user-registered",
		Payload:     map[string]any{"email": "jo@example.com"},
		Metadata:    map[string]any{"_aggregate_version": 4},
		CreatedAt:   createdAt,
	})

	data, err := strategy.PrepareData([]es.Message{event})
	if err != nil {
		t.Fatalf("PrepareData() error = %v, want nil", err)
	}
	if len(data) != 6 {
		t.Fatalf("PrepareData() returned %d values, want 6", len(data))
	}
	if data[0] != int64(4) {
		t.Errorf("event number = %v, want int64(4)", data[0])
	}
	if data[1] != id.String() {
		t.Errorf("event id = %v, want %s", data[1], id)
	}
	if data[5] != "2024-03-05 12:30:45.123456" {
		t.Errorf("created at = %v, want 2024-03-05 12:30:45.123456", data[5])
	}
}

func TestAggregateStreamStrategyPrepareDataMissingVersion(t *testing.T) {
	strategy := NewAggregateStreamStrategy(nil)
	event := es.NewGenericEvent("user-registered", nil, nil)

	if _, err := strategy.PrepareData([]es.Message{event}); !errors.Is(err, es.ErrAggregateVersionMissing) {
		t.Fatalf("PrepareData() error = %v, want ErrAggregateVersionMissing", err)
	}
}

func TestSimpleStreamStrategyPrepareData(t *testing.T) {
	strategy := NewSimpleStreamStrategy(nil)

	event := es.GenericEventFromData(es.MessageData{
		UUID:        uuid.New(),
		MessageName: "user-registered",
		CreatedAt:   time.Date(2024, 3, 5, 12, 30, 45, 0, time.UTC),
	})

	data, err := strategy.PrepareData([]es.Message{event, event})
	if err != nil {
		t.Fatalf("PrepareData() error = %v, want nil", err)
	}
	if len(data) != 10 {
		t.Fatalf("PrepareData() returned %d values, want 10", len(data))
	}
	// nil payload and metadata serialize as empty documents
	if got := string(data[2].([]byte)); got != "{}" {
		t.Errorf("payload = %s, want {}", got)
	}
	if got := string(data[3].([]byte)); got != "{}" {
		t.Errorf("metadata = %s, want {}", got)
	}
}

func TestStrategyColumnNames(t *testing.T) {
	aggregate := NewAggregateStreamStrategy(nil).ColumnNames()
	if want := []string{"no", "event_id", "event_name", "payload", "metadata", "created_at"}; !equalStrings(aggregate, want) {
		t.Errorf("AggregateStreamStrategy.ColumnNames() = %v, want %v", aggregate, want)
	}

	single := NewSingleStreamStrategy(nil).ColumnNames()
	if want := []string{"event_id", "event_name", "payload", "metadata", "created_at"}; !equalStrings(single, want) {
		t.Errorf("SingleStreamStrategy.ColumnNames() = %v, want %v", single, want)
	}

	simple := NewSimpleStreamStrategy(nil).ColumnNames()
	if want := []string{"event_id", "event_name", "payload", "metadata", "created_at"}; !equalStrings(simple, want) {
		t.Errorf("SimpleStreamStrategy.ColumnNames() = %v, want %v", simple, want)
	}
}

func TestStrategyCreateSchema(t *testing.T) {
	table := "_cce55e4309a753985bdd21919395fdc17daa11e4"

	aggregate := NewAggregateStreamStrategy(nil).CreateSchema(table)
	if len(aggregate) != 1 {
		t.Fatalf("AggregateStreamStrategy.CreateSchema() returned %d statements, want 1", len(aggregate))
	}
	for _, fragment := range []string{
		"no BIGINT(20) NOT NULL,",
		"GENERATED ALWAYS AS (JSON_EXTRACT(metadata, '$._aggregate_version')) STORED NOT NULL",
		"UNIQUE KEY ix_aggregate_version (aggregate_version)",
		"ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_bin",
	} {
		if !strings.Contains(aggregate[0], fragment) {
			t.Errorf("missing %q in aggregate schema:\n%s", fragment, aggregate[0])
		}
	}

	single := NewSingleStreamStrategy(nil).CreateSchema(table)
	if len(single) != 1 {
		t.Fatalf("SingleStreamStrategy.CreateSchema() returned %d statements, want 1", len(single))
	}
	for _, fragment := range []string{
		"no BIGINT(20) NOT NULL AUTO_INCREMENT",
		"JSON_UNQUOTE(JSON_EXTRACT(metadata, '$._aggregate_id'))",
		"JSON_UNQUOTE(JSON_EXTRACT(metadata, '$._aggregate_type'))",
		"UNIQUE KEY ix_unique_event (aggregate_type, aggregate_id, aggregate_version)",
		"KEY ix_query_aggregate (aggregate_type, aggregate_id, no)",
	} {
		if !strings.Contains(single[0], fragment) {
			t.Errorf("missing %q in single stream schema:\n%s", fragment, single[0])
		}
	}

	simple := NewSimpleStreamStrategy(nil).CreateSchema(table)
	if len(simple) != 1 {
		t.Fatalf("SimpleStreamStrategy.CreateSchema() returned %d statements, want 1", len(simple))
	}
	if !strings.Contains(simple[0], "`"+table+"`") {
		t.Errorf("table name not quoted in %s", simple[0])
	}
	if strings.Contains(simple[0], "aggregate_version") {
		t.Errorf("simple stream schema must not carry aggregate columns:\n%s", simple[0])
	}
}

func TestSingleStreamStrategyCapabilities(t *testing.T) {
	single := NewSingleStreamStrategy(nil)

	if got := single.IndexName(); got != "ix_query_aggregate" {
		t.Errorf("IndexName() = %q, want ix_query_aggregate", got)
	}

	fields := single.IndexedMetadataFields()
	want := map[string]string{
		"_aggregate_id":      "aggregate_id",
		"_aggregate_type":    "aggregate_type",
		"_aggregate_version": "aggregate_version",
	}
	for field, column := range want {
		if fields[field] != column {
			t.Errorf("IndexedMetadataFields()[%q] = %q, want %q", field, fields[field], column)
		}
	}

	// the other strategies advertise neither capability
	if _, ok := any(NewAggregateStreamStrategy(nil)).(es.QueryHinter); ok {
		t.Error("AggregateStreamStrategy implements QueryHinter, want plain strategy")
	}
	if _, ok := any(NewSimpleStreamStrategy(nil)).(es.MetadataProjector); ok {
		t.Error("SimpleStreamStrategy implements MetadataProjector, want plain strategy")
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
