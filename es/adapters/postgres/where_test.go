package postgres

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/getpup/streamstore/es"
)

func TestBuildWhereClause(t *testing.T) {
	tests := []struct {
		name           string
		matches        []es.MetadataMatch
		startIndex     int
		wantConditions []string
		wantArgs       []any
		wantErr        bool
	}{
		{
			name: "metadata string equals",
			matches: []es.MetadataMatch{
				{Field: "causation_id", Operator: es.OperatorEquals, Value: "abc", FieldType: es.FieldTypeMetadata},
			},
			startIndex:     1,
			wantConditions: []string{"metadata->>'causation_id' = $1"},
			wantArgs:       []any{"abc"},
		},
		{
			name: "metadata int comparison casts the extraction",
			matches: []es.MetadataMatch{
				{Field: "_aggregate_version", Operator: es.OperatorGreaterThan, Value: 5, FieldType: es.FieldTypeMetadata},
			},
			startIndex:     1,
			wantConditions: []string{"CAST(metadata->>'_aggregate_version' AS BIGINT) > $1"},
			wantArgs:       []any{5},
		},
		{
			name: "metadata bool is inlined",
			matches: []es.MetadataMatch{
				{Field: "active", Operator: es.OperatorEquals, Value: true, FieldType: es.FieldTypeMetadata},
			},
			startIndex:     1,
			wantConditions: []string{"metadata->>'active' = 'true'"},
			wantArgs:       nil,
		},
		{
			name: "property bool is inlined bare",
			matches: []es.MetadataMatch{
				{Field: "confirmed", Operator: es.OperatorNotEquals, Value: false, FieldType: es.FieldTypeMessageProperty},
			},
			startIndex:     1,
			wantConditions: []string{`"confirmed" != false`},
			wantArgs:       nil,
		},
		{
			name: "property alias uuid maps to event_id",
			matches: []es.MetadataMatch{
				{Field: "uuid", Operator: es.OperatorEquals, Value: "4a8c...", FieldType: es.FieldTypeMessageProperty},
			},
			startIndex:     1,
			wantConditions: []string{"event_id = $1"},
			wantArgs:       []any{"4a8c..."},
		},
		{
			name: "property regex",
			matches: []es.MetadataMatch{
				{Field: "event_name", Operator: es.OperatorRegex, Value: "^user", FieldType: es.FieldTypeMessageProperty},
			},
			startIndex:     1,
			wantConditions: []string{"event_name ~ $1"},
			wantArgs:       []any{"^user"},
		},
		{
			name: "metadata in list",
			matches: []es.MetadataMatch{
				{Field: "region", Operator: es.OperatorIn, Value: []any{"eu", "us"}, FieldType: es.FieldTypeMetadata},
			},
			startIndex:     1,
			wantConditions: []string{"metadata->>'region' IN ($1, $2)"},
			wantArgs:       []any{"eu", "us"},
		},
		{
			name: "empty in list",
			matches: []es.MetadataMatch{
				{Field: "region", Operator: es.OperatorIn, Value: []any{}, FieldType: es.FieldTypeMetadata},
			},
			startIndex: 1,
			wantErr:    true,
		},
		{
			name: "unknown property field passes through quoted",
			matches: []es.MetadataMatch{
				{Field: "nope", Operator: es.OperatorEquals, Value: 1, FieldType: es.FieldTypeMessageProperty},
			},
			startIndex:     1,
			wantConditions: []string{`"nope" = $1`},
			wantArgs:       []any{1},
		},
		{
			name: "time values use the canonical layout",
			matches: []es.MetadataMatch{
				{Field: "created_at", Operator: es.OperatorGreaterThanEquals, Value: time.Date(2024, 3, 5, 12, 30, 45, 123456000, time.UTC), FieldType: es.FieldTypeMessageProperty},
			},
			startIndex:     1,
			wantConditions: []string{"created_at >= $1"},
			wantArgs:       []any{"2024-03-05 12:30:45.123456"},
		},
		{
			name: "placeholders start at the given index",
			matches: []es.MetadataMatch{
				{Field: "a", Operator: es.OperatorEquals, Value: "x", FieldType: es.FieldTypeMetadata},
				{Field: "b", Operator: es.OperatorNotIn, Value: []any{"y", "z"}, FieldType: es.FieldTypeMetadata},
			},
			startIndex: 3,
			wantConditions: []string{
				"metadata->>'a' = $3",
				"metadata->>'b' NOT IN ($4, $5)",
			},
			wantArgs: []any{"x", "y", "z"},
		},
		{
			name: "single quotes in metadata fields are escaped",
			matches: []es.MetadataMatch{
				{Field: "it's", Operator: es.OperatorEquals, Value: "v", FieldType: es.FieldTypeMetadata},
			},
			startIndex:     1,
			wantConditions: []string{"metadata->>'it''s' = $1"},
			wantArgs:       []any{"v"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conditions, args, err := buildWhereClause(tt.matches, tt.startIndex)
			if tt.wantErr {
				if !errors.Is(err, es.ErrInvalidArgument) {
					t.Fatalf("buildWhereClause() error = %v, want ErrInvalidArgument", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("buildWhereClause() error = %v, want nil", err)
			}
			if !reflect.DeepEqual(conditions, tt.wantConditions) {
				t.Errorf("conditions = %v, want %v", conditions, tt.wantConditions)
			}
			if !reflect.DeepEqual(args, tt.wantArgs) {
				t.Errorf("args = %v, want %v", args, tt.wantArgs)
			}
		})
	}
}
