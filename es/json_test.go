package es_test

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/getpup/streamstore/es"
)

func TestEncodeJSON(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		expected string
	}{
		{
			name:     "integer stays integer",
			value:    map[string]any{"count": 3},
			expected: `{"count":3}`,
		},
		{
			name:     "integral float keeps zero fraction",
			value:    map[string]any{"price": 2.0},
			expected: `{"price":2.0}`,
		},
		{
			name:     "fractional float unchanged",
			value:    map[string]any{"price": 2.5},
			expected: `{"price":2.5}`,
		},
		{
			name:     "json number passes through verbatim",
			value:    map[string]any{"price": json.Number("2.0")},
			expected: `{"price":2.0}`,
		},
		{
			name:     "html characters are not escaped",
			value:    map[string]any{"html": "<a href=\"x\">&</a>"},
			expected: `{"html":"<a href=\"x\">&</a>"}`,
		},
		{
			name:     "nested structures are walked",
			value:    map[string]any{"list": []any{1.0, 2.5}, "doc": map[string]any{"v": 3.0}},
			expected: `{"doc":{"v":3.0},"list":[1.0,2.5]}`,
		},
		{
			name:     "empty map",
			value:    map[string]any{},
			expected: `{}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded, err := es.EncodeJSON(tt.value)
			if err != nil {
				t.Fatalf("EncodeJSON failed: %v", err)
			}
			if string(encoded) != tt.expected {
				t.Errorf("EncodeJSON = %s, want %s", encoded, tt.expected)
			}
		})
	}
}

func TestEncodeJSONNoTrailingNewline(t *testing.T) {
	encoded, err := es.EncodeJSON(map[string]any{"a": 1})
	if err != nil {
		t.Fatalf("EncodeJSON failed: %v", err)
	}
	if strings.HasSuffix(string(encoded), "\n") {
		t.Error("expected no trailing newline")
	}
}

func TestEncodeJSONError(t *testing.T) {
	_, err := es.EncodeJSON(map[string]any{"bad": math.Inf(1)})
	if err == nil {
		t.Fatal("expected an error for unencodable value, got nil")
	}
	if !strings.Contains(err.Error(), "failed to encode json") {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestDecodeJSON(t *testing.T) {
	decoded, err := es.DecodeJSON([]byte(`{"price":2.0,"qty":3,"name":"widget"}`))
	if err != nil {
		t.Fatalf("DecodeJSON failed: %v", err)
	}

	price, ok := decoded["price"].(json.Number)
	if !ok {
		t.Fatalf("expected json.Number for price, got %T", decoded["price"])
	}
	if price.String() != "2.0" {
		t.Errorf("expected price 2.0, got %s", price)
	}

	qty, ok := decoded["qty"].(json.Number)
	if !ok {
		t.Fatalf("expected json.Number for qty, got %T", decoded["qty"])
	}
	if qty.String() != "3" {
		t.Errorf("expected qty 3, got %s", qty)
	}

	if decoded["name"] != "widget" {
		t.Errorf("expected name widget, got %v", decoded["name"])
	}
}

func TestDecodeJSONInvalid(t *testing.T) {
	_, err := es.DecodeJSON([]byte(`{not json`))
	if err == nil {
		t.Fatal("expected an error for invalid input, got nil")
	}
	if !strings.Contains(err.Error(), "failed to decode json") {
		t.Errorf("unexpected error message: %v", err)
	}
}

// TestJSONRoundTrip checks that a stored document re-encodes byte-identically
// after a decode, which keeps repeated load/store cycles from rewriting rows.
func TestJSONRoundTrip(t *testing.T) {
	original := []byte(`{"amount":99.99,"count":3,"ratio":2.0}`)

	decoded, err := es.DecodeJSON(original)
	if err != nil {
		t.Fatalf("DecodeJSON failed: %v", err)
	}
	encoded, err := es.EncodeJSON(decoded)
	if err != nil {
		t.Fatalf("EncodeJSON failed: %v", err)
	}

	if string(encoded) != string(original) {
		t.Errorf("round trip changed the document:\n  in:  %s\n  out: %s", original, encoded)
	}
}
