package es_test

import (
	"testing"

	"github.com/getpup/streamstore/es"
)

func TestStreamNameCategory(t *testing.T) {
	tests := []struct {
		name     string
		stream   es.StreamName
		expected string
	}{
		{
			name:     "aggregate stream",
			stream:   "user-123",
			expected: "user",
		},
		{
			name:     "multiple dashes use the first",
			stream:   "user-123-archived",
			expected: "user",
		},
		{
			name:     "no dash means no category",
			stream:   "user",
			expected: "",
		},
		{
			name:     "leading dash means no category",
			stream:   "-123",
			expected: "",
		},
		{
			name:     "trailing dash keeps the prefix",
			stream:   "order-",
			expected: "order",
		},
		{
			name:     "schema-qualified stream",
			stream:   "public.user-123",
			expected: "public.user",
		},
		{
			name:     "empty name",
			stream:   "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.stream.Category(); got != tt.expected {
				t.Errorf("Category(%q) = %q, want %q", tt.stream, got, tt.expected)
			}
		})
	}
}

func TestStreamNameString(t *testing.T) {
	if got := es.StreamName("user-123").String(); got != "user-123" {
		t.Errorf("String() = %q, want %q", got, "user-123")
	}
}
