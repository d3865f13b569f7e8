package projection

import (
	"errors"
	"testing"

	"github.com/getpup/streamstore/es"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Status
		wantErr bool
	}{
		{name: "idle", input: "idle", want: StatusIdle},
		{name: "running", input: "running", want: StatusRunning},
		{name: "stopping", input: "stopping", want: StatusStopping},
		{name: "deleting", input: "deleting", want: StatusDeleting},
		{name: "deleting including emitted events", input: "deleting_incl_emitted_events", want: StatusDeletingInclEmittedEvents},
		{name: "resetting", input: "resetting", want: StatusResetting},
		{name: "empty string", input: "", wantErr: true},
		{name: "unknown value", input: "paused", wantErr: true},
		{name: "wrong case", input: "Running", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStatus(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseStatus(%q) error = nil, want error", tt.input)
				}
				if !errors.Is(err, es.ErrInvalidArgument) {
					t.Errorf("ParseStatus(%q) error = %v, want ErrInvalidArgument", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseStatus(%q) error = %v, want nil", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseStatus(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestStatus_String(t *testing.T) {
	if got := StatusDeletingInclEmittedEvents.String(); got != "deleting_incl_emitted_events" {
		t.Errorf("String() = %q, want %q", got, "deleting_incl_emitted_events")
	}
	if got := StatusIdle.String(); got != "idle" {
		t.Errorf("String() = %q, want %q", got, "idle")
	}
}
