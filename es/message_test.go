package es_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/getpup/streamstore/es"
)

func TestNewGenericEvent(t *testing.T) {
	payload := map[string]any{"email": "user@example.com"}
	metadata := map[string]any{"_causation_id": "cause-1"}

	event := es.NewGenericEvent("UserRegistered", payload, metadata)

	if event.UUID() == uuid.Nil {
		t.Error("expected a fresh UUID, got uuid.Nil")
	}
	if event.MessageName() != "UserRegistered" {
		t.Errorf("expected message name UserRegistered, got %s", event.MessageName())
	}
	if event.Payload()["email"] != "user@example.com" {
		t.Errorf("unexpected payload: %v", event.Payload())
	}
	if event.Metadata()["_causation_id"] != "cause-1" {
		t.Errorf("unexpected metadata: %v", event.Metadata())
	}

	createdAt := event.CreatedAt()
	if createdAt.Location() != time.UTC {
		t.Errorf("expected UTC timestamp, got %v", createdAt.Location())
	}
	if !createdAt.Truncate(time.Microsecond).Equal(createdAt) {
		t.Errorf("expected microsecond precision, got %v", createdAt)
	}
	if time.Since(createdAt) > time.Minute {
		t.Errorf("expected a recent timestamp, got %v", createdAt)
	}
}

func TestNewGenericEventNilMaps(t *testing.T) {
	event := es.NewGenericEvent("UserRegistered", nil, nil)

	if event.Payload() == nil {
		t.Error("expected empty payload map, got nil")
	}
	if len(event.Payload()) != 0 {
		t.Errorf("expected empty payload, got %v", event.Payload())
	}
	if event.Metadata() == nil {
		t.Error("expected empty metadata map, got nil")
	}
	if len(event.Metadata()) != 0 {
		t.Errorf("expected empty metadata, got %v", event.Metadata())
	}
}

func TestGenericEventFromData(t *testing.T) {
	id := uuid.New()
	createdAt := time.Date(2024, 3, 1, 12, 30, 45, 123456000, time.UTC)

	event := es.GenericEventFromData(es.MessageData{
		UUID:        id,
		MessageName: "UserRegistered",
		Payload:     map[string]any{"name": "Sasha"},
		Metadata:    map[string]any{"_event_version": 2},
		CreatedAt:   createdAt,
	})

	if event.UUID() != id {
		t.Errorf("expected UUID %s, got %s", id, event.UUID())
	}
	if event.MessageName() != "UserRegistered" {
		t.Errorf("expected message name UserRegistered, got %s", event.MessageName())
	}
	if !event.CreatedAt().Equal(createdAt) {
		t.Errorf("expected created at %v, got %v", createdAt, event.CreatedAt())
	}
	if event.Payload()["name"] != "Sasha" {
		t.Errorf("unexpected payload: %v", event.Payload())
	}
	if event.Metadata()["_event_version"] != 2 {
		t.Errorf("unexpected metadata: %v", event.Metadata())
	}
}

func TestGenericEventFromDataNilMaps(t *testing.T) {
	event := es.GenericEventFromData(es.MessageData{
		UUID:        uuid.New(),
		MessageName: "UserRegistered",
		CreatedAt:   time.Now().UTC(),
	})

	if event.Payload() == nil {
		t.Error("expected empty payload map, got nil")
	}
	if event.Metadata() == nil {
		t.Error("expected empty metadata map, got nil")
	}
}

func TestWithAddedMetadata(t *testing.T) {
	original := es.NewGenericEvent("UserRegistered", map[string]any{"name": "Sasha"}, map[string]any{"existing": "kept"})

	modified := original.WithAddedMetadata("_correlation_id", "corr-1")

	// The original must be untouched
	if _, ok := original.Metadata()["_correlation_id"]; ok {
		t.Error("original metadata was mutated")
	}
	if len(original.Metadata()) != 1 {
		t.Errorf("original metadata changed size: %v", original.Metadata())
	}

	// The copy carries both keys and shares everything else
	if modified.Metadata()["_correlation_id"] != "corr-1" {
		t.Errorf("expected added key in copy, got %v", modified.Metadata())
	}
	if modified.Metadata()["existing"] != "kept" {
		t.Errorf("expected existing key in copy, got %v", modified.Metadata())
	}
	if modified.UUID() != original.UUID() {
		t.Error("expected UUID to be shared with the original")
	}
	if modified.MessageName() != original.MessageName() {
		t.Error("expected message name to be shared with the original")
	}
	if !modified.CreatedAt().Equal(original.CreatedAt()) {
		t.Error("expected created at to be shared with the original")
	}
}

func TestWithAddedMetadataOverwrites(t *testing.T) {
	original := es.NewGenericEvent("UserRegistered", nil, map[string]any{"key": "old"})

	modified := original.WithAddedMetadata("key", "new")

	if original.Metadata()["key"] != "old" {
		t.Errorf("original metadata was mutated: %v", original.Metadata())
	}
	if modified.Metadata()["key"] != "new" {
		t.Errorf("expected overwritten key in copy, got %v", modified.Metadata())
	}
}

func TestGenericEventFactoryCreateFromData(t *testing.T) {
	valid := es.MessageData{
		UUID:        uuid.New(),
		MessageName: "UserRegistered",
		CreatedAt:   time.Now().UTC(),
	}

	tests := []struct {
		name    string
		mutate  func(data es.MessageData) es.MessageData
		wantErr bool
	}{
		{
			name:   "valid data",
			mutate: func(d es.MessageData) es.MessageData { return d },
		},
		{
			name: "empty message name",
			mutate: func(d es.MessageData) es.MessageData {
				d.MessageName = ""
				return d
			},
			wantErr: true,
		},
		{
			name: "message name at limit",
			mutate: func(d es.MessageData) es.MessageData {
				d.MessageName = strings.Repeat("a", 100)
				return d
			},
		},
		{
			name: "message name too long",
			mutate: func(d es.MessageData) es.MessageData {
				d.MessageName = strings.Repeat("a", 101)
				return d
			},
			wantErr: true,
		},
	}

	factory := es.GenericEventFactory{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := factory.CreateFromData(tt.mutate(valid))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error, got nil")
				}
				if !errors.Is(err, es.ErrInvalidArgument) {
					t.Errorf("expected ErrInvalidArgument, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if msg.UUID() != valid.UUID {
				t.Errorf("expected UUID %s, got %s", valid.UUID, msg.UUID())
			}
		})
	}
}

func TestGenericEventConverterToData(t *testing.T) {
	event := es.NewGenericEvent(
		"UserRegistered",
		map[string]any{"name": "Sasha"},
		map[string]any{"_event_version": 1},
	)

	data := es.GenericEventConverter{}.ToData(event)

	if data.UUID != event.UUID() {
		t.Errorf("expected UUID %s, got %s", event.UUID(), data.UUID)
	}
	if data.MessageName != "UserRegistered" {
		t.Errorf("expected message name UserRegistered, got %s", data.MessageName)
	}
	if data.Payload["name"] != "Sasha" {
		t.Errorf("unexpected payload: %v", data.Payload)
	}
	if data.Metadata["_event_version"] != 1 {
		t.Errorf("unexpected metadata: %v", data.Metadata)
	}
	if !data.CreatedAt.Equal(event.CreatedAt()) {
		t.Errorf("expected created at %v, got %v", event.CreatedAt(), data.CreatedAt)
	}
}
