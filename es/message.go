// Package es provides core event store interfaces and types.
package es

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Message represents an immutable domain event.
//
// Implementations must treat payload and metadata as read-only; mutation
// goes through WithAddedMetadata, which returns a copy.
type Message interface {
	// UUID returns the unique identifier of this message.
	UUID() uuid.UUID

	// MessageName identifies the type of event, at most 100 characters.
	MessageName() string

	// Payload contains the event data as a JSON-compatible map.
	Payload() map[string]any

	// Metadata contains additional event metadata as a JSON-compatible map.
	Metadata() map[string]any

	// CreatedAt is when the event was created, in UTC.
	CreatedAt() time.Time

	// WithAddedMetadata returns a copy of the message with the given
	// metadata key set. The receiver is left unchanged.
	WithAddedMetadata(key string, value any) Message
}

// MessageData carries the raw fields of a message between the store and a
// MessageFactory or MessageConverter.
type MessageData struct {
	// CreatedAt is when the event was created
	CreatedAt time.Time

	// Payload contains the event data
	Payload map[string]any

	// Metadata contains additional event metadata
	Metadata map[string]any

	// MessageName identifies the type of event
	MessageName string

	// UUID is the unique identifier of the event
	UUID uuid.UUID
}

// MessageFactory reconstructs messages from stored rows.
// The event store calls it for every row read from a stream table.
type MessageFactory interface {
	CreateFromData(data MessageData) (Message, error)
}

// MessageConverter extracts the raw fields of a message for persistence.
type MessageConverter interface {
	ToData(msg Message) MessageData
}

// GenericEvent is the default Message implementation.
// It is immutable; WithAddedMetadata returns a modified copy.
type GenericEvent struct {
	createdAt   time.Time
	payload     map[string]any
	metadata    map[string]any
	messageName string
	uuid        uuid.UUID
}

// NewGenericEvent creates an event with a fresh UUID and the current UTC
// time, truncated to microseconds so a stored and reloaded event carries the
// exact same timestamp. Nil payload or metadata become empty maps.
func NewGenericEvent(messageName string, payload, metadata map[string]any) *GenericEvent {
	if payload == nil {
		payload = map[string]any{}
	}
	if metadata == nil {
		metadata = map[string]any{}
	}
	return &GenericEvent{
		uuid:        uuid.New(),
		messageName: messageName,
		payload:     payload,
		metadata:    metadata,
		createdAt:   time.Now().UTC().Truncate(time.Microsecond),
	}
}

// GenericEventFromData builds an event from previously stored fields.
func GenericEventFromData(data MessageData) *GenericEvent {
	payload := data.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	metadata := data.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	return &GenericEvent{
		uuid:        data.UUID,
		messageName: data.MessageName,
		payload:     payload,
		metadata:    metadata,
		createdAt:   data.CreatedAt,
	}
}

// UUID implements Message.
func (e *GenericEvent) UUID() uuid.UUID { return e.uuid }

// MessageName implements Message.
func (e *GenericEvent) MessageName() string { return e.messageName }

// Payload implements Message.
func (e *GenericEvent) Payload() map[string]any { return e.payload }

// Metadata implements Message.
func (e *GenericEvent) Metadata() map[string]any { return e.metadata }

// CreatedAt implements Message.
func (e *GenericEvent) CreatedAt() time.Time { return e.createdAt }

// WithAddedMetadata implements Message.
func (e *GenericEvent) WithAddedMetadata(key string, value any) Message {
	metadata := make(map[string]any, len(e.metadata)+1)
	for k, v := range e.metadata {
		metadata[k] = v
	}
	metadata[key] = value

	clone := *e
	clone.metadata = metadata
	return &clone
}

// GenericEventFactory builds GenericEvent values from stored rows.
// It is the default MessageFactory of the dialect event stores.
type GenericEventFactory struct{}

// CreateFromData implements MessageFactory.
func (GenericEventFactory) CreateFromData(data MessageData) (Message, error) {
	if data.MessageName == "" {
		return nil, fmt.Errorf("%w: message name must not be empty", ErrInvalidArgument)
	}
	if len(data.MessageName) > 100 {
		return nil, fmt.Errorf("%w: message name exceeds 100 characters", ErrInvalidArgument)
	}
	return GenericEventFromData(data), nil
}

// GenericEventConverter extracts fields through the Message interface.
// It works with any Message implementation, not only GenericEvent.
type GenericEventConverter struct{}

// ToData implements MessageConverter.
func (GenericEventConverter) ToData(msg Message) MessageData {
	return MessageData{
		UUID:        msg.UUID(),
		MessageName: msg.MessageName(),
		Payload:     msg.Payload(),
		Metadata:    msg.Metadata(),
		CreatedAt:   msg.CreatedAt(),
	}
}

// Ensure default implementations satisfy the interfaces
var (
	_ Message          = (*GenericEvent)(nil)
	_ MessageFactory   = GenericEventFactory{}
	_ MessageConverter = GenericEventConverter{}
)
