package es

import "context"

// EventStore is the common interface of the dialect event stores.
//
// Streams are created, appended to and read by logical name. The count
// parameter of Load and LoadReverse is optional: nil means unbounded. The
// fromNumber of LoadReverse is optional as well: nil starts from the
// highest event number. A nil matcher imposes no metadata filter, an empty
// filter string imposes no name filter.
type EventStore interface {
	// Create registers a stream, creates its table and appends the
	// initial events atomically. Fails with ErrStreamExistsAlready when
	// the name is taken.
	Create(ctx context.Context, stream Stream) error

	// AppendTo appends events to an existing stream. An empty batch is a
	// no-op. Fails with ErrStreamNotFound when the stream does not exist
	// and ErrConcurrency on unique violations or lock conflicts.
	AppendTo(ctx context.Context, streamName StreamName, events []Message) error

	// Load returns a forward iterator over events with no >= fromNumber.
	Load(ctx context.Context, streamName StreamName, fromNumber int64, count *int64, matcher *MetadataMatcher) (StreamIterator, error)

	// LoadReverse returns a backward iterator over events with
	// no <= fromNumber, in strictly decreasing order.
	LoadReverse(ctx context.Context, streamName StreamName, fromNumber *int64, count *int64, matcher *MetadataMatcher) (StreamIterator, error)

	// Delete removes the stream registration and drops its table.
	Delete(ctx context.Context, streamName StreamName) error

	// HasStream reports whether the stream is registered.
	HasStream(ctx context.Context, streamName StreamName) (bool, error)

	// FetchStreamMetadata returns the stream metadata document.
	FetchStreamMetadata(ctx context.Context, streamName StreamName) (map[string]any, error)

	// UpdateStreamMetadata replaces the stream metadata document.
	UpdateStreamMetadata(ctx context.Context, streamName StreamName, newMetadata map[string]any) error

	// FetchStreamNames pages through registered stream names, ordered by
	// name. A non-empty filter is an exact-match restriction.
	FetchStreamNames(ctx context.Context, filter string, matcher *MetadataMatcher, limit, offset int) ([]StreamName, error)

	// FetchStreamNamesRegex pages through stream names matching the
	// pattern. Invalid or empty patterns fail with ErrInvalidArgument.
	FetchStreamNamesRegex(ctx context.Context, regex string, matcher *MetadataMatcher, limit, offset int) ([]StreamName, error)

	// FetchCategoryNames pages through distinct stream categories.
	FetchCategoryNames(ctx context.Context, filter string, limit, offset int) ([]string, error)

	// FetchCategoryNamesRegex pages through categories matching the pattern.
	FetchCategoryNamesRegex(ctx context.Context, regex string, limit, offset int) ([]string, error)
}

// EventStoreDecorator is implemented by stores that wrap another store.
// Projection managers unwrap decorator chains to reach the dialect store.
type EventStoreDecorator interface {
	InnerEventStore() EventStore
}

// LoggingEventStore decorates an EventStore with debug logging of every
// operation. A nil logger disables all output.
type LoggingEventStore struct {
	inner  EventStore
	logger Logger
}

// NewLoggingEventStore wraps the given store.
func NewLoggingEventStore(inner EventStore, logger Logger) *LoggingEventStore {
	return &LoggingEventStore{inner: inner, logger: logger}
}

// InnerEventStore implements EventStoreDecorator.
func (s *LoggingEventStore) InnerEventStore() EventStore { return s.inner }

// Create implements EventStore.
func (s *LoggingEventStore) Create(ctx context.Context, stream Stream) error {
	err := s.inner.Create(ctx, stream)
	s.log(ctx, err, "create stream", "stream", stream.Name, "events", len(stream.Events))
	return err
}

// AppendTo implements EventStore.
func (s *LoggingEventStore) AppendTo(ctx context.Context, streamName StreamName, events []Message) error {
	err := s.inner.AppendTo(ctx, streamName, events)
	s.log(ctx, err, "append to stream", "stream", streamName, "events", len(events))
	return err
}

// Load implements EventStore.
func (s *LoggingEventStore) Load(ctx context.Context, streamName StreamName, fromNumber int64, count *int64, matcher *MetadataMatcher) (StreamIterator, error) {
	iter, err := s.inner.Load(ctx, streamName, fromNumber, count, matcher)
	s.log(ctx, err, "load stream", "stream", streamName, "from", fromNumber)
	return iter, err
}

// LoadReverse implements EventStore.
func (s *LoggingEventStore) LoadReverse(ctx context.Context, streamName StreamName, fromNumber *int64, count *int64, matcher *MetadataMatcher) (StreamIterator, error) {
	iter, err := s.inner.LoadReverse(ctx, streamName, fromNumber, count, matcher)
	s.log(ctx, err, "load stream reverse", "stream", streamName)
	return iter, err
}

// Delete implements EventStore.
func (s *LoggingEventStore) Delete(ctx context.Context, streamName StreamName) error {
	err := s.inner.Delete(ctx, streamName)
	s.log(ctx, err, "delete stream", "stream", streamName)
	return err
}

// HasStream implements EventStore.
func (s *LoggingEventStore) HasStream(ctx context.Context, streamName StreamName) (bool, error) {
	ok, err := s.inner.HasStream(ctx, streamName)
	s.log(ctx, err, "has stream", "stream", streamName, "exists", ok)
	return ok, err
}

// FetchStreamMetadata implements EventStore.
func (s *LoggingEventStore) FetchStreamMetadata(ctx context.Context, streamName StreamName) (map[string]any, error) {
	metadata, err := s.inner.FetchStreamMetadata(ctx, streamName)
	s.log(ctx, err, "fetch stream metadata", "stream", streamName)
	return metadata, err
}

// UpdateStreamMetadata implements EventStore.
func (s *LoggingEventStore) UpdateStreamMetadata(ctx context.Context, streamName StreamName, newMetadata map[string]any) error {
	err := s.inner.UpdateStreamMetadata(ctx, streamName, newMetadata)
	s.log(ctx, err, "update stream metadata", "stream", streamName)
	return err
}

// FetchStreamNames implements EventStore.
func (s *LoggingEventStore) FetchStreamNames(ctx context.Context, filter string, matcher *MetadataMatcher, limit, offset int) ([]StreamName, error) {
	names, err := s.inner.FetchStreamNames(ctx, filter, matcher, limit, offset)
	s.log(ctx, err, "fetch stream names", "filter", filter, "count", len(names))
	return names, err
}

// FetchStreamNamesRegex implements EventStore.
func (s *LoggingEventStore) FetchStreamNamesRegex(ctx context.Context, regex string, matcher *MetadataMatcher, limit, offset int) ([]StreamName, error) {
	names, err := s.inner.FetchStreamNamesRegex(ctx, regex, matcher, limit, offset)
	s.log(ctx, err, "fetch stream names regex", "regex", regex, "count", len(names))
	return names, err
}

// FetchCategoryNames implements EventStore.
func (s *LoggingEventStore) FetchCategoryNames(ctx context.Context, filter string, limit, offset int) ([]string, error) {
	names, err := s.inner.FetchCategoryNames(ctx, filter, limit, offset)
	s.log(ctx, err, "fetch category names", "filter", filter, "count", len(names))
	return names, err
}

// FetchCategoryNamesRegex implements EventStore.
func (s *LoggingEventStore) FetchCategoryNamesRegex(ctx context.Context, regex string, limit, offset int) ([]string, error) {
	names, err := s.inner.FetchCategoryNamesRegex(ctx, regex, limit, offset)
	s.log(ctx, err, "fetch category names regex", "regex", regex, "count", len(names))
	return names, err
}

func (s *LoggingEventStore) log(ctx context.Context, err error, msg string, keyvals ...interface{}) {
	if s.logger == nil {
		return
	}
	if err != nil {
		s.logger.Error(ctx, msg, append(keyvals, "error", err)...)
		return
	}
	s.logger.Debug(ctx, msg, keyvals...)
}

var (
	_ EventStore          = (*LoggingEventStore)(nil)
	_ EventStoreDecorator = (*LoggingEventStore)(nil)
)
