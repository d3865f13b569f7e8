package projection

import (
	"context"
	"errors"
	"fmt"

	"github.com/getpup/streamstore/es"
)

// QueryHandler processes one event and returns the next state. Returning a
// nil map keeps the current state.
type QueryHandler func(ctx context.Context, state map[string]any, event es.Message, scope *QueryScope) (map[string]any, error)

// QueryConfig wires a Query to its event store and database session.
type QueryConfig struct {
	// EventStore loads the source streams.
	EventStore es.EventStore

	// DB resolves category and all-stream sources against the event
	// streams table. It must target the same database as the event store.
	DB es.DBTX

	// Logger is optional. When nil, nothing is logged.
	Logger es.Logger

	// EventStreamsTable is the stream registry table name.
	// Defaults to "event_streams".
	EventStreamsTable string

	// Dialect selects the placeholder flavor for the source lookup SQL.
	Dialect Dialect

	// Options tune the runtime behavior.
	Options QueryOptions
}

// Query folds source streams into an in-memory state document. Unlike a
// Projector it keeps no bookkeeping row: there is no lease, no persisted
// position and no background polling. Run performs a single pass over the
// sources and returns.
//
// A Query is not safe for concurrent use.
type Query struct {
	store  es.EventStore
	db     es.DBTX
	logger es.Logger
	opts   QueryOptions

	eventStreamsTable string
	dialect           Dialect

	initCallback func() map[string]any
	handler      QueryHandler
	handlers     map[string]QueryHandler
	sources      sourceStreams
	matcher      *es.MetadataMatcher

	state     map[string]any
	positions map[string]int64
	isStopped bool
	scope     *QueryScope

	buildErr error
}

// NewQuery returns a query bound to the given store and session.
func NewQuery(config QueryConfig) (*Query, error) {
	if config.EventStore == nil {
		return nil, fmt.Errorf("%w: event store is required", es.ErrInvalidArgument)
	}
	if config.DB == nil {
		return nil, fmt.Errorf("%w: db handle is required", es.ErrInvalidArgument)
	}
	if config.EventStreamsTable == "" {
		config.EventStreamsTable = "event_streams"
	}

	q := &Query{
		store:             config.EventStore,
		db:                config.DB,
		logger:            config.Logger,
		opts:              config.Options,
		eventStreamsTable: config.EventStreamsTable,
		dialect:           config.Dialect,
		state:             map[string]any{},
		positions:         map[string]int64{},
	}
	q.scope = &QueryScope{query: q}
	return q, nil
}

// State returns the current state document. Callers must not mutate it.
func (q *Query) State() map[string]any {
	return q.state
}

// Init registers a callback that seeds the state. It runs immediately and
// again after every Reset.
func (q *Query) Init(callback func() map[string]any) *Query {
	if q.buildErr != nil {
		return q
	}
	if q.initCallback != nil {
		q.buildErr = fmt.Errorf("%w: query is already initialized", es.ErrInvalidArgument)
		return q
	}
	if callback == nil {
		q.buildErr = fmt.Errorf("%w: init callback must not be nil", es.ErrInvalidArgument)
		return q
	}
	if state := callback(); state != nil {
		q.state = state
	}
	q.initCallback = callback
	return q
}

// FromStream sources the query from a single stream, optionally filtered by
// a metadata matcher.
func (q *Query) FromStream(streamName es.StreamName, matcher *es.MetadataMatcher) *Query {
	if !q.setSources(sourceStreams{streams: []es.StreamName{streamName}}) {
		return q
	}
	q.matcher = matcher
	return q
}

// FromStreams sources the query from the given streams.
func (q *Query) FromStreams(streamNames ...es.StreamName) *Query {
	q.setSources(sourceStreams{streams: streamNames})
	return q
}

// FromCategory sources the query from every stream of a category.
func (q *Query) FromCategory(category string) *Query {
	q.setSources(sourceStreams{categories: []string{category}})
	return q
}

// FromCategories sources the query from every stream of the given
// categories.
func (q *Query) FromCategories(categories ...string) *Query {
	q.setSources(sourceStreams{categories: categories})
	return q
}

// FromAll sources the query from every registered stream except emitted
// ones (names starting with $).
func (q *Query) FromAll() *Query {
	q.setSources(sourceStreams{all: true})
	return q
}

func (q *Query) setSources(sources sourceStreams) bool {
	if q.buildErr != nil {
		return false
	}
	if q.sources.configured() {
		q.buildErr = fmt.Errorf("%w: from was already called on this query", es.ErrInvalidArgument)
		return false
	}
	if !sources.configured() {
		q.buildErr = fmt.Errorf("%w: at least one source is required", es.ErrInvalidArgument)
		return false
	}
	q.sources = sources
	return true
}

// When registers one handler per event name. Events without a handler still
// advance the position but are otherwise ignored.
func (q *Query) When(handlers map[string]QueryHandler) *Query {
	if q.buildErr != nil {
		return q
	}
	if q.handler != nil || q.handlers != nil {
		q.buildErr = fmt.Errorf("%w: when was already called on this query", es.ErrInvalidArgument)
		return q
	}
	if len(handlers) == 0 {
		q.buildErr = fmt.Errorf("%w: when requires at least one handler", es.ErrInvalidArgument)
		return q
	}
	registered := make(map[string]QueryHandler, len(handlers))
	for eventName, handler := range handlers {
		if eventName == "" || handler == nil {
			q.buildErr = fmt.Errorf("%w: handlers must map a non-empty event name to a non-nil handler", es.ErrInvalidArgument)
			return q
		}
		registered[eventName] = handler
	}
	q.handlers = registered
	return q
}

// WhenAny registers a single handler for every event.
func (q *Query) WhenAny(handler QueryHandler) *Query {
	if q.buildErr != nil {
		return q
	}
	if q.handler != nil || q.handlers != nil {
		q.buildErr = fmt.Errorf("%w: when was already called on this query", es.ErrInvalidArgument)
		return q
	}
	if handler == nil {
		q.buildErr = fmt.Errorf("%w: handler must not be nil", es.ErrInvalidArgument)
		return q
	}
	q.handler = handler
	return q
}

// Reset discards the accumulated state and positions. The init callback, if
// any, reseeds the state.
func (q *Query) Reset() {
	q.positions = map[string]int64{}
	q.state = map[string]any{}
	q.isStopped = false
	if q.initCallback != nil {
		if state := q.initCallback(); state != nil {
			q.state = state
		}
	}
}

// Run performs a single pass over the sources, folding every event into the
// state. Repeated calls continue from the last observed positions.
func (q *Query) Run(ctx context.Context) error {
	if q.buildErr != nil {
		return q.buildErr
	}
	if q.handler == nil && q.handlers == nil {
		return ErrNoHandlersConfigured
	}
	if !q.sources.configured() {
		return ErrNoSourcesConfigured
	}

	positions, err := discoverPositions(ctx, q.db, q.dialect, q.eventStreamsTable, q.sources, q.positions)
	if err != nil {
		return err
	}
	q.positions = positions
	q.isStopped = false

	names := make([]es.StreamName, 0, len(q.positions))
	iterators := make([]es.StreamIterator, 0, len(q.positions))
	closeAll := func() {
		for _, iterator := range iterators {
			_ = iterator.Close()
		}
	}

	for name, position := range q.positions {
		iterator, err := q.store.Load(ctx, es.StreamName(name), position+1, nil, q.matcher)
		if err != nil {
			if errors.Is(err, es.ErrStreamNotFound) {
				continue
			}
			closeAll()
			return err
		}
		names = append(names, es.StreamName(name))
		iterators = append(iterators, iterator)
	}

	merged, err := es.NewMergedStreamIterator(names, iterators)
	if err != nil {
		closeAll()
		return err
	}
	defer merged.Close()

	for merged.Next() {
		event := merged.Message()
		streamName := merged.StreamName()
		q.scope.streamName = streamName

		if q.opts.SignalHook != nil {
			q.opts.SignalHook()
		}
		if q.isStopped {
			break
		}

		q.positions[string(streamName)] = merged.Position()

		if err := q.dispatch(ctx, event); err != nil {
			return err
		}
		if q.isStopped {
			break
		}
	}
	return merged.Err()
}

func (q *Query) dispatch(ctx context.Context, event es.Message) error {
	handler := q.handler
	if handler == nil {
		named, ok := q.handlers[event.MessageName()]
		if !ok {
			return nil
		}
		handler = named
	}

	state, err := handler(ctx, q.state, event, q.scope)
	if err != nil {
		return fmt.Errorf("query handler for %s failed: %w", event.MessageName(), err)
	}
	if state != nil {
		q.state = state
	}
	return nil
}

// QueryScope is the per-event API handed to handlers. It is only valid
// during the handler invocation.
type QueryScope struct {
	query      *Query
	streamName es.StreamName
}

// StreamName returns the source stream of the event being handled.
func (s *QueryScope) StreamName() es.StreamName {
	return s.streamName
}

// Stop ends the run after the current event.
func (s *QueryScope) Stop() {
	s.query.isStopped = true
}
