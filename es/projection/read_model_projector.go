package projection

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/getpup/streamstore/es"
)

// ReadModelHandler processes one event against a read model. Writes should
// be queued on the read model via Stack so they are applied at the next
// checkpoint, together with the position update.
type ReadModelHandler func(ctx context.Context, state map[string]any, event es.Message, scope *ReadModelScope) (map[string]any, error)

// ReadModelProjectorConfig wires a ReadModelProjector to its event store,
// database session and read model.
type ReadModelProjectorConfig struct {
	// EventStore loads the source streams.
	EventStore es.EventStore

	// DB runs the bookkeeping statements against the projections and event
	// streams tables. It must target the same database as the event store.
	DB es.DBTX

	// ReadModel receives the projected data.
	ReadModel ReadModel

	// Logger is optional. When nil, nothing is logged.
	Logger es.Logger

	// Name identifies the projection; one row in the projections table.
	Name string

	// EventStreamsTable is the stream registry table name.
	// Defaults to "event_streams".
	EventStreamsTable string

	// ProjectionsTable is the bookkeeping table name.
	// Defaults to "projections".
	ProjectionsTable string

	// Dialect selects the placeholder flavor for the bookkeeping SQL.
	Dialect Dialect

	// Options tune the runtime behavior.
	Options ProjectorOptions
}

// ReadModelProjector folds source streams into an external read model. The
// read model's queued writes and the stream positions are flushed in the
// same checkpoint, so a resumed projection never reapplies an event the
// read model has already seen (as long as the read model persists
// atomically).
//
// A ReadModelProjector is not safe for concurrent use.
type ReadModelProjector struct {
	store     es.EventStore
	db        es.DBTX
	readModel ReadModel
	logger    es.Logger
	registry  registry
	opts      ProjectorOptions

	name              string
	eventStreamsTable string
	dialect           Dialect

	initCallback func() map[string]any
	handler      ReadModelHandler
	handlers     map[string]ReadModelHandler
	sources      sourceStreams
	matcher      *es.MetadataMatcher

	state     map[string]any
	positions map[string]int64
	status    Status
	scope     *ReadModelScope

	eventCounter       int
	lastCycleHadEvents bool
	isStopped          bool
	lastLockUpdate     time.Time

	buildErr error
}

// NewReadModelProjector returns a read model projector bound to the given
// store, session and read model.
func NewReadModelProjector(config ReadModelProjectorConfig) (*ReadModelProjector, error) {
	if config.Name == "" {
		return nil, fmt.Errorf("%w: projection name must not be empty", es.ErrInvalidArgument)
	}
	if config.EventStore == nil {
		return nil, fmt.Errorf("%w: event store is required", es.ErrInvalidArgument)
	}
	if config.DB == nil {
		return nil, fmt.Errorf("%w: db handle is required", es.ErrInvalidArgument)
	}
	if config.ReadModel == nil {
		return nil, fmt.Errorf("%w: read model is required", es.ErrInvalidArgument)
	}
	if config.EventStreamsTable == "" {
		config.EventStreamsTable = "event_streams"
	}
	if config.ProjectionsTable == "" {
		config.ProjectionsTable = "projections"
	}
	if err := config.Options.validate(); err != nil {
		return nil, err
	}

	p := &ReadModelProjector{
		store:     config.EventStore,
		db:        config.DB,
		readModel: config.ReadModel,
		logger:    config.Logger,
		opts:      config.Options,
		registry: registry{
			db:      config.DB,
			table:   config.ProjectionsTable,
			name:    config.Name,
			dialect: config.Dialect,
		},
		name:              config.Name,
		eventStreamsTable: config.EventStreamsTable,
		dialect:           config.Dialect,
		state:             map[string]any{},
		positions:         map[string]int64{},
		status:            StatusIdle,
	}
	p.scope = &ReadModelScope{projector: p}
	return p, nil
}

// Name returns the projection name.
func (p *ReadModelProjector) Name() string {
	return p.name
}

// State returns the current state document. Callers must not mutate it.
func (p *ReadModelProjector) State() map[string]any {
	return p.state
}

// ReadModel returns the read model the projector writes into.
func (p *ReadModelProjector) ReadModel() ReadModel {
	return p.readModel
}

// Init registers a callback that seeds the state. It runs immediately and
// again after every Reset.
func (p *ReadModelProjector) Init(callback func() map[string]any) *ReadModelProjector {
	if p.buildErr != nil {
		return p
	}
	if p.initCallback != nil {
		p.buildErr = fmt.Errorf("%w: projection %s is already initialized", es.ErrInvalidArgument, p.name)
		return p
	}
	if callback == nil {
		p.buildErr = fmt.Errorf("%w: init callback must not be nil", es.ErrInvalidArgument)
		return p
	}
	if state := callback(); state != nil {
		p.state = state
	}
	p.initCallback = callback
	return p
}

// FromStream sources the projection from a single stream, optionally
// filtered by a metadata matcher.
func (p *ReadModelProjector) FromStream(streamName es.StreamName, matcher *es.MetadataMatcher) *ReadModelProjector {
	if !p.setSources(sourceStreams{streams: []es.StreamName{streamName}}) {
		return p
	}
	p.matcher = matcher
	return p
}

// FromStreams sources the projection from the given streams.
func (p *ReadModelProjector) FromStreams(streamNames ...es.StreamName) *ReadModelProjector {
	p.setSources(sourceStreams{streams: streamNames})
	return p
}

// FromCategory sources the projection from every stream of a category.
func (p *ReadModelProjector) FromCategory(category string) *ReadModelProjector {
	p.setSources(sourceStreams{categories: []string{category}})
	return p
}

// FromCategories sources the projection from every stream of the given
// categories.
func (p *ReadModelProjector) FromCategories(categories ...string) *ReadModelProjector {
	p.setSources(sourceStreams{categories: categories})
	return p
}

// FromAll sources the projection from every registered stream except
// emitted ones (names starting with $).
func (p *ReadModelProjector) FromAll() *ReadModelProjector {
	p.setSources(sourceStreams{all: true})
	return p
}

func (p *ReadModelProjector) setSources(sources sourceStreams) bool {
	if p.buildErr != nil {
		return false
	}
	if p.sources.configured() {
		p.buildErr = fmt.Errorf("%w: from was already called on projection %s", es.ErrInvalidArgument, p.name)
		return false
	}
	if !sources.configured() {
		p.buildErr = fmt.Errorf("%w: at least one source is required", es.ErrInvalidArgument)
		return false
	}
	p.sources = sources
	return true
}

// When registers one handler per event name. Events without a handler still
// advance the position but are otherwise ignored.
func (p *ReadModelProjector) When(handlers map[string]ReadModelHandler) *ReadModelProjector {
	if p.buildErr != nil {
		return p
	}
	if p.handler != nil || p.handlers != nil {
		p.buildErr = fmt.Errorf("%w: when was already called on projection %s", es.ErrInvalidArgument, p.name)
		return p
	}
	if len(handlers) == 0 {
		p.buildErr = fmt.Errorf("%w: when requires at least one handler", es.ErrInvalidArgument)
		return p
	}
	registered := make(map[string]ReadModelHandler, len(handlers))
	for eventName, handler := range handlers {
		if eventName == "" || handler == nil {
			p.buildErr = fmt.Errorf("%w: handlers must map a non-empty event name to a non-nil handler", es.ErrInvalidArgument)
			return p
		}
		registered[eventName] = handler
	}
	p.handlers = registered
	return p
}

// WhenAny registers a single handler for every event.
func (p *ReadModelProjector) WhenAny(handler ReadModelHandler) *ReadModelProjector {
	if p.buildErr != nil {
		return p
	}
	if p.handler != nil || p.handlers != nil {
		p.buildErr = fmt.Errorf("%w: when was already called on projection %s", es.ErrInvalidArgument, p.name)
		return p
	}
	if handler == nil {
		p.buildErr = fmt.Errorf("%w: handler must not be nil", es.ErrInvalidArgument)
		return p
	}
	p.handler = handler
	return p
}

// Run executes the projection. With keepRunning it keeps polling for new
// events until stopped; without it, Run performs a single pass over the
// sources and returns.
func (p *ReadModelProjector) Run(ctx context.Context, keepRunning bool) (err error) {
	if p.buildErr != nil {
		return p.buildErr
	}
	if p.handler == nil && p.handlers == nil {
		return ErrNoHandlersConfigured
	}
	if !p.sources.configured() {
		return ErrNoSourcesConfigured
	}

	status, err := p.registry.fetchStatus(ctx)
	if err != nil {
		return err
	}
	switch status {
	case StatusStopping:
		return p.Stop(ctx)
	case StatusDeleting:
		return p.Delete(ctx, false)
	case StatusDeletingInclEmittedEvents:
		return p.Delete(ctx, true)
	case StatusResetting:
		if err := p.Reset(ctx); err != nil {
			return err
		}
	}

	exists, err := p.registry.exists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		p.registry.create(ctx, p.status)
	}

	now := time.Now().UTC()
	if err := p.registry.acquireLock(ctx, now, now.Add(p.opts.LockTimeout)); err != nil {
		return err
	}
	p.status = StatusRunning
	p.lastLockUpdate = now

	if p.logger != nil {
		p.logger.Debug(ctx, "read model projection started", "projection", p.name, "keep_running", keepRunning)
	}

	defer func() {
		// When events were consumed in the final cycle the projection stays
		// marked running, signalling that the read model is still catching
		// up; the lease itself is always released.
		releaseCtx := context.WithoutCancel(ctx)
		var releaseErr error
		if p.lastCycleHadEvents {
			releaseErr = p.registry.releaseLockKeepStatus(releaseCtx)
		} else {
			releaseErr = p.registry.releaseLock(releaseCtx, StatusIdle)
			if releaseErr == nil {
				p.status = StatusIdle
			}
		}
		if releaseErr != nil {
			if err == nil {
				err = releaseErr
			} else if p.logger != nil {
				p.logger.Error(releaseCtx, "failed to release projection lock", "projection", p.name, "error", releaseErr)
			}
		}
	}()

	initialized, err := p.readModel.IsInitialized(ctx)
	if err != nil {
		return err
	}
	if !initialized {
		if err := p.readModel.Init(ctx); err != nil {
			return err
		}
	}

	if err := p.preparePositions(ctx); err != nil {
		return err
	}
	if err := p.loadPersisted(ctx); err != nil {
		return err
	}

	p.isStopped = false

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		gapDetected, err := p.processCycle(ctx)
		if err != nil {
			return err
		}

		if gapDetected && p.opts.GapDetection != nil {
			if err := sleepContext(ctx, p.opts.GapDetection.SleepForNextRetry()); err != nil {
				return err
			}
			p.opts.GapDetection.TrackRetry()
			if err := p.persist(ctx); err != nil {
				return err
			}
		} else {
			if p.opts.GapDetection != nil {
				p.opts.GapDetection.ResetRetries()
			}
			if p.eventCounter == 0 {
				if err := sleepContext(ctx, p.opts.Sleep); err != nil {
					return err
				}
				if err := p.updateLock(ctx); err != nil {
					return err
				}
			} else if err := p.persist(ctx); err != nil {
				return err
			}
		}
		p.lastCycleHadEvents = p.eventCounter > 0
		p.eventCounter = 0

		status, err := p.registry.fetchStatus(ctx)
		if err != nil {
			return err
		}
		switch status {
		case StatusStopping:
			if err := p.Stop(ctx); err != nil {
				return err
			}
		case StatusDeleting:
			if err := p.Delete(ctx, false); err != nil {
				return err
			}
		case StatusDeletingInclEmittedEvents:
			if err := p.Delete(ctx, true); err != nil {
				return err
			}
		case StatusResetting:
			if err := p.Reset(ctx); err != nil {
				return err
			}
			if keepRunning {
				if err := p.startAgain(ctx); err != nil {
					return err
				}
			}
		}

		if !keepRunning || p.isStopped {
			return nil
		}

		if err := p.preparePositions(ctx); err != nil {
			return err
		}
	}
}

func (p *ReadModelProjector) processCycle(ctx context.Context) (bool, error) {
	names := make([]es.StreamName, 0, len(p.positions))
	iterators := make([]es.StreamIterator, 0, len(p.positions))
	closeAll := func() {
		for _, iterator := range iterators {
			_ = iterator.Close()
		}
	}

	for name, position := range p.positions {
		iterator, err := p.store.Load(ctx, es.StreamName(name), position+1, p.opts.LoadCount, p.matcher)
		if err != nil {
			if errors.Is(err, es.ErrStreamNotFound) {
				continue
			}
			closeAll()
			return false, err
		}
		names = append(names, es.StreamName(name))
		iterators = append(iterators, iterator)
	}

	merged, err := es.NewMergedStreamIterator(names, iterators)
	if err != nil {
		closeAll()
		return false, err
	}
	defer merged.Close()

	return p.handleEvents(ctx, merged)
}

func (p *ReadModelProjector) handleEvents(ctx context.Context, events *es.MergedStreamIterator) (bool, error) {
	for events.Next() {
		event := events.Message()
		streamName := events.StreamName()
		position := events.Position()
		p.scope.streamName = streamName

		if p.opts.SignalHook != nil {
			p.opts.SignalHook()
		}
		if p.isStopped {
			break
		}

		if p.opts.GapDetection != nil &&
			p.opts.GapDetection.IsGapInStreamPosition(p.positions[string(streamName)], position) &&
			p.opts.GapDetection.ShouldRetryToFillGap(time.Now().UTC(), event) {
			return true, nil
		}

		p.positions[string(streamName)] = position
		p.eventCounter++

		if err := p.dispatch(ctx, event); err != nil {
			return false, err
		}

		if err := p.checkpointIfDue(ctx); err != nil {
			return false, err
		}
		if p.isStopped {
			break
		}
	}
	if err := events.Err(); err != nil {
		return false, err
	}
	return false, nil
}

func (p *ReadModelProjector) dispatch(ctx context.Context, event es.Message) error {
	handler := p.handler
	if handler == nil {
		named, ok := p.handlers[event.MessageName()]
		if !ok {
			return nil
		}
		handler = named
	}

	state, err := handler(ctx, p.state, event, p.scope)
	if err != nil {
		return fmt.Errorf("projection %s: handler for %s failed: %w", p.name, event.MessageName(), err)
	}
	if state != nil {
		p.state = state
	}
	return nil
}

func (p *ReadModelProjector) checkpointIfDue(ctx context.Context) error {
	if p.eventCounter != p.opts.PersistBlockSize {
		return nil
	}
	if err := p.persist(ctx); err != nil {
		return err
	}
	p.eventCounter = 0

	status, err := p.registry.fetchStatus(ctx)
	if err != nil {
		return err
	}
	p.status = status
	if status != StatusRunning && status != StatusIdle {
		p.isStopped = true
	}
	return nil
}

// persist flushes the read model's queued writes, then checkpoints the
// positions and state.
func (p *ReadModelProjector) persist(ctx context.Context) error {
	if err := p.readModel.Persist(ctx); err != nil {
		return fmt.Errorf("projection %s: failed to persist read model: %w", p.name, err)
	}
	until := time.Now().UTC().Add(p.opts.LockTimeout)
	return p.registry.persist(ctx, p.positions, p.state, until)
}

func (p *ReadModelProjector) updateLock(ctx context.Context) error {
	now := time.Now().UTC()
	if !p.shouldUpdateLock(now) {
		return nil
	}
	if err := p.registry.renewLock(ctx, now.Add(p.opts.LockTimeout)); err != nil {
		return err
	}
	p.lastLockUpdate = now
	return nil
}

func (p *ReadModelProjector) shouldUpdateLock(now time.Time) bool {
	if p.lastLockUpdate.IsZero() || p.opts.UpdateLockThreshold == 0 {
		return true
	}
	return !p.lastLockUpdate.Add(p.opts.UpdateLockThreshold).After(now)
}

func (p *ReadModelProjector) preparePositions(ctx context.Context) error {
	positions, err := discoverPositions(ctx, p.db, p.dialect, p.eventStreamsTable, p.sources, p.positions)
	if err != nil {
		return err
	}
	p.positions = positions
	return nil
}

func (p *ReadModelProjector) loadPersisted(ctx context.Context) error {
	positions, state, err := p.registry.load(ctx)
	if err != nil {
		return err
	}
	for name, position := range positions {
		p.positions[name] = position
	}
	if len(state) > 0 {
		p.state = state
	}
	return nil
}

// Stop persists the current positions and state and marks the projection
// idle. A running loop exits after the current event.
func (p *ReadModelProjector) Stop(ctx context.Context) error {
	if err := p.persist(ctx); err != nil {
		return err
	}
	p.isStopped = true

	if err := p.registry.updateStatus(ctx, StatusIdle); err != nil {
		return err
	}
	p.status = StatusIdle
	return nil
}

// Reset rewinds the projection to position zero, reseeds the state and
// clears the read model.
func (p *ReadModelProjector) Reset(ctx context.Context) error {
	if err := p.readModel.Reset(ctx); err != nil {
		return fmt.Errorf("projection %s: failed to reset read model: %w", p.name, err)
	}

	p.positions = map[string]int64{}
	p.state = map[string]any{}
	if p.initCallback != nil {
		if state := p.initCallback(); state != nil {
			p.state = state
		}
	}

	return p.registry.reset(ctx, p.positions, p.state, p.status)
}

// Delete removes the projection row, optionally tearing down the read
// model. A running loop exits after the current event.
func (p *ReadModelProjector) Delete(ctx context.Context, deleteReadModel bool) error {
	if err := p.registry.delete(ctx); err != nil {
		return err
	}

	if deleteReadModel {
		if err := p.readModel.Delete(ctx); err != nil {
			return fmt.Errorf("projection %s: failed to delete read model: %w", p.name, err)
		}
	}

	p.isStopped = true
	p.positions = map[string]int64{}
	p.state = map[string]any{}
	if p.initCallback != nil {
		if state := p.initCallback(); state != nil {
			p.state = state
		}
	}
	return nil
}

func (p *ReadModelProjector) startAgain(ctx context.Context) error {
	p.isStopped = false
	now := time.Now().UTC()
	if err := p.registry.startAgain(ctx, now.Add(p.opts.LockTimeout)); err != nil {
		return err
	}
	p.status = StatusRunning
	p.lastLockUpdate = now
	return nil
}

// ReadModelScope is the per-event API handed to handlers. It is only valid
// during the handler invocation.
type ReadModelScope struct {
	projector  *ReadModelProjector
	streamName es.StreamName
}

// ReadModel returns the read model to stack writes on.
func (s *ReadModelScope) ReadModel() ReadModel {
	return s.projector.readModel
}

// StreamName returns the source stream of the event being handled.
func (s *ReadModelScope) StreamName() es.StreamName {
	return s.streamName
}

// Stop requests a cooperative stop after the current event.
func (s *ReadModelScope) Stop() {
	s.projector.isStopped = true
}
