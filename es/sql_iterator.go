package es

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SQLStreamIteratorConfig configures a SQLStreamIterator. The dialect event
// stores build it; the SQL and argument layout is a contract between them
// and the iterator.
type SQLStreamIteratorConfig struct {
	// Queryer runs the select and count statements
	Queryer DBTX

	// MessageFactory reconstructs messages from rows
	MessageFactory MessageFactory

	// ClassifyError maps driver errors of later page fetches to the
	// store's error taxonomy (table gone means stream not found, anything
	// else is a runtime failure)
	ClassifyError func(error) error

	// SelectSQL is the paginated select. It binds Args first, then the
	// current from-number, then the batch limit.
	SelectSQL string

	// CountSQL is the same query without ordering and limit, selecting
	// COUNT(*). It binds Args first, then the original from-number.
	CountSQL string

	// Args are the filter arguments shared by both statements
	Args []any

	// BatchSize is the page size, at least 1
	BatchSize int

	// FromNumber is the first event number of the iteration
	FromNumber int64

	// Count caps the total number of events; nil means unbounded
	Count *int64

	// Forward selects ascending (true) or descending iteration
	Forward bool
}

// SQLStreamIterator is a lazy batched iterator over a stream table.
//
// It fetches BatchSize rows at a time and materializes each page before
// handing out messages, so the owning connection stays free for
// interleaved statements. When a page is exhausted the iterator re-binds
// the from-number to the last seen event number plus or minus one and
// fetches the next page.
//
// Events whose metadata lacks a _position field get one injected, carrying
// the row's event number. The iteration context is captured at
// construction, like database/sql captures it for Rows.
type SQLStreamIterator struct {
	ctx    context.Context
	config SQLStreamIteratorConfig

	buffer   []bufferedEvent
	bufIdx   int
	fetched  int64
	nextFrom int64
	done     bool
	err      error
}

type bufferedEvent struct {
	message Message
	no      int64
}

// NewSQLStreamIterator builds the iterator and eagerly fetches the first
// page. A fetch failure is returned unclassified so the caller can apply
// its own mapping for the initial execution.
func NewSQLStreamIterator(ctx context.Context, config SQLStreamIteratorConfig) (*SQLStreamIterator, error) {
	if config.BatchSize < 1 {
		return nil, fmt.Errorf("%w: batch size must be at least 1", ErrInvalidArgument)
	}
	if config.Queryer == nil || config.MessageFactory == nil {
		return nil, fmt.Errorf("%w: queryer and message factory are required", ErrInvalidArgument)
	}
	if config.ClassifyError == nil {
		config.ClassifyError = func(err error) error { return err }
	}

	it := &SQLStreamIterator{
		ctx:      ctx,
		config:   config,
		bufIdx:   -1,
		nextFrom: config.FromNumber,
	}
	if err := it.fetchBatch(); err != nil {
		return nil, err
	}
	return it, nil
}

// Next implements StreamIterator.
func (it *SQLStreamIterator) Next() bool {
	if it.err != nil {
		return false
	}
	if it.bufIdx+1 < len(it.buffer) {
		it.bufIdx++
		return true
	}
	if it.done {
		return false
	}
	if err := it.fetchBatch(); err != nil {
		it.err = it.config.ClassifyError(err)
		return false
	}
	if len(it.buffer) == 0 {
		return false
	}
	it.bufIdx++
	return true
}

// Message implements StreamIterator.
func (it *SQLStreamIterator) Message() Message { return it.buffer[it.bufIdx].message }

// Position implements StreamIterator.
func (it *SQLStreamIterator) Position() int64 { return it.buffer[it.bufIdx].no }

// Count implements StreamIterator.
func (it *SQLStreamIterator) Count() (int64, error) {
	args := make([]any, 0, len(it.config.Args)+1)
	args = append(args, it.config.Args...)
	args = append(args, it.config.FromNumber)

	var count int64
	if err := it.config.Queryer.QueryRowContext(it.ctx, it.config.CountSQL, args...).Scan(&count); err != nil {
		return 0, it.config.ClassifyError(err)
	}
	if it.config.Count != nil && *it.config.Count < count {
		return *it.config.Count, nil
	}
	return count, nil
}

// Rewind implements StreamIterator. It re-executes the select from the
// original from-number.
func (it *SQLStreamIterator) Rewind() error {
	it.buffer = nil
	it.bufIdx = -1
	it.fetched = 0
	it.nextFrom = it.config.FromNumber
	it.done = false
	it.err = nil
	if err := it.fetchBatch(); err != nil {
		it.err = it.config.ClassifyError(err)
		return it.err
	}
	return nil
}

// Err implements StreamIterator.
func (it *SQLStreamIterator) Err() error { return it.err }

// Close implements StreamIterator.
func (it *SQLStreamIterator) Close() error {
	it.buffer = nil
	it.done = true
	return nil
}

// fetchBatch runs the select for the next page and materializes it.
// Errors are returned raw.
func (it *SQLStreamIterator) fetchBatch() error {
	limit := int64(it.config.BatchSize)
	if it.config.Count != nil {
		remaining := *it.config.Count - it.fetched
		if remaining <= 0 {
			it.buffer = nil
			it.bufIdx = -1
			it.done = true
			return nil
		}
		if remaining < limit {
			limit = remaining
		}
	}

	args := make([]any, 0, len(it.config.Args)+2)
	args = append(args, it.config.Args...)
	args = append(args, it.nextFrom, limit)

	rows, err := it.config.Queryer.QueryContext(it.ctx, it.config.SelectSQL, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	buffer := make([]bufferedEvent, 0, limit)
	for rows.Next() {
		event, err := scanStoredEvent(rows, it.config.MessageFactory)
		if err != nil {
			return err
		}
		buffer = append(buffer, event)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	it.buffer = buffer
	it.bufIdx = -1
	it.fetched += int64(len(buffer))

	if int64(len(buffer)) < limit {
		it.done = true
	}
	if it.config.Count != nil && it.fetched >= *it.config.Count {
		it.done = true
	}
	if len(buffer) > 0 {
		last := buffer[len(buffer)-1].no
		if it.config.Forward {
			it.nextFrom = last + 1
		} else {
			it.nextFrom = last - 1
		}
	}
	return nil
}

func scanStoredEvent(rows *sql.Rows, factory MessageFactory) (bufferedEvent, error) {
	var (
		no        int64
		eventID   string
		eventName string
		payload   []byte
		metadata  []byte
		createdAt utcDateTime
	)
	if err := rows.Scan(&no, &eventID, &eventName, &payload, &metadata, &createdAt); err != nil {
		return bufferedEvent{}, fmt.Errorf("failed to scan event row: %w", err)
	}

	id, err := uuid.Parse(eventID)
	if err != nil {
		return bufferedEvent{}, fmt.Errorf("failed to parse event id %q: %w", eventID, err)
	}
	payloadMap, err := DecodeJSON(payload)
	if err != nil {
		return bufferedEvent{}, fmt.Errorf("failed to decode payload of event %s: %w", eventID, err)
	}
	metadataMap, err := DecodeJSON(metadata)
	if err != nil {
		return bufferedEvent{}, fmt.Errorf("failed to decode metadata of event %s: %w", eventID, err)
	}
	if _, ok := metadataMap["_position"]; !ok {
		metadataMap["_position"] = no
	}

	msg, err := factory.CreateFromData(MessageData{
		UUID:        id,
		MessageName: eventName,
		Payload:     payloadMap,
		Metadata:    metadataMap,
		CreatedAt:   time.Time(createdAt),
	})
	if err != nil {
		return bufferedEvent{}, fmt.Errorf("failed to build message %s: %w", eventID, err)
	}
	return bufferedEvent{message: msg, no: no}, nil
}

// utcDateTime scans created_at columns from any driver representation and
// normalizes the wall-clock value to UTC.
type utcDateTime time.Time

func (t *utcDateTime) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*t = utcDateTime(time.Date(v.Year(), v.Month(), v.Day(), v.Hour(), v.Minute(), v.Second(), v.Nanosecond(), time.UTC))
		return nil
	case []byte:
		return t.parse(string(v))
	case string:
		return t.parse(v)
	default:
		return fmt.Errorf("cannot scan %T into datetime", src)
	}
}

func (t *utcDateTime) parse(s string) error {
	parsed, err := time.ParseInLocation("2006-01-02 15:04:05.999999", s, time.UTC)
	if err != nil {
		return fmt.Errorf("failed to parse datetime %q: %w", s, err)
	}
	*t = utcDateTime(parsed)
	return nil
}

var _ StreamIterator = (*SQLStreamIterator)(nil)
