package es

import "fmt"

// StreamIterator is a lazy, finite, restartable sequence of stored events.
//
// Usage follows the database/sql scanner idiom:
//
//	for iter.Next() {
//	    msg := iter.Message()
//	    no := iter.Position()
//	    ...
//	}
//	if err := iter.Err(); err != nil {
//	    ...
//	}
//
// Message and Position are only valid after Next returned true.
type StreamIterator interface {
	// Next advances to the next event. It returns false when the sequence
	// is exhausted or a fetch failed; Err distinguishes the two.
	Next() bool

	// Message returns the current event.
	Message() Message

	// Position returns the event number (the row's no) of the current event.
	Position() int64

	// Count returns the total number of matching events, independent of
	// iteration progress, capped by the count the iterator was opened with.
	Count() (int64, error)

	// Rewind restarts iteration from the beginning.
	Rewind() error

	// Err returns the first error encountered while fetching.
	Err() error

	// Close releases underlying resources. The iterator must not be used
	// afterwards.
	Close() error
}

// SliceStreamIterator iterates over an in-memory batch of events. It backs
// empty results and tests.
type SliceStreamIterator struct {
	messages  []Message
	positions []int64
	idx       int
}

// NewSliceStreamIterator builds an iterator over the given events with
// positions numbered from 1. Without arguments it is empty.
func NewSliceStreamIterator(messages ...Message) *SliceStreamIterator {
	positions := make([]int64, len(messages))
	for i := range positions {
		positions[i] = int64(i + 1)
	}
	return &SliceStreamIterator{messages: messages, positions: positions, idx: -1}
}

// NewSliceStreamIteratorWithPositions builds an iterator with explicit
// event numbers, one per message.
func NewSliceStreamIteratorWithPositions(messages []Message, positions []int64) (*SliceStreamIterator, error) {
	if len(messages) != len(positions) {
		return nil, fmt.Errorf("%w: got %d messages but %d positions", ErrInvalidArgument, len(messages), len(positions))
	}
	return &SliceStreamIterator{messages: messages, positions: positions, idx: -1}, nil
}

// Next implements StreamIterator.
func (it *SliceStreamIterator) Next() bool {
	if it.idx+1 >= len(it.messages) {
		return false
	}
	it.idx++
	return true
}

// Message implements StreamIterator.
func (it *SliceStreamIterator) Message() Message { return it.messages[it.idx] }

// Position implements StreamIterator.
func (it *SliceStreamIterator) Position() int64 { return it.positions[it.idx] }

// Count implements StreamIterator.
func (it *SliceStreamIterator) Count() (int64, error) { return int64(len(it.messages)), nil }

// Rewind implements StreamIterator.
func (it *SliceStreamIterator) Rewind() error {
	it.idx = -1
	return nil
}

// Err implements StreamIterator.
func (it *SliceStreamIterator) Err() error { return nil }

// Close implements StreamIterator.
func (it *SliceStreamIterator) Close() error { return nil }

var _ StreamIterator = (*SliceStreamIterator)(nil)
