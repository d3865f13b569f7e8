package es

import (
	"container/heap"
	"errors"
	"fmt"
)

// MergedStreamIterator merges several stream iterators into one sequence
// ordered by (created_at, event number) ascending. The projection engine
// consumes it to process multiple streams in global event order.
//
// It implements StreamIterator and additionally exposes the source stream
// of the current event through StreamName.
type MergedStreamIterator struct {
	sources []*mergedSource
	active  sourceHeap
	primed  bool
	err     error
}

type mergedSource struct {
	name StreamName
	iter StreamIterator
}

// NewMergedStreamIterator pairs stream names with their iterators. Both
// slices must have equal length.
func NewMergedStreamIterator(streamNames []StreamName, iterators []StreamIterator) (*MergedStreamIterator, error) {
	if len(streamNames) != len(iterators) {
		return nil, fmt.Errorf("%w: got %d stream names but %d iterators", ErrInvalidArgument, len(streamNames), len(iterators))
	}
	sources := make([]*mergedSource, len(iterators))
	for i := range iterators {
		sources[i] = &mergedSource{name: streamNames[i], iter: iterators[i]}
	}
	return &MergedStreamIterator{sources: sources}, nil
}

// Next implements StreamIterator.
func (it *MergedStreamIterator) Next() bool {
	if it.err != nil {
		return false
	}
	if !it.primed {
		it.primed = true
		it.active = it.active[:0]
		for _, src := range it.sources {
			if src.iter.Next() {
				it.active = append(it.active, src)
			} else if err := src.iter.Err(); err != nil {
				it.err = err
				return false
			}
		}
		heap.Init(&it.active)
		return len(it.active) > 0
	}

	if len(it.active) == 0 {
		return false
	}
	// Advance the source that produced the current event, then restore
	// heap order for its new head element.
	src := it.active[0]
	if src.iter.Next() {
		heap.Fix(&it.active, 0)
	} else {
		if err := src.iter.Err(); err != nil {
			it.err = err
			return false
		}
		heap.Pop(&it.active)
	}
	return len(it.active) > 0
}

// Message implements StreamIterator.
func (it *MergedStreamIterator) Message() Message { return it.active[0].iter.Message() }

// Position implements StreamIterator.
func (it *MergedStreamIterator) Position() int64 { return it.active[0].iter.Position() }

// StreamName returns the source stream of the current event.
func (it *MergedStreamIterator) StreamName() StreamName { return it.active[0].name }

// Count implements StreamIterator by summing the source counts.
func (it *MergedStreamIterator) Count() (int64, error) {
	var total int64
	for _, src := range it.sources {
		n, err := src.iter.Count()
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

// Rewind implements StreamIterator by rewinding every source.
func (it *MergedStreamIterator) Rewind() error {
	for _, src := range it.sources {
		if err := src.iter.Rewind(); err != nil {
			return err
		}
	}
	it.active = nil
	it.primed = false
	it.err = nil
	return nil
}

// Err implements StreamIterator.
func (it *MergedStreamIterator) Err() error { return it.err }

// Close implements StreamIterator, closing every source.
func (it *MergedStreamIterator) Close() error {
	var errs []error
	for _, src := range it.sources {
		if err := src.iter.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// sourceHeap orders sources by the (created_at, no) of their current event.
type sourceHeap []*mergedSource

func (h sourceHeap) Len() int { return len(h) }

func (h sourceHeap) Less(i, j int) bool {
	a, b := h[i].iter, h[j].iter
	at, bt := a.Message().CreatedAt(), b.Message().CreatedAt()
	if at.Equal(bt) {
		return a.Position() < b.Position()
	}
	return at.Before(bt)
}

func (h sourceHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *sourceHeap) Push(x any) { *h = append(*h, x.(*mergedSource)) }

func (h *sourceHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

var _ StreamIterator = (*MergedStreamIterator)(nil)
