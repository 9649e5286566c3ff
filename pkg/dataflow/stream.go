package dataflow

import (
	"github.com/Sumatoshi-tech/wcoj/pkg/compact"
	"github.com/Sumatoshi-tech/wcoj/pkg/index"
	"github.com/Sumatoshi-tech/wcoj/pkg/unsorted"
)

// IndexStream pairs an index.Index with the ProbeHandle tracking how far
// its owning worker's input has advanced, mirroring the distilled source's
// IndexStream: one Index shared between the generic-join extenders reading
// it and the single goroutine that feeds it updates and advances its time.
type IndexStream[K comparable, V any, T any] struct {
	idx   *index.Index[K, V, T]
	probe *ProbeHandle[T]
}

// NewIndexStream constructs an empty IndexStream ordering keys with lessKey,
// values with lessVal, and tracking progress with timeLess.
func NewIndexStream[K comparable, V any, T any](
	lessKey func(a, b K) bool,
	lessVal func(a, b V) bool,
	timeLess func(a, b T) bool,
) *IndexStream[K, V, T] {
	return &IndexStream[K, V, T]{
		idx:   index.New[K, V, T](lessKey, lessVal),
		probe: NewProbeHandle(timeLess),
	}
}

// Initialize loads the stream's one-shot immutable base.
func (s *IndexStream[K, V, T]) Initialize(entries []compact.Entry[K, V]) error {
	return s.idx.Initialize(entries)
}

// Absorb buffers new time-annotated observations into the stream's Index.
func (s *IndexStream[K, V, T]) Absorb(entries []unsorted.Entry[K, V, T]) {
	s.idx.Update(entries)
}

// MergeTo folds every buffered entry for which due holds into the
// committed layer.
func (s *IndexStream[K, V, T]) MergeTo(due func(T) bool) {
	s.idx.MergeTo(due)
}

// Advance moves the stream's progress probe forward to t.
func (s *IndexStream[K, V, T]) Advance(t T) {
	s.probe.Advance(t)
}

// Probe returns the stream's progress probe, shared with any extenders
// built on top of this stream via NewIndexExtender.
func (s *IndexStream[K, V, T]) Probe() *ProbeHandle[T] {
	return s.probe
}

// Index returns the underlying Index, for direct queries that do not need
// the probe discipline (e.g. a final snapshot read after a run completes).
func (s *IndexStream[K, V, T]) Index() *index.Index[K, V, T] {
	return s.idx
}
