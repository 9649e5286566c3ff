// Package index composes the three value-storage layers — an immutable
// compact.CompactIndex base, a committed-but-uncompacted lsm.EdgeList, and an
// uncommitted unsorted.Buffer — into the multiversion multimap a generic
// join operates against: Count for extender cost estimation, Propose to
// materialize a key's candidate extensions, and Intersect to filter an
// existing candidate set down against a key.
package index

import (
	"errors"
	"sort"

	"github.com/Sumatoshi-tech/wcoj/pkg/compact"
	"github.com/Sumatoshi-tech/wcoj/pkg/lsm"
	"github.com/Sumatoshi-tech/wcoj/pkg/unsorted"
)

// ErrAlreadyInitialized is returned by Initialize when the Index already has
// a populated compact base.
var ErrAlreadyInitialized = errors.New("index: already initialized")

// Index is a K -> multiset(V) multimap, time-annotated by T, assembled from
// an immutable base plus two layers of mutable overlay.
type Index[K comparable, V any, T any] struct {
	base     *compact.CompactIndex[K, V]
	edges    *lsm.EdgeList[K, V]
	unsorted *unsorted.Buffer[K, V, T]
	lessVal  func(a, b V) bool
}

// New constructs an empty Index ordering keys with lessKey and values with
// lessVal. The base layer starts nil and is populated once via Initialize.
func New[K comparable, V any, T any](lessKey func(a, b K) bool, lessVal func(a, b V) bool) *Index[K, V, T] {
	return &Index[K, V, T]{
		edges:    lsm.New[K, V](lessVal),
		unsorted: unsorted.New[K, V, T](lessKey, lessVal),
		lessVal:  lessVal,
	}
}

// Initialize loads entries as the immutable compact base. It may be called
// at most once; subsequent calls return ErrAlreadyInitialized.
func (idx *Index[K, V, T]) Initialize(entries []compact.Entry[K, V]) error {
	if idx.base != nil {
		return ErrAlreadyInitialized
	}

	idx.base = compact.Load(entries, idx.lessVal)

	return nil
}

// Update buffers new time-annotated observations. Propose and Intersect see
// a buffered entry as soon as their validAt accepts its Time; Count sees
// every buffered entry immediately regardless of time, as an intentional
// over-approximation (see Count).
func (idx *Index[K, V, T]) Update(entries []unsorted.Entry[K, V, T]) {
	idx.unsorted.Extend(entries)
}

// MergeTo drains every buffered entry for which due(Time) holds into the
// committed EdgeList layer, sealing each touched key's runs. The committed
// layer is read without any validAt filter, so answers are unchanged only
// for queries whose validAt already accepted every drained entry's Time
// (for example a query time strictly after all of them); a query that
// excluded a drained entry before the merge includes it afterward.
func (idx *Index[K, V, T]) MergeTo(due func(T) bool) {
	for _, key := range idx.unsorted.DistinctKeys() {
		drained := idx.unsorted.RemoveThrough(key, func(e unsorted.Entry[K, V, T]) bool {
			return due(e.Time)
		})

		if len(drained) == 0 {
			continue
		}

		for _, e := range drained {
			idx.edges.Push(key, e.Value, e.Diff)
		}

		idx.edges.SealFrom(key)
	}
}

// BaseEntries returns the immutable base layer's entries grouped by key in
// the order keys were first loaded, values sorted within each key, or nil
// if Initialize has not been called. This is the
// layer pkg/snapshot checkpoints: the committed EdgeList and unsorted
// buffer are expected to be small enough to replay from the update stream
// on restart.
func (idx *Index[K, V, T]) BaseEntries() []compact.Entry[K, V] {
	if idx.base == nil {
		return nil
	}

	return idx.base.Entries()
}

// Count returns an upper bound on the number of values Propose(key, *) would
// return: the immutable base count, plus the committed EdgeList count, plus
// every buffered entry for key regardless of time validity. The buffered
// term is deliberately not filtered by validity — cheaply over-approximating
// here keeps Count O(1)-ish instead of re-walking the buffer's time column,
// at the cost of occasionally misjudging which prefix a generic join should
// extend from first. Correctness of the join does not depend on Count
// picking the cheapest extender, only a valid one.
func (idx *Index[K, V, T]) Count(key K) int {
	total := idx.edges.Count(key) + idx.unsorted.CountKey(key)

	if idx.base != nil {
		total += idx.base.Count(key)
	}

	return total
}

// Propose returns the consolidated, strictly-positive-diff multiset of
// values for key, as of validAt: a value's multiplicity is the sum of (1 if
// present in the base), its committed EdgeList diff, and the diff of every
// buffered entry for which validAt(Time) holds.
func (idx *Index[K, V, T]) Propose(key K, validAt func(T) bool) []lsm.Pair[V] {
	candidates := idx.candidateValues(key)
	if len(candidates) == 0 {
		return nil
	}

	acc := idx.accumulate(key, candidates, validAt)

	out := make([]lsm.Pair[V], 0, len(candidates))

	for i, v := range candidates {
		if acc[i] > 0 {
			out = append(out, lsm.Pair[V]{Value: v, Diff: acc[i]})
		}
	}

	return out
}

// Intersect filters candidates (assumed sorted by the Index's value order)
// to those with a strictly positive accumulated multiplicity as of validAt.
// It is idempotent: intersecting an already-filtered result against the
// same key and validAt returns the same result unchanged.
func (idx *Index[K, V, T]) Intersect(key K, candidates []V, validAt func(T) bool) []V {
	if len(candidates) == 0 {
		return nil
	}

	acc := idx.accumulate(key, candidates, validAt)

	out := make([]V, 0, len(candidates))

	for i, v := range candidates {
		if acc[i] > 0 {
			out = append(out, v)
		}
	}

	return out
}

// accumulate computes, for each of candidates (sorted by lessVal), the net
// multiplicity across the base, committed, and buffered layers.
func (idx *Index[K, V, T]) accumulate(key K, candidates []V, validAt func(T) bool) []int64 {
	acc := make([]int64, len(candidates))

	if idx.base != nil {
		idx.base.AccumulateDiffs(key, candidates, acc)
	}

	idx.edges.AccumulateDiffs(key, candidates, acc)
	idx.unsorted.AccumulateDiffs(key, candidates, validAt, acc)

	return acc
}

// candidateValues returns the sorted, deduplicated union of every value
// that appears for key in any of the three layers, regardless of sign or
// time validity — the superset accumulate needs to consider.
func (idx *Index[K, V, T]) candidateValues(key K) []V {
	var all []V

	if idx.base != nil {
		all = append(all, idx.base.Values(key)...)
	}

	all = append(all, idx.edges.DistinctValues(key)...)
	all = append(all, idx.unsorted.DistinctValues(key)...)

	if len(all) == 0 {
		return nil
	}

	sort.Slice(all, func(i, j int) bool { return idx.lessVal(all[i], all[j]) })

	write := 1
	for i := 1; i < len(all); i++ {
		if idx.lessVal(all[write-1], all[i]) {
			all[write] = all[i]
			write++
		}
	}

	return all[:write]
}

