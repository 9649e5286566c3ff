// Package lsm implements the per-key LSM value stack used by an Index to
// absorb a growing multiset of (value, diff) pairs without re-sorting the
// whole key's history on every update.
//
// An EdgeList holds, per key, a flat sorted values/diffs pair plus a list of
// run-boundary offsets. Pushing new pairs appends an unsorted run; SealFrom
// sorts and deduplicates that run and then folds it into the previous run
// whenever the geometric size invariant (each run at most half the size of
// the one before it) would otherwise be violated. This keeps the amortized
// cost of absorbing N pairs at O(N log N) while keeping any single key's
// history queryable as a small number of sorted runs.
package lsm

import "sort"

// Pair is a single (value, diff) observation for some key, where diff is the
// signed multiplicity change (+1 insert, -1 retract).
type Pair[V any] struct {
	Value V
	Diff  int64
}

// EdgeList is a multiversion multimap K -> multiset(V) backed by a stack of
// sorted runs per key. The zero value is ready to use.
type EdgeList[K comparable, V any] struct {
	less   func(a, b V) bool
	index  map[K]int
	keys   []K
	values [][]V
	diffs  [][]int64
	bounds [][]int
}

// New constructs an EdgeList ordering values with less.
func New[K comparable, V any](less func(a, b V) bool) *EdgeList[K, V] {
	return &EdgeList[K, V]{
		less:  less,
		index: make(map[K]int),
	}
}

// position returns the internal slot for key, creating one if absent.
func (e *EdgeList[K, V]) position(key K) int {
	if slot, ok := e.index[key]; ok {
		return slot
	}

	slot := len(e.keys)
	e.index[key] = slot
	e.keys = append(e.keys, key)
	e.values = append(e.values, nil)
	e.diffs = append(e.diffs, nil)
	e.bounds = append(e.bounds, nil)

	return slot
}

// Push appends value/diff to key's unsorted tail run. The pair is not visible
// to queries until SealFrom is called for this key.
func (e *EdgeList[K, V]) Push(key K, value V, diff int64) {
	slot := e.position(key)
	e.values[slot] = append(e.values[slot], value)
	e.diffs[slot] = append(e.diffs[slot], diff)
}

// SealFrom sorts and consolidates the unsorted tail of key (everything from
// the last sealed bound onward), then cascades it backward into however many
// prior runs are needed to restore the geometric run-length invariant, and
// finally collapses the whole key into a single run if that still leaves the
// newest run holding more than half of the key's total length. It must be
// called after a batch of Push calls for key before Propose/Intersect/Count
// observe them.
func (e *EdgeList[K, V]) SealFrom(key K) {
	slot, ok := e.index[key]
	if !ok {
		return
	}

	bounds := e.bounds[slot]
	start := 0

	if len(bounds) > 0 {
		start = bounds[len(bounds)-1]
	}

	values := e.values[slot]
	diffs := e.diffs[slot]

	if start == len(values) {
		return
	}

	sortRun(values, diffs, start, e.less)
	end := dedupRun(values, diffs, start, e.less)
	values = values[:end]
	diffs = diffs[:end]

	// Geometric merge: fold the new run into its predecessor, and keep
	// cascading into earlier runs in turn, as long as the predecessor is
	// not at least twice the size of the (possibly already-merged) run.
	// Each merge re-sorts from the new, earlier start, so the newly
	// enlarged run is checked against its own new predecessor next time
	// around rather than only once against its original neighbor.
	for len(bounds) >= 1 {
		priorStart := 0
		if len(bounds) >= 2 {
			priorStart = bounds[len(bounds)-2]
		}

		priorLen := start - priorStart
		newLen := end - start

		if priorLen >= 2*newLen {
			break
		}

		bounds = bounds[:len(bounds)-1]
		start = priorStart
		sortRun(values, diffs, start, e.less)
		end = dedupRun(values, diffs, start, e.less)
		values = values[:end]
		diffs = diffs[:end]
	}

	bounds = append(bounds, end)

	// Fallback: dedup can shrink earlier runs (retractions cancel out)
	// enough that the geometric invariant no longer reflects the key's
	// actual history even though every pairwise check above passed. If the
	// newest run still holds more than half of the key's total length,
	// collapse every run into one instead of leaving it skewed.
	if len(bounds) >= 2 {
		finalLen := end - bounds[len(bounds)-2]

		if finalLen*2 > end {
			sortRun(values, diffs, 0, e.less)
			end = dedupRun(values, diffs, 0, e.less)
			values = values[:end]
			diffs = diffs[:end]
			bounds = []int{end}
		}
	}

	e.values[slot] = values
	e.diffs[slot] = diffs
	e.bounds[slot] = bounds
}

// sortRun stable-sorts values[start:]/diffs[start:] in lockstep by value.
func sortRun[V any](values []V, diffs []int64, start int, less func(a, b V) bool) {
	tail := values[start:]
	tailDiffs := diffs[start:]

	sort.Stable(runSorter[V]{values: tail, diffs: tailDiffs, less: less})
}

type runSorter[V any] struct {
	values []V
	diffs  []int64
	less   func(a, b V) bool
}

func (s runSorter[V]) Len() int { return len(s.values) }
func (s runSorter[V]) Less(i, j int) bool {
	return s.less(s.values[i], s.values[j])
}

func (s runSorter[V]) Swap(i, j int) {
	s.values[i], s.values[j] = s.values[j], s.values[i]
	s.diffs[i], s.diffs[j] = s.diffs[j], s.diffs[i]
}

// dedupRun collapses consecutive equal values in values[start:] by summing
// their diffs, dropping entries whose accumulated diff is zero. It returns
// the new overall length of values/diffs.
func dedupRun[V any](values []V, diffs []int64, start int, less func(a, b V) bool) int {
	equal := func(a, b V) bool { return !less(a, b) && !less(b, a) }

	write := start

	i := start
	for i < len(values) {
		j := i + 1
		acc := diffs[i]

		for j < len(values) && equal(values[i], values[j]) {
			acc += diffs[j]
			j++
		}

		if acc != 0 {
			values[write] = values[i]
			diffs[write] = acc
			write++
		}

		i = j
	}

	return write
}

// Expend merges effort-many extra trailing runs into one, bounding the
// number of outstanding runs independent of Push traffic. It is a no-op if
// key has fewer than 2 runs.
func (e *EdgeList[K, V]) Expend(key K, effort int) {
	slot, ok := e.index[key]
	if !ok {
		return
	}

	bounds := e.bounds[slot]
	if len(bounds) < 2 {
		return
	}

	merge := effort
	if merge > len(bounds)-1 {
		merge = len(bounds) - 1
	}

	keep := len(bounds) - 1 - merge
	start := 0

	if keep > 0 {
		start = bounds[keep-1]
	}

	values := e.values[slot]
	diffs := e.diffs[slot]

	sortRun(values, diffs, start, e.less)
	end := dedupRun(values, diffs, start, e.less)

	e.values[slot] = values[:end]
	e.diffs[slot] = diffs[:end]
	e.bounds[slot] = append(bounds[:keep], end)
}

// runs returns the run boundaries [start, end) over key's values/diffs.
func (e *EdgeList[K, V]) runs(slot int) ([]V, []int64, []int) {
	return e.values[slot], e.diffs[slot], e.bounds[slot]
}

// Proposals returns the consolidated, strictly-positive-diff multiset of
// values for key across all of its sealed runs.
func (e *EdgeList[K, V]) Proposals(key K) []Pair[V] {
	slot, ok := e.index[key]
	if !ok {
		return nil
	}

	values, diffs, bounds := e.runs(slot)

	sealed := 0
	if len(bounds) > 0 {
		sealed = bounds[len(bounds)-1]
	}

	merged := append([]V(nil), values[:sealed]...)
	mergedDiffs := append([]int64(nil), diffs[:sealed]...)

	sortRun(merged, mergedDiffs, 0, e.less)
	end := dedupRun(merged, mergedDiffs, 0, e.less)

	out := make([]Pair[V], 0, end)

	for i := range end {
		if mergedDiffs[i] > 0 {
			out = append(out, Pair[V]{Value: merged[i], Diff: mergedDiffs[i]})
		}
	}

	return out
}

// DistinctValues returns the deduplicated, sorted set of values recorded for
// key across all sealed runs, regardless of diff sign. Runs are already
// individually sorted and deduplicated, so this only needs to merge the
// (few, log-many) runs and drop cross-run duplicates.
func (e *EdgeList[K, V]) DistinctValues(key K) []V {
	slot, ok := e.index[key]
	if !ok {
		return nil
	}

	values, _, bounds := e.runs(slot)

	sealed := 0
	if len(bounds) > 0 {
		sealed = bounds[len(bounds)-1]
	}

	merged := make([]V, sealed)
	copy(merged, values[:sealed])

	sort.Slice(merged, func(i, j int) bool { return e.less(merged[i], merged[j]) })

	if len(merged) == 0 {
		return nil
	}

	write := 1
	for i := 1; i < len(merged); i++ {
		if e.less(merged[write-1], merged[i]) {
			merged[write] = merged[i]
			write++
		}
	}

	return merged[:write]
}

// Count returns the total number of (value, diff) observations recorded for
// key across all sealed runs, used as an upper bound on proposal size.
func (e *EdgeList[K, V]) Count(key K) int {
	slot, ok := e.index[key]
	if !ok {
		return 0
	}

	bounds := e.bounds[slot]
	if len(bounds) == 0 {
		return 0
	}

	return bounds[len(bounds)-1]
}

// Intersect filters candidates to those present in key's sealed runs with a
// strictly positive accumulated diff, via a linear merge against each run in
// turn (candidates and each run are both sorted by the same order); no
// galloping search is used, whatever the relative sizes.
func (e *EdgeList[K, V]) Intersect(key K, candidates []V) []V {
	if _, ok := e.index[key]; !ok {
		return nil
	}

	acc := make([]int64, len(candidates))
	e.AccumulateDiffs(key, candidates, acc)

	out := make([]V, 0, len(candidates))

	for idx, c := range candidates {
		if acc[idx] > 0 {
			out = append(out, c)
		}
	}

	return out
}

// AccumulateDiffs adds, into acc (same length as candidates), the net diff
// recorded for key against each candidate value across every sealed run. It
// is the shared primitive behind Intersect and behind Index's cross-layer
// accumulation, which needs the signed totals rather than a pre-filtered set.
func (e *EdgeList[K, V]) AccumulateDiffs(key K, candidates []V, acc []int64) {
	slot, ok := e.index[key]
	if !ok {
		return
	}

	values, diffs, bounds := e.runs(slot)

	start := 0

	for _, end := range bounds {
		intersectRun(candidates, values[start:end], diffs[start:end], e.less, acc)
		start = end
	}
}

// intersectRun linearly merges candidates against one sorted run, accumulating
// matched diffs into acc indexed by candidate position.
func intersectRun[V any](candidates, run []V, diffs []int64, less func(a, b V) bool, acc []int64) {
	runIdx := 0

	for cIdx, c := range candidates {
		for runIdx < len(run) && less(run[runIdx], c) {
			runIdx++
		}

		if runIdx < len(run) && !less(c, run[runIdx]) {
			acc[cIdx] += diffs[runIdx]
		}
	}
}
