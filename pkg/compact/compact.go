// Package compact implements the immutable, compressed-sparse-row-style base
// index loaded once from a sorted (key, value) stream and queried
// thereafter. It never mutates after Load, which is what lets the wider
// Index treat it as the cheap, append-free bottom layer of its multiversion
// multimap.
package compact

import "sort"

// CompactIndex is an immutable K -> []V multimap, stored as a flat values
// array sliced by per-key offsets, mirroring a CSR adjacency layout.
type CompactIndex[K comparable, V any] struct {
	less    func(a, b V) bool
	offsets map[K]int
	keys    []K
	bounds  []int
	values  []V
}

// Entry is one (key, value) pair fed to Load.
type Entry[K comparable, V any] struct {
	Key   K
	Value V
}

// Load builds a CompactIndex from entries, which need not be pre-sorted.
// Entries are grouped by key preserving first-seen key order, and each key's
// values are sorted with less. Load may only be called once per
// CompactIndex; the result is immutable thereafter.
func Load[K comparable, V any](entries []Entry[K, V], less func(a, b V) bool) *CompactIndex[K, V] {
	c := &CompactIndex[K, V]{
		less:    less,
		offsets: make(map[K]int),
	}

	grouped := make(map[K][]V, len(entries))

	for _, e := range entries {
		if _, ok := c.offsets[e.Key]; !ok {
			c.offsets[e.Key] = len(c.keys)
			c.keys = append(c.keys, e.Key)
		}

		grouped[e.Key] = append(grouped[e.Key], e.Value)
	}

	c.bounds = make([]int, len(c.keys))
	total := 0

	for i, k := range c.keys {
		vals := grouped[k]
		sort.Slice(vals, func(a, b int) bool { return less(vals[a], vals[b]) })
		c.values = append(c.values, vals...)
		total += len(vals)
		c.bounds[i] = total
	}

	return c
}

// Values returns the full value run stored for key, or nil if key is absent.
func (c *CompactIndex[K, V]) Values(key K) []V {
	slot, ok := c.offsets[key]
	if !ok {
		return nil
	}

	start := 0
	if slot > 0 {
		start = c.bounds[slot-1]
	}

	return c.values[start:c.bounds[slot]]
}

// ValuesFrom returns the suffix of key's value run at or after lowerBound.
// cursor caches the offset of the last seek for this run so repeated calls
// with a non-decreasing lowerBound (the common access pattern during a
// galloping merge) only re-scan the portion advanced since the previous
// call; pass a *cursor of 0 on the first call for a given run.
func (c *CompactIndex[K, V]) ValuesFrom(key K, lowerBound V, cursor *int) []V {
	slot, ok := c.offsets[key]
	if !ok {
		return nil
	}

	start := 0
	if slot > 0 {
		start = c.bounds[slot-1]
	}

	end := c.bounds[slot]
	run := c.values[start:end]

	if *cursor > len(run) {
		*cursor = 0
	}

	*cursor += advance(run[*cursor:], func(v V) bool { return c.less(v, lowerBound) })

	return run[*cursor:]
}

// Entries returns every (key, value) pair stored in the index, in key-group
// then sorted-value order, suitable for re-feeding to Load or for a
// checkpoint writer to serialize.
func (c *CompactIndex[K, V]) Entries() []Entry[K, V] {
	out := make([]Entry[K, V], 0, len(c.values))

	start := 0
	for i, k := range c.keys {
		for _, v := range c.values[start:c.bounds[i]] {
			out = append(out, Entry[K, V]{Key: k, Value: v})
		}

		start = c.bounds[i]
	}

	return out
}

// Count returns the number of values stored for key.
func (c *CompactIndex[K, V]) Count(key K) int {
	slot, ok := c.offsets[key]
	if !ok {
		return 0
	}

	start := 0
	if slot > 0 {
		start = c.bounds[slot-1]
	}

	return c.bounds[slot] - start
}

// Intersect filters candidates to those present in key's value run, via a
// galloping merge (candidates and the stored run are both sorted by less).
func (c *CompactIndex[K, V]) Intersect(key K, candidates []V) []V {
	slot, ok := c.offsets[key]
	if !ok {
		return nil
	}

	start := 0
	if slot > 0 {
		start = c.bounds[slot-1]
	}

	run := c.values[start:c.bounds[slot]]

	out := make([]V, 0, len(candidates))
	runIdx := 0

	for _, cand := range candidates {
		runIdx += advance(run[runIdx:], func(v V) bool { return c.less(v, cand) })

		if runIdx < len(run) && !c.less(cand, run[runIdx]) && !c.less(run[runIdx], cand) {
			out = append(out, cand)
		}
	}

	return out
}

// AccumulateDiffs adds 1 into acc (same length as candidates) for each
// candidate present in key's immutable base run. The base layer never
// carries its own diffs; presence always contributes exactly +1.
func (c *CompactIndex[K, V]) AccumulateDiffs(key K, candidates []V, acc []int64) {
	slot, ok := c.offsets[key]
	if !ok {
		return
	}

	start := 0
	if slot > 0 {
		start = c.bounds[slot-1]
	}

	run := c.values[start:c.bounds[slot]]

	runIdx := 0

	for i, cand := range candidates {
		runIdx += advance(run[runIdx:], func(v V) bool { return c.less(v, cand) })

		if runIdx < len(run) && !c.less(cand, run[runIdx]) && !c.less(run[runIdx], cand) {
			acc[i]++
		}
	}
}

// advance returns the number of elements at the front of slice for which
// function holds, using exponential then binary search: it first doubles a
// probe offset while function holds, then binary-searches the last interval.
// slice is assumed such that function is true on a prefix and false after.
func advance[T any](slice []T, function func(T) bool) int {
	if len(slice) == 0 || !function(slice[0]) {
		return 0
	}

	step := 1
	for step < len(slice) && function(slice[step]) {
		step *= 2
	}

	low := step / 2
	high := min(step, len(slice))

	for low < high {
		mid := low + (high-low)/2
		if function(slice[mid]) {
			low = mid + 1
		} else {
			high = mid
		}
	}

	return low
}
