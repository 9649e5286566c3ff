// Package unsorted implements the write-absorbing top layer of an Index: a
// time-annotated buffer of (key, value, time, diff) observations that have
// been accepted but not yet folded into the committed lsm.EdgeList layer.
//
// Entries are appended in arrival order and sorted lazily, on first query
// after new entries arrive, by (key, value) so that per-key lookups can
// binary-search a contiguous run instead of scanning the whole buffer.
package unsorted

import "sort"

// Entry is one buffered observation: value v for key k became valid at time
// t with signed multiplicity diff.
type Entry[K comparable, V any, T any] struct {
	Key   K
	Value V
	Time  T
	Diff  int64
}

// Buffer holds not-yet-committed entries for an Index, ordered by (Key,
// Value) once sorted. The zero value is ready to use.
type Buffer[K comparable, V any, T any] struct {
	lessKey func(a, b K) bool
	lessVal func(a, b V) bool
	entries []Entry[K, V, T]
	sorted  bool
}

// New constructs a Buffer ordering keys with lessKey and values with lessVal.
func New[K comparable, V any, T any](lessKey func(a, b K) bool, lessVal func(a, b V) bool) *Buffer[K, V, T] {
	return &Buffer[K, V, T]{lessKey: lessKey, lessVal: lessVal}
}

// Extend appends new entries to the buffer. The buffer is marked unsorted;
// the next query re-sorts the whole thing.
func (b *Buffer[K, V, T]) Extend(entries []Entry[K, V, T]) {
	if len(entries) == 0 {
		return
	}

	b.entries = append(b.entries, entries...)
	b.sorted = false
}

// Len returns the number of buffered entries, sorted or not.
func (b *Buffer[K, V, T]) Len() int {
	return len(b.entries)
}

// ensureSorted stable-sorts all entries by (Key, Value).
func (b *Buffer[K, V, T]) ensureSorted() {
	if b.sorted {
		return
	}

	sort.SliceStable(b.entries, func(i, j int) bool {
		a, c := b.entries[i], b.entries[j]
		if b.lessKey(a.Key, c.Key) {
			return true
		}

		if b.lessKey(c.Key, a.Key) {
			return false
		}

		return b.lessVal(a.Value, c.Value)
	})

	b.sorted = true
}

// ValuesFrom returns all buffered entries for key, in value order, sorting
// the buffer first if needed. cursor is reserved for caching a per-key
// offset the way compact.CompactIndex.ValuesFrom does, but since the whole
// buffer re-sorts on every mutation, callers should re-seek from *cursor ==
// 0 after any intervening Extend.
func (b *Buffer[K, V, T]) ValuesFrom(key K, cursor *int) []Entry[K, V, T] {
	b.ensureSorted()

	lo := sort.Search(len(b.entries), func(i int) bool {
		return !b.lessKey(b.entries[i].Key, key)
	})

	hi := sort.Search(len(b.entries), func(i int) bool {
		return b.lessKey(key, b.entries[i].Key)
	})

	run := b.entries[lo:hi]

	if *cursor > len(run) {
		*cursor = 0
	}

	return run[*cursor:]
}

// AccumulateDiffs adds, into acc (same length as candidates), the diff of
// every buffered entry for key whose value equals a candidate and whose
// Time satisfies validAt. Candidates must be sorted by lessVal; this walks
// key's (unsorted-by-time, sorted-by-value) run once per call.
func (b *Buffer[K, V, T]) AccumulateDiffs(key K, candidates []V, validAt func(T) bool, acc []int64) {
	b.ensureSorted()

	lo := sort.Search(len(b.entries), func(i int) bool {
		return !b.lessKey(b.entries[i].Key, key)
	})

	hi := sort.Search(len(b.entries), func(i int) bool {
		return b.lessKey(key, b.entries[i].Key)
	})

	run := b.entries[lo:hi]
	runIdx := 0

	for i, cand := range candidates {
		for runIdx < len(run) && b.lessVal(run[runIdx].Value, cand) {
			runIdx++
		}

		probe := runIdx
		for probe < len(run) && !b.lessVal(cand, run[probe].Value) && !b.lessVal(run[probe].Value, cand) {
			if validAt(run[probe].Time) {
				acc[i] += run[probe].Diff
			}

			probe++
		}
	}
}

// All returns every buffered entry in (Key, Value) order.
func (b *Buffer[K, V, T]) All() []Entry[K, V, T] {
	b.ensureSorted()

	return b.entries
}

// RemoveThrough deletes every entry with Key == key for which drain(Time)
// returns true, and returns the removed entries in (Key, Value) order, with
// arrival order kept only among entries of equal value. Used by Index.MergeTo to drain entries into the committed
// EdgeList layer once they have been folded in.
func (b *Buffer[K, V, T]) RemoveThrough(key K, drain func(Entry[K, V, T]) bool) []Entry[K, V, T] {
	b.ensureSorted()

	lo := sort.Search(len(b.entries), func(i int) bool {
		return !b.lessKey(b.entries[i].Key, key)
	})

	hi := sort.Search(len(b.entries), func(i int) bool {
		return b.lessKey(key, b.entries[i].Key)
	})

	var removed []Entry[K, V, T]

	write := lo

	for i := lo; i < hi; i++ {
		if drain(b.entries[i]) {
			removed = append(removed, b.entries[i])
			continue
		}

		b.entries[write] = b.entries[i]
		write++
	}

	b.entries = append(b.entries[:write], b.entries[hi:]...)

	return removed
}

// DistinctKeys returns every distinct key with at least one buffered entry,
// in key order.
func (b *Buffer[K, V, T]) DistinctKeys() []K {
	b.ensureSorted()

	var keys []K

	for i, e := range b.entries {
		if i == 0 || b.lessKey(b.entries[i-1].Key, e.Key) {
			keys = append(keys, e.Key)
		}
	}

	return keys
}

// CountKey returns the number of buffered entries for key, ignoring time
// validity (used for Index.Count's intentional over-approximation).
func (b *Buffer[K, V, T]) CountKey(key K) int {
	b.ensureSorted()

	lo := sort.Search(len(b.entries), func(i int) bool {
		return !b.lessKey(b.entries[i].Key, key)
	})

	hi := sort.Search(len(b.entries), func(i int) bool {
		return b.lessKey(key, b.entries[i].Key)
	})

	return hi - lo
}

// DistinctValues returns the deduplicated, value-ordered set of values
// buffered for key, regardless of diff sign or time validity.
func (b *Buffer[K, V, T]) DistinctValues(key K) []V {
	b.ensureSorted()

	lo := sort.Search(len(b.entries), func(i int) bool {
		return !b.lessKey(b.entries[i].Key, key)
	})

	hi := sort.Search(len(b.entries), func(i int) bool {
		return b.lessKey(key, b.entries[i].Key)
	})

	var values []V

	for i := lo; i < hi; i++ {
		if i == lo || b.lessVal(b.entries[i-1].Value, b.entries[i].Value) {
			values = append(values, b.entries[i].Value)
		}
	}

	return values
}
