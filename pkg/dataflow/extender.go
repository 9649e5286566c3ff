package dataflow

// StreamPrefixExtender is the capability a generic join needs from one
// relation: given a bound prefix and the query time, estimate how many
// extensions it would produce, produce them, or filter an existing
// candidate set down to the ones it agrees with.
type StreamPrefixExtender[P any, V any, T any] interface {
	Count(prefix P, time T) int
	Propose(prefix P, time T) []V
	Intersect(prefix P, time T, candidates []V) []V
}

// IndexExtender adapts an IndexStream into a StreamPrefixExtender for some
// prefix type P, by extracting the bound attribute's value from P via KeyOf
// and choosing a time-validity predicate from Prior: when Prior is true
// (this relation's index is before-or-equal the relation driving the query
// time), a diff is valid if its time is at or before the query time;
// otherwise (this relation's index is strictly after) a diff is valid only
// if its time is strictly before the query time. This before-or-equal/
// strictly-before split is what lets the N per-relation derivative
// subgraphs concatenate without double-counting.
type IndexExtender[P any, K comparable, V any, T any] struct {
	stream   *IndexStream[K, V, T]
	keyOf    func(P) K
	timeLess func(a, b T) bool
	prior    bool
}

// NewIndexExtender builds an IndexExtender over stream, using keyOf to pull
// the bound key out of a prefix and timeLess/prior to select the
// before-or-equal or strictly-before validity predicate.
func NewIndexExtender[P any, K comparable, V any, T any](
	stream *IndexStream[K, V, T],
	keyOf func(P) K,
	timeLess func(a, b T) bool,
	prior bool,
) *IndexExtender[P, K, V, T] {
	return &IndexExtender[P, K, V, T]{stream: stream, keyOf: keyOf, timeLess: timeLess, prior: prior}
}

// Ready reports whether it is safe to query this extender at time: the
// underlying stream's probe must have advanced past time first, or a query
// might miss updates that have not arrived yet. Count, Propose and
// Intersect do not check Ready themselves, and neither pkg/worker nor
// pkg/genericjoin calls it.
func (x *IndexExtender[P, K, V, T]) Ready(time T) bool {
	return !x.stream.probe.LessEqual(time)
}

func (x *IndexExtender[P, K, V, T]) validAt(queryTime T) func(T) bool {
	if x.prior {
		return func(diffTime T) bool { return !x.timeLess(queryTime, diffTime) }
	}

	return func(diffTime T) bool { return x.timeLess(diffTime, queryTime) }
}

// Count returns the upper-bound cost estimate for extending prefix.
func (x *IndexExtender[P, K, V, T]) Count(prefix P, time T) int {
	return x.stream.idx.Count(x.keyOf(prefix))
}

// Propose materializes every valid extension of prefix as of time.
func (x *IndexExtender[P, K, V, T]) Propose(prefix P, time T) []V {
	pairs := x.stream.idx.Propose(x.keyOf(prefix), x.validAt(time))

	values := make([]V, len(pairs))
	for i, p := range pairs {
		values[i] = p.Value
	}

	return values
}

// Intersect filters candidates down to the ones this extender agrees with
// for prefix as of time.
func (x *IndexExtender[P, K, V, T]) Intersect(prefix P, time T, candidates []V) []V {
	return x.stream.idx.Intersect(x.keyOf(prefix), candidates, x.validAt(time))
}
