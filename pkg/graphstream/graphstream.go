// Package graphstream wires pkg/dataflow's forward and reverse IndexStreams
// over a single changing edge relation, and drives pkg/motif's per-relation
// plans through pkg/genericjoin to compute signed motif-instance deltas for
// an incoming batch of edge updates.
package graphstream

import (
	"fmt"

	"github.com/Sumatoshi-tech/wcoj/pkg/compact"
	"github.com/Sumatoshi-tech/wcoj/pkg/dataflow"
	"github.com/Sumatoshi-tech/wcoj/pkg/genericjoin"
	"github.com/Sumatoshi-tech/wcoj/pkg/motif"
	"github.com/Sumatoshi-tech/wcoj/pkg/unsorted"
)

// Edge is one (source, destination) pair of the static initial graph.
type Edge struct {
	Src uint32
	Dst uint32
}

// EdgeUpdate is one signed change to the graph: Diff is +1 for an edge
// appearing, -1 for an edge disappearing, observed at Time.
type EdgeUpdate[T any] struct {
	Src  uint32
	Dst  uint32
	Time T
	Diff int64
}

// Match is one instance of a motif: Vertices[i] is the vertex bound to
// attribute i in the caller's original numbering, with the signed Diff of
// the update that produced it (+1 newly present, -1 newly absent).
type Match struct {
	Vertices []uint32
	Diff     int64
}

// prefix is a partial match under construction: the vertices bound so far,
// in visiting order, carrying along the originating update's diff so the
// final Match can report it without a separate parallel accumulator.
type prefix struct {
	vertices []uint32
	diff     int64
}

func combinePrefix(p prefix, v uint32) prefix {
	vertices := make([]uint32, len(p.vertices)+1)
	copy(vertices, p.vertices)
	vertices[len(p.vertices)] = v

	return prefix{vertices: vertices, diff: p.diff}
}

func lessU32(a, b uint32) bool { return a < b }

// GraphStreamIndex maintains forward (src -> dst) and reverse (dst -> src)
// indices over one changing edge relation, the shared substrate every
// motif-relation position is looked up against.
type GraphStreamIndex[T any] struct {
	forward  *dataflow.IndexStream[uint32, uint32, T]
	reverse  *dataflow.IndexStream[uint32, uint32, T]
	timeLess func(a, b T) bool
}

// New constructs an empty GraphStreamIndex ordering time with timeLess.
func New[T any](timeLess func(a, b T) bool) *GraphStreamIndex[T] {
	return &GraphStreamIndex[T]{
		forward:  dataflow.NewIndexStream[uint32, uint32, T](lessU32, lessU32, timeLess),
		reverse:  dataflow.NewIndexStream[uint32, uint32, T](lessU32, lessU32, timeLess),
		timeLess: timeLess,
	}
}

// Initialize loads the static base graph into both the forward and reverse
// indices. It may only be called once.
func (g *GraphStreamIndex[T]) Initialize(edges []Edge) error {
	fwd := make([]compact.Entry[uint32, uint32], len(edges))
	rev := make([]compact.Entry[uint32, uint32], len(edges))

	for i, e := range edges {
		fwd[i] = compact.Entry[uint32, uint32]{Key: e.Src, Value: e.Dst}
		rev[i] = compact.Entry[uint32, uint32]{Key: e.Dst, Value: e.Src}
	}

	if err := g.forward.Initialize(fwd); err != nil {
		return fmt.Errorf("graphstream: forward index: %w", err)
	}

	if err := g.reverse.Initialize(rev); err != nil {
		return fmt.Errorf("graphstream: reverse index: %w", err)
	}

	return nil
}

// ForwardBaseEntries returns the forward index's immutable base-layer
// entries, the (src, dst) pairs pkg/snapshot checkpoints to disk so a
// restart can skip replaying Initialize against the full base graph.
func (g *GraphStreamIndex[T]) ForwardBaseEntries() []compact.Entry[uint32, uint32] {
	return g.forward.Index().BaseEntries()
}

// Absorb buffers a batch of edge updates into both indices. Call this
// before TrackMotif so the same batch is visible to the join computing its
// effect on motif instances.
func (g *GraphStreamIndex[T]) Absorb(updates []EdgeUpdate[T]) {
	fwd := make([]unsorted.Entry[uint32, uint32, T], len(updates))
	rev := make([]unsorted.Entry[uint32, uint32, T], len(updates))

	for i, u := range updates {
		fwd[i] = unsorted.Entry[uint32, uint32, T]{Key: u.Src, Value: u.Dst, Time: u.Time, Diff: u.Diff}
		rev[i] = unsorted.Entry[uint32, uint32, T]{Key: u.Dst, Value: u.Src, Time: u.Time, Diff: u.Diff}
	}

	g.forward.Absorb(fwd)
	g.reverse.Absorb(rev)
}

// Advance moves both indices' progress probes forward to t.
func (g *GraphStreamIndex[T]) Advance(t T) {
	g.forward.Advance(t)
	g.reverse.Advance(t)
}

// MergeTo folds every buffered entry for which due holds into both
// indices' committed layers.
func (g *GraphStreamIndex[T]) MergeTo(due func(T) bool) {
	g.forward.MergeTo(due)
	g.reverse.MergeTo(due)
}

// TrackMotif computes the signed delta to motif-instance counts caused by
// updates (which must already have been passed to Absorb), for the motif
// described by relations, as of time. It concatenates, for each relation in
// turn treated as the position the update batch changed, the join of that
// relation's plan seeded from updates itself — the N-subgraph construction
// that avoids double-counting an update that happens to satisfy more than
// one relation position.
func TrackMotif[T any](g *GraphStreamIndex[T], relations []motif.Relation, updates []EdgeUpdate[T], time T) ([]Match, error) {
	var out []Match

	for relIdx := range relations {
		matches, err := relationUpdate(g, relations, relIdx, updates, time)
		if err != nil {
			return nil, fmt.Errorf("graphstream: relation %d: %w", relIdx, err)
		}

		out = append(out, matches...)
	}

	return out, nil
}

// relationUpdate computes Match instances attributable to relIdx's
// position in the motif, seeding the join from updates and following
// plan.Constraints stage by stage.
func relationUpdate[T any](g *GraphStreamIndex[T], relations []motif.Relation, relIdx int, updates []EdgeUpdate[T], time T) ([]Match, error) {
	plan, err := motif.Plan(relations, relIdx)
	if err != nil {
		return nil, err
	}

	prefixes := make([]prefix, len(updates))
	for i, u := range updates {
		prefixes[i] = prefix{vertices: []uint32{u.Src, u.Dst}, diff: u.Diff}
	}

	for _, constraints := range plan.Constraints {
		extenders := make([]dataflow.StreamPrefixExtender[prefix, uint32, T], len(constraints))

		for i, c := range constraints {
			bound := c.BoundAttr
			stream := g.forward

			if !c.Forward {
				stream = g.reverse
			}

			keyOf := func(p prefix) uint32 { return p.vertices[bound] }
			extenders[i] = dataflow.NewIndexExtender[prefix](stream, keyOf, g.timeLess, c.Prior)
		}

		prefixes, err = genericjoin.Extend(prefixes, time, extenders, combinePrefix)
		if err != nil {
			return nil, err
		}
	}

	out := make([]Match, len(prefixes))

	for i, p := range prefixes {
		vertices := make([]uint32, len(p.vertices))
		for pos, v := range p.vertices {
			vertices[plan.Attrs[pos]] = v
		}

		out[i] = Match{Vertices: vertices, Diff: p.diff}
	}

	return out, nil
}
