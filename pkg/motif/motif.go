// Package motif plans the extension order for a graph motif: given a set of
// binary relations (edges between attribute positions) describing the
// shape to match, and a chosen "source" relation whose own changes this
// plan tracks, it determines an attribute visiting order reachable by
// repeated closure starting from that relation's two endpoints, then
// emits, for each newly-reachable attribute, the list of already-bound
// attributes, relation directions, and before-or-equal/strictly-before
// validity choices a generic join must intersect against to extend a
// partial match by that attribute.
//
// A motif's full dataflow is the concatenation, over every relation in
// turn as the source, of the plan computed here: relation i's plan tracks
// exactly the motif instances created or destroyed by a change to relation
// i, and using relation index (rather than attribute position) to decide
// the before-or-equal/strictly-before split is what keeps the N resulting
// subgraphs from double-counting the same instance twice.
package motif

import (
	"errors"
	"sort"
)

// ErrDisconnectedMotif is returned by Plan when some attribute is never
// reached by the closure starting from the source relation's endpoints,
// meaning the motif's relations do not connect every attribute into one
// component.
var ErrDisconnectedMotif = errors.New("motif: disconnected attribute graph")

// Relation is one binary constraint of the motif: an edge from attribute
// Src to attribute Dst must exist between the corresponding positions of a
// match. Attributes are identified by small integers assigned by the
// caller.
type Relation struct {
	Src int
	Dst int
}

// Constraint is one step of the query plan: extending a partial match by a
// new attribute must intersect against the index for BoundAttr, using the
// Forward-oriented index (BoundAttr is the relation's source endpoint,
// traverse to the new attribute as its destination) or the reverse one
// (BoundAttr is the destination endpoint, traverse back to the new
// attribute as source). Prior is true when the constraining relation
// appears before the plan's source relation in the caller's relation list,
// meaning its diffs must be valid at-or-before the query time rather than
// strictly before it.
type Constraint struct {
	BoundAttr int
	Forward   bool
	Prior     bool
}

// Plan is the attribute visiting order and per-attribute constraints for
// one source relation. Attrs[i] is the original attribute number visited
// at position i (Attrs[0] and Attrs[1] are the source relation's two
// endpoints); Constraints[i-2] (for i >= 2) lists what extending to Attrs[i]
// must intersect against, itself expressed in relabeled (visiting-order)
// attribute numbers. A match built by visiting positions 0..len(Attrs)-1 in
// order is un-permuted back to original attribute numbering via Attrs:
// result[Attrs[i]] = built[i].
type Plan struct {
	Attrs       []int
	Constraints [][]Constraint
}

// Plan computes the attribute visiting order and per-attribute constraints
// for relations, treating relations[sourceRelationIndex] as the relation
// whose changes this plan tracks.
func Plan(relations []Relation, sourceRelationIndex int) (Plan, error) {
	attrs, _, relabeled, err := orderAttributes(relations, sourceRelationIndex)
	if err != nil {
		return Plan{}, err
	}

	constraints := planQuery(relabeled, sourceRelationIndex)

	return Plan{Attrs: attrs, Constraints: constraints}, nil
}

// orderAttributes grows an "active" attribute set by repeated closure,
// starting from the two endpoints of relations[sourceRelationIndex], adding
// every attribute reachable from an already-active one via some relation,
// until no relation offers a new attribute. Within one closure pass, every
// newly-reachable attribute is collected first and then appended in
// increasing original attribute id — ties are broken by attribute id, not
// by relation list order, per the tie-break rule the planner follows. It
// returns the visiting order, the original->visiting-position relabeling,
// and the relations rewritten into visiting-order attribute numbers.
func orderAttributes(relations []Relation, sourceRelationIndex int) (order []int, relabel []int, relabeled []Relation, err error) {
	source := relations[sourceRelationIndex]

	active := []int{source.Src, source.Dst}
	inActive := map[int]bool{source.Src: true, source.Dst: true}

	for {
		var newlyReached []int

		reached := map[int]bool{}

		for _, r := range relations {
			if inActive[r.Src] && !inActive[r.Dst] && !reached[r.Dst] {
				newlyReached = append(newlyReached, r.Dst)
				reached[r.Dst] = true
			}

			if inActive[r.Dst] && !inActive[r.Src] && !reached[r.Src] {
				newlyReached = append(newlyReached, r.Src)
				reached[r.Src] = true
			}
		}

		if len(newlyReached) == 0 {
			break
		}

		sort.Ints(newlyReached)

		for _, attribute := range newlyReached {
			active = append(active, attribute)
			inActive[attribute] = true
		}
	}

	maxAttr := 0
	for _, r := range relations {
		maxAttr = max(maxAttr, max(r.Src, r.Dst))
	}

	if len(active) < maxAttr+1 {
		return nil, nil, nil, ErrDisconnectedMotif
	}

	relabel = make([]int, len(active))
	for position, attribute := range active {
		relabel[attribute] = position
	}

	relabeled = make([]Relation, len(relations))
	for i, r := range relations {
		relabeled[i] = Relation{Src: relabel[r.Src], Dst: relabel[r.Dst]}
	}

	return active, relabel, relabeled, nil
}

// planQuery determines, for each attribute from 2 up to the highest
// attribute number appearing in relations (already relabeled into visiting
// order), the constraints binding it: one per relation where the other
// endpoint is already bound (numbered below the new attribute).
// sourceRelationIndex marks the relation whose position in this list
// defines before-or-equal (index < sourceRelationIndex) versus
// strictly-before (index >= sourceRelationIndex) validity.
func planQuery(relations []Relation, sourceRelationIndex int) [][]Constraint {
	maxAttr := 0
	for _, r := range relations {
		maxAttr = max(maxAttr, max(r.Src, r.Dst))
	}

	plan := make([][]Constraint, 0, maxAttr-1)

	for attribute := 2; attribute <= maxAttr; attribute++ {
		var constraints []Constraint

		for relIdx, r := range relations {
			prior := relIdx < sourceRelationIndex

			if r.Src == attribute && r.Dst < attribute {
				constraints = append(constraints, Constraint{BoundAttr: r.Dst, Forward: false, Prior: prior})
			}

			if r.Dst == attribute && r.Src < attribute {
				constraints = append(constraints, Constraint{BoundAttr: r.Src, Forward: true, Prior: prior})
			}
		}

		plan = append(plan, constraints)
	}

	return plan
}
