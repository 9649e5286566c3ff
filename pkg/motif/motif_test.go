package motif

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// triangle is the motif on 3 attributes with edges (0,1), (0,2), (1,2).
func triangle() []Relation {
	return []Relation{{Src: 0, Dst: 1}, {Src: 0, Dst: 2}, {Src: 1, Dst: 2}}
}

func TestPlanTriangleSourceZero(t *testing.T) {
	p, err := Plan(triangle(), 0)
	require.NoError(t, err)

	require.Equal(t, []int{0, 1, 2}, p.Attrs)
	require.Len(t, p.Constraints, 1)

	cs := p.Constraints[0]
	require.Len(t, cs, 2)

	for _, c := range cs {
		require.False(t, c.Prior, "no relation has a list index below the source relation's own index 0")
	}
}

func TestPlanTriangleEachRelationAsSource(t *testing.T) {
	for i := range triangle() {
		p, err := Plan(triangle(), i)
		require.NoError(t, err)
		require.Len(t, p.Attrs, 3)
		require.Len(t, p.Constraints, 1)
		require.Len(t, p.Constraints[0], 2)
	}
}

func TestPlanDisconnectedMotifErrors(t *testing.T) {
	relations := []Relation{{Src: 0, Dst: 1}, {Src: 2, Dst: 3}}

	_, err := Plan(relations, 0)
	require.ErrorIs(t, err, ErrDisconnectedMotif)
}

func TestPlanFourCycle(t *testing.T) {
	// 0-1-2-3-0
	relations := []Relation{{Src: 0, Dst: 1}, {Src: 1, Dst: 2}, {Src: 2, Dst: 3}, {Src: 3, Dst: 0}}

	p, err := Plan(relations, 0)
	require.NoError(t, err)
	require.Len(t, p.Attrs, 4)
	require.Len(t, p.Constraints, 2) // attributes 2 and 3

	// Attribute 2 is bound via relation (1,2) to attribute 1.
	require.Len(t, p.Constraints[0], 1)
	require.Equal(t, 1, p.Constraints[0][0].BoundAttr)

	// Attribute 3 is bound via relations (2,3) and (3,0) to attributes 2 and 0.
	require.Len(t, p.Constraints[1], 2)
}

func TestPlanBreaksTiesByAttributeIDNotRelationOrder(t *testing.T) {
	// Both 2 and 3 become reachable from {0,1} in the same closure pass, but
	// relation list order would reach 3 before 2 (the (0,3) relation is
	// listed before (0,2)). The visiting order must still place 2 before 3.
	relations := []Relation{
		{Src: 0, Dst: 1}, // index 0: source relation
		{Src: 0, Dst: 3}, // index 1
		{Src: 0, Dst: 2}, // index 2
	}

	p, err := Plan(relations, 0)
	require.NoError(t, err)
	require.Equal(t, []int{0, 1, 2, 3}, p.Attrs)
}

func TestPlanPriorReflectsRelationListPosition(t *testing.T) {
	relations := []Relation{
		{Src: 0, Dst: 2}, // index 0
		{Src: 0, Dst: 1}, // index 1: source relation when sourceRelationIndex=1
		{Src: 1, Dst: 2}, // index 2
	}

	p, err := Plan(relations, 1)
	require.NoError(t, err)

	// attribute 2 is bound by relation 0 (prior, index 0 < source 1) and
	// relation 2 (not prior, index 2 >= source 1).
	require.Len(t, p.Constraints, 1)

	var sawPrior, sawNotPrior bool

	for _, c := range p.Constraints[0] {
		if c.Prior {
			sawPrior = true
		} else {
			sawNotPrior = true
		}
	}

	require.True(t, sawPrior)
	require.True(t, sawNotPrior)
}
