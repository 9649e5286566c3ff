package lsm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func lessInt(a, b int) bool { return a < b }

func TestEdgeListPushSealProposals(t *testing.T) {
	e := New[int, int](lessInt)

	e.Push(1, 10, 1)
	e.Push(1, 20, 1)
	e.Push(1, 10, 1)
	e.SealFrom(1)

	got := e.Proposals(1)
	require.Len(t, got, 2)
	require.Equal(t, Pair[int]{Value: 10, Diff: 2}, got[0])
	require.Equal(t, Pair[int]{Value: 20, Diff: 1}, got[1])
}

func TestEdgeListRetractionZeroesOut(t *testing.T) {
	e := New[int, int](lessInt)

	e.Push(1, 10, 1)
	e.SealFrom(1)
	e.Push(1, 10, -1)
	e.SealFrom(1)

	require.Empty(t, e.Proposals(1))
}

func TestEdgeListGeometricRunInvariant(t *testing.T) {
	e := New[int, int](lessInt)

	for i := range 40 {
		e.Push(1, i, 1)
		e.SealFrom(1)

		slot := e.index[1]
		bounds := e.bounds[slot]

		for j := 2; j < len(bounds); j++ {
			priorLen := bounds[j-1] - bounds[j-2]
			thisLen := bounds[j] - bounds[j-1]
			require.GreaterOrEqual(t, priorLen, 2*thisLen,
				"run invariant violated at step %d: bounds=%v", i, bounds)
		}
	}

	require.Len(t, e.Proposals(1), 40)
}

func TestEdgeListIntersect(t *testing.T) {
	e := New[int, int](lessInt)

	for _, v := range []int{1, 3, 5, 7} {
		e.Push(1, v, 1)
	}

	e.SealFrom(1)

	got := e.Intersect(1, []int{0, 1, 2, 3, 4, 5, 6})
	require.Equal(t, []int{1, 3, 5}, got)
}

func TestEdgeListIntersectAcrossRuns(t *testing.T) {
	e := New[int, int](lessInt)

	e.Push(1, 2, 1)
	e.SealFrom(1)
	e.Push(1, 4, 1)
	e.SealFrom(1)
	e.Push(1, 2, 1)
	e.SealFrom(1)

	got := e.Intersect(1, []int{2, 3, 4})
	require.Equal(t, []int{2, 4}, got)
}

func TestEdgeListCountIsUpperBound(t *testing.T) {
	e := New[int, int](lessInt)

	e.Push(1, 1, 1)
	e.Push(1, 1, -1)
	e.Push(1, 2, 1)
	e.SealFrom(1)

	require.GreaterOrEqual(t, e.Count(1), len(e.Proposals(1)))
}

func TestEdgeListExpendBoundsRunCount(t *testing.T) {
	e := New[int, int](lessInt)

	for i := range 10 {
		e.Push(1, i, 1)
		e.SealFrom(1)
	}

	before := len(e.bounds[e.index[1]])
	e.Expend(1, before)
	after := len(e.bounds[e.index[1]])

	require.Equal(t, 1, after)
	require.Len(t, e.Proposals(1), 10)
}

func TestEdgeListUnknownKey(t *testing.T) {
	e := New[int, int](lessInt)

	require.Nil(t, e.Proposals(99))
	require.Equal(t, 0, e.Count(99))
	require.Nil(t, e.Intersect(99, []int{1, 2}))
}
