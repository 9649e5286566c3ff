package dataflow

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/wcoj/pkg/compact"
	"github.com/Sumatoshi-tech/wcoj/pkg/unsorted"
)

func lessInt(a, b int) bool { return a < b }

func TestProbeHandleStartsOpen(t *testing.T) {
	p := NewProbeHandle(lessInt)
	require.True(t, p.LessEqual(5))
	require.True(t, p.LessThan(5))
}

func TestProbeHandleAdvanceMonotonic(t *testing.T) {
	p := NewProbeHandle(lessInt)
	p.Advance(10)

	require.True(t, p.LessEqual(10))
	require.False(t, p.LessThan(10))
	require.True(t, p.LessThan(11))
	require.False(t, p.LessEqual(9))

	p.Advance(3) // not an advance, frontier stays at 10.
	require.False(t, p.LessEqual(9))
}

func TestIndexStreamAbsorbAndMergeTo(t *testing.T) {
	s := NewIndexStream[int, int, int](lessInt, lessInt, lessInt)
	require.NoError(t, s.Initialize(nil))

	s.Absorb([]unsorted.Entry[int, int, int]{{Key: 1, Value: 2, Time: 5, Diff: 1}})
	s.MergeTo(func(time int) bool { return time <= 10 })

	got := s.Index().Propose(1, func(int) bool { return false })
	require.Len(t, got, 1)
	require.Equal(t, 2, got[0].Value)
}

type pair struct {
	Key int
	Val int
}

func TestIndexExtenderReadyGatesOnProbe(t *testing.T) {
	s := NewIndexStream[int, int, int](lessInt, lessInt, lessInt)
	require.NoError(t, s.Initialize([]compact.Entry[int, int]{{Key: 1, Value: 9}}))

	ext := NewIndexExtender[pair](s, func(p pair) int { return p.Key }, lessInt, false)

	require.False(t, ext.Ready(5))
	s.Advance(6)
	require.True(t, ext.Ready(5))
}

func TestIndexExtenderCountProposeIntersect(t *testing.T) {
	s := NewIndexStream[int, int, int](lessInt, lessInt, lessInt)
	require.NoError(t, s.Initialize([]compact.Entry[int, int]{
		{Key: 1, Value: 9},
		{Key: 1, Value: 11},
	}))

	ext := NewIndexExtender[pair](s, func(p pair) int { return p.Key }, lessInt, false)

	p := pair{Key: 1}
	require.Equal(t, 2, ext.Count(p, 0))
	require.Equal(t, []int{9, 11}, ext.Propose(p, 0))
	require.Equal(t, []int{9}, ext.Intersect(p, 0, []int{8, 9, 10}))
}

func TestIndexExtenderPriorUsesBeforeOrEqual(t *testing.T) {
	s := NewIndexStream[int, int, int](lessInt, lessInt, lessInt)
	require.NoError(t, s.Initialize(nil))

	s.Absorb([]unsorted.Entry[int, int, int]{{Key: 1, Value: 4, Time: 10, Diff: 1}})

	prior := NewIndexExtender[pair](s, func(p pair) int { return p.Key }, lessInt, true)
	notPrior := NewIndexExtender[pair](s, func(p pair) int { return p.Key }, lessInt, false)

	p := pair{Key: 1}
	require.Len(t, prior.Propose(p, 10), 1)  // before-or-equal includes an equal-time diff.
	require.Empty(t, notPrior.Propose(p, 10)) // strictly-before excludes it.
}
