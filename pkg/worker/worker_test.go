package worker

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestShardIsStableAndBounded(t *testing.T) {
	for _, peers := range []int{1, 2, 3, 8} {
		s := Shard([]byte("some-key"), peers)
		require.GreaterOrEqual(t, s, 0)
		require.Less(t, s, max(peers, 1))
		require.Equal(t, s, Shard([]byte("some-key"), peers))
	}
}

func TestShardSinglePeerAlwaysZero(t *testing.T) {
	require.Equal(t, 0, Shard([]byte("x"), 1))
	require.Equal(t, 0, Shard([]byte("x"), 0))
}

func TestStepBatchesWork(t *testing.T) {
	w := New[int](2)

	var processed [][]int

	w.Enqueue(Task[int]{
		Items: []int{1, 2, 3, 4, 5},
		Run: func(batch []int) {
			cp := append([]int{}, batch...)
			processed = append(processed, cp)
		},
	})

	require.True(t, w.Pending())
	require.Equal(t, 2, w.Step())
	require.Equal(t, 2, w.Step())
	require.Equal(t, 1, w.Step())
	require.False(t, w.Pending())
	require.Equal(t, 0, w.Step())

	require.Equal(t, [][]int{{1, 2}, {3, 4}, {5}}, processed)
}

func TestRunToFixedPointDrainsAllTasks(t *testing.T) {
	w := New[int](4)

	var total int

	w.Enqueue(Task[int]{Items: []int{1, 2, 3}, Run: func(b []int) { total += len(b) }})
	w.Enqueue(Task[int]{Items: []int{4, 5}, Run: func(b []int) { total += len(b) }})

	w.RunToFixedPoint()

	require.False(t, w.Pending())
	require.Equal(t, 5, total)
}

func TestAverageBatchCostTracksSteps(t *testing.T) {
	w := New[int](10)
	require.Equal(t, 0.0, w.AverageBatchCost())

	w.Enqueue(Task[int]{Items: []int{1, 2, 3}, Run: func([]int) {}})
	w.Step()

	require.Equal(t, 3.0, w.AverageBatchCost())
}
