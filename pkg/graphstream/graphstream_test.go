package graphstream

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/wcoj/pkg/compact"
	"github.com/Sumatoshi-tech/wcoj/pkg/motif"
)

func lessInt(a, b int) bool { return a < b }

// triangleRelations is the motif on 3 attributes with edges (0,1), (0,2), (1,2).
func triangleRelations() []motif.Relation {
	return []motif.Relation{{Src: 0, Dst: 1}, {Src: 0, Dst: 2}, {Src: 1, Dst: 2}}
}

func TestTrackMotifFindsNewTriangle(t *testing.T) {
	g := New[int](lessInt)

	require.NoError(t, g.Initialize([]Edge{{Src: 0, Dst: 1}, {Src: 1, Dst: 2}}))

	updates := []EdgeUpdate[int]{{Src: 0, Dst: 2, Time: 10, Diff: 1}}
	g.Absorb(updates)

	matches, err := TrackMotif(g, triangleRelations(), updates, 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.Equal(t, []uint32{0, 1, 2}, matches[0].Vertices)
	require.Equal(t, int64(1), matches[0].Diff)
}

func TestTrackMotifNoTriangleWithoutThirdEdge(t *testing.T) {
	g := New[int](lessInt)

	require.NoError(t, g.Initialize([]Edge{{Src: 0, Dst: 1}}))

	updates := []EdgeUpdate[int]{{Src: 2, Dst: 3, Time: 10, Diff: 1}}
	g.Absorb(updates)

	matches, err := TrackMotif(g, triangleRelations(), updates, 10)
	require.NoError(t, err)
	require.Empty(t, matches)
}

func TestTrackMotifRetraction(t *testing.T) {
	g := New[int](lessInt)

	require.NoError(t, g.Initialize([]Edge{{Src: 0, Dst: 1}, {Src: 1, Dst: 2}, {Src: 0, Dst: 2}}))

	updates := []EdgeUpdate[int]{{Src: 0, Dst: 2, Time: 10, Diff: -1}}
	g.Absorb(updates)

	matches, err := TrackMotif(g, triangleRelations(), updates, 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.Equal(t, int64(-1), matches[0].Diff)
}

func TestForwardBaseEntriesReflectsInitializedGraph(t *testing.T) {
	g := New[int](lessInt)

	require.NoError(t, g.Initialize([]Edge{{Src: 0, Dst: 1}, {Src: 1, Dst: 2}}))

	require.ElementsMatch(t, []compact.Entry[uint32, uint32]{
		{Key: 0, Value: 1},
		{Key: 1, Value: 2},
	}, g.ForwardBaseEntries())
}
