package overlay

import (
	"strconv"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square(x0, y0, x1, y1 float64) orb.MultiPolygon {
	return orb.MultiPolygon{{{
		{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}, {x0, y0},
	}}}
}

func memberKey(members []int) string {
	parts := make([]string, len(members))
	for i, m := range members {
		parts[i] = strconv.Itoa(m)
	}
	return strings.Join(parts, ",")
}

func TestUnion_Overlapping(t *testing.T) {
	got, err := Union([]orb.MultiPolygon{square(0, 0, 2, 2), square(1, 1, 3, 3)})

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Len(t, got[0], 1, "no holes expected")
	assert.InDelta(t, 7.0, planar.Area(got), 1e-9)
}

func TestUnion_Disjoint(t *testing.T) {
	got, err := Union([]orb.MultiPolygon{square(0, 0, 1, 1), square(5, 5, 6, 6)})

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.InDelta(t, 2.0, planar.Area(got), 1e-9)
}

func TestUnion_SharedEdgeMerges(t *testing.T) {
	got, err := Union([]orb.MultiPolygon{square(0, 0, 1, 1), square(1, 0, 2, 1)})

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.InDelta(t, 2.0, planar.Area(got), 1e-9)
}

func TestUnion_KeepsHoles(t *testing.T) {
	donut := orb.MultiPolygon{{
		{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}},
		{{4, 4}, {4, 6}, {6, 6}, {6, 4}, {4, 4}},
	}}

	got, err := Union([]orb.MultiPolygon{donut})

	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Len(t, got[0], 2)
	assert.InDelta(t, 96.0, planar.Area(got), 1e-9)
	assert.Equal(t, orb.CCW, got[0][0].Orientation())
	assert.Equal(t, orb.CW, got[0][1].Orientation())
}

func TestUnion_RingClosesAroundHole(t *testing.T) {
	// Four bars framing an empty centre.
	got, err := Union([]orb.MultiPolygon{
		square(0, 0, 3, 1),
		square(0, 2, 3, 3),
		square(0, 0, 1, 3),
		square(2, 0, 3, 3),
	})

	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Len(t, got[0], 2)
	assert.InDelta(t, 8.0, planar.Area(got), 1e-9)
}

func TestUnion_Empty(t *testing.T) {
	got, err := Union(nil)

	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSelfIntersection_TwoSquares(t *testing.T) {
	pieces, err := SelfIntersection([]orb.MultiPolygon{square(0, 0, 2, 2), square(1, 1, 3, 3)})

	require.NoError(t, err)
	require.Len(t, pieces, 3)
	byMembers := map[string]float64{}
	for _, p := range pieces {
		byMembers[memberKey(p.Members)] = planar.Area(p.Geometry)
	}
	assert.InDelta(t, 3.0, byMembers["0"], 1e-9)
	assert.InDelta(t, 3.0, byMembers["1"], 1e-9)
	assert.InDelta(t, 1.0, byMembers["0,1"], 1e-9)
}

func TestSelfIntersection_Nested(t *testing.T) {
	pieces, err := SelfIntersection([]orb.MultiPolygon{square(0, 0, 10, 10), square(2, 2, 4, 4)})

	require.NoError(t, err)
	require.Len(t, pieces, 2)
	byMembers := map[string]orb.MultiPolygon{}
	for _, p := range pieces {
		byMembers[memberKey(p.Members)] = p.Geometry
	}

	outer := byMembers["0"]
	require.Len(t, outer, 1)
	assert.Len(t, outer[0], 2, "outer piece has the inner square as a hole")
	assert.InDelta(t, 96.0, planar.Area(outer), 1e-9)
	assert.InDelta(t, 4.0, planar.Area(byMembers["0,1"]), 1e-9)
}

func TestSelfIntersection_IdenticalInputs(t *testing.T) {
	pieces, err := SelfIntersection([]orb.MultiPolygon{square(0, 0, 1, 1), square(0, 0, 1, 1)})

	require.NoError(t, err)
	require.Len(t, pieces, 1)
	assert.Equal(t, []int{0, 1}, pieces[0].Members)
	assert.InDelta(t, 1.0, planar.Area(pieces[0].Geometry), 1e-9)
}

func TestSelfIntersection_SharedEdgeLeavesNoSliver(t *testing.T) {
	pieces, err := SelfIntersection([]orb.MultiPolygon{square(0, 0, 1, 1), square(1, 0, 2, 1)})

	require.NoError(t, err)
	require.Len(t, pieces, 2)
	assert.Equal(t, []int{0}, pieces[0].Members)
	assert.Equal(t, []int{1}, pieces[1].Members)
}

func TestSelfIntersection_PiecesPartitionUnion(t *testing.T) {
	in := []orb.MultiPolygon{
		square(0, 0, 4, 4),
		square(2, 2, 6, 6),
		square(1, 3, 5, 7),
	}

	pieces, err := SelfIntersection(in)
	require.NoError(t, err)

	total := 0.0
	seen := map[string]bool{}
	for _, p := range pieces {
		total += planar.Area(p.Geometry)
		k := memberKey(p.Members)
		assert.False(t, seen[k], "member set %s appears once", k)
		seen[k] = true
	}

	union, err := Union(in)
	require.NoError(t, err)
	assert.InDelta(t, planar.Area(union), total, 1e-9)
	assert.True(t, seen["0,1,2"])
}

func TestSelfIntersection_Empty(t *testing.T) {
	pieces, err := SelfIntersection(nil)

	require.NoError(t, err)
	assert.Empty(t, pieces)
}

func TestDissolve_GroupsByKey(t *testing.T) {
	in := []orb.MultiPolygon{
		square(0, 0, 1, 1),
		square(5, 0, 6, 1),
		square(1, 0, 2, 1),
	}

	keys, out, err := Dissolve(in, []string{"a", "b", "a"})

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, keys)
	require.Len(t, out, 2)
	require.Len(t, out[0], 1, "adjacent members merge")
	assert.InDelta(t, 2.0, planar.Area(out[0]), 1e-9)
	assert.InDelta(t, 1.0, planar.Area(out[1]), 1e-9)
}

func TestIntersects(t *testing.T) {
	sq := square(0, 0, 10, 10)

	assert.True(t, Intersects(sq, orb.LineString{{-5, 5}, {15, 5}}))
	assert.True(t, Intersects(sq, orb.Point{10, 5}), "boundary point")
	assert.True(t, Intersects(sq, square(10, 10, 20, 20)), "touching corner")
	assert.False(t, Intersects(sq, orb.Point{11, 5}))
	assert.False(t, Intersects(sq, nil))
}
