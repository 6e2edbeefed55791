package geo

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Area of a regular n-gon inscribed in a circle of radius r.
func ngonArea(n int, r float64) float64 {
	return float64(n) / 2 * r * r * math.Sin(2*math.Pi/float64(n))
}

func TestBufferPoint(t *testing.T) {
	poly := BufferPoint(orb.Point{5, 5}, 10, QuadrantSegments)

	require.Len(t, poly, 1)
	assert.Len(t, poly[0], 21)
	assert.Equal(t, orb.CCW, poly[0].Orientation())
	assert.InDelta(t, ngonArea(20, 10), planar.Area(poly), 1e-9)
}

func TestBuffer_SingleSegment(t *testing.T) {
	got, err := Buffer([]orb.Geometry{orb.LineString{{0, 0}, {100, 0}}}, 10, QuadrantSegments)

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, orb.CCW, got[0][0].Orientation())
	assert.InDelta(t, 2000+ngonArea(20, 10), planar.Area(got), 1e-3)
}

func TestBuffer_DissolvesOverlaps(t *testing.T) {
	got, err := Buffer([]orb.Geometry{
		orb.LineString{{0, 0}, {100, 0}, {100, 100}},
		orb.Point{50, 5},
	}, 10, QuadrantSegments)

	require.NoError(t, err)
	require.Len(t, got, 1, "everything overlaps into one polygon")
	single := 2000 + ngonArea(20, 10)
	area := math.Abs(planar.Area(got))
	assert.Greater(t, area, single)
	assert.Less(t, area, 2*single)
}

func TestBuffer_Empty(t *testing.T) {
	got, err := Buffer(nil, 10, QuadrantSegments)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestClipLines(t *testing.T) {
	mask := orb.MultiPolygon{{{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}}}}

	got := ClipLines(orb.LineString{{-10, 5}, {20, 5}}, mask)

	require.Len(t, got, 1)
	assert.Equal(t, orb.LineString{{0, 5}, {10, 5}}, got[0])
}

func TestClipLines_SplitsOnReentry(t *testing.T) {
	// U shape open at the top between x=4 and x=6.
	mask := orb.MultiPolygon{{{
		{0, 0}, {10, 0}, {10, 10}, {6, 10}, {6, 2}, {4, 2}, {4, 10}, {0, 10}, {0, 0},
	}}}

	got := ClipLines(orb.MultiLineString{{{1, 5}, {9, 5}}}, mask)

	require.Len(t, got, 2)
	assert.InDelta(t, 3.0, planar.Length(got[0]), 1e-9)
	assert.InDelta(t, 3.0, planar.Length(got[1]), 1e-9)
}

func TestClipLines_Outside(t *testing.T) {
	mask := orb.MultiPolygon{{{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}}}}
	assert.Empty(t, ClipLines(orb.LineString{{20, 20}, {30, 30}}, mask))
}

func TestMergeLines_Chain(t *testing.T) {
	got := MergeLines([]orb.LineString{
		{{0, 0}, {1, 0}},
		{{2, 0}, {1, 0}},
		{{2, 0}, {2, 1}},
	})

	require.Len(t, got, 1)
	assert.Equal(t, orb.LineString{{0, 0}, {1, 0}, {2, 0}, {2, 1}}, got[0])
}

func TestMergeLines_StopsAtJunction(t *testing.T) {
	got := MergeLines([]orb.LineString{
		{{0, 0}, {1, 0}},
		{{1, 0}, {2, 0}},
		{{1, 0}, {1, 1}},
	})

	assert.Len(t, got, 3)
}

func TestMergeLines_Loop(t *testing.T) {
	got := MergeLines([]orb.LineString{
		{{0, 0}, {1, 0}, {1, 1}},
		{{1, 1}, {0, 1}, {0, 0}},
	})

	require.Len(t, got, 1)
	assert.Len(t, got[0], 5)
	assert.Equal(t, got[0][0], got[0][4])
}

func TestLineIntersections(t *testing.T) {
	t.Run("single line yields its ends", func(t *testing.T) {
		got := LineIntersections([]orb.LineString{{{0, 0}, {5, 0}, {10, 0}}})
		assert.Equal(t, []orb.Point{{0, 0}, {10, 0}}, got)
	})

	t.Run("crossing lines yield only the crossing", func(t *testing.T) {
		got := LineIntersections([]orb.LineString{
			{{0, 0}, {10, 0}},
			{{5, -5}, {5, 5}},
		})
		assert.Equal(t, []orb.Point{{5, 0}}, got)
	})

	t.Run("touching ends are not duplicated", func(t *testing.T) {
		got := LineIntersections([]orb.LineString{
			{{0, 0}, {10, 0}},
			{{10, 0}, {10, 10}},
		})
		assert.Equal(t, []orb.Point{{10, 0}}, got)
	})

	t.Run("isolated line keeps its ends beside a junction", func(t *testing.T) {
		got := LineIntersections([]orb.LineString{
			{{0, 0}, {10, 0}},
			{{5, -5}, {5, 5}},
			{{100, 100}, {110, 100}},
		})
		assert.Equal(t, []orb.Point{{5, 0}, {100, 100}, {110, 100}}, got)
	})

	t.Run("self-crossing line yields the crossing", func(t *testing.T) {
		got := LineIntersections([]orb.LineString{{{0, 0}, {10, 10}, {10, 0}, {0, 10}}})
		assert.Equal(t, []orb.Point{{5, 5}}, got)
	})
}

func TestSegmentIntersections_Collinear(t *testing.T) {
	got := SegmentIntersections(orb.Point{0, 0}, orb.Point{10, 0}, orb.Point{5, 0}, orb.Point{15, 0})
	assert.Equal(t, []orb.Point{{5, 0}, {10, 0}}, got)

	assert.Nil(t, SegmentIntersections(orb.Point{0, 0}, orb.Point{10, 0}, orb.Point{0, 1}, orb.Point{10, 1}))
}

func TestIntersects(t *testing.T) {
	sq := orb.Polygon{{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}}}

	assert.True(t, Intersects(sq, orb.LineString{{-5, 5}, {15, 5}}), "crossing without inner vertices")
	assert.True(t, Intersects(sq, orb.Point{10, 5}), "boundary point")
	assert.True(t, Intersects(sq, orb.Polygon{{{-1, -1}, {11, -1}, {11, 11}, {-1, 11}, {-1, -1}}}), "containing polygon")
	assert.False(t, Intersects(sq, orb.LineString{{20, 20}, {30, 20}}))
	assert.False(t, Intersects(sq, orb.Polygon{
		{{-10, -10}, {20, -10}, {20, 20}, {-10, 20}, {-10, -10}},
		{{-5, -5}, {-5, 15}, {15, 15}, {15, -5}, {-5, -5}},
	}), "inside a hole")
	assert.True(t, Intersects(sq, orb.Collection{orb.Point{50, 50}, orb.MultiPoint{{3, 3}}}))
	assert.False(t, Intersects(sq, nil))
}

func TestCentroidAndDissolve(t *testing.T) {
	c := Centroid(BufferPoint(orb.Point{3, 4}, 50, QuadrantSegments))
	assert.InDelta(t, 3, c[0], 1e-9)
	assert.InDelta(t, 4, c[1], 1e-9)

	got := DissolvePoints([]orb.Point{{1, 1}, {2, 2}, {1, 1}})
	assert.Equal(t, orb.MultiPoint{{1, 1}, {2, 2}}, got)
	assert.Len(t, ExplodePoints(got), 2)
}

func TestLocalProjection(t *testing.T) {
	lp := NewLocalProjection(orb.Bound{Min: orb.Point{-1, 0}, Max: orb.Point{1, 0}})

	p := lp.ToPlane(orb.Point{0, 1})
	assert.InDelta(t, 0, p[0], 1e-9)
	assert.InDelta(t, orb.EarthRadius*math.Pi/180, p[1], 1e-6)

	ls := orb.LineString{{-0.5, 0.2}, {0.5, -0.2}}
	back := lp.Inverse(lp.Forward(ls)).(orb.LineString)
	for i := range ls {
		assert.InDelta(t, ls[i][0], back[i][0], 1e-9)
		assert.InDelta(t, ls[i][1], back[i][1], 1e-9)
	}
	assert.Equal(t, orb.Point{-0.5, 0.2}, ls[0], "input is not modified")
}
