package raster

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gridFromRows builds a mask grid from strings, first string is the top row.
func gridFromRows(rows ...string) (*Grid, []bool) {
	g := &Grid{CellSize: 10, Cols: len(rows[0]), Rows: len(rows)}
	mask := make([]bool, g.Cols*g.Rows)
	for i, s := range rows {
		row := len(rows) - 1 - i
		for col, ch := range s {
			mask[g.index(col, row)] = ch == '#'
		}
	}
	return g, mask
}

func TestPolygonize_SingleCell(t *testing.T) {
	g, mask := gridFromRows(
		"...",
		".#.",
		"...",
	)

	mp := g.Polygonize(mask)

	require.Len(t, mp, 1)
	require.Len(t, mp[0], 1)
	assert.Equal(t, orb.Ring{{10, 10}, {20, 10}, {20, 20}, {10, 20}, {10, 10}}, mp[0][0])
}

func TestPolygonize_DiagonalCellsStaySeparate(t *testing.T) {
	g, mask := gridFromRows(
		".#",
		"#.",
	)

	mp := g.Polygonize(mask)

	require.Len(t, mp, 2)
	assert.InDelta(t, 200.0, planar.Area(mp), 1e-9)
}

func TestPolygonize_Hole(t *testing.T) {
	g, mask := gridFromRows(
		"###",
		"#.#",
		"###",
	)

	mp := g.Polygonize(mask)

	require.Len(t, mp, 1)
	require.Len(t, mp[0], 2)
	assert.Equal(t, orb.CCW, mp[0][0].Orientation())
	assert.Equal(t, orb.CW, mp[0][1].Orientation())
	assert.Len(t, mp[0][0], 5, "straight runs collapse to corners")
	assert.InDelta(t, 800.0, planar.Area(mp), 1e-9)
}

func TestPolygonize_IslandInHole(t *testing.T) {
	g, mask := gridFromRows(
		"#####",
		"#...#",
		"#.#.#",
		"#...#",
		"#####",
	)

	mp := g.Polygonize(mask)

	require.Len(t, mp, 2)
	assert.InDelta(t, 1700.0, planar.Area(mp), 1e-9)
}

func TestPolygonize_Empty(t *testing.T) {
	g, mask := gridFromRows("..", "..")
	assert.Nil(t, g.Polygonize(mask))
}

func TestNewGrid(t *testing.T) {
	g := NewGrid(orb.Bound{Min: orb.Point{12, 7}, Max: orb.Point{95, 40}}, 10, 10)

	assert.Equal(t, orb.Point{0, -10}, g.Origin)
	assert.GreaterOrEqual(t, g.Origin[0]+float64(g.Cols)*g.CellSize, 105.0)
	assert.GreaterOrEqual(t, g.Origin[1]+float64(g.Rows)*g.CellSize, 50.0)
	assert.False(t, g.Reached())
	assert.True(t, math.IsInf(g.At(-1, 0), 1))
}

func TestBurnSegment(t *testing.T) {
	g := NewGrid(orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{100, 0}}, 10, 20)

	g.BurnSegment(orb.Point{0, 0}, orb.Point{100, 0}, 0, 30, 100, 10)

	require.True(t, g.Reached())
	row := int((0 - g.Origin[1]) / g.CellSize)

	// Centre (55,5): nearest samples at x=50,55,60 reached from the start.
	assert.InDelta(t, 50.0, g.At(int((55-g.Origin[0])/g.CellSize), row), 1e-9)
	// Centre (95,5): cheaper to come back from the far end.
	assert.InDelta(t, 30.0, g.At(int((95-g.Origin[0])/g.CellSize), row), 1e-9)

	mask := g.Mask(20)
	n := 0
	for _, m := range mask {
		if m {
			n++
		}
	}
	assert.Greater(t, n, 0)
}
