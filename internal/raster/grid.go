// Package raster holds the accumulated-cost grid used to turn network
// distances into iso-cost polygons.
package raster

import (
	"math"

	"github.com/paulmach/orb"
)

// Grid is a row-major cost raster. Row 0 is the southernmost row and cell
// (col, row) covers [Origin.x+col*CellSize, Origin.x+(col+1)*CellSize) on x.
// Unreached cells hold +Inf.
type Grid struct {
	Origin   orb.Point
	CellSize float64
	Cols     int
	Rows     int
	Cost     []float64
}

// NewGrid covers b padded by pad on every side, aligned to cellSize.
func NewGrid(b orb.Bound, cellSize, pad float64) *Grid {
	b = b.Pad(pad)
	origin := orb.Point{
		math.Floor(b.Min[0]/cellSize) * cellSize,
		math.Floor(b.Min[1]/cellSize) * cellSize,
	}
	cols := int(math.Ceil((b.Max[0]-origin[0])/cellSize)) + 1
	rows := int(math.Ceil((b.Max[1]-origin[1])/cellSize)) + 1

	cost := make([]float64, cols*rows)
	for i := range cost {
		cost[i] = math.Inf(1)
	}
	return &Grid{Origin: origin, CellSize: cellSize, Cols: cols, Rows: rows, Cost: cost}
}

func (g *Grid) index(col, row int) int { return row*g.Cols + col }

// At returns the cost of a cell, +Inf outside the grid.
func (g *Grid) At(col, row int) float64 {
	if col < 0 || row < 0 || col >= g.Cols || row >= g.Rows {
		return math.Inf(1)
	}
	return g.Cost[g.index(col, row)]
}

// CellCenter returns the centre of cell (col, row).
func (g *Grid) CellCenter(col, row int) orb.Point {
	return orb.Point{
		g.Origin[0] + (float64(col)+0.5)*g.CellSize,
		g.Origin[1] + (float64(row)+0.5)*g.CellSize,
	}
}

// Burn lowers every cell whose centre lies within radius of p to cost.
func (g *Grid) Burn(p orb.Point, cost, radius float64) {
	c0 := int(math.Floor((p[0] - radius - g.Origin[0]) / g.CellSize))
	c1 := int(math.Floor((p[0] + radius - g.Origin[0]) / g.CellSize))
	r0 := int(math.Floor((p[1] - radius - g.Origin[1]) / g.CellSize))
	r1 := int(math.Floor((p[1] + radius - g.Origin[1]) / g.CellSize))

	r2 := radius * radius
	for row := max(r0, 0); row <= min(r1, g.Rows-1); row++ {
		for col := max(c0, 0); col <= min(c1, g.Cols-1); col++ {
			c := g.CellCenter(col, row)
			dx, dy := c[0]-p[0], c[1]-p[1]
			if dx*dx+dy*dy > r2 {
				continue
			}
			if i := g.index(col, row); cost < g.Cost[i] {
				g.Cost[i] = cost
			}
		}
	}
}

// BurnSegment samples segment ab every half cell. The cost at fraction s
// along the segment is min(costA+s*L, costB+(1-s)*L) for length L, so cost
// flows in from whichever end is cheaper.
func (g *Grid) BurnSegment(a, b orb.Point, costA, costB, length, radius float64) {
	d := math.Hypot(b[0]-a[0], b[1]-a[1])
	n := max(1, int(math.Ceil(d/(g.CellSize/2))))
	for i := 0; i <= n; i++ {
		s := float64(i) / float64(n)
		p := orb.Point{a[0] + s*(b[0]-a[0]), a[1] + s*(b[1]-a[1])}
		g.Burn(p, math.Min(costA+s*length, costB+(1-s)*length), radius)
	}
}

// Mask marks the cells whose cost is at most limit.
func (g *Grid) Mask(limit float64) []bool {
	m := make([]bool, len(g.Cost))
	for i, c := range g.Cost {
		m[i] = c <= limit
	}
	return m
}

// Reached reports whether any cell has a finite cost.
func (g *Grid) Reached() bool {
	for _, c := range g.Cost {
		if !math.IsInf(c, 1) {
			return true
		}
	}
	return false
}
