package raster

import (
	"github.com/paulmach/orb"
)

type lattice struct{ x, y int }

type edge struct{ from, to lattice }

// Polygonize converts the true cells of mask into polygons. Cells that only
// touch diagonally end up in separate polygons. Shells are counter-clockwise
// and holes clockwise.
func (g *Grid) Polygonize(mask []bool) orb.MultiPolygon {
	in := func(col, row int) bool {
		if col < 0 || row < 0 || col >= g.Cols || row >= g.Rows {
			return false
		}
		return mask[g.index(col, row)]
	}

	labels, count := g.components(mask)
	if count == 0 {
		return nil
	}

	out := make(map[lattice][]edge)
	var starts []edge
	add := func(e edge) {
		out[e.from] = append(out[e.from], e)
		starts = append(starts, e)
	}
	for row := 0; row < g.Rows; row++ {
		for col := 0; col < g.Cols; col++ {
			if !in(col, row) {
				continue
			}
			if !in(col, row-1) {
				add(edge{lattice{col, row}, lattice{col + 1, row}})
			}
			if !in(col+1, row) {
				add(edge{lattice{col + 1, row}, lattice{col + 1, row + 1}})
			}
			if !in(col, row+1) {
				add(edge{lattice{col + 1, row + 1}, lattice{col, row + 1}})
			}
			if !in(col-1, row) {
				add(edge{lattice{col, row + 1}, lattice{col, row}})
			}
		}
	}

	shells := make([]orb.Ring, count)
	holes := make([][]orb.Ring, count)
	used := make(map[edge]bool, len(starts))
	for _, e0 := range starts {
		if used[e0] {
			continue
		}

		var verts []lattice
		for e := e0; !used[e]; e = nextEdge(e, out[e.to]) {
			used[e] = true
			verts = append(verts, e.from)
		}

		label := labels[g.index(leftCell(e0))]
		ring := g.ringCoords(dropStraight(verts))
		if latticeArea(verts) > 0 {
			shells[label] = ring
		} else {
			holes[label] = append(holes[label], ring)
		}
	}

	mp := make(orb.MultiPolygon, 0, count)
	for i, shell := range shells {
		if shell == nil {
			continue
		}
		poly := orb.Polygon{shell}
		mp = append(mp, append(poly, holes[i]...))
	}
	return mp
}

// nextEdge continues a ring. At a saddle vertex the left turn is taken so
// the ring keeps hugging the cell it started on.
func nextEdge(in edge, candidates []edge) edge {
	if len(candidates) == 1 {
		return candidates[0]
	}
	dx, dy := in.to.x-in.from.x, in.to.y-in.from.y
	for _, c := range candidates {
		cx, cy := c.to.x-c.from.x, c.to.y-c.from.y
		if dx*cy-dy*cx > 0 {
			return c
		}
	}
	return candidates[0]
}

// leftCell returns the cell on the left of a boundary edge.
func leftCell(e edge) (int, int) {
	switch {
	case e.to.x > e.from.x:
		return e.from.x, e.from.y
	case e.to.y > e.from.y:
		return e.from.x - 1, e.from.y
	case e.to.x < e.from.x:
		return e.to.x, e.to.y - 1
	default:
		return e.from.x, e.to.y
	}
}

func (g *Grid) components(mask []bool) ([]int, int) {
	labels := make([]int, len(mask))
	for i := range labels {
		labels[i] = -1
	}

	count := 0
	for start := range mask {
		if !mask[start] || labels[start] >= 0 {
			continue
		}
		labels[start] = count
		stack := []int{start}
		for len(stack) > 0 {
			i := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			col, row := i%g.Cols, i/g.Cols
			for _, n := range [4][2]int{{col - 1, row}, {col + 1, row}, {col, row - 1}, {col, row + 1}} {
				if n[0] < 0 || n[1] < 0 || n[0] >= g.Cols || n[1] >= g.Rows {
					continue
				}
				j := g.index(n[0], n[1])
				if mask[j] && labels[j] < 0 {
					labels[j] = count
					stack = append(stack, j)
				}
			}
		}
		count++
	}
	return labels, count
}

func dropStraight(verts []lattice) []lattice {
	n := len(verts)
	out := make([]lattice, 0, n)
	for i, v := range verts {
		p, q := verts[(i-1+n)%n], verts[(i+1)%n]
		if (v.x-p.x)*(q.y-v.y)-(v.y-p.y)*(q.x-v.x) == 0 {
			continue
		}
		out = append(out, v)
	}
	return out
}

func latticeArea(verts []lattice) int {
	sum := 0
	for i, v := range verts {
		w := verts[(i+1)%len(verts)]
		sum += v.x*w.y - w.x*v.y
	}
	return sum
}

func (g *Grid) ringCoords(verts []lattice) orb.Ring {
	r := make(orb.Ring, 0, len(verts)+1)
	for _, v := range verts {
		r = append(r, orb.Point{
			g.Origin[0] + float64(v.x)*g.CellSize,
			g.Origin[1] + float64(v.y)*g.CellSize,
		})
	}
	return append(r, r[0])
}
