// Package network builds an undirected road graph from line geometry and
// computes raster cost-distance isochrones over it.
package network

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Vertices closer than this are treated as the same node.
const snapTolerance = 1e-6

type Edge struct {
	To     int
	Length float64
}

// Segment is one straight piece of the input network between two nodes.
type Segment struct {
	U, V   int
	Length float64
}

// Graph has a node at every distinct vertex of the input lines and an edge
// between consecutive vertices. Lines that share a vertex are connected.
type Graph struct {
	Nodes    []orb.Point
	Adj      [][]Edge
	Segments []Segment

	index map[[2]int64]int
}

func NewGraph(lines orb.MultiLineString) *Graph {
	g := &Graph{index: make(map[[2]int64]int)}
	for _, ls := range lines {
		for i := 0; i < len(ls)-1; i++ {
			u, v := g.node(ls[i]), g.node(ls[i+1])
			if u == v {
				continue
			}
			l := planar.Distance(g.Nodes[u], g.Nodes[v])
			g.Adj[u] = append(g.Adj[u], Edge{To: v, Length: l})
			g.Adj[v] = append(g.Adj[v], Edge{To: u, Length: l})
			g.Segments = append(g.Segments, Segment{U: u, V: v, Length: l})
		}
	}
	return g
}

func (g *Graph) node(p orb.Point) int {
	k := [2]int64{int64(math.Round(p[0] / snapTolerance)), int64(math.Round(p[1] / snapTolerance))}
	if i, ok := g.index[k]; ok {
		return i
	}
	i := len(g.Nodes)
	g.Nodes = append(g.Nodes, p)
	g.Adj = append(g.Adj, nil)
	g.index[k] = i
	return i
}

// Snap is the attachment of a point to the closest network segment.
type Snap struct {
	Segment  int
	T        float64 // fraction along the segment from U to V
	Point    orb.Point
	Distance float64
}

// Nearest finds the closest point on the network to p. ok is false for an
// empty graph.
func (g *Graph) Nearest(p orb.Point) (Snap, bool) {
	best := Snap{Segment: -1, Distance: math.Inf(1)}
	for i, s := range g.Segments {
		a, b := g.Nodes[s.U], g.Nodes[s.V]
		dx, dy := b[0]-a[0], b[1]-a[1]
		t := ((p[0]-a[0])*dx + (p[1]-a[1])*dy) / (dx*dx + dy*dy)
		t = math.Max(0, math.Min(1, t))
		q := orb.Point{a[0] + t*dx, a[1] + t*dy}
		if d := planar.Distance(p, q); d < best.Distance {
			best = Snap{Segment: i, T: t, Point: q, Distance: d}
		}
	}
	return best, best.Segment >= 0
}
