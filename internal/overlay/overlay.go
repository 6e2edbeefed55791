// Package overlay runs the polygon set operations the pipeline needs
// (unions, keyed dissolves and self-intersection pieces) on simplefeatures'
// geom package. Callers pass and receive orb geometry.
package overlay

import (
	"fmt"
	"slices"

	"github.com/paulmach/orb"
	"github.com/peterstace/simplefeatures/geom"
)

// Piece is a maximal region covered by exactly the Members inputs.
type Piece struct {
	Members  []int
	Geometry orb.MultiPolygon
}

// Union merges every input into one dissolved multipolygon.
func Union(polys []orb.MultiPolygon) (orb.MultiPolygon, error) {
	if len(polys) == 0 {
		return nil, nil
	}
	g, err := geom.UnaryUnion(collection(polys))
	if err != nil {
		return nil, fmt.Errorf("union: inputs=%d: %w", len(polys), err)
	}
	return fromGeom(g), nil
}

// Dissolve unions the inputs sharing a key. Groups come back in the order
// their key first appears in keys.
func Dissolve(polys []orb.MultiPolygon, keys []string) ([]string, []orb.MultiPolygon, error) {
	var order []string
	groups := make(map[string][]orb.MultiPolygon)
	for i, k := range keys {
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], polys[i])
	}

	out := make([]orb.MultiPolygon, len(order))
	for i, k := range order {
		u, err := Union(groups[k])
		if err != nil {
			return nil, nil, fmt.Errorf("dissolve: key=%s: %w", k, err)
		}
		out[i] = u
	}
	return order, out, nil
}

type piece struct {
	members []int
	g       geom.Geometry
}

// SelfIntersection splits the overlapping inputs into disjoint pieces, one
// per distinct set of covering inputs. Members list input indexes in
// ascending order.
//
// Inputs are added one at a time. Every existing piece the new input
// overlaps is split into the part inside it (which gains the input as a
// member) and the part outside it, and whatever the input covers beyond the
// running union becomes a piece of its own.
func SelfIntersection(polys []orb.MultiPolygon) ([]Piece, error) {
	var pieces []piece
	var covered geom.Geometry

	for i, mp := range polys {
		p, err := geom.UnaryUnion(collection([]orb.MultiPolygon{mp}))
		if err != nil {
			return nil, fmt.Errorf("self intersection: input=%d: %w", i, err)
		}
		if p.IsEmpty() {
			continue
		}
		env := p.Envelope()

		next := make([]piece, 0, len(pieces)+1)
		for _, q := range pieces {
			if !env.Intersects(q.g.Envelope()) {
				next = append(next, q)
				continue
			}
			outside, err := geom.Difference(q.g, p)
			if err != nil {
				return nil, fmt.Errorf("self intersection: input=%d: %w", i, err)
			}
			inside, err := geom.Intersection(q.g, p)
			if err != nil {
				return nil, fmt.Errorf("self intersection: input=%d: %w", i, err)
			}
			next = appendPiece(next, q.members, outside)
			next = appendPiece(next, append(slices.Clone(q.members), i), inside)
		}

		fresh, err := geom.Difference(p, covered)
		if err != nil {
			return nil, fmt.Errorf("self intersection: input=%d: %w", i, err)
		}
		next = appendPiece(next, []int{i}, fresh)

		if covered, err = geom.Union(covered, p); err != nil {
			return nil, fmt.Errorf("self intersection: input=%d: %w", i, err)
		}
		pieces = next
	}

	out := make([]Piece, len(pieces))
	for i, pc := range pieces {
		out[i] = Piece{Members: pc.members, Geometry: fromGeom(pc.g)}
	}
	return out, nil
}

// appendPiece keeps only the areal part of g. Set operations between
// neighbours leave shared edges and corners behind as lines and points.
func appendPiece(pieces []piece, members []int, g geom.Geometry) []piece {
	var polys []geom.Polygon
	for _, part := range g.Dump() {
		if p, ok := part.AsPolygon(); ok && p.Area() > 0 {
			polys = append(polys, p)
		}
	}
	if len(polys) == 0 {
		return pieces
	}
	return append(pieces, piece{members: members, g: geom.NewMultiPolygon(polys).AsGeometry()})
}

// Intersects reports whether a and b share at least one point. Boundaries
// count.
func Intersects(a, b orb.Geometry) bool {
	if a == nil || b == nil {
		return false
	}
	if !a.Bound().Intersects(b.Bound()) {
		return false
	}
	return geom.Intersects(toGeom(a), toGeom(b))
}
