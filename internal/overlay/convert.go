package overlay

import (
	"github.com/paulmach/orb"
	"github.com/peterstace/simplefeatures/geom"
)

// toGeom converts orb geometry into simplefeatures geometry. Linestrings
// with fewer than two points and rings with fewer than four are dropped.
func toGeom(g orb.Geometry) geom.Geometry {
	switch g := g.(type) {
	case orb.Point:
		return point(g).AsGeometry()
	case orb.MultiPoint:
		pts := make([]geom.Point, len(g))
		for i, p := range g {
			pts[i] = point(p)
		}
		return geom.NewMultiPoint(pts).AsGeometry()
	case orb.LineString:
		return lineString(g).AsGeometry()
	case orb.MultiLineString:
		lines := make([]geom.LineString, 0, len(g))
		for _, ls := range g {
			if len(ls) >= 2 {
				lines = append(lines, lineString(ls))
			}
		}
		return geom.NewMultiLineString(lines).AsGeometry()
	case orb.Ring:
		return polygon(orb.Polygon{g}).AsGeometry()
	case orb.Polygon:
		return polygon(g).AsGeometry()
	case orb.MultiPolygon:
		polys := make([]geom.Polygon, 0, len(g))
		for _, p := range g {
			if gp := polygon(p); !gp.IsEmpty() {
				polys = append(polys, gp)
			}
		}
		return geom.NewMultiPolygon(polys).AsGeometry()
	case orb.Bound:
		return polygon(g.ToPolygon()).AsGeometry()
	case orb.Collection:
		parts := make([]geom.Geometry, len(g))
		for i, c := range g {
			parts[i] = toGeom(c)
		}
		return geom.NewGeometryCollection(parts).AsGeometry()
	}
	return geom.Geometry{}
}

// collection lays every polygon of every input out as its own member, so
// overlapping inputs stay valid until they are unioned.
func collection(polys []orb.MultiPolygon) geom.Geometry {
	var parts []geom.Geometry
	for _, mp := range polys {
		for _, p := range mp {
			if gp := polygon(p); !gp.IsEmpty() {
				parts = append(parts, gp.AsGeometry())
			}
		}
	}
	return geom.NewGeometryCollection(parts).AsGeometry()
}

func point(p orb.Point) geom.Point {
	return geom.NewPoint(geom.Coordinates{XY: geom.XY{X: p[0], Y: p[1]}, Type: geom.DimXY})
}

func sequence(pts []orb.Point) geom.Sequence {
	flat := make([]float64, 0, 2*len(pts))
	for _, p := range pts {
		flat = append(flat, p[0], p[1])
	}
	return geom.NewSequence(flat, geom.DimXY)
}

func lineString(ls orb.LineString) geom.LineString {
	if len(ls) < 2 {
		return geom.LineString{}
	}
	return geom.NewLineString(sequence(ls))
}

func polygon(p orb.Polygon) geom.Polygon {
	rings := make([]geom.LineString, 0, len(p))
	for i, r := range p {
		if len(r) > 0 && r[0] != r[len(r)-1] {
			r = append(r.Clone(), r[0])
		}
		if len(r) < 4 {
			if i == 0 {
				return geom.Polygon{}
			}
			continue
		}
		rings = append(rings, geom.NewLineString(sequence(r)))
	}
	return geom.NewPolygon(rings)
}

// fromGeom keeps the polygonal parts of g. Shells come back
// counter-clockwise and holes clockwise.
func fromGeom(g geom.Geometry) orb.MultiPolygon {
	var out orb.MultiPolygon
	for _, part := range g.Dump() {
		p, ok := part.AsPolygon()
		if !ok || p.IsEmpty() {
			continue
		}
		rings := p.ForceCCW().DumpRings()
		poly := make(orb.Polygon, len(rings))
		for i, r := range rings {
			seq := r.Coordinates()
			ring := make(orb.Ring, seq.Length())
			for j := range ring {
				xy := seq.GetXY(j)
				ring[j] = orb.Point{xy.X, xy.Y}
			}
			poly[i] = ring
		}
		out = append(out, poly)
	}
	return out
}
