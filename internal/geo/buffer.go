// Package geo holds the planar primitives the service area pipeline is
// built from. All functions operate in a projected, length-accurate plane.
package geo

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"

	"servicearea-service/internal/overlay"
)

// QuadrantSegments is the number of segments approximating a quarter circle
// in round caps and joins.
const QuadrantSegments = 5

// Buffer returns the dissolved round-cap, round-join buffer of geoms at
// distance d. Empty input yields an empty multipolygon.
func Buffer(geoms []orb.Geometry, d float64, quadSegs int) (orb.MultiPolygon, error) {
	if quadSegs < 1 {
		quadSegs = QuadrantSegments
	}

	var parts []orb.MultiPolygon
	for _, g := range geoms {
		parts = appendBufferParts(parts, g, d, quadSegs)
	}
	if len(parts) == 0 {
		return orb.MultiPolygon{}, nil
	}

	out, err := overlay.Union(parts)
	if err != nil {
		return nil, fmt.Errorf("buffer: distance=%v: %w", d, err)
	}
	return out, nil
}

// BufferPoint returns a circle of radius r around p. It is not dissolved
// with anything.
func BufferPoint(p orb.Point, r float64, quadSegs int) orb.Polygon {
	if quadSegs < 1 {
		quadSegs = QuadrantSegments
	}
	n := 4 * quadSegs
	ring := make(orb.Ring, 0, n+1)
	for i := 0; i < n; i++ {
		a := 2 * math.Pi * float64(i) / float64(n)
		ring = append(ring, orb.Point{p[0] + r*math.Cos(a), p[1] + r*math.Sin(a)})
	}
	return orb.Polygon{append(ring, ring[0])}
}

func appendBufferParts(parts []orb.MultiPolygon, g orb.Geometry, d float64, q int) []orb.MultiPolygon {
	switch g := g.(type) {
	case nil:
	case orb.Point:
		if d > 0 {
			parts = append(parts, orb.MultiPolygon{BufferPoint(g, d, q)})
		}
	case orb.MultiPoint:
		for _, p := range g {
			parts = appendBufferParts(parts, p, d, q)
		}
	case orb.LineString:
		parts = appendLineParts(parts, g, d, q)
	case orb.MultiLineString:
		for _, ls := range g {
			parts = appendLineParts(parts, ls, d, q)
		}
	case orb.Ring:
		parts = appendBufferParts(parts, orb.Polygon{g}, d, q)
	case orb.Polygon:
		parts = append(parts, orb.MultiPolygon{g})
		for _, r := range g {
			parts = appendLineParts(parts, orb.LineString(r), d, q)
		}
	case orb.MultiPolygon:
		for _, p := range g {
			parts = appendBufferParts(parts, p, d, q)
		}
	case orb.Bound:
		parts = appendBufferParts(parts, g.ToPolygon(), d, q)
	case orb.Collection:
		for _, c := range g {
			parts = appendBufferParts(parts, c, d, q)
		}
	}
	return parts
}

func appendLineParts(parts []orb.MultiPolygon, ls orb.LineString, d float64, q int) []orb.MultiPolygon {
	if d <= 0 || len(ls) == 0 {
		return parts
	}
	if len(ls) == 1 {
		return append(parts, orb.MultiPolygon{BufferPoint(ls[0], d, q)})
	}
	for i := 0; i < len(ls)-1; i++ {
		if ls[i] == ls[i+1] {
			continue
		}
		parts = append(parts, orb.MultiPolygon{capsule(ls[i], ls[i+1], d, q)})
	}
	return parts
}

// capsule is the stadium shape around segment ab. Adjacent capsules overlap
// on full circles at the shared vertex, which produces round joins once
// unioned.
func capsule(a, b orb.Point, r float64, q int) orb.Polygon {
	theta := math.Atan2(b[1]-a[1], b[0]-a[0])
	steps := 2 * q

	ring := make(orb.Ring, 0, 2*steps+3)
	arc := func(c orb.Point, start float64) {
		for i := 0; i <= steps; i++ {
			t := start + math.Pi*float64(i)/float64(steps)
			ring = append(ring, orb.Point{c[0] + r*math.Cos(t), c[1] + r*math.Sin(t)})
		}
	}
	arc(b, theta-math.Pi/2)
	arc(a, theta+math.Pi/2)

	return orb.Polygon{append(ring, ring[0])}
}
