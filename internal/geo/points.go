package geo

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Centroid returns the area-weighted centroid of g, or its length- or
// point-weighted centroid for lower dimensional geometry.
func Centroid(g orb.Geometry) orb.Point {
	c, _ := planar.CentroidArea(g)
	return c
}

// DissolvePoints merges the points into one multipoint, dropping exact
// duplicates and keeping first-seen order.
func DissolvePoints(pts []orb.Point) orb.MultiPoint {
	seen := make(map[orb.Point]bool, len(pts))
	out := make(orb.MultiPoint, 0, len(pts))
	for _, p := range pts {
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

// ExplodePoints splits a multipoint back into single points.
func ExplodePoints(mp orb.MultiPoint) []orb.Point {
	return append([]orb.Point(nil), mp...)
}
