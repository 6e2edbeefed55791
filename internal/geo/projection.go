package geo

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

// LocalProjection is an equirectangular projection centred on an origin.
// It is accurate to well under a percent over the extent of a single
// service area run, which is all the pipeline needs for meter math on
// WGS84 input.
type LocalProjection struct {
	Origin orb.Point
	cosLat float64
}

// NewLocalProjection centres a projection on the middle of b.
func NewLocalProjection(b orb.Bound) LocalProjection {
	c := b.Center()
	return LocalProjection{Origin: c, cosLat: math.Cos(c[1] * math.Pi / 180)}
}

// ToPlane maps lon/lat degrees to meters east/north of the origin.
func (lp LocalProjection) ToPlane(p orb.Point) orb.Point {
	return orb.Point{
		orb.EarthRadius * (p[0] - lp.Origin[0]) * math.Pi / 180 * lp.cosLat,
		orb.EarthRadius * (p[1] - lp.Origin[1]) * math.Pi / 180,
	}
}

// ToWGS84 is the inverse of ToPlane.
func (lp LocalProjection) ToWGS84(p orb.Point) orb.Point {
	return orb.Point{
		lp.Origin[0] + p[0]/(orb.EarthRadius*lp.cosLat)*180/math.Pi,
		lp.Origin[1] + p[1]/orb.EarthRadius*180/math.Pi,
	}
}

// Forward returns a projected copy of g.
func (lp LocalProjection) Forward(g orb.Geometry) orb.Geometry {
	if g == nil {
		return nil
	}
	return project.Geometry(orb.Clone(g), lp.ToPlane)
}

// Inverse returns a lon/lat copy of projected g.
func (lp LocalProjection) Inverse(g orb.Geometry) orb.Geometry {
	if g == nil {
		return nil
	}
	return project.Geometry(orb.Clone(g), lp.ToWGS84)
}
