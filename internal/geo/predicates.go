package geo

import (
	"github.com/paulmach/orb"

	"servicearea-service/internal/overlay"
)

// Intersects reports whether polygon p and geometry g share at least one
// point. Boundaries count.
func Intersects(p orb.Polygon, g orb.Geometry) bool {
	if len(p) == 0 || len(p[0]) == 0 {
		return false
	}
	return overlay.Intersects(p, g)
}

// IntersectsAny reports whether p intersects any of the geometries.
func IntersectsAny(p orb.Polygon, geoms []orb.Geometry) bool {
	for _, g := range geoms {
		if Intersects(p, g) {
			return true
		}
	}
	return false
}
