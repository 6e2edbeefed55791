package ports

import (
	"context"
	"servicearea-service/internal/domain"

	"github.com/paulmach/orb"
)

// Inputs for one cost-distance run. Distances are in projected network
// units (meters); Interval is one tier and MaxDistance the outermost tier.
type IsochroneRequest struct {
	Seeds       []domain.SeedPoint
	Network     orb.MultiLineString
	Interval    float64
	MaxDistance float64
	CellSize    float64
	SpeedMPH    float64
	Strategy    domain.Strategy

	// Optional lon/lat conversions for engines that work in WGS84.
	ToWGS84   orb.Projection
	FromWGS84 orb.Projection
}

// Levels is the number of interval bands requested.
func (r IsochroneRequest) Levels() int {
	if r.Interval <= 0 {
		return 0
	}
	return int(r.MaxDistance/r.Interval + 1e-9)
}

// Contract for computing iso-cost bands outward from seed points.
type IsochroneEngine interface {
	// Return one polygon per reachable (seed, interval) pair. Seeds that
	// cannot reach the network produce nothing.
	Isochrones(ctx context.Context, req IsochroneRequest) ([]domain.IsochronePolygon, error)
}
