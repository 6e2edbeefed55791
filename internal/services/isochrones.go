package services

import (
	"context"
	"fmt"
	"servicearea-service/internal/domain"
	"servicearea-service/internal/platform/obs"
	"servicearea-service/internal/ports"

	"github.com/paulmach/orb"
)

type IsochroneSettings struct {
	Params   domain.Params
	Strategy domain.Strategy

	// Set when the network was projected from WGS84.
	ToWGS84   orb.Projection
	FromWGS84 orb.Projection
}

// ComputeIsochrones sets up the cost-distance run: one tier of distance per
// interval, all tiers as the cut-off, travel in both directions. No seeds
// means no isochrones.
func ComputeIsochrones(
	ctx context.Context,
	engine ports.IsochroneEngine,
	seeds []domain.SeedPoint,
	clipped domain.RoadNetwork,
	settings IsochroneSettings,
) (_ []domain.IsochronePolygon, err error) {
	defer obs.Time(ctx, "stage.isochrones")(&err)

	if len(seeds) == 0 {
		return []domain.IsochronePolygon{}, nil
	}

	p := settings.Params
	req := ports.IsochroneRequest{
		Seeds:       seeds,
		Network:     NetworkLines(clipped),
		Interval:    p.IntervalMeters(),
		MaxDistance: p.MaxDistanceMeters(),
		CellSize:    float64(p.CellSize),
		SpeedMPH:    float64(p.AvgSpeed),
		Strategy:    settings.Strategy,
		ToWGS84:     settings.ToWGS84,
		FromWGS84:   settings.FromWGS84,
	}

	polys, err := engine.Isochrones(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("compute isochrones: seeds=%d: %w", len(seeds), err)
	}
	return polys, nil
}
