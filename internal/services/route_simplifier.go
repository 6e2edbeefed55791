package services

import (
	"context"
	"servicearea-service/internal/domain"
	"servicearea-service/internal/geo"
	"servicearea-service/internal/platform/obs"

	"github.com/paulmach/orb"
)

// JunctionRadius is the tolerance, in network units, within which a road
// junction counts as lying on the sketch.
const JunctionRadius = 50.0

// SimplifyRoute reduces the sketch to seed points anchored at road
// junctions near the drawn route:
//
//  1. merge the clipped network into maximal lines and explode them,
//  2. collect the junctions between the pieces, or the ends of a piece
//     that meets no other,
//  3. keep junctions whose JunctionRadius buffer intersects the sketch,
//  4. collapse the kept buffers to unique centroids numbered from 0.
//
// An empty or disjoint sketch gives no seeds.
func SimplifyRoute(
	ctx context.Context,
	sketch domain.RouteSketch,
	clipped domain.RoadNetwork,
) (_ []domain.SeedPoint, err error) {
	defer obs.Time(ctx, "stage.simplify")(&err)

	sketchGeoms := domain.Geometries(sketch)
	if len(sketchGeoms) == 0 || len(clipped) == 0 {
		return []domain.SeedPoint{}, nil
	}

	pieces := geo.MergeLines(NetworkLines(clipped))
	junctions := geo.LineIntersections(pieces)

	centroids := make([]orb.Point, 0, len(junctions))
	for _, p := range junctions {
		buf := geo.BufferPoint(p, JunctionRadius, geo.QuadrantSegments)
		if !geo.IntersectsAny(buf, sketchGeoms) {
			continue
		}
		centroids = append(centroids, geo.Centroid(buf))
	}

	points := geo.ExplodePoints(geo.DissolvePoints(centroids))

	seeds := make([]domain.SeedPoint, len(points))
	for i, p := range points {
		seeds[i] = domain.SeedPoint{ID: i, Point: p}
	}
	return seeds, nil
}
