package services

import (
	"context"
	"servicearea-service/internal/domain"
	"servicearea-service/internal/overlay"
	"servicearea-service/internal/platform/obs"

	"github.com/paulmach/orb"
)

// SelfIntersect splits the overlapping isochrones into disjoint regions.
// Each region's identifier lists the cost level of every isochrone covering
// it, in isochrone order, so a level repeats once per covering seed.
func SelfIntersect(
	ctx context.Context,
	isochrones []domain.IsochronePolygon,
) (_ []domain.SelfIntersectionRegion, err error) {
	defer obs.Time(ctx, "stage.self_intersect")(&err)

	if len(isochrones) == 0 {
		return []domain.SelfIntersectionRegion{}, nil
	}

	geoms := make([]orb.MultiPolygon, len(isochrones))
	for i, iso := range isochrones {
		geoms[i] = iso.Geometry
	}

	pieces, err := overlay.SelfIntersection(geoms)
	if err != nil {
		return nil, err
	}
	regions := make([]domain.SelfIntersectionRegion, 0, len(pieces))
	for _, piece := range pieces {
		levels := make(domain.CoverageID, len(piece.Members))
		for i, m := range piece.Members {
			levels[i] = isochrones[m].CostLevel
		}
		regions = append(regions, domain.SelfIntersectionRegion{
			Identifier: levels.String(),
			Geometry:   piece.Geometry,
		})
	}
	return regions, nil
}

// ResolveTiers labels each region with the tier at index
// min(cost levels)+indexBase. Regions whose identifier does not parse, or
// whose index has no tier, are kept unlabeled. FIDs follow input order
// starting at 0. The input is not modified.
func ResolveTiers(
	regions []domain.SelfIntersectionRegion,
	specs []domain.TierSpec,
	indexBase int,
) []domain.ResolvedRegion {
	out := make([]domain.ResolvedRegion, len(regions))
	for i, r := range regions {
		out[i] = domain.ResolvedRegion{FID: i, Geometry: r.Geometry}

		cov, err := r.Coverage()
		if err != nil {
			continue
		}
		lowest, ok := cov.Min()
		if !ok {
			continue
		}
		if spec, ok := domain.TierByIndex(specs, lowest+indexBase); ok {
			out[i].Tier = &spec
		}
	}
	return out
}
