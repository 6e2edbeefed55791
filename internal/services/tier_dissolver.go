package services

import (
	"cmp"
	"context"
	"servicearea-service/internal/domain"
	"servicearea-service/internal/overlay"
	"servicearea-service/internal/platform/obs"
	"slices"
	"strconv"

	"github.com/paulmach/orb"
)

const unlabeledKey = "null"

// DissolveTiers unions the regions of each tier into one service area.
// Unlabeled regions form a single group of their own. Areas come back by
// ascending tier number with the unlabeled group last.
func DissolveTiers(
	ctx context.Context,
	regions []domain.ResolvedRegion,
) (_ []domain.ServiceArea, err error) {
	defer obs.Time(ctx, "stage.dissolve")(&err)

	if len(regions) == 0 {
		return []domain.ServiceArea{}, nil
	}

	geoms := make([]orb.MultiPolygon, len(regions))
	keys := make([]string, len(regions))
	tiers := make(map[string]*domain.TierSpec)
	for i, r := range regions {
		geoms[i] = r.Geometry
		keys[i] = unlabeledKey
		if r.Tier != nil {
			keys[i] = strconv.Itoa(r.Tier.TierNum)
		}
		if _, ok := tiers[keys[i]]; !ok {
			tiers[keys[i]] = r.Tier
		}
	}

	order, dissolved, err := overlay.Dissolve(geoms, keys)
	if err != nil {
		return nil, err
	}

	areas := make([]domain.ServiceArea, 0, len(order))
	for i, k := range order {
		if len(dissolved[i]) == 0 {
			continue
		}
		areas = append(areas, domain.ServiceArea{Geometry: dissolved[i], Tier: tiers[k]})
	}

	slices.SortStableFunc(areas, func(a, b domain.ServiceArea) int {
		an, aok := a.TierNum()
		bn, bok := b.TierNum()
		switch {
		case aok && bok:
			return cmp.Compare(an, bn)
		case aok:
			return -1
		case bok:
			return 1
		}
		return 0
	})

	return areas, nil
}
