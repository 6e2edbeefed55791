package services

import (
	"context"
	"maps"
	"servicearea-service/internal/domain"
	"servicearea-service/internal/geo"
	"servicearea-service/internal/platform/obs"

	"github.com/paulmach/orb"
)

// ClipNetwork keeps the road edges that intersect the buffer, cut to the
// buffer. Each surviving edge keeps its own attributes; an edge that leaves
// and re-enters the buffer becomes one multi-part feature.
func ClipNetwork(
	ctx context.Context,
	network domain.RoadNetwork,
	buffer orb.MultiPolygon,
) (_ domain.RoadNetwork, err error) {
	defer obs.Time(ctx, "stage.clip")(&err)

	if len(buffer) == 0 {
		return domain.RoadNetwork{}, nil
	}

	out := make(domain.RoadNetwork, 0, len(network))
	for _, f := range network {
		parts := geo.ClipLines(f.Geometry, buffer)
		if len(parts) == 0 {
			continue
		}

		var g orb.Geometry = parts
		if len(parts) == 1 {
			g = parts[0]
		}
		out = append(out, domain.Feature{Geometry: g, Attributes: maps.Clone(f.Attributes)})
	}

	return out, nil
}

// NetworkLines flattens a network into single-part lines.
func NetworkLines(network domain.RoadNetwork) orb.MultiLineString {
	var out orb.MultiLineString
	for _, f := range network {
		out = append(out, geo.Lines(f.Geometry)...)
	}
	return out
}
