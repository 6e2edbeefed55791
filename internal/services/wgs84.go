package services

import (
	"servicearea-service/internal/domain"
	"servicearea-service/internal/geo"

	"github.com/paulmach/orb"
)

// LonLatRun holds lon/lat inputs moved onto a local metric plane.
type LonLatRun struct {
	Sketch     domain.RouteSketch
	Network    domain.RoadNetwork
	Projection geo.LocalProjection
}

// ProjectLonLat projects lon/lat sketch and network onto a plane centred on
// their combined extent. The bool is false when neither has geometry.
func ProjectLonLat(sketch domain.RouteSketch, network domain.RoadNetwork) (LonLatRun, bool) {
	var b orb.Bound
	found := false
	for _, f := range append(append([]domain.Feature{}, sketch...), network...) {
		if f.Geometry == nil {
			continue
		}
		if !found {
			b = f.Geometry.Bound()
			found = true
			continue
		}
		b = b.Union(f.Geometry.Bound())
	}
	if !found {
		return LonLatRun{}, false
	}

	lp := geo.NewLocalProjection(b)
	return LonLatRun{
		Sketch:     projectFeatures(sketch, lp),
		Network:    projectFeatures(network, lp),
		Projection: lp,
	}, true
}

// Apply sets the WGS84 conversions on opts, so the run's service areas
// come back in lon/lat.
func (r LonLatRun) Apply(opts Options) Options {
	opts.ToWGS84 = r.Projection.ToWGS84
	opts.FromWGS84 = r.Projection.ToPlane
	return opts
}

func projectFeatures[S ~[]domain.Feature](in S, lp geo.LocalProjection) S {
	out := make(S, 0, len(in))
	for _, f := range in {
		out = append(out, domain.Feature{Geometry: lp.Forward(f.Geometry), Attributes: f.Attributes})
	}
	return out
}
