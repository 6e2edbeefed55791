package dto

import (
	"encoding/json"
	"servicearea-service/internal/services"
	"time"

	"github.com/paulmach/orb/geojson"
)

type ServiceAreaRequest struct {
	RouteSketch *geojson.FeatureCollection `json:"route_sketch"`
	RoadNetwork *geojson.FeatureCollection `json:"road_network,omitempty"`

	TierCount    *int     `json:"tier_count,omitempty"`
	MilesPerTier *float64 `json:"miles_per_tier,omitempty"`
	// Absent keeps the server default; null means no tier has a minimum.
	TierMinimums json.RawMessage `json:"tier_minimums,omitempty"`
	AvgSpeed     *int            `json:"avg_speed,omitempty"`
	CellSize     *int            `json:"cell_size,omitempty"`

	Strategy          string `json:"strategy,omitempty"`
	TierIndexBase     int    `json:"tier_index_base,omitempty"`
	CRS               string `json:"crs,omitempty"`
	KeepIntermediates bool   `json:"keep_intermediates,omitempty"`
}

type TierSpecResponse struct {
	TierNum      int     `json:"tier_num"`
	TierName     string  `json:"tier_name"`
	TravelCostMi float64 `json:"travelcost_mi"`
	TravelCostM  float64 `json:"travelcost_m"`
	OrderMinimum *string `json:"order_minimum"`
}

type IntermediatesResponse struct {
	ClipBuffer         *geojson.FeatureCollection `json:"clip_buffer"`
	RoadNetworkClipped *geojson.FeatureCollection `json:"road_network_clipped"`
	RoutePoints        *geojson.FeatureCollection `json:"route_points"`
	IsochroneRaw       *geojson.FeatureCollection `json:"isochrone_raw"`
	SelfIntersectRaw   *geojson.FeatureCollection `json:"self_intersect_raw"`
}

// Layers maps the debug file name of each working layer to its collection.
func (r *IntermediatesResponse) Layers() map[string]*geojson.FeatureCollection {
	return map[string]*geojson.FeatureCollection{
		"ClipBuffer":         r.ClipBuffer,
		"RoadNetworkClipped": r.RoadNetworkClipped,
		"RoutePoints":        r.RoutePoints,
		"IsochroneRaw":       r.IsochroneRaw,
		"SelfIntersectRaw":   r.SelfIntersectRaw,
	}
}

type ServiceAreaResponse struct {
	RunID         string                     `json:"run_id"`
	TierSpecs     []TierSpecResponse         `json:"tier_specs"`
	SeedCount     int                        `json:"seed_count"`
	ServiceAreas  *geojson.FeatureCollection `json:"service_areas"`
	Intermediates *IntermediatesResponse     `json:"intermediates,omitempty"`
}

type RunResponse struct {
	RunID        string                     `json:"run_id"`
	CreatedAt    time.Time                  `json:"created_at"`
	TierSpecs    []TierSpecResponse         `json:"tier_specs"`
	ServiceAreas *geojson.FeatureCollection `json:"service_areas"`
}

type ListRunsResponse struct {
	RunIDs []string `json:"run_ids"`
}

// NewIntermediatesResponse encodes the working layers of a run. They stay
// in the run's planar coordinates.
func NewIntermediatesResponse(in *services.Intermediates) *IntermediatesResponse {
	out := &IntermediatesResponse{
		ClipBuffer:         geojson.NewFeatureCollection(),
		RoadNetworkClipped: geojson.NewFeatureCollection(),
		RoutePoints:        geojson.NewFeatureCollection(),
		IsochroneRaw:       geojson.NewFeatureCollection(),
		SelfIntersectRaw:   geojson.NewFeatureCollection(),
	}

	if len(in.ClipBuffer) > 0 {
		out.ClipBuffer.Append(geojson.NewFeature(in.ClipBuffer))
	}
	for _, f := range in.RoadNetworkClipped {
		gf := geojson.NewFeature(f.Geometry)
		for k, v := range f.Attributes {
			gf.Properties[k] = v
		}
		out.RoadNetworkClipped.Append(gf)
	}
	for _, s := range in.RoutePoints {
		gf := geojson.NewFeature(s.Point)
		gf.Properties["seed_id"] = s.ID
		out.RoutePoints.Append(gf)
	}
	for _, p := range in.IsochroneRaw {
		gf := geojson.NewFeature(p.Geometry)
		gf.Properties["seed_id"] = p.SeedID
		gf.Properties["cost_level"] = p.CostLevel
		out.IsochroneRaw.Append(gf)
	}
	for _, r := range in.SelfIntersectRaw {
		gf := geojson.NewFeature(r.Geometry)
		gf.Properties["id"] = r.Identifier
		out.SelfIntersectRaw.Append(gf)
	}
	return out
}
