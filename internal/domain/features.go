package domain

import "github.com/paulmach/orb"

// Output field names written to the service area sink.
const (
	FieldTierNum      = "TIERNUM"
	FieldTierName     = "TIERNAME"
	FieldOrderMin     = "ORDERMIN"
	FieldOneWayMiles  = "1WAYMILES"
	FieldOneWayMeters = "1WAYMETERS"
)

// OutputFields lists the sink schema in column order.
var OutputFields = []string{FieldTierNum, FieldTierName, FieldOrderMin, FieldOneWayMiles, FieldOneWayMeters}

// Attributes carries the non-geometry columns of a feature.
type Attributes map[string]any

// A single geometry with its attributes, as read from an input layer.
type Feature struct {
	Geometry   orb.Geometry
	Attributes Attributes
}

// Hand-drawn route input. Read-only.
type RouteSketch []Feature

// Road edges; connectivity is implied by coincident vertices. Read-only.
type RoadNetwork []Feature

// Geometries returns the geometry of every feature in order.
func Geometries(features []Feature) []orb.Geometry {
	out := make([]orb.Geometry, 0, len(features))
	for _, f := range features {
		if f.Geometry != nil {
			out = append(out, f.Geometry)
		}
	}
	return out
}

// A cost-distance source derived from the route sketch.
// IDs are assigned sequentially from 0.
type SeedPoint struct {
	ID    int
	Point orb.Point
}

// Area reachable from one seed within CostLevel intervals.
// CostLevel is 1-based.
type IsochronePolygon struct {
	CostLevel int
	SeedID    int
	Geometry  orb.MultiPolygon
}

// A disjoint piece of the isochrone overlay. Identifier is the composite
// coverage identifier in its wire form (see CoverageID).
type SelfIntersectionRegion struct {
	Identifier string
	Geometry   orb.MultiPolygon
}

// Coverage parses the region's composite identifier.
func (r SelfIntersectionRegion) Coverage() (CoverageID, error) {
	return ParseCoverageID(r.Identifier)
}

// A self-intersection region after tier assignment. Tier is nil when the
// region's identifier did not resolve to a known tier.
type ResolvedRegion struct {
	FID      int
	Geometry orb.MultiPolygon
	Tier     *TierSpec
}

// Attributes returns the five tier fields; all values are nil when unlabeled.
func (r ResolvedRegion) Attributes() Attributes {
	return tierAttributes(r.Tier)
}

// Final dissolved polygon for one tier. Tier is nil for the unlabeled group.
type ServiceArea struct {
	Geometry orb.MultiPolygon
	Tier     *TierSpec
}

func (s ServiceArea) Attributes() Attributes {
	return tierAttributes(s.Tier)
}

// TierNum returns the tier number and whether the area is labeled.
func (s ServiceArea) TierNum() (int, bool) {
	if s.Tier == nil {
		return 0, false
	}
	return s.Tier.TierNum, true
}

func tierAttributes(t *TierSpec) Attributes {
	if t == nil {
		return Attributes{
			FieldTierNum:      nil,
			FieldTierName:     nil,
			FieldOrderMin:     nil,
			FieldOneWayMiles:  nil,
			FieldOneWayMeters: nil,
		}
	}

	var orderMin any
	if t.OrderMinimum != nil {
		orderMin = *t.OrderMinimum
	}

	return Attributes{
		FieldTierNum:      t.TierNum,
		FieldTierName:     t.TierName,
		FieldOrderMin:     orderMin,
		FieldOneWayMiles:  t.TravelCostMi,
		FieldOneWayMeters: t.TravelCostM,
	}
}
