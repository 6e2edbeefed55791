package domain

import (
	"fmt"
	"strings"
)

// MetersPerMile is the international mile.
const MetersPerMile = 1609.344

// TierMinimumsDelimiter separates entries of the tier minimums parameter.
const TierMinimumsDelimiter = "|"

// Represents one concentric cost band around the route.
// TierSpecs are immutable once built and are indexed 0..N-1 (TierNum = index+1).
type TierSpec struct {
	TierNum      int
	TierName     string
	TravelCostMi float64
	TravelCostM  float64
	OrderMinimum *string
}

// ConvertMilesToMeters converts a distance in miles to meters.
func ConvertMilesToMeters(miles float64) float64 {
	return miles * MetersPerMile
}

// ListItemWithDefault returns list[i] when i is a valid index, otherwise def.
func ListItemWithDefault[T any](list []T, i int, def T) T {
	if i < 0 || i >= len(list) {
		return def
	}
	return list[i]
}

// ParseTierMinimums splits the raw tier minimums parameter on "|".
// An empty string yields a single empty entry, matching strings.Split.
func ParseTierMinimums(raw string) []string {
	return strings.Split(raw, TierMinimumsDelimiter)
}

// TierName returns "Main Route" for the first tier and "Tier k" otherwise.
func TierName(tierNum int) string {
	if tierNum > 1 {
		return fmt.Sprintf("Tier %d", tierNum)
	}
	return "Main Route"
}

// BuildTierSpecs generates the tier table for tierCount tiers of milesPerTier each.
// Tiers beyond the end of minimums get no order minimum.
func BuildTierSpecs(tierCount int, milesPerTier float64, minimums []string) ([]TierSpec, error) {
	if tierCount < 1 {
		return nil, fmt.Errorf("build tier specs: tier count %d: %w", tierCount, ErrInvalidTierCount)
	}
	if !(milesPerTier > 0) {
		return nil, fmt.Errorf("build tier specs: miles per tier %v: %w", milesPerTier, ErrInvalidMilesPerTier)
	}

	mins := make([]*string, len(minimums))
	for i, m := range minimums {
		mins[i] = &m
	}

	specs := make([]TierSpec, 0, tierCount)
	for idx := 0; idx < tierCount; idx++ {
		tierNum := idx + 1
		costMi := milesPerTier * float64(tierNum)

		specs = append(specs, TierSpec{
			TierNum:      tierNum,
			TierName:     TierName(tierNum),
			TravelCostMi: costMi,
			TravelCostM:  ConvertMilesToMeters(costMi),
			OrderMinimum: ListItemWithDefault(mins, idx, nil),
		})
	}

	return specs, nil
}

// TierByIndex looks up a tier by its 0-based index.
func TierByIndex(specs []TierSpec, idx int) (TierSpec, bool) {
	if idx < 0 || idx >= len(specs) {
		return TierSpec{}, false
	}
	return specs[idx], true
}

// OrderMinimumString returns the order minimum or "" when the tier has none.
func (t TierSpec) OrderMinimumString() string {
	if t.OrderMinimum == nil {
		return ""
	}
	return *t.OrderMinimum
}

func (t TierSpec) String() string {
	om := "<none>"
	if t.OrderMinimum != nil {
		om = *t.OrderMinimum
	}
	return fmt.Sprintf("{tier_num=%d tier_name=%q travelcost_mi=%g travelcost_m=%g order_minimum=%s}",
		t.TierNum, t.TierName, t.TravelCostMi, t.TravelCostM, om)
}
