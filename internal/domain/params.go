package domain

import "fmt"

const (
	DefaultTierCount    = 6
	DefaultMilesPerTier = 2.0
	DefaultTierMinimums = "$150|$200|$275|$350|$425|$500|$600|$700|$800"
	DefaultAvgSpeed     = 55
	DefaultCellSize     = 50
)

// Numeric and string parameters for one service area run.
// TierMinimums is optional: nil means no tier carries an order minimum.
type Params struct {
	TierCount    int
	MilesPerTier float64
	TierMinimums *string
	AvgSpeed     int
	CellSize     int
}

func DefaultParams() Params {
	mins := DefaultTierMinimums
	return Params{
		TierCount:    DefaultTierCount,
		MilesPerTier: DefaultMilesPerTier,
		TierMinimums: &mins,
		AvgSpeed:     DefaultAvgSpeed,
		CellSize:     DefaultCellSize,
	}
}

// Validate reports the first parameter outside its allowed range.
func (p Params) Validate() error {
	if p.TierCount < 1 {
		return fmt.Errorf("validate params: tier_count=%d: %w", p.TierCount, ErrInvalidTierCount)
	}
	if !(p.MilesPerTier > 0) {
		return fmt.Errorf("validate params: miles_per_tier=%v: %w", p.MilesPerTier, ErrInvalidMilesPerTier)
	}
	if p.AvgSpeed < 1 {
		return fmt.Errorf("validate params: avg_speed=%d: %w", p.AvgSpeed, ErrInvalidSpeed)
	}
	if p.CellSize < 1 {
		return fmt.Errorf("validate params: cell_size=%d: %w", p.CellSize, ErrInvalidCellSize)
	}
	return nil
}

// TierMinimumList returns the parsed tier minimums, or nil when none were given.
func (p Params) TierMinimumList() []string {
	if p.TierMinimums == nil {
		return nil
	}
	return ParseTierMinimums(*p.TierMinimums)
}

// IntervalMeters is one tier's worth of driving distance.
func (p Params) IntervalMeters() float64 {
	return ConvertMilesToMeters(p.MilesPerTier)
}

func (p Params) MaxDistanceMiles() float64 {
	return float64(p.TierCount) * p.MilesPerTier
}

func (p Params) MaxDistanceMeters() float64 {
	return ConvertMilesToMeters(p.MaxDistanceMiles())
}

// BufferDistanceMiles pads the farthest tier by two tiers so the clipped
// network still reaches past the outer band.
func (p Params) BufferDistanceMiles() float64 {
	return p.MaxDistanceMiles() + p.MilesPerTier*2
}

func (p Params) BufferDistanceMeters() float64 {
	return ConvertMilesToMeters(p.BufferDistanceMiles())
}
