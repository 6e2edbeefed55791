package domain

import "errors"

var (
	ErrInvalidTierCount    = errors.New("tier count must be >= 1")
	ErrInvalidMilesPerTier = errors.New("miles per tier must be > 0")
	ErrInvalidSpeed        = errors.New("average speed must be > 0")
	ErrInvalidCellSize     = errors.New("cell size must be > 0")
	ErrInvalidStrategy     = errors.New("strategy must be shortest or fastest")
	ErrNoRoadNetwork       = errors.New("road network is required")
	ErrEmptyCoverageID     = errors.New("coverage identifier is empty")
	ErrRunNotFound         = errors.New("service area run not found")
)
