package domain

import (
	"fmt"
	"strings"
)

// Strategy selects what an isochrone measures along the network.
type Strategy int

const (
	// Shortest accumulates travel distance.
	StrategyShortest Strategy = iota
	// Fastest accumulates travel time at the default speed.
	StrategyFastest
)

func (s Strategy) String() string {
	switch s {
	case StrategyFastest:
		return "fastest"
	default:
		return "shortest"
	}
}

// ParseStrategy accepts "shortest" and "fastest"; empty means shortest.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "shortest":
		return StrategyShortest, nil
	case "fastest":
		return StrategyFastest, nil
	}
	return StrategyShortest, fmt.Errorf("parse strategy %q: %w", s, ErrInvalidStrategy)
}

// MetersPerSecond converts an average speed in miles per hour.
func MetersPerSecond(mph float64) float64 {
	return ConvertMilesToMeters(mph) / 3600
}
