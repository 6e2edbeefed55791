package domain

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// CoverageDelimiter joins cost-level ids inside a composite identifier.
const CoverageDelimiter = "|"

// CoverageID lists the cost-level id of every isochrone polygon covering a
// region, one entry per covering polygon. The same level may repeat when
// several seeds reach the region at that level.
type CoverageID []int

// ParseCoverageID parses a composite identifier such as "2|4|4".
func ParseCoverageID(s string) (CoverageID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrEmptyCoverageID
	}

	parts := strings.Split(s, CoverageDelimiter)
	out := make(CoverageID, 0, len(parts))
	for i, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("parse coverage id %q: entry %d: %w", s, i, err)
		}
		out = append(out, v)
	}

	return out, nil
}

// String formats the identifier in its delimiter-joined wire form.
func (c CoverageID) String() string {
	parts := make([]string, len(c))
	for i, v := range c {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, CoverageDelimiter)
}

// Min returns the smallest cost-level id. ok is false for an empty identifier.
func (c CoverageID) Min() (int, bool) {
	if len(c) == 0 {
		return 0, false
	}
	return slices.Min(c), true
}

// Levels returns the distinct cost levels in ascending order.
func (c CoverageID) Levels() []int {
	out := slices.Clone(c)
	slices.Sort(out)
	return slices.Compact(out)
}
