package services

import (
	"context"
	"fmt"
	"servicearea-service/internal/domain"
	"servicearea-service/internal/geo"
	"servicearea-service/internal/platform/obs"

	"github.com/paulmach/orb"
)

// GenerateBuffer builds one dissolved, round-capped buffer around every
// sketch geometry. An empty sketch gives an empty buffer.
func GenerateBuffer(
	ctx context.Context,
	sketch domain.RouteSketch,
	distance float64,
) (_ orb.MultiPolygon, err error) {
	defer obs.Time(ctx, "stage.buffer")(&err)

	if !(distance > 0) {
		return nil, fmt.Errorf("generate buffer: distance=%v must be > 0", distance)
	}

	return geo.Buffer(domain.Geometries(sketch), distance, geo.QuadrantSegments)
}
