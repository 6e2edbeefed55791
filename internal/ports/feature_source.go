package ports

import (
	"context"
	"servicearea-service/internal/domain"
)

// Port: a boundary for reading input feature layers.
type FeatureSource interface {
	// Return every feature of the layer in source order.
	LoadFeatures(ctx context.Context) ([]domain.Feature, error)
}
