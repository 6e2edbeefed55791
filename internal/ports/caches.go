package ports

import (
	"context"
	"servicearea-service/internal/domain"
)

// Persistent cache of isochrone bands keyed by seed location and run
// distances. Keys are normalized by the caller.
type IsochroneCache interface {
	GetMany(ctx context.Context, keys []string) (map[string][]domain.IsochronePolygon, error)
	PutMany(ctx context.Context, entries map[string][]domain.IsochronePolygon) error
}

// Cache of encoded API responses.
type ResultCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}
