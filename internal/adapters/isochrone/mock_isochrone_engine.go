package isochrone

import (
	"context"
	"servicearea-service/internal/domain"
	"servicearea-service/internal/ports"
	"sync"
)

// MockIsochroneEngine returns canned isochrones for the seeds it is asked
// about and records every request.
type MockIsochroneEngine struct {
	mu       sync.Mutex
	bySeed   map[int][]domain.IsochronePolygon
	err      error
	requests []ports.IsochroneRequest
}

func NewMockIsochroneEngine(polys []domain.IsochronePolygon) *MockIsochroneEngine {
	m := make(map[int][]domain.IsochronePolygon)
	for _, p := range polys {
		m[p.SeedID] = append(m[p.SeedID], p)
	}
	return &MockIsochroneEngine{bySeed: m}
}

// WithError makes every call fail with err.
func (m *MockIsochroneEngine) WithError(err error) *MockIsochroneEngine {
	m.err = err
	return m
}

func (m *MockIsochroneEngine) Isochrones(
	ctx context.Context,
	req ports.IsochroneRequest,
) ([]domain.IsochronePolygon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}

	var out []domain.IsochronePolygon
	for _, s := range req.Seeds {
		out = append(out, m.bySeed[s.ID]...)
	}
	return out, nil
}

// Requests returns the requests seen so far.
func (m *MockIsochroneEngine) Requests() []ports.IsochroneRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ports.IsochroneRequest(nil), m.requests...)
}
