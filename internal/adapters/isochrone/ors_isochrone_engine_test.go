package isochrone

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"servicearea-service/internal/domain"
	"servicearea-service/internal/ports"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryCache struct {
	mu   sync.Mutex
	data map[string][]domain.IsochronePolygon
}

func (m *memoryCache) GetMany(ctx context.Context, keys []string) (map[string][]domain.IsochronePolygon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string][]domain.IsochronePolygon{}
	for _, k := range keys {
		if v, ok := m.data[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (m *memoryCache) PutMany(ctx context.Context, entries map[string][]domain.IsochronePolygon) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = map[string][]domain.IsochronePolygon{}
	}
	for k, v := range entries {
		m.data[k] = v
	}
	return nil
}

func box(x, y, r float64) orb.Polygon {
	return orb.Polygon{{{x - r, y - r}, {x + r, y - r}, {x + r, y + r}, {x - r, y + r}, {x - r, y - r}}}
}

// fakeORS answers every location with one square band per range value.
func fakeORS(t *testing.T, calls *atomic.Int32, seen *isochroneRequest) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/v2/isochrones/driving-car", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("Authorization"))

		var req isochroneRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if seen != nil {
			*seen = req
		}

		fc := geojson.NewFeatureCollection()
		for i, loc := range req.Locations {
			for _, v := range req.Range {
				f := geojson.NewFeature(box(loc[0], loc[1], v/1000))
				f.Properties["group_index"] = i
				f.Properties["value"] = v
				fc.Append(f)
			}
		}
		w.Header().Set("Content-Type", "application/geo+json")
		assert.NoError(t, json.NewEncoder(w).Encode(fc))
	}))
}

func orsRequest(seeds ...domain.SeedPoint) ports.IsochroneRequest {
	return ports.IsochroneRequest{
		Seeds:       seeds,
		Interval:    1000,
		MaxDistance: 2000,
		CellSize:    50,
		SpeedMPH:    55,
	}
}

func newTestEngine(t *testing.T, url string, cache ports.IsochroneCache) *ORSIsochroneEngine {
	t.Helper()
	e, err := NewORSIsochroneEngine("test-key", cache, WithBaseURL(url), WithRetry(3, time.Millisecond))
	require.NoError(t, err)
	return e
}

func TestNewORSIsochroneEngine_RequiresKey(t *testing.T) {
	_, err := NewORSIsochroneEngine("", nil)
	assert.Error(t, err)
}

func TestORSIsochrones_RequestAndBands(t *testing.T) {
	var calls atomic.Int32
	var seen isochroneRequest
	srv := fakeORS(t, &calls, &seen)
	defer srv.Close()

	e := newTestEngine(t, srv.URL, nil)
	polys, err := e.Isochrones(context.Background(), orsRequest(
		domain.SeedPoint{ID: 4, Point: orb.Point{10, 20}},
		domain.SeedPoint{ID: 7, Point: orb.Point{-3, 5}},
	))
	require.NoError(t, err)

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, [][]float64{{10, 20}, {-3, 5}}, seen.Locations)
	assert.Equal(t, []float64{1000, 2000}, seen.Range)
	assert.Equal(t, "distance", seen.RangeType)
	assert.Equal(t, "m", seen.Units)

	require.Len(t, polys, 4)
	assert.Equal(t, 4, polys[0].SeedID)
	assert.Equal(t, 1, polys[0].CostLevel)
	assert.Equal(t, 2, polys[1].CostLevel)
	assert.Equal(t, 7, polys[2].SeedID)
	assert.Equal(t, orb.MultiPolygon{box(10, 20, 1)}, polys[0].Geometry)
}

func TestORSIsochrones_BatchesFiveLocations(t *testing.T) {
	var calls atomic.Int32
	srv := fakeORS(t, &calls, nil)
	defer srv.Close()

	var seeds []domain.SeedPoint
	for i := range 7 {
		seeds = append(seeds, domain.SeedPoint{ID: i, Point: orb.Point{float64(i), 0}})
	}

	polys, err := newTestEngine(t, srv.URL, nil).Isochrones(context.Background(), orsRequest(seeds...))
	require.NoError(t, err)

	assert.Equal(t, int32(2), calls.Load())
	require.Len(t, polys, 14)
	assert.Equal(t, 6, polys[13].SeedID)
}

func TestORSIsochrones_UsesCache(t *testing.T) {
	var calls atomic.Int32
	srv := fakeORS(t, &calls, nil)
	defer srv.Close()

	cache := &memoryCache{}
	e := newTestEngine(t, srv.URL, cache)
	req := orsRequest(domain.SeedPoint{ID: 0, Point: orb.Point{1, 1}})

	first, err := e.Isochrones(context.Background(), req)
	require.NoError(t, err)

	req.Seeds[0].ID = 9
	second, err := e.Isochrones(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, int32(1), calls.Load(), "second run is served from cache")
	require.Len(t, second, len(first))
	assert.Equal(t, 9, second[0].SeedID)
	assert.Equal(t, first[0].Geometry, second[0].Geometry)
}

func TestORSIsochrones_ProjectsThroughWGS84(t *testing.T) {
	var calls atomic.Int32
	var seen isochroneRequest
	srv := fakeORS(t, &calls, &seen)
	defer srv.Close()

	req := orsRequest(domain.SeedPoint{ID: 0, Point: orb.Point{100, 200}})
	req.ToWGS84 = func(p orb.Point) orb.Point { return orb.Point{p[0] / 100, p[1] / 100} }
	req.FromWGS84 = func(p orb.Point) orb.Point { return orb.Point{p[0] * 100, p[1] * 100} }

	polys, err := newTestEngine(t, srv.URL, nil).Isochrones(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, [][]float64{{1, 2}}, seen.Locations)
	require.NotEmpty(t, polys)
	assert.Equal(t, orb.Bound{Min: orb.Point{0, 100}, Max: orb.Point{200, 300}}, polys[0].Geometry.Bound())
}

func TestORSIsochrones_FastestUsesTime(t *testing.T) {
	var calls atomic.Int32
	var seen isochroneRequest
	srv := fakeORS(t, &calls, &seen)
	defer srv.Close()

	req := orsRequest(domain.SeedPoint{ID: 0})
	req.Strategy = domain.StrategyFastest

	polys, err := newTestEngine(t, srv.URL, nil).Isochrones(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "time", seen.RangeType)
	assert.Empty(t, seen.Units)
	require.Len(t, seen.Range, 2)
	assert.InDelta(t, 1000/domain.MetersPerSecond(55), seen.Range[0], 1e-9)
	assert.Equal(t, 2, polys[1].CostLevel)
}

func TestORSIsochrones_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"type":"FeatureCollection","features":[]}`))
	}))
	defer srv.Close()

	polys, err := newTestEngine(t, srv.URL, nil).Isochrones(context.Background(), orsRequest(domain.SeedPoint{}))

	require.NoError(t, err)
	assert.Empty(t, polys)
	assert.Equal(t, int32(2), calls.Load())
}

func TestORSIsochrones_ClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad location", http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := newTestEngine(t, srv.URL, nil).Isochrones(context.Background(), orsRequest(domain.SeedPoint{}))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Code 400: bad location")
	assert.Equal(t, int32(1), calls.Load())
}

func TestORSIsochrones_NoSeeds(t *testing.T) {
	e := newTestEngine(t, "http://127.0.0.1:0", nil)

	polys, err := e.Isochrones(context.Background(), orsRequest())

	require.NoError(t, err)
	assert.Nil(t, polys)
}
