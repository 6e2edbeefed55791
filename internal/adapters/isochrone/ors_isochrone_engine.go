package isochrone

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"servicearea-service/internal/domain"
	"servicearea-service/internal/platform/metrics"
	"servicearea-service/internal/platform/obs"
	"servicearea-service/internal/ports"
	"slices"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

const (
	DefaultORSBaseURL = "https://api.openrouteservice.org"
	DefaultORSProfile = "driving-car"

	// ORS accepts at most five locations per isochrone request.
	maxLocationsPerRequest = 5
)

// ORSIsochroneEngine implements IsochroneEngine using the OpenRouteService
// isochrones endpoint. Only the seed locations are sent; ORS routes on its
// own network, so the request network is ignored.
//
// It coordinates:
//   - Projection of seeds to and results from WGS84
//   - Persistent isochrone caching per seed location and run distances
//   - External API calls with retry/backoff
//
// The engine is safe for concurrent use.
type ORSIsochroneEngine struct {
	session     *http.Client
	apiKey      string
	baseURL     string
	profile     string
	cache       ports.IsochroneCache
	maxAttempts int
	backoff     time.Duration
}

type ORSOption func(*ORSIsochroneEngine)

func WithBaseURL(u string) ORSOption {
	return func(o *ORSIsochroneEngine) {
		if u != "" {
			o.baseURL = strings.TrimRight(u, "/")
		}
	}
}

func WithProfile(p string) ORSOption {
	return func(o *ORSIsochroneEngine) {
		if p != "" {
			o.profile = p
		}
	}
}

func WithHTTPClient(c *http.Client) ORSOption {
	return func(o *ORSIsochroneEngine) { o.session = c }
}

// WithRetry sets the attempt count and the first backoff delay.
func WithRetry(attempts int, backoff time.Duration) ORSOption {
	return func(o *ORSIsochroneEngine) {
		o.maxAttempts = max(1, attempts)
		o.backoff = backoff
	}
}

func NewORSIsochroneEngine(
	apiKey string,
	cache ports.IsochroneCache,
	opts ...ORSOption,
) (*ORSIsochroneEngine, error) {
	if apiKey == "" {
		return nil, errors.New("ORS api key is empty")
	}

	engine := &ORSIsochroneEngine{
		session:     &http.Client{Timeout: 30 * time.Second},
		apiKey:      apiKey,
		baseURL:     DefaultORSBaseURL,
		profile:     DefaultORSProfile,
		cache:       cache,
		maxAttempts: 4,
		backoff:     200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(engine)
	}

	return engine, nil
}

var _ ports.IsochroneEngine = (*ORSIsochroneEngine)(nil)

// rangeSpec is the ORS form of a request's intervals.
type rangeSpec struct {
	Type string
	Step float64
	Max  float64
}

func (r rangeSpec) boundaries() []float64 {
	var out []float64
	for i := 1; float64(i)*r.Step <= r.Max+1e-9; i++ {
		out = append(out, float64(i)*r.Step)
	}
	return out
}

func (o *ORSIsochroneEngine) rangeFor(req ports.IsochroneRequest) (rangeSpec, error) {
	if req.Strategy != domain.StrategyFastest {
		return rangeSpec{Type: "distance", Step: req.Interval, Max: req.MaxDistance}, nil
	}
	if req.SpeedMPH <= 0 {
		return rangeSpec{}, fmt.Errorf("speed=%v: %w", req.SpeedMPH, domain.ErrInvalidSpeed)
	}
	mps := domain.MetersPerSecond(req.SpeedMPH)
	return rangeSpec{Type: "time", Step: req.Interval / mps, Max: req.MaxDistance / mps}, nil
}

// cacheKey identifies one seed's bands independent of its seed id.
func (o *ORSIsochroneEngine) cacheKey(lonLat orb.Point, r rangeSpec) string {
	return fmt.Sprintf("%s:%s:%.6f,%.6f:%.3f:%.3f", o.profile, r.Type, lonLat[0], lonLat[1], r.Step, r.Max)
}

func (o *ORSIsochroneEngine) Isochrones(
	ctx context.Context,
	req ports.IsochroneRequest,
) (_ []domain.IsochronePolygon, err error) {
	defer obs.Time(ctx, "ors.Isochrones")(&err)

	if req.Interval <= 0 {
		return nil, errors.New("ORS isochrones: interval must be > 0")
	}
	if len(req.Seeds) == 0 {
		return nil, nil
	}

	rs, err := o.rangeFor(req)
	if err != nil {
		return nil, fmt.Errorf("ORS isochrones: %w", err)
	}

	toWGS84, fromWGS84 := req.ToWGS84, req.FromWGS84
	if toWGS84 == nil {
		toWGS84 = identity
	}
	if fromWGS84 == nil {
		fromWGS84 = identity
	}

	keys := make([]string, len(req.Seeds))
	lonLats := make(map[string]orb.Point, len(req.Seeds))
	for i, s := range req.Seeds {
		ll := toWGS84(s.Point)
		keys[i] = o.cacheKey(ll, rs)
		lonLats[keys[i]] = ll
	}

	hits := make(map[string][]domain.IsochronePolygon)
	// Check persistent isochrone cache before issuing external API calls.
	if o.cache != nil {
		hits, err = o.cache.GetMany(ctx, keys)
		if err != nil {
			return nil, fmt.Errorf("ORS get isochrone cache: %w", err)
		}
	}

	seen := make(map[string]struct{}, len(keys))
	misses := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, ok := hits[k]; ok {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		misses = append(misses, k)
	}
	metrics.CacheHitsTotal.WithLabelValues("isochrone").Add(float64(len(hits)))
	metrics.CacheMissesTotal.WithLabelValues("isochrone").Add(float64(len(misses)))

	fresh := make(map[string][]domain.IsochronePolygon, len(misses))
	for batch := range slices.Chunk(misses, maxLocationsPerRequest) {
		locations := make([]orb.Point, len(batch))
		for i, k := range batch {
			locations[i] = lonLats[k]
		}

		fetched, err := o.fetchIsochrones(ctx, locations, rs)
		if err != nil {
			return nil, fmt.Errorf("fetching isochrones: %w", err)
		}
		for i, k := range batch {
			fresh[k] = fetched[i]
		}
	}

	if o.cache != nil && len(fresh) > 0 {
		if err := o.cache.PutMany(ctx, fresh); err != nil {
			log.Printf("isochrone cache write failed: %v", err)
		}
	}

	var out []domain.IsochronePolygon
	for i, s := range req.Seeds {
		bands, ok := hits[keys[i]]
		if !ok {
			bands = fresh[keys[i]]
		}
		if len(bands) == 0 {
			log.Printf("isochrone: seed=%d no bands returned", s.ID)
			continue
		}

		for _, b := range bands {
			out = append(out, domain.IsochronePolygon{
				CostLevel: b.CostLevel,
				SeedID:    s.ID,
				Geometry:  project.MultiPolygon(b.Geometry.Clone(), fromWGS84),
			})
		}
	}

	return out, nil
}

// costLevel maps an ORS band value back to its interval number.
func costLevel(value, step float64) int {
	return int(math.Round(value / step))
}

func identity(p orb.Point) orb.Point { return p }
