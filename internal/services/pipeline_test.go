package services

import (
	"context"
	"errors"
	"servicearea-service/internal/adapters/isochrone"
	"servicearea-service/internal/domain"
	"servicearea-service/internal/network"
	"servicearea-service/internal/ports"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Ten miles of straight road along the x axis.
var tenMiles = orb.LineString{{0, 0}, {10 * domain.MetersPerMile, 0}}

func lineInputs() (domain.RouteSketch, domain.RoadNetwork) {
	sketch := domain.RouteSketch{{Geometry: tenMiles}}
	net := domain.RoadNetwork{{Geometry: tenMiles, Attributes: domain.Attributes{"name": "Main St"}}}
	return sketch, net
}

func threeTierParams() domain.Params {
	p := domain.DefaultParams()
	p.TierCount = 3
	p.MilesPerTier = 2
	return p
}

type fakeRepo struct {
	runs map[string]ports.ServiceAreaRun
	err  error
}

func (f *fakeRepo) SaveRun(ctx context.Context, run ports.ServiceAreaRun) error {
	if f.err != nil {
		return f.err
	}
	if f.runs == nil {
		f.runs = map[string]ports.ServiceAreaRun{}
	}
	f.runs[run.RunID] = run
	return nil
}

func (f *fakeRepo) GetRun(ctx context.Context, runID string) (ports.ServiceAreaRun, error) {
	run, ok := f.runs[runID]
	if !ok {
		return ports.ServiceAreaRun{}, domain.ErrRunNotFound
	}
	return run, nil
}

type fakeRegistry struct {
	calls [][3]string
}

func (f *fakeRegistry) RegisterResult(ctx context.Context, group, runID, layer string) error {
	f.calls = append(f.calls, [3]string{group, runID, layer})
	return nil
}

func tierNums(areas []domain.ServiceArea) []any {
	out := make([]any, len(areas))
	for i, a := range areas {
		out[i] = a.Attributes()[domain.FieldTierNum]
	}
	return out
}

func TestClipNetwork_KeepsAttributes(t *testing.T) {
	buffer := square(0, -10, 50, 10)
	net := domain.RoadNetwork{
		{Geometry: orb.LineString{{-50, 0}, {100, 0}}, Attributes: domain.Attributes{"id": 7}},
		{Geometry: orb.LineString{{-50, 100}, {100, 100}}, Attributes: domain.Attributes{"id": 8}},
	}

	got, err := ClipNetwork(context.Background(), net, buffer)

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 7, got[0].Attributes["id"])
	assert.InDelta(t, 50.0, planar.Length(got[0].Geometry), 1e-9)
}

func TestSimplifyRoute_SingleLineSeedsAtEnds(t *testing.T) {
	sketch, net := lineInputs()

	seeds, err := SimplifyRoute(context.Background(), sketch, net)

	require.NoError(t, err)
	require.Len(t, seeds, 2)
	assert.Equal(t, 0, seeds[0].ID)
	assert.Equal(t, 1, seeds[1].ID)
	assert.InDelta(t, 0, seeds[0].Point[0], 1e-6)
	assert.InDelta(t, 10*domain.MetersPerMile, seeds[1].Point[0], 1e-6)
}

func TestSimplifyRoute_OnlyJunctionsNearSketch(t *testing.T) {
	// A grid of two crossing roads; the sketch covers only the west half.
	net := domain.RoadNetwork{
		{Geometry: orb.LineString{{0, 0}, {1000, 0}}},
		{Geometry: orb.LineString{{500, -500}, {500, 500}}},
	}
	sketch := domain.RouteSketch{{Geometry: orb.LineString{{0, 10}, {520, 10}}}}

	seeds, err := SimplifyRoute(context.Background(), sketch, net)

	require.NoError(t, err)
	require.Len(t, seeds, 1, "dead ends of crossing roads are not junctions")
	assert.InDelta(t, 500, seeds[0].Point[0], 1e-6)
	assert.InDelta(t, 0, seeds[0].Point[1], 1e-6)
}

func TestSimplifyRoute_DeadEndSpurSeedsAtJunction(t *testing.T) {
	net := domain.RoadNetwork{
		{Geometry: orb.LineString{{0, 0}, {1000, 0}}},
		{Geometry: orb.LineString{{500, 0}, {500, 30}}},
	}
	sketch := domain.RouteSketch{{Geometry: orb.LineString{{0, 0}, {1000, 0}}}}

	seeds, err := SimplifyRoute(context.Background(), sketch, net)

	require.NoError(t, err)
	require.Len(t, seeds, 1)
	assert.Equal(t, 0, seeds[0].ID)
	assert.InDelta(t, 500, seeds[0].Point[0], 1e-6)
	assert.InDelta(t, 0, seeds[0].Point[1], 1e-6)
}

func TestSimplifyRoute_EmptySketch(t *testing.T) {
	_, net := lineInputs()

	seeds, err := SimplifyRoute(context.Background(), nil, net)

	require.NoError(t, err)
	assert.Empty(t, seeds)
}

func TestGenerateServiceAreas_TenMileLine(t *testing.T) {
	sketch, net := lineInputs()
	repo := &fakeRepo{}
	registry := &fakeRegistry{}
	p := NewServiceAreaPipeline(network.NewEngine(), repo, registry)

	res, err := p.GenerateServiceAreas(context.Background(), sketch, net, Options{
		Params: threeTierParams(),
		RunID:  "run-1",
	})
	require.NoError(t, err)

	require.Len(t, res.TierSpecs, 3)
	assert.Equal(t, "Main Route", res.TierSpecs[0].TierName)
	assert.Equal(t, 6.0, res.TierSpecs[2].TravelCostMi)
	assert.Equal(t, 2, res.SeedCount)

	require.Len(t, res.ServiceAreas, 3)
	assert.Equal(t, []any{2, 3, nil}, tierNums(res.ServiceAreas))
	assert.Equal(t, 4.0, res.ServiceAreas[0].Attributes()[domain.FieldOneWayMiles])
	assert.Equal(t, 6.0, res.ServiceAreas[1].Attributes()[domain.FieldOneWayMiles])

	// Level one reaches two miles from each end of the line.
	near := orb.Point{domain.MetersPerMile, 10}
	assert.True(t, planar.MultiPolygonContains(res.ServiceAreas[0].Geometry, near))

	assert.Nil(t, res.Intermediates)
	assert.Contains(t, repo.runs, "run-1")
	assert.Equal(t, [][3]string{{ResultsGroup, "run-1", ServiceAreasLayer}}, registry.calls)
}

func TestGenerateServiceAreas_TierIndexBase(t *testing.T) {
	sketch, net := lineInputs()
	p := NewServiceAreaPipeline(network.NewEngine(), nil, nil)

	res, err := p.GenerateServiceAreas(context.Background(), sketch, net, Options{
		Params:        threeTierParams(),
		TierIndexBase: -1,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, []any{1, 2, 3}, tierNums(res.ServiceAreas))
	assert.Equal(t, "Main Route", res.ServiceAreas[0].Attributes()[domain.FieldTierName])
}

func TestGenerateServiceAreas_EmptySketch(t *testing.T) {
	_, net := lineInputs()
	engine := isochrone.NewMockIsochroneEngine(nil)
	p := NewServiceAreaPipeline(engine, nil, nil)

	res, err := p.GenerateServiceAreas(context.Background(), nil, net, Options{Params: threeTierParams()})

	require.NoError(t, err)
	assert.Equal(t, 0, res.SeedCount)
	assert.Empty(t, res.ServiceAreas)
	assert.Empty(t, engine.Requests(), "engine is not called without seeds")
}

func TestGenerateServiceAreas_KeepIntermediates(t *testing.T) {
	sketch, net := lineInputs()
	engine := isochrone.NewMockIsochroneEngine([]domain.IsochronePolygon{
		{CostLevel: 1, SeedID: 0, Geometry: square(0, -50, 100, 50)},
		{CostLevel: 2, SeedID: 0, Geometry: square(0, -50, 200, 50)},
	})
	p := NewServiceAreaPipeline(engine, nil, nil)

	res, err := p.GenerateServiceAreas(context.Background(), sketch, net, Options{
		Params:            threeTierParams(),
		KeepIntermediates: true,
	})
	require.NoError(t, err)

	in := res.Intermediates
	require.NotNil(t, in)
	assert.NotEmpty(t, in.ClipBuffer)
	assert.Len(t, in.RoadNetworkClipped, 1)
	assert.Len(t, in.RoutePoints, 2)
	assert.Len(t, in.IsochroneRaw, 2)
	assert.Len(t, in.SelfIntersectRaw, 2)
	assert.Equal(t, []any{2, 3}, tierNums(res.ServiceAreas))

	reqs := engine.Requests()
	require.Len(t, reqs, 1)
	assert.InDelta(t, 2*domain.MetersPerMile, reqs[0].Interval, 1e-9)
	assert.InDelta(t, 6*domain.MetersPerMile, reqs[0].MaxDistance, 1e-9)
	assert.Equal(t, 3, reqs[0].Levels())
	assert.Equal(t, 50.0, reqs[0].CellSize)
}

func TestGenerateServiceAreas_Errors(t *testing.T) {
	sketch, net := lineInputs()

	t.Run("invalid params", func(t *testing.T) {
		p := NewServiceAreaPipeline(network.NewEngine(), nil, nil)
		params := threeTierParams()
		params.TierCount = 0
		_, err := p.GenerateServiceAreas(context.Background(), sketch, net, Options{Params: params})
		assert.ErrorIs(t, err, domain.ErrInvalidTierCount)
	})

	t.Run("missing network", func(t *testing.T) {
		p := NewServiceAreaPipeline(network.NewEngine(), nil, nil)
		_, err := p.GenerateServiceAreas(context.Background(), sketch, nil, Options{Params: threeTierParams()})
		assert.ErrorIs(t, err, domain.ErrNoRoadNetwork)
	})

	t.Run("engine failure aborts", func(t *testing.T) {
		boom := errors.New("boom")
		p := NewServiceAreaPipeline(isochrone.NewMockIsochroneEngine(nil).WithError(boom), nil, nil)
		_, err := p.GenerateServiceAreas(context.Background(), sketch, net, Options{Params: threeTierParams()})
		assert.ErrorIs(t, err, boom)
	})

	t.Run("sink failure aborts", func(t *testing.T) {
		boom := errors.New("disk full")
		p := NewServiceAreaPipeline(network.NewEngine(), &fakeRepo{err: boom}, nil)
		_, err := p.GenerateServiceAreas(context.Background(), sketch, net, Options{Params: threeTierParams()})
		assert.ErrorIs(t, err, boom)
	})

	t.Run("cancelled between stages", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		p := NewServiceAreaPipeline(network.NewEngine(), nil, nil)
		_, err := p.GenerateServiceAreas(ctx, sketch, net, Options{Params: threeTierParams()})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestProjectLonLat(t *testing.T) {
	// Roughly two miles of road east of a point in Phoenix.
	road := orb.LineString{{-112.1, 33.45}, {-112.0655, 33.45}}
	sketch := domain.RouteSketch{{Geometry: road}}
	net := domain.RoadNetwork{{Geometry: road}}

	run, ok := ProjectLonLat(sketch, net)
	require.True(t, ok)

	projected := run.Network[0].Geometry.(orb.LineString)
	assert.InDelta(t, 3210, planar.Length(projected), 15, "projected length is in meters")
	assert.Equal(t, road, net[0].Geometry, "inputs are not modified")

	opts := run.Apply(Options{})
	ll := opts.ToWGS84(opts.FromWGS84(orb.Point{-112.08, 33.44}))
	assert.InDelta(t, -112.08, ll[0], 1e-9)

	_, ok = ProjectLonLat(nil, nil)
	assert.False(t, ok)
}

func TestGenerateServiceAreas_ReturnsLonLat(t *testing.T) {
	sketch, net := lineInputs()
	engine := isochrone.NewMockIsochroneEngine([]domain.IsochronePolygon{
		{CostLevel: 1, SeedID: 0, Geometry: square(0, 0, 100, 100)},
	})
	p := NewServiceAreaPipeline(engine, nil, nil)

	res, err := p.GenerateServiceAreas(context.Background(), sketch, net, Options{
		Params:    threeTierParams(),
		ToWGS84:   func(pt orb.Point) orb.Point { return orb.Point{pt[0] / 1000, pt[1] / 1000} },
		FromWGS84: func(pt orb.Point) orb.Point { return orb.Point{pt[0] * 1000, pt[1] * 1000} },
	})
	require.NoError(t, err)

	require.Len(t, res.ServiceAreas, 1)
	assert.Equal(t, orb.Bound{Max: orb.Point{0.1, 0.1}}, res.ServiceAreas[0].Geometry.Bound())
}
