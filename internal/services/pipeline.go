package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"servicearea-service/internal/domain"
	"servicearea-service/internal/platform/metrics"
	"servicearea-service/internal/platform/obs"
	"servicearea-service/internal/ports"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

// Names under which a finished run is registered.
const (
	ResultsGroup      = "Results"
	ServiceAreasLayer = "ServiceAreas"
)

type Options struct {
	Params   domain.Params
	Strategy domain.Strategy

	// Added to the minimum cost level before the tier lookup. Zero keeps
	// cost level 1 on tier index 1 ("Tier 2").
	TierIndexBase int

	KeepIntermediates bool

	// Generated when empty.
	RunID string

	// Set when the inputs were projected from WGS84. Service areas are
	// then returned and saved in lon/lat; intermediates stay projected.
	ToWGS84   orb.Projection
	FromWGS84 orb.Projection
}

// Working layers of one run. Only filled with Options.KeepIntermediates.
type Intermediates struct {
	ClipBuffer         orb.MultiPolygon
	RoadNetworkClipped domain.RoadNetwork
	RoutePoints        []domain.SeedPoint
	IsochroneRaw       []domain.IsochronePolygon
	SelfIntersectRaw   []domain.SelfIntersectionRegion
	ResolvedRegions    []domain.ResolvedRegion
}

type Result struct {
	RunID         string
	TierSpecs     []domain.TierSpec
	SeedCount     int
	ServiceAreas  []domain.ServiceArea
	Intermediates *Intermediates
}

// ServiceAreaPipeline runs the stages in order, each one consuming the
// previous stage's output. Cancellation is honored between stages.
type ServiceAreaPipeline struct {
	engine   ports.IsochroneEngine
	repo     ports.ServiceAreaRepository
	registry ports.ResultRegistry
}

// NewServiceAreaPipeline wires the pipeline. repo and registry are optional.
func NewServiceAreaPipeline(
	engine ports.IsochroneEngine,
	repo ports.ServiceAreaRepository,
	registry ports.ResultRegistry,
) *ServiceAreaPipeline {
	return &ServiceAreaPipeline{engine: engine, repo: repo, registry: registry}
}

func (p *ServiceAreaPipeline) GenerateServiceAreas(
	ctx context.Context,
	sketch domain.RouteSketch,
	network domain.RoadNetwork,
	opts Options,
) (res Result, err error) {
	defer obs.Time(ctx, "pipeline.GenerateServiceAreas")(&err)
	defer func() {
		status := "ok"
		if err != nil {
			status = "error"
		}
		metrics.RunsTotal.WithLabelValues(status).Inc()
	}()

	if p.engine == nil {
		return Result{}, errors.New("generate service areas: isochrone engine is nil")
	}
	params := opts.Params
	if err := params.Validate(); err != nil {
		return Result{}, fmt.Errorf("generate service areas: %w", err)
	}
	if len(network) == 0 {
		return Result{}, fmt.Errorf("generate service areas: %w", domain.ErrNoRoadNetwork)
	}

	specs, err := domain.BuildTierSpecs(params.TierCount, params.MilesPerTier, params.TierMinimumList())
	if err != nil {
		return Result{}, fmt.Errorf("generate service areas: %w", err)
	}

	res.RunID = opts.RunID
	if res.RunID == "" {
		res.RunID = uuid.NewString()
	}
	res.TierSpecs = specs

	var keep Intermediates
	log.Printf("service areas: run_id=%s prep done tiers=%d", res.RunID, len(specs))
	for _, s := range specs {
		log.Printf("service areas: run_id=%s tier %s", res.RunID, s)
	}

	// Buffer
	if err := stageCheck(ctx, "buffer"); err != nil {
		return Result{}, err
	}
	bufDist := params.BufferDistanceMeters()
	log.Printf("service areas: run_id=%s buffer_miles=%.2f buffer_meters=%.1f", res.RunID, params.BufferDistanceMiles(), bufDist)
	done := metrics.ObserveStage("buffer")
	buffer, err := GenerateBuffer(ctx, sketch, bufDist)
	done()
	if err != nil {
		return Result{}, fmt.Errorf("generate service areas: %w", err)
	}
	keep.ClipBuffer = buffer

	// Clip
	if err := stageCheck(ctx, "clip"); err != nil {
		return Result{}, err
	}
	done = metrics.ObserveStage("clip")
	clipped, err := ClipNetwork(ctx, network, buffer)
	done()
	if err != nil {
		return Result{}, fmt.Errorf("generate service areas: %w", err)
	}
	keep.RoadNetworkClipped = clipped

	// Seeds
	if err := stageCheck(ctx, "simplify"); err != nil {
		return Result{}, err
	}
	done = metrics.ObserveStage("simplify")
	seeds, err := SimplifyRoute(ctx, sketch, clipped)
	done()
	if err != nil {
		return Result{}, fmt.Errorf("generate service areas: %w", err)
	}
	keep.RoutePoints = seeds
	res.SeedCount = len(seeds)
	log.Printf("service areas: run_id=%s seeds=%d", res.RunID, len(seeds))

	// Isochrones
	if err := stageCheck(ctx, "isochrones"); err != nil {
		return Result{}, err
	}
	done = metrics.ObserveStage("isochrones")
	isochrones, err := ComputeIsochrones(ctx, p.engine, seeds, clipped, IsochroneSettings{
		Params:    params,
		Strategy:  opts.Strategy,
		ToWGS84:   opts.ToWGS84,
		FromWGS84: opts.FromWGS84,
	})
	done()
	if err != nil {
		return Result{}, fmt.Errorf("generate service areas: %w", err)
	}
	keep.IsochroneRaw = isochrones
	log.Printf("service areas: run_id=%s isochrones=%d", res.RunID, len(isochrones))

	// Self-intersection
	if err := stageCheck(ctx, "self_intersect"); err != nil {
		return Result{}, err
	}
	done = metrics.ObserveStage("self_intersect")
	regions, err := SelfIntersect(ctx, isochrones)
	done()
	if err != nil {
		return Result{}, fmt.Errorf("generate service areas: %w", err)
	}
	keep.SelfIntersectRaw = regions
	log.Printf("service areas: run_id=%s regions=%d", res.RunID, len(regions))

	// Tiers
	if err := stageCheck(ctx, "resolve"); err != nil {
		return Result{}, err
	}
	resolved := ResolveTiers(regions, specs, opts.TierIndexBase)
	keep.ResolvedRegions = resolved

	if err := stageCheck(ctx, "dissolve"); err != nil {
		return Result{}, err
	}
	done = metrics.ObserveStage("dissolve")
	areas, err := DissolveTiers(ctx, resolved)
	done()
	if err != nil {
		return Result{}, fmt.Errorf("generate service areas: %w", err)
	}
	if opts.ToWGS84 != nil {
		areas = projectAreas(areas, opts.ToWGS84)
	}
	res.ServiceAreas = areas
	log.Printf("service areas: run_id=%s service_areas=%d", res.RunID, len(areas))

	if opts.KeepIntermediates {
		res.Intermediates = &keep
	}

	if p.repo != nil {
		run := ports.ServiceAreaRun{
			RunID:     res.RunID,
			CreatedAt: time.Now().UTC(),
			Params:    params,
			TierSpecs: specs,
			Areas:     areas,
		}
		if err := p.repo.SaveRun(ctx, run); err != nil {
			return Result{}, fmt.Errorf("generate service areas: save run_id=%s: %w", res.RunID, err)
		}
	}

	if p.registry != nil {
		if err := p.registry.RegisterResult(ctx, ResultsGroup, res.RunID, ServiceAreasLayer); err != nil {
			return Result{}, fmt.Errorf("generate service areas: register run_id=%s: %w", res.RunID, err)
		}
	}

	return res, nil
}

func projectAreas(areas []domain.ServiceArea, proj orb.Projection) []domain.ServiceArea {
	out := make([]domain.ServiceArea, len(areas))
	for i, a := range areas {
		out[i] = domain.ServiceArea{
			Geometry: project.MultiPolygon(a.Geometry.Clone(), proj),
			Tier:     a.Tier,
		}
	}
	return out
}

func stageCheck(ctx context.Context, stage string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("generate service areas: before %s: %w", stage, err)
	}
	return nil
}
