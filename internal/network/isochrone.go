package network

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"servicearea-service/internal/domain"
	"servicearea-service/internal/platform/obs"
	"servicearea-service/internal/ports"
	"servicearea-service/internal/raster"

	"github.com/paulmach/orb"
)

// Engine computes isochrones locally: network costs from Dijkstra are
// burned into a raster along every reached edge and each interval boundary
// of the raster is polygonized.
type Engine struct {
	// AccessCells is how far, in cells, the cost of an edge spreads to
	// either side of it. Zero means one cell.
	AccessCells float64
}

func NewEngine() *Engine {
	return &Engine{AccessCells: 1}
}

var _ ports.IsochroneEngine = (*Engine)(nil)

func (e *Engine) Isochrones(
	ctx context.Context,
	req ports.IsochroneRequest,
) (_ []domain.IsochronePolygon, err error) {
	defer obs.Time(ctx, "isochrone.local")(&err)

	if req.Interval <= 0 {
		return nil, errors.New("local isochrones: interval must be > 0")
	}
	if req.CellSize <= 0 {
		return nil, fmt.Errorf("local isochrones: cell_size=%v: %w", req.CellSize, domain.ErrInvalidCellSize)
	}
	if len(req.Seeds) == 0 || len(req.Network) == 0 {
		return nil, nil
	}

	weight := func(l float64) float64 { return l }
	unit := 1.0
	if req.Strategy == domain.StrategyFastest {
		if req.SpeedMPH <= 0 {
			return nil, fmt.Errorf("local isochrones: speed=%v: %w", req.SpeedMPH, domain.ErrInvalidSpeed)
		}
		mps := domain.MetersPerSecond(req.SpeedMPH)
		weight = func(l float64) float64 { return l / mps }
		unit = 1 / mps
	}

	g := NewGraph(req.Network)
	levels := req.Levels()
	maxCost := req.MaxDistance * unit
	radius := req.CellSize * e.accessCells()

	var out []domain.IsochronePolygon
	for _, seed := range req.Seeds {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		snap, ok := g.Nearest(seed.Point)
		if !ok || snap.Distance > req.Interval {
			log.Printf("isochrone: seed=%d isolated from network dist=%.1f", seed.ID, snap.Distance)
			continue
		}

		s := g.Segments[snap.Segment]
		entry := weight(snap.Distance)
		sources := map[int]float64{
			s.U: entry + weight(snap.T*s.Length),
			s.V: entry + weight((1-snap.T)*s.Length),
		}
		dist := g.ShortestCosts(sources, maxCost, weight)

		grid := e.burn(g, dist, snap, entry, maxCost, req.CellSize, radius, weight)
		if grid == nil {
			continue
		}

		for level := 1; level <= levels; level++ {
			mp := grid.Polygonize(grid.Mask(float64(level) * req.Interval * unit))
			if len(mp) == 0 {
				continue
			}
			out = append(out, domain.IsochronePolygon{
				CostLevel: level,
				SeedID:    seed.ID,
				Geometry:  mp,
			})
		}
	}

	return out, nil
}

func (e *Engine) accessCells() float64 {
	if e.AccessCells <= 0 {
		return 1
	}
	return e.AccessCells
}

// burn rasterizes every edge touching a reached node, plus the two halves
// of the seed's own segment measured from the snap point.
func (e *Engine) burn(
	g *Graph,
	dist []float64,
	snap Snap,
	entry, maxCost, cellSize, radius float64,
	weight func(float64) float64,
) *raster.Grid {
	var reached []Segment
	bound := orb.Bound{Min: snap.Point, Max: snap.Point}
	for _, s := range g.Segments {
		if math.Min(dist[s.U], dist[s.V]) > maxCost {
			continue
		}
		reached = append(reached, s)
		bound = bound.Extend(g.Nodes[s.U]).Extend(g.Nodes[s.V])
	}

	grid := raster.NewGrid(bound, cellSize, radius+cellSize)

	seg := g.Segments[snap.Segment]
	a, b := g.Nodes[seg.U], g.Nodes[seg.V]
	grid.BurnSegment(snap.Point, a, entry, dist[seg.U], weight(snap.T*seg.Length), radius)
	grid.BurnSegment(snap.Point, b, entry, dist[seg.V], weight((1-snap.T)*seg.Length), radius)

	for _, s := range reached {
		grid.BurnSegment(g.Nodes[s.U], g.Nodes[s.V], dist[s.U], dist[s.V], weight(s.Length), radius)
	}

	if !grid.Reached() {
		return nil
	}
	return grid
}
