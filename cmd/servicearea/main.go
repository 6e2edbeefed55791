package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"servicearea-service/internal/adapters/repositories"
	"servicearea-service/internal/adapters/sources"
	"servicearea-service/internal/api/dto"
	"servicearea-service/internal/config"
	"servicearea-service/internal/domain"
	"servicearea-service/internal/network"
	"servicearea-service/internal/ports"
	"servicearea-service/internal/services"
	"strings"

	"github.com/paulmach/orb/geojson"
	_ "modernc.org/sqlite"
)

// servicearea runs the pipeline once over files and writes the dissolved
// service areas as GeoJSON.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil && !errors.Is(err, flag.ErrHelp) {
		log.Fatal(err)
	}
}

type cliFlags struct {
	sketch        string
	network       string
	networkFormat string
	crs           string
	out           string
	debugDir      string
	dbPath        string
	strategy      string
	tierBase      int

	tiers      int
	miles      float64
	minimums   string
	noMinimums bool
	speed      int
	cell       int
}

func parseFlags(args []string) (cliFlags, error) {
	d := domain.DefaultParams()
	var f cliFlags

	fs := flag.NewFlagSet("servicearea", flag.ContinueOnError)
	fs.StringVar(&f.sketch, "sketch", "", "route sketch GeoJSON file (required)")
	fs.StringVar(&f.network, "network", "", "road network file (required)")
	fs.StringVar(&f.networkFormat, "network-format", "", "geojson or osm; taken from the extension when empty")
	fs.StringVar(&f.crs, "crs", config.CRSProjected, "input coordinates: projected or wgs84")
	fs.StringVar(&f.out, "out", "-", "output GeoJSON file, - for stdout")
	fs.StringVar(&f.debugDir, "debug-dir", "", "write intermediate layers to this directory")
	fs.StringVar(&f.dbPath, "db", "", "SQLite database to persist the run in")
	fs.StringVar(&f.strategy, "strategy", domain.StrategyShortest.String(), "shortest or fastest")
	fs.IntVar(&f.tierBase, "tier-index-base", 0, "offset added to the minimum cost level before the tier lookup")
	fs.IntVar(&f.tiers, "tiers", d.TierCount, "number of tiers")
	fs.Float64Var(&f.miles, "miles", d.MilesPerTier, "miles per tier")
	fs.StringVar(&f.minimums, "minimums", *d.TierMinimums, "pipe-separated order minimums")
	fs.BoolVar(&f.noMinimums, "no-minimums", false, "leave every tier without an order minimum")
	fs.IntVar(&f.speed, "speed", d.AvgSpeed, "average speed in mph")
	fs.IntVar(&f.cell, "cell", d.CellSize, "raster cell size in meters")

	if err := fs.Parse(args); err != nil {
		return cliFlags{}, err
	}
	if f.sketch == "" || f.network == "" {
		return cliFlags{}, errors.New("-sketch and -network are required")
	}
	f.crs = strings.ToLower(f.crs)
	if f.crs != config.CRSProjected && f.crs != config.CRSWGS84 {
		return cliFlags{}, fmt.Errorf("-crs must be %s or %s", config.CRSProjected, config.CRSWGS84)
	}
	return f, nil
}

func (f cliFlags) options() (services.Options, error) {
	p := domain.Params{
		TierCount:    f.tiers,
		MilesPerTier: f.miles,
		AvgSpeed:     f.speed,
		CellSize:     f.cell,
	}
	if !f.noMinimums {
		mins := f.minimums
		p.TierMinimums = &mins
	}

	strategy, err := domain.ParseStrategy(f.strategy)
	if err != nil {
		return services.Options{}, err
	}

	return services.Options{
		Params:            p,
		Strategy:          strategy,
		TierIndexBase:     f.tierBase,
		KeepIntermediates: f.debugDir != "",
	}, nil
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	f, err := parseFlags(args)
	if err != nil {
		return err
	}
	opts, err := f.options()
	if err != nil {
		return err
	}

	sketchFeatures, err := sources.NewGeoJSONSource(f.sketch).LoadFeatures(ctx)
	if err != nil {
		return err
	}
	networkSource, err := sources.Open(f.network, f.networkFormat)
	if err != nil {
		return err
	}
	networkFeatures, err := networkSource.LoadFeatures(ctx)
	if err != nil {
		return err
	}

	sketch := domain.RouteSketch(sketchFeatures)
	roads := domain.RoadNetwork(networkFeatures)
	if f.crs == config.CRSWGS84 {
		if ll, ok := services.ProjectLonLat(sketch, roads); ok {
			sketch, roads = ll.Sketch, ll.Network
			opts = ll.Apply(opts)
		}
	}

	var repo interface {
		ports.ServiceAreaRepository
		ports.ResultRegistry
	}
	if f.dbPath != "" {
		db, err := sql.Open("sqlite", f.dbPath)
		if err != nil {
			return fmt.Errorf("open sqlite database %q: %w", f.dbPath, err)
		}
		defer db.Close()
		if err := repositories.InitSchema(db); err != nil {
			return err
		}
		repo = repositories.NewSqliteServiceAreaRepository(db)
	}

	pipeline := services.NewServiceAreaPipeline(network.NewEngine(), repo, repo)
	res, err := pipeline.GenerateServiceAreas(ctx, sketch, roads, opts)
	if err != nil {
		return err
	}
	log.Printf("run_id=%s seeds=%d service_areas=%d", res.RunID, res.SeedCount, len(res.ServiceAreas))

	if err := writeOutput(f.out, stdout, sources.ServiceAreaCollection(res.ServiceAreas)); err != nil {
		return err
	}

	if res.Intermediates != nil {
		layers := dto.NewIntermediatesResponse(res.Intermediates).Layers()
		if err := writeDebugLayers(f.debugDir, layers); err != nil {
			return err
		}
	}
	return nil
}

func writeOutput(path string, stdout io.Writer, fc *geojson.FeatureCollection) error {
	b, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode service areas: %w", err)
	}
	if path == "-" || path == "" {
		_, err = stdout.Write(append(b, '\n'))
		return err
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write service areas %q: %w", path, err)
	}
	return nil
}

func writeDebugLayers(dir string, layers map[string]*geojson.FeatureCollection) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create debug dir %q: %w", dir, err)
	}
	for name, fc := range layers {
		b, err := fc.MarshalJSON()
		if err != nil {
			return fmt.Errorf("encode %s: %w", name, err)
		}
		path := filepath.Join(dir, name+".geojson")
		if err := os.WriteFile(path, b, 0o644); err != nil {
			return fmt.Errorf("write %q: %w", path, err)
		}
	}
	return nil
}
