package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"servicearea-service/internal/adapters/cache"
	"servicearea-service/internal/adapters/isochrone"
	"servicearea-service/internal/adapters/repositories"
	"servicearea-service/internal/adapters/sources"
	"servicearea-service/internal/api"
	"servicearea-service/internal/api/handlers"
	"servicearea-service/internal/config"
	"servicearea-service/internal/domain"
	"servicearea-service/internal/network"
	"servicearea-service/internal/platform/db"
	"servicearea-service/internal/ports"
	"servicearea-service/internal/services"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

type runStore interface {
	ports.ServiceAreaRepository
	ports.ResultRegistry
	ports.ResultLister
}

// storage groups the adapters backed by one database.
type storage struct {
	repo     runStore
	isoCache ports.IsochroneCache
	db       *sql.DB
}

// main is the application composition root.
// It wires concrete adapters (SQLite or Postgres, ORS or the local engine,
// Redis) behind ports and starts the HTTP server.
func main() {
	config.LoadDotEnv()
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	store, err := openStorage(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer store.db.Close()

	engine, err := newEngine(cfg, store.isoCache)
	if err != nil {
		log.Fatal(err)
	}

	var roads domain.RoadNetwork
	if cfg.RoadNetworkPath != "" {
		roads, err = loadRoadNetwork(context.Background(), cfg.RoadNetworkPath)
		if err != nil {
			log.Fatal(err)
		}
		log.Printf("road network loaded path=%s features=%d", cfg.RoadNetworkPath, len(roads))
	}

	h := &handlers.ServiceAreaHandler{
		Pipeline: services.NewServiceAreaPipeline(engine, store.repo, store.repo),
		Repo:     store.repo,
		Results:  store.repo,
		Network:  roads,
		Defaults: cfg.Defaults,
		InputCRS: cfg.InputCRS,
	}
	if client := cache.OpenRedis(cfg.RedisAddr, cfg.RedisPassword); client != nil {
		defer client.Close()
		h.Cache = cache.NewRedisResultCache(client, cfg.ResultTTL)
		log.Printf("result cache enabled addr=%s ttl=%s", cfg.RedisAddr, cfg.ResultTTL)
	}

	// Large networks take a while to rasterize; the write timeout covers a cold run.
	log.Printf("Server listening addr=:%s", cfg.Port)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewRouter(h),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      300 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	log.Fatal(srv.ListenAndServe())
}

func openStorage(cfg config.Config) (storage, error) {
	if cfg.DatabaseURL != "" {
		pg, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			return storage{}, err
		}
		if err := repositories.InitPostgresSchema(context.Background(), pg); err != nil {
			pg.Close()
			return storage{}, fmt.Errorf("open storage: %w", err)
		}
		log.Println("storage=postgres")
		return storage{
			repo:     repositories.NewSQLServiceAreaRepository(pg),
			isoCache: cache.NewSQLIsochroneCache(pg),
			db:       pg,
		}, nil
	}

	lite, err := openDB(cfg.DBPath)
	if err != nil {
		return storage{}, err
	}
	if err := repositories.InitSchema(lite); err != nil {
		lite.Close()
		return storage{}, fmt.Errorf("open storage: %w", err)
	}
	log.Printf("storage=sqlite path=%s", cfg.DBPath)
	return storage{
		repo:     repositories.NewSqliteServiceAreaRepository(lite),
		isoCache: cache.NewSqliteIsochroneCache(lite),
		db:       lite,
	}, nil
}

// newEngine picks OpenRouteService when an API key is configured and the
// local raster engine otherwise.
func newEngine(cfg config.Config, isoCache ports.IsochroneCache) (ports.IsochroneEngine, error) {
	if cfg.ORSAPIKey == "" {
		log.Println("isochrone engine=local")
		return network.NewEngine(), nil
	}

	if cfg.InputCRS != config.CRSWGS84 {
		log.Printf("warning: ORS isochrones need lon/lat inputs; INPUT_CRS=%s", cfg.InputCRS)
	}

	opts := []isochrone.ORSOption{
		isochrone.WithProfile(cfg.ORSProfile),
		isochrone.WithHTTPClient(&http.Client{Timeout: 60 * time.Second}),
	}
	if cfg.ORSBaseURL != "" {
		opts = append(opts, isochrone.WithBaseURL(cfg.ORSBaseURL))
	}
	engine, err := isochrone.NewORSIsochroneEngine(cfg.ORSAPIKey, isoCache, opts...)
	if err != nil {
		return nil, err
	}
	log.Printf("isochrone engine=ors profile=%s", cfg.ORSProfile)
	return engine, nil
}

func loadRoadNetwork(ctx context.Context, path string) (domain.RoadNetwork, error) {
	src, err := sources.Open(path, "")
	if err != nil {
		return nil, err
	}
	features, err := src.LoadFeatures(ctx)
	if err != nil {
		return nil, err
	}
	return domain.RoadNetwork(features), nil
}

func openDB(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("openDB: open sqlite database %q: %w", dbPath, err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("openDB: verify sqlite connection to %q: %w", dbPath, err)
	}

	return db, nil
}
