package config

import (
	"fmt"
	"log"
	"os"
	"servicearea-service/internal/domain"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Input coordinate systems accepted by the server and the CLI.
const (
	CRSProjected = "projected"
	CRSWGS84     = "wgs84"
)

type Config struct {
	Port            string
	DBPath          string
	DatabaseURL     string
	RoadNetworkPath string
	InputCRS        string

	RedisAddr     string
	RedisPassword string
	ResultTTL     time.Duration

	ORSAPIKey  string
	ORSBaseURL string
	ORSProfile string

	Defaults domain.Params
}

// LoadDotEnv reads .env into the environment when present.
func LoadDotEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}
}

// Get returns the environment value for key, or fallback when unset or empty.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Load builds the configuration from the environment.
func Load() (Config, error) {
	cfg := Config{
		Port:            Get("PORT", "8080"),
		DBPath:          Get("DB_PATH", "data/app.db"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		RoadNetworkPath: os.Getenv("ROAD_NETWORK_PATH"),
		InputCRS:        strings.ToLower(Get("INPUT_CRS", CRSProjected)),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		ORSAPIKey:       strings.TrimSpace(os.Getenv("ORS_API_KEY")),
		ORSBaseURL:      os.Getenv("ORS_BASE_URL"),
		ORSProfile:      os.Getenv("ORS_PROFILE"),
		Defaults:        domain.DefaultParams(),
	}

	if cfg.InputCRS != CRSProjected && cfg.InputCRS != CRSWGS84 {
		return Config{}, fmt.Errorf("load config: INPUT_CRS=%q: want %s or %s", cfg.InputCRS, CRSProjected, CRSWGS84)
	}

	ttl, err := time.ParseDuration(Get("RESULT_TTL", "1h"))
	if err != nil {
		return Config{}, fmt.Errorf("load config: RESULT_TTL: %w", err)
	}
	cfg.ResultTTL = ttl

	d := &cfg.Defaults
	if d.TierCount, err = intEnv("TIER_COUNT", d.TierCount); err != nil {
		return Config{}, err
	}
	if d.MilesPerTier, err = floatEnv("MILES_PER_TIER", d.MilesPerTier); err != nil {
		return Config{}, err
	}
	if d.AvgSpeed, err = intEnv("AVG_SPEED", d.AvgSpeed); err != nil {
		return Config{}, err
	}
	if d.CellSize, err = intEnv("CELL_SIZE", d.CellSize); err != nil {
		return Config{}, err
	}
	if v, ok := os.LookupEnv("TIER_MINIMUMS"); ok {
		d.TierMinimums = &v
	}

	if err := d.Validate(); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}

	return cfg, nil
}

func intEnv(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("load config: %s=%q: %w", key, raw, err)
	}
	return v, nil
}

func floatEnv(key string, fallback float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("load config: %s=%q: %w", key, raw, err)
	}
	return v, nil
}
