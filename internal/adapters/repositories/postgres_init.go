package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// InitPostgresSchema creates the Postgres tables used by the SQL
// repository and the SQL isochrone cache.
func InitPostgresSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("init postgres schema: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init postgres schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	statements := []string{
		`
	CREATE TABLE IF NOT EXISTS service_area_runs (
		run_id TEXT PRIMARY KEY,
		created_at TIMESTAMPTZ NOT NULL,
		params_json JSONB NOT NULL
	);
	`,
		`
	CREATE TABLE IF NOT EXISTS service_areas (
		run_id TEXT NOT NULL REFERENCES service_area_runs(run_id) ON DELETE CASCADE,
		fid INTEGER NOT NULL,
		tier_num INTEGER,
		tier_name TEXT,
		order_min TEXT,
		one_way_miles DOUBLE PRECISION,
		one_way_meters DOUBLE PRECISION,
		geometry_wkb BYTEA NOT NULL,
		PRIMARY KEY (run_id, fid)
	);
	`,
		`
	CREATE TABLE IF NOT EXISTS result_groups (
		group_name TEXT NOT NULL,
		run_id TEXT NOT NULL,
		layer_name TEXT NOT NULL,
		PRIMARY KEY (group_name, run_id, layer_name)
	);
	`,
		`
	CREATE TABLE IF NOT EXISTS isochrone_cache (
		cache_key TEXT NOT NULL,
		cost_level INTEGER NOT NULL,
		seed_id INTEGER NOT NULL,
		geometry_wkb BYTEA NOT NULL,
		PRIMARY KEY (cache_key, cost_level)
	);
	`,
		`
	CREATE INDEX IF NOT EXISTS idx_result_groups_run_id
	ON result_groups(run_id);
	`,
	}

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init postgres schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init postgres schema: commit tx: %w", err)
	}

	return nil
}
