package repositories

import (
	"database/sql"
	"errors"
	"fmt"
)

// Initialize the SQLite database schema.
func InitSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createRunsQuery := `
	CREATE TABLE IF NOT EXISTS service_area_runs (
		run_id TEXT PRIMARY KEY,
		created_at TEXT NOT NULL,
		params_json TEXT NOT NULL
	);
	`

	createAreasQuery := `
	CREATE TABLE IF NOT EXISTS service_areas (
		run_id TEXT NOT NULL,
		fid INTEGER NOT NULL,
		tier_num INTEGER,
		tier_name TEXT,
		order_min TEXT,
		one_way_miles REAL,
		one_way_meters REAL,
		geometry_wkb BLOB NOT NULL,
		PRIMARY KEY (run_id, fid)
	);
	`

	createResultGroupsQuery := `
	CREATE TABLE IF NOT EXISTS result_groups (
		group_name TEXT NOT NULL,
		run_id TEXT NOT NULL,
		layer_name TEXT NOT NULL,
		PRIMARY KEY (group_name, run_id, layer_name)
	);
	`

	createIsochroneCacheQuery := `
	CREATE TABLE IF NOT EXISTS isochrone_cache (
		cache_key TEXT NOT NULL,
		cost_level INTEGER NOT NULL,
		seed_id INTEGER NOT NULL,
		geometry_wkb BLOB NOT NULL,
		PRIMARY KEY (cache_key, cost_level)
	);
	`

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_result_groups_run_id
	ON result_groups(run_id);
	`

	statements := []string{
		createRunsQuery,
		createAreasQuery,
		createResultGroupsQuery,
		createIsochroneCacheQuery,
		createIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}
