package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"servicearea-service/internal/domain"
	"servicearea-service/internal/platform/obs"
	"servicearea-service/internal/ports"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
)

// SQLite-backed implementation of the ServiceAreaRepository and
// ResultRegistry ports.
type SqliteServiceAreaRepository struct{ DB *sql.DB }

func NewSqliteServiceAreaRepository(db *sql.DB) *SqliteServiceAreaRepository {
	return &SqliteServiceAreaRepository{DB: db}
}

var (
	_ ports.ServiceAreaRepository = (*SqliteServiceAreaRepository)(nil)
	_ ports.ResultRegistry        = (*SqliteServiceAreaRepository)(nil)
)

// Persist a run and its service areas in one transaction. Saving the same
// run id again replaces its areas.
func (s *SqliteServiceAreaRepository) SaveRun(ctx context.Context, run ports.ServiceAreaRun) (err error) {
	defer obs.Time(ctx, "sqlite.SaveRun")(&err)

	if s.DB == nil {
		return errors.New("sqlite service area repository: DB is nil")
	}
	if strings.TrimSpace(run.RunID) == "" {
		return errors.New("save run: run id must not be empty")
	}

	params, err := encodeParams(run.Params)
	if err != nil {
		return fmt.Errorf("save run %s: %w", run.RunID, err)
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save run: db begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
	INSERT OR REPLACE INTO service_area_runs (run_id, created_at, params_json)
	VALUES (?, ?, ?);
	`, run.RunID, run.CreatedAt.UTC().Format(time.RFC3339Nano), params); err != nil {
		return fmt.Errorf("save run %s: insert run: %w", run.RunID, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM service_areas WHERE run_id = ?;`, run.RunID); err != nil {
		return fmt.Errorf("save run %s: clear areas: %w", run.RunID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO service_areas (
		run_id,
		fid,
		tier_num,
		tier_name,
		order_min,
		one_way_miles,
		one_way_meters,
		geometry_wkb
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?);
	`)
	if err != nil {
		return fmt.Errorf("save run: db prepare: %w", err)
	}
	defer stmt.Close()

	for fid, a := range run.Areas {
		c := columnsFor(a.Tier)
		if _, err := stmt.ExecContext(ctx, run.RunID, fid, c.Num, c.Name, c.OrderMin, c.Miles, c.Meters, wkb.Value(a.Geometry)); err != nil {
			return fmt.Errorf("save run %s fid=%d: %w", run.RunID, fid, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save run %s commit: %w", run.RunID, err)
	}

	return nil
}

// Load a run and its areas in fid order.
func (s *SqliteServiceAreaRepository) GetRun(ctx context.Context, runID string) (_ ports.ServiceAreaRun, err error) {
	defer obs.Time(ctx, "sqlite.GetRun")(&err)

	if s.DB == nil {
		return ports.ServiceAreaRun{}, errors.New("sqlite service area repository: DB is nil")
	}

	var createdAt string
	var params string
	err = s.DB.QueryRowContext(ctx, `
	SELECT created_at, params_json
	FROM service_area_runs
	WHERE run_id = ?;
	`, runID).Scan(&createdAt, &params)
	if errors.Is(err, sql.ErrNoRows) {
		return ports.ServiceAreaRun{}, fmt.Errorf("get run %s: %w", runID, domain.ErrRunNotFound)
	}
	if err != nil {
		return ports.ServiceAreaRun{}, fmt.Errorf("get run %s: query run: %w", runID, err)
	}

	run := ports.ServiceAreaRun{RunID: runID}
	run.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return ports.ServiceAreaRun{}, fmt.Errorf("get run %s: parse created_at: %w", runID, err)
	}
	run.Params, err = decodeParams([]byte(params))
	if err != nil {
		return ports.ServiceAreaRun{}, fmt.Errorf("get run %s: %w", runID, err)
	}
	finishRun(&run)

	rows, err := s.DB.QueryContext(ctx, `
	SELECT
		tier_num,
		tier_name,
		order_min,
		one_way_miles,
		one_way_meters,
		geometry_wkb
	FROM service_areas
	WHERE run_id = ?
	ORDER BY fid;
	`, runID)
	if err != nil {
		return ports.ServiceAreaRun{}, fmt.Errorf("get run %s: query areas: %w", runID, err)
	}
	defer rows.Close()

	run.Areas = make([]domain.ServiceArea, 0, 8)
	for rows.Next() {
		var c tierColumns
		var mp orb.MultiPolygon
		if err := rows.Scan(&c.Num, &c.Name, &c.OrderMin, &c.Miles, &c.Meters, wkb.Scanner(&mp)); err != nil {
			return ports.ServiceAreaRun{}, fmt.Errorf("get run %s: scan row: %w", runID, err)
		}
		run.Areas = append(run.Areas, domain.ServiceArea{Geometry: mp, Tier: c.tier()})
	}
	if err := rows.Err(); err != nil {
		return ports.ServiceAreaRun{}, fmt.Errorf("get run %s: row iteration: %w", runID, err)
	}

	return run, nil
}

// Register a finished layer under a named group.
func (s *SqliteServiceAreaRepository) RegisterResult(ctx context.Context, group, runID, layer string) error {
	if s.DB == nil {
		return errors.New("sqlite service area repository: DB is nil")
	}
	if group == "" || runID == "" || layer == "" {
		return errors.New("register result: group, run id and layer must be non-empty")
	}

	if _, err := s.DB.ExecContext(ctx, `
	INSERT OR IGNORE INTO result_groups (group_name, run_id, layer_name)
	VALUES (?, ?, ?);
	`, group, runID, layer); err != nil {
		return fmt.Errorf("register result %s/%s: %w", group, runID, err)
	}
	return nil
}

// ListResults returns the run ids registered under group, oldest first.
func (s *SqliteServiceAreaRepository) ListResults(ctx context.Context, group string) ([]string, error) {
	if s.DB == nil {
		return nil, errors.New("sqlite service area repository: DB is nil")
	}

	rows, err := s.DB.QueryContext(ctx, `
	SELECT g.run_id
	FROM result_groups g
	JOIN service_area_runs r ON r.run_id = g.run_id
	WHERE g.group_name = ?
	ORDER BY r.created_at, g.run_id;
	`, group)
	if err != nil {
		return nil, fmt.Errorf("list results %s: %w", group, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("list results %s: scan row: %w", group, err)
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list results %s: row iteration: %w", group, err)
	}
	return out, nil
}
