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

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
)

// SQLServiceAreaRepository is the Postgres implementation of the
// ServiceAreaRepository and ResultRegistry ports.
type SQLServiceAreaRepository struct {
	DB *sql.DB
}

func NewSQLServiceAreaRepository(db *sql.DB) *SQLServiceAreaRepository {
	return &SQLServiceAreaRepository{DB: db}
}

var (
	_ ports.ServiceAreaRepository = (*SQLServiceAreaRepository)(nil)
	_ ports.ResultRegistry        = (*SQLServiceAreaRepository)(nil)
)

func (s *SQLServiceAreaRepository) SaveRun(ctx context.Context, run ports.ServiceAreaRun) (err error) {
	defer obs.Time(ctx, "sql.SaveRun")(&err)

	if s.DB == nil {
		return errors.New("sql service area repository: DB is nil")
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
	INSERT INTO service_area_runs (run_id, created_at, params_json)
	VALUES ($1, $2, $3)
	ON CONFLICT (run_id) DO UPDATE
	SET created_at = EXCLUDED.created_at,
		params_json = EXCLUDED.params_json;
	`, run.RunID, run.CreatedAt.UTC(), params); err != nil {
		return fmt.Errorf("save run %s: insert run: %w", run.RunID, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM service_areas WHERE run_id = $1;`, run.RunID); err != nil {
		return fmt.Errorf("save run %s: clear areas: %w", run.RunID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO service_areas (run_id, fid, tier_num, tier_name, order_min, one_way_miles, one_way_meters, geometry_wkb)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
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

func (s *SQLServiceAreaRepository) GetRun(ctx context.Context, runID string) (_ ports.ServiceAreaRun, err error) {
	defer obs.Time(ctx, "sql.GetRun")(&err)

	if s.DB == nil {
		return ports.ServiceAreaRun{}, errors.New("sql service area repository: DB is nil")
	}

	run := ports.ServiceAreaRun{RunID: runID}
	var params []byte
	err = s.DB.QueryRowContext(ctx, `
	SELECT created_at, params_json
	FROM service_area_runs
	WHERE run_id = $1;
	`, runID).Scan(&run.CreatedAt, &params)
	if errors.Is(err, sql.ErrNoRows) {
		return ports.ServiceAreaRun{}, fmt.Errorf("get run %s: %w", runID, domain.ErrRunNotFound)
	}
	if err != nil {
		return ports.ServiceAreaRun{}, fmt.Errorf("get run %s: query run: %w", runID, err)
	}

	run.Params, err = decodeParams(params)
	if err != nil {
		return ports.ServiceAreaRun{}, fmt.Errorf("get run %s: %w", runID, err)
	}
	finishRun(&run)

	rows, err := s.DB.QueryContext(ctx, `
	SELECT tier_num, tier_name, order_min, one_way_miles, one_way_meters, geometry_wkb
	FROM service_areas
	WHERE run_id = $1
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

func (s *SQLServiceAreaRepository) RegisterResult(ctx context.Context, group, runID, layer string) error {
	if s.DB == nil {
		return errors.New("sql service area repository: DB is nil")
	}
	if group == "" || runID == "" || layer == "" {
		return errors.New("register result: group, run id and layer must be non-empty")
	}

	if _, err := s.DB.ExecContext(ctx, `
	INSERT INTO result_groups (group_name, run_id, layer_name)
	VALUES ($1, $2, $3)
	ON CONFLICT DO NOTHING;
	`, group, runID, layer); err != nil {
		return fmt.Errorf("register result %s/%s: %w", group, runID, err)
	}
	return nil
}

func (s *SQLServiceAreaRepository) ListResults(ctx context.Context, group string) ([]string, error) {
	if s.DB == nil {
		return nil, errors.New("sql service area repository: DB is nil")
	}

	rows, err := s.DB.QueryContext(ctx, `
	SELECT g.run_id
	FROM result_groups g
	JOIN service_area_runs r ON r.run_id = g.run_id
	WHERE g.group_name = $1
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
