package cache

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

// SQLIsochroneCache is a Postgres-backed cache of isochrone bands.
type SQLIsochroneCache struct {
	DB *sql.DB
}

func NewSQLIsochroneCache(db *sql.DB) *SQLIsochroneCache {
	return &SQLIsochroneCache{DB: db}
}

var _ ports.IsochroneCache = (*SQLIsochroneCache)(nil)

func (s *SQLIsochroneCache) GetMany(
	ctx context.Context,
	keys []string,
) (_ map[string][]domain.IsochronePolygon, err error) {
	defer obs.Time(ctx, "isochrone.cache.GetMany")(&err)

	if s.DB == nil {
		return nil, errors.New("isochrone cache: db is nil")
	}

	uniq := uniqueKeys(keys)
	if len(uniq) == 0 {
		return map[string][]domain.IsochronePolygon{}, nil
	}

	q := `
	SELECT cache_key, cost_level, seed_id, geometry_wkb
	FROM isochrone_cache
	WHERE cache_key = ANY($1::text[])
	ORDER BY cache_key, cost_level;
	`

	rows, err := s.DB.QueryContext(ctx, q, uniq)
	if err != nil {
		return nil, fmt.Errorf("get isochrone cache: query isochrone_cache table: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]domain.IsochronePolygon, len(uniq))
	for rows.Next() {
		var key string
		var p domain.IsochronePolygon
		var mp orb.MultiPolygon
		if err := rows.Scan(&key, &p.CostLevel, &p.SeedID, wkb.Scanner(&mp)); err != nil {
			return nil, fmt.Errorf("get isochrone cache: scan rows: %w", err)
		}
		p.Geometry = mp
		out[key] = append(out[key], p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get isochrone cache: row iteration: %w", err)
	}

	return out, nil
}

func (s *SQLIsochroneCache) PutMany(ctx context.Context, entries map[string][]domain.IsochronePolygon) error {
	if s.DB == nil {
		return errors.New("isochrone cache: db is nil")
	}

	if len(entries) == 0 {
		return nil
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert isochrone cache: db begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO isochrone_cache (cache_key, cost_level, seed_id, geometry_wkb)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (cache_key, cost_level) DO UPDATE
	SET seed_id = EXCLUDED.seed_id,
		geometry_wkb = EXCLUDED.geometry_wkb;
	`)
	if err != nil {
		return fmt.Errorf("insert isochrone cache: db prepare: %w", err)
	}
	defer stmt.Close()

	for key, bands := range entries {
		if strings.TrimSpace(key) == "" {
			return fmt.Errorf("insert isochrone cache: empty cache key")
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM isochrone_cache WHERE cache_key = $1;`, key); err != nil {
			return fmt.Errorf("insert isochrone cache key=%q: %w", key, err)
		}
		for _, b := range bands {
			if _, err := stmt.ExecContext(ctx, key, b.CostLevel, b.SeedID, wkb.Value(b.Geometry)); err != nil {
				return fmt.Errorf("insert isochrone cache key=%q level=%d: %w", key, b.CostLevel, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert isochrone cache commit: %w", err)
	}

	return nil
}
