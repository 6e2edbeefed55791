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

// SQLite backed cache of isochrone bands. Keys are expected to be
// consistent (e.g., already normalized) by the caller.
type SqliteIsochroneCache struct {
	DB *sql.DB
}

func NewSqliteIsochroneCache(db *sql.DB) *SqliteIsochroneCache {
	return &SqliteIsochroneCache{DB: db}
}

var _ ports.IsochroneCache = (*SqliteIsochroneCache)(nil)

// Fetch cached bands for many keys. Keys without rows are absent from the
// result; bands come back in cost level order.
func (s *SqliteIsochroneCache) GetMany(
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

	ph := make([]string, len(uniq))
	args := make([]any, len(uniq))
	for i, k := range uniq {
		ph[i] = "?"
		args[i] = k
	}

	// SQLite does not support binding slices directly in an IN (...) clause.
	// Only the placeholder structure is interpolated; all values remain parameterized.
	q := fmt.Sprintf(`
	SELECT
		cache_key,
		cost_level,
		seed_id,
		geometry_wkb
	FROM isochrone_cache
	WHERE cache_key IN (%s)
	ORDER BY cache_key, cost_level;
	`, strings.Join(ph, ","))

	rows, err := s.DB.QueryContext(ctx, q, args...)
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

// Store bands for many keys. Each key's previous bands are replaced.
func (s *SqliteIsochroneCache) PutMany(ctx context.Context, entries map[string][]domain.IsochronePolygon) error {
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

	del, err := tx.PrepareContext(ctx, `DELETE FROM isochrone_cache WHERE cache_key = ?;`)
	if err != nil {
		return fmt.Errorf("insert isochrone cache: db prepare: %w", err)
	}
	defer del.Close()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT OR REPLACE INTO isochrone_cache (
		cache_key,
		cost_level,
		seed_id,
		geometry_wkb
	)
	VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("insert isochrone cache: db prepare: %w", err)
	}
	defer stmt.Close()

	for key, bands := range entries {
		if strings.TrimSpace(key) == "" {
			return fmt.Errorf("insert isochrone cache: empty cache key")
		}

		if _, err := del.ExecContext(ctx, key); err != nil {
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

func uniqueKeys(keys []string) []string {
	seen := map[string]struct{}{}
	uniq := make([]string, 0, len(keys))
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}

		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		uniq = append(uniq, k)
	}
	return uniq
}
