package cache

import (
	"context"
	"database/sql"
	"servicearea-service/internal/adapters/repositories"
	"servicearea-service/internal/domain"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, repositories.InitSchema(db))
	return db
}

func band(level int, r float64) domain.IsochronePolygon {
	return domain.IsochronePolygon{
		CostLevel: level,
		Geometry:  orb.MultiPolygon{{{{-r, -r}, {r, -r}, {r, r}, {-r, r}, {-r, -r}}}},
	}
}

func TestSqliteIsochroneCache_RoundTrip(t *testing.T) {
	c := NewSqliteIsochroneCache(openTestDB(t))
	ctx := context.Background()

	require.NoError(t, c.PutMany(ctx, map[string][]domain.IsochronePolygon{
		"a": {band(2, 0.002), band(1, -112.0741234567)},
		"b": {band(1, 3)},
	}))

	got, err := c.GetMany(ctx, []string{"a", "missing", "a", " "})
	require.NoError(t, err)

	require.Len(t, got, 1)
	require.Len(t, got["a"], 2)
	assert.Equal(t, 1, got["a"][0].CostLevel, "bands come back in level order")
	assert.Equal(t, band(1, -112.0741234567).Geometry, got["a"][0].Geometry)
	assert.Equal(t, band(2, 0.002).Geometry, got["a"][1].Geometry)
}

func TestSqliteIsochroneCache_PutReplacesKey(t *testing.T) {
	c := NewSqliteIsochroneCache(openTestDB(t))
	ctx := context.Background()

	require.NoError(t, c.PutMany(ctx, map[string][]domain.IsochronePolygon{"a": {band(1, 1), band(2, 2)}}))
	require.NoError(t, c.PutMany(ctx, map[string][]domain.IsochronePolygon{"a": {band(1, 5)}}))

	got, err := c.GetMany(ctx, []string{"a"})
	require.NoError(t, err)
	require.Len(t, got["a"], 1)
	assert.Equal(t, band(1, 5).Geometry, got["a"][0].Geometry)
}

func TestSqliteIsochroneCache_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := (&SqliteIsochroneCache{}).GetMany(ctx, []string{"a"})
	assert.Error(t, err)

	c := NewSqliteIsochroneCache(openTestDB(t))
	assert.Error(t, c.PutMany(ctx, map[string][]domain.IsochronePolygon{"": {band(1, 1)}}))

	got, err := c.GetMany(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRedisResultCache(t *testing.T) {
	mr := miniredis.RunT(t)
	c := NewRedisResultCache(OpenRedis(mr.Addr(), ""), time.Minute)
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "k", []byte(`{"run_id":"x"}`)))

	b, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"run_id":"x"}`, string(b))
	assert.Equal(t, time.Minute, mr.TTL(resultKeyPrefix+"k"))

	mr.FastForward(2 * time.Minute)
	_, ok, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok, "entry expires after the ttl")
}

func TestRedisResultCache_Unavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	c := NewRedisResultCache(OpenRedis(mr.Addr(), ""), time.Minute)
	mr.Close()

	_, _, err := c.Get(context.Background(), "k")
	assert.Error(t, err)

	assert.Nil(t, OpenRedis("", ""))
}
