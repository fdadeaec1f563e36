package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yusufkecer/healthhub/internal/stats"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *RedisStatsCache, *RedisRevocations) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb, err := NewRedisClient(context.Background(), mr.Addr(), "")
	require.NoError(t, err)
	t.Cleanup(func() { rdb.Close() })
	return mr, NewRedisStatsCache(rdb), NewRedisRevocations(rdb)
}

func TestRedisStatsCache(t *testing.T) {
	mr, c, _ := newRedis(t)
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "stats:france")
	require.NoError(t, err)
	assert.False(t, ok)

	in := &stats.Result{
		Query:   "France",
		Country: stats.CountryData{Country: "France", Population: 65e6},
		HealthStats: []stats.HealthStat{
			{Illness: "COVID-19 Total Cases", Cases: 1000, Type: stats.TypeCOVID},
		},
		IsReal: true,
	}
	require.NoError(t, c.Set(ctx, "stats:france", in, time.Minute))

	out, ok, err := c.Get(ctx, "stats:france")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "France", out.Country.Country)
	assert.Len(t, out.HealthStats, 1)

	mr.FastForward(2 * time.Minute)
	_, ok, err = c.Get(ctx, "stats:france")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisRevocations(t *testing.T) {
	mr, _, rev := newRedis(t)
	ctx := context.Background()

	revoked, err := rev.IsRevoked(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, rev.Revoke(ctx, "abc", time.Now().Add(time.Hour)))
	revoked, err = rev.IsRevoked(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, revoked)

	require.NoError(t, rev.Revoke(ctx, "old", time.Now().Add(-time.Minute)))
	assert.False(t, mr.Exists("revoked:old"))
}

func TestNewRedisClientUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisClient(context.Background(), addr, "")
	assert.Error(t, err)
}
