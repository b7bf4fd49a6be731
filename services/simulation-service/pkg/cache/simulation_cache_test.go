package cache

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedResponse struct {
	ID     string  `json:"id"`
	Spread float64 `json:"spread"`
}

func newTestCache(t *testing.T) (*SimulationCacheService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewSimulationCacheService(client, time.Hour, logger), mr
}

func TestRequestDigest(t *testing.T) {
	a, err := RequestDigest(map[string]interface{}{"game": "TEST_GAME_1", "spread": -1.5})
	require.NoError(t, err)
	b, err := RequestDigest(map[string]interface{}{"spread": -1.5, "game": "TEST_GAME_1"})
	require.NoError(t, err)
	c, err := RequestDigest(map[string]interface{}{"game": "TEST_GAME_2", "spread": -1.5})
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.Equal(t, a, b, "map keys are marshalled in sorted order")
	assert.NotEqual(t, a, c)

	_, err = RequestDigest(func() {})
	assert.Error(t, err)
}

func TestSetAndGetSimulation(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.SetSimulation(ctx, "sim-1", "digest-1", cachedResponse{ID: "sim-1", Spread: -3}))

	data, err := cache.GetSimulation(ctx, "sim-1")
	require.NoError(t, err)
	var got cachedResponse
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, cachedResponse{ID: "sim-1", Spread: -3}, got)

	data, err = cache.LookupRequest(ctx, "digest-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"sim-1","spread":-3}`, string(data))

	assert.Equal(t, time.Hour, mr.TTL(resultPrefix+"sim-1"))
	assert.Equal(t, time.Hour, mr.TTL(requestPrefix+"digest-1"))
}

func TestSetSimulation_WithoutDigest(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.SetSimulation(ctx, "slate-1", "", cachedResponse{ID: "slate-1"}))

	assert.True(t, mr.Exists(resultPrefix+"slate-1"))
	assert.Len(t, mr.Keys(), 1)
}

func TestCacheMiss(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	_, err := cache.GetSimulation(ctx, "missing")
	assert.ErrorIs(t, err, ErrCacheMiss)

	_, err = cache.LookupRequest(ctx, "missing")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestCacheExpiry(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.SetSimulation(ctx, "sim-1", "digest-1", cachedResponse{ID: "sim-1"}))
	mr.FastForward(time.Hour + time.Second)

	_, err := cache.LookupRequest(ctx, "digest-1")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestCacheUnavailable(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()
	mr.Close()

	err := cache.SetSimulation(ctx, "sim-1", "digest-1", cachedResponse{ID: "sim-1"})
	require.Error(t, err)

	_, err = cache.GetSimulation(ctx, "sim-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)

	status := cache.GetStatus(ctx)
	assert.Equal(t, false, status["connected"])
}

func TestCircuitBreakerOpensOnFailures(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()
	mr.Close()

	for i := 0; i < 5; i++ {
		_, err := cache.GetSimulation(ctx, "sim-1")
		require.Error(t, err)
		assert.NotErrorIs(t, err, gobreaker.ErrOpenState)
	}

	_, err := cache.LookupRequest(ctx, "digest-1")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	err = cache.SetSimulation(ctx, "sim-1", "digest-1", cachedResponse{ID: "sim-1"})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, "open", cache.GetStatus(ctx)["breaker"])
}

func TestCircuitBreakerIgnoresMisses(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_, err := cache.GetSimulation(ctx, "missing")
		require.ErrorIs(t, err, ErrCacheMiss)
	}
	assert.Equal(t, "closed", cache.GetStatus(ctx)["breaker"])
}

func TestGetStatusAndFlush(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.SetSimulation(ctx, "sim-1", "digest-1", cachedResponse{ID: "sim-1"}))
	require.NoError(t, cache.SetSimulation(ctx, "sim-2", "digest-2", cachedResponse{ID: "sim-2"}))
	require.NoError(t, mr.Set("unrelated", "kept"))

	status := cache.GetStatus(ctx)
	assert.Equal(t, true, status["connected"])
	assert.Equal(t, 2, status["simulation_keys"])
	assert.Equal(t, 2, status["request_keys"])
	assert.Equal(t, int64(5), status["db_size"])

	require.NoError(t, cache.FlushSimulationCache(ctx))
	assert.Equal(t, []string{"unrelated"}, mr.Keys())
}
