package main

import (
	"strings"
	"testing"
	"time"

	"fleet-dashboard/internal/config"
	"fleet-dashboard/pkg/ratelimit"
	"fleet-dashboard/pkg/redis"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRateLimiter_Disabled(t *testing.T) {
	limiter, stop := newRateLimiter(&config.Config{RateLimitEnabled: false}, nil)
	defer stop()

	assert.Nil(t, limiter)
}

func TestNewRateLimiter_MemoryWithoutRedis(t *testing.T) {
	limiter, stop := newRateLimiter(&config.Config{RateLimitEnabled: true, StorageKeyPrefix: "test_"}, nil)
	defer stop()

	assert.IsType(t, &ratelimit.MemoryRateLimiter{}, limiter)
}

func TestNewRateLimiter_SurvivesRedisReconnect(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	host, port, _ := strings.Cut(mr.Addr(), ":")
	redisClient := redis.NewClient(config.RedisConfig{Host: host, Port: port, PoolSize: 2})
	defer redisClient.Close()
	require.True(t, redisClient.IsConnected())

	cfg := &config.Config{RateLimitEnabled: true, StorageKeyPrefix: "test_"}
	limiter, stop := newRateLimiter(cfg, redisClient)
	defer stop()
	require.IsType(t, &ratelimit.RedisRateLimiter{}, limiter)

	allowed, _, err := limiter.Allow("client", "vehicles")
	require.NoError(t, err)
	assert.True(t, allowed)

	// drop the server so the managed client closes and replaces its connection
	mr.Close()
	assert.False(t, redisClient.HealthCheck().IsConnected)
	require.NoError(t, mr.Restart())

	require.Eventually(t, redisClient.IsConnected, 10*time.Second, 50*time.Millisecond)

	allowed, _, err = limiter.Allow("client", "vehicles")
	require.NoError(t, err)
	assert.True(t, allowed)
}
