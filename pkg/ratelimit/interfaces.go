package ratelimit

import (
	"time"
)

// RateLimiter decides whether a client may call an endpoint category.
type RateLimiter interface {
	// Allow consumes one request. When it is refused, the duration tells the
	// client how long to wait.
	Allow(clientID string, category string) (bool, time.Duration, error)
	Limit(category string) RateLimit
	GetStats() RateLimiterStats
}

// RateLimit defines the configuration for rate limiting
type RateLimit struct {
	RequestsPerMinute int           `json:"requestsPerMinute"`
	BurstSize         int           `json:"burstSize"`
	WindowSize        time.Duration `json:"windowSize"`
}

// RateLimiterStats provides statistics about rate limiting
type RateLimiterStats struct {
	TotalRequests   int64 `json:"totalRequests"`
	BlockedRequests int64 `json:"blockedRequests"`
	ActiveBuckets   int   `json:"activeBuckets"`
}

// TokenBucket is the per client and category state of the memory limiter.
type TokenBucket struct {
	Capacity   float64   `json:"capacity"`
	Tokens     float64   `json:"tokens"`
	RefillRate float64   `json:"refillRate"` // tokens per second
	LastRefill time.Time `json:"lastRefill"`
}
