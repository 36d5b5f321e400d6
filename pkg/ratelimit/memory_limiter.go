package ratelimit

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// MemoryRateLimiter is a token-bucket limiter kept in process memory.
type MemoryRateLimiter struct {
	config *Config
	stats  RateLimiterStats
	tokens map[string]*TokenBucket // clientID:category -> bucket
	mu     sync.Mutex
	done   chan struct{}
	once   sync.Once
	now    func() time.Time
}

// NewMemoryRateLimiter creates a new in-memory rate limiter
func NewMemoryRateLimiter(config *Config) *MemoryRateLimiter {
	if config == nil {
		config = DefaultConfig()
	}

	limiter := &MemoryRateLimiter{
		config: config,
		tokens: make(map[string]*TokenBucket),
		done:   make(chan struct{}),
		now:    time.Now,
	}

	if config.CleanupInterval > 0 {
		go limiter.cleanupExpiredTokens()
	}
	return limiter
}

// Allow takes a token from the client's bucket for category.
func (r *MemoryRateLimiter) Allow(clientID string, category string) (bool, time.Duration, error) {
	if !r.config.Enabled {
		return true, 0, nil
	}

	atomic.AddInt64(&r.stats.TotalRequests, 1)
	limit := r.config.LimitFor(category)
	key := fmt.Sprintf("%s:%s", clientID, category)

	r.mu.Lock()
	defer r.mu.Unlock()

	bucket := r.getOrCreateTokenBucket(key, limit)
	now := r.now()

	elapsed := now.Sub(bucket.LastRefill).Seconds()
	if elapsed > 0 {
		bucket.Tokens = math.Min(bucket.Capacity, bucket.Tokens+elapsed*bucket.RefillRate)
		bucket.LastRefill = now
	}

	if bucket.Tokens >= 1 {
		bucket.Tokens--
		return true, 0, nil
	}

	atomic.AddInt64(&r.stats.BlockedRequests, 1)
	if bucket.RefillRate <= 0 {
		return false, limit.WindowSize, nil
	}
	wait := time.Duration((1 - bucket.Tokens) / bucket.RefillRate * float64(time.Second))
	return false, wait, nil
}

// getOrCreateTokenBucket must be called with r.mu held.
func (r *MemoryRateLimiter) getOrCreateTokenBucket(key string, limit RateLimit) *TokenBucket {
	if bucket, exists := r.tokens[key]; exists {
		return bucket
	}

	bucket := &TokenBucket{
		Capacity:   float64(limit.BurstSize),
		Tokens:     float64(limit.BurstSize),
		RefillRate: float64(limit.RequestsPerMinute) / 60,
		LastRefill: r.now(),
	}
	r.tokens[key] = bucket
	return bucket
}

func (r *MemoryRateLimiter) Limit(category string) RateLimit {
	return r.config.LimitFor(category)
}

// GetStats returns current rate limiter statistics
func (r *MemoryRateLimiter) GetStats() RateLimiterStats {
	r.mu.Lock()
	active := len(r.tokens)
	r.mu.Unlock()

	return RateLimiterStats{
		TotalRequests:   atomic.LoadInt64(&r.stats.TotalRequests),
		BlockedRequests: atomic.LoadInt64(&r.stats.BlockedRequests),
		ActiveBuckets:   active,
	}
}

// Stop ends the cleanup loop.
func (r *MemoryRateLimiter) Stop() {
	r.once.Do(func() { close(r.done) })
}

// cleanupExpiredTokens drops buckets idle for more than an hour.
func (r *MemoryRateLimiter) cleanupExpiredTokens() {
	ticker := time.NewTicker(r.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.mu.Lock()
			now := r.now()
			for key, bucket := range r.tokens {
				if now.Sub(bucket.LastRefill) > time.Hour {
					delete(r.tokens, key)
				}
			}
			r.mu.Unlock()
		case <-r.done:
			return
		}
	}
}
