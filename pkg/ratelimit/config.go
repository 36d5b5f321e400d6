package ratelimit

import (
	"time"
)

// Config holds the configuration for rate limiting
type Config struct {
	// Limits per endpoint category; "default" covers everything unmapped.
	Limits map[string]RateLimit `json:"limits"`

	// Redis key prefix for rate limiting data
	RedisKeyPrefix string `json:"redisKeyPrefix"`

	// Cleanup interval for idle in-memory buckets
	CleanupInterval time.Duration `json:"cleanupInterval"`

	Enabled bool `json:"enabled"`
}

// DefaultConfig returns a default rate limiting configuration
func DefaultConfig() *Config {
	return &Config{
		Limits: map[string]RateLimit{
			"vehicles":        {RequestsPerMinute: 120, BurstSize: 30, WindowSize: time.Minute},
			"vehicles_create": {RequestsPerMinute: 20, BurstSize: 5, WindowSize: time.Minute},
			"vehicles_update": {RequestsPerMinute: 60, BurstSize: 15, WindowSize: time.Minute},
			"vehicles_delete": {RequestsPerMinute: 10, BurstSize: 3, WindowSize: time.Minute},

			"maintenance":        {RequestsPerMinute: 120, BurstSize: 30, WindowSize: time.Minute},
			"maintenance_create": {RequestsPerMinute: 30, BurstSize: 10, WindowSize: time.Minute},

			"fuel_logs": {RequestsPerMinute: 120, BurstSize: 30, WindowSize: time.Minute},
			"dashboard": {RequestsPerMinute: 120, BurstSize: 30, WindowSize: time.Minute},

			// Each generation is a paid model call
			"insights":          {RequestsPerMinute: 60, BurstSize: 15, WindowSize: time.Minute},
			"insights_generate": {RequestsPerMinute: 4, BurstSize: 2, WindowSize: time.Minute},

			"websocket": {RequestsPerMinute: 10, BurstSize: 5, WindowSize: time.Minute},
			"health":    {RequestsPerMinute: 1000, BurstSize: 100, WindowSize: time.Minute},

			"default": {RequestsPerMinute: 60, BurstSize: 15, WindowSize: time.Minute},
		},
		RedisKeyPrefix:  "ratelimit:",
		CleanupInterval: 5 * time.Minute,
		Enabled:         true,
	}
}

// routeCategories maps "METHOD route-template" to a limit category. Route
// templates are gin's FullPath values.
var routeCategories = map[string]string{
	"GET /api/v1/vehicles":              "vehicles",
	"GET /api/v1/vehicles/:id":          "vehicles",
	"POST /api/v1/vehicles":             "vehicles_create",
	"PATCH /api/v1/vehicles/:id/status": "vehicles_update",
	"DELETE /api/v1/vehicles/:id":       "vehicles_delete",
	"GET /api/v1/maintenance":           "maintenance",
	"POST /api/v1/maintenance":          "maintenance_create",
	"GET /api/v1/maintenance/types":     "maintenance",
	"GET /api/v1/fuel-logs":             "fuel_logs",
	"GET /api/v1/dashboard":             "dashboard",
	"GET /api/v1/insights":              "insights",
	"POST /api/v1/insights":             "insights_generate",
	"GET /api/v1/ws":                    "websocket",
	"GET /api/v1/ws/clients":            "health",
	"GET /api/v1/health":                "health",
}

// CategoryFor returns the limit category of a route, or "default".
func CategoryFor(method, route string) string {
	if category, ok := routeCategories[method+" "+route]; ok {
		return category
	}
	return "default"
}

// LimitFor returns the limit of category, falling back to "default".
func (c *Config) LimitFor(category string) RateLimit {
	if limit, ok := c.Limits[category]; ok {
		return limit
	}
	if limit, ok := c.Limits["default"]; ok {
		return limit
	}
	return RateLimit{RequestsPerMinute: 60, BurstSize: 15, WindowSize: time.Minute}
}
