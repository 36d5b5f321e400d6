package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Storage backends accepted by STORAGE_BACKEND.
const (
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
	BackendMemory = "memory"
)

type Config struct {
	Port           string
	AllowedOrigins []string
	LogLevel       string
	LogFormat      string

	StorageBackend   string
	StorageKeyPrefix string
	Redis            RedisConfig
	MongoURI         string
	MongoCollection  string

	Persistence PersistenceConfig
	Insight     InsightConfig

	RateLimitEnabled bool
}

// RedisConfig configures the managed Redis client.
type RedisConfig struct {
	URL          string
	Host         string
	Port         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	MaxRetries   int
	RetryDelay   time.Duration
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolTimeout  time.Duration
}

// PersistenceConfig tunes the background writer.
type PersistenceConfig struct {
	FlushInterval time.Duration // 0 flushes as soon as a write is queued
	RetryAttempts int
	RetryBackoff  time.Duration
	QueueSize     int
}

type InsightConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Load reads configuration from the environment, after merging an optional
// .env file.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Debugf("No .env file loaded: %v", err)
	}

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("API_KEY")
	}

	return &Config{
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:5173")),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "text"),

		StorageBackend:   strings.ToLower(getEnv("STORAGE_BACKEND", BackendRedis)),
		StorageKeyPrefix: getEnv("STORAGE_KEY_PREFIX", "zenith_"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnv("REDIS_PORT", "6379"),
			Password:     os.Getenv("REDIS_PASSWORD"),
			DB:           getEnvInt("REDIS_DB", 0),
			PoolSize:     getEnvInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvInt("REDIS_MIN_IDLE_CONNS", 2),
			MaxRetries:   getEnvInt("REDIS_MAX_RETRIES", 3),
			RetryDelay:   getEnvDuration("REDIS_RETRY_DELAY", 500*time.Millisecond),
			DialTimeout:  getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getEnvDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getEnvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			PoolTimeout:  getEnvDuration("REDIS_POOL_TIMEOUT", 4*time.Second),
		},
		MongoURI:        getEnv("MONGO_URI", "mongodb://localhost:27017/fleet_dashboard"),
		MongoCollection: getEnv("MONGO_COLLECTION", "fleet_kv"),

		Persistence: PersistenceConfig{
			FlushInterval: getEnvDuration("PERSIST_FLUSH_INTERVAL", 0),
			RetryAttempts: getEnvInt("PERSIST_RETRY_ATTEMPTS", 3),
			RetryBackoff:  getEnvDuration("PERSIST_RETRY_BACKOFF", 200*time.Millisecond),
			QueueSize:     getEnvInt("PERSIST_QUEUE_SIZE", 64),
		},
		Insight: InsightConfig{
			APIKey:  apiKey,
			Model:   getEnv("INSIGHT_MODEL", "gemini-3-flash-preview"),
			Timeout: getEnvDuration("INSIGHT_TIMEOUT", 60*time.Second),
		},

		RateLimitEnabled: getEnvBool("RATE_LIMIT_ENABLED", true),
	}
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.StorageBackend {
	case BackendRedis, BackendMongo, BackendMemory:
	default:
		return fmt.Errorf("unknown storage backend %q (want redis, mongo or memory)", c.StorageBackend)
	}

	if c.Persistence.RetryAttempts < 0 {
		return fmt.Errorf("persistence retry attempts must be >= 0, got %d", c.Persistence.RetryAttempts)
	}
	if c.Persistence.RetryBackoff < 0 {
		return fmt.Errorf("persistence retry backoff must be >= 0, got %v", c.Persistence.RetryBackoff)
	}
	if c.Persistence.FlushInterval < 0 {
		return fmt.Errorf("persistence flush interval must be >= 0, got %v", c.Persistence.FlushInterval)
	}
	if c.Persistence.QueueSize <= 0 {
		return fmt.Errorf("persistence queue size must be > 0, got %d", c.Persistence.QueueSize)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
		log.Warnf("Ignoring invalid integer %s=%q", key, val)
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
		log.Warnf("Ignoring invalid duration %s=%q", key, val)
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
		log.Warnf("Ignoring invalid boolean %s=%q", key, val)
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
