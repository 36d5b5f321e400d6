package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"fleet-dashboard/internal/config"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Client owns a go-redis connection and keeps it alive: a background loop
// pings it periodically and a second loop reconnects with backoff after a
// failed ping.
type Client struct {
	client        *redis.Client
	config        config.RedisConfig
	mu            sync.RWMutex
	isConnected   bool
	reconnectChan chan struct{}
	ctx           context.Context
	cancel        context.CancelFunc
	checkInterval time.Duration
}

type HealthStatus struct {
	IsConnected    bool          `json:"isConnected"`
	LastPing       time.Time     `json:"lastPing"`
	ResponseTime   time.Duration `json:"responseTime"`
	ConnectionInfo string        `json:"connectionInfo"`
	Error          string        `json:"error,omitempty"`
}

// NewClient connects and starts the health and reconnect loops.
func NewClient(cfg config.RedisConfig) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	c := &Client{
		config:        cfg,
		reconnectChan: make(chan struct{}, 1),
		ctx:           ctx,
		cancel:        cancel,
		checkInterval: 30 * time.Second,
	}

	c.connect()
	go c.healthCheckLoop()
	go c.reconnectLoop()

	return c
}

func (c *Client) options() *redis.Options {
	if c.config.URL != "" {
		opt, err := redis.ParseURL(c.config.URL)
		if err == nil {
			c.applyPoolSettings(opt)
			return opt
		}
		log.WithError(err).Warn("Failed to parse REDIS_URL, falling back to host:port")
	}

	opt := &redis.Options{
		Addr:     c.address(),
		Password: c.config.Password,
		DB:       c.config.DB,
	}
	c.applyPoolSettings(opt)
	return opt
}

func (c *Client) applyPoolSettings(opt *redis.Options) {
	if c.config.PoolSize > 0 {
		opt.PoolSize = c.config.PoolSize
	}
	opt.MinIdleConns = c.config.MinIdleConns
	opt.MaxRetries = c.config.MaxRetries
	if c.config.RetryDelay > 0 {
		opt.MinRetryBackoff = c.config.RetryDelay
	}
	if c.config.DialTimeout > 0 {
		opt.DialTimeout = c.config.DialTimeout
	}
	if c.config.ReadTimeout > 0 {
		opt.ReadTimeout = c.config.ReadTimeout
	}
	if c.config.WriteTimeout > 0 {
		opt.WriteTimeout = c.config.WriteTimeout
	}
	if c.config.PoolTimeout > 0 {
		opt.PoolTimeout = c.config.PoolTimeout
	}
}

func (c *Client) address() string {
	return fmt.Sprintf("%s:%s", c.config.Host, c.config.Port)
}

// connect replaces the underlying client and records whether it answers a ping.
func (c *Client) connect() {
	client := redis.NewClient(c.options())

	c.mu.Lock()
	c.client = client
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := client.Ping(ctx).Err()

	c.mu.Lock()
	c.isConnected = err == nil
	c.mu.Unlock()

	if err != nil {
		log.WithError(err).Warn("Redis connection test failed")
		return
	}
	log.WithField("addr", client.Options().Addr).Info("Redis connected")
}

// GetClient returns the current go-redis client (thread-safe)
func (c *Client) GetClient() *redis.Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.client
}

func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isConnected
}

// HealthCheck pings the server and schedules a reconnect when it fails.
func (c *Client) HealthCheck() HealthStatus {
	client := c.GetClient()

	status := HealthStatus{ConnectionInfo: c.address()}
	if client == nil {
		status.Error = "Redis client not initialized"
		return status
	}
	status.ConnectionInfo = client.Options().Addr

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	start := time.Now()
	err := client.Ping(ctx).Err()
	status.ResponseTime = time.Since(start)
	status.LastPing = time.Now()

	c.mu.Lock()
	c.isConnected = err == nil
	c.mu.Unlock()

	if err != nil {
		status.Error = err.Error()
		c.triggerReconnect()
		return status
	}

	status.IsConnected = true
	return status
}

func (c *Client) triggerReconnect() {
	select {
	case c.reconnectChan <- struct{}{}:
	default:
		// reconnect already pending
	}
}

func (c *Client) healthCheckLoop() {
	ticker := time.NewTicker(c.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			if status := c.HealthCheck(); !status.IsConnected {
				log.WithField("error", status.Error).Warn("Redis health check failed")
			}
		}
	}
}

func (c *Client) reconnectLoop() {
	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-c.reconnectChan:
			if c.IsConnected() {
				continue
			}

			log.Info("Attempting to reconnect to Redis")
			if old := c.GetClient(); old != nil {
				_ = old.Close()
			}
			c.connect()

			if c.IsConnected() {
				log.Info("Reconnected to Redis")
				backoff = time.Second
				continue
			}

			log.WithField("retry_in", backoff).Warn("Redis reconnection failed")
			select {
			case <-time.After(backoff):
			case <-c.ctx.Done():
				return
			}
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			c.triggerReconnect()
		}
	}
}

// Close stops the background loops and closes the connection.
func (c *Client) Close() error {
	c.cancel()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// GetConnectionStats returns connection pool statistics
func (c *Client) GetConnectionStats() map[string]interface{} {
	client := c.GetClient()
	if client == nil {
		return map[string]interface{}{
			"error": "Redis client not initialized",
		}
	}

	stats := client.PoolStats()
	return map[string]interface{}{
		"hits":        stats.Hits,
		"misses":      stats.Misses,
		"timeouts":    stats.Timeouts,
		"totalConns":  stats.TotalConns,
		"idleConns":   stats.IdleConns,
		"staleConns":  stats.StaleConns,
		"isConnected": c.IsConnected(),
	}
}
