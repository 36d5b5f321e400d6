package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fleet-dashboard/internal/api/routes"
	"fleet-dashboard/internal/config"
	"fleet-dashboard/internal/insight"
	"fleet-dashboard/internal/persistence"
	"fleet-dashboard/internal/store"
	"fleet-dashboard/internal/websocket"
	"fleet-dashboard/pkg/database"
	"fleet-dashboard/pkg/kv"
	"fleet-dashboard/pkg/ratelimit"
	"fleet-dashboard/pkg/redis"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

func main() {
	// Load configuration
	cfg := config.Load()
	configureLogging(cfg)
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("Invalid configuration")
	}

	backend, redisClient, err := openBackend(cfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to open storage backend")
	}

	adapter := persistence.NewAdapter(backend, persistence.KeysWithPrefix(cfg.StorageKeyPrefix))

	writer := persistence.NewWriter(adapter, persistence.WriterConfig{
		FlushInterval: cfg.Persistence.FlushInterval,
		RetryAttempts: cfg.Persistence.RetryAttempts,
		RetryBackoff:  cfg.Persistence.RetryBackoff,
		ErrorBuffer:   cfg.Persistence.QueueSize,
	})
	writer.Start()
	go func() {
		for err := range writer.Errors() {
			log.WithError(err).Error("Fleet data was not saved; the dashboard keeps running on in-memory state")
		}
	}()

	loadCtx, cancelLoad := context.WithTimeout(context.Background(), 10*time.Second)
	fleet := store.New(writer, adapter.Keys())
	fleet.Initialize(adapter.LoadAll(loadCtx))
	cancelLoad()

	wsManager := websocket.NewManager(cfg.AllowedOrigins...)
	if err := wsManager.Start(); err != nil {
		log.WithError(err).Fatal("Failed to start WebSocket manager")
	}
	unsubscribe := fleet.Subscribe(wsManager)

	insights := insight.NewService(insight.NewGenerator(context.Background(), cfg.Insight), cfg.Insight.Timeout)

	limiter, stopLimiter := newRateLimiter(cfg, redisClient)

	// Setup Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(corsConfig(cfg.AllowedOrigins)))

	routes.SetupRoutes(router, routes.Dependencies{
		Store:       fleet,
		Insights:    insights,
		WebSocket:   wsManager,
		Backend:     cfg.StorageBackend,
		Storage:     adapter,
		Writer:      writer,
		RedisClient: redisClient,
		RateLimiter: limiter,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Graceful shutdown handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		log.WithField("signal", sig.String()).Info("Shutdown signal received")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("Server shutdown error")
		}
		unsubscribe()
		if err := wsManager.Stop(); err != nil {
			log.WithError(err).Error("WebSocket manager shutdown error")
		}
		if err := writer.Stop(shutdownCtx); err != nil {
			log.WithError(err).Error("Failed to flush pending fleet data")
		}
		stopLimiter()
		if redisClient != nil {
			_ = redisClient.Close()
		} else if err := backend.Close(); err != nil {
			log.WithError(err).Error("Failed to close storage backend")
		}
		cancel()
	}()

	log.WithFields(log.Fields{"port": cfg.Port, "backend": cfg.StorageBackend}).Info("Server starting")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Fatal("Server error")
	}

	<-ctx.Done()
	log.Info("Server stopped gracefully")
}

func configureLogging(cfg *config.Config) {
	if cfg.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithField("level", cfg.LogLevel).Warn("Unknown log level, using info")
		level = log.InfoLevel
	}
	log.SetLevel(level)
	if level < log.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
}

// openBackend connects the configured key-value backend. The managed Redis
// client is returned as well so /health can report on it.
func openBackend(cfg *config.Config) (kv.Store, *redis.Client, error) {
	switch cfg.StorageBackend {
	case config.BackendRedis:
		client := redis.NewClient(cfg.Redis)
		status := client.HealthCheck()
		if status.IsConnected {
			log.WithField("address", status.ConnectionInfo).Info("Redis connected")
		} else {
			log.WithField("error", status.Error).Warn("Redis connection failed, will retry automatically")
		}
		return kv.NewRedisStore(client), client, nil

	case config.BackendMongo:
		db, err := database.Connect(cfg.MongoURI)
		if err != nil {
			return nil, nil, err
		}
		return kv.NewMongoStore(database.KeyValueCollection(db, cfg.MongoCollection)), nil, nil

	default:
		log.Warn("Using in-memory storage; fleet data is lost on restart")
		return kv.NewMemoryStore(), nil, nil
	}
}

// newRateLimiter shares limits through Redis when it is the backend and
// keeps them in process otherwise. It returns nil when limiting is off.
func newRateLimiter(cfg *config.Config, redisClient *redis.Client) (ratelimit.RateLimiter, func()) {
	if !cfg.RateLimitEnabled {
		return nil, func() {}
	}

	limitConfig := ratelimit.DefaultConfig()
	limitConfig.RedisKeyPrefix = cfg.StorageKeyPrefix + "ratelimit:"

	if redisClient != nil {
		if !redisClient.IsConnected() {
			log.Warn("Redis not reachable yet, rate limit checks pass until it reconnects")
		}
		log.Info("Rate limiting backed by Redis")
		return ratelimit.NewRedisRateLimiter(redisClient, limitConfig), func() {}
	}

	limiter := ratelimit.NewMemoryRateLimiter(limitConfig)
	return limiter, limiter.Stop
}

func corsConfig(allowedOrigins []string) cors.Config {
	config := cors.Config{
		AllowMethods:  []string{"GET", "POST", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "X-API-Key", "Upgrade", "Connection", "Sec-WebSocket-Key", "Sec-WebSocket-Version", "Sec-WebSocket-Protocol"},
		ExposeHeaders: []string{"Content-Length", "Retry-After", "X-RateLimit-Limit", "X-RateLimit-Reset"},
	}

	// Handle wildcard origin for development
	if len(allowedOrigins) == 1 && allowedOrigins[0] == "*" {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = allowedOrigins
		config.AllowCredentials = true
	}
	return config
}
