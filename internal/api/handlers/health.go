package handlers

import (
	"context"
	"net/http"
	"time"

	"fleet-dashboard/internal/persistence"
	"fleet-dashboard/internal/websocket"
	"fleet-dashboard/pkg/redis"

	"github.com/gin-gonic/gin"
)

// Pinger checks the durable store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// WriterStatser reports background persistence progress.
type WriterStatser interface {
	Stats() persistence.WriterStats
}

type HealthHandler struct {
	backend     string
	storage     Pinger
	writer      WriterStatser
	redisClient *redis.Client
	wsManager   *websocket.Manager
}

type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Services  map[string]interface{} `json:"services"`
}

func NewHealthHandler(backend string, storage Pinger, writer WriterStatser) *HealthHandler {
	return &HealthHandler{
		backend: backend,
		storage: storage,
		writer:  writer,
	}
}

// SetRedisClient adds managed-client details to the report.
func (h *HealthHandler) SetRedisClient(client *redis.Client) {
	h.redisClient = client
}

func (h *HealthHandler) SetWebSocketManager(manager *websocket.Manager) {
	h.wsManager = manager
}

// HealthCheck reports storage reachability and persistence progress. A
// storage outage is reported as unhealthy even though the in-memory fleet
// keeps serving requests.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Timestamp: time.Now(),
		Services:  make(map[string]interface{}),
	}

	storageStatus := h.checkStorage(c.Request.Context())
	response.Services["storage"] = storageStatus
	healthy := storageStatus["healthy"].(bool)

	if h.writer != nil {
		stats := h.writer.Stats()
		response.Services["persistence"] = stats
	}

	if h.redisClient != nil {
		response.Services["redis"] = h.checkRedis()
	}

	if h.wsManager != nil {
		response.Services["websocket"] = h.wsManager.GetClientStats()
	}

	if healthy {
		response.Status = "healthy"
		c.JSON(http.StatusOK, response)
	} else {
		response.Status = "unhealthy"
		c.JSON(http.StatusServiceUnavailable, response)
	}
}

func (h *HealthHandler) checkStorage(parent context.Context) map[string]interface{} {
	status := map[string]interface{}{
		"service": h.backend,
		"healthy": false,
	}

	if h.storage == nil {
		status["error"] = "Storage not initialized"
		return status
	}

	ctx, cancel := context.WithTimeout(parent, 5*time.Second)
	defer cancel()

	start := time.Now()
	if err := h.storage.Ping(ctx); err != nil {
		status["error"] = err.Error()
		return status
	}
	status["healthy"] = true
	status["message"] = "Connected"
	status["responseTime"] = time.Since(start).String()
	return status
}

func (h *HealthHandler) checkRedis() map[string]interface{} {
	healthStatus := h.redisClient.HealthCheck()
	status := map[string]interface{}{
		"healthy":         healthStatus.IsConnected,
		"connectionInfo":  healthStatus.ConnectionInfo,
		"responseTime":    healthStatus.ResponseTime.String(),
		"lastPing":        healthStatus.LastPing,
		"connectionStats": h.redisClient.GetConnectionStats(),
	}
	if healthStatus.Error != "" {
		status["error"] = healthStatus.Error
	}
	return status
}
