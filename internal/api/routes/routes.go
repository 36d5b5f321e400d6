package routes

import (
	"fleet-dashboard/internal/api/handlers"
	"fleet-dashboard/internal/api/middleware"
	"fleet-dashboard/internal/insight"
	"fleet-dashboard/internal/store"
	"fleet-dashboard/internal/websocket"
	"fleet-dashboard/pkg/ratelimit"
	"fleet-dashboard/pkg/redis"

	"github.com/gin-gonic/gin"
)

// Dependencies are the components the HTTP layer serves.
type Dependencies struct {
	Store     *store.Store
	Insights  *insight.Service
	WebSocket *websocket.Manager

	Backend string
	Storage handlers.Pinger
	Writer  handlers.WriterStatser

	RedisClient *redis.Client         // optional, reported by /health
	RateLimiter ratelimit.RateLimiter // optional, nil disables limiting
}

func SetupRoutes(router *gin.Engine, deps Dependencies) {
	fleetHandler := handlers.NewFleetHandler(deps.Store)
	maintenanceHandler := handlers.NewMaintenanceHandler(deps.Store)
	dashboardHandler := handlers.NewDashboardHandler(deps.Store)
	insightHandler := handlers.NewInsightHandler(deps.Store, deps.Insights)
	wsHandler := handlers.NewWebSocketHandler(deps.WebSocket)

	healthHandler := handlers.NewHealthHandler(deps.Backend, deps.Storage, deps.Writer)
	healthHandler.SetWebSocketManager(deps.WebSocket)
	if deps.RedisClient != nil {
		healthHandler.SetRedisClient(deps.RedisClient)
	}

	api := router.Group("/api/v1")
	if deps.RateLimiter != nil {
		api.Use(middleware.RateLimitMiddleware(deps.RateLimiter))
	}

	api.GET("/health", healthHandler.HealthCheck)

	vehicles := api.Group("/vehicles")
	{
		vehicles.GET("", fleetHandler.ListVehicles)
		vehicles.POST("", fleetHandler.CreateVehicle)
		vehicles.GET("/:id", fleetHandler.GetVehicle)
		vehicles.PATCH("/:id/status", fleetHandler.UpdateVehicleStatus)
		vehicles.DELETE("/:id", fleetHandler.DeleteVehicle)
	}

	maintenance := api.Group("/maintenance")
	{
		maintenance.GET("", maintenanceHandler.ListMaintenance)
		maintenance.POST("", maintenanceHandler.CreateMaintenance)
		maintenance.GET("/types", maintenanceHandler.ServiceTypes)
	}

	api.GET("/fuel-logs", maintenanceHandler.ListFuelLogs)
	api.GET("/dashboard", dashboardHandler.GetDashboard)

	insights := api.Group("/insights")
	{
		insights.GET("", insightHandler.GetLatest)
		insights.POST("", insightHandler.Generate)
	}

	api.GET("/ws", wsHandler.HandleWebSocket)
	api.GET("/ws/clients", wsHandler.GetConnectedClients)
}
