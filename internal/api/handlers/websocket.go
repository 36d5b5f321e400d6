package handlers

import (
	"net/http"
	"strings"

	"fleet-dashboard/internal/store"
	"fleet-dashboard/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// WebSocketHandler streams fleet changes to browser clients.
type WebSocketHandler struct {
	manager *websocket.Manager
}

func NewWebSocketHandler(manager *websocket.Manager) *WebSocketHandler {
	return &WebSocketHandler{manager: manager}
}

// HandleWebSocket upgrades the connection. Optional filters: kinds and
// vehicleIds, each repeated or comma separated.
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	filters := websocket.Filters{
		VehicleIDs: queryList(c, "vehicleIds"),
	}
	for _, kind := range queryList(c, "kinds") {
		filters.Kinds = append(filters.Kinds, store.ChangeKind(kind))
	}

	conn, err := h.manager.Upgrader().Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// the upgrader has already written the error response
		log.WithError(err).Warn("Failed to upgrade connection to WebSocket")
		return
	}

	clientID := uuid.New().String()
	if err := h.manager.RegisterClient(clientID, conn, filters); err != nil {
		log.WithError(err).Error("Failed to register WebSocket client")
		conn.Close()
		return
	}

	log.WithFields(log.Fields{"client_id": clientID, "filters": filters}).Info("WebSocket client connected")
}

// GetConnectedClients returns the number of connected WebSocket clients
func (h *WebSocketHandler) GetConnectedClients(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"connectedClients": h.manager.GetConnectedClients(),
		"stats":            h.manager.GetClientStats(),
	})
}

func queryList(c *gin.Context, key string) []string {
	var values []string
	for _, raw := range c.QueryArray(key) {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				values = append(values, v)
			}
		}
	}
	return values
}
