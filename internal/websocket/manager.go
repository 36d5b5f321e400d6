// Package websocket streams fleet store changes to browser clients.
package websocket

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"sync"
	"time"

	"fleet-dashboard/internal/store"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

var ErrManagerStopped = errors.New("websocket manager is stopped")

// Manager fans store changes out to connected clients. It is a
// store.Subscriber.
type Manager struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan store.Change
	mutex      sync.RWMutex
	upgrader   websocket.Upgrader
	done       chan struct{}
	stopOnce   sync.Once
}

var _ store.Subscriber = (*Manager)(nil)

// NewManager creates a manager that accepts upgrades from allowedOrigins.
// With no origins, or with "*", any origin is accepted.
func NewManager(allowedOrigins ...string) *Manager {
	return &Manager{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan store.Change, 1000),
		upgrader: websocket.Upgrader{
			CheckOrigin:     originChecker(allowedOrigins),
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		done: make(chan struct{}),
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 || slices.Contains(allowed, "*") {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(allowed, origin)
	}
}

// Start begins the WebSocket manager's main loop
func (m *Manager) Start() error {
	go m.run()
	log.Info("WebSocket manager started")
	return nil
}

// Stop closes every client connection and ends the main loop.
func (m *Manager) Stop() error {
	m.stopOnce.Do(func() {
		close(m.done)

		m.mutex.Lock()
		for _, client := range m.clients {
			m.removeLocked(client)
		}
		m.mutex.Unlock()

		log.Info("WebSocket manager stopped")
	})
	return nil
}

func (m *Manager) run() {
	ticker := time.NewTicker(healthInterval)
	defer ticker.Stop()

	for {
		select {
		case client := <-m.register:
			m.mutex.Lock()
			m.clients[client.ID] = client
			m.mutex.Unlock()
			log.WithField("client_id", client.ID).Info("WebSocket client registered")
			go m.handleClient(client)

		case client := <-m.unregister:
			m.mutex.Lock()
			m.removeLocked(client)
			m.mutex.Unlock()
			log.WithField("client_id", client.ID).Info("WebSocket client unregistered")

		case change := <-m.broadcast:
			m.broadcastToClients(change)

		case <-ticker.C:
			m.healthCheck()

		case <-m.done:
			return
		}
	}
}

// RegisterClient starts streaming changes matching filters to conn.
func (m *Manager) RegisterClient(clientID string, conn *websocket.Conn, filters Filters) error {
	select {
	case m.register <- newClient(clientID, conn, filters):
		return nil
	case <-m.done:
		return ErrManagerStopped
	}
}

// UnregisterClient removes a WebSocket client
func (m *Manager) UnregisterClient(clientID string) error {
	m.mutex.RLock()
	client, exists := m.clients[clientID]
	m.mutex.RUnlock()

	if !exists {
		return nil
	}
	select {
	case m.unregister <- client:
		return nil
	case <-m.done:
		return ErrManagerStopped
	}
}

// Broadcast queues change for delivery without blocking.
func (m *Manager) Broadcast(change store.Change) error {
	select {
	case m.broadcast <- change:
		return nil
	default:
		return fmt.Errorf("broadcast channel full, dropping %s change for vehicle %q", change.Kind, change.VehicleID)
	}
}

// OnFleetChange forwards store notifications to connected clients.
func (m *Manager) OnFleetChange(change store.Change) {
	if err := m.Broadcast(change); err != nil {
		log.WithError(err).Warn("Dropped fleet change notification")
	}
}

// GetConnectedClients returns the number of connected clients
func (m *Manager) GetConnectedClients() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.clients)
}

// GetClientStats returns detailed client statistics
func (m *Manager) GetClientStats() ClientStats {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	stats := ClientStats{TotalClients: len(m.clients)}
	for _, client := range m.clients {
		if _, active := client.status(); active {
			stats.ActiveClients++
		} else {
			stats.InactiveClients++
		}
	}
	return stats
}

// Upgrader returns the WebSocket upgrader for the HTTP handler.
func (m *Manager) Upgrader() *websocket.Upgrader {
	return &m.upgrader
}

// removeLocked must be called with m.mutex held.
func (m *Manager) removeLocked(client *Client) {
	if current, ok := m.clients[client.ID]; !ok || current != client {
		return
	}
	delete(m.clients, client.ID)
	close(client.Send)
	if client.Conn != nil {
		client.Conn.Close()
	}
}

func (m *Manager) broadcastToClients(change store.Change) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	for _, client := range m.clients {
		if !client.Filters().Matches(change) {
			continue
		}
		select {
		case client.Send <- change:
		default:
			client.markInactive()
			log.WithField("client_id", client.ID).Warn("Client send channel full, marking as inactive")
		}
	}
}

func (m *Manager) handleClient(client *Client) {
	defer func() {
		select {
		case m.unregister <- client:
		case <-m.done:
		}
	}()

	client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	client.Conn.SetPongHandler(func(string) error {
		client.touch()
		client.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	go m.writeMessages(client)

	for {
		var message Message
		if err := client.Conn.ReadJSON(&message); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.WithError(err).WithField("client_id", client.ID).Warn("WebSocket read error")
			}
			return
		}

		if message.Type == MessageTypeUpdateFilters && message.Filters != nil {
			client.setFilters(*message.Filters)
			log.WithFields(log.Fields{"client_id": client.ID, "filters": *message.Filters}).Debug("Updated client filters")
		}
	}
}

func (m *Manager) writeMessages(client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case change, ok := <-client.Send:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := client.Conn.WriteJSON(Message{Type: MessageTypeFleetChange, Data: change}); err != nil {
				log.WithError(err).WithField("client_id", client.ID).Warn("Error writing message to client")
				return
			}

		case <-ticker.C:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.WithError(err).WithField("client_id", client.ID).Warn("Error sending ping to client")
				return
			}
		}
	}
}

// healthCheck drops clients that have not answered a ping recently.
func (m *Manager) healthCheck() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	now := time.Now()
	for clientID, client := range m.clients {
		if lastPing, _ := client.status(); now.Sub(lastPing) > clientTimeout {
			log.WithField("client_id", clientID).Info("WebSocket client timed out, removing")
			m.removeLocked(client)
		}
	}
}
