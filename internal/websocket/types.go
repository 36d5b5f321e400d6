package websocket

import (
	"slices"
	"sync"
	"time"

	"fleet-dashboard/internal/store"

	"github.com/gorilla/websocket"
)

// Filters restricts which fleet changes a client receives. Empty lists
// match everything.
type Filters struct {
	Kinds      []store.ChangeKind `json:"kinds,omitempty"`
	VehicleIDs []string           `json:"vehicleIds,omitempty"`
}

// Matches reports whether change passes the filters. Changes without a
// vehicle id (initialization) pass any vehicle filter.
func (f Filters) Matches(change store.Change) bool {
	if len(f.Kinds) > 0 && !slices.Contains(f.Kinds, change.Kind) {
		return false
	}
	if len(f.VehicleIDs) > 0 && change.VehicleID != "" && !slices.Contains(f.VehicleIDs, change.VehicleID) {
		return false
	}
	return true
}

// Message is the envelope written to and read from clients.
type Message struct {
	Type    string   `json:"type"`
	Data    any      `json:"data,omitempty"`
	Filters *Filters `json:"filters,omitempty"`
}

// Client represents a WebSocket client connection
type Client struct {
	ID   string
	Conn *websocket.Conn
	Send chan store.Change

	mu       sync.Mutex
	filters  Filters
	lastPing time.Time
	active   bool
}

func newClient(id string, conn *websocket.Conn, filters Filters) *Client {
	return &Client{
		ID:       id,
		Conn:     conn,
		Send:     make(chan store.Change, 256),
		filters:  filters,
		lastPing: time.Now(),
		active:   true,
	}
}

func (c *Client) Filters() Filters {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filters
}

func (c *Client) setFilters(filters Filters) {
	c.mu.Lock()
	c.filters = filters
	c.mu.Unlock()
}

func (c *Client) touch() {
	c.mu.Lock()
	c.lastPing = time.Now()
	c.active = true
	c.mu.Unlock()
}

func (c *Client) markInactive() {
	c.mu.Lock()
	c.active = false
	c.mu.Unlock()
}

func (c *Client) status() (lastPing time.Time, active bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastPing, c.active
}

// ClientStats provides statistics about connected clients
type ClientStats struct {
	TotalClients    int `json:"totalClients"`
	ActiveClients   int `json:"activeClients"`
	InactiveClients int `json:"inactiveClients"`
}

// Message types for WebSocket communication
const (
	MessageTypeFleetChange   = "fleet_change"
	MessageTypeUpdateFilters = "update_filters"
	MessageTypeFiltersSet    = "filters_updated"
	MessageTypeError         = "error"
)

const (
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	writeWait      = 10 * time.Second
	clientTimeout  = 90 * time.Second
	healthInterval = 30 * time.Second
)
