// Package persistence stores the fleet collections in a durable key-value
// byte store. Loading is tolerant: missing, unreadable or malformed data is
// reported as absent so the store can fall back to its defaults.
package persistence

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"fleet-dashboard/internal/models"
	"fleet-dashboard/pkg/kv"

	log "github.com/sirupsen/logrus"
)

// Keys names the storage key of each collection.
type Keys struct {
	Vehicles    string
	Maintenance string
	FuelLogs    string
}

// KeysWithPrefix builds the per-collection keys, e.g. "zenith_vehicles".
func KeysWithPrefix(prefix string) Keys {
	return Keys{
		Vehicles:    prefix + "vehicles",
		Maintenance: prefix + "maintenance",
		FuelLogs:    prefix + "fuel_logs",
	}
}

// DefaultKeys uses the "zenith_" prefix.
var DefaultKeys = KeysWithPrefix("zenith_")

// Loaded holds the result of hydrating all collections. A nil slice means
// the collection was absent; an empty non-nil slice was stored as empty.
type Loaded struct {
	Vehicles    []models.Vehicle
	Maintenance []models.MaintenanceRecord
	FuelLogs    []models.FuelLog
}

type Adapter struct {
	store kv.Store
	keys  Keys
}

func NewAdapter(store kv.Store, keys Keys) *Adapter {
	return &Adapter{store: store, keys: keys}
}

func (a *Adapter) Keys() Keys {
	return a.keys
}

// LoadAll reads every collection. It never fails.
func (a *Adapter) LoadAll(ctx context.Context) Loaded {
	var loaded Loaded

	if vehicles, ok := a.LoadVehicles(ctx); ok {
		loaded.Vehicles = vehicles
	}
	if records, ok := a.LoadMaintenance(ctx); ok {
		loaded.Maintenance = records
	}
	if logs, ok := a.LoadFuelLogs(ctx); ok {
		loaded.FuelLogs = logs
	}
	return loaded
}

// LoadVehicles returns the persisted fleet. A collection with duplicate ids
// is treated as malformed.
func (a *Adapter) LoadVehicles(ctx context.Context) ([]models.Vehicle, bool) {
	vehicles, ok := load[models.Vehicle](ctx, a.store, a.keys.Vehicles)
	if !ok {
		return nil, false
	}

	seen := make(map[string]struct{}, len(vehicles))
	for _, v := range vehicles {
		if _, dup := seen[v.ID]; dup {
			log.WithFields(log.Fields{"key": a.keys.Vehicles, "vehicle_id": v.ID}).
				Warn("Discarding persisted vehicles: duplicate id")
			return nil, false
		}
		seen[v.ID] = struct{}{}
	}
	return vehicles, true
}

func (a *Adapter) LoadMaintenance(ctx context.Context) ([]models.MaintenanceRecord, bool) {
	return load[models.MaintenanceRecord](ctx, a.store, a.keys.Maintenance)
}

func (a *Adapter) LoadFuelLogs(ctx context.Context) ([]models.FuelLog, bool) {
	return load[models.FuelLog](ctx, a.store, a.keys.FuelLogs)
}

// Save serializes the whole collection and overwrites key.
func (a *Adapter) Save(ctx context.Context, key string, collection any) error {
	data, err := Encode(collection)
	if err != nil {
		return err
	}
	if err := a.store.Set(ctx, key, data); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

// Ping checks the underlying store.
func (a *Adapter) Ping(ctx context.Context) error {
	return a.store.Ping(ctx)
}

// Encode serializes a collection as a JSON array. Nil slices are written as
// [] so that the stored value always decodes to a present collection.
func Encode(collection any) ([]byte, error) {
	switch c := collection.(type) {
	case []models.Vehicle:
		if c == nil {
			collection = []models.Vehicle{}
		}
	case []models.MaintenanceRecord:
		if c == nil {
			collection = []models.MaintenanceRecord{}
		}
	case []models.FuelLog:
		if c == nil {
			collection = []models.FuelLog{}
		}
	}

	data, err := json.Marshal(collection)
	if err != nil {
		return nil, fmt.Errorf("failed to encode collection: %w", err)
	}
	return data, nil
}

// Decode parses and shape-validates a stored collection. JSON null is
// rejected; an empty array decodes to an empty non-nil slice.
func Decode[T any](data []byte) ([]T, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, errors.New("empty collection payload")
	}

	items := []T{}
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, fmt.Errorf("failed to decode collection: %w", err)
	}
	if err := models.ValidateAll(items); err != nil {
		return nil, err
	}
	return items, nil
}

func load[T any](ctx context.Context, store kv.Store, key string) ([]T, bool) {
	data, err := store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			log.WithError(err).WithField("key", key).Warn("Failed to read persisted collection")
		}
		return nil, false
	}

	items, err := Decode[T](data)
	if err != nil {
		log.WithError(err).WithField("key", key).Warn("Discarding malformed persisted collection")
		return nil, false
	}
	return items, true
}
