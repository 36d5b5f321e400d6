// Package store holds the fleet collections in memory and keeps the
// cross-entity fields consistent as they are mutated.
package store

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"fleet-dashboard/internal/models"
	"fleet-dashboard/internal/persistence"

	log "github.com/sirupsen/logrus"
)

var (
	ErrInvalidVehicleID = errors.New("vehicle id must not be empty")
	ErrDuplicateVehicle = errors.New("vehicle with this id already exists")
	ErrVehicleNotFound  = errors.New("vehicle not found")
)

// Persister receives a full copy of a collection after every mutation.
// *persistence.Writer satisfies it. Persist must not block.
type Persister interface {
	Persist(key string, collection any)
}

// Store owns the vehicle, maintenance and fuel-log collections. Every
// mutation runs under one lock, so mutations never interleave. Persistence
// is handed off after the in-memory change and cannot undo it.
type Store struct {
	mu          sync.Mutex
	vehicles    []models.Vehicle
	maintenance []models.MaintenanceRecord // newest first
	fuelLogs    []models.FuelLog

	persister Persister
	keys      persistence.Keys

	subscribers map[uint64]Subscriber
	nextSubID   uint64
	subsMux     sync.RWMutex
}

// New creates an empty store. persister may be nil for a store that is
// never written anywhere.
func New(persister Persister, keys persistence.Keys) *Store {
	return &Store{
		vehicles:    []models.Vehicle{},
		maintenance: []models.MaintenanceRecord{},
		fuelLogs:    []models.FuelLog{},
		persister:   persister,
		keys:        keys,
		subscribers: make(map[uint64]Subscriber),
	}
}

// Initialize seeds the collections from loaded data. Absent vehicles fall
// back to the default fleet; absent maintenance and fuel logs start empty.
func (s *Store) Initialize(loaded persistence.Loaded) {
	s.mu.Lock()
	switch {
	case loaded.Vehicles == nil:
		log.Info("No persisted vehicles, starting with the default fleet")
		s.vehicles = models.DefaultVehicles()
	case hasDuplicateIDs(loaded.Vehicles):
		log.Warn("Persisted vehicles contain duplicate ids, starting with the default fleet")
		s.vehicles = models.DefaultVehicles()
	default:
		s.vehicles = models.CloneVehicles(loaded.Vehicles)
	}
	s.maintenance = models.CloneMaintenance(loaded.Maintenance)
	s.fuelLogs = models.CloneFuelLogs(loaded.FuelLogs)

	log.WithFields(log.Fields{
		"vehicles":    len(s.vehicles),
		"maintenance": len(s.maintenance),
		"fuel_logs":   len(s.fuelLogs),
	}).Info("Fleet store initialized")
	s.mu.Unlock()

	s.notify(ChangeInitialized, "")
}

// AddVehicle appends a new vehicle.
func (s *Store) AddVehicle(vehicle models.Vehicle) error {
	if strings.TrimSpace(vehicle.ID) == "" {
		return ErrInvalidVehicleID
	}
	if err := models.Validate(vehicle); err != nil {
		return err
	}

	s.mu.Lock()
	if s.indexOf(vehicle.ID) >= 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrDuplicateVehicle, vehicle.ID)
	}
	s.vehicles = append(s.vehicles, vehicle)
	s.persistVehicles()
	s.mu.Unlock()

	log.WithFields(log.Fields{"vehicle_id": vehicle.ID, "plate": vehicle.PlateNumber}).Info("Vehicle added")
	s.notify(ChangeVehicleAdded, vehicle.ID)
	return nil
}

// AddMaintenanceRecord stores record as the newest maintenance entry. When
// a vehicle with record.VehicleID exists its last service date becomes the
// record date and its mileage is raised to the mileage at service if that
// is higher. A record for an unknown vehicle is still kept.
func (s *Store) AddMaintenanceRecord(record models.MaintenanceRecord) error {
	if strings.TrimSpace(record.VehicleID) == "" {
		return ErrInvalidVehicleID
	}
	if err := models.Validate(record); err != nil {
		return err
	}

	s.mu.Lock()
	s.maintenance = append([]models.MaintenanceRecord{record}, s.maintenance...)
	s.persistMaintenance()

	vehicleUpdated := false
	if i := s.indexOf(record.VehicleID); i >= 0 {
		v := &s.vehicles[i]
		v.LastServiceDate = record.Date
		v.Mileage = max(v.Mileage, record.MileageAtService)
		vehicleUpdated = true
		s.persistVehicles()
	}
	s.mu.Unlock()

	fields := log.Fields{"record_id": record.ID, "vehicle_id": record.VehicleID, "type": record.Type}
	if vehicleUpdated {
		log.WithFields(fields).Info("Maintenance record added")
	} else {
		log.WithFields(fields).Debug("Maintenance record added for unknown vehicle")
	}
	s.notify(ChangeMaintenanceAdded, record.VehicleID)
	return nil
}

// UpdateVehicleStatus sets the status of the vehicle with id. Any status may
// follow any other. It reports false, and changes nothing, when no vehicle
// matches.
func (s *Store) UpdateVehicleStatus(id string, status models.VehicleStatus) (bool, error) {
	if !status.Valid() {
		return false, fmt.Errorf("%w: unknown vehicle status %q", models.ErrInvalid, string(status))
	}

	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return false, nil
	}
	previous := s.vehicles[i].Status
	s.vehicles[i].Status = status
	s.persistVehicles()
	s.mu.Unlock()

	log.WithFields(log.Fields{"vehicle_id": id, "from": previous, "to": status}).Info("Vehicle status updated")
	s.notify(ChangeVehicleStatusUpdated, id)
	return true, nil
}

// DeleteVehicle removes the vehicle with id. Maintenance records and fuel
// logs that reference it are left in place.
func (s *Store) DeleteVehicle(id string) bool {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.vehicles = append(s.vehicles[:i:i], s.vehicles[i+1:]...)
	s.persistVehicles()
	s.mu.Unlock()

	log.WithField("vehicle_id", id).Info("Vehicle deleted")
	s.notify(ChangeVehicleDeleted, id)
	return true
}

// Snapshot returns a copy of all collections.
func (s *Store) Snapshot() models.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return models.Snapshot{
		Vehicles:    models.CloneVehicles(s.vehicles),
		Maintenance: models.CloneMaintenance(s.maintenance),
		FuelLogs:    models.CloneFuelLogs(s.fuelLogs),
	}
}

func (s *Store) Vehicles() []models.Vehicle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.CloneVehicles(s.vehicles)
}

func (s *Store) Vehicle(id string) (models.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(id); i >= 0 {
		return s.vehicles[i], nil
	}
	return models.Vehicle{}, fmt.Errorf("%w: %s", ErrVehicleNotFound, id)
}

// Maintenance returns all records, newest first.
func (s *Store) Maintenance() []models.MaintenanceRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.CloneMaintenance(s.maintenance)
}

// MaintenanceForVehicle returns the records referencing vehicleID, newest
// first. The vehicle itself need not exist.
func (s *Store) MaintenanceForVehicle(vehicleID string) []models.MaintenanceRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := []models.MaintenanceRecord{}
	for _, r := range s.maintenance {
		if r.VehicleID == vehicleID {
			records = append(records, r)
		}
	}
	return records
}

func (s *Store) FuelLogs() []models.FuelLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.CloneFuelLogs(s.fuelLogs)
}

// SearchVehicles matches term case-insensitively against plate number,
// model and make. An empty term returns every vehicle.
func (s *Store) SearchVehicles(term string) []models.Vehicle {
	term = strings.ToLower(strings.TrimSpace(term))

	s.mu.Lock()
	defer s.mu.Unlock()

	if term == "" {
		return models.CloneVehicles(s.vehicles)
	}
	matches := []models.Vehicle{}
	for _, v := range s.vehicles {
		if strings.Contains(strings.ToLower(v.PlateNumber), term) ||
			strings.Contains(strings.ToLower(v.Model), term) ||
			strings.Contains(strings.ToLower(v.Make), term) {
			matches = append(matches, v)
		}
	}
	return matches
}

// indexOf must be called with s.mu held.
func (s *Store) indexOf(id string) int {
	for i := range s.vehicles {
		if s.vehicles[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) persistVehicles() {
	if s.persister != nil {
		s.persister.Persist(s.keys.Vehicles, models.CloneVehicles(s.vehicles))
	}
}

func (s *Store) persistMaintenance() {
	if s.persister != nil {
		s.persister.Persist(s.keys.Maintenance, models.CloneMaintenance(s.maintenance))
	}
}

func hasDuplicateIDs(vehicles []models.Vehicle) bool {
	seen := make(map[string]struct{}, len(vehicles))
	for _, v := range vehicles {
		if _, dup := seen[v.ID]; dup {
			return true
		}
		seen[v.ID] = struct{}{}
	}
	return false
}
