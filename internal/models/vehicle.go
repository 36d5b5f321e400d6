package models

import (
	"fmt"
	"strings"
)

// VehicleStatus is the closed set of states a fleet vehicle can be in.
// Any status is reachable from any other; there is no transition graph.
type VehicleStatus string

const (
	StatusActive      VehicleStatus = "ACTIVE"
	StatusMaintenance VehicleStatus = "MAINTENANCE"
	StatusInactive    VehicleStatus = "INACTIVE"
	StatusRetired     VehicleStatus = "RETIRED"
)

// AllStatuses lists every VehicleStatus in display order.
var AllStatuses = []VehicleStatus{
	StatusActive,
	StatusMaintenance,
	StatusInactive,
	StatusRetired,
}

// Valid reports whether s is one of the four known statuses.
func (s VehicleStatus) Valid() bool {
	switch s {
	case StatusActive, StatusMaintenance, StatusInactive, StatusRetired:
		return true
	}
	return false
}

func (s VehicleStatus) String() string {
	return string(s)
}

// ParseVehicleStatus accepts a status name in any letter case.
func ParseVehicleStatus(raw string) (VehicleStatus, error) {
	status := VehicleStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if !status.Valid() {
		return "", fmt.Errorf("unknown vehicle status %q", raw)
	}
	return status, nil
}

// MarshalText rejects unknown statuses so that invalid values never reach storage.
func (s VehicleStatus) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("unknown vehicle status %q", string(s))
	}
	return []byte(s), nil
}

// UnmarshalText makes a persisted collection carrying an unknown status fail to decode.
func (s *VehicleStatus) UnmarshalText(text []byte) error {
	status := VehicleStatus(text)
	if !status.Valid() {
		return fmt.Errorf("unknown vehicle status %q", string(text))
	}
	*s = status
	return nil
}

type Vehicle struct {
	ID              string        `json:"id" bson:"id" validate:"required"`
	PlateNumber     string        `json:"plateNumber" bson:"plate_number" validate:"required"`
	Model           string        `json:"model" bson:"model" validate:"required"`
	Make            string        `json:"make" bson:"make" validate:"required"`
	Year            int           `json:"year" bson:"year" validate:"gt=0"`
	Status          VehicleStatus `json:"status" bson:"status" validate:"required,vehiclestatus"`
	Mileage         int           `json:"mileage" bson:"mileage" validate:"gte=0"`
	LastServiceDate string        `json:"lastServiceDate" bson:"last_service_date" validate:"required,datetime=2006-01-02"`
	DriverName      string        `json:"driverName,omitempty" bson:"driver_name,omitempty"`
	Image           string        `json:"image" bson:"image"`
}

// DisplayName is the "make model" label used in summaries.
func (v Vehicle) DisplayName() string {
	return strings.TrimSpace(v.Make + " " + v.Model)
}
