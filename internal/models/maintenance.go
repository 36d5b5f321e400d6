package models

// ServiceType is one of the fixed maintenance service categories.
type ServiceType string

// Constants for maintenance service types
const (
	ServiceOilChange           ServiceType = "oil_change"
	ServiceTireBalancing       ServiceType = "tire_balancing"
	ServiceBrakeInspection     ServiceType = "brake_inspection"
	ServiceEngineTuning        ServiceType = "engine_tuning"
	ServiceTransmissionService ServiceType = "transmission_service"
	ServiceAnnualInspection    ServiceType = "annual_inspection"
)

// ServiceTypes lists the categories in the order the dashboard offers them.
var ServiceTypes = []ServiceType{
	ServiceOilChange,
	ServiceTireBalancing,
	ServiceBrakeInspection,
	ServiceEngineTuning,
	ServiceTransmissionService,
	ServiceAnnualInspection,
}

func (t ServiceType) Valid() bool {
	for _, known := range ServiceTypes {
		if t == known {
			return true
		}
	}
	return false
}

// MaintenanceRecord is immutable once added. VehicleID is a weak reference:
// the vehicle may not exist, or may be deleted later, and the record stays.
type MaintenanceRecord struct {
	ID               string      `json:"id" bson:"id" validate:"required"`
	VehicleID        string      `json:"vehicleId" bson:"vehicle_id" validate:"required"`
	Date             string      `json:"date" bson:"date" validate:"required,datetime=2006-01-02"`
	Type             ServiceType `json:"type" bson:"type" validate:"required,servicetype"`
	Description      string      `json:"description" bson:"description"`
	Cost             float64     `json:"cost" bson:"cost" validate:"gte=0"`
	MileageAtService int         `json:"mileageAtService" bson:"mileage_at_service" validate:"gte=0"`
}
