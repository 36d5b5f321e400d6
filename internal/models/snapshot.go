package models

// Snapshot is a point-in-time copy of the fleet collections. Consumers may
// read it freely; changing it never affects the store it came from.
type Snapshot struct {
	Vehicles    []Vehicle           `json:"vehicles"`
	Maintenance []MaintenanceRecord `json:"maintenance"`
	FuelLogs    []FuelLog           `json:"fuelLogs"`
}

// Clone returns a copy that shares no backing arrays with s.
func (s Snapshot) Clone() Snapshot {
	return Snapshot{
		Vehicles:    CloneVehicles(s.Vehicles),
		Maintenance: CloneMaintenance(s.Maintenance),
		FuelLogs:    CloneFuelLogs(s.FuelLogs),
	}
}

// CloneVehicles copies a vehicle slice. The result is never nil.
func CloneVehicles(in []Vehicle) []Vehicle {
	out := make([]Vehicle, len(in))
	copy(out, in)
	return out
}

func CloneMaintenance(in []MaintenanceRecord) []MaintenanceRecord {
	out := make([]MaintenanceRecord, len(in))
	copy(out, in)
	return out
}

func CloneFuelLogs(in []FuelLog) []FuelLog {
	out := make([]FuelLog, len(in))
	copy(out, in)
	return out
}
