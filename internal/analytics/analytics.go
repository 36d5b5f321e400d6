// Package analytics computes dashboard statistics from fleet snapshots.
// Every function is pure and returns zero values for empty input.
package analytics

import (
	"math"

	"fleet-dashboard/internal/models"
)

// Distribution is the three-bucket status split shown on the dashboard.
// Inactive and retired vehicles share the Other bucket.
type Distribution struct {
	Active      int `json:"active"`
	Maintenance int `json:"maintenance"`
	Other       int `json:"other"`
}

// StatusBreakdown keeps all four statuses apart.
type StatusBreakdown struct {
	Active      int `json:"active"`
	Maintenance int `json:"maintenance"`
	Inactive    int `json:"inactive"`
	Retired     int `json:"retired"`
}

// MileagePoint is one bar of the mileage chart.
type MileagePoint struct {
	Label   string `json:"label"`
	Mileage int    `json:"mileage"`
}

func CountByStatus(vehicles []models.Vehicle, status models.VehicleStatus) int {
	count := 0
	for _, v := range vehicles {
		if v.Status == status {
			count++
		}
	}
	return count
}

// AverageMileage is the arithmetic mean mileage, or 0 for an empty fleet.
func AverageMileage(vehicles []models.Vehicle) float64 {
	if len(vehicles) == 0 {
		return 0
	}
	total := 0
	for _, v := range vehicles {
		total += v.Mileage
	}
	return float64(total) / float64(len(vehicles))
}

func StatusDistribution(vehicles []models.Vehicle) Distribution {
	var d Distribution
	for _, v := range vehicles {
		switch v.Status {
		case models.StatusActive:
			d.Active++
		case models.StatusMaintenance:
			d.Maintenance++
		default:
			d.Other++
		}
	}
	return d
}

// StatusBreakdownOf counts every status separately. Vehicles carrying a
// status outside the known set are not counted.
func StatusBreakdownOf(vehicles []models.Vehicle) StatusBreakdown {
	var b StatusBreakdown
	for _, v := range vehicles {
		switch v.Status {
		case models.StatusActive:
			b.Active++
		case models.StatusMaintenance:
			b.Maintenance++
		case models.StatusInactive:
			b.Inactive++
		case models.StatusRetired:
			b.Retired++
		}
	}
	return b
}

// MileageSeries returns one point per vehicle, in fleet order, labelled by
// plate number.
func MileageSeries(vehicles []models.Vehicle) []MileagePoint {
	series := make([]MileagePoint, 0, len(vehicles))
	for _, v := range vehicles {
		series = append(series, MileagePoint{Label: v.PlateNumber, Mileage: v.Mileage})
	}
	return series
}

func TotalMaintenanceCost(records []models.MaintenanceRecord) float64 {
	total := 0.0
	for _, r := range records {
		total += r.Cost
	}
	return total
}

// Dashboard is the full set of statistics rendered by the overview page.
type Dashboard struct {
	TotalVehicles        int             `json:"totalVehicles"`
	ActiveVehicles       int             `json:"activeVehicles"`
	MaintenanceVehicles  int             `json:"maintenanceVehicles"`
	AverageMileage       int             `json:"averageMileage"`
	AverageMileageExact  float64         `json:"averageMileageExact"`
	Distribution         Distribution    `json:"distribution"`
	Breakdown            StatusBreakdown `json:"breakdown"`
	MileageSeries        []MileagePoint  `json:"mileageSeries"`
	MaintenanceRecords   int             `json:"maintenanceRecords"`
	TotalMaintenanceCost float64         `json:"totalMaintenanceCost"`
}

func Summarize(snapshot models.Snapshot) Dashboard {
	average := AverageMileage(snapshot.Vehicles)

	return Dashboard{
		TotalVehicles:        len(snapshot.Vehicles),
		ActiveVehicles:       CountByStatus(snapshot.Vehicles, models.StatusActive),
		MaintenanceVehicles:  CountByStatus(snapshot.Vehicles, models.StatusMaintenance),
		AverageMileage:       int(math.Round(average)),
		AverageMileageExact:  average,
		Distribution:         StatusDistribution(snapshot.Vehicles),
		Breakdown:            StatusBreakdownOf(snapshot.Vehicles),
		MileageSeries:        MileageSeries(snapshot.Vehicles),
		MaintenanceRecords:   len(snapshot.Maintenance),
		TotalMaintenanceCost: TotalMaintenanceCost(snapshot.Maintenance),
	}
}
