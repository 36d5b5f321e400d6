package analytics

import (
	"testing"

	"fleet-dashboard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fleet(statuses ...models.VehicleStatus) []models.Vehicle {
	vehicles := make([]models.Vehicle, len(statuses))
	for i, s := range statuses {
		vehicles[i] = models.Vehicle{ID: string(rune('a' + i)), Status: s}
	}
	return vehicles
}

func TestCountByStatus(t *testing.T) {
	vehicles := models.DefaultVehicles()

	assert.Equal(t, 2, CountByStatus(vehicles, models.StatusActive))
	assert.Equal(t, 1, CountByStatus(vehicles, models.StatusMaintenance))
	assert.Zero(t, CountByStatus(vehicles, models.StatusRetired))
	assert.Zero(t, CountByStatus(nil, models.StatusActive))
}

func TestAverageMileage(t *testing.T) {
	assert.Equal(t, 0.0, AverageMileage(nil))
	assert.Equal(t, 0.0, AverageMileage([]models.Vehicle{}))
	assert.Equal(t, 200.0, AverageMileage([]models.Vehicle{{Mileage: 100}, {Mileage: 300}}))
	assert.InDelta(t, 20766.67, AverageMileage(models.DefaultVehicles()), 0.01)
}

func TestStatusDistribution(t *testing.T) {
	vehicles := fleet(
		models.StatusActive, models.StatusActive, models.StatusActive,
		models.StatusMaintenance, models.StatusMaintenance,
		models.StatusRetired,
	)

	assert.Equal(t, Distribution{Active: 3, Maintenance: 2, Other: 1}, StatusDistribution(vehicles))
	assert.Equal(t, Distribution{}, StatusDistribution(nil))
}

func TestStatusDistribution_OtherMergesInactiveAndRetired(t *testing.T) {
	vehicles := fleet(models.StatusInactive, models.StatusRetired, models.StatusInactive)

	assert.Equal(t, Distribution{Other: 3}, StatusDistribution(vehicles))
	assert.Equal(t, StatusBreakdown{Inactive: 2, Retired: 1}, StatusBreakdownOf(vehicles))
}

func TestStatusBreakdownOf(t *testing.T) {
	vehicles := fleet(
		models.StatusActive,
		models.StatusMaintenance, models.StatusMaintenance,
		models.StatusInactive,
		models.StatusRetired, models.StatusRetired, models.StatusRetired,
	)

	assert.Equal(t, StatusBreakdown{Active: 1, Maintenance: 2, Inactive: 1, Retired: 3}, StatusBreakdownOf(vehicles))
	assert.Equal(t, StatusBreakdown{}, StatusBreakdownOf(nil))
}

func TestMileageSeries(t *testing.T) {
	series := MileageSeries(models.DefaultVehicles())

	require.Len(t, series, 3)
	assert.Equal(t, MileagePoint{Label: "京A-6721ZX", Mileage: 12500}, series[0])
	assert.Equal(t, MileagePoint{Label: "沪B-882AB", Mileage: 4200}, series[1])
	assert.Equal(t, MileagePoint{Label: "粤Z-104CC", Mileage: 45600}, series[2])

	empty := MileageSeries(nil)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestTotalMaintenanceCost(t *testing.T) {
	records := []models.MaintenanceRecord{{Cost: 80}, {Cost: 120.5}, {Cost: 0}}

	assert.Equal(t, 200.5, TotalMaintenanceCost(records))
	assert.Zero(t, TotalMaintenanceCost(nil))
}

func TestSummarize(t *testing.T) {
	snapshot := models.Snapshot{
		Vehicles:    models.DefaultVehicles(),
		Maintenance: []models.MaintenanceRecord{{ID: "m-1", Cost: 45.5}, {ID: "m-2", Cost: 100}},
	}

	d := Summarize(snapshot)
	assert.Equal(t, 3, d.TotalVehicles)
	assert.Equal(t, 2, d.ActiveVehicles)
	assert.Equal(t, 1, d.MaintenanceVehicles)
	assert.Equal(t, 20767, d.AverageMileage)
	assert.InDelta(t, 20766.67, d.AverageMileageExact, 0.01)
	assert.Equal(t, Distribution{Active: 2, Maintenance: 1}, d.Distribution)
	assert.Equal(t, StatusBreakdown{Active: 2, Maintenance: 1}, d.Breakdown)
	assert.Len(t, d.MileageSeries, 3)
	assert.Equal(t, 2, d.MaintenanceRecords)
	assert.Equal(t, 145.5, d.TotalMaintenanceCost)
}

func TestSummarize_EmptySnapshot(t *testing.T) {
	d := Summarize(models.Snapshot{})

	assert.Zero(t, d.TotalVehicles)
	assert.Zero(t, d.AverageMileage)
	assert.Zero(t, d.AverageMileageExact)
	assert.Empty(t, d.MileageSeries)
	assert.Zero(t, d.TotalMaintenanceCost)
}

func TestSummarize_DoesNotMutateInput(t *testing.T) {
	snapshot := models.Snapshot{Vehicles: models.DefaultVehicles()}
	before := models.CloneVehicles(snapshot.Vehicles)

	Summarize(snapshot)

	assert.Equal(t, before, snapshot.Vehicles)
}
