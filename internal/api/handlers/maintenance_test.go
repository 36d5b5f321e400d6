package handlers

import (
	"net/http"
	"testing"
	"time"

	"fleet-dashboard/internal/models"
	"fleet-dashboard/internal/persistence"
	"fleet-dashboard/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func maintenanceRouter(h *MaintenanceHandler) *gin.Engine {
	router := newTestRouter()
	router.GET("/maintenance", h.ListMaintenance)
	router.POST("/maintenance", h.CreateMaintenance)
	router.GET("/maintenance/types", h.ServiceTypes)
	router.GET("/fuel-logs", h.ListFuelLogs)
	return router
}

type createdMaintenance struct {
	Record  models.MaintenanceRecord `json:"record"`
	Vehicle *models.Vehicle          `json:"vehicle"`
}

func TestCreateMaintenance_UpdatesVehicle(t *testing.T) {
	fleet := newTestStore()
	router := maintenanceRouter(NewMaintenanceHandler(fleet))

	w := performRequest(router, http.MethodPost, "/maintenance", CreateMaintenanceRequest{
		VehicleID:        "1",
		Date:             "2024-05-02",
		Type:             "brake_inspection",
		Description:      "Front pads replaced",
		Cost:             320.5,
		MileageAtService: 15000,
	})
	assertStatus(t, http.StatusCreated, w)

	var body createdMaintenance
	decodeResponse(t, w, &body)
	assert.NotEmpty(t, body.Record.ID)
	require.NotNil(t, body.Vehicle)
	assert.Equal(t, "2024-05-02", body.Vehicle.LastServiceDate)
	assert.Equal(t, 15000, body.Vehicle.Mileage)

	records := fleet.Maintenance()
	require.Len(t, records, 1)
	assert.Equal(t, body.Record.ID, records[0].ID)
}

func TestCreateMaintenance_Defaults(t *testing.T) {
	router := maintenanceRouter(NewMaintenanceHandler(newTestStore()))

	w := performRequest(router, http.MethodPost, "/maintenance", CreateMaintenanceRequest{
		ID:        "m-77",
		VehicleID: "ghost",
		Type:      "oil_change",
	})
	assertStatus(t, http.StatusCreated, w)

	var body createdMaintenance
	decodeResponse(t, w, &body)
	assert.Equal(t, "m-77", body.Record.ID)
	assert.Equal(t, time.Now().Format("2006-01-02"), body.Record.Date)
	assert.Nil(t, body.Vehicle, "record for an unknown vehicle is kept without a vehicle")
}

func TestCreateMaintenance_Rejected(t *testing.T) {
	tests := []struct {
		name string
		req  CreateMaintenanceRequest
	}{
		{name: "missing vehicle", req: CreateMaintenanceRequest{Type: "oil_change"}},
		{name: "unknown type", req: CreateMaintenanceRequest{VehicleID: "1", Type: "car_wash"}},
		{name: "negative cost", req: CreateMaintenanceRequest{VehicleID: "1", Type: "oil_change", Cost: -10}},
		{name: "bad date", req: CreateMaintenanceRequest{VehicleID: "1", Type: "oil_change", Date: "yesterday"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fleet := newTestStore()
			w := performRequest(maintenanceRouter(NewMaintenanceHandler(fleet)), http.MethodPost, "/maintenance", tt.req)
			assertStatus(t, http.StatusBadRequest, w)
			assert.Empty(t, fleet.Maintenance())
		})
	}
}

func TestListMaintenance(t *testing.T) {
	fleet := newTestStore()
	for _, r := range []models.MaintenanceRecord{
		{ID: "a", VehicleID: "1", Date: "2024-01-01", Type: models.ServiceOilChange},
		{ID: "b", VehicleID: "2", Date: "2024-01-02", Type: models.ServiceTireBalancing},
		{ID: "c", VehicleID: "1", Date: "2024-01-03", Type: models.ServiceAnnualInspection},
	} {
		require.NoError(t, fleet.AddMaintenanceRecord(r))
	}
	router := maintenanceRouter(NewMaintenanceHandler(fleet))

	var records []models.MaintenanceRecord
	w := performRequest(router, http.MethodGet, "/maintenance", nil)
	assertStatus(t, http.StatusOK, w)
	decodeResponse(t, w, &records)
	require.Len(t, records, 3)
	assert.Equal(t, "c", records[0].ID)

	w = performRequest(router, http.MethodGet, "/maintenance?vehicleId=1", nil)
	assertStatus(t, http.StatusOK, w)
	decodeResponse(t, w, &records)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"c", "a"}, []string{records[0].ID, records[1].ID})
}

func TestServiceTypes(t *testing.T) {
	w := performRequest(maintenanceRouter(NewMaintenanceHandler(newTestStore())), http.MethodGet, "/maintenance/types", nil)
	assertStatus(t, http.StatusOK, w)

	var types []models.ServiceType
	decodeResponse(t, w, &types)
	assert.Equal(t, models.ServiceTypes, types)
}

func TestListFuelLogs(t *testing.T) {
	fleet := store.New(nil, persistence.DefaultKeys)
	fleet.Initialize(persistence.Loaded{
		FuelLogs: []models.FuelLog{{ID: "f1", VehicleID: "1", Date: "2024-01-05", Liters: 40, Cost: 300, MileageAtFill: 12600}},
	})

	w := performRequest(maintenanceRouter(NewMaintenanceHandler(fleet)), http.MethodGet, "/fuel-logs", nil)
	assertStatus(t, http.StatusOK, w)

	var logs []models.FuelLog
	decodeResponse(t, w, &logs)
	require.Len(t, logs, 1)
	assert.Equal(t, "f1", logs[0].ID)
}
