package handlers

import (
	"net/http"
	"strings"
	"time"

	"fleet-dashboard/internal/models"
	"fleet-dashboard/internal/store"
	"fleet-dashboard/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type MaintenanceHandler struct {
	store *store.Store
}

func NewMaintenanceHandler(fleet *store.Store) *MaintenanceHandler {
	return &MaintenanceHandler{store: fleet}
}

type CreateMaintenanceRequest struct {
	ID               string  `json:"id"`
	VehicleID        string  `json:"vehicleId"`
	Date             string  `json:"date"`
	Type             string  `json:"type"`
	Description      string  `json:"description"`
	Cost             float64 `json:"cost"`
	MileageAtService int     `json:"mileageAtService"`
}

// ListMaintenance returns maintenance records newest first, optionally only
// those of one vehicle.
func (h *MaintenanceHandler) ListMaintenance(c *gin.Context) {
	var records []models.MaintenanceRecord
	if vehicleID := c.Query("vehicleId"); vehicleID != "" {
		records = h.store.MaintenanceForVehicle(vehicleID)
	} else {
		records = h.store.Maintenance()
	}

	utils.SuccessResponse(c, http.StatusOK, "Maintenance records retrieved successfully", records)
}

// CreateMaintenance records a service. The date defaults to today. A record
// for an unknown vehicle is accepted and kept.
func (h *MaintenanceHandler) CreateMaintenance(c *gin.Context) {
	var req CreateMaintenanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	record := models.MaintenanceRecord{
		ID:               strings.TrimSpace(req.ID),
		VehicleID:        strings.TrimSpace(req.VehicleID),
		Date:             strings.TrimSpace(req.Date),
		Type:             models.ServiceType(strings.TrimSpace(req.Type)),
		Description:      req.Description,
		Cost:             req.Cost,
		MileageAtService: req.MileageAtService,
	}
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.Date == "" {
		record.Date = time.Now().Format("2006-01-02")
	}

	if err := h.store.AddMaintenanceRecord(record); err != nil {
		respondStoreError(c, "Failed to add maintenance record", err)
		return
	}

	response := gin.H{"record": record}
	if vehicle, err := h.store.Vehicle(record.VehicleID); err == nil {
		response["vehicle"] = vehicle
	}
	utils.SuccessResponse(c, http.StatusCreated, "Maintenance record added successfully", response)
}

// ServiceTypes lists the accepted maintenance categories.
func (h *MaintenanceHandler) ServiceTypes(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Service types retrieved successfully", models.ServiceTypes)
}

func (h *MaintenanceHandler) ListFuelLogs(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Fuel logs retrieved successfully", h.store.FuelLogs())
}
