package handlers

import (
	"net/http"
	"strings"

	"fleet-dashboard/internal/models"
	"fleet-dashboard/internal/store"
	"fleet-dashboard/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type FleetHandler struct {
	store *store.Store
}

func NewFleetHandler(fleet *store.Store) *FleetHandler {
	return &FleetHandler{store: fleet}
}

type CreateVehicleRequest struct {
	ID              string `json:"id"`
	PlateNumber     string `json:"plateNumber"`
	Model           string `json:"model"`
	Make            string `json:"make"`
	Year            int    `json:"year"`
	Status          string `json:"status"`
	Mileage         int    `json:"mileage"`
	LastServiceDate string `json:"lastServiceDate"`
	DriverName      string `json:"driverName,omitempty"`
	Image           string `json:"image"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// ListVehicles returns the fleet, filtered by the optional q search term.
func (h *FleetHandler) ListVehicles(c *gin.Context) {
	vehicles := h.store.SearchVehicles(c.Query("q"))
	utils.SuccessResponse(c, http.StatusOK, "Vehicles retrieved successfully", vehicles)
}

func (h *FleetHandler) GetVehicle(c *gin.Context) {
	vehicle, err := h.store.Vehicle(c.Param("id"))
	if err != nil {
		respondStoreError(c, "Vehicle not found", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Vehicle retrieved successfully", gin.H{
		"vehicle":     vehicle,
		"maintenance": h.store.MaintenanceForVehicle(vehicle.ID),
	})
}

// CreateVehicle adds a vehicle. A missing id is generated and a missing
// status defaults to ACTIVE.
func (h *FleetHandler) CreateVehicle(c *gin.Context) {
	var req CreateVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	status := models.StatusActive
	if strings.TrimSpace(req.Status) != "" {
		parsed, err := models.ParseVehicleStatus(req.Status)
		if err != nil {
			utils.ValidationErrorResponse(c, err)
			return
		}
		status = parsed
	}

	id := strings.TrimSpace(req.ID)
	if id == "" {
		id = uuid.New().String()
	}

	vehicle := models.Vehicle{
		ID:              id,
		PlateNumber:     strings.TrimSpace(req.PlateNumber),
		Model:           strings.TrimSpace(req.Model),
		Make:            strings.TrimSpace(req.Make),
		Year:            req.Year,
		Status:          status,
		Mileage:         req.Mileage,
		LastServiceDate: req.LastServiceDate,
		DriverName:      strings.TrimSpace(req.DriverName),
		Image:           req.Image,
	}
	if err := h.store.AddVehicle(vehicle); err != nil {
		respondStoreError(c, "Failed to create vehicle", err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Vehicle created successfully", vehicle)
}

func (h *FleetHandler) UpdateVehicleStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	status, err := models.ParseVehicleStatus(req.Status)
	if err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	id := c.Param("id")
	updated, err := h.store.UpdateVehicleStatus(id, status)
	if err != nil {
		respondStoreError(c, "Failed to update vehicle status", err)
		return
	}
	if !updated {
		utils.ErrorResponse(c, http.StatusNotFound, "Vehicle not found", nil)
		return
	}

	vehicle, err := h.store.Vehicle(id)
	if err != nil {
		// deleted between the update and this read
		respondStoreError(c, "Vehicle not found", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Vehicle status updated successfully", vehicle)
}

// DeleteVehicle removes a vehicle. Its maintenance and fuel records stay.
func (h *FleetHandler) DeleteVehicle(c *gin.Context) {
	if !h.store.DeleteVehicle(c.Param("id")) {
		utils.ErrorResponse(c, http.StatusNotFound, "Vehicle not found", nil)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Vehicle deleted successfully", nil)
}
