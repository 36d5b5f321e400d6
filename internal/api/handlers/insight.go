package handlers

import (
	"context"
	"net/http"

	"fleet-dashboard/internal/insight"
	"fleet-dashboard/internal/store"
	"fleet-dashboard/pkg/utils"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

type InsightHandler struct {
	store   *store.Store
	service *insight.Service
}

func NewInsightHandler(fleet *store.Store, service *insight.Service) *InsightHandler {
	return &InsightHandler{store: fleet, service: service}
}

// GetLatest returns the most recently resolved report.
func (h *InsightHandler) GetLatest(c *gin.Context) {
	report, ok := h.service.Latest()
	if !ok {
		utils.ErrorResponse(c, http.StatusNotFound, "No insight report generated yet", nil)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Insight report retrieved successfully", report)
}

// Generate requests a new report for the current fleet. With ?async=true it
// returns immediately; otherwise it waits for the report. A client that
// disconnects does not cancel generation.
func (h *InsightHandler) Generate(c *gin.Context) {
	snapshot := h.store.Snapshot()
	result := h.service.RequestInsightAsync(context.WithoutCancel(c.Request.Context()), snapshot)

	if c.Query("async") == "true" {
		utils.SuccessResponse(c, http.StatusAccepted, "Insight report requested", nil)
		return
	}

	select {
	case report := <-result:
		utils.SuccessResponse(c, http.StatusOK, "Insight report generated", report)
	case <-c.Request.Context().Done():
		log.Debug("Client left before the insight report resolved")
	}
}
