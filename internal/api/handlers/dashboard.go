package handlers

import (
	"net/http"

	"fleet-dashboard/internal/analytics"
	"fleet-dashboard/internal/store"
	"fleet-dashboard/pkg/utils"

	"github.com/gin-gonic/gin"
)

type DashboardHandler struct {
	store *store.Store
}

func NewDashboardHandler(fleet *store.Store) *DashboardHandler {
	return &DashboardHandler{store: fleet}
}

// GetDashboard computes the overview statistics from a fresh snapshot.
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	summary := analytics.Summarize(h.store.Snapshot())
	utils.SuccessResponse(c, http.StatusOK, "Dashboard retrieved successfully", summary)
}
