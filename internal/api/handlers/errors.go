package handlers

import (
	"errors"
	"net/http"

	"fleet-dashboard/internal/models"
	"fleet-dashboard/internal/store"
	"fleet-dashboard/pkg/utils"

	"github.com/gin-gonic/gin"
)

// respondStoreError maps store and model errors to HTTP responses.
func respondStoreError(c *gin.Context, message string, err error) {
	switch {
	case errors.Is(err, models.ErrInvalid), errors.Is(err, store.ErrInvalidVehicleID):
		utils.ValidationErrorResponse(c, err)
	case errors.Is(err, store.ErrDuplicateVehicle):
		utils.ErrorResponse(c, http.StatusConflict, message, err)
	case errors.Is(err, store.ErrVehicleNotFound):
		utils.ErrorResponse(c, http.StatusNotFound, message, err)
	default:
		utils.ErrorResponse(c, http.StatusInternalServerError, message, err)
	}
}
