package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `validate:"required"`
	Year  int    `validate:"gt=0"`
	Cost  int    `validate:"gte=0"`
	Date  string `validate:"datetime=2006-01-02"`
	Level string `validate:"oneof=low high"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestValidationErrorResponse_WrappedValidationErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	err := validator.New().Struct(sample{Year: 0, Cost: -1, Date: "15/11/2023", Level: "mid"})
	require.Error(t, err)
	ValidationErrorResponse(c, fmt.Errorf("invalid entity: %w", err))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode(t, w)
	assert.False(t, resp.Success)
	assert.Equal(t, "Validation failed", resp.Message)
	assert.ElementsMatch(t, []interface{}{
		"Name is required",
		"Year must be greater than 0",
		"Cost must be at least 0",
		"Date must be a date formatted as YYYY-MM-DD",
		"Level must be one of: low high",
	}, resp.Error)
}

func TestValidationErrorResponse_PlainError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	ValidationErrorResponse(c, errors.New("unknown vehicle status \"PARKED\""))

	resp := decode(t, w)
	assert.Equal(t, []interface{}{"unknown vehicle status \"PARKED\""}, resp.Error)
}

func TestSuccessAndErrorResponse(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	SuccessResponse(c, http.StatusCreated, "created", map[string]string{"id": "1"})
	assert.Equal(t, http.StatusCreated, w.Code)
	resp := decode(t, w)
	assert.True(t, resp.Success)
	assert.Equal(t, map[string]interface{}{"id": "1"}, resp.Data)

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	ErrorResponse(c, http.StatusNotFound, "Vehicle not found", errors.New("vehicle not found: 9"))
	assert.Equal(t, http.StatusNotFound, w.Code)
	resp = decode(t, w)
	assert.False(t, resp.Success)
	assert.Equal(t, "vehicle not found: 9", resp.Error)
}
