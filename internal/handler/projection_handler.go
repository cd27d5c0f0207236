package handler

import (
	"net/http"

	"github.com/codepinky/ruptura/ruptura-backend/internal/middleware"
	"github.com/codepinky/ruptura/ruptura-backend/internal/service"
	"github.com/labstack/echo/v4"
)

// ProjectionHandler handles projection and trend requests
type ProjectionHandler struct {
	projectionService *service.ProjectionService
}

// NewProjectionHandler creates a new ProjectionHandler
func NewProjectionHandler(projectionService *service.ProjectionService) *ProjectionHandler {
	return &ProjectionHandler{projectionService: projectionService}
}

// GetMonthly handles GET /api/v1/projections/monthly?months=
func (h *ProjectionHandler) GetMonthly(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "User required")
	}

	months, err := parseIntParam(c, "months")
	if err != nil {
		return NewValidationError(c, err.Error(), []ValidationError{{Field: "months", Message: "Must be an integer"}})
	}

	projection, err := h.projectionService.GetMonthly(userID, months)
	if err != nil {
		return respondError(c, err, userID, "project month")
	}
	return c.JSON(http.StatusOK, projection)
}

// GetYearly handles GET /api/v1/projections/yearly
func (h *ProjectionHandler) GetYearly(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "User required")
	}

	projection, err := h.projectionService.GetYearly(userID)
	if err != nil {
		return respondError(c, err, userID, "project year")
	}
	return c.JSON(http.StatusOK, projection)
}

// GetTrend handles GET /api/v1/projections/trend?months=&categoryId=
func (h *ProjectionHandler) GetTrend(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "User required")
	}

	months, err := parseIntParam(c, "months")
	if err != nil {
		return NewValidationError(c, err.Error(), []ValidationError{{Field: "months", Message: "Must be an integer"}})
	}

	trend, err := h.projectionService.GetTrend(userID, months, c.QueryParam("categoryId"))
	if err != nil {
		return respondError(c, err, userID, "compute trend")
	}
	return c.JSON(http.StatusOK, trend)
}
