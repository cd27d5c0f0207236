package handler

import (
	"net/http"

	"github.com/codepinky/ruptura/ruptura-backend/internal/middleware"
	"github.com/codepinky/ruptura/ruptura-backend/internal/service"
	"github.com/labstack/echo/v4"
)

// CategoryHandler handles category aggregation requests
type CategoryHandler struct {
	categoryService *service.CategoryService
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(categoryService *service.CategoryService) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService}
}

// GetAggregate handles GET /api/v1/categories/aggregate?start=&end=&rank=&limit=
func (h *CategoryHandler) GetAggregate(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "User required")
	}

	period, err := parsePeriod(c)
	if err != nil {
		return NewValidationError(c, err.Error(), nil)
	}
	rank, err := service.ParseRanking(c.QueryParam("rank"))
	if err != nil {
		return NewValidationError(c, err.Error(), []ValidationError{{Field: "rank", Message: "Must be magnitude or value"}})
	}
	limit, err := parseIntParam(c, "limit")
	if err != nil || limit < 0 {
		return NewValidationError(c, "Invalid limit", []ValidationError{{Field: "limit", Message: "Must be a non-negative integer"}})
	}

	breakdown, err := h.categoryService.GetBreakdown(userID, period, rank, limit)
	if err != nil {
		return respondError(c, err, userID, "aggregate categories")
	}
	return c.JSON(http.StatusOK, breakdown)
}

// GetDetails handles GET /api/v1/categories/:id/details?start=&end=
func (h *CategoryHandler) GetDetails(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "User required")
	}

	period, err := parsePeriod(c)
	if err != nil {
		return NewValidationError(c, err.Error(), nil)
	}

	detail, err := h.categoryService.GetDetail(userID, c.Param("id"), period)
	if err != nil {
		return respondError(c, err, userID, "get category details")
	}
	return c.JSON(http.StatusOK, detail)
}
