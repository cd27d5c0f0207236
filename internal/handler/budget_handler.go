package handler

import (
	"net/http"

	"github.com/codepinky/ruptura/ruptura-backend/internal/middleware"
	"github.com/codepinky/ruptura/ruptura-backend/internal/service"
	"github.com/labstack/echo/v4"
)

// BudgetHandler handles budget analysis HTTP requests
type BudgetHandler struct {
	budgetService *service.BudgetService
}

// NewBudgetHandler creates a new BudgetHandler
func NewBudgetHandler(budgetService *service.BudgetService) *BudgetHandler {
	return &BudgetHandler{budgetService: budgetService}
}

// GetOverview handles GET /api/v1/budgets/analysis
func (h *BudgetHandler) GetOverview(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "User required")
	}

	overview, err := h.budgetService.GetOverview(userID)
	if err != nil {
		return respondError(c, err, userID, "analyze budgets")
	}
	return c.JSON(http.StatusOK, overview)
}

// GetAnalysis handles GET /api/v1/budgets/:id/analysis
func (h *BudgetHandler) GetAnalysis(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "User required")
	}

	analysis, err := h.budgetService.GetAnalysis(userID, c.Param("id"))
	if err != nil {
		return respondError(c, err, userID, "analyze budget")
	}
	return c.JSON(http.StatusOK, analysis)
}

// GetAlerts handles GET /api/v1/budgets/alerts
func (h *BudgetHandler) GetAlerts(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "User required")
	}

	alerts, err := h.budgetService.GetAlerts(userID)
	if err != nil {
		return respondError(c, err, userID, "get budget alerts")
	}
	return c.JSON(http.StatusOK, alerts)
}
