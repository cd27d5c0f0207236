package handler

import (
	"net/http"
	"time"

	"github.com/codepinky/ruptura/ruptura-backend/internal/middleware"
	"github.com/codepinky/ruptura/ruptura-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// GoalHandler handles goal and saving progress requests
type GoalHandler struct {
	goalService *service.GoalService
	waitTimeout time.Duration
}

// NewGoalHandler creates a new GoalHandler
func NewGoalHandler(goalService *service.GoalService) *GoalHandler {
	return &GoalHandler{goalService: goalService, waitTimeout: DefaultWaitTimeout}
}

// ContributionRequest is the body of an add-money request
type ContributionRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// GetGoalProgress handles GET /api/v1/goals/progress
func (h *GoalHandler) GetGoalProgress(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "User required")
	}

	progress, err := h.goalService.GetGoalProgress(userID)
	if err != nil {
		return respondError(c, err, userID, "get goal progress")
	}
	return c.JSON(http.StatusOK, progress)
}

// GetSavingProgress handles GET /api/v1/savings/progress
func (h *GoalHandler) GetSavingProgress(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "User required")
	}

	progress, err := h.goalService.GetSavingProgress(userID)
	if err != nil {
		return respondError(c, err, userID, "get saving progress")
	}
	return c.JSON(http.StatusOK, progress)
}

// AddToGoal handles POST /api/v1/goals/:id/contributions
func (h *GoalHandler) AddToGoal(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "User required")
	}

	var req ContributionRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	intent, err := h.goalService.AddToGoal(c.Request().Context(), userID, c.Param("id"), req.Amount)
	if err != nil {
		return respondError(c, err, userID, "add to goal")
	}

	log.Info().Str("user_id", userID).Str("goal_id", c.Param("id")).Str("amount", req.Amount.String()).Msg("Goal contribution submitted")
	return respondIntent(c, intent, userID, h.waitTimeout)
}

// AddToSaving handles POST /api/v1/savings/:id/contributions
func (h *GoalHandler) AddToSaving(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "User required")
	}

	var req ContributionRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	intent, err := h.goalService.AddToSaving(c.Request().Context(), userID, c.Param("id"), req.Amount)
	if err != nil {
		return respondError(c, err, userID, "add to saving")
	}

	log.Info().Str("user_id", userID).Str("saving_id", c.Param("id")).Str("amount", req.Amount.String()).Msg("Saving contribution submitted")
	return respondIntent(c, intent, userID, h.waitTimeout)
}
