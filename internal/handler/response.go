package handler

import (
	"errors"
	"net/http"

	"github.com/codepinky/ruptura/ruptura-backend/internal/domain"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// ProblemDetails represents an RFC 7807 Problem Details response
type ProblemDetails struct {
	Type     string            `json:"type"`
	Title    string            `json:"title"`
	Status   int               `json:"status"`
	Detail   string            `json:"detail,omitempty"`
	Instance string            `json:"instance,omitempty"`
	Errors   []ValidationError `json:"errors,omitempty"`
}

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error types
const (
	ErrorTypeValidation   = "https://ruptura.app/errors/validation"
	ErrorTypeNotFound     = "https://ruptura.app/errors/not-found"
	ErrorTypeUnauthorized = "https://ruptura.app/errors/unauthorized"
	ErrorTypeUnavailable  = "https://ruptura.app/errors/unavailable"
	ErrorTypeInternal     = "https://ruptura.app/errors/internal"
)

// NewValidationError creates a validation error response
func NewValidationError(c echo.Context, detail string, errors []ValidationError) error {
	return c.JSON(http.StatusBadRequest, ProblemDetails{
		Type:     ErrorTypeValidation,
		Title:    "Validation Error",
		Status:   http.StatusBadRequest,
		Detail:   detail,
		Instance: c.Request().URL.Path,
		Errors:   errors,
	})
}

// NewNotFoundError creates a not found error response
func NewNotFoundError(c echo.Context, detail string) error {
	return c.JSON(http.StatusNotFound, ProblemDetails{
		Type:     ErrorTypeNotFound,
		Title:    "Not Found",
		Status:   http.StatusNotFound,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewUnauthorizedError creates an unauthorized error response
func NewUnauthorizedError(c echo.Context, detail string) error {
	return c.JSON(http.StatusUnauthorized, ProblemDetails{
		Type:     ErrorTypeUnauthorized,
		Title:    "Unauthorized",
		Status:   http.StatusUnauthorized,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewUnavailableError creates a service unavailable error response
func NewUnavailableError(c echo.Context, detail string) error {
	return c.JSON(http.StatusServiceUnavailable, ProblemDetails{
		Type:     ErrorTypeUnavailable,
		Title:    "Service Unavailable",
		Status:   http.StatusServiceUnavailable,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewInternalError creates an internal error response
func NewInternalError(c echo.Context, detail string) error {
	return c.JSON(http.StatusInternalServerError, ProblemDetails{
		Type:     ErrorTypeInternal,
		Title:    "Internal Server Error",
		Status:   http.StatusInternalServerError,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

var validationErrors = []error{
	domain.ErrInvalidInput,
	domain.ErrNameRequired,
	domain.ErrNameTooLong,
	domain.ErrDescriptionRequired,
	domain.ErrInvalidAmount,
	domain.ErrInvalidTransactionType,
	domain.ErrInvalidDate,
	domain.ErrInvalidPeriod,
	domain.ErrInvalidPriority,
	domain.ErrUnknownCollection,
	domain.ErrInvalidMutation,
	domain.ErrEntityMismatch,
}

var notFoundErrors = []error{
	domain.ErrNotFound,
	domain.ErrTransactionNotFound,
	domain.ErrCategoryNotFound,
	domain.ErrBudgetNotFound,
	domain.ErrGoalNotFound,
	domain.ErrSavingNotFound,
	domain.ErrPresetNotFound,
	domain.ErrSessionNotFound,
}

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// respondError maps a service error onto a problem response. Unknown errors
// are logged and reported as internal with the given action in the detail.
func respondError(c echo.Context, err error, userID, action string) error {
	switch {
	case isAny(err, validationErrors):
		return NewValidationError(c, err.Error(), nil)
	case isAny(err, notFoundErrors):
		return NewNotFoundError(c, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		return NewUnauthorizedError(c, "User required")
	case errors.Is(err, domain.ErrSessionClosed), errors.Is(err, domain.ErrMutationQueueFull),
		errors.Is(err, domain.ErrLedgerNotSynced):
		return NewUnavailableError(c, err.Error())
	}

	log.Error().Err(err).Str("user_id", userID).Msg("Failed to " + action)
	return NewInternalError(c, "Failed to "+action)
}
