package domain

import "errors"

// Domain errors
var (
	ErrNotFound               = errors.New("resource not found")
	ErrInvalidInput           = errors.New("invalid input")
	ErrUnauthorized           = errors.New("unauthorized")
	ErrInternalError          = errors.New("internal error")
	ErrNameRequired           = errors.New("name is required")
	ErrNameTooLong            = errors.New("name exceeds maximum length")
	ErrDescriptionRequired    = errors.New("description is required")
	ErrInvalidAmount          = errors.New("amount must be greater than zero")
	ErrInvalidTransactionType = errors.New("type must be income or expense")
	ErrInvalidDate            = errors.New("date is required")
	ErrInvalidPeriod          = errors.New("invalid budget period")
	ErrInvalidPriority        = errors.New("priority must be low, medium or high")
	ErrUnknownCollection      = errors.New("unknown collection")
	ErrInvalidMutation        = errors.New("invalid mutation")
	ErrEntityMismatch         = errors.New("entity does not belong to collection")
	ErrTransactionNotFound    = errors.New("transaction not found")
	ErrCategoryNotFound       = errors.New("category not found")
	ErrBudgetNotFound         = errors.New("budget not found")
	ErrGoalNotFound           = errors.New("goal not found")
	ErrSavingNotFound         = errors.New("saving not found")
	ErrPresetNotFound         = errors.New("preset not found")
	ErrSessionNotFound        = errors.New("ledger session not found")
	ErrSessionClosed          = errors.New("ledger session is closed")
	ErrMutationQueueFull      = errors.New("mutation queue is full")
	ErrLedgerNotSynced        = errors.New("ledger has not finished its first sync")
)

// Validation constants
const (
	MaxNameLength        = 255
	MaxDescriptionLength = 1000
)
