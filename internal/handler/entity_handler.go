package handler

import (
	"net/http"
	"time"

	"github.com/codepinky/ruptura/ruptura-backend/internal/domain"
	"github.com/codepinky/ruptura/ruptura-backend/internal/middleware"
	"github.com/codepinky/ruptura/ruptura-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// EntityHandler serves list and write endpoints for every ledger collection.
// Writes go through the session's mutation queue and answer with an intent.
type EntityHandler struct {
	ledgers     service.LedgerProvider
	submitter   service.MutationSubmitter
	waitTimeout time.Duration
}

// NewEntityHandler creates a new EntityHandler
func NewEntityHandler(ledgers service.LedgerProvider, submitter service.MutationSubmitter) *EntityHandler {
	return &EntityHandler{
		ledgers:     ledgers,
		submitter:   submitter,
		waitTimeout: DefaultWaitTimeout,
	}
}

// TransactionRequest is the create/update body of a transaction
type TransactionRequest struct {
	Description string                 `json:"description"`
	Amount      decimal.Decimal        `json:"amount"`
	Type        domain.TransactionType `json:"type"`
	CategoryID  string                 `json:"categoryId"`
	Date        Date                   `json:"date"`
	Notes       *string                `json:"notes"`
}

// CategoryRequest is the create/update body of a category
type CategoryRequest struct {
	Name  string                 `json:"name"`
	Color string                 `json:"color"`
	Type  domain.TransactionType `json:"type"`
}

// BudgetRequest is the create/update body of a budget
type BudgetRequest struct {
	Name       *string             `json:"name"`
	CategoryID string              `json:"categoryId"`
	Limit      decimal.Decimal     `json:"limit"`
	Period     domain.BudgetPeriod `json:"period"`
	Month      *int                `json:"month"`
	Year       *int                `json:"year"`
	StartDate  *Date               `json:"startDate"`
	EndDate    *Date               `json:"endDate"`
}

// GoalRequest is the create/update body of a goal
type GoalRequest struct {
	Name          string              `json:"name"`
	TargetAmount  decimal.Decimal     `json:"targetAmount"`
	CurrentAmount decimal.Decimal     `json:"currentAmount"`
	Deadline      Date                `json:"deadline"`
	Type          string              `json:"type"`
	Priority      domain.GoalPriority `json:"priority"`
	Description   string              `json:"description"`
}

// SavingRequest is the create/update body of a saving
type SavingRequest struct {
	Name          string          `json:"name"`
	TargetAmount  decimal.Decimal `json:"targetAmount"`
	CurrentAmount decimal.Decimal `json:"currentAmount"`
	Description   *string         `json:"description"`
}

func (r TransactionRequest) toEntity(id string) domain.Entity {
	return domain.Transaction{
		ID:          id,
		Description: r.Description,
		Amount:      r.Amount,
		Type:        r.Type,
		CategoryID:  r.CategoryID,
		Date:        r.Date.Time,
		Notes:       r.Notes,
	}
}

func (r CategoryRequest) toEntity(id string) domain.Entity {
	return domain.Category{ID: id, Name: r.Name, Color: r.Color, Type: r.Type}
}

func (r BudgetRequest) toEntity(id string) domain.Entity {
	return domain.Budget{
		ID:         id,
		Name:       r.Name,
		CategoryID: r.CategoryID,
		Limit:      r.Limit,
		Period:     r.Period,
		Month:      r.Month,
		Year:       r.Year,
		StartDate:  r.StartDate.Ptr(),
		EndDate:    r.EndDate.Ptr(),
	}
}

func (r GoalRequest) toEntity(id string) domain.Entity {
	return domain.Goal{
		ID:            id,
		Name:          r.Name,
		TargetAmount:  r.TargetAmount,
		CurrentAmount: r.CurrentAmount,
		Deadline:      r.Deadline.Time,
		Type:          r.Type,
		Priority:      r.Priority,
		Description:   r.Description,
	}
}

func (r SavingRequest) toEntity(id string) domain.Entity {
	return domain.Saving{
		ID:            id,
		Name:          r.Name,
		TargetAmount:  r.TargetAmount,
		CurrentAmount: r.CurrentAmount,
		Description:   r.Description,
	}
}

type entityRequest interface {
	toEntity(id string) domain.Entity
}

func newEntityRequest(c domain.Collection) entityRequest {
	switch c {
	case domain.CollectionTransactions:
		return &TransactionRequest{}
	case domain.CollectionCategories:
		return &CategoryRequest{}
	case domain.CollectionBudgets:
		return &BudgetRequest{}
	case domain.CollectionGoals:
		return &GoalRequest{}
	case domain.CollectionSavings:
		return &SavingRequest{}
	}
	return nil
}

// List handles GET /api/v1/{collection}
func (h *EntityHandler) List(collection domain.Collection) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID := middleware.GetUserID(c)
		if userID == "" {
			return NewUnauthorizedError(c, "User required")
		}

		l, err := h.ledgers.Ledger(userID)
		if err != nil {
			return respondError(c, err, userID, "load "+string(collection))
		}

		switch collection {
		case domain.CollectionTransactions:
			return c.JSON(http.StatusOK, l.Transactions())
		case domain.CollectionCategories:
			return c.JSON(http.StatusOK, l.Categories())
		case domain.CollectionBudgets:
			return c.JSON(http.StatusOK, l.Budgets())
		case domain.CollectionGoals:
			return c.JSON(http.StatusOK, l.Goals())
		case domain.CollectionSavings:
			return c.JSON(http.StatusOK, l.Savings())
		}
		return NewNotFoundError(c, "Unknown collection")
	}
}

// Get handles GET /api/v1/{collection}/:id
func (h *EntityHandler) Get(collection domain.Collection) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID := middleware.GetUserID(c)
		if userID == "" {
			return NewUnauthorizedError(c, "User required")
		}

		l, err := h.ledgers.Ledger(userID)
		if err != nil {
			return respondError(c, err, userID, "load "+string(collection))
		}

		entity, ok := l.Lookup(collection, c.Param("id"))
		if !ok {
			return NewNotFoundError(c, domain.NotFoundError(collection).Error())
		}
		return c.JSON(http.StatusOK, entity)
	}
}

// Create handles POST /api/v1/{collection}
func (h *EntityHandler) Create(collection domain.Collection) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID := middleware.GetUserID(c)
		if userID == "" {
			return NewUnauthorizedError(c, "User required")
		}

		req := newEntityRequest(collection)
		if err := c.Bind(req); err != nil {
			return NewValidationError(c, "Invalid request body", nil)
		}

		return h.submit(c, userID, domain.Mutation{
			Kind:       domain.MutationCreate,
			Collection: collection,
			Entity:     req.toEntity(""),
		})
	}
}

// Update handles PUT /api/v1/{collection}/:id
func (h *EntityHandler) Update(collection domain.Collection) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID := middleware.GetUserID(c)
		if userID == "" {
			return NewUnauthorizedError(c, "User required")
		}

		id := c.Param("id")
		if err := h.requireExisting(c, userID, collection, id); err != nil {
			return respondError(c, err, userID, "update "+string(collection))
		}

		req := newEntityRequest(collection)
		if err := c.Bind(req); err != nil {
			return NewValidationError(c, "Invalid request body", nil)
		}

		return h.submit(c, userID, domain.Mutation{
			Kind:       domain.MutationUpdate,
			Collection: collection,
			ID:         id,
			Entity:     req.toEntity(id),
		})
	}
}

// Delete handles DELETE /api/v1/{collection}/:id
func (h *EntityHandler) Delete(collection domain.Collection) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID := middleware.GetUserID(c)
		if userID == "" {
			return NewUnauthorizedError(c, "User required")
		}

		id := c.Param("id")
		if err := h.requireExisting(c, userID, collection, id); err != nil {
			return respondError(c, err, userID, "delete "+string(collection))
		}

		return h.submit(c, userID, domain.Mutation{
			Kind:       domain.MutationDelete,
			Collection: collection,
			ID:         id,
		})
	}
}

func (h *EntityHandler) requireExisting(c echo.Context, userID string, collection domain.Collection, id string) error {
	l, err := service.SyncedLedger(c.Request().Context(), h.ledgers, userID)
	if err != nil {
		return err
	}
	if _, ok := l.Lookup(collection, id); !ok {
		return domain.NotFoundError(collection)
	}
	return nil
}

func (h *EntityHandler) submit(c echo.Context, userID string, m domain.Mutation) error {
	intent, err := h.submitter.Submit(c.Request().Context(), userID, m)
	if err != nil {
		return respondError(c, err, userID, string(m.Kind)+" "+string(m.Collection))
	}

	log.Info().
		Str("user_id", userID).
		Str("intent_id", intent.ID()).
		Str("kind", string(m.Kind)).
		Str("collection", string(m.Collection)).
		Msg("Mutation submitted")

	return respondIntent(c, intent, userID, h.waitTimeout)
}
