package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type BudgetPeriod string

const (
	BudgetPeriodMonthly BudgetPeriod = "monthly"
	BudgetPeriodYearly  BudgetPeriod = "yearly"
	BudgetPeriodCustom  BudgetPeriod = "custom"
)

type Budget struct {
	ID         string          `json:"id"`
	Name       *string         `json:"name,omitempty"`
	CategoryID string          `json:"categoryId"`
	Limit      decimal.Decimal `json:"limit"`
	Period     BudgetPeriod    `json:"period"`
	Month      *int            `json:"month,omitempty"`
	Year       *int            `json:"year,omitempty"`
	StartDate  *time.Time      `json:"startDate,omitempty"`
	EndDate    *time.Time      `json:"endDate,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

func (b Budget) EntityID() string       { return b.ID }
func (b Budget) Collection() Collection { return CollectionBudgets }
func (b Budget) LastUpdated() time.Time { return b.UpdatedAt }

// Validate enforces that exactly the period-appropriate date fields are present:
// monthly needs month+year, yearly needs year, custom needs startDate <= endDate.
func (b Budget) Validate() error {
	if b.CategoryID == "" {
		return fmt.Errorf("%w: categoryId is required", ErrInvalidInput)
	}
	if !b.Limit.IsPositive() {
		return ErrInvalidAmount
	}
	if b.Name != nil && len(*b.Name) > MaxNameLength {
		return ErrNameTooLong
	}

	switch b.Period {
	case BudgetPeriodMonthly:
		if b.Month == nil || b.Year == nil || b.StartDate != nil || b.EndDate != nil {
			return fmt.Errorf("%w: monthly budgets take month and year only", ErrInvalidPeriod)
		}
		if *b.Month < 1 || *b.Month > 12 {
			return fmt.Errorf("%w: month out of range", ErrInvalidPeriod)
		}
		return validYear(*b.Year)
	case BudgetPeriodYearly:
		if b.Year == nil || b.Month != nil || b.StartDate != nil || b.EndDate != nil {
			return fmt.Errorf("%w: yearly budgets take year only", ErrInvalidPeriod)
		}
		return validYear(*b.Year)
	case BudgetPeriodCustom:
		if b.StartDate == nil || b.EndDate == nil || b.Month != nil || b.Year != nil {
			return fmt.Errorf("%w: custom budgets take startDate and endDate only", ErrInvalidPeriod)
		}
		if b.StartDate.After(*b.EndDate) {
			return fmt.Errorf("%w: startDate after endDate", ErrInvalidPeriod)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidPeriod, b.Period)
	}
}

// DisplayName returns the budget name, if any
func (b Budget) DisplayName() string {
	if b.Name == nil {
		return ""
	}
	return *b.Name
}

func validYear(year int) error {
	if year < 1900 || year > 2100 {
		return fmt.Errorf("%w: year out of range", ErrInvalidPeriod)
	}
	return nil
}
