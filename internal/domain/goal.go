package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type GoalPriority string

const (
	GoalPriorityLow    GoalPriority = "low"
	GoalPriorityMedium GoalPriority = "medium"
	GoalPriorityHigh   GoalPriority = "high"
)

// Valid reports whether p is a known priority
func (p GoalPriority) Valid() bool {
	return p == GoalPriorityLow || p == GoalPriorityMedium || p == GoalPriorityHigh
}

type Goal struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	TargetAmount  decimal.Decimal `json:"targetAmount"`
	CurrentAmount decimal.Decimal `json:"currentAmount"`
	Deadline      time.Time       `json:"deadline"`
	Type          string          `json:"type"`
	Priority      GoalPriority    `json:"priority"`
	Description   string          `json:"description"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

func (g Goal) EntityID() string       { return g.ID }
func (g Goal) Collection() Collection { return CollectionGoals }
func (g Goal) LastUpdated() time.Time { return g.UpdatedAt }

func (g Goal) Validate() error {
	if err := validateName(g.Name); err != nil {
		return err
	}
	if !g.TargetAmount.IsPositive() || g.CurrentAmount.IsNegative() {
		return ErrInvalidAmount
	}
	if g.Deadline.IsZero() {
		return ErrInvalidDate
	}
	if !g.Priority.Valid() {
		return ErrInvalidPriority
	}
	return nil
}

type Saving struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	TargetAmount  decimal.Decimal `json:"targetAmount"`
	CurrentAmount decimal.Decimal `json:"currentAmount"`
	Description   *string         `json:"description,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

func (s Saving) EntityID() string       { return s.ID }
func (s Saving) Collection() Collection { return CollectionSavings }
func (s Saving) LastUpdated() time.Time { return s.UpdatedAt }

func (s Saving) Validate() error {
	if err := validateName(s.Name); err != nil {
		return err
	}
	if !s.TargetAmount.IsPositive() || s.CurrentAmount.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}

// DescriptionText returns the description or an empty string
func (s Saving) DescriptionText() string {
	if s.Description == nil {
		return ""
	}
	return *s.Description
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrNameRequired
	}
	if len(name) > MaxNameLength {
		return ErrNameTooLong
	}
	return nil
}
