package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"
)

// Valid reports whether t is income or expense
func (t TransactionType) Valid() bool {
	return t == TransactionTypeIncome || t == TransactionTypeExpense
}

type Transaction struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Type        TransactionType `json:"type"`
	CategoryID  string          `json:"categoryId"`
	Date        time.Time       `json:"date"`
	Notes       *string         `json:"notes,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

func (t Transaction) EntityID() string       { return t.ID }
func (t Transaction) Collection() Collection { return CollectionTransactions }
func (t Transaction) LastUpdated() time.Time { return t.UpdatedAt }

// Validate checks the invariants of a transaction payload
func (t Transaction) Validate() error {
	if strings.TrimSpace(t.Description) == "" {
		return ErrDescriptionRequired
	}
	if len(t.Description) > MaxDescriptionLength {
		return ErrNameTooLong
	}
	if !t.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !t.Type.Valid() {
		return ErrInvalidTransactionType
	}
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// SignedAmount is the amount with income positive and expense negative
func (t Transaction) SignedAmount() decimal.Decimal {
	if t.Type == TransactionTypeExpense {
		return t.Amount.Neg()
	}
	return t.Amount
}

// NotesText returns the notes or an empty string
func (t Transaction) NotesText() string {
	if t.Notes == nil {
		return ""
	}
	return *t.Notes
}
