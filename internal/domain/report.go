package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// GroupBy is the grouping dimension of the report builder
type GroupBy string

const (
	GroupByNone     GroupBy = "none"
	GroupByMonth    GroupBy = "month"
	GroupByCategory GroupBy = "category"
	GroupByType     GroupBy = "type"
)

// SortBy orders transactions before grouping
type SortBy string

const (
	SortByDateAsc    SortBy = "date_asc"
	SortByDateDesc   SortBy = "date_desc"
	SortByAmountAsc  SortBy = "amount_asc"
	SortByAmountDesc SortBy = "amount_desc"
)

// ReportField is a projectable transaction column
type ReportField string

const (
	FieldDate        ReportField = "date"
	FieldDescription ReportField = "description"
	FieldType        ReportField = "type"
	FieldCategory    ReportField = "category"
	FieldAmount      ReportField = "amount"
	FieldNotes       ReportField = "notes"
)

// ExportColumns is the fixed column order of a flat export
var ExportColumns = []ReportField{FieldDate, FieldDescription, FieldType, FieldCategory, FieldAmount, FieldNotes}

// ReportFilters is a conjunction of optional constraints
type ReportFilters struct {
	Type       *TransactionType `json:"type,omitempty"`
	CategoryID string           `json:"categoryId,omitempty"`
	StartDate  *time.Time       `json:"startDate,omitempty"`
	EndDate    *time.Time       `json:"endDate,omitempty"`
	Text       string           `json:"text,omitempty"`
	SortBy     SortBy           `json:"sortBy,omitempty"`
}

// ReportOptions parameterizes a pivot build
type ReportOptions struct {
	GroupBy GroupBy       `json:"groupBy"`
	Fields  []ReportField `json:"fields"`
	Filters ReportFilters `json:"filters"`
}

// Validate checks enum values; empty values take defaults
func (o ReportOptions) Validate() error {
	switch o.GroupBy {
	case "", GroupByNone, GroupByMonth, GroupByCategory, GroupByType:
	default:
		return fmt.Errorf("%w: unknown groupBy %q", ErrInvalidInput, o.GroupBy)
	}
	switch o.Filters.SortBy {
	case "", SortByDateAsc, SortByDateDesc, SortByAmountAsc, SortByAmountDesc:
	default:
		return fmt.Errorf("%w: unknown sortBy %q", ErrInvalidInput, o.Filters.SortBy)
	}
	if o.Filters.Type != nil && !o.Filters.Type.Valid() {
		return ErrInvalidTransactionType
	}
	if o.Filters.StartDate != nil && o.Filters.EndDate != nil && o.Filters.StartDate.After(*o.Filters.EndDate) {
		return fmt.Errorf("%w: startDate after endDate", ErrInvalidInput)
	}
	for _, f := range o.Fields {
		if !f.Valid() {
			return fmt.Errorf("%w: unknown field %q", ErrInvalidInput, f)
		}
	}
	return nil
}

// Valid reports whether f is a known field
func (f ReportField) Valid() bool {
	for _, c := range ExportColumns {
		if c == f {
			return true
		}
	}
	return false
}

// ReportRow is one projected transaction keyed by field
type ReportRow map[ReportField]string

// ReportGroup is one partition of the filtered set
type ReportGroup struct {
	Key     string          `json:"key"`
	Label   string          `json:"label"`
	Items   []ReportRow     `json:"items"`
	Count   int             `json:"count"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Total   decimal.Decimal `json:"total"`
}

// Report is the builder output: Rows when ungrouped, Groups otherwise
type Report struct {
	GroupBy  GroupBy         `json:"groupBy"`
	Fields   []ReportField   `json:"fields"`
	Rows     []ReportRow     `json:"rows,omitempty"`
	Groups   []ReportGroup   `json:"groups,omitempty"`
	Filtered int             `json:"filtered"`
	Total    decimal.Decimal `json:"total"`
}

// Preset is a named, persisted bundle of report builder parameters
type Preset struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	Fields     []ReportField    `json:"fields"`
	Type       *TransactionType `json:"type,omitempty"`
	CategoryID string           `json:"categoryId,omitempty"`
	StartDate  *time.Time       `json:"startDate,omitempty"`
	EndDate    *time.Time       `json:"endDate,omitempty"`
	GroupBy    GroupBy          `json:"groupBy"`
	SortBy     SortBy           `json:"sortBy"`
	UpdatedAt  time.Time        `json:"updatedAt"`
}

// Options converts the preset into builder options
func (p Preset) Options() ReportOptions {
	return ReportOptions{
		GroupBy: p.GroupBy,
		Fields:  p.Fields,
		Filters: ReportFilters{
			Type:       p.Type,
			CategoryID: p.CategoryID,
			StartDate:  p.StartDate,
			EndDate:    p.EndDate,
			SortBy:     p.SortBy,
		},
	}
}

func (p Preset) Validate() error {
	if err := validateName(p.Name); err != nil {
		return err
	}
	return p.Options().Validate()
}

// PresetRepository persists a user's presets as a single blob
type PresetRepository interface {
	Load(ctx context.Context, userID string) ([]*Preset, error)
	Save(ctx context.Context, userID string, presets []*Preset) error
}
