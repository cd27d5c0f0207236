package domain

import (
	"errors"
	"testing"
	"time"
)

func TestReportOptions_Validate(t *testing.T) {
	expense := TransactionTypeExpense
	bogus := TransactionType("gift")
	jan := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		opts    ReportOptions
		wantErr error
	}{
		{"defaults", ReportOptions{}, nil},
		{"full", ReportOptions{
			GroupBy: GroupByCategory,
			Fields:  []ReportField{FieldDate, FieldAmount},
			Filters: ReportFilters{Type: &expense, StartDate: &jan, EndDate: &feb, SortBy: SortByAmountDesc},
		}, nil},
		{"unknown groupBy", ReportOptions{GroupBy: "week"}, ErrInvalidInput},
		{"unknown sortBy", ReportOptions{Filters: ReportFilters{SortBy: "name"}}, ErrInvalidInput},
		{"unknown type", ReportOptions{Filters: ReportFilters{Type: &bogus}}, ErrInvalidTransactionType},
		{"reversed dates", ReportOptions{Filters: ReportFilters{StartDate: &feb, EndDate: &jan}}, ErrInvalidInput},
		{"unknown field", ReportOptions{Fields: []ReportField{"balance"}}, ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.opts.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPreset_Options(t *testing.T) {
	income := TransactionTypeIncome
	p := Preset{
		Name:       "Salary by month",
		Fields:     []ReportField{FieldDate, FieldAmount},
		Type:       &income,
		CategoryID: "salary",
		GroupBy:    GroupByMonth,
		SortBy:     SortByDateAsc,
	}

	if err := p.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	opts := p.Options()
	if opts.GroupBy != GroupByMonth || opts.Filters.CategoryID != "salary" || opts.Filters.SortBy != SortByDateAsc {
		t.Errorf("Options() = %+v", opts)
	}
	if opts.Filters.Type == nil || *opts.Filters.Type != income {
		t.Errorf("Options().Filters.Type = %v, want income", opts.Filters.Type)
	}

	p.Name = ""
	if err := p.Validate(); !errors.Is(err, ErrNameRequired) {
		t.Errorf("Validate() with blank name = %v, want %v", err, ErrNameRequired)
	}
}
