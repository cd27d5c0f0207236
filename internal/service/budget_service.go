package service

import (
	"fmt"
	"slices"
	"time"

	"github.com/codepinky/ruptura/ruptura-backend/internal/domain"
	"github.com/codepinky/ruptura/ruptura-backend/internal/util"
	"github.com/shopspring/decimal"
)

// BudgetStatus classifies budget utilization
type BudgetStatus string

const (
	BudgetStatusGood     BudgetStatus = "good"
	BudgetStatusWarning  BudgetStatus = "warning"
	BudgetStatusExceeded BudgetStatus = "exceeded"
)

var warningThreshold = decimal.NewFromInt(80)

// BudgetAnalysis is the derived utilization of one budget
type BudgetAnalysis struct {
	Budget           domain.Budget   `json:"budget"`
	CategoryName     string          `json:"categoryName"`
	PeriodStart      time.Time       `json:"periodStart"`
	PeriodEnd        time.Time       `json:"periodEnd"`
	Spent            decimal.Decimal `json:"spent"`
	Remaining        decimal.Decimal `json:"remaining"`
	Percentage       decimal.Decimal `json:"percentage"`
	Status           BudgetStatus    `json:"status"`
	TransactionCount int             `json:"transactionCount"`
}

// BudgetOverview aggregates the analysis of every budget
type BudgetOverview struct {
	Budgets        []BudgetAnalysis `json:"budgets"`
	TotalLimit     decimal.Decimal  `json:"totalLimit"`
	TotalSpent     decimal.Decimal  `json:"totalSpent"`
	TotalRemaining decimal.Decimal  `json:"totalRemaining"`
	WarningCount   int              `json:"warningCount"`
	ExceededCount  int              `json:"exceededCount"`
}

// BudgetService computes budget utilization from the ledger
type BudgetService struct {
	ledgers LedgerProvider
}

// NewBudgetService creates a new BudgetService
func NewBudgetService(ledgers LedgerProvider) *BudgetService {
	return &BudgetService{ledgers: ledgers}
}

// GetOverview analyzes every budget of the user
func (s *BudgetService) GetOverview(userID string) (*BudgetOverview, error) {
	l, err := s.ledgers.Ledger(userID)
	if err != nil {
		return nil, err
	}
	return BuildBudgetOverview(l.Budgets(), l.Transactions(), l.CategoryIndex()), nil
}

// GetAnalysis analyzes one budget
func (s *BudgetService) GetAnalysis(userID, budgetID string) (*BudgetAnalysis, error) {
	l, err := s.ledgers.Ledger(userID)
	if err != nil {
		return nil, err
	}
	budget, ok := l.Budget(budgetID)
	if !ok {
		return nil, domain.ErrBudgetNotFound
	}
	analysis, err := AnalyzeBudget(budget, l.Transactions(), l.CategoryIndex())
	if err != nil {
		return nil, err
	}
	return &analysis, nil
}

// GetAlerts returns the budgets in warning or exceeded state, worst first
func (s *BudgetService) GetAlerts(userID string) ([]BudgetAnalysis, error) {
	overview, err := s.GetOverview(userID)
	if err != nil {
		return nil, err
	}

	alerts := make([]BudgetAnalysis, 0)
	for _, a := range overview.Budgets {
		if a.Status != BudgetStatusGood {
			alerts = append(alerts, a)
		}
	}
	sortByPercentageDesc(alerts)
	return alerts, nil
}

// BuildBudgetOverview analyzes budgets and sums their totals. Budgets whose
// period cannot be resolved are left out.
func BuildBudgetOverview(budgets []domain.Budget, txns []domain.Transaction, categories domain.CategoryIndex) *BudgetOverview {
	overview := &BudgetOverview{
		Budgets:        make([]BudgetAnalysis, 0, len(budgets)),
		TotalLimit:     decimal.Zero,
		TotalSpent:     decimal.Zero,
		TotalRemaining: decimal.Zero,
	}
	for _, b := range budgets {
		a, err := AnalyzeBudget(b, txns, categories)
		if err != nil {
			continue
		}
		overview.Budgets = append(overview.Budgets, a)
		overview.TotalLimit = overview.TotalLimit.Add(b.Limit)
		overview.TotalSpent = overview.TotalSpent.Add(a.Spent)
		overview.TotalRemaining = overview.TotalRemaining.Add(a.Remaining)
		switch a.Status {
		case BudgetStatusWarning:
			overview.WarningCount++
		case BudgetStatusExceeded:
			overview.ExceededCount++
		}
	}
	return overview
}

// AnalyzeBudget computes spend, remaining, percentage and status of a budget
// over its resolved period
func AnalyzeBudget(b domain.Budget, txns []domain.Transaction, categories domain.CategoryIndex) (BudgetAnalysis, error) {
	start, end, err := BudgetPeriod(b)
	if err != nil {
		return BudgetAnalysis{}, err
	}

	spent := decimal.Zero
	count := 0
	for _, t := range txns {
		if t.CategoryID != b.CategoryID || t.Type != domain.TransactionTypeExpense {
			continue
		}
		if !util.InRange(t.Date, start, end) {
			continue
		}
		spent = spent.Add(t.Amount)
		count++
	}

	percentage := percentOf(spent, b.Limit)
	return BudgetAnalysis{
		Budget:           b,
		CategoryName:     categories.NameOf(b.CategoryID),
		PeriodStart:      start,
		PeriodEnd:        end,
		Spent:            spent,
		Remaining:        nonNegative(b.Limit.Sub(spent)),
		Percentage:       percentage.Round(2),
		Status:           budgetStatus(percentage),
		TransactionCount: count,
	}, nil
}

// BudgetPeriod resolves a budget's symbolic period into an inclusive UTC range
func BudgetPeriod(b domain.Budget) (time.Time, time.Time, error) {
	switch b.Period {
	case domain.BudgetPeriodMonthly:
		if b.Month == nil || b.Year == nil || *b.Month < 1 || *b.Month > 12 {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: monthly budget needs month and year", domain.ErrInvalidPeriod)
		}
		start, end := util.MonthBounds(*b.Year, *b.Month)
		return start, end, nil
	case domain.BudgetPeriodYearly:
		if b.Year == nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: yearly budget needs year", domain.ErrInvalidPeriod)
		}
		start, end := util.YearBounds(*b.Year)
		return start, end, nil
	case domain.BudgetPeriodCustom:
		if b.StartDate == nil || b.EndDate == nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: custom budget needs start and end dates", domain.ErrInvalidPeriod)
		}
		return util.StartOfDay(*b.StartDate), util.EndOfDay(*b.EndDate), nil
	}
	return time.Time{}, time.Time{}, fmt.Errorf("%w: %q", domain.ErrInvalidPeriod, b.Period)
}

func budgetStatus(percentage decimal.Decimal) BudgetStatus {
	switch {
	case percentage.GreaterThan(hundred):
		return BudgetStatusExceeded
	case percentage.GreaterThanOrEqual(warningThreshold):
		return BudgetStatusWarning
	}
	return BudgetStatusGood
}

func sortByPercentageDesc(items []BudgetAnalysis) {
	slices.SortStableFunc(items, func(a, b BudgetAnalysis) int {
		return b.Percentage.Cmp(a.Percentage)
	})
}
