package service

import (
	"fmt"
	"time"

	"github.com/codepinky/ruptura/ruptura-backend/internal/domain"
	"github.com/codepinky/ruptura/ruptura-backend/internal/util"
	"github.com/shopspring/decimal"
)

const (
	// DefaultProjectionMonths is the default multiplier of the monthly projection
	DefaultProjectionMonths = 12
	// DefaultTrendMonths is the default length of a trend series
	DefaultTrendMonths = 6
	// MaxTrendMonths bounds the trend series length
	MaxTrendMonths = 24
)

// Totals is an income/expense pair with its balance
type Totals struct {
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Balance decimal.Decimal `json:"balance"`
}

func newTotals(income, expense decimal.Decimal) Totals {
	return Totals{Income: income, Expense: expense, Balance: income.Sub(expense)}
}

func (t Totals) scale(factor decimal.Decimal) Totals {
	return Totals{
		Income:  t.Income.Mul(factor),
		Expense: t.Expense.Mul(factor),
		Balance: t.Balance.Mul(factor),
	}
}

// MonthlyProjection multiplies the current month's totals by Months
type MonthlyProjection struct {
	Year      int    `json:"year"`
	Month     int    `json:"month"`
	Months    int    `json:"months"`
	Current   Totals `json:"current"`
	Projected Totals `json:"projected"`
}

// YearlyProjection extrapolates year-to-date totals to the full year
type YearlyProjection struct {
	Year            int    `json:"year"`
	MonthsElapsed   int    `json:"monthsElapsed"`
	MonthsRemaining int    `json:"monthsRemaining"`
	YearToDate      Totals `json:"yearToDate"`
	Projected       Totals `json:"projected"`
	Remaining       Totals `json:"remaining"`
}

// TrendPoint is one calendar month of a trend series
type TrendPoint struct {
	Month   int             `json:"month"`
	Year    int             `json:"year"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Balance decimal.Decimal `json:"balance"`
}

// ProjectionService derives income/expense projections and trend series
type ProjectionService struct {
	ledgers LedgerProvider
	now     func() time.Time
}

// NewProjectionService creates a new ProjectionService
func NewProjectionService(ledgers LedgerProvider) *ProjectionService {
	return &ProjectionService{
		ledgers: ledgers,
		now:     time.Now,
	}
}

// GetMonthly projects the current month's totals over months (default 12)
func (s *ProjectionService) GetMonthly(userID string, months int) (*MonthlyProjection, error) {
	if months < 0 {
		return nil, fmt.Errorf("%w: months must be positive", domain.ErrInvalidInput)
	}
	if months == 0 {
		months = DefaultProjectionMonths
	}
	l, err := s.ledgers.Ledger(userID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	year, month := now.Year(), int(now.Month())
	current := MonthTotals(l.Transactions(), year, month, "")
	return &MonthlyProjection{
		Year:      year,
		Month:     month,
		Months:    months,
		Current:   current,
		Projected: ProjectMonthly(current, months),
	}, nil
}

// GetYearly extrapolates the current year from its elapsed months
func (s *ProjectionService) GetYearly(userID string) (*YearlyProjection, error) {
	l, err := s.ledgers.Ledger(userID)
	if err != nil {
		return nil, err
	}
	p := ProjectYearly(l.Transactions(), s.now())
	return &p, nil
}

// GetTrend returns the trailing months series, oldest first, optionally
// restricted to one category
func (s *ProjectionService) GetTrend(userID string, months int, categoryID string) ([]TrendPoint, error) {
	if months == 0 {
		months = DefaultTrendMonths
	}
	if months < 0 || months > MaxTrendMonths {
		return nil, fmt.Errorf("%w: months must be between 1 and %d", domain.ErrInvalidInput, MaxTrendMonths)
	}
	l, err := s.ledgers.Ledger(userID)
	if err != nil {
		return nil, err
	}
	return Trend(l.Transactions(), s.now(), months, categoryID), nil
}

// MonthTotals sums income and expense of one calendar month. An empty
// categoryID matches every transaction.
func MonthTotals(txns []domain.Transaction, year, month int, categoryID string) Totals {
	income, expense := decimal.Zero, decimal.Zero
	for _, t := range txns {
		if categoryID != "" && t.CategoryID != categoryID {
			continue
		}
		if !util.SameMonth(t.Date, year, month) {
			continue
		}
		switch t.Type {
		case domain.TransactionTypeIncome:
			income = income.Add(t.Amount)
		case domain.TransactionTypeExpense:
			expense = expense.Add(t.Amount)
		}
	}
	return newTotals(income, expense)
}

// ProjectMonthly returns {income×n, expense×n, balance×n}
func ProjectMonthly(current Totals, n int) Totals {
	return current.scale(decimal.NewFromInt(int64(n)))
}

// ProjectYearly computes projected = ytd / monthsElapsed × 12 and
// remaining = projected / monthsElapsed × monthsRemaining, rounded to 2 places
func ProjectYearly(txns []domain.Transaction, now time.Time) YearlyProjection {
	now = now.UTC()
	year := now.Year()
	elapsed := int(now.Month())
	start, _ := util.YearBounds(year)
	end := util.EndOfDay(now)

	income, expense := decimal.Zero, decimal.Zero
	for _, t := range txns {
		if !util.InRange(t.Date, start, end) {
			continue
		}
		switch t.Type {
		case domain.TransactionTypeIncome:
			income = income.Add(t.Amount)
		case domain.TransactionTypeExpense:
			expense = expense.Add(t.Amount)
		}
	}

	ytd := newTotals(income, expense)
	elapsedDec := decimal.NewFromInt(int64(elapsed))
	remainingMonths := decimal.NewFromInt(int64(12 - elapsed))

	project := func(v decimal.Decimal) decimal.Decimal {
		return v.Div(elapsedDec).Mul(decimal.NewFromInt(12)).Round(2)
	}
	projected := Totals{
		Income:  project(ytd.Income),
		Expense: project(ytd.Expense),
		Balance: project(ytd.Balance),
	}
	rest := func(v decimal.Decimal) decimal.Decimal {
		return v.Div(elapsedDec).Mul(remainingMonths).Round(2)
	}

	return YearlyProjection{
		Year:            year,
		MonthsElapsed:   elapsed,
		MonthsRemaining: 12 - elapsed,
		YearToDate:      ytd,
		Projected:       projected,
		Remaining: Totals{
			Income:  rest(projected.Income),
			Expense: rest(projected.Expense),
			Balance: rest(projected.Balance),
		},
	}
}

// Trend re-runs MonthTotals for each of the n calendar months ending with
// now's month
func Trend(txns []domain.Transaction, now time.Time, n int, categoryID string) []TrendPoint {
	months := util.TrailingMonths(now, n)
	points := make([]TrendPoint, 0, len(months))
	for _, ym := range months {
		totals := MonthTotals(txns, ym[0], ym[1], categoryID)
		points = append(points, TrendPoint{
			Month:   ym[1],
			Year:    ym[0],
			Income:  totals.Income,
			Expense: totals.Expense,
			Balance: totals.Balance,
		})
	}
	return points
}
