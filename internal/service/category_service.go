package service

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/codepinky/ruptura/ruptura-backend/internal/domain"
	"github.com/codepinky/ruptura/ruptura-backend/internal/util"
	"github.com/shopspring/decimal"
)

// Ranking selects the order of a category breakdown
type Ranking string

const (
	// RankMagnitude orders by |total| descending
	RankMagnitude Ranking = "magnitude"
	// RankValue orders by raw total descending
	RankValue Ranking = "value"
)

// ParseRanking validates a ranking name; empty means magnitude
func ParseRanking(s string) (Ranking, error) {
	switch Ranking(s) {
	case "", RankMagnitude:
		return RankMagnitude, nil
	case RankValue:
		return RankValue, nil
	}
	return "", fmt.Errorf("%w: unknown rank %q", domain.ErrInvalidInput, s)
}

// Period is an inclusive date range; a zero bound is open
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls within the period, by whole days
func (p Period) Contains(t time.Time) bool {
	if !p.Start.IsZero() && t.Before(util.StartOfDay(p.Start)) {
		return false
	}
	if !p.End.IsZero() && t.After(util.EndOfDay(p.End)) {
		return false
	}
	return true
}

// CategoryAggregate accumulates the transactions of one category bucket
type CategoryAggregate struct {
	CategoryID        string          `json:"categoryId"`
	Name              string          `json:"name"`
	Color             string          `json:"color"`
	Income            decimal.Decimal `json:"income"`
	Expense           decimal.Decimal `json:"expense"`
	IncomeCount       int             `json:"incomeCount"`
	ExpenseCount      int             `json:"expenseCount"`
	Total             decimal.Decimal `json:"total"`
	IncomePercentage  decimal.Decimal `json:"incomePercentage"`
	ExpensePercentage decimal.Decimal `json:"expensePercentage"`
}

// CategoryBreakdown is the per-category aggregation of one period
type CategoryBreakdown struct {
	Period       Period              `json:"period"`
	Rank         Ranking             `json:"rank"`
	TotalIncome  decimal.Decimal     `json:"totalIncome"`
	TotalExpense decimal.Decimal     `json:"totalExpense"`
	Categories   []CategoryAggregate `json:"categories"`
}

// CategoryDetail is the drill-down of one category
type CategoryDetail struct {
	Aggregate    CategoryAggregate    `json:"aggregate"`
	Transactions []domain.Transaction `json:"transactions"`
}

// CategoryService aggregates transactions by category
type CategoryService struct {
	ledgers LedgerProvider
}

// NewCategoryService creates a new CategoryService
func NewCategoryService(ledgers LedgerProvider) *CategoryService {
	return &CategoryService{ledgers: ledgers}
}

// GetBreakdown aggregates the period by category in the requested order,
// keeping the first limit entries when limit > 0
func (s *CategoryService) GetBreakdown(userID string, period Period, rank Ranking, limit int) (*CategoryBreakdown, error) {
	l, err := s.ledgers.Ledger(userID)
	if err != nil {
		return nil, err
	}

	breakdown := AggregateByCategory(FilterPeriod(l.Transactions(), period), l.CategoryIndex())
	breakdown.Period = period
	breakdown.Rank = rank
	breakdown.Categories = TopCategories(breakdown.Categories, rank, limit)
	return breakdown, nil
}

// GetDetail returns one category's aggregate and its transactions, newest
// first. domain.UncategorizedName selects the uncategorized bucket.
func (s *CategoryService) GetDetail(userID, categoryID string, period Period) (*CategoryDetail, error) {
	l, err := s.ledgers.Ledger(userID)
	if err != nil {
		return nil, err
	}

	categories := l.CategoryIndex()
	key := categoryID
	if categoryID == domain.UncategorizedName {
		key = domain.UncategorizedID
	} else if _, ok := categories.Resolve(categoryID); !ok {
		return nil, domain.ErrCategoryNotFound
	}

	txns := FilterPeriod(l.Transactions(), period)
	breakdown := AggregateByCategory(txns, categories)

	detail := &CategoryDetail{
		Aggregate:    emptyAggregate(key, categories),
		Transactions: make([]domain.Transaction, 0),
	}
	for _, a := range breakdown.Categories {
		if a.CategoryID == key {
			detail.Aggregate = a
			break
		}
	}
	for _, t := range txns {
		if bucketOf(t, categories) == key {
			detail.Transactions = append(detail.Transactions, t)
		}
	}
	slices.SortStableFunc(detail.Transactions, func(a, b domain.Transaction) int {
		return b.Date.Compare(a.Date)
	})
	return detail, nil
}

// FilterPeriod keeps the transactions dated within period
func FilterPeriod(txns []domain.Transaction, period Period) []domain.Transaction {
	out := make([]domain.Transaction, 0, len(txns))
	for _, t := range txns {
		if period.Contains(t.Date) {
			out = append(out, t)
		}
	}
	return out
}

// AggregateByCategory groups txns by category. Unresolved category ids share
// one uncategorized bucket. Categories are returned ordered by name.
func AggregateByCategory(txns []domain.Transaction, categories domain.CategoryIndex) *CategoryBreakdown {
	buckets := make(map[string]*CategoryAggregate)
	totalIncome, totalExpense := decimal.Zero, decimal.Zero

	for _, t := range txns {
		key := bucketOf(t, categories)
		agg, ok := buckets[key]
		if !ok {
			a := emptyAggregate(key, categories)
			agg = &a
			buckets[key] = agg
		}
		switch t.Type {
		case domain.TransactionTypeIncome:
			agg.Income = agg.Income.Add(t.Amount)
			agg.IncomeCount++
			totalIncome = totalIncome.Add(t.Amount)
		case domain.TransactionTypeExpense:
			agg.Expense = agg.Expense.Add(t.Amount)
			agg.ExpenseCount++
			totalExpense = totalExpense.Add(t.Amount)
		}
		agg.Total = agg.Income.Sub(agg.Expense)
	}

	out := make([]CategoryAggregate, 0, len(buckets))
	for _, agg := range buckets {
		out = append(out, *agg)
	}
	slices.SortFunc(out, byName)

	incomes := make([]decimal.Decimal, len(out))
	expenses := make([]decimal.Decimal, len(out))
	for i, a := range out {
		incomes[i] = a.Income
		expenses[i] = a.Expense
	}
	incomeShares := Apportion(incomes, totalIncome)
	expenseShares := Apportion(expenses, totalExpense)
	for i := range out {
		out[i].IncomePercentage = incomeShares[i]
		out[i].ExpensePercentage = expenseShares[i]
	}

	return &CategoryBreakdown{
		TotalIncome:  totalIncome,
		TotalExpense: totalExpense,
		Categories:   out,
	}
}

// TopCategories orders aggs by rank and keeps the first n (all when n <= 0)
func TopCategories(aggs []CategoryAggregate, rank Ranking, n int) []CategoryAggregate {
	out := slices.Clone(aggs)
	switch rank {
	case RankValue:
		slices.SortStableFunc(out, func(a, b CategoryAggregate) int {
			if c := b.Total.Cmp(a.Total); c != 0 {
				return c
			}
			return byName(a, b)
		})
	default:
		slices.SortStableFunc(out, func(a, b CategoryAggregate) int {
			if c := b.Total.Abs().Cmp(a.Total.Abs()); c != 0 {
				return c
			}
			return byName(a, b)
		})
	}
	if n > 0 && n < len(out) {
		out = out[:n]
	}
	return out
}

// shareUnits is 100.00% expressed in hundredths
const shareUnits = 10000

// Apportion returns each part's percentage of whole at 2 places using the
// largest remainder method, so that the shares sum to exactly 100 whenever
// whole is positive. A non-positive whole yields all zeros.
func Apportion(parts []decimal.Decimal, whole decimal.Decimal) []decimal.Decimal {
	shares := make([]decimal.Decimal, len(parts))
	if !whole.IsPositive() {
		for i := range shares {
			shares[i] = decimal.Zero
		}
		return shares
	}

	type remainder struct {
		index int
		frac  decimal.Decimal
	}
	units := make([]int64, len(parts))
	rems := make([]remainder, len(parts))
	var allocated int64
	scale := decimal.NewFromInt(shareUnits)
	for i, p := range parts {
		raw := p.Mul(scale).Div(whole)
		floor := raw.Floor()
		units[i] = floor.IntPart()
		allocated += units[i]
		rems[i] = remainder{index: i, frac: raw.Sub(floor)}
	}

	slices.SortStableFunc(rems, func(a, b remainder) int {
		return b.frac.Cmp(a.frac)
	})
	for k := 0; k < int(shareUnits-allocated) && k < len(rems); k++ {
		units[rems[k].index]++
	}

	for i, u := range units {
		shares[i] = decimal.New(u, -2)
	}
	return shares
}

func bucketOf(t domain.Transaction, categories domain.CategoryIndex) string {
	if _, ok := categories.Resolve(t.CategoryID); ok {
		return t.CategoryID
	}
	return domain.UncategorizedID
}

func emptyAggregate(key string, categories domain.CategoryIndex) CategoryAggregate {
	a := CategoryAggregate{
		CategoryID:        key,
		Name:              domain.UncategorizedName,
		Income:            decimal.Zero,
		Expense:           decimal.Zero,
		Total:             decimal.Zero,
		IncomePercentage:  decimal.Zero,
		ExpensePercentage: decimal.Zero,
	}
	if c, ok := categories.Resolve(key); ok {
		a.Name = c.Name
		a.Color = c.Color
	}
	return a
}

func byName(a, b CategoryAggregate) int {
	if c := cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
		return c
	}
	return cmp.Compare(a.CategoryID, b.CategoryID)
}
