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

// ReportTab selects a sub-view of the reports page
type ReportTab string

const (
	TabOverview   ReportTab = "overview"
	TabCategories ReportTab = "categories"
	TabTrends     ReportTab = "trends"
	TabBuilder    ReportTab = "builder"
)

// ParseReportTab validates a tab name; empty means overview
func ParseReportTab(s string) (ReportTab, error) {
	switch ReportTab(s) {
	case "":
		return TabOverview, nil
	case TabOverview, TabCategories, TabTrends, TabBuilder:
		return ReportTab(s), nil
	}
	return "", fmt.Errorf("%w: unknown tab %q", domain.ErrInvalidInput, s)
}

// ReportOverview summarizes a period
type ReportOverview struct {
	Totals           Totals              `json:"totals"`
	TransactionCount int                 `json:"transactionCount"`
	TopCategories    []CategoryAggregate `json:"topCategories"`
}

// ReportView is the content of one tab; only the selected field is set
type ReportView struct {
	Tab        ReportTab          `json:"tab"`
	Period     Period             `json:"period"`
	Overview   *ReportOverview    `json:"overview,omitempty"`
	Categories *CategoryBreakdown `json:"categories,omitempty"`
	Trends     []TrendPoint       `json:"trends,omitempty"`
	Builder    *domain.Report     `json:"builder,omitempty"`
}

// ExportTable is the flat handoff to an external renderer
type ExportTable struct {
	Columns []domain.ReportField `json:"columns"`
	Rows    [][]string           `json:"rows"`
}

const overviewTopCategories = 5

// ReportService runs the pivot builder and the report tabs over the ledger
type ReportService struct {
	ledgers LedgerProvider
	labels  *TypeLabeler
	now     func() time.Time
}

// NewReportService creates a new ReportService
func NewReportService(ledgers LedgerProvider, labels *TypeLabeler) *ReportService {
	return &ReportService{
		ledgers: ledgers,
		labels:  labels,
		now:     time.Now,
	}
}

// Build filters, sorts and groups the user's transactions
func (s *ReportService) Build(userID string, opts domain.ReportOptions, acceptLanguage string) (*domain.Report, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	l, err := s.ledgers.Ledger(userID)
	if err != nil {
		return nil, err
	}
	return BuildReport(l.Transactions(), l.CategoryIndex(), opts, s.labels.Labels(acceptLanguage)), nil
}

// Export returns the filtered, sorted rows with the fixed export columns
func (s *ReportService) Export(userID string, filters domain.ReportFilters, acceptLanguage string) (*ExportTable, error) {
	opts := domain.ReportOptions{GroupBy: domain.GroupByNone, Filters: filters}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	l, err := s.ledgers.Ledger(userID)
	if err != nil {
		return nil, err
	}

	categories := l.CategoryIndex()
	txns := FilterTransactions(l.Transactions(), categories, filters)
	SortTransactions(txns, filters.SortBy)

	label := s.labels.Labels(acceptLanguage)
	table := &ExportTable{
		Columns: domain.ExportColumns,
		Rows:    make([][]string, 0, len(txns)),
	}
	for _, t := range txns {
		row := projectRow(t, categories, domain.ExportColumns, label)
		values := make([]string, len(domain.ExportColumns))
		for i, col := range domain.ExportColumns {
			values[i] = row[col]
		}
		table.Rows = append(table.Rows, values)
	}
	return table, nil
}

// GetTab computes the selected tab over period
func (s *ReportService) GetTab(userID string, tab ReportTab, period Period, acceptLanguage string) (*ReportView, error) {
	l, err := s.ledgers.Ledger(userID)
	if err != nil {
		return nil, err
	}

	categories := l.CategoryIndex()
	view := &ReportView{Tab: tab, Period: period}
	switch tab {
	case TabOverview:
		txns := FilterPeriod(l.Transactions(), period)
		breakdown := AggregateByCategory(txns, categories)
		view.Overview = &ReportOverview{
			Totals:           newTotals(breakdown.TotalIncome, breakdown.TotalExpense),
			TransactionCount: len(txns),
			TopCategories:    TopCategories(breakdown.Categories, RankValue, overviewTopCategories),
		}
	case TabCategories:
		breakdown := AggregateByCategory(FilterPeriod(l.Transactions(), period), categories)
		breakdown.Period = period
		breakdown.Rank = RankMagnitude
		breakdown.Categories = TopCategories(breakdown.Categories, RankMagnitude, 0)
		view.Categories = breakdown
	case TabTrends:
		view.Trends = Trend(l.Transactions(), s.now(), DefaultTrendMonths, "")
	case TabBuilder:
		opts := domain.ReportOptions{GroupBy: domain.GroupByMonth, Filters: periodFilters(period)}
		view.Builder = BuildReport(l.Transactions(), categories, opts, s.labels.Labels(acceptLanguage))
	default:
		return nil, fmt.Errorf("%w: unknown tab %q", domain.ErrInvalidInput, tab)
	}
	return view, nil
}

// BuildReport is the pivot engine: filter, sort, then project rows or group
// them. Groups are chronological for month and ordered by label otherwise;
// items keep the sort order within each group.
func BuildReport(txns []domain.Transaction, categories domain.CategoryIndex, opts domain.ReportOptions, label func(domain.TransactionType) string) *domain.Report {
	fields := opts.Fields
	if len(fields) == 0 {
		fields = domain.ExportColumns
	}
	groupBy := opts.GroupBy
	if groupBy == "" {
		groupBy = domain.GroupByNone
	}

	filtered := FilterTransactions(txns, categories, opts.Filters)
	SortTransactions(filtered, opts.Filters.SortBy)

	report := &domain.Report{
		GroupBy:  groupBy,
		Fields:   fields,
		Filtered: len(filtered),
		Total:    decimal.Zero,
	}
	for _, t := range filtered {
		report.Total = report.Total.Add(t.SignedAmount())
	}

	if groupBy == domain.GroupByNone {
		report.Rows = make([]domain.ReportRow, 0, len(filtered))
		for _, t := range filtered {
			report.Rows = append(report.Rows, projectRow(t, categories, fields, label))
		}
		return report
	}

	type bucket struct {
		group domain.ReportGroup
		order string
	}
	buckets := make(map[string]*bucket)
	keys := make([]string, 0)
	for _, t := range filtered {
		key, lbl, order := groupKey(t, groupBy, categories, label)
		b, ok := buckets[key]
		if !ok {
			b = &bucket{
				group: domain.ReportGroup{
					Key:     key,
					Label:   lbl,
					Items:   make([]domain.ReportRow, 0),
					Income:  decimal.Zero,
					Expense: decimal.Zero,
					Total:   decimal.Zero,
				},
				order: order,
			}
			buckets[key] = b
			keys = append(keys, key)
		}
		g := &b.group
		g.Items = append(g.Items, projectRow(t, categories, fields, label))
		g.Count++
		switch t.Type {
		case domain.TransactionTypeIncome:
			g.Income = g.Income.Add(t.Amount)
		case domain.TransactionTypeExpense:
			g.Expense = g.Expense.Add(t.Amount)
		}
		g.Total = g.Income.Sub(g.Expense)
	}

	slices.SortFunc(keys, func(a, b string) int {
		if c := cmp.Compare(buckets[a].order, buckets[b].order); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	report.Groups = make([]domain.ReportGroup, 0, len(keys))
	for _, k := range keys {
		report.Groups = append(report.Groups, buckets[k].group)
	}
	return report
}

// FilterTransactions keeps the transactions matching every set filter
func FilterTransactions(txns []domain.Transaction, categories domain.CategoryIndex, f domain.ReportFilters) []domain.Transaction {
	text := strings.ToLower(strings.TrimSpace(f.Text))
	var start, end time.Time
	if f.StartDate != nil {
		start = util.StartOfDay(*f.StartDate)
	}
	if f.EndDate != nil {
		end = util.EndOfDay(*f.EndDate)
	}

	out := make([]domain.Transaction, 0, len(txns))
	for _, t := range txns {
		if f.Type != nil && t.Type != *f.Type {
			continue
		}
		if f.CategoryID != "" && !matchesCategory(t, categories, f.CategoryID) {
			continue
		}
		if !start.IsZero() && t.Date.Before(start) {
			continue
		}
		if !end.IsZero() && t.Date.After(end) {
			continue
		}
		if text != "" &&
			!strings.Contains(strings.ToLower(t.Description), text) &&
			!strings.Contains(strings.ToLower(t.NotesText()), text) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// SortTransactions orders txns in place; equal keys keep their order.
// The default is date_desc.
func SortTransactions(txns []domain.Transaction, by domain.SortBy) {
	var compare func(a, b domain.Transaction) int
	switch by {
	case domain.SortByDateAsc:
		compare = func(a, b domain.Transaction) int { return a.Date.Compare(b.Date) }
	case domain.SortByAmountAsc:
		compare = func(a, b domain.Transaction) int { return a.Amount.Cmp(b.Amount) }
	case domain.SortByAmountDesc:
		compare = func(a, b domain.Transaction) int { return b.Amount.Cmp(a.Amount) }
	default:
		compare = func(a, b domain.Transaction) int { return b.Date.Compare(a.Date) }
	}
	slices.SortStableFunc(txns, compare)
}

// matchesCategory treats domain.UncategorizedName as the unresolved bucket
func matchesCategory(t domain.Transaction, categories domain.CategoryIndex, id string) bool {
	if id == domain.UncategorizedName {
		return bucketOf(t, categories) == domain.UncategorizedID
	}
	return t.CategoryID == id
}

func groupKey(t domain.Transaction, by domain.GroupBy, categories domain.CategoryIndex, label func(domain.TransactionType) string) (key, lbl, order string) {
	switch by {
	case domain.GroupByMonth:
		key = util.MonthKey(t.Date)
		return key, key, t.Date.UTC().Format("2006-01")
	case domain.GroupByCategory:
		name := categories.NameOf(t.CategoryID)
		return name, name, strings.ToLower(name)
	default:
		lbl = label(t.Type)
		return string(t.Type), lbl, strings.ToLower(lbl)
	}
}

func projectRow(t domain.Transaction, categories domain.CategoryIndex, fields []domain.ReportField, label func(domain.TransactionType) string) domain.ReportRow {
	row := make(domain.ReportRow, len(fields))
	for _, f := range fields {
		switch f {
		case domain.FieldDate:
			row[f] = t.Date.UTC().Format(time.DateOnly)
		case domain.FieldDescription:
			row[f] = t.Description
		case domain.FieldType:
			row[f] = label(t.Type)
		case domain.FieldCategory:
			row[f] = categories.NameOf(t.CategoryID)
		case domain.FieldAmount:
			row[f] = t.Amount.StringFixed(2)
		case domain.FieldNotes:
			row[f] = t.NotesText()
		}
	}
	return row
}

func periodFilters(p Period) domain.ReportFilters {
	var f domain.ReportFilters
	if !p.Start.IsZero() {
		start := p.Start
		f.StartDate = &start
	}
	if !p.End.IsZero() {
		end := p.End
		f.EndDate = &end
	}
	return f
}
