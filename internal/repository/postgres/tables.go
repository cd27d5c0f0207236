package postgres

import (
	"fmt"
	"strings"
	"time"

	"github.com/codepinky/ruptura/ruptura-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// table maps one collection onto its SQL table
type table struct {
	name    string
	columns []string
	order   string
	scan    func(row pgx.Row) (domain.Entity, error)
	values  func(e domain.Entity) ([]any, error)

	selectSQL string
	insertSQL string
	updateSQL string
	deleteSQL string
}

var tables = map[domain.Collection]*table{
	domain.CollectionTransactions: {
		name:    "transactions",
		columns: []string{"description", "amount", "type", "category_id", "occurred_at", "notes"},
		order:   "occurred_at DESC, created_at DESC",
		scan:    scanTransaction,
		values:  transactionValues,
	},
	domain.CollectionCategories: {
		name:    "categories",
		columns: []string{"name", "color", "type"},
		order:   "created_at, id",
		scan:    scanCategory,
		values:  categoryValues,
	},
	domain.CollectionBudgets: {
		name:    "budgets",
		columns: []string{"name", "category_id", "limit_amount", "period", "month", "year", "start_date", "end_date"},
		order:   "created_at, id",
		scan:    scanBudget,
		values:  budgetValues,
	},
	domain.CollectionGoals: {
		name:    "goals",
		columns: []string{"name", "target_amount", "current_amount", "deadline", "type", "priority", "description"},
		order:   "deadline, created_at",
		scan:    scanGoal,
		values:  goalValues,
	},
	domain.CollectionSavings: {
		name:    "savings",
		columns: []string{"name", "target_amount", "current_amount", "description"},
		order:   "created_at, id",
		scan:    scanSaving,
		values:  savingValues,
	},
}

func init() {
	for _, t := range tables {
		t.build()
	}
}

func (t *table) build() {
	cols := strings.Join(t.columns, ", ")
	t.selectSQL = fmt.Sprintf(
		"SELECT id::text, %s, created_at, updated_at FROM %s WHERE user_id = $1 ORDER BY %s",
		cols, t.name, t.order)

	placeholders := make([]string, len(t.columns))
	sets := make([]string, len(t.columns))
	for i, c := range t.columns {
		placeholders[i] = fmt.Sprintf("$%d", i+2)
		sets[i] = fmt.Sprintf("%s = $%d", c, i+3)
	}
	t.insertSQL = fmt.Sprintf(
		"INSERT INTO %s (user_id, %s) VALUES ($1, %s) RETURNING id::text, updated_at",
		t.name, cols, strings.Join(placeholders, ", "))
	t.updateSQL = fmt.Sprintf(
		"UPDATE %s SET %s, updated_at = NOW() WHERE id = $1 AND user_id = $2 RETURNING updated_at",
		t.name, strings.Join(sets, ", "))
	t.deleteSQL = fmt.Sprintf("DELETE FROM %s WHERE id = $1 AND user_id = $2", t.name)
}

// channel is the LISTEN channel the notify trigger uses for this table
func (t *table) channel() string {
	return "ledger_" + t.name
}

func tableFor(c domain.Collection) (*table, error) {
	t, ok := tables[c]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownCollection, c)
	}
	return t, nil
}

func scanTransaction(row pgx.Row) (domain.Entity, error) {
	var (
		t        domain.Transaction
		amount   pgtype.Numeric
		txType   string
		notes    pgtype.Text
		occurred time.Time
	)
	if err := row.Scan(&t.ID, &t.Description, &amount, &txType, &t.CategoryID, &occurred, &notes, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.Amount = pgNumericToDecimal(amount)
	t.Type = domain.TransactionType(txType)
	t.Date = occurred.UTC()
	t.Notes = pgTextToPtr(notes)
	t.CreatedAt, t.UpdatedAt = t.CreatedAt.UTC(), t.UpdatedAt.UTC()
	return t, nil
}

func transactionValues(e domain.Entity) ([]any, error) {
	t, ok := e.(domain.Transaction)
	if !ok {
		return nil, entityMismatch(e, domain.CollectionTransactions)
	}
	amount, err := decimalToPgNumeric(t.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}
	return []any{t.Description, amount, string(t.Type), t.CategoryID, t.Date.UTC(), ptrToPgText(t.Notes)}, nil
}

func scanCategory(row pgx.Row) (domain.Entity, error) {
	var (
		c      domain.Category
		txType string
	)
	if err := row.Scan(&c.ID, &c.Name, &c.Color, &txType, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.Type = domain.TransactionType(txType)
	c.CreatedAt, c.UpdatedAt = c.CreatedAt.UTC(), c.UpdatedAt.UTC()
	return c, nil
}

func categoryValues(e domain.Entity) ([]any, error) {
	c, ok := e.(domain.Category)
	if !ok {
		return nil, entityMismatch(e, domain.CollectionCategories)
	}
	return []any{c.Name, c.Color, string(c.Type)}, nil
}

func scanBudget(row pgx.Row) (domain.Entity, error) {
	var (
		b           domain.Budget
		name        pgtype.Text
		limit       pgtype.Numeric
		period      string
		month, year pgtype.Int4
		start, end  pgtype.Date
	)
	if err := row.Scan(&b.ID, &name, &b.CategoryID, &limit, &period, &month, &year, &start, &end, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	b.Name = pgTextToPtr(name)
	b.Limit = pgNumericToDecimal(limit)
	b.Period = domain.BudgetPeriod(period)
	b.Month = pgInt4ToPtr(month)
	b.Year = pgInt4ToPtr(year)
	b.StartDate = pgDateToPtr(start)
	b.EndDate = pgDateToPtr(end)
	b.CreatedAt, b.UpdatedAt = b.CreatedAt.UTC(), b.UpdatedAt.UTC()
	return b, nil
}

func budgetValues(e domain.Entity) ([]any, error) {
	b, ok := e.(domain.Budget)
	if !ok {
		return nil, entityMismatch(e, domain.CollectionBudgets)
	}
	limit, err := decimalToPgNumeric(b.Limit)
	if err != nil {
		return nil, fmt.Errorf("invalid limit: %w", err)
	}
	return []any{
		ptrToPgText(b.Name), b.CategoryID, limit, string(b.Period),
		ptrToPgInt4(b.Month), ptrToPgInt4(b.Year), ptrToPgDate(b.StartDate), ptrToPgDate(b.EndDate),
	}, nil
}

func scanGoal(row pgx.Row) (domain.Entity, error) {
	var (
		g               domain.Goal
		target, current pgtype.Numeric
		deadline        pgtype.Date
		priority        string
	)
	if err := row.Scan(&g.ID, &g.Name, &target, &current, &deadline, &g.Type, &priority, &g.Description, &g.CreatedAt, &g.UpdatedAt); err != nil {
		return nil, err
	}
	g.TargetAmount = pgNumericToDecimal(target)
	g.CurrentAmount = pgNumericToDecimal(current)
	if deadline.Valid {
		g.Deadline = deadline.Time.UTC()
	}
	g.Priority = domain.GoalPriority(priority)
	g.CreatedAt, g.UpdatedAt = g.CreatedAt.UTC(), g.UpdatedAt.UTC()
	return g, nil
}

func goalValues(e domain.Entity) ([]any, error) {
	g, ok := e.(domain.Goal)
	if !ok {
		return nil, entityMismatch(e, domain.CollectionGoals)
	}
	target, err := decimalToPgNumeric(g.TargetAmount)
	if err != nil {
		return nil, fmt.Errorf("invalid target amount: %w", err)
	}
	current, err := decimalToPgNumeric(g.CurrentAmount)
	if err != nil {
		return nil, fmt.Errorf("invalid current amount: %w", err)
	}
	return []any{g.Name, target, current, ptrToPgDate(&g.Deadline), g.Type, string(g.Priority), g.Description}, nil
}

func scanSaving(row pgx.Row) (domain.Entity, error) {
	var (
		s               domain.Saving
		target, current pgtype.Numeric
		description     pgtype.Text
	)
	if err := row.Scan(&s.ID, &s.Name, &target, &current, &description, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	s.TargetAmount = pgNumericToDecimal(target)
	s.CurrentAmount = pgNumericToDecimal(current)
	s.Description = pgTextToPtr(description)
	s.CreatedAt, s.UpdatedAt = s.CreatedAt.UTC(), s.UpdatedAt.UTC()
	return s, nil
}

func savingValues(e domain.Entity) ([]any, error) {
	s, ok := e.(domain.Saving)
	if !ok {
		return nil, entityMismatch(e, domain.CollectionSavings)
	}
	target, err := decimalToPgNumeric(s.TargetAmount)
	if err != nil {
		return nil, fmt.Errorf("invalid target amount: %w", err)
	}
	current, err := decimalToPgNumeric(s.CurrentAmount)
	if err != nil {
		return nil, fmt.Errorf("invalid current amount: %w", err)
	}
	return []any{s.Name, target, current, ptrToPgText(s.Description)}, nil
}

func entityMismatch(e domain.Entity, want domain.Collection) error {
	return fmt.Errorf("%w: %T is not a %s entity", domain.ErrEntityMismatch, e, want)
}
