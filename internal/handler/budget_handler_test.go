package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/codepinky/ruptura/ruptura-backend/internal/domain"
	"github.com/codepinky/ruptura/ruptura-backend/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func budgetFixtures() []domain.Entity {
	now := time.Now().UTC()
	year, month := now.Year(), int(now.Month())
	day := date(year, now.Month(), 1)
	return []domain.Entity{
		domain.Category{ID: "food", Name: "Food", Type: domain.TransactionTypeExpense},
		domain.Budget{ID: "b1", CategoryID: "food", Limit: dec("500"), Period: domain.BudgetPeriodMonthly, Month: &month, Year: &year},
		txn("t1", "300", domain.TransactionTypeExpense, "food", day),
		txn("t2", "220", domain.TransactionTypeExpense, "food", day),
		txn("t3", "999", domain.TransactionTypeIncome, "food", day),
	}
}

func TestBudgetHandler_GetAnalysis_Exceeded(t *testing.T) {
	env := newTestEnv(t, budgetFixtures()...)
	env.ready(t)

	rec := serve(t, env.handlers.Budget.GetAnalysis, request{target: "/api/v1/budgets/b1/analysis", userID: testUser, params: map[string]string{"id": "b1"}})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	analysis := decode[service.BudgetAnalysis](t, rec)
	assert.True(t, dec("520").Equal(analysis.Spent))
	assert.True(t, dec("104").Equal(analysis.Percentage))
	assert.True(t, analysis.Remaining.IsZero())
	assert.Equal(t, service.BudgetStatusExceeded, analysis.Status)
	assert.Equal(t, "Food", analysis.CategoryName)
}

func TestBudgetHandler_GetAnalysis_NotFound(t *testing.T) {
	env := newTestEnv(t)
	env.ready(t)

	rec := serve(t, env.handlers.Budget.GetAnalysis, request{target: "/api/v1/budgets/nope/analysis", userID: testUser, params: map[string]string{"id": "nope"}})

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBudgetHandler_OverviewAndAlerts(t *testing.T) {
	env := newTestEnv(t, budgetFixtures()...)
	env.ready(t)

	rec := serve(t, env.handlers.Budget.GetOverview, request{target: "/api/v1/budgets/analysis", userID: testUser})
	require.Equal(t, http.StatusOK, rec.Code)
	overview := decode[service.BudgetOverview](t, rec)
	assert.Len(t, overview.Budgets, 1)
	assert.True(t, dec("500").Equal(overview.TotalLimit))
	assert.Equal(t, 1, overview.ExceededCount)

	rec = serve(t, env.handlers.Budget.GetAlerts, request{target: "/api/v1/budgets/alerts", userID: testUser})
	require.Equal(t, http.StatusOK, rec.Code)
	alerts := decode[[]service.BudgetAnalysis](t, rec)
	require.Len(t, alerts, 1)
	assert.Equal(t, "b1", alerts[0].Budget.ID)
}
