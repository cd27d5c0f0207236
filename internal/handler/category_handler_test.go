package handler

import (
	"net/http"
	"testing"

	"github.com/codepinky/ruptura/ruptura-backend/internal/domain"
	"github.com/codepinky/ruptura/ruptura-backend/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func categoryFixtures() []domain.Entity {
	return []domain.Entity{
		domain.Category{ID: "food", Name: "Food", Color: "#00aa00", Type: domain.TransactionTypeExpense},
		domain.Category{ID: "salary", Name: "Salary", Type: domain.TransactionTypeIncome},
		txn("t1", "1000", domain.TransactionTypeIncome, "salary", date(2024, 1, 5)),
		txn("t2", "300", domain.TransactionTypeExpense, "food", date(2024, 1, 10)),
		txn("t3", "100", domain.TransactionTypeExpense, "gone", date(2024, 1, 12)),
		txn("t4", "50", domain.TransactionTypeExpense, "food", date(2024, 2, 1)),
	}
}

func TestCategoryHandler_GetAggregate(t *testing.T) {
	env := newTestEnv(t, categoryFixtures()...)
	env.ready(t)

	rec := serve(t, env.handlers.Category.GetAggregate, request{
		target: "/api/v1/categories/aggregate?start=2024-01-01&end=2024-01-31&rank=magnitude", userID: testUser,
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	breakdown := decode[service.CategoryBreakdown](t, rec)
	assert.True(t, dec("1000").Equal(breakdown.TotalIncome))
	assert.True(t, dec("400").Equal(breakdown.TotalExpense))
	require.Len(t, breakdown.Categories, 3)
	assert.Equal(t, "salary", breakdown.Categories[0].CategoryID)
	assert.Equal(t, "food", breakdown.Categories[1].CategoryID)
	assert.True(t, dec("75").Equal(breakdown.Categories[1].ExpensePercentage))
	assert.Equal(t, domain.UncategorizedName, breakdown.Categories[2].Name)
}

func TestCategoryHandler_GetAggregate_Limit(t *testing.T) {
	env := newTestEnv(t, categoryFixtures()...)
	env.ready(t)

	rec := serve(t, env.handlers.Category.GetAggregate, request{target: "/api/v1/categories/aggregate?rank=value&limit=1", userID: testUser})

	require.Equal(t, http.StatusOK, rec.Code)
	breakdown := decode[service.CategoryBreakdown](t, rec)
	require.Len(t, breakdown.Categories, 1)
	assert.Equal(t, "salary", breakdown.Categories[0].CategoryID)
}

func TestCategoryHandler_GetAggregate_InvalidParams(t *testing.T) {
	env := newTestEnv(t)
	env.ready(t)

	for _, target := range []string{
		"/api/v1/categories/aggregate?rank=loudest",
		"/api/v1/categories/aggregate?limit=-2",
		"/api/v1/categories/aggregate?start=yesterday",
		"/api/v1/categories/aggregate?start=2024-02-01&end=2024-01-01",
	} {
		rec := serve(t, env.handlers.Category.GetAggregate, request{target: target, userID: testUser})
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestCategoryHandler_GetDetails(t *testing.T) {
	env := newTestEnv(t, categoryFixtures()...)
	env.ready(t)

	rec := serve(t, env.handlers.Category.GetDetails, request{
		target: "/api/v1/categories/food/details", userID: testUser, params: map[string]string{"id": "food"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	detail := decode[service.CategoryDetail](t, rec)
	require.Len(t, detail.Transactions, 2)
	assert.Equal(t, "t4", detail.Transactions[0].ID)
	assert.True(t, dec("350").Equal(detail.Aggregate.Expense))

	rec = serve(t, env.handlers.Category.GetDetails, request{
		target: "/api/v1/categories/uncategorized/details", userID: testUser, params: map[string]string{"id": domain.UncategorizedName},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	detail = decode[service.CategoryDetail](t, rec)
	require.Len(t, detail.Transactions, 1)
	assert.Equal(t, "t3", detail.Transactions[0].ID)

	rec = serve(t, env.handlers.Category.GetDetails, request{
		target: "/api/v1/categories/gone/details", userID: testUser, params: map[string]string{"id": "gone"},
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
