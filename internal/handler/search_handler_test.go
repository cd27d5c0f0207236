package handler

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/codepinky/ruptura/ruptura-backend/internal/domain"
	"github.com/codepinky/ruptura/ruptura-backend/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchHandler_Search(t *testing.T) {
	market := txn("t1", "80", domain.TransactionTypeExpense, "", date(2024, 1, 3))
	market.Description = "Supermercado Central"
	env := newTestEnv(t, market, txn("t2", "10", domain.TransactionTypeExpense, "", date(2024, 1, 4)))
	env.ready(t)

	rec := serve(t, env.handlers.Search.Search, request{target: "/api/v1/search?q=supermercado", userID: testUser})

	require.Equal(t, http.StatusOK, rec.Code)
	results := decode[service.SearchResults](t, rec)
	assert.Equal(t, 1, results.TotalResults)
	require.Len(t, results.Transactions, 1)
	assert.Equal(t, service.ResultTransaction, results.Transactions[0].ResultType)
}

func TestSearchHandler_Preview(t *testing.T) {
	items := make([]domain.Entity, 0, 8)
	for i := 0; i < 8; i++ {
		tx := txn(fmt.Sprintf("t%d", i), "1", domain.TransactionTypeExpense, "", date(2024, 1, i+1))
		tx.Description = "Coffee"
		items = append(items, tx)
	}
	env := newTestEnv(t, items...)
	env.ready(t)

	rec := serve(t, env.handlers.Search.Search, request{target: "/api/v1/search?q=coffee", userID: testUser})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[service.SearchResults](t, rec).Transactions, 8)

	rec = serve(t, env.handlers.Search.Search, request{target: "/api/v1/search?q=coffee&preview=true", userID: testUser})
	require.Equal(t, http.StatusOK, rec.Code)
	preview := decode[service.SearchResults](t, rec)
	assert.Len(t, preview.Transactions, PreviewTransactionLimit)
	assert.Equal(t, 8, preview.TotalResults)
}

func TestSearchHandler_BlankQuery(t *testing.T) {
	env := newTestEnv(t, txn("t1", "1", domain.TransactionTypeExpense, "", date(2024, 1, 1)))
	env.ready(t)

	rec := serve(t, env.handlers.Search.Search, request{target: "/api/v1/search?q=%20%20", userID: testUser})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, decode[service.SearchResults](t, rec).TotalResults)
}
