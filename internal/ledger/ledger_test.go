package ledger

import (
	"testing"
	"time"

	"github.com/codepinky/ruptura/ruptura-backend/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTransaction(id string, amount string, txType domain.TransactionType, categoryID string) domain.Transaction {
	return domain.Transaction{
		ID:          id,
		Description: "txn " + id,
		Amount:      decimal.RequireFromString(amount),
		Type:        txType,
		CategoryID:  categoryID,
		Date:        time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		UpdatedAt:   time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
	}
}

func testCategory(id, name string) domain.Category {
	return domain.Category{ID: id, Name: name, Color: "#000", Type: domain.TransactionTypeExpense}
}

func entities[T domain.Entity](items ...T) []domain.Entity {
	out := make([]domain.Entity, 0, len(items))
	for _, item := range items {
		out = append(out, item)
	}
	return out
}

func TestLedger_Empty(t *testing.T) {
	l := Empty()

	assert.False(t, l.Ready())
	assert.Empty(t, l.Transactions())
	for _, c := range domain.AllCollections {
		assert.Equal(t, uint64(0), l.Version(c))
		assert.True(t, l.SyncedAt(c).IsZero())
	}
}

func TestLedger_ApplyReplacesWholesale(t *testing.T) {
	l := FromSnapshots(domain.NewSnapshot(domain.CollectionTransactions, entities(
		testTransaction("t1", "10", domain.TransactionTypeExpense, "c1"),
		testTransaction("t2", "20", domain.TransactionTypeExpense, "c1"),
	)))
	require.Equal(t, 2, l.Count(domain.CollectionTransactions))

	next, skipped := l.apply(domain.NewSnapshot(domain.CollectionTransactions, entities(
		testTransaction("t3", "30", domain.TransactionTypeIncome, ""),
	)))

	assert.Zero(t, skipped)
	assert.Equal(t, 1, next.Count(domain.CollectionTransactions))
	_, ok := next.Transaction("t1")
	assert.False(t, ok, "entities absent from the snapshot must be removed")
	assert.Equal(t, uint64(2), next.Version(domain.CollectionTransactions))

	// previous value is untouched
	assert.Equal(t, 2, l.Count(domain.CollectionTransactions))
	assert.Equal(t, uint64(1), l.Version(domain.CollectionTransactions))
}

func TestLedger_ApplyKeepsOrder(t *testing.T) {
	l := FromSnapshots(domain.NewSnapshot(domain.CollectionCategories, entities(
		testCategory("b", "Beta"),
		testCategory("a", "Alpha"),
		testCategory("c", "Gamma"),
	)))

	cats := l.Categories()
	require.Len(t, cats, 3)
	assert.Equal(t, []string{"b", "a", "c"}, []string{cats[0].ID, cats[1].ID, cats[2].ID})
}

func TestLedger_ApplyAcceptsPointersAndSkipsForeignTypes(t *testing.T) {
	cat := testCategory("c1", "Food")
	snap := domain.NewSnapshot(domain.CollectionCategories, []domain.Entity{
		&cat,
		testTransaction("t1", "1", domain.TransactionTypeExpense, ""),
	})

	next, skipped := Empty().apply(snap)

	assert.Equal(t, 1, skipped)
	got, ok := next.Category("c1")
	require.True(t, ok)
	assert.Equal(t, "Food", got.Name)
}

func TestLedger_ListReturnsCopy(t *testing.T) {
	l := FromSnapshots(domain.NewSnapshot(domain.CollectionCategories, entities(testCategory("c1", "Food"))))

	cats := l.Categories()
	cats[0].Name = "mutated"

	got, _ := l.Category("c1")
	assert.Equal(t, "Food", got.Name)
}

func TestLedger_Ready(t *testing.T) {
	l := Empty()
	for i, c := range domain.AllCollections {
		assert.False(t, l.Ready(), "not ready before collection %d", i)
		l, _ = l.apply(domain.NewSnapshot(c, nil))
	}
	assert.True(t, l.Ready())
}

func TestLedger_Lookup(t *testing.T) {
	l := FromSnapshots(
		domain.NewSnapshot(domain.CollectionTransactions, entities(testTransaction("t1", "5", domain.TransactionTypeIncome, ""))),
		domain.NewSnapshot(domain.CollectionGoals, entities(domain.Goal{ID: "g1", Name: "Trip"})),
	)

	e, ok := l.Lookup(domain.CollectionGoals, "g1")
	require.True(t, ok)
	assert.Equal(t, domain.CollectionGoals, e.Collection())

	_, ok = l.Lookup(domain.CollectionTransactions, "g1")
	assert.False(t, ok)
	_, ok = l.Lookup(domain.Collection("unknown"), "t1")
	assert.False(t, ok)
}

func TestLedger_CategoryIndex(t *testing.T) {
	l := FromSnapshots(domain.NewSnapshot(domain.CollectionCategories, entities(testCategory("c1", "Food"))))

	idx := l.CategoryIndex()
	assert.Equal(t, "Food", idx.NameOf("c1"))
	assert.Equal(t, domain.UncategorizedName, idx.NameOf("gone"))
	assert.Equal(t, domain.UncategorizedName, idx.NameOf(""))
}
