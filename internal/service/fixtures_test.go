package service

import (
	"context"
	"testing"
	"time"

	"github.com/codepinky/ruptura/ruptura-backend/internal/domain"
	"github.com/codepinky/ruptura/ruptura-backend/internal/ledger"
	"github.com/codepinky/ruptura/ruptura-backend/internal/testutil"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const testUser = "auth0|user-1"

// staticLedgers serves a fixed ledger for every user
type staticLedgers struct {
	ledger *ledger.Ledger
	err    error
}

func (s staticLedgers) Ledger(userID string) (*ledger.Ledger, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.ledger, nil
}

func newLedger(items ...domain.Entity) *ledger.Ledger {
	grouped := make(map[domain.Collection][]domain.Entity)
	for _, item := range items {
		grouped[item.Collection()] = append(grouped[item.Collection()], item)
	}
	snaps := make([]domain.Snapshot, 0, len(domain.AllCollections))
	for _, c := range domain.AllCollections {
		snaps = append(snaps, domain.NewSnapshot(c, grouped[c]))
	}
	return ledger.FromSnapshots(snaps...)
}

func fixedLedger(items ...domain.Entity) staticLedgers {
	return staticLedgers{ledger: newLedger(items...)}
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func expense(id, amount, categoryID string, on time.Time) domain.Transaction {
	return domain.Transaction{
		ID:          id,
		Description: "expense " + id,
		Amount:      dec(amount),
		Type:        domain.TransactionTypeExpense,
		CategoryID:  categoryID,
		Date:        on,
	}
}

func income(id, amount, categoryID string, on time.Time) domain.Transaction {
	return domain.Transaction{
		ID:          id,
		Description: "income " + id,
		Amount:      dec(amount),
		Type:        domain.TransactionTypeIncome,
		CategoryID:  categoryID,
		Date:        on,
	}
}

func category(id, name string, txType domain.TransactionType) domain.Category {
	return domain.Category{ID: id, Name: name, Color: "#336699", Type: txType}
}

func monthlyBudget(id, categoryID, limit string, year, month int) domain.Budget {
	return domain.Budget{
		ID:         id,
		CategoryID: categoryID,
		Limit:      dec(limit),
		Period:     domain.BudgetPeriodMonthly,
		Month:      &month,
		Year:       &year,
	}
}

// liveSessions opens a real session manager over a seeded mock remote and
// waits for the user's ledger to be ready
func liveSessions(t *testing.T, items ...domain.Entity) (*ledger.SessionManager, *testutil.MockRemoteStore) {
	t.Helper()
	remote := testutil.NewMockRemoteStore()
	remote.Seed(testUser, items...)

	sync := ledger.DefaultSyncConfig()
	sync.InitialBackoff = 5 * time.Millisecond
	sync.MaxBackoff = 20 * time.Millisecond
	sync.MutationTimeout = time.Second
	manager := ledger.NewSessionManager(remote, zerolog.Nop(), ledger.SessionConfig{Sync: sync, IdleTTL: time.Minute}, nil)
	t.Cleanup(manager.CloseAll)

	session, err := manager.Open(testUser)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, session.WaitReady(ctx))
	return manager, remote
}

func waitIntent(t *testing.T, intent *ledger.Intent) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, intent.Wait(ctx))
}
