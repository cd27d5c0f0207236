package service

import (
	"context"
	"time"

	"github.com/codepinky/ruptura/ruptura-backend/internal/domain"
	"github.com/codepinky/ruptura/ruptura-backend/internal/ledger"
	"github.com/shopspring/decimal"
)

// LedgerProvider gives read access to a user's current ledger snapshot
type LedgerProvider interface {
	Ledger(userID string) (*ledger.Ledger, error)
}

// SyncedLedgerProvider can wait for a user's first full sync
type SyncedLedgerProvider interface {
	SyncedLedger(ctx context.Context, userID string) (*ledger.Ledger, error)
}

// SyncTimeout bounds how long an existence check waits on a cold session
const SyncTimeout = 5 * time.Second

// SyncedLedger returns the user's ledger for existence checks. Providers that
// can wait for the first sync are given up to SyncTimeout so a fresh session
// does not report existing entities as missing.
func SyncedLedger(ctx context.Context, ledgers LedgerProvider, userID string) (*ledger.Ledger, error) {
	synced, ok := ledgers.(SyncedLedgerProvider)
	if !ok {
		return ledgers.Ledger(userID)
	}
	ctx, cancel := context.WithTimeout(ctx, SyncTimeout)
	defer cancel()
	return synced.SyncedLedger(ctx, userID)
}

// MutationSubmitter queues writes against a user's ledger
type MutationSubmitter interface {
	Submit(ctx context.Context, userID string, m domain.Mutation) (*ledger.Intent, error)
}

var hundred = decimal.NewFromInt(100)

// percentOf returns part/whole × 100 unrounded, 0 when whole is not positive.
// Callers classify on this value and round only what they report.
func percentOf(part, whole decimal.Decimal) decimal.Decimal {
	if !whole.IsPositive() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred)
}

// clampPercent bounds p to [0, 100]
func clampPercent(p decimal.Decimal) decimal.Decimal {
	if p.IsNegative() {
		return decimal.Zero
	}
	if p.GreaterThan(hundred) {
		return hundred
	}
	return p
}

// nonNegative returns max(0, d)
func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
