package handler

import (
	"errors"
	"testing"

	"github.com/codepinky/ruptura/ruptura-backend/internal/domain"
	"github.com/codepinky/ruptura/ruptura-backend/internal/ledger"
	"github.com/codepinky/ruptura/ruptura-backend/internal/testutil"
	"github.com/codepinky/ruptura/ruptura-backend/internal/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForwardChanges(t *testing.T) {
	tests := []struct {
		name     string
		change   ledger.Change
		wantType string
		payload  interface{}
	}{
		{
			name:     "synced",
			change:   ledger.Change{Kind: ledger.ChangeSynced, Collection: domain.CollectionGoals, Version: 3, Count: 7},
			wantType: "goals.synced",
			payload:  websocket.SyncedPayload{Version: 3, Count: 7},
		},
		{
			name:     "sync failed",
			change:   ledger.Change{Kind: ledger.ChangeSyncFailed, Collection: domain.CollectionBudgets, Err: errors.New("reset")},
			wantType: "budgets.sync_failed",
			payload:  websocket.ErrorPayload{Error: "reset"},
		},
		{
			name:     "confirmed",
			change:   ledger.Change{Kind: ledger.ChangeIntentConfirmed, Collection: domain.CollectionSavings, IntentID: "i1", EntityID: "s1"},
			wantType: "savings.confirmed",
			payload:  websocket.IntentPayload{IntentID: "i1", EntityID: "s1"},
		},
		{
			name:     "mutation failed",
			change:   ledger.Change{Kind: ledger.ChangeMutationFailed, Collection: domain.CollectionTransactions, IntentID: "i2", Err: domain.ErrTransactionNotFound},
			wantType: "transactions.mutation_failed",
			payload:  websocket.IntentPayload{IntentID: "i2", Error: "transaction not found"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			publisher := testutil.NewRecordingPublisher()
			ForwardChanges(publisher)("alice", tt.change)

			events := publisher.Events()
			require.Len(t, events, 1)
			assert.Equal(t, "alice", events[0].UserID)
			assert.Equal(t, tt.wantType, events[0].Event.Type)
			assert.Equal(t, tt.payload, events[0].Event.Payload)
		})
	}
}

func TestForwardChanges_IgnoresUnknownKind(t *testing.T) {
	publisher := testutil.NewRecordingPublisher()
	ForwardChanges(publisher)("alice", ledger.Change{Kind: "compacted"})
	assert.Empty(t, publisher.Events())
}
