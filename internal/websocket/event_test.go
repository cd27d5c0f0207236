package websocket

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/codepinky/ruptura/ruptura-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityType_MatchesCollections(t *testing.T) {
	tests := []struct {
		et       EntityType
		expected domain.Collection
	}{
		{EntityTypeTransactions, domain.CollectionTransactions},
		{EntityTypeCategories, domain.CollectionCategories},
		{EntityTypeBudgets, domain.CollectionBudgets},
		{EntityTypeGoals, domain.CollectionGoals},
		{EntityTypeSavings, domain.CollectionSavings},
	}

	for _, tt := range tests {
		t.Run(string(tt.expected), func(t *testing.T) {
			assert.Equal(t, string(tt.expected), string(tt.et))
		})
	}
}

func TestNewEvent(t *testing.T) {
	payload := map[string]interface{}{"count": 3}

	before := time.Now()
	evt := NewEvent(EventTypeSynced, EntityTypeGoals, payload)
	after := time.Now()

	assert.Equal(t, "goals.synced", evt.Type)
	assert.Equal(t, EntityTypeGoals, evt.Entity)
	assert.Equal(t, payload, evt.Payload)
	assert.True(t, !evt.Timestamp.Before(before) && !evt.Timestamp.After(after))
}

func TestEvent_ToJSON(t *testing.T) {
	evt := CollectionSynced(domain.CollectionTransactions, 4, 120)

	data, err := evt.ToJSON()
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, "transactions.synced", decoded["type"])
	assert.Equal(t, "transactions", decoded["entity"])
	assert.NotNil(t, decoded["timestamp"])
	payload, ok := decoded["payload"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(4), payload["version"])
	assert.Equal(t, float64(120), payload["count"])
}

func TestLedgerEvent_Helpers(t *testing.T) {
	t.Run("CollectionSyncFailed", func(t *testing.T) {
		evt := CollectionSyncFailed(domain.CollectionBudgets, errors.New("connection reset"))
		assert.Equal(t, "budgets.sync_failed", evt.Type)
		assert.Equal(t, ErrorPayload{Error: "connection reset"}, evt.Payload)
	})

	t.Run("IntentConfirmed", func(t *testing.T) {
		evt := IntentConfirmed(domain.CollectionGoals, "intent-1", "goal-1")
		assert.Equal(t, "goals.confirmed", evt.Type)
		assert.Equal(t, IntentPayload{IntentID: "intent-1", EntityID: "goal-1"}, evt.Payload)
	})

	t.Run("MutationFailed", func(t *testing.T) {
		evt := MutationFailed(domain.CollectionSavings, "intent-2", "", domain.ErrSavingNotFound)
		assert.Equal(t, "savings.mutation_failed", evt.Type)
		assert.Equal(t, IntentPayload{IntentID: "intent-2", Error: "saving not found"}, evt.Payload)
	})

	t.Run("Session", func(t *testing.T) {
		assert.Equal(t, "session.opened", SessionOpened().Type)
		assert.Equal(t, "session.closed", SessionClosed().Type)
		assert.Nil(t, SessionClosed().Payload)
	})
}

func TestErrString_Nil(t *testing.T) {
	assert.Equal(t, "", errString(nil))
}
