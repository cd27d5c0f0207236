package handler

import (
	"github.com/codepinky/ruptura/ruptura-backend/internal/ledger"
	"github.com/codepinky/ruptura/ruptura-backend/internal/websocket"
)

// ForwardChanges returns a session change handler that pushes every ledger
// change to the user's websocket clients
func ForwardChanges(publisher websocket.EventPublisher) ledger.ChangeHandler {
	return func(userID string, change ledger.Change) {
		event, ok := changeEvent(change)
		if !ok {
			return
		}
		publisher.Publish(userID, event)
	}
}

func changeEvent(change ledger.Change) (websocket.Event, bool) {
	switch change.Kind {
	case ledger.ChangeSynced:
		return websocket.CollectionSynced(change.Collection, change.Version, change.Count), true
	case ledger.ChangeSyncFailed:
		return websocket.CollectionSyncFailed(change.Collection, change.Err), true
	case ledger.ChangeIntentConfirmed:
		return websocket.IntentConfirmed(change.Collection, change.IntentID, change.EntityID), true
	case ledger.ChangeMutationFailed:
		return websocket.MutationFailed(change.Collection, change.IntentID, change.EntityID, change.Err), true
	}
	return websocket.Event{}, false
}
