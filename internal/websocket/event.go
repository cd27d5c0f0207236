package websocket

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/codepinky/ruptura/ruptura-backend/internal/domain"
)

// EventType represents what happened to a collection or session
type EventType string

const (
	EventTypeSynced         EventType = "synced"
	EventTypeSyncFailed     EventType = "sync_failed"
	EventTypeConfirmed      EventType = "confirmed"
	EventTypeMutationFailed EventType = "mutation_failed"
	EventTypeOpened         EventType = "opened"
	EventTypeClosed         EventType = "closed"
	EventTypeStatus         EventType = "status"
	EventTypeError          EventType = "error"
)

// EntityType represents the type of entity the event is about
type EntityType string

const (
	EntityTypeTransactions EntityType = EntityType(domain.CollectionTransactions)
	EntityTypeCategories   EntityType = EntityType(domain.CollectionCategories)
	EntityTypeBudgets      EntityType = EntityType(domain.CollectionBudgets)
	EntityTypeGoals        EntityType = EntityType(domain.CollectionGoals)
	EntityTypeSavings      EntityType = EntityType(domain.CollectionSavings)
	EntityTypeSession      EntityType = "session"
)

// Event represents a WebSocket event message sent to clients
// Format: { type, entity, payload, timestamp }
type Event struct {
	Type      string      `json:"type"`   // Combined type e.g. "transactions.synced"
	Entity    EntityType  `json:"entity"` // Collection name or "session"
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewEvent creates a new event with the given type, entity, and payload
func NewEvent(eventType EventType, entityType EntityType, payload interface{}) Event {
	return Event{
		Type:      fmt.Sprintf("%s.%s", entityType, eventType),
		Entity:    entityType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON serializes the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// SyncedPayload describes a collection after a snapshot was applied
type SyncedPayload struct {
	Version uint64 `json:"version"`
	Count   int    `json:"count"`
}

// IntentPayload describes the outcome of a submitted write
type IntentPayload struct {
	IntentID string `json:"intentId"`
	EntityID string `json:"entityId,omitempty"`
	Error    string `json:"error,omitempty"`
}

// ErrorPayload carries a failure message
type ErrorPayload struct {
	Error string `json:"error"`
}

// CollectionSynced creates a <collection>.synced event
func CollectionSynced(c domain.Collection, version uint64, count int) Event {
	return NewEvent(EventTypeSynced, EntityType(c), SyncedPayload{Version: version, Count: count})
}

// CollectionSyncFailed creates a <collection>.sync_failed event
func CollectionSyncFailed(c domain.Collection, err error) Event {
	return NewEvent(EventTypeSyncFailed, EntityType(c), ErrorPayload{Error: errString(err)})
}

// IntentConfirmed creates a <collection>.confirmed event
func IntentConfirmed(c domain.Collection, intentID, entityID string) Event {
	return NewEvent(EventTypeConfirmed, EntityType(c), IntentPayload{IntentID: intentID, EntityID: entityID})
}

// MutationFailed creates a <collection>.mutation_failed event
func MutationFailed(c domain.Collection, intentID, entityID string, err error) Event {
	return NewEvent(EventTypeMutationFailed, EntityType(c), IntentPayload{
		IntentID: intentID,
		EntityID: entityID,
		Error:    errString(err),
	})
}

// SessionOpened creates a session.opened event
func SessionOpened() Event {
	return NewEvent(EventTypeOpened, EntityTypeSession, nil)
}

// SessionClosed creates a session.closed event
func SessionClosed() Event {
	return NewEvent(EventTypeClosed, EntityTypeSession, nil)
}

// SessionStatus creates a session.status event carrying the ledger sync state
func SessionStatus(status interface{}) Event {
	return NewEvent(EventTypeStatus, EntityTypeSession, status)
}

// SessionError creates a session.error event answering a bad client request
func SessionError(err error) Event {
	return NewEvent(EventTypeError, EntityTypeSession, ErrorPayload{Error: errString(err)})
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
