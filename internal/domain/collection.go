package domain

import (
	"context"
	"fmt"
	"time"
)

// Collection names one of the five entity collections of a ledger
type Collection string

const (
	CollectionTransactions Collection = "transactions"
	CollectionCategories   Collection = "categories"
	CollectionBudgets      Collection = "budgets"
	CollectionGoals        Collection = "goals"
	CollectionSavings      Collection = "savings"
)

// AllCollections lists every collection in subscription order
var AllCollections = []Collection{
	CollectionTransactions,
	CollectionCategories,
	CollectionBudgets,
	CollectionGoals,
	CollectionSavings,
}

// ParseCollection validates a collection name
func ParseCollection(s string) (Collection, error) {
	for _, c := range AllCollections {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCollection, s)
}

// Entity is implemented by every ledger entity type
type Entity interface {
	EntityID() string
	Collection() Collection
	// LastUpdated is the server-assigned update timestamp
	LastUpdated() time.Time
	Validate() error
}

// Snapshot is a complete, ordered replacement of one collection
type Snapshot struct {
	Collection Collection `json:"collection"`
	Entities   []Entity   `json:"entities"`
	ReceivedAt time.Time  `json:"receivedAt"`
}

// NewSnapshot builds a snapshot stamped with the current time
func NewSnapshot(collection Collection, entities []Entity) Snapshot {
	return Snapshot{
		Collection: collection,
		Entities:   entities,
		ReceivedAt: time.Now().UTC(),
	}
}

// MutationKind is the kind of write submitted to the remote store
type MutationKind string

const (
	MutationCreate MutationKind = "create"
	MutationUpdate MutationKind = "update"
	MutationDelete MutationKind = "delete"
)

// Mutation is a write intent for one entity
type Mutation struct {
	Kind       MutationKind `json:"kind"`
	Collection Collection   `json:"collection"`
	ID         string       `json:"id,omitempty"`
	Entity     Entity       `json:"entity,omitempty"`
}

// Validate rejects malformed mutations before they reach the remote store
func (m Mutation) Validate() error {
	if _, err := ParseCollection(string(m.Collection)); err != nil {
		return err
	}

	switch m.Kind {
	case MutationCreate, MutationUpdate:
		if m.Entity == nil {
			return fmt.Errorf("%w: %s requires an entity", ErrInvalidMutation, m.Kind)
		}
		if m.Entity.Collection() != m.Collection {
			return fmt.Errorf("%w: %s entity in %s", ErrEntityMismatch, m.Entity.Collection(), m.Collection)
		}
		if m.Kind == MutationUpdate && m.ID == "" {
			return fmt.Errorf("%w: update requires an id", ErrInvalidMutation)
		}
		return m.Entity.Validate()
	case MutationDelete:
		if m.ID == "" {
			return fmt.Errorf("%w: delete requires an id", ErrInvalidMutation)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidMutation, m.Kind)
	}
}

// WriteResult carries the server-assigned identity and timestamp of a confirmed write
type WriteResult struct {
	ID        string
	UpdatedAt time.Time
}

// Subscription is a live stream of snapshots for one collection.
// Snapshots is closed when the subscription ends; Err then reports why (nil on cancellation).
type Subscription interface {
	Snapshots() <-chan Snapshot
	Err() error
	Close() error
}

// RemoteStore is the system of record for every user's ledger
type RemoteStore interface {
	Subscribe(ctx context.Context, userID string, collection Collection) (Subscription, error)
	Create(ctx context.Context, userID string, entity Entity) (*WriteResult, error)
	Update(ctx context.Context, userID string, id string, entity Entity) (*WriteResult, error)
	Delete(ctx context.Context, userID string, collection Collection, id string) error
}

// NotFoundError returns the not-found sentinel of a collection
func NotFoundError(c Collection) error {
	switch c {
	case CollectionTransactions:
		return ErrTransactionNotFound
	case CollectionCategories:
		return ErrCategoryNotFound
	case CollectionBudgets:
		return ErrBudgetNotFound
	case CollectionGoals:
		return ErrGoalNotFound
	case CollectionSavings:
		return ErrSavingNotFound
	}
	return ErrNotFound
}
