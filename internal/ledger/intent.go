package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/codepinky/ruptura/ruptura-backend/internal/domain"
	"github.com/google/uuid"
)

// IntentStatus tracks a mutation through the submit/confirm protocol
type IntentStatus string

const (
	// IntentPending is queued but not yet acknowledged by the remote store
	IntentPending IntentStatus = "pending"
	// IntentSubmitted is acknowledged by the remote store, awaiting a snapshot
	IntentSubmitted IntentStatus = "submitted"
	// IntentConfirmed is reflected by a dispatched snapshot
	IntentConfirmed IntentStatus = "confirmed"
	// IntentFailed was rejected by the remote store or abandoned on close
	IntentFailed IntentStatus = "failed"
)

// Intent is a submitted mutation. It completes when a snapshot confirms the
// write or when the write fails.
type Intent struct {
	id        string
	mutation  domain.Mutation
	createdAt time.Time

	mu     sync.Mutex
	status IntentStatus
	result *domain.WriteResult
	err    error
	done   chan struct{}
}

// IntentView is the JSON representation of an intent
type IntentView struct {
	ID         string              `json:"id"`
	Kind       domain.MutationKind `json:"kind"`
	Collection domain.Collection   `json:"collection"`
	EntityID   string              `json:"entityId,omitempty"`
	Status     IntentStatus        `json:"status"`
	Error      string              `json:"error,omitempty"`
	CreatedAt  time.Time           `json:"createdAt"`
}

func newIntent(m domain.Mutation) *Intent {
	return &Intent{
		id:        uuid.New().String(),
		mutation:  m,
		createdAt: time.Now().UTC(),
		status:    IntentPending,
		done:      make(chan struct{}),
	}
}

func (i *Intent) ID() string                { return i.id }
func (i *Intent) Mutation() domain.Mutation { return i.mutation }

// Status returns the current protocol state
func (i *Intent) Status() IntentStatus {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.status
}

// EntityID is the server-assigned id for creates, the target id otherwise
func (i *Intent) EntityID() string {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.result != nil && i.result.ID != "" {
		return i.result.ID
	}
	return i.mutation.ID
}

// Err returns the failure cause, if any
func (i *Intent) Err() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.err
}

// Done is closed once the intent is confirmed or failed
func (i *Intent) Done() <-chan struct{} {
	return i.done
}

// Wait blocks until the intent completes or ctx ends
func (i *Intent) Wait(ctx context.Context) error {
	select {
	case <-i.done:
		return i.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// View snapshots the intent for serialization
func (i *Intent) View() IntentView {
	v := IntentView{
		ID:         i.id,
		Kind:       i.mutation.Kind,
		Collection: i.mutation.Collection,
		EntityID:   i.EntityID(),
		Status:     i.Status(),
		CreatedAt:  i.createdAt,
	}
	if err := i.Err(); err != nil {
		v.Error = err.Error()
	}
	return v
}

func (i *Intent) markSubmitted(result *domain.WriteResult) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.status == IntentPending {
		i.status = IntentSubmitted
		i.result = result
	}
}

func (i *Intent) confirm() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.status != IntentSubmitted {
		return false
	}
	i.status = IntentConfirmed
	close(i.done)
	return true
}

func (i *Intent) fail(err error) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.status == IntentConfirmed || i.status == IntentFailed {
		return false
	}
	i.status = IntentFailed
	i.err = err
	close(i.done)
	return true
}

// reflectedIn reports whether l shows the effect of the acknowledged write
func (i *Intent) reflectedIn(l *Ledger) bool {
	i.mu.Lock()
	result := i.result
	status := i.status
	i.mu.Unlock()

	if status != IntentSubmitted || result == nil {
		return false
	}

	entity, present := l.Lookup(i.mutation.Collection, result.ID)
	switch i.mutation.Kind {
	case domain.MutationCreate:
		return present
	case domain.MutationUpdate:
		return present && !entity.LastUpdated().Before(result.UpdatedAt)
	case domain.MutationDelete:
		return !present
	}
	return false
}
