package ledger

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/codepinky/ruptura/ruptura-backend/internal/domain"
	"github.com/rs/zerolog"
)

// ChangeKind classifies store notifications
type ChangeKind string

const (
	ChangeSynced          ChangeKind = "synced"
	ChangeSyncFailed      ChangeKind = "sync_failed"
	ChangeMutationFailed  ChangeKind = "mutation_failed"
	ChangeIntentConfirmed ChangeKind = "confirmed"
)

// Change describes one store update
type Change struct {
	Kind       ChangeKind
	Collection domain.Collection
	Version    uint64
	Count      int
	IntentID   string
	EntityID   string
	Err        error
}

// Listener receives store changes after they are applied
type Listener func(Change)

// CollectionStatus reports the sync state of one collection
type CollectionStatus struct {
	Version  uint64     `json:"version"`
	Count    int        `json:"count"`
	SyncedAt *time.Time `json:"syncedAt,omitempty"`
	Error    string     `json:"error,omitempty"`
}

// Status is the store-level sync state
type Status struct {
	Ready         bool                                   `json:"ready"`
	Collections   map[domain.Collection]CollectionStatus `json:"collections"`
	MutationError string                                 `json:"mutationError,omitempty"`
	Pending       int                                    `json:"pending"`
}

// Store holds the authoritative in-memory ledger of one user. Snapshots are
// the only way confirmed state changes; readers get immutable Ledger values.
type Store struct {
	current atomic.Pointer[Ledger]

	mu           sync.Mutex
	syncErrs     map[domain.Collection]error
	mutationErr  error
	pending      map[string]*Intent
	listeners    map[int]Listener
	nextListener int
	closed       bool
	ready        chan struct{}

	logger zerolog.Logger
}

// NewStore creates an empty store
func NewStore(logger zerolog.Logger) *Store {
	s := &Store{
		syncErrs:  make(map[domain.Collection]error),
		pending:   make(map[string]*Intent),
		listeners: make(map[int]Listener),
		ready:     make(chan struct{}),
		logger:    logger,
	}
	s.current.Store(Empty())
	return s
}

// Ledger returns the current immutable snapshot of all collections
func (s *Store) Ledger() *Ledger {
	return s.current.Load()
}

// DispatchSnapshot replaces one collection wholesale. Dispatching the same
// content twice leaves the ledger content-equal to a single dispatch.
func (s *Store) DispatchSnapshot(snap domain.Snapshot) error {
	if _, err := domain.ParseCollection(string(snap.Collection)); err != nil {
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.ErrSessionClosed
	}

	next, skipped := s.current.Load().apply(snap)
	s.current.Store(next)
	delete(s.syncErrs, snap.Collection)

	changes := []Change{{
		Kind:       ChangeSynced,
		Collection: snap.Collection,
		Version:    next.Version(snap.Collection),
		Count:      next.Count(snap.Collection),
	}}
	for id, intent := range s.pending {
		if intent.mutation.Collection != snap.Collection || !intent.reflectedIn(next) {
			continue
		}
		if intent.confirm() {
			delete(s.pending, id)
			changes = append(changes, Change{
				Kind:       ChangeIntentConfirmed,
				Collection: snap.Collection,
				IntentID:   id,
				EntityID:   intent.EntityID(),
			})
		}
	}
	if next.Ready() {
		s.markReady()
	}
	listeners := s.listenerSnapshot()
	s.mu.Unlock()

	if skipped > 0 {
		s.logger.Warn().
			Str("collection", string(snap.Collection)).
			Int("skipped", skipped).
			Msg("Snapshot contained entities of the wrong type")
	}

	notify(listeners, changes)
	return nil
}

// ReportSyncError raises the error flag of a collection
func (s *Store) ReportSyncError(c domain.Collection, err error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.syncErrs[c] = err
	listeners := s.listenerSnapshot()
	s.mu.Unlock()

	notify(listeners, []Change{{Kind: ChangeSyncFailed, Collection: c, Err: err}})
}

// Listen registers a listener and returns its removal func
func (s *Store) Listen(fn Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextListener
	s.nextListener++
	s.listeners[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// Status reports per-collection versions and error flags
func (s *Store) Status() Status {
	l := s.current.Load()

	s.mu.Lock()
	defer s.mu.Unlock()

	status := Status{
		Ready:       l.Ready(),
		Collections: make(map[domain.Collection]CollectionStatus, len(domain.AllCollections)),
		Pending:     len(s.pending),
	}
	for _, c := range domain.AllCollections {
		cs := CollectionStatus{
			Version: l.Version(c),
			Count:   l.Count(c),
		}
		if at := l.SyncedAt(c); !at.IsZero() {
			cs.SyncedAt = &at
		}
		if err := s.syncErrs[c]; err != nil {
			cs.Error = err.Error()
		}
		status.Collections[c] = cs
	}
	if s.mutationErr != nil {
		status.MutationError = s.mutationErr.Error()
	}
	return status
}

// WaitReady blocks until every collection has received a snapshot
func (s *Store) WaitReady(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) trackIntent(intent *Intent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrSessionClosed
	}
	s.pending[intent.id] = intent
	return nil
}

func (s *Store) untrackIntent(intent *Intent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, intent.id)
}

// intentSubmitted records the remote acknowledgement and confirms at once if
// a snapshot already reflected the write
func (s *Store) intentSubmitted(intent *Intent, result *domain.WriteResult) {
	intent.markSubmitted(result)

	s.mu.Lock()
	// a later accepted write supersedes the last failure
	s.mutationErr = nil
	if !intent.reflectedIn(s.current.Load()) || !intent.confirm() {
		s.mu.Unlock()
		return
	}
	delete(s.pending, intent.id)
	listeners := s.listenerSnapshot()
	s.mu.Unlock()

	notify(listeners, []Change{{
		Kind:       ChangeIntentConfirmed,
		Collection: intent.mutation.Collection,
		IntentID:   intent.id,
		EntityID:   intent.EntityID(),
	}})
}

func (s *Store) intentFailed(intent *Intent, err error) {
	s.mu.Lock()
	delete(s.pending, intent.id)
	s.mutationErr = fmt.Errorf("%s %s: %w", intent.mutation.Kind, intent.mutation.Collection, err)
	listeners := s.listenerSnapshot()
	s.mu.Unlock()

	if !intent.fail(err) {
		return
	}
	notify(listeners, []Change{{
		Kind:       ChangeMutationFailed,
		Collection: intent.mutation.Collection,
		IntentID:   intent.id,
		EntityID:   intent.EntityID(),
		Err:        err,
	}})
}

// close rejects further dispatches and fails every unconfirmed intent
func (s *Store) close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	pending := s.pending
	s.pending = make(map[string]*Intent)
	s.listeners = make(map[int]Listener)
	s.mu.Unlock()

	for _, intent := range pending {
		intent.fail(domain.ErrSessionClosed)
	}
}

func (s *Store) markReady() {
	select {
	case <-s.ready:
	default:
		close(s.ready)
	}
}

// listenerSnapshot must be called with s.mu held
func (s *Store) listenerSnapshot() []Listener {
	out := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		out = append(out, l)
	}
	return out
}

func notify(listeners []Listener, changes []Change) {
	for _, c := range changes {
		for _, l := range listeners {
			l(c)
		}
	}
}
