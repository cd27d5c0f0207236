package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/codepinky/ruptura/ruptura-backend/internal/domain"
	"github.com/codepinky/ruptura/ruptura-backend/internal/websocket"
	"github.com/google/uuid"
)

// MockRemoteStore is an in-memory implementation of domain.RemoteStore.
// Every write fans a fresh snapshot out to the live subscriptions of the
// affected collection, like the real store's change feed.
type MockRemoteStore struct {
	mu   sync.Mutex
	data map[string]map[domain.Collection][]domain.Entity
	subs map[string]map[domain.Collection][]*MockSubscription

	// SubscribeErrs fails this many Subscribe calls per collection before succeeding
	SubscribeErrs map[domain.Collection]int
	SubscribeErr  error
	CreateErr     error
	UpdateErr     error
	DeleteErr     error
	// Silent suppresses snapshot fan-out after writes
	Silent bool
	// WriteDelay stalls every write until the delay passes or ctx ends
	WriteDelay time.Duration
	// SnapshotDelay holds back the first snapshot of each new subscription
	SnapshotDelay time.Duration

	subscribeCalls map[domain.Collection]int
	writes         int
	now            func() time.Time
}

// NewMockRemoteStore creates a new MockRemoteStore
func NewMockRemoteStore() *MockRemoteStore {
	return &MockRemoteStore{
		data:           make(map[string]map[domain.Collection][]domain.Entity),
		subs:           make(map[string]map[domain.Collection][]*MockSubscription),
		SubscribeErrs:  make(map[domain.Collection]int),
		subscribeCalls: make(map[domain.Collection]int),
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// Seed stores entities for a user without notifying subscribers (helper for tests)
func (m *MockRemoteStore) Seed(userID string, entities ...domain.Entity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range entities {
		c := e.Collection()
		m.userData(userID)[c] = append(m.userData(userID)[c], e)
	}
}

// Subscribe opens a subscription that starts with the current collection content
func (m *MockRemoteStore) Subscribe(ctx context.Context, userID string, c domain.Collection) (domain.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.subscribeCalls[c]++
	if m.SubscribeErrs[c] > 0 {
		m.SubscribeErrs[c]--
		return nil, errOr(m.SubscribeErr, "subscribe failed")
	}

	sub := newMockSubscription()
	if m.SnapshotDelay > 0 {
		go sub.sendAfter(m.SnapshotDelay, m.snapshot(userID, c))
	} else {
		sub.send(m.snapshot(userID, c))
	}
	if m.subs[userID] == nil {
		m.subs[userID] = make(map[domain.Collection][]*MockSubscription)
	}
	m.subs[userID][c] = append(m.subs[userID][c], sub)

	go func() {
		select {
		case <-ctx.Done():
			sub.Close()
		case <-sub.closed:
		}
	}()
	return sub, nil
}

// Create appends an entity under a new id
func (m *MockRemoteStore) Create(ctx context.Context, userID string, entity domain.Entity) (*domain.WriteResult, error) {
	if err := m.stall(ctx); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.writes++
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}

	now := m.now()
	id := uuid.New().String()
	stored := Stamp(entity, id, now, now)
	c := entity.Collection()
	m.userData(userID)[c] = append(m.userData(userID)[c], stored)
	m.fanOut(userID, c)

	return &domain.WriteResult{ID: id, UpdatedAt: now}, nil
}

// Update replaces an existing entity
func (m *MockRemoteStore) Update(ctx context.Context, userID string, id string, entity domain.Entity) (*domain.WriteResult, error) {
	if err := m.stall(ctx); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.writes++
	if m.UpdateErr != nil {
		return nil, m.UpdateErr
	}

	c := entity.Collection()
	items := m.userData(userID)[c]
	for i, existing := range items {
		if existing.EntityID() != id {
			continue
		}
		now := m.now()
		items[i] = Stamp(entity, id, createdAt(existing), now)
		m.fanOut(userID, c)
		return &domain.WriteResult{ID: id, UpdatedAt: now}, nil
	}
	return nil, domain.NotFoundError(c)
}

// Delete removes an entity
func (m *MockRemoteStore) Delete(ctx context.Context, userID string, c domain.Collection, id string) error {
	if err := m.stall(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.writes++
	if m.DeleteErr != nil {
		return m.DeleteErr
	}

	items := m.userData(userID)[c]
	for i, existing := range items {
		if existing.EntityID() == id {
			m.userData(userID)[c] = append(items[:i:i], items[i+1:]...)
			m.fanOut(userID, c)
			return nil
		}
	}
	return domain.NotFoundError(c)
}

// FailSubscriptions terminates the live subscriptions of a collection with err
func (m *MockRemoteStore) FailSubscriptions(userID string, c domain.Collection, err error) {
	m.mu.Lock()
	subs := m.subs[userID][c]
	if m.subs[userID] != nil {
		m.subs[userID][c] = nil
	}
	m.mu.Unlock()

	for _, sub := range subs {
		sub.fail(err)
	}
}

// Publish pushes the current content of a collection to its subscribers
func (m *MockRemoteStore) Publish(userID string, c domain.Collection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	silent := m.Silent
	m.Silent = false
	m.fanOut(userID, c)
	m.Silent = silent
}

// SubscribeCalls returns how many times a collection was subscribed
func (m *MockRemoteStore) SubscribeCalls(c domain.Collection) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.subscribeCalls[c]
}

// Writes returns how many writes reached the store
func (m *MockRemoteStore) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// LiveSubscriptions counts subscriptions not yet closed for a user
func (m *MockRemoteStore) LiveSubscriptions(userID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, subs := range m.subs[userID] {
		for _, sub := range subs {
			if !sub.isClosed() {
				n++
			}
		}
	}
	return n
}

func (m *MockRemoteStore) userData(userID string) map[domain.Collection][]domain.Entity {
	if m.data[userID] == nil {
		m.data[userID] = make(map[domain.Collection][]domain.Entity)
	}
	return m.data[userID]
}

// snapshot must be called with m.mu held
func (m *MockRemoteStore) snapshot(userID string, c domain.Collection) domain.Snapshot {
	items := append([]domain.Entity(nil), m.userData(userID)[c]...)
	return domain.NewSnapshot(c, items)
}

// fanOut must be called with m.mu held
func (m *MockRemoteStore) fanOut(userID string, c domain.Collection) {
	if m.Silent {
		return
	}
	snap := m.snapshot(userID, c)
	for _, sub := range m.subs[userID][c] {
		sub.send(snap)
	}
}

func (m *MockRemoteStore) stall(ctx context.Context) error {
	if m.WriteDelay <= 0 {
		return nil
	}
	select {
	case <-time.After(m.WriteDelay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// MockSubscription is a channel-backed domain.Subscription
type MockSubscription struct {
	ch     chan domain.Snapshot
	closed chan struct{}
	once   sync.Once
	mu     sync.Mutex
	err    error
}

func newMockSubscription() *MockSubscription {
	return &MockSubscription{
		ch:     make(chan domain.Snapshot, 64),
		closed: make(chan struct{}),
	}
}

func (s *MockSubscription) Snapshots() <-chan domain.Snapshot { return s.ch }

func (s *MockSubscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *MockSubscription) Close() error {
	s.once.Do(func() {
		s.mu.Lock()
		close(s.closed)
		close(s.ch)
		s.mu.Unlock()
	})
	return nil
}

func (s *MockSubscription) send(snap domain.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.closed:
		return
	default:
	}
	select {
	case s.ch <- snap:
	default:
	}
}

func (s *MockSubscription) sendAfter(d time.Duration, snap domain.Snapshot) {
	select {
	case <-time.After(d):
		s.send(snap)
	case <-s.closed:
	}
}

func (s *MockSubscription) fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
	s.Close()
}

func (s *MockSubscription) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

// Stamp returns a copy of entity with server-assigned identity and timestamps
func Stamp(entity domain.Entity, id string, created, updated time.Time) domain.Entity {
	switch e := deref(entity).(type) {
	case domain.Transaction:
		e.ID, e.CreatedAt, e.UpdatedAt = id, created, updated
		return e
	case domain.Category:
		e.ID, e.CreatedAt, e.UpdatedAt = id, created, updated
		return e
	case domain.Budget:
		e.ID, e.CreatedAt, e.UpdatedAt = id, created, updated
		return e
	case domain.Goal:
		e.ID, e.CreatedAt, e.UpdatedAt = id, created, updated
		return e
	case domain.Saving:
		e.ID, e.CreatedAt, e.UpdatedAt = id, created, updated
		return e
	}
	return entity
}

func deref(entity domain.Entity) domain.Entity {
	switch e := entity.(type) {
	case *domain.Transaction:
		return *e
	case *domain.Category:
		return *e
	case *domain.Budget:
		return *e
	case *domain.Goal:
		return *e
	case *domain.Saving:
		return *e
	}
	return entity
}

func createdAt(entity domain.Entity) time.Time {
	switch e := deref(entity).(type) {
	case domain.Transaction:
		return e.CreatedAt
	case domain.Category:
		return e.CreatedAt
	case domain.Budget:
		return e.CreatedAt
	case domain.Goal:
		return e.CreatedAt
	case domain.Saving:
		return e.CreatedAt
	}
	return time.Time{}
}

type mockError string

func (e mockError) Error() string { return string(e) }

func errOr(err error, msg string) error {
	if err != nil {
		return err
	}
	return mockError(msg)
}

// MockPresetRepository is a mock implementation of domain.PresetRepository
type MockPresetRepository struct {
	mu      sync.Mutex
	Presets map[string][]*domain.Preset
	LoadErr error
	SaveErr error
	Saves   int
}

// NewMockPresetRepository creates a new MockPresetRepository
func NewMockPresetRepository() *MockPresetRepository {
	return &MockPresetRepository{
		Presets: make(map[string][]*domain.Preset),
	}
}

// Load returns a copy of the user's presets
func (m *MockPresetRepository) Load(ctx context.Context, userID string) ([]*domain.Preset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	out := make([]*domain.Preset, 0, len(m.Presets[userID]))
	for _, p := range m.Presets[userID] {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

// Save replaces the user's presets
func (m *MockPresetRepository) Save(ctx context.Context, userID string, presets []*domain.Preset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.Saves++
	m.Presets[userID] = presets
	return nil
}

// RecordedEvent is one call to RecordingPublisher.Publish
type RecordedEvent struct {
	UserID string
	Event  websocket.Event
}

// RecordingPublisher is a websocket.EventPublisher that keeps every event
type RecordingPublisher struct {
	mu     sync.Mutex
	events []RecordedEvent
}

// NewRecordingPublisher creates a new RecordingPublisher
func NewRecordingPublisher() *RecordingPublisher {
	return &RecordingPublisher{}
}

// Publish records the event
func (p *RecordingPublisher) Publish(userID string, event websocket.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, RecordedEvent{UserID: userID, Event: event})
}

// Events returns a copy of the recorded events
func (p *RecordingPublisher) Events() []RecordedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]RecordedEvent(nil), p.events...)
}

// Types returns the recorded event types in order
func (p *RecordingPublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Event.Type)
	}
	return out
}
