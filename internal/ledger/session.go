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

// Session is one user's live ledger: a Store and the Syncer feeding it
type Session struct {
	userID     string
	store      *Store
	syncer     *Syncer
	lastAccess atomic.Int64
	stopListen func()
}

func (s *Session) UserID() string { return s.userID }

// Ledger returns the current snapshot and marks the session as used
func (s *Session) Ledger() *Ledger {
	s.touch()
	return s.store.Ledger()
}

func (s *Session) Status() Status {
	s.touch()
	return s.store.Status()
}

// Submit queues a mutation against this user's ledger
func (s *Session) Submit(ctx context.Context, m domain.Mutation) (*Intent, error) {
	s.touch()
	return s.syncer.Submit(ctx, m)
}

// WaitReady blocks until every collection has been synced once
func (s *Session) WaitReady(ctx context.Context) error {
	return s.store.WaitReady(ctx)
}

// LastAccess is the time of the last read or write through the session
func (s *Session) LastAccess() time.Time {
	return time.Unix(0, s.lastAccess.Load())
}

// Close stops the sync and fails unconfirmed intents
func (s *Session) Close() error {
	if s.stopListen != nil {
		s.stopListen()
	}
	return s.syncer.Close()
}

func (s *Session) touch() {
	s.lastAccess.Store(time.Now().UnixNano())
}

// ChangeHandler receives every store change of every session
type ChangeHandler func(userID string, change Change)

// SessionConfig holds configuration for the session manager
type SessionConfig struct {
	Sync    SyncConfig
	IdleTTL time.Duration // Sessions unused for this long are closed by the reaper
}

// DefaultSessionConfig returns sensible defaults
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		Sync:    DefaultSyncConfig(),
		IdleTTL: 30 * time.Minute,
	}
}

// SessionManager owns one Session per user id
type SessionManager struct {
	remote   domain.RemoteStore
	logger   zerolog.Logger
	config   SessionConfig
	onChange ChangeHandler

	// sessions outlive the request that opened them
	baseCtx    context.Context
	cancelBase context.CancelFunc

	mu       sync.Mutex
	sessions map[string]*Session
	closed   bool
}

// NewSessionManager creates a session manager. onChange may be nil.
func NewSessionManager(remote domain.RemoteStore, logger zerolog.Logger, config SessionConfig, onChange ChangeHandler) *SessionManager {
	if config.IdleTTL <= 0 {
		config.IdleTTL = DefaultSessionConfig().IdleTTL
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &SessionManager{
		remote:     remote,
		logger:     logger.With().Str("component", "session_manager").Logger(),
		config:     config,
		onChange:   onChange,
		baseCtx:    ctx,
		cancelBase: cancel,
		sessions:   make(map[string]*Session),
	}
}

// Open returns the user's session, starting one if none exists
func (m *SessionManager) Open(userID string) (*Session, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, domain.ErrSessionClosed
	}
	if s, ok := m.sessions[userID]; ok {
		s.touch()
		return s, nil
	}

	store := NewStore(m.logger.With().Str("user_id", userID).Logger())
	s := &Session{
		userID: userID,
		store:  store,
		syncer: NewSyncer(userID, m.remote, store, m.logger, m.config.Sync),
	}
	if m.onChange != nil {
		onChange := m.onChange
		s.stopListen = store.Listen(func(c Change) { onChange(userID, c) })
	}
	if err := s.syncer.Start(m.baseCtx); err != nil {
		return nil, err
	}
	s.touch()
	m.sessions[userID] = s

	m.logger.Info().Str("user_id", userID).Int("sessions", len(m.sessions)).Msg("Session opened")
	return s, nil
}

// Get returns an open session without starting one
func (m *SessionManager) Get(userID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[userID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return s, nil
}

// Ledger returns the user's current ledger, opening the session if needed
func (m *SessionManager) Ledger(userID string) (*Ledger, error) {
	s, err := m.Open(userID)
	if err != nil {
		return nil, err
	}
	return s.Ledger(), nil
}

// SyncedLedger returns the user's ledger once every collection has synced,
// opening the session if needed. It gives up with ErrLedgerNotSynced when ctx
// ends first.
func (m *SessionManager) SyncedLedger(ctx context.Context, userID string) (*Ledger, error) {
	s, err := m.Open(userID)
	if err != nil {
		return nil, err
	}
	if err := s.WaitReady(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrLedgerNotSynced, err)
	}
	return s.Ledger(), nil
}

// Submit queues a mutation on the user's session, opening it if needed
func (m *SessionManager) Submit(ctx context.Context, userID string, mutation domain.Mutation) (*Intent, error) {
	s, err := m.Open(userID)
	if err != nil {
		return nil, err
	}
	return s.Submit(ctx, mutation)
}

// Close ends the user's session
func (m *SessionManager) Close(userID string) error {
	m.mu.Lock()
	s, ok := m.sessions[userID]
	if ok {
		delete(m.sessions, userID)
	}
	m.mu.Unlock()

	if !ok {
		return domain.ErrSessionNotFound
	}

	m.logger.Info().Str("user_id", userID).Msg("Session closed")
	return s.Close()
}

// CloseAll ends every session and rejects new ones
func (m *SessionManager) CloseAll() {
	m.mu.Lock()
	m.closed = true
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	var wg sync.WaitGroup
	for userID, s := range sessions {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.Close(); err != nil {
				m.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to close session")
			}
		}()
	}
	wg.Wait()
	m.cancelBase()

	m.logger.Info().Int("sessions", len(sessions)).Msg("All sessions closed")
}

// CloseIdle closes sessions unused since now minus the idle TTL and returns how many
func (m *SessionManager) CloseIdle(now time.Time) int {
	cutoff := now.Add(-m.config.IdleTTL)

	m.mu.Lock()
	var idle []*Session
	for userID, s := range m.sessions {
		if s.LastAccess().Before(cutoff) {
			idle = append(idle, s)
			delete(m.sessions, userID)
		}
	}
	m.mu.Unlock()

	for _, s := range idle {
		if err := s.Close(); err != nil {
			m.logger.Error().Err(err).Str("user_id", s.userID).Msg("Failed to close idle session")
		}
	}
	return len(idle)
}

// Count returns the number of open sessions
func (m *SessionManager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
