package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/codepinky/ruptura/ruptura-backend/internal/domain"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ErrSubscriptionEnded is reported when a remote subscription closes without an error
var ErrSubscriptionEnded = errors.New("subscription ended")

// SyncConfig holds configuration for a Syncer
type SyncConfig struct {
	InitialBackoff    time.Duration // Delay before the first re-subscribe
	MaxBackoff        time.Duration // Cap for the doubling re-subscribe delay
	MutationTimeout   time.Duration // Deadline of one remote write
	MutationQueueSize int           // Pending writes accepted before Submit fails
}

// DefaultSyncConfig returns sensible defaults
func DefaultSyncConfig() SyncConfig {
	return SyncConfig{
		InitialBackoff:    500 * time.Millisecond,
		MaxBackoff:        30 * time.Second,
		MutationTimeout:   10 * time.Second,
		MutationQueueSize: 64,
	}
}

// Syncer keeps a Store fed from the remote store's live subscriptions and
// forwards mutations to it
type Syncer struct {
	userID string
	remote domain.RemoteStore
	store  *Store
	logger zerolog.Logger
	config SyncConfig
	queue  chan *Intent

	mu      sync.Mutex
	started bool
	closed  bool
	cancel  context.CancelFunc
	group   *errgroup.Group
}

// NewSyncer creates a syncer for one user's ledger
func NewSyncer(userID string, remote domain.RemoteStore, store *Store, logger zerolog.Logger, config SyncConfig) *Syncer {
	defaults := DefaultSyncConfig()
	if config.InitialBackoff <= 0 {
		config.InitialBackoff = defaults.InitialBackoff
	}
	if config.MaxBackoff < config.InitialBackoff {
		config.MaxBackoff = max(defaults.MaxBackoff, config.InitialBackoff)
	}
	if config.MutationTimeout <= 0 {
		config.MutationTimeout = defaults.MutationTimeout
	}
	if config.MutationQueueSize <= 0 {
		config.MutationQueueSize = defaults.MutationQueueSize
	}

	return &Syncer{
		userID: userID,
		remote: remote,
		store:  store,
		logger: logger.With().Str("component", "syncer").Str("user_id", userID).Logger(),
		config: config,
		queue:  make(chan *Intent, config.MutationQueueSize),
	}
}

// Start opens one subscription per collection and the mutation worker.
// It returns immediately; ctx bounds the lifetime of the background work.
func (s *Syncer) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.ErrSessionClosed
	}
	if s.started {
		return nil
	}
	s.started = true

	ctx, s.cancel = context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)
	for _, c := range domain.AllCollections {
		g.Go(func() error { return s.pump(gctx, c) })
	}
	g.Go(func() error { return s.work(gctx) })
	s.group = g

	s.logger.Info().Int("collections", len(domain.AllCollections)).Msg("Starting ledger sync")
	return nil
}

// Submit validates a mutation and queues it for the remote store. Validation
// failures never reach the remote store.
func (s *Syncer) Submit(ctx context.Context, m domain.Mutation) (*Intent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}

	intent := newIntent(m)
	if err := s.store.trackIntent(intent); err != nil {
		return nil, err
	}

	select {
	case s.queue <- intent:
	default:
		s.store.untrackIntent(intent)
		intent.fail(domain.ErrMutationQueueFull)
		return nil, domain.ErrMutationQueueFull
	}

	s.logger.Debug().
		Str("intent_id", intent.id).
		Str("kind", string(m.Kind)).
		Str("collection", string(m.Collection)).
		Msg("Mutation queued")
	return intent, nil
}

// Close cancels every subscription, waits for the background goroutines to
// exit and fails the intents that were never confirmed
func (s *Syncer) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	cancel, group := s.cancel, s.group
	s.mu.Unlock()

	var err error
	if cancel != nil {
		cancel()
		err = group.Wait()
	}
	s.store.close()

	s.logger.Info().Msg("Ledger sync stopped")
	return err
}

// pump keeps one collection subscribed until ctx ends
func (s *Syncer) pump(ctx context.Context, c domain.Collection) error {
	backoff := s.config.InitialBackoff
	for {
		received, err := s.follow(ctx, c)
		if ctx.Err() != nil {
			return nil
		}
		if received {
			backoff = s.config.InitialBackoff
		}

		s.store.ReportSyncError(c, err)
		s.logger.Warn().
			Err(err).
			Str("collection", string(c)).
			Dur("retry_in", backoff).
			Msg("Subscription failed")

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
		backoff = min(backoff*2, s.config.MaxBackoff)
	}
}

// follow consumes one subscription until it ends and reports whether any
// snapshot was delivered
func (s *Syncer) follow(ctx context.Context, c domain.Collection) (bool, error) {
	sub, err := s.remote.Subscribe(ctx, s.userID, c)
	if err != nil {
		return false, err
	}
	defer sub.Close()

	received := false
	for snap := range sub.Snapshots() {
		if snap.Collection == "" {
			snap.Collection = c
		}
		if snap.Collection != c {
			s.logger.Warn().
				Str("collection", string(c)).
				Str("got", string(snap.Collection)).
				Msg("Dropping snapshot for another collection")
			continue
		}
		if err := s.store.DispatchSnapshot(snap); err != nil {
			return received, err
		}
		received = true
	}

	if err := sub.Err(); err != nil {
		return received, err
	}
	return received, ErrSubscriptionEnded
}

// work performs queued mutations one at a time
func (s *Syncer) work(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case intent := <-s.queue:
			s.execute(ctx, intent)
		}
	}
}

func (s *Syncer) execute(ctx context.Context, intent *Intent) {
	callCtx, cancel := context.WithTimeout(ctx, s.config.MutationTimeout)
	defer cancel()

	m := intent.mutation
	var (
		result *domain.WriteResult
		err    error
	)
	switch m.Kind {
	case domain.MutationCreate:
		result, err = s.remote.Create(callCtx, s.userID, m.Entity)
	case domain.MutationUpdate:
		result, err = s.remote.Update(callCtx, s.userID, m.ID, m.Entity)
	case domain.MutationDelete:
		err = s.remote.Delete(callCtx, s.userID, m.Collection, m.ID)
	}

	if err != nil {
		if ctx.Err() != nil {
			// Close fails the intent with ErrSessionClosed
			return
		}
		s.logger.Error().
			Err(err).
			Str("intent_id", intent.id).
			Str("kind", string(m.Kind)).
			Str("collection", string(m.Collection)).
			Msg("Mutation failed")
		s.store.intentFailed(intent, err)
		return
	}

	if result == nil {
		result = &domain.WriteResult{}
	}
	if result.ID == "" {
		result.ID = m.ID
	}
	s.store.intentSubmitted(intent, result)
}
