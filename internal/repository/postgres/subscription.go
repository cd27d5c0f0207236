package postgres

import (
	"context"
	"sync"

	"github.com/codepinky/ruptura/ruptura-backend/internal/domain"
)

// subscription delivers a full snapshot of one user's collection initially
// and after every notification carrying that user's id. Notifications that
// arrive during a reload coalesce into one more reload.
type subscription struct {
	repo       *LedgerRepository
	table      *table
	collection domain.Collection
	userID     string

	snapshots chan domain.Snapshot
	wake      chan struct{}
	lost      chan error
	cancel    context.CancelFunc
	done      chan struct{}

	mu  sync.Mutex
	err error
}

func newSubscription(repo *LedgerRepository, t *table, c domain.Collection, userID string) *subscription {
	return &subscription{
		repo:       repo,
		table:      t,
		collection: c,
		userID:     userID,
		snapshots:  make(chan domain.Snapshot, 1),
		wake:       make(chan struct{}, 1),
		lost:       make(chan error, 1),
		done:       make(chan struct{}),
	}
}

func (s *subscription) Snapshots() <-chan domain.Snapshot { return s.snapshots }

// Err reports why the subscription ended; nil after Close or cancellation
func (s *subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close stops the subscription and waits for its loop to exit
func (s *subscription) Close() error {
	s.cancel()
	<-s.done
	return nil
}

func (s *subscription) notify() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *subscription) disconnect(err error) {
	select {
	case s.lost <- err:
	default:
	}
}

func (s *subscription) run(ctx context.Context) {
	defer close(s.done)
	defer close(s.snapshots)
	defer s.repo.listener.unregister(s)

	if err := s.reload(ctx); err != nil {
		s.fail(ctx, err)
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case err := <-s.lost:
			s.fail(ctx, err)
			return
		case <-s.wake:
			if err := s.reload(ctx); err != nil {
				s.fail(ctx, err)
				return
			}
		}
	}
}

func (s *subscription) reload(ctx context.Context) error {
	entities, err := s.repo.List(ctx, s.userID, s.collection)
	if err != nil {
		return err
	}

	snap := domain.NewSnapshot(s.collection, entities)
	select {
	case s.snapshots <- snap:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *subscription) fail(ctx context.Context, err error) {
	if ctx.Err() != nil {
		return
	}
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()

	s.repo.logger.Warn().
		Err(err).
		Str("collection", string(s.collection)).
		Str("user_id", s.userID).
		Msg("Subscription ended")
}
