package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/codepinky/ruptura/ruptura-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// LedgerRepository implements domain.RemoteStore using PostgreSQL. Changes
// are observed through LISTEN/NOTIFY on one channel per table, shared by all
// subscriptions over a single connection.
type LedgerRepository struct {
	pool     *pgxpool.Pool
	logger   zerolog.Logger
	listener *listener
}

// Ensure LedgerRepository implements domain.RemoteStore
var _ domain.RemoteStore = (*LedgerRepository)(nil)

// NewLedgerRepository creates a new LedgerRepository
func NewLedgerRepository(pool *pgxpool.Pool, logger zerolog.Logger) *LedgerRepository {
	logger = logger.With().Str("component", "ledger_repo").Logger()
	return &LedgerRepository{
		pool:     pool,
		logger:   logger,
		listener: newListener(pool, logger),
	}
}

// Close stops the shared LISTEN connection. Open subscriptions end with
// ErrListenerClosed.
func (r *LedgerRepository) Close() {
	r.listener.close()
}

// Subscribe listens for changes to one of the user's collections. The first
// snapshot is the current content; every change is followed by a full reload.
func (r *LedgerRepository) Subscribe(ctx context.Context, userID string, c domain.Collection) (domain.Subscription, error) {
	t, err := tableFor(c)
	if err != nil {
		return nil, err
	}

	sub := newSubscription(r, t, c, userID)
	if err := r.listener.subscribe(ctx, sub); err != nil {
		return nil, err
	}

	subCtx, cancel := context.WithCancel(ctx)
	sub.cancel = cancel
	go sub.run(subCtx)
	return sub, nil
}

// List loads one collection of a user in display order
func (r *LedgerRepository) List(ctx context.Context, userID string, c domain.Collection) ([]domain.Entity, error) {
	t, err := tableFor(c)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, t.selectSQL, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entities := make([]domain.Entity, 0)
	for rows.Next() {
		e, err := t.scan(rows)
		if err != nil {
			return nil, err
		}
		entities = append(entities, e)
	}
	return entities, rows.Err()
}

// Create inserts an entity and returns its new id
func (r *LedgerRepository) Create(ctx context.Context, userID string, entity domain.Entity) (*domain.WriteResult, error) {
	entity = deref(entity)
	t, err := tableFor(entity.Collection())
	if err != nil {
		return nil, err
	}
	values, err := t.values(entity)
	if err != nil {
		return nil, err
	}

	var (
		id        string
		updatedAt time.Time
	)
	args := append([]any{userID}, values...)
	if err := r.pool.QueryRow(ctx, t.insertSQL, args...).Scan(&id, &updatedAt); err != nil {
		return nil, err
	}
	return &domain.WriteResult{ID: id, UpdatedAt: updatedAt.UTC()}, nil
}

// Update overwrites an existing entity
func (r *LedgerRepository) Update(ctx context.Context, userID string, id string, entity domain.Entity) (*domain.WriteResult, error) {
	entity = deref(entity)
	t, err := tableFor(entity.Collection())
	if err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.NotFoundError(entity.Collection())
	}
	values, err := t.values(entity)
	if err != nil {
		return nil, err
	}

	var updatedAt time.Time
	args := append([]any{id, userID}, values...)
	if err := r.pool.QueryRow(ctx, t.updateSQL, args...).Scan(&updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFoundError(entity.Collection())
		}
		return nil, err
	}
	return &domain.WriteResult{ID: id, UpdatedAt: updatedAt.UTC()}, nil
}

// Delete removes an entity
func (r *LedgerRepository) Delete(ctx context.Context, userID string, c domain.Collection, id string) error {
	t, err := tableFor(c)
	if err != nil {
		return err
	}
	if _, err := uuid.Parse(id); err != nil {
		return domain.NotFoundError(c)
	}

	tag, err := r.pool.Exec(ctx, t.deleteSQL, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFoundError(c)
	}
	return nil
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
