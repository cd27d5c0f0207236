package postgres

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// ErrListenerClosed ends subscriptions when the repository shuts down
var ErrListenerClosed = errors.New("ledger listener closed")

const closeTimeout = 2 * time.Second

type routeKey struct {
	channel string
	userID  string
}

// listener owns the repository's single LISTEN connection. Notifications are
// routed to subscriptions by channel and user id, so open subscriptions hold
// no pool connection between reloads.
type listener struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger

	mu      sync.Mutex
	routes  map[routeKey]map[*subscription]struct{}
	running bool
	closed  bool
	cancel  context.CancelFunc
	done    chan struct{}
}

func newListener(pool *pgxpool.Pool, logger zerolog.Logger) *listener {
	return &listener{
		pool:   pool,
		logger: logger,
		routes: make(map[routeKey]map[*subscription]struct{}),
	}
}

// subscribe registers s, starting the LISTEN connection first if it is down.
// Registration happens before s loads anything, so no change can slip in
// between the first snapshot and the first notification.
func (l *listener) subscribe(ctx context.Context, s *subscription) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return ErrListenerClosed
	}
	if !l.running {
		if err := l.start(ctx); err != nil {
			return err
		}
	}
	l.register(s)
	return nil
}

// start must be called with mu held
func (l *listener) start(ctx context.Context) error {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire listen connection: %w", err)
	}
	for _, t := range tables {
		if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{t.channel()}.Sanitize()); err != nil {
			discard(conn)
			return fmt.Errorf("listen %s: %w", t.channel(), err)
		}
	}

	runCtx, cancel := context.WithCancel(context.Background())
	l.running = true
	l.cancel = cancel
	l.done = make(chan struct{})
	go l.run(runCtx, conn, l.done)

	l.logger.Debug().Int("channels", len(tables)).Msg("Listening for ledger changes")
	return nil
}

func (l *listener) run(ctx context.Context, conn *pgxpool.Conn, done chan struct{}) {
	defer close(done)

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			// never hand a listening connection back to the pool
			discard(conn)
			if ctx.Err() != nil {
				err = ErrListenerClosed
			} else {
				l.logger.Warn().Err(err).Msg("Listen connection lost")
			}
			l.drop(err)
			return
		}
		l.dispatch(n.Channel, n.Payload)
	}
}

func (l *listener) register(s *subscription) {
	key := routeKey{channel: s.table.channel(), userID: s.userID}
	subs, ok := l.routes[key]
	if !ok {
		subs = make(map[*subscription]struct{})
		l.routes[key] = subs
	}
	subs[s] = struct{}{}
}

func (l *listener) unregister(s *subscription) {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := routeKey{channel: s.table.channel(), userID: s.userID}
	if subs, ok := l.routes[key]; ok {
		delete(subs, s)
		if len(subs) == 0 {
			delete(l.routes, key)
		}
	}
}

// dispatch wakes every subscription of the notified user on channel
func (l *listener) dispatch(channel, userID string) {
	l.mu.Lock()
	subs := make([]*subscription, 0, len(l.routes[routeKey{channel, userID}]))
	for s := range l.routes[routeKey{channel, userID}] {
		subs = append(subs, s)
	}
	l.mu.Unlock()

	for _, s := range subs {
		s.notify()
	}
}

// drop marks the connection down and ends every registered subscription
// with err. Subscribers re-subscribe, which starts a new connection.
func (l *listener) drop(err error) {
	l.mu.Lock()
	routes := l.routes
	l.routes = make(map[routeKey]map[*subscription]struct{})
	l.running = false
	l.mu.Unlock()

	for _, subs := range routes {
		for s := range subs {
			s.disconnect(err)
		}
	}
}

// size returns the number of registered subscriptions
func (l *listener) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, subs := range l.routes {
		n += len(subs)
	}
	return n
}

// close stops the LISTEN connection and rejects further subscriptions
func (l *listener) close() {
	l.mu.Lock()
	l.closed = true
	running, cancel, done := l.running, l.cancel, l.done
	l.mu.Unlock()

	if running {
		cancel()
		<-done
	}
}

func discard(conn *pgxpool.Conn) {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	_ = conn.Conn().Close(ctx)
	conn.Release()
}
