package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Reaper is a background worker that periodically closes idle sessions
type Reaper struct {
	manager  *SessionManager
	logger   zerolog.Logger
	interval time.Duration
	now      func() time.Time
	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
	mu       sync.Mutex
	running  bool
}

// ReaperConfig holds configuration for the reaper
type ReaperConfig struct {
	Interval time.Duration // How often to look for idle sessions
}

// DefaultReaperConfig returns sensible defaults
func DefaultReaperConfig() ReaperConfig {
	return ReaperConfig{
		Interval: 1 * time.Minute,
	}
}

// NewReaper creates a new idle-session reaper
func NewReaper(manager *SessionManager, logger zerolog.Logger, config ReaperConfig) *Reaper {
	if config.Interval <= 0 {
		config.Interval = DefaultReaperConfig().Interval
	}

	return &Reaper{
		manager:  manager,
		logger:   logger.With().Str("component", "session_reaper").Logger(),
		interval: config.Interval,
		now:      time.Now,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background sweep
func (r *Reaper) Start(ctx context.Context) {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return
	}
	r.running = true
	r.mu.Unlock()

	r.logger.Info().
		Dur("interval", r.interval).
		Dur("idle_ttl", r.manager.config.IdleTTL).
		Msg("Starting session reaper")

	go r.run(ctx)
}

// Stop gracefully stops the reaper
func (r *Reaper) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()

	r.stopOnce.Do(func() {
		r.logger.Info().Msg("Stopping session reaper")
		close(r.stopCh)
	})
	<-r.doneCh
	r.logger.Info().Msg("Session reaper stopped")
}

func (r *Reaper) run(ctx context.Context) {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.setStopped()
			return
		case <-r.stopCh:
			r.setStopped()
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// Sweep closes idle sessions once
func (r *Reaper) Sweep() int {
	closed := r.manager.CloseIdle(r.now())
	if closed > 0 {
		r.logger.Info().
			Int("closed", closed).
			Int("remaining", r.manager.Count()).
			Msg("Closed idle sessions")
	}
	return closed
}

func (r *Reaper) setStopped() {
	r.mu.Lock()
	r.running = false
	r.mu.Unlock()
}

// IsRunning returns whether the reaper is currently running
func (r *Reaper) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}
