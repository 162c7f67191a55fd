package background

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/BradenHooton/calcvault/internal/clock"
)

// Sweeper removes sessions idle past their deadline
type Sweeper interface {
	Sweep(now time.Time) int
}

// SessionSweeper periodically ends abandoned page-load sessions so their
// controllers stop receiving lockout ticks
type SessionSweeper struct {
	sessions Sweeper
	clock    clock.Clock
	logger   *slog.Logger
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewSessionSweeper creates a new session sweeper
func NewSessionSweeper(sessions Sweeper, clk clock.Clock, logger *slog.Logger, interval time.Duration) *SessionSweeper {
	return &SessionSweeper{
		sessions: sessions,
		clock:    clk,
		logger:   logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start runs the sweep loop until Stop is called or ctx is cancelled
func (s *SessionSweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.RunOnce()
		case <-s.stopCh:
			s.logger.Info("session sweeper stopped")
			return
		case <-ctx.Done():
			s.logger.Info("session sweeper context cancelled")
			return
		}
	}
}

// RunOnce performs a single sweep and returns how many sessions ended
func (s *SessionSweeper) RunOnce() int {
	swept := s.sessions.Sweep(s.clock.Now())
	if swept > 0 {
		s.logger.Info("idle sessions swept", slog.Int("sessions", swept))
	}
	return swept
}

// Stop signals the sweeper to stop
func (s *SessionSweeper) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}
