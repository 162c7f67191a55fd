package gate

import (
	"context"
	"sync"
	"time"

	"github.com/BradenHooton/calcvault/internal/clock"
)

// Countdown is a cancellable one-second ticker over a remaining-seconds
// value. Starting a new countdown cancels the running one, so at most one
// is ever active.
type Countdown struct {
	clock  clock.Clock
	onTick func(remaining int)
	onDone func()

	mu        sync.Mutex
	cancel    context.CancelFunc
	timer     clock.Timer
	remaining int
}

// NewCountdown creates an idle countdown. onTick receives the remaining
// seconds after each decrement; onDone runs once when it reaches zero.
// Neither is called while the countdown's lock is held.
func NewCountdown(clk clock.Clock, onTick func(remaining int), onDone func()) *Countdown {
	return &Countdown{
		clock:  clk,
		onTick: onTick,
		onDone: onDone,
	}
}

// Start (re)starts the countdown from seconds
func (c *Countdown) Start(seconds int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopLocked()
	if seconds <= 0 {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.remaining = seconds
	c.timer = c.clock.AfterFunc(time.Second, func() { c.tick(ctx) })
}

// Stop cancels the running countdown, if any
func (c *Countdown) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

// Running reports whether a countdown is active
func (c *Countdown) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancel != nil
}

// Remaining returns the seconds left on the active countdown, or 0
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

func (c *Countdown) stopLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.remaining = 0
}

func (c *Countdown) tick(ctx context.Context) {
	c.mu.Lock()
	// a timer that already fired cannot be stopped; the token catches it
	if ctx.Err() != nil {
		c.mu.Unlock()
		return
	}

	c.remaining--
	remaining := c.remaining
	if remaining <= 0 {
		c.stopLocked()
		c.mu.Unlock()
		if c.onDone != nil {
			c.onDone()
		}
		return
	}

	c.timer = c.clock.AfterFunc(time.Second, func() { c.tick(ctx) })
	c.mu.Unlock()

	if c.onTick != nil {
		c.onTick(remaining)
	}
}
