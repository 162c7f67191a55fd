package session

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/BradenHooton/calcvault/internal/clock"
	"github.com/BradenHooton/calcvault/internal/gate"
	"github.com/BradenHooton/calcvault/internal/models"
	pkglogger "github.com/BradenHooton/calcvault/pkg/logger"
)

// Gate is the access control the session drives
type Gate interface {
	Verify(ctx context.Context, candidate string) models.Outcome
	Status(ctx context.Context) (gate.Status, error)
	Subscribe(l gate.LockoutListener)
}

// Config holds session timing and thresholds
type Config struct {
	SuccessDelay  time.Duration
	FailureDelay  time.Duration
	MaxViolations int
	IdleTimeout   time.Duration
}

// DefaultConfig returns the stock feedback delays and violation threshold
func DefaultConfig() Config {
	return Config{
		SuccessDelay:  500 * time.Millisecond,
		FailureDelay:  time.Second,
		MaxViolations: 3,
		IdleTimeout:   15 * time.Minute,
	}
}

// Snapshot is the externally visible state of a session. The entry buffer
// itself is never exposed, only how many digits it holds.
type Snapshot struct {
	ID               string  `json:"id"`
	Phase            Phase   `json:"phase"`
	Filled           int     `json:"filled"`
	Busy             bool    `json:"busy"`
	Message          Message `json:"message"`
	Violations       int     `json:"violations"`
	LockoutRemaining int     `json:"lockout_remaining"`
}

// Controller is the per-page-load state machine Hidden -> Entering -> Unlocked.
// It holds no persisted state; every teardown returns it to a fresh Hidden.
type Controller struct {
	id     string
	gate   Gate
	clock  clock.Clock
	cfg    Config
	logger *slog.Logger
	audit  *pkglogger.AuditLogger

	mu           sync.Mutex
	phase        Phase
	buffer       []byte
	busy         bool
	epoch        uint64
	message      Message
	violations   int
	lockedFor    int
	lockedDigits int
	lastActive   time.Time
}

// NewController creates a controller in the Hidden phase
func NewController(id string, g Gate, clk clock.Clock, cfg Config, logger *slog.Logger, audit *pkglogger.AuditLogger) *Controller {
	return &Controller{
		id:         id,
		gate:       g,
		clock:      clk,
		cfg:        cfg,
		logger:     logger,
		audit:      audit,
		buffer:     make([]byte, 0, gate.PINLength),
		lastActive: clk.Now(),
	}
}

// ID returns the session id
func (c *Controller) ID() string {
	return c.id
}

// Snapshot returns the current state
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// LastActive returns when the session last received input
func (c *Controller) LastActive() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActive
}

// Reveal handles the secret gesture: Hidden -> Entering
func (c *Controller) Reveal(ctx context.Context) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastActive = c.clock.Now()

	if c.phase != PhaseHidden {
		return c.snapshotLocked()
	}

	c.phase = PhaseEntering
	c.buffer = c.buffer[:0]
	c.lockedDigits = 0

	st, err := c.gate.Status(ctx)
	switch {
	case err != nil:
		c.logger.Error("failed to read lockout status", slog.String("session_id", c.id), slog.Any("error", err))
		c.lockedFor = 0
		c.message = storageErrorMessage()
	case st.Locked:
		c.lockedFor = st.RemainingSeconds
		c.message = accountLockedMessage(st.RemainingSeconds)
	default:
		c.lockedFor = 0
		c.message = promptMessage()
	}
	return c.snapshotLocked()
}

// Handle applies one keypad command. Commands outside the PIN screen are
// ignored, as is digit entry while a verification result is on screen.
func (c *Controller) Handle(ctx context.Context, cmd Command) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastActive = c.clock.Now()

	if c.phase != PhaseEntering {
		return c.snapshotLocked()
	}

	switch cmd.Kind {
	case CommandDigit:
		c.digitLocked(ctx, cmd.Digit)
	case CommandBackspace:
		if !c.busy && len(c.buffer) > 0 {
			c.buffer = c.buffer[:len(c.buffer)-1]
			c.clearPromptLocked()
		}
	case CommandClear:
		if !c.busy {
			c.buffer = c.buffer[:0]
			c.clearPromptLocked()
		}
	case CommandCancel:
		c.teardownLocked(ReasonCancel)
	case CommandSubmit:
		if !c.busy && len(c.buffer) == gate.PINLength {
			c.submitLocked(ctx)
		}
	}
	return c.snapshotLocked()
}

// Logout returns to the decoy from any phase
func (c *Controller) Logout() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastActive = c.clock.Now()

	c.teardownLocked(ReasonLogout)
	return c.snapshotLocked()
}

// Visibility reports the page being hidden or shown. Hiding an unlocked
// vault ends the session.
func (c *Controller) Visibility(hidden bool) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	if hidden && c.phase == PhaseUnlocked {
		c.teardownLocked(ReasonVisibility)
		c.message = tabSwitchMessage()
	}
	return c.snapshotLocked()
}

// Violation records a suspicious-activity signal such as a screenshot key
// combination. Signals only count while the vault is shown.
func (c *Controller) Violation(kind string) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != PhaseUnlocked {
		return c.snapshotLocked()
	}

	c.violations++
	c.audit.LogVaultAction(pkglogger.EventSecurityWarning, c.id, map[string]string{
		"signal":     kind,
		"violations": strconv.Itoa(c.violations),
	})

	if c.violations >= c.cfg.MaxViolations {
		c.teardownLocked(ReasonViolations)
		c.message = violationsMessage()
		return c.snapshotLocked()
	}
	c.message = securityWarning(c.violations)
	return c.snapshotLocked()
}

// End tears the session down without a user-facing message
func (c *Controller) End() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.teardownLocked(ReasonEnded)
}

// LockoutTick receives the gate countdown
func (c *Controller) LockoutTick(remaining int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lockedFor = remaining
	if c.phase == PhaseEntering {
		c.message = countdownMessage(remaining)
	}
}

// LockoutEnded receives the end of the gate countdown
func (c *Controller) LockoutEnded() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lockedFor = 0
	c.lockedDigits = 0
	// a result still on screen keeps its message until the pause ends
	if c.phase == PhaseEntering && !c.busy {
		c.buffer = c.buffer[:0]
		c.message = lockoutOverMessage()
	}
}

func (c *Controller) digitLocked(ctx context.Context, d byte) {
	if c.busy || d < '0' || d > '9' {
		return
	}

	if c.lockedFor > 0 {
		c.message = stillLockedMessage(c.lockedFor)
		c.lockedDigits++
		if c.lockedDigits >= gate.PINLength {
			c.teardownLocked(ReasonLockedEntry)
		}
		return
	}

	if len(c.buffer) < gate.PINLength {
		c.buffer = append(c.buffer, d)
		if len(c.buffer) == gate.PINLength {
			c.submitLocked(ctx)
		}
	}
}

// submitLocked verifies the buffer. The buffer is cleared before the result
// is handled, whatever the outcome.
func (c *Controller) submitLocked(ctx context.Context) {
	candidate := string(c.buffer)
	c.buffer = c.buffer[:0]

	out := c.gate.Verify(ctx, candidate)
	c.auditAttempt(out)

	switch {
	case out.Accepted:
		c.lockedFor = 0
		c.message = accessGrantedMessage()
		c.feedbackLocked(c.cfg.SuccessDelay, true)
	case out.Reason == models.ReasonWrongPin:
		c.message = wrongPinMessage(out.AttemptsUntilLockout)
		c.feedbackLocked(c.cfg.FailureDelay, false)
	case out.Reason == models.ReasonLockedOut && out.LockoutScheduled:
		c.lockedFor = out.LockoutSeconds
		c.message = lockoutScheduledMessage(out.LockoutSeconds)
		c.feedbackLocked(c.cfg.FailureDelay, false)
	case out.Reason == models.ReasonLockedOut:
		// locked by another session before our countdown caught up
		c.lockedFor = out.LockoutSeconds
		c.message = accountLockedMessage(out.LockoutSeconds)
	default:
		c.message = storageErrorMessage()
		c.feedbackLocked(c.cfg.FailureDelay, false)
	}
}

// feedbackLocked holds the result on screen for d. The pause cannot be cut
// short by input; a teardown makes it a no-op.
func (c *Controller) feedbackLocked(d time.Duration, accepted bool) {
	c.busy = true
	epoch := c.epoch
	c.clock.AfterFunc(d, func() {
		c.finishFeedback(epoch, accepted)
	})
}

func (c *Controller) finishFeedback(epoch uint64, accepted bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.epoch != epoch {
		return
	}
	c.busy = false
	c.buffer = c.buffer[:0]

	if accepted {
		c.phase = PhaseUnlocked
		c.violations = 0
		c.message = Message{}
		return
	}
	if c.lockedFor == 0 {
		c.message = Message{}
	}
}

// clearPromptLocked drops a stale result message once the buffer empties
func (c *Controller) clearPromptLocked() {
	if len(c.buffer) == 0 && c.lockedFor == 0 {
		c.message = Message{}
	}
}

func (c *Controller) teardownLocked(reason string) {
	if c.phase != PhaseHidden {
		c.audit.LogVaultAction(pkglogger.EventSessionTeardown, c.id, map[string]string{
			"reason": reason,
			"from":   c.phase.String(),
		})
	}

	c.epoch++
	c.phase = PhaseHidden
	c.buffer = c.buffer[:0]
	c.busy = false
	c.message = Message{}
	c.violations = 0
	c.lockedFor = 0
	c.lockedDigits = 0
}

func (c *Controller) auditAttempt(out models.Outcome) {
	event := pkglogger.AuditEvent{
		EventType: pkglogger.EventVaultUnlock,
		SessionID: c.id,
		Success:   out.Accepted,
	}
	if !out.Accepted {
		event.FailureReason = out.Reason.String()
	}
	c.audit.LogAccessAttempt(event)
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		ID:               c.id,
		Phase:            c.phase,
		Filled:           len(c.buffer),
		Busy:             c.busy,
		Message:          c.message,
		Violations:       c.violations,
		LockoutRemaining: c.lockedFor,
	}
}
