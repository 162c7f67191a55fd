package gate

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/BradenHooton/calcvault/internal/clock"
	"github.com/BradenHooton/calcvault/internal/models"
	pkglogger "github.com/BradenHooton/calcvault/pkg/logger"
)

// DefaultPIN is accepted while no credential has been stored
const DefaultPIN = "1234"

// Store is the persistence the gate needs. Apply must be atomic.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Apply(ctx context.Context, m *models.Mutation) error
}

// LockoutListener is notified as a lockout countdown progresses
type LockoutListener interface {
	LockoutTick(remaining int)
	LockoutEnded()
}

// Config holds gate settings
type Config struct {
	DefaultPIN string
}

// Status is a read-only view of the gate
type Status struct {
	Locked               bool `json:"locked"`
	RemainingSeconds     int  `json:"remaining_seconds"`
	WrongAttempts        int  `json:"wrong_attempts"`
	AttemptsUntilLockout int  `json:"attempts_until_lockout"`
	DefaultPIN           bool `json:"default_pin"`
}

// Gate verifies PINs against the stored credential and enforces the
// lockout escalation. All state lives in the store; operations are
// serialized so verifications are handled one at a time.
type Gate struct {
	store       Store
	clock       clock.Clock
	logger      *slog.Logger
	audit       *pkglogger.AuditLogger
	defaultHash string

	mu        sync.Mutex
	countdown *Countdown

	listenersMu sync.RWMutex
	listeners   []LockoutListener
}

// New creates a gate over store
func New(store Store, cfg Config, clk clock.Clock, logger *slog.Logger, audit *pkglogger.AuditLogger) *Gate {
	defaultPIN := cfg.DefaultPIN
	if defaultPIN == "" {
		defaultPIN = DefaultPIN
	}

	g := &Gate{
		store:       store,
		clock:       clk,
		logger:      logger,
		audit:       audit,
		defaultHash: Checksum(defaultPIN),
	}
	g.countdown = NewCountdown(clk, g.notifyTick, g.lockoutEnded)
	return g
}

// Subscribe registers a listener for countdown ticks and lockout expiry
func (g *Gate) Subscribe(l LockoutListener) {
	g.listenersMu.Lock()
	defer g.listenersMu.Unlock()
	g.listeners = append(g.listeners, l)
}

// Resume restarts the countdown for a lockout persisted before startup
func (g *Gate) Resume(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.clock.Now()
	deadline, locked, err := g.activeLockout(ctx, now)
	if err != nil {
		return err
	}
	if locked {
		g.ensureCountdown(remainingSeconds(deadline, now))
	}
	return nil
}

// Verify checks candidate against the stored credential. An active lockout
// rejects without comparing the candidate or consuming an attempt.
func (g *Gate) Verify(ctx context.Context, candidate string) models.Outcome {
	if !ValidPIN(candidate) {
		return models.Reject(models.ReasonMalformedInput)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.clock.Now()
	deadline, locked, err := g.activeLockout(ctx, now)
	if err != nil {
		return g.storageFailure("verify", err)
	}
	if locked {
		secs := remainingSeconds(deadline, now)
		g.ensureCountdown(secs)
		return models.RejectLockedOut(secs)
	}

	hash, err := g.credential(ctx)
	if err != nil {
		return g.storageFailure("verify", err)
	}

	if Checksum(candidate) == hash {
		m := models.NewMutation().Remove(models.KeyWrongAttempts, models.KeyLockoutUntil)
		if err := g.store.Apply(ctx, m); err != nil {
			return g.storageFailure("verify", err)
		}
		if g.countdown.Running() {
			g.countdown.Stop()
			// The verifying session holds its own lock while in Verify, so
			// the other sessions hear about it from a timer instead.
			g.clock.AfterFunc(0, g.notifyEnded)
		}
		return models.Accept()
	}

	attempts, err := g.wrongAttempts(ctx)
	if err != nil {
		return g.storageFailure("verify", err)
	}
	attempts++

	m := models.NewMutation().Put(models.KeyWrongAttempts, strconv.Itoa(attempts))
	lockout := LockoutDuration(attempts)
	if lockout > 0 {
		until := now.Add(lockout)
		m.Put(models.KeyLockoutUntil, strconv.FormatInt(until.UnixMilli(), 10))
	}
	if err := g.store.Apply(ctx, m); err != nil {
		return g.storageFailure("verify", err)
	}

	if lockout == 0 {
		return models.RejectWrongPin(AttemptsUntilLockout(attempts))
	}

	secs := int(lockout / time.Second)
	g.countdown.Start(secs)
	g.audit.LogVaultAction(pkglogger.EventLockoutScheduled, "", map[string]string{
		"wrong_attempts":  strconv.Itoa(attempts),
		"lockout_seconds": strconv.Itoa(secs),
	})
	return models.RejectLockoutScheduled(secs)
}

// ChangeCredential replaces the credential when current matches it.
// The comparison is not throttled and does not touch the attempt counter.
// On success the attempt counter and any lockout are cleared.
func (g *Gate) ChangeCredential(ctx context.Context, current, next string) models.Outcome {
	if !ValidPIN(current) || !ValidPIN(next) {
		return models.Reject(models.ReasonMalformedInput)
	}
	if current == next {
		return models.Reject(models.ReasonSamePin)
	}

	g.mu.Lock()

	hash, err := g.credential(ctx)
	if err != nil {
		g.mu.Unlock()
		return g.storageFailure("change_credential", err)
	}
	if Checksum(current) != hash {
		g.mu.Unlock()
		return models.Reject(models.ReasonWrongPin)
	}

	m := models.NewMutation().
		Put(models.KeyPinHash, Checksum(next)).
		Remove(models.KeyWrongAttempts, models.KeyLockoutUntil)
	if err := g.store.Apply(ctx, m); err != nil {
		g.mu.Unlock()
		return g.storageFailure("change_credential", err)
	}

	wasCounting := g.countdown.Running()
	g.countdown.Stop()
	g.mu.Unlock()

	if wasCounting {
		g.notifyEnded()
	}
	return models.Accept()
}

// Status reports the lockout state, applying lazy expiry
func (g *Gate) Status(ctx context.Context) (Status, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.clock.Now()
	deadline, locked, err := g.activeLockout(ctx, now)
	if err != nil {
		return Status{}, err
	}
	attempts, err := g.wrongAttempts(ctx)
	if err != nil {
		return Status{}, err
	}
	hash, err := g.credential(ctx)
	if err != nil {
		return Status{}, err
	}

	st := Status{
		Locked:               locked,
		WrongAttempts:        attempts,
		AttemptsUntilLockout: AttemptsUntilLockout(attempts),
		DefaultPIN:           hash == g.defaultHash,
	}
	if locked {
		st.RemainingSeconds = remainingSeconds(deadline, now)
		g.ensureCountdown(st.RemainingSeconds)
	}
	return st, nil
}

// credential returns the stored checksum, or the default PIN's checksum
func (g *Gate) credential(ctx context.Context) (string, error) {
	hash, found, err := g.store.Get(ctx, models.KeyPinHash)
	if err != nil {
		return "", fmt.Errorf("read credential: %w", err)
	}
	if !found || hash == "" {
		return g.defaultHash, nil
	}
	return hash, nil
}

func (g *Gate) wrongAttempts(ctx context.Context) (int, error) {
	raw, found, err := g.store.Get(ctx, models.KeyWrongAttempts)
	if err != nil {
		return 0, fmt.Errorf("read wrong attempts: %w", err)
	}
	if !found {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		g.logger.Warn("ignoring corrupt wrong-attempt count", slog.String("value", raw))
		return 0, nil
	}
	return n, nil
}

// activeLockout returns the lockout deadline if one is still in the future.
// An expired or unreadable window is deleted; if the delete fails it is
// treated as absent anyway.
func (g *Gate) activeLockout(ctx context.Context, now time.Time) (time.Time, bool, error) {
	raw, found, err := g.store.Get(ctx, models.KeyLockoutUntil)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("read lockout: %w", err)
	}
	if !found {
		return time.Time{}, false, nil
	}

	ms, err := strconv.ParseInt(raw, 10, 64)
	if err == nil {
		deadline := time.UnixMilli(ms)
		if deadline.After(now) {
			return deadline, true, nil
		}
	} else {
		g.logger.Warn("discarding corrupt lockout deadline", slog.String("value", raw))
	}

	if err := g.store.Apply(ctx, models.NewMutation().Remove(models.KeyLockoutUntil)); err != nil {
		g.logger.Warn("failed to clear expired lockout", slog.Any("error", err))
	}
	return time.Time{}, false, nil
}

// ensureCountdown starts the countdown unless one is already running.
// Caller holds g.mu.
func (g *Gate) ensureCountdown(secs int) {
	if !g.countdown.Running() {
		g.countdown.Start(secs)
	}
}

func (g *Gate) storageFailure(op string, err error) models.Outcome {
	g.logger.Error("gate storage failure", slog.String("op", op), slog.Any("error", err))
	return models.RejectStorage(err)
}

// lockoutEnded runs when the countdown reaches zero
func (g *Gate) lockoutEnded() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	g.mu.Lock()
	now := g.clock.Now()
	deadline, locked, err := g.activeLockout(ctx, now)
	if err != nil {
		g.logger.Warn("lockout expiry check failed", slog.Any("error", err))
	} else if locked {
		// the stored deadline moved, keep counting
		g.countdown.Start(remainingSeconds(deadline, now))
		g.mu.Unlock()
		return
	}
	g.mu.Unlock()

	g.audit.LogVaultAction(pkglogger.EventLockoutExpired, "", nil)
	g.notifyEnded()
}

func (g *Gate) snapshotListeners() []LockoutListener {
	g.listenersMu.RLock()
	defer g.listenersMu.RUnlock()
	return append([]LockoutListener(nil), g.listeners...)
}

func (g *Gate) notifyTick(remaining int) {
	for _, l := range g.snapshotListeners() {
		l.LockoutTick(remaining)
	}
}

func (g *Gate) notifyEnded() {
	for _, l := range g.snapshotListeners() {
		l.LockoutEnded()
	}
}
