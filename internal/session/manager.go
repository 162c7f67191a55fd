package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/BradenHooton/calcvault/internal/clock"
	"github.com/BradenHooton/calcvault/internal/models"
	pkglogger "github.com/BradenHooton/calcvault/pkg/logger"
)

// Manager owns the live session controllers, one per page load, and fans
// gate countdown events out to them.
type Manager struct {
	gate   Gate
	clock  clock.Clock
	cfg    Config
	logger *slog.Logger
	audit  *pkglogger.AuditLogger

	mu       sync.RWMutex
	sessions map[string]*Controller
}

// NewManager creates a manager and subscribes it to the gate
func NewManager(g Gate, clk clock.Clock, cfg Config, logger *slog.Logger, audit *pkglogger.AuditLogger) *Manager {
	m := &Manager{
		gate:     g,
		clock:    clk,
		cfg:      cfg,
		logger:   logger,
		audit:    audit,
		sessions: make(map[string]*Controller),
	}
	g.Subscribe(m)
	return m
}

// Create starts a new session in the Hidden phase
func (m *Manager) Create() *Controller {
	id := uuid.New().String()
	c := NewController(id, m.gate, m.clock, m.cfg, m.logger, m.audit)

	m.mu.Lock()
	m.sessions[id] = c
	m.mu.Unlock()

	m.audit.LogVaultAction(pkglogger.EventSessionStart, id, nil)
	return c
}

// Get returns a live session
func (m *Manager) Get(id string) (*Controller, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.sessions[id]
	if !ok {
		return nil, models.ErrSessionNotFound
	}
	return c, nil
}

// End tears a session down and forgets it
func (m *Manager) End(id string) error {
	m.mu.Lock()
	c, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return models.ErrSessionNotFound
	}
	c.End()
	return nil
}

// Sweep ends sessions idle since before now minus the idle timeout and
// returns how many were removed
func (m *Manager) Sweep(now time.Time) int {
	cutoff := now.Add(-m.cfg.IdleTimeout)

	var idle []*Controller
	m.mu.Lock()
	for id, c := range m.sessions {
		if c.LastActive().Before(cutoff) {
			idle = append(idle, c)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, c := range idle {
		c.End()
	}
	return len(idle)
}

// Count returns the number of live sessions
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// LockoutTick forwards the gate countdown to every session
func (m *Manager) LockoutTick(remaining int) {
	for _, c := range m.snapshot() {
		c.LockoutTick(remaining)
	}
}

// LockoutEnded forwards the end of a lockout to every session
func (m *Manager) LockoutEnded() {
	for _, c := range m.snapshot() {
		c.LockoutEnded()
	}
}

func (m *Manager) snapshot() []*Controller {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Controller, 0, len(m.sessions))
	for _, c := range m.sessions {
		out = append(out, c)
	}
	return out
}
