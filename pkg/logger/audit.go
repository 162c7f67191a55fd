package logger

import (
	"context"
	"log/slog"
	"sort"
	"time"
)

// Audit event types
const (
	EventVaultUnlock      = "vault_unlock"
	EventLockoutScheduled = "lockout_scheduled"
	EventLockoutExpired   = "lockout_expired"
	EventPinChange        = "pin_change"
	EventSessionStart     = "session_start"
	EventSessionTeardown  = "session_teardown"
	EventSecurityWarning  = "security_warning"
	EventLinkAdded        = "link_added"
	EventLinkRemoved      = "link_removed"
	EventLinksCleared     = "links_cleared"
)

// AuditEvent is one vault access attempt
type AuditEvent struct {
	EventType     string
	SessionID     string
	IPAddress     string
	UserAgent     string
	Success       bool
	FailureReason string
	Metadata      map[string]string
}

// AuditLogger writes audit records to a dedicated "audit" message so they
// can be filtered out of the regular request log. PIN candidates and link
// URLs must never be passed in.
type AuditLogger struct {
	logger *slog.Logger
}

func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return &AuditLogger{logger: logger}
}

// entry accumulates attributes for a single audit record
type entry struct {
	attrs []slog.Attr
}

func newEntry(auditType, eventType string) *entry {
	return &entry{attrs: []slog.Attr{
		slog.String("audit_type", auditType),
		slog.String("event_type", eventType),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}}
}

// opt adds key only when val is set
func (e *entry) opt(key, val string) *entry {
	if val != "" {
		e.attrs = append(e.attrs, slog.String(key, val))
	}
	return e
}

// meta flattens metadata in key order so records diff cleanly
func (e *entry) meta(m map[string]string) *entry {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		e.attrs = append(e.attrs, slog.String(k, m[k]))
	}
	return e
}

// outcome records success and picks the level: failures are warnings
func (e *entry) outcome(success bool) slog.Level {
	e.attrs = append(e.attrs, slog.Bool("success", success))
	if success {
		return slog.LevelInfo
	}
	return slog.LevelWarn
}

func (al *AuditLogger) emit(level slog.Level, e *entry) {
	al.logger.LogAttrs(context.Background(), level, "audit", e.attrs...)
}

// LogAccessAttempt records an unlock attempt
func (al *AuditLogger) LogAccessAttempt(event AuditEvent) {
	e := newEntry("access", event.EventType).
		opt("session_id", event.SessionID).
		opt("ip_address", event.IPAddress).
		opt("user_agent", event.UserAgent).
		opt("failure_reason", event.FailureReason).
		meta(event.Metadata)
	al.emit(e.outcome(event.Success), e)
}

// LogPinChange records a credential change from the admin API or vaultctl
func (al *AuditLogger) LogPinChange(source string, success bool, failureReason string) {
	e := newEntry("credential", EventPinChange).
		opt("ip_address", source).
		opt("failure_reason", failureReason)
	al.emit(e.outcome(success), e)
}

// LogVaultAction records lockout, session and content events
func (al *AuditLogger) LogVaultAction(eventType, sessionID string, metadata map[string]string) {
	e := newEntry("vault", eventType).
		opt("session_id", sessionID).
		meta(metadata)
	al.emit(slog.LevelInfo, e)
}
