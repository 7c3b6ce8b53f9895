// Package observability keeps the audit trail of session and alert events.
// Entries are JSON lines appended to a file in the data directory.
package observability

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Audit event types
const (
	TypeSession = "session"
	TypeAlert   = "alert"
)

// AuditEvent represents a structured event for the audit log
type AuditEvent struct {
	Type      string                 `json:"eventType"`
	Timestamp time.Time              `json:"timestamp"`
	Actor     string                 `json:"actor,omitempty"`  // session ID
	Action    string                 `json:"action"`           // e.g. "session_added", "alert_delivered"
	Status    string                 `json:"status,omitempty"` // "success", "skipped", "error"
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	TraceID   string                 `json:"traceId,omitempty"`
}

// AuditLogger handles recording and persisting audit events
type AuditLogger struct {
	logger zerolog.Logger
	mu     sync.Mutex
	file   *os.File
}

var (
	auditMu   sync.RWMutex
	auditInst = &AuditLogger{logger: zerolog.New(io.Discard)}
)

// GetAuditLogger returns the global audit logger. Until InitAuditLogger is
// called events are discarded.
func GetAuditLogger() *AuditLogger {
	auditMu.RLock()
	defer auditMu.RUnlock()
	return auditInst
}

// InitAuditLogger points the global audit logger at path
func InitAuditLogger(path string) error {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	auditMu.Lock()
	prev := auditInst
	auditInst = &AuditLogger{
		logger: zerolog.New(file).With().Timestamp().Logger(),
		file:   file,
	}
	auditMu.Unlock()

	return prev.Close()
}

// CloseAuditLogger closes the audit file and reverts to discarding
func CloseAuditLogger() error {
	auditMu.Lock()
	prev := auditInst
	auditInst = &AuditLogger{logger: zerolog.New(io.Discard)}
	auditMu.Unlock()

	return prev.Close()
}

// Record emits an audit event to the log file and to the active span
func (a *AuditLogger) Record(ctx context.Context, event AuditEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		event.TraceID = span.SpanContext().TraceID().String()

		span.AddEvent(event.Action, trace.WithAttributes(
			attribute.String("audit.type", event.Type),
			attribute.String("audit.status", event.Status),
			attribute.String("audit.actor", event.Actor),
		))
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	entry := a.logger.Log().
		Str("eventType", event.Type).
		Str("actor", event.Actor).
		Str("action", event.Action)

	if event.Status != "" {
		entry.Str("status", event.Status)
	}
	if event.TraceID != "" {
		entry.Str("traceId", event.TraceID)
	}
	if event.Metadata != nil {
		entry.Interface("metadata", event.Metadata)
	}

	entry.Msg("")
}

// Close closes the audit logger's file handle
func (a *AuditLogger) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.file == nil {
		return nil
	}
	err := a.file.Close()
	a.file = nil
	a.logger = zerolog.New(io.Discard)
	return err
}

// RecordSessionAudit records a change to the session collection
func RecordSessionAudit(ctx context.Context, action, sessionID string, metadata map[string]interface{}) {
	GetAuditLogger().Record(ctx, AuditEvent{
		Type:     TypeSession,
		Actor:    sessionID,
		Action:   action,
		Status:   "success",
		Metadata: metadata,
	})
}

// RecordAlertAudit records one channel delivery attempt
func RecordAlertAudit(ctx context.Context, sessionID, channel, status string) {
	GetAuditLogger().Record(ctx, AuditEvent{
		Type:     TypeAlert,
		Actor:    sessionID,
		Action:   "alert_delivered",
		Status:   status,
		Metadata: map[string]interface{}{"channel": channel},
	})
}
