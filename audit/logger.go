// Package audit provides audit logging for report and matching operations.
// Events carry opaque record IDs and operation outcomes only; perpetrator
// identifiers, derived keys, and report plaintext never enter an event.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ARONDALTON/callisto-core/types"
)

const (
	// Event types
	EventTypeReportEncrypt  = "report.encrypt"
	EventTypeReportDecrypt  = "report.decrypt"
	EventTypeReportWithdraw = "report.withdraw"
	EventTypeMatchSubmit    = "match.submit"
	EventTypeMatchScan      = "match.scan"

	// Operations
	OperationEncrypt  = "encrypt"
	OperationDecrypt  = "decrypt"
	OperationSubmit   = "submit"
	OperationScan     = "scan"
	OperationWithdraw = "withdraw"

	// Statuses
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// StdoutAuditLogger implements the AuditLogger interface writing to stdout
type StdoutAuditLogger struct{}

// NewStdoutAuditLogger creates a new stdout audit logger
func NewStdoutAuditLogger() *StdoutAuditLogger {
	return &StdoutAuditLogger{}
}

// Printf implements the required Printf method from the interfaces.AuditLogger interface
func (l *StdoutAuditLogger) Printf(format string, v ...interface{}) {
	fmt.Printf(format, v...)
}

// LogEvent logs an audit event to stdout with essential context information
func (l *StdoutAuditLogger) LogEvent(ctx context.Context, event *types.AuditEvent) error {
	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}

	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.Context == nil {
		event.Context = make(map[string]string)
	}

	logEvent := log.Debug().
		Str("auditId", event.ID).
		Time("timestamp", event.Timestamp).
		Str("eventType", event.EventType).
		Str("operation", event.Operation).
		Str("status", event.Status).
		Int("iterations", event.Iterations)

	if recordID := event.Context[string(KeyRecordID)]; recordID != "" {
		logEvent = logEvent.Str("recordId", recordID)
	}
	if ownerID := event.Context[string(KeyOwnerID)]; ownerID != "" {
		logEvent = logEvent.Str("ownerId", ownerID)
	}
	if scanID := event.Context[string(KeyScanID)]; scanID != "" {
		logEvent = logEvent.Str("scanId", scanID)
	}
	if autosave := event.Context[string(KeyAutosave)]; autosave != "" {
		logEvent = logEvent.Str("autosave", autosave)
	}
	if err := event.Context[string(KeyError)]; err != "" {
		logEvent = logEvent.Str("error", err)
	}
	if operation := event.Context[string(KeyOperation)]; operation != "" {
		logEvent = logEvent.Str("operation", operation)
	}

	logEvent.Msg("Audit event")
	return nil
}

// GetEvents returns events matching the filter (not implemented for stdout logger)
func (l *StdoutAuditLogger) GetEvents(ctx context.Context, filter map[string]interface{}) ([]*types.AuditEvent, error) {
	return nil, fmt.Errorf("getting events not supported for stdout logger")
}

// WithRecordID adds the report record ID to the context
func WithRecordID(ctx context.Context, recordID string) context.Context {
	return context.WithValue(ctx, KeyRecordID, recordID)
}

// WithOwner adds the owning user ID to the context
func WithOwner(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, KeyOwnerID, ownerID)
}

// WithScanID adds the matching scan ID to the context
func WithScanID(ctx context.Context, scanID string) context.Context {
	return context.WithValue(ctx, KeyScanID, scanID)
}

// WithOperation adds operation information to the context
func WithOperation(ctx context.Context, operation string) context.Context {
	return context.WithValue(ctx, KeyOperation, operation)
}

// NewAuditEvent creates a new audit event with essential fields
func NewAuditEvent(eventType, operation string, iterations int) *types.AuditEvent {
	return &types.AuditEvent{
		ID:         uuid.New().String(),
		Timestamp:  time.Now().UTC(),
		EventType:  eventType,
		Operation:  operation,
		Status:     StatusSuccess,
		Iterations: iterations,
		Context:    make(map[string]string),
	}
}
