// Package interfaces defines all service interfaces for the module.
// IMPORTANT: This is the single source of truth for service interfaces.
// Do not define interfaces in other files.
package interfaces

import (
	"context"
	"time"

	wrapping "github.com/hashicorp/go-kms-wrapping/v2"

	"github.com/ARONDALTON/callisto-core/types"
)

// Crypto Interfaces
// PepperLayer re-encrypts already-encrypted match blobs under the server-held
// pepper secret. Unpepper fails closed on tampered or foreign input.
type PepperLayer interface {
	Pepper(blob []byte) ([]byte, error)
	Unpepper(peppered []byte) ([]byte, error)
}

// Report Interfaces
// ReportService owns the lifecycle of a reporter's encrypted incident report.
// Keys are supplied by the caller on every invocation and are never stored.
type ReportService interface {
	// CreateOrEdit encrypts plaintext under the reporter's key and attaches it
	// to the record. The salt is generated on first encryption and kept on edits.
	CreateOrEdit(ctx context.Context, rec *types.Report, key, plaintext string, entry types.KeyEntry, autosave bool) error

	// Reveal decrypts the record. A wrong key surfaces as ErrDecryptionFailed;
	// this is the sole authorization check.
	Reveal(ctx context.Context, rec *types.Report, key string) (string, error)

	// WithdrawFromMatching deletes all match reports of the record and clears
	// its match-found flag. Idempotent.
	WithdrawFromMatching(ctx context.Context, rec *types.Report) error

	// EnteredIntoMatching returns the time the report entered matching, which
	// is the creation time of its first match report, or nil.
	EnteredIntoMatching(ctx context.Context, rec *types.Report) (*time.Time, error)
}

// Match Interfaces
// MatchService creates match reports and scans candidate pools for matches by
// trial decryption.
type MatchService interface {
	// Submit encrypts plaintext under the stretched perpetrator identifier,
	// peppers the result and persists it as a match report of rec.
	Submit(ctx context.Context, rec *types.Report, identifier, plaintext string) (*types.MatchReport, error)

	// Scan trial-decrypts every candidate with the identifier and returns the
	// matched records with their decrypted plaintexts. Non-matching candidates
	// are silent no-matches.
	Scan(ctx context.Context, identifier string, candidates []*types.MatchReport) ([]types.MatchResult, error)
}

// KMS Interfaces
// PepperProvider supplies the wrapper used to unwrap the stored pepper secret
type PepperProvider interface {
	// GetWrapper returns the underlying KMS wrapper
	GetWrapper() wrapping.Wrapper

	// Test performs a test encryption/decryption
	Test(ctx context.Context) error

	// HealthCheck performs a comprehensive health check
	HealthCheck(ctx context.Context) error

	// GetLastHealthCheckError returns the last health check error
	GetLastHealthCheckError() error
}

// SymmetricEncryptor defines the interface for encrypting provider credential values
type SymmetricEncryptor interface {
	// Encrypt encrypts a credential value
	Encrypt(data string) (string, error)
	// Decrypt decrypts a credential value
	Decrypt(data string) (string, error)
}

// CredentialsManager defines the interface for managing pepper-provider credentials
type CredentialsManager interface {
	// EncryptCredentials encrypts all sensitive fields in provider credentials
	EncryptCredentials(config *types.PepperProviderConfig) error
	// DecryptCredentials decrypts all sensitive fields in provider credentials
	DecryptCredentials(config *types.PepperProviderConfig) error
}

// Store Interfaces
// The core performs no querying of its own; these are the operations the
// persistence collaborator must provide. Single-record updates are assumed
// atomic; cross-record races are the collaborator's concern.

// ReportStore persists encrypted reports
type ReportStore interface {
	// SaveReport inserts or updates a report
	SaveReport(ctx context.Context, rec *types.Report) error

	// GetReport retrieves a report by ID
	GetReport(ctx context.Context, id string) (*types.Report, error)
}

// MatchStore persists peppered match reports and supplies candidate pools
type MatchStore interface {
	// SaveMatchReport inserts a match report
	SaveMatchReport(ctx context.Context, rec *types.MatchReport) error

	// ListUnseenMatchReports returns the eligible candidate pool for a scan
	ListUnseenMatchReports(ctx context.Context) ([]*types.MatchReport, error)

	// MarkSeen atomically flags a match report as seen
	MarkSeen(ctx context.Context, id string) error

	// DeleteMatchReportsByReport deletes all match reports of a report
	DeleteMatchReportsByReport(ctx context.Context, reportID string) error

	// FirstMatchReportAdded returns the creation time of the oldest match
	// report of a report, or nil if the report never entered matching
	FirstMatchReportAdded(ctx context.Context, reportID string) (*time.Time, error)
}

// SentStore appends terminal sent-report audit entries
type SentStore interface {
	// AppendSentReport stores a sent-report entry, assigning its ID and
	// sequence number when unset
	AppendSentReport(ctx context.Context, rec *types.SentReport) error
}

// Audit Interfaces
// AuditLogger defines the interface for audit logging
type AuditLogger interface {
	// Printf provides basic logging functionality
	Printf(format string, v ...interface{})

	// LogEvent logs an audit event
	LogEvent(ctx context.Context, event *types.AuditEvent) error

	// GetEvents retrieves audit events based on filters
	GetEvents(ctx context.Context, filters map[string]interface{}) ([]*types.AuditEvent, error)
}
