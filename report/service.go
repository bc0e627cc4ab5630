// Package report owns the lifecycle of a reporter's encrypted incident report.
// The reporter's key is supplied on every call and never stored; possession of
// a key that decrypts the record is the sole authorization check.
package report

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ARONDALTON/callisto-core/audit"
	"github.com/ARONDALTON/callisto-core/crypto"
	"github.com/ARONDALTON/callisto-core/interfaces"
	"github.com/ARONDALTON/callisto-core/types"
)

var (
	// ErrNilRecord indicates that a nil report record was passed
	ErrNilRecord = fmt.Errorf("report record is nil")
	// ErrMissingKey indicates that the reporter's key is empty
	ErrMissingKey = fmt.Errorf("reporter key is required")
	// ErrRecordMismatch indicates that an edit entry references a different record
	ErrRecordMismatch = fmt.Errorf("key entry references a different record")
)

// reportService implements the interfaces.ReportService interface
type reportService struct {
	reports interfaces.ReportStore
	matches interfaces.MatchStore
	logger  interfaces.AuditLogger
	config  types.CryptoConfig
}

// NewService creates a new report service
func NewService(reports interfaces.ReportStore, matches interfaces.MatchStore, logger interfaces.AuditLogger, config types.CryptoConfig) (interfaces.ReportService, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid crypto configuration: %w", err)
	}
	if reports == nil {
		return nil, fmt.Errorf("report store is required")
	}

	log.Debug().
		Int("iterations", config.Iterations).
		Int("saltLength", config.SaltLength).
		Msg("Report service created")

	return &reportService{
		reports: reports,
		matches: matches,
		logger:  logger,
		config:  config,
	}, nil
}

// createAuditEvent creates an audit event carrying the record ID and owner
// from the context. Keys and plaintext never enter an event.
func (s *reportService) createAuditEvent(ctx context.Context, rec *types.Report, eventType, operation string) *types.AuditEvent {
	event := audit.NewAuditEvent(eventType, operation, s.config.Iterations)

	if rec != nil {
		if rec.ID != "" {
			event.Context[string(audit.KeyRecordID)] = rec.ID
		}
		if rec.Owner != "" {
			event.Context[string(audit.KeyOwnerID)] = rec.Owner
		}
	}
	if op, ok := ctx.Value(audit.KeyOperation).(string); ok && op != "" {
		event.Context[string(audit.KeyOperation)] = op
	}

	return event
}

func (s *reportService) logEvent(ctx context.Context, event *types.AuditEvent, err error) {
	if s.logger == nil {
		return
	}
	if err != nil {
		event.Status = audit.StatusFailed
		event.Context[string(audit.KeyError)] = err.Error()
	}
	if logErr := s.logger.LogEvent(ctx, event); logErr != nil {
		log.Warn().Err(logErr).Msg("Failed to write audit event")
	}
}

// CreateOrEdit encrypts plaintext under the reporter's key and attaches it to
// the record. The salt is generated on the first encryption and kept verbatim
// on every subsequent edit; the last-edited timestamp moves only on true
// non-autosave edits.
func (s *reportService) CreateOrEdit(ctx context.Context, rec *types.Report, key, plaintext string, entry types.KeyEntry, autosave bool) error {
	if rec == nil {
		return ErrNilRecord
	}
	if key == "" {
		return ErrMissingKey
	}
	if entry.IsEdit() && rec.ID != "" && entry.RecordID != rec.ID {
		return ErrRecordMismatch
	}

	event := s.createAuditEvent(ctx, rec, audit.EventTypeReportEncrypt, audit.OperationEncrypt)
	event.Context[string(audit.KeyAutosave)] = strconv.FormatBool(autosave)

	now := time.Now().UTC()
	if rec.ID == "" {
		rec.ID = uuid.New().String()
		rec.Added = now
		event.Context[string(audit.KeyRecordID)] = rec.ID
	}

	// The first encryption is a creation regardless of the entry mode; only a
	// record that already carried a salt can be edited.
	saltExisted := rec.Salt != ""
	if !saltExisted {
		salt, err := crypto.NewSalt(s.config.SaltLength)
		if err != nil {
			s.logEvent(ctx, event, err)
			return fmt.Errorf("failed to generate salt: %w", err)
		}
		rec.Salt = salt
	}

	stretched := crypto.Stretch(key, rec.Salt, s.config.Iterations)
	encrypted, err := crypto.Encrypt(stretched, []byte(plaintext))
	if err != nil {
		s.logEvent(ctx, event, err)
		return fmt.Errorf("failed to encrypt report: %w", err)
	}
	rec.Encrypted = encrypted
	rec.Autosaved = autosave

	if saltExisted && entry.IsEdit() && !autosave {
		edited := now
		rec.LastEdited = &edited
	}

	if err := s.reports.SaveReport(ctx, rec); err != nil {
		s.logEvent(ctx, event, err)
		return fmt.Errorf("failed to save report: %w", err)
	}

	s.logEvent(ctx, event, nil)
	return nil
}

// Reveal decrypts the record with the supplied key. A wrong key is
// indistinguishable from a tampered blob; both surface as ErrDecryptionFailed.
func (s *reportService) Reveal(ctx context.Context, rec *types.Report, key string) (string, error) {
	if rec == nil {
		return "", ErrNilRecord
	}
	if key == "" {
		return "", ErrMissingKey
	}

	event := s.createAuditEvent(ctx, rec, audit.EventTypeReportDecrypt, audit.OperationDecrypt)

	stretched := crypto.Stretch(key, rec.Salt, s.config.Iterations)
	plaintext, err := crypto.Decrypt(stretched, rec.Encrypted)
	if err != nil {
		s.logEvent(ctx, event, err)
		return "", err
	}

	s.logEvent(ctx, event, nil)
	return string(plaintext), nil
}

// WithdrawFromMatching removes the record from matching: all of its match
// reports are deleted and its match-found flag is cleared. Withdrawing a
// record that never entered matching is a no-op.
func (s *reportService) WithdrawFromMatching(ctx context.Context, rec *types.Report) error {
	if rec == nil {
		return ErrNilRecord
	}
	if s.matches == nil {
		return fmt.Errorf("match store is required for withdrawal")
	}

	event := s.createAuditEvent(ctx, rec, audit.EventTypeReportWithdraw, audit.OperationWithdraw)

	if err := s.matches.DeleteMatchReportsByReport(ctx, rec.ID); err != nil {
		s.logEvent(ctx, event, err)
		return fmt.Errorf("failed to delete match reports: %w", err)
	}

	rec.MatchFound = false
	if err := s.reports.SaveReport(ctx, rec); err != nil {
		s.logEvent(ctx, event, err)
		return fmt.Errorf("failed to save report: %w", err)
	}

	s.logEvent(ctx, event, nil)
	return nil
}

// EnteredIntoMatching returns the time the record entered matching, which is
// the creation time of its oldest match report. Returns nil if the record
// never entered matching or has since withdrawn.
func (s *reportService) EnteredIntoMatching(ctx context.Context, rec *types.Report) (*time.Time, error) {
	if rec == nil {
		return nil, ErrNilRecord
	}
	if s.matches == nil {
		return nil, fmt.Errorf("match store is required")
	}
	return s.matches.FirstMatchReportAdded(ctx, rec.ID)
}
