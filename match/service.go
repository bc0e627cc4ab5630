// Package match creates per-perpetrator match reports and scans candidate
// pools for matches by trial decryption. Decryption success under the
// stretched identifier is the only equality test: the server never sees a
// deterministic hash of an identifier it could brute-force offline.
package match

import (
	"context"
	"fmt"
	"runtime"
	"sync"
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
	// ErrMissingIdentifier indicates that the perpetrator identifier is empty
	ErrMissingIdentifier = fmt.Errorf("perpetrator identifier is required")
)

// matchService implements the interfaces.MatchService interface
type matchService struct {
	store       interfaces.MatchStore
	pepper      interfaces.PepperLayer
	logger      interfaces.AuditLogger
	coordinator *Coordinator
	config      types.CryptoConfig
	workers     int
}

// NewService creates a new match service. Workers bounds the number of
// concurrent trial decryptions per scan; zero selects one per CPU. The
// coordinator is optional.
func NewService(store interfaces.MatchStore, pepper interfaces.PepperLayer, logger interfaces.AuditLogger, coordinator *Coordinator, config types.CryptoConfig, workers int) (interfaces.MatchService, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid crypto configuration: %w", err)
	}
	if store == nil {
		return nil, fmt.Errorf("match store is required")
	}
	if pepper == nil {
		return nil, fmt.Errorf("pepper layer is required")
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	log.Debug().
		Int("iterations", config.Iterations).
		Int("workers", workers).
		Msg("Match service created")

	return &matchService{
		store:       store,
		pepper:      pepper,
		logger:      logger,
		coordinator: coordinator,
		config:      config,
		workers:     workers,
	}, nil
}

func (s *matchService) logEvent(ctx context.Context, event *types.AuditEvent, err error) {
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

// Submit encrypts plaintext under the stretched perpetrator identifier,
// peppers the result and persists it as a match report of rec. Every match
// report gets its own fresh salt.
func (s *matchService) Submit(ctx context.Context, rec *types.Report, identifier, plaintext string) (*types.MatchReport, error) {
	if rec == nil || rec.ID == "" {
		return nil, ErrNilRecord
	}
	if identifier == "" {
		return nil, ErrMissingIdentifier
	}

	event := audit.NewAuditEvent(audit.EventTypeMatchSubmit, audit.OperationSubmit, s.config.Iterations)
	event.Context[string(audit.KeyRecordID)] = rec.ID

	salt, err := crypto.NewSalt(s.config.SaltLength)
	if err != nil {
		s.logEvent(ctx, event, err)
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	stretched := crypto.Stretch(identifier, salt, s.config.Iterations)
	inner, err := crypto.Encrypt(stretched, []byte(plaintext))
	if err != nil {
		s.logEvent(ctx, event, err)
		return nil, fmt.Errorf("failed to encrypt match report: %w", err)
	}

	peppered, err := s.pepper.Pepper(inner)
	if err != nil {
		s.logEvent(ctx, event, err)
		return nil, fmt.Errorf("failed to pepper match report: %w", err)
	}

	record := &types.MatchReport{
		ID:        uuid.New().String(),
		ReportID:  rec.ID,
		Encrypted: peppered,
		Salt:      salt,
		Added:     time.Now().UTC(),
	}

	if err := s.store.SaveMatchReport(ctx, record); err != nil {
		s.logEvent(ctx, event, err)
		return nil, fmt.Errorf("failed to save match report: %w", err)
	}

	s.logEvent(ctx, event, nil)
	return record, nil
}

// tryDecrypt attempts one candidate. Any failure along the way, peppered blob
// included, is a silent non-match: a scan with a wrong pepper secret matches
// nothing, even the true match.
func (s *matchService) tryDecrypt(identifier string, candidate *types.MatchReport) (string, bool) {
	inner, err := s.pepper.Unpepper(candidate.Encrypted)
	if err != nil {
		return "", false
	}

	stretched := crypto.Stretch(identifier, candidate.Salt, s.config.Iterations)
	plaintext, err := crypto.Decrypt(stretched, inner)
	if err != nil {
		return "", false
	}

	return string(plaintext), true
}

// Scan trial-decrypts every candidate with the identifier. The full pool is
// scanned even after a match so that three or more reporters naming the same
// perpetrator all surface in one pass. Matched records are marked seen before
// the results are returned.
func (s *matchService) Scan(ctx context.Context, identifier string, candidates []*types.MatchReport) ([]types.MatchResult, error) {
	if identifier == "" {
		return nil, ErrMissingIdentifier
	}

	scanID := uuid.New().String()
	event := audit.NewAuditEvent(audit.EventTypeMatchScan, audit.OperationScan, s.config.Iterations)
	event.Context[string(audit.KeyScanID)] = scanID
	event.Metadata = map[string]interface{}{"candidates": len(candidates)}

	if s.coordinator != nil {
		scan, err := s.coordinator.StartScan(ctx, scanID)
		if err != nil {
			s.logEvent(ctx, event, err)
			return nil, fmt.Errorf("failed to start scan: %w", err)
		}
		ctx = scan.Context()
		defer s.coordinator.FinishScan(scanID)
	}

	start := time.Now()

	// Candidates are fanned out to a bounded worker pool. Each slot is pure
	// per-candidate computation; order is restored from the index.
	plaintexts := make([]string, len(candidates))
	matched := make([]bool, len(candidates))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < s.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				plaintexts[i], matched[i] = s.tryDecrypt(identifier, candidates[i])
			}
		}()
	}

	var scanErr error
feed:
	for i := range candidates {
		if err := ctx.Err(); err != nil {
			scanErr = err
			break feed
		}
		select {
		case <-ctx.Done():
			scanErr = ctx.Err()
			break feed
		case jobs <- i:
		}
		if s.coordinator != nil {
			s.coordinator.UpdateScanStatus(scanID, StatusRunning, float64(i+1)/float64(len(candidates)), nil)
		}
	}
	close(jobs)
	wg.Wait()

	if scanErr != nil {
		if s.coordinator != nil {
			s.coordinator.UpdateScanStatus(scanID, StatusFailed, 0, scanErr)
		}
		s.logEvent(ctx, event, scanErr)
		return nil, scanErr
	}

	var results []types.MatchResult
	for i, candidate := range candidates {
		if !matched[i] {
			continue
		}
		if err := s.store.MarkSeen(ctx, candidate.ID); err != nil {
			s.logEvent(ctx, event, err)
			return nil, fmt.Errorf("failed to mark match report seen: %w", err)
		}
		results = append(results, types.MatchResult{
			Record:    candidate,
			Plaintext: plaintexts[i],
		})
	}

	if s.coordinator != nil {
		s.coordinator.UpdateScanStatus(scanID, StatusCompleted, 1, nil)
	}

	log.Debug().
		Str("scanId", scanID).
		Int("candidates", len(candidates)).
		Int("matches", len(results)).
		Dur("duration", time.Since(start)).
		Msg("Scan completed")

	s.logEvent(ctx, event, nil)
	return results, nil
}
