package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ARONDALTON/callisto-core/types"
)

// MemoryStore is an in-memory implementation of the store interfaces, used in
// tests and single-process deployments. All methods are safe for concurrent
// use; returned records are copies and never alias internal state.
type MemoryStore struct {
	mu           sync.RWMutex
	reports      map[string]*types.Report
	matchReports map[string]*types.MatchReport
	sentReports  []*types.SentReport
	sentSeq      int
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		reports:      make(map[string]*types.Report),
		matchReports: make(map[string]*types.MatchReport),
	}
}

func copyReport(rec *types.Report) *types.Report {
	out := *rec
	out.Encrypted = append([]byte(nil), rec.Encrypted...)
	if rec.LastEdited != nil {
		edited := *rec.LastEdited
		out.LastEdited = &edited
	}
	return &out
}

func copyMatchReport(rec *types.MatchReport) *types.MatchReport {
	out := *rec
	out.Encrypted = append([]byte(nil), rec.Encrypted...)
	return &out
}

// SaveReport inserts or updates a report by ID
func (s *MemoryStore) SaveReport(ctx context.Context, rec *types.Report) error {
	if rec == nil || rec.ID == "" {
		return ErrNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[rec.ID] = copyReport(rec)
	return nil
}

// GetReport retrieves a report by ID
func (s *MemoryStore) GetReport(ctx context.Context, id string) (*types.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.reports[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyReport(rec), nil
}

// SaveMatchReport inserts a match report
func (s *MemoryStore) SaveMatchReport(ctx context.Context, rec *types.MatchReport) error {
	if rec == nil || rec.ID == "" {
		return ErrNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.matchReports[rec.ID] = copyMatchReport(rec)
	return nil
}

// ListUnseenMatchReports returns all match reports not yet flagged seen,
// oldest first
func (s *MemoryStore) ListUnseenMatchReports(ctx context.Context) ([]*types.MatchReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []*types.MatchReport
	for _, rec := range s.matchReports {
		if !rec.Seen {
			results = append(results, copyMatchReport(rec))
		}
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].Added.Before(results[j].Added)
	})
	return results, nil
}

// MarkSeen flags a match report as seen
func (s *MemoryStore) MarkSeen(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.matchReports[id]
	if !ok {
		return ErrNotFound
	}
	rec.Seen = true
	return nil
}

// DeleteMatchReportsByReport deletes all match reports of a report
func (s *MemoryStore) DeleteMatchReportsByReport(ctx context.Context, reportID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, rec := range s.matchReports {
		if rec.ReportID == reportID {
			delete(s.matchReports, id)
		}
	}
	return nil
}

// FirstMatchReportAdded returns the creation time of the oldest match report
// of a report, or nil if the report has none
func (s *MemoryStore) FirstMatchReportAdded(ctx context.Context, reportID string) (*time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var first *time.Time
	for _, rec := range s.matchReports {
		if rec.ReportID != reportID {
			continue
		}
		if first == nil || rec.Added.Before(*first) {
			added := rec.Added
			first = &added
		}
	}
	return first, nil
}

// AppendSentReport stores a sent-report entry, assigning its sequence number
func (s *MemoryStore) AppendSentReport(ctx context.Context, rec *types.SentReport) error {
	if rec == nil {
		return ErrNotFound
	}
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sentSeq++
	rec.Seq = s.sentSeq
	if rec.SentAt.IsZero() {
		rec.SentAt = time.Now().UTC()
	}

	stored := *rec
	stored.MatchReportIDs = append([]string(nil), rec.MatchReportIDs...)
	s.sentReports = append(s.sentReports, &stored)
	return nil
}

// SentReports returns a snapshot of all sent-report entries in append order
func (s *MemoryStore) SentReports() []*types.SentReport {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*types.SentReport, 0, len(s.sentReports))
	for _, rec := range s.sentReports {
		copied := *rec
		copied.MatchReportIDs = append([]string(nil), rec.MatchReportIDs...)
		out = append(out, &copied)
	}
	return out
}
