package types

import (
	"fmt"
	"time"
)

// SentKind tags the payload variant of a SentReport.
type SentKind string

const (
	// SentSingle records the transmission of one reporter's full report.
	SentSingle SentKind = "single"

	// SentMatched records the transmission of a set of matched reports.
	SentMatched SentKind = "matched"
)

// SentReport records that a report, or a set of matched match-reports, was
// transmitted to the monitoring organization. It carries no decryption
// capability and is append-only.
type SentReport struct {
	ID        string    `json:"id" bson:"_id"`
	Seq       int       `json:"seq" bson:"seq"`
	Kind      SentKind  `json:"kind" bson:"kind"`
	SentAt    time.Time `json:"sentAt" bson:"sentAt"`
	ToAddress string    `json:"toAddress" bson:"toAddress"`

	// ReportID is set for SentSingle.
	ReportID string `json:"reportId,omitempty" bson:"reportId,omitempty"`

	// MatchReportIDs is set for SentMatched.
	MatchReportIDs []string `json:"matchReportIds,omitempty" bson:"matchReportIds,omitempty"`
}

// ExternalID returns the identifier handed to the receiving organization.
// The trailing digit distinguishes matched submissions (0) from single ones (1).
func (s *SentReport) ExternalID(prefix string) string {
	variant := 1
	if s.Kind == SentMatched {
		variant = 0
	}
	return fmt.Sprintf("%s-%05d-%d", prefix, s.Seq, variant)
}
