package types

import (
	"time"
)

// EntryMode selects whether a key-entry operation targets a new report or an
// existing one.
type EntryMode string

const (
	EntryNew  EntryMode = "new"
	EntryEdit EntryMode = "edit"
)

// KeyEntry describes a single key-entry operation. For EntryEdit, RecordID
// references the report being edited; for EntryNew it is empty.
type KeyEntry struct {
	Mode     EntryMode `json:"mode" bson:"mode"`
	RecordID string    `json:"recordId,omitempty" bson:"recordId,omitempty"`
}

// IsEdit reports whether the operation edits an existing record.
func (e KeyEntry) IsEdit() bool {
	return e.Mode == EntryEdit && e.RecordID != ""
}

// Report is the full text of a reported incident, encrypted under a key held
// only by its owner. The salt is generated once at first encryption and is
// immutable afterwards; it is stored in plaintext next to the ciphertext.
type Report struct {
	ID         string     `json:"id" bson:"_id"`
	Owner      string     `json:"owner" bson:"owner"`
	Encrypted  []byte     `json:"encrypted" bson:"encrypted"`
	Salt       string     `json:"salt" bson:"salt"`
	Autosaved  bool       `json:"autosaved" bson:"autosaved"`
	Added      time.Time  `json:"added" bson:"added"`
	LastEdited *time.Time `json:"lastEdited,omitempty" bson:"lastEdited,omitempty"`
	MatchFound bool       `json:"matchFound" bson:"matchFound"`
}

// MatchReport is a per-perpetrator sub-report the reporter wants submitted if
// another reporter names the same perpetrator. The blob is doubly encrypted:
// once under the stretched perpetrator identifier, then under the server
// pepper. A single Report can have multiple MatchReports, one per perpetrator.
type MatchReport struct {
	ID        string    `json:"id" bson:"_id"`
	ReportID  string    `json:"reportId" bson:"reportId"`
	Encrypted []byte    `json:"encrypted" bson:"encrypted"`
	Salt      string    `json:"salt" bson:"salt"`
	Seen      bool      `json:"seen" bson:"seen"`
	Added     time.Time `json:"added" bson:"added"`
}

// MatchResult pairs a matched record with its decrypted content. Results are
// handed to the caller and never persisted.
type MatchResult struct {
	Record    *MatchReport
	Plaintext string
}
