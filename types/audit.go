package types

import (
	"time"
)

// AuditEvent represents a crypto-core audit event. Events never carry
// identifiers, keys, or plaintext; context values are limited to record IDs,
// counts, and statuses.
type AuditEvent struct {
	ID         string                 `json:"id" bson:"_id"`
	Timestamp  time.Time              `json:"timestamp" bson:"timestamp"`
	EventType  string                 `json:"event_type" bson:"event_type"`
	Operation  string                 `json:"operation" bson:"operation"`
	Status     string                 `json:"status" bson:"status"`
	Iterations int                    `json:"iterations" bson:"iterations"`
	Context    map[string]string      `json:"context" bson:"context"`
	Metadata   map[string]interface{} `json:"metadata" bson:"metadata"`
}
