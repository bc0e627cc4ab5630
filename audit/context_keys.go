// Package audit provides audit logging for report and matching operations
package audit

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

// Context keys for report and matching operations
const (
	// Core context keys
	KeyRecordID ContextKey = "recordId" // report record identifier
	KeyOwnerID  ContextKey = "ownerId"  // owning user identifier
	KeyScanID   ContextKey = "scanId"   // matching scan identifier
	KeyError    ContextKey = "error"    // error message if operation failed

	// Operation context keys
	KeyOperation ContextKey = "operation" // operation being performed
	KeyAutosave  ContextKey = "autosave"  // whether a save was an autosave
)

// GetContextKey returns the ContextKey type for a given string
func GetContextKey(key string) ContextKey {
	return ContextKey(key)
}
