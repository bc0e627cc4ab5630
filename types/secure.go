package types

import (
	"crypto/subtle"
	"runtime"
)

// SecureBytes represents a secure byte slice that will be wiped on garbage collection
type SecureBytes struct {
	data []byte
}

// NewSecureBytes creates a new secure byte slice
func NewSecureBytes(data []byte) *SecureBytes {
	// Create a new byte slice to store the data
	secure := &SecureBytes{
		data: make([]byte, len(data)),
	}
	// Copy data using secure copy to prevent optimizations
	subtle.ConstantTimeCopy(1, secure.data, data)

	// Register finalizer to wipe memory when garbage collected
	runtime.SetFinalizer(secure, (*SecureBytes).Clear)
	return secure
}

// Clear securely wipes the memory
func (s *SecureBytes) Clear() {
	if s.data != nil {
		// Secure wiping - overwrite with zeros
		for i := range s.data {
			s.data[i] = 0
		}
		// Prevent compiler optimizations
		runtime.KeepAlive(s.data)
		s.data = nil
	}
}

// Get returns a copy of the data
func (s *SecureBytes) Get() []byte {
	if s.data == nil {
		return nil
	}
	// Create a copy to prevent external modifications
	result := make([]byte, len(s.data))
	subtle.ConstantTimeCopy(1, result, s.data)
	return result
}

// Len returns the length of the held secret.
func (s *SecureBytes) Len() int {
	return len(s.data)
}
