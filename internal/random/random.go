// Package random generates the unpredictable values the security layer
// hands out: session id values and audit event ids.
package random

import (
	"crypto/rand"

	"github.com/google/uuid"
)

// SessionIDBytes is the size of a freshly allocated session id value.
const SessionIDBytes = 16

// NewSessionIDValue returns cryptographically random session id bytes.
func NewSessionIDValue() ([]byte, error) {
	value := make([]byte, SessionIDBytes)
	if _, err := rand.Read(value); err != nil {
		return nil, err
	}
	return value, nil
}

// NewEventID returns a unique id for an audit event.
func NewEventID() string {
	return uuid.NewString()
}
