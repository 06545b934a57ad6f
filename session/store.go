package session

import (
	"context"
	"errors"
)

var (
	// ErrSessionNotFound means the store authoritatively has no record for
	// the identity. This is a normal outcome for expired or logged-out
	// sessions.
	ErrSessionNotFound = errors.New("session not found")

	// ErrStoreUnavailable means the store could not be consulted. Callers
	// must treat the session's validity as undetermined.
	ErrStoreUnavailable = errors.New("session store unavailable")
)

// Store persists session records. Implementations must keep the two error
// conditions above distinct: "not there" and "could not look" drive
// different caller policies.
type Store interface {
	// Save writes a new record. The record's expiration bounds its
	// lifetime in the store.
	Save(ctx context.Context, rec *Record) error

	// Get returns the record for the identity, or ErrSessionNotFound.
	Get(ctx context.Context, id ID) (*Record, error)

	// UpdateExpiry moves the record's expiration, returning the updated
	// record, or ErrSessionNotFound if the session no longer exists.
	UpdateExpiry(ctx context.Context, id ID, expireAt int64) (*Record, error)

	// UpdateSubject replaces the record's subject, as done when role
	// management changes a principal's role set.
	UpdateSubject(ctx context.Context, id ID, subject *Subject) error

	// Delete removes the record. Deleting an absent record succeeds.
	Delete(ctx context.Context, id ID) error
}

func storeKeyOf(prefix string, id ID) (string, error) {
	tok := NewToken(id, 0)
	// Reuse the identity wire form for keying; it is unique per identity.
	hexKey, err := tok.EncodeHex()
	if err != nil {
		return "", err
	}
	return prefix + ":" + hexKey, nil
}
