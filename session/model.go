package session

import (
	"sync"
)

// Record is the server-side login session. The identity and the persistent
// flag are immutable for the life of the record; the subject and expiration
// may be refreshed by renewal or role-management actions and must be
// promptly visible to concurrent validators, so both are read and written
// under the record's lock.
type Record struct {
	id         ID
	persistent bool

	mu         sync.RWMutex
	subject    *Subject
	clientHost string
	expireAt   int64 // unix milliseconds; 0 = never expires
}

// NewRecord creates a session record at login time.
func NewRecord(id ID, subject *Subject, clientHost string, expireAt int64, persistent bool) *Record {
	return &Record{
		id:         id,
		persistent: persistent,
		subject:    subject.Clone(),
		clientHost: clientHost,
		expireAt:   expireAt,
	}
}

// ID returns the immutable session identity.
func (r *Record) ID() ID {
	return r.id
}

// Persistent reports whether the record lives in the durable session store.
func (r *Record) Persistent() bool {
	return r.persistent
}

// Subject returns a copy of the current authenticated subject.
func (r *Record) Subject() *Subject {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.subject.Clone()
}

// SetSubject replaces the subject, e.g. after a role grant resolves to a new
// role set for the principal.
func (r *Record) SetSubject(subject *Subject) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subject = subject.Clone()
}

// ClientHost returns the origin host recorded at login, possibly empty.
func (r *Record) ClientHost() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.clientHost
}

// ExpireAt returns the expiration in unix milliseconds, 0 for never.
func (r *Record) ExpireAt() int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.expireAt
}

// SetExpireAt moves the expiration, as done by session extension.
func (r *Record) SetExpireAt(expireAt int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.expireAt = expireAt
}

// IsExpired reports whether the record is expired at nowMillis. A record
// whose expiration equals now is expired; an expiration of 0 never expires.
func (r *Record) IsExpired(nowMillis int64) bool {
	exp := r.ExpireAt()
	return exp != 0 && exp <= nowMillis
}

// Token mints the client-visible token for this record's current state.
func (r *Record) Token() *Token {
	return NewToken(r.id, r.ExpireAt())
}
