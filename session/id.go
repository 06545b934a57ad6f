package session

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/oracle/nosql-kvauth/topology"
)

// Scope describes where a session is resolvable. The ordinal values are a
// stable wire contract and must never be reordered.
type Scope uint8

const (
	// Persistent sessions live in the replicated session store and can be
	// validated by any replica node.
	Persistent Scope = iota
	// Local sessions live only in the memory of the allocating component.
	Local
	// StoreWide sessions are shared store-wide but not durable.
	StoreWide
)

func (s Scope) String() string {
	switch s {
	case Persistent:
		return "persistent"
	case Local:
		return "local"
	case StoreWide:
		return "store"
	}
	return fmt.Sprintf("scope(%d)", uint8(s))
}

// MaxIDBytes bounds the opaque id value carried by a session identity.
const MaxIDBytes = 127

var (
	// ErrIDTooLong is returned for id values beyond MaxIDBytes.
	ErrIDTooLong = errors.New("session id value exceeds 127 bytes")
	// ErrBadIDEncoding is returned when a session identity cannot be decoded.
	ErrBadIDEncoding = errors.New("malformed session identity encoding")
	// ErrScopeAllocator is returned when the scope/allocator invariant is
	// violated at construction time.
	ErrScopeAllocator = errors.New("allocator must be present iff scope is not persistent")
)

// ID is an immutable session identity: an opaque id value, a scope, and,
// for non-persistent scopes, the identity of the component that allocated
// the session.
type ID struct {
	value     []byte
	scope     Scope
	allocator *topology.ResourceID
}

// NewPersistentID builds a persistent-scope identity. Persistent sessions
// never carry an allocator.
func NewPersistentID(value []byte) (ID, error) {
	return newID(value, Persistent, nil)
}

// NewLocalID builds a local-scope identity bound to its allocating component.
func NewLocalID(value []byte, allocator topology.ResourceID) (ID, error) {
	return newID(value, Local, &allocator)
}

// NewStoreID builds a store-scope identity bound to its allocating component.
func NewStoreID(value []byte, allocator topology.ResourceID) (ID, error) {
	return newID(value, StoreWide, &allocator)
}

func newID(value []byte, scope Scope, allocator *topology.ResourceID) (ID, error) {
	if len(value) > MaxIDBytes {
		return ID{}, ErrIDTooLong
	}
	if (scope == Persistent) != (allocator == nil) {
		return ID{}, ErrScopeAllocator
	}
	v := make([]byte, len(value))
	copy(v, value)
	var alloc *topology.ResourceID
	if allocator != nil {
		a := *allocator
		alloc = &a
	}
	return ID{value: v, scope: scope, allocator: alloc}, nil
}

// Value returns a copy of the opaque id bytes.
func (id ID) Value() []byte {
	out := make([]byte, len(id.value))
	copy(out, id.value)
	return out
}

// Scope returns the resolution scope of the identity.
func (id ID) Scope() Scope {
	return id.scope
}

// Allocator returns the allocating component and whether one is present.
func (id ID) Allocator() (topology.ResourceID, bool) {
	if id.allocator == nil {
		return topology.ResourceID{}, false
	}
	return *id.allocator, true
}

// Equal compares scope, id value, and allocator.
func (id ID) Equal(other ID) bool {
	if id.scope != other.scope || !bytes.Equal(id.value, other.value) {
		return false
	}
	if (id.allocator == nil) != (other.allocator == nil) {
		return false
	}
	return id.allocator == nil || id.allocator.Equal(*other.allocator)
}

// DisplayHash is a non-reversible, non-unique digest of the id value for use
// in log lines: the first 31 bits of the SHA-256 of the value.
func (id ID) DisplayHash() uint32 {
	sum := sha256.Sum256(id.value)
	return binary.BigEndian.Uint32(sum[:4]) &^ (1 << 31)
}

func (id ID) String() string {
	return fmt.Sprintf("%s:%08x", id.scope, id.DisplayHash())
}

// FormatDisplayHash renders a display hash the way ID.String does, for
// callers that only hold the hash.
func FormatDisplayHash(h uint32) string {
	return fmt.Sprintf("%08x", h)
}

const allocatorPresentFlag = 0x01

// Encode appends the wire form of the identity: a flag byte (bit 0 set when
// an allocator follows), a scope byte, a length-prefixed id value, and
// optionally the allocator encoding.
func (id ID) Encode(buf *bytes.Buffer) error {
	if len(id.value) > MaxIDBytes {
		return ErrIDTooLong
	}
	flags := byte(0)
	if id.allocator != nil {
		flags |= allocatorPresentFlag
	}
	buf.WriteByte(flags)
	buf.WriteByte(byte(id.scope))
	buf.WriteByte(byte(len(id.value)))
	buf.Write(id.value)
	if id.allocator != nil {
		return id.allocator.Encode(buf)
	}
	return nil
}

// DecodeID reads one encoded session identity from reader.
func DecodeID(reader *bytes.Reader) (ID, error) {
	flags, err := reader.ReadByte()
	if err != nil {
		return ID{}, fmt.Errorf("%w: %v", ErrBadIDEncoding, err)
	}
	scopeByte, err := reader.ReadByte()
	if err != nil {
		return ID{}, fmt.Errorf("%w: %v", ErrBadIDEncoding, err)
	}
	scope := Scope(scopeByte)
	if scope > StoreWide {
		return ID{}, fmt.Errorf("%w: unknown scope %d", ErrBadIDEncoding, scopeByte)
	}
	length, err := reader.ReadByte()
	if err != nil {
		return ID{}, fmt.Errorf("%w: %v", ErrBadIDEncoding, err)
	}
	if length > MaxIDBytes {
		return ID{}, fmt.Errorf("%w: id length %d", ErrBadIDEncoding, length)
	}
	value := make([]byte, length)
	if _, err := io.ReadFull(reader, value); err != nil {
		return ID{}, fmt.Errorf("%w: truncated id value", ErrBadIDEncoding)
	}
	var allocator *topology.ResourceID
	if flags&allocatorPresentFlag != 0 {
		rid, err := topology.DecodeResourceID(reader)
		if err != nil {
			return ID{}, fmt.Errorf("%w: %v", ErrBadIDEncoding, err)
		}
		allocator = &rid
	}
	id, err := newID(value, scope, allocator)
	if err != nil {
		return ID{}, fmt.Errorf("%w: %v", ErrBadIDEncoding, err)
	}
	return id, nil
}
