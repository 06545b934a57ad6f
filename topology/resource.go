package topology

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ResourceType identifies the role of a store component. The ordinal values
// are a stable wire contract embedded in session identity encodings and must
// never be reordered.
type ResourceType uint8

const (
	// StorageNode is the node-level agent that hosts replicas.
	StorageNode ResourceType = iota
	// ReplicaNode serves partitions of the key space.
	ReplicaNode
	// AdminNode runs plan execution and metadata management.
	AdminNode
	// ClientAgent is an external client process; it never allocates sessions.
	ClientAgent
)

func (t ResourceType) String() string {
	switch t {
	case StorageNode:
		return "storage-node"
	case ReplicaNode:
		return "replica-node"
	case AdminNode:
		return "admin-node"
	case ClientAgent:
		return "client"
	}
	return fmt.Sprintf("resource-type(%d)", uint8(t))
}

func (t ResourceType) valid() bool {
	return t <= ClientAgent
}

// ResourceID names one component instance: its role and its number within
// that role. The zero value is not a valid id; numbers start at 1.
type ResourceID struct {
	Type   ResourceType
	Number uint32
}

func (r ResourceID) String() string {
	return fmt.Sprintf("%s-%d", r.Type, r.Number)
}

// Equal reports whether two resource ids name the same component.
func (r ResourceID) Equal(other ResourceID) bool {
	return r == other
}

// ErrBadResourceEncoding is returned when a resource id cannot be decoded.
var ErrBadResourceEncoding = errors.New("malformed resource id encoding")

// Encode appends the wire form of r: one type byte followed by the component
// number as a big-endian uint32.
func (r ResourceID) Encode(buf *bytes.Buffer) error {
	if !r.Type.valid() {
		return fmt.Errorf("%w: unknown type %d", ErrBadResourceEncoding, r.Type)
	}
	buf.WriteByte(byte(r.Type))
	return binary.Write(buf, binary.BigEndian, r.Number)
}

// DecodeResourceID reads one encoded resource id from reader.
func DecodeResourceID(reader *bytes.Reader) (ResourceID, error) {
	tb, err := reader.ReadByte()
	if err != nil {
		return ResourceID{}, fmt.Errorf("%w: %v", ErrBadResourceEncoding, err)
	}
	rt := ResourceType(tb)
	if !rt.valid() {
		return ResourceID{}, fmt.Errorf("%w: unknown type %d", ErrBadResourceEncoding, tb)
	}
	var num uint32
	if err := binary.Read(reader, binary.BigEndian, &num); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return ResourceID{}, fmt.Errorf("%w: truncated number", ErrBadResourceEncoding)
		}
		return ResourceID{}, fmt.Errorf("%w: %v", ErrBadResourceEncoding, err)
	}
	return ResourceID{Type: rt, Number: num}, nil
}
