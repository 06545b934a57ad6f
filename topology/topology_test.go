package topology

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

func TestResourceIDEncodeDecode(t *testing.T) {
	ids := []ResourceID{
		{Type: StorageNode, Number: 1},
		{Type: ReplicaNode, Number: 42},
		{Type: AdminNode, Number: 7},
		{Type: ClientAgent, Number: 1<<32 - 1},
	}
	for _, id := range ids {
		var buf bytes.Buffer
		if err := id.Encode(&buf); err != nil {
			t.Fatalf("Encode(%s) failed: %v", id, err)
		}
		decoded, err := DecodeResourceID(bytes.NewReader(buf.Bytes()))
		if err != nil {
			t.Fatalf("Decode(%s) failed: %v", id, err)
		}
		if !decoded.Equal(id) {
			t.Fatalf("round trip: %s != %s", decoded, id)
		}
	}
}

func TestResourceIDRejectsUnknownType(t *testing.T) {
	var buf bytes.Buffer
	bad := ResourceID{Type: ResourceType(250), Number: 1}
	if err := bad.Encode(&buf); !errors.Is(err, ErrBadResourceEncoding) {
		t.Fatalf("got %v, want ErrBadResourceEncoding", err)
	}

	if _, err := DecodeResourceID(bytes.NewReader([]byte{250, 0, 0, 0, 1})); !errors.Is(err, ErrBadResourceEncoding) {
		t.Fatalf("decode unknown type: got %v, want ErrBadResourceEncoding", err)
	}
	if _, err := DecodeResourceID(bytes.NewReader([]byte{0, 0})); err == nil {
		t.Fatal("truncated input must fail")
	}
}

func TestTableResolve(t *testing.T) {
	table := NewTable()
	sn := ResourceID{Type: StorageNode, Number: 1}
	table.Add(sn, Endpoint{Host: "sn1", Port: 5000}, Endpoint{Host: "sn1b", Port: 5001})

	eps, err := table.Resolve(context.Background(), sn)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(eps) != 2 || eps[0].Host != "sn1" {
		t.Fatalf("eps = %v", eps)
	}

	// The returned slice is a copy.
	eps[0].Host = "mutated"
	again, _ := table.Resolve(context.Background(), sn)
	if again[0].Host != "sn1" {
		t.Fatal("Resolve must not expose internal state")
	}

	_, err = table.Resolve(context.Background(), ResourceID{Type: AdminNode, Number: 9})
	if !errors.Is(err, ErrResourceUnknown) {
		t.Fatalf("got %v, want ErrResourceUnknown", err)
	}
}

func TestTableHealthyReplica(t *testing.T) {
	table := NewTable()

	if _, err := table.AnyHealthyReplica(context.Background()); !errors.Is(err, ErrResourceUnknown) {
		t.Fatalf("empty table: got %v, want ErrResourceUnknown", err)
	}

	// Storage nodes never join the replica rotation.
	table.Add(ResourceID{Type: StorageNode, Number: 1}, Endpoint{Host: "sn1", Port: 5000})
	if _, err := table.AnyHealthyReplica(context.Background()); !errors.Is(err, ErrResourceUnknown) {
		t.Fatalf("storage-only table: got %v, want ErrResourceUnknown", err)
	}

	table.Add(ResourceID{Type: ReplicaNode, Number: 3}, Endpoint{Host: "rn3", Port: 5010})
	ep, err := table.AnyHealthyReplica(context.Background())
	if err != nil {
		t.Fatalf("AnyHealthyReplica failed: %v", err)
	}
	if ep.Host != "rn3" {
		t.Fatalf("ep = %v", ep)
	}
}

func TestResourceTypeString(t *testing.T) {
	for rt := StorageNode; rt <= ClientAgent; rt++ {
		if rt.String() == "" {
			t.Errorf("type %d has no name", rt)
		}
	}
}
