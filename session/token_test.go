package session

import (
	"bytes"
	"testing"
	"time"

	"github.com/oracle/nosql-kvauth/topology"
)

func mustPersistentID(t *testing.T, value []byte) ID {
	t.Helper()

	id, err := NewPersistentID(value)
	if err != nil {
		t.Fatalf("NewPersistentID failed: %v", err)
	}
	return id
}

func mustStoreID(t *testing.T, value []byte, alloc topology.ResourceID) ID {
	t.Helper()

	id, err := NewStoreID(value, alloc)
	if err != nil {
		t.Fatalf("NewStoreID failed: %v", err)
	}
	return id
}

func TestTokenRoundTripAllIDLengths(t *testing.T) {
	expirations := []int64{0, 1, time.Now().UnixMilli(), 1<<62 + 12345}
	alloc := topology.ResourceID{Type: topology.ReplicaNode, Number: 42}

	for length := 0; length <= MaxIDBytes; length++ {
		value := make([]byte, length)
		for i := range value {
			value[i] = byte(i * 7)
		}

		for _, expireAt := range expirations {
			for _, tok := range []*Token{
				NewToken(mustPersistentID(t, value), expireAt),
				NewToken(mustStoreID(t, value, alloc), expireAt),
			} {
				data, err := tok.Encode()
				if err != nil {
					t.Fatalf("len=%d expire=%d: Encode failed: %v", length, expireAt, err)
				}
				decoded, err := DecodeToken(data)
				if err != nil {
					t.Fatalf("len=%d expire=%d: DecodeToken failed: %v", length, expireAt, err)
				}
				if !decoded.Equal(tok) {
					t.Fatalf("len=%d expire=%d: round trip mismatch", length, expireAt)
				}
			}
		}
	}
}

func TestTokenHexRoundTrip(t *testing.T) {
	tok := NewToken(mustPersistentID(t, []byte("opaque-session-value")), 1234567890123)

	hexStr, err := tok.EncodeHex()
	if err != nil {
		t.Fatalf("EncodeHex failed: %v", err)
	}
	decoded, err := DecodeHex(hexStr)
	if err != nil {
		t.Fatalf("DecodeHex failed: %v", err)
	}
	if !decoded.Equal(tok) {
		t.Fatal("hex round trip mismatch")
	}
}

func TestDecodeTokenRejectsTrailingBytes(t *testing.T) {
	tok := NewToken(mustPersistentID(t, []byte{1, 2, 3}), 99)
	data, err := tok.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	if _, err := DecodeToken(append(data, 0x00)); err == nil {
		t.Fatal("expected trailing bytes to be rejected")
	}
}

func TestDecodeTokenRejectsGarbage(t *testing.T) {
	for _, data := range [][]byte{nil, {}, {0xff}, bytes.Repeat([]byte{0xab}, 4)} {
		if _, err := DecodeToken(data); err == nil {
			t.Fatalf("expected decode of %x to fail", data)
		}
	}
}

func TestTokenExpiryBoundary(t *testing.T) {
	now := time.Now().UnixMilli()
	id := mustPersistentID(t, []byte("x"))

	if !NewToken(id, now).ExpiredAt(now) {
		t.Fatal("token expiring exactly now must be expired")
	}
	if !NewToken(id, now-1).ExpiredAt(now) {
		t.Fatal("token expiring 1ms ago must be expired")
	}
	if NewToken(id, now+1).ExpiredAt(now) {
		t.Fatal("token expiring 1ms from now must not be expired")
	}
	if NewToken(id, 0).ExpiredAt(1 << 62) {
		t.Fatal("zero-expiration token must never expire")
	}
}

func TestTokenEqual(t *testing.T) {
	id := mustPersistentID(t, []byte("same"))
	other := mustPersistentID(t, []byte("other"))

	a := NewToken(id, 100)
	if !a.Equal(NewToken(id, 100)) {
		t.Fatal("identical tokens must be equal")
	}
	if a.Equal(NewToken(id, 101)) {
		t.Fatal("different expirations must not be equal")
	}
	if a.Equal(NewToken(other, 100)) {
		t.Fatal("different identities must not be equal")
	}
	if a.Equal(nil) {
		t.Fatal("non-nil token must not equal nil")
	}
}
