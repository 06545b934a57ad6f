package session

import (
	"testing"
	"time"
)

func TestRecordExpiryBoundary(t *testing.T) {
	now := time.Now().UnixMilli()
	id := mustPersistentID(t, []byte("r"))
	subject := &Subject{Principal: "alice"}

	rec := NewRecord(id, subject, "", now, true)
	if !rec.IsExpired(now) {
		t.Fatal("record expiring exactly now must be expired")
	}

	rec = NewRecord(id, subject, "", now-1, true)
	if !rec.IsExpired(now) {
		t.Fatal("record 1ms past expiration must be expired")
	}

	rec = NewRecord(id, subject, "", 0, true)
	if rec.IsExpired(1 << 62) {
		t.Fatal("zero-expiration record must never expire")
	}
}

func TestRecordExpiryTracksUpdates(t *testing.T) {
	now := time.Now().UnixMilli()
	rec := NewRecord(mustPersistentID(t, []byte("r")), &Subject{Principal: "a"}, "", now-1, true)

	if !rec.IsExpired(now) {
		t.Fatal("expected expired record")
	}
	rec.SetExpireAt(now + time.Hour.Milliseconds())
	if rec.IsExpired(now) {
		t.Fatal("extension must be visible immediately")
	}
}

func TestRecordTokenMatchesState(t *testing.T) {
	id := mustPersistentID(t, []byte("tok"))
	rec := NewRecord(id, &Subject{Principal: "a"}, "", 5000, true)

	tok := rec.Token()
	if !tok.ID().Equal(id) {
		t.Fatal("token identity mismatch")
	}
	if tok.ExpireAt() != 5000 {
		t.Fatalf("token expiration = %d, want 5000", tok.ExpireAt())
	}
}

func TestSubjectCloneIsDeep(t *testing.T) {
	s := &Subject{Principal: "a", Roles: []string{"r1", "r2"}}
	c := s.Clone()
	c.Roles[0] = "mutated"
	if s.Roles[0] != "r1" {
		t.Fatal("clone must not share the role slice")
	}
}
