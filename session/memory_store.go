package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps local-scope session records in process memory. Updates
// mutate the shared record in place, so changes are visible to concurrent
// validators as soon as the record's own lock releases.
//
// A background sweep reclaims expired records; Redis handles that with key
// TTLs, here it has to be explicit.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Record

	sweepStop chan struct{}
	sweepOnce sync.Once
}

// NewMemoryStore creates a store sweeping expired records every interval.
// An interval of 0 disables the sweep (records still read as expired; they
// are just not reclaimed eagerly).
func NewMemoryStore(sweepInterval time.Duration) *MemoryStore {
	s := &MemoryStore{
		records:   make(map[string]*Record),
		sweepStop: make(chan struct{}),
	}
	if sweepInterval > 0 {
		go s.sweepLoop(sweepInterval)
	}
	return s
}

// Close stops the sweep goroutine. Idempotent.
func (s *MemoryStore) Close() {
	s.sweepOnce.Do(func() { close(s.sweepStop) })
}

func (s *MemoryStore) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.sweep(time.Now().UnixMilli())
		case <-s.sweepStop:
			return
		}
	}
}

func (s *MemoryStore) sweep(nowMillis int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, rec := range s.records {
		if rec.IsExpired(nowMillis) {
			delete(s.records, key)
		}
	}
}

// Save implements Store.
func (s *MemoryStore) Save(_ context.Context, rec *Record) error {
	key, err := storeKeyOf("mem", rec.ID())
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[key] = rec
	return nil
}

// Get implements Store. Expired records read as absent even before the
// sweep reclaims them.
func (s *MemoryStore) Get(_ context.Context, id ID) (*Record, error) {
	key, err := storeKeyOf("mem", id)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	rec, ok := s.records[key]
	s.mu.RUnlock()
	if !ok || rec.IsExpired(time.Now().UnixMilli()) {
		return nil, ErrSessionNotFound
	}
	return rec, nil
}

// UpdateExpiry implements Store.
func (s *MemoryStore) UpdateExpiry(ctx context.Context, id ID, expireAt int64) (*Record, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	rec.SetExpireAt(expireAt)
	return rec, nil
}

// UpdateSubject implements Store.
func (s *MemoryStore) UpdateSubject(ctx context.Context, id ID, subject *Subject) error {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	rec.SetSubject(subject)
	return nil
}

// Delete implements Store. Idempotent.
func (s *MemoryStore) Delete(_ context.Context, id ID) error {
	key, err := storeKeyOf("mem", id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key)
	return nil
}
