package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const replaceIfPresentScript = `
local cur = redis.call("GET", KEYS[1])
if not cur then
  return 0
end
if tonumber(ARGV[2]) > 0 then
  redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[2])
else
  redis.call("SET", KEYS[1], ARGV[1])
end
return 1
`

var replaceIfPresentLua = redis.NewScript(replaceIfPresentScript)

// RedisStore is the persistent session store. Every replica node reaches the
// same backing Redis deployment, which is what makes persistent-scope
// sessions resolvable store-wide.
type RedisStore struct {
	client   redis.UniversalClient
	prefix   string
	encoding Encoding
}

// NewRedisStore creates a store writing record blobs with the given
// encoding under prefix-derived keys.
func NewRedisStore(client redis.UniversalClient, prefix string, encoding Encoding) *RedisStore {
	if prefix == "" {
		prefix = "kvs"
	}
	return &RedisStore{client: client, prefix: prefix, encoding: encoding}
}

// Save implements Store. The key TTL tracks the record expiration so the
// backend reclaims expired sessions without a sweep.
func (s *RedisStore) Save(ctx context.Context, rec *Record) error {
	key, err := storeKeyOf(s.prefix, rec.ID())
	if err != nil {
		return err
	}
	blob, err := EncodeRecord(rec, s.encoding)
	if err != nil {
		return err
	}
	var ttl time.Duration
	if exp := rec.ExpireAt(); exp != 0 {
		ttl = time.Until(time.UnixMilli(exp))
		if ttl <= 0 {
			return fmt.Errorf("record already expired at %d", exp)
		}
	}
	if err := s.client.Set(ctx, key, blob, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, id ID) (*Record, error) {
	key, err := storeKeyOf(s.prefix, id)
	if err != nil {
		return nil, err
	}
	blob, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return DecodeRecord(blob)
}

// UpdateExpiry implements Store. The replacement is atomic with respect to
// logout: a record deleted between the read and the write stays deleted.
func (s *RedisStore) UpdateExpiry(ctx context.Context, id ID, expireAt int64) (*Record, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	rec.SetExpireAt(expireAt)
	if err := s.replaceIfPresent(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// UpdateSubject implements Store.
func (s *RedisStore) UpdateSubject(ctx context.Context, id ID, subject *Subject) error {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	rec.SetSubject(subject)
	return s.replaceIfPresent(ctx, rec)
}

func (s *RedisStore) replaceIfPresent(ctx context.Context, rec *Record) error {
	key, err := storeKeyOf(s.prefix, rec.ID())
	if err != nil {
		return err
	}
	blob, err := EncodeRecord(rec, s.encoding)
	if err != nil {
		return err
	}
	var ttlMillis int64
	if exp := rec.ExpireAt(); exp != 0 {
		ttlMillis = exp - time.Now().UnixMilli()
		if ttlMillis <= 0 {
			return ErrSessionNotFound
		}
	}
	res, err := replaceIfPresentLua.Run(ctx, s.client, []string{key}, blob, ttlMillis).Int64()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if res == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// Delete implements Store. Deleting an absent key is a success.
func (s *RedisStore) Delete(ctx context.Context, id ID) error {
	key, err := storeKeyOf(s.prefix, id)
	if err != nil {
		return err
	}
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}
