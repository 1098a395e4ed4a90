package auth

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCodeStore backs ConsumedCodeStore with Redis so single-use
// enforcement survives restarts and is shared across replicas.
type RedisCodeStore struct {
	client *redis.Client
}

func NewRedisCodeStore(client *redis.Client) *RedisCodeStore {
	return &RedisCodeStore{client: client}
}

func (s *RedisCodeStore) Consume(ctx context.Context, codeID string, ttl time.Duration) (bool, error) {
	// SETNX: the first caller claims the code, later callers see it taken.
	// The key only needs to outlive the code itself, so it expires with it.
	return s.client.SetNX(ctx, "confirmation:used:"+codeID, 1, ttl).Result()
}

// MemoryCodeStore is an in-process ConsumedCodeStore for tests and
// single-instance development runs.
type MemoryCodeStore struct {
	mu   sync.Mutex
	used map[string]time.Time
	now  func() time.Time
}

func NewMemoryCodeStore(now func() time.Time) *MemoryCodeStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryCodeStore{used: make(map[string]time.Time), now: now}
}

func (s *MemoryCodeStore) Consume(_ context.Context, codeID string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, expiry := range s.used {
		if !now.Before(expiry) {
			delete(s.used, id)
		}
	}

	if _, ok := s.used[codeID]; ok {
		return false, nil
	}
	s.used[codeID] = now.Add(ttl)
	return true, nil
}
