package auth

import (
	"context"
	"sync"
	"time"
)

// RevocationStore remembers token ids invalidated by logout until they expire.
type RevocationStore interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

const revokedKeyPrefix = "auth:revoked:"

// FlagStore is the slice of a key-value store the deny-list needs.
// persistence.Redis implements it.
type FlagStore interface {
	SetFlag(ctx context.Context, key string, ttl time.Duration) error
	HasFlag(ctx context.Context, key string) (bool, error)
}

type flagRevocationStore struct {
	flags FlagStore
}

// NewRedisRevocationStore keeps revoked token ids in Redis with a TTL.
func NewRedisRevocationStore(flags FlagStore) RevocationStore {
	return &flagRevocationStore{flags: flags}
}

func (s *flagRevocationStore) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if jti == "" || ttl <= 0 {
		return nil
	}
	return s.flags.SetFlag(ctx, revokedKeyPrefix+jti, ttl)
}

func (s *flagRevocationStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	return s.flags.HasFlag(ctx, revokedKeyPrefix+jti)
}

type memoryRevocationStore struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

// NewMemoryRevocationStore is used when Redis is unavailable and in tests.
func NewMemoryRevocationStore() RevocationStore {
	return &memoryRevocationStore{revoked: make(map[string]time.Time), now: time.Now}
}

func (s *memoryRevocationStore) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	if jti == "" || ttl <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[jti] = s.now().Add(ttl)
	return nil
}

func (s *memoryRevocationStore) IsRevoked(_ context.Context, jti string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	until, ok := s.revoked[jti]
	if !ok {
		return false, nil
	}
	if s.now().After(until) {
		delete(s.revoked, jti)
		return false, nil
	}
	return true, nil
}
