package session

import (
	"context"
	"sync"
	"time"

	"github.com/decorhub/decorhub/pkg/cache"
)

// Store keeps session data server-side, keyed by session id.
type Store interface {
	// Load returns the data for id; found is false for unknown or expired ids.
	Load(ctx context.Context, id string) (data map[string]interface{}, found bool, err error)
	Save(ctx context.Context, id string, data map[string]interface{}, ttl time.Duration) error
	Destroy(ctx context.Context, id string) error
	// Driver names the backend for metrics ("redis" | "memory").
	Driver() string
}

// ------------------- Redis -------------------

// RedisStore keeps sessions in Redis with native key expiry.
type RedisStore struct {
	c *cache.Cache
}

func NewRedisStore(c *cache.Cache) *RedisStore { return &RedisStore{c: c} }

func redisKey(id string) string { return "session:" + id }

func (s *RedisStore) Load(ctx context.Context, id string) (map[string]interface{}, bool, error) {
	var data map[string]interface{}
	found, err := s.c.Get(ctx, redisKey(id), &data)
	if err != nil || !found {
		return nil, false, err
	}
	return data, true, nil
}

func (s *RedisStore) Save(ctx context.Context, id string, data map[string]interface{}, ttl time.Duration) error {
	return s.c.Set(ctx, redisKey(id), data, ttl)
}

func (s *RedisStore) Destroy(ctx context.Context, id string) error {
	return s.c.Del(ctx, redisKey(id))
}

func (s *RedisStore) Driver() string { return "redis" }

// ------------------- Memory -------------------

type memoryEntry struct {
	data    map[string]interface{}
	expires time.Time
}

// MemoryStore is a process-local store for development and tests. Expired
// entries are dropped lazily on Load and by Sweep.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: map[string]memoryEntry{}, now: time.Now}
}

// WithClock replaces the time source; tests use it to expire sessions.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.now = now
	return s
}

func (s *MemoryStore) Load(_ context.Context, id string) (map[string]interface{}, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return nil, false, nil
	}
	if !s.now().Before(e.expires) {
		delete(s.entries, id)
		return nil, false, nil
	}
	return copyData(e.data), true, nil
}

func (s *MemoryStore) Save(_ context.Context, id string, data map[string]interface{}, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[id] = memoryEntry{data: copyData(data), expires: s.now().Add(ttl)}
	return nil
}

func (s *MemoryStore) Destroy(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	return nil
}

func (s *MemoryStore) Driver() string { return "memory" }

// Sweep drops every expired entry.
func (s *MemoryStore) Sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for id, e := range s.entries {
		if !now.Before(e.expires) {
			delete(s.entries, id)
		}
	}
}

func copyData(in map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
