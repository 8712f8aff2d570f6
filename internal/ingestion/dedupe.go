package ingestion

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Deduper remembers event ids.
type Deduper interface {
	// MarkSeen records id and reports whether it was new.
	MarkSeen(ctx context.Context, id string) (bool, error)
}

// MemoryDeduper is an unbounded in-process Deduper.
type MemoryDeduper struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewMemoryDeduper creates an empty MemoryDeduper.
func NewMemoryDeduper() *MemoryDeduper {
	return &MemoryDeduper{seen: make(map[string]struct{})}
}

// MarkSeen implements Deduper.
func (d *MemoryDeduper) MarkSeen(_ context.Context, id string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.seen[id]; ok {
		return false, nil
	}
	d.seen[id] = struct{}{}
	return true, nil
}

// RedisDeduper shares seen ids across instances with SETNX and a TTL.
type RedisDeduper struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisDeduper creates a RedisDeduper. A zero ttl means 24h.
func NewRedisDeduper(client *redis.Client, prefix string, ttl time.Duration) *RedisDeduper {
	if prefix == "" {
		prefix = "attribution:event:"
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisDeduper{client: client, prefix: prefix, ttl: ttl}
}

// MarkSeen implements Deduper.
func (d *RedisDeduper) MarkSeen(ctx context.Context, id string) (bool, error) {
	return d.client.SetNX(ctx, d.prefix+id, 1, d.ttl).Result()
}
