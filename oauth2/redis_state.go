package oauth2

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisStatePrefix = "oauth2:state:"

var _ StateStore = &RedisStateStore{}

// RedisStateStore keeps pending state identifiers in Redis so any instance
// behind a load balancer can complete a login started on another.
//
// Entries expire through the Redis key TTL. Validate deletes the key, and
// only the caller whose DEL removed it succeeds.
type RedisStateStore struct {
	client  redis.Cmdable
	prefix  string
	timeout time.Duration
}

// NewRedisStateStore creates a store on client using the default key prefix.
func NewRedisStateStore(client redis.Cmdable) *RedisStateStore {
	return &RedisStateStore{
		client:  client,
		prefix:  defaultRedisStatePrefix,
		timeout: 2 * time.Second,
	}
}

// WithPrefix returns the store using prefix for its keys.
func (r *RedisStateStore) WithPrefix(prefix string) *RedisStateStore {
	r.prefix = prefix
	return r
}

func (r *RedisStateStore) key(id string) string {
	return r.prefix + id
}

// Store sets the key only if it does not exist, with a TTL ending at
// expiresAt. A duplicate id or an unreachable server yields false.
func (r *RedisStateStore) Store(id string, expiresAt time.Time) bool {
	if id == "" {
		return false
	}

	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	ok, err := r.client.SetNX(ctx, r.key(id), 1, ttl).Result()
	return err == nil && ok
}

// Validate deletes the key and reports whether this call removed it.
func (r *RedisStateStore) Validate(id string) bool {
	if id == "" {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	n, err := r.client.Del(ctx, r.key(id)).Result()
	return err == nil && n == 1
}
