package identity

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/restaurant-console/internal/domain"
)

// Cache stores successful resolutions by principal UID.
type Cache interface {
	Get(ctx context.Context, uid string) (*domain.ResolvedIdentity, bool, error)
	Set(ctx context.Context, identity *domain.ResolvedIdentity) error
	Delete(ctx context.Context, uid string) error
}

// RedisCache keeps resolved identities as JSON with a TTL.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCache builds a cache whose keys are prefix+uid.
func NewRedisCache(client *redis.Client, prefix string, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *RedisCache) key(uid string) string {
	return c.prefix + uid
}

// Get returns the cached identity, if any.
func (c *RedisCache) Get(ctx context.Context, uid string) (*domain.ResolvedIdentity, bool, error) {
	raw, err := c.client.Get(ctx, c.key(uid)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var identity domain.ResolvedIdentity
	if err := json.Unmarshal(raw, &identity); err != nil {
		return nil, false, err
	}
	return &identity, true, nil
}

// Set stores identity until the TTL expires.
func (c *RedisCache) Set(ctx context.Context, identity *domain.ResolvedIdentity) error {
	raw, err := json.Marshal(identity)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(identity.UID), raw, c.ttl).Err()
}

// Delete drops the cached identity.
func (c *RedisCache) Delete(ctx context.Context, uid string) error {
	return c.client.Del(ctx, c.key(uid)).Err()
}

// CachedResolver serves resolutions from a Cache and fills it on success.
// Failed lookups are never cached; cache errors fall through to the inner
// resolver.
type CachedResolver struct {
	inner  IdentityResolver
	cache  Cache
	logger *zap.Logger
}

// NewCachedResolver wraps inner with cache.
func NewCachedResolver(inner IdentityResolver, cache Cache, logger *zap.Logger) *CachedResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedResolver{inner: inner, cache: cache, logger: logger}
}

// Resolve implements IdentityResolver.
func (r *CachedResolver) Resolve(ctx context.Context, principal domain.Principal) (*domain.ResolvedIdentity, error) {
	cached, ok, err := r.cache.Get(ctx, principal.UID)
	if err != nil {
		r.logger.Warn("identity cache read failed", zap.String("uid", principal.UID), zap.Error(err))
	}
	if ok {
		return cached, nil
	}

	identity, err := r.inner.Resolve(ctx, principal)
	if err != nil {
		return identity, err
	}
	if err := r.cache.Set(ctx, identity); err != nil {
		r.logger.Warn("identity cache write failed", zap.String("uid", principal.UID), zap.Error(err))
	}
	return identity, nil
}

// Invalidate forgets a principal's cached identity.
func (r *CachedResolver) Invalidate(ctx context.Context, uid string) error {
	return r.cache.Delete(ctx, uid)
}
