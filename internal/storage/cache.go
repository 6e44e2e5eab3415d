package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/good-yellow-bee/countdown/internal/metrics"
	"github.com/good-yellow-bee/countdown/internal/models"
)

// ErrCacheMiss is returned by Cache.Get when the key does not exist.
var ErrCacheMiss = errors.New("cache miss")

// Cache is a byte-oriented key/value store with expiry.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Ping(ctx context.Context) error
}

// RedisCache implements Cache on a Redis client.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects to the Redis server at url and verifies it answers.
func NewRedisCache(ctx context.Context, url string) (*RedisCache, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opt)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return &RedisCache{client: client}, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	return b, err
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) Del(ctx context.Context, keys ...string) error {
	return c.client.Del(ctx, keys...).Err()
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// CachedTimerRepository is a read-through cache in front of a TimerRepository.
// Only the active listing of a shop is cached; any write for the shop drops
// its entry. Cache failures are logged and the call falls through to the
// wrapped repository.
type CachedTimerRepository struct {
	TimerRepository
	cache Cache
	ttl   time.Duration
}

// NewCachedTimerRepository wraps repo with cache. A non-positive ttl means 60s.
func NewCachedTimerRepository(repo TimerRepository, cache Cache, ttl time.Duration) *CachedTimerRepository {
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &CachedTimerRepository{TimerRepository: repo, cache: cache, ttl: ttl}
}

func activeKey(shop string) string {
	return "countdown:timers:active:" + shop
}

// ListActiveByShop serves the shop's enabled timers from the cache when present.
func (r *CachedTimerRepository) ListActiveByShop(ctx context.Context, shop string) ([]*models.Timer, error) {
	key := activeKey(shop)

	b, err := r.cache.Get(ctx, key)
	switch {
	case err == nil:
		var timers []*models.Timer
		if jsonErr := json.Unmarshal(b, &timers); jsonErr == nil && timers != nil {
			metrics.CacheRequestsTotal.WithLabelValues("hit").Inc()
			return timers, nil
		}
		slog.Warn("discarding undecodable cache entry", "key", key)
		metrics.CacheRequestsTotal.WithLabelValues("error").Inc()
	case errors.Is(err, ErrCacheMiss):
		metrics.CacheRequestsTotal.WithLabelValues("miss").Inc()
	default:
		slog.Warn("cache get failed", "key", key, "error", err)
		metrics.CacheRequestsTotal.WithLabelValues("error").Inc()
	}

	timers, err := r.TimerRepository.ListActiveByShop(ctx, shop)
	if err != nil {
		return nil, err
	}

	if b, err := json.Marshal(timers); err == nil {
		if err := r.cache.Set(ctx, key, b, r.ttl); err != nil {
			slog.Warn("cache set failed", "key", key, "error", err)
		}
	}
	return timers, nil
}

func (r *CachedTimerRepository) Create(ctx context.Context, timer *models.Timer) error {
	if err := r.TimerRepository.Create(ctx, timer); err != nil {
		return err
	}
	r.invalidate(ctx, timer.Shop)
	return nil
}

func (r *CachedTimerRepository) Update(ctx context.Context, timer *models.Timer) error {
	if err := r.TimerRepository.Update(ctx, timer); err != nil {
		return err
	}
	r.invalidate(ctx, timer.Shop)
	return nil
}

func (r *CachedTimerRepository) Delete(ctx context.Context, shop, id string) (bool, error) {
	deleted, err := r.TimerRepository.Delete(ctx, shop, id)
	if err != nil {
		return false, err
	}
	if deleted {
		r.invalidate(ctx, shop)
	}
	return deleted, nil
}

func (r *CachedTimerRepository) invalidate(ctx context.Context, shop string) {
	if err := r.cache.Del(ctx, activeKey(shop)); err != nil {
		slog.Warn("cache invalidation failed", "shop", shop, "error", err)
	}
}
