package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// ServiceStore is the registry contract consumed by the dispatcher and the
// admin console. *Store and *CachedStore both satisfy it.
type ServiceStore interface {
	Lookup(ctx context.Context, serviceID string) (*ServiceRecord, error)
	ListAll(ctx context.Context) ([]*ServiceRecord, error)
	Create(ctx context.Context, rec *ServiceRecord) error
	Update(ctx context.Context, serviceID string, upd ServiceUpdate) (*ServiceRecord, error)
	Delete(ctx context.Context, serviceID string) error
}

// CachedStore provides a Redis read-through caching layer over a Store.
// Cache failures are never fatal: reads fall back to the database and
// mutations proceed regardless of invalidation errors.
type CachedStore struct {
	store *Store
	redis *redis.Client
	ttl   time.Duration
}

const listCacheKey = "services:list"

// NewCachedStore creates a Redis cache layer over the given store
func NewCachedStore(store *Store, redisAddr, password string, ttl time.Duration) (*CachedStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: password,
		DB:       0, // use default DB
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &CachedStore{
		store: store,
		redis: client,
		ttl:   ttl,
	}, nil
}

// Close closes the Redis connection
func (c *CachedStore) Close() error {
	return c.redis.Close()
}

// Redis exposes the underlying client for health checks
func (c *CachedStore) Redis() *redis.Client {
	return c.redis
}

func serviceCacheKey(serviceID string) string {
	return fmt.Sprintf("service:%s", serviceID)
}

// Lookup gets a service with caching. ErrNotFound results are not cached so
// a newly registered service becomes reachable immediately.
func (c *CachedStore) Lookup(ctx context.Context, serviceID string) (*ServiceRecord, error) {
	cacheKey := serviceCacheKey(serviceID)

	cached, err := c.redis.Get(ctx, cacheKey).Result()
	if err == nil {
		var rec ServiceRecord
		if err := json.Unmarshal([]byte(cached), &rec); err == nil {
			return &rec, nil
		}
	}

	rec, err := c.store.Lookup(ctx, serviceID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(rec); err == nil {
		c.redis.Set(ctx, cacheKey, data, c.ttl)
	}

	return rec, nil
}

// ListAll returns all services with caching
func (c *CachedStore) ListAll(ctx context.Context) ([]*ServiceRecord, error) {
	cached, err := c.redis.Get(ctx, listCacheKey).Result()
	if err == nil {
		var records []*ServiceRecord
		if err := json.Unmarshal([]byte(cached), &records); err == nil {
			return records, nil
		}
	}

	records, err := c.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(records); err == nil {
		c.redis.Set(ctx, listCacheKey, data, c.ttl)
	}

	return records, nil
}

// Create inserts a service and invalidates the list cache
func (c *CachedStore) Create(ctx context.Context, rec *ServiceRecord) error {
	if err := c.store.Create(ctx, rec); err != nil {
		return err
	}

	c.redis.Del(ctx, listCacheKey)
	return nil
}

// Update applies a partial update and invalidates affected cache entries
func (c *CachedStore) Update(ctx context.Context, serviceID string, upd ServiceUpdate) (*ServiceRecord, error) {
	rec, err := c.store.Update(ctx, serviceID, upd)
	if err != nil {
		return nil, err
	}

	c.redis.Del(ctx, serviceCacheKey(serviceID), listCacheKey)
	return rec, nil
}

// Delete removes a service and invalidates affected cache entries
func (c *CachedStore) Delete(ctx context.Context, serviceID string) error {
	if err := c.store.Delete(ctx, serviceID); err != nil {
		return err
	}

	c.redis.Del(ctx, serviceCacheKey(serviceID), listCacheKey)
	return nil
}
