package geocode

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/example/sitter-hub/internal/models"
)

// Cache stores resolved coordinates keyed by the raw address string, so
// re-registrations and address edits don't hammer the provider.
type Cache interface {
	Get(ctx context.Context, address string) (models.Coordinate, bool)
	Set(ctx context.Context, address string, coord models.Coordinate)
}

// MemoryCache is a TTL map cache for single-process deployments.
type MemoryCache struct {
	mu    sync.RWMutex
	store map[string]memoryEntry
	ttl   time.Duration
}

type memoryEntry struct {
	coord models.Coordinate
	ts    time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{store: make(map[string]memoryEntry), ttl: ttl}
}

func (c *MemoryCache) Get(_ context.Context, address string) (models.Coordinate, bool) {
	c.mu.RLock()
	e, ok := c.store[address]
	c.mu.RUnlock()
	if !ok {
		return models.Coordinate{}, false
	}
	if time.Since(e.ts) > c.ttl {
		c.mu.Lock()
		delete(c.store, address)
		c.mu.Unlock()
		return models.Coordinate{}, false
	}
	return e.coord, true
}

func (c *MemoryCache) Set(_ context.Context, address string, coord models.Coordinate) {
	c.mu.Lock()
	c.store[address] = memoryEntry{coord: coord, ts: time.Now()}
	c.mu.Unlock()
}

// RedisCache shares resolved addresses across processes.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(addr, password string, ttl time.Duration) *RedisCache {
	c := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	return &RedisCache{client: c, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, address string) (models.Coordinate, bool) {
	v, err := c.client.Get(ctx, cacheKey(address)).Result()
	if err != nil {
		return models.Coordinate{}, false
	}
	parts := strings.SplitN(v, ",", 2)
	if len(parts) != 2 {
		return models.Coordinate{}, false
	}
	lat, err1 := strconv.ParseFloat(parts[0], 64)
	lng, err2 := strconv.ParseFloat(parts[1], 64)
	if err1 != nil || err2 != nil {
		return models.Coordinate{}, false
	}
	return models.NewCoordinate(lat, lng), true
}

func (c *RedisCache) Set(ctx context.Context, address string, coord models.Coordinate) {
	if !coord.Resolved() {
		return
	}
	v := fmt.Sprintf("%.7f,%.7f", *coord.Lat, *coord.Lng)
	_ = c.client.Set(ctx, cacheKey(address), v, c.ttl).Err()
}

func cacheKey(address string) string { return "geocode:" + address }
