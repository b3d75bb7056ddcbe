package memory

import (
	"context"
	"strings"
	"time"

	"taskmanagement/internal/core/port"

	gocache "github.com/patrickmn/go-cache"
)

type memoryRepository struct {
	cache *gocache.Cache
}

// NewMemoryRepository keeps entries in process. defaultTTL applies when Set
// is called with a zero ttl.
func NewMemoryRepository(defaultTTL time.Duration) port.CacheRepository {
	return &memoryRepository{
		cache: gocache.New(defaultTTL, 2*defaultTTL),
	}
}

func (c *memoryRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}

	c.cache.Set(key, value, ttl)

	return nil
}

func (c *memoryRepository) Get(ctx context.Context, key string) ([]byte, error) {
	value, found := c.cache.Get(key)

	if !found {
		return nil, port.ErrCacheMiss
	}

	return value.([]byte), nil
}

func (c *memoryRepository) Delete(ctx context.Context, key string) error {
	c.cache.Delete(key)
	return nil
}

func (c *memoryRepository) DeleteByPrefix(ctx context.Context, prefix string) error {
	for key := range c.cache.Items() {
		if strings.HasPrefix(key, prefix) {
			c.cache.Delete(key)
		}
	}

	return nil
}

func (c *memoryRepository) Close() error {
	c.cache.Flush()
	return nil
}
