package words

import (
	"context"
	"sync"
	"time"
)

// DefaultTTL matches the original content cache window.
const DefaultTTL = 5 * time.Minute

// Cache wraps a Provider and serves a cached catalog for up to TTL.
// Content edits call Invalidate to force a refetch on the next read.
type Cache struct {
	provider Provider
	ttl      time.Duration
	now      func() time.Time

	mu        sync.Mutex
	catalog   Catalog
	fetchedAt time.Time
}

// NewCache creates a cache around provider. A ttl of zero uses DefaultTTL.
func NewCache(provider Provider, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		provider: provider,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Get returns the cached catalog, refetching from the provider when the
// cache is empty or stale. A failed refetch leaves any previous catalog
// in place and returns the error.
func (c *Cache) Get(ctx context.Context) (Catalog, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.fetchedAt.IsZero() && c.now().Sub(c.fetchedAt) < c.ttl {
		return c.catalog, nil
	}

	catalog, err := c.provider.Words(ctx)
	if err != nil {
		if !c.fetchedAt.IsZero() {
			return c.catalog, nil
		}
		return Catalog{}, err
	}

	c.catalog = catalog
	c.fetchedAt = c.now()

	return catalog, nil
}

// Invalidate drops the cached catalog so the next Get refetches.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.fetchedAt = time.Time{}
	c.mu.Unlock()
}
