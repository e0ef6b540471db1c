package words

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingProvider struct {
	calls   int
	catalog Catalog
	err     error
}

func (p *countingProvider) Words(context.Context) (Catalog, error) {
	p.calls++
	if p.err != nil {
		return Catalog{}, p.err
	}
	return p.catalog, nil
}

func TestCache_ServesWithinTTL(t *testing.T) {
	p := &countingProvider{catalog: catalogOf(2, 2, 2)}
	c := NewCache(p, time.Minute)

	now := time.Now()
	c.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		_, err := c.Get(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, 1, p.calls, "repeated reads within the TTL must hit the cache")

	now = now.Add(2 * time.Minute)
	_, err := c.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, p.calls, "a read past the TTL must refetch")
}

func TestCache_Invalidate(t *testing.T) {
	p := &countingProvider{catalog: catalogOf(1, 1, 1)}
	c := NewCache(p, time.Minute)

	_, err := c.Get(context.Background())
	require.NoError(t, err)

	c.Invalidate()

	_, err = c.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, p.calls)
}

func TestCache_KeepsStaleOnError(t *testing.T) {
	p := &countingProvider{catalog: catalogOf(3, 0, 0)}
	c := NewCache(p, time.Minute)

	now := time.Now()
	c.now = func() time.Time { return now }

	first, err := c.Get(context.Background())
	require.NoError(t, err)

	p.err = errors.New("provider down")
	now = now.Add(2 * time.Minute)

	second, err := c.Get(context.Background())
	require.NoError(t, err, "a failed refetch must fall back to the stale catalog")
	assert.Len(t, second.Easy, len(first.Easy))
}

func TestCache_ErrorWithNothingCached(t *testing.T) {
	p := &countingProvider{err: errors.New("provider down")}
	c := NewCache(p, time.Minute)

	_, err := c.Get(context.Background())
	assert.Error(t, err)
}
