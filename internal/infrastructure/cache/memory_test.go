package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/escrow-portal/internal/domain/entity"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestMemoryCache(size int, ttl time.Duration) (*MemoryCache, *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := NewMemoryCache(size, ttl)
	c.now = clock.now
	return c, clock
}

func homeowners(names ...string) []entity.Record {
	out := make([]entity.Record, 0, len(names))
	for _, n := range names {
		out = append(out, entity.Record{"name": n})
	}
	return out
}

func TestMemoryCache_Freshness(t *testing.T) {
	ctx := context.Background()
	c, clock := newTestMemoryCache(10, time.Minute)

	value, fresh := c.Get(ctx, "homeowners")
	assert.Nil(t, value)
	assert.False(t, fresh)

	require.NoError(t, c.Set(ctx, "homeowners", homeowners("Dana", "Lee")))

	value, fresh = c.Get(ctx, "homeowners")
	assert.Len(t, value, 2)
	assert.True(t, fresh)

	clock.advance(90 * time.Second)
	value, fresh = c.Get(ctx, "homeowners")
	assert.Len(t, value, 2, "stale value is still served")
	assert.False(t, fresh)

	clock.advance(time.Minute)
	value, fresh = c.Get(ctx, "homeowners")
	assert.Nil(t, value)
	assert.False(t, fresh)
	assert.Equal(t, 0, c.Size())
}

func TestMemoryCache_EmptyListIsAHit(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestMemoryCache(10, time.Minute)

	require.NoError(t, c.Set(ctx, "homeowners", nil))
	value, fresh := c.Get(ctx, "homeowners")
	assert.NotNil(t, value)
	assert.Empty(t, value)
	assert.True(t, fresh)
}

func TestMemoryCache_Invalidate(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestMemoryCache(10, time.Minute)

	require.NoError(t, c.Set(ctx, "homeowners", homeowners("Dana")))
	require.NoError(t, c.Invalidate(ctx, "homeowners"))
	require.NoError(t, c.Invalidate(ctx, "missing"))

	value, _ := c.Get(ctx, "homeowners")
	assert.Nil(t, value)
}

func TestMemoryCache_EvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestMemoryCache(2, time.Minute)

	require.NoError(t, c.Set(ctx, "a", homeowners("A")))
	require.NoError(t, c.Set(ctx, "b", homeowners("B")))
	c.Get(ctx, "a")
	require.NoError(t, c.Set(ctx, "c", homeowners("C")))

	assert.Equal(t, 2, c.Size())
	value, _ := c.Get(ctx, "b")
	assert.Nil(t, value)
	value, _ = c.Get(ctx, "a")
	assert.NotNil(t, value)
}

func TestMemoryCache_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestMemoryCache(10, time.Minute)

	src := homeowners("A", "B")
	require.NoError(t, c.Set(ctx, "k", src))
	src[0] = entity.Record{"name": "mutated"}

	got, _ := c.Get(ctx, "k")
	got[1] = entity.Record{"name": "also mutated"}

	again, _ := c.Get(ctx, "k")
	assert.Equal(t, "A", again[0].String("name"))
	assert.Equal(t, "B", again[1].String("name"))
}

func TestMemoryCache_CleanExpired(t *testing.T) {
	ctx := context.Background()
	c, clock := newTestMemoryCache(10, time.Minute)

	require.NoError(t, c.Set(ctx, "old", homeowners("A")))
	clock.advance(90 * time.Second)
	require.NoError(t, c.Set(ctx, "new", homeowners("B")))
	clock.advance(time.Minute)

	assert.Equal(t, 1, c.CleanExpired())
	assert.Equal(t, 1, c.Size())
}
