// Package cache provides reference-list caches with explicit freshness.
//
// An entry is fresh for its TTL, then stale until twice the TTL has passed,
// after which it is gone. Stale entries let callers keep serving the last good
// list while the backend is unreachable.
package cache

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/garyjia/escrow-portal/internal/domain/entity"
)

// staleFactor bounds how long an entry outlives its TTL
const staleFactor = 2

// MemoryCache is an in-process LRU cache with TTL freshness
type MemoryCache struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	now     func() time.Time
	items   map[string]*list.Element
	lru     *list.List
}

type memoryItem struct {
	key      string
	value    []entity.Record
	storedAt time.Time
}

// NewMemoryCache creates a cache holding at most maxSize keys
func NewMemoryCache(maxSize int, ttl time.Duration) *MemoryCache {
	if maxSize <= 0 {
		maxSize = 1
	}
	return &MemoryCache{
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
		items:   make(map[string]*list.Element),
		lru:     list.New(),
	}
}

// Get returns the cached list and whether it is still within its TTL
func (c *MemoryCache) Get(_ context.Context, key string) ([]entity.Record, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, exists := c.items[key]
	if !exists {
		return nil, false
	}

	item := elem.Value.(*memoryItem)
	age := c.now().Sub(item.storedAt)
	if age >= staleFactor*c.ttl {
		c.removeElement(elem)
		return nil, false
	}

	c.lru.MoveToFront(elem)
	return cloneRecords(item.value), age < c.ttl
}

// Set stores a list, evicting the least recently used key when full
func (c *MemoryCache) Set(_ context.Context, key string, value []entity.Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	item := &memoryItem{key: key, value: cloneRecords(value), storedAt: c.now()}

	if elem, exists := c.items[key]; exists {
		elem.Value = item
		c.lru.MoveToFront(elem)
		return nil
	}

	c.items[key] = c.lru.PushFront(item)
	if c.lru.Len() > c.maxSize {
		if oldest := c.lru.Back(); oldest != nil {
			c.removeElement(oldest)
		}
	}
	return nil
}

// Invalidate drops a key
func (c *MemoryCache) Invalidate(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, exists := c.items[key]; exists {
		c.removeElement(elem)
	}
	return nil
}

// CleanExpired removes entries past their stale window and returns how many
func (c *MemoryCache) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	var toRemove []*list.Element
	for elem := c.lru.Front(); elem != nil; elem = elem.Next() {
		if now.Sub(elem.Value.(*memoryItem).storedAt) >= staleFactor*c.ttl {
			toRemove = append(toRemove, elem)
		}
	}
	for _, elem := range toRemove {
		c.removeElement(elem)
	}
	return len(toRemove)
}

// Size returns the number of cached keys
func (c *MemoryCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *MemoryCache) removeElement(elem *list.Element) {
	delete(c.items, elem.Value.(*memoryItem).key)
	c.lru.Remove(elem)
}

// cloneRecords copies the slice so callers cannot reorder cached contents.
// A nil input becomes an empty list so a cached empty result is not a miss.
func cloneRecords(in []entity.Record) []entity.Record {
	out := make([]entity.Record, len(in))
	copy(out, in)
	return out
}
