package memory

import (
	"container/list"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure QueryCache implements the interface.
var _ driven.QueryCache = (*QueryCache)(nil)

// Cache defaults.
const (
	DefaultCacheCapacity = 512
	DefaultCacheTTL      = 10 * time.Minute
)

type cacheEntry struct {
	key     string
	value   *domain.QueryResult
	expires time.Time
	element *list.Element
}

// QueryCache is a bounded LRU of query results with per-entry expiry.
type QueryCache struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	items    map[string]*cacheEntry
	order    *list.List
	now      func() time.Time
}

// NewQueryCache creates a cache. Non-positive arguments use the defaults.
func NewQueryCache(capacity int, ttl time.Duration) *QueryCache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &QueryCache{
		capacity: capacity,
		ttl:      ttl,
		items:    make(map[string]*cacheEntry, capacity),
		order:    list.New(),
		now:      time.Now,
	}
}

// Get returns a copy of the cached result if present and unexpired.
func (c *QueryCache) Get(key string) (*domain.QueryResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ent, ok := c.items[key]
	if !ok {
		return nil, false
	}
	if !c.now().Before(ent.expires) {
		c.remove(ent)
		return nil, false
	}
	c.order.MoveToFront(ent.element)
	return ent.value.Clone(), true
}

// Put stores a copy of result. Nil results are ignored.
func (c *QueryCache) Put(key string, result *domain.QueryResult, ttl time.Duration) {
	if result == nil {
		return
	}
	if ttl <= 0 {
		ttl = c.ttl
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	expires := c.now().Add(ttl)
	if ent, ok := c.items[key]; ok {
		ent.value = result.Clone()
		ent.expires = expires
		c.order.MoveToFront(ent.element)
		return
	}

	if len(c.items) >= c.capacity {
		if oldest := c.order.Back(); oldest != nil {
			c.remove(c.items[oldest.Value.(string)])
		}
	}

	c.items[key] = &cacheEntry{
		key:     key,
		value:   result.Clone(),
		expires: expires,
		element: c.order.PushFront(key),
	}
}

// EvictAll drops every entry.
func (c *QueryCache) EvictAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*cacheEntry, c.capacity)
	c.order.Init()
}

// Len returns the number of unexpired entries.
func (c *QueryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	n := 0
	for _, ent := range c.items {
		if now.Before(ent.expires) {
			n++
		}
	}
	return n
}

func (c *QueryCache) remove(ent *cacheEntry) {
	if ent == nil {
		return
	}
	c.order.Remove(ent.element)
	delete(c.items, ent.key)
}
