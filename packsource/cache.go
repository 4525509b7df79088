package packsource

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/lexgo/resource"
)

// CacheKey identifies one cached block of one pack file.
// Packs are immutable, so a key never goes stale.
type CacheKey struct {
	// Path is the pack file name as passed to Source.Open.
	Path string
	// Block is the block index within the file (byte offset / block size).
	Block uint64
}

// BlockCache is a byte-oriented cache for immutable blocks.
// Returned slices must be treated as read-only.
type BlockCache interface {
	// Get returns a cached block. ok=false if missing.
	Get(ctx context.Context, key CacheKey) (b []byte, ok bool)
	// Set caches a block. Implementations may copy or retain; caller must
	// treat b as immutable afterwards.
	Set(ctx context.Context, key CacheKey, b []byte)
}

// LRUCache implements a simple LRU BlockCache.
type LRUCache struct {
	mu        sync.Mutex
	capacity  int64
	size      int64
	items     map[CacheKey]*list.Element
	evictList *list.List
	rc        *resource.Controller

	hits   atomic.Int64
	misses atomic.Int64
}

type cacheEntry struct {
	key   CacheKey
	value []byte
}

// NewLRUCache creates a new LRU cache with the given capacity in bytes.
// If rc is provided, it will be used to track memory usage.
func NewLRUCache(capacity int64, rc *resource.Controller) *LRUCache {
	return &LRUCache{
		capacity:  capacity,
		items:     make(map[CacheKey]*list.Element),
		evictList: list.New(),
		rc:        rc,
	}
}

// Get returns a cached block.
func (c *LRUCache) Get(_ context.Context, key CacheKey) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.items[key]; ok {
		c.hits.Add(1)
		c.evictList.MoveToFront(ent)
		return ent.Value.(*cacheEntry).value, true
	}
	c.misses.Add(1)
	return nil, false
}

// Set caches a block.
func (c *LRUCache) Set(_ context.Context, key CacheKey, b []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Packs are immutable, so a present key already holds the same bytes.
	if ent, ok := c.items[key]; ok {
		c.evictList.MoveToFront(ent)
		return
	}

	itemSize := int64(len(b))

	// An item larger than the whole cache is never admitted.
	if itemSize > c.capacity {
		return
	}

	// Evict locally first so memory is released to the controller before we
	// try to acquire it back.
	for c.size+itemSize > c.capacity {
		ent := c.evictList.Back()
		if ent == nil {
			break
		}
		c.removeElement(ent)
	}

	if c.rc != nil {
		// Never block a read path on cache admission. If the global limit
		// is hit, serving uncached is the correct degradation.
		if !c.rc.TryAcquireMemory(itemSize) {
			return
		}
	}

	element := c.evictList.PushFront(&cacheEntry{key: key, value: b})
	c.items[key] = element
	c.size += itemSize
}

func (c *LRUCache) removeElement(e *list.Element) {
	c.evictList.Remove(e)
	ent := e.Value.(*cacheEntry)
	delete(c.items, ent.key)
	itemSize := int64(len(ent.value))
	c.size -= itemSize
	if c.rc != nil {
		c.rc.ReleaseMemory(itemSize)
	}
}

// Size returns the current size of the cache in bytes.
func (c *LRUCache) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

// Stats returns cumulative hit and miss counts.
func (c *LRUCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
