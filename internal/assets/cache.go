package assets

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// cachedBuild is the outcome of building one resource.
type cachedBuild struct {
	// value is the literal substituted into the template.
	value string
	// name and data describe the hashed copy; both are empty when the
	// resource was inlined.
	name string
	data []byte
}

func (c *cachedBuild) size() int64 {
	return int64(len(c.value) + len(c.name) + len(c.data))
}

// Cache keeps recent sub-build outcomes with LRU eviction and TTL, keyed by
// resource path, size and modification time.
type Cache struct {
	entries     map[string]*cacheEntry
	mutex       sync.Mutex
	maxSize     int64
	currentSize int64
	ttl         time.Duration
	// Sentinels of the LRU list, most recent first.
	head *cacheEntry
	tail *cacheEntry

	hits      int64
	misses    int64
	evictions int64
}

type cacheEntry struct {
	key       string
	build     *cachedBuild
	createdAt time.Time
	size      int64
	prev      *cacheEntry
	next      *cacheEntry
}

// CacheStats is a snapshot of cache counters.
type CacheStats struct {
	Entries   int
	Size      int64
	MaxSize   int64
	Hits      int64
	Misses    int64
	Evictions int64
}

// HitRate returns hits over lookups, 0 when there were none.
func (s CacheStats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// NewCache creates a cache holding at most maxSize bytes of outcomes, each
// for at most ttl. A zero ttl keeps entries until they are evicted.
func NewCache(maxSize int64, ttl time.Duration) *Cache {
	c := &Cache{
		entries: make(map[string]*cacheEntry),
		maxSize: maxSize,
		ttl:     ttl,
		head:    &cacheEntry{},
		tail:    &cacheEntry{},
	}
	c.head.next = c.tail
	c.tail.prev = c.head
	return c
}

// cacheKey identifies one version of a resource.
func cacheKey(path string, info os.FileInfo, opts Options, publicPath string) string {
	return fmt.Sprintf("%s:%d:%d:%d:%s:%d:%s",
		path, info.ModTime().UnixNano(), info.Size(),
		opts.InlineLimit, opts.NamePattern, opts.HashLength, publicPath)
}

func (c *Cache) get(key string) (*cachedBuild, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		atomic.AddInt64(&c.misses, 1)
		return nil, false
	}
	if c.ttl > 0 && time.Since(entry.createdAt) > c.ttl {
		c.remove(entry)
		atomic.AddInt64(&c.misses, 1)
		return nil, false
	}

	c.unlink(entry)
	c.pushFront(entry)
	atomic.AddInt64(&c.hits, 1)
	return entry.build, true
}

func (c *Cache) set(key string, build *cachedBuild) {
	size := build.size()
	if size > c.maxSize {
		return
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	if existing, ok := c.entries[key]; ok {
		c.remove(existing)
	}
	for c.currentSize+size > c.maxSize && c.tail.prev != c.head {
		c.remove(c.tail.prev)
		atomic.AddInt64(&c.evictions, 1)
	}

	entry := &cacheEntry{key: key, build: build, createdAt: time.Now(), size: size}
	c.entries[key] = entry
	c.currentSize += size
	c.pushFront(entry)
}

// Stats returns the current counters.
func (c *Cache) Stats() CacheStats {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return CacheStats{
		Entries:   len(c.entries),
		Size:      c.currentSize,
		MaxSize:   c.maxSize,
		Hits:      atomic.LoadInt64(&c.hits),
		Misses:    atomic.LoadInt64(&c.misses),
		Evictions: atomic.LoadInt64(&c.evictions),
	}
}

// remove must be called with the mutex held.
func (c *Cache) remove(entry *cacheEntry) {
	c.unlink(entry)
	delete(c.entries, entry.key)
	c.currentSize -= entry.size
}

func (c *Cache) pushFront(entry *cacheEntry) {
	entry.prev = c.head
	entry.next = c.head.next
	c.head.next.prev = entry
	c.head.next = entry
}

func (c *Cache) unlink(entry *cacheEntry) {
	entry.prev.next = entry.next
	entry.next.prev = entry.prev
}
