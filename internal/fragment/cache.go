package fragment

import (
	"sync"
	"sync/atomic"
)

// CacheStats is a point-in-time view of cache activity.
type CacheStats struct {
	Hits    int64
	Misses  int64
	Entries int
}

// Cache is a read-through memo of Store reads. Entries are keyed by Key of the
// cleaned path while the store is read with the cleaned path itself. Failed
// reads are never stored.
type Cache struct {
	store   Store
	entries map[string]string
	mutex   sync.Mutex
	hits    int64
	misses  int64
}

// NewCache creates an empty cache in front of store.
func NewCache(store Store) *Cache {
	return &Cache{
		store:   store,
		entries: make(map[string]string),
	}
}

// Get returns the content at path, reading the store only on the first call
// for a path since it was last invalidated or the cache was cleared.
func (c *Cache) Get(path string) (string, error) {
	clean, err := Clean(path)
	if err != nil {
		return "", err
	}
	key := Key(clean)

	// The lock is held across the store read so an Invalidate that lands
	// mid-read cannot be overwritten by the stale result.
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if content, ok := c.entries[key]; ok {
		atomic.AddInt64(&c.hits, 1)
		return content, nil
	}

	atomic.AddInt64(&c.misses, 1)
	content, err := c.store.Read(clean)
	if err != nil {
		return "", err
	}

	c.entries[key] = content
	return content, nil
}

// Invalidate removes exactly the entry for path. It reports whether an entry
// was present.
func (c *Cache) Invalidate(path string) bool {
	clean, err := Clean(path)
	if err != nil {
		return false
	}
	key := Key(clean)

	c.mutex.Lock()
	defer c.mutex.Unlock()

	_, ok := c.entries[key]
	delete(c.entries, key)
	return ok
}

// Clear empties the cache. Counters are reset too so stats describe a single
// build.
func (c *Cache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries = make(map[string]string)
	atomic.StoreInt64(&c.hits, 0)
	atomic.StoreInt64(&c.misses, 0)
}

// Stats returns current hit/miss counters and entry count.
func (c *Cache) Stats() CacheStats {
	c.mutex.Lock()
	entries := len(c.entries)
	c.mutex.Unlock()

	return CacheStats{
		Hits:    atomic.LoadInt64(&c.hits),
		Misses:  atomic.LoadInt64(&c.misses),
		Entries: entries,
	}
}
