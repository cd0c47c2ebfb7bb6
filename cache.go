package a3t

import "sync"

// cacheEntry is a tagged resolution outcome. A not-found entry memoizes the
// full backend walk for an unresolvable key so repeated lookups never repeat
// the probing.
type cacheEntry struct {
	found bool
	value []byte
}

// memoCache memoizes resolution outcomes forever, keyed on the canonical
// (key, context) serialization. There is no TTL, no LRU and no size bound:
// lookups stay O(1) and the nonce bump is the designated invalidation
// signal. Writes are idempotent last-writer-wins; two concurrent misses for
// the same key converge to the same entry.
type memoCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

func newMemoCache() *memoCache {
	return &memoCache{entries: make(map[string]cacheEntry)}
}

func (c *memoCache) get(key string) (cacheEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	return entry, ok
}

func (c *memoCache) set(key string, entry cacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry
}

// reset empties the cache and runs advance inside the same critical section,
// so no lookup can observe advance's effect alongside stale entries. Returns
// whatever advance returns.
func (c *memoCache) reset(advance func() int64) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := advance()
	c.entries = make(map[string]cacheEntry)
	return n
}

func (c *memoCache) stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}

	return CacheStats{
		Size: len(c.entries),
		Keys: keys,
	}
}

// CacheStats describes the memoization cache contents.
type CacheStats struct {
	Size int
	Keys []string
}
