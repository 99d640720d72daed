package main

import (
	"encoding/json"
	"log"
	"sort"
	"sync"
	"time"
)

// resultEntry holds one memoized analysis result with eviction bookkeeping.
type resultEntry struct {
	value          any
	operation      string
	createdAt      time.Time
	lastAccessedAt time.Time
	seq            uint64 // insertion order; stable tie-break for LRU eviction
}

// resultCache is a bounded TTL cache for analysis results. A single mutex
// guards the entry map and the hit/miss counters: Get mutates state (expiry
// eviction, access-time touch) so there is no useful read-only path.
type resultCache struct {
	mu       sync.Mutex
	entries  map[string]*resultEntry
	capacity int
	ttl      time.Duration
	enabled  bool
	hits     uint64
	misses   uint64
	nextSeq  uint64
	now      func() time.Time // swapped in tests to pin the clock
}

// CacheStats is the JSON snapshot returned by Stats.
type CacheStats struct {
	Enabled        bool    `json:"enabled"`
	TotalRequests  uint64  `json:"total_requests"`
	Hits           uint64  `json:"cache_hits"`
	Misses         uint64  `json:"cache_misses"`
	HitRatePercent float64 `json:"hit_rate_percent"`
	Size           int     `json:"cache_size"`
	MaxSize        int     `json:"max_cache_size"`
	TTLSeconds     int64   `json:"ttl_seconds"`
	MemoryUsageMB  float64 `json:"memory_usage_mb"`
}

// newResultCache creates a cache honoring the configured TTL and capacity.
func newResultCache(enabled bool, ttl time.Duration, capacity int) *resultCache {
	if capacity <= 0 {
		capacity = defaultMaxCacheSize
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	log.Printf("[CACHE] Initialized: enabled=%t ttl=%s max_size=%d", enabled, ttl, capacity)
	return &resultCache{
		entries:  make(map[string]*resultEntry),
		capacity: capacity,
		ttl:      ttl,
		enabled:  enabled,
		now:      time.Now,
	}
}

// Get returns the live value for key. An expired entry is evicted and counted
// as a miss; when caching is disabled every lookup is a counted miss so the
// stats stay consistent downstream.
func (c *resultCache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.enabled {
		c.misses++
		return nil, false
	}

	entry, exists := c.entries[key]
	if !exists {
		c.misses++
		return nil, false
	}

	now := c.now()
	if now.Sub(entry.createdAt) >= c.ttl {
		delete(c.entries, key)
		c.misses++
		return nil, false
	}

	entry.lastAccessedAt = now
	c.hits++
	return entry.value, true
}

// Set stores value under key, labeled with the operation that produced it.
// Expired entries are swept before insertion, and the least-recently-used
// entries are evicted synchronously until the cache fits its capacity again.
func (c *resultCache) Set(key, operation string, value any) {
	if !c.enabled {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.sweepExpiredLocked(now)

	c.nextSeq++
	c.entries[key] = &resultEntry{
		value:          value,
		operation:      operation,
		createdAt:      now,
		lastAccessedAt: now,
		seq:            c.nextSeq,
	}

	if len(c.entries) > c.capacity {
		c.evictLRULocked()
	}
}

// sweepExpiredLocked removes all entries past their TTL. Caller holds the lock.
func (c *resultCache) sweepExpiredLocked(now time.Time) {
	removed := 0
	for key, entry := range c.entries {
		if now.Sub(entry.createdAt) >= c.ttl {
			delete(c.entries, key)
			removed++
		}
	}
	if removed > 0 {
		log.Printf("[CACHE] Cleanup: removed %d expired, size now %d", removed, len(c.entries))
	}
}

// evictLRULocked deletes entries in ascending last-access order until the
// cache is back at capacity. Ties on access time fall back to insertion
// order so eviction is deterministic under a pinned clock.
func (c *resultCache) evictLRULocked() {
	victims := make([]*resultEntry, 0, len(c.entries))
	keys := make(map[*resultEntry]string, len(c.entries))
	for key, entry := range c.entries {
		victims = append(victims, entry)
		keys[entry] = key
	}
	sort.Slice(victims, func(i, j int) bool {
		if victims[i].lastAccessedAt.Equal(victims[j].lastAccessedAt) {
			return victims[i].seq < victims[j].seq
		}
		return victims[i].lastAccessedAt.Before(victims[j].lastAccessedAt)
	})

	excess := len(c.entries) - c.capacity
	for _, entry := range victims[:excess] {
		delete(c.entries, keys[entry])
	}
	log.Printf("[CACHE] Evicted %d LRU entries, size now %d", excess, len(c.entries))
}

// Clear atomically empties the cache and resets the hit/miss counters.
func (c *resultCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*resultEntry)
	c.hits = 0
	c.misses = 0
	log.Print("[CACHE] Cleared")
}

// Stats returns a consistent snapshot of the cache counters and footprint.
func (c *resultCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.hits + c.misses
	hitRate := 0.0
	if total > 0 {
		hitRate = float64(c.hits) / float64(total) * 100
	}

	return CacheStats{
		Enabled:        c.enabled,
		TotalRequests:  total,
		Hits:           c.hits,
		Misses:         c.misses,
		HitRatePercent: round2(hitRate),
		Size:           len(c.entries),
		MaxSize:        c.capacity,
		TTLSeconds:     int64(c.ttl.Seconds()),
		MemoryUsageMB:  c.estimateMemoryMBLocked(),
	}
}

// estimateMemoryMBLocked sums serialized entry sizes. The estimate is
// best-effort observability: a marshal failure yields 0 rather than an error.
func (c *resultCache) estimateMemoryMBLocked() float64 {
	total := 0
	for _, entry := range c.entries {
		data, err := json.Marshal(entry.value)
		if err != nil {
			return 0
		}
		total += len(data)
	}
	return round2(float64(total) / (1024 * 1024))
}

// EntriesByOperation counts live entries per operation label.
func (c *resultCache) EntriesByOperation() map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()

	counts := make(map[string]int)
	for _, entry := range c.entries {
		counts[entry.operation]++
	}
	return counts
}
