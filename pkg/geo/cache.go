package geo

import (
	"container/list"
	"fmt"
	"sync"
	"time"
)

// PlaceCache implements an LRU cache with expiry for reverse-geocoding
// results. Misses from the geocoder (open ocean) are cached as well.
type PlaceCache struct {
	capacity int
	ttl      time.Duration
	mu       sync.Mutex
	cache    map[string]*cacheEntry
	lru      *list.List
	hits     uint64
	misses   uint64
	now      func() time.Time
}

// cacheEntry represents a cached lookup
type cacheEntry struct {
	key       string
	name      string
	found     bool
	timestamp time.Time
	element   *list.Element
}

// NewPlaceCache creates a new place cache; a capacity below 1 disables it
func NewPlaceCache(capacity int, ttl time.Duration) *PlaceCache {
	return &PlaceCache{
		capacity: capacity,
		ttl:      ttl,
		cache:    make(map[string]*cacheEntry),
		lru:      list.New(),
		now:      time.Now,
	}
}

// Get retrieves a cached lookup; ok is false on a cache miss
func (pc *PlaceCache) Get(lat, lon float64) (name string, found bool, ok bool) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	key := cacheKey(lat, lon)
	entry, exists := pc.cache[key]

	if !exists {
		pc.misses++
		return "", false, false
	}

	// Check if entry has expired
	if pc.now().Sub(entry.timestamp) > pc.ttl {
		pc.removeLocked(key)
		pc.misses++
		return "", false, false
	}

	// Move to front of LRU list (most recently used)
	pc.lru.MoveToFront(entry.element)
	pc.hits++

	return entry.name, entry.found, true
}

// Put stores a lookup result
func (pc *PlaceCache) Put(lat, lon float64, name string, found bool) {
	if pc.capacity < 1 {
		return
	}

	pc.mu.Lock()
	defer pc.mu.Unlock()

	key := cacheKey(lat, lon)

	// Check if entry already exists
	if entry, exists := pc.cache[key]; exists {
		entry.name = name
		entry.found = found
		entry.timestamp = pc.now()
		pc.lru.MoveToFront(entry.element)
		return
	}

	entry := &cacheEntry{
		key:       key,
		name:      name,
		found:     found,
		timestamp: pc.now(),
	}

	entry.element = pc.lru.PushFront(entry)
	pc.cache[key] = entry

	// Evict oldest entry if cache is full
	if pc.lru.Len() > pc.capacity {
		oldest := pc.lru.Back()
		if oldest != nil {
			pc.removeLocked(oldest.Value.(*cacheEntry).key)
		}
	}
}

// removeLocked removes an entry from the cache (must hold lock)
func (pc *PlaceCache) removeLocked(key string) {
	if entry, exists := pc.cache[key]; exists {
		pc.lru.Remove(entry.element)
		delete(pc.cache, key)
	}
}

// Clear clears all cache entries
func (pc *PlaceCache) Clear() {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	pc.cache = make(map[string]*cacheEntry)
	pc.lru = list.New()
}

// Stats returns cache statistics
func (pc *PlaceCache) Stats() CacheStats {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	expired := 0
	for _, entry := range pc.cache {
		if pc.now().Sub(entry.timestamp) > pc.ttl {
			expired++
		}
	}

	return CacheStats{
		Size:     len(pc.cache),
		Capacity: pc.capacity,
		Expired:  expired,
		Hits:     pc.hits,
		Misses:   pc.misses,
	}
}

// CacheStats contains cache statistics
type CacheStats struct {
	Size     int
	Capacity int
	Expired  int
	Hits     uint64
	Misses   uint64
}

// HitRate returns the cache hit rate as a percentage
func (s CacheStats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0.0
	}
	return float64(s.Hits) / float64(total) * 100.0
}

// cacheKey rounds to 4 decimal places, roughly 11 m at the equator
func cacheKey(lat, lon float64) string {
	return fmt.Sprintf("%.4f,%.4f", lat, lon)
}
