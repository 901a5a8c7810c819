package pathfinder

import (
	"fmt"
	. "github.com/janpfeifer/quoridorGo/internal/state"
	"sync"
)

type cacheKey struct {
	start   Pos
	goalRow int8
	walls   WallSet
}

// Cache memoizes ShortestPathLength. The wall set is part of the key, so entries never go
// stale, but the cache grows during a decision and should be Reset between decisions.
//
// It is safe for concurrent use.
type Cache struct {
	mu           sync.Mutex
	lengths      map[cacheKey]int
	hits, misses int
}

// NewCache returns an empty Cache.
func NewCache() *Cache {
	return &Cache{lengths: make(map[cacheKey]int)}
}

// ShortestPathLength is like the package function ShortestPathLength, but memoized.
// A nil Cache computes the value without memoization.
func (c *Cache) ShortestPathLength(start Pos, goalRow int8, walls WallSet) int {
	if c == nil {
		return ShortestPathLength(start, goalRow, walls)
	}
	key := cacheKey{start, goalRow, walls}
	c.mu.Lock()
	length, found := c.lengths[key]
	if found {
		c.hits++
		c.mu.Unlock()
		return length
	}
	c.misses++
	c.mu.Unlock()

	// Computed outside the lock: concurrent misses on the same key compute the same value.
	length = ShortestPathLength(start, goalRow, walls)
	c.mu.Lock()
	c.lengths[key] = length
	c.mu.Unlock()
	return length
}

// HasPath is the memoized version of HasPath.
func (c *Cache) HasPath(start Pos, goalRow int8, walls WallSet) bool {
	return c.ShortestPathLength(start, goalRow, walls) < Unreachable
}

// Reset clears the cache and its statistics.
func (c *Cache) Reset() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.lengths)
	c.hits, c.misses = 0, 0
}

// CacheStats reports the usage of a Cache.
type CacheStats struct {
	Entries, Hits, Misses int
}

// String implements fmt.Stringer.
func (s CacheStats) String() string {
	total := s.Hits + s.Misses
	if total == 0 {
		return "path cache: empty"
	}
	return fmt.Sprintf("path cache: %d entries, %d hits (%.1f%%), %d misses",
		s.Entries, s.Hits, 100*float64(s.Hits)/float64(total), s.Misses)
}

// Stats returns the current usage statistics.
func (c *Cache) Stats() CacheStats {
	if c == nil {
		return CacheStats{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{Entries: len(c.lengths), Hits: c.hits, Misses: c.misses}
}
