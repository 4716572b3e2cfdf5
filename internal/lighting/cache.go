package lighting

import (
	"image"
	"sync"
)

// Tier names a resolution level of the same photo.
type Tier int

const (
	// Working is the downscaled copy used for interactive edits.
	Working Tier = iota
	// Full is the original resolution, decomposed only for export.
	Full
)

func (t Tier) String() string {
	switch t {
	case Working:
		return "working"
	case Full:
		return "full"
	default:
		return "unknown"
	}
}

// Cache is a concurrency-safe decomposition cache with one slot per tier.
// A slot is recomputed when asked for a different image than it holds.
type Cache struct {
	mu    sync.RWMutex
	items map[Tier]*cacheEntry

	// decompose is swapped in tests to count invocations.
	decompose func(*image.RGBA) *Maps
}

type cacheEntry struct {
	img  *image.RGBA
	maps *Maps
}

func NewCache() *Cache {
	return &Cache{
		items:     make(map[Tier]*cacheEntry),
		decompose: Decompose,
	}
}

// Get returns the decomposition of img for tier, computing it if needed.
func (c *Cache) Get(tier Tier, img *image.RGBA) *Maps {
	// Fast path: read lock
	c.mu.RLock()
	if entry, ok := c.items[tier]; ok && entry.img == img && entry.maps.Matches(img.Bounds()) {
		c.mu.RUnlock()
		return entry.maps
	}
	c.mu.RUnlock()

	// Slow path: decompose outside the lock
	maps := c.decompose(img)

	// Write lock with double-check
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.items[tier]; ok && entry.img == img && entry.maps.Matches(img.Bounds()) {
		return entry.maps
	}
	c.items[tier] = &cacheEntry{img: img, maps: maps}
	return maps
}

// Invalidate drops every tier. Call it when the source photo changes.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.items)
}
