package blur

import (
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/photo-tools-mcp/internal/pixel"
)

// Cache holds blurred copies of one base buffer, keyed by radius.
//
// A Cache lives for a single pipeline run. The base buffer must not be mutated
// while the cache is in use; stages take their own working buffer instead.
// Cache is not safe for concurrent Get calls.
type Cache struct {
	base    *pixel.Buffer
	entries map[float64]*pixel.Buffer
}

// NewCache creates a cache over base. base is retained, not copied.
func NewCache(base *pixel.Buffer) *Cache {
	return &Cache{
		base:    base,
		entries: make(map[float64]*pixel.Buffer),
	}
}

// Get returns the blur of the base buffer at radiusPx, computing it on first use.
// Callers must treat the returned buffer as read-only.
func (c *Cache) Get(radiusPx float64) *pixel.Buffer {
	key := normalizeRadius(radiusPx)
	if b, ok := c.entries[key]; ok {
		return b
	}
	b := Blur(c.base, key)
	c.entries[key] = b
	return b
}

// Prefetch computes the missing radii concurrently. Results are identical to
// calling Get for each radius in turn.
func (c *Cache) Prefetch(radii ...float64) {
	var missing []float64
	seen := make(map[float64]bool)
	for _, r := range radii {
		key := normalizeRadius(r)
		if _, ok := c.entries[key]; ok || seen[key] {
			continue
		}
		seen[key] = true
		missing = append(missing, key)
	}
	if len(missing) == 0 {
		return
	}

	results := make([]*pixel.Buffer, len(missing))
	var g errgroup.Group
	for i, r := range missing {
		i, r := i, r
		g.Go(func() error {
			results[i] = Blur(c.base, r)
			return nil
		})
	}
	_ = g.Wait()

	for i, r := range missing {
		c.entries[r] = results[i]
	}
}

// Len reports how many radii are cached.
func (c *Cache) Len() int {
	return len(c.entries)
}

func normalizeRadius(r float64) float64 {
	if math.IsNaN(r) || r < 0 {
		return 0
	}
	return r
}
