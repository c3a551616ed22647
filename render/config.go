package render

import "time"

// Config holds the cache's tuning parameters.
type Config struct {
	// MemoryBudget caps the total bytes of committed bitmaps, counted
	// at four bytes per pixel. Eviction keeps the cache at or below it.
	MemoryBudget int64

	// PreviewMaxScale caps the scale at which full-page previews are
	// rasterized. Zooming beyond it switches detail to the partial
	// tier.
	PreviewMaxScale float64

	// PreviewMaxPixels caps the larger dimension of a preview bitmap,
	// whichever of the two preview limits bites first wins.
	PreviewMaxPixels int

	// CacheExtentX and CacheExtentY extend the region kept rendered
	// beyond the visible rectangle, as fractions of its width and
	// height. Zero caches only what is visible.
	CacheExtentX float64
	CacheExtentY float64

	// PreviewDebounce delays preview re-renders while the zoom is still
	// settling. The first request for a page always starts immediately.
	PreviewDebounce time.Duration

	// PartialDebounce delays partial-tile renders while panning.
	PartialDebounce time.Duration

	// MaxConcurrent bounds the number of simultaneous Page.Render
	// calls.
	MaxConcurrent int
}

// DefaultConfig returns the standard cache parameters: 100 MB budget,
// previews up to 4x or 4096 px, one viewport of cache margin on each
// axis, 100 ms debounces, three render workers.
func DefaultConfig() Config {
	return Config{
		MemoryBudget:     100 << 20,
		PreviewMaxScale:  4,
		PreviewMaxPixels: 4096,
		CacheExtentX:     1,
		CacheExtentY:     1,
		PreviewDebounce:  100 * time.Millisecond,
		PartialDebounce:  100 * time.Millisecond,
		MaxConcurrent:    3,
	}
}

// withDefaults replaces unusable values. A zero cache extent or zero
// debounce is a valid choice and kept as-is.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MemoryBudget <= 0 {
		c.MemoryBudget = d.MemoryBudget
	}
	if c.PreviewMaxScale <= 0 {
		c.PreviewMaxScale = d.PreviewMaxScale
	}
	if c.PreviewMaxPixels <= 0 {
		c.PreviewMaxPixels = d.PreviewMaxPixels
	}
	if c.CacheExtentX < 0 {
		c.CacheExtentX = 0
	}
	if c.CacheExtentY < 0 {
		c.CacheExtentY = 0
	}
	if c.PreviewDebounce < 0 {
		c.PreviewDebounce = 0
	}
	if c.PartialDebounce < 0 {
		c.PartialDebounce = 0
	}
	if c.MaxConcurrent < 1 {
		c.MaxConcurrent = d.MaxConcurrent
	}
	return c
}
