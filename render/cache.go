package render

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/tsawler/lectern/document"
	"github.com/tsawler/lectern/geom"
	"github.com/tsawler/lectern/layout"
)

// pageSlot holds everything the cache knows about one page: the
// committed bitmaps of both tiers and the pending work toward newer
// ones. All fields are guarded by the cache mutex.
type pageSlot struct {
	page document.Page

	preview      *document.Bitmap
	previewScale float64

	partial      *document.Bitmap
	partialRect  geom.Rect // page-local, in points
	partialScale float64

	previewEverRequested bool
	pendingPreviewScale  float64 // 0 when nothing is pending
	previewTimer         *time.Timer
	previewCancel        context.CancelFunc

	pendingPartial      document.RenderRequest
	pendingPartialScale float64 // 0 when nothing is pending
	pendingPartialRect  geom.Rect
	partialTimer        *time.Timer
	partialCancel       context.CancelFunc
}

// Cache renders and retains page bitmaps on two tiers. The preview tier
// holds a capped full-page raster per page; the partial tier holds one
// high-resolution tile of the visible part of a page when the zoom
// exceeds the preview cap. Renders run on background goroutines bounded
// by a semaphore; reads never block on them.
type Cache struct {
	mu sync.Mutex

	cfg        Config
	doc        document.Document
	slots      map[int]*pageSlot
	sem        chan struct{}
	invalidate func()

	ctx    context.Context
	cancel context.CancelFunc
	closed bool
}

// NewCache creates a cache over the given document. The invalidate
// callback, when non-nil, fires after every committed render so the
// paint layer can redraw; it runs outside the cache's critical section.
func NewCache(doc document.Document, cfg Config, invalidate func()) *Cache {
	cfg = cfg.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	return &Cache{
		cfg:        cfg,
		doc:        doc,
		slots:      make(map[int]*pageSlot),
		sem:        make(chan struct{}, cfg.MaxConcurrent),
		invalidate: invalidate,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Preview returns the committed full-page bitmap for a page and the
// scale it was rendered at. The bitmap stays valid until the page is
// evicted; callers needing it longer must copy the pixels.
func (c *Cache) Preview(page int) (*document.Bitmap, float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	slot := c.slots[page]
	if slot == nil || slot.preview == nil {
		return nil, 0, false
	}
	return slot.preview, slot.previewScale, true
}

// Partial returns the committed high-resolution tile for a page: the
// bitmap, the page-local rectangle it covers in points, and its scale.
func (c *Cache) Partial(page int) (*document.Bitmap, geom.Rect, float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	slot := c.slots[page]
	if slot == nil || slot.partial == nil {
		return nil, geom.Rect{}, 0, false
	}
	return slot.partial, slot.partialRect, slot.partialScale, true
}

// MemoryUsage returns the bytes currently committed across both tiers.
func (c *Cache) MemoryUsage() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totalBytesLocked()
}

// CachedPages returns the pages holding at least one committed bitmap,
// ascending.
func (c *Cache) CachedPages() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	var pages []int
	for n, slot := range c.slots {
		if slot.preview != nil || slot.partial != nil {
			pages = append(pages, n)
		}
	}
	sort.Ints(pages)
	return pages
}

// UpdateVisible is the per-frame entry point. It derives the cached
// region from the visible rectangle and the cache extent, schedules
// preview and partial renders for every page intersecting it, and then
// evicts far pages until the memory budget holds.
func (c *Cache) UpdateVisible(visible geom.Rect, lo layout.PageLayout, scale float64, currentPage int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || scale <= 0 || visible.IsEmpty() {
		return
	}

	cacheRect := visible.Inflate(visible.Width*c.cfg.CacheExtentX, visible.Height*c.cfg.CacheExtentY)

	for _, n := range lo.PagesIn(cacheRect) {
		slot := c.slotLocked(n)
		if slot == nil {
			continue
		}
		pageRect, _ := lo.PageRect(n)
		c.schedulePreviewLocked(n, slot, scale)
		c.schedulePartialLocked(n, slot, pageRect, cacheRect, scale)
	}

	c.evictLocked(cacheRect, lo, currentPage)
}

// Purge drops every bitmap and cancels all pending work, leaving the
// cache empty but usable. Called when the document content changes
// wholesale.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for n := range c.slots {
		c.evictSlotLocked(n)
	}
}

// Close purges the cache and stops it for good.
func (c *Cache) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	for n := range c.slots {
		c.evictSlotLocked(n)
	}
	c.mu.Unlock()
	c.cancel()
}

// ===== Internals =====

func (c *Cache) slotLocked(n int) *pageSlot {
	if slot, ok := c.slots[n]; ok {
		return slot
	}
	pg, err := c.doc.Page(n)
	if err != nil {
		return nil
	}
	slot := &pageSlot{page: pg}
	c.slots[n] = slot
	return slot
}

func (c *Cache) totalBytesLocked() int64 {
	var total int64
	for _, slot := range c.slots {
		if slot.preview != nil {
			total += slot.preview.ByteSize()
		}
		if slot.partial != nil {
			total += slot.partial.ByteSize()
		}
	}
	return total
}

// evictLocked releases far pages until the budget holds. Pages whose
// rectangle still intersects the cached region are protected; among the
// rest, the one whose center lies farthest from the current page goes
// first. Pages no longer present in the layout go before any of them.
func (c *Cache) evictLocked(cacheRect geom.Rect, lo layout.PageLayout, currentPage int) {
	total := c.totalBytesLocked()
	if total <= c.cfg.MemoryBudget {
		return
	}

	currentRect, _ := lo.PageRect(currentPage)
	center := currentRect.Center()

	type candidate struct {
		n    int
		dist float64
	}
	var candidates []candidate
	for n := range c.slots {
		rect, ok := lo.PageRect(n)
		if ok && rect.Intersects(cacheRect) {
			continue
		}
		dist := math.Inf(1)
		if ok {
			dist = rect.Center().SquaredDistance(center)
		}
		candidates = append(candidates, candidate{n: n, dist: dist})
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].dist > candidates[j].dist })

	for _, cand := range candidates {
		if total <= c.cfg.MemoryBudget {
			break
		}
		total -= c.evictSlotLocked(cand.n)
	}
}

// evictSlotLocked cancels the slot's pending work, releases its
// bitmaps, and removes it. Returns the bytes freed.
func (c *Cache) evictSlotLocked(n int) int64 {
	slot := c.slots[n]
	if slot == nil {
		return 0
	}
	c.cancelPendingPreviewLocked(slot)
	c.cancelPendingPartialLocked(slot)

	var freed int64
	if slot.preview != nil {
		freed += slot.preview.ByteSize()
		slot.preview.Release()
		slot.preview = nil
	}
	if slot.partial != nil {
		freed += slot.partial.ByteSize()
		slot.partial.Release()
		slot.partial = nil
	}
	delete(c.slots, n)
	return freed
}
