package render

import (
	"context"
	"math"
	"time"

	"github.com/tsawler/lectern/document"
	"github.com/tsawler/lectern/geom"
)

func scalesEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func pixelDim(v float64) int {
	n := int(math.Round(v))
	if n < 1 {
		n = 1
	}
	return n
}

// previewCap returns the largest scale the preview tier may use for a
// page: the configured scale cap or the pixel cap, whichever bites
// first.
func (c *Cache) previewCap(size geom.Size) float64 {
	limit := c.cfg.PreviewMaxScale
	maxDim := math.Max(size.Width, size.Height)
	if maxDim > 0 {
		if pixelCap := float64(c.cfg.PreviewMaxPixels) / maxDim; pixelCap < limit {
			limit = pixelCap
		}
	}
	return limit
}

// ===== Preview tier =====

func (c *Cache) schedulePreviewLocked(n int, slot *pageSlot, scale float64) {
	desired := math.Min(scale, c.previewCap(slot.page.Size()))
	if desired <= 0 {
		return
	}

	if slot.preview != nil && scalesEqual(slot.previewScale, desired) {
		// The committed bitmap already matches; anything pending chases
		// an outdated scale.
		c.cancelPendingPreviewLocked(slot)
		return
	}
	if slot.pendingPreviewScale != 0 && scalesEqual(slot.pendingPreviewScale, desired) {
		return
	}

	c.cancelPendingPreviewLocked(slot)
	slot.pendingPreviewScale = desired

	// The first request for a page starts immediately so the page does
	// not sit blank through a debounce delay; later requests coalesce.
	if !slot.previewEverRequested || c.cfg.PreviewDebounce <= 0 {
		slot.previewEverRequested = true
		c.startPreviewLocked(n, slot, desired)
		return
	}

	slot.previewTimer = time.AfterFunc(c.cfg.PreviewDebounce, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		s := c.slots[n]
		if c.closed || s == nil || !scalesEqual(s.pendingPreviewScale, desired) || s.previewCancel != nil {
			return
		}
		c.startPreviewLocked(n, s, desired)
	})
}

func (c *Cache) cancelPendingPreviewLocked(slot *pageSlot) {
	if slot.previewTimer != nil {
		slot.previewTimer.Stop()
		slot.previewTimer = nil
	}
	if slot.previewCancel != nil {
		slot.previewCancel()
		slot.previewCancel = nil
	}
	slot.pendingPreviewScale = 0
}

func (c *Cache) startPreviewLocked(n int, slot *pageSlot, scale float64) {
	size := slot.page.Size()
	w := pixelDim(size.Width * scale)
	h := pixelDim(size.Height * scale)

	ctx, cancel := context.WithCancel(c.ctx)
	slot.previewTimer = nil
	slot.previewCancel = cancel
	go c.renderPreview(ctx, cancel, n, slot.page, scale, w, h)
}

func (c *Cache) renderPreview(ctx context.Context, cancel context.CancelFunc, n int, page document.Page, scale float64, w, h int) {
	defer cancel()

	var bmp *document.Bitmap
	if c.acquire(ctx) {
		bmp, _ = page.Render(ctx, document.FullPageRequest(w, h))
		c.release()
	}

	c.mu.Lock()
	slot := c.slots[n]
	current := !c.closed && slot != nil && ctx.Err() == nil && scalesEqual(slot.pendingPreviewScale, scale)
	if !current || bmp == nil {
		if current {
			// Failed render for a still-wanted scale: keep whatever
			// bitmap was committed before, allow a retry later.
			slot.previewCancel = nil
			slot.pendingPreviewScale = 0
		}
		c.mu.Unlock()
		if bmp != nil {
			bmp.Release()
		}
		return
	}

	if slot.preview != nil {
		slot.preview.Release()
	}
	slot.preview = bmp
	slot.previewScale = scale
	slot.previewCancel = nil
	slot.pendingPreviewScale = 0
	inv := c.invalidate
	c.mu.Unlock()

	if inv != nil {
		inv()
	}
}

// ===== Partial tier =====

func (c *Cache) schedulePartialLocked(n int, slot *pageSlot, pageRect, cacheRect geom.Rect, scale float64) {
	if scale <= c.previewCap(slot.page.Size())+1e-9 {
		// The preview tier already carries full detail at this zoom.
		c.cancelPendingPartialLocked(slot)
		c.dropPartialLocked(slot)
		return
	}

	area := pageRect.Intersection(cacheRect)
	if area.IsEmpty() {
		c.cancelPendingPartialLocked(slot)
		return
	}

	req, localRect, ok := partialRequest(pageRect, area, scale)
	if !ok {
		return
	}

	if slot.partial != nil && scalesEqual(slot.partialScale, scale) && slot.partialRect == localRect {
		c.cancelPendingPartialLocked(slot)
		return
	}
	if slot.pendingPartialScale != 0 && scalesEqual(slot.pendingPartialScale, scale) && slot.pendingPartial == req {
		return
	}

	// A newer region or scale replaces whatever was pending.
	c.cancelPendingPartialLocked(slot)
	slot.pendingPartial = req
	slot.pendingPartialScale = scale
	slot.pendingPartialRect = localRect

	if c.cfg.PartialDebounce <= 0 {
		c.startPartialLocked(n, slot, req, localRect, scale)
		return
	}

	slot.partialTimer = time.AfterFunc(c.cfg.PartialDebounce, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		s := c.slots[n]
		if c.closed || s == nil || s.pendingPartial != req || s.partialCancel != nil {
			return
		}
		c.startPartialLocked(n, s, req, localRect, scale)
	})
}

func (c *Cache) cancelPendingPartialLocked(slot *pageSlot) {
	if slot.partialTimer != nil {
		slot.partialTimer.Stop()
		slot.partialTimer = nil
	}
	if slot.partialCancel != nil {
		slot.partialCancel()
		slot.partialCancel = nil
	}
	slot.pendingPartial = document.RenderRequest{}
	slot.pendingPartialScale = 0
	slot.pendingPartialRect = geom.Rect{}
}

func (c *Cache) dropPartialLocked(slot *pageSlot) {
	if slot.partial != nil {
		slot.partial.Release()
		slot.partial = nil
		slot.partialRect = geom.Rect{}
		slot.partialScale = 0
	}
}

func (c *Cache) startPartialLocked(n int, slot *pageSlot, req document.RenderRequest, localRect geom.Rect, scale float64) {
	ctx, cancel := context.WithCancel(c.ctx)
	slot.partialTimer = nil
	slot.partialCancel = cancel
	go c.renderPartial(ctx, cancel, n, slot.page, req, localRect, scale)
}

func (c *Cache) renderPartial(ctx context.Context, cancel context.CancelFunc, n int, page document.Page, req document.RenderRequest, localRect geom.Rect, scale float64) {
	defer cancel()

	var bmp *document.Bitmap
	if c.acquire(ctx) {
		bmp, _ = page.Render(ctx, req)
		c.release()
	}

	c.mu.Lock()
	slot := c.slots[n]
	current := !c.closed && slot != nil && ctx.Err() == nil && slot.pendingPartial == req
	if !current || bmp == nil {
		if current {
			slot.partialCancel = nil
			slot.pendingPartial = document.RenderRequest{}
			slot.pendingPartialScale = 0
			slot.pendingPartialRect = geom.Rect{}
		}
		c.mu.Unlock()
		if bmp != nil {
			bmp.Release()
		}
		return
	}

	if slot.partial != nil {
		slot.partial.Release()
	}
	slot.partial = bmp
	slot.partialRect = localRect
	slot.partialScale = scale
	slot.partialCancel = nil
	slot.pendingPartial = document.RenderRequest{}
	slot.pendingPartialScale = 0
	slot.pendingPartialRect = geom.Rect{}
	inv := c.invalidate
	c.mu.Unlock()

	if inv != nil {
		inv()
	}
}

// partialRequest converts a page-space area into a pixel-aligned render
// request plus the page-local rectangle, in points, that the resulting
// bitmap covers. The rectangle is derived back from the pixel grid so
// bitmap and geometry agree exactly.
func partialRequest(pageRect, area geom.Rect, scale float64) (document.RenderRequest, geom.Rect, bool) {
	fullW := pixelDim(pageRect.Width * scale)
	fullH := pixelDim(pageRect.Height * scale)

	local := area.Translated(-pageRect.X, -pageRect.Y)
	x := int(math.Floor(local.X * scale))
	y := int(math.Floor(local.Y * scale))
	x2 := int(math.Ceil(local.Right() * scale))
	y2 := int(math.Ceil(local.Bottom() * scale))

	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}
	if x2 > fullW {
		x2 = fullW
	}
	if y2 > fullH {
		y2 = fullH
	}
	if x2 <= x || y2 <= y {
		return document.RenderRequest{}, geom.Rect{}, false
	}

	req := document.RenderRequest{
		X:          x,
		Y:          y,
		Width:      x2 - x,
		Height:     y2 - y,
		FullWidth:  fullW,
		FullHeight: fullH,
	}
	localRect := geom.Rect{
		X:      float64(x) / scale,
		Y:      float64(y) / scale,
		Width:  float64(x2-x) / scale,
		Height: float64(y2-y) / scale,
	}
	return req, localRect, true
}

// ===== Worker semaphore =====

func (c *Cache) acquire(ctx context.Context) bool {
	select {
	case c.sem <- struct{}{}:
		return true
	case <-ctx.Done():
		return false
	}
}

func (c *Cache) release() {
	<-c.sem
}
