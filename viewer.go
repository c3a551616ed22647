package lectern

import (
	"github.com/tsawler/lectern/document"
	"github.com/tsawler/lectern/geom"
	"github.com/tsawler/lectern/selection"
	"github.com/tsawler/lectern/viewport"
)

// ===== View geometry =====

// SetViewSize tells the viewer how many pixels it is drawn into. The
// first non-empty size fits the first page into view; later sizes
// preserve the zoom and re-clamp the position. Gestures are no-ops
// until a non-empty size arrives.
func (v *Viewer) SetViewSize(s geom.Size) {
	v.controller.SetViewSize(s)
}

// Transform returns the current document-to-viewport transform.
func (v *Viewer) Transform() geom.AffineTransform {
	return v.controller.Transform()
}

// VisibleRect returns the document-space rectangle currently in view.
func (v *Viewer) VisibleRect() geom.Rect {
	return v.controller.VisibleRect()
}

// CurrentPage returns the 1-indexed page occupying the most visible
// area.
func (v *Viewer) CurrentPage() int {
	return v.controller.CurrentPage()
}

// PageCount returns the number of pages in the open document.
func (v *Viewer) PageCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.doc.PageCount()
}

// PageRect returns the document-space rectangle of a 1-indexed page.
func (v *Viewer) PageRect(page int) (geom.Rect, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lo.PageRect(page)
}

// ZoomStops returns the zoom-stop table for the current view, strictly
// ascending.
func (v *Viewer) ZoomStops() []float64 {
	return v.controller.ZoomStops()
}

// DocumentToViewport maps a document-space point to viewport pixels.
func (v *Viewer) DocumentToViewport(p geom.Point) geom.Point {
	return v.controller.DocumentToViewport(p)
}

// ViewportToDocument maps a viewport pixel to document space.
func (v *Viewer) ViewportToDocument(p geom.Point) geom.Point {
	return v.controller.ViewportToDocument(p)
}

// ===== Gestures and navigation =====

// Pan shifts the view by a viewport-pixel delta, as produced by drag or
// wheel input.
func (v *Viewer) Pan(delta geom.Point) {
	v.controller.Pan(delta)
}

// SetZoom changes the zoom so the document point under the given
// viewport anchor stays under it. The change is immediate, as pinch and
// wheel tracking require; the zoom is clamped into the allowed range.
func (v *Viewer) SetZoom(anchor geom.Point, zoom float64) {
	v.controller.SetZoom(anchor, zoom, 0)
}

// ZoomUp steps to the next zoom stop above the current zoom, anchored
// at the viewport center. With loop it wraps to the smallest stop from
// the top. The step animates over the configured duration.
func (v *Viewer) ZoomUp(loop bool) {
	v.controller.ZoomUp(loop, v.opts.animation)
}

// ZoomDown steps to the next zoom stop below the current zoom.
func (v *Viewer) ZoomDown(loop bool) {
	v.controller.ZoomDown(loop, v.opts.animation)
}

// GoToPage navigates to a 1-indexed page, shown at the zoom that fits
// it and positioned per the anchor. Out-of-range numbers clamp to the
// first or last page.
func (v *Viewer) GoToPage(page int, anchor viewport.Anchor) {
	v.controller.GoToPage(page, anchor, v.opts.animation)
}

// GoToArea navigates to an arbitrary document-space rectangle.
func (v *Viewer) GoToArea(area geom.Rect, anchor viewport.Anchor) {
	v.controller.GoToArea(area, anchor, v.opts.animation)
}

// ===== Painting =====

// VisiblePages returns the pages intersecting the view, in page order.
func (v *Viewer) VisiblePages() []int {
	visible := v.controller.VisibleRect()
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lo.PagesIn(visible)
}

// PageRaster bundles the committed bitmaps for one page. Preview is the
// capped full-page raster at PreviewScale. Partial, when present, is a
// sharper tile covering PartialRect (page-local points) at
// PartialScale, painted over the preview. Both stay valid until the
// cache evicts the page; a caller keeping pixels longer must copy them.
type PageRaster struct {
	Page int

	Preview      *document.Bitmap
	PreviewScale float64

	Partial      *document.Bitmap
	PartialRect  geom.Rect
	PartialScale float64
}

// PageBitmap returns the committed rasters for a page. ok reports
// whether at least one tier holds pixels; until then the page paints as
// a placeholder and the subscription fires once a render commits.
func (v *Viewer) PageBitmap(page int) (PageRaster, bool) {
	v.mu.Lock()
	cache := v.cache
	v.mu.Unlock()

	pr := PageRaster{Page: page}
	if bmp, scale, ok := cache.Preview(page); ok {
		pr.Preview, pr.PreviewScale = bmp, scale
	}
	if bmp, rect, scale, ok := cache.Partial(page); ok {
		pr.Partial, pr.PartialRect, pr.PartialScale = bmp, rect, scale
	}
	return pr, pr.Preview != nil || pr.Partial != nil
}

// MemoryUsage returns the bytes of page bitmap currently cached.
func (v *Viewer) MemoryUsage() int64 {
	v.mu.Lock()
	cache := v.cache
	v.mu.Unlock()
	return cache.MemoryUsage()
}

// ===== Selection =====

// SelectWord selects the word under a document-space point. Reports
// whether anything was hit.
func (v *Viewer) SelectWord(p geom.Point) bool {
	return v.engine().SelectWord(p)
}

// SelectAll selects from the first character of the first page with
// text to the last character of the last page with text. Reports false
// when the document has no selectable text.
func (v *Viewer) SelectAll() bool {
	return v.engine().SelectAll()
}

// ClearSelection drops the selection and leaves any drag gesture.
func (v *Viewer) ClearSelection() {
	v.engine().Clear()
}

// HasSelection reports whether at least one character is selected.
func (v *Viewer) HasSelection() bool {
	return v.engine().HasSelection()
}

// SelectedText returns the selected text, pages joined with newlines.
func (v *Viewer) SelectedText() string {
	return v.engine().SelectedText()
}

// SelectedTextRanges returns the selection as per-page inclusive
// character ranges, in page order.
func (v *Viewer) SelectedTextRanges() []selection.Range {
	return v.engine().SelectedRanges()
}

// BeginDrag enters a selection gesture: selection.DraggingFree starts a
// fresh selection at the first dragged-over character, DraggingAnchorA
// and DraggingAnchorB move one handle of an existing selection.
func (v *Viewer) BeginDrag(kind selection.DragState) {
	v.engine().BeginDrag(kind)
}

// DragTo extends the active selection gesture to a document-space
// point. Reports whether the selection changed. A point over a page
// whose text has not loaded yet misses now and hits after the
// subscription fires.
func (v *Viewer) DragTo(p geom.Point) bool {
	return v.engine().DragTo(p)
}

// EndDrag leaves the selection gesture, keeping the selection.
func (v *Viewer) EndDrag() {
	v.engine().EndDrag()
}

// SelectionAnchors returns the draggable handles at the selection's
// edges, with document-space boxes.
func (v *Viewer) SelectionAnchors() (selection.Anchor, selection.Anchor, bool) {
	return v.engine().Anchors()
}

func (v *Viewer) engine() *selection.Engine {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.sel
}

// ===== Links =====

// LinksAt returns the links under a document-space point, rectangles
// translated into document space. A page's links load synchronously on
// first use and are cached; a page that fails to produce links is
// treated as linkless.
func (v *Viewer) LinksAt(p geom.Point) []document.Link {
	v.mu.Lock()
	lo := v.lo
	v.mu.Unlock()

	n := lo.PageAt(p)
	if n == 0 {
		return nil
	}
	pageRect, _ := lo.PageRect(n)
	local := p.Sub(pageRect.TopLeft())

	var hits []document.Link
	for _, l := range v.pageLinks(n) {
		if !l.Contains(local) {
			continue
		}
		rects := make([]geom.Rect, len(l.Rects))
		for i, r := range l.Rects {
			rects[i] = r.Translated(pageRect.X, pageRect.Y)
		}
		l.Rects = rects
		hits = append(hits, l)
	}
	return hits
}

// pageLinks returns a page's links, loading and caching them on first
// use. Load failures cache as linkless; backends without link support
// fall out the same way.
func (v *Viewer) pageLinks(n int) []document.Link {
	v.mu.Lock()
	if links, ok := v.links[n]; ok {
		v.mu.Unlock()
		return links
	}
	doc, ctx := v.doc, v.ctx
	v.mu.Unlock()

	var links []document.Link
	if pg, err := doc.Page(n); err == nil {
		if ls, err := pg.Links(ctx); err == nil {
			links = ls
		}
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if cached, ok := v.links[n]; ok {
		return cached
	}
	if v.doc != doc {
		// The document was swapped while loading; keep the result out
		// of the new document's cache.
		return links
	}
	v.links[n] = links
	return links
}
