package viewport

import (
	"math"
	"sync"
	"time"

	"github.com/tsawler/lectern/geom"
	"github.com/tsawler/lectern/layout"
)

// Controller owns the view transform. It is the single writer: every
// gesture and programmatic move funnels through it, gets normalized,
// and is then published to subscribers. Readers receive value copies
// and may call from any goroutine.
type Controller struct {
	mu sync.Mutex

	cfg    Config
	view   geom.Size
	layout layout.PageLayout

	transform   geom.AffineTransform
	metrics     layout.Metrics
	stops       []float64
	currentPage int
	initialized bool

	anim *animation

	observers    map[int]func()
	nextObserver int
	closed       bool
}

// NewController creates a controller with no layout and no view size.
// Gestures are no-ops until both arrive.
func NewController(cfg Config) *Controller {
	return &Controller{
		cfg:         cfg,
		transform:   geom.Identity(),
		currentPage: 1,
		observers:   make(map[int]func()),
	}
}

// ===== Read access =====

// Transform returns the current view transform.
func (c *Controller) Transform() geom.AffineTransform {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transform
}

// VisibleRect returns the document-space rectangle currently in view.
func (c *Controller) VisibleRect() geom.Rect {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transform.VisibleRect(c.view)
}

// ViewSize returns the current viewport size.
func (c *Controller) ViewSize() geom.Size {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// CurrentPage returns the 1-indexed page occupying the most visible
// area, or the last such page when the document is off-screen.
func (c *Controller) CurrentPage() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentPage
}

// Metrics returns the current zoom metrics.
func (c *Controller) Metrics() layout.Metrics {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.metrics
}

// ZoomStops returns a copy of the current zoom-stop table.
func (c *Controller) ZoomStops() []float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]float64, len(c.stops))
	copy(out, c.stops)
	return out
}

// DocumentToViewport maps a document-space point to viewport pixels.
func (c *Controller) DocumentToViewport(p geom.Point) geom.Point {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transform.Apply(p)
}

// ViewportToDocument maps a viewport pixel to document space.
func (c *Controller) ViewportToDocument(p geom.Point) geom.Point {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transform.ApplyInverse(p)
}

// Subscribe registers a callback invoked after every published
// transform or metrics change. The callback runs outside the
// controller's critical section and may call back into the controller.
// The returned function removes the subscription.
func (c *Controller) Subscribe(fn func()) func() {
	c.mu.Lock()
	id := c.nextObserver
	c.nextObserver++
	c.observers[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.observers, id)
		c.mu.Unlock()
	}
}

// ===== Geometry inputs =====

// SetViewSize installs a new viewport size. The zoom is preserved
// (clamped into the recomputed range) and the position re-clamped. A
// size with a non-positive dimension defers everything until a real
// size arrives.
func (c *Controller) SetViewSize(s geom.Size) {
	c.mu.Lock()
	if c.closed || s == c.view {
		c.mu.Unlock()
		return
	}
	c.view = s
	if s.IsEmpty() || c.layout.PageCount() == 0 {
		c.mu.Unlock()
		return
	}

	c.recomputeMetricsLocked()
	if !c.initialized {
		c.initializeLocked()
		c.applyLocked(c.transform, 0)
		return
	}
	target := c.normalizeLocked(c.transform)
	c.applyLocked(target, 0)
}

// SetLayout installs a new page layout. When the geometry actually
// changed, the view re-anchors so the reader stays at the same relative
// position within the page they were looking at.
func (c *Controller) SetLayout(lo layout.PageLayout) {
	c.mu.Lock()
	if c.closed || lo.Equal(c.layout) {
		c.mu.Unlock()
		return
	}
	old := c.layout
	wasInitialized := c.initialized
	c.layout = lo

	if c.view.IsEmpty() || lo.PageCount() == 0 {
		c.metrics = layout.Metrics{}
		c.stops = nil
		c.initialized = false
		obs := c.snapshotObservers()
		c.mu.Unlock()
		c.notify(obs)
		return
	}

	c.recomputeMetricsLocked()
	if !wasInitialized {
		c.initializeLocked()
		c.applyLocked(c.transform, 0)
		return
	}

	target := c.reanchorLocked(old)
	c.applyLocked(target, 0)
}

// ===== Gestures =====

// SetZoom changes the zoom so that the document point under the given
// viewport anchor stays under it. The zoom is clamped into the metrics
// range. A positive duration animates the change.
func (c *Controller) SetZoom(anchor geom.Point, zoom float64, d time.Duration) {
	c.mu.Lock()
	if !c.readyLocked() {
		c.mu.Unlock()
		return
	}
	zoom = c.metrics.ClampScale(zoom)
	target := c.normalizeLocked(c.transform.ScaledAround(anchor, zoom))
	c.applyLocked(target, d)
}

// Pan shifts the view by a viewport-pixel delta, as produced by drag or
// wheel input. Positive delta moves the content right and down.
func (c *Controller) Pan(delta geom.Point) {
	c.mu.Lock()
	if !c.readyLocked() {
		c.mu.Unlock()
		return
	}
	target := c.normalizeLocked(c.transform.Translated(delta.X, delta.Y))
	c.applyLocked(target, 0)
}

// ZoomUp steps to the next zoom stop above the current zoom, anchored
// at the viewport center. With loop it wraps to the smallest stop from
// the top.
func (c *Controller) ZoomUp(loop bool, d time.Duration) {
	c.stepZoom(true, loop, d)
}

// ZoomDown steps to the next zoom stop below the current zoom.
func (c *Controller) ZoomDown(loop bool, d time.Duration) {
	c.stepZoom(false, loop, d)
}

func (c *Controller) stepZoom(up, loop bool, d time.Duration) {
	c.mu.Lock()
	if !c.readyLocked() {
		c.mu.Unlock()
		return
	}
	next := layout.NextStop(c.stops, c.transform.Scale, up, loop)
	center := geom.Point{X: c.view.Width / 2, Y: c.view.Height / 2}
	target := c.normalizeLocked(c.transform.ScaledAround(center, c.metrics.ClampScale(next)))
	c.applyLocked(target, d)
}

// GoToPage navigates to the given 1-indexed page. Out-of-range numbers
// clamp to the valid range. The page is shown at the zoom that fits it,
// margin included, positioned per the anchor.
func (c *Controller) GoToPage(number int, anchor Anchor, d time.Duration) {
	c.mu.Lock()
	if !c.readyLocked() {
		c.mu.Unlock()
		return
	}
	if number < 1 {
		number = 1
	}
	if n := c.layout.PageCount(); number > n {
		number = n
	}
	rect, _ := c.layout.PageRect(number)
	area := rect.Inflate(c.cfg.PageMargin, c.cfg.PageMargin)
	c.goToAreaLocked(area, anchor, d)
}

// GoToArea navigates to an arbitrary document-space rectangle.
func (c *Controller) GoToArea(area geom.Rect, anchor Anchor, d time.Duration) {
	c.mu.Lock()
	if !c.readyLocked() || area.IsEmpty() {
		c.mu.Unlock()
		return
	}
	c.goToAreaLocked(area, anchor, d)
}

func (c *Controller) goToAreaLocked(area geom.Rect, anchor Anchor, d time.Duration) {
	zoom := c.metrics.ClampScale(FitZoom(area, c.view))
	target := c.normalizeLocked(TransformForArea(area, anchor, c.view, zoom))
	c.applyLocked(target, d)
}

// Close cancels any running animation and detaches all subscribers.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.stopAnimationLocked()
	c.observers = make(map[int]func())
	c.mu.Unlock()
}

// ===== Internals =====

func (c *Controller) readyLocked() bool {
	return !c.closed && c.initialized && !c.view.IsEmpty() && !c.metrics.IsZero()
}

func (c *Controller) recomputeMetricsLocked() {
	c.metrics = layout.CalcMetrics(c.view, c.layout, c.currentPage, c.cfg.PageMargin, c.cfg.Metrics)
	c.stops = layout.BuildZoomStops(c.metrics)
}

// initializeLocked sets the first transform once a view size and a
// layout are both present: page 1 fitted and centered.
func (c *Controller) initializeLocked() {
	if c.view.IsEmpty() || c.layout.PageCount() == 0 || c.metrics.IsZero() {
		return
	}
	c.initialized = true
	c.currentPage = 1
	c.recomputeMetricsLocked()

	rect, _ := c.layout.PageRect(1)
	area := rect.Inflate(c.cfg.PageMargin, c.cfg.PageMargin)
	zoom := c.metrics.ClampScale(FitZoom(area, c.view))
	c.transform = c.normalizeLocked(TransformForArea(area, AnchorCenter, c.view, zoom))
}

// normalizeLocked produces the publishable version of a candidate
// transform: scale clamped into the metrics range around the viewport
// center, then the position policy.
func (c *Controller) normalizeLocked(t geom.AffineTransform) geom.AffineTransform {
	if !t.IsValid() {
		return c.transform
	}
	if !c.metrics.IsZero() {
		if s := c.metrics.ClampScale(t.Scale); s != t.Scale {
			center := geom.Point{X: c.view.Width / 2, Y: c.view.Height / 2}
			t = t.ScaledAround(center, s)
		}
	}
	if c.cfg.Physics != nil {
		return c.cfg.Physics.Normalize(t, c.view, c.layout.Size)
	}
	return ClampToBoundary(t, c.view, geom.RectFromSize(c.layout.Size), c.cfg.BoundaryMargin)
}

// reanchorLocked maps the old visible position into the new layout. The
// anchor page is found under the old visible top-left corner, probing
// rightward when the corner sits in a margin; the corner's fractional
// position within that page's old rectangle is reproduced in its new
// rectangle at the preserved zoom.
func (c *Controller) reanchorLocked(old layout.PageLayout) geom.AffineTransform {
	visible := c.transform.VisibleRect(c.view)

	probe := visible.TopLeft()
	anchorPage := 0
	step := math.Max(visible.Width/16, 1e-3)
	for x := probe.X; x <= visible.Right(); x += step {
		if n := old.PageAt(geom.Point{X: x, Y: probe.Y}); n != 0 {
			anchorPage = n
			break
		}
	}
	if anchorPage == 0 {
		if pages := old.PagesIn(visible); len(pages) > 0 {
			anchorPage = pages[0]
		} else {
			anchorPage = c.currentPage
		}
	}
	if anchorPage > c.layout.PageCount() {
		anchorPage = c.layout.PageCount()
	}
	if anchorPage < 1 {
		anchorPage = 1
	}

	oldRect, ok := old.PageRect(anchorPage)
	newRect, ok2 := c.layout.PageRect(anchorPage)
	if !ok || !ok2 || oldRect.IsEmpty() || newRect.IsEmpty() {
		return c.normalizeLocked(c.transform)
	}

	fx := (visible.X - oldRect.X) / oldRect.Width
	fy := (visible.Y - oldRect.Y) / oldRect.Height
	topLeft := geom.Point{
		X: newRect.X + fx*newRect.Width,
		Y: newRect.Y + fy*newRect.Height,
	}

	zoom := c.metrics.ClampScale(c.transform.Scale)
	target := geom.AffineTransform{
		Scale: zoom,
		TX:    -topLeft.X * zoom,
		TY:    -topLeft.Y * zoom,
	}
	return c.normalizeLocked(target)
}

// deriveCurrentPageLocked recomputes which page dominates the view and,
// when it changed, refreshes the metrics whose fit scale pivots on it.
func (c *Controller) deriveCurrentPageLocked() {
	visible := c.transform.VisibleRect(c.view)
	best, bestArea := 0, 0.0
	for i, r := range c.layout.Rects {
		a := r.Intersection(visible).Area()
		if a > bestArea {
			best, bestArea = i+1, a
		}
	}
	if best != 0 && best != c.currentPage {
		c.currentPage = best
		c.recomputeMetricsLocked()
	}
}

// applyLocked publishes a target transform, immediately or animated.
// The mutex is held on entry and released before observers run.
func (c *Controller) applyLocked(target geom.AffineTransform, d time.Duration) {
	c.stopAnimationLocked()

	if d <= 0 || c.transform.AlmostEqual(target, 1e-12) {
		c.transform = target
		c.deriveCurrentPageLocked()
		obs := c.snapshotObservers()
		c.mu.Unlock()
		c.notify(obs)
		return
	}

	c.startAnimationLocked(c.transform, target, d)
	c.mu.Unlock()
}

func (c *Controller) snapshotObservers() []func() {
	obs := make([]func(), 0, len(c.observers))
	for _, fn := range c.observers {
		obs = append(obs, fn)
	}
	return obs
}

func (c *Controller) notify(obs []func()) {
	for _, fn := range obs {
		fn()
	}
}
