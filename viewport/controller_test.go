package viewport

import (
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tsawler/lectern/geom"
	"github.com/tsawler/lectern/layout"
)

func fixedRangeConfig() Config {
	return Config{
		PageMargin:     0,
		BoundaryMargin: 0,
		Metrics: layout.MetricsConfig{
			MinScale: 0.1,
			MaxScale: 8,
			Mode:     layout.MinScaleFixed,
		},
	}
}

// onePageController builds a ready controller showing a single 800x600
// page in an 800x600 view, which initializes to the identity transform.
func onePageController(t *testing.T) *Controller {
	t.Helper()
	c := NewController(fixedRangeConfig())
	c.SetViewSize(geom.Size{Width: 800, Height: 600})
	c.SetLayout(layout.Vertical{}.Layout([]layout.PageGeometry{
		{Number: 1, Size: geom.Size{Width: 800, Height: 600}},
	}, 0))

	if got := c.Transform(); !got.AlmostEqual(geom.Identity(), 1e-9) {
		t.Fatalf("initial transform = %+v, want identity", got)
	}
	return c
}

func fivePortraitPages() []layout.PageGeometry {
	pages := make([]layout.PageGeometry, 5)
	for i := range pages {
		pages[i] = layout.PageGeometry{Number: i + 1, Size: geom.Size{Width: 100, Height: 150}}
	}
	return pages
}

func fiveLandscapePages() []layout.PageGeometry {
	pages := make([]layout.PageGeometry, 5)
	for i := range pages {
		pages[i] = layout.PageGeometry{Number: i + 1, Size: geom.Size{Width: 150, Height: 100}}
	}
	return pages
}

// ============================================================================
// Initialization Tests
// ============================================================================

func TestControllerInertUntilReady(t *testing.T) {
	c := NewController(fixedRangeConfig())

	c.Pan(geom.Point{X: 100, Y: 100})
	c.SetZoom(geom.Point{X: 0, Y: 0}, 4, 0)
	c.ZoomUp(false, 0)

	if got := c.Transform(); got != geom.Identity() {
		t.Errorf("transform moved before view and layout arrived: %+v", got)
	}

	// Layout alone is not enough either.
	c.SetLayout(layout.Vertical{}.Layout(fivePortraitPages(), 10))
	c.Pan(geom.Point{X: 100, Y: 100})
	if got := c.Transform(); got != geom.Identity() {
		t.Errorf("transform moved without a view size: %+v", got)
	}
}

func TestControllerInitialFit(t *testing.T) {
	c := NewController(fixedRangeConfig())
	c.SetViewSize(geom.Size{Width: 800, Height: 600})
	c.SetLayout(layout.Vertical{}.Layout(fivePortraitPages(), 10))

	// Page 1 is fitted and centered: its center maps to the viewport
	// center.
	rect1 := geom.NewRect(10, 10, 100, 150)
	got := c.Transform().Apply(rect1.Center())
	if math.Abs(got.X-400) > 1e-9 || math.Abs(got.Y-300) > 1e-9 {
		t.Errorf("page 1 center maps to %+v, want {400, 300}", got)
	}
	if c.CurrentPage() != 1 {
		t.Errorf("CurrentPage() = %d, want 1", c.CurrentPage())
	}
}

// ============================================================================
// Zoom Tests
// ============================================================================

func TestSetZoomKeepsAnchorPixel(t *testing.T) {
	c := onePageController(t)

	center := geom.Point{X: 400, Y: 300}
	c.SetZoom(center, 2, 0)

	got := c.Transform()
	want := geom.NewTransform(2, -400, -300)
	if !got.AlmostEqual(want, 1e-9) {
		t.Errorf("transform = %+v, want %+v", got, want)
	}

	// The document point that was under the anchor is still under it.
	after := got.Apply(geom.Point{X: 400, Y: 300})
	if math.Abs(after.X-400) > 1e-9 || math.Abs(after.Y-300) > 1e-9 {
		t.Errorf("anchored document point now at %+v, want {400, 300}", after)
	}
}

func TestSetZoomClampsToRange(t *testing.T) {
	c := onePageController(t)
	center := geom.Point{X: 400, Y: 300}

	c.SetZoom(center, 100, 0)
	if got := c.Transform().Scale; got != 8 {
		t.Errorf("zoom above ceiling: Scale = %v, want 8", got)
	}

	c.SetZoom(center, 0.001, 0)
	if got := c.Transform().Scale; got != 0.1 {
		t.Errorf("zoom below floor: Scale = %v, want 0.1", got)
	}
}

func TestZoomStepping(t *testing.T) {
	c := onePageController(t)

	// One page exactly filling the view: cover and fit coincide at 1,
	// so the ladder is 1, 2, 4, 8 plus the fixed floor's descent.
	c.ZoomUp(false, 0)
	if got := c.Transform().Scale; math.Abs(got-2) > 1e-9 {
		t.Errorf("after ZoomUp: Scale = %v, want 2", got)
	}

	c.ZoomDown(false, 0)
	if got := c.Transform().Scale; math.Abs(got-1) > 1e-9 {
		t.Errorf("after ZoomDown: Scale = %v, want 1", got)
	}
}

func TestZoomSteppingLoop(t *testing.T) {
	c := onePageController(t)
	stops := c.ZoomStops()
	top := stops[len(stops)-1]

	c.SetZoom(geom.Point{X: 400, Y: 300}, top, 0)
	c.ZoomUp(true, 0)

	if got := c.Transform().Scale; math.Abs(got-stops[0]) > 1e-9 {
		t.Errorf("looping past the top: Scale = %v, want %v", got, stops[0])
	}
}

// ============================================================================
// Pan and Boundary Tests
// ============================================================================

func TestPanStaysWithinBoundary(t *testing.T) {
	c := onePageController(t)
	c.SetZoom(geom.Point{X: 400, Y: 300}, 2, 0)

	c.Pan(geom.Point{X: 10000, Y: 10000})
	visible := c.VisibleRect()
	if visible.Left() < -1e-9 || visible.Top() < -1e-9 {
		t.Errorf("visible rect escaped top-left: %+v", visible)
	}

	c.Pan(geom.Point{X: -20000, Y: -20000})
	visible = c.VisibleRect()
	if visible.Right() > 800+1e-9 || visible.Bottom() > 600+1e-9 {
		t.Errorf("visible rect escaped bottom-right: %+v", visible)
	}
}

func TestPanFreeWithInfiniteMargin(t *testing.T) {
	cfg := fixedRangeConfig()
	cfg.BoundaryMargin = math.Inf(1)
	c := NewController(cfg)
	c.SetViewSize(geom.Size{Width: 800, Height: 600})
	c.SetLayout(layout.Vertical{}.Layout([]layout.PageGeometry{
		{Number: 1, Size: geom.Size{Width: 800, Height: 600}},
	}, 0))

	before := c.Transform()
	c.Pan(geom.Point{X: 5000, Y: -5000})
	got := c.Transform()

	if math.Abs(got.TX-(before.TX+5000)) > 1e-9 || math.Abs(got.TY-(before.TY-5000)) > 1e-9 {
		t.Errorf("free pan altered delta: before %+v, after %+v", before, got)
	}
}

// ============================================================================
// Navigation Tests
// ============================================================================

func TestGoToPageClampsRange(t *testing.T) {
	c := NewController(fixedRangeConfig())
	c.SetViewSize(geom.Size{Width: 800, Height: 600})
	c.SetLayout(layout.Vertical{}.Layout(fivePortraitPages(), 10))

	c.GoToPage(99, AnchorCenter, 0)
	if got := c.CurrentPage(); got != 5 {
		t.Errorf("GoToPage(99): CurrentPage = %d, want 5", got)
	}

	c.GoToPage(-3, AnchorCenter, 0)
	if got := c.CurrentPage(); got != 1 {
		t.Errorf("GoToPage(-3): CurrentPage = %d, want 1", got)
	}
}

func TestGoToPageCentersTarget(t *testing.T) {
	c := NewController(fixedRangeConfig())
	c.SetViewSize(geom.Size{Width: 800, Height: 600})
	lo := layout.Vertical{}.Layout(fivePortraitPages(), 10)
	c.SetLayout(lo)

	c.GoToPage(3, AnchorCenter, 0)

	rect3, _ := lo.PageRect(3)
	got := c.Transform().Apply(rect3.Center())
	if math.Abs(got.X-400) > 1e-9 || math.Abs(got.Y-300) > 1e-9 {
		t.Errorf("page 3 center maps to %+v, want viewport center", got)
	}
}

func TestGoToArea(t *testing.T) {
	cfg := fixedRangeConfig()
	cfg.BoundaryMargin = math.Inf(1)
	c := NewController(cfg)
	c.SetViewSize(geom.Size{Width: 400, Height: 300})
	c.SetLayout(layout.Vertical{}.Layout(fivePortraitPages(), 10))

	// An area with the view's aspect ratio lands exactly.
	area := geom.NewRect(20, 340, 80, 60)
	c.GoToArea(area, AnchorTopLeft, 0)

	visible := c.VisibleRect()
	if !visible.AlmostEqual(area, 1e-9) {
		t.Errorf("visible rect = %+v, want %+v", visible, area)
	}
}

// ============================================================================
// Layout Change Tests
// ============================================================================

func TestSetLayoutReanchorsByPageFraction(t *testing.T) {
	cfg := fixedRangeConfig()
	cfg.BoundaryMargin = math.Inf(1)
	c := NewController(cfg)
	c.SetViewSize(geom.Size{Width: 400, Height: 300})

	oldLayout := layout.Vertical{}.Layout(fivePortraitPages(), 10)
	c.SetLayout(oldLayout)

	// Place the visible top-left at fraction (0.5, 0.2) of page 3's
	// rectangle at zoom 2.
	oldRect3, _ := oldLayout.PageRect(3)
	wantTopLeft := geom.Point{
		X: oldRect3.X + 0.5*oldRect3.Width,
		Y: oldRect3.Y + 0.2*oldRect3.Height,
	}
	c.GoToArea(geom.NewRect(wantTopLeft.X, wantTopLeft.Y, 200, 150), AnchorTopLeft, 0)

	if got := c.Transform().Scale; math.Abs(got-2) > 1e-9 {
		t.Fatalf("setup zoom = %v, want 2", got)
	}

	// Rotating every page swaps dimensions and moves every rectangle.
	newLayout := layout.Vertical{}.Layout(fiveLandscapePages(), 10)
	c.SetLayout(newLayout)

	newRect3, _ := newLayout.PageRect(3)
	visible := c.VisibleRect()
	fx := (visible.X - newRect3.X) / newRect3.Width
	fy := (visible.Y - newRect3.Y) / newRect3.Height

	if math.Abs(fx-0.5) > 1e-9 || math.Abs(fy-0.2) > 1e-9 {
		t.Errorf("fraction after relayout = (%v, %v), want (0.5, 0.2)", fx, fy)
	}
	if got := c.Transform().Scale; math.Abs(got-2) > 1e-9 {
		t.Errorf("zoom after relayout = %v, want preserved 2", got)
	}
}

func TestSetLayoutIdenticalIsNoop(t *testing.T) {
	c := NewController(fixedRangeConfig())
	c.SetViewSize(geom.Size{Width: 800, Height: 600})
	c.SetLayout(layout.Vertical{}.Layout(fivePortraitPages(), 10))

	var notified atomic.Int32
	defer c.Subscribe(func() { notified.Add(1) })()

	c.SetLayout(layout.Vertical{}.Layout(fivePortraitPages(), 10))
	if n := notified.Load(); n != 0 {
		t.Errorf("identical layout published %d notifications, want 0", n)
	}
}

func TestSetViewSizePreservesZoom(t *testing.T) {
	c := onePageController(t)
	c.SetZoom(geom.Point{X: 400, Y: 300}, 2, 0)

	c.SetViewSize(geom.Size{Width: 400, Height: 300})

	if got := c.Transform().Scale; math.Abs(got-2) > 1e-9 {
		t.Errorf("zoom after resize = %v, want 2", got)
	}
	visible := c.VisibleRect()
	if visible.Right() > 800+1e-9 || visible.Bottom() > 600+1e-9 {
		t.Errorf("visible rect %+v escaped document after resize", visible)
	}
}

// ============================================================================
// Physics and Subscription Tests
// ============================================================================

type recordingPhysics struct {
	calls atomic.Int32
}

func (p *recordingPhysics) Normalize(candidate geom.AffineTransform, view geom.Size, doc geom.Size) geom.AffineTransform {
	p.calls.Add(1)
	return candidate
}

func TestScrollPhysicsReplacesClamp(t *testing.T) {
	physics := &recordingPhysics{}
	cfg := fixedRangeConfig()
	cfg.Physics = physics
	c := NewController(cfg)
	c.SetViewSize(geom.Size{Width: 800, Height: 600})
	c.SetLayout(layout.Vertical{}.Layout([]layout.PageGeometry{
		{Number: 1, Size: geom.Size{Width: 800, Height: 600}},
	}, 0))

	before := c.Transform()
	c.Pan(geom.Point{X: 9999, Y: 0})

	// The built-in boundary clamp would have stopped this pan; the
	// pass-through physics lets it run free.
	if got := c.Transform().TX; math.Abs(got-(before.TX+9999)) > 1e-9 {
		t.Errorf("TX = %v, want %v", got, before.TX+9999)
	}
	if physics.calls.Load() == 0 {
		t.Error("physics was never consulted")
	}
}

func TestSubscribe(t *testing.T) {
	c := onePageController(t)

	var notified atomic.Int32
	unsubscribe := c.Subscribe(func() { notified.Add(1) })

	c.Pan(geom.Point{X: 0, Y: -50})
	if notified.Load() == 0 {
		t.Fatal("subscriber not notified of pan")
	}

	before := notified.Load()
	unsubscribe()
	c.Pan(geom.Point{X: 0, Y: 50})
	if notified.Load() != before {
		t.Error("subscriber notified after unsubscribe")
	}
}

// ============================================================================
// Animation Tests
// ============================================================================

func waitForTransform(t *testing.T, c *Controller, want geom.AffineTransform) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if c.Transform() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("transform never reached %+v, last %+v", want, c.Transform())
}

func TestAnimatedZoomLandsExactly(t *testing.T) {
	c := onePageController(t)

	c.SetZoom(geom.Point{X: 400, Y: 300}, 2, 50*time.Millisecond)

	// The final frame is exactly the normalized target.
	waitForTransform(t, c, geom.NewTransform(2, -400, -300))
}

func TestNewGestureCancelsAnimation(t *testing.T) {
	c := onePageController(t)

	c.SetZoom(geom.Point{X: 400, Y: 300}, 2, 10*time.Second)
	c.SetZoom(geom.Point{X: 400, Y: 300}, 4, 0)

	settled := c.Transform()
	if settled.Scale != 4 {
		t.Fatalf("immediate gesture did not take over: %+v", settled)
	}

	// No stale frame from the canceled animation may land afterwards.
	time.Sleep(100 * time.Millisecond)
	if got := c.Transform(); got != settled {
		t.Errorf("canceled animation published a frame: %+v -> %+v", settled, got)
	}
}

func TestCloseStopsController(t *testing.T) {
	c := onePageController(t)
	c.SetZoom(geom.Point{X: 400, Y: 300}, 2, 10*time.Second)
	c.Close()

	settled := c.Transform()
	time.Sleep(60 * time.Millisecond)
	if got := c.Transform(); got != settled {
		t.Errorf("transform moved after Close: %+v -> %+v", settled, got)
	}

	c.Pan(geom.Point{X: 100, Y: 100})
	if got := c.Transform(); got != settled {
		t.Errorf("gesture applied after Close: %+v", got)
	}
}
