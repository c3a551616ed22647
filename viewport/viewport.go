package viewport

import (
	"math"

	"github.com/tsawler/lectern/geom"
	"github.com/tsawler/lectern/layout"
)

// Anchor names the point of a target area that aligns with the
// corresponding point of the viewport when navigating to it.
type Anchor int

const (
	AnchorTopLeft Anchor = iota
	AnchorTopCenter
	AnchorTopRight
	AnchorCenterLeft
	AnchorCenter
	AnchorCenterRight
	AnchorBottomLeft
	AnchorBottomCenter
	AnchorBottomRight
)

// fractions returns the share of leftover viewport space placed before
// the area on each axis.
func (a Anchor) fractions() (fx, fy float64) {
	switch a {
	case AnchorTopCenter:
		return 0.5, 0
	case AnchorTopRight:
		return 1, 0
	case AnchorCenterLeft:
		return 0, 0.5
	case AnchorCenter:
		return 0.5, 0.5
	case AnchorCenterRight:
		return 1, 0.5
	case AnchorBottomLeft:
		return 0, 1
	case AnchorBottomCenter:
		return 0.5, 1
	case AnchorBottomRight:
		return 1, 1
	default:
		return 0, 0
	}
}

// ScrollPhysics replaces the controller's position normalization
// wholesale. When installed, every candidate transform passes through
// Normalize instead of the built-in boundary clamp; the two policies
// never combine. Scale clamping into the metrics range happens before
// either policy runs.
type ScrollPhysics interface {
	Normalize(candidate geom.AffineTransform, view geom.Size, doc geom.Size) geom.AffineTransform
}

// Config holds the controller's fixed parameters.
type Config struct {
	// PageMargin is the layout margin around pages, also applied when
	// fitting a single page into view.
	PageMargin float64

	// BoundaryMargin extends the pannable region beyond the document
	// edges. Zero pins the document to the viewport; math.Inf(1) allows
	// free panning.
	BoundaryMargin float64

	// Metrics configures the zoom range derivation.
	Metrics layout.MetricsConfig

	// Physics, when non-nil, replaces the built-in position
	// normalization.
	Physics ScrollPhysics
}

// DefaultConfig returns the standard interactive-viewer parameters.
func DefaultConfig() Config {
	return Config{
		PageMargin:     8,
		BoundaryMargin: 0,
		Metrics:        layout.DefaultMetricsConfig(),
	}
}

// ClampToBoundary shifts a candidate transform the minimal amount that
// keeps the visible rectangle inside the document rectangle inflated by
// the boundary margin. An infinite margin disables clamping entirely.
// An axis on which the visible rectangle is larger than the inflated
// document is centered instead.
func ClampToBoundary(t geom.AffineTransform, view geom.Size, doc geom.Rect, margin float64) geom.AffineTransform {
	if math.IsInf(margin, 1) {
		return t
	}

	bounds := doc.Inflate(margin, margin)
	visible := t.VisibleRect(view)

	switch {
	case visible.Width >= bounds.Width:
		t.TX = view.Width/2 - bounds.Center().X*t.Scale
	case visible.Left() < bounds.Left():
		t.TX = -bounds.Left() * t.Scale
	case visible.Right() > bounds.Right():
		t.TX = view.Width - bounds.Right()*t.Scale
	}

	switch {
	case visible.Height >= bounds.Height:
		t.TY = view.Height/2 - bounds.Center().Y*t.Scale
	case visible.Top() < bounds.Top():
		t.TY = -bounds.Top() * t.Scale
	case visible.Bottom() > bounds.Bottom():
		t.TY = view.Height - bounds.Bottom()*t.Scale
	}

	return t
}

// TransformForArea builds the transform that shows the given
// document-space area at the zoom that just fits it into the viewport,
// positioned per the anchor. When the fitted zoom is later clamped the
// anchor still decides which part of the area stays in view.
func TransformForArea(area geom.Rect, anchor Anchor, view geom.Size, zoom float64) geom.AffineTransform {
	fx, fy := anchor.fractions()
	extraX := view.Width - area.Width*zoom
	extraY := view.Height - area.Height*zoom
	return geom.AffineTransform{
		Scale: zoom,
		TX:    -area.X*zoom + extraX*fx,
		TY:    -area.Y*zoom + extraY*fy,
	}
}

// FitZoom returns the zoom that just fits the area into the viewport.
func FitZoom(area geom.Rect, view geom.Size) float64 {
	if area.IsEmpty() || view.IsEmpty() {
		return 1
	}
	return math.Min(view.Width/area.Width, view.Height/area.Height)
}
