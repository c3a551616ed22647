package geom

import (
	"math"
	"testing"
)

// ============================================================================
// AffineTransform Tests
// ============================================================================

func TestIdentity(t *testing.T) {
	id := Identity()
	p := Point{123, 456}

	if got := id.Apply(p); got != p {
		t.Errorf("Identity().Apply(%+v) = %+v, want unchanged", p, got)
	}
}

func TestTransformApply(t *testing.T) {
	tr := NewTransform(2, 10, -20)

	tests := []struct {
		name string
		in   Point
		want Point
	}{
		{"origin", Point{0, 0}, Point{10, -20}},
		{"unit", Point{1, 1}, Point{12, -18}},
		{"negative", Point{-5, 5}, Point{0, -10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tr.Apply(tt.in); got != tt.want {
				t.Errorf("Apply(%+v) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestTransformRoundTrip(t *testing.T) {
	transforms := []AffineTransform{
		Identity(),
		NewTransform(2, 100, 50),
		NewTransform(0.25, -300, 700),
		NewTransform(13.7, 0.001, -9999),
	}
	points := []Point{{0, 0}, {1, 1}, {-123.4, 567.8}, {1e6, -1e6}}

	for _, tr := range transforms {
		for _, p := range points {
			got := tr.ApplyInverse(tr.Apply(p))
			if math.Abs(got.X-p.X) > 1e-6 || math.Abs(got.Y-p.Y) > 1e-6 {
				t.Errorf("round trip of %+v through %+v = %+v", p, tr, got)
			}
		}
	}
}

func TestTransformInvert(t *testing.T) {
	tr := NewTransform(4, 20, -8)
	inv := tr.Invert()
	p := Point{33, 77}

	forward := tr.Apply(p)
	back := inv.Apply(forward)
	if math.Abs(back.X-p.X) > 1e-9 || math.Abs(back.Y-p.Y) > 1e-9 {
		t.Errorf("Invert().Apply(Apply(p)) = %+v, want %+v", back, p)
	}

	// Composing a transform with its inverse yields the identity.
	composed := tr.Compose(inv)
	if !composed.AlmostEqual(Identity(), 1e-9) {
		t.Errorf("Compose(Invert()) = %+v, want identity", composed)
	}
}

func TestTransformCompose(t *testing.T) {
	a := NewTransform(2, 10, 0)
	b := NewTransform(3, 0, 5)
	p := Point{1, 1}

	// Compose applies the argument first.
	want := a.Apply(b.Apply(p))
	got := a.Compose(b).Apply(p)
	if math.Abs(got.X-want.X) > 1e-9 || math.Abs(got.Y-want.Y) > 1e-9 {
		t.Errorf("Compose().Apply() = %+v, want %+v", got, want)
	}
}

func TestScaledAroundKeepsAnchor(t *testing.T) {
	tests := []struct {
		name     string
		tr       AffineTransform
		anchor   Point
		newScale float64
	}{
		{"zoom in at center", NewTransform(1, 0, 0), Point{400, 300}, 2},
		{"zoom out at corner", NewTransform(2, -100, -50), Point{0, 0}, 0.5},
		{"zoom at cursor", NewTransform(1.5, 37, -42), Point{213, 597}, 3.3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docPoint := tt.tr.ApplyInverse(tt.anchor)
			next := tt.tr.ScaledAround(tt.anchor, tt.newScale)

			if math.Abs(next.Scale-tt.newScale) > 1e-9 {
				t.Errorf("ScaledAround() scale = %v, want %v", next.Scale, tt.newScale)
			}

			after := next.Apply(docPoint)
			if math.Abs(after.X-tt.anchor.X) > 1e-6 || math.Abs(after.Y-tt.anchor.Y) > 1e-6 {
				t.Errorf("anchor moved: document point maps to %+v, want %+v", after, tt.anchor)
			}
		})
	}
}

func TestScaledAroundViewCenter(t *testing.T) {
	// An 800x600 viewport at scale 1.0 with the origin at the top-left.
	// Doubling the zoom about the viewport center must keep document
	// point (400, 300) at viewport (400, 300).
	tr := Identity()
	center := Point{400, 300}

	next := tr.ScaledAround(center, 2)

	if next.TX != -400 || next.TY != -300 {
		t.Errorf("ScaledAround(center, 2) = %+v, want {Scale: 2, TX: -400, TY: -300}", next)
	}
	if got := next.Apply(Point{400, 300}); got != center {
		t.Errorf("center document point maps to %+v, want %+v", got, center)
	}
}

func TestTransformLerp(t *testing.T) {
	from := NewTransform(1, 0, 0)
	to := NewTransform(3, 100, -60)

	if got := from.Lerp(to, 0); !got.AlmostEqual(from, 1e-12) {
		t.Errorf("Lerp(0) = %+v, want %+v", got, from)
	}
	if got := from.Lerp(to, 1); !got.AlmostEqual(to, 1e-12) {
		t.Errorf("Lerp(1) = %+v, want %+v", got, to)
	}

	mid := from.Lerp(to, 0.5)
	want := NewTransform(2, 50, -30)
	if !mid.AlmostEqual(want, 1e-12) {
		t.Errorf("Lerp(0.5) = %+v, want %+v", mid, want)
	}
}

func TestVisibleRect(t *testing.T) {
	tests := []struct {
		name string
		tr   AffineTransform
		view Size
		want Rect
	}{
		{"identity", Identity(), Size{800, 600}, Rect{0, 0, 800, 600}},
		{"zoomed in", NewTransform(2, 0, 0), Size{800, 600}, Rect{0, 0, 400, 300}},
		{"zoomed and panned", NewTransform(2, -400, -300), Size{800, 600}, Rect{200, 150, 400, 300}},
		{"zoomed out", NewTransform(0.5, 0, 0), Size{800, 600}, Rect{0, 0, 1600, 1200}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.tr.VisibleRect(tt.view)
			if !got.AlmostEqual(tt.want, 1e-9) {
				t.Errorf("VisibleRect() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestApplyToRect(t *testing.T) {
	tr := NewTransform(2, 10, 20)
	r := NewRect(5, 5, 50, 25)

	got := tr.ApplyToRect(r)
	want := Rect{20, 30, 100, 50}
	if got != want {
		t.Errorf("ApplyToRect() = %+v, want %+v", got, want)
	}
}

func TestTransformIsValid(t *testing.T) {
	tests := []struct {
		name     string
		tr       AffineTransform
		expected bool
	}{
		{"identity", Identity(), true},
		{"normal", NewTransform(2.5, 1, 1), true},
		{"zero scale", AffineTransform{}, false},
		{"negative scale", NewTransform(-1, 0, 0), false},
		{"infinite scale", NewTransform(math.Inf(1), 0, 0), false},
		{"nan scale", NewTransform(math.NaN(), 0, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.tr.IsValid(); got != tt.expected {
				t.Errorf("IsValid() = %v, want %v", got, tt.expected)
			}
		})
	}
}
