package geom

import "math"

// AffineTransform maps document coordinates to viewport coordinates
// using a uniform scale followed by a translation. Rotation and skew are
// deliberately absent; page rotation is resolved when pages report their
// size, so the view transform stays a similarity and its inverse stays
// exact.
type AffineTransform struct {
	Scale float64 // Uniform scale factor, always > 0 for a valid transform
	TX    float64 // Horizontal translation in viewport units
	TY    float64 // Vertical translation in viewport units
}

// Identity returns the identity transform.
func Identity() AffineTransform {
	return AffineTransform{Scale: 1}
}

// NewTransform creates a transform with the given scale and translation.
func NewTransform(scale, tx, ty float64) AffineTransform {
	return AffineTransform{Scale: scale, TX: tx, TY: ty}
}

// IsValid reports whether the transform has a positive finite scale.
func (t AffineTransform) IsValid() bool {
	return t.Scale > 0 && !math.IsInf(t.Scale, 0) && !math.IsNaN(t.Scale)
}

// Apply maps a point from document space to viewport space.
func (t AffineTransform) Apply(p Point) Point {
	return Point{
		X: p.X*t.Scale + t.TX,
		Y: p.Y*t.Scale + t.TY,
	}
}

// ApplyInverse maps a point from viewport space back to document space.
func (t AffineTransform) ApplyInverse(p Point) Point {
	return Point{
		X: (p.X - t.TX) / t.Scale,
		Y: (p.Y - t.TY) / t.Scale,
	}
}

// ApplyToRect maps a document-space rectangle to viewport space.
func (t AffineTransform) ApplyToRect(r Rect) Rect {
	return Rect{
		X:      r.X*t.Scale + t.TX,
		Y:      r.Y*t.Scale + t.TY,
		Width:  r.Width * t.Scale,
		Height: r.Height * t.Scale,
	}
}

// Invert returns the inverse transform, mapping viewport space back to
// document space.
func (t AffineTransform) Invert() AffineTransform {
	return AffineTransform{
		Scale: 1 / t.Scale,
		TX:    -t.TX / t.Scale,
		TY:    -t.TY / t.Scale,
	}
}

// Compose returns the transform equivalent to applying other first and
// then t.
func (t AffineTransform) Compose(other AffineTransform) AffineTransform {
	return AffineTransform{
		Scale: t.Scale * other.Scale,
		TX:    other.TX*t.Scale + t.TX,
		TY:    other.TY*t.Scale + t.TY,
	}
}

// Translated returns the transform shifted by (dx, dy) in viewport
// units.
func (t AffineTransform) Translated(dx, dy float64) AffineTransform {
	return AffineTransform{Scale: t.Scale, TX: t.TX + dx, TY: t.TY + dy}
}

// ScaledAround returns a transform with the new scale where the given
// viewport-space anchor point keeps showing the same document point.
// This is the zoom-about-cursor primitive: the document point under the
// anchor before the change is still under it afterwards.
func (t AffineTransform) ScaledAround(anchor Point, newScale float64) AffineTransform {
	ratio := newScale / t.Scale
	return AffineTransform{
		Scale: newScale,
		TX:    anchor.X - (anchor.X-t.TX)*ratio,
		TY:    anchor.Y - (anchor.Y-t.TY)*ratio,
	}
}

// Lerp linearly interpolates between two transforms. fraction 0 returns
// t, fraction 1 returns target. Intermediate scales stay positive as
// long as both endpoints are valid.
func (t AffineTransform) Lerp(target AffineTransform, fraction float64) AffineTransform {
	return AffineTransform{
		Scale: t.Scale + (target.Scale-t.Scale)*fraction,
		TX:    t.TX + (target.TX-t.TX)*fraction,
		TY:    t.TY + (target.TY-t.TY)*fraction,
	}
}

// VisibleRect returns the document-space rectangle visible through a
// viewport of the given size.
func (t AffineTransform) VisibleRect(view Size) Rect {
	return Rect{
		X:      -t.TX / t.Scale,
		Y:      -t.TY / t.Scale,
		Width:  view.Width / t.Scale,
		Height: view.Height / t.Scale,
	}
}

// AlmostEqual reports whether two transforms are equal within epsilon on
// every component.
func (t AffineTransform) AlmostEqual(other AffineTransform, epsilon float64) bool {
	return math.Abs(t.Scale-other.Scale) <= epsilon &&
		math.Abs(t.TX-other.TX) <= epsilon &&
		math.Abs(t.TY-other.TY) <= epsilon
}
