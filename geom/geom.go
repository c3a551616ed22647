package geom

import "math"

// Point represents a 2D point
type Point struct {
	X, Y float64
}

// Add returns the sum of two points (vector addition).
func (p Point) Add(other Point) Point {
	return Point{X: p.X + other.X, Y: p.Y + other.Y}
}

// Sub returns the difference of two points.
func (p Point) Sub(other Point) Point {
	return Point{X: p.X - other.X, Y: p.Y - other.Y}
}

// Scale returns the point scaled by a factor.
func (p Point) Scale(factor float64) Point {
	return Point{X: p.X * factor, Y: p.Y * factor}
}

// Distance calculates the Euclidean distance to another point
func (p Point) Distance(other Point) float64 {
	return math.Sqrt(p.SquaredDistance(other))
}

// SquaredDistance returns the squared Euclidean distance to another point.
// Preferred over Distance for ordering comparisons since it avoids the
// square root.
func (p Point) SquaredDistance(other Point) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return dx*dx + dy*dy
}

// Size represents a width/height pair.
type Size struct {
	Width  float64
	Height float64
}

// IsEmpty returns true if either dimension is zero or negative.
func (s Size) IsEmpty() bool {
	return s.Width <= 0 || s.Height <= 0
}

// AspectRatio returns width divided by height, or 0 for an empty size.
func (s Size) AspectRatio() float64 {
	if s.Height == 0 {
		return 0
	}
	return s.Width / s.Height
}

// Rect represents a rectangle in viewer coordinates. Unlike PDF page
// space, the origin is the top-left corner and Y grows downward.
type Rect struct {
	X      float64 // Left
	Y      float64 // Top
	Width  float64
	Height float64
}

// NewRect creates a rectangle from its top-left corner and dimensions.
func NewRect(x, y, width, height float64) Rect {
	return Rect{X: x, Y: y, Width: width, Height: height}
}

// RectFromPoints creates the bounding rectangle of two points.
func RectFromPoints(p1, p2 Point) Rect {
	x := math.Min(p1.X, p2.X)
	y := math.Min(p1.Y, p2.Y)
	return Rect{
		X:      x,
		Y:      y,
		Width:  math.Abs(p2.X - p1.X),
		Height: math.Abs(p2.Y - p1.Y),
	}
}

// RectFromSize creates a rectangle at the origin with the given size.
func RectFromSize(s Size) Rect {
	return Rect{Width: s.Width, Height: s.Height}
}

// Left returns the left edge X coordinate.
func (r Rect) Left() float64 {
	return r.X
}

// Right returns the right edge X coordinate.
func (r Rect) Right() float64 {
	return r.X + r.Width
}

// Top returns the top edge Y coordinate.
func (r Rect) Top() float64 {
	return r.Y
}

// Bottom returns the bottom edge Y coordinate.
func (r Rect) Bottom() float64 {
	return r.Y + r.Height
}

// TopLeft returns the top-left corner.
func (r Rect) TopLeft() Point {
	return Point{X: r.X, Y: r.Y}
}

// BottomRight returns the bottom-right corner.
func (r Rect) BottomRight() Point {
	return Point{X: r.X + r.Width, Y: r.Y + r.Height}
}

// Center returns the center point.
func (r Rect) Center() Point {
	return Point{
		X: r.X + r.Width/2,
		Y: r.Y + r.Height/2,
	}
}

// Size returns the rectangle's dimensions.
func (r Rect) Size() Size {
	return Size{Width: r.Width, Height: r.Height}
}

// Contains checks if a point is inside the rectangle. Edges count as
// inside.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Left() && p.X <= r.Right() &&
		p.Y >= r.Top() && p.Y <= r.Bottom()
}

// ContainsRect checks if the other rectangle lies entirely inside r.
func (r Rect) ContainsRect(other Rect) bool {
	return other.Left() >= r.Left() && other.Right() <= r.Right() &&
		other.Top() >= r.Top() && other.Bottom() <= r.Bottom()
}

// Intersects checks if two rectangles intersect.
func (r Rect) Intersects(other Rect) bool {
	return !(r.Right() < other.Left() ||
		r.Left() > other.Right() ||
		r.Bottom() < other.Top() ||
		r.Top() > other.Bottom())
}

// Intersection returns the intersection of two rectangles, or the zero
// Rect when they do not intersect.
func (r Rect) Intersection(other Rect) Rect {
	if !r.Intersects(other) {
		return Rect{}
	}

	x := math.Max(r.Left(), other.Left())
	y := math.Max(r.Top(), other.Top())
	right := math.Min(r.Right(), other.Right())
	bottom := math.Min(r.Bottom(), other.Bottom())

	return Rect{
		X:      x,
		Y:      y,
		Width:  right - x,
		Height: bottom - y,
	}
}

// Union returns the smallest rectangle containing both rectangles.
func (r Rect) Union(other Rect) Rect {
	x := math.Min(r.Left(), other.Left())
	y := math.Min(r.Top(), other.Top())
	right := math.Max(r.Right(), other.Right())
	bottom := math.Max(r.Bottom(), other.Bottom())

	return Rect{
		X:      x,
		Y:      y,
		Width:  right - x,
		Height: bottom - y,
	}
}

// Area returns the area of the rectangle.
func (r Rect) Area() float64 {
	return r.Width * r.Height
}

// Inflate grows the rectangle by dx on the left and right and dy on the
// top and bottom. Either value may be infinite, producing an unbounded
// edge, which boundary clamping treats as free panning.
func (r Rect) Inflate(dx, dy float64) Rect {
	return Rect{
		X:      r.X - dx,
		Y:      r.Y - dy,
		Width:  r.Width + 2*dx,
		Height: r.Height + 2*dy,
	}
}

// Translated returns the rectangle shifted by (dx, dy).
func (r Rect) Translated(dx, dy float64) Rect {
	return Rect{X: r.X + dx, Y: r.Y + dy, Width: r.Width, Height: r.Height}
}

// Scaled returns the rectangle with all coordinates multiplied by factor.
func (r Rect) Scaled(factor float64) Rect {
	return Rect{
		X:      r.X * factor,
		Y:      r.Y * factor,
		Width:  r.Width * factor,
		Height: r.Height * factor,
	}
}

// IsEmpty returns true if the rectangle has zero or negative area.
func (r Rect) IsEmpty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// SquaredDistanceTo returns the squared distance from the point to the
// nearest point of the rectangle. A point inside the rectangle has
// distance zero.
func (r Rect) SquaredDistanceTo(p Point) float64 {
	dx := math.Max(math.Max(r.Left()-p.X, 0), p.X-r.Right())
	dy := math.Max(math.Max(r.Top()-p.Y, 0), p.Y-r.Bottom())
	return dx*dx + dy*dy
}

// AlmostEqual reports whether two rectangles are equal within epsilon on
// every coordinate.
func (r Rect) AlmostEqual(other Rect, epsilon float64) bool {
	return math.Abs(r.X-other.X) <= epsilon &&
		math.Abs(r.Y-other.Y) <= epsilon &&
		math.Abs(r.Width-other.Width) <= epsilon &&
		math.Abs(r.Height-other.Height) <= epsilon
}
