// Package geom provides the coordinate types shared by every layer of
// the viewer: points, sizes, rectangles, and the affine transform that
// maps document space to viewport space.
//
// # Coordinate Spaces
//
// Two coordinate spaces appear throughout the module:
//
//   - Document space: the fixed plane in which page rectangles are laid
//     out at scale 1.0. The origin is the top-left corner of the overall
//     layout and Y grows downward.
//   - Viewport space: pixels of the visible widget, origin at its
//     top-left corner.
//
// [AffineTransform] converts between them. It is restricted to a uniform
// scale plus a translation, so a single float comparison answers "what
// is the zoom level" and the inverse mapping is exact. Page rotation
// never enters the transform; rotated pages simply report swapped
// dimensions to the layout.
//
// # Transforms
//
// The transform maps document point d to viewport point v as
//
//	v = d*Scale + (TX, TY)
//
// [AffineTransform.ScaledAround] is the primitive behind zoom gestures:
// it changes the scale while keeping the document point under a given
// viewport anchor stationary, which is what a user expects when zooming
// about the cursor or a pinch focal point.
//
// [AffineTransform.VisibleRect] answers the inverse question, returning
// the document-space rectangle currently visible through a viewport of a
// given size. The render scheduler and the layout both consume it.
//
// # Rectangles
//
// [Rect] is a top-left-anchored rectangle. [Rect.Inflate] accepts
// infinite margins, which the viewport's boundary clamp interprets as
// free panning on that axis. [Rect.SquaredDistanceTo] orders cached page
// bitmaps for eviction without paying for a square root.
package geom
