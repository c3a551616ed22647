// Package viewport owns the view transform and every rule about how it
// may change.
//
// # Controller
//
// [Controller] is the single writer of the transform. Gestures
// ([Controller.Pan], [Controller.SetZoom], [Controller.ZoomUp]) and
// navigation ([Controller.GoToPage], [Controller.GoToArea]) all funnel
// through one normalization step before publication, so a subscriber
// never observes a transform that violates the zoom range or the
// boundary policy.
//
// The controller needs two inputs before it acts: a viewport size
// ([Controller.SetViewSize]) and a page layout
// ([Controller.SetLayout]). Until both arrive every gesture is a no-op.
// When the layout's geometry changes later, for example after a page
// rotation, the controller re-anchors: it finds the page under the old
// visible top-left corner and reproduces the corner's fractional
// position within that page's new rectangle, so the reader does not
// lose their place.
//
// # Normalization
//
// A candidate transform is normalized in two steps. The scale is
// clamped into the metrics range, pivoting around the viewport center.
// Then the position policy runs: by default [ClampToBoundary], which
// keeps the visible rectangle inside the document inflated by the
// boundary margin and centers any axis the document cannot fill. An
// infinite boundary margin turns clamping off. Installing a
// [ScrollPhysics] replaces the position policy wholesale; the built-in
// clamp and custom physics never combine.
//
// # Animation
//
// Moves taking a positive duration animate on a background goroutine at
// about 60 fps with smoothstep easing. Any new gesture cancels the
// running animation; the final frame of an uninterrupted animation is
// exactly the normalized target.
package viewport
