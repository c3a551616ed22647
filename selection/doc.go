// Package selection turns per-character page geometry into cross-page
// text selections.
//
// # Points and ranges
//
// A selection is pinned by two [Point] values ordered by page, then
// character index. [Engine.Update] converts any two points into
// per-page [Range] values: both points on one page yield a single
// inclusive range; points on different pages yield the first page's
// tail, a full-page range for every page between that has text, and the
// last page's head. Pages without text contribute nothing, so the
// ranges are always page-ordered, non-overlapping, and dense over the
// selected characters.
//
// # Hit testing
//
// [Engine.HitTest] maps a document-space point to a character. Only
// pages whose layout rectangle contains the point are candidates, so
// margins and inter-page gaps never hit. Within a page an exact
// bounding-box hit wins; otherwise the nearest character within the
// margin is taken by squared distance. A candidate page whose text has
// not been extracted yet is skipped and extraction starts in the
// background; the invalidation callback tells the caller to retry.
//
// # Gestures
//
// [Engine.BeginDrag], [Engine.DragTo], and [Engine.EndDrag] drive the
// three gesture modes: a free drag grows a fresh selection from the
// first dragged-over character, and the two anchor modes move one
// selection edge while the other stays pinned, swapping sides when
// dragged past it. [Engine.SelectWord] snaps to the fragment under a
// point and [Engine.SelectAll] spans every page with text.
//
// # Direction
//
// Each selection handle ([Engine.Anchors]) faces the dominant reading
// direction of its edge fragment: the provider's tag when present,
// otherwise [document.DetectDirection]'s Unicode bidi analysis of the
// fragment text.
package selection
