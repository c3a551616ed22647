// Package layout places document pages in document space and derives
// the zoom quantities that depend on that placement.
//
// # Strategies
//
// A [Strategy] is a pure function from page geometries and a margin to
// a [PageLayout]. [Vertical] is the familiar stacked-pages arrangement
// and the default; [Horizontal] lays pages out in a single row. Custom
// strategies (facing pages, grids) only need the one method.
//
// The resulting [PageLayout] answers the geometric queries the rest of
// the viewer asks: which page contains a point ([PageLayout.PageAt]),
// which pages intersect a region ([PageLayout.PagesIn]), and whether
// two layouts differ at all ([PageLayout.Equal]), which is the signal
// that forces the viewport to re-anchor.
//
// # Metrics and Zoom Stops
//
// [CalcMetrics] computes, for a given view size, the cover scale (the
// document just fills the viewport) and the fit scale (the pivot page
// just fits), then applies a [MinScaleMode] policy to produce the
// effective zoom range.
//
// [BuildZoomStops] turns those metrics into the ladder of discrete zoom
// levels used by zoom-in/zoom-out stepping, and [NextStop] walks the
// ladder with optional wrap-around.
package layout
