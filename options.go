package lectern

import (
	"time"

	"github.com/tsawler/lectern/layout"
	"github.com/tsawler/lectern/render"
	"github.com/tsawler/lectern/selection"
	"github.com/tsawler/lectern/viewport"
)

// Options holds the viewer's assembled configuration. Values are set
// through Option functions at construction time and are fixed for the
// viewer's lifetime.
type Options struct {
	strategy       layout.Strategy
	pageMargin     float64
	boundaryMargin float64
	metrics        layout.MetricsConfig
	physics        viewport.ScrollPhysics
	cache          render.Config
	hitTestMargin  float64
	animation      time.Duration
}

// defaultOptions returns the standard viewer configuration: vertical
// page stacking, panning pinned to the document edges, page-fit zoom
// floor, default cache parameters, and 200 ms animated navigation.
func defaultOptions() Options {
	vc := viewport.DefaultConfig()
	return Options{
		strategy:       layout.Vertical{},
		pageMargin:     vc.PageMargin,
		boundaryMargin: vc.BoundaryMargin,
		metrics:        vc.Metrics,
		cache:          render.DefaultConfig(),
		hitTestMargin:  selection.DefaultConfig().HitTestMargin,
		animation:      200 * time.Millisecond,
	}
}

// Option adjusts the viewer configuration.
type Option func(*Options)

// WithLayoutStrategy replaces the page placement strategy. The default
// stacks pages vertically; layout.Horizontal lays them out in a row.
func WithLayoutStrategy(s layout.Strategy) Option {
	return func(o *Options) {
		if s != nil {
			o.strategy = s
		}
	}
}

// WithPageMargin sets the document-space margin around and between
// pages, in points.
func WithPageMargin(margin float64) Option {
	return func(o *Options) {
		if margin >= 0 {
			o.pageMargin = margin
		}
	}
}

// WithBoundaryMargin sets how far past the document edges the view may
// pan. Zero pins the document to the viewport; math.Inf(1) allows free
// panning.
func WithBoundaryMargin(margin float64) Option {
	return func(o *Options) {
		if margin >= 0 {
			o.boundaryMargin = margin
		}
	}
}

// WithMinScale sets the configured zoom floor. How it combines with the
// page-fit and cover scales depends on the min-scale mode.
func WithMinScale(scale float64) Option {
	return func(o *Options) {
		if scale > 0 {
			o.metrics.MinScale = scale
		}
	}
}

// WithMaxScale sets the zoom ceiling.
func WithMaxScale(scale float64) Option {
	return func(o *Options) {
		if scale > 0 {
			o.metrics.MaxScale = scale
		}
	}
}

// WithMinScaleMode selects how the effective minimum zoom is derived
// from the configured floor, the page-fit scale, and the cover scale.
func WithMinScaleMode(mode layout.MinScaleMode) Option {
	return func(o *Options) {
		o.metrics.Mode = mode
	}
}

// WithScrollPhysics installs a position normalization policy that
// replaces the built-in boundary clamp entirely.
func WithScrollPhysics(p viewport.ScrollPhysics) Option {
	return func(o *Options) {
		o.physics = p
	}
}

// WithMemoryBudget caps the total bytes of cached page bitmaps, counted
// at four bytes per pixel.
func WithMemoryBudget(bytes int64) Option {
	return func(o *Options) {
		if bytes > 0 {
			o.cache.MemoryBudget = bytes
		}
	}
}

// WithPreviewCap bounds full-page preview rasters: maxScale caps the
// render scale and maxPixels caps the larger bitmap dimension.
// Whichever limit bites first wins; zoom beyond the cap is served by
// partial tiles instead.
func WithPreviewCap(maxScale float64, maxPixels int) Option {
	return func(o *Options) {
		if maxScale > 0 {
			o.cache.PreviewMaxScale = maxScale
		}
		if maxPixels > 0 {
			o.cache.PreviewMaxPixels = maxPixels
		}
	}
}

// WithCacheExtent sets how far beyond the visible rectangle pages stay
// rendered, as fractions of the viewport width and height. Zero caches
// only what is visible.
func WithCacheExtent(x, y float64) Option {
	return func(o *Options) {
		if x >= 0 {
			o.cache.CacheExtentX = x
		}
		if y >= 0 {
			o.cache.CacheExtentY = y
		}
	}
}

// WithRenderDebounce sets the delays before re-rendering while the view
// is still moving: previews after zoom changes, partial tiles after
// pans. Zero renders on every change.
func WithRenderDebounce(preview, partial time.Duration) Option {
	return func(o *Options) {
		if preview >= 0 {
			o.cache.PreviewDebounce = preview
		}
		if partial >= 0 {
			o.cache.PartialDebounce = partial
		}
	}
}

// WithMaxConcurrentRenders bounds the number of simultaneous
// Page.Render calls.
func WithMaxConcurrentRenders(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.cache.MaxConcurrent = n
		}
	}
}

// WithHitTestMargin sets how far outside a character's box, in points,
// a selection tap or drag still snaps to it.
func WithHitTestMargin(margin float64) Option {
	return func(o *Options) {
		if margin >= 0 {
			o.hitTestMargin = margin
		}
	}
}

// WithAnimationDuration sets how long animated navigations take: zoom
// stepping, page jumps, and area jumps. Zero makes them immediate.
// Continuous gestures (Pan, SetZoom) are always immediate.
func WithAnimationDuration(d time.Duration) Option {
	return func(o *Options) {
		if d >= 0 {
			o.animation = d
		}
	}
}
