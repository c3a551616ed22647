package layout

import (
	"math"

	"github.com/tsawler/lectern/geom"
)

// MinScaleMode selects how the effective minimum zoom is derived.
type MinScaleMode int

const (
	// MinScaleFit floors the zoom at the scale that fits the current
	// page (or covers the document, whichever is smaller), so zooming
	// out stops once the page is fully visible.
	MinScaleFit MinScaleMode = iota

	// MinScaleFixed uses the configured MinScale as-is.
	MinScaleFixed

	// MinScaleCoverDivided floors the zoom at the cover scale divided by
	// MaxPagesVisible, allowing that many pages into view at once.
	MinScaleCoverDivided
)

func (m MinScaleMode) String() string {
	switch m {
	case MinScaleFixed:
		return "Fixed"
	case MinScaleCoverDivided:
		return "CoverDivided"
	default:
		return "Fit"
	}
}

// MetricsConfig holds the zoom range configuration.
type MetricsConfig struct {
	// MinScale is the configured zoom floor, used directly by
	// MinScaleFixed and as the fallback when a page-fit scale cannot be
	// computed.
	MinScale float64

	// MaxScale is the zoom ceiling.
	MaxScale float64

	// Mode selects how the effective minimum is derived.
	Mode MinScaleMode

	// MaxPagesVisible bounds how far MinScaleCoverDivided zooms out,
	// expressed as a page count.
	MaxPagesVisible int
}

// DefaultMetricsConfig returns the standard zoom range: floor 1/8,
// ceiling 8x, page-fit minimum.
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		MinScale:        0.1,
		MaxScale:        8,
		Mode:            MinScaleFit,
		MaxPagesVisible: 2,
	}
}

// Metrics are the view-dependent zoom quantities: the scale that makes
// the document cover the viewport, the scale that fits the pivot page,
// and the effective zoom range derived from them.
type Metrics struct {
	View geom.Size

	// CoverScale is max(viewW/docW, viewH/docH): the smallest scale at
	// which the document fills the whole viewport.
	CoverScale float64

	// FitScale is the largest scale at which the pivot page, padded by
	// the page margin, fits entirely inside the viewport. Zero when no
	// pivot page was available or the view is too small.
	FitScale float64

	// MinScale and MaxScale are the effective zoom bounds after the
	// mode policy is applied.
	MinScale float64
	MaxScale float64

	Mode MinScaleMode
}

// IsZero reports whether the metrics are unusable, as produced for an
// empty view or an empty document.
func (m Metrics) IsZero() bool {
	return m.CoverScale == 0
}

// ClampScale clamps a zoom factor into the effective range.
func (m Metrics) ClampScale(scale float64) float64 {
	if m.IsZero() {
		return scale
	}
	return math.Max(m.MinScale, math.Min(m.MaxScale, scale))
}

// CalcMetrics computes the zoom metrics for a view size, a layout, and
// a pivot page (1-indexed, usually the current page). A view with a
// non-positive dimension or an empty layout yields zero Metrics, which
// callers treat as "defer until a real size arrives".
func CalcMetrics(view geom.Size, lo PageLayout, pivotPage int, pageMargin float64, cfg MetricsConfig) Metrics {
	if view.IsEmpty() || lo.Size.IsEmpty() {
		return Metrics{View: view, Mode: cfg.Mode}
	}

	m := Metrics{
		View:       view,
		CoverScale: math.Max(view.Width/lo.Size.Width, view.Height/lo.Size.Height),
		MaxScale:   cfg.MaxScale,
		Mode:       cfg.Mode,
	}

	if rect, ok := lo.PageRect(pivotPage); ok && !rect.IsEmpty() {
		m2 := pageMargin * 2
		fit := math.Min((view.Width-m2)/rect.Width, (view.Height-m2)/rect.Height)
		if fit > 0 {
			m.FitScale = fit
		}
	}

	switch cfg.Mode {
	case MinScaleFixed:
		m.MinScale = cfg.MinScale
	case MinScaleCoverDivided:
		pages := cfg.MaxPagesVisible
		if pages < 1 {
			pages = 1
		}
		m.MinScale = m.CoverScale / float64(pages)
	default: // MinScaleFit
		if m.FitScale > 0 {
			m.MinScale = math.Min(m.CoverScale, m.FitScale)
		} else {
			m.MinScale = cfg.MinScale
		}
	}

	return m
}
