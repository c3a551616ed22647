package layout

import "math"

// Two zoom values closer than this are treated as the same stop.
const zoomStopEpsilon = 0.01

// Seeds must differ by more than this fraction of the smaller one to
// both enter the stop table.
const seedRelativeTolerance = 0.01

func zoomsAlmostIdentical(a, b float64) bool {
	return math.Abs(a-b) < zoomStopEpsilon
}

// BuildZoomStops derives the zoom-stop ladder from the metrics. The
// table is seeded with the fit and cover scales, doubled upward to the
// maximum, and, unless the fit scale already acts as the floor, halved
// downward to the minimum. The result is strictly ascending with near
// duplicates removed. Degenerate metrics fall back to a single stop at
// scale 1.
func BuildZoomStops(m Metrics) []float64 {
	if m.CoverScale < 1e-9 {
		return []float64{1}
	}

	small, large := m.CoverScale, m.CoverScale
	if m.FitScale > 0 {
		small = math.Min(small, m.FitScale)
		large = math.Max(large, m.FitScale)
	}

	stops := []float64{small}
	if large-small > seedRelativeTolerance*small {
		stops = append(stops, large)
	}

	// Double upward until the ceiling, which always terminates the
	// table unless a stop already sits on it.
	for z := stops[len(stops)-1] * 2; z < m.MaxScale; z *= 2 {
		stops = append(stops, z)
	}
	if top := stops[len(stops)-1]; m.MaxScale > top && !zoomsAlmostIdentical(m.MaxScale, top) {
		stops = append(stops, m.MaxScale)
	}

	// With a fit-scale floor the smallest seed already is the minimum;
	// otherwise extend the ladder down to it.
	if m.Mode != MinScaleFit && m.MinScale > 0 && m.MinScale < stops[0] {
		var below []float64
		for z := stops[0] / 2; z > m.MinScale; z /= 2 {
			below = append(below, z)
		}
		bottom := stops[0]
		if len(below) > 0 {
			bottom = below[len(below)-1]
		}
		if !zoomsAlmostIdentical(bottom, m.MinScale) {
			below = append(below, m.MinScale)
		}
		for i, j := 0, len(below)-1; i < j; i, j = i+1, j-1 {
			below[i], below[j] = below[j], below[i]
		}
		stops = append(below, stops...)
	}

	out := make([]float64, 0, len(stops))
	out = append(out, stops[0])
	for _, z := range stops[1:] {
		if z > out[len(out)-1] && !zoomsAlmostIdentical(z, out[len(out)-1]) {
			out = append(out, z)
		}
	}
	return out
}

// NextStop returns the stop to move to from the current zoom. With up
// it is the first stop above current; otherwise the first below. When
// no stop remains in that direction, loop wraps to the opposite end of
// the table and !loop stays pinned at the near end.
func NextStop(stops []float64, current float64, up, loop bool) float64 {
	if len(stops) == 0 {
		return current
	}

	if up {
		for _, z := range stops {
			if z > current && !zoomsAlmostIdentical(z, current) {
				return z
			}
		}
		if loop {
			return stops[0]
		}
		return stops[len(stops)-1]
	}

	for i := len(stops) - 1; i >= 0; i-- {
		if stops[i] < current && !zoomsAlmostIdentical(stops[i], current) {
			return stops[i]
		}
	}
	if loop {
		return stops[len(stops)-1]
	}
	return stops[0]
}
