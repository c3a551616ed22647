package document

import (
	"strings"

	"github.com/tsawler/lectern/geom"
)

// TextDirection indicates the reading direction of a text run.
type TextDirection int

const (
	DirectionUnknown TextDirection = iota
	DirectionLTR
	DirectionRTL
	DirectionVerticalRTL
)

func (d TextDirection) String() string {
	switch d {
	case DirectionLTR:
		return "LTR"
	case DirectionRTL:
		return "RTL"
	case DirectionVerticalRTL:
		return "VerticalRTL"
	default:
		return "Unknown"
	}
}

// CharRect is one character of page text together with its bounding box.
// Characters inserted by the extractor to separate runs, such as spaces
// and newlines between fragments, carry a zero Rect.
type CharRect struct {
	Rune rune
	Rect geom.Rect // Page-space bounding box, zero when synthetic
}

// HasGeometry reports whether the character occupies space on the page.
func (c CharRect) HasGeometry() bool {
	return !c.Rect.IsEmpty()
}

// Fragment is a run of consecutive characters that belong together for
// word selection: one word, or one cluster the extractor could not
// split further. Start and End index into the page's character slice as
// a half-open range.
type Fragment struct {
	Start     int       // First character index
	End       int       // One past the last character index
	Rect      geom.Rect // Union of the member character boxes
	Direction TextDirection
}

// Contains reports whether the fragment covers the given character
// index.
func (f Fragment) Contains(charIndex int) bool {
	return charIndex >= f.Start && charIndex < f.End
}

// Len returns the number of characters in the fragment.
func (f Fragment) Len() int {
	return f.End - f.Start
}

// StructuredText is the selectable text of one page: every character
// with its geometry, grouped into fragments. Character indices are the
// currency of the selection engine; an index is a position in Chars,
// not a byte offset.
type StructuredText struct {
	Chars     []CharRect
	Fragments []Fragment
}

// CharCount returns the number of characters on the page.
func (st *StructuredText) CharCount() int {
	if st == nil {
		return 0
	}
	return len(st.Chars)
}

// IsEmpty reports whether the page has no characters at all.
func (st *StructuredText) IsEmpty() bool {
	return st.CharCount() == 0
}

// Text returns the full page text.
func (st *StructuredText) Text() string {
	return st.TextRange(0, st.CharCount())
}

// TextRange returns the text of the half-open character range
// [start, end), clamped to the page.
func (st *StructuredText) TextRange(start, end int) string {
	if st == nil {
		return ""
	}
	if start < 0 {
		start = 0
	}
	if end > len(st.Chars) {
		end = len(st.Chars)
	}
	if start >= end {
		return ""
	}

	var sb strings.Builder
	sb.Grow(end - start)
	for _, c := range st.Chars[start:end] {
		sb.WriteRune(c.Rune)
	}
	return sb.String()
}

// FragmentContaining returns the fragment covering the given character
// index. Fragments are ordered by Start, so this is a binary search.
func (st *StructuredText) FragmentContaining(charIndex int) (Fragment, bool) {
	if st == nil {
		return Fragment{}, false
	}

	lo, hi := 0, len(st.Fragments)
	for lo < hi {
		mid := (lo + hi) / 2
		f := st.Fragments[mid]
		switch {
		case charIndex < f.Start:
			hi = mid
		case charIndex >= f.End:
			lo = mid + 1
		default:
			return f, true
		}
	}
	return Fragment{}, false
}

// CharsIn returns the indices of characters whose boxes intersect the
// given page-space rectangle. Synthetic characters never match.
func (st *StructuredText) CharsIn(area geom.Rect) []int {
	if st == nil {
		return nil
	}

	var indices []int
	for i, c := range st.Chars {
		if c.HasGeometry() && area.Intersects(c.Rect) {
			indices = append(indices, i)
		}
	}
	return indices
}

// Link is a clickable region on a page. External links carry a URI;
// internal links carry the 1-indexed target page, or 0 with a raw Dest
// name when the backend could not resolve the destination. A link that
// wraps across lines carries one activation rectangle per line.
type Link struct {
	Rects      []geom.Rect // Page-space activation regions
	URI        string      // External target, empty for internal links
	PageNumber int         // Internal target page, 0 when unresolved
	Dest       string      // Unresolved named destination, diagnostic only
}

// IsExternal reports whether the link targets a URI outside the
// document.
func (l Link) IsExternal() bool {
	return l.URI != ""
}

// Contains reports whether any of the link's rectangles contains the
// page-space point.
func (l Link) Contains(p geom.Point) bool {
	for _, r := range l.Rects {
		if r.Contains(p) {
			return true
		}
	}
	return false
}
