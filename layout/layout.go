package layout

import "github.com/tsawler/lectern/geom"

// PageGeometry is the layout input for one page: its number and its
// display size at scale 1.0, rotation already applied.
type PageGeometry struct {
	Number int
	Size   geom.Size
}

// Strategy places pages in document space. Implementations are pure
// functions of their inputs; the same geometries and margin always
// produce the same layout.
type Strategy interface {
	// Layout returns the placement of the given pages with the given
	// margin around and between them.
	Layout(pages []PageGeometry, margin float64) PageLayout
}

// PageLayout is the computed placement: one document-space rectangle per
// page, indexed by page number minus one, plus the overall document
// size enclosing all pages and margins.
type PageLayout struct {
	Rects []geom.Rect
	Size  geom.Size
}

// PageCount returns the number of laid-out pages.
func (l PageLayout) PageCount() int {
	return len(l.Rects)
}

// PageRect returns the rectangle of the given 1-indexed page.
func (l PageLayout) PageRect(number int) (geom.Rect, bool) {
	if number < 1 || number > len(l.Rects) {
		return geom.Rect{}, false
	}
	return l.Rects[number-1], true
}

// Equal reports whether two layouts place every page identically and
// agree on the document size. A layout change in this sense is what
// forces the viewport to re-anchor.
func (l PageLayout) Equal(other PageLayout) bool {
	if l.Size != other.Size || len(l.Rects) != len(other.Rects) {
		return false
	}
	for i := range l.Rects {
		if l.Rects[i] != other.Rects[i] {
			return false
		}
	}
	return true
}

// PageAt returns the 1-indexed page whose rectangle contains the given
// document-space point, or 0 when the point lies in a margin or outside
// the document.
func (l PageLayout) PageAt(p geom.Point) int {
	for i, r := range l.Rects {
		if r.Contains(p) {
			return i + 1
		}
	}
	return 0
}

// PagesIn returns the 1-indexed pages whose rectangles intersect the
// given document-space rectangle, in page order.
func (l PageLayout) PagesIn(area geom.Rect) []int {
	var pages []int
	for i, r := range l.Rects {
		if r.Intersects(area) {
			pages = append(pages, i+1)
		}
	}
	return pages
}

// Vertical stacks pages top to bottom with a uniform margin around and
// between them, each page horizontally centered. This is the default
// strategy.
type Vertical struct{}

// Layout implements Strategy.
func (Vertical) Layout(pages []PageGeometry, margin float64) PageLayout {
	if len(pages) == 0 {
		return PageLayout{}
	}

	maxWidth := 0.0
	for _, p := range pages {
		if p.Size.Width > maxWidth {
			maxWidth = p.Size.Width
		}
	}

	rects := make([]geom.Rect, len(pages))
	y := margin
	for i, p := range pages {
		rects[i] = geom.Rect{
			X:      margin + (maxWidth-p.Size.Width)/2,
			Y:      y,
			Width:  p.Size.Width,
			Height: p.Size.Height,
		}
		y += p.Size.Height + margin
	}

	return PageLayout{
		Rects: rects,
		Size:  geom.Size{Width: maxWidth + margin*2, Height: y},
	}
}

// Horizontal places pages in a single row with a uniform margin around
// and between them, each page vertically centered.
type Horizontal struct{}

// Layout implements Strategy.
func (Horizontal) Layout(pages []PageGeometry, margin float64) PageLayout {
	if len(pages) == 0 {
		return PageLayout{}
	}

	maxHeight := 0.0
	for _, p := range pages {
		if p.Size.Height > maxHeight {
			maxHeight = p.Size.Height
		}
	}

	rects := make([]geom.Rect, len(pages))
	x := margin
	for i, p := range pages {
		rects[i] = geom.Rect{
			X:      x,
			Y:      margin + (maxHeight-p.Size.Height)/2,
			Width:  p.Size.Width,
			Height: p.Size.Height,
		}
		x += p.Size.Width + margin
	}

	return PageLayout{
		Rects: rects,
		Size:  geom.Size{Width: x, Height: maxHeight + margin*2},
	}
}
