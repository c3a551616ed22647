package selection

import (
	"context"
	"math"
	"strings"
	"sync"

	"github.com/tsawler/lectern/document"
	"github.com/tsawler/lectern/geom"
	"github.com/tsawler/lectern/layout"
)

// Config holds the engine's tuning parameters.
type Config struct {
	// HitTestMargin is how far outside a character's box, in document
	// points, a drag or word tap still snaps to it.
	HitTestMargin float64
}

// DefaultConfig returns the standard selection parameters.
func DefaultConfig() Config {
	return Config{HitTestMargin: 8}
}

// Engine maintains a cross-page text selection over a laid-out
// document. It caches each page's structured text the first time the
// page is touched; pages whose text is not loaded yet never block a hit
// test, they load in the background and announce themselves through the
// invalidation callback so the caller can retry.
type Engine struct {
	mu         sync.Mutex
	doc        document.Document
	cfg        Config
	lo         layout.PageLayout
	invalidate func()

	// texts holds resolved pages; a nil entry marks a page known to
	// have no selectable text. loading tracks background extractions.
	texts   map[int]*document.StructuredText
	loading map[int]bool

	drag       DragState
	dragOrigin Point
	hasOrigin  bool

	active bool
	a, b   Point // normalized so a.Less(b) or a == b
	ranges []Range

	ctx    context.Context
	cancel context.CancelFunc
	closed bool
}

// NewEngine creates a selection engine over the given document and
// layout. The invalidate callback, when non-nil, fires after a page's
// text arrives in the background; it runs outside the engine's critical
// section.
func NewEngine(doc document.Document, lo layout.PageLayout, cfg Config, invalidate func()) *Engine {
	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		doc:        doc,
		cfg:        cfg,
		lo:         lo,
		invalidate: invalidate,
		texts:      make(map[int]*document.StructuredText),
		loading:    make(map[int]bool),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// SetLayout installs new page placement. Selections are stored as
// character ranges, so they survive a relayout; anchors pick up the new
// page origins automatically.
func (e *Engine) SetLayout(lo layout.PageLayout) {
	e.mu.Lock()
	e.lo = lo
	e.mu.Unlock()
}

// State returns the current gesture mode.
func (e *Engine) State() DragState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.drag
}

// HasSelection reports whether at least one character is selected.
func (e *Engine) HasSelection() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.ranges) > 0
}

// ===== Hit testing =====

// HitTest resolves a document-space point to a character. Pages whose
// rectangle contains the point are tried in page order: loaded text is
// checked for exact containment, then for the nearest character within
// margin by squared distance. A candidate page whose text is not loaded
// yet triggers a background extraction and is skipped, so a miss now
// may be a hit after the invalidation callback fires. Points in page
// margins or gaps hit nothing.
func (e *Engine) HitTest(p geom.Point, margin float64) *Point {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hitTestLocked(p, margin)
}

func (e *Engine) hitTestLocked(p geom.Point, margin float64) *Point {
	if e.closed {
		return nil
	}

	for i, rect := range e.lo.Rects {
		if !rect.Contains(p) {
			continue
		}
		n := i + 1
		st, resolved := e.texts[n]
		if !resolved {
			e.requestTextLocked(n)
			continue
		}
		if st.IsEmpty() {
			continue
		}
		if idx, ok := hitChar(st, p.Sub(rect.TopLeft()), margin); ok {
			return &Point{PageNumber: n, CharIndex: idx, Pos: p}
		}
	}
	return nil
}

// hitChar finds the character at a page-local point: exact containment
// wins, else the nearest character within margin. Synthetic characters
// without geometry never match.
func hitChar(st *document.StructuredText, local geom.Point, margin float64) (int, bool) {
	best := -1
	bestDist := math.Inf(1)
	for i, c := range st.Chars {
		if !c.HasGeometry() {
			continue
		}
		if c.Rect.Contains(local) {
			return i, true
		}
		if d := c.Rect.SquaredDistanceTo(local); d < bestDist {
			best, bestDist = i, d
		}
	}
	if best >= 0 && bestDist <= margin*margin {
		return best, true
	}
	return 0, false
}

// ===== Drag state machine =====

// BeginDrag enters a gesture mode. DraggingFree discards the current
// selection and starts fresh at the first dragged-over character;
// DraggingAnchorA and DraggingAnchorB adjust an existing selection by
// pinning the opposite edge, and are no-ops without one.
func (e *Engine) BeginDrag(kind DragState) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}

	switch kind {
	case DraggingFree:
		e.drag = kind
		e.hasOrigin = false
		e.active = false
		e.ranges = e.ranges[:0]
	case DraggingAnchorA:
		if !e.active {
			return
		}
		e.drag = kind
		e.dragOrigin = e.b
		e.hasOrigin = true
	case DraggingAnchorB:
		if !e.active {
			return
		}
		e.drag = kind
		e.dragOrigin = e.a
		e.hasOrigin = true
	default:
		e.drag = Idle
	}
}

// DragTo extends the gesture to a document-space point. The point is
// hit-tested with the configured margin; a miss leaves the selection
// unchanged and reports false. The pinned edge stays put while the
// dragged edge follows the pointer, swapping sides naturally when
// dragged past it.
func (e *Engine) DragTo(p geom.Point) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || e.drag == Idle {
		return false
	}

	hit := e.hitTestLocked(p, e.cfg.HitTestMargin)
	if hit == nil {
		return false
	}
	if !e.hasOrigin {
		e.dragOrigin = *hit
		e.hasOrigin = true
	}
	e.setSelectionLocked(e.dragOrigin, *hit)
	return true
}

// EndDrag leaves the gesture mode. The selection itself persists.
func (e *Engine) EndDrag() {
	e.mu.Lock()
	e.drag = Idle
	e.hasOrigin = false
	e.mu.Unlock()
}

// ===== Selection construction =====

// Update sets the selection spanned by two points, in either order.
func (e *Engine) Update(a, b Point) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.setSelectionLocked(a, b)
}

// SelectWord selects the full fragment containing the character at a
// document-space point. Reports false when the point hits no character
// or the character belongs to no fragment.
func (e *Engine) SelectWord(p geom.Point) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return false
	}

	hit := e.hitTestLocked(p, e.cfg.HitTestMargin)
	if hit == nil {
		return false
	}
	st := e.textLocked(hit.PageNumber)
	frag, ok := st.FragmentContaining(hit.CharIndex)
	if !ok {
		return false
	}
	e.setSelectionLocked(
		Point{PageNumber: hit.PageNumber, CharIndex: frag.Start, Pos: p},
		Point{PageNumber: hit.PageNumber, CharIndex: frag.End - 1, Pos: p},
	)
	return true
}

// SelectAll selects from the first character of the first page with
// text to the last character of the last page with text. Pages without
// text are skipped when finding the edges. Reports false when the
// document has no selectable text at all.
func (e *Engine) SelectAll() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return false
	}

	firstPage, lastPage := 0, 0
	for n := 1; n <= e.doc.PageCount(); n++ {
		if st := e.textLocked(n); !st.IsEmpty() {
			if firstPage == 0 {
				firstPage = n
			}
			lastPage = n
		}
	}
	if firstPage == 0 {
		return false
	}

	last := e.textLocked(lastPage)
	e.setSelectionLocked(
		Point{PageNumber: firstPage, CharIndex: 0},
		Point{PageNumber: lastPage, CharIndex: last.CharCount() - 1},
	)
	return true
}

// Clear drops the selection and leaves any gesture mode.
func (e *Engine) Clear() {
	e.mu.Lock()
	e.active = false
	e.a, e.b = Point{}, Point{}
	e.ranges = e.ranges[:0]
	e.drag = Idle
	e.hasOrigin = false
	e.mu.Unlock()
}

func (e *Engine) setSelectionLocked(a, b Point) {
	if b.Less(a) {
		a, b = b, a
	}
	e.a, e.b = a, b
	e.active = true
	e.rebuildLocked()
}

// rebuildLocked recomputes the per-page ranges between the normalized
// selection points. Same page: one inclusive range. Different pages:
// the first page from the start point to its last character, a
// full-page range for every page strictly between that has text, and
// the last page from its first character to the end point.
func (e *Engine) rebuildLocked() {
	e.ranges = e.ranges[:0]
	if !e.active {
		return
	}
	first, second := e.a, e.b

	if first.PageNumber == second.PageNumber {
		st := e.textLocked(first.PageNumber)
		if st.IsEmpty() {
			return
		}
		start := clampIndex(first.CharIndex, st.CharCount())
		end := clampIndex(second.CharIndex, st.CharCount())
		e.ranges = append(e.ranges, Range{PageNumber: first.PageNumber, Start: start, End: end})
		return
	}

	if st := e.textLocked(first.PageNumber); !st.IsEmpty() {
		e.ranges = append(e.ranges, Range{
			PageNumber: first.PageNumber,
			Start:      clampIndex(first.CharIndex, st.CharCount()),
			End:        st.CharCount() - 1,
		})
	}
	for n := first.PageNumber + 1; n < second.PageNumber; n++ {
		if st := e.textLocked(n); !st.IsEmpty() {
			e.ranges = append(e.ranges, Range{PageNumber: n, Start: 0, End: st.CharCount() - 1})
		}
	}
	if st := e.textLocked(second.PageNumber); !st.IsEmpty() {
		e.ranges = append(e.ranges, Range{
			PageNumber: second.PageNumber,
			Start:      0,
			End:        clampIndex(second.CharIndex, st.CharCount()),
		})
	}
}

func clampIndex(idx, count int) int {
	if idx < 0 {
		return 0
	}
	if idx >= count {
		return count - 1
	}
	return idx
}

// ===== Results =====

// SelectedRanges returns the selection as ordered, non-overlapping
// per-page ranges.
func (e *Engine) SelectedRanges() []Range {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.ranges) == 0 {
		return nil
	}
	return append([]Range(nil), e.ranges...)
}

// SelectedText returns the selected text, pages joined with newlines.
func (e *Engine) SelectedText() string {
	e.mu.Lock()
	defer e.mu.Unlock()

	parts := make([]string, 0, len(e.ranges))
	for _, r := range e.ranges {
		st := e.textLocked(r.PageNumber)
		parts = append(parts, st.TextRange(r.Start, r.End+1))
	}
	return strings.Join(parts, "\n")
}

// Anchors returns the two selection handles: A at the start edge, B at
// the end edge. Each carries the document-space box of its edge
// character and the dominant direction of that character's fragment.
func (e *Engine) Anchors() (Anchor, Anchor, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.ranges) == 0 {
		return Anchor{}, Anchor{}, false
	}
	a := e.anchorLocked(e.ranges[0], AnchorA)
	b := e.anchorLocked(e.ranges[len(e.ranges)-1], AnchorB)
	return a, b, true
}

func (e *Engine) anchorLocked(r Range, role AnchorRole) Anchor {
	st := e.textLocked(r.PageNumber)
	pageRect, _ := e.lo.PageRect(r.PageNumber)

	var idx int
	var ok bool
	if role == AnchorA {
		idx, ok = firstDrawn(st, r.Start, r.End)
	} else {
		idx, ok = lastDrawn(st, r.Start, r.End)
	}
	if !ok {
		// The edge range holds only synthetic characters.
		idx = r.Start
		if role == AnchorB {
			idx = r.End
		}
		return Anchor{Role: role, CharIndex: idx, Direction: document.DirectionLTR}
	}

	return Anchor{
		Rect:      st.Chars[idx].Rect.Translated(pageRect.X, pageRect.Y),
		Direction: directionAt(st, idx),
		Role:      role,
		CharIndex: idx,
	}
}

// firstDrawn finds the lowest index in [start, end] whose character has
// geometry.
func firstDrawn(st *document.StructuredText, start, end int) (int, bool) {
	for i := start; i <= end && i < st.CharCount(); i++ {
		if i >= 0 && st.Chars[i].HasGeometry() {
			return i, true
		}
	}
	return 0, false
}

// lastDrawn finds the highest index in [start, end] whose character has
// geometry.
func lastDrawn(st *document.StructuredText, start, end int) (int, bool) {
	for i := end; i >= start && i >= 0; i-- {
		if i < st.CharCount() && st.Chars[i].HasGeometry() {
			return i, true
		}
	}
	return 0, false
}

// directionAt returns the direction of the fragment covering a
// character, detecting it from the fragment's text when the provider
// left it untagged.
func directionAt(st *document.StructuredText, idx int) document.TextDirection {
	frag, ok := st.FragmentContaining(idx)
	if !ok {
		return document.DirectionLTR
	}
	if frag.Direction != document.DirectionUnknown {
		return frag.Direction
	}
	return document.DetectDirection(st.TextRange(frag.Start, frag.End))
}

// ===== Text loading =====

// textLocked returns a page's structured text, loading it synchronously
// on first use. A page that fails to load or has no text is cached as
// empty.
func (e *Engine) textLocked(n int) *document.StructuredText {
	if st, resolved := e.texts[n]; resolved {
		return st
	}
	st := e.fetchText(n)
	e.texts[n] = st
	return st
}

// requestTextLocked starts a background extraction for a page unless
// one is already running.
func (e *Engine) requestTextLocked(n int) {
	if e.loading[n] {
		return
	}
	e.loading[n] = true
	go e.loadText(n)
}

func (e *Engine) loadText(n int) {
	st := e.fetchText(n)

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	delete(e.loading, n)
	if _, resolved := e.texts[n]; !resolved {
		e.texts[n] = st
	}
	inv := e.invalidate
	e.mu.Unlock()

	if inv != nil {
		inv()
	}
}

// fetchText extracts one page's text. Failures degrade to an empty
// page; selection never surfaces extraction errors.
func (e *Engine) fetchText(n int) *document.StructuredText {
	pg, err := e.doc.Page(n)
	if err != nil {
		return nil
	}
	st, err := pg.StructuredText(e.ctx)
	if err != nil || st.IsEmpty() {
		return nil
	}
	return st
}

// Close drops the selection and cancels background extractions.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.active = false
	e.ranges = nil
	e.mu.Unlock()
	e.cancel()
}
