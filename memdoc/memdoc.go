// Package memdoc provides an in-memory document backend with scripted
// geometry, text, and render behavior. It backs the package tests and
// the runnable examples: pages render as flat color fills, structured
// text comes from plain strings laid out on a fixed glyph grid, and
// latency or failures can be injected per page.
package memdoc

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"sync"
	"time"

	"github.com/tsawler/lectern/document"
	"github.com/tsawler/lectern/geom"
)

// Glyph grid used for scripted text: fixed-advance characters on fixed
// lines, inset from the page's top-left corner.
const (
	glyphAdvance = 8.0
	glyphHeight  = 12.0
	lineAdvance  = 16.0
	textInsetX   = 8.0
	textInsetY   = 8.0
)

// PageSpec scripts one page.
type PageSpec struct {
	// Size is the page's display size at scale 1.0, rotation already
	// applied.
	Size geom.Size

	// Rotation reported by the page. Purely informational here; Size is
	// authoritative.
	Rotation document.Rotation

	// Fill is the color renders fill with. Nil means opaque white.
	Fill color.Color

	// Lines is the page text, one string per line, laid out on the
	// glyph grid. Empty means the page has no structured text.
	Lines []string

	// Direction tags every fragment. Zero value means left-to-right.
	Direction document.TextDirection

	// Links returned by the page, in page space.
	Links []document.Link

	// RenderDelay is artificial latency before a render completes,
	// interruptible by the context.
	RenderDelay time.Duration

	// RenderErr, when set, fails every render with this error.
	RenderErr error
}

// Document is an in-memory document.
type Document struct {
	mu     sync.Mutex
	pages  []*Page
	closed bool
}

// New builds a document from page specs. Page numbers follow spec
// order, starting at 1.
func New(specs ...PageSpec) *Document {
	d := &Document{}
	for i, spec := range specs {
		d.pages = append(d.pages, &Page{doc: d, number: i + 1, spec: spec})
	}
	return d
}

// PageCount implements document.Document.
func (d *Document) PageCount() int {
	return len(d.pages)
}

// Page implements document.Document.
func (d *Document) Page(number int) (document.Page, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, document.ErrClosed
	}
	if number < 1 || number > len(d.pages) {
		return nil, document.ErrPageOutOfRange
	}
	return d.pages[number-1], nil
}

// Close implements document.Document.
func (d *Document) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

func (d *Document) isClosed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// Page is one scripted page.
type Page struct {
	doc    *Document
	number int
	spec   PageSpec

	textOnce sync.Once
	text     *document.StructuredText
}

// Number implements document.Page.
func (p *Page) Number() int {
	return p.number
}

// Size implements document.Page.
func (p *Page) Size() geom.Size {
	return p.spec.Size
}

// Rotation implements document.Page.
func (p *Page) Rotation() document.Rotation {
	return p.spec.Rotation
}

// IsLoaded implements document.Page. Scripted pages are always
// resident.
func (p *Page) IsLoaded() bool {
	return true
}

// Render fills the requested region with the page's color after the
// scripted delay. The context interrupts the delay and the render.
func (p *Page) Render(ctx context.Context, req document.RenderRequest) (*document.Bitmap, error) {
	if p.doc.isClosed() {
		return nil, document.ErrClosed
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if p.spec.RenderErr != nil {
		return nil, p.spec.RenderErr
	}

	if p.spec.RenderDelay > 0 {
		timer := time.NewTimer(p.spec.RenderDelay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return nil, document.ErrRenderCanceled
		}
	}
	if ctx.Err() != nil {
		return nil, document.ErrRenderCanceled
	}

	img := image.NewRGBA(image.Rect(0, 0, req.Width, req.Height))
	bg := req.Background
	if bg == nil {
		bg = color.White
	}
	draw.Draw(img, img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	if p.spec.Fill != nil {
		draw.Draw(img, img.Bounds(), image.NewUniform(p.spec.Fill), image.Point{}, draw.Src)
	}
	return document.NewBitmap(img), nil
}

// StructuredText lays the scripted lines out on the glyph grid. Spaces
// within a line and the newlines between lines become synthetic
// characters without geometry; every maximal run of spaced characters
// forms one fragment.
func (p *Page) StructuredText(ctx context.Context) (*document.StructuredText, error) {
	if p.doc.isClosed() {
		return nil, document.ErrClosed
	}
	if len(p.spec.Lines) == 0 {
		return nil, document.ErrNoStructuredText
	}
	p.textOnce.Do(func() {
		p.text = buildText(p.spec.Lines, p.spec.Direction)
	})
	if p.text.IsEmpty() {
		return nil, document.ErrNoStructuredText
	}
	return p.text, nil
}

// Links implements document.Page.
func (p *Page) Links(ctx context.Context) ([]document.Link, error) {
	if p.doc.isClosed() {
		return nil, document.ErrClosed
	}
	return append([]document.Link(nil), p.spec.Links...), nil
}

func buildText(lines []string, dir document.TextDirection) *document.StructuredText {
	if dir == document.DirectionUnknown {
		dir = document.DirectionLTR
	}

	st := &document.StructuredText{}
	fragStart := -1
	var fragRect geom.Rect

	closeFragment := func(end int) {
		if fragStart >= 0 {
			st.Fragments = append(st.Fragments, document.Fragment{
				Start:     fragStart,
				End:       end,
				Rect:      fragRect,
				Direction: dir,
			})
			fragStart = -1
		}
	}

	for lineIdx, line := range lines {
		if lineIdx > 0 {
			closeFragment(len(st.Chars))
			st.Chars = append(st.Chars, document.CharRect{Rune: '\n'})
		}
		y := textInsetY + float64(lineIdx)*lineAdvance
		for col, r := range []rune(line) {
			if r == ' ' {
				closeFragment(len(st.Chars))
				st.Chars = append(st.Chars, document.CharRect{Rune: ' '})
				continue
			}
			rect := geom.NewRect(textInsetX+float64(col)*glyphAdvance, y, glyphAdvance, glyphHeight)
			if fragStart < 0 {
				fragStart = len(st.Chars)
				fragRect = rect
			} else {
				fragRect = fragRect.Union(rect)
			}
			st.Chars = append(st.Chars, document.CharRect{Rune: r, Rect: rect})
		}
	}
	closeFragment(len(st.Chars))
	return st
}
