package pdfcpudoc

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/tsawler/lectern/document"
	"github.com/tsawler/lectern/geom"
)

// borderColor outlines the placeholder raster so page edges stay
// visible against the viewer background.
var borderColor = color.RGBA{R: 0xC8, G: 0xC8, B: 0xC8, A: 0xFF}

// Page is one page of an open PDF.
type Page struct {
	doc       *Document
	number    int
	dict      types.Dict
	mediaSize geom.Size // MediaBox dimensions before rotation
	size      geom.Size // display dimensions, rotation applied
	rotation  document.Rotation

	mu        sync.Mutex
	textDone  bool
	text      *document.StructuredText
	textErr   error
	linksDone bool
	links     []document.Link
	linksErr  error
}

// Number implements document.Page.
func (p *Page) Number() int {
	return p.number
}

// Size implements document.Page.
func (p *Page) Size() geom.Size {
	return p.size
}

// Rotation implements document.Page.
func (p *Page) Rotation() document.Rotation {
	return p.rotation
}

// IsLoaded implements document.Page. Page structures are resident from
// Open onward.
func (p *Page) IsLoaded() bool {
	return !p.doc.isClosed()
}

// Render produces a flat placeholder: the background color with the
// page outline where the request touches a raster edge. Content
// rasterization belongs to a native PDF engine and is out of scope
// here; geometry, text, and links are fully real.
func (p *Page) Render(ctx context.Context, req document.RenderRequest) (*document.Bitmap, error) {
	if p.doc.isClosed() {
		return nil, document.ErrClosed
	}
	if err := req.Validate(); err != nil {
		return nil, err
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
	drawPageBorder(img, req)
	return document.NewBitmap(img), nil
}

// drawPageBorder draws the raster-edge outline for whichever page edges
// fall inside the requested sub-rectangle.
func drawPageBorder(img *image.RGBA, req document.RenderRequest) {
	w, h := req.Width, req.Height
	if req.Y == 0 {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, 0, borderColor)
		}
	}
	if req.Y+req.Height == req.FullHeight {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, h-1, borderColor)
		}
	}
	if req.X == 0 {
		for y := 0; y < h; y++ {
			img.SetRGBA(0, y, borderColor)
		}
	}
	if req.X+req.Width == req.FullWidth {
		for y := 0; y < h; y++ {
			img.SetRGBA(w-1, y, borderColor)
		}
	}
}

// StructuredText implements document.Page. The first call extracts and
// caches; pages without text return document.ErrNoStructuredText.
func (p *Page) StructuredText(ctx context.Context) (*document.StructuredText, error) {
	if p.doc.isClosed() {
		return nil, document.ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.textDone {
		p.text, p.textErr = p.doc.extractText(p)
		p.textDone = true
	}
	return p.text, p.textErr
}

// Links implements document.Page. The first call parses the page's
// annotations and caches the result.
func (p *Page) Links(ctx context.Context) ([]document.Link, error) {
	if p.doc.isClosed() {
		return nil, document.ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.linksDone {
		p.links, p.linksErr = p.doc.extractLinks(p)
		p.linksDone = true
	}
	if p.linksErr != nil {
		return nil, p.linksErr
	}
	return append([]document.Link(nil), p.links...), nil
}

// rotateRect maps a rectangle from unrotated page space into the
// displayed, rotated space. media is the unrotated page size.
func rotateRect(r geom.Rect, rotation document.Rotation, media geom.Size) geom.Rect {
	switch rotation {
	case document.Rotate90:
		return geom.NewRect(media.Height-r.Y-r.Height, r.X, r.Height, r.Width)
	case document.Rotate180:
		return geom.NewRect(media.Width-r.X-r.Width, media.Height-r.Y-r.Height, r.Width, r.Height)
	case document.Rotate270:
		return geom.NewRect(r.Y, media.Width-r.X-r.Width, r.Height, r.Width)
	default:
		return r
	}
}
