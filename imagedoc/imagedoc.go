// Package imagedoc presents a sequence of images, such as scanned
// pages, as a viewable document. Renders resample the source image with
// the scalers from golang.org/x/image/draw, and structured text is
// recovered through an optional recognizer, typically an OCR client.
package imagedoc

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/tsawler/lectern/document"
	"github.com/tsawler/lectern/geom"
)

// Recognizer recovers structured text from a page image. scale is the
// pixels-per-point factor of the image, letting implementations report
// geometry in page points. The ocr package's client satisfies this.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image, scale float64) (*document.StructuredText, error)
}

// Config tunes the document.
type Config struct {
	// DPI is the source resolution in pixels per inch. At the default
	// of 72 one source pixel is one page point.
	DPI float64

	// Recognizer supplies structured text for pages. Nil leaves pages
	// without a text layer.
	Recognizer Recognizer

	// QualityThreshold is the render scale, in raster pixels per source
	// pixel, above which the slower Catmull-Rom scaler replaces the
	// interactive bilinear one.
	QualityThreshold float64
}

// DefaultConfig returns the default document configuration.
func DefaultConfig() Config {
	return Config{
		DPI:              72,
		QualityThreshold: 2.0,
	}
}

func (c Config) withDefaults() Config {
	if c.DPI <= 0 {
		c.DPI = 72
	}
	if c.QualityThreshold <= 0 {
		c.QualityThreshold = 2.0
	}
	return c
}

// Document is an image-backed document.
type Document struct {
	mu     sync.Mutex
	cfg    Config
	pages  []*Page
	closed bool
}

// New builds a document with one page per image, in order.
func New(images []image.Image, cfg Config) (*Document, error) {
	if len(images) == 0 {
		return nil, errors.New("imagedoc: no pages")
	}
	cfg = cfg.withDefaults()

	d := &Document{cfg: cfg}
	pointsPerPixel := 72 / cfg.DPI
	for i, img := range images {
		if img == nil {
			return nil, errors.New("imagedoc: nil page image")
		}
		b := img.Bounds()
		d.pages = append(d.pages, &Page{
			doc:    d,
			number: i + 1,
			img:    img,
			size: geom.Size{
				Width:  float64(b.Dx()) * pointsPerPixel,
				Height: float64(b.Dy()) * pointsPerPixel,
			},
		})
	}
	return d, nil
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

// Page is one image-backed page.
type Page struct {
	doc    *Document
	number int
	img    image.Image
	size   geom.Size

	textMu   sync.Mutex
	textDone bool
	text     *document.StructuredText
	textErr  error
}

// Number implements document.Page.
func (p *Page) Number() int {
	return p.number
}

// Size implements document.Page.
func (p *Page) Size() geom.Size {
	return p.size
}

// Rotation implements document.Page. Source images are taken as already
// upright.
func (p *Page) Rotation() document.Rotation {
	return document.Rotate0
}

// IsLoaded implements document.Page.
func (p *Page) IsLoaded() bool {
	return !p.doc.isClosed()
}

// Render resamples the source image into the requested raster region.
// The sub-rectangle is mapped exactly: a pixel at (X, Y) of the raster
// shows the same content whether it was rendered alone or as part of
// the full page.
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

	b := p.img.Bounds()
	sx := float64(req.FullWidth) / float64(b.Dx())
	sy := float64(req.FullHeight) / float64(b.Dy())

	dst := image.NewRGBA(image.Rect(0, 0, req.Width, req.Height))
	bg := req.Background
	if bg == nil {
		bg = color.White
	}
	draw.Draw(dst, dst.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	// Source-to-raster transform, shifted so the sub-rectangle lands at
	// the destination origin.
	m := f64.Aff3{
		sx, 0, -float64(req.X) - sx*float64(b.Min.X),
		0, sy, -float64(req.Y) - sy*float64(b.Min.Y),
	}
	p.scaler(sx, sy).Transform(dst, m, p.img, b, draw.Over, nil)

	return document.NewBitmap(dst), nil
}

// scaler picks the resampling kernel for the given scale factors.
func (p *Page) scaler(sx, sy float64) draw.Transformer {
	s := sx
	if sy > s {
		s = sy
	}
	if s > p.doc.cfg.QualityThreshold {
		return draw.CatmullRom
	}
	return draw.ApproxBiLinear
}

// StructuredText runs the recognizer over the source image on first
// call and caches the outcome. Without a recognizer, or when the
// recognizer finds nothing, pages report ErrNoStructuredText.
func (p *Page) StructuredText(ctx context.Context) (*document.StructuredText, error) {
	if p.doc.isClosed() {
		return nil, document.ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.doc.cfg.Recognizer == nil {
		return nil, document.ErrNoStructuredText
	}

	p.textMu.Lock()
	defer p.textMu.Unlock()
	if !p.textDone {
		st, err := p.doc.cfg.Recognizer.Recognize(ctx, p.img, p.doc.cfg.DPI/72)
		if err != nil {
			// Recognition failures are not cached; a later call may
			// succeed once the recognizer's backend is available.
			return nil, err
		}
		if st == nil || st.IsEmpty() {
			st, err = nil, document.ErrNoStructuredText
		}
		p.text, p.textErr = st, err
		p.textDone = true
	}
	return p.text, p.textErr
}

// Links implements document.Page. Image pages carry no links.
func (p *Page) Links(ctx context.Context) ([]document.Link, error) {
	if p.doc.isClosed() {
		return nil, document.ErrClosed
	}
	return nil, nil
}
