package document

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/tsawler/lectern/geom"
)

// Rotation is a page rotation in degrees clockwise.
type Rotation int

const (
	Rotate0   Rotation = 0
	Rotate90  Rotation = 90
	Rotate180 Rotation = 180
	Rotate270 Rotation = 270
)

// NormalizeRotation maps an arbitrary degree value, as found in PDF
// page dictionaries, onto one of the four canonical rotations.
func NormalizeRotation(degrees int) Rotation {
	r := degrees % 360
	if r < 0 {
		r += 360
	}
	// Round off-axis values to the nearest quarter turn.
	switch {
	case r >= 45 && r < 135:
		return Rotate90
	case r >= 135 && r < 225:
		return Rotate180
	case r >= 225 && r < 315:
		return Rotate270
	default:
		return Rotate0
	}
}

// SwapsDimensions reports whether the rotation turns a portrait page
// into landscape or vice versa.
func (r Rotation) SwapsDimensions() bool {
	return r == Rotate90 || r == Rotate270
}

func (r Rotation) String() string {
	switch r {
	case Rotate90:
		return "90°"
	case Rotate180:
		return "180°"
	case Rotate270:
		return "270°"
	default:
		return "0°"
	}
}

// Page is a single page of an open document. Size, Rotation, and Number
// are cheap and always available; Render, StructuredText, and Links may
// trigger backend work and accept a context.
//
// Sizes are reported post-rotation: a portrait A4 page rotated 90°
// reports a landscape size, and every rectangle the page hands out
// (character boxes, link boxes, render geometry) lives in that rotated
// space with the origin at the page's top-left corner.
type Page interface {
	// Number returns the 1-indexed page number.
	Number() int

	// Size returns the page dimensions at scale 1.0 in document units,
	// with rotation already applied.
	Size() geom.Size

	// Rotation returns the page's intrinsic rotation.
	Rotation() Rotation

	// IsLoaded reports whether page content is resident, so that a
	// caller can decide between a placeholder and a render request.
	IsLoaded() bool

	// Render rasterizes the sub-rectangle described by req into a new
	// bitmap. It honors ctx cancellation and returns ErrRenderCanceled
	// when interrupted.
	Render(ctx context.Context, req RenderRequest) (*Bitmap, error)

	// StructuredText extracts the page's text with per-character
	// geometry. Pages without text return ErrNoStructuredText.
	StructuredText(ctx context.Context) (*StructuredText, error)

	// Links returns the page's link regions, outermost first. Pages
	// without links return an empty slice.
	Links(ctx context.Context) ([]Link, error)
}

// RenderRequest describes one raster of a page region.
//
// FullWidth and FullHeight give the pixel dimensions the whole page
// would occupy at the requested resolution; X, Y, Width, and Height
// select the sub-rectangle of that raster to actually produce. A
// full-page render sets X = Y = 0 and Width/Height equal to the full
// dimensions.
type RenderRequest struct {
	X      int // Left edge of the sub-rectangle in raster pixels
	Y      int // Top edge of the sub-rectangle in raster pixels
	Width  int // Sub-rectangle width in pixels
	Height int // Sub-rectangle height in pixels

	FullWidth  int // Whole-page raster width in pixels
	FullHeight int // Whole-page raster height in pixels

	Background      color.Color // Fill behind transparent content, nil for white
	DrawAnnotations bool        // Include annotation appearances
}

// FullPageRequest builds a request covering the entire page at the
// given raster dimensions.
func FullPageRequest(width, height int) RenderRequest {
	return RenderRequest{
		Width:      width,
		Height:     height,
		FullWidth:  width,
		FullHeight: height,
	}
}

// IsFullPage reports whether the request covers the whole raster.
func (r RenderRequest) IsFullPage() bool {
	return r.X == 0 && r.Y == 0 && r.Width == r.FullWidth && r.Height == r.FullHeight
}

// Validate checks the request geometry. The sub-rectangle must be
// non-empty and lie within the full raster.
func (r RenderRequest) Validate() error {
	if r.FullWidth <= 0 || r.FullHeight <= 0 {
		return fmt.Errorf("invalid raster size %dx%d", r.FullWidth, r.FullHeight)
	}
	if r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("invalid region size %dx%d", r.Width, r.Height)
	}
	if r.X < 0 || r.Y < 0 || r.X+r.Width > r.FullWidth || r.Y+r.Height > r.FullHeight {
		return fmt.Errorf("region (%d,%d %dx%d) outside raster %dx%d",
			r.X, r.Y, r.Width, r.Height, r.FullWidth, r.FullHeight)
	}
	return nil
}

// Bitmap is a rendered page region. The cache accounts for bitmaps by
// ByteSize and calls Release on eviction; callers that hold a bitmap
// past eviction must copy the pixels first.
type Bitmap struct {
	Image *image.RGBA

	releaseOnce sync.Once
	release     func()
}

// NewBitmap wraps a raster in a Bitmap with no release hook.
func NewBitmap(img *image.RGBA) *Bitmap {
	return &Bitmap{Image: img}
}

// NewBitmapWithRelease wraps a raster and registers a hook invoked
// exactly once when the bitmap is released, typically to return pixel
// memory to a pool.
func NewBitmapWithRelease(img *image.RGBA, release func()) *Bitmap {
	return &Bitmap{Image: img, release: release}
}

// Width returns the pixel width, or 0 after release.
func (b *Bitmap) Width() int {
	if b.Image == nil {
		return 0
	}
	return b.Image.Rect.Dx()
}

// Height returns the pixel height, or 0 after release.
func (b *Bitmap) Height() int {
	if b.Image == nil {
		return 0
	}
	return b.Image.Rect.Dy()
}

// ByteSize returns the memory footprint used for cache accounting:
// width times height at four bytes per pixel.
func (b *Bitmap) ByteSize() int64 {
	return int64(b.Width()) * int64(b.Height()) * 4
}

// Release drops the pixel data and fires the release hook. Safe to call
// more than once.
func (b *Bitmap) Release() {
	b.releaseOnce.Do(func() {
		if b.release != nil {
			b.release()
		}
		b.Image = nil
	})
}
