package document

import "errors"

// Sentinel errors shared by every document backend.
var (
	// ErrPageOutOfRange is returned when a requested page number is
	// outside [1, PageCount].
	ErrPageOutOfRange = errors.New("document: page number out of range")

	// ErrRenderCanceled is returned by Render when the request's context
	// is canceled before the raster completes.
	ErrRenderCanceled = errors.New("document: render canceled")

	// ErrNoStructuredText is returned by StructuredText for pages that
	// carry no extractable text, such as pure scans without OCR.
	ErrNoStructuredText = errors.New("document: page has no structured text")

	// ErrClosed is returned by operations on a closed document.
	ErrClosed = errors.New("document: document is closed")
)

// Document is a paged document open for viewing. Implementations are
// safe for concurrent use: the render scheduler rasterizes several
// pages at once while the selection engine reads text from others.
type Document interface {
	// PageCount returns the number of pages. It never changes for the
	// lifetime of the document.
	PageCount() int

	// Page returns the page with the given 1-indexed number, or
	// ErrPageOutOfRange. The returned Page stays valid until Close.
	Page(number int) (Page, error)

	// Close releases backend resources. Pages obtained earlier must not
	// be used afterwards.
	Close() error
}

// Metadata carries optional document-level information. Backends that
// cannot supply a field leave it zero.
type Metadata struct {
	Title    string
	Author   string
	Subject  string
	Producer string
}

// MetadataProvider is implemented by backends that expose document
// metadata.
type MetadataProvider interface {
	Metadata() Metadata
}
