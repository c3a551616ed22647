// Package pdfcpudoc opens PDF files as viewable documents. Page
// geometry, rotation, metadata, and link annotations come from pdfcpu's
// parsed cross-reference structures; positioned text comes from a
// second pass with dslipak/pdf. Render produces a flat placeholder
// raster: rasterizing PDF content is left to a native engine.
package pdfcpudoc

import (
	"fmt"
	"os"
	"sync"

	gopdf "github.com/dslipak/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/tsawler/lectern/document"
	"github.com/tsawler/lectern/geom"
)

// defaultPageSize is US Letter in points, used when a page carries no
// MediaBox.
var defaultPageSize = geom.Size{Width: 612, Height: 792}

// Document is an open PDF file.
type Document struct {
	mu       sync.Mutex
	file     *os.File
	ctx      *model.Context
	pages    []*Page
	pageObjs map[int]int // page dict object number -> 1-indexed page number
	meta     document.Metadata
	closed   bool

	// The text reader opens its own handle on first use; dslipak keeps
	// internal state that is not safe for concurrent readers.
	textMu       sync.Mutex
	textFile     *os.File
	textReader   *gopdf.Reader
	textPassword string
}

// Open opens a PDF file.
func Open(path string) (*Document, error) {
	return OpenWithPassword(path, "")
}

// OpenWithPassword opens an encrypted PDF file. An empty password opens
// unprotected files.
func OpenWithPassword(path, password string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	conf := model.NewDefaultConfiguration()
	if password != "" {
		conf.UserPW = password
		conf.OwnerPW = password
	}

	ctx, err := api.ReadContext(f, conf)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to read PDF: %w", err)
	}
	if err := api.ValidateContext(ctx); err != nil {
		f.Close()
		return nil, fmt.Errorf("invalid PDF: %w", err)
	}

	d := &Document{
		file:         f,
		ctx:          ctx,
		pageObjs:     make(map[int]int),
		textPassword: password,
	}
	if err := d.loadPages(); err != nil {
		f.Close()
		return nil, err
	}
	d.meta = readMetadata(ctx)
	return d, nil
}

// loadPages reads geometry for every page up front. Page dicts stay
// referenced so links can be parsed lazily later.
func (d *Document) loadPages() error {
	for n := 1; n <= d.ctx.PageCount; n++ {
		pageDict, pageRef, attrs, err := d.ctx.PageDict(n, false)
		if err != nil {
			return fmt.Errorf("failed to read page %d: %w", n, err)
		}

		mediaSize := defaultPageSize
		if attrs != nil && attrs.MediaBox != nil {
			mediaSize = geom.Size{
				Width:  attrs.MediaBox.Width(),
				Height: attrs.MediaBox.Height(),
			}
		}
		var rotation document.Rotation
		if attrs != nil {
			rotation = document.NormalizeRotation(attrs.Rotate)
		}

		size := mediaSize
		if rotation.SwapsDimensions() {
			size = geom.Size{Width: mediaSize.Height, Height: mediaSize.Width}
		}

		d.pages = append(d.pages, &Page{
			doc:       d,
			number:    n,
			dict:      pageDict,
			mediaSize: mediaSize,
			size:      size,
			rotation:  rotation,
		})
		if pageRef != nil {
			d.pageObjs[int(pageRef.ObjectNumber)] = n
		}
	}
	return nil
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

// Metadata implements document.MetadataProvider.
func (d *Document) Metadata() document.Metadata {
	return d.meta
}

// Close releases both file handles. Pages obtained earlier return
// document.ErrClosed afterwards.
func (d *Document) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.ctx = nil
	err := d.file.Close()
	d.mu.Unlock()

	d.textMu.Lock()
	if d.textFile != nil {
		d.textFile.Close()
		d.textFile = nil
	}
	d.textReader = nil
	d.textMu.Unlock()
	return err
}

func (d *Document) isClosed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// readMetadata resolves the trailer's Info dictionary. Fields a PDF
// does not carry stay zero.
func readMetadata(ctx *model.Context) document.Metadata {
	var meta document.Metadata
	if ctx.Info == nil {
		return meta
	}
	obj, err := ctx.Dereference(*ctx.Info)
	if err != nil {
		return meta
	}
	dict, ok := obj.(types.Dict)
	if !ok {
		return meta
	}
	meta.Title = stringEntry(dict, "Title")
	meta.Author = stringEntry(dict, "Author")
	meta.Subject = stringEntry(dict, "Subject")
	meta.Producer = stringEntry(dict, "Producer")
	return meta
}

func stringEntry(dict types.Dict, key string) string {
	obj, found := dict.Find(key)
	if !found {
		return ""
	}
	switch v := obj.(type) {
	case types.StringLiteral:
		return string(v)
	case types.HexLiteral:
		return string(v)
	default:
		return ""
	}
}
