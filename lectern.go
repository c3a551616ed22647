// Package lectern provides an embeddable PDF-viewer core: multi-page
// layout, pan/zoom with animated navigation, a memory-bounded cache of
// rendered page bitmaps, cross-page text selection, and link
// resolution, assembled behind a single Viewer.
//
// Basic usage:
//
//	viewer, err := lectern.OpenPDF("manual.pdf")
//	if err != nil {
//	    // handle error
//	}
//	defer viewer.Close()
//
//	unsubscribe := viewer.Subscribe(func() {
//	    // schedule a repaint
//	})
//	defer unsubscribe()
//
//	viewer.SetViewSize(geom.Size{Width: 800, Height: 600})
//	for _, page := range viewer.VisiblePages() {
//	    if raster, ok := viewer.PageBitmap(page); ok {
//	        // draw raster.Preview, then raster.Partial on top
//	    }
//	}
//
// With options:
//
//	viewer, err := lectern.New(doc,
//	    lectern.WithLayoutStrategy(layout.Horizontal{}),
//	    lectern.WithMaxScale(16),
//	    lectern.WithMemoryBudget(256<<20),
//	)
//
// For advanced use cases the lower-level packages are also available:
// viewport owns the transform, render the bitmap cache, selection the
// text selection, and document the backend contracts.
package lectern

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/tsawler/lectern/document"
	"github.com/tsawler/lectern/layout"
	"github.com/tsawler/lectern/pdfcpudoc"
	"github.com/tsawler/lectern/render"
	"github.com/tsawler/lectern/selection"
	"github.com/tsawler/lectern/viewport"
)

// Viewer drives one open document: it computes the page layout, owns
// the view transform, keeps page bitmaps rendered ahead of the visible
// region, and runs text selection and link lookup. All methods are safe
// for concurrent use.
//
// The viewer never blocks on backend work. Renders and text extraction
// run on background goroutines; the subscription callback fires
// whenever their results land, and reads like PageBitmap return
// whatever is committed at that moment.
type Viewer struct {
	mu sync.Mutex

	opts Options

	doc     document.Document
	ownsDoc bool
	lo      layout.PageLayout

	cache *render.Cache
	sel   *selection.Engine
	links map[int][]document.Link

	observers    map[int]func()
	nextObserver int
	closed       bool

	controller  *viewport.Controller
	unsubscribe func()

	ctx    context.Context
	cancel context.CancelFunc
}

// New assembles a viewer over an open document. The document stays the
// caller's to close. Construction reads every page's display size to
// compute the layout; a page that cannot be read fails construction.
func New(doc document.Document, opts ...Option) (*Viewer, error) {
	if doc == nil {
		return nil, errors.New("lectern: nil document")
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	lo, err := buildLayout(doc, o.strategy, o.pageMargin)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	v := &Viewer{
		opts:      o,
		doc:       doc,
		lo:        lo,
		links:     make(map[int][]document.Link),
		observers: make(map[int]func()),
		ctx:       ctx,
		cancel:    cancel,
	}
	v.controller = viewport.NewController(viewport.Config{
		PageMargin:     o.pageMargin,
		BoundaryMargin: o.boundaryMargin,
		Metrics:        o.metrics,
		Physics:        o.physics,
	})
	v.cache = render.NewCache(doc, o.cache, v.notifyAll)
	v.sel = selection.NewEngine(doc, lo, selection.Config{HitTestMargin: o.hitTestMargin}, v.notifyAll)

	v.unsubscribe = v.controller.Subscribe(v.onViewChanged)
	v.controller.SetLayout(lo)
	return v, nil
}

// OpenPDF opens a PDF file and assembles a viewer over it. Unlike New,
// the viewer owns the document and closes it with Close.
func OpenPDF(path string, opts ...Option) (*Viewer, error) {
	doc, err := pdfcpudoc.Open(path)
	if err != nil {
		return nil, err
	}
	v, err := New(doc, opts...)
	if err != nil {
		doc.Close()
		return nil, err
	}
	v.mu.Lock()
	v.ownsDoc = true
	v.mu.Unlock()
	return v, nil
}

// buildLayout reads every page's display size and runs the placement
// strategy over them.
func buildLayout(doc document.Document, s layout.Strategy, margin float64) (layout.PageLayout, error) {
	count := doc.PageCount()
	pages := make([]layout.PageGeometry, 0, count)
	for n := 1; n <= count; n++ {
		pg, err := doc.Page(n)
		if err != nil {
			return layout.PageLayout{}, fmt.Errorf("failed to read page %d: %w", n, err)
		}
		pages = append(pages, layout.PageGeometry{Number: n, Size: pg.Size()})
	}
	return s.Layout(pages, margin), nil
}

// Document returns the open document.
func (v *Viewer) Document() document.Document {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.doc
}

// Metadata returns the document's metadata when the backend provides
// any.
func (v *Viewer) Metadata() (document.Metadata, bool) {
	v.mu.Lock()
	doc := v.doc
	v.mu.Unlock()
	if mp, ok := doc.(document.MetadataProvider); ok {
		return mp.Metadata(), true
	}
	return document.Metadata{}, false
}

// Subscribe registers a callback invoked after anything the embedder
// paints may have changed: a transform or metrics change, a committed
// render, or text arriving for a page. The callback runs outside the
// viewer's critical section and may call back into the viewer. The
// returned function removes the subscription.
func (v *Viewer) Subscribe(fn func()) func() {
	v.mu.Lock()
	id := v.nextObserver
	v.nextObserver++
	v.observers[id] = fn
	v.mu.Unlock()

	return func() {
		v.mu.Lock()
		delete(v.observers, id)
		v.mu.Unlock()
	}
}

// SetDocument replaces the open document. Cached bitmaps, links, and
// the selection are dropped, the layout is rebuilt, and the view resets
// to the first page. The previous document is closed only when the
// viewer owned it; the new one stays the caller's to close.
func (v *Viewer) SetDocument(doc document.Document) error {
	if doc == nil {
		return errors.New("lectern: nil document")
	}

	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return errors.New("lectern: viewer is closed")
	}
	o := v.opts
	v.mu.Unlock()

	lo, err := buildLayout(doc, o.strategy, o.pageMargin)
	if err != nil {
		return err
	}

	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return errors.New("lectern: viewer is closed")
	}
	oldCache, oldSel := v.cache, v.sel
	oldDoc, ownedOld := v.doc, v.ownsDoc
	v.doc = doc
	v.ownsDoc = false
	v.lo = lo
	v.links = make(map[int][]document.Link)
	v.cache = render.NewCache(doc, o.cache, v.notifyAll)
	v.sel = selection.NewEngine(doc, lo, selection.Config{HitTestMargin: o.hitTestMargin}, v.notifyAll)
	v.mu.Unlock()

	oldCache.Close()
	oldSel.Close()
	if ownedOld {
		oldDoc.Close()
	}

	// An empty layout drops the controller's initialization, so the real
	// layout that follows re-fits the first page instead of re-anchoring
	// into the previous document's reading position.
	v.controller.SetLayout(layout.PageLayout{})
	v.controller.SetLayout(lo)
	return nil
}

// Close releases everything the viewer holds: in-flight renders are
// canceled, cached bitmaps released, background text extraction
// stopped, and subscribers detached. The document is closed only when
// the viewer owns it. Close is idempotent; other methods become no-ops
// afterwards.
func (v *Viewer) Close() error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return nil
	}
	v.closed = true
	cache, sel := v.cache, v.sel
	doc, owns := v.doc, v.ownsDoc
	v.observers = make(map[int]func())
	v.mu.Unlock()

	v.unsubscribe()
	v.controller.Close()
	cache.Close()
	sel.Close()
	v.cancel()
	if owns {
		return doc.Close()
	}
	return nil
}

// onViewChanged runs after every published transform change: it feeds
// the new visible region to the render cache, then fans out to the
// viewer's subscribers.
func (v *Viewer) onViewChanged() {
	v.refreshCache()
	v.notifyAll()
}

func (v *Viewer) refreshCache() {
	v.mu.Lock()
	cache, lo := v.cache, v.lo
	closed := v.closed
	v.mu.Unlock()
	if closed {
		return
	}
	scale := v.controller.Transform().Scale
	cache.UpdateVisible(v.controller.VisibleRect(), lo, scale, v.controller.CurrentPage())
}

// notifyAll invokes every subscriber outside the critical section.
func (v *Viewer) notifyAll() {
	v.mu.Lock()
	obs := make([]func(), 0, len(v.observers))
	for _, fn := range v.observers {
		obs = append(obs, fn)
	}
	v.mu.Unlock()

	for _, fn := range obs {
		fn()
	}
}
