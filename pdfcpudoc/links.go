package pdfcpudoc

import (
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/tsawler/lectern/document"
	"github.com/tsawler/lectern/geom"
)

// extractLinks walks the page's Annots array and converts every Link
// annotation. Malformed entries are skipped rather than failing the
// page.
func (d *Document) extractLinks(p *Page) ([]document.Link, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, document.ErrClosed
	}

	obj, found := p.dict.Find("Annots")
	if !found {
		return nil, nil
	}
	obj, err := d.ctx.Dereference(obj)
	if err != nil {
		return nil, nil
	}
	annots, ok := obj.(types.Array)
	if !ok {
		return nil, nil
	}

	var links []document.Link
	for _, item := range annots {
		item, err := d.ctx.Dereference(item)
		if err != nil {
			continue
		}
		annot, ok := item.(types.Dict)
		if !ok {
			continue
		}
		if link, ok := d.linkFromAnnot(annot, p); ok {
			links = append(links, link)
		}
	}
	return links, nil
}

// linkFromAnnot converts one Link annotation. Activation rectangles
// are flipped from PDF bottom-origin coordinates into page space and
// then rotated with the page.
func (d *Document) linkFromAnnot(annot types.Dict, p *Page) (document.Link, bool) {
	if sub, found := annot.Find("Subtype"); !found || !isName(sub, "Link") {
		return document.Link{}, false
	}
	rects := d.annotRects(annot, p)
	if len(rects) == 0 {
		return document.Link{}, false
	}

	link := document.Link{Rects: rects}

	if action, found := annot.Find("A"); found {
		if dict, ok := d.derefDict(action); ok {
			d.applyAction(dict, &link)
		}
	} else if dest, found := annot.Find("Dest"); found {
		d.applyDest(dest, &link)
	}

	if link.URI == "" && link.PageNumber == 0 && link.Dest == "" {
		return document.Link{}, false
	}
	return link, true
}

// applyAction fills the link target from a URI or GoTo action dict.
func (d *Document) applyAction(action types.Dict, link *document.Link) {
	s, found := action.Find("S")
	if !found {
		return
	}
	switch {
	case isName(s, "URI"):
		if uri, found := action.Find("URI"); found {
			link.URI = stringValue(d.deref(uri))
		}
	case isName(s, "GoTo"):
		if dest, found := action.Find("D"); found {
			d.applyDest(dest, link)
		}
	}
}

// applyDest resolves an explicit destination array to a page number via
// the page object map. Named destinations are recorded unresolved.
func (d *Document) applyDest(dest types.Object, link *document.Link) {
	dest = d.deref(dest)
	switch v := dest.(type) {
	case types.Array:
		if len(v) == 0 {
			return
		}
		if ref, ok := v[0].(types.IndirectRef); ok {
			link.PageNumber = d.pageObjs[int(ref.ObjectNumber)]
		} else if ref, ok := v[0].(*types.IndirectRef); ok {
			link.PageNumber = d.pageObjs[int(ref.ObjectNumber)]
		}
	case types.Name:
		link.Dest = strings.TrimPrefix(string(v), "/")
	case types.StringLiteral:
		link.Dest = string(v)
	case types.HexLiteral:
		link.Dest = string(v)
	}
}

// annotRects reads the annotation's activation regions. QuadPoints,
// when present, carve the region into one rectangle per quad (a link
// wrapping across lines); otherwise the Rect entry is used whole.
func (d *Document) annotRects(annot types.Dict, p *Page) []geom.Rect {
	if quads := d.quadRects(annot, p); len(quads) > 0 {
		return quads
	}
	if rect, ok := d.annotRect(annot, p); ok {
		return []geom.Rect{rect}
	}
	return nil
}

// quadRects converts a QuadPoints array (eight numbers per quad) into
// rotated top-origin page space.
func (d *Document) quadRects(annot types.Dict, p *Page) []geom.Rect {
	obj, found := annot.Find("QuadPoints")
	if !found {
		return nil
	}
	arr, ok := d.deref(obj).(types.Array)
	if !ok || len(arr) == 0 || len(arr)%8 != 0 {
		return nil
	}

	nums := make([]float64, len(arr))
	for i, item := range arr {
		f, ok := toFloat(d.deref(item))
		if !ok {
			return nil
		}
		nums[i] = f
	}

	rects := make([]geom.Rect, 0, len(nums)/8)
	for i := 0; i+8 <= len(nums); i += 8 {
		q := nums[i : i+8]
		x1 := min(q[0], q[2], q[4], q[6])
		x2 := max(q[0], q[2], q[4], q[6])
		y1 := min(q[1], q[3], q[5], q[7])
		y2 := max(q[1], q[3], q[5], q[7])
		rect := geom.NewRect(x1, p.mediaSize.Height-y2, x2-x1, y2-y1)
		rects = append(rects, rotateRect(rect, p.rotation, p.mediaSize))
	}
	return rects
}

// annotRect reads the annotation's Rect array and maps it into rotated
// top-origin page space.
func (d *Document) annotRect(annot types.Dict, p *Page) (geom.Rect, bool) {
	obj, found := annot.Find("Rect")
	if !found {
		return geom.Rect{}, false
	}
	arr, ok := d.deref(obj).(types.Array)
	if !ok || len(arr) != 4 {
		return geom.Rect{}, false
	}

	var coords [4]float64
	for i, item := range arr {
		f, ok := toFloat(d.deref(item))
		if !ok {
			return geom.Rect{}, false
		}
		coords[i] = f
	}

	x1, x2 := coords[0], coords[2]
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	y1, y2 := coords[1], coords[3]
	if y1 > y2 {
		y1, y2 = y2, y1
	}

	// Flip bottom-origin PDF coordinates to the top-origin page space.
	rect := geom.NewRect(x1, p.mediaSize.Height-y2, x2-x1, y2-y1)
	return rotateRect(rect, p.rotation, p.mediaSize), true
}

func (d *Document) deref(obj types.Object) types.Object {
	resolved, err := d.ctx.Dereference(obj)
	if err != nil {
		return obj
	}
	return resolved
}

func (d *Document) derefDict(obj types.Object) (types.Dict, bool) {
	dict, ok := d.deref(obj).(types.Dict)
	return dict, ok
}

// isName matches a PDF name object with and without its leading slash.
func isName(obj types.Object, want string) bool {
	n, ok := obj.(types.Name)
	if !ok {
		return false
	}
	return string(n) == want || string(n) == "/"+want
}

func stringValue(obj types.Object) string {
	switch v := obj.(type) {
	case types.StringLiteral:
		return string(v)
	case types.HexLiteral:
		return string(v)
	default:
		return ""
	}
}

func toFloat(obj types.Object) (float64, bool) {
	switch v := obj.(type) {
	case types.Integer:
		return float64(v), true
	case types.Float:
		return float64(v), true
	default:
		return 0, false
	}
}
