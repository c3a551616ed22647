package pdfcpudoc

import (
	"fmt"
	"math"
	"os"
	"sort"
	"unicode"

	gopdf "github.com/dslipak/pdf"

	"github.com/tsawler/lectern/document"
	"github.com/tsawler/lectern/geom"
)

// Glyph grouping tolerances in page points: runs whose baselines differ
// by more than lineTolerance start a new line, and a horizontal gap
// wider than wordTolerance inside a line separates words.
const (
	lineTolerance = 3.0
	wordTolerance = 3.0
)

// fallbackGlyphHeight stands in for a missing font size.
const fallbackGlyphHeight = 12.0

// extractText reads positioned glyphs for one page and assembles them
// into structured text.
func (d *Document) extractText(p *Page) (*document.StructuredText, error) {
	reader, err := d.openTextReader()
	if err != nil {
		return nil, err
	}

	content, err := pageContent(reader, p.number)
	if err != nil {
		return nil, err
	}

	st := textFromContent(content, p.mediaSize.Height)
	if st == nil || st.IsEmpty() {
		return nil, document.ErrNoStructuredText
	}
	if p.rotation != document.Rotate0 {
		rotateText(st, p.rotation, p.mediaSize)
	}
	return st, nil
}

// openTextReader opens the dslipak reader on first use. The reader
// holds its own file handle, released by Document.Close.
func (d *Document) openTextReader() (*gopdf.Reader, error) {
	d.textMu.Lock()
	defer d.textMu.Unlock()

	if d.isClosed() {
		return nil, document.ErrClosed
	}
	if d.textReader != nil {
		return d.textReader, nil
	}

	f, err := os.Open(d.file.Name())
	if err != nil {
		return nil, fmt.Errorf("failed to open file for text extraction: %w", err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	reader, err := gopdf.NewReaderEncrypted(f, fi.Size(), func() string { return d.textPassword })
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to read PDF text layer: %w", err)
	}
	d.textFile = f
	d.textReader = reader
	return reader, nil
}

// pageContent fetches the page's positioned text runs. dslipak/pdf
// panics on malformed content streams, so the call is fenced.
func pageContent(reader *gopdf.Reader, number int) (content gopdf.Content, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("text extraction failed for page %d: %v", number, r)
		}
	}()
	if number < 1 || number > reader.NumPage() {
		return gopdf.Content{}, document.ErrPageOutOfRange
	}
	return reader.Page(number).Content(), nil
}

// glyph is one positioned character in unrotated top-origin page space.
type glyph struct {
	r     rune
	rect  geom.Rect
	space bool
}

// textFromContent explodes text runs into per-character boxes, orders
// them into lines, and groups them into word fragments. Returns nil
// when the page has no drawable text.
func textFromContent(content gopdf.Content, pageHeight float64) *document.StructuredText {
	glyphs := explodeRuns(content.Text, pageHeight)
	if len(glyphs) == 0 {
		return nil
	}
	sortGlyphs(glyphs)
	return buildText(glyphs)
}

// explodeRuns divides each run's box across its characters. Runs carry
// the pen position at their left edge and their total advance; fonts
// without width tables report a zero advance, which is approximated
// from the font size.
func explodeRuns(runs []gopdf.Text, pageHeight float64) []glyph {
	var glyphs []glyph
	for _, run := range runs {
		runes := []rune(run.S)
		if len(runes) == 0 {
			continue
		}

		height := run.FontSize
		if height <= 0 {
			height = fallbackGlyphHeight
		}
		width := run.W
		if width <= 0 {
			width = 0.5 * height * float64(len(runes))
		}
		advance := width / float64(len(runes))
		top := pageHeight - run.Y - height

		x := run.X
		for _, r := range runes {
			glyphs = append(glyphs, glyph{
				r:     r,
				rect:  geom.NewRect(x, top, advance, height),
				space: unicode.IsSpace(r),
			})
			x += advance
		}
	}
	return glyphs
}

// sortGlyphs orders glyphs top-to-bottom by line, then left-to-right.
// The stable sort keeps content order for glyphs the geometry cannot
// separate.
func sortGlyphs(glyphs []glyph) {
	sort.SliceStable(glyphs, func(i, j int) bool {
		if math.Abs(glyphs[i].rect.Y-glyphs[j].rect.Y) > lineTolerance {
			return glyphs[i].rect.Y < glyphs[j].rect.Y
		}
		return glyphs[i].rect.X < glyphs[j].rect.X
	})
}

// buildText walks ordered glyphs and emits characters and fragments.
// Space glyphs, line breaks, and word gaps become synthetic separator
// characters; every maximal run of drawn characters forms one fragment
// tagged with its dominant direction.
func buildText(glyphs []glyph) *document.StructuredText {
	st := &document.StructuredText{}
	fragStart := -1
	var fragRect geom.Rect
	var fragRunes []rune

	closeFragment := func() {
		if fragStart >= 0 {
			st.Fragments = append(st.Fragments, document.Fragment{
				Start:     fragStart,
				End:       len(st.Chars),
				Rect:      fragRect,
				Direction: document.DetectDirection(string(fragRunes)),
			})
			fragStart = -1
			fragRunes = fragRunes[:0]
		}
	}
	separator := func(r rune) {
		closeFragment()
		if n := len(st.Chars); n > 0 && !st.Chars[n-1].HasGeometry() {
			return
		}
		st.Chars = append(st.Chars, document.CharRect{Rune: r})
	}

	var prev *glyph
	for i := range glyphs {
		g := &glyphs[i]
		if prev != nil {
			if math.Abs(g.rect.Y-prev.rect.Y) > lineTolerance {
				separator('\n')
			} else if g.rect.X-prev.rect.Right() > wordTolerance {
				separator(' ')
			}
		}
		if g.space {
			separator(' ')
			prev = g
			continue
		}

		if fragStart < 0 {
			fragStart = len(st.Chars)
			fragRect = g.rect
		} else {
			fragRect = fragRect.Union(g.rect)
		}
		fragRunes = append(fragRunes, g.r)
		st.Chars = append(st.Chars, document.CharRect{Rune: g.r, Rect: g.rect})
		prev = g
	}
	closeFragment()

	// A page of nothing but separators has no text.
	for _, c := range st.Chars {
		if c.HasGeometry() {
			return st
		}
	}
	return nil
}

// rotateText maps every character and fragment box into the displayed,
// rotated page space.
func rotateText(st *document.StructuredText, rotation document.Rotation, media geom.Size) {
	for i := range st.Chars {
		if st.Chars[i].HasGeometry() {
			st.Chars[i].Rect = rotateRect(st.Chars[i].Rect, rotation, media)
		}
	}
	for i := range st.Fragments {
		st.Fragments[i].Rect = rotateRect(st.Fragments[i].Rect, rotation, media)
	}
}
