package memdoc

import (
	"context"
	"errors"
	"image/color"
	"testing"
	"time"

	"github.com/tsawler/lectern/document"
	"github.com/tsawler/lectern/geom"
)

func TestDocumentPages(t *testing.T) {
	doc := New(
		PageSpec{Size: geom.Size{Width: 100, Height: 150}},
		PageSpec{Size: geom.Size{Width: 200, Height: 100}},
	)

	if doc.PageCount() != 2 {
		t.Fatalf("PageCount() = %d, want 2", doc.PageCount())
	}

	p, err := doc.Page(2)
	if err != nil {
		t.Fatalf("Page(2) error: %v", err)
	}
	if p.Number() != 2 || p.Size().Width != 200 {
		t.Errorf("page 2 = number %d size %+v", p.Number(), p.Size())
	}

	if _, err := doc.Page(0); !errors.Is(err, document.ErrPageOutOfRange) {
		t.Errorf("Page(0) error = %v, want ErrPageOutOfRange", err)
	}
	if _, err := doc.Page(3); !errors.Is(err, document.ErrPageOutOfRange) {
		t.Errorf("Page(3) error = %v, want ErrPageOutOfRange", err)
	}
}

func TestRenderFill(t *testing.T) {
	doc := New(PageSpec{
		Size: geom.Size{Width: 100, Height: 100},
		Fill: color.RGBA{R: 255, A: 255},
	})
	p, _ := doc.Page(1)

	bmp, err := p.Render(context.Background(), document.FullPageRequest(50, 50))
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	defer bmp.Release()

	if bmp.Width() != 50 || bmp.Height() != 50 {
		t.Errorf("bitmap = %dx%d, want 50x50", bmp.Width(), bmp.Height())
	}
	if got := bmp.Image.RGBAAt(25, 25); got.R != 255 || got.G != 0 {
		t.Errorf("pixel = %+v, want red fill", got)
	}
}

func TestRenderHonorsContext(t *testing.T) {
	doc := New(PageSpec{
		Size:        geom.Size{Width: 100, Height: 100},
		RenderDelay: time.Minute,
	})
	p, _ := doc.Page(1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := p.Render(ctx, document.FullPageRequest(10, 10))
		done <- err
	}()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, document.ErrRenderCanceled) {
			t.Errorf("Render error = %v, want ErrRenderCanceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("canceled render did not return")
	}
}

func TestRenderInjectedFailure(t *testing.T) {
	boom := errors.New("boom")
	doc := New(PageSpec{Size: geom.Size{Width: 100, Height: 100}, RenderErr: boom})
	p, _ := doc.Page(1)

	if _, err := p.Render(context.Background(), document.FullPageRequest(10, 10)); !errors.Is(err, boom) {
		t.Errorf("Render error = %v, want injected failure", err)
	}
}

func TestStructuredTextGrid(t *testing.T) {
	doc := New(PageSpec{
		Size:  geom.Size{Width: 200, Height: 100},
		Lines: []string{"hi go", "x"},
	})
	p, _ := doc.Page(1)

	st, err := p.StructuredText(context.Background())
	if err != nil {
		t.Fatalf("StructuredText error: %v", err)
	}

	// "hi go" + newline + "x".
	if got := st.Text(); got != "hi go\nx" {
		t.Errorf("Text() = %q, want %q", got, "hi go\nx")
	}

	// First char sits at the inset; the char after the space is three
	// advances in.
	if got := st.Chars[0].Rect; got.X != textInsetX || got.Y != textInsetY {
		t.Errorf("first char rect = %+v", got)
	}
	if got := st.Chars[3].Rect.X; got != textInsetX+3*glyphAdvance {
		t.Errorf("char after space X = %v, want %v", got, textInsetX+3*glyphAdvance)
	}

	// The space and the newline carry no geometry.
	if st.Chars[2].HasGeometry() {
		t.Error("space should have no geometry")
	}
	if st.Chars[5].HasGeometry() {
		t.Error("newline should have no geometry")
	}

	// Three fragments: "hi", "go", "x".
	if len(st.Fragments) != 3 {
		t.Fatalf("got %d fragments, want 3: %+v", len(st.Fragments), st.Fragments)
	}
	if f := st.Fragments[1]; st.TextRange(f.Start, f.End) != "go" {
		t.Errorf("fragment 1 = %q, want %q", st.TextRange(f.Start, f.End), "go")
	}
	if f := st.Fragments[2]; st.TextRange(f.Start, f.End) != "x" {
		t.Errorf("fragment 2 = %q, want %q", st.TextRange(f.Start, f.End), "x")
	}
}

func TestStructuredTextEmptyPage(t *testing.T) {
	doc := New(PageSpec{Size: geom.Size{Width: 100, Height: 100}})
	p, _ := doc.Page(1)

	if _, err := p.StructuredText(context.Background()); !errors.Is(err, document.ErrNoStructuredText) {
		t.Errorf("StructuredText error = %v, want ErrNoStructuredText", err)
	}
}

func TestLinks(t *testing.T) {
	link := document.Link{Rects: []geom.Rect{geom.NewRect(10, 10, 50, 10)}, URI: "https://example.com"}
	doc := New(PageSpec{Size: geom.Size{Width: 100, Height: 100}, Links: []document.Link{link}})
	p, _ := doc.Page(1)

	links, err := p.Links(context.Background())
	if err != nil || len(links) != 1 || links[0].URI != link.URI {
		t.Errorf("Links() = %+v, %v", links, err)
	}
}

func TestClosedDocument(t *testing.T) {
	doc := New(PageSpec{Size: geom.Size{Width: 100, Height: 100}, Lines: []string{"a"}})
	p, _ := doc.Page(1)
	doc.Close()

	if _, err := doc.Page(1); !errors.Is(err, document.ErrClosed) {
		t.Errorf("Page after Close error = %v, want ErrClosed", err)
	}
	if _, err := p.Render(context.Background(), document.FullPageRequest(10, 10)); !errors.Is(err, document.ErrClosed) {
		t.Errorf("Render after Close error = %v, want ErrClosed", err)
	}
	if _, err := p.StructuredText(context.Background()); !errors.Is(err, document.ErrClosed) {
		t.Errorf("StructuredText after Close error = %v, want ErrClosed", err)
	}
}
