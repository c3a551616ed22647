package pdfcpudoc

import (
	"testing"

	gopdf "github.com/dslipak/pdf"

	"github.com/tsawler/lectern/document"
	"github.com/tsawler/lectern/geom"
)

// run builds a positioned text run in PDF bottom-origin coordinates.
func run(s string, x, y, w, size float64) gopdf.Text {
	return gopdf.Text{S: s, X: x, Y: y, W: w, FontSize: size}
}

func TestTextFromContentWords(t *testing.T) {
	content := gopdf.Content{Text: []gopdf.Text{
		run("Hi", 10, 80, 12, 12),
		run("go", 40, 80, 12, 12),
	}}

	st := textFromContent(content, 100)
	if st == nil {
		t.Fatal("textFromContent() = nil, want structured text")
	}

	if got := st.Text(); got != "Hi go" {
		t.Errorf("Text() = %q, want %q", got, "Hi go")
	}
	if len(st.Chars) != 5 {
		t.Fatalf("len(Chars) = %d, want 5", len(st.Chars))
	}

	// Baseline 80 with glyph height 12 on a 100pt page puts tops at 8.
	if got, want := st.Chars[0].Rect, geom.NewRect(10, 8, 6, 12); !got.AlmostEqual(want, 0.01) {
		t.Errorf("Chars[0].Rect = %v, want %v", got, want)
	}
	if st.Chars[2].HasGeometry() {
		t.Error("gap separator should be synthetic")
	}
	if got, want := st.Chars[3].Rect, geom.NewRect(40, 8, 6, 12); !got.AlmostEqual(want, 0.01) {
		t.Errorf("Chars[3].Rect = %v, want %v", got, want)
	}

	if len(st.Fragments) != 2 {
		t.Fatalf("len(Fragments) = %d, want 2", len(st.Fragments))
	}
	if f := st.Fragments[0]; f.Start != 0 || f.End != 2 {
		t.Errorf("Fragments[0] = [%d, %d), want [0, 2)", f.Start, f.End)
	}
	if got, want := st.Fragments[0].Rect, geom.NewRect(10, 8, 12, 12); !got.AlmostEqual(want, 0.01) {
		t.Errorf("Fragments[0].Rect = %v, want %v", got, want)
	}
	if st.Fragments[0].Direction != document.DirectionLTR {
		t.Errorf("Fragments[0].Direction = %v, want LTR", st.Fragments[0].Direction)
	}
}

func TestTextFromContentLineBreaks(t *testing.T) {
	content := gopdf.Content{Text: []gopdf.Text{
		run("a", 10, 80, 6, 12),
		run("b", 10, 60, 6, 12),
	}}

	st := textFromContent(content, 100)
	if st == nil {
		t.Fatal("textFromContent() = nil, want structured text")
	}

	if got := st.Text(); got != "a\nb" {
		t.Errorf("Text() = %q, want %q", got, "a\nb")
	}
	if len(st.Fragments) != 2 {
		t.Errorf("len(Fragments) = %d, want 2", len(st.Fragments))
	}
}

func TestTextFromContentSortsRunsByPosition(t *testing.T) {
	// Runs listed in reverse reading order still come out top to bottom.
	content := gopdf.Content{Text: []gopdf.Text{
		run("world", 10, 60, 30, 12),
		run("hello", 10, 80, 30, 12),
	}}

	st := textFromContent(content, 100)
	if st == nil {
		t.Fatal("textFromContent() = nil, want structured text")
	}
	if got := st.Text(); got != "hello\nworld" {
		t.Errorf("Text() = %q, want %q", got, "hello\nworld")
	}
}

func TestTextFromContentZeroWidthFallback(t *testing.T) {
	// Fonts without width tables yield zero-advance runs; widths are
	// approximated from the font size instead.
	content := gopdf.Content{Text: []gopdf.Text{
		run("abc", 10, 50, 0, 10),
	}}

	st := textFromContent(content, 100)
	if st == nil {
		t.Fatal("textFromContent() = nil, want structured text")
	}

	if got := st.Text(); got != "abc" {
		t.Errorf("Text() = %q, want %q", got, "abc")
	}
	want := []geom.Rect{
		geom.NewRect(10, 40, 5, 10),
		geom.NewRect(15, 40, 5, 10),
		geom.NewRect(20, 40, 5, 10),
	}
	for i, w := range want {
		if got := st.Chars[i].Rect; !got.AlmostEqual(w, 0.01) {
			t.Errorf("Chars[%d].Rect = %v, want %v", i, got, w)
		}
	}
}

func TestTextFromContentSpacesInsideRun(t *testing.T) {
	content := gopdf.Content{Text: []gopdf.Text{
		run("a b", 10, 80, 18, 12),
	}}

	st := textFromContent(content, 100)
	if st == nil {
		t.Fatal("textFromContent() = nil, want structured text")
	}

	if got := st.Text(); got != "a b" {
		t.Errorf("Text() = %q, want %q", got, "a b")
	}
	if st.Chars[1].HasGeometry() {
		t.Error("space character should be synthetic")
	}
	if len(st.Fragments) != 2 {
		t.Errorf("len(Fragments) = %d, want 2", len(st.Fragments))
	}
}

func TestTextFromContentNoText(t *testing.T) {
	if st := textFromContent(gopdf.Content{}, 100); st != nil {
		t.Errorf("textFromContent(empty) = %v, want nil", st)
	}

	spaces := gopdf.Content{Text: []gopdf.Text{run("   ", 10, 80, 18, 12)}}
	if st := textFromContent(spaces, 100); st != nil {
		t.Errorf("textFromContent(spaces only) = %v, want nil", st)
	}
}

// ============================================================================
// Rotation mapping
// ============================================================================

func TestRotateRect(t *testing.T) {
	media := geom.Size{Width: 200, Height: 100}
	rect := geom.NewRect(10, 20, 30, 40)

	tests := []struct {
		name     string
		rotation document.Rotation
		want     geom.Rect
	}{
		{"none", document.Rotate0, geom.NewRect(10, 20, 30, 40)},
		{"90", document.Rotate90, geom.NewRect(40, 10, 40, 30)},
		{"180", document.Rotate180, geom.NewRect(160, 40, 30, 40)},
		{"270", document.Rotate270, geom.NewRect(20, 160, 40, 30)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rotateRect(rect, tt.rotation, media)
			if !got.AlmostEqual(tt.want, 0.001) {
				t.Errorf("rotateRect() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRotateRectRoundTripsCorners(t *testing.T) {
	// A rect at the unrotated origin lands at the rotated page's
	// top-right corner for a 90 degree turn.
	media := geom.Size{Width: 200, Height: 100}
	got := rotateRect(geom.NewRect(0, 0, 10, 5), document.Rotate90, media)
	want := geom.NewRect(95, 0, 5, 10)
	if !got.AlmostEqual(want, 0.001) {
		t.Errorf("rotateRect() = %v, want %v", got, want)
	}
}

func TestRotateTextMapsCharsAndFragments(t *testing.T) {
	content := gopdf.Content{Text: []gopdf.Text{
		run("Hi", 10, 80, 12, 12),
	}}
	st := textFromContent(content, 100)
	if st == nil {
		t.Fatal("textFromContent() = nil, want structured text")
	}

	rotateText(st, document.Rotate90, geom.Size{Width: 200, Height: 100})

	if got, want := st.Chars[0].Rect, geom.NewRect(80, 10, 12, 6); !got.AlmostEqual(want, 0.01) {
		t.Errorf("Chars[0].Rect = %v, want %v", got, want)
	}
	if got, want := st.Fragments[0].Rect, geom.NewRect(80, 10, 12, 12); !got.AlmostEqual(want, 0.01) {
		t.Errorf("Fragments[0].Rect = %v, want %v", got, want)
	}
}
