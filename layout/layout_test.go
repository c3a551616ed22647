package layout

import (
	"testing"

	"github.com/tsawler/lectern/geom"
)

func threePages() []PageGeometry {
	return []PageGeometry{
		{Number: 1, Size: geom.Size{Width: 100, Height: 150}},
		{Number: 2, Size: geom.Size{Width: 80, Height: 120}},
		{Number: 3, Size: geom.Size{Width: 100, Height: 150}},
	}
}

// ============================================================================
// Strategy Tests
// ============================================================================

func TestVerticalLayout(t *testing.T) {
	lo := Vertical{}.Layout(threePages(), 10)

	if len(lo.Rects) != 3 {
		t.Fatalf("got %d rects, want 3", len(lo.Rects))
	}

	// Widest page plus margins defines document width.
	if lo.Size.Width != 120 {
		t.Errorf("Size.Width = %v, want 120", lo.Size.Width)
	}
	// Three pages, margins above each and below the last.
	if lo.Size.Height != 10+150+10+120+10+150+10 {
		t.Errorf("Size.Height = %v, want 460", lo.Size.Height)
	}

	want := []geom.Rect{
		{X: 10, Y: 10, Width: 100, Height: 150},
		{X: 20, Y: 170, Width: 80, Height: 120},
		{X: 10, Y: 300, Width: 100, Height: 150},
	}
	for i, r := range lo.Rects {
		if r != want[i] {
			t.Errorf("Rects[%d] = %+v, want %+v", i, r, want[i])
		}
	}
}

func TestVerticalCentersNarrowPage(t *testing.T) {
	lo := Vertical{}.Layout(threePages(), 10)

	// Page 2 is 20 narrower than the widest page, so it is indented by
	// half of that on each side.
	page2 := lo.Rects[1]
	if page2.X != 20 {
		t.Errorf("narrow page X = %v, want 20", page2.X)
	}
	if page2.Center().X != lo.Size.Width/2 {
		t.Errorf("narrow page center = %v, want %v", page2.Center().X, lo.Size.Width/2)
	}
}

func TestHorizontalLayout(t *testing.T) {
	lo := Horizontal{}.Layout(threePages(), 10)

	if lo.Size.Height != 170 {
		t.Errorf("Size.Height = %v, want 170", lo.Size.Height)
	}
	if lo.Size.Width != 10+100+10+80+10+100+10 {
		t.Errorf("Size.Width = %v, want 320", lo.Size.Width)
	}

	// The short page is vertically centered.
	page2 := lo.Rects[1]
	if page2.Y != 25 {
		t.Errorf("short page Y = %v, want 25", page2.Y)
	}
}

func TestLayoutEmpty(t *testing.T) {
	lo := Vertical{}.Layout(nil, 10)

	if lo.PageCount() != 0 || !lo.Size.IsEmpty() {
		t.Errorf("empty layout = %+v, want zero", lo)
	}
}

// ============================================================================
// PageLayout Query Tests
// ============================================================================

func TestPageAt(t *testing.T) {
	lo := Vertical{}.Layout(threePages(), 10)

	tests := []struct {
		name  string
		point geom.Point
		want  int
	}{
		{"inside page 1", geom.Point{X: 50, Y: 50}, 1},
		{"inside page 2", geom.Point{X: 50, Y: 200}, 2},
		{"inside page 3", geom.Point{X: 50, Y: 400}, 3},
		{"in top margin", geom.Point{X: 50, Y: 5}, 0},
		{"between pages", geom.Point{X: 50, Y: 165}, 0},
		{"beside narrow page", geom.Point{X: 12, Y: 200}, 0},
		{"outside document", geom.Point{X: 500, Y: 500}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := lo.PageAt(tt.point); got != tt.want {
				t.Errorf("PageAt(%+v) = %d, want %d", tt.point, got, tt.want)
			}
		})
	}
}

func TestPagesIn(t *testing.T) {
	lo := Vertical{}.Layout(threePages(), 10)

	tests := []struct {
		name string
		area geom.Rect
		want []int
	}{
		{"covers all", geom.NewRect(0, 0, 120, 460), []int{1, 2, 3}},
		{"first two", geom.NewRect(0, 0, 120, 200), []int{1, 2}},
		{"only margin", geom.NewRect(0, 161, 120, 8), nil},
		{"last page", geom.NewRect(0, 310, 120, 10), []int{3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := lo.PagesIn(tt.area)
			if len(got) != len(tt.want) {
				t.Fatalf("PagesIn() = %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("PagesIn()[%d] = %d, want %d", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestPageRect(t *testing.T) {
	lo := Vertical{}.Layout(threePages(), 10)

	if _, ok := lo.PageRect(0); ok {
		t.Error("PageRect(0) should not exist")
	}
	if _, ok := lo.PageRect(4); ok {
		t.Error("PageRect(4) should not exist")
	}
	r, ok := lo.PageRect(2)
	if !ok || r != lo.Rects[1] {
		t.Errorf("PageRect(2) = %+v, %v", r, ok)
	}
}

func TestPageLayoutEqual(t *testing.T) {
	base := Vertical{}.Layout(threePages(), 10)
	same := Vertical{}.Layout(threePages(), 10)
	differentMargin := Vertical{}.Layout(threePages(), 12)
	differentStrategy := Horizontal{}.Layout(threePages(), 10)

	if !base.Equal(same) {
		t.Error("identical layouts should be Equal")
	}
	if base.Equal(differentMargin) {
		t.Error("layouts with different margins should differ")
	}
	if base.Equal(differentStrategy) {
		t.Error("layouts from different strategies should differ")
	}
	if base.Equal(PageLayout{}) {
		t.Error("layout should differ from zero layout")
	}
}
