package selection

import (
	"github.com/tsawler/lectern/document"
	"github.com/tsawler/lectern/geom"
)

// Point pins one end of a selection to a character on a page.
type Point struct {
	PageNumber int
	CharIndex  int
	Pos        geom.Point // Document-space point that produced the hit
}

// Less orders points by page, then by character index. This order is
// what turns two arbitrary anchor points into a well-formed range.
func (p Point) Less(other Point) bool {
	if p.PageNumber != other.PageNumber {
		return p.PageNumber < other.PageNumber
	}
	return p.CharIndex < other.CharIndex
}

// AnchorRole tells the two selection handles apart.
type AnchorRole int

const (
	// AnchorA is the handle at the selection's start edge.
	AnchorA AnchorRole = iota
	// AnchorB is the handle at the selection's end edge.
	AnchorB
)

func (r AnchorRole) String() string {
	if r == AnchorB {
		return "B"
	}
	return "A"
}

// Anchor is a rendered selection handle: the document-space box of the
// edge character and the direction the handle should face.
type Anchor struct {
	Rect      geom.Rect
	Direction document.TextDirection
	Role      AnchorRole
	CharIndex int
}

// Range is an inclusive run of characters on a single page.
type Range struct {
	PageNumber int
	Start      int
	End        int
}

// Len returns the number of characters the range covers.
func (r Range) Len() int {
	return r.End - r.Start + 1
}

// Contains reports whether the range covers the given character index.
func (r Range) Contains(charIndex int) bool {
	return charIndex >= r.Start && charIndex <= r.End
}

// DragState is the engine's gesture mode.
type DragState int

const (
	// Idle means no selection gesture is in progress.
	Idle DragState = iota
	// DraggingFree starts a fresh selection at the first dragged-over
	// character.
	DraggingFree
	// DraggingAnchorA moves the start handle, keeping the end fixed.
	DraggingAnchorA
	// DraggingAnchorB moves the end handle, keeping the start fixed.
	DraggingAnchorB
)

func (s DragState) String() string {
	switch s {
	case DraggingFree:
		return "DraggingFree"
	case DraggingAnchorA:
		return "DraggingAnchorA"
	case DraggingAnchorB:
		return "DraggingAnchorB"
	default:
		return "Idle"
	}
}
