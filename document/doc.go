// Package document defines the abstraction every viewer layer consumes:
// a paged [Document] whose pages can report their geometry, rasterize
// regions, and expose selectable text.
//
// This package contains no backend logic. Concrete documents live in
// pdfcpudoc (PDF files), imagedoc (image files), and memdoc (in-memory
// fixtures); the layout, viewport, render, and selection packages only
// ever see the interfaces defined here.
//
// # Pages
//
// A [Page] reports its 1-indexed number, its size at scale 1.0 with
// rotation already applied, and its intrinsic [Rotation]. Reporting
// post-rotation sizes keeps rotation out of the view transform: the
// rest of the module treats every page as an axis-aligned rectangle.
//
// # Rendering
//
// [Page.Render] rasterizes the region described by a [RenderRequest]
// into a [Bitmap]. A request names both the dimensions the whole page
// would occupy at the target resolution and the sub-rectangle wanted,
// which lets the render cache ask for a small high-resolution tile of
// a large page without rasterizing all of it. Renders are expected to
// honor context cancellation and return [ErrRenderCanceled] when
// interrupted.
//
// [Bitmap] carries its own [Bitmap.ByteSize] for cache accounting and a
// [Bitmap.Release] hook so backends can pool pixel memory.
//
// # Text
//
// [Page.StructuredText] returns the page text as a [StructuredText]:
// every character with its page-space box ([CharRect]), grouped into
// word-level [Fragment] runs. Character indices into that structure are
// how the selection engine addresses text; they are rune positions, not
// byte offsets. Pages without extractable text return
// [ErrNoStructuredText], which callers treat as an empty page rather
// than a failure.
//
// # Links
//
// [Page.Links] exposes clickable regions. A [Link] is either external
// (URI) or internal (1-indexed target page); internal destinations the
// backend cannot resolve keep their raw name in Dest with PageNumber 0.
package document
