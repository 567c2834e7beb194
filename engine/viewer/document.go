package viewer

import (
	"context"
	"image"
	"math"
)

// Document is an opaque handle to a loaded, paginated document. It is
// immutable once obtained. The viewer releases it with Close when it is
// superseded or when the view is torn down.
type Document interface {
	PageCount() int
	// PageSize returns the native page size in points.
	PageSize(pageIndex int) (width, height float64, err error)
	Close() error
}

// Rasterizer converts a single page to pixels at the given scale factor.
// It is only ever called from the viewer's worker goroutine.
type Rasterizer interface {
	Rasterize(doc Document, pageIndex int, scale float64) (image.Image, error)
}

// RasterizerFunc adapts a function to the Rasterizer interface.
type RasterizerFunc func(doc Document, pageIndex int, scale float64) (image.Image, error)

// Rasterize calls f.
func (f RasterizerFunc) Rasterize(doc Document, pageIndex int, scale float64) (image.Image, error) {
	return f(doc, pageIndex, scale)
}

// LoaderFunc produces a Document. It runs on the worker goroutine.
type LoaderFunc func(ctx context.Context) (Document, error)

// Size is a width/height pair in logical units.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Empty reports whether either dimension is zero or negative.
func (s Size) Empty() bool {
	return s.Width <= 0 || s.Height <= 0
}

// Pixels returns the floored integer size.
func (s Size) Pixels() image.Point {
	return image.Pt(int(math.Floor(math.Max(s.Width, 0))), int(math.Floor(math.Max(s.Height, 0))))
}

// maxPageIndex returns pageCount-1, or 0 for an absent or empty document.
func maxPageIndex(doc Document) int {
	if doc == nil {
		return 0
	}
	if n := doc.PageCount(); n > 1 {
		return n - 1
	}
	return 0
}
