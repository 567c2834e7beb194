package pdfrenderer

import (
	"errors"
	"fmt"
	"image"
	"sync"
)

// Backend names a rasterization engine.
type Backend string

const (
	// BackendPDFium is go-pdfium on WebAssembly (pure Go, no CGo).
	BackendPDFium Backend = "pdfium"
	// BackendFitz is MuPDF through go-fitz (requires CGo).
	BackendFitz Backend = "fitz"
)

// ErrDocumentClosed is returned when rendering a released document.
var ErrDocumentClosed = errors.New("pdfrenderer: document closed")

// Document is an opened PDF. Page sizes are read once at open time, in
// points.
type Document interface {
	PageCount() int
	PageSize(pageIndex int) (width, height float64, err error)
	// Data returns the PDF bytes the document was opened from.
	Data() []byte
	Close() error
}

// Renderer opens PDFs and rasterizes single pages. Implementations are safe
// for concurrent use but serialize work internally.
type Renderer interface {
	Open(pdf []byte) (Document, error)
	// RenderPage rasterizes one page at scale pixels per point.
	RenderPage(doc Document, pageIndex int, scale float64) (image.Image, error)
	Close() error
}

// NewRenderer creates a renderer for the given backend. An empty backend
// selects PDFium.
func NewRenderer(backend Backend) (Renderer, error) {
	switch backend {
	case "", BackendPDFium:
		return NewPDFiumRenderer()
	case BackendFitz:
		return NewFitzRenderer()
	default:
		return nil, fmt.Errorf("unknown renderer backend %q", backend)
	}
}

// pageSize is a page's size in points.
type pageSize struct {
	width, height float64
}

// document is the shared Document implementation. handle is the backend's
// own document reference.
type document struct {
	data  []byte
	sizes []pageSize

	mu      sync.Mutex
	handle  any
	release func() error
}

func (d *document) PageCount() int { return len(d.sizes) }

func (d *document) PageSize(pageIndex int) (float64, float64, error) {
	if pageIndex < 0 || pageIndex >= len(d.sizes) {
		return 0, 0, fmt.Errorf("page %d out of range [0,%d)", pageIndex, len(d.sizes))
	}
	s := d.sizes[pageIndex]
	return s.width, s.height, nil
}

func (d *document) Data() []byte { return d.data }

func (d *document) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.release == nil {
		return nil
	}
	err := d.release()
	d.release = nil
	d.handle = nil
	return err
}

// open returns the backend handle, or ErrDocumentClosed.
func (d *document) open() (any, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.handle == nil {
		return nil, ErrDocumentClosed
	}
	return d.handle, nil
}

func asDocument(doc Document) (*document, error) {
	d, ok := doc.(*document)
	if !ok {
		return nil, fmt.Errorf("pdfrenderer: foreign document %T", doc)
	}
	return d, nil
}

// pixelSize converts a page size in points to a raster size at scale,
// never smaller than one pixel.
func pixelSize(s pageSize, scale float64) (int, int) {
	return max(int(s.width*scale), 1), max(int(s.height*scale), 1)
}
