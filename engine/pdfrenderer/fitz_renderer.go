package pdfrenderer

import (
	"fmt"
	"image"
	"sync"

	"github.com/gen2brain/go-fitz"
)

// FitzRenderer renders with go-fitz (requires CGo and MuPDF). MuPDF
// contexts are per document, so the renderer itself holds no state.
type FitzRenderer struct {
	mu sync.Mutex
}

// NewFitzRenderer creates a new Fitz-based PDF renderer
func NewFitzRenderer() (*FitzRenderer, error) {
	return &FitzRenderer{}, nil
}

// Open loads a PDF from memory and reads every page's bounds.
func (r *FitzRenderer) Open(pdf []byte) (Document, error) {
	doc, err := fitz.NewFromMemory(pdf)
	if err != nil {
		return nil, fmt.Errorf("unable to open PDF document: %w", err)
	}

	n := doc.NumPage()
	sizes := make([]pageSize, 0, n)
	for i := 0; i < n; i++ {
		bounds, err := doc.Bound(i)
		if err != nil {
			doc.Close()
			return nil, fmt.Errorf("unable to get bounds of page %d: %w", i, err)
		}
		sizes = append(sizes, pageSize{width: float64(bounds.Dx()), height: float64(bounds.Dy())})
	}

	return &document{
		data:    pdf,
		sizes:   sizes,
		handle:  doc,
		release: doc.Close,
	}, nil
}

// RenderPage rasterizes one page. MuPDF's base resolution is 72 DPI, one
// pixel per point.
func (r *FitzRenderer) RenderPage(doc Document, pageIndex int, scale float64) (image.Image, error) {
	d, err := asDocument(doc)
	if err != nil {
		return nil, err
	}
	h, err := d.open()
	if err != nil {
		return nil, err
	}
	if _, _, err := d.PageSize(pageIndex); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	img, err := h.(*fitz.Document).ImageDPI(pageIndex, 72*scale)
	if err != nil {
		return nil, fmt.Errorf("unable to render page %d: %w", pageIndex, err)
	}
	return img, nil
}

// Close is a no-op: documents own their MuPDF contexts.
func (r *FitzRenderer) Close() error {
	return nil
}
