package pdfrenderer

import (
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/klippa-app/go-pdfium"
	"github.com/klippa-app/go-pdfium/references"
	"github.com/klippa-app/go-pdfium/requests"
	"github.com/klippa-app/go-pdfium/webassembly"
)

// PDFiumRenderer renders with go-pdfium on WebAssembly (pure Go, no CGo).
// A single instance serves every document; calls are serialized.
type PDFiumRenderer struct {
	mu       sync.Mutex
	pool     pdfium.Pool
	instance pdfium.Pdfium
}

// NewPDFiumRenderer starts a single-worker WebAssembly pool.
func NewPDFiumRenderer() (*PDFiumRenderer, error) {
	pool, err := webassembly.Init(webassembly.Config{
		MinIdle:  1,
		MaxIdle:  1,
		MaxTotal: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PDFium WebAssembly: %w", err)
	}

	instance, err := pool.GetInstance(time.Second * 30)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to get PDFium instance: %w", err)
	}

	return &PDFiumRenderer{
		pool:     pool,
		instance: instance,
	}, nil
}

// Open loads a PDF from memory and reads every page size.
func (r *PDFiumRenderer) Open(pdf []byte) (Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.instance == nil {
		return nil, fmt.Errorf("pdfium renderer closed")
	}

	opened, err := r.instance.OpenDocument(&requests.OpenDocument{
		File: &pdf,
	})
	if err != nil {
		return nil, fmt.Errorf("unable to open PDF document: %w", err)
	}
	handle := opened.Document
	closeDoc := func() error {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.instance == nil {
			return nil
		}
		_, err := r.instance.FPDF_CloseDocument(&requests.FPDF_CloseDocument{Document: handle})
		return err
	}

	count, err := r.instance.FPDF_GetPageCount(&requests.FPDF_GetPageCount{
		Document: handle,
	})
	if err != nil {
		_, _ = r.instance.FPDF_CloseDocument(&requests.FPDF_CloseDocument{Document: handle})
		return nil, fmt.Errorf("unable to get page count: %w", err)
	}

	sizes := make([]pageSize, 0, count.PageCount)
	for i := 0; i < count.PageCount; i++ {
		size, err := r.instance.GetPageSize(&requests.GetPageSize{
			Page: byIndex(handle, i),
		})
		if err != nil {
			_, _ = r.instance.FPDF_CloseDocument(&requests.FPDF_CloseDocument{Document: handle})
			return nil, fmt.Errorf("unable to get size of page %d: %w", i, err)
		}
		sizes = append(sizes, pageSize{width: size.Width, height: size.Height})
	}

	return &document{
		data:    pdf,
		sizes:   sizes,
		handle:  handle,
		release: closeDoc,
	}, nil
}

// RenderPage rasterizes one page. The result is copied out of WebAssembly
// memory before the render is cleaned up.
func (r *PDFiumRenderer) RenderPage(doc Document, pageIndex int, scale float64) (image.Image, error) {
	d, err := asDocument(doc)
	if err != nil {
		return nil, err
	}
	h, err := d.open()
	if err != nil {
		return nil, err
	}
	width, height, err := d.PageSize(pageIndex)
	if err != nil {
		return nil, err
	}
	pw, ph := pixelSize(pageSize{width, height}, scale)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.instance == nil {
		return nil, fmt.Errorf("pdfium renderer closed")
	}
	pageRender, err := r.instance.RenderPageInPixels(&requests.RenderPageInPixels{
		Page:   byIndex(h.(references.FPDF_DOCUMENT), pageIndex),
		Width:  pw,
		Height: ph,
	})
	if err != nil {
		return nil, fmt.Errorf("unable to render page %d: %w", pageIndex, err)
	}
	defer pageRender.Cleanup()

	return imaging.Clone(pageRender.Result.Image), nil
}

func byIndex(doc references.FPDF_DOCUMENT, index int) requests.Page {
	return requests.Page{
		ByIndex: &requests.PageByIndex{
			Document: doc,
			Index:    index,
		},
	}
}

// Close cleans up resources used by the PDFium renderer
func (r *PDFiumRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.instance != nil {
		_ = r.instance.Close()
		r.instance = nil
	}
	if r.pool != nil {
		r.pool.Close()
		r.pool = nil
	}
	return nil
}
