package pdfrenderer

import (
	"errors"
	"testing"
)

func TestNewRendererUnknownBackend(t *testing.T) {
	if _, err := NewRenderer("ghostscript"); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestDocumentPageSizes(t *testing.T) {
	closed := 0
	d := &document{
		data:    []byte("%PDF"),
		sizes:   []pageSize{{612, 792}, {792, 612}},
		handle:  struct{}{},
		release: func() error { closed++; return nil },
	}

	if d.PageCount() != 2 {
		t.Fatalf("PageCount = %d", d.PageCount())
	}
	w, h, err := d.PageSize(1)
	if err != nil || w != 792 || h != 612 {
		t.Errorf("PageSize(1) = %v, %v, %v", w, h, err)
	}
	if _, _, err := d.PageSize(2); err == nil {
		t.Error("expected out of range error")
	}

	if err := d.Close(); err != nil {
		t.Fatal(err)
	}
	_ = d.Close()
	if closed != 1 {
		t.Errorf("released %d times, want 1", closed)
	}
	if _, err := d.open(); !errors.Is(err, ErrDocumentClosed) {
		t.Errorf("open after close = %v", err)
	}
}

func TestPixelSize(t *testing.T) {
	w, h := pixelSize(pageSize{600, 800}, 0.375)
	if w != 225 || h != 300 {
		t.Errorf("pixelSize = %dx%d, want 225x300", w, h)
	}
	w, h = pixelSize(pageSize{600, 800}, 1.0/800)
	if w != 1 || h != 1 {
		t.Errorf("warm-up pixelSize = %dx%d, want 1x1", w, h)
	}
}
