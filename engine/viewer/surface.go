package viewer

import (
	"image"
	"image/color"
	"io"
	"sync"

	"github.com/disintegration/imaging"
)

// Background is the color a cleared surface is filled with.
var Background = color.White

// Surface is the drawing area results are presented on. All methods are
// called on the presentation loop.
type Surface interface {
	// Resize follows the viewport. The previous content may stay visible
	// until the next presentation.
	Resize(size image.Point)
	// Clear fills the whole surface with the background.
	Clear()
	// DrawCentered copies img centered onto the surface. img must not be
	// retained: it belongs to the raster cache.
	DrawCentered(img image.Image)
}

// Canvas is an in-memory Surface. Every mutation produces a fresh image, so
// a Snapshot can be read from any goroutine while the loop keeps drawing.
// A resize takes effect at the next Clear, so a failed render leaves the
// last presented frame in place.
type Canvas struct {
	mu   sync.RWMutex
	img  *image.NRGBA
	size image.Point
}

// NewCanvas returns an empty canvas.
func NewCanvas() *Canvas {
	return &Canvas{img: imaging.New(0, 0, Background)}
}

// Resize implements Surface.
func (c *Canvas) Resize(size image.Point) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.size = size
}

// Clear implements Surface.
func (c *Canvas) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.img = imaging.New(c.size.X, c.size.Y, Background)
}

// DrawCentered implements Surface.
func (c *Canvas) DrawCentered(img image.Image) {
	c.mu.Lock()
	defer c.mu.Unlock()
	pos := centerOffset(c.img.Rect.Size(), img.Bounds().Size())
	c.img = imaging.Paste(c.img, img, pos)
}

// Snapshot returns the current contents. The returned image is never
// mutated afterwards.
func (c *Canvas) Snapshot() *image.NRGBA {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.img
}

// EncodePNG writes the current contents as PNG.
func (c *Canvas) EncodePNG(w io.Writer) error {
	return imaging.Encode(w, c.Snapshot(), imaging.PNG)
}
