package viewer

import (
	"image"
)

// RasterCache holds a single reusable pixel buffer. A buffer is reused only
// when the requested size matches exactly; any other size replaces it.
//
// The cache is owned by the scheduler and touched only on the worker.
type RasterCache struct {
	buf *image.RGBA
}

// Acquire returns a buffer of exactly width x height pixels and whether the
// previous buffer was reused.
func (c *RasterCache) Acquire(width, height int) (*image.RGBA, bool) {
	if c.buf != nil {
		if size := c.buf.Rect.Size(); size.X == width && size.Y == height {
			return c.buf, true
		}
	}
	c.buf = image.NewRGBA(image.Rect(0, 0, width, height))
	return c.buf, false
}

// Size returns the dimensions of the cached buffer, or zero when empty.
func (c *RasterCache) Size() image.Point {
	if c.buf == nil {
		return image.Point{}
	}
	return c.buf.Rect.Size()
}

// Reset drops the cached buffer.
func (c *RasterCache) Reset() {
	c.buf = nil
}
