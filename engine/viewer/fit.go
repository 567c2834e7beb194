package viewer

import (
	"image"
)

// FitPage fits a page into the viewport preserving its aspect ratio. It
// returns the raster size (floored) and the scale factor to pass to the
// rasterizer. An empty page or viewport yields a zero size and zero scale.
func FitPage(page, viewport Size) (image.Point, float64) {
	if page.Empty() || viewport.Empty() {
		return image.Point{}, 0
	}
	pw, ph := page.Width, page.Height
	vw, vh := viewport.Width, viewport.Height

	var w, h float64
	if pw/ph < vw/vh {
		w = vh * pw / ph
		h = vh
	} else {
		w = vw
		h = vw * ph / pw
	}
	scale := h / ph
	return Size{Width: w, Height: h}.Pixels(), scale
}

// centerOffset returns the top-left position that centers inner in outer.
// Offsets may be negative when inner is larger.
func centerOffset(outer, inner image.Point) image.Point {
	return image.Pt((outer.X-inner.X)/2, (outer.Y-inner.Y)/2)
}
