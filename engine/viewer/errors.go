package viewer

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned once the view, its loop or its worker has been
	// torn down.
	ErrClosed = errors.New("viewer: closed")
	// ErrOnLoop is returned by Loop.Call when invoked from the loop itself,
	// which would deadlock.
	ErrOnLoop = errors.New("viewer: call would block the presentation loop")
)

// LoadError reports that a document could not be produced or warmed up. It
// never affects the document currently on display.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("load %s: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("load: %v", e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// RenderError reports that the rasterizer failed for one request. The last
// good frame stays on the surface.
type RenderError struct {
	Request RenderRequest
	Err     error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render page %d at %gx%g: %v",
		e.Request.PageIndex, e.Request.Viewport.Width, e.Request.Viewport.Height, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// panicError converts a recovered panic value into an error.
func panicError(r any) error {
	if err, ok := r.(error); ok {
		return fmt.Errorf("panic: %w", err)
	}
	return fmt.Errorf("panic: %v", r)
}
