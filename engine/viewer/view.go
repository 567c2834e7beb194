package viewer

import (
	"sync"
)

// Options configures a View.
type Options struct {
	// Rasterizer is required.
	Rasterizer Rasterizer
	// Surface defaults to a new Canvas.
	Surface Surface
	// Loop is the presentation loop. When nil the view starts its own and
	// stops it on Close.
	Loop *Loop
	// WarmupPages defaults to DefaultWarmupPages. Negative disables warm-up.
	WarmupPages int
}

// View is a paginated document viewer: a render scheduler, a navigator and
// a load pipeline sharing one presentation loop and one worker.
type View struct {
	loop     *Loop
	ownsLoop bool
	worker   *executor
	raster   Rasterizer
	surface  Surface

	warmupPages int
	loads       int

	Scheduler *Scheduler
	Navigator *Navigator
	Loading   *Property[bool]

	closeOnce sync.Once
}

// New builds a view. It panics when opts.Rasterizer is nil.
func New(opts Options) *View {
	if opts.Rasterizer == nil {
		panic("viewer: nil Rasterizer")
	}
	v := &View{
		loop:        opts.Loop,
		raster:      opts.Rasterizer,
		surface:     opts.Surface,
		warmupPages: opts.WarmupPages,
		Loading:     NewProperty("loading", false),
	}
	if v.loop == nil {
		v.loop = NewLoop()
		v.ownsLoop = true
	}
	if v.surface == nil {
		v.surface = NewCanvas()
	}
	switch {
	case v.warmupPages == 0:
		v.warmupPages = DefaultWarmupPages
	case v.warmupPages < 0:
		v.warmupPages = 0
	}
	v.worker = newExecutor("render")
	v.Scheduler = newScheduler(v.loop, v.worker, v.raster, v.surface)
	v.Navigator = &Navigator{s: v.Scheduler}
	return v
}

// Loop returns the presentation loop.
func (v *View) Loop() *Loop { return v.loop }

// Surface returns the drawing surface.
func (v *View) Surface() Surface { return v.surface }

// OnError registers fn for LoadError and RenderError reports. fn runs on
// the presentation loop.
func (v *View) OnError(fn func(error)) (cancel func()) {
	return v.Scheduler.OnError(fn)
}

// Close stops rendering, releases the current document and stops the
// worker (and the loop, when the view owns it). Queued work drains first.
func (v *View) Close() error {
	v.closeOnce.Do(func() {
		if v.loop.OnLoop() {
			v.Scheduler.shutdown()
		} else if err := v.loop.Call(v.Scheduler.shutdown); err != nil {
			Logger().Warn("Shutdown not run on loop", "error", err)
		}
		v.worker.close()
		if v.ownsLoop {
			v.loop.Close()
		}
		Logger().Info("Viewer closed")
	})
	return nil
}
