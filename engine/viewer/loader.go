package viewer

import (
	"context"
	"fmt"
)

// DefaultWarmupPages is how many leading pages are rasterized, and thrown
// away, before a freshly loaded document is published.
const DefaultWarmupPages = 10

// Load produces a document with fn on the worker, warms it up and then
// publishes it with SetDocument on the presentation loop. The loading
// indicator is raised before any work starts and released exactly once when
// the load finishes, successfully or not. A failed load leaves the current
// document and frame untouched.
//
// Called on the loop, the indicator is raised inline. Called elsewhere,
// raising it is marshaled to the loop and waited for.
func (v *View) Load(ctx context.Context, fn LoaderFunc) *Task {
	return v.LoadSource(ctx, "", fn)
}

// LoadSource is Load with a source name used in errors and logs.
func (v *View) LoadSource(ctx context.Context, source string, fn LoaderFunc) *Task {
	task := newTask()

	if v.loop.OnLoop() {
		v.beginLoading()
	} else if err := v.loop.Call(v.beginLoading); err != nil {
		task.complete(nil, &LoadError{Source: source, Err: err})
		return task
	}

	err := v.worker.submit(func() {
		doc, err := v.produce(ctx, source, fn)
		if postErr := v.loop.Post(func() { v.finishLoad(task, source, doc, err) }); postErr != nil {
			if doc != nil {
				_ = doc.Close()
			}
			task.complete(nil, &LoadError{Source: source, Err: postErr})
		}
	})
	if err != nil {
		_ = v.loop.Post(v.endLoading)
		task.complete(nil, &LoadError{Source: source, Err: err})
	}
	return task
}

// produce runs on the worker. On failure it returns a *LoadError and never
// a document.
func (v *View) produce(ctx context.Context, source string, fn LoaderFunc) (doc Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError(r)
		}
		if err != nil {
			if doc != nil {
				_ = doc.Close()
				doc = nil
			}
			err = &LoadError{Source: source, Err: err}
		}
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err = fn(ctx)
	if err != nil {
		return doc, err
	}
	if doc == nil {
		return nil, fmt.Errorf("loader returned no document")
	}
	return doc, v.warmUp(ctx, doc)
}

// warmUp rasterizes the leading pages at a scale that yields a raster of
// about one pixel, forcing one-time costs such as font loading ahead of
// the first visible paint. The output is discarded.
func (v *View) warmUp(ctx context.Context, doc Document) error {
	n := min(v.warmupPages, doc.PageCount())
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		pw, ph, err := doc.PageSize(i)
		if err != nil {
			return fmt.Errorf("warm-up page %d: %w", i, err)
		}
		scale := 1.0
		if m := max(pw, ph); m > 0 {
			scale = 1 / m
		}
		if _, err := v.raster.Rasterize(doc, i, scale); err != nil {
			return fmt.Errorf("warm-up page %d: %w", i, err)
		}
	}
	Logger().Debug("Warm-up complete", "pages", n)
	return nil
}

// finishLoad runs on the loop.
func (v *View) finishLoad(task *Task, source string, doc Document, err error) {
	switch {
	case err != nil:
		Logger().Error("Document load failed", "source", source, "error", err)
		v.Scheduler.reportError(err)
	case v.Scheduler.closed:
		_ = doc.Close()
		doc, err = nil, &LoadError{Source: source, Err: ErrClosed}
	default:
		Logger().Info("Document published", "source", source, "pages", doc.PageCount())
		v.Scheduler.SetDocument(doc)
	}
	v.endLoading()
	task.complete(doc, err)
}

func (v *View) beginLoading() {
	v.loads++
	v.Loading.Set(true)
}

func (v *View) endLoading() {
	if v.loads > 0 {
		v.loads--
	}
	if v.loads == 0 {
		v.Loading.Set(false)
	}
}
