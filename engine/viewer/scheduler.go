package viewer

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

// RenderRequest is the state captured when a render job starts. It does
// not change for the duration of the job.
type RenderRequest struct {
	Document  Document
	PageIndex int
	Viewport  Size
	// Seq numbers requests in dispatch order.
	Seq uint64
}

// RenderResult is either a raster or empty (no document, no pages, or
// nothing to draw into).
type RenderResult struct {
	Image *image.RGBA
	// Reused reports whether Image came from the raster cache unchanged in
	// size.
	Reused bool
}

// Empty reports whether the result carries no raster.
func (r RenderResult) Empty() bool {
	return r.Image == nil
}

// Scheduler keeps the surface converging on the latest (document, page,
// viewport) triple. It runs at most one rasterization at a time and keeps
// at most one pending: updates that arrive while a job is in flight only
// mark the state dirty, and the job's completion re-dispatches once with
// whatever the state is then.
//
// doc, dirty, busy and closed are confined to the presentation loop.
type Scheduler struct {
	loop    *Loop
	worker  *executor
	raster  Rasterizer
	surface Surface
	cache   RasterCache

	doc    Document
	dirty  bool
	busy   bool
	closed bool
	seq    uint64
	// rendered is the viewport of the most recently dispatched request.
	rendered Size

	PageIndex    *Property[int]
	MaxPageIndex *Property[int]
	Viewport     *Property[Size]
	// Frame counts presented results.
	Frame *Property[uint64]

	errs listeners[func(error)]
	jobs listeners[func(RenderRequest)]
	docs listeners[func(Document)]
}

func newScheduler(loop *Loop, worker *executor, raster Rasterizer, surface Surface) *Scheduler {
	return &Scheduler{
		loop:         loop,
		worker:       worker,
		raster:       raster,
		surface:      surface,
		PageIndex:    NewProperty("pageIndex", 0),
		MaxPageIndex: NewProperty("maxPageIndex", 0),
		Viewport:     NewProperty("viewport", Size{}),
		Frame:        NewProperty[uint64]("frame", 0),
	}
}

// onLoop forwards fn to the loop when the caller is elsewhere and reports
// whether the caller may proceed inline.
func (s *Scheduler) onLoop(op string, fn func()) bool {
	if s.loop.OnLoop() {
		return true
	}
	Logger().Debug("Forwarding call to presentation loop", "op", op)
	if err := s.loop.Post(fn); err != nil {
		Logger().Warn("Dropped call after teardown", "op", op, "error", err)
	}
	return false
}

// Document returns the current document. Presentation loop only.
func (s *Scheduler) Document() Document {
	return s.doc
}

// Busy reports whether a render job is in flight. Presentation loop only.
func (s *Scheduler) Busy() bool {
	return s.busy
}

// SetDocument replaces the current document, resets the page to 0 and
// requests a render. The previous document is closed on the worker once
// any in-flight job that may still be using it has finished.
func (s *Scheduler) SetDocument(doc Document) {
	if !s.onLoop("SetDocument", func() { s.SetDocument(doc) }) {
		return
	}
	if s.closed {
		if doc != nil {
			s.release(doc)
		}
		return
	}
	if doc == s.doc {
		return
	}
	old := s.doc
	s.doc = doc
	if old != nil {
		s.release(old)
	}
	for _, fn := range s.docs.snapshot() {
		fn(doc)
	}
	s.PageIndex.Set(0)
	s.MaxPageIndex.Set(maxPageIndex(doc))
	s.RequestUpdate()
}

// SetPageIndex moves to page i, clamped to [0, MaxPageIndex], and requests
// a render when the page changed.
func (s *Scheduler) SetPageIndex(i int) {
	if !s.onLoop("SetPageIndex", func() { s.SetPageIndex(i) }) {
		return
	}
	i = min(max(i, 0), s.MaxPageIndex.Get())
	if s.PageIndex.Set(i) {
		s.RequestUpdate()
	}
}

// SetViewportSize records the display area and requests a render when it
// differs from the size last dispatched.
func (s *Scheduler) SetViewportSize(width, height float64) {
	if !s.onLoop("SetViewportSize", func() { s.SetViewportSize(width, height) }) {
		return
	}
	size := Size{Width: max(width, 0), Height: max(height, 0)}
	s.Viewport.Set(size)
	s.surface.Resize(size.Pixels())
	if size != s.rendered {
		s.RequestUpdate()
	}
}

// RequestUpdate is the coalescing entry point. It marks the state dirty and
// dispatches a job unless one is already in flight.
func (s *Scheduler) RequestUpdate() {
	if !s.onLoop("RequestUpdate", s.RequestUpdate) {
		return
	}
	s.dirty = true
	if s.busy || s.closed {
		Logger().Debug("Render coalesced", "pageIndex", s.PageIndex.Get())
		return
	}
	s.busy = true
	s.dirty = false
	s.seq++
	req := RenderRequest{
		Document:  s.doc,
		PageIndex: min(max(s.PageIndex.Get(), 0), maxPageIndex(s.doc)),
		Viewport:  s.Viewport.Get(),
		Seq:       s.seq,
	}
	s.rendered = req.Viewport
	for _, fn := range s.jobs.snapshot() {
		fn(req)
	}
	Logger().Debug("Render dispatched", "seq", req.Seq, "pageIndex", req.PageIndex,
		"width", req.Viewport.Width, "height", req.Viewport.Height)

	if err := s.worker.submit(func() { s.run(req) }); err != nil {
		s.busy = false
		Logger().Warn("Render not dispatched", "error", err)
	}
}

// run executes on the worker and hands the outcome to the loop.
func (s *Scheduler) run(req RenderRequest) {
	res, err := s.render(req)
	if postErr := s.loop.Post(func() { s.present(req, res, err) }); postErr != nil {
		Logger().Debug("Render result dropped after teardown", "seq", req.Seq)
	}
}

func (s *Scheduler) render(req RenderRequest) (res RenderResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &RenderError{Request: req, Err: panicError(r)}
		}
	}()

	doc := req.Document
	if doc == nil || doc.PageCount() == 0 {
		return RenderResult{}, nil
	}
	pw, ph, err := doc.PageSize(req.PageIndex)
	if err != nil {
		return RenderResult{}, &RenderError{Request: req, Err: fmt.Errorf("page size: %w", err)}
	}
	target, scale := FitPage(Size{Width: pw, Height: ph}, req.Viewport)
	if target.X <= 0 || target.Y <= 0 {
		return RenderResult{}, nil
	}

	page, err := s.raster.Rasterize(doc, req.PageIndex, scale)
	if err != nil {
		return RenderResult{}, &RenderError{Request: req, Err: err}
	}

	buf, reused := s.cache.Acquire(target.X, target.Y)
	draw.Draw(buf, buf.Rect, image.NewUniform(Background), image.Point{}, draw.Src)
	if page != nil {
		src := page.Bounds()
		if src.Size() == target {
			draw.Draw(buf, buf.Rect, page, src.Min, draw.Over)
		} else {
			draw.ApproxBiLinear.Scale(buf, buf.Rect, page, src, draw.Over, nil)
		}
	}
	if reused {
		Logger().Debug("Raster buffer reused", "width", target.X, "height", target.Y)
	}
	return RenderResult{Image: buf, Reused: reused}, nil
}

// present runs on the loop. A failed job leaves the last good frame in
// place; either way busy is cleared and a pending update is dispatched.
func (s *Scheduler) present(req RenderRequest, res RenderResult, err error) {
	if err != nil {
		Logger().Warn("Render failed", "seq", req.Seq, "pageIndex", req.PageIndex, "error", err)
		s.reportError(err)
	} else if !s.closed {
		s.surface.Clear()
		if !res.Empty() {
			s.surface.DrawCentered(res.Image)
		}
		s.Frame.Set(s.Frame.Get() + 1)
	}

	s.busy = false
	if s.dirty {
		s.RequestUpdate()
	}
}

// OnError registers fn for render and load failures. fn runs on the loop.
func (s *Scheduler) OnError(fn func(error)) (cancel func()) {
	return s.errs.add(fn)
}

// OnDocument registers fn to observe every document change in publication
// order. fn runs on the loop.
func (s *Scheduler) OnDocument(fn func(Document)) (cancel func()) {
	return s.docs.add(fn)
}

// OnDispatch registers fn to observe every request as it is dispatched. fn
// runs on the loop.
func (s *Scheduler) OnDispatch(fn func(RenderRequest)) (cancel func()) {
	return s.jobs.add(fn)
}

func (s *Scheduler) reportError(err error) {
	for _, fn := range s.errs.snapshot() {
		fn(err)
	}
}

// release closes doc on the worker, after any job already queued.
func (s *Scheduler) release(doc Document) {
	closeDoc := func() {
		if err := doc.Close(); err != nil {
			Logger().Warn("Document close failed", "error", err)
		}
	}
	if err := s.worker.submit(closeDoc); err != nil {
		closeDoc()
	}
}

// shutdown stops dispatching and releases the current document. Loop only.
func (s *Scheduler) shutdown() {
	s.closed = true
	s.dirty = false
	if s.doc != nil {
		s.release(s.doc)
		s.doc = nil
	}
}
