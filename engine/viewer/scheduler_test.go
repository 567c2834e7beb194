package viewer

import (
	"errors"
	"image"
	"image/color"
	"reflect"
	"testing"
)

func isBlack(c color.Color) bool {
	r, g, b, _ := c.RGBA()
	return r == 0 && g == 0 && b == 0
}

func TestSchedulerCoalescesUpdates(t *testing.T) {
	r := newGatedRasterizer()
	v := newTestView(t, r)
	doc := newFakeDoc(5, Size{Width: 600, Height: 800})

	onLoop(t, v, func() {
		v.Scheduler.SetViewportSize(300, 300)
		v.Scheduler.SetDocument(doc)
	})
	if p := recv(t, r.started); p != 0 {
		t.Fatalf("first render page = %d, want 0", p)
	}

	// Three updates while page 0 is in flight collapse into one job.
	onLoop(t, v, func() {
		for i := 1; i <= 3; i++ {
			v.Scheduler.SetPageIndex(i)
		}
		if !v.Scheduler.Busy() {
			t.Error("scheduler not busy while a job is in flight")
		}
	})
	r.release <- struct{}{}
	if p := recv(t, r.started); p != 3 {
		t.Fatalf("second render page = %d, want 3", p)
	}
	r.release <- struct{}{}
	waitIdle(t, v)

	if got := r.pages(); !reflect.DeepEqual(got, []int{0, 3}) {
		t.Errorf("rendered pages = %v, want [0 3]", got)
	}
	if got := r.scales()[1]; got != 0.375 {
		t.Errorf("scale = %v, want 0.375", got)
	}
}

func TestSchedulerPresentsCentered(t *testing.T) {
	r := &fakeRasterizer{}
	v := newTestView(t, r)
	doc := newFakeDoc(2, Size{Width: 600, Height: 800})

	onLoop(t, v, func() {
		v.Scheduler.SetViewportSize(300, 300)
		v.Scheduler.SetDocument(doc)
	})
	waitIdle(t, v)

	canvas := v.Surface().(*Canvas)
	img := canvas.Snapshot()
	if img.Bounds().Size() != image.Pt(300, 300) {
		t.Fatalf("canvas size = %v", img.Bounds().Size())
	}
	// 225px wide page centered at x=37.
	if !isBlack(img.At(150, 150)) {
		t.Error("page not drawn at center")
	}
	if isBlack(img.At(10, 150)) || isBlack(img.At(290, 150)) {
		t.Error("letterbox not cleared to background")
	}
	if v.Scheduler.Frame.Get() == 0 {
		t.Error("no frame presented")
	}
}

func TestSchedulerRenderFailureKeepsFrame(t *testing.T) {
	bad := errors.New("bad page")
	r := &fakeRasterizer{fail: map[int]error{1: bad}}
	v := newTestView(t, r)
	doc := newFakeDoc(3, Size{Width: 100, Height: 100})

	errs := make(chan error, 4)
	v.OnError(func(err error) { errs <- err })

	onLoop(t, v, func() {
		v.Scheduler.SetViewportSize(50, 50)
		v.Scheduler.SetDocument(doc)
	})
	waitIdle(t, v)
	frame := v.Scheduler.Frame.Get()

	onLoop(t, v, func() { v.Scheduler.SetPageIndex(1) })
	waitIdle(t, v)

	err := recv(t, errs)
	var re *RenderError
	if !errors.As(err, &re) || !errors.Is(err, bad) {
		t.Fatalf("error = %v, want RenderError wrapping %v", err, bad)
	}
	if re.Request.PageIndex != 1 {
		t.Errorf("failed page = %d, want 1", re.Request.PageIndex)
	}
	if got := v.Scheduler.Frame.Get(); got != frame {
		t.Errorf("frame advanced on failure: %d -> %d", frame, got)
	}

	// The scheduler is not wedged.
	onLoop(t, v, func() { v.Scheduler.SetPageIndex(2) })
	waitIdle(t, v)
	if got := v.Scheduler.Frame.Get(); got != frame+1 {
		t.Errorf("frame = %d, want %d", got, frame+1)
	}
}

func TestSchedulerResizeFailureKeepsFrame(t *testing.T) {
	r := &fakeRasterizer{}
	v := newTestView(t, r)
	doc := newFakeDoc(1, Size{Width: 100, Height: 100})

	errs := make(chan error, 4)
	v.OnError(func(err error) { errs <- err })

	onLoop(t, v, func() {
		v.Scheduler.SetViewportSize(50, 50)
		v.Scheduler.SetDocument(doc)
	})
	waitIdle(t, v)

	r.mu.Lock()
	r.fail = map[int]error{0: errors.New("bad page")}
	r.mu.Unlock()

	onLoop(t, v, func() { v.Scheduler.SetViewportSize(80, 80) })
	waitIdle(t, v)
	recv(t, errs)

	img := v.Surface().(*Canvas).Snapshot()
	if img.Bounds().Size() != image.Pt(50, 50) {
		t.Errorf("canvas size = %v, want the last presented 50x50", img.Bounds().Size())
	}
	if !isBlack(img.At(25, 25)) {
		t.Error("last good frame lost after failed render")
	}
}

func TestSchedulerEmptyDocument(t *testing.T) {
	r := &fakeRasterizer{}
	v := newTestView(t, r)
	doc := newFakeDoc(0, Size{})

	onLoop(t, v, func() {
		v.Scheduler.SetViewportSize(100, 100)
		v.Scheduler.SetDocument(doc)
	})
	waitIdle(t, v)

	if len(r.pages()) != 0 {
		t.Errorf("rasterizer called for empty document: %v", r.pages())
	}
	if got := v.Scheduler.MaxPageIndex.Get(); got != 0 {
		t.Errorf("MaxPageIndex = %d, want 0", got)
	}
	img := v.Surface().(*Canvas).Snapshot()
	if isBlack(img.At(50, 50)) {
		t.Error("surface not cleared")
	}
}

func TestSchedulerReleasesSupersededDocument(t *testing.T) {
	r := &fakeRasterizer{}
	v := newTestView(t, r)
	first := newFakeDoc(2, Size{Width: 10, Height: 10})
	second := newFakeDoc(2, Size{Width: 10, Height: 10})

	onLoop(t, v, func() {
		v.Scheduler.SetViewportSize(10, 10)
		v.Scheduler.SetDocument(first)
		v.Scheduler.SetPageIndex(1)
	})
	waitIdle(t, v)
	onLoop(t, v, func() { v.Scheduler.SetDocument(second) })
	waitIdle(t, v)

	if first.closed.Load() != 1 {
		t.Errorf("superseded document closed %d times, want 1", first.closed.Load())
	}
	if got := v.Scheduler.PageIndex.Get(); got != 0 {
		t.Errorf("page after document change = %d, want 0", got)
	}

	_ = v.Close()
	if second.closed.Load() != 1 {
		t.Errorf("current document closed %d times on teardown, want 1", second.closed.Load())
	}
}

func TestSchedulerSkipsUnchangedViewport(t *testing.T) {
	v := newTestView(t, &fakeRasterizer{})
	var dispatched int
	v.Scheduler.OnDispatch(func(RenderRequest) { dispatched++ })

	onLoop(t, v, func() { v.Scheduler.SetViewportSize(200, 100) })
	waitIdle(t, v)
	onLoop(t, v, func() { v.Scheduler.SetViewportSize(200, 100) })
	waitIdle(t, v)

	var n int
	onLoop(t, v, func() { n = dispatched })
	if n != 1 {
		t.Errorf("dispatched %d jobs, want 1", n)
	}
}

func TestSchedulerClampsPageIndex(t *testing.T) {
	v := newTestView(t, &fakeRasterizer{})
	doc := newFakeDoc(3, Size{Width: 10, Height: 10})

	onLoop(t, v, func() {
		v.Scheduler.SetDocument(doc)
		v.Scheduler.SetPageIndex(10)
	})
	if got := v.Scheduler.PageIndex.Get(); got != 2 {
		t.Errorf("PageIndex = %d, want 2", got)
	}
	onLoop(t, v, func() { v.Scheduler.SetPageIndex(-1) })
	if got := v.Scheduler.PageIndex.Get(); got != 0 {
		t.Errorf("PageIndex = %d, want 0", got)
	}
}

func TestSchedulerOnDocument(t *testing.T) {
	v := newTestView(t, &fakeRasterizer{})
	first := newFakeDoc(1, Size{Width: 10, Height: 10})
	second := newFakeDoc(2, Size{Width: 10, Height: 10})

	var seen []Document
	v.Scheduler.OnDocument(func(doc Document) {
		if !v.Loop().OnLoop() {
			t.Error("document listener called off the loop")
		}
		seen = append(seen, doc)
	})

	v.Scheduler.SetDocument(first)
	v.Scheduler.SetDocument(second)
	onLoop(t, v, func() { v.Scheduler.SetDocument(second) })

	var got []Document
	onLoop(t, v, func() { got = append(got, seen...) })
	if len(got) != 2 || got[0] != first || got[1] != second {
		t.Errorf("document changes = %v, want [first second]", got)
	}
}
