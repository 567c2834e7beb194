package viewer

import (
	"errors"
	"image"
	"image/color"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/disintegration/imaging"
)

type fakeDoc struct {
	pages  []Size
	closed atomic.Int32
}

func newFakeDoc(n int, page Size) *fakeDoc {
	d := &fakeDoc{}
	for i := 0; i < n; i++ {
		d.pages = append(d.pages, page)
	}
	return d
}

func (d *fakeDoc) PageCount() int { return len(d.pages) }

func (d *fakeDoc) PageSize(i int) (float64, float64, error) {
	if i < 0 || i >= len(d.pages) {
		return 0, 0, errors.New("page out of range")
	}
	return d.pages[i].Width, d.pages[i].Height, nil
}

func (d *fakeDoc) Close() error {
	d.closed.Add(1)
	return nil
}

type rasterCall struct {
	page  int
	scale float64
}

// fakeRasterizer records calls and optionally blocks each one until the
// test releases it.
type fakeRasterizer struct {
	mu    sync.Mutex
	calls []rasterCall
	fail  map[int]error

	started chan int
	release chan struct{}
}

func newGatedRasterizer() *fakeRasterizer {
	return &fakeRasterizer{started: make(chan int, 16), release: make(chan struct{}, 16)}
}

func (r *fakeRasterizer) Rasterize(doc Document, page int, scale float64) (image.Image, error) {
	r.mu.Lock()
	r.calls = append(r.calls, rasterCall{page: page, scale: scale})
	err := r.fail[page]
	r.mu.Unlock()

	if r.started != nil {
		r.started <- page
		<-r.release
	}
	if err != nil {
		return nil, err
	}
	w, h, _ := doc.PageSize(page)
	px := Size{Width: w * scale, Height: h * scale}.Pixels()
	return imaging.New(max(px.X, 1), max(px.Y, 1), color.Black), nil
}

func (r *fakeRasterizer) pages() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int, len(r.calls))
	for i, c := range r.calls {
		out[i] = c.page
	}
	return out
}

func (r *fakeRasterizer) scales() []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]float64, len(r.calls))
	for i, c := range r.calls {
		out[i] = c.scale
	}
	return out
}

func newTestView(t *testing.T, r Rasterizer) *View {
	t.Helper()
	v := New(Options{Rasterizer: r, WarmupPages: -1})
	t.Cleanup(func() { _ = v.Close() })
	return v
}

func onLoop(t *testing.T, v *View, fn func()) {
	t.Helper()
	if err := v.Loop().Call(fn); err != nil {
		t.Fatalf("loop call: %v", err)
	}
}

// waitIdle waits until no render job is in flight or pending.
func waitIdle(t *testing.T, v *View) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		var idle bool
		onLoop(t, v, func() {
			idle = !v.Scheduler.busy && !v.Scheduler.dirty
		})
		if idle {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("scheduler did not settle")
}

func recv[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting on channel")
	}
	var zero T
	return zero
}
