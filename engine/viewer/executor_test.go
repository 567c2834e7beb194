package viewer

import (
	"errors"
	"reflect"
	"sync"
	"testing"
)

func TestLoopRunsInOrder(t *testing.T) {
	l := NewLoop()
	defer l.Close()

	var mu sync.Mutex
	var got []int
	for i := 0; i < 5; i++ {
		if err := l.Post(func() {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
		}); err != nil {
			t.Fatalf("Post: %v", err)
		}
	}
	if err := l.Call(func() {}); err != nil {
		t.Fatalf("Call: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if !reflect.DeepEqual(got, []int{0, 1, 2, 3, 4}) {
		t.Errorf("order = %v", got)
	}
}

func TestLoopIdentity(t *testing.T) {
	l := NewLoop()
	defer l.Close()

	if l.OnLoop() {
		t.Error("test goroutine reported as loop")
	}
	var inside bool
	var nested error
	if err := l.Call(func() {
		inside = l.OnLoop()
		nested = l.Call(func() {})
	}); err != nil {
		t.Fatalf("Call: %v", err)
	}
	if !inside {
		t.Error("OnLoop false inside Call")
	}
	if !errors.Is(nested, ErrOnLoop) {
		t.Errorf("nested Call = %v, want ErrOnLoop", nested)
	}
}

func TestLoopCallRecoversPanic(t *testing.T) {
	l := NewLoop()
	defer l.Close()

	err := l.Call(func() { panic("boom") })
	if err == nil {
		t.Fatal("expected error from panicking call")
	}
	if err := l.Call(func() {}); err != nil {
		t.Errorf("loop unusable after panic: %v", err)
	}
}

func TestLoopClosed(t *testing.T) {
	l := NewLoop()
	ran := make(chan struct{}, 1)
	_ = l.Post(func() { ran <- struct{}{} })
	l.Close()

	select {
	case <-ran:
	default:
		t.Error("queued work was not drained on close")
	}
	if err := l.Post(func() {}); !errors.Is(err, ErrClosed) {
		t.Errorf("Post after close = %v, want ErrClosed", err)
	}
}
