package viewer

import (
	"sync"
	"sync/atomic"

	"github.com/petermattis/goid"
)

// executor runs submitted functions one at a time, in submission order, on a
// single goroutine it owns. Submit never blocks: the queue is unbounded,
// which is fine because the render protocol keeps at most one render job
// pending.
type executor struct {
	name string

	mu     sync.Mutex
	queue  []func()
	closed bool

	wake chan struct{}
	done chan struct{}
	gid  atomic.Int64
}

func newExecutor(name string) *executor {
	e := &executor{
		name: name,
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	e.gid.Store(-1)
	go e.run()
	return e
}

// submit queues fn. It returns ErrClosed after close.
func (e *executor) submit(fn func()) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	e.queue = append(e.queue, fn)
	e.mu.Unlock()

	select {
	case e.wake <- struct{}{}:
	default:
	}
	return nil
}

// current reports whether the caller is running on the executor goroutine.
func (e *executor) current() bool {
	return goid.Get() == e.gid.Load()
}

// close stops accepting work, lets queued work drain and waits for the
// goroutine to exit. Called from the executor itself it does not wait.
func (e *executor) close() {
	e.mu.Lock()
	if !e.closed {
		e.closed = true
	}
	e.mu.Unlock()

	select {
	case e.wake <- struct{}{}:
	default:
	}
	if !e.current() {
		<-e.done
	}
}

func (e *executor) run() {
	defer close(e.done)
	e.gid.Store(goid.Get())

	for {
		e.mu.Lock()
		for len(e.queue) == 0 {
			if e.closed {
				e.mu.Unlock()
				return
			}
			e.mu.Unlock()
			<-e.wake
			e.mu.Lock()
		}
		fn := e.queue[0]
		e.queue[0] = nil
		e.queue = e.queue[1:]
		e.mu.Unlock()

		e.invoke(fn)
	}
}

func (e *executor) invoke(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			Logger().Error("Panic recovered in executor", "executor", e.name, "panic", r)
		}
	}()
	fn()
}

// Loop is the presentation goroutine. Every UI-facing mutation of a View
// happens on it: the public setters, result presentation and property
// notifications.
type Loop struct {
	exec *executor
}

// NewLoop starts a presentation loop.
func NewLoop() *Loop {
	return &Loop{exec: newExecutor("presentation")}
}

// Post queues fn to run on the loop and returns immediately. Posted
// functions run in FIFO order.
func (l *Loop) Post(fn func()) error {
	return l.exec.submit(fn)
}

// Call runs fn on the loop and waits for it to finish. It returns ErrOnLoop
// when called from the loop itself, and the panic as an error if fn panics.
func (l *Loop) Call(fn func()) error {
	if l.OnLoop() {
		return ErrOnLoop
	}
	var err error
	done := make(chan struct{})
	postErr := l.Post(func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				err = panicError(r)
			}
		}()
		fn()
	})
	if postErr != nil {
		return postErr
	}
	<-done
	return err
}

// OnLoop reports whether the caller is running on the loop goroutine.
func (l *Loop) OnLoop() bool {
	return l.exec.current()
}

// Close drains queued work and stops the loop.
func (l *Loop) Close() {
	l.exec.close()
}
