package viewer

import (
	"sync"
)

// listeners is an ordered set of callbacks.
type listeners[T any] struct {
	mu   sync.Mutex
	next int
	fns  []listener[T]
}

type listener[T any] struct {
	id int
	fn T
}

func (l *listeners[T]) add(fn T) (cancel func()) {
	l.mu.Lock()
	l.next++
	id := l.next
	l.fns = append(l.fns, listener[T]{id: id, fn: fn})
	l.mu.Unlock()

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		for i, e := range l.fns {
			if e.id == id {
				l.fns = append(l.fns[:i:i], l.fns[i+1:]...)
				return
			}
		}
	}
}

func (l *listeners[T]) snapshot() []T {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]T, len(l.fns))
	for i, e := range l.fns {
		out[i] = e.fn
	}
	return out
}

// Property is an observable value. Reads are safe from any goroutine;
// the view only writes on the presentation loop, and subscribers are called
// synchronously on the writing goroutine, after the value has changed.
type Property[T comparable] struct {
	name string

	mu    sync.RWMutex
	value T

	subs listeners[func(old, new T)]
}

// NewProperty returns a property holding initial.
func NewProperty[T comparable](name string, initial T) *Property[T] {
	return &Property[T]{name: name, value: initial}
}

// Name returns the property name.
func (p *Property[T]) Name() string { return p.name }

// Get returns the current value.
func (p *Property[T]) Get() T {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.value
}

// Set stores v and notifies subscribers when it differs from the current
// value. It reports whether the value changed.
func (p *Property[T]) Set(v T) bool {
	p.mu.Lock()
	old := p.value
	if old == v {
		p.mu.Unlock()
		return false
	}
	p.value = v
	p.mu.Unlock()

	for _, fn := range p.subs.snapshot() {
		fn(old, v)
	}
	return true
}

// Subscribe registers fn for change notifications. The returned function
// removes the subscription.
func (p *Property[T]) Subscribe(fn func(old, new T)) (cancel func()) {
	return p.subs.add(fn)
}
