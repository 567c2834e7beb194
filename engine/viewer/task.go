package viewer

import (
	"context"
	"sync"

	"github.com/oklog/ulid/v2"
)

// Task is the handle for an in-flight load. It completes on the
// presentation loop after the document has been published (or the failure
// reported) and the loading indicator has been released.
type Task struct {
	id   ulid.ULID
	once sync.Once
	done chan struct{}
	doc  Document
	err  error
}

func newTask() *Task {
	return &Task{id: ulid.Make(), done: make(chan struct{})}
}

// ID identifies the load.
func (t *Task) ID() ulid.ULID { return t.id }

// Done is closed when the task completes.
func (t *Task) Done() <-chan struct{} { return t.done }

// Result returns the outcome. It is only meaningful after Done is closed.
func (t *Task) Result() (Document, error) {
	select {
	case <-t.done:
		return t.doc, t.err
	default:
		return nil, nil
	}
}

// Wait blocks until the task completes or ctx is done. Waiting on the
// presentation loop deadlocks; use Done with a subscription instead.
func (t *Task) Wait(ctx context.Context) (Document, error) {
	select {
	case <-t.done:
		return t.doc, t.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (t *Task) complete(doc Document, err error) {
	t.once.Do(func() {
		t.doc, t.err = doc, err
		close(t.done)
	})
}
