// Package eventloop runs submitted functions one at a time on a single
// goroutine.
package eventloop

import (
	"context"
	"errors"
	"fmt"
)

var ErrStopped = errors.New("event loop stopped")

type task struct {
	fn   func()
	done chan error
}

type Loop struct {
	tasks   chan task
	stopped chan struct{}
}

func New() *Loop {
	return &Loop{
		tasks:   make(chan task),
		stopped: make(chan struct{}),
	}
}

// Run executes tasks until ctx is done. It must be called exactly once.
func (l *Loop) Run(ctx context.Context) {
	defer close(l.stopped)

	for {
		select {
		case <-ctx.Done():
			return
		case t := <-l.tasks:
			t.done <- l.exec(t.fn)
		}
	}
}

func (l *Loop) exec(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()

	fn()

	return nil
}

// Do runs fn on the loop goroutine and waits for it to return. A panic in fn
// is reported as an error and does not stop the loop.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	t := task{fn: fn, done: make(chan error, 1)}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-l.stopped:
		return ErrStopped
	case l.tasks <- t:
	}

	select {
	case err := <-t.done:
		return err
	case <-l.stopped:
		return ErrStopped
	}
}
