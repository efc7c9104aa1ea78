package controller

import (
	"context"
	"fmt"
	"sync"
)

// worker runs submitted tasks one at a time in submission order on a single
// goroutine. Wait is the join point for everything submitted so far.
type worker struct {
	mu      sync.Mutex
	queue   []func()
	pending int
	idle    chan struct{} // closed while pending == 0
	closed  bool

	wake chan struct{}
	done chan struct{}

	onPanic func(v interface{})
}

func newWorker(onPanic func(v interface{})) *worker {
	idle := make(chan struct{})
	close(idle)
	w := &worker{
		idle:    idle,
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		onPanic: onPanic,
	}
	go w.run()
	return w
}

// submit enqueues task. It reports false once the worker is closed.
func (w *worker) submit(task func()) bool {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return false
	}
	if w.pending == 0 {
		w.idle = make(chan struct{})
	}
	w.pending++
	w.queue = append(w.queue, task)
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
	return true
}

// wait blocks until every task submitted before the call has completed.
func (w *worker) wait(ctx context.Context) error {
	w.mu.Lock()
	idle := w.idle
	w.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for finalize: %w", ctx.Err())
	}
}

func (w *worker) isClosed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

// close drains the queue and stops the goroutine.
func (w *worker) close() {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
	<-w.done
}

func (w *worker) run() {
	defer close(w.done)
	for {
		w.mu.Lock()
		if len(w.queue) == 0 {
			closed := w.closed
			w.mu.Unlock()
			if closed {
				return
			}
			<-w.wake
			continue
		}
		task := w.queue[0]
		w.queue = w.queue[1:]
		w.mu.Unlock()

		w.exec(task)

		w.mu.Lock()
		w.pending--
		if w.pending == 0 {
			close(w.idle)
		}
		w.mu.Unlock()
	}
}

func (w *worker) exec(task func()) {
	defer func() {
		if v := recover(); v != nil && w.onPanic != nil {
			w.onPanic(v)
		}
	}()
	task()
}
