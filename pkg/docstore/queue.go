package docstore

import (
	"context"
	"sync"
)

// queueBuffer bounds how many tasks can sit pending on one collection
// before submitters block. Blocked submitters are still served in FIFO
// order by the channel, so the strict-ordering guarantee holds either way.
const queueBuffer = 128

// queue executes submitted tasks for one collection strictly one at a
// time, in submission order. Queues of different collections never block
// each other: each owns its own worker goroutine.
//
// A task that fails does not halt the queue; failure is the task's result,
// not the queue's.
type queue struct {
	tasks chan func()
	done  chan struct{}

	mu     sync.Mutex
	closed bool
}

func newQueue() *queue {
	q := &queue{
		tasks: make(chan func(), queueBuffer),
		done:  make(chan struct{}),
	}

	go q.loop()

	return q
}

func (q *queue) loop() {
	defer close(q.done)

	for task := range q.tasks {
		task()
	}
}

// submit appends task to the queue. Returns [ErrClosed] after close.
//
// The mutex is held across the channel send so close cannot race a
// submitter into a closed channel.
func (q *queue) submit(task func()) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrClosed
	}

	q.tasks <- task

	return nil
}

// close stops the queue and waits for already-submitted tasks to finish.
// Idempotent.
func (q *queue) close() {
	q.mu.Lock()

	if q.closed {
		q.mu.Unlock()

		return
	}

	q.closed = true
	close(q.tasks)
	q.mu.Unlock()

	<-q.done
}

// enqueue runs fn on q and waits for its result.
//
// If ctx is cancelled while waiting, enqueue returns ctx.Err() but the
// task still runs to completion on the queue; there is no mid-task
// cancellation at this layer.
func enqueue[T any](ctx context.Context, q *queue, fn func() (T, error)) (T, error) {
	type result struct {
		value T
		err   error
	}

	var zero T

	resCh := make(chan result, 1)

	err := q.submit(func() {
		value, err := fn()
		resCh <- result{value: value, err: err}
	})
	if err != nil {
		return zero, err
	}

	select {
	case res := <-resCh:
		return res.value, res.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
