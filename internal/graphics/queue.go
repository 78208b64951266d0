package graphics

import (
	"errors"
	"sync"
)

// ErrClosed is returned by Do once the queue has been closed.
var ErrClosed = errors.New("graphics: queue closed")

// queueDepth bounds how many calls may wait for the next frame.
const queueDepth = 256

// Queue hands work to the thread that owns the GL context. Goroutines call Do;
// the frame loop calls Drain once per frame. Calls run in submission order.
type Queue struct {
	calls     chan call
	done      chan struct{}
	closeOnce sync.Once
}

type call struct {
	fn   func()
	done chan struct{}
}

// NewQueue returns an open queue.
func NewQueue() *Queue {
	return &Queue{
		calls: make(chan call, queueDepth),
		done:  make(chan struct{}),
	}
}

// Do runs fn on the frame loop and waits for it to finish. It must not be
// called from the frame loop itself. After Close, fn is not run and Do
// returns ErrClosed.
func (q *Queue) Do(fn func()) error {
	c := call{fn: fn, done: make(chan struct{})}
	select {
	case <-q.done:
		return ErrClosed
	default:
	}
	select {
	case q.calls <- c:
	case <-q.done:
		return ErrClosed
	}
	select {
	case <-c.done:
		return nil
	case <-q.done:
		return ErrClosed
	}
}

// Drain runs every call queued so far and returns how many ran. Calls queued
// while draining wait for the next frame.
func (q *Queue) Drain() int {
	n := len(q.calls)
	ran := 0
	for ; ran < n; ran++ {
		select {
		case c := <-q.calls:
			c.fn()
			close(c.done)
		default:
			return ran
		}
	}
	return ran
}

// Close releases every waiting caller with ErrClosed. Queued calls are dropped.
func (q *Queue) Close() {
	q.closeOnce.Do(func() { close(q.done) })
}
