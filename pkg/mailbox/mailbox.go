// Package mailbox provides the actor runtime shared by the shop and ecom
// processes: a serial FIFO dispatcher of closures. Everything sent to one
// mailbox runs on a single goroutine, so state owned by that mailbox needs
// no further locking. Delayed continuations re-enter the queue through
// SendAfter, which keeps handlers prompt while work is in flight.
package mailbox

import (
	"context"
	"sync"
	"time"
)

// Mailbox is an unbounded FIFO queue of jobs drained by Run.
type Mailbox struct {
	mu    sync.Mutex
	queue []func()
	wake  chan struct{}
}

func New() *Mailbox {
	return &Mailbox{
		wake: make(chan struct{}, 1),
	}
}

// Send enqueues a job. It never blocks; the queue grows without bound under
// sustained overload.
func (m *Mailbox) Send(fn func()) {
	m.mu.Lock()
	m.queue = append(m.queue, fn)
	m.mu.Unlock()

	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// SendAfter enqueues fn once d has elapsed. The returned timer is already
// armed; callers that never cancel can ignore it.
func (m *Mailbox) SendAfter(d time.Duration, fn func()) *time.Timer {
	return time.AfterFunc(d, func() {
		m.Send(fn)
	})
}

// Len reports the number of queued jobs.
func (m *Mailbox) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// Run drains the queue serially until ctx is cancelled. Jobs already queued
// when cancellation happens are discarded.
func (m *Mailbox) Run(ctx context.Context) error {
	for {
		for {
			m.mu.Lock()
			if len(m.queue) == 0 {
				m.mu.Unlock()
				break
			}
			fn := m.queue[0]
			m.queue = m.queue[1:]
			m.mu.Unlock()

			fn()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.wake:
		}
	}
}

// Ask runs fn on the mailbox and waits for its result, so other goroutines
// can take consistent snapshots of actor-owned state.
func Ask[T any](ctx context.Context, m *Mailbox, fn func() T) (T, error) {
	out := make(chan T, 1)
	m.Send(func() {
		out <- fn()
	})

	select {
	case v := <-out:
		return v, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// SleepOrDone waits for the duration or returns early on context
// cancellation.
func SleepOrDone(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
