// Package dispatch provides the FIFO event queue that feeds the morse
// decoder. Events are delivered one at a time to a single handler, each
// processed to completion before the next is taken, so the handler never
// runs reentrant.
package dispatch

import (
	"errors"
	"sync/atomic"

	"github.com/womat/debug"

	"morsed/pkg/port"
)

var ErrQueueFull = errors.New("dispatch: queue full")

// Handler processes a single event. It runs on the dispatch goroutine
// and must not block; it may post new events to its own queue.
type Handler func(port.Event)

// Queue is a FIFO, run-to-completion event queue.
type Queue struct {
	// events buffers the posted events in arrival order.
	events chan port.Event
	// dropped counts events rejected because the buffer was full.
	dropped uint64

	// quit stops the dispatch loop
	quit chan struct{}
	// done signals that the dispatch loop has stopped
	done chan struct{}
}

// New creates a queue buffering up to size events.
func New(size int) *Queue {
	if size <= 0 {
		size = 64
	}

	return &Queue{
		events: make(chan port.Event, size),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Post appends an event to the queue. Post never blocks, so a handler
// can post to its own queue while an event is being dispatched; if the
// buffer is full the event is dropped and ErrQueueFull returned.
func (q *Queue) Post(e port.Event) error {
	select {
	case q.events <- e:
		return nil
	default:
		atomic.AddUint64(&q.dropped, 1)
		return ErrQueueFull
	}
}

// Run delivers the queued events to h in arrival order until Close is
// called. It is designed to run in a separate go function, e.g.:
//  go q.Run(d.HandleEvent)
func (q *Queue) Run(h Handler) {
	for {
		select {
		case <-q.quit:
			q.done <- struct{}{}
			return
		case e := <-q.events:
			h(e)
		}
	}
}

// Dropped returns the number of events rejected so far.
func (q *Queue) Dropped() uint64 {
	return atomic.LoadUint64(&q.dropped)
}

// Close stops the dispatch loop. Events still buffered are discarded.
func (q *Queue) Close() error {
	q.quit <- struct{}{}

	// wait until Run() is terminated
	<-q.done

	if n := q.Dropped(); n > 0 {
		debug.ErrorLog.Printf("dispatch queue dropped %d events", n)
	}
	return nil
}
