package event

import "sync"

// Queue is an unbounded FIFO of events with a single consumer channel.
//
// Publish never blocks, so producers may publish while holding their own
// locks; the order in which Publish calls return is the order in which
// events appear on C.
type Queue struct {
	mu      sync.Mutex
	pending []Event
	closed  bool

	wake chan struct{}
	out  chan Event
}

// NewQueue creates a queue and starts its delivery goroutine.
func NewQueue() *Queue {
	q := &Queue{
		wake: make(chan struct{}, 1),
		out:  make(chan Event),
	}
	go q.pump()
	return q
}

// Publish enqueues e. It returns false if the queue is closed.
func (q *Queue) Publish(e Event) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.pending = append(q.pending, e)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return true
}

// C returns the delivery channel. It is closed after Close once every
// pending event has been delivered.
func (q *Queue) C() <-chan Event {
	return q.out
}

// Len returns the number of events not yet handed to the consumer.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Close stops accepting events. Already queued events are still delivered.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *Queue) pump() {
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			closed := q.closed
			q.mu.Unlock()
			if closed {
				close(q.out)
				return
			}
			<-q.wake
			continue
		}
		e := q.pending[0]
		q.pending[0] = nil
		q.pending = q.pending[1:]
		q.mu.Unlock()

		q.out <- e
	}
}
