package hub

import (
	"sync"

	"main/internal/model"
)

// messageQueue is a bounded ring buffer with drop-oldest overflow.
// Any partition worker may push; exactly one delivery path pops.
// A full queue never blocks the pusher: the oldest undelivered message
// is discarded and reported, favoring recency over completeness.
type messageQueue struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	buf      []model.Message
	head     int
	tail     int
	size     int
	closed   bool
}

func newMessageQueue(capacity int) *messageQueue {
	if capacity <= 0 {
		capacity = 1
	}
	q := &messageQueue{buf: make([]model.Message, capacity)}
	q.notEmpty = sync.NewCond(&q.mu)
	return q
}

// push enqueues a message. It reports how many messages were dropped to
// make room (0 or 1) and whether the queue accepted the message at all.
func (q *messageQueue) push(m model.Message) (dropped int, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return 0, false
	}
	if q.size == len(q.buf) {
		q.buf[q.head] = model.Message{}
		q.head = (q.head + 1) % len(q.buf)
		q.size--
		dropped = 1
	}
	q.buf[q.tail] = m
	q.tail = (q.tail + 1) % len(q.buf)
	q.size++
	q.notEmpty.Signal()
	return dropped, true
}

// pop dequeues the next message, blocking until one is available or the
// queue is closed and drained.
func (q *messageQueue) pop() (model.Message, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for {
		if q.size > 0 {
			m := q.buf[q.head]
			q.buf[q.head] = model.Message{}
			q.head = (q.head + 1) % len(q.buf)
			q.size--
			return m, true
		}
		if q.closed {
			return model.Message{}, false
		}
		q.notEmpty.Wait()
	}
}

// close stops the queue from accepting messages and wakes blocked pops.
// Pending messages are discarded; live feeds restart from "now".
func (q *messageQueue) close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	for i := 0; i < q.size; i++ {
		q.buf[(q.head+i)%len(q.buf)] = model.Message{}
	}
	q.size = 0
	q.head = 0
	q.tail = 0
	q.notEmpty.Broadcast()
	q.mu.Unlock()
}

func (q *messageQueue) len() int {
	q.mu.Lock()
	size := q.size
	q.mu.Unlock()
	return size
}
