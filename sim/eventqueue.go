package sim

import (
	"container/heap"
	"sync"
)

// EventQueue is a queue of events ordered by the time of events. Events that
// happen in the same slot pop in the order they were pushed.
type EventQueue interface {
	Push(evt Event)
	Pop() Event
	Len() int
	Peek() Event
}

// EventQueueImpl provides a thread safe event queue.
type EventQueueImpl struct {
	sync.Mutex
	events  eventHeap
	nextSeq uint64
}

// NewEventQueue creates and returns a newly created EventQueue.
func NewEventQueue() *EventQueueImpl {
	q := new(EventQueueImpl)
	q.events = make([]queuedEvent, 0)
	heap.Init(&q.events)

	return q
}

// Push adds an event to the event queue.
func (q *EventQueueImpl) Push(evt Event) {
	q.Lock()
	heap.Push(&q.events, queuedEvent{evt: evt, seq: q.nextSeq})
	q.nextSeq++
	q.Unlock()
}

// Pop returns the next earliest event. It returns nil if the queue is empty.
func (q *EventQueueImpl) Pop() Event {
	q.Lock()
	defer q.Unlock()

	if q.events.Len() == 0 {
		return nil
	}

	return heap.Pop(&q.events).(queuedEvent).evt
}

// Len returns the number of events in the queue.
func (q *EventQueueImpl) Len() int {
	q.Lock()
	defer q.Unlock()

	return q.events.Len()
}

// Peek returns the event in front of the queue without removing it from the
// queue. It returns nil if the queue is empty.
func (q *EventQueueImpl) Peek() Event {
	q.Lock()
	defer q.Unlock()

	if q.events.Len() == 0 {
		return nil
	}

	return q.events[0].evt
}

type queuedEvent struct {
	evt Event
	seq uint64
}

type eventHeap []queuedEvent

func (h eventHeap) Len() int {
	return len(h)
}

func (h eventHeap) Less(i, j int) bool {
	ti, tj := h[i].evt.Time(), h[j].evt.Time()
	if ti != tj {
		return ti < tj
	}

	return h[i].seq < h[j].seq
}

func (h eventHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
}

func (h *eventHeap) Push(x any) {
	*h = append(*h, x.(queuedEvent))
}

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	evt := old[n-1]
	*h = old[0 : n-1]

	return evt
}
