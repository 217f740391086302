package sim

import (
	"container/heap"
	"sync"
)

// eventQueue orders events by time. Events due at the same time come out in
// the order they were pushed, so two runs of one configuration see the same
// sequence.
type eventQueue struct {
	lock   sync.Mutex
	events eventHeap
	pushed uint64
}

type queuedEvent struct {
	evt Event
	seq uint64
}

func (q *eventQueue) push(evt Event) {
	q.lock.Lock()
	defer q.lock.Unlock()

	heap.Push(&q.events, queuedEvent{evt: evt, seq: q.pushed})
	q.pushed++
}

func (q *eventQueue) pop() Event {
	q.lock.Lock()
	defer q.lock.Unlock()

	return heap.Pop(&q.events).(queuedEvent).evt
}

func (q *eventQueue) len() int {
	q.lock.Lock()
	defer q.lock.Unlock()

	return len(q.events)
}

type eventHeap []queuedEvent

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].evt.Time() != h[j].evt.Time() {
		return h[i].evt.Time() < h[j].evt.Time()
	}

	return h[i].seq < h[j].seq
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) {
	*h = append(*h, x.(queuedEvent))
}

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]

	return e
}
