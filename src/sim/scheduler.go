package sim

import (
	"container/heap"
	"context"
)

type queueItem struct {
	timestamp int64
	seq       int64
	deliver   func(ctx context.Context) error
}

type eventQueue []*queueItem

func (q eventQueue) Len() int { return len(q) }

func (q eventQueue) Less(i, j int) bool {
	if q[i].timestamp != q[j].timestamp {
		return q[i].timestamp < q[j].timestamp
	}
	// FIFO among events scheduled for the same instant
	return q[i].seq < q[j].seq
}

func (q eventQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *eventQueue) Push(x any) { *q = append(*q, x.(*queueItem)) }

func (q *eventQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return item
}

// scheduler is a single-threaded discrete-event queue ordered by timestamp.
type scheduler struct {
	queue eventQueue
	seq   int64
}

func newScheduler() *scheduler {
	s := &scheduler{queue: eventQueue{}}
	heap.Init(&s.queue)
	return s
}

func (s *scheduler) schedule(timestamp int64, deliver func(ctx context.Context) error) {
	s.seq++
	heap.Push(&s.queue, &queueItem{timestamp: timestamp, seq: s.seq, deliver: deliver})
}

func (s *scheduler) next() (*queueItem, bool) {
	if len(s.queue) == 0 {
		return nil, false
	}
	return heap.Pop(&s.queue).(*queueItem), true
}
