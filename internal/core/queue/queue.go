// Package queue implements the pending-command buffer: a priority queue that
// never reorders items the ordering key considers equal.
package queue

import "container/heap"

// Item is a queued value with its ordering key.
type Item[T any] struct {
	Value    T
	Priority int
	seq      uint64
	index    int
}

// Seq is the insertion sequence number, unique per queue.
func (it *Item[T]) Seq() uint64 { return it.seq }

// Less reports whether a must be dequeued before b. Items for which neither
// Less(a, b) nor Less(b, a) holds are dequeued in insertion order.
type Less[T any] func(a, b *Item[T]) bool

// ByPriority orders by ascending Priority.
func ByPriority[T any](a, b *Item[T]) bool {
	return a.Priority < b.Priority
}

// Option configures a Queue.
type Option[T any] func(*Queue[T])

// WithOrder replaces the default ascending-priority ordering.
func WithOrder[T any](less Less[T]) Option[T] {
	return func(q *Queue[T]) {
		q.h.less = less
	}
}

type itemHeap[T any] struct {
	items []*Item[T]
	less  Less[T]
}

func (h *itemHeap[T]) Len() int { return len(h.items) }

func (h *itemHeap[T]) Less(i, j int) bool {
	a, b := h.items[i], h.items[j]
	if h.less(a, b) {
		return true
	}
	if h.less(b, a) {
		return false
	}
	return a.seq < b.seq
}

func (h *itemHeap[T]) Swap(i, j int) {
	h.items[i], h.items[j] = h.items[j], h.items[i]
	h.items[i].index = i
	h.items[j].index = j
}

func (h *itemHeap[T]) Push(x any) {
	item := x.(*Item[T])
	item.index = len(h.items)
	h.items = append(h.items, item)
}

func (h *itemHeap[T]) Pop() any {
	old := h.items
	n := len(old)
	item := old[n-1]
	old[n-1] = nil // avoid memory leak
	item.index = -1
	h.items = old[0 : n-1]
	return item
}

// Queue is not safe for concurrent use.
type Queue[T any] struct {
	h    itemHeap[T]
	next uint64
}

func New[T any](opts ...Option[T]) *Queue[T] {
	q := &Queue[T]{h: itemHeap[T]{less: ByPriority[T]}}
	for _, opt := range opts {
		opt(q)
	}
	heap.Init(&q.h)
	return q
}

func (q *Queue[T]) Enqueue(value T, priority int) {
	item := &Item[T]{
		Value:    value,
		Priority: priority,
		seq:      q.next,
	}
	q.next++
	heap.Push(&q.h, item)
}

// Dequeue removes and returns the next value, or false when the queue is empty.
func (q *Queue[T]) Dequeue() (T, bool) {
	if q.h.Len() == 0 {
		var zero T
		return zero, false
	}
	item := heap.Pop(&q.h).(*Item[T])
	return item.Value, true
}

func (q *Queue[T]) Peek() (T, bool) {
	if q.h.Len() == 0 {
		var zero T
		return zero, false
	}
	return q.h.items[0].Value, true
}

func (q *Queue[T]) Len() int {
	return q.h.Len()
}

func (q *Queue[T]) IsEmpty() bool {
	return q.h.Len() == 0
}
