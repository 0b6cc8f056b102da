package store

import (
	"container/heap"
	"sync"
	"time"

	"github.com/google/uuid"
)

type expiryItem struct {
	id        uuid.UUID
	expiresAt time.Time
	index     int
}

// expiryHeap is a min-heap of alerts ordered by expiresAt.
type expiryHeap []*expiryItem

func (h expiryHeap) Len() int { return len(h) }

func (h expiryHeap) Less(i, j int) bool {
	return h[i].expiresAt.Before(h[j].expiresAt)
}

func (h expiryHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *expiryHeap) Push(x interface{}) {
	item := x.(*expiryItem)
	item.index = len(*h)
	*h = append(*h, item)
}

func (h *expiryHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*h = old[:n-1]
	return item
}

// expiryQueue schedules alert evictions, one entry per id.
type expiryQueue struct {
	mu    sync.Mutex
	heap  expiryHeap
	items map[uuid.UUID]*expiryItem
}

func newExpiryQueue() *expiryQueue {
	return &expiryQueue{items: make(map[uuid.UUID]*expiryItem)}
}

func (q *expiryQueue) schedule(id uuid.UUID, at time.Time) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if item, ok := q.items[id]; ok {
		item.expiresAt = at
		heap.Fix(&q.heap, item.index)
		return
	}
	item := &expiryItem{id: id, expiresAt: at}
	heap.Push(&q.heap, item)
	q.items[id] = item
}

func (q *expiryQueue) cancel(id uuid.UUID) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if item, ok := q.items[id]; ok {
		heap.Remove(&q.heap, item.index)
		delete(q.items, id)
	}
}

// popDue removes and returns the earliest entry if it is due at now.
func (q *expiryQueue) popDue(now time.Time) (uuid.UUID, time.Time, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.heap) == 0 || q.heap[0].expiresAt.After(now) {
		return uuid.Nil, time.Time{}, false
	}
	item := heap.Pop(&q.heap).(*expiryItem)
	delete(q.items, item.id)
	return item.id, item.expiresAt, true
}

func (q *expiryQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.heap)
}
