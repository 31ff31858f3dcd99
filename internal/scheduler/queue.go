package scheduler

import (
	"container/heap"
	"time"
)

// Entry is one pending trigger: reminder id and the instant it is due.
type Entry struct {
	ID string
	At time.Time
}

type queueItem struct {
	Entry
	index int
}

// triggerHeap orders entries by due instant ascending, ties broken by id
// so the pop order is deterministic.
type triggerHeap []*queueItem

func (h triggerHeap) Len() int { return len(h) }

func (h triggerHeap) Less(i, j int) bool {
	if h[i].At.Equal(h[j].At) {
		return h[i].ID < h[j].ID
	}
	return h[i].At.Before(h[j].At)
}

func (h triggerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *triggerHeap) Push(x any) {
	item := x.(*queueItem)
	item.index = len(*h)
	*h = append(*h, item)
}

func (h *triggerHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// pendingQueue is the scheduler's priority queue with point removal by
// reminder id. Not safe for concurrent use; the scheduler holds its own
// mutex around every call.
type pendingQueue struct {
	heap triggerHeap
	byID map[string]*queueItem
}

func newPendingQueue() *pendingQueue {
	return &pendingQueue{byID: make(map[string]*queueItem)}
}

// upsert inserts or reschedules the entry for id.
func (q *pendingQueue) upsert(id string, at time.Time) {
	if item, ok := q.byID[id]; ok {
		item.At = at
		heap.Fix(&q.heap, item.index)
		return
	}
	item := &queueItem{Entry: Entry{ID: id, At: at}}
	q.byID[id] = item
	heap.Push(&q.heap, item)
}

// remove drops the entry for id, reporting whether one existed.
func (q *pendingQueue) remove(id string) bool {
	item, ok := q.byID[id]
	if !ok {
		return false
	}
	heap.Remove(&q.heap, item.index)
	delete(q.byID, id)
	return true
}

// peek returns the earliest entry without removing it.
func (q *pendingQueue) peek() (Entry, bool) {
	if len(q.heap) == 0 {
		return Entry{}, false
	}
	return q.heap[0].Entry, true
}

// popDue removes and returns every entry due at or before now, in order.
func (q *pendingQueue) popDue(now time.Time) []Entry {
	var due []Entry
	for len(q.heap) > 0 && !q.heap[0].At.After(now) {
		item := heap.Pop(&q.heap).(*queueItem)
		delete(q.byID, item.ID)
		due = append(due, item.Entry)
	}
	return due
}

func (q *pendingQueue) len() int { return len(q.heap) }

// snapshot returns all entries ordered by due instant.
func (q *pendingQueue) snapshot() []Entry {
	entries := make([]Entry, 0, len(q.heap))
	for _, item := range q.heap {
		entries = append(entries, item.Entry)
	}
	// Heap order is partial; sort by the queue's own ordering.
	for i := 1; i < len(entries); i++ {
		for j := i; j > 0; j-- {
			a, b := entries[j-1], entries[j]
			if a.At.Before(b.At) || (a.At.Equal(b.At) && a.ID < b.ID) {
				break
			}
			entries[j-1], entries[j] = b, a
		}
	}
	return entries
}
