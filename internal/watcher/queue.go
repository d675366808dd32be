package watcher

import (
	"sync"
	"time"
)

// QueueOperation is the action a queued item represents once it reaches
// the reconciliation pipeline: either the file must be (re)prepared and
// upserted, or its stored key must be deleted.
type QueueOperation int

const (
	QueueUpsert QueueOperation = iota
	QueueDelete
)

// QueueItem is one pending change, identified by stored key so the queue
// can hold at most one entry per key (spec §4.F, invariant 3).
type QueueItem struct {
	Key        string
	Path       string
	Operation  QueueOperation
	EnqueuedAt time.Time
}

// Queue is a per-silo set of pending changes awaiting a scheduling slot.
// It never drains itself: a caller (the silo manager's scheduler) must
// call Drain once it has been granted the indexing token.
type Queue struct {
	mu    sync.Mutex
	items map[string]QueueItem
	order []string
}

// NewQueue builds an empty Queue.
func NewQueue() *Queue {
	return &Queue{items: make(map[string]QueueItem)}
}

// Enqueue adds or replaces the entry for item.Key (last-write-wins).
// It reports whether the queue was empty before this call, which is the
// caller's cue to request a draining slot.
func (q *Queue) Enqueue(item QueueItem) (wasEmpty bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	wasEmpty = len(q.order) == 0
	if _, exists := q.items[item.Key]; !exists {
		q.order = append(q.order, item.Key)
	}
	q.items[item.Key] = item
	return wasEmpty
}

// Len reports the number of distinct stored keys currently queued.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.order)
}

// Drain removes and returns every queued item in enqueue order, leaving
// the queue empty. Items enqueued by concurrent Enqueue calls after the
// drain are not included; the caller drains again to pick up work that
// arrived mid-drain (spec §4.F).
func (q *Queue) Drain() []QueueItem {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]QueueItem, 0, len(q.order))
	for _, key := range q.order {
		out = append(out, q.items[key])
	}
	q.items = make(map[string]QueueItem)
	q.order = nil
	return out
}
