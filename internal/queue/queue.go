// Package queue holds pending requests in priority order and deduplicates
// submissions that share an identity.
package queue

import (
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/LavishGent/stormdrain/internal/types"
)

// Waiter receives the outcome of the item it is attached to.
type Waiter interface {
	Resolve(value any, err error)
}

// Item is one pending unit of work. Several submissions of the same
// identity share one item, each as a waiter.
//
//nolint:govet // Queue record - logical grouping prioritized over alignment
type Item struct {
	Request   *types.Request
	ID        string
	Seq       uint64
	Submitted time.Time
	// Deferrals counts how often the item was re-queued by rate limiting.
	Deferrals int

	waiters  []Waiter
	inFlight bool
}

// Waiters returns a copy of the attached waiters.
func (it *Item) Waiters() []Waiter {
	return slices.Clone(it.waiters)
}

// Queue orders items by (priority, insertion sequence). Queued and in-flight
// items share one pending set, so an identity is pending at most once.
type Queue struct {
	mu      sync.Mutex
	items   []*Item
	pending map[string]*Item
	seq     uint64
	ready   chan struct{}
	now     func() time.Time
}

func New() *Queue {
	return &Queue{
		pending: make(map[string]*Item),
		ready:   make(chan struct{}, 1),
		now:     time.Now,
	}
}

// Enqueue adds req with its first waiter, or attaches w to the pending item
// with the same identity. attached reports the latter.
func (q *Queue) Enqueue(req *types.Request, w Waiter) (item *Item, attached bool) {
	id := req.Seal()

	q.mu.Lock()
	defer q.mu.Unlock()

	if existing, ok := q.pending[id]; ok {
		if w != nil {
			existing.waiters = append(existing.waiters, w)
		}
		return existing, true
	}

	q.seq++
	item = &Item{
		Request:   req,
		ID:        id,
		Seq:       q.seq,
		Submitted: q.now(),
	}
	if w != nil {
		item.waiters = []Waiter{w}
	}

	q.pending[id] = item
	q.insertLocked(item)
	q.signal()
	return item, false
}

// DequeueNext removes the most urgent item and marks it in flight.
func (q *Queue) DequeueNext() (*Item, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return nil, false
	}

	item := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	item.inFlight = true

	if len(q.items) > 0 {
		q.signal()
	}
	return item, true
}

// Requeue returns an in-flight item to the queue at its original place in
// line. An item whose waiters have all detached is dropped instead; Requeue
// then returns false.
func (q *Queue) Requeue(item *Item) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.pending[item.ID] != item {
		return false
	}
	if len(item.waiters) == 0 {
		delete(q.pending, item.ID)
		return false
	}

	item.inFlight = false
	item.Deferrals++
	q.insertLocked(item)
	q.signal()
	return true
}

// Complete removes an item and returns the waiters to resolve.
func (q *Queue) Complete(id string) []Waiter {
	q.mu.Lock()
	defer q.mu.Unlock()

	item, ok := q.pending[id]
	if !ok {
		return nil
	}
	delete(q.pending, id)
	if !item.inFlight {
		q.removeLocked(item)
	}

	waiters := item.waiters
	item.waiters = nil
	return waiters
}

// Cancel removes a queued item. In-flight items are not affected.
func (q *Queue) Cancel(id string) ([]Waiter, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	item, ok := q.pending[id]
	if !ok || item.inFlight {
		return nil, false
	}

	q.removeLocked(item)
	delete(q.pending, id)

	waiters := item.waiters
	item.waiters = nil
	return waiters, true
}

// Detach removes one waiter. When the last waiter of a queued item detaches,
// the item is dropped and Detach returns true.
func (q *Queue) Detach(id string, w Waiter) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	item, ok := q.pending[id]
	if !ok {
		return false
	}

	idx := slices.Index(item.waiters, w)
	if idx < 0 {
		return false
	}
	item.waiters = slices.Delete(item.waiters, idx, idx+1)

	if len(item.waiters) == 0 && !item.inFlight {
		q.removeLocked(item)
		delete(q.pending, id)
		return true
	}
	return false
}

// Contains reports whether id is queued or in flight.
func (q *Queue) Contains(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.pending[id]
	return ok
}

// State reports StateQueued, StateInFlight or StateUnknown.
func (q *Queue) State(id string) types.RequestState {
	q.mu.Lock()
	defer q.mu.Unlock()

	item, ok := q.pending[id]
	switch {
	case !ok:
		return types.StateUnknown
	case item.inFlight:
		return types.StateInFlight
	default:
		return types.StateQueued
	}
}

// Len returns the number of queued items.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// InFlight returns the number of dequeued items not yet completed.
func (q *Queue) InFlight() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending) - len(q.items)
}

// Drain removes and returns every queued item. In-flight items stay pending.
func (q *Queue) Drain() []*Item {
	q.mu.Lock()
	defer q.mu.Unlock()

	drained := q.items
	q.items = nil
	for _, item := range drained {
		delete(q.pending, item.ID)
	}
	return drained
}

// Ready is signaled when items become available. Consumers must still
// tolerate an empty DequeueNext after a signal.
func (q *Queue) Ready() <-chan struct{} {
	return q.ready
}

func (q *Queue) signal() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}

func before(a, b *Item) bool {
	if a.Request.Priority != b.Request.Priority {
		return a.Request.Priority < b.Request.Priority
	}
	return a.Seq < b.Seq
}

func (q *Queue) insertLocked(item *Item) {
	idx := sort.Search(len(q.items), func(i int) bool {
		return before(item, q.items[i])
	})
	q.items = slices.Insert(q.items, idx, item)
}

func (q *Queue) removeLocked(item *Item) {
	if idx := slices.Index(q.items, item); idx >= 0 {
		q.items = slices.Delete(q.items, idx, idx+1)
	}
}
